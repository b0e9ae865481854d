package hca

import (
	"fmt"
	"image/color"
	"sort"

	"github.com/theodesp/unionfind"
)

// DefaultPalette is the cycle of colors given to subtrees below the color
// threshold, in order (the tab10 cycle without its first blue).
var DefaultPalette = []color.Color{
	color.RGBA{0xff, 0x7f, 0x0e, 0xff},
	color.RGBA{0x2c, 0xa0, 0x2c, 0xff},
	color.RGBA{0xd6, 0x27, 0x28, 0xff},
	color.RGBA{0x94, 0x67, 0xbd, 0xff},
	color.RGBA{0x8c, 0x56, 0x4b, 0xff},
	color.RGBA{0xe3, 0x77, 0xc2, 0xff},
	color.RGBA{0x7f, 0x7f, 0x7f, 0xff},
	color.RGBA{0xbc, 0xbd, 0x22, 0xff},
	color.RGBA{0x17, 0xbe, 0xcf, 0xff},
}

// Gray is the color of links at or above the color threshold.
var Gray = color.RGBA{0x80, 0x80, 0x80, 0xff}

// Link is one U-shaped connector of a dendrogram: X and Y trace the left leg
// up, across, and down the right leg.
type Link struct {
	X      [4]float64
	Y      [4]float64
	Color  color.Color
	Merge  int
	Height float64
}

// Layout is the drawable geometry of a dendrogram. Leaves are spaced 10 units
// apart starting at 5.
type Layout struct {
	// Leaves holds observation indices from left to right.
	Leaves        []int
	LeafLabels    []string
	LeafPositions []float64
	Links         []Link
	MaxHeight     float64
}

// DendrogramOptions controls the coloring of a dendrogram.
type DendrogramOptions struct {
	// Subtrees whose root merges below Threshold get a color of their own.
	Threshold  float64
	Palette    []color.Color
	AboveColor color.Color
}

// Dendrogram lays out z with the left child of every merge drawn on the left.
// labels, if given, must name each observation.
func Dendrogram(z Linkage, labels []string, opts DendrogramOptions) (Layout, error) {
	if err := z.Validate(); err != nil {
		return Layout{}, err
	}

	n := z.Leaves()
	if labels != nil && len(labels) != n {
		return Layout{}, fmt.Errorf("%d labels for %d observations", len(labels), n)
	}
	if len(opts.Palette) == 0 {
		opts.Palette = DefaultPalette
	}
	if opts.AboveColor == nil {
		opts.AboveColor = Gray
	}

	out := Layout{}
	linkColors := colorLinks(z, opts)

	var walk func(cluster int) (x, h float64)
	walk = func(cluster int) (float64, float64) {
		if cluster < n {
			x := float64(10*len(out.Leaves) + 5)
			out.Leaves = append(out.Leaves, cluster)
			out.LeafPositions = append(out.LeafPositions, x)
			if labels != nil {
				out.LeafLabels = append(out.LeafLabels, labels[cluster])
			} else {
				out.LeafLabels = append(out.LeafLabels, fmt.Sprint(cluster))
			}
			return x, 0
		}

		k := cluster - n
		m := z[k]
		xa, ha := walk(m.A)
		xb, hb := walk(m.B)

		out.Links = append(out.Links, Link{
			X:      [4]float64{xa, xa, xb, xb},
			Y:      [4]float64{ha, m.Distance, m.Distance, hb},
			Color:  linkColors[k],
			Merge:  k,
			Height: m.Distance,
		})
		if m.Distance > out.MaxHeight {
			out.MaxHeight = m.Distance
		}

		return (xa + xb) / 2, m.Distance
	}

	walk(n + len(z) - 1)

	return out, nil
}

// colorLinks assigns each maximal subtree rooted below the threshold the next
// palette color, left to right, and everything else the above color.
func colorLinks(z Linkage, opts DendrogramOptions) []color.Color {
	n := z.Leaves()
	out := make([]color.Color, len(z))
	next := 0

	var paint func(cluster int, c color.Color)
	paint = func(cluster int, c color.Color) {
		if cluster < n {
			return
		}
		out[cluster-n] = c
		paint(z[cluster-n].A, c)
		paint(z[cluster-n].B, c)
	}

	var visit func(cluster int)
	visit = func(cluster int) {
		if cluster < n {
			return
		}

		m := z[cluster-n]
		if m.Distance < opts.Threshold {
			paint(cluster, opts.Palette[next%len(opts.Palette)])
			next++
			return
		}

		out[cluster-n] = opts.AboveColor
		visit(m.A)
		visit(m.B)
	}

	visit(n + len(z) - 1)

	return out
}

// FlatClusters cuts the tree at threshold: observations joined by merges
// strictly below it share a cluster. Clusters are numbered from 1 in order of
// their lowest observation index.
func FlatClusters(z Linkage, threshold float64) []int {
	n := z.Leaves()
	uf := unionfind.New(n)

	// Any one observation stands in for each cluster
	rep := make([]int, n+len(z))
	for i := 0; i < n; i++ {
		rep[i] = i
	}
	for k, m := range z {
		if m.Distance < threshold {
			uf.Union(rep[m.A], rep[m.B])
		}
		rep[n+k] = rep[m.A]
	}

	roots := make(map[int]int)
	out := make([]int, n)
	for i := 0; i < n; i++ {
		root := uf.Root(i)
		label, exists := roots[root]
		if !exists {
			label = len(roots) + 1
			roots[root] = label
		}
		out[i] = label
	}

	return out
}

// ClusterMembers groups observation indices by flat cluster label.
func ClusterMembers(flat []int) [][]int {
	byLabel := make(map[int][]int)
	for i, l := range flat {
		byLabel[l] = append(byLabel[l], i)
	}

	keys := make([]int, 0, len(byLabel))
	for l := range byLabel {
		keys = append(keys, l)
	}
	sort.Ints(keys)

	out := make([][]int, len(keys))
	for i, l := range keys {
		out[i] = byLabel[l]
	}

	return out
}
