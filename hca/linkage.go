// Package hca performs agglomerative hierarchical clustering with Ward linkage
// and lays out the resulting tree as a dendrogram.
package hca

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// Merge is one agglomeration step. Clusters numbered below the number of
// observations n are single observations; the cluster created by the k-th
// merge is numbered n+k. A is always smaller than B.
type Merge struct {
	A        int
	B        int
	Distance float64
	Size     int
}

// Linkage is the sequence of n-1 merges over n observations, in order of
// non-decreasing distance.
type Linkage []Merge

// Leaves is the number of observations the linkage was built from.
func (z Linkage) Leaves() int {
	return len(z) + 1
}

// Ward clusters the points with Ward's minimum variance method on Euclidean
// distances. Inter-cluster distances are updated with the Lance-Williams
// recurrence, so the merge heights match those of the usual scientific
// libraries.
func Ward(points [][]float64) (Linkage, error) {
	n := len(points)
	if n < 2 {
		return nil, fmt.Errorf("at least 2 observations are required to build a tree, got %d", n)
	}

	width := len(points[0])
	for i, p := range points {
		if len(p) != width {
			return nil, fmt.Errorf("observation %d has %d values, expected %d", i, len(p), width)
		}
		for _, v := range p {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("observation %d holds a non-finite value", i)
			}
		}
	}

	// dist is kept square for simplicity; only active slots are read.
	dist := make([][]float64, n)
	for i := range dist {
		dist[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := floats.Distance(points[i], points[j], 2)
			dist[i][j] = d
			dist[j][i] = d
		}
	}

	active := make([]bool, n)
	size := make([]int, n)
	id := make([]int, n)
	for i := range active {
		active[i] = true
		size[i] = 1
		id[i] = i
	}

	out := make(Linkage, 0, n-1)
	for step := 0; step < n-1; step++ {
		bi, bj := -1, -1
		best := math.Inf(1)
		for i := 0; i < n; i++ {
			if !active[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				if active[j] && dist[i][j] < best {
					best = dist[i][j]
					bi, bj = i, j
				}
			}
		}

		a, b := id[bi], id[bj]
		if a > b {
			a, b = b, a
		}
		out = append(out, Merge{A: a, B: b, Distance: best, Size: size[bi] + size[bj]})

		// The merged cluster takes over slot bi
		ni, nj := float64(size[bi]), float64(size[bj])
		for k := 0; k < n; k++ {
			if !active[k] || k == bi || k == bj {
				continue
			}
			nk := float64(size[k])
			dik, djk := dist[bi][k], dist[bj][k]
			d2 := ((ni+nk)*dik*dik + (nj+nk)*djk*djk - nk*best*best) / (ni + nj + nk)
			d := math.Sqrt(math.Max(d2, 0))
			dist[bi][k] = d
			dist[k][bi] = d
		}

		active[bj] = false
		size[bi] += size[bj]
		id[bi] = n + step
	}

	return out, nil
}

// members lists, for every cluster id in z, the observations it contains.
func (z Linkage) members() [][]int {
	n := z.Leaves()
	out := make([][]int, n+len(z))
	for i := 0; i < n; i++ {
		out[i] = []int{i}
	}
	for k, m := range z {
		joined := make([]int, 0, len(out[m.A])+len(out[m.B]))
		joined = append(joined, out[m.A]...)
		joined = append(joined, out[m.B]...)
		out[n+k] = joined
	}

	return out
}

// Validate checks that z is a well formed linkage.
func (z Linkage) Validate() error {
	n := z.Leaves()
	used := make([]bool, n+len(z))
	for k, m := range z {
		for _, c := range []int{m.A, m.B} {
			if c < 0 || c >= n+k {
				return fmt.Errorf("merge %d refers to cluster %d, which does not exist yet", k, c)
			}
			if used[c] {
				return fmt.Errorf("merge %d reuses cluster %d", k, c)
			}
			used[c] = true
		}
		if k > 0 && m.Distance < z[k-1].Distance {
			return fmt.Errorf("merge %d is lower than merge %d", k, k-1)
		}
	}

	return nil
}
