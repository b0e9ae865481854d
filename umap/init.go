package umap

import (
	"math"
	"math/rand"

	"github.com/theodesp/unionfind"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Above this many points, a dense eigendecomposition of the graph Laplacian is
// too slow and the layout starts from random coordinates instead.
const maxSpectralSize = 4096

// components labels the connected components of the graph, numbered in order
// of their lowest vertex.
func components(edges []edge, n int) ([]int, int) {
	uf := unionfind.New(n)
	for _, e := range edges {
		uf.Union(e.Head, e.Tail)
	}

	labels := make([]int, n)
	seen := make(map[int]int)
	for i := 0; i < n; i++ {
		root := uf.Root(i)
		id, exists := seen[root]
		if !exists {
			id = len(seen)
			seen[root] = id
		}
		labels[i] = id
	}

	return labels, len(seen)
}

// spectralInit lays out each connected component with the eigenvectors of its
// normalized Laplacian, places separate components apart from one another, and
// scales the result so its largest coordinate is 10.
func spectralInit(data [][]float64, edges []edge, dim int, rng *rand.Rand) [][]float64 {
	n := len(data)
	labels, nComp := components(edges, n)

	var out [][]float64
	if nComp == 1 {
		vertices := make([]int, n)
		for i := range vertices {
			vertices[i] = i
		}

		var ok bool
		out, ok = spectralComponent(vertices, edges, dim)
		if !ok {
			return randomInit(n, dim, rng)
		}
	} else {
		out = multiComponentLayout(data, edges, labels, nComp, dim, rng)
	}

	maxAbs := 0.0
	for _, row := range out {
		for _, v := range row {
			maxAbs = math.Max(maxAbs, math.Abs(v))
		}
	}
	if maxAbs == 0 || math.IsNaN(maxAbs) {
		return randomInit(n, dim, rng)
	}

	expansion := 10 / maxAbs
	for _, row := range out {
		for d := range row {
			row[d] = row[d]*expansion + rng.NormFloat64()*0.0001
		}
	}

	return out
}

func randomInit(n, dim int, rng *rand.Rand) [][]float64 {
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, dim)
		for d := range out[i] {
			out[i][d] = rng.Float64()*20 - 10
		}
	}

	return out
}

// spectralComponent embeds the vertices of one connected component with the
// eigenvectors of the 2nd through (dim+1)th smallest eigenvalues of the
// symmetric normalized Laplacian. ok is false when the component is too small
// or too large, or the decomposition fails.
func spectralComponent(vertices []int, edges []edge, dim int) ([][]float64, bool) {
	m := len(vertices)
	if m <= dim+1 || m > maxSpectralSize {
		return nil, false
	}

	local := make(map[int]int, m)
	for li, v := range vertices {
		local[v] = li
	}

	adj := mat.NewSymDense(m, nil)
	for _, e := range edges {
		a, okA := local[e.Head]
		b, okB := local[e.Tail]
		if !okA || !okB || a == b {
			continue
		}
		adj.SetSym(a, b, e.Weight)
	}

	invSqrtDegree := make([]float64, m)
	for i := 0; i < m; i++ {
		var degree float64
		for j := 0; j < m; j++ {
			degree += adj.At(i, j)
		}
		if degree > 0 {
			invSqrtDegree[i] = 1 / math.Sqrt(degree)
		}
	}

	lap := mat.NewSymDense(m, nil)
	for i := 0; i < m; i++ {
		for j := i; j < m; j++ {
			v := -adj.At(i, j) * invSqrtDegree[i] * invSqrtDegree[j]
			if i == j {
				v += 1
			}
			lap.SetSym(i, j, v)
		}
	}

	var eig mat.EigenSym
	if ok := eig.Factorize(lap, true); !ok {
		return nil, false
	}

	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Eigenvalues are ascending; the first eigenvector is the trivial one
	out := make([][]float64, m)
	for i := range out {
		out[i] = make([]float64, dim)
		for d := 0; d < dim; d++ {
			out[i][d] = vectors.At(i, d+1)
		}
	}

	return out, true
}

// multiComponentLayout gives every component an anchor point ("meta
// embedding") and lays each component out around it, within half the distance
// to the nearest other anchor.
func multiComponentLayout(data [][]float64, edges []edge, labels []int, nComp, dim int, rng *rand.Rand) [][]float64 {
	members := make([][]int, nComp)
	for i, l := range labels {
		members[l] = append(members[l], i)
	}

	meta := componentAnchors(data, members, dim)

	out := make([][]float64, len(data))
	for c, vertices := range members {
		dataRange := math.Inf(1)
		for other := range meta {
			if other == c {
				continue
			}
			dataRange = math.Min(dataRange, floats.Distance(meta[c], meta[other], 2)/2)
		}
		if math.IsInf(dataRange, 1) || dataRange == 0 {
			dataRange = 1
		}

		layout, ok := spectralComponent(vertices, edges, dim)
		if ok && len(vertices) >= 2*dim {
			maxAbs := 0.0
			for _, row := range layout {
				for _, v := range row {
					maxAbs = math.Max(maxAbs, math.Abs(v))
				}
			}
			if maxAbs > 0 {
				for _, row := range layout {
					floats.Scale(dataRange/maxAbs, row)
				}
			}
		} else {
			layout = make([][]float64, len(vertices))
			for i := range layout {
				layout[i] = make([]float64, dim)
				for d := range layout[i] {
					layout[i][d] = (rng.Float64()*2 - 1) * dataRange
				}
			}
		}

		for li, v := range vertices {
			floats.Add(layout[li], meta[c])
			out[v] = layout[li]
		}
	}

	return out
}

// componentAnchors places the components on signed unit axes when there are
// few of them, and otherwise by classical multidimensional scaling of their
// centroids.
func componentAnchors(data [][]float64, members [][]int, dim int) [][]float64 {
	nComp := len(members)
	meta := make([][]float64, nComp)

	if nComp <= 2*dim {
		k := (nComp + 1) / 2
		for c := range meta {
			meta[c] = make([]float64, dim)
			if c < k {
				meta[c][c] = 1
			} else {
				meta[c][c-k] = -1
			}
		}
		return meta
	}

	centroids := make([][]float64, nComp)
	for c, vertices := range members {
		centroids[c] = make([]float64, len(data[0]))
		for _, v := range vertices {
			floats.Add(centroids[c], data[v])
		}
		floats.Scale(1/float64(len(vertices)), centroids[c])
	}

	// Double centering of the squared distances
	sq := mat.NewSymDense(nComp, nil)
	for i := 0; i < nComp; i++ {
		for j := i; j < nComp; j++ {
			d := floats.Distance(centroids[i], centroids[j], 2)
			sq.SetSym(i, j, d*d)
		}
	}
	rowMeans := make([]float64, nComp)
	var grand float64
	for i := 0; i < nComp; i++ {
		for j := 0; j < nComp; j++ {
			rowMeans[i] += sq.At(i, j)
		}
		grand += rowMeans[i]
		rowMeans[i] /= float64(nComp)
	}
	grand /= float64(nComp * nComp)

	b := mat.NewSymDense(nComp, nil)
	for i := 0; i < nComp; i++ {
		for j := i; j < nComp; j++ {
			b.SetSym(i, j, -0.5*(sq.At(i, j)-rowMeans[i]-rowMeans[j]+grand))
		}
	}

	var eig mat.EigenSym
	ok := eig.Factorize(b, true)

	maxAbs := 0.0
	if ok {
		values := eig.Values(nil)
		var vectors mat.Dense
		eig.VectorsTo(&vectors)

		for c := range meta {
			meta[c] = make([]float64, dim)
			for d := 0; d < dim && d < nComp; d++ {
				// Largest eigenvalues come last
				col := nComp - 1 - d
				meta[c][d] = vectors.At(c, col) * math.Sqrt(math.Max(values[col], 0))
				maxAbs = math.Max(maxAbs, math.Abs(meta[c][d]))
			}
		}
	}

	if !ok || maxAbs == 0 {
		// Spread the anchors evenly on a circle
		for c := range meta {
			meta[c] = make([]float64, dim)
			theta := 2 * math.Pi * float64(c) / float64(nComp)
			meta[c][0] = math.Cos(theta)
			if dim > 1 {
				meta[c][1] = math.Sin(theta)
			}
		}
		return meta
	}

	for c := range meta {
		floats.Scale(1/maxAbs, meta[c])
	}

	return meta
}
