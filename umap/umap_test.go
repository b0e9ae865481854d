package umap

import (
	"context"
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// blobs returns groups of points scattered around well separated centers.
func blobs(groups, perGroup, dim int, seed int64) (*mat.Dense, []int) {
	rng := rand.New(rand.NewSource(seed))
	x := mat.NewDense(groups*perGroup, dim, nil)
	labels := make([]int, groups*perGroup)

	for g := 0; g < groups; g++ {
		for i := 0; i < perGroup; i++ {
			row := g*perGroup + i
			labels[row] = g
			for d := 0; d < dim; d++ {
				center := 0.0
				if d == g {
					center = 20
				}
				x.Set(row, d, center+rng.NormFloat64())
			}
		}
	}

	return x, labels
}

func TestFindABParams(t *testing.T) {
	a, b := FindABParams(1, 0.1)
	if math.Abs(a-1.577) > 0.02 || math.Abs(b-0.895) > 0.02 {
		t.Errorf("expected a~1.577 and b~0.895, got %v and %v", a, b)
	}

	// Cached calls return the same answer
	a2, b2 := FindABParams(1, 0.1)
	if a != a2 || b != b2 {
		t.Errorf("memoized parameters differ: %v,%v vs %v,%v", a, b, a2, b2)
	}
}

func TestSmoothKNNDistTarget(t *testing.T) {
	x, _ := blobs(2, 15, 4, 11)
	n, _ := x.Dims()
	data := make([][]float64, n)
	for i := range data {
		data[i] = mat.Row(nil, i, x)
	}

	k := 10
	knn, err := nearestNeighbors(context.Background(), data, k, 3)
	if err != nil {
		t.Fatal(err)
	}

	for i := range knn.Indices {
		if knn.Indices[i][0] != i || knn.Distances[i][0] != 0 {
			t.Fatalf("point %d: expected itself as the first neighbor", i)
		}
		if !floats.Equal(knn.Distances[i], sortedCopy(knn.Distances[i])) {
			t.Fatalf("point %d: neighbor distances are not sorted", i)
		}
	}

	sigmas, rhos := smoothKNNDist(knn.Distances, k, 1)
	target := math.Log2(float64(k))
	for i, row := range knn.Distances {
		var psum float64
		for _, d := range row[1:] {
			if dd := d - rhos[i]; dd > 0 {
				psum += math.Exp(-dd / sigmas[i])
			} else {
				psum++
			}
		}
		if math.Abs(psum-target) > 1e-3 {
			t.Errorf("point %d: membership sum %v, expected %v", i, psum, target)
		}
		if rhos[i] != knn.Distances[i][1] {
			t.Errorf("point %d: rho should be the nearest neighbor distance", i)
		}
	}
}

func sortedCopy(x []float64) []float64 {
	out := make([]float64, len(x))
	copy(out, x)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

func TestFuzzySetIsSymmetric(t *testing.T) {
	x, _ := blobs(3, 10, 5, 5)
	n, _ := x.Dims()
	data := make([][]float64, n)
	for i := range data {
		data[i] = mat.Row(nil, i, x)
	}

	knn, err := nearestNeighbors(context.Background(), data, 5, 2)
	if err != nil {
		t.Fatal(err)
	}
	edges := fuzzySimplicialSet(knn, 5, 1)

	weights := make(map[[2]int]float64)
	for _, e := range edges {
		if e.Head == e.Tail {
			t.Fatalf("self loop at %d", e.Head)
		}
		if e.Weight <= 0 || e.Weight > 1 {
			t.Fatalf("edge %d-%d has weight %v", e.Head, e.Tail, e.Weight)
		}
		weights[[2]int{e.Head, e.Tail}] = e.Weight
	}
	for pair, w := range weights {
		if weights[[2]int{pair[1], pair[0]}] != w {
			t.Errorf("edge %v is not symmetric", pair)
		}
	}

	// Far apart blobs do not share edges
	_, nComp := components(edges, n)
	if nComp != 3 {
		t.Errorf("expected 3 connected components, got %d", nComp)
	}
}

func TestFitTransformSeparatesGroups(t *testing.T) {
	x, labels := blobs(3, 20, 8, 42)

	opts := DefaultOptions()
	opts.NEpochs = 200
	emb, err := FitTransform(context.Background(), x, opts)
	if err != nil {
		t.Fatal(err)
	}

	n, dim := emb.Dims()
	if n != 60 || dim != 3 {
		t.Fatalf("expected a 60 x 3 embedding, got %d x %d", n, dim)
	}

	// The nearest embedded neighbor of a point should belong to its own group
	agree := 0
	for i := 0; i < n; i++ {
		best, bestDist := -1, math.Inf(1)
		for j := 0; j < n; j++ {
			if i == j {
				continue
			}
			if d := floats.Distance(mat.Row(nil, i, emb), mat.Row(nil, j, emb), 2); d < bestDist {
				best, bestDist = j, d
			}
		}
		if labels[best] == labels[i] {
			agree++
		}
	}
	if agree < 57 {
		t.Errorf("only %d of 60 points have a same-group nearest neighbor", agree)
	}
}

func TestFitTransformDeterministic(t *testing.T) {
	x, _ := blobs(2, 15, 6, 9)

	opts := DefaultOptions()
	opts.NEpochs = 50
	opts.Workers = 4
	a, err := FitTransform(context.Background(), x, opts)
	if err != nil {
		t.Fatal(err)
	}

	opts.Workers = 1
	b, err := FitTransform(context.Background(), x, opts)
	if err != nil {
		t.Fatal(err)
	}

	if !mat.Equal(a, b) {
		t.Errorf("two runs with the same seed gave different embeddings")
	}

	opts.RandomState = 2
	c, err := FitTransform(context.Background(), x, opts)
	if err != nil {
		t.Fatal(err)
	}
	if mat.Equal(a, c) {
		t.Errorf("different seeds gave identical embeddings")
	}
}

func TestFitTransformErrors(t *testing.T) {
	if _, err := FitTransform(context.Background(), mat.NewDense(1, 3, nil), DefaultOptions()); err == nil {
		t.Errorf("expected an error for a single sample")
	}

	x := mat.NewDense(3, 2, []float64{1, 2, 3, math.NaN(), 5, 6})
	if _, err := FitTransform(context.Background(), x, DefaultOptions()); err == nil {
		t.Errorf("expected an error for NaN input")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	y, _ := blobs(2, 10, 3, 1)
	if _, err := FitTransform(ctx, y, DefaultOptions()); err == nil {
		t.Errorf("expected an error for a cancelled context")
	}
}
