// Package umap embeds high dimensional points in a low dimensional space with
// Uniform Manifold Approximation and Projection. Results are deterministic for
// a given RandomState.
package umap

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"gonum.org/v1/gonum/mat"
)

const (
	InitSpectral = "spectral"
	InitRandom   = "random"
)

// Options controls the embedding. Start from DefaultOptions; zero values of the
// other fields (MinDist excepted, for which 0 is meaningful) fall back to their
// defaults.
type Options struct {
	NNeighbors         int
	NComponents        int
	MinDist            float64
	Spread             float64
	NEpochs            int
	LearningRate       float64
	NegativeSampleRate int
	RepulsionStrength  float64
	LocalConnectivity  float64
	RandomState        int64
	Init               string

	// Workers bounds the goroutines used by the neighbor search. It does not
	// affect the result.
	Workers int
}

// DefaultOptions returns a 3 component embedding with the customary UMAP
// settings and a seed of 1.
func DefaultOptions() Options {
	return Options{
		NNeighbors:         15,
		NComponents:        3,
		MinDist:            0.1,
		Spread:             1,
		LearningRate:       1,
		NegativeSampleRate: 5,
		RepulsionStrength:  1,
		LocalConnectivity:  1,
		RandomState:        1,
		Init:               InitSpectral,
	}
}

func (o Options) withDefaults(n int) Options {
	def := DefaultOptions()
	if o.NNeighbors == 0 {
		o.NNeighbors = def.NNeighbors
	}
	if o.NComponents == 0 {
		o.NComponents = def.NComponents
	}
	if o.Spread == 0 {
		o.Spread = def.Spread
	}
	if o.LearningRate == 0 {
		o.LearningRate = def.LearningRate
	}
	if o.NegativeSampleRate == 0 {
		o.NegativeSampleRate = def.NegativeSampleRate
	}
	if o.RepulsionStrength == 0 {
		o.RepulsionStrength = def.RepulsionStrength
	}
	if o.LocalConnectivity == 0 {
		o.LocalConnectivity = def.LocalConnectivity
	}
	if o.Init == "" {
		o.Init = def.Init
	}
	if o.NEpochs == 0 {
		o.NEpochs = 500
		if n > 10000 {
			o.NEpochs = 200
		}
	}
	if o.Workers == 0 {
		o.Workers = runtime.GOMAXPROCS(0)
	}

	// Small inputs cannot supply more neighbors than they have points
	if o.NNeighbors >= n {
		o.NNeighbors = n - 1
	}
	if o.NNeighbors < 2 {
		o.NNeighbors = 2
	}

	return o
}

func (o Options) validate() error {
	switch {
	case o.NComponents < 1:
		return fmt.Errorf("umap: NComponents must be positive, got %d", o.NComponents)
	case o.MinDist < 0:
		return fmt.Errorf("umap: MinDist must not be negative, got %g", o.MinDist)
	case o.MinDist > o.Spread:
		return fmt.Errorf("umap: MinDist (%g) must not exceed Spread (%g)", o.MinDist, o.Spread)
	case o.NEpochs < 1:
		return fmt.Errorf("umap: NEpochs must be positive, got %d", o.NEpochs)
	case o.Init != InitSpectral && o.Init != InitRandom:
		return fmt.Errorf("umap: unknown Init %q", o.Init)
	}

	return nil
}

// FitTransform embeds the rows of x into opts.NComponents dimensions.
func FitTransform(ctx context.Context, x mat.Matrix, opts Options) (*mat.Dense, error) {
	n, p := x.Dims()
	if n < 2 {
		return nil, fmt.Errorf("umap: at least 2 samples are required, got %d", n)
	}
	if p < 1 {
		return nil, fmt.Errorf("umap: the input has no features")
	}

	opts = opts.withDefaults(n)
	if err := opts.validate(); err != nil {
		return nil, err
	}

	data := make([][]float64, n)
	for i := range data {
		data[i] = make([]float64, p)
		for j := range data[i] {
			v := x.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("umap: non-finite value at row %d, column %d", i, j)
			}
			data[i][j] = v
		}
	}

	rng := rand.New(rand.NewSource(opts.RandomState))

	// The neighbor lists include the point itself
	k := opts.NNeighbors
	knn, err := nearestNeighbors(ctx, data, k, opts.Workers)
	if err != nil {
		return nil, err
	}

	edges := fuzzySimplicialSet(knn, k, opts.LocalConnectivity)
	edges = pruneEdges(edges, opts.NEpochs)

	var embedding [][]float64
	if opts.Init == InitSpectral {
		embedding = spectralInit(data, edges, opts.NComponents, rng)
	} else {
		embedding = randomInit(n, opts.NComponents, rng)
	}
	rescale(embedding, 10)

	a, b := FindABParams(opts.Spread, opts.MinDist)

	if err := optimizeLayout(ctx, embedding, edges, opts, a, b, rng); err != nil {
		return nil, err
	}

	out := mat.NewDense(n, opts.NComponents, nil)
	for i, row := range embedding {
		out.SetRow(i, row)
	}

	return out, nil
}

// pruneEdges drops edges too weak to be sampled even once during the
// optimization.
func pruneEdges(edges []edge, nEpochs int) []edge {
	maxWeight := 0.0
	for _, e := range edges {
		maxWeight = math.Max(maxWeight, e.Weight)
	}

	out := edges[:0]
	for _, e := range edges {
		if e.Weight >= maxWeight/float64(nEpochs) {
			out = append(out, e)
		}
	}

	return out
}

// rescale maps every coordinate onto [0, width] independently.
func rescale(embedding [][]float64, width float64) {
	if len(embedding) == 0 {
		return
	}

	for d := range embedding[0] {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, row := range embedding {
			lo = math.Min(lo, row[d])
			hi = math.Max(hi, row[d])
		}

		span := hi - lo
		for _, row := range embedding {
			if span > 0 {
				row[d] = width * (row[d] - lo) / span
			} else {
				row[d] = 0
			}
		}
	}
}
