package umap

import (
	"context"
	"math"
	"math/rand"
)

const gradientClip = 4

func clip(v float64) float64 {
	if v > gradientClip {
		return gradientClip
	}
	if v < -gradientClip {
		return -gradientClip
	}
	return v
}

// epochsPerSample spaces out how often each edge is sampled, so that over
// nEpochs an edge is sampled in proportion to its weight.
func epochsPerSample(edges []edge, nEpochs int) []float64 {
	maxWeight := 0.0
	for _, e := range edges {
		maxWeight = math.Max(maxWeight, e.Weight)
	}

	out := make([]float64, len(edges))
	for i, e := range edges {
		out[i] = -1
		if nSamples := float64(nEpochs) * e.Weight / maxWeight; nSamples > 0 {
			out[i] = float64(nEpochs) / nSamples
		}
	}

	return out
}

// optimizeLayout runs stochastic gradient descent on the cross entropy between
// the high dimensional fuzzy graph and the low dimensional embedding: sampled
// edges attract their endpoints and random negative samples repel.
func optimizeLayout(ctx context.Context, embedding [][]float64, edges []edge, opts Options, a, b float64, rng *rand.Rand) error {
	n := len(embedding)
	dim := opts.NComponents
	nEpochs := opts.NEpochs

	eps := epochsPerSample(edges, nEpochs)
	epsNegative := make([]float64, len(eps))
	nextSample := make([]float64, len(eps))
	nextNegative := make([]float64, len(eps))
	for i := range eps {
		epsNegative[i] = eps[i] / float64(opts.NegativeSampleRate)
		nextSample[i] = eps[i]
		nextNegative[i] = epsNegative[i]
	}

	for epoch := 0; epoch < nEpochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		alpha := opts.LearningRate * (1 - float64(epoch)/float64(nEpochs))
		fepoch := float64(epoch)

		for i, e := range edges {
			if eps[i] <= 0 || nextSample[i] > fepoch {
				continue
			}

			current := embedding[e.Head]
			other := embedding[e.Tail]

			distSquared := squaredDistance(current, other)
			gradCoeff := 0.0
			if distSquared > 0 {
				gradCoeff = -2 * a * b * math.Pow(distSquared, b-1) / (a*math.Pow(distSquared, b) + 1)
			}

			for d := 0; d < dim; d++ {
				grad := clip(gradCoeff * (current[d] - other[d]))
				current[d] += grad * alpha
				other[d] -= grad * alpha
			}

			nextSample[i] += eps[i]

			nNeg := int((fepoch - nextNegative[i]) / epsNegative[i])
			for p := 0; p < nNeg; p++ {
				k := rng.Intn(n)
				if k == e.Head {
					continue
				}
				other := embedding[k]

				distSquared := squaredDistance(current, other)
				gradCoeff := 0.0
				if distSquared > 0 {
					gradCoeff = 2 * opts.RepulsionStrength * b / ((0.001 + distSquared) * (a*math.Pow(distSquared, b) + 1))
				}
				if gradCoeff <= 0 {
					continue
				}

				for d := 0; d < dim; d++ {
					current[d] += clip(gradCoeff*(current[d]-other[d])) * alpha
				}
			}

			nextNegative[i] += float64(nNeg) * epsNegative[i]
		}
	}

	return nil
}

func squaredDistance(x, y []float64) float64 {
	var out float64
	for i := range x {
		d := x[i] - y[i]
		out += d * d
	}
	return out
}
