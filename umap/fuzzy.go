package umap

import (
	"math"
	"sort"
)

const (
	smoothKTolerance = 1e-5
	minKDistScale    = 1e-3
	smoothKIters     = 64
)

// smoothKNNDist finds, for every point, the distance to its nearest neighbor
// (rho) and the bandwidth (sigma) for which the neighbor memberships sum to
// log2(k).
func smoothKNNDist(distances [][]float64, k int, localConnectivity float64) (sigmas, rhos []float64) {
	n := len(distances)
	sigmas = make([]float64, n)
	rhos = make([]float64, n)

	target := math.Log2(float64(k))

	var meanAll float64
	var count int
	for _, row := range distances {
		for _, d := range row {
			meanAll += d
			count++
		}
	}
	if count > 0 {
		meanAll /= float64(count)
	}

	for i, row := range distances {
		lo, hi, mid := 0.0, math.Inf(1), 1.0

		var nonZero []float64
		for _, d := range row {
			if d > 0 {
				nonZero = append(nonZero, d)
			}
		}

		if len(nonZero) >= int(localConnectivity) {
			index := int(math.Floor(localConnectivity))
			interpolation := localConnectivity - float64(index)
			if index > 0 {
				rhos[i] = nonZero[index-1]
				if interpolation > smoothKTolerance && index < len(nonZero) {
					rhos[i] += interpolation * (nonZero[index] - nonZero[index-1])
				}
			} else {
				rhos[i] = interpolation * nonZero[0]
			}
		} else if len(nonZero) > 0 {
			rhos[i] = nonZero[len(nonZero)-1]
		}

		for iter := 0; iter < smoothKIters; iter++ {
			var psum float64
			for _, d := range row[1:] {
				if dd := d - rhos[i]; dd > 0 {
					psum += math.Exp(-dd / mid)
				} else {
					psum++
				}
			}

			if math.Abs(psum-target) < smoothKTolerance {
				break
			}

			if psum > target {
				hi = mid
				mid = (lo + hi) / 2
			} else {
				lo = mid
				if math.IsInf(hi, 1) {
					mid *= 2
				} else {
					mid = (lo + hi) / 2
				}
			}
		}

		sigmas[i] = mid

		if rhos[i] > 0 {
			var meanRow float64
			for _, d := range row {
				meanRow += d
			}
			meanRow /= float64(len(row))
			if sigmas[i] < minKDistScale*meanRow {
				sigmas[i] = minKDistScale * meanRow
			}
		} else if sigmas[i] < minKDistScale*meanAll {
			sigmas[i] = minKDistScale * meanAll
		}
	}

	return sigmas, rhos
}

// edge is one weighted, directed entry of the fuzzy graph.
type edge struct {
	Head   int
	Tail   int
	Weight float64
}

// fuzzySimplicialSet turns the kNN graph into a symmetric fuzzy graph using the
// probabilistic t-conorm (fuzzy union): w = a + b - a*b. Edges are returned in
// row-major order with both directions present.
func fuzzySimplicialSet(knn knnGraph, k int, localConnectivity float64) []edge {
	sigmas, rhos := smoothKNNDist(knn.Distances, k, localConnectivity)

	type pair struct{ i, j int }
	directed := make(map[pair]float64)

	for i := range knn.Indices {
		for m, j := range knn.Indices[i] {
			if j == i {
				continue
			}

			var val float64
			if d := knn.Distances[i][m] - rhos[i]; d <= 0 || sigmas[i] == 0 {
				val = 1
			} else {
				val = math.Exp(-d / sigmas[i])
			}

			directed[pair{i, j}] = val
		}
	}

	symmetric := make(map[pair]float64, 2*len(directed))
	for p, a := range directed {
		b := directed[pair{p.j, p.i}]
		w := a + b - a*b
		symmetric[p] = w
		symmetric[pair{p.j, p.i}] = w
	}

	out := make([]edge, 0, len(symmetric))
	for p, w := range symmetric {
		if w > 0 {
			out = append(out, edge{Head: p.i, Tail: p.j, Weight: w})
		}
	}

	sort.Slice(out, func(a, b int) bool {
		if out[a].Head == out[b].Head {
			return out[a].Tail < out[b].Tail
		}
		return out[a].Head < out[b].Head
	})

	return out
}
