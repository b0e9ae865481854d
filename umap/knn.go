package umap

import (
	"context"
	"math"
	"sort"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// knnGraph holds, for every point, its k nearest neighbors (itself first)
// and the Euclidean distances to them.
type knnGraph struct {
	Indices   [][]int
	Distances [][]float64
}

// nearestNeighbors finds exact Euclidean neighbors by brute force. Rows are
// split across workers, each of which owns its output rows, so the result does
// not depend on scheduling.
func nearestNeighbors(ctx context.Context, data [][]float64, k, workers int) (knnGraph, error) {
	n := len(data)
	out := knnGraph{
		Indices:   make([][]int, n),
		Distances: make([][]float64, n),
	}

	if workers < 1 {
		workers = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	chunk := (n + workers - 1) / workers
	for start := 0; start < n; start += chunk {
		start, end := start, start+chunk
		if end > n {
			end = n
		}

		g.Go(func() error {
			type candidate struct {
				idx  int
				dist float64
			}
			candidates := make([]candidate, n)

			for i := start; i < end; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}

				for j := range data {
					candidates[j] = candidate{idx: j, dist: floats.Distance(data[i], data[j], 2)}
				}
				// The point itself always comes first, even against duplicates
				candidates[i].dist = math.Inf(-1)

				sort.Slice(candidates, func(a, b int) bool {
					if candidates[a].dist == candidates[b].dist {
						return candidates[a].idx < candidates[b].idx
					}
					return candidates[a].dist < candidates[b].dist
				})

				out.Indices[i] = make([]int, k)
				out.Distances[i] = make([]float64, k)
				for m := 0; m < k; m++ {
					out.Indices[i][m] = candidates[m].idx
					out.Distances[i][m] = candidates[m].dist
				}
				out.Distances[i][0] = 0
			}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return knnGraph{}, err
	}

	return out, nil
}
