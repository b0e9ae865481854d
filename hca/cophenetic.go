package hca

import (
	"fmt"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/floats"
)

// Cophenetic returns the n x n matrix of cophenetic distances: the height of
// the merge at which two observations first share a cluster.
func Cophenetic(z Linkage) [][]float64 {
	n := z.Leaves()
	out := make([][]float64, n)
	for i := range out {
		out[i] = make([]float64, n)
	}

	members := z.members()
	for _, m := range z {
		for _, i := range members[m.A] {
			for _, j := range members[m.B] {
				out[i][j] = m.Distance
				out[j][i] = m.Distance
			}
		}
	}

	return out
}

// CopheneticCorrelation is the Pearson correlation between the pairwise
// Euclidean distances of the observations and their cophenetic distances. It
// measures how faithfully the tree preserves the original distances.
func CopheneticCorrelation(z Linkage, points [][]float64) (float64, error) {
	n := z.Leaves()
	if len(points) != n {
		return 0, fmt.Errorf("%d observations for a tree with %d leaves", len(points), n)
	}
	if n < 3 {
		return 0, fmt.Errorf("at least 3 observations are needed for a correlation, got %d", n)
	}

	coph := Cophenetic(z)

	var original, tree stats.Float64Data
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			original = append(original, floats.Distance(points[i], points[j], 2))
			tree = append(tree, coph[i][j])
		}
	}

	return stats.Correlation(original, tree)
}
