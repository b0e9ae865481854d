package plotting

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
	"gonum.org/v1/plot/plotter"
)

// Ellipse is a confidence region of a bivariate normal fit to a set of points.
type Ellipse struct {
	CenterX, CenterY float64
	// Semi-axis lengths, major first
	Major, Minor float64
	// Angle of the major axis, in radians from the x axis
	Angle float64
}

// ConfidenceEllipse fits a bivariate normal to the points and returns the
// ellipse expected to contain the given fraction of them (for example 0.95).
func ConfidenceEllipse(xs, ys []float64, confidence float64) (Ellipse, error) {
	if len(xs) != len(ys) {
		return Ellipse{}, fmt.Errorf("%d x values but %d y values", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return Ellipse{}, fmt.Errorf("at least 3 points are needed for a confidence ellipse, got %d", len(xs))
	}
	if confidence <= 0 || confidence >= 1 {
		return Ellipse{}, fmt.Errorf("confidence must be between 0 and 1, got %v", confidence)
	}

	data := mat.NewDense(len(xs), 2, nil)
	data.SetCol(0, xs)
	data.SetCol(1, ys)

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if ok := eig.Factorize(&cov, true); !ok {
		return Ellipse{}, fmt.Errorf("could not decompose the covariance matrix")
	}
	values := eig.Values(nil)
	var vectors mat.Dense
	eig.VectorsTo(&vectors)

	// Squared Mahalanobis radius enclosing the requested mass
	scale := distuv.ChiSquared{K: 2}.Quantile(confidence)

	// Eigenvalues are ascending, so the major axis is the last one
	out := Ellipse{
		CenterX: stat.Mean(xs, nil),
		CenterY: stat.Mean(ys, nil),
		Major:   math.Sqrt(scale * math.Max(values[1], 0)),
		Minor:   math.Sqrt(scale * math.Max(values[0], 0)),
		Angle:   math.Atan2(vectors.At(1, 1), vectors.At(0, 1)),
	}

	return out, nil
}

// Outline traces the ellipse with n points, closing the loop.
func (e Ellipse) Outline(n int) plotter.XYs {
	out := make(plotter.XYs, n+1)
	cos, sin := math.Cos(e.Angle), math.Sin(e.Angle)
	for i := 0; i < n; i++ {
		t := 2 * math.Pi * float64(i) / float64(n)
		u, v := e.Major*math.Cos(t), e.Minor*math.Sin(t)
		out[i].X = e.CenterX + u*cos - v*sin
		out[i].Y = e.CenterY + u*sin + v*cos
	}
	out[n] = out[0]

	return out
}
