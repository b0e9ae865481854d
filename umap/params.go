package umap

import (
	"math"

	"github.com/BenLubar/memoize"
	"gonum.org/v1/gonum/optimize"
)

type abParams struct {
	A float64
	B float64
}

var memoizedFitAB = memoize.Memoize(fitAB)

// FindABParams fits the a and b parameters of the low dimensional similarity
// curve 1 / (1 + a*d^(2b)) to the offset exponential implied by spread and
// minDist. Results are cached, since every run with the same settings asks for
// the same curve.
func FindABParams(spread, minDist float64) (a, b float64) {
	p := memoizedFitAB.(func(float64, float64) abParams)(spread, minDist)
	return p.A, p.B
}

func fitAB(spread, minDist float64) abParams {
	const points = 300

	xv := make([]float64, points)
	yv := make([]float64, points)
	for i := range xv {
		xv[i] = spread * 3 * float64(i) / float64(points-1)
		if xv[i] < minDist {
			yv[i] = 1
		} else {
			yv[i] = math.Exp(-(xv[i] - minDist) / spread)
		}
	}

	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			a, b := x[0], x[1]
			if a <= 0 || b <= 0 {
				return 1e10
			}

			var sse float64
			for i, d := range xv {
				r := 1/(1+a*math.Pow(d, 2*b)) - yv[i]
				sse += r * r
			}
			return sse
		},
	}

	settings := &optimize.Settings{
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 200,
		},
		MajorIterations: 5000,
	}

	res, err := optimize.Minimize(problem, []float64{1, 1}, settings, &optimize.NelderMead{})
	if err != nil || res == nil || res.X[0] <= 0 || res.X[1] <= 0 {
		// The fit for the default settings
		return abParams{A: 1.576943460405378, B: 0.8950608781227859}
	}

	return abParams{A: res.X[0], B: res.X[1]}
}
