package spectra

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/interp"
)

// AlignResult carries an aligned spectrum along with the number of reference
// wavenumbers that fell outside the source axis and were extrapolated.
type AlignResult struct {
	Spectrum     []float64
	Extrapolated int
	Identity     bool
}

// Align resamples spectrum, sampled at current, onto the reference axis using a
// not-a-knot cubic spline. The output always has len(reference) values. If
// current is the reference axis, the spectrum is copied without interpolation.
func Align(current Axis, spectrum []float64, reference Axis) ([]float64, error) {
	res, err := AlignSpectrum(current, spectrum, reference)
	if err != nil {
		return nil, err
	}

	return res.Spectrum, nil
}

// AlignSpectrum is Align with bookkeeping about how the spectrum was resampled.
func AlignSpectrum(current Axis, spectrum []float64, reference Axis) (AlignResult, error) {
	if len(current) != len(spectrum) {
		return AlignResult{}, fmt.Errorf("the spectrum has %d intensities but its axis has %d wavenumbers", len(spectrum), len(current))
	}
	for i, v := range spectrum {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return AlignResult{}, fmt.Errorf("intensity %d: %w", i, ErrNonFinite)
		}
	}

	if current.Equal(reference) {
		out := make([]float64, len(spectrum))
		copy(out, spectrum)
		return AlignResult{Spectrum: out, Identity: true}, nil
	}

	predictor, err := FitSpline(current, spectrum)
	if err != nil {
		return AlignResult{}, err
	}

	res := AlignResult{Spectrum: make([]float64, len(reference))}
	for i, wavenumber := range reference {
		if !current.Contains(wavenumber) {
			res.Extrapolated++
		}
		res.Spectrum[i] = predictor.Predict(wavenumber)
	}

	return res, nil
}

// FitSpline fits a cubic spline through the (wavenumber, intensity) pairs.
// Decreasing axes are accepted. Outside the axis span, the returned predictor
// continues the cubic of the nearest end segment.
func FitSpline(xs Axis, ys []float64) (interp.Predictor, error) {
	if len(xs) != len(ys) {
		return nil, fmt.Errorf("%d wavenumbers but %d intensities", len(xs), len(ys))
	}
	if len(xs) < 3 {
		return nil, fmt.Errorf("a cubic spline needs at least 3 points, got %d", len(xs))
	}

	direction, err := xs.Orientation()
	if err != nil {
		return nil, err
	}

	x := make([]float64, len(xs))
	y := make([]float64, len(ys))
	copy(x, xs)
	copy(y, ys)
	if direction < 0 {
		reverse(x)
		reverse(y)
	}

	// With three knots the not-a-knot spline is the interpolating parabola,
	// which the banded solver cannot represent.
	if len(x) == 3 {
		return newParabola(x, y), nil
	}

	var spline interp.NotAKnotCubic
	if err := spline.Fit(x, y); err != nil {
		return nil, fmt.Errorf("fitting cubic spline: %w", err)
	}

	return newExtrapolatingSpline(&spline, x), nil
}

// extrapolatingSpline evaluates a fitted spline inside its knots and extends
// the first and last cubic pieces beyond them. gonum's Predict holds the end
// values instead.
type extrapolatingSpline struct {
	spline      interp.Predictor
	lo, hi      float64
	left, right lagrange4
}

func newExtrapolatingSpline(spline interp.Predictor, xs []float64) *extrapolatingSpline {
	n := len(xs)
	return &extrapolatingSpline{
		spline: spline,
		lo:     xs[0],
		hi:     xs[n-1],
		left:   sampleSegment(spline, xs[0], xs[1]),
		right:  sampleSegment(spline, xs[n-2], xs[n-1]),
	}
}

func (s *extrapolatingSpline) Predict(x float64) float64 {
	switch {
	case x < s.lo:
		return s.left.eval(x)
	case x > s.hi:
		return s.right.eval(x)
	}

	return s.spline.Predict(x)
}

// lagrange4 is the cubic through four points. Sampled within one spline
// segment it reproduces that segment's polynomial exactly.
type lagrange4 struct {
	xs [4]float64
	ys [4]float64
}

func sampleSegment(spline interp.Predictor, a, b float64) lagrange4 {
	var l lagrange4
	for k := range l.xs {
		l.xs[k] = a + (b-a)*float64(k)/3
		l.ys[k] = spline.Predict(l.xs[k])
	}
	return l
}

func (l lagrange4) eval(x float64) float64 {
	return lagrange(l.xs[:], l.ys[:], x)
}

func lagrange(xs, ys []float64, x float64) float64 {
	var out float64
	for i := range xs {
		term := ys[i]
		for j := range xs {
			if i == j {
				continue
			}
			term *= (x - xs[j]) / (xs[i] - xs[j])
		}
		out += term
	}

	return out
}

// parabola is the quadratic through exactly three points, extended beyond
// them.
type parabola struct {
	xs [3]float64
	ys [3]float64
}

func newParabola(xs, ys []float64) *parabola {
	p := &parabola{}
	copy(p.xs[:], xs)
	copy(p.ys[:], ys)
	return p
}

func (p *parabola) Predict(x float64) float64 {
	return lagrange(p.xs[:], p.ys[:], x)
}

func reverse(x []float64) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}
