package spectra

import (
	"errors"
	"math"
	"testing"
)

func linspace(lo, hi float64, n int) Axis {
	out := make(Axis, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func cubic(x float64) float64 {
	return 0.5 + 0.002*x - 3e-6*x*x + 1e-9*x*x*x
}

func TestAlignLengthMatchesReference(t *testing.T) {
	reference := linspace(900, 1800, 50)

	for _, n := range []int{3, 4, 10, 40, 50, 80} {
		current := linspace(950, 1750, n)
		spectrum := make([]float64, n)
		for i, x := range current {
			spectrum[i] = cubic(x)
		}

		aligned, err := Align(current, spectrum, reference)
		if err != nil {
			t.Fatalf("%d points: %v", n, err)
		}
		if len(aligned) != len(reference) {
			t.Errorf("%d points: expected %d aligned values, got %d", n, len(reference), len(aligned))
		}
	}
}

func TestAlignReferenceIsIdentity(t *testing.T) {
	reference := linspace(1000, 2000, 25)
	spectrum := make([]float64, len(reference))
	for i := range spectrum {
		spectrum[i] = math.Sin(float64(i))
	}

	res, err := AlignSpectrum(reference, spectrum, reference)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Identity {
		t.Errorf("expected the reference axis to bypass interpolation")
	}
	for i := range spectrum {
		if res.Spectrum[i] != spectrum[i] {
			t.Fatalf("position %d: expected %v, got %v", i, spectrum[i], res.Spectrum[i])
		}
	}

	// The output must not alias the input
	res.Spectrum[0] = 99
	if spectrum[0] == 99 {
		t.Errorf("aligned spectrum shares memory with its input")
	}
}

func TestAlignReproducesCubic(t *testing.T) {
	// A not-a-knot spline is exact for cubic polynomials
	current := linspace(1000, 2000, 40)
	spectrum := make([]float64, len(current))
	for i, x := range current {
		spectrum[i] = cubic(x)
	}
	reference := linspace(1000, 2000, 57)

	aligned, err := Align(current, spectrum, reference)
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range reference {
		if math.Abs(aligned[i]-cubic(x)) > 1e-6 {
			t.Errorf("wavenumber %g: expected %v, got %v", x, cubic(x), aligned[i])
		}
	}
}

func TestAlignThreePointsIsParabola(t *testing.T) {
	quad := func(x float64) float64 { return 2 - 0.5*x + 0.25*x*x }
	current := Axis{0, 1, 3}
	spectrum := []float64{quad(0), quad(1), quad(3)}

	aligned, err := Align(current, spectrum, Axis{0.5, 2, 2.5})
	if err != nil {
		t.Fatal(err)
	}
	for i, x := range []float64{0.5, 2, 2.5} {
		if math.Abs(aligned[i]-quad(x)) > 1e-9 {
			t.Errorf("x=%g: expected %v, got %v", x, quad(x), aligned[i])
		}
	}
}

func TestAlignDecreasingAxis(t *testing.T) {
	increasing := linspace(1000, 2000, 30)
	spectrum := make([]float64, len(increasing))
	for i, x := range increasing {
		spectrum[i] = math.Cos(x / 100)
	}

	decreasing := make(Axis, len(increasing))
	reversed := make([]float64, len(spectrum))
	for i := range increasing {
		decreasing[i] = increasing[len(increasing)-1-i]
		reversed[i] = spectrum[len(spectrum)-1-i]
	}

	reference := linspace(1000, 2000, 45)
	a, err := Align(increasing, spectrum, reference)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Align(decreasing, reversed, reference)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a {
		if math.Abs(a[i]-b[i]) > 1e-12 {
			t.Errorf("position %d: increasing gave %v, decreasing gave %v", i, a[i], b[i])
		}
	}
}

func TestAlignRejectsBadAxes(t *testing.T) {
	cases := []struct {
		Name string
		Axis Axis
	}{
		{"non-monotonic", Axis{1000, 1100, 1050, 1200}},
		{"duplicate", Axis{1000, 1100, 1100, 1200}},
	}

	for _, c := range cases {
		_, err := Align(c.Axis, []float64{1, 2, 3, 4}, linspace(1000, 1200, 10))
		if !errors.Is(err, ErrNotMonotonic) {
			t.Errorf("%s: expected ErrNotMonotonic, got %v", c.Name, err)
		}
	}

	if _, err := Align(Axis{1, 2}, []float64{1, 2}, Axis{1, 1.5, 2}); err == nil {
		t.Errorf("expected an error for a two point axis")
	}
	if _, err := Align(Axis{1, 2, 3}, []float64{1, 2}, Axis{1, 2, 3, 4}); err == nil {
		t.Errorf("expected an error for mismatched lengths")
	}
	if _, err := Align(Axis{1, 2, 3, 4}, []float64{1, math.NaN(), 3, 4}, Axis{1, 2, 3}); !errors.Is(err, ErrNonFinite) {
		t.Errorf("expected ErrNonFinite, got %v", err)
	}
}

func TestAlignExtrapolatesEndSegments(t *testing.T) {
	current := linspace(1, 10, 10)
	spectrum := make([]float64, len(current))
	for i, x := range current {
		spectrum[i] = x * x * x
	}

	reference := Axis{0, 0.5, 5.5, 10.5, 11}
	res, err := AlignSpectrum(current, spectrum, reference)
	if err != nil {
		t.Fatal(err)
	}
	if res.Extrapolated != 4 {
		t.Errorf("expected 4 extrapolated values, got %d", res.Extrapolated)
	}

	// A cubic is reproduced exactly, on both sides of the axis too
	for i, x := range reference {
		if want := x * x * x; math.Abs(res.Spectrum[i]-want) > 1e-6*math.Max(1, want) {
			t.Errorf("x=%v: expected %v, got %v", x, want, res.Spectrum[i])
		}
	}

	// Three points give the parabola, which also continues past the ends
	aligned, err := Align(Axis{3, 2, 1}, []float64{9, 4, 1}, Axis{0, 4})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(aligned[0]) > 1e-9 || math.Abs(aligned[1]-16) > 1e-9 {
		t.Errorf("expected 0 and 16 from the parabola, got %v", aligned)
	}
}

func TestSmooth(t *testing.T) {
	flat := make([]float64, 100)
	for i := range flat {
		flat[i] = 3
	}

	out, err := Smooth(flat, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if len(out) != len(flat) {
		t.Fatalf("expected %d values, got %d", len(flat), len(out))
	}
	for i, v := range out {
		if math.Abs(v-3) > 1e-6 {
			t.Fatalf("position %d: a constant spectrum should stay constant, got %v", i, v)
		}
	}

	if _, err := Smooth(flat, 10); err == nil {
		t.Errorf("expected an error for a cutoff above pi")
	}
}
