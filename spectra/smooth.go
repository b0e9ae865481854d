package spectra

import (
	"fmt"

	"github.com/jfcg/butter"
)

// Samples used to settle the filter state on the edge value before a pass, so
// the spectrum ends are not pulled towards zero.
const settleSamples = 64

// Smooth applies a first-order Butterworth low-pass filter forwards and then
// backwards over the spectrum, which cancels the phase shift that a single
// pass would introduce (peaks stay at their wavenumbers). wc is the cutoff in
// radians per sample and must satisfy .0001 < wc < pi.
func Smooth(spectrum []float64, wc float64) ([]float64, error) {
	if len(spectrum) == 0 {
		return nil, nil
	}

	out, err := lowPassPass(spectrum, wc)
	if err != nil {
		return nil, err
	}

	reverse(out)
	out, err = lowPassPass(out, wc)
	if err != nil {
		return nil, err
	}
	reverse(out)

	return out, nil
}

func lowPassPass(vals []float64, wc float64) ([]float64, error) {
	filt := butter.NewLowPass1(wc)
	if filt == nil {
		return nil, fmt.Errorf("invalid low-pass filter (attempted wc=%f, but expect .0001 < wc && wc < 3.1415)", wc)
	}

	for i := 0; i < settleSamples; i++ {
		filt.Next(vals[0])
	}

	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = filt.Next(v)
	}

	return out, nil
}
