package plotting

import (
	"fmt"
	"io"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

// MeanSpectraChart renders one line per group mean over the wavenumber axis
// as a PNG. Groups are colored like the scatter plots.
func MeanSpectraChart(axis []float64, labels []string, means [][]float64, w io.Writer) error {
	if len(labels) != len(means) {
		return fmt.Errorf("%d labels for %d mean spectra", len(labels), len(means))
	}
	if len(labels) == 0 {
		return fmt.Errorf("no mean spectra to chart")
	}

	_, colors := GroupColors(Rain, labels)

	series := make([]chart.Series, 0, len(means))
	for i, mean := range means {
		if len(mean) != len(axis) {
			return fmt.Errorf("%s: %d intensities for %d wavenumbers", labels[i], len(mean), len(axis))
		}

		c := WithAlpha(colors[labels[i]], 1)
		series = append(series, chart.ContinuousSeries{
			Name: labels[i],
			Style: chart.Style{
				StrokeColor: drawing.Color{R: c.R, G: c.G, B: c.B, A: c.A},
				StrokeWidth: 1.5,
			},
			XValues: axis,
			YValues: mean,
		})
	}

	graph := chart.Chart{
		Title:  "Mean spectra",
		Width:  1024,
		Height: 512,
		XAxis: chart.XAxis{
			Name: "Wavenumber",
		},
		YAxis: chart.YAxis{
			Name: "Intensity",
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	return graph.Render(chart.PNG, w)
}
