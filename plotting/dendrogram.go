package plotting

import (
	"fmt"
	"math"

	"github.com/carbocation/spectromisc/hca"
	stdfnt "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// DendrogramStyle controls the text of a dendrogram figure.
type DendrogramStyle struct {
	// LeafRotation is in degrees, counterclockwise.
	LeafRotation  float64
	LeafFontSize  float64
	AxisFontSize  float64
	XLabel        string
	YLabel        string
	LinkLineWidth float64
}

// DefaultDendrogramStyle labels the axes "Categories" and "Distance".
func DefaultDendrogramStyle() DendrogramStyle {
	return DendrogramStyle{
		LeafRotation:  45,
		LeafFontSize:  10,
		AxisFontSize:  12,
		XLabel:        "Categories",
		YLabel:        "Distance",
		LinkLineWidth: 1.5,
	}
}

// DendrogramPlot draws every link of the layout in its own color, with the
// leaf labels as ticks along the x axis.
func DendrogramPlot(layout hca.Layout, style DendrogramStyle) (*plot.Plot, error) {
	if len(layout.Leaves) == 0 {
		return nil, fmt.Errorf("the dendrogram has no leaves")
	}

	p := plot.New()

	for _, link := range layout.Links {
		xys := make(plotter.XYs, 4)
		for i := range xys {
			xys[i].X, xys[i].Y = link.X[i], link.Y[i]
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return nil, fmt.Errorf("merge %d: %w", link.Merge, err)
		}
		line.LineStyle.Color = link.Color
		line.LineStyle.Width = vg.Points(style.LinkLineWidth)
		p.Add(line)
	}

	ticks := make([]plot.Tick, len(layout.Leaves))
	for i := range ticks {
		ticks[i] = plot.Tick{Value: layout.LeafPositions[i], Label: layout.LeafLabels[i]}
	}
	p.X.Tick.Marker = plot.ConstantTicks(ticks)
	p.X.Tick.Label.Rotation = style.LeafRotation * math.Pi / 180
	p.X.Tick.Label.Font.Size = font.Length(style.LeafFontSize)
	if style.LeafRotation != 0 {
		p.X.Tick.Label.XAlign = draw.XRight
		p.X.Tick.Label.YAlign = draw.YCenter
	}

	p.X.Min = 0
	p.X.Max = float64(10 * len(layout.Leaves))
	p.Y.Min = 0
	p.Y.Max = layout.MaxHeight * 1.05
	if p.Y.Max == 0 {
		p.Y.Max = 1
	}

	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.Label.TextStyle.Font.Size = font.Length(style.AxisFontSize)
		ax.Label.TextStyle.Font.Weight = stdfnt.WeightBold
	}
	p.X.Label.Text = style.XLabel
	p.Y.Label.Text = style.YLabel

	return p, nil
}
