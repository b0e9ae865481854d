package plotting

import (
	"fmt"
	"image/color"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/font"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// ScatterOptions styles the embedding scatter plots.
type ScatterOptions struct {
	// Name prefixes the title ("<Name> Analysis") and axis labels ("<Name> 1").
	Name string

	// PointSize is the marker area in points squared.
	PointSize float64
	Alpha     float64

	// Jitter adds Gaussian noise with this standard deviation to every
	// coordinate, seeded by Seed.
	Jitter float64
	Seed   int64

	Legend bool

	Ellipses         bool
	Confidence       float64
	FillEllipses     bool
	EllipseAlpha     float64
	EllipseLineWidth float64

	AxisLineWidth float64
	TickLength    float64
	TickLabelSize float64

	Colormap Colormap
}

// DefaultScatterOptions mirrors the published figure style.
func DefaultScatterOptions() ScatterOptions {
	return ScatterOptions{
		Name:             "UMAP",
		PointSize:        10,
		Alpha:            0.6,
		Legend:           true,
		Confidence:       0.95,
		EllipseAlpha:     1,
		EllipseLineWidth: 2,
		AxisLineWidth:    1,
		TickLength:       8,
		TickLabelSize:    5,
		Colormap:         Rain,
	}
}

func (o ScatterOptions) radius() vg.Length {
	return vg.Points(math.Sqrt(o.PointSize / math.Pi))
}

// jittered returns column col of emb for the given rows, with noise added.
func jittered(emb mat.Matrix, rows []int, col int, jitter float64, rng *rand.Rand) []float64 {
	out := make([]float64, len(rows))
	for i, r := range rows {
		out[i] = emb.At(r, col)
		if jitter != 0 {
			out[i] += jitter * rng.NormFloat64()
		}
	}

	return out
}

// Scatter2D plots the first two embedding coordinates, one color per label.
func Scatter2D(emb mat.Matrix, labels []string, opts ScatterOptions) (*plot.Plot, error) {
	n, dims := emb.Dims()
	if n != len(labels) {
		return nil, fmt.Errorf("%d embedded points but %d labels", n, len(labels))
	}
	if dims < 2 {
		return nil, fmt.Errorf("a 2D scatter needs at least 2 embedding dimensions, got %d", dims)
	}
	if opts.Colormap == nil {
		opts.Colormap = Rain
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	unique, rows := Groups(labels)
	_, colors := GroupColors(opts.Colormap, labels)

	p := plot.New()
	p.Title.Text = fmt.Sprintf("%s Analysis", opts.Name)
	p.X.Label.Text = fmt.Sprintf("%s 1", opts.Name)
	p.Y.Label.Text = fmt.Sprintf("%s 2", opts.Name)
	styleAxes(p, opts)

	for _, label := range unique {
		xs := jittered(emb, rows[label], 0, opts.Jitter, rng)
		ys := jittered(emb, rows[label], 1, opts.Jitter, rng)

		xys := make(plotter.XYs, len(xs))
		for i := range xs {
			xys[i].X, xys[i].Y = xs[i], ys[i]
		}

		s, err := plotter.NewScatter(xys)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", label, err)
		}
		s.GlyphStyle = draw.GlyphStyle{
			Color:  WithAlpha(colors[label], opts.Alpha),
			Radius: opts.radius(),
			Shape:  draw.CircleGlyph{},
		}
		p.Add(s)

		if opts.Legend {
			p.Legend.Add(label, s)
		}

		// Ellipses describe the embedding itself, not the jittered markers
		if opts.Ellipses {
			rawX := jittered(emb, rows[label], 0, 0, rng)
			rawY := jittered(emb, rows[label], 1, 0, rng)
			if err := addEllipse(p, rawX, rawY, colors[label], opts); err != nil {
				return nil, fmt.Errorf("%s: %w", label, err)
			}
		}
	}

	p.Legend.Top = true

	return p, nil
}

func addEllipse(p *plot.Plot, xs, ys []float64, c color.Color, opts ScatterOptions) error {
	e, err := ConfidenceEllipse(xs, ys, opts.Confidence)
	if err != nil {
		return err
	}

	outline := e.Outline(100)
	if opts.FillEllipses {
		poly, err := plotter.NewPolygon(outline)
		if err != nil {
			return err
		}
		poly.Color = WithAlpha(c, opts.EllipseAlpha)
		poly.LineStyle.Color = WithAlpha(c, opts.EllipseAlpha)
		poly.LineStyle.Width = vg.Points(opts.EllipseLineWidth)
		p.Add(poly)
		return nil
	}

	line, err := plotter.NewLine(outline)
	if err != nil {
		return err
	}
	line.LineStyle.Color = WithAlpha(c, opts.EllipseAlpha)
	line.LineStyle.Width = vg.Points(opts.EllipseLineWidth)
	p.Add(line)

	return nil
}

func styleAxes(p *plot.Plot, opts ScatterOptions) {
	for _, ax := range []*plot.Axis{&p.X, &p.Y} {
		ax.LineStyle.Width = vg.Points(opts.AxisLineWidth)
		ax.Tick.LineStyle.Width = vg.Points(opts.AxisLineWidth)
		ax.Tick.Length = vg.Points(opts.TickLength)
		if opts.TickLabelSize > 0 {
			ax.Tick.Label.Font.Size = font.Length(opts.TickLabelSize)
		}
	}
}
