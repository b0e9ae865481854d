package plotting

import (
	"bytes"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/carbocation/spectromisc/hca"
	"gonum.org/v1/gonum/mat"
)

func sameRGB(t *testing.T, got, want color.Color) {
	t.Helper()
	gr, gg, gb, _ := got.RGBA()
	wr, wg, wb, _ := want.RGBA()
	for _, d := range []int64{int64(gr) - int64(wr), int64(gg) - int64(wg), int64(gb) - int64(wb)} {
		if d > 0x101 || d < -0x101 {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}

func TestColormapEndpoints(t *testing.T) {
	colors := Rain.Colors(4)
	for i, c := range colors {
		sameRGB(t, c, Rain[i].Clamped())
	}

	if one := Rain.Colors(1); len(one) != 1 {
		t.Fatalf("expected one color, got %d", len(one))
	} else {
		sameRGB(t, one[0], Rain[0])
	}

	sameRGB(t, Rain.At(-1), Rain[0])
	sameRGB(t, Rain.At(2), Rain[3])

	// Halfway between the first two stops
	mid := Rain.At(1.0 / 6)
	expected := Rain[0].BlendRgb(Rain[1], 0.5)
	if math.Abs(mid.R-expected.R) > 1e-12 || math.Abs(mid.G-expected.G) > 1e-12 || math.Abs(mid.B-expected.B) > 1e-12 {
		t.Errorf("expected %v, got %v", expected, mid)
	}
}

func TestGroupColorsSorted(t *testing.T) {
	unique, colors := GroupColors(Rain, []string{"b", "a", "b", "c"})
	if len(unique) != 3 || unique[0] != "a" || unique[1] != "b" || unique[2] != "c" {
		t.Fatalf("expected sorted unique labels, got %v", unique)
	}
	sameRGB(t, colors["a"], Rain[0])
	sameRGB(t, colors["c"], Rain[3])
}

func TestWithAlpha(t *testing.T) {
	c := WithAlpha(color.RGBA{R: 255, A: 255}, 0.6)
	if c.R != 255 || c.G != 0 || c.A != 153 {
		t.Errorf("unexpected color %+v", c)
	}
}

func TestConfidenceEllipse(t *testing.T) {
	// Points on an axis-aligned diamond, wider in x than in y
	xs := []float64{-2, 2, 0, 0, -2, 2, 0, 0}
	ys := []float64{0, 0, -1, 1, 0, 0, -1, 1}

	e, err := ConfidenceEllipse(xs, ys, 0.95)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(e.CenterX) > 1e-12 || math.Abs(e.CenterY) > 1e-12 {
		t.Errorf("expected a centered ellipse, got %+v", e)
	}

	// Sample variances are 16/7 and 4/7, and the 95% chi-square(2) quantile
	// is -2 ln(0.05).
	q := -2 * math.Log(0.05)
	if expected := math.Sqrt(q * 16 / 7); math.Abs(e.Major-expected) > 1e-6 {
		t.Errorf("expected major semi-axis %v, got %v", expected, e.Major)
	}
	if expected := math.Sqrt(q * 4 / 7); math.Abs(e.Minor-expected) > 1e-6 {
		t.Errorf("expected minor semi-axis %v, got %v", expected, e.Minor)
	}
	if s := math.Abs(math.Sin(e.Angle)); s > 1e-9 {
		t.Errorf("expected the major axis along x, got angle %v", e.Angle)
	}

	outline := e.Outline(8)
	if len(outline) != 9 || outline[0] != outline[8] {
		t.Errorf("expected a closed outline, got %v", outline)
	}

	if _, err := ConfidenceEllipse(xs[:2], ys[:2], 0.95); err == nil {
		t.Errorf("expected an error for 2 points")
	}
	if _, err := ConfidenceEllipse(xs, ys, 1); err == nil {
		t.Errorf("expected an error for a confidence of 1")
	}
}

func testEmbedding() (*mat.Dense, []string) {
	emb := mat.NewDense(9, 3, []float64{
		0, 0, 0,
		0.5, 0.1, 0.2,
		0.1, 0.6, 0.1,
		5, 5, 5,
		5.5, 5.2, 4.9,
		4.8, 5.4, 5.1,
		10, 0, 2,
		10.3, 0.5, 2.4,
		9.6, 0.2, 1.7,
	})
	labels := []string{"a", "a", "a", "b", "b", "b", "c", "c", "c"}
	return emb, labels
}

func TestScatter2DSaves(t *testing.T) {
	emb, labels := testEmbedding()

	opts := DefaultScatterOptions()
	opts.Ellipses = true
	opts.FillEllipses = true
	opts.EllipseAlpha = 0.3
	opts.Jitter = 0.01

	p, err := Scatter2D(emb, labels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if p.Title.Text != "UMAP Analysis" || p.X.Label.Text != "UMAP 1" || p.Y.Label.Text != "UMAP 2" {
		t.Errorf("unexpected titles %q %q %q", p.Title.Text, p.X.Label.Text, p.Y.Label.Text)
	}

	dir := t.TempDir()
	for _, name := range []string{"scatter.jpg", "scatter.png", "scatter.pdf"} {
		path := filepath.Join(dir, name)
		if err := SavePlot(p, path, Figure{Width: 2, Height: 2, DPI: 50}); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("%s: expected a non-empty file", name)
		}
	}

	if err := SavePlot(p, filepath.Join(dir, "scatter.bmp"), Figure{Width: 2, Height: 2, DPI: 50}); err == nil {
		t.Errorf("expected an error for an unsupported extension")
	}

	if _, err := Scatter2D(emb, labels[:2], opts); err == nil {
		t.Errorf("expected an error for mismatched labels")
	}
}

func TestScatter2DEllipseIgnoresJitter(t *testing.T) {
	emb := mat.NewDense(8, 2, []float64{
		0, 0, 1, 0, 0, 1, 1, 1,
		5, 5, 6, 5, 5, 6, 6, 6,
	})
	labels := []string{"a", "a", "a", "a", "b", "b", "b", "b"}

	// The ellipses reach well past the markers, so they alone set the data range
	opts := DefaultScatterOptions()
	opts.Ellipses = true
	opts.Legend = false

	still, err := Scatter2D(emb, labels, opts)
	if err != nil {
		t.Fatal(err)
	}

	opts.Jitter = 0.01
	shaken, err := Scatter2D(emb, labels, opts)
	if err != nil {
		t.Fatal(err)
	}

	if still.X.Min != shaken.X.Min || still.X.Max != shaken.X.Max || still.Y.Min != shaken.Y.Min || still.Y.Max != shaken.Y.Max {
		t.Errorf("jitter moved the ellipses: x [%v, %v] vs [%v, %v], y [%v, %v] vs [%v, %v]",
			still.X.Min, still.X.Max, shaken.X.Min, shaken.X.Max,
			still.Y.Min, still.Y.Max, shaken.Y.Min, shaken.Y.Max)
	}
}

func TestScatter3D(t *testing.T) {
	emb, labels := testEmbedding()

	opts := DefaultScatter3DOptions()
	opts.Figure = Figure{Width: 2, Height: 2, DPI: 60}

	img, err := Scatter3D(emb, labels, opts)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 120 || b.Dy() != 120 {
		t.Fatalf("expected a 120x120 image, got %v", b)
	}

	path := filepath.Join(t.TempDir(), "scatter_3d.jpg")
	if err := SaveImage(img, path); err != nil {
		t.Fatal(err)
	}

	if _, err := Scatter3D(emb.Slice(0, 9, 0, 2), labels, opts); err == nil {
		t.Errorf("expected an error for a 2 dimensional embedding")
	}
}

func TestCameraDefaultView(t *testing.T) {
	cam := newCamera(-60, 30)

	// The viewer looks down onto the cube, so the top is nearer than the floor
	_, _, top := cam.project(0, 0, 1)
	_, _, floor := cam.project(0, 0, -1)
	if top <= floor {
		t.Errorf("expected the top face to be nearer than the floor")
	}

	// The +x end of the x axis is on the right
	right, _, _ := cam.project(1, 0, 0)
	left, _, _ := cam.project(-1, 0, 0)
	if right <= left {
		t.Errorf("expected +x to project to the right of -x")
	}
}

func TestDendrogramPlot(t *testing.T) {
	z, err := hca.Ward([][]float64{{1}, {2}, {4}, {7}})
	if err != nil {
		t.Fatal(err)
	}
	layout, err := hca.Dendrogram(z, []string{"w", "x", "y", "z"}, hca.DendrogramOptions{Threshold: 0.7})
	if err != nil {
		t.Fatal(err)
	}

	p, err := DendrogramPlot(layout, DefaultDendrogramStyle())
	if err != nil {
		t.Fatal(err)
	}
	if p.X.Label.Text != "Categories" || p.Y.Label.Text != "Distance" {
		t.Errorf("unexpected axis labels %q and %q", p.X.Label.Text, p.Y.Label.Text)
	}
	if p.X.Max != 40 {
		t.Errorf("expected the x axis to end at 40, got %v", p.X.Max)
	}

	ticks := p.X.Tick.Marker.Ticks(p.X.Min, p.X.Max)
	if len(ticks) != 4 || ticks[0].Value != 5 || ticks[0].Label != layout.LeafLabels[0] {
		t.Errorf("unexpected leaf ticks %v", ticks)
	}

	for _, name := range []string{"dendrogram.pdf", "dendrogram.png"} {
		path := filepath.Join(t.TempDir(), name)
		if err := SavePlot(p, path, Figure{Width: 8, Height: 8, DPI: 30}); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
}

func TestMeanSpectraChart(t *testing.T) {
	axis := []float64{1000, 1100, 1200, 1300}
	means := [][]float64{
		{0.1, 0.5, 0.9, 0.2},
		{0.3, 0.2, 0.4, 0.8},
	}

	var buf bytes.Buffer
	if err := MeanSpectraChart(axis, []string{"a", "b"}, means, &buf); err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("\x89PNG")) {
		t.Errorf("expected PNG output")
	}

	if err := MeanSpectraChart(axis[:3], []string{"a", "b"}, means, &buf); err == nil {
		t.Errorf("expected an error for a short axis")
	}
}

func TestParseColor(t *testing.T) {
	gray, err := ParseColor(" Gray ")
	if err != nil {
		t.Fatal(err)
	}
	sameRGB(t, gray, color.RGBA{0x80, 0x80, 0x80, 0xff})

	hex, err := ParseColor("#ff8000")
	if err != nil {
		t.Fatal(err)
	}
	sameRGB(t, hex, color.RGBA{0xff, 0x80, 0x00, 0xff})

	for _, bad := range []string{"chartreuse-ish", "#zzzzzz"} {
		if _, err := ParseColor(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}
