package plotting

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand"
	"sort"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Scatter3DOptions adds the camera and canvas to the shared scatter style.
type Scatter3DOptions struct {
	ScatterOptions
	Figure Figure

	// Camera angles in degrees. Azimuth turns about the z axis, elevation
	// lifts the eye above the x-y plane.
	Azimuth, Elevation float64
}

// DefaultScatter3DOptions looks at the cube from azimuth -60 and elevation 30.
func DefaultScatter3DOptions() Scatter3DOptions {
	return Scatter3DOptions{
		ScatterOptions: DefaultScatterOptions(),
		Figure:         Figure{Width: 6, Height: 6, DPI: 300},
		Azimuth:        -60,
		Elevation:      30,
	}
}

type camera struct {
	sinA, cosA, sinE, cosE float64
}

func newCamera(azimuth, elevation float64) camera {
	a := azimuth * math.Pi / 180
	e := elevation * math.Pi / 180
	return camera{sinA: math.Sin(a), cosA: math.Cos(a), sinE: math.Sin(e), cosE: math.Cos(e)}
}

// project returns screen coordinates (y up) and the depth toward the viewer.
func (c camera) project(x, y, z float64) (sx, sy, depth float64) {
	sx = -x*c.sinA + y*c.cosA
	sy = -x*c.cosA*c.sinE - y*c.sinA*c.sinE + z*c.cosE
	depth = x*c.cosA*c.cosE + y*c.sinA*c.cosE + z*c.sinE
	return
}

type point3 struct {
	sx, sy, depth float64
	color         color.Color
}

// Scatter3D draws the first three embedding coordinates inside a wire cube
// seen from the configured camera. Points are painted back to front.
func Scatter3D(emb mat.Matrix, labels []string, opts Scatter3DOptions) (image.Image, error) {
	n, dims := emb.Dims()
	if n != len(labels) {
		return nil, fmt.Errorf("%d embedded points but %d labels", n, len(labels))
	}
	if dims < 3 {
		return nil, fmt.Errorf("a 3D scatter needs at least 3 embedding dimensions, got %d", dims)
	}
	if opts.Colormap == nil {
		opts.Colormap = Rain
	}
	width, height := opts.Figure.pixels()
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("invalid figure size %vx%v in at %d DPI", opts.Figure.Width, opts.Figure.Height, opts.Figure.DPI)
	}
	// Pixels per typographic point
	pt := float64(opts.Figure.DPI) / 72

	rng := rand.New(rand.NewSource(opts.Seed))
	unique, rows := Groups(labels)
	_, colors := GroupColors(opts.Colormap, labels)

	// Jitter first, then scale every axis onto [-1, 1]
	coords := make([][]float64, 3)
	groupOf := make([]string, 0, n)
	for _, label := range unique {
		for d := 0; d < 3; d++ {
			coords[d] = append(coords[d], jittered(emb, rows[label], d, opts.Jitter, rng)...)
		}
		for range rows[label] {
			groupOf = append(groupOf, label)
		}
	}
	for d := range coords {
		lo, hi := floats.Min(coords[d]), floats.Max(coords[d])
		span := hi - lo
		for i, v := range coords[d] {
			if span == 0 {
				coords[d][i] = 0
				continue
			}
			coords[d][i] = 2*(v-lo)/span - 1
		}
	}

	cam := newCamera(opts.Azimuth, opts.Elevation)

	points := make([]point3, n)
	for i := range points {
		sx, sy, depth := cam.project(coords[0][i], coords[1][i], coords[2][i])
		points[i] = point3{sx: sx, sy: sy, depth: depth, color: WithAlpha(colors[groupOf[i]], opts.Alpha)}
	}
	sort.SliceStable(points, func(i, j int) bool { return points[i].depth < points[j].depth })

	// Fit the projected cube into the canvas, leaving room for the title,
	// the axis labels and the legend.
	var corners [8][2]float64
	minX, maxX, minY, maxY := math.Inf(1), math.Inf(-1), math.Inf(1), math.Inf(-1)
	for k := 0; k < 8; k++ {
		x, y, z := cubeCorner(k)
		sx, sy, _ := cam.project(x, y, z)
		corners[k] = [2]float64{sx, sy}
		minX, maxX = math.Min(minX, sx), math.Max(maxX, sx)
		minY, maxY = math.Min(minY, sy), math.Max(maxY, sy)
	}

	plotW, plotH := 0.70*float64(width), 0.75*float64(height)
	scale := math.Min(plotW/(maxX-minX), plotH/(maxY-minY))
	offX := 0.08*float64(width) + (plotW-scale*(maxX-minX))/2
	offY := 0.12*float64(height) + (plotH-scale*(maxY-minY))/2
	toPixel := func(sx, sy float64) (float64, float64) {
		return offX + scale*(sx-minX), offY + scale*(maxY-sy)
	}

	dc := gg.NewContext(width, height)
	dc.SetColor(color.White)
	dc.Clear()

	labelFace, err := goFace(8 * pt)
	if err != nil {
		return nil, err
	}
	titleFace, err := goFace(12 * pt)
	if err != nil {
		return nil, err
	}

	// Cube
	dc.SetColor(color.Gray{Y: 0xb0})
	dc.SetLineWidth(opts.AxisLineWidth * pt)
	for a := 0; a < 8; a++ {
		for b := a + 1; b < 8; b++ {
			// Edges join corners that differ in exactly one coordinate
			if diff := a ^ b; diff&(diff-1) != 0 {
				continue
			}
			x1, y1 := toPixel(corners[a][0], corners[a][1])
			x2, y2 := toPixel(corners[b][0], corners[b][1])
			dc.DrawLine(x1, y1, x2, y2)
		}
	}
	dc.Stroke()

	// Axis names sit just outside the midpoint of the front lower edges
	dc.SetFontFace(labelFace)
	dc.SetColor(color.Black)
	cx, cy := toPixel((minX+maxX)/2, (minY+maxY)/2)
	for axis := 0; axis < 3; axis++ {
		sx, sy := axisLabelAnchor(cam, axis)
		px, py := toPixel(sx, sy)
		dx, dy := px-cx, py-cy
		norm := math.Hypot(dx, dy)
		if norm > 0 {
			px += 24 * pt * dx / norm
			py += 24 * pt * dy / norm
		}
		dc.DrawStringAnchored(fmt.Sprintf("%s %d", opts.Name, axis+1), px, py, 0.5, 0.5)
	}

	// Points, back to front
	r := float64(opts.radius()) * pt
	for _, p := range points {
		x, y := toPixel(p.sx, p.sy)
		dc.SetColor(p.color)
		dc.DrawCircle(x, y, r)
		dc.Fill()
	}

	dc.SetFontFace(titleFace)
	dc.SetColor(color.Black)
	dc.DrawStringAnchored(fmt.Sprintf("%s Analysis", opts.Name), float64(width)/2, 0.05*float64(height), 0.5, 0.5)

	if opts.Legend {
		dc.SetFontFace(labelFace)
		lx := 0.82 * float64(width)
		ly := 0.15 * float64(height)
		step := 14 * pt
		for i, label := range unique {
			y := ly + float64(i)*step
			dc.SetColor(WithAlpha(colors[label], opts.Alpha))
			dc.DrawCircle(lx, y, math.Max(r, 3*pt))
			dc.Fill()
			dc.SetColor(color.Black)
			dc.DrawStringAnchored(label, lx+8*pt, y, 0, 0.5)
		}
	}

	return dc.Image(), nil
}

// cubeCorner maps the bits of k onto the corners of [-1, 1]^3.
func cubeCorner(k int) (x, y, z float64) {
	x, y, z = -1, -1, -1
	if k&1 != 0 {
		x = 1
	}
	if k&2 != 0 {
		y = 1
	}
	if k&4 != 0 {
		z = 1
	}
	return
}

// axisLabelAnchor picks the midpoint of the edge parallel to axis that is
// closest to the viewer among the edges on the floor of the cube (or, for the
// vertical axis, the leftmost vertical edge).
func axisLabelAnchor(cam camera, axis int) (float64, float64) {
	best := math.Inf(-1)
	var bx, by float64
	for _, u := range []float64{-1, 1} {
		var x, y, z float64
		switch axis {
		case 0:
			x, y, z = 0, u, -1
		case 1:
			x, y, z = u, 0, -1
		default:
			// Vertical edges are ranked by how far left they sit
			for _, v := range []float64{-1, 1} {
				sx, sy, _ := cam.project(u, v, 0)
				if -sx > best {
					best, bx, by = -sx, sx, sy
				}
			}
			continue
		}

		sx, sy, depth := cam.project(x, y, z)
		if depth > best {
			best, bx, by = depth, sx, sy
		}
	}

	return bx, by
}

func goFace(size float64) (font.Face, error) {
	f, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, err
	}

	return truetype.NewFace(f, &truetype.Options{Size: size}), nil
}
