// Package plotting renders the figures of the spectral analyses: embedding
// scatter plots, dendrograms and mean spectra.
package plotting

import (
	"fmt"
	"image/color"
	"math"
	"sort"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Colormap interpolates linearly (in RGB) between evenly spaced color stops.
type Colormap []colorful.Color

// Rain runs from sky blue through pink and gold to yellow-green.
var Rain = Colormap{
	{R: 135.0 / 256, G: 206.0 / 256, B: 235.0 / 256},
	{R: 255.0 / 256, G: 105.0 / 256, B: 180.0 / 256},
	{R: 255.0 / 256, G: 215.0 / 256, B: 0.0 / 256},
	{R: 154.0 / 256, G: 205.0 / 256, B: 50.0 / 256},
}

// At returns the color at position t in [0, 1]. Positions outside the range
// are clamped.
func (c Colormap) At(t float64) colorful.Color {
	if len(c) == 0 {
		return colorful.Color{}
	}
	if len(c) == 1 || math.IsNaN(t) || t <= 0 {
		return c[0]
	}
	if t >= 1 {
		return c[len(c)-1]
	}

	pos := t * float64(len(c)-1)
	i := int(math.Floor(pos))

	return c[i].BlendRgb(c[i+1], pos-float64(i))
}

// Colors samples n evenly spaced colors, from the first stop to the last.
func (c Colormap) Colors(n int) []color.Color {
	out := make([]color.Color, n)
	for i := range out {
		t := 0.0
		if n > 1 {
			t = float64(i) / float64(n-1)
		}
		out[i] = c.At(t).Clamped()
	}

	return out
}

// Groups lists the distinct labels in sorted order along with the row indices
// belonging to each.
func Groups(labels []string) ([]string, map[string][]int) {
	rows := make(map[string][]int)
	for i, l := range labels {
		rows[l] = append(rows[l], i)
	}

	unique := make([]string, 0, len(rows))
	for l := range rows {
		unique = append(unique, l)
	}
	sort.Strings(unique)

	return unique, rows
}

// GroupColors maps each distinct label, in sorted order, onto the colormap.
func GroupColors(cmap Colormap, labels []string) ([]string, map[string]color.Color) {
	unique, _ := Groups(labels)
	colors := cmap.Colors(len(unique))

	out := make(map[string]color.Color, len(unique))
	for i, l := range unique {
		out[l] = colors[i]
	}

	return unique, out
}

// WithAlpha returns c with its opacity replaced by alpha in [0, 1].
func WithAlpha(c color.Color, alpha float64) color.NRGBA {
	if alpha < 0 {
		alpha = 0
	} else if alpha > 1 {
		alpha = 1
	}

	cf, ok := colorful.MakeColor(c)
	if !ok {
		// Fully transparent colors carry no hue
		return color.NRGBA{}
	}

	r8, g8, b8 := cf.Clamped().RGB255()
	return color.NRGBA{R: r8, G: g8, B: b8, A: uint8(math.Round(alpha * 255))}
}

var namedColors = map[string]color.Color{
	"black": color.Black,
	"white": color.White,
	"gray":  color.RGBA{0x80, 0x80, 0x80, 0xff},
	"grey":  color.RGBA{0x80, 0x80, 0x80, 0xff},
	"red":   color.RGBA{0xff, 0x00, 0x00, 0xff},
	"green": color.RGBA{0x00, 0x80, 0x00, 0xff},
	"blue":  color.RGBA{0x00, 0x00, 0xff, 0xff},
}

// ParseColor accepts a basic color name or a #rrggbb hex triplet.
func ParseColor(s string) (color.Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, exists := namedColors[s]; exists {
		return c, nil
	}

	if strings.HasPrefix(s, "#") {
		c, err := colorful.Hex(s)
		if err != nil {
			return nil, fmt.Errorf("color %q: %w", s, err)
		}
		return c.Clamped(), nil
	}

	return nil, fmt.Errorf("unknown color %q", s)
}
