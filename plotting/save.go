package plotting

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/disintegration/imaging"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
	"gonum.org/v1/plot/vg/vgpdf"
)

// JPEGQuality is used for every JPEG the package writes.
const JPEGQuality = 95

// Figure describes the physical size and resolution of a saved plot.
type Figure struct {
	// Width and Height are in inches.
	Width, Height float64
	DPI           int
}

func (f Figure) pixels() (int, int) {
	return int(f.Width * float64(f.DPI)), int(f.Height * float64(f.DPI))
}

// SavePlot writes p to filename. The format follows the extension: .pdf is
// vector output, while .png, .jpg and .jpeg are rasterized at the figure's DPI.
func SavePlot(p *plot.Plot, filename string, fig Figure) error {
	w, h := vg.Length(fig.Width)*vg.Inch, vg.Length(fig.Height)*vg.Inch

	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".pdf":
		c := vgpdf.New(w, h)
		p.Draw(draw.New(c))

		f, err := os.Create(filename)
		if err != nil {
			return pfx.Err(err)
		}
		if _, err := c.WriteTo(f); err != nil {
			f.Close()
			return pfx.Err(err)
		}
		return pfx.Err(f.Close())

	case ".png", ".jpg", ".jpeg":
		if fig.DPI <= 0 {
			return fmt.Errorf("a raster figure needs a positive DPI, got %d", fig.DPI)
		}
		c := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(fig.DPI))
		p.Draw(draw.New(c))
		return SaveImage(c.Image(), filename)

	default:
		return fmt.Errorf("unsupported figure format %q for %s", ext, filename)
	}
}

// SaveImage encodes img by the filename's extension.
func SaveImage(img image.Image, filename string) error {
	return pfx.Err(imaging.Save(img, filename, imaging.JPEGQuality(JPEGQuality)))
}
