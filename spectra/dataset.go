package spectra

import (
	"context"
	"fmt"
	"log"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/runningvariance"
	"github.com/carbocation/spectromisc"
	"gonum.org/v1/gonum/mat"
)

// Dataset is a set of spectra aligned onto a single reference wavenumber axis:
// one row per cell, one column per reference wavenumber.
type Dataset struct {
	Reference   string
	Wavenumbers Axis
	Rows        [][]float64
	Labels      []string
	IDs         []string
	Files       []FileSummary
}

// FileSummary records what was loaded from one input file.
type FileSummary struct {
	Name         string
	Label        string
	Spectra      int
	Points       int
	Extrapolated int
	Mean         float64
	SD           float64
}

// Len is the number of spectra in the dataset.
func (d *Dataset) Len() int {
	return len(d.Rows)
}

// Matrix copies the spectra into a dense n x p matrix.
func (d *Dataset) Matrix() *mat.Dense {
	if len(d.Rows) == 0 {
		return &mat.Dense{}
	}

	m := mat.NewDense(len(d.Rows), len(d.Wavenumbers), nil)
	for i, row := range d.Rows {
		m.SetRow(i, row)
	}

	return m
}

// Append adds one file's spectra (already sampled on its own axis) to the
// dataset, aligning each onto the dataset's reference axis.
func (d *Dataset) Append(label string, axis Axis, spectra [][]float64, smoothWC float64) (FileSummary, error) {
	summary := FileSummary{Label: label, Spectra: len(spectra), Points: len(axis)}
	rs := runningvariance.NewRunningStat()

	for i, spectrum := range spectra {
		for _, v := range spectrum {
			rs.Push(v)
		}

		res, err := AlignSpectrum(axis, spectrum, d.Wavenumbers)
		if err != nil {
			return summary, fmt.Errorf("%s spectrum %d: %w", label, i, err)
		}
		summary.Extrapolated += res.Extrapolated

		aligned := res.Spectrum
		if smoothWC > 0 {
			if aligned, err = Smooth(aligned, smoothWC); err != nil {
				return summary, fmt.Errorf("%s spectrum %d: %w", label, i, err)
			}
		}

		d.Rows = append(d.Rows, aligned)
		d.Labels = append(d.Labels, label)
		d.IDs = append(d.IDs, fmt.Sprintf("%s_%d", label, i))
	}

	if len(spectra) > 0 {
		summary.Mean = rs.Mean()
		summary.SD = rs.StandardDeviation()
	}

	d.Files = append(d.Files, summary)

	return summary, nil
}

// LoadOptions configures LoadDataset.
type LoadOptions struct {
	// DataDir is a local directory or gs://bucket/prefix holding one spectra
	// table per group. The group label is the file name without .csv.
	DataDir string

	// WavenumberPath is the table whose columns hold each data file's
	// wavenumbers, named after the data files.
	WavenumberPath string

	Layout Layout

	// SmoothWC enables Butterworth smoothing of the aligned spectra when > 0.
	SmoothWC float64

	// Client is required only for gs:// paths.
	Client *storage.Client
}

// LoadDataset lists the spectra tables, picks the reference axis among them,
// and returns every spectrum aligned onto it.
func LoadDataset(ctx context.Context, opts LoadOptions) (*Dataset, error) {
	fileNames, err := spectromisc.ListFiles(ctx, opts.DataDir, spectromisc.IsCSVName, opts.Client)
	if err != nil {
		return nil, err
	}
	if len(fileNames) == 0 {
		return nil, pfx.Err(fmt.Errorf("no CSV files found in %s", opts.DataDir))
	}
	log.Println("Data files:", fileNames)

	cr, closer, err := spectromisc.OpenCSV(ctx, opts.WavenumberPath, opts.Client)
	if err != nil {
		return nil, err
	}
	allAxes, err := ReadAxes(cr)
	closer.Close()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", opts.WavenumberPath, err)
	}

	// Only the axes of the data files compete to be the reference
	axes := make(map[string]Axis, len(fileNames))
	for _, fileName := range fileNames {
		label := spectromisc.TrimBaseName(fileName)
		axis, exists := allAxes[label]
		if !exists {
			return nil, pfx.Err(fmt.Errorf("%s has no column named %q for data file %s", opts.WavenumberPath, label, fileName))
		}
		axes[label] = axis
	}

	reference, err := SelectReference(axes)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if _, err := axes[reference].Orientation(); err != nil {
		return nil, pfx.Err(fmt.Errorf("reference axis %s: %w", reference, err))
	}
	log.Printf("The reference file is %s with %d wavenumber points\n", reference, len(axes[reference]))

	out := &Dataset{
		Reference:   reference,
		Wavenumbers: axes[reference],
	}

	for _, fileName := range fileNames {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		label := spectromisc.TrimBaseName(fileName)
		axis := axes[label]

		spectra, err := readSpectraPath(ctx, spectromisc.JoinPath(opts.DataDir, fileName), len(axis), opts.Layout, opts.Client)
		if err != nil {
			return nil, err
		}

		summary, err := out.Append(label, axis, spectra, opts.SmoothWC)
		if err != nil {
			return nil, pfx.Err(err)
		}
		summary.Name = fileName
		out.Files[len(out.Files)-1] = summary

		log.Printf("Loaded %s: %d spectra x %d points, label %s, raw intensity mean %.4g (SD %.4g)\n", fileName, summary.Spectra, summary.Points, label, summary.Mean, summary.SD)
		if summary.Extrapolated > 0 {
			log.Printf("Warning: %d aligned values of %s fell outside its wavenumber range [%g, %g] and were extrapolated\n", summary.Extrapolated, fileName, axis[0], axis[len(axis)-1])
		}
	}

	return out, nil
}

func readSpectraPath(ctx context.Context, path string, axisLen int, layout Layout, client *storage.Client) ([][]float64, error) {
	cr, closer, err := spectromisc.OpenCSV(ctx, path, client)
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	spectra, err := ReadSpectraFile(cr, axisLen, layout)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return spectra, nil
}
