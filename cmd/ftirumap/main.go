// ftirumap aligns single-cell FTIR spectra from several groups onto one
// wavenumber axis, embeds them in 3 dimensions with UMAP, and plots the
// embedding colored by group.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/spectromisc"
	_ "github.com/carbocation/spectromisc/compileinfoprint"
	"github.com/carbocation/spectromisc/config"
	"github.com/carbocation/spectromisc/plotting"
	"github.com/carbocation/spectromisc/preprocess"
	"github.com/carbocation/spectromisc/spectra"
	"github.com/carbocation/spectromisc/umap"
	"gonum.org/v1/gonum/mat"
)

// The plots and the results table use the first 3 embedding dimensions.
const nComponents = 3

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	cfg := config.DefaultUMAP()
	var configPath string
	cfg.RegisterFlags(flag.CommandLine)
	flag.StringVar(&configPath, "config", "", "Optional. JSON or TOML file with any of the settings. Flags given on the command line take precedence.")
	flag.Parse()

	if configPath != "" {
		if err := config.Overlay(flag.CommandLine, configPath, &cfg); err != nil {
			log.Fatalln(err)
		}
	}
	cfg.ExpandPaths()

	if cfg.DataDir == "" || cfg.WavenumberPath == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, cfg config.UMAP) error {
	layout, err := spectra.ParseLayout(cfg.Layout)
	if err != nil {
		return err
	}
	if len(cfg.Ranges) == 0 {
		return fmt.Errorf("at least one -range is required")
	}

	// Initialize the Google Storage client only if we're pointing to Google
	// Storage paths.
	var client *storage.Client
	if spectromisc.IsGoogleStoragePath(cfg.DataDir) || spectromisc.IsGoogleStoragePath(cfg.WavenumberPath) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			return pfx.Err(err)
		}
		defer client.Close()
	}

	ds, err := spectra.LoadDataset(ctx, spectra.LoadOptions{
		DataDir:        cfg.DataDir,
		WavenumberPath: cfg.WavenumberPath,
		Layout:         layout,
		SmoothWC:       cfg.Smooth,
		Client:         client,
	})
	if err != nil {
		return err
	}
	log.Println("Data preprocessing finished.")
	log.Printf("The shape of the data: (%d, %d)\n", ds.Len(), len(ds.Wavenumbers))

	if cfg.Combined != "" {
		if err := writeCombined(cfg.Combined, ds); err != nil {
			return err
		}
		log.Println("Wrote the aligned spectra to", cfg.Combined)
	}

	if cfg.SpectraChart != "" {
		if err := writeSpectraChart(cfg.SpectraChart, ds); err != nil {
			return err
		}
		log.Println("Wrote the mean spectra chart to", cfg.SpectraChart)
	}

	log.Println("Distribution of the maximum intensity of each spectrum:")
	if err := preprocess.MaxHistogram(os.Stderr, ds.Rows, 10); err != nil {
		return err
	}

	features, err := prepareFeatures(ds, cfg)
	if err != nil {
		return err
	}

	opts := umap.DefaultOptions()
	opts.NComponents = nComponents
	opts.NNeighbors = cfg.NNeighbors
	opts.MinDist = cfg.MinDist
	opts.RandomState = cfg.Seed

	log.Printf("Embedding %d spectra with UMAP (%d neighbors, min distance %g, seed %d)\n", ds.Len(), opts.NNeighbors, opts.MinDist, opts.RandomState)
	embedding, err := umap.FitTransform(ctx, features, opts)
	if err != nil {
		return err
	}

	unique, colors := plotting.GroupColors(plotting.Rain, ds.Labels)
	log.Println("Color and label correspondence:")
	for _, label := range unique {
		c := plotting.WithAlpha(colors[label], 1)
		log.Printf("Label: %s, Color: #%02x%02x%02x\n", label, c.R, c.G, c.B)
	}

	if err := writeFigures(embedding, ds.Labels, cfg); err != nil {
		return err
	}

	rows := resultRows(ds, embedding)
	resultsPath := cfg.Out + "_results.csv"
	if err := writeResults(resultsPath, rows); err != nil {
		return err
	}
	log.Println("Analysis complete. Results saved to", resultsPath)

	if cfg.BigQueryProject != "" && cfg.BigQueryTable != "" {
		if err := exportBigQuery(ctx, cfg.BigQueryProject, cfg.BigQueryTable, rows); err != nil {
			return err
		}
		log.Printf("Exported %d rows to %s.%s\n", len(rows), cfg.BigQueryProject, cfg.BigQueryTable)
	}

	return nil
}

// prepareFeatures applies the optional per-spectrum normalization and
// per-wavenumber standardization, then keeps only the selected ranges.
func prepareFeatures(ds *spectra.Dataset, cfg config.UMAP) (*mat.Dense, error) {
	rows := make([][]float64, len(ds.Rows))
	for i, row := range ds.Rows {
		rows[i] = append([]float64(nil), row...)
	}

	if cfg.Normalize {
		if err := preprocess.NormalizeMax(rows); err != nil {
			return nil, err
		}
	}

	m := mat.NewDense(len(rows), len(ds.Wavenumbers), nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}

	if cfg.Standardize {
		preprocess.Standardize(m)
	}

	idx := preprocess.SelectRanges(ds.Wavenumbers, cfg.Ranges)
	if len(idx) == 0 {
		return nil, fmt.Errorf("no reference wavenumbers fall inside the ranges %v", cfg.Ranges.String())
	}
	features, err := preprocess.Columns(m, idx)
	if err != nil {
		return nil, err
	}

	r, c := features.Dims()
	log.Printf("Kept %d of %d wavenumbers: data shape (%d, %d)\n", len(idx), len(ds.Wavenumbers), r, c)

	return features, nil
}

func writeFigures(embedding *mat.Dense, labels []string, cfg config.UMAP) error {
	fig := plotting.Figure{Width: cfg.Width, Height: cfg.Height, DPI: cfg.DPI}

	opts := plotting.DefaultScatterOptions()
	opts.Legend = cfg.Labels
	opts.Jitter = cfg.Jitter
	opts.Seed = cfg.Seed
	opts.Ellipses = cfg.Ellipse
	opts.FillEllipses = cfg.Fill
	opts.Confidence = cfg.Confidence

	p, err := plotting.Scatter2D(embedding, labels, opts)
	if err != nil {
		return err
	}
	path := cfg.Out + ".jpg"
	if err := plotting.SavePlot(p, path, fig); err != nil {
		return err
	}
	log.Printf("Image saved as %s at %d DPI\n", path, cfg.DPI)

	opts3 := plotting.DefaultScatter3DOptions()
	opts3.ScatterOptions = opts
	opts3.Figure = fig

	img, err := plotting.Scatter3D(embedding, labels, opts3)
	if err != nil {
		return err
	}
	path = cfg.Out + "_3d.jpg"
	if err := plotting.SaveImage(img, path); err != nil {
		return err
	}
	log.Printf("Image saved as %s at %d DPI\n", path, cfg.DPI)

	return nil
}

func writeCombined(path string, ds *spectra.Dataset) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := spectra.WriteCombined(f, ds); err != nil {
		f.Close()
		return err
	}

	return pfx.Err(f.Close())
}

func writeSpectraChart(path string, ds *spectra.Dataset) error {
	groups, means, err := preprocess.GroupMeans(ds.Labels, ds.Rows)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := plotting.MeanSpectraChart(ds.Wavenumbers, groups, means, f); err != nil {
		f.Close()
		return err
	}

	return pfx.Err(f.Close())
}
