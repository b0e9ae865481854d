// ftirhca clusters the mean spectrum of each group of a combined spectra table
// with Ward's method and draws the dendrogram.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/carbocation/spectromisc"
	_ "github.com/carbocation/spectromisc/compileinfoprint"
	"github.com/carbocation/spectromisc/config"
	"github.com/carbocation/spectromisc/hca"
	"github.com/carbocation/spectromisc/plotting"
	"github.com/carbocation/spectromisc/preprocess"
	"github.com/carbocation/spectromisc/spectra"
)

func main() {
	fmt.Fprintf(os.Stderr, "%q\n", os.Args)

	cfg := config.DefaultHCA()
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

	if cfg.File == "" || cfg.Out == "" {
		flag.PrintDefaults()
		os.Exit(1)
	}

	if err := run(context.Background(), cfg); err != nil {
		log.Fatalln(err)
	}
}

func run(ctx context.Context, cfg config.HCA) error {
	format := strings.ToLower(strings.TrimPrefix(cfg.Format, "."))
	if format != "pdf" && format != "png" {
		return fmt.Errorf("unsupported format %q: use pdf or png", cfg.Format)
	}

	above, err := plotting.ParseColor(cfg.AboveColor)
	if err != nil {
		return err
	}

	var client *storage.Client
	if spectromisc.IsGoogleStoragePath(cfg.File) {
		client, err = storage.NewClient(ctx)
		if err != nil {
			return pfx.Err(err)
		}
		defer client.Close()
	}

	cr, closer, err := spectromisc.OpenCSV(ctx, cfg.File, client)
	if err != nil {
		return err
	}
	ds, err := spectra.ReadCombined(cr)
	closer.Close()
	if err != nil {
		return fmt.Errorf("%s: %w", cfg.File, err)
	}
	log.Printf("Loaded %d spectra x %d wavenumbers from %s\n", ds.Len(), len(ds.Wavenumbers), cfg.File)

	groups, means, err := preprocess.GroupMeans(ds.Labels, ds.Rows)
	if err != nil {
		return err
	}
	log.Printf("Computed the mean spectrum of %d groups: %v\n", len(groups), groups)

	z, err := hca.Ward(means)
	if err != nil {
		return err
	}
	logLinkage(z, groups)

	flat := hca.FlatClusters(z, cfg.Threshold)
	for k, members := range hca.ClusterMembers(flat) {
		names := make([]string, len(members))
		for i, m := range members {
			names[i] = groups[m]
		}
		log.Printf("Cluster %d below distance %g: %s\n", k+1, cfg.Threshold, strings.Join(names, ", "))
	}

	if len(groups) >= 3 {
		r, err := hca.CopheneticCorrelation(z, means)
		if err != nil {
			return err
		}
		log.Printf("Cophenetic correlation: %.4f\n", r)
	}

	layout, err := hca.Dendrogram(z, groups, hca.DendrogramOptions{
		Threshold:  cfg.Threshold,
		AboveColor: above,
	})
	if err != nil {
		return err
	}

	style := plotting.DefaultDendrogramStyle()
	style.LeafRotation = cfg.Rotation
	style.LeafFontSize = cfg.FontSize

	p, err := plotting.DendrogramPlot(layout, style)
	if err != nil {
		return err
	}

	outputFilename := cfg.Out + "." + format
	if err := plotting.SavePlot(p, outputFilename, plotting.Figure{Width: cfg.Width, Height: cfg.Height, DPI: cfg.DPI}); err != nil {
		return err
	}
	log.Println("Dendrogram saved as", outputFilename)

	return nil
}

// logLinkage prints one line per merge, naming singleton clusters by group.
func logLinkage(z hca.Linkage, groups []string) {
	n := len(groups)
	name := func(cluster int) string {
		if cluster < n {
			return groups[cluster]
		}
		return fmt.Sprintf("cluster%d", cluster)
	}

	log.Println("Linkage (a, b, distance, size):")
	for k, m := range z {
		log.Printf("  cluster%d = %s + %s at %.6g (%d groups)\n", n+k, name(m.A), name(m.B), m.Distance, m.Size)
	}
}
