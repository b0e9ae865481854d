// Package config holds the settings of the ftir tools. Every setting has a
// command line flag; a JSON or TOML file may supply the same settings, and
// flags given explicitly on the command line win over the file.
package config

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/carbocation/pfx"
	"github.com/carbocation/spectromisc"
	"github.com/carbocation/spectromisc/preprocess"
	"github.com/pelletier/go-toml/v2"
)

// UMAP configures ftirumap.
type UMAP struct {
	DataDir        string    `json:"data" toml:"data"`
	WavenumberPath string    `json:"wavenumbers" toml:"wavenumbers"`
	Ranges         RangeList `json:"ranges" toml:"ranges"`
	Normalize      bool      `json:"normalize" toml:"normalize"`
	Standardize    bool      `json:"standardize" toml:"standardize"`
	Layout         string    `json:"layout" toml:"layout"`
	Smooth         float64   `json:"smooth" toml:"smooth"`

	Seed       int64   `json:"seed" toml:"seed"`
	NNeighbors int     `json:"neighbors" toml:"neighbors"`
	MinDist    float64 `json:"min_dist" toml:"min_dist"`

	Labels     bool    `json:"labels" toml:"labels"`
	Jitter     float64 `json:"jitter" toml:"jitter"`
	Ellipse    bool    `json:"ellipse" toml:"ellipse"`
	Fill       bool    `json:"fill" toml:"fill"`
	Confidence float64 `json:"confidence" toml:"confidence"`
	Width      float64 `json:"width" toml:"width"`
	Height     float64 `json:"height" toml:"height"`
	DPI        int     `json:"dpi" toml:"dpi"`
	Out        string  `json:"out" toml:"out"`

	Combined        string `json:"combined" toml:"combined"`
	SpectraChart    string `json:"spectra_chart" toml:"spectra_chart"`
	BigQueryProject string `json:"bigquery_project" toml:"bigquery_project"`
	BigQueryTable   string `json:"bigquery_table" toml:"bigquery_table"`
}

// DefaultUMAP reproduces the published analysis.
func DefaultUMAP() UMAP {
	return UMAP{
		DataDir:        "data",
		WavenumberPath: "wavenumbers.csv",
		Ranges:         RangeList{{Min: 1000, Max: 2235}},
		Normalize:      true,
		Standardize:    true,
		Layout:         "auto",
		Seed:           1,
		NNeighbors:     15,
		MinDist:        0.1,
		Labels:         true,
		Confidence:     0.95,
		Width:          6,
		Height:         6,
		DPI:            1200,
		Out:            "UMAP",
	}
}

// RegisterFlags binds every setting to a flag of fs, using the current values
// as defaults.
func (c *UMAP) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.DataDir, "data", c.DataDir, "Directory (local or gs://) holding one CSV of spectra per group")
	fs.StringVar(&c.WavenumberPath, "wavenumbers", c.WavenumberPath, "CSV whose columns hold the wavenumber axis of each data file, headed by the file's name")
	fs.Var(&rangeFlag{dst: &c.Ranges}, "range", "Inclusive wavenumber range min:max to keep. May be repeated or comma separated.")
	fs.BoolVar(&c.Normalize, "normalize", c.Normalize, "Divide every spectrum by its maximum?")
	fs.BoolVar(&c.Standardize, "standardize", c.Standardize, "Z-score every wavenumber across spectra?")
	fs.StringVar(&c.Layout, "layout", c.Layout, "Orientation of the data files: auto, rows (one spectrum per row), or columns")
	fs.Float64Var(&c.Smooth, "smooth", c.Smooth, "If in (0,1), low-pass each aligned spectrum with this normalized cutoff. 0 disables smoothing.")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed for the embedding and the jitter")
	fs.IntVar(&c.NNeighbors, "neighbors", c.NNeighbors, "Size of the neighborhood, including the point itself")
	fs.Float64Var(&c.MinDist, "min-dist", c.MinDist, "Minimum distance between embedded points")
	fs.BoolVar(&c.Labels, "labels", c.Labels, "Draw a legend?")
	fs.Float64Var(&c.Jitter, "jitter", c.Jitter, "Standard deviation of Gaussian jitter added to plotted points")
	fs.BoolVar(&c.Ellipse, "ellipse", c.Ellipse, "Draw a confidence ellipse around each group?")
	fs.BoolVar(&c.Fill, "fill", c.Fill, "Fill the confidence ellipses?")
	fs.Float64Var(&c.Confidence, "confidence", c.Confidence, "Probability mass inside each confidence ellipse")
	fs.Float64Var(&c.Width, "width", c.Width, "Figure width in inches")
	fs.Float64Var(&c.Height, "height", c.Height, "Figure height in inches")
	fs.IntVar(&c.DPI, "dpi", c.DPI, "Resolution of the saved figures")
	fs.StringVar(&c.Out, "out", c.Out, "Prefix of the output files")
	fs.StringVar(&c.Combined, "combined", c.Combined, "Optional. Path of a CSV receiving the aligned spectra as id, label, then one column per reference wavenumber (the input of ftirhca).")
	fs.StringVar(&c.SpectraChart, "spectra-chart", c.SpectraChart, "Optional. Path of a PNG charting the mean aligned spectrum of every group.")
	fs.StringVar(&c.BigQueryProject, "bigquery-project", c.BigQueryProject, "Optional. Google Cloud project to export the embedding to.")
	fs.StringVar(&c.BigQueryTable, "bigquery-table", c.BigQueryTable, "Optional. dataset.table to export the embedding to.")
}

// ExpandPaths interprets a leading ~ in every path setting.
func (c *UMAP) ExpandPaths() {
	c.DataDir = spectromisc.ExpandHome(c.DataDir)
	c.WavenumberPath = spectromisc.ExpandHome(c.WavenumberPath)
	c.Out = spectromisc.ExpandHome(c.Out)
	c.Combined = spectromisc.ExpandHome(c.Combined)
	c.SpectraChart = spectromisc.ExpandHome(c.SpectraChart)
}

// HCA configures ftirhca.
type HCA struct {
	File       string  `json:"file" toml:"file"`
	Format     string  `json:"format" toml:"format"`
	Out        string  `json:"out" toml:"out"`
	Threshold  float64 `json:"threshold" toml:"threshold"`
	AboveColor string  `json:"above_color" toml:"above_color"`
	Rotation   float64 `json:"rotation" toml:"rotation"`
	FontSize   float64 `json:"font_size" toml:"font_size"`
	Width      float64 `json:"width" toml:"width"`
	Height     float64 `json:"height" toml:"height"`
	DPI        int     `json:"dpi" toml:"dpi"`
}

// DefaultHCA reproduces the published dendrogram.
func DefaultHCA() HCA {
	return HCA{
		File:       "cellspec_for_HCA.csv",
		Format:     "pdf",
		Out:        "dendrogram",
		Threshold:  0.7,
		AboveColor: "gray",
		Rotation:   45,
		FontSize:   10,
		Width:      8,
		Height:     8,
		DPI:        300,
	}
}

// RegisterFlags binds every setting to a flag of fs, using the current values
// as defaults.
func (c *HCA) RegisterFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.File, "file", c.File, "Combined CSV (local or gs://): id, label, then one column per wavenumber")
	fs.StringVar(&c.Format, "format", c.Format, "Output format: pdf or png")
	fs.StringVar(&c.Out, "out", c.Out, "Output path, without extension")
	fs.Float64Var(&c.Threshold, "threshold", c.Threshold, "Subtrees merging below this distance are colored individually")
	fs.StringVar(&c.AboveColor, "above-color", c.AboveColor, "Color of links at or above the threshold: a name (gray, black) or #rrggbb")
	fs.Float64Var(&c.Rotation, "rotation", c.Rotation, "Rotation of the leaf labels, in degrees")
	fs.Float64Var(&c.FontSize, "font-size", c.FontSize, "Font size of the leaf labels")
	fs.Float64Var(&c.Width, "width", c.Width, "Figure width in inches")
	fs.Float64Var(&c.Height, "height", c.Height, "Figure height in inches")
	fs.IntVar(&c.DPI, "dpi", c.DPI, "Resolution of png output")
}

// ExpandPaths interprets a leading ~ in every path setting.
func (c *HCA) ExpandPaths() {
	c.File = spectromisc.ExpandHome(c.File)
	c.Out = spectromisc.ExpandHome(c.Out)
}

// ParseFromPath decodes the file at path into dst, choosing TOML for .toml
// files and JSON otherwise. Settings absent from the file keep their value.
func ParseFromPath(path string, dst interface{}) error {
	data, err := os.ReadFile(spectromisc.ExpandHome(path))
	if err != nil {
		return pfx.Err(err)
	}

	if strings.EqualFold(filepath.Ext(path), ".toml") {
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(dst); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if e, ok := err.(*json.SyntaxError); ok {
			log.Printf("syntax error at byte offset %d", e.Offset)
		}
		return fmt.Errorf("%s: %w", path, err)
	}

	return nil
}

type resetter interface {
	Reset()
}

// Overlay loads the file at path into dst, whose fields must be bound to the
// flags of fs, and then re-applies every flag that was set explicitly so that
// the command line takes precedence over the file.
func Overlay(fs *flag.FlagSet, path string, dst interface{}) error {
	explicit := make(map[string]string)
	fs.Visit(func(f *flag.Flag) {
		explicit[f.Name] = f.Value.String()
	})

	if err := ParseFromPath(path, dst); err != nil {
		return err
	}

	for name, value := range explicit {
		f := fs.Lookup(name)
		if r, ok := f.Value.(resetter); ok {
			r.Reset()
		}
		if err := f.Value.Set(value); err != nil {
			return fmt.Errorf("re-applying -%s: %w", name, err)
		}
	}

	return nil
}

// RangeList is a list of inclusive wavenumber ranges.
type RangeList []preprocess.Range

func (r RangeList) String() string {
	parts := make([]string, len(r))
	for i, v := range r {
		parts[i] = v.String()
	}

	return strings.Join(parts, ",")
}

// rangeFlag is a repeatable -range flag. The first value given on the command
// line replaces the defaults instead of extending them.
type rangeFlag struct {
	dst *RangeList
	set bool
}

func (f *rangeFlag) String() string {
	if f == nil || f.dst == nil {
		return ""
	}
	return f.dst.String()
}

// Set appends one or more comma separated min:max ranges.
func (f *rangeFlag) Set(value string) error {
	var parsed RangeList
	for _, part := range strings.Split(value, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		v, err := preprocess.ParseRange(part)
		if err != nil {
			return err
		}
		parsed = append(parsed, v)
	}

	if !f.set {
		*f.dst = nil
		f.set = true
	}
	*f.dst = append(*f.dst, parsed...)

	return nil
}

func (f *rangeFlag) Reset() {
	f.set = false
}
