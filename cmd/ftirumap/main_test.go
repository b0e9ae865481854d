package main

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/carbocation/spectromisc/config"
	"github.com/carbocation/spectromisc/preprocess"
	"github.com/carbocation/spectromisc/spectra"
)

func linspace(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

// writeGroup writes cells spectra sampled on axis, one per row. Each group has
// its own peak position so the groups separate in the embedding.
func writeGroup(t *testing.T, path string, axis []float64, cells int, peak float64) {
	t.Helper()

	var b strings.Builder
	for c := 0; c < cells; c++ {
		for i, x := range axis {
			if i > 0 {
				b.WriteString(",")
			}
			v := 1 + 5*math.Exp(-math.Pow((x-peak)/60, 2)) + 0.01*float64(c)*math.Sin(x/37)
			fmt.Fprintf(&b, "%g", v)
		}
		b.WriteString("\n")
	}

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}
}

func fixture(t *testing.T) config.UMAP {
	t.Helper()

	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	if err := os.Mkdir(dataDir, 0755); err != nil {
		t.Fatal(err)
	}

	big := linspace(1000, 2235, 50)
	small := linspace(1000, 2235, 40)
	writeGroup(t, filepath.Join(dataDir, "control.csv"), big, 8, 1650)
	writeGroup(t, filepath.Join(dataDir, "treated.csv"), small, 7, 1250)

	var b strings.Builder
	b.WriteString("control,treated\n")
	for i := range big {
		fmt.Fprintf(&b, "%g,", big[i])
		if i < len(small) {
			fmt.Fprintf(&b, "%g", small[i])
		}
		b.WriteString("\n")
	}
	wavenumberPath := filepath.Join(root, "wavenumbers.csv")
	if err := os.WriteFile(wavenumberPath, []byte(b.String()), 0644); err != nil {
		t.Fatal(err)
	}

	cfg := config.DefaultUMAP()
	cfg.DataDir = dataDir
	cfg.WavenumberPath = wavenumberPath
	cfg.Out = filepath.Join(root, "UMAP")
	cfg.Width, cfg.Height, cfg.DPI = 2, 2, 40
	cfg.Ellipse = true

	return cfg
}

func TestRunWritesOutputs(t *testing.T) {
	cfg := fixture(t)
	cfg.Combined = cfg.Out + "_combined.csv"
	cfg.SpectraChart = cfg.Out + "_spectra.png"

	if err := run(context.Background(), cfg); err != nil {
		t.Fatal(err)
	}

	for _, suffix := range []string{".jpg", "_3d.jpg", "_results.csv", "_combined.csv", "_spectra.png"} {
		if info, err := os.Stat(cfg.Out + suffix); err != nil || info.Size() == 0 {
			t.Errorf("expected a non-empty %s", cfg.Out+suffix)
		}
	}

	f, err := os.Open(cfg.Out + "_results.csv")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if got := strings.Join(records[0], ","); got != "index,id,label,UMAP-1,UMAP-2,UMAP-3" {
		t.Errorf("unexpected header %q", got)
	}
	if len(records) != 16 {
		t.Fatalf("expected 15 result rows after the header, got %d", len(records)-1)
	}
	if records[1][1] != "control_0" || records[1][2] != "control" || records[15][1] != "treated_6" {
		t.Errorf("unexpected rows %v ... %v", records[1], records[15])
	}

	// The combined table is the aligned dataset on the 50 point reference axis
	cf, err := os.Open(cfg.Combined)
	if err != nil {
		t.Fatal(err)
	}
	defer cf.Close()
	ds, err := spectra.ReadCombined(csv.NewReader(cf))
	if err != nil {
		t.Fatal(err)
	}
	if ds.Len() != 15 || len(ds.Wavenumbers) != 50 {
		t.Errorf("expected a 15 x 50 combined table, got %d x %d", ds.Len(), len(ds.Wavenumbers))
	}
}

func TestPrepareFeatures(t *testing.T) {
	ds := &spectra.Dataset{
		Wavenumbers: spectra.Axis{1000, 1500, 2000, 2500},
		Rows: [][]float64{
			{1, 2, 4, 8},
			{2, 2, 2, 2},
			{4, 1, 3, 2},
		},
	}

	cfg := config.DefaultUMAP()
	features, err := prepareFeatures(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}

	// 1000 to 2235 keeps the first 3 wavenumbers
	r, c := features.Dims()
	if r != 3 || c != 3 {
		t.Fatalf("expected 3 x 3 features, got %d x %d", r, c)
	}
	for j := 0; j < c; j++ {
		var sum float64
		for i := 0; i < r; i++ {
			sum += features.At(i, j)
		}
		if math.Abs(sum) > 1e-12 {
			t.Errorf("column %d is not centered: sum %v", j, sum)
		}
	}

	// The dataset itself is untouched
	if ds.Rows[0][3] != 8 {
		t.Errorf("prepareFeatures modified the dataset")
	}

	cfg.Ranges = config.RangeList{{Min: 3000, Max: 4000}}
	if _, err := prepareFeatures(ds, cfg); err == nil {
		t.Errorf("expected an error when no wavenumbers are selected")
	}

	cfg = config.DefaultUMAP()
	cfg.Ranges = config.RangeList{preprocess.Range{Min: 0, Max: 5000}}
	cfg.Normalize, cfg.Standardize = true, false
	features, err = prepareFeatures(ds, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if features.At(0, 3) != 1 || features.At(0, 0) != 0.125 {
		t.Errorf("expected max normalized rows, got %v", features.RawRowView(0))
	}
}

func TestSplitTableName(t *testing.T) {
	if ds, tbl, err := splitTableName("ftir.embedding"); err != nil || ds != "ftir" || tbl != "embedding" {
		t.Errorf("unexpected split %q %q %v", ds, tbl, err)
	}

	for _, bad := range []string{"", "embedding", "a.b.c", ".b"} {
		if _, _, err := splitTableName(bad); err == nil {
			t.Errorf("%q: expected an error", bad)
		}
	}
}
