package main

import (
	"os"

	"github.com/carbocation/pfx"
	"github.com/carbocation/spectromisc/spectra"
	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/mat"
)

// ResultRow is one embedded spectrum, as written to the results table and to
// BigQuery.
type ResultRow struct {
	Index int     `csv:"index" bigquery:"idx"`
	ID    string  `csv:"id" bigquery:"id"`
	Label string  `csv:"label" bigquery:"label"`
	UMAP1 float64 `csv:"UMAP-1" bigquery:"umap_1"`
	UMAP2 float64 `csv:"UMAP-2" bigquery:"umap_2"`
	UMAP3 float64 `csv:"UMAP-3" bigquery:"umap_3"`
}

func resultRows(ds *spectra.Dataset, embedding mat.Matrix) []*ResultRow {
	out := make([]*ResultRow, ds.Len())
	for i := range out {
		out[i] = &ResultRow{
			Index: i,
			ID:    ds.IDs[i],
			Label: ds.Labels[i],
			UMAP1: embedding.At(i, 0),
			UMAP2: embedding.At(i, 1),
			UMAP3: embedding.At(i, 2),
		}
	}

	return out
}

func writeResults(path string, rows []*ResultRow) error {
	f, err := os.Create(path)
	if err != nil {
		return pfx.Err(err)
	}

	if err := gocsv.MarshalFile(&rows, f); err != nil {
		f.Close()
		return pfx.Err(err)
	}

	return pfx.Err(f.Close())
}
