package spectra

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// Layout describes how a headerless spectra table is oriented.
type Layout int

const (
	// LayoutAuto infers the orientation from the table shape and the length of
	// its wavenumber axis.
	LayoutAuto Layout = iota
	// LayoutRows stores one spectrum per row (one column per wavenumber).
	LayoutRows
	// LayoutColumns stores one spectrum per column (one row per wavenumber).
	LayoutColumns
)

func (l Layout) String() string {
	switch l {
	case LayoutRows:
		return "rows"
	case LayoutColumns:
		return "columns"
	}

	return "auto"
}

// ParseLayout maps "auto", "rows" or "columns" onto a Layout.
func ParseLayout(s string) (Layout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return LayoutAuto, nil
	case "rows", "row":
		return LayoutRows, nil
	case "columns", "column", "cols":
		return LayoutColumns, nil
	}

	return LayoutAuto, fmt.Errorf("unknown layout %q (expected auto, rows or columns)", s)
}

// ReadSpectraFile reads a headerless numeric table and returns one spectrum
// per cell, each with axisLen intensities.
func ReadSpectraFile(cr *csv.Reader, axisLen int, layout Layout) ([][]float64, error) {
	table, err := readNumericTable(cr)
	if err != nil {
		return nil, pfx.Err(err)
	}
	if len(table) == 0 {
		return nil, pfx.Err(fmt.Errorf("the spectra table is empty"))
	}

	width := len(table[0])

	if layout == LayoutAuto {
		switch {
		case width == axisLen:
			layout = LayoutRows
		case len(table) == axisLen:
			layout = LayoutColumns
		default:
			return nil, pfx.Err(fmt.Errorf("the table is %d x %d, but neither dimension matches the %d wavenumbers of its axis", len(table), width, axisLen))
		}
	}

	switch layout {
	case LayoutRows:
		if width != axisLen {
			return nil, pfx.Err(fmt.Errorf("rows have %d intensities but the axis has %d wavenumbers", width, axisLen))
		}
		return table, nil
	case LayoutColumns:
		if len(table) != axisLen {
			return nil, pfx.Err(fmt.Errorf("columns have %d intensities but the axis has %d wavenumbers", len(table), axisLen))
		}
		return transpose(table), nil
	}

	return nil, pfx.Err(fmt.Errorf("unsupported layout %v", layout))
}

// readNumericTable reads every record as floats, requiring a rectangular table.
// Blank lines are skipped by encoding/csv.
func readNumericTable(cr *csv.Reader) ([][]float64, error) {
	var out [][]float64

	for line := 1; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		// Tolerate a trailing delimiter
		if n := len(row); n > 1 && strings.TrimSpace(row[n-1]) == "" {
			row = row[:n-1]
		}

		if len(out) > 0 && len(row) != len(out[0]) {
			return nil, fmt.Errorf("line %d has %d fields, expected %d", line, len(row), len(out[0]))
		}

		values := make([]float64, len(row))
		for i, cell := range row {
			values[i], err = strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("line %d, field %d: %w", line, i+1, err)
			}
		}

		out = append(out, values)
	}

	return out, nil
}

func transpose(table [][]float64) [][]float64 {
	if len(table) == 0 {
		return nil
	}

	out := make([][]float64, len(table[0]))
	for j := range out {
		out[j] = make([]float64, len(table))
		for i := range table {
			out[j][i] = table[i][j]
		}
	}

	return out
}
