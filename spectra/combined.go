package spectra

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

// The first two columns of a combined table; the rest are wavenumbers.
const (
	CombinedIDColumn    = "id"
	CombinedLabelColumn = "label"
)

// ReadCombined reads a table with one spectrum per row: an identifier, a group
// label, and one intensity per wavenumber named in the header. A column named
// "label" is used for the groups if present, otherwise the second column.
// Header cells that are not numbers become NaN wavenumbers. Empty intensity
// cells are read as NaN.
func ReadCombined(cr *csv.Reader) (*Dataset, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, pfx.Err(fmt.Errorf("the table is empty"))
	} else if err != nil {
		return nil, pfx.Err(err)
	}
	if len(header) < 3 {
		return nil, pfx.Err(fmt.Errorf("expected an id column, a label column and at least one intensity column, got %d columns", len(header)))
	}

	idCol, labelCol := 0, 1
	for i, name := range header[:2] {
		if strings.EqualFold(strings.TrimSpace(name), CombinedLabelColumn) {
			labelCol, idCol = i, 1-i
		}
	}

	out := &Dataset{Wavenumbers: make(Axis, len(header)-2)}
	for j, cell := range header[2:] {
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			v = math.NaN()
		}
		out.Wavenumbers[j] = v
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		if len(row) != len(header) {
			return nil, pfx.Err(fmt.Errorf("line %d has %d fields, expected %d", line, len(row), len(header)))
		}

		values := make([]float64, len(row)-2)
		for j, cell := range row[2:] {
			cell = strings.TrimSpace(cell)
			if cell == "" {
				values[j] = math.NaN()
				continue
			}
			values[j], err = strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("line %d, column %q: %w", line, header[j+2], err))
			}
		}

		out.IDs = append(out.IDs, row[idCol])
		out.Labels = append(out.Labels, row[labelCol])
		out.Rows = append(out.Rows, values)
	}

	if len(out.Rows) == 0 {
		return nil, pfx.Err(fmt.Errorf("the table has a header but no spectra"))
	}

	return out, nil
}

// WriteCombined writes d in the layout read by ReadCombined.
func WriteCombined(w io.Writer, d *Dataset) error {
	cw := csv.NewWriter(w)

	header := make([]string, 0, len(d.Wavenumbers)+2)
	header = append(header, CombinedIDColumn, CombinedLabelColumn)
	for _, v := range d.Wavenumbers {
		header = append(header, strconv.FormatFloat(v, 'g', -1, 64))
	}
	if err := cw.Write(header); err != nil {
		return pfx.Err(err)
	}

	record := make([]string, len(header))
	for i, row := range d.Rows {
		if len(row) != len(d.Wavenumbers) {
			return pfx.Err(fmt.Errorf("spectrum %d has %d values for %d wavenumbers", i, len(row), len(d.Wavenumbers)))
		}

		record[0], record[1] = d.IDs[i], d.Labels[i]
		for j, v := range row {
			record[j+2] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := cw.Write(record); err != nil {
			return pfx.Err(err)
		}
	}

	cw.Flush()

	return pfx.Err(cw.Error())
}
