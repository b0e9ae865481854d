// Package preprocess holds the per-spectrum and per-feature transforms applied
// between alignment and embedding or clustering.
package preprocess

import (
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/aybabtme/uniplot/histogram"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// ErrNonPositiveMax is returned when a spectrum cannot be max-normalized.
var ErrNonPositiveMax = errors.New("spectrum maximum is not a positive finite number")

// NormalizeMax divides every spectrum in place by its own maximum, so that each
// one peaks at exactly 1.
func NormalizeMax(rows [][]float64) error {
	for i, row := range rows {
		if len(row) == 0 {
			return fmt.Errorf("spectrum %d is empty", i)
		}

		max := floats.Max(row)
		if !(max > 0) || math.IsInf(max, 0) {
			return fmt.Errorf("spectrum %d (max %v): %w", i, max, ErrNonPositiveMax)
		}

		// Division rather than scaling by 1/max keeps the peak at exactly 1
		for j := range row {
			row[j] /= max
		}
	}

	return nil
}

// Scaler holds the per-column statistics of a fitted standardization.
type Scaler struct {
	Mean  []float64
	Scale []float64
}

// Standardize z-scores every column of m in place using the population standard
// deviation. Columns with zero variance are centered but not scaled.
func Standardize(m *mat.Dense) Scaler {
	rows, cols := m.Dims()
	out := Scaler{
		Mean:  make([]float64, cols),
		Scale: make([]float64, cols),
	}

	col := make([]float64, rows)
	for j := 0; j < cols; j++ {
		mat.Col(col, j, m)

		mean, std := stat.PopMeanStdDev(col, nil)
		if std == 0 || math.IsNaN(std) {
			std = 1
		}
		out.Mean[j] = mean
		out.Scale[j] = std

		for i := range col {
			col[i] = (col[i] - mean) / std
		}
		m.SetCol(j, col)
	}

	return out
}

// Range is an inclusive wavenumber interval.
type Range struct {
	Min float64 `json:"min" toml:"min"`
	Max float64 `json:"max" toml:"max"`
}

func (r Range) String() string {
	return fmt.Sprintf("%g:%g", r.Min, r.Max)
}

// ParseRange reads a "min:max" interval. The bounds may be given in either
// order.
func ParseRange(s string) (Range, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return Range{}, fmt.Errorf("range %q is not of the form min:max", s)
	}

	lo, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Range{}, fmt.Errorf("range %q: %w", s, err)
	}
	if lo > hi {
		lo, hi = hi, lo
	}

	return Range{Min: lo, Max: hi}, nil
}

// SelectRanges returns the sorted, de-duplicated indices of the wavenumbers
// falling inside any of the ranges.
func SelectRanges(axis []float64, ranges []Range) []int {
	keep := make(map[int]struct{})
	for _, r := range ranges {
		for i, wavenumber := range axis {
			if r.Min <= wavenumber && wavenumber <= r.Max {
				keep[i] = struct{}{}
			}
		}
	}

	out := make([]int, 0, len(keep))
	for i := range keep {
		out = append(out, i)
	}
	sort.Ints(out)

	return out
}

// Columns returns a new matrix holding the listed columns of m, in order.
func Columns(m mat.Matrix, idx []int) (*mat.Dense, error) {
	rows, cols := m.Dims()
	if len(idx) == 0 {
		return nil, fmt.Errorf("no columns selected")
	}

	out := mat.NewDense(rows, len(idx), nil)
	for k, j := range idx {
		if j < 0 || j >= cols {
			return nil, fmt.Errorf("column %d out of range (%d columns)", j, cols)
		}
		for i := 0; i < rows; i++ {
			out.Set(i, k, m.At(i, j))
		}
	}

	return out, nil
}

// SelectValues returns the values of x at the listed indices.
func SelectValues(x []float64, idx []int) []float64 {
	out := make([]float64, len(idx))
	for k, i := range idx {
		out[k] = x[i]
	}

	return out
}

// GroupMeans averages the rows sharing a label. Missing (NaN) values are left
// out of the average of their column; a column with no values in a group
// averages to NaN. Labels are returned sorted.
func GroupMeans(labels []string, rows [][]float64) ([]string, [][]float64, error) {
	if len(labels) != len(rows) {
		return nil, nil, fmt.Errorf("%d labels for %d rows", len(labels), len(rows))
	}
	if len(rows) == 0 {
		return nil, nil, fmt.Errorf("no rows to average")
	}

	width := len(rows[0])
	sums := make(map[string][]float64)
	counts := make(map[string][]int)
	for i, row := range rows {
		if len(row) != width {
			return nil, nil, fmt.Errorf("row %d has %d values, expected %d", i, len(row), width)
		}

		sum, exists := sums[labels[i]]
		if !exists {
			sum = make([]float64, width)
			sums[labels[i]] = sum
			counts[labels[i]] = make([]int, width)
		}
		count := counts[labels[i]]
		for j, v := range row {
			if math.IsNaN(v) {
				continue
			}
			sum[j] += v
			count[j]++
		}
	}

	groups := make([]string, 0, len(sums))
	for label := range sums {
		groups = append(groups, label)
	}
	sort.Strings(groups)

	means := make([][]float64, len(groups))
	for k, label := range groups {
		means[k] = sums[label]
		for j, c := range counts[label] {
			if c == 0 {
				means[k][j] = math.NaN()
				continue
			}
			means[k][j] /= float64(c)
		}
	}

	return groups, means, nil
}

// MaxHistogram writes a text histogram of each spectrum's maximum, which makes
// saturated or empty acquisitions easy to spot before normalization.
func MaxHistogram(w io.Writer, rows [][]float64, bins int) error {
	maxima := make([]float64, 0, len(rows))
	for _, row := range rows {
		if len(row) > 0 {
			maxima = append(maxima, floats.Max(row))
		}
	}
	if len(maxima) == 0 {
		return nil
	}

	hist := histogram.Hist(bins, maxima)
	return histogram.Fprint(w, hist, histogram.Linear(40))
}
