package spectra

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/carbocation/pfx"
)

var (
	// ErrNotMonotonic is returned for wavenumber axes that are neither strictly
	// increasing nor strictly decreasing (including axes with duplicates).
	ErrNotMonotonic = errors.New("wavenumbers are not strictly monotonic")

	// ErrNonFinite is returned when an axis or a spectrum holds NaN or Inf.
	ErrNonFinite = errors.New("non-finite value")
)

// Axis is the ordered sequence of wavenumbers at which one source file's
// spectra were sampled.
type Axis []float64

// Equal reports whether two axes hold exactly the same wavenumbers.
func (a Axis) Equal(b Axis) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

// Orientation returns +1 for a strictly increasing axis and -1 for a strictly
// decreasing one. Anything else is an error.
func (a Axis) Orientation() (int, error) {
	for i, v := range a {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("wavenumber %d: %w", i, ErrNonFinite)
		}
	}
	if len(a) < 2 {
		return 1, nil
	}

	direction := 1
	if a[1] < a[0] {
		direction = -1
	}

	for i := 1; i < len(a); i++ {
		d := a[i] - a[i-1]
		if (direction > 0 && d <= 0) || (direction < 0 && d >= 0) {
			return 0, fmt.Errorf("wavenumber %d (%g) follows %g: %w", i, a[i], a[i-1], ErrNotMonotonic)
		}
	}

	return direction, nil
}

// Contains reports whether x lies within the closed span of the axis.
func (a Axis) Contains(x float64) bool {
	if len(a) == 0 {
		return false
	}
	lo, hi := a[0], a[len(a)-1]
	if lo > hi {
		lo, hi = hi, lo
	}

	return x >= lo && x <= hi
}

// ReadAxes reads the wavenumber table: the header names one column per data
// file (its base name without .csv) and each column lists that file's
// wavenumbers. Columns may be ragged; empty and NaN cells are dropped.
func ReadAxes(cr *csv.Reader) (map[string]Axis, error) {
	header, err := cr.Read()
	if err == io.EOF {
		return nil, pfx.Err(fmt.Errorf("the wavenumber table is empty"))
	} else if err != nil {
		return nil, pfx.Err(err)
	}

	names := make([]string, len(header))
	out := make(map[string]Axis, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, pfx.Err(fmt.Errorf("column %d of the wavenumber table has no name", i+1))
		}
		if _, exists := out[name]; exists {
			return nil, pfx.Err(fmt.Errorf("column %s appears more than once in the wavenumber table", name))
		}
		names[i] = name
		out[name] = Axis{}
	}

	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, pfx.Err(err)
		}

		for i, cell := range row {
			if i >= len(names) {
				break
			}

			cell = strings.TrimSpace(cell)
			if cell == "" {
				continue
			}

			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, pfx.Err(fmt.Errorf("line %d, column %s: %w", line, names[i], err))
			}
			if math.IsNaN(v) {
				continue
			}

			out[names[i]] = append(out[names[i]], v)
		}
	}

	return out, nil
}

// SelectReference picks the axis with the most points. Ties go to the first
// name in lexicographic order, so the choice does not depend on how files were
// listed.
func SelectReference(axes map[string]Axis) (string, error) {
	if len(axes) == 0 {
		return "", fmt.Errorf("no wavenumber axes to choose a reference from")
	}

	names := make([]string, 0, len(axes))
	for name := range axes {
		names = append(names, name)
	}
	sort.Strings(names)

	reference := ""
	maxPoints := 0
	for _, name := range names {
		if n := len(axes[name]); n > maxPoints {
			maxPoints = n
			reference = name
		}
	}

	if reference == "" {
		return "", fmt.Errorf("every wavenumber axis is empty")
	}

	return reference, nil
}
