package spectra

import (
	"bytes"
	"encoding/csv"
	"math"
	"strings"
	"testing"
)

func TestReadCombined(t *testing.T) {
	input := `id,label,1000,1001.5,1003
c1,ctrl,0.1,0.2,0.3
c2,ctrl,0.2,,0.4
t1,treated,1,2,3
`
	ds, err := ReadCombined(csv.NewReader(strings.NewReader(input)))
	if err != nil {
		t.Fatal(err)
	}

	if len(ds.Wavenumbers) != 3 || ds.Wavenumbers[1] != 1001.5 {
		t.Errorf("unexpected wavenumbers %v", ds.Wavenumbers)
	}
	if ds.Len() != 3 || ds.IDs[2] != "t1" || ds.Labels[2] != "treated" {
		t.Errorf("unexpected rows %v %v", ds.IDs, ds.Labels)
	}
	if !math.IsNaN(ds.Rows[1][1]) {
		t.Errorf("expected an empty cell to read as NaN, got %v", ds.Rows[1][1])
	}
}

func TestReadCombinedLabelFirst(t *testing.T) {
	input := "label,id,1,2\nctrl,c1,1,2\n"
	ds, err := ReadCombined(csv.NewReader(strings.NewReader(input)))
	if err != nil {
		t.Fatal(err)
	}
	if ds.Labels[0] != "ctrl" || ds.IDs[0] != "c1" {
		t.Errorf("expected the label column to be found by name, got id %q label %q", ds.IDs[0], ds.Labels[0])
	}
}

func TestReadCombinedErrors(t *testing.T) {
	cases := map[string]string{
		"empty":       "",
		"narrow":      "id,label\nc1,ctrl\n",
		"no rows":     "id,label,1,2\n",
		"not numeric": "id,label,1,2\nc1,ctrl,x,2\n",
	}

	for name, input := range cases {
		cr := csv.NewReader(strings.NewReader(input))
		cr.FieldsPerRecord = -1
		if _, err := ReadCombined(cr); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}

func TestWriteCombinedRoundTrip(t *testing.T) {
	ds := &Dataset{
		Wavenumbers: Axis{1000, 1000.5},
		Rows:        [][]float64{{0.25, 1}, {3, 4.5}},
		Labels:      []string{"a", "b"},
		IDs:         []string{"a_0", "b_0"},
	}

	var buf bytes.Buffer
	if err := WriteCombined(&buf, ds); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(buf.String(), "id,label,1000,1000.5\n") {
		t.Fatalf("unexpected header in %q", buf.String())
	}

	back, err := ReadCombined(csv.NewReader(&buf))
	if err != nil {
		t.Fatal(err)
	}
	if !back.Wavenumbers.Equal(ds.Wavenumbers) || back.Rows[1][1] != 4.5 || back.IDs[1] != "b_0" {
		t.Errorf("expected the written table to read back unchanged, got %+v", back)
	}
}
