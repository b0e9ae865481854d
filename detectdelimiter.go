package spectromisc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"github.com/csimplestring/go-csv/detector"
)

// How much of a table is sampled to guess its delimiter.
const delimiterSampleBytes = 64 * 1024

// Delimiters that DetermineDelimiter will report, in order of preference.
const candidateDelimiters = ",\t;|"

// DetermineDelimiter returns the single most likely rune that would delimit the
// values in the reader, assuming a CSV-like file. Characters that also occur
// regularly inside numbers (such as '.' or '-') are never reported. Comma is
// the fallback.
func DetermineDelimiter(r io.Reader) rune {
	d := detector.New()
	delimiters := d.DetectDelimiter(r, '"')

	found := make(map[rune]bool)
	for _, delim := range delimiters {
		for _, c := range delim {
			found[c] = true
		}
	}

	for _, c := range candidateDelimiters {
		if found[c] {
			return c
		}
	}

	return ','
}

// PeekDelimiter guesses the delimiter from the first lines buffered in br
// without consuming them.
func PeekDelimiter(br *bufio.Reader) rune {
	sample, _ := br.Peek(delimiterSampleBytes)

	// Only complete lines are handed to the detector
	if idx := bytes.LastIndexByte(sample, '\n'); idx > 0 {
		sample = sample[:idx+1]
	}

	// A single-column table has no delimiter to find
	if !bytes.ContainsAny(sample, ",;\t|") {
		return ','
	}

	return DetermineDelimiter(bytes.NewReader(sample))
}

// NewCSVReader decompresses r if needed, detects its delimiter, and returns a
// csv.Reader that tolerates ragged rows.
func NewCSVReader(r io.Reader) (*csv.Reader, error) {
	dr, err := MaybeDecompressReader(r)
	if err != nil {
		return nil, pfx.Err(err)
	}

	br := bufio.NewReaderSize(dr, delimiterSampleBytes)

	cr := csv.NewReader(br)
	cr.Comma = PeekDelimiter(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	return cr, nil
}

// OpenCSV opens a local or gs:// table for reading. The caller must close the
// returned io.Closer.
func OpenCSV(ctx context.Context, path string, client *storage.Client) (*csv.Reader, io.Closer, error) {
	f, err := MaybeOpenFromGoogleStorage(ctx, path, client)
	if err != nil {
		return nil, nil, err
	}

	cr, err := NewCSVReader(f)
	if err != nil {
		f.Close()
		return nil, nil, pfx.Err(err)
	}

	return cr, f, nil
}

// TrimBaseName strips a trailing .csv (and compression suffix) from a file
// name, yielding the group name it represents.
func TrimBaseName(name string) string {
	trimmed := name
	for _, suffix := range []string{".gz", ".bz2", ".xz", ".zip"} {
		trimmed = strings.TrimSuffix(trimmed, suffix)
	}

	if !strings.HasSuffix(trimmed, ".csv") {
		return name
	}

	return strings.TrimSuffix(trimmed, ".csv")
}

// IsCSVName reports whether name looks like a (possibly compressed) CSV file.
func IsCSVName(name string) bool {
	return TrimBaseName(name) != name && !strings.HasPrefix(name, ".")
}
