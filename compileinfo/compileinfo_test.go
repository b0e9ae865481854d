package compileinfo

import (
	"strings"
	"testing"
)

func TestString(t *testing.T) {
	c := CompileInfo{
		Package:   "github.com/carbocation/spectromisc/cmd/ftirumap",
		Main:      "github.com/carbocation/spectromisc",
		GoVersion: "go1.21.0",
		Commit:    "abc123",
		Modified:  true,
	}

	s := c.String()
	for _, want := range []string{"cmd/ftirumap", "go1.21.0", "abc123", "modified"} {
		if !strings.Contains(s, want) {
			t.Errorf("expected %q in %q", want, s)
		}
	}

	if s := (CompileInfo{}).String(); !strings.Contains(s, "No build information") {
		t.Errorf("unexpected output for empty build info: %q", s)
	}
}
