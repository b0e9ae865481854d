// compileinfoprint is imported for the side effect of printing the compileinfo
// to os.Stderr, so that every analysis log starts with the provenance of the
// binary that produced it.
package compileinfoprint

import "github.com/carbocation/spectromisc/compileinfo"

func init() {
	compileinfo.PrintToStdErr()
}
