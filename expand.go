package spectromisc

import (
	"os/user"
	"path/filepath"
	"strings"
)

// ExpandHome interprets a leading ~ as the current user's home directory. Paths
// that cannot be expanded are returned unchanged.
//
// Via https://stackoverflow.com/a/17617721/199475
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	usr, err := user.Current()
	if err != nil {
		return path
	}

	if path == "~" {
		return usr.HomeDir
	}

	return filepath.Join(usr.HomeDir, path[2:])
}
