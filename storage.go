package spectromisc

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/carbocation/pfx"
	"google.golang.org/api/iterator"
)

// IsGoogleStoragePath reports whether path names an object or prefix in Google
// Storage.
func IsGoogleStoragePath(path string) bool {
	return strings.HasPrefix(path, "gs://")
}

// SplitGoogleStoragePath splits gs://bucket/some/object into its bucket and
// object components. The object may be empty when path names a bucket.
func SplitGoogleStoragePath(path string) (bucket, object string, err error) {
	if !IsGoogleStoragePath(path) {
		return "", "", fmt.Errorf("%s is not a gs:// path", path)
	}

	pathParts := strings.SplitN(strings.TrimPrefix(path, "gs://"), "/", 2)
	if pathParts[0] == "" {
		return "", "", fmt.Errorf("no bucket name found in %s", path)
	}
	if len(pathParts) == 1 {
		return pathParts[0], "", nil
	}

	return pathParts[0], pathParts[1], nil
}

// MaybeOpenFromGoogleStorage opens path from Google Storage if it is a gs://
// path and a client was provided. Otherwise, path is opened from the local
// filesystem (after ~ expansion).
func MaybeOpenFromGoogleStorage(ctx context.Context, path string, client *storage.Client) (io.ReadCloser, error) {
	if IsGoogleStoragePath(path) {
		if client == nil {
			return nil, pfx.Err(fmt.Errorf("%s: a storage client is required to read gs:// paths", path))
		}

		bucketName, objectName, err := SplitGoogleStoragePath(path)
		if err != nil {
			return nil, pfx.Err(err)
		}

		rdr, err := client.Bucket(bucketName).Object(objectName).NewReader(ctx)
		if err != nil {
			return nil, pfx.Err(fmt.Errorf("%s: %w", path, err))
		}

		return rdr, nil
	}

	f, err := os.Open(ExpandHome(path))
	if err != nil {
		return nil, pfx.Err(err)
	}

	return f, nil
}

// ListFiles lists the files directly under dir (a local directory or a
// gs://bucket/prefix) for which keep returns true. The returned names are base
// names, sorted lexicographically so that callers see a stable order no matter
// how the underlying listing is ordered.
func ListFiles(ctx context.Context, dir string, keep func(name string) bool, client *storage.Client) ([]string, error) {
	var out []string

	if IsGoogleStoragePath(dir) {
		if client == nil {
			return nil, pfx.Err(fmt.Errorf("%s: a storage client is required to list gs:// paths", dir))
		}

		bucketName, prefix, err := SplitGoogleStoragePath(dir)
		if err != nil {
			return nil, pfx.Err(err)
		}
		if prefix != "" && !strings.HasSuffix(prefix, "/") {
			prefix += "/"
		}

		it := client.Bucket(bucketName).Objects(ctx, &storage.Query{Prefix: prefix, Delimiter: "/"})
		for {
			attrs, err := it.Next()
			if err == iterator.Done {
				break
			} else if err != nil {
				return nil, pfx.Err(err)
			}

			// Synthetic directory entries only carry a Prefix
			if attrs.Name == "" {
				continue
			}

			name := strings.TrimPrefix(attrs.Name, prefix)
			if keep(name) {
				out = append(out, name)
			}
		}
	} else {
		entries, err := os.ReadDir(ExpandHome(dir))
		if err != nil {
			return nil, pfx.Err(err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if keep(entry.Name()) {
				out = append(out, entry.Name())
			}
		}
	}

	sort.Strings(out)

	return out, nil
}

// JoinPath joins a file name onto a local or gs:// directory.
func JoinPath(dir, name string) string {
	if IsGoogleStoragePath(dir) {
		return strings.TrimSuffix(dir, "/") + "/" + name
	}

	return filepath.Join(ExpandHome(dir), name)
}
