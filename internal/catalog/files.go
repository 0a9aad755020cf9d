package catalog

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/resolv-libs/resolv-data/internal/checksum"
	"github.com/resolv-libs/resolv-data/internal/index"
)

// findFiles returns the slash-separated paths, relative to root, of every
// regular file under root whose extension is one of exts. The result is
// sorted so builds are reproducible.
func findFiles(root string, exts ...string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() || !d.Type().IsRegular() {
			return nil
		}
		ext := strings.ToLower(filepath.Ext(path))
		for _, e := range exts {
			if ext == e {
				rel, err := filepath.Rel(root, path)
				if err != nil {
					return err
				}
				out = append(out, filepath.ToSlash(rel))
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("cannot scan %s: %w", root, err)
	}
	sort.Strings(out)
	return out, nil
}

// hashFiles computes the md5 of each root-relative path, keyed by the path.
func hashFiles(ctx context.Context, root string, rels []string, workers int) (map[string]string, error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var (
		mu  sync.Mutex
		out = make(map[string]string, len(rels))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, rel := range rels {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			sum, err := checksum.FileMD5(filepath.Join(root, filepath.FromSlash(rel)))
			if err != nil {
				return fmt.Errorf("cannot checksum %s: %w", rel, err)
			}
			mu.Lock()
			out[rel] = sum
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// recordedPath is the path written into the index for a root-relative file.
func recordedPath(root string, opts BuildOptions, rel string) string {
	prefix := opts.PathPrefix
	if prefix == "" {
		prefix = filepath.ToSlash(root)
	}
	return strings.TrimRight(prefix, "/") + "/" + rel
}

// entryFile builds the EntryFile for rel from a completed hash table.
func entryFile(root string, opts BuildOptions, sums map[string]string, rel string) index.EntryFile {
	return index.EntryFile{Path: recordedPath(root, opts, rel), MD5Checksum: sums[rel]}
}

// stem is the file name of rel without its extension.
func stem(rel string) string {
	base := filepath.Base(filepath.FromSlash(rel))
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// parentName is the name of the directory that holds rel.
func parentName(rel string) string {
	return filepath.Base(filepath.Dir(filepath.FromSlash(rel)))
}
