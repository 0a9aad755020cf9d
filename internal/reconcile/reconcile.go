// Package reconcile compares the md5 checksums an index records with the
// files actually on disk.
package reconcile

import (
	"context"
	"errors"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/resolv-libs/resolv-data/internal/checksum"
	"github.com/resolv-libs/resolv-data/internal/index"
	"github.com/resolv-libs/resolv-data/internal/logging"
)

// Status is the outcome for one file.
type Status string

const (
	OK         Status = "ok"
	Mismatch   Status = "mismatch"
	Missing    Status = "missing"
	Unreadable Status = "unreadable"
	NoChecksum Status = "no_checksum"
	Skipped    Status = "skipped"
)

// Finding is the result of checking one file of one entry.
type Finding struct {
	EntryID  string
	FileKey  string
	Path     string // as written in the index
	Status   Status
	Expected string
	Actual   string
	Detail   string
}

// Report lists findings sorted by entry id, then file key.
type Report struct {
	Findings []Finding
}

// Count returns how many findings have status s.
func (r *Report) Count(s Status) int {
	n := 0
	for _, f := range r.Findings {
		if f.Status == s {
			n++
		}
	}
	return n
}

// Failed reports whether any file is missing, unreadable or differs from
// its recorded checksum.
func (r *Report) Failed() bool {
	return r.Count(Mismatch)+r.Count(Missing)+r.Count(Unreadable) > 0
}

// Options tunes Reconcile.
type Options struct {
	// Workers bounds how many files are hashed at once. Zero means GOMAXPROCS.
	Workers int
	// Root resolves relative paths. Empty means the working directory.
	Root string
}

type job struct {
	entryID string
	key     string
	file    index.EntryFile
}

// Reconcile checks every file of x. Only local paths and file:// URLs are
// read; other schemes are reported as Skipped. A cancelled ctx stops the
// walk and its error is returned.
func Reconcile(ctx context.Context, x *index.Index, opts Options) (*Report, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	var jobs []job
	for _, e := range x.Entries {
		for _, nf := range e.Files {
			jobs = append(jobs, job{entryID: e.ID, key: nf.Key, file: nf.File})
		}
	}

	var (
		mu       sync.Mutex
		findings = make([]Finding, 0, len(jobs))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, j := range jobs {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			f := check(j, opts.Root)
			logFinding(f)
			mu.Lock()
			findings = append(findings, f)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	// gctx is done once Wait returns; only the caller's ctx tells a
	// cancelled walk from a finished one.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(findings, func(a, b int) bool {
		if findings[a].EntryID != findings[b].EntryID {
			return findings[a].EntryID < findings[b].EntryID
		}
		return findings[a].FileKey < findings[b].FileKey
	})
	return &Report{Findings: findings}, nil
}

func check(j job, root string) Finding {
	f := Finding{EntryID: j.entryID, FileKey: j.key, Path: j.file.Path, Expected: j.file.MD5Checksum}

	local, ok := localPath(j.file.Path, root)
	if !ok {
		f.Status = Skipped
		f.Detail = "not a local path"
		return f
	}
	if _, err := os.Stat(local); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			f.Status = Missing
		} else {
			f.Status = Unreadable
			f.Detail = err.Error()
		}
		return f
	}
	if f.Expected == "" {
		f.Status = NoChecksum
		return f
	}

	sum, err := checksum.FileMD5(local)
	if err != nil {
		f.Status = Unreadable
		f.Detail = err.Error()
		return f
	}
	f.Actual = sum
	if sum == f.Expected {
		f.Status = OK
	} else {
		f.Status = Mismatch
	}
	return f
}

// localPath maps an index path to a filesystem path.
func localPath(p, root string) (string, bool) {
	if p == "" {
		return "", false
	}
	if i := strings.Index(p, "://"); i > 0 {
		u, err := url.Parse(p)
		if err != nil || u.Scheme != "file" {
			return "", false
		}
		return filepath.FromSlash(u.Path), true
	}
	local := filepath.FromSlash(p)
	if !filepath.IsAbs(local) && root != "" {
		local = filepath.Join(root, local)
	}
	return local, true
}

func logFinding(f Finding) {
	switch f.Status {
	case OK, NoChecksum, Skipped:
		logging.Debug().Str("entry", f.EntryID).Str("key", f.FileKey).Str("status", string(f.Status)).Msg("file checked")
	default:
		logging.Warn().
			Str("entry", f.EntryID).
			Str("key", f.FileKey).
			Str("path", f.Path).
			Str("status", string(f.Status)).
			Msg("file does not match catalog")
	}
}
