package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/resolv-libs/resolv-data/internal/index"
	"github.com/resolv-libs/resolv-data/internal/logging"
)

const defaultLockTimeout = 10 * time.Second

// WriteOptions tunes Write.
type WriteOptions struct {
	// Force replaces a published catalog even when its version is unchanged,
	// and replaces files that cannot be read back.
	Force bool
	// LockTimeout bounds the wait for the writer lock. Zero means 10s.
	LockTimeout time.Duration
}

// WriteResult describes what Write did.
type WriteResult struct {
	Path        string
	Format      Format
	Fingerprint string
	// Unchanged is set when an identical catalog was already in place and
	// nothing was written.
	Unchanged bool
}

// Write publishes x at path. The catalog is validated, then written to a
// temporary file beside path and renamed into place while holding an
// exclusive lock on "<path>.lock".
//
// Republishing different content under the version already on disk fails
// with ErrVersionNotBumped unless opts.Force is set. For JSON the comparison
// uses the catalog as stored, without unknown fields.
func Write(ctx context.Context, path string, x *index.Index, opts WriteOptions) (*WriteResult, error) {
	if vs := index.Validate(x); len(vs) > 0 {
		return nil, fmt.Errorf("%w: %w", ErrInvalidIndex, vs.Err())
	}
	format := FormatFor(path)
	b, err := Marshal(x, format)
	if err != nil {
		return nil, err
	}
	// JSON has no room for unknown fields, so the catalog on disk is what
	// the rendering reads back as, not x itself.
	stored := x
	if format == JSON && x.HasUnknownFields() {
		if stored, err = index.DecodeJSON(b); err != nil {
			return nil, fmt.Errorf("cannot read back JSON rendering: %w", err)
		}
	}
	res := &WriteResult{Path: path, Format: format, Fingerprint: Fingerprint(stored)}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create catalog dir %s: %w", dir, err)
	}
	unlock, err := acquireLock(ctx, path+".lock", opts.LockTimeout)
	if err != nil {
		return nil, err
	}
	defer unlock()

	prev, err := Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		if !opts.Force {
			return nil, fmt.Errorf("cannot check existing catalog (use force to replace it): %w", err)
		}
		logging.Warn().Err(err).Str("path", path).Msg("replacing unreadable catalog")
	case Fingerprint(prev) == res.Fingerprint:
		res.Unchanged = true
		logging.Debug().Str("path", path).Str("fingerprint", res.Fingerprint).Msg("catalog unchanged")
		return res, nil
	case prev.Version == x.Version && !opts.Force:
		return nil, fmt.Errorf("%w: %s already holds version %q", ErrVersionNotBumped, path, x.Version)
	}

	if err := writeAtomic(path, b); err != nil {
		return nil, err
	}
	logging.Info().
		Str("path", path).
		Str("format", format.String()).
		Str("version", x.Version).
		Int("entries", len(x.Entries)).
		Msg("catalog written")
	return res, nil
}

// acquireLock takes the exclusive writer lock, retrying until timeout.
func acquireLock(ctx context.Context, lockPath string, timeout time.Duration) (func(), error) {
	if timeout <= 0 {
		timeout = defaultLockTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	l := flock.New(lockPath)
	locked, err := l.TryLockContext(ctx, 100*time.Millisecond)
	if err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("cannot acquire catalog lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("%w (lock: %s)", ErrLocked, lockPath)
	}
	return func() { _ = l.Unlock() }, nil
}

// writeAtomic writes b to a temp file in path's directory and renames it over
// path, so readers see either the old or the new catalog.
func writeAtomic(path string, b []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.Remove(tmp.Name())
		}
	}()

	if _, err = tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot write catalog: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("cannot sync catalog: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("cannot close catalog: %w", err)
	}
	if err = os.Chmod(tmp.Name(), 0o644); err != nil {
		return fmt.Errorf("cannot set catalog permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("cannot publish catalog: %w", err)
	}
	return nil
}
