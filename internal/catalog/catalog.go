// Package catalog builds indexes for the datasets resolv-data knows about.
// A builder reads a dataset directory that is already on disk, hashes every
// file it references and returns a validated index.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/resolv-libs/resolv-data/internal/index"
	"github.com/resolv-libs/resolv-data/internal/logging"
)

var (
	ErrUnknownDataset = errors.New("unknown dataset")
	ErrUnknownMode    = errors.New("unknown dataset mode")
)

// Info describes a dataset.
type Info struct {
	Name        string
	Version     string
	Description string
	Homepage    string
	License     string
	Citation    string
}

// RemoteSource is an archive or side file a dataset mode is published as.
// Fetching is left to the user; the list tells them what to fetch.
type RemoteSource struct {
	Filename string
	URL      string
	SHA256   string
	Archive  bool
}

// BuildOptions tunes a build.
type BuildOptions struct {
	// PathPrefix replaces the dataset root in recorded file paths. Empty
	// means the root itself.
	PathPrefix string
	// Workers bounds concurrent hashing. Zero means GOMAXPROCS.
	Workers int
}

// Dataset is one buildable dataset.
type Dataset interface {
	Info() Info
	// Modes lists the modes in the order they are documented.
	Modes() []string
	Sources(mode string) []RemoteSource
	// BuildIndex catalogs the dataset directory root in the given mode.
	BuildIndex(ctx context.Context, root, mode string, opts BuildOptions) (*index.Index, error)
}

// Registry maps a dataset key ("maestro-v3") to its builder.
var Registry = map[string]Dataset{
	"maestro-v1":      maestro{version: "1.0.0", layout: rowLayout},
	"maestro-v2":      maestro{version: "2.0.0", layout: rowLayout},
	"maestro-v3":      maestro{version: "3.0.0", layout: columnLayout},
	"lakh-midi-v1":    lakhMIDI{},
	"jsb-chorales-v1": jsbChorales{},
}

// Names returns the registry keys sorted.
func Names() []string {
	out := make([]string, 0, len(Registry))
	for k := range Registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the dataset registered under name.
func Lookup(name string) (Dataset, error) {
	ds, ok := Registry[name]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownDataset, name, strings.Join(Names(), ", "))
	}
	return ds, nil
}

// RootDirName is the directory a dataset mode is conventionally unpacked
// into, e.g. "maestro-v3.0.0-midi".
func RootDirName(ds Dataset, mode string) string {
	info := ds.Info()
	name := strings.ToLower(strings.ReplaceAll(info.Name, " ", "_"))
	return fmt.Sprintf("%s-v%s-%s", name, info.Version, mode)
}

// Build catalogs root with the named dataset's builder and validates the
// result. A builder that produces violations is a bug or a corrupt dataset;
// either way nothing is returned.
func Build(ctx context.Context, name, mode, root string, opts BuildOptions) (*index.Index, error) {
	ds, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	if !hasMode(ds, mode) {
		return nil, fmt.Errorf("%w %q for %s (valid: %s)", ErrUnknownMode, mode, name, strings.Join(ds.Modes(), ", "))
	}

	start := time.Now()
	x, err := ds.BuildIndex(ctx, root, mode, opts)
	if err != nil {
		return nil, fmt.Errorf("cannot build %s (%s): %w", name, mode, err)
	}
	if x.ID == "" {
		x.ID = RootDirName(ds, mode)
	}
	if x.Version == "" {
		x.Version = ds.Info().Version
	}
	if vs := index.Validate(x); len(vs) > 0 {
		return nil, fmt.Errorf("built %s catalog is invalid: %w", name, vs.Err())
	}

	logging.Info().
		Str("dataset", name).
		Str("mode", mode).
		Int("entries", len(x.Entries)).
		Dur("took", time.Since(start)).
		Msg("catalog built")
	return x, nil
}

func hasMode(ds Dataset, mode string) bool {
	for _, m := range ds.Modes() {
		if m == mode {
			return true
		}
	}
	return false
}
