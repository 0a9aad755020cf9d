package store

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/encoding/protowire"

	"github.com/resolv-libs/resolv-data/internal/index"
)

func sample() *index.Index {
	return &index.Index{
		ID:      "lakh-midi",
		Version: "1.0",
		Entries: []index.Entry{{
			ID:       "e1",
			Split:    "train",
			Metadata: &index.MusicTrackMetadata{Composer: "Bach", Title: "BWV 846", Year: 1722, Duration: 240.5, Release: "LP"},
			Files: []index.NamedFile{{Key: "midi", File: index.EntryFile{
				Path:        "/data/e1.mid",
				MD5Checksum: "d41d8cd98f00b204e9800998ecf8427e",
				Attributes:  &index.SymbolicMusicFileAttributes{MatchScore: 0.9},
			}}},
		}},
	}
}

func TestFormatFor(t *testing.T) {
	cases := map[string]Format{
		"index.bin":      Binary,
		"index":          Binary,
		"index.pb":       Binary,
		"index.json":     JSON,
		"INDEX.JSON":     JSON,
		"index.bin.zst":  Zstd,
		"index.pb.zstd":  Zstd,
		"dir.json/index": Binary,
	}
	for path, want := range cases {
		require.Equal(t, want, FormatFor(path), path)
	}
}

func TestWriteLoad_AllFormats(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"index.bin", "index.json", "index.bin.zst"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, "nested", name)
			res, err := Write(context.Background(), path, sample(), WriteOptions{})
			require.NoError(t, err)
			require.False(t, res.Unchanged)
			require.Equal(t, Fingerprint(sample()), res.Fingerprint)

			got, err := Load(path)
			require.NoError(t, err)
			if diff := cmp.Diff(sample(), got, cmpopts.EquateEmpty()); diff != "" {
				t.Fatalf("catalog mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMarshal_ZstdIsCompressedBinary(t *testing.T) {
	b, err := Marshal(sample(), Zstd)
	require.NoError(t, err)
	require.NotEqual(t, index.Encode(sample()), b)

	x, err := Read(bytes.NewReader(b), Zstd)
	require.NoError(t, err)
	require.Equal(t, Fingerprint(sample()), Fingerprint(x))
}

func TestWrite_IdenticalIsNoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	_, err := Write(context.Background(), path, sample(), WriteOptions{})
	require.NoError(t, err)
	before, err := os.Stat(path)
	require.NoError(t, err)

	res, err := Write(context.Background(), path, sample(), WriteOptions{})
	require.NoError(t, err)
	require.True(t, res.Unchanged)
	after, err := os.Stat(path)
	require.NoError(t, err)
	require.Equal(t, before.ModTime(), after.ModTime())
}

func TestWrite_RequiresVersionBump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	_, err := Write(context.Background(), path, sample(), WriteOptions{})
	require.NoError(t, err)

	changed := sample()
	changed.Entries[0].Split = "test"
	_, err = Write(context.Background(), path, changed, WriteOptions{})
	require.ErrorIs(t, err, ErrVersionNotBumped)

	got, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "train", got.Entries[0].Split)

	_, err = Write(context.Background(), path, changed, WriteOptions{Force: true})
	require.NoError(t, err)

	changed.Version = "1.1"
	changed.Entries[0].Split = "validation"
	_, err = Write(context.Background(), path, changed, WriteOptions{})
	require.NoError(t, err)
	got, err = Load(path)
	require.NoError(t, err)
	require.Equal(t, "1.1", got.Version)
	require.Equal(t, "validation", got.Entries[0].Split)
}

func TestWrite_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	x := sample()
	x.Entries[0].Files = append(x.Entries[0].Files, index.NamedFile{Key: "midi"})
	_, err := Write(context.Background(), path, x, WriteOptions{})
	require.ErrorIs(t, err, ErrInvalidIndex)
	require.Contains(t, err.Error(), "midi")
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestWrite_RejectsInvalidUTF8(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	x := sample()
	x.Entries[0].ID = "e\xff1"
	_, err := Write(context.Background(), path, x, WriteOptions{})
	require.ErrorIs(t, err, ErrInvalidIndex)
	require.Contains(t, err.Error(), string(index.InvalidUTF8))
	_, err = os.Stat(path)
	require.True(t, os.IsNotExist(err))
}

func TestWrite_JSONDropsUnknownFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.json")
	x := sample()
	x.Entries[0].UnknownFields = protowire.AppendString(protowire.AppendTag(nil, 50, protowire.BytesType), "extra")

	first, err := Write(context.Background(), path, x, WriteOptions{})
	require.NoError(t, err)
	require.False(t, first.Unchanged)
	require.NotEqual(t, Fingerprint(x), first.Fingerprint)

	// The stored catalog lacks the unknown field; writing x again is still
	// the same catalog, not a new one under the same version.
	again, err := Write(context.Background(), path, x, WriteOptions{})
	require.NoError(t, err)
	require.True(t, again.Unchanged)
	require.Equal(t, first.Fingerprint, again.Fingerprint)

	got, err := Load(path)
	require.NoError(t, err)
	require.False(t, got.HasUnknownFields())
	require.Equal(t, first.Fingerprint, Fingerprint(got))
}

func TestWrite_UnreadableExisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xff}, 0o644))

	_, err := Write(context.Background(), path, sample(), WriteOptions{})
	require.ErrorIs(t, err, index.ErrMalformedInput)

	_, err = Write(context.Background(), path, sample(), WriteOptions{Force: true})
	require.NoError(t, err)
	_, err = Load(path)
	require.NoError(t, err)
}

func TestWrite_Locked(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.bin")
	l := flock.New(path + ".lock")
	locked, err := l.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = l.Unlock() }()

	_, err = Write(context.Background(), path, sample(), WriteOptions{LockTimeout: 300 * time.Millisecond})
	require.ErrorIs(t, err, ErrLocked)
}

func TestWrite_LeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	_, err := Write(context.Background(), filepath.Join(dir, "index.bin.zst"), sample(), WriteOptions{})
	require.NoError(t, err)
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	require.ElementsMatch(t, []string{"index.bin.zst", "index.bin.zst.lock"}, names)
}

func TestLoad_Missing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.bin"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint(sample())
	require.Len(t, a, 16)
	require.Equal(t, a, Fingerprint(sample().Clone()))

	other := sample()
	other.Version = "1.1"
	require.NotEqual(t, a, Fingerprint(other))
}
