package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/resolv-libs/resolv-data/internal/checksum"
	"github.com/resolv-libs/resolv-data/internal/index"
)

func put(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
}

func md5Of(t *testing.T, root, rel string) string {
	t.Helper()
	sum, err := checksum.FileMD5(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return sum
}

func TestNamesAndLookup(t *testing.T) {
	require.Equal(t, []string{"jsb-chorales-v1", "lakh-midi-v1", "maestro-v1", "maestro-v2", "maestro-v3"}, Names())

	_, err := Lookup("maestro-v9")
	require.ErrorIs(t, err, ErrUnknownDataset)

	_, err = Build(context.Background(), "maestro-v3", "audio-only", t.TempDir(), BuildOptions{})
	require.ErrorIs(t, err, ErrUnknownMode)
}

func TestRootDirName(t *testing.T) {
	cases := map[string]struct {
		dataset, mode string
	}{
		"maestro-v3.0.0-midi":      {"maestro-v3", "midi"},
		"maestro-v1.0.0-full":      {"maestro-v1", "full"},
		"lakh_midi-v1.0.0-clean":   {"lakh-midi-v1", "clean"},
		"jsb_chorales-v1.0.0-full": {"jsb-chorales-v1", "full"},
	}
	for want, c := range cases {
		ds, err := Lookup(c.dataset)
		require.NoError(t, err)
		require.Equal(t, want, RootDirName(ds, c.mode))
	}
}

func TestSources(t *testing.T) {
	for _, name := range Names() {
		ds := Registry[name]
		for _, mode := range ds.Modes() {
			srcs := ds.Sources(mode)
			require.NotEmpty(t, srcs, "%s %s", name, mode)
			for _, s := range srcs {
				require.Len(t, s.SHA256, 64)
				require.NotEmpty(t, s.URL)
			}
		}
	}
	require.Equal(t, "maestro-v2.0.0-midi.zip", Registry["maestro-v2"].Sources("midi")[0].Filename)
}

const maestroRows = `[
  {"canonical_composer": "Alban Berg", "canonical_title": "Sonata Op. 1", "split": "train", "year": 2018,
   "midi_filename": "2018/track1.midi", "audio_filename": "2018/track1.wav", "duration": 698.66},
  {"canonical_composer": "Frédéric Chopin", "canonical_title": "Ballade No. 1", "split": "test", "year": 2017,
   "midi_filename": "2017/track2.midi", "audio_filename": "2017/track2.wav", "duration": 540.25}
]`

const maestroColumnsJSON = `{
  "canonical_composer": {"0": "Alban Berg", "1": "Frédéric Chopin", "10": "Franz Liszt"},
  "canonical_title": {"0": "Sonata Op. 1", "1": "Ballade No. 1", "10": "Mephisto Waltz"},
  "split": {"0": "train", "1": "test", "10": "validation"},
  "year": {"0": 2018, "1": 2017, "10": 2015},
  "midi_filename": {"0": "2018/track1.midi", "1": "2017/track2.midi", "10": "2015/track3.midi"},
  "audio_filename": {"0": "2018/track1.wav", "1": "2017/track2.wav", "10": "2015/track3.wav"},
  "duration": {"0": 698.66, "1": 540.25, "10": 612.5}
}`

func TestMaestro_RowLayout(t *testing.T) {
	root := t.TempDir()
	put(t, root, "maestro-v2.0.0.json", maestroRows)
	for _, rel := range []string{"2018/track1.midi", "2018/track1.wav", "2017/track2.midi", "2017/track2.wav"} {
		put(t, root, rel, rel)
	}

	x, err := Build(context.Background(), "maestro-v2", "full", root, BuildOptions{PathPrefix: "/datasets/maestro/"})
	require.NoError(t, err)
	require.Equal(t, "maestro-v2.0.0-full", x.ID)
	require.Equal(t, "2.0.0", x.Version)
	require.Len(t, x.Entries, 2)

	e := x.Entries[0]
	require.Equal(t, "2018/track1", e.ID)
	require.Equal(t, "train", e.Split)
	require.Equal(t, &index.MusicTrackMetadata{Composer: "Alban Berg", Title: "Sonata Op. 1", Year: 2018, Duration: 698.66}, e.Metadata)
	midi, ok := e.File("midi")
	require.True(t, ok)
	require.Equal(t, "/datasets/maestro/2018/track1.midi", midi.Path)
	require.Equal(t, md5Of(t, root, "2018/track1.midi"), midi.MD5Checksum)
	audio, ok := e.File("audio")
	require.True(t, ok)
	require.Equal(t, md5Of(t, root, "2018/track1.wav"), audio.MD5Checksum)
}

func TestMaestro_ColumnLayoutMidiMode(t *testing.T) {
	root := t.TempDir()
	put(t, root, "maestro-v3.0.0.json", maestroColumnsJSON)
	for _, rel := range []string{"2018/track1.midi", "2017/track2.midi", "2015/track3.midi"} {
		put(t, root, rel, rel)
	}

	x, err := Build(context.Background(), "maestro-v3", "midi", root, BuildOptions{Workers: 1})
	require.NoError(t, err)
	require.Equal(t, "maestro-v3.0.0-midi", x.ID)

	var ids []string
	for _, e := range x.Entries {
		ids = append(ids, e.ID)
		require.Len(t, e.Files, 1, "midi mode records no audio")
	}
	require.Equal(t, []string{"2018/track1", "2017/track2", "2015/track3"}, ids)
	require.Equal(t, "validation", x.Entries[2].Split)

	midi, _ := x.Entries[1].File("midi")
	require.Equal(t, filepath.ToSlash(root)+"/2017/track2.midi", midi.Path)
}

func TestMaestro_MissingFile(t *testing.T) {
	root := t.TempDir()
	put(t, root, "maestro-v1.0.0.json", maestroRows)
	put(t, root, "2018/track1.midi", "x")

	_, err := Build(context.Background(), "maestro-v1", "midi", root, BuildOptions{})
	require.Error(t, err)
	require.Contains(t, err.Error(), "2017/track2.midi")
}

func TestMaestro_MissingMetadata(t *testing.T) {
	_, err := Build(context.Background(), "maestro-v1", "midi", t.TempDir(), BuildOptions{})
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestLakh_Full(t *testing.T) {
	root := t.TempDir()
	put(t, root, "lmd_full/0/0a1b.mid", "one")
	put(t, root, "lmd_full/f/f9e8.mid", "two")
	put(t, root, "md5_to_paths.json", `{"0a1b": ["Artist/Song.mid", "Other/Song.mid"], "f9e8": ["X/Y.mid"]}`)

	x, err := Build(context.Background(), "lakh-midi-v1", "full", root, BuildOptions{})
	require.NoError(t, err)
	require.Equal(t, "lakh_midi-v1.0.0-full", x.ID)
	require.Equal(t, "1.0.0", x.Version)
	require.Len(t, x.Entries, 2)
	require.Equal(t, "Artist/Song.mid", x.Entries[0].ID)
	require.Equal(t, "X/Y.mid", x.Entries[1].ID)
	require.Nil(t, x.Entries[0].Metadata)
	f, ok := x.Entries[1].File("midi")
	require.True(t, ok)
	require.Equal(t, md5Of(t, root, "lmd_full/f/f9e8.mid"), f.MD5Checksum)
}

func TestLakh_FullUnlisted(t *testing.T) {
	root := t.TempDir()
	put(t, root, "lmd_full/0/0a1b.mid", "one")
	put(t, root, "md5_to_paths.json", `{}`)
	_, err := Build(context.Background(), "lakh-midi-v1", "full", root, BuildOptions{})
	require.ErrorContains(t, err, "md5_to_paths.json")
}

func TestLakh_Clean(t *testing.T) {
	root := t.TempDir()
	put(t, root, "Daft Punk/One More Time.mid", "a")
	put(t, root, "Daft Punk/One More Time.1.mid", "b")

	x, err := Build(context.Background(), "lakh-midi-v1", "clean", root, BuildOptions{})
	require.NoError(t, err)
	require.Len(t, x.Entries, 2)
	require.Equal(t, "daft_punk/one_more_time.1.mid", x.Entries[0].ID)
	require.Equal(t, "daft_punk/one_more_time.mid", x.Entries[1].ID)
	m, ok := x.Entries[1].MusicMetadata()
	require.True(t, ok)
	require.Equal(t, "Daft Punk", m.Composer)
	require.Equal(t, "One More Time", m.Title)
}

func TestLakh_Matched(t *testing.T) {
	root := t.TempDir()
	put(t, root, "lmd_matched/A/A/A/TRAAAGR128F425B14B/1d9d16a9da90c090809c153754823c2b.mid", "a")
	put(t, root, "lmd_matched/A/A/A/TRAAAGR128F425B14B/5dd29e99ed7bd3cc0c5177a6e9de22ea.mid", "b")
	put(t, root, "match_scores.json", `{"TRAAAGR128F425B14B": {
		"1d9d16a9da90c090809c153754823c2b": 0.7329,
		"5dd29e99ed7bd3cc0c5177a6e9de22ea": 0.6412}}`)

	for _, mode := range []string{"matched", "aligned"} {
		x, err := Build(context.Background(), "lakh-midi-v1", mode, root, BuildOptions{})
		require.NoError(t, err)
		require.Len(t, x.Entries, 2)
		e := x.Entries[0]
		require.Equal(t, "TRAAAGR128F425B14B/1d9d16a9da90c090809c153754823c2b", e.ID)
		f, ok := e.File("midi")
		require.True(t, ok)
		attrs, ok := f.SymbolicMusic()
		require.True(t, ok)
		require.Equal(t, 0.7329, attrs.MatchScore)
	}
}

func TestLakh_MatchedMissingScore(t *testing.T) {
	root := t.TempDir()
	put(t, root, "lmd_matched/A/A/A/TRAAAGR128F425B14B/abc.mid", "a")
	put(t, root, "match_scores.json", `{}`)
	_, err := Build(context.Background(), "lakh-midi-v1", "matched", root, BuildOptions{})
	require.ErrorContains(t, err, "no match score")
}

func TestJSBChorales(t *testing.T) {
	root := t.TempDir()
	put(t, root, "train/bwv1.6.mxl", "a")
	put(t, root, "test/bwv10.7.mxml", "b")
	put(t, root, "README.txt", "ignored")

	x, err := Build(context.Background(), "jsb-chorales-v1", "full", root, BuildOptions{PathPrefix: "s3://bucket/jsb"})
	require.NoError(t, err)
	require.Equal(t, "jsb_chorales-v1.0.0-full", x.ID)
	require.Len(t, x.Entries, 2)
	require.Equal(t, "bwv10.7", x.Entries[0].ID)
	f, ok := x.Entries[0].File("mxml")
	require.True(t, ok)
	require.Equal(t, "s3://bucket/jsb/test/bwv10.7.mxml", f.Path)
	require.Empty(t, index.Validate(x))
}

func TestBuild_RejectsInvalidCatalog(t *testing.T) {
	root := t.TempDir()
	// Two chorales with the same stem produce the same entry id.
	put(t, root, "a/bwv1.mxl", "a")
	put(t, root, "b/bwv1.mxml", "b")
	_, err := Build(context.Background(), "jsb-chorales-v1", "full", root, BuildOptions{})
	require.ErrorContains(t, err, string(index.DuplicateEntryID))
}

func TestBuild_RejectsNonUTF8Names(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "Art\xffist")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Skipf("filesystem rejects non UTF-8 names: %v", err)
	}
	put(t, root, "Art\xffist/Song.mid", "a")
	_, err := Build(context.Background(), "lakh-midi-v1", "clean", root, BuildOptions{})
	require.ErrorContains(t, err, string(index.InvalidUTF8))
}

func TestBuild_Cancelled(t *testing.T) {
	root := t.TempDir()
	put(t, root, "a/bwv1.mxl", "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Build(ctx, "jsb-chorales-v1", "full", root, BuildOptions{})
	require.ErrorIs(t, err, context.Canceled)
}
