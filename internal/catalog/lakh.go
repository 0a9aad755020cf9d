package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/resolv-libs/resolv-data/internal/index"
)

const lakhDescription = "The Lakh MIDI dataset is a collection of 176,581 unique MIDI files, 45,129 of " +
	"which have been matched and aligned to entries in the Million Song Dataset. " +
	"Its goal is to facilitate large-scale music information retrieval, both " +
	"symbolic (using the MIDI files alone) and audio content-based (using " +
	"information extracted from the MIDI files as annotations for the matched " +
	"audio files)."

const lakhCitation = `@phdthesis{raffel2016learning,
  author={Colin Raffel},
  title={Learning-Based Methods for Comparing Sequences, with Applications to Audio-to-{MIDI} Alignment and Matching},
  year=2016
}`

const lakhBaseURL = "http://hog.ee.columbia.edu/craffel/lmd/"

var lakhMatchScores = RemoteSource{
	Filename: "match_scores.json",
	URL:      lakhBaseURL + "match_scores.json",
	SHA256:   "267bc606dfa21f0ad0601a4a080972cd4ae8088fe4003b9bb2811b5be060a102",
}

var lakhSources = map[string][]RemoteSource{
	"full": {
		{Filename: "lmd_full.tar.gz", URL: lakhBaseURL + "lmd_full.tar.gz", SHA256: "6fcfe2ac49ca08f3f214cec86ab138d4fc4dabcd7f27f491a838dae6db45a12b", Archive: true},
		{Filename: "md5_to_paths.json", URL: lakhBaseURL + "md5_to_paths.json", SHA256: "9002b7723f3edeca779e91688802fdd283b8df0c278162a4040f95bde5895805"},
	},
	"matched": {
		{Filename: "lmd_matched.tar.gz", URL: lakhBaseURL + "lmd_matched.tar.gz", SHA256: "621ff830aed771f469e5bfa13dc12a33c6ed69090adeda63d0b5c47783af0191", Archive: true},
		lakhMatchScores,
	},
	"aligned": {
		{Filename: "lmd_aligned.tar.gz", URL: lakhBaseURL + "lmd_aligned.tar.gz", SHA256: "2bf5400e82eba73204644946515489b68811e1e656b0cfd854efc14377f6e53b", Archive: true},
		lakhMatchScores,
	},
	"clean": {
		{Filename: "lmd_clean_midi.tar.gz", URL: lakhBaseURL + "clean_midi.tar.gz", SHA256: "de1bb64cbc0cf35545a05b5c3e786aa6890cfa144edffc4b827ff41bf8c33dc5", Archive: true},
	},
}

var lowerID = cases.Lower(language.Und)

type lakhMIDI struct{}

func (lakhMIDI) Info() Info {
	return Info{
		Name:        "Lakh MIDI",
		Version:     "1.0.0",
		Description: lakhDescription,
		Homepage:    "https://colinraffel.com/projects/lmd/",
		License:     "Creative Commons Attribution 4.0 International License (CC-By 4.0)",
		Citation:    lakhCitation,
	}
}

func (lakhMIDI) Modes() []string { return []string{"full", "matched", "aligned", "clean"} }

func (lakhMIDI) Sources(mode string) []RemoteSource { return lakhSources[mode] }

func (l lakhMIDI) BuildIndex(ctx context.Context, root, mode string, opts BuildOptions) (*index.Index, error) {
	midis, err := findFiles(root, ".mid")
	if err != nil {
		return nil, err
	}
	sums, err := hashFiles(ctx, root, midis, opts.Workers)
	if err != nil {
		return nil, err
	}

	var build func(rel string) (index.Entry, error)
	switch mode {
	case "full":
		var md5ToPaths map[string][]string
		if err := readJSON(filepath.Join(root, "md5_to_paths.json"), &md5ToPaths); err != nil {
			return nil, err
		}
		build = func(rel string) (index.Entry, error) {
			paths := md5ToPaths[stem(rel)]
			if len(paths) == 0 {
				return index.Entry{}, fmt.Errorf("%s is not listed in md5_to_paths.json", rel)
			}
			return index.Entry{ID: paths[0]}, nil
		}
	case "clean":
		build = func(rel string) (index.Entry, error) {
			artist, file := parentName(rel), filepath.Base(filepath.FromSlash(rel))
			return index.Entry{
				ID:       cleanID(artist) + "/" + cleanID(file),
				Metadata: &index.MusicTrackMetadata{Composer: artist, Title: stem(rel)},
			}, nil
		}
	default:
		// matched and aligned: <A>/<B>/<C>/<MSD id>/<midi md5>.mid
		var scores map[string]map[string]float64
		if err := readJSON(filepath.Join(root, "match_scores.json"), &scores); err != nil {
			return nil, err
		}
		build = func(rel string) (index.Entry, error) {
			msdID, midiID := parentName(rel), stem(rel)
			score, ok := scores[msdID][midiID]
			if !ok {
				return index.Entry{}, fmt.Errorf("no match score for %s/%s", msdID, midiID)
			}
			e := index.Entry{ID: msdID + "/" + midiID}
			f := entryFile(root, opts, sums, rel)
			f.Attributes = &index.SymbolicMusicFileAttributes{MatchScore: score}
			e.SetFile("midi", f)
			return e, nil
		}
	}

	x := &index.Index{}
	for _, rel := range midis {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		e, err := build(rel)
		if err != nil {
			return nil, err
		}
		if len(e.Files) == 0 {
			e.SetFile("midi", entryFile(root, opts, sums, rel))
		}
		x.Entries = append(x.Entries, e)
	}
	return x, nil
}

// cleanID normalises an artist or file name of the clean_midi tree.
func cleanID(s string) string {
	return lowerID.String(strings.ReplaceAll(s, " ", "_"))
}

func readJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read %s: %w", filepath.Base(path), err)
	}
	if err := jsoniter.Unmarshal(b, v); err != nil {
		return fmt.Errorf("invalid %s: %w", filepath.Base(path), err)
	}
	return nil
}
