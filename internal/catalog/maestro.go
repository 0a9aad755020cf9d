package catalog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/resolv-libs/resolv-data/internal/index"
)

const maestroDescription = "MAESTRO (MIDI and Audio Edited for Synchronous TRacks and Organization) is a " +
	"dataset composed of over 200 hours of virtuosic piano performances captured " +
	"with fine alignment (~3 ms) between note labels and audio waveforms."

const maestroCitation = `@inproceedings{hawthorne2018enabling,
  title={Enabling Factorized Piano Music Modeling and Generation with the {MAESTRO} Dataset},
  author={Curtis Hawthorne and Andriy Stasyuk and Adam Roberts and Ian Simon and Cheng-Zhi Anna Huang and Sander Dieleman and Erich Elsen and Jesse Engel and Douglas Eck},
  booktitle={Proceedings of the 7th International Conference on Learning Representations (ICLR)},
  year=2019,
  url={https://openreview.net/forum?id=r1lYRjC9F7}
}`

var maestroSHA256 = map[string]map[string]string{
	"1.0.0": {
		"full": "97471232457147d5bffa72db8c4897166ba52afd4a64197004b806c2ec85ad27",
		"midi": "f620f9e1eceaab8beea10617599add2e9c83234199b550382a2f603098ae7135",
	},
	"2.0.0": {
		"full": "572c6054e8d2c7219aa4df9a29357da0f9789524c11fa38cef7d4bd8542c93f0",
		"midi": "ec2cc9d94886c6b376db1eaa2b8ad1ce62ff9f0a28b3744782b13163295dadf3",
	},
	"3.0.0": {
		"full": "6680fea5be2339ea15091a249fbd70e49551246ddbd5ca50f1b2352c08c95291",
		"midi": "70470ee253295c8d2c71e6d9d4a815189e35c89624b76d22fce5a019d5dde12c",
	},
}

// maestroLayout is the shape of the maestro-v<version>.json metadata file.
type maestroLayout int

const (
	// rowLayout is a list of track objects (v1, v2).
	rowLayout maestroLayout = iota
	// columnLayout maps each field to a {"<row>": value} object (v3).
	columnLayout
)

type maestro struct {
	version string
	layout  maestroLayout
}

type maestroTrack struct {
	Composer      string  `json:"canonical_composer"`
	Title         string  `json:"canonical_title"`
	Split         string  `json:"split"`
	Year          int32   `json:"year"`
	MIDIFilename  string  `json:"midi_filename"`
	AudioFilename string  `json:"audio_filename"`
	Duration      float64 `json:"duration"`
}

type maestroColumns struct {
	Composer      map[string]string  `json:"canonical_composer"`
	Title         map[string]string  `json:"canonical_title"`
	Split         map[string]string  `json:"split"`
	Year          map[string]int32   `json:"year"`
	MIDIFilename  map[string]string  `json:"midi_filename"`
	AudioFilename map[string]string  `json:"audio_filename"`
	Duration      map[string]float64 `json:"duration"`
}

func (m maestro) Info() Info {
	return Info{
		Name:        "MAESTRO",
		Version:     m.version,
		Description: maestroDescription,
		Homepage:    "https://magenta.tensorflow.org/datasets/maestro",
		License:     "Creative Commons Attribution Non-Commercial Share-Alike 4.0 (CC BY-NC-SA 4.0).",
		Citation:    maestroCitation,
	}
}

func (m maestro) Modes() []string { return []string{"full", "midi"} }

func (m maestro) Sources(mode string) []RemoteSource {
	sum, ok := maestroSHA256[m.version][mode]
	if !ok {
		return nil
	}
	name := "maestro-v" + m.version
	if mode == "midi" {
		name += "-midi"
	}
	name += ".zip"
	return []RemoteSource{{
		Filename: name,
		URL:      fmt.Sprintf("https://storage.googleapis.com/magentadata/datasets/maestro/v%s/%s", m.version, name),
		SHA256:   sum,
		Archive:  true,
	}}
}

func (m maestro) metadataPath(root string) string {
	return filepath.Join(root, "maestro-v"+m.version+".json")
}

func (m maestro) BuildIndex(ctx context.Context, root, mode string, opts BuildOptions) (*index.Index, error) {
	b, err := os.ReadFile(m.metadataPath(root))
	if err != nil {
		return nil, fmt.Errorf("cannot read metadata: %w", err)
	}
	tracks, err := m.parseTracks(b)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata %s: %w", m.metadataPath(root), err)
	}

	var rels []string
	for i, t := range tracks {
		rels = append(rels, t.MIDIFilename)
		if mode == "full" {
			if t.AudioFilename == "" {
				return nil, fmt.Errorf("track %d has no audio_filename", i)
			}
			rels = append(rels, t.AudioFilename)
		}
	}
	sums, err := hashFiles(ctx, root, rels, opts.Workers)
	if err != nil {
		return nil, err
	}

	x := &index.Index{Version: m.version}
	for _, t := range tracks {
		id, _, _ := strings.Cut(t.MIDIFilename, ".")
		e := index.Entry{
			ID: id,
			Metadata: &index.MusicTrackMetadata{
				Composer: t.Composer,
				Title:    t.Title,
				Year:     t.Year,
				Duration: t.Duration,
			},
			Split: t.Split,
		}
		e.SetFile("midi", entryFile(root, opts, sums, t.MIDIFilename))
		if mode == "full" {
			e.SetFile("audio", entryFile(root, opts, sums, t.AudioFilename))
		}
		x.Entries = append(x.Entries, e)
	}
	return x, nil
}

func (m maestro) parseTracks(b []byte) ([]maestroTrack, error) {
	if m.layout == rowLayout {
		var tracks []maestroTrack
		if err := jsoniter.Unmarshal(b, &tracks); err != nil {
			return nil, err
		}
		return tracks, checkTracks(tracks)
	}

	var cols maestroColumns
	if err := jsoniter.Unmarshal(b, &cols); err != nil {
		return nil, err
	}
	type row struct {
		key string
		n   int
	}
	rows := make([]row, 0, len(cols.MIDIFilename))
	for k := range cols.MIDIFilename {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("row key %q is not a number", k)
		}
		rows = append(rows, row{k, n})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].n < rows[j].n })

	tracks := make([]maestroTrack, 0, len(rows))
	for _, r := range rows {
		k := r.key
		tracks = append(tracks, maestroTrack{
			Composer:      cols.Composer[k],
			Title:         cols.Title[k],
			Split:         cols.Split[k],
			Year:          cols.Year[k],
			MIDIFilename:  cols.MIDIFilename[k],
			AudioFilename: cols.AudioFilename[k],
			Duration:      cols.Duration[k],
		})
	}
	return tracks, checkTracks(tracks)
}

func checkTracks(tracks []maestroTrack) error {
	for i, t := range tracks {
		if t.MIDIFilename == "" {
			return fmt.Errorf("track %d has no midi_filename", i)
		}
	}
	return nil
}
