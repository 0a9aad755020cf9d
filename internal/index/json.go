package index

import (
	"errors"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"
	"google.golang.org/protobuf/encoding/protowire"
)

// JSON rendering follows the protobuf JSON mapping (lowerCamelCase names, the
// files map as an object) so catalogs stay readable by protobuf tooling.
// Unknown fields have no JSON form and are dropped; unknown variants are kept.

var jsonAPI = jsoniter.ConfigCompatibleWithStandardLibrary

type jsonIndex struct {
	ID      string      `json:"id,omitempty"`
	Version string      `json:"version,omitempty"`
	Entries []jsonEntry `json:"entries,omitempty"`
}

type jsonEntry struct {
	ID              string              `json:"id,omitempty"`
	MusicMetadata   *jsonMusicMetadata  `json:"musicMetadata,omitempty"`
	UnknownMetadata *jsonUnknownVariant `json:"unknownMetadata,omitempty"`
	Files           jsoniter.RawMessage `json:"files,omitempty"`
	Split           string              `json:"split,omitempty"`
}

type jsonMusicMetadata struct {
	Composer string  `json:"composer,omitempty"`
	Title    string  `json:"title,omitempty"`
	Year     int32   `json:"year,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Release  string  `json:"release,omitempty"`
}

type jsonEntryFile struct {
	Path                    string                  `json:"path,omitempty"`
	MD5Checksum             string                  `json:"md5Checksum,omitempty"`
	SymbolicMusicAttributes *jsonSymbolicAttributes `json:"symbolicMusicAttributes,omitempty"`
	UnknownAttributes       *jsonUnknownVariant     `json:"unknownAttributes,omitempty"`
}

type jsonSymbolicAttributes struct {
	MatchScore float64 `json:"matchScore,omitempty"`
}

type jsonUnknownVariant struct {
	Tag int32  `json:"tag"`
	Raw []byte `json:"raw,omitempty"`
}

// EncodeJSON renders x as compact JSON.
func EncodeJSON(x *Index) ([]byte, error) {
	return encodeJSON(jsonAPI, x)
}

// EncodeJSONIndent renders x as JSON indented with two spaces.
func EncodeJSONIndent(x *Index) ([]byte, error) {
	api := jsoniter.Config{
		EscapeHTML:             true,
		SortMapKeys:            true,
		ValidateJsonRawMessage: true,
		IndentionStep:          2,
	}.Froze()
	return encodeJSON(api, x)
}

func encodeJSON(api jsoniter.API, x *Index) ([]byte, error) {
	if x == nil {
		return api.Marshal(jsonIndex{})
	}
	out := jsonIndex{ID: x.ID, Version: x.Version}
	for i := range x.Entries {
		je, err := toJSONEntry(api, &x.Entries[i])
		if err != nil {
			return nil, err
		}
		out.Entries = append(out.Entries, je)
	}
	return api.Marshal(out)
}

func toJSONEntry(api jsoniter.API, e *Entry) (jsonEntry, error) {
	je := jsonEntry{ID: e.ID, Split: e.Split}
	switch m := e.Metadata.(type) {
	case *MusicTrackMetadata:
		if m != nil {
			je.MusicMetadata = &jsonMusicMetadata{
				Composer: m.Composer,
				Title:    m.Title,
				Year:     m.Year,
				Duration: m.Duration,
				Release:  m.Release,
			}
		}
	case *UnknownMetadata:
		if m != nil {
			je.UnknownMetadata = &jsonUnknownVariant{Tag: int32(m.Tag), Raw: m.Raw}
		}
	}
	if len(e.Files) == 0 {
		return je, nil
	}

	// The files object is streamed by hand to keep the entry's key order.
	stream := api.BorrowStream(nil)
	defer api.ReturnStream(stream)
	stream.WriteObjectStart()
	for i := range e.Files {
		if i > 0 {
			stream.WriteMore()
		}
		stream.WriteObjectField(e.Files[i].Key)
		stream.WriteVal(toJSONFile(&e.Files[i].File))
	}
	stream.WriteObjectEnd()
	if stream.Error != nil {
		return jsonEntry{}, fmt.Errorf("cannot render files of entry %q: %w", e.ID, stream.Error)
	}
	je.Files = append(jsoniter.RawMessage(nil), stream.Buffer()...)
	return je, nil
}

func toJSONFile(f *EntryFile) jsonEntryFile {
	jf := jsonEntryFile{Path: f.Path, MD5Checksum: f.MD5Checksum}
	switch a := f.Attributes.(type) {
	case *SymbolicMusicFileAttributes:
		if a != nil {
			jf.SymbolicMusicAttributes = &jsonSymbolicAttributes{MatchScore: a.MatchScore}
		}
	case *UnknownAttributes:
		if a != nil {
			jf.UnknownAttributes = &jsonUnknownVariant{Tag: int32(a.Tag), Raw: a.Raw}
		}
	}
	return jf
}

// DecodeJSON parses the JSON rendering of an index. It enforces the same
// rules as Decode: at most one variant per oneof, unique file keys, and the
// schema revision limit of the zero Decoder.
func DecodeJSON(b []byte) (*Index, error) {
	var ji jsonIndex
	if err := jsonAPI.Unmarshal(b, &ji); err != nil {
		return nil, &DecodeError{Kind: MalformedInput, Offset: -1, Field: "Index", Err: err}
	}
	x := &Index{ID: ji.ID, Version: ji.Version}
	for i := range ji.Entries {
		e, err := fromJSONEntry(&ji.Entries[i])
		if err != nil {
			return nil, err
		}
		x.Entries = append(x.Entries, e)
	}
	rev, err := VersionSchema(x.Version)
	if err != nil {
		return nil, &DecodeError{Kind: UnsupportedVersion, Offset: -1, Field: "Index.version", Err: err}
	}
	if rev > SchemaRevision {
		return nil, &DecodeError{
			Kind:   UnsupportedVersion,
			Offset: -1,
			Field:  "Index.version",
			Err:    fmt.Errorf("version %q uses schema revision %d, this reader understands up to %d", x.Version, rev, SchemaRevision),
		}
	}
	return x, nil
}

func fromJSONEntry(je *jsonEntry) (Entry, error) {
	e := Entry{ID: je.ID, Split: je.Split}
	if je.MusicMetadata != nil && je.UnknownMetadata != nil {
		return Entry{}, jsonMalformed("Entry.metadata", fmt.Errorf("entry %q sets more than one metadata variant", je.ID))
	}
	if m := je.MusicMetadata; m != nil {
		e.Metadata = &MusicTrackMetadata{
			Composer: m.Composer,
			Title:    m.Title,
			Year:     m.Year,
			Duration: m.Duration,
			Release:  m.Release,
		}
	}
	if u := je.UnknownMetadata; u != nil {
		e.Metadata = &UnknownMetadata{Tag: protowire.Number(u.Tag), Raw: u.Raw}
	}
	files, err := decodeJSONFiles(je.Files, je.ID)
	if err != nil {
		return Entry{}, err
	}
	e.Files = files
	return e, nil
}

// decodeJSONFiles walks the files object key by key; decoding it into a Go
// map would silently keep only the last of two equal keys.
func decodeJSONFiles(raw jsoniter.RawMessage, entryID string) ([]NamedFile, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	it := jsonAPI.BorrowIterator(raw)
	defer jsonAPI.ReturnIterator(it)
	if it.WhatIsNext() == jsoniter.NilValue {
		return nil, nil
	}

	var (
		out     []NamedFile
		problem error
	)
	seen := map[string]bool{}
	it.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
		if seen[key] {
			problem = fmt.Errorf("%w %q in entry %q", ErrDuplicateFileKey, key, entryID)
			return false
		}
		seen[key] = true
		var jf jsonEntryFile
		it.ReadVal(&jf)
		if it.Error != nil {
			return false
		}
		if jf.SymbolicMusicAttributes != nil && jf.UnknownAttributes != nil {
			problem = fmt.Errorf("file %q in entry %q sets more than one attributes variant", key, entryID)
			return false
		}
		out = append(out, NamedFile{Key: key, File: fromJSONFile(&jf)})
		return true
	})
	if problem != nil {
		return nil, jsonMalformed("Entry.files", problem)
	}
	if it.Error != nil && !errors.Is(it.Error, io.EOF) {
		return nil, jsonMalformed("Entry.files", it.Error)
	}
	return out, nil
}

func fromJSONFile(jf *jsonEntryFile) EntryFile {
	f := EntryFile{Path: jf.Path, MD5Checksum: jf.MD5Checksum}
	if a := jf.SymbolicMusicAttributes; a != nil {
		f.Attributes = &SymbolicMusicFileAttributes{MatchScore: a.MatchScore}
	}
	if u := jf.UnknownAttributes; u != nil {
		f.Attributes = &UnknownAttributes{Tag: protowire.Number(u.Tag), Raw: u.Raw}
	}
	return f
}

func jsonMalformed(field string, err error) *DecodeError {
	return &DecodeError{Kind: MalformedInput, Offset: -1, Field: field, Err: err}
}
