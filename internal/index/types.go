package index

import "google.golang.org/protobuf/encoding/protowire"

// Index is the catalog of one dataset: its logical entries and the files that
// realize them. A decoded Index is treated as immutable; publish a new Version
// instead of editing one in place.
type Index struct {
	ID      string
	Version string
	Entries []Entry

	// UnknownFields holds the raw bytes of fields this reader does not know.
	// Encode writes them back unchanged.
	UnknownFields []byte
}

// Entry is one logical item of a dataset, e.g. one music track.
type Entry struct {
	ID       string
	Metadata EntryMetadata
	Files    []NamedFile
	Split    string

	UnknownFields []byte
}

// NamedFile binds an EntryFile to its role key ("midi", "audio", ...).
// Keys must be unique within an entry; Validate reports duplicates.
type NamedFile struct {
	Key  string
	File EntryFile
}

// EntryFile locates one physical file of an entry.
type EntryFile struct {
	Path        string
	MD5Checksum string
	Attributes  FileAttributes

	UnknownFields []byte
}

// EntryMetadata is the kind-specific description of an entry. The set of
// implementations is closed: *MusicTrackMetadata and *UnknownMetadata.
type EntryMetadata interface {
	isEntryMetadata()
	metadataTag() protowire.Number
}

// MusicTrackMetadata describes a music track.
type MusicTrackMetadata struct {
	Composer string
	Title    string
	Year     int32
	Duration float64 // seconds
	Release  string

	UnknownFields []byte
}

// UnknownMetadata carries a metadata variant written by a newer producer.
// Raw is the variant's message body exactly as found on the wire.
type UnknownMetadata struct {
	Tag protowire.Number
	Raw []byte
}

func (*MusicTrackMetadata) isEntryMetadata() {}
func (*UnknownMetadata) isEntryMetadata()    {}

func (*MusicTrackMetadata) metadataTag() protowire.Number { return entryMusicMetadata }
func (m *UnknownMetadata) metadataTag() protowire.Number  { return m.Tag }

// FileAttributes is the kind-specific description of a file. The set of
// implementations is closed: *SymbolicMusicFileAttributes and *UnknownAttributes.
type FileAttributes interface {
	isFileAttributes()
	attributesTag() protowire.Number
}

// SymbolicMusicFileAttributes describes a symbolic music file (MIDI, MusicXML).
type SymbolicMusicFileAttributes struct {
	// MatchScore is the confidence of the file's alignment to its entry.
	MatchScore float64

	UnknownFields []byte
}

// UnknownAttributes carries a file attribute variant written by a newer producer.
type UnknownAttributes struct {
	Tag protowire.Number
	Raw []byte
}

func (*SymbolicMusicFileAttributes) isFileAttributes() {}
func (*UnknownAttributes) isFileAttributes()           {}

func (*SymbolicMusicFileAttributes) attributesTag() protowire.Number {
	return fileSymbolicMusicAttributes
}
func (a *UnknownAttributes) attributesTag() protowire.Number { return a.Tag }

// Entry returns the first entry with the given id.
func (x *Index) Entry(id string) (*Entry, bool) {
	for i := range x.Entries {
		if x.Entries[i].ID == id {
			return &x.Entries[i], true
		}
	}
	return nil, false
}

// File returns the first file registered under key.
func (e *Entry) File(key string) (EntryFile, bool) {
	for _, nf := range e.Files {
		if nf.Key == key {
			return nf.File, true
		}
	}
	return EntryFile{}, false
}

// SetFile replaces the file under key, or appends it when the key is new.
func (e *Entry) SetFile(key string, f EntryFile) {
	for i := range e.Files {
		if e.Files[i].Key == key {
			e.Files[i].File = f
			return
		}
	}
	e.Files = append(e.Files, NamedFile{Key: key, File: f})
}

// MusicMetadata returns the entry's music metadata, if that variant is set.
func (e *Entry) MusicMetadata() (*MusicTrackMetadata, bool) {
	m, ok := e.Metadata.(*MusicTrackMetadata)
	return m, ok && m != nil
}

// SymbolicMusic returns the file's symbolic music attributes, if that variant is set.
func (f *EntryFile) SymbolicMusic() (*SymbolicMusicFileAttributes, bool) {
	a, ok := f.Attributes.(*SymbolicMusicFileAttributes)
	return a, ok && a != nil
}

// Clone returns a deep copy of x. Builders use it to derive a new catalog
// revision without touching a published one.
func (x *Index) Clone() *Index {
	if x == nil {
		return nil
	}
	out := &Index{ID: x.ID, Version: x.Version, UnknownFields: cloneBytes(x.UnknownFields)}
	if x.Entries != nil {
		out.Entries = make([]Entry, len(x.Entries))
		for i, e := range x.Entries {
			out.Entries[i] = e.clone()
		}
	}
	return out
}

func (e Entry) clone() Entry {
	out := Entry{ID: e.ID, Split: e.Split, UnknownFields: cloneBytes(e.UnknownFields)}
	switch m := e.Metadata.(type) {
	case *MusicTrackMetadata:
		if m != nil {
			c := *m
			c.UnknownFields = cloneBytes(m.UnknownFields)
			out.Metadata = &c
		} else {
			out.Metadata = m
		}
	case *UnknownMetadata:
		if m != nil {
			out.Metadata = &UnknownMetadata{Tag: m.Tag, Raw: cloneBytes(m.Raw)}
		} else {
			out.Metadata = m
		}
	}
	if e.Files != nil {
		out.Files = make([]NamedFile, len(e.Files))
		for i, nf := range e.Files {
			out.Files[i] = NamedFile{Key: nf.Key, File: nf.File.clone()}
		}
	}
	return out
}

func (f EntryFile) clone() EntryFile {
	out := EntryFile{Path: f.Path, MD5Checksum: f.MD5Checksum, UnknownFields: cloneBytes(f.UnknownFields)}
	switch a := f.Attributes.(type) {
	case *SymbolicMusicFileAttributes:
		if a != nil {
			c := *a
			c.UnknownFields = cloneBytes(a.UnknownFields)
			out.Attributes = &c
		} else {
			out.Attributes = a
		}
	case *UnknownAttributes:
		if a != nil {
			out.Attributes = &UnknownAttributes{Tag: a.Tag, Raw: cloneBytes(a.Raw)}
		} else {
			out.Attributes = a
		}
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	return append([]byte(nil), b...)
}

// HasUnknownFields reports whether x or anything nested in it carries
// unknown fields. Unknown variants do not count.
func (x *Index) HasUnknownFields() bool {
	if x == nil {
		return false
	}
	if len(x.UnknownFields) > 0 {
		return true
	}
	for i := range x.Entries {
		e := &x.Entries[i]
		if len(e.UnknownFields) > 0 {
			return true
		}
		if m, ok := e.MusicMetadata(); ok && len(m.UnknownFields) > 0 {
			return true
		}
		for _, nf := range e.Files {
			if len(nf.File.UnknownFields) > 0 {
				return true
			}
			if a, ok := nf.File.SymbolicMusic(); ok && len(a.UnknownFields) > 0 {
				return true
			}
		}
	}
	return false
}
