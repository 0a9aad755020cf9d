package index

import (
	"errors"
	"fmt"
	"math"
	"unicode/utf8"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	indexDesc    = lookupMessage("Index")
	entryDesc    = lookupMessage("Entry")
	musicDesc    = lookupMessage("MusicTrackMetadata")
	fileMapDesc  = lookupMessage("Entry.FilesEntry")
	fileDesc     = lookupMessage("EntryFile")
	symbolicDesc = lookupMessage("SymbolicMusicFileAttributes")
)

// Decoder parses encoded indexes. The zero value accepts schema revisions up
// to SchemaRevision.
type Decoder struct {
	// MaxSchemaRevision is the newest schema revision this decoder agrees to
	// interpret. Zero means SchemaRevision.
	MaxSchemaRevision int
}

// Decode parses b with the default Decoder.
func Decode(b []byte) (*Index, error) {
	return Decoder{}.Decode(b)
}

// Decode parses b into an Index. The returned value never aliases b.
//
// Unknown fields are kept in UnknownFields. Unknown tags inside a oneof's
// variant range decode to *UnknownMetadata or *UnknownAttributes. When the
// same oneof appears more than once on the wire, the last occurrence wins.
//
// A newer schema revision may change the grammar itself, so when the bytes do
// not parse the version is still looked up and an unsupported revision is
// reported as UnsupportedVersion rather than MalformedInput.
func (d Decoder) Decode(b []byte) (*Index, error) {
	limit := d.MaxSchemaRevision
	if limit <= 0 {
		limit = SchemaRevision
	}
	x, err := decodeIndex(b)
	if err != nil {
		if v, ok := scanVersion(b); ok {
			if verr := checkRevision(v, limit); verr != nil {
				return nil, verr
			}
		}
		return nil, err
	}
	if err := checkRevision(x.Version, limit); err != nil {
		return nil, err
	}
	return x, nil
}

func checkRevision(version string, limit int) error {
	rev, err := VersionSchema(version)
	if err != nil {
		return &DecodeError{Kind: UnsupportedVersion, Offset: -1, Field: "Index.version", Err: err}
	}
	if rev > limit {
		return &DecodeError{
			Kind:   UnsupportedVersion,
			Offset: -1,
			Field:  "Index.version",
			Err:    fmt.Errorf("version %q uses schema revision %d, this reader understands up to %d", version, rev, limit),
		}
	}
	return nil
}

// scanVersion walks the top level of b without interpreting nested messages
// and returns the last well-formed version field it reaches.
func scanVersion(b []byte) (string, bool) {
	var (
		version string
		found   bool
	)
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			break
		}
		m := protowire.ConsumeFieldValue(num, typ, b[n:])
		if m < 0 {
			break
		}
		if num == indexVersion && typ == protowire.BytesType {
			if v, _ := protowire.ConsumeBytes(b[n:]); utf8.Valid(v) {
				version, found = string(v), true
			}
		}
		b = b[n+m:]
	}
	return version, found
}

// wireField is one field as found on the wire.
type wireField struct {
	num protowire.Number
	typ protowire.Type
	off int    // absolute offset of the tag
	raw []byte // tag and value, used to preserve unknown fields
	val []byte // payload of a BytesType field
	u64 uint64 // payload of a varint or fixed field
}

// fieldReader walks the fields of one message body.
type fieldReader struct {
	b    []byte
	pos  int
	base int
	desc *messageDesc
}

func newFieldReader(b []byte, base int, desc *messageDesc) *fieldReader {
	return &fieldReader{b: b, base: base, desc: desc}
}

func (r *fieldReader) more() bool { return r.pos < len(r.b) }

func (r *fieldReader) malformed(off int, field string, err error) *DecodeError {
	path := r.desc.name
	if field != "" {
		path += "." + field
	}
	return &DecodeError{Kind: MalformedInput, Offset: off, Field: path, Err: err}
}

func (r *fieldReader) next() (wireField, error) {
	start := r.pos
	rest := r.b[start:]
	num, typ, n := protowire.ConsumeTag(rest)
	if n < 0 {
		return wireField{}, r.malformed(r.base+start, "", protowire.ParseError(n))
	}
	m := protowire.ConsumeFieldValue(num, typ, rest[n:])
	if m < 0 {
		name := ""
		if f, ok := r.desc.fields[num]; ok {
			name = f.name
		}
		return wireField{}, r.malformed(r.base+start+n, name, protowire.ParseError(m))
	}
	f := wireField{num: num, typ: typ, off: r.base + start, raw: rest[:n+m]}
	switch typ {
	case protowire.BytesType:
		f.val, _ = protowire.ConsumeBytes(rest[n:])
	case protowire.VarintType:
		f.u64, _ = protowire.ConsumeVarint(rest[n:])
	case protowire.Fixed64Type:
		f.u64, _ = protowire.ConsumeFixed64(rest[n:])
	case protowire.Fixed32Type:
		v, _ := protowire.ConsumeFixed32(rest[n:])
		f.u64 = uint64(v)
	}
	r.pos += n + m

	if known, ok := r.desc.fields[num]; ok && known.wire != typ {
		return wireField{}, r.malformed(f.off, known.name, fmt.Errorf("wire type %d, want %d", typ, known.wire))
	}
	if o := r.desc.oneof; o != nil && o.contains(num) && typ != protowire.BytesType {
		return wireField{}, r.malformed(f.off, o.name, fmt.Errorf("variant tag %d with non-message wire type %d", num, typ))
	}
	return f, nil
}

// payloadOffset is the absolute offset of a BytesType field's contents.
func (f wireField) payloadOffset() int {
	return f.off + len(f.raw) - len(f.val)
}

func (r *fieldReader) str(f wireField) (string, error) {
	if !utf8.Valid(f.val) {
		return "", r.malformed(f.off, r.desc.fields[f.num].name, errors.New("invalid UTF-8"))
	}
	return string(f.val), nil
}

func decodeIndex(b []byte) (*Index, error) {
	x := &Index{}
	r := newFieldReader(b, 0, indexDesc)
	for r.more() {
		f, err := r.next()
		if err != nil {
			return nil, err
		}
		switch f.num {
		case indexID:
			if x.ID, err = r.str(f); err != nil {
				return nil, err
			}
		case indexVersion:
			if x.Version, err = r.str(f); err != nil {
				return nil, err
			}
		case indexEntries:
			e, err := decodeEntry(f.val, f.payloadOffset())
			if err != nil {
				return nil, err
			}
			x.Entries = append(x.Entries, e)
		default:
			x.UnknownFields = append(x.UnknownFields, f.raw...)
		}
	}
	return x, nil
}

func decodeEntry(b []byte, base int) (Entry, error) {
	var (
		e       Entry
		keyOffs []int
	)
	r := newFieldReader(b, base, entryDesc)
	for r.more() {
		f, err := r.next()
		if err != nil {
			return Entry{}, err
		}
		switch {
		case f.num == entryID:
			if e.ID, err = r.str(f); err != nil {
				return Entry{}, err
			}
		case f.num == entryMusicMetadata:
			m, err := decodeMusicTrackMetadata(f.val, f.payloadOffset())
			if err != nil {
				return Entry{}, err
			}
			e.Metadata = m
		case f.num == entryFiles:
			nf, err := decodeFileMapEntry(f.val, f.payloadOffset())
			if err != nil {
				return Entry{}, err
			}
			e.Files = append(e.Files, nf)
			keyOffs = append(keyOffs, f.off)
		case f.num == entrySplit:
			if e.Split, err = r.str(f); err != nil {
				return Entry{}, err
			}
		case metadataOneof.contains(f.num):
			e.Metadata = &UnknownMetadata{Tag: f.num, Raw: cloneBytes(f.val)}
		default:
			e.UnknownFields = append(e.UnknownFields, f.raw...)
		}
	}

	// Duplicate keys are rejected rather than collapsed: the last-wins map
	// semantics of protobuf would hide the producer's mistake.
	if len(e.Files) > 1 {
		seen := make(map[string]bool, len(e.Files))
		for i, nf := range e.Files {
			if seen[nf.Key] {
				return Entry{}, r.malformed(keyOffs[i], "files", fmt.Errorf("%w %q in entry %q", ErrDuplicateFileKey, nf.Key, e.ID))
			}
			seen[nf.Key] = true
		}
	}
	return e, nil
}

func decodeMusicTrackMetadata(b []byte, base int) (*MusicTrackMetadata, error) {
	m := &MusicTrackMetadata{}
	r := newFieldReader(b, base, musicDesc)
	for r.more() {
		f, err := r.next()
		if err != nil {
			return nil, err
		}
		switch f.num {
		case musicComposer:
			if m.Composer, err = r.str(f); err != nil {
				return nil, err
			}
		case musicTitle:
			if m.Title, err = r.str(f); err != nil {
				return nil, err
			}
		case musicYear:
			m.Year = int32(f.u64)
		case musicDuration:
			m.Duration = math.Float64frombits(f.u64)
		case musicRelease:
			if m.Release, err = r.str(f); err != nil {
				return nil, err
			}
		default:
			m.UnknownFields = append(m.UnknownFields, f.raw...)
		}
	}
	return m, nil
}

func decodeFileMapEntry(b []byte, base int) (NamedFile, error) {
	var nf NamedFile
	r := newFieldReader(b, base, fileMapDesc)
	for r.more() {
		f, err := r.next()
		if err != nil {
			return NamedFile{}, err
		}
		switch f.num {
		case fileMapKey:
			if nf.Key, err = r.str(f); err != nil {
				return NamedFile{}, err
			}
		case fileMapValue:
			if nf.File, err = decodeEntryFile(f.val, f.payloadOffset()); err != nil {
				return NamedFile{}, err
			}
		}
	}
	return nf, nil
}

func decodeEntryFile(b []byte, base int) (EntryFile, error) {
	var ef EntryFile
	r := newFieldReader(b, base, fileDesc)
	for r.more() {
		f, err := r.next()
		if err != nil {
			return EntryFile{}, err
		}
		switch {
		case f.num == filePath:
			if ef.Path, err = r.str(f); err != nil {
				return EntryFile{}, err
			}
		case f.num == fileMD5Checksum:
			if ef.MD5Checksum, err = r.str(f); err != nil {
				return EntryFile{}, err
			}
		case f.num == fileSymbolicMusicAttributes:
			a, err := decodeSymbolicMusicFileAttributes(f.val, f.payloadOffset())
			if err != nil {
				return EntryFile{}, err
			}
			ef.Attributes = a
		case attributesOneof.contains(f.num):
			ef.Attributes = &UnknownAttributes{Tag: f.num, Raw: cloneBytes(f.val)}
		default:
			ef.UnknownFields = append(ef.UnknownFields, f.raw...)
		}
	}
	return ef, nil
}

func decodeSymbolicMusicFileAttributes(b []byte, base int) (*SymbolicMusicFileAttributes, error) {
	a := &SymbolicMusicFileAttributes{}
	r := newFieldReader(b, base, symbolicDesc)
	for r.more() {
		f, err := r.next()
		if err != nil {
			return nil, err
		}
		if f.num == symbolicMatchScore {
			a.MatchScore = math.Float64frombits(f.u64)
		} else {
			a.UnknownFields = append(a.UnknownFields, f.raw...)
		}
	}
	return a, nil
}
