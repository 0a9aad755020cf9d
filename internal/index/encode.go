package index

import (
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// Encode serializes x in the protobuf wire format. Known fields are written in
// ascending tag order followed by any preserved unknown fields, so the output
// is a pure function of x. Encode does not validate; run Validate first when
// the producer is not trusted.
func Encode(x *Index) []byte {
	return AppendEncode(nil, x)
}

// AppendEncode appends the encoding of x to dst.
func AppendEncode(dst []byte, x *Index) []byte {
	if x == nil {
		return dst
	}
	b := appendString(dst, indexID, x.ID)
	b = appendString(b, indexVersion, x.Version)
	for i := range x.Entries {
		b = appendMessage(b, indexEntries, encodeEntry(&x.Entries[i]))
	}
	return append(b, x.UnknownFields...)
}

func encodeEntry(e *Entry) []byte {
	b := appendString(nil, entryID, e.ID)
	// A set oneof message is written even when empty so that readers can tell
	// "no metadata" from "metadata with default values".
	switch m := e.Metadata.(type) {
	case *MusicTrackMetadata:
		if m != nil {
			b = appendMessage(b, entryMusicMetadata, encodeMusicTrackMetadata(m))
		}
	case *UnknownMetadata:
		if m != nil {
			b = appendMessage(b, m.Tag, m.Raw)
		}
	}
	for i := range e.Files {
		b = appendMessage(b, entryFiles, encodeFileMapEntry(&e.Files[i]))
	}
	b = appendString(b, entrySplit, e.Split)
	return append(b, e.UnknownFields...)
}

func encodeMusicTrackMetadata(m *MusicTrackMetadata) []byte {
	b := appendString(nil, musicComposer, m.Composer)
	b = appendString(b, musicTitle, m.Title)
	if m.Year != 0 {
		b = protowire.AppendTag(b, musicYear, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(int64(m.Year)))
	}
	b = appendDouble(b, musicDuration, m.Duration)
	b = appendString(b, musicRelease, m.Release)
	return append(b, m.UnknownFields...)
}

func encodeFileMapEntry(nf *NamedFile) []byte {
	// Map entries always carry both key and value so that an empty key or an
	// empty file survives a round trip.
	b := protowire.AppendTag(nil, fileMapKey, protowire.BytesType)
	b = protowire.AppendString(b, nf.Key)
	return appendMessage(b, fileMapValue, encodeEntryFile(&nf.File))
}

func encodeEntryFile(f *EntryFile) []byte {
	b := appendString(nil, filePath, f.Path)
	b = appendString(b, fileMD5Checksum, f.MD5Checksum)
	switch a := f.Attributes.(type) {
	case *SymbolicMusicFileAttributes:
		if a != nil {
			body := appendDouble(nil, symbolicMatchScore, a.MatchScore)
			b = appendMessage(b, fileSymbolicMusicAttributes, append(body, a.UnknownFields...))
		}
	case *UnknownAttributes:
		if a != nil {
			b = appendMessage(b, a.Tag, a.Raw)
		}
	}
	return append(b, f.UnknownFields...)
}

func appendString(b []byte, num protowire.Number, s string) []byte {
	if s == "" {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendString(b, s)
}

func appendDouble(b []byte, num protowire.Number, v float64) []byte {
	bits := math.Float64bits(v)
	if bits == 0 {
		return b
	}
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, bits)
}

func appendMessage(b []byte, num protowire.Number, body []byte) []byte {
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, body)
}
