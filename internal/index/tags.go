package index

import (
	"fmt"
	"sort"

	"google.golang.org/protobuf/encoding/protowire"
)

// Field tags. Published tags are permanent: never renumber, never reuse.
const (
	indexID      protowire.Number = 1
	indexVersion protowire.Number = 2
	indexEntries protowire.Number = 3

	entryID            protowire.Number = 1
	entryMusicMetadata protowire.Number = 2
	entryFiles         protowire.Number = 3
	entrySplit         protowire.Number = 4

	musicComposer protowire.Number = 1
	musicTitle    protowire.Number = 2
	musicYear     protowire.Number = 4
	musicDuration protowire.Number = 5
	musicRelease  protowire.Number = 6

	fileMapKey   protowire.Number = 1
	fileMapValue protowire.Number = 2

	filePath                    protowire.Number = 1
	fileMD5Checksum             protowire.Number = 2
	fileSymbolicMusicAttributes protowire.Number = 3

	symbolicMatchScore protowire.Number = 1
)

// variantRange is the block of tags set aside for new kinds of a oneof.
// Old readers decode any tag inside it as an unknown variant.
const (
	variantRangeLo protowire.Number = 64
	variantRangeHi protowire.Number = 127
)

type fieldDesc struct {
	name string
	wire protowire.Type
}

type oneofDesc struct {
	name  string
	known []protowire.Number
	lo    protowire.Number
	hi    protowire.Number
}

func (o *oneofDesc) contains(n protowire.Number) bool {
	if n >= o.lo && n <= o.hi {
		return true
	}
	for _, k := range o.known {
		if k == n {
			return true
		}
	}
	return false
}

func (o *oneofDesc) isKnown(n protowire.Number) bool {
	for _, k := range o.known {
		if k == n {
			return true
		}
	}
	return false
}

type messageDesc struct {
	name     string
	fields   map[protowire.Number]fieldDesc
	reserved []protowire.Number
	oneof    *oneofDesc
}

var (
	metadataOneof = &oneofDesc{
		name:  "Entry.metadata",
		known: []protowire.Number{entryMusicMetadata},
		lo:    variantRangeLo,
		hi:    variantRangeHi,
	}
	attributesOneof = &oneofDesc{
		name:  "EntryFile.attributes",
		known: []protowire.Number{fileSymbolicMusicAttributes},
		lo:    variantRangeLo,
		hi:    variantRangeHi,
	}
)

// registry lists every published message. It is the single place new tags
// are allocated; CheckRegistry guards its rules.
var registry = []messageDesc{
	{
		name: "Index",
		fields: map[protowire.Number]fieldDesc{
			indexID:      {"id", protowire.BytesType},
			indexVersion: {"version", protowire.BytesType},
			indexEntries: {"entries", protowire.BytesType},
		},
	},
	{
		name: "Entry",
		fields: map[protowire.Number]fieldDesc{
			entryID:            {"id", protowire.BytesType},
			entryMusicMetadata: {"music_metadata", protowire.BytesType},
			entryFiles:         {"files", protowire.BytesType},
			entrySplit:         {"split", protowire.BytesType},
		},
		oneof: metadataOneof,
	},
	{
		name: "MusicTrackMetadata",
		fields: map[protowire.Number]fieldDesc{
			musicComposer: {"composer", protowire.BytesType},
			musicTitle:    {"title", protowire.BytesType},
			musicYear:     {"year", protowire.VarintType},
			musicDuration: {"duration", protowire.Fixed64Type},
			musicRelease:  {"release", protowire.BytesType},
		},
		// 3 was skipped by the first published schema.
		reserved: []protowire.Number{3},
	},
	{
		name: "Entry.FilesEntry",
		fields: map[protowire.Number]fieldDesc{
			fileMapKey:   {"key", protowire.BytesType},
			fileMapValue: {"value", protowire.BytesType},
		},
	},
	{
		name: "EntryFile",
		fields: map[protowire.Number]fieldDesc{
			filePath:                    {"path", protowire.BytesType},
			fileMD5Checksum:             {"md5_checksum", protowire.BytesType},
			fileSymbolicMusicAttributes: {"symbolic_music_attributes", protowire.BytesType},
		},
		oneof: attributesOneof,
	},
	{
		name: "SymbolicMusicFileAttributes",
		fields: map[protowire.Number]fieldDesc{
			symbolicMatchScore: {"match_score", protowire.Fixed64Type},
		},
	},
}

// CheckRegistry verifies the schema evolution rules: every tag is a valid
// field number, no reserved tag is in use, every known variant is a field of
// its message, and no plain field sits inside a variant range.
func CheckRegistry() error {
	return checkRegistry(registry)
}

func checkRegistry(msgs []messageDesc) error {
	names := map[string]bool{}
	for _, m := range msgs {
		if names[m.name] {
			return fmt.Errorf("message %s registered twice", m.name)
		}
		names[m.name] = true

		for _, n := range sortedTags(m.fields) {
			if !n.IsValid() {
				return fmt.Errorf("%s.%s: invalid field number %d", m.name, m.fields[n].name, n)
			}
			for _, r := range m.reserved {
				if r == n {
					return fmt.Errorf("%s.%s: tag %d is reserved", m.name, m.fields[n].name, n)
				}
			}
			if m.oneof != nil && n >= m.oneof.lo && n <= m.oneof.hi {
				return fmt.Errorf("%s.%s: tag %d lies in the %s variant range", m.name, m.fields[n].name, n, m.oneof.name)
			}
		}
		if m.oneof != nil {
			if m.oneof.lo > m.oneof.hi {
				return fmt.Errorf("%s: empty variant range", m.oneof.name)
			}
			for _, k := range m.oneof.known {
				f, ok := m.fields[k]
				if !ok {
					return fmt.Errorf("%s: variant tag %d is not a field of %s", m.oneof.name, k, m.name)
				}
				if f.wire != protowire.BytesType {
					return fmt.Errorf("%s: variant %s must be a message", m.oneof.name, f.name)
				}
			}
		}
	}
	return nil
}

func lookupMessage(name string) *messageDesc {
	for i := range registry {
		if registry[i].name == name {
			return &registry[i]
		}
	}
	return nil
}

func sortedTags(fields map[protowire.Number]fieldDesc) []protowire.Number {
	out := make([]protowire.Number, 0, len(fields))
	for n := range fields {
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
