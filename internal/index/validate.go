package index

import (
	"fmt"
	"unicode/utf8"

	"go.uber.org/multierr"
	"google.golang.org/protobuf/encoding/protowire"
)

// ViolationCode names the structural rule a Violation breaks.
type ViolationCode string

const (
	DuplicateEntryID  ViolationCode = "duplicate_entry_id"
	DuplicateFileKey  ViolationCode = "duplicate_file_key"
	MalformedChecksum ViolationCode = "malformed_checksum"
	InvalidVariant    ViolationCode = "invalid_variant"
	InvalidUTF8       ViolationCode = "invalid_utf8"
)

// Violation is one broken structural rule.
type Violation struct {
	Code    ViolationCode
	EntryID string
	FileKey string
	Message string
}

func (v Violation) Error() string {
	return fmt.Sprintf("%s: %s", v.Code, v.Message)
}

// Violations is the result of Validate, in index order.
type Violations []Violation

// Err folds the violations into a single error, or nil when there are none.
func (vs Violations) Err() error {
	var err error
	for _, v := range vs {
		err = multierr.Append(err, v)
	}
	return err
}

// Codes returns the distinct codes present, in first-seen order.
func (vs Violations) Codes() []ViolationCode {
	var out []ViolationCode
	seen := map[ViolationCode]bool{}
	for _, v := range vs {
		if !seen[v.Code] {
			seen[v.Code] = true
			out = append(out, v.Code)
		}
	}
	return out
}

// Validate checks the structural invariants of x and returns every violation
// found. It reads nothing but x: whether a checksum matches the real file is
// the reconciler's business.
func Validate(x *Index) Violations {
	if x == nil {
		return nil
	}
	var out Violations
	out.checkUTF8("", "", "index id", x.ID)
	out.checkUTF8("", "", "index version", x.Version)
	firstAt := make(map[string]int, len(x.Entries))
	for i := range x.Entries {
		e := &x.Entries[i]
		if prev, ok := firstAt[e.ID]; ok {
			out = append(out, Violation{
				Code:    DuplicateEntryID,
				EntryID: e.ID,
				Message: fmt.Sprintf("entry id %q at position %d already used at position %d", e.ID, i, prev),
			})
		} else {
			firstAt[e.ID] = i
		}
		out = append(out, validateEntry(e)...)
	}
	return out
}

func validateEntry(e *Entry) Violations {
	var out Violations
	out.checkUTF8(e.ID, "", "entry id", e.ID)
	out.checkUTF8(e.ID, "", "split", e.Split)
	if m, ok := e.MusicMetadata(); ok {
		out.checkUTF8(e.ID, "", "composer", m.Composer)
		out.checkUTF8(e.ID, "", "title", m.Title)
		out.checkUTF8(e.ID, "", "release", m.Release)
	}
	if msg := checkMetadataVariant(e.Metadata); msg != "" {
		out = append(out, Violation{Code: InvalidVariant, EntryID: e.ID, Message: msg})
	}
	keys := make(map[string]bool, len(e.Files))
	for _, nf := range e.Files {
		if keys[nf.Key] {
			out = append(out, Violation{
				Code:    DuplicateFileKey,
				EntryID: e.ID,
				FileKey: nf.Key,
				Message: fmt.Sprintf("file key %q appears more than once in entry %q", nf.Key, e.ID),
			})
		}
		keys[nf.Key] = true
		out.checkUTF8(e.ID, nf.Key, "file key", nf.Key)
		out.checkUTF8(e.ID, nf.Key, "path", nf.File.Path)

		if !ValidChecksum(nf.File.MD5Checksum) {
			out = append(out, Violation{
				Code:    MalformedChecksum,
				EntryID: e.ID,
				FileKey: nf.Key,
				Message: fmt.Sprintf("md5 checksum %q of file %q in entry %q is not 32 lowercase hex characters", nf.File.MD5Checksum, nf.Key, e.ID),
			})
		}
		if msg := checkAttributesVariant(nf.File.Attributes); msg != "" {
			out = append(out, Violation{Code: InvalidVariant, EntryID: e.ID, FileKey: nf.Key, Message: msg})
		}
	}
	return out
}

// checkUTF8 records s when it is not valid UTF-8, which Decode rejects.
// Checksums are covered by ValidChecksum, which admits ASCII only.
func (vs *Violations) checkUTF8(entryID, fileKey, field, s string) {
	if utf8.ValidString(s) {
		return
	}
	*vs = append(*vs, Violation{
		Code:    InvalidUTF8,
		EntryID: entryID,
		FileKey: fileKey,
		Message: fmt.Sprintf("%s %q is not valid UTF-8", field, s),
	})
}

// checkMetadataVariant catches the states the sum type cannot rule out: a
// typed nil, and an "unknown" variant that claims a known or foreign tag.
func checkMetadataVariant(m EntryMetadata) string {
	switch v := m.(type) {
	case nil:
		return ""
	case *MusicTrackMetadata:
		if v == nil {
			return "metadata holds a nil music track variant"
		}
	case *UnknownMetadata:
		if v == nil {
			return "metadata holds a nil unknown variant"
		}
		return checkUnknownTag(metadataOneof, v.metadataTag())
	}
	return ""
}

func checkAttributesVariant(a FileAttributes) string {
	switch v := a.(type) {
	case nil:
		return ""
	case *SymbolicMusicFileAttributes:
		if v == nil {
			return "attributes hold a nil symbolic music variant"
		}
	case *UnknownAttributes:
		if v == nil {
			return "attributes hold a nil unknown variant"
		}
		return checkUnknownTag(attributesOneof, v.attributesTag())
	}
	return ""
}

func checkUnknownTag(o *oneofDesc, tag protowire.Number) string {
	switch {
	case o.isKnown(tag):
		return fmt.Sprintf("unknown %s variant uses tag %d of a known variant", o.name, tag)
	case !o.contains(tag):
		return fmt.Sprintf("unknown %s variant tag %d lies outside the variant range %d..%d", o.name, tag, o.lo, o.hi)
	}
	return ""
}

// ValidChecksum reports whether s is empty or exactly 32 lowercase hex digits.
func ValidChecksum(s string) bool {
	if s == "" {
		return true
	}
	if len(s) != 32 {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !('0' <= c && c <= '9' || 'a' <= c && c <= 'f') {
			return false
		}
	}
	return true
}
