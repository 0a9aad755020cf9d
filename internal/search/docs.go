package search

import (
	"strings"

	"github.com/resolv-libs/resolv-data/internal/index"
)

// Docs flattens the entries of x into searchable documents, in index order.
func Docs(x *index.Index) []EntryDoc {
	out := make([]EntryDoc, 0, len(x.Entries))
	for i := range x.Entries {
		e := &x.Entries[i]
		d := EntryDoc{ID: e.ID, Split: e.Split}
		if m, ok := e.MusicMetadata(); ok {
			d.Composer = m.Composer
			d.Title = m.Title
			d.Release = m.Release
		}
		keys := make([]string, 0, len(e.Files))
		for _, nf := range e.Files {
			keys = append(keys, nf.Key)
		}
		d.FileKeys = strings.Join(keys, " ")
		out = append(out, d)
	}
	return out
}
