// Package index defines the dataset catalog (Index -> Entry -> EntryFile),
// its protobuf wire encoding, and the structural checks a reader applies.
//
// Everything here is a pure function of its input: no I/O, no shared state.
// A decoded Index may be read from any number of goroutines.
//
// Schema evolution is append-only. New fields and new oneof variants take
// tags that were never used before; the tag registry in tags.go records what
// is taken and reserved, and CheckRegistry enforces it in tests.
package index
