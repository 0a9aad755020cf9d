package store

import "errors"

var (
	// ErrVersionNotBumped is returned when a different catalog is written
	// over a published one that carries the same version.
	ErrVersionNotBumped = errors.New("catalog content changed but version was not bumped")

	// ErrInvalidIndex is returned when a catalog with structural violations
	// is about to be published.
	ErrInvalidIndex = errors.New("catalog has structural violations")

	// ErrLocked is returned when another writer holds the catalog lock past
	// the lock timeout.
	ErrLocked = errors.New("catalog is locked by another writer")
)
