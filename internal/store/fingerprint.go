package store

import (
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/resolv-libs/resolv-data/internal/index"
)

// Fingerprint identifies a catalog's content: the xxhash of its binary
// encoding, as 16 hex digits. Equal catalogs share a fingerprint whatever
// format they are stored in.
func Fingerprint(x *index.Index) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(index.Encode(x)))
}
