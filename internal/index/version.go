package index

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Masterminds/semver"
)

// SchemaRevision is the newest schema revision this package reads and writes.
const SchemaRevision = 1

const schemaMarker = "schema"

// VersionSchema reports the schema revision an Index.Version declares.
//
// The version string is the dataset's content version ("1.0", "3.0.0"). A
// producer that relies on a schema change old readers cannot interpret marks
// it in the semver build metadata, e.g. "3.0.0+schema.2". Versions without
// the marker, including empty and non-semver ones, declare revision 1.
func VersionSchema(version string) (int, error) {
	if version == "" {
		return 1, nil
	}
	v, err := semver.NewVersion(version)
	if err != nil {
		if strings.Contains(version, "+"+schemaMarker) {
			return 0, fmt.Errorf("cannot parse version %q: %w", version, err)
		}
		return 1, nil
	}
	ids := strings.Split(v.Metadata(), ".")
	for i, id := range ids {
		if id != schemaMarker {
			continue
		}
		if i+1 == len(ids) {
			return 0, fmt.Errorf("schema marker without revision in version %q", version)
		}
		rev, err := strconv.Atoi(ids[i+1])
		if err != nil || rev < 1 {
			return 0, fmt.Errorf("invalid schema revision %q in version %q", ids[i+1], version)
		}
		return rev, nil
	}
	return 1, nil
}
