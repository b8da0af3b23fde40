package content

import (
	"fmt"

	"github.com/OneOfOne/xxhash"
)

// VolumeFingerprint computes the stable identifier for a storage device
// used for affinity scheduling (spec §4.1's Volume entity): a composite of
// filesystem UUID/serial and total size, hashed down to a short stable
// string so it can be used as a scheduler map key without carrying the raw
// platform identifiers around.
func VolumeFingerprint(filesystemID string, totalSize int64) string {
	h := xxhash.New64()
	fmt.Fprintf(h, "%s|%d", filesystemID, totalSize)
	return fmt.Sprintf("%016x", h.Sum64())
}
