package export

import (
	"fmt"

	"github.com/cespare/xxhash/v2"
)

// Checksum returns a short content hash of an encoded payload, recorded in
// sticker metadata so consumers can dedupe or cache downloads.
func Checksum(data []byte) string {
	return fmt.Sprintf("%016x", xxhash.Sum64(data))
}
