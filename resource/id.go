package resource

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// DeriveID returns the lowercase hex encoding of the 256-bit BLAKE3 hash of
// rawURL. Identical URL strings always produce identical IDs.
func DeriveID(rawURL string) string {
	sum := blake3.Sum256([]byte(rawURL))

	return hex.EncodeToString(sum[:])
}
