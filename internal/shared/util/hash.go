package util

import (
	"crypto/sha256"
	"encoding/hex"
)

const ownerSegmentLen = 16

// OwnerSegment derives a stable, opaque path segment for a user so object
// keys and public URLs never carry the raw user id.
func OwnerSegment(userID string) string {
	sum := sha256.Sum256([]byte(userID))
	return hex.EncodeToString(sum[:])[:ownerSegmentLen]
}
