// Package fingerprint derives stable identity hashes for a proc's function
// set from caller-supplied version tags.
package fingerprint

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
)

// Functions returns the hex SHA-256 digest over the version tags of a proc's
// function followed by its auxiliary functions, in declared order. Each tag
// is length-prefixed so that no two distinct tag sequences can collapse to
// the same byte stream.
//
// Hashing identity tags rather than compiled code is deliberate: the tag is
// the caller's statement of what the function's behavior is, so the cache
// never silently misses a behavioral change, and comment-only edits don't
// invalidate anything.
func Functions(versions ...string) string {
	h := sha256.New()
	var prefix [8]byte
	for _, v := range versions {
		binary.BigEndian.PutUint64(prefix[:], uint64(len(v)))
		h.Write(prefix[:])
		h.Write([]byte(v))
	}
	return hex.EncodeToString(h.Sum(nil))
}
