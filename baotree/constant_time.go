package baotree

import "crypto/subtle"

// Equal compares two hashes in constant time with respect to the position
// of the first differing byte, per spec.md's requirement that feed_parent
// and feed_subtree never leak timing information about a near-collision.
//
// Built on the standard library: no library in this pack provides a
// constant-time byte compare, and crypto/subtle.ConstantTimeCompare is the
// accepted idiomatic way to get one in Go.
func (h Hash) Equal(other Hash) bool {
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}
