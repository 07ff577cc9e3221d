package baotree

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"
)

// rootTag and notRootTag are the keyed-BLAKE2b domain-separation tags for
// root versus non-root nodes: every interior or leaf node hashes under
// notRootTag regardless of its bytes, so no non-root node's hash can ever
// collide with a root hash of any input, for any length.
var (
	notRootTag = []byte{0}
	rootTag    = []byte{1}
)

// HashNode hashes a chunk's plaintext or a parent's 64 encoded bytes under
// the given finalization, per spec.md section 4.1. Domain separation comes
// from keying BLAKE2b with rootTag or notRootTag, the way
// _examples/other_examples/2274fe5a_...node.go keys each merkle node kind
// with its own tag to prevent cross-kind collisions.
//
// For the root, the 8-byte little-endian content length is additionally
// appended to the hashed bytes, binding the declared total length into the
// root hash itself (on top of the tag, which alone already depends only on
// position in the tree, not on length).
func HashNode(data []byte, fin Finalization) Hash {
	tag := notRootTag
	if fin.IsRoot() {
		tag = rootTag
	}
	h, err := blake2b.New256(tag)
	if err != nil {
		// New256 never errors for a key this short; a failure here means
		// the blake2b package itself is broken.
		panic("baotree: blake2b.New256: " + err.Error())
	}
	h.Write(data)
	if fin.IsRoot() {
		var lenSuffix [8]byte
		binary.LittleEndian.PutUint64(lenSuffix[:], fin.ContentLength())
		h.Write(lenSuffix[:])
	}
	var out Hash
	copy(out[:], h.Sum(nil))
	return out
}

// HashChunk hashes a leaf chunk's plaintext bytes.
func HashChunk(chunk []byte, fin Finalization) Hash {
	return HashNode(chunk, fin)
}

// HashParent hashes an already-packed 64-byte parent node.
func HashParent(parent ParentNode, fin Finalization) Hash {
	return HashNode(parent[:], fin)
}
