// Package baoencode implements the Bao encoder: a pure whole-buffer
// transform from plaintext to a combined or outboard encoding, plus an
// incremental Writer for streaming input of unknown total length, and a
// ParallelWriter that spreads leaf hashing across a worker pool while
// keeping the single-writer merge/back-patch contract.
package baoencode

import "github.com/baoproj/bao/baotree"

// EncodeToSlice produces the combined encoding of content and its root
// hash. Mirrors spec.md section 4.3's whole-buffer form: header, then a
// pre-order traversal computing each subtree's hash bottom-up while laying
// out parent bytes at their pre-order positions.
func EncodeToSlice(content []byte) (baotree.Hash, []byte) {
	contentLength := uint64(len(content))
	header := baotree.EncodeHeader(contentLength)

	var hash baotree.Hash
	var body []byte
	if contentLength == 0 {
		hash = baotree.HashChunk(nil, baotree.RootFinalization(0))
	} else {
		hash, body = encodeSubtree(content, contentLength, true)
	}

	out := make([]byte, 0, baotree.HeaderSize+len(body))
	out = append(out, header[:]...)
	out = append(out, body...)
	return hash, out
}

// encodeSubtree recursively encodes the plaintext data as a subtree of the
// overall content (whose total length is contentLength, needed to decide
// whether this call is hashing the root). Returns the subtree's hash and
// its pre-order encoded bytes (parent node, if any, followed by the
// recursively encoded children).
func encodeSubtree(data []byte, contentLength uint64, isRoot bool) (baotree.Hash, []byte) {
	fin := baotree.NotRoot
	if isRoot {
		fin = baotree.RootFinalization(contentLength)
	}

	if uint64(len(data)) <= baotree.ChunkSize {
		hash := baotree.HashChunk(data, fin)
		out := make([]byte, len(data))
		copy(out, data)
		return hash, out
	}

	leftLen := baotree.LeftLen(uint64(len(data)))
	leftHash, leftBytes := encodeSubtree(data[:leftLen], contentLength, false)
	rightHash, rightBytes := encodeSubtree(data[leftLen:], contentLength, false)

	parent := baotree.NewParentNode(leftHash, rightHash)
	hash := baotree.HashParent(parent, fin)

	out := make([]byte, 0, baotree.ParentSize+len(leftBytes)+len(rightBytes))
	out = append(out, parent[:]...)
	out = append(out, leftBytes...)
	out = append(out, rightBytes...)
	return hash, out
}

// Hash returns the root hash of content without producing any encoding.
// Equivalent to discarding the second return value of EncodeToSlice, but
// without allocating the parent-node bytes an encoding would need.
func Hash(content []byte) baotree.Hash {
	contentLength := uint64(len(content))
	if contentLength == 0 {
		return baotree.HashChunk(nil, baotree.RootFinalization(0))
	}
	return hashSubtree(content, contentLength, true)
}

func hashSubtree(data []byte, contentLength uint64, isRoot bool) baotree.Hash {
	fin := baotree.NotRoot
	if isRoot {
		fin = baotree.RootFinalization(contentLength)
	}
	if uint64(len(data)) <= baotree.ChunkSize {
		return baotree.HashChunk(data, fin)
	}
	leftLen := baotree.LeftLen(uint64(len(data)))
	leftHash := hashSubtree(data[:leftLen], contentLength, false)
	rightHash := hashSubtree(data[leftLen:], contentLength, false)
	parent := baotree.NewParentNode(leftHash, rightHash)
	return baotree.HashParent(parent, fin)
}

// EncodeOutboardToSlice produces the outboard encoding of content (header
// and parents only, no chunk bytes) and its root hash. The root hash is
// identical to EncodeToSlice's, per spec.md invariant 1.
func EncodeOutboardToSlice(content []byte) (baotree.Hash, []byte) {
	contentLength := uint64(len(content))
	header := baotree.EncodeHeader(contentLength)

	var hash baotree.Hash
	var body []byte
	if contentLength == 0 {
		hash = baotree.HashChunk(nil, baotree.RootFinalization(0))
	} else {
		hash, body = encodeSubtreeOutboard(content, contentLength, true)
	}

	out := make([]byte, 0, baotree.HeaderSize+len(body))
	out = append(out, header[:]...)
	out = append(out, body...)
	return hash, out
}

func encodeSubtreeOutboard(data []byte, contentLength uint64, isRoot bool) (baotree.Hash, []byte) {
	fin := baotree.NotRoot
	if isRoot {
		fin = baotree.RootFinalization(contentLength)
	}

	if uint64(len(data)) <= baotree.ChunkSize {
		return baotree.HashChunk(data, fin), nil
	}

	leftLen := baotree.LeftLen(uint64(len(data)))
	leftHash, leftBytes := encodeSubtreeOutboard(data[:leftLen], contentLength, false)
	rightHash, rightBytes := encodeSubtreeOutboard(data[leftLen:], contentLength, false)

	parent := baotree.NewParentNode(leftHash, rightHash)
	hash := baotree.HashParent(parent, fin)

	out := make([]byte, 0, baotree.ParentSize+len(leftBytes)+len(rightBytes))
	out = append(out, parent[:]...)
	out = append(out, leftBytes...)
	out = append(out, rightBytes...)
	return hash, out
}
