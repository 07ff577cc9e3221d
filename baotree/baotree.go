// Package baotree implements the Bao Merkle tree: the node-hashing rules,
// tree geometry, and the handful of pure arithmetic functions that every
// other package in this module (baoencode, baodecode, baoio, baoslice)
// builds on.
//
// Nothing in this package performs I/O. It exists so that the encoder, the
// decode state machine, and the slice extractor can all agree on exactly
// the same notion of "the tree shape for a content length" and "the hash
// of this node" without duplicating the arithmetic.
package baotree

import "encoding/binary"

// Tree shape constants. CHUNK_SIZE is the leaf size; HASH_SIZE is the
// BLAKE2b digest length used throughout; PARENT_SIZE is a parent node's
// encoded size (two child hashes); HEADER_SIZE is the encoded content
// length prefix; MAX_DEPTH bounds the decode/encode stack depth as
// log2(2^64 / CHUNK_SIZE).
const (
	ChunkSize  = 4096
	HashSize   = 32
	ParentSize = 2 * HashSize
	HeaderSize = 8
	MaxDepth   = 52
)

// Hash is an opaque 32-byte Bao node hash.
type Hash [HashSize]byte

// Bytes returns the hash as a byte slice.
func (h Hash) Bytes() []byte { return h[:] }

// ParentNode is the 64-byte encoding of a parent: left child hash followed
// by right child hash.
type ParentNode [ParentSize]byte

// Left returns the left child's hash.
func (p ParentNode) Left() Hash {
	var h Hash
	copy(h[:], p[:HashSize])
	return h
}

// Right returns the right child's hash.
func (p ParentNode) Right() Hash {
	var h Hash
	copy(h[:], p[HashSize:])
	return h
}

// NewParentNode packs a left/right hash pair into their 64-byte encoding.
func NewParentNode(left, right Hash) ParentNode {
	var p ParentNode
	copy(p[:HashSize], left[:])
	copy(p[HashSize:], right[:])
	return p
}

// Finalization tags whether a node being hashed is the unique root of the
// tree (and, if so, the total content length that gets bound into the
// hash) or an interior/leaf node elsewhere in the tree.
type Finalization struct {
	root          bool
	contentLength uint64
}

// NotRoot is the finalization used for every node except the single root.
var NotRoot = Finalization{}

// RootFinalization returns the finalization for the root node of a tree
// over content of the given length.
func RootFinalization(contentLength uint64) Finalization {
	return Finalization{root: true, contentLength: contentLength}
}

// IsRoot reports whether this is the root finalization.
func (f Finalization) IsRoot() bool { return f.root }

// ContentLength returns the bound content length. Only meaningful when
// IsRoot() is true.
func (f Finalization) ContentLength() uint64 { return f.contentLength }

// EncodeHeader writes the little-endian content length header.
func EncodeHeader(contentLength uint64) [HeaderSize]byte {
	var header [HeaderSize]byte
	binary.LittleEndian.PutUint64(header[:], contentLength)
	return header
}

// DecodeHeader reads the little-endian content length header.
func DecodeHeader(header [HeaderSize]byte) uint64 {
	return binary.LittleEndian.Uint64(header[:])
}
