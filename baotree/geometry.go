package baotree

import "github.com/holiman/uint256"

// ChunkCount returns the number of chunks a content length of C bytes
// splits into. A zero-length input is the sole one-chunk degenerate case:
// one leaf of length 0.
func ChunkCount(contentLength uint64) uint64 {
	if contentLength == 0 {
		return 1
	}
	return (contentLength + ChunkSize - 1) / ChunkSize
}

// LeftLen returns the length of the left subtree for a subtree of length L.
// L must be strictly greater than ChunkSize; callers must not call this
// for leaves.
//
// left_len(L) is the largest power-of-two multiple of ChunkSize strictly
// less than L: CHUNK_SIZE * 2^floor(log2((L-1)/CHUNK_SIZE)).
func LeftLen(l uint64) uint64 {
	if l <= ChunkSize {
		panic("baotree: LeftLen called on a leaf-sized or smaller subtree")
	}
	fullChunks := (l - 1) / ChunkSize
	// Round fullChunks down to the largest power of two <= fullChunks.
	power := uint64(1)
	for power*2 <= fullChunks {
		power *= 2
	}
	return power * ChunkSize
}

// EncodedSubtreeSize returns the number of encoded bytes (parents plus
// chunk bytes, no header) a subtree of content length C occupies.
func EncodedSubtreeSize(contentLength uint64) uint64 {
	if contentLength == 0 {
		return 0
	}
	numChunks := ChunkCount(contentLength)
	return contentLength + ParentSize*(numChunks-1)
}

// EncodedSize returns the total combined-encoding size (header included)
// for a content length of C bytes.
func EncodedSize(contentLength uint64) uint64 {
	return HeaderSize + EncodedSubtreeSize(contentLength)
}

// OutboardSize returns the size of an outboard encoding (header and
// parents only, no chunk bytes) for a content length of C bytes.
func OutboardSize(contentLength uint64) uint64 {
	return EncodedSize(contentLength) - contentLength
}

// EncodedSizeChecked is EncodedSize with overflow detection, used by
// callers (baodecode.ParseAndCheckContentLen) that must reject a content
// length whose encoded size can't be represented in a uint64. Mirrors how the
// reference implementation widens to u128 for this arithmetic; here we use
// github.com/holiman/uint256's overflow-reporting adds instead of a
// 128-bit integer type, since the sum of two uint64s always fits in a
// uint256 and AddOverflow tells us for free whether it also fits back into
// a uint64.
func EncodedSizeChecked(contentLength uint64) (uint64, error) {
	if contentLength == 0 {
		return HeaderSize, nil
	}
	numChunks := ChunkCount(contentLength)

	parentsTotal := new(uint256.Int).Mul(
		uint256.NewInt(ParentSize),
		uint256.NewInt(numChunks-1),
	)
	total := new(uint256.Int).Add(parentsTotal, uint256.NewInt(contentLength))
	total.Add(total, uint256.NewInt(HeaderSize))

	if !total.IsUint64() {
		return 0, ErrOverflow
	}
	return total.Uint64(), nil
}

// AddChecked adds two uint64 values, reporting ErrOverflow instead of
// wrapping. Used to advance encoded_offset without silently wrapping past
// the uint64 range, the same hazard the reference implementation avoids by
// widening encoded_offset to u128.
func AddChecked(a, b uint64) (uint64, error) {
	sum := new(uint256.Int).Add(uint256.NewInt(a), uint256.NewInt(b))
	if !sum.IsUint64() {
		return 0, ErrOverflow
	}
	return sum.Uint64(), nil
}

// AddOffsetChecked adds a signed offset to an unsigned position, returning
// ErrOverflow if the result would be negative or exceed a uint64. This
// backs io.SeekFrom{End,Current} resolution in baoio.
func AddOffsetChecked(position uint64, offset int64) (uint64, error) {
	base := uint256.NewInt(position)
	if offset >= 0 {
		sum := new(uint256.Int).Add(base, uint256.NewInt(uint64(offset)))
		if !sum.IsUint64() {
			return 0, ErrOverflow
		}
		return sum.Uint64(), nil
	}
	neg := uint256.NewInt(uint64(-offset))
	if neg.Cmp(base) > 0 {
		return 0, ErrOverflow
	}
	return new(uint256.Int).Sub(base, neg).Uint64(), nil
}
