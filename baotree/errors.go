package baotree

import "errors"

// Sentinel errors for the verification/arithmetic failures named in
// spec.md section 7. Kept as plain errors.New values and matched with
// errors.Is, following the style pkg/ssz uses for its own sentinels
// (ErrSize, ErrOffset, ErrListTooLong, ...).
var (
	// ErrHashMismatch is returned when a computed node hash doesn't match
	// the hash the caller already committed to (the declared root hash,
	// or a hash read from an already-verified parent). Fatal for the
	// current operation; no partial output from that operation may be
	// trusted.
	ErrHashMismatch = errors.New("baotree: hash mismatch")

	// ErrTruncated indicates the encoding ended before the declared
	// content length's tree was fully consumed.
	ErrTruncated = errors.New("baotree: truncated encoding")

	// ErrOverflow indicates a seek target or an encoded size computation
	// exceeded the uint64 range.
	ErrOverflow = errors.New("baotree: arithmetic overflow")

	// ErrInvalidHashArgument indicates a root hash argument (typically
	// from a CLI flag) was not valid HashSize-byte hex.
	ErrInvalidHashArgument = errors.New("baotree: invalid hash argument")
)
