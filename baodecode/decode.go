package baodecode

import "github.com/baoproj/bao/baotree"

// ParseAndCheckContentLen reads the 8-byte header from a full combined
// encoding and checks that the buffer is exactly the length a valid
// combined encoding of that declared content length would be. It does not
// verify any hash; it only lets a whole-buffer driver presize its output
// and reject an encoding whose declared length is inconsistent with the
// buffer it actually got (surfaced as ErrTruncated either way, since a
// buffer shorter OR longer than expected means the tree can't be walked to
// completion cleanly).
func ParseAndCheckContentLen(encoded []byte) (uint64, error) {
	if len(encoded) < baotree.HeaderSize {
		return 0, baotree.ErrTruncated
	}
	var header [baotree.HeaderSize]byte
	copy(header[:], encoded[:baotree.HeaderSize])
	contentLength := baotree.DecodeHeader(header)

	want, err := baotree.EncodedSizeChecked(contentLength)
	if err != nil {
		return 0, err
	}
	if uint64(len(encoded)) != want {
		return 0, baotree.ErrTruncated
	}
	return contentLength, nil
}

// Decode verifies and returns the full plaintext of a combined encoding
// against rootHash. It is the whole-buffer counterpart to baoio.Reader,
// driving the same State machine but reading from an in-memory slice
// instead of an io.Reader.
func Decode(encoded []byte, rootHash baotree.Hash) ([]byte, error) {
	st := New(rootHash)
	pos := 0
	var output []byte

	for {
		next := st.ReadNext()
		switch next.Kind {
		case KindHeader:
			if pos+baotree.HeaderSize > len(encoded) {
				return nil, baotree.ErrTruncated
			}
			var header [baotree.HeaderSize]byte
			copy(header[:], encoded[pos:pos+baotree.HeaderSize])
			st.FeedHeader(header)
			pos += baotree.HeaderSize
			output = make([]byte, 0, 0)

		case KindSubtree:
			if pos+baotree.ParentSize > len(encoded) {
				return nil, baotree.ErrTruncated
			}
			var parent baotree.ParentNode
			copy(parent[:], encoded[pos:pos+baotree.ParentSize])
			if err := st.FeedParent(parent); err != nil {
				return nil, err
			}
			pos += baotree.ParentSize

		case KindChunk:
			size := int(next.Size)
			if pos+size > len(encoded) {
				return nil, baotree.ErrTruncated
			}
			chunk := encoded[pos : pos+size]
			hash := baotree.HashChunk(chunk, next.Finalization)
			if err := st.FeedSubtree(hash); err != nil {
				return nil, err
			}
			output = append(output, chunk[next.Skip:]...)
			pos += size

		case KindDone:
			return output, nil
		}
	}
}

// HashFromEncoded reads just the header and the root-level node (a single
// chunk if the whole input fits in one, otherwise the top parent) of a
// combined encoding, and returns the root hash that node implies along
// with the declared content length. It does not descend into or verify
// the rest of the tree: a corruption below the root-level node is
// undetected by this function (that's the whole point -- it exists to let
// `bao hash --encoded` answer quickly without re-hashing the full input).
func HashFromEncoded(encoded []byte) (baotree.Hash, uint64, error) {
	if len(encoded) < baotree.HeaderSize {
		return baotree.Hash{}, 0, baotree.ErrTruncated
	}
	var header [baotree.HeaderSize]byte
	copy(header[:], encoded[:baotree.HeaderSize])
	contentLength := baotree.DecodeHeader(header)
	rest := encoded[baotree.HeaderSize:]

	if contentLength <= baotree.ChunkSize {
		if uint64(len(rest)) < contentLength {
			return baotree.Hash{}, 0, baotree.ErrTruncated
		}
		chunk := rest[:contentLength]
		return baotree.HashChunk(chunk, baotree.RootFinalization(contentLength)), contentLength, nil
	}

	if len(rest) < baotree.ParentSize {
		return baotree.Hash{}, 0, baotree.ErrTruncated
	}
	var parent baotree.ParentNode
	copy(parent[:], rest[:baotree.ParentSize])
	return baotree.HashParent(parent, baotree.RootFinalization(contentLength)), contentLength, nil
}

// HashFromOutboardEncoded is HashFromEncoded for outboard encodings: the
// root-level chunk (if the content fits in one) comes from the plaintext
// source rather than the outboard one.
func HashFromOutboardEncoded(content, outboard []byte) (baotree.Hash, uint64, error) {
	if len(outboard) < baotree.HeaderSize {
		return baotree.Hash{}, 0, baotree.ErrTruncated
	}
	var header [baotree.HeaderSize]byte
	copy(header[:], outboard[:baotree.HeaderSize])
	contentLength := baotree.DecodeHeader(header)

	if contentLength <= baotree.ChunkSize {
		if uint64(len(content)) < contentLength {
			return baotree.Hash{}, 0, baotree.ErrTruncated
		}
		chunk := content[:contentLength]
		return baotree.HashChunk(chunk, baotree.RootFinalization(contentLength)), contentLength, nil
	}

	rest := outboard[baotree.HeaderSize:]
	if len(rest) < baotree.ParentSize {
		return baotree.Hash{}, 0, baotree.ErrTruncated
	}
	var parent baotree.ParentNode
	copy(parent[:], rest[:baotree.ParentSize])
	return baotree.HashParent(parent, baotree.RootFinalization(contentLength)), contentLength, nil
}
