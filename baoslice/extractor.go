// Package baoslice implements extracting and verifying a contiguous
// plaintext slice from a Bao encoding: the subset of parent nodes and
// chunks that overlap [start, start+len), skipping the rest by geometry
// alone rather than by reading and discarding it.
package baoslice

import (
	"io"

	"github.com/baoproj/bao/baotree"
)

// Extractor streams the slice encoding of [start, start+sliceLen) from a
// full combined or outboard source. It never compares a single hash: it
// trusts the source it's given (typically local storage already verified
// once) and relies purely on tree geometry to decide what to copy.
type Extractor struct {
	meta     io.ReadSeeker // header + parents: combined source, or outboard source
	content  io.ReadSeeker // chunk bytes: combined source, or content source
	combined bool
	start    uint64
	sliceLen uint64
}

// NewExtractor builds an Extractor over a combined encoding.
func NewExtractor(source io.ReadSeeker, start, sliceLen uint64) *Extractor {
	return &Extractor{meta: source, content: source, combined: true, start: start, sliceLen: sliceLen}
}

// NewOutboardExtractor builds an Extractor over an outboard encoding, whose
// header and parents live in outboard and whose chunk bytes live in content.
func NewOutboardExtractor(content, outboard io.ReadSeeker, start, sliceLen uint64) *Extractor {
	return &Extractor{meta: outboard, content: content, combined: false, start: start, sliceLen: sliceLen}
}

// WriteTo writes the combined-format slice encoding to w: the header,
// followed by every parent and chunk overlapping the requested range in
// pre-order, in exactly the layout a Reader expects to read back.
func (e *Extractor) WriteTo(w io.Writer) (int64, error) {
	var header [baotree.HeaderSize]byte
	if err := readAt(e.meta, 0, header[:]); err != nil {
		return 0, err
	}
	contentLength := baotree.DecodeHeader(header)

	n, err := w.Write(header[:])
	total := int64(n)
	if err != nil {
		return total, err
	}

	rangeEnd, err := baotree.AddChecked(e.start, e.sliceLen)
	if err != nil {
		return total, err
	}
	if rangeEnd > contentLength {
		rangeEnd = contentLength
	}

	metaPos := uint64(baotree.HeaderSize)
	contentPos := uint64(0)

	written, err := e.emit(w, 0, contentLength, e.start, rangeEnd, &metaPos, &contentPos)
	return total + written, err
}

func (e *Extractor) emit(w io.Writer, nodeStart, nodeLen, rangeStart, rangeEnd uint64, metaPos, contentPos *uint64) (int64, error) {
	nodeEnd := nodeStart + nodeLen
	overlaps := nodeStart < rangeEnd && nodeEnd > rangeStart

	if !overlaps {
		if e.combined {
			*metaPos += baotree.EncodedSubtreeSize(nodeLen)
			*contentPos = *metaPos
		} else {
			numChunks := baotree.ChunkCount(nodeLen)
			if nodeLen == 0 {
				numChunks = 1
			}
			parentBytes := uint64(0)
			if nodeLen > baotree.ChunkSize {
				parentBytes = baotree.ParentSize * (numChunks - 1)
			}
			*metaPos += parentBytes
			*contentPos += nodeLen
		}
		return 0, nil
	}

	if nodeLen <= baotree.ChunkSize {
		chunk := make([]byte, nodeLen)
		pos := *contentPos
		if e.combined {
			pos = *metaPos
		}
		if err := readAt(e.content, pos, chunk); err != nil {
			return 0, err
		}
		n, err := w.Write(chunk)
		if e.combined {
			*metaPos += nodeLen
			*contentPos = *metaPos
		} else {
			*contentPos += nodeLen
		}
		return int64(n), err
	}

	var parent [baotree.ParentSize]byte
	if err := readAt(e.meta, *metaPos, parent[:]); err != nil {
		return 0, err
	}
	n, err := w.Write(parent[:])
	total := int64(n)
	*metaPos += baotree.ParentSize
	if e.combined {
		*contentPos = *metaPos
	}
	if err != nil {
		return total, err
	}

	leftLen := baotree.LeftLen(nodeLen)
	leftN, err := e.emit(w, nodeStart, leftLen, rangeStart, rangeEnd, metaPos, contentPos)
	total += leftN
	if err != nil {
		return total, err
	}
	rightN, err := e.emit(w, nodeStart+leftLen, nodeLen-leftLen, rangeStart, rangeEnd, metaPos, contentPos)
	total += rightN
	return total, err
}

func readAt(r io.ReadSeeker, pos uint64, buf []byte) error {
	if _, err := r.Seek(int64(pos), io.SeekStart); err != nil {
		return err
	}
	_, err := io.ReadFull(r, buf)
	return err
}
