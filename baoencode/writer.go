package baoencode

import (
	"io"

	"github.com/baoproj/bao/baotree"
)

// entry is a subtree pending merge on a Writer's stack: its hash, its
// plaintext length, and the file offset where its pre-order bytes begin.
type entry struct {
	hash   baotree.Hash
	length uint64
	start  uint64
}

// Writer is the incremental combined-encoding encoder described in spec.md
// section 4.3: callers Write plaintext in any chunking they like, and the
// Writer buffers at most one chunk plus a stack of at most MaxDepth pending
// hashes, deciding the final tree shape only once Finish is called (the
// total content length isn't known before then).
//
// Its output must support Read, Write and Seek. A newly completed subtree's
// parent is written at the same file offset its leftmost byte already
// occupies, which means finishing an internal merge requires shifting
// every byte written after that offset forward by ParentSize to make room.
// That differs from the reference implementation's O(1) slot bookkeeping,
// but it produces the identical byte layout and root hash, and it keeps the
// state this Writer carries down to the stack of pending hashes the spec
// describes rather than the whole in-flight subtree's bytes.
type Writer struct {
	out     io.ReadWriteSeeker
	buf     [baotree.ChunkSize]byte
	bufLen  int
	totalLen uint64
	fileEnd  uint64
	stack    []entry
	outboard bool
}

// NewWriter creates a combined-encoding Writer over out, reserving the
// 8-byte header (patched in by Finish, once the content length is known).
func NewWriter(out io.ReadWriteSeeker) (*Writer, error) {
	return newWriter(out, false)
}

// NewOutboardWriter creates an outboard-encoding Writer: out receives only
// the header and parent nodes, never chunk bytes.
func NewOutboardWriter(out io.ReadWriteSeeker) (*Writer, error) {
	return newWriter(out, true)
}

func newWriter(out io.ReadWriteSeeker, outboard bool) (*Writer, error) {
	w := &Writer{out: out, outboard: outboard, stack: make([]entry, 0, baotree.MaxDepth)}
	var placeholder [baotree.HeaderSize]byte
	if err := w.writeAt(0, placeholder[:]); err != nil {
		return nil, err
	}
	w.fileEnd = baotree.HeaderSize
	return w, nil
}

// Write buffers p, committing and merging whichever of its own complete
// chunks are now provably not the final chunk (because more bytes followed
// them in this call or an earlier one).
func (w *Writer) Write(p []byte) (int, error) {
	n := len(p)
	for len(p) > 0 {
		space := baotree.ChunkSize - w.bufLen
		if space == 0 {
			if err := w.commitChunk(w.buf[:baotree.ChunkSize]); err != nil {
				return n - len(p), err
			}
			w.bufLen = 0
			space = baotree.ChunkSize
		}
		take := space
		if take > len(p) {
			take = len(p)
		}
		copy(w.buf[w.bufLen:], p[:take])
		w.bufLen += take
		p = p[take:]
	}
	w.totalLen += uint64(n)
	return n, nil
}

// Finish flushes the last (possibly partial, possibly empty) chunk,
// completes the merge up to the root, back-patches the header with the
// final content length, and returns the root hash.
func (w *Writer) Finish() (baotree.Hash, error) {
	lastChunk := w.buf[:w.bufLen]

	if len(w.stack) == 0 {
		hash := baotree.HashChunk(lastChunk, baotree.RootFinalization(w.totalLen))
		if !w.outboard {
			if err := w.writeAt(w.fileEnd, lastChunk); err != nil {
				return baotree.Hash{}, err
			}
			w.fileEnd += uint64(len(lastChunk))
		}
		if err := w.backpatchHeader(); err != nil {
			return baotree.Hash{}, err
		}
		return hash, nil
	}

	// Push the last chunk without running commitChunk's own "merge while
	// equal" loop: that loop always finalizes as NotRoot, but the cascade
	// it could trigger here might be the one that collapses the whole
	// stack down to the root, which must be Root-finalized instead. So
	// the push and the final drain are kept separate and the drain below
	// owns every finalization decision.
	if err := w.pushLeaf(lastChunk); err != nil {
		return baotree.Hash{}, err
	}

	for len(w.stack) > 1 {
		fin := baotree.NotRoot
		if len(w.stack) == 2 {
			fin = baotree.RootFinalization(w.totalLen)
		}
		if err := w.mergeTop(fin); err != nil {
			return baotree.Hash{}, err
		}
	}

	root := w.stack[0].hash
	if err := w.backpatchHeader(); err != nil {
		return baotree.Hash{}, err
	}
	return root, nil
}

// pushLeaf writes chunk's bytes (for a combined writer) at the current
// append point and pushes its NotRoot hash onto the stack, without
// attempting any merge. Every chunk this Writer ever sees is a non-root
// leaf in isolation: a whole-content-in-one-chunk root is handled directly
// by Finish before pushLeaf is ever called.
func (w *Writer) pushLeaf(chunk []byte) error {
	start := w.fileEnd
	if !w.outboard {
		if err := w.writeAt(start, chunk); err != nil {
			return err
		}
		w.fileEnd += uint64(len(chunk))
	}
	hash := baotree.HashChunk(chunk, baotree.NotRoot)
	w.stack = append(w.stack, entry{hash: hash, length: uint64(len(chunk)), start: start})
	return nil
}

// commitChunk is pushLeaf followed by the ordinary "merge while the top two
// subtrees are equal length" step. It's only ever called for a chunk that's
// provably not the last one, so every merge it triggers is correctly
// NotRoot: the subtree it produces can never be the whole content, because
// more plaintext is already known to follow it.
func (w *Writer) commitChunk(chunk []byte) error {
	if err := w.pushLeaf(chunk); err != nil {
		return err
	}
	for len(w.stack) >= 2 && w.stack[len(w.stack)-1].length == w.stack[len(w.stack)-2].length {
		if err := w.mergeTop(baotree.NotRoot); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) mergeTop(fin baotree.Finalization) error {
	n := len(w.stack)
	right := w.stack[n-1]
	left := w.stack[n-2]
	w.stack = w.stack[:n-2]

	parent := baotree.NewParentNode(left.hash, right.hash)
	hash := baotree.HashParent(parent, fin)

	if err := w.insertAt(left.start, parent[:]); err != nil {
		return err
	}

	w.stack = append(w.stack, entry{hash: hash, length: left.length + right.length, start: left.start})
	return nil
}

func (w *Writer) backpatchHeader() error {
	header := baotree.EncodeHeader(w.totalLen)
	return w.writeAt(0, header[:])
}

func (w *Writer) writeAt(offset uint64, data []byte) error {
	if _, err := w.out.Seek(int64(offset), io.SeekStart); err != nil {
		return err
	}
	_, err := w.out.Write(data)
	return err
}

// insertAt makes room for data at offset by shifting every already-written
// byte from offset to fileEnd forward by len(data), then writes data into
// the gap. Shifting proceeds from the tail backward in bounded blocks so it
// never needs to hold more than one block in memory.
func (w *Writer) insertAt(offset uint64, data []byte) error {
	const blockSize = 32 * 1024
	shiftLen := w.fileEnd - offset
	remaining := shiftLen
	block := make([]byte, 0, blockSize)

	for remaining > 0 {
		n := uint64(blockSize)
		if n > remaining {
			n = remaining
		}
		srcOff := offset + remaining - n
		dstOff := srcOff + uint64(len(data))

		block = block[:n]
		if _, err := w.out.Seek(int64(srcOff), io.SeekStart); err != nil {
			return err
		}
		if _, err := io.ReadFull(w.out, block); err != nil {
			return err
		}
		if _, err := w.out.Seek(int64(dstOff), io.SeekStart); err != nil {
			return err
		}
		if _, err := w.out.Write(block); err != nil {
			return err
		}
		remaining -= n
	}

	if err := w.writeAt(offset, data); err != nil {
		return err
	}
	w.fileEnd += uint64(len(data))
	return nil
}
