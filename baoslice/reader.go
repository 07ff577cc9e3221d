package baoslice

import (
	"errors"
	"io"

	"github.com/baoproj/bao/baodecode"
	"github.com/baoproj/bao/baotree"
)

// Reader verifies and streams the plaintext of [start, start+sliceLen) from
// a slice encoding produced by Extractor. Unlike baoio.Reader it never
// seeks: a slice already contains exactly the header, parents, and chunks
// the traversal needs, in order, with every skipped subtree physically
// absent, so the driver only ever reads forward.
type Reader struct {
	r       io.Reader
	state   *baodecode.State
	start   uint64
	end     uint64
	pending []byte
	started bool
	done    bool
	err     error
}

// NewReader verifies a slice encoding of [start, start+sliceLen) read from
// r against rootHash.
func NewReader(r io.Reader, rootHash baotree.Hash, start, sliceLen uint64) *Reader {
	end, err := baotree.AddChecked(start, sliceLen)
	if err != nil {
		end = start
	}
	return &Reader{r: r, state: baodecode.New(rootHash), start: start, end: end}
}

// Read implements io.Reader.
func (sr *Reader) Read(p []byte) (int, error) {
	if len(sr.pending) > 0 {
		return sr.drain(p), nil
	}
	if sr.err != nil {
		return 0, sr.err
	}
	if sr.done {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	if !sr.started {
		if err := sr.seekToStart(); err != nil {
			return 0, sr.fail(err)
		}
		sr.started = true
		if len(sr.pending) > 0 {
			return sr.drain(p), nil
		}
	}

	for {
		if sr.state.Position() >= sr.end {
			sr.done = true
			return 0, io.EOF
		}
		next := sr.state.ReadNext()
		switch next.Kind {
		case baodecode.KindSubtree:
			var parent baotree.ParentNode
			if _, err := io.ReadFull(sr.r, parent[:]); err != nil {
				return 0, sr.fail(truncateEOF(err))
			}
			if err := sr.state.FeedParent(parent); err != nil {
				return 0, sr.fail(err)
			}
		case baodecode.KindChunk:
			chunkStart := sr.state.Position() - next.Skip
			chunk := make([]byte, next.Size)
			if _, err := io.ReadFull(sr.r, chunk); err != nil {
				return 0, sr.fail(truncateEOF(err))
			}
			hash := baotree.HashChunk(chunk, next.Finalization)
			if err := sr.state.FeedSubtree(hash); err != nil {
				return 0, sr.fail(err)
			}
			// When the whole content is one chunk, SeekNext can't run
			// before that chunk verifies the root, so Skip doesn't yet
			// account for sr.start; trim the front here instead.
			front := next.Skip
			if sr.start > chunkStart+front {
				front = min(sr.start-chunkStart, next.Size)
			}
			plain := chunk[front:]
			if sr.state.Position() > sr.end {
				plain = plain[:uint64(len(plain))-(sr.state.Position()-sr.end)]
			}
			sr.pending = plain
			return sr.drain(p), nil
		case baodecode.KindHeader, baodecode.KindDone:
			sr.done = true
			return 0, io.EOF
		}
	}
}

// seekToStart reads the header, then walks and discards every subtree that
// SeekNext determines lies entirely before sr.start -- each such subtree is
// simply absent from the slice stream, so this never reads a byte for it.
func (sr *Reader) seekToStart() error {
	var header [baotree.HeaderSize]byte
	if _, err := io.ReadFull(sr.r, header[:]); err != nil {
		return truncateEOF(err)
	}
	sr.state.FeedHeader(header)

	for {
		_, next, err := sr.state.SeekNext(sr.start)
		if err != nil {
			return err
		}
		switch next.Kind {
		case baodecode.KindSubtree:
			var parent baotree.ParentNode
			if _, err := io.ReadFull(sr.r, parent[:]); err != nil {
				return truncateEOF(err)
			}
			if err := sr.state.FeedParent(parent); err != nil {
				return err
			}
		case baodecode.KindDone:
			if sr.state.Exhausted() {
				sr.done = true
				return nil
			}
			return nil
		case baodecode.KindHeader:
			return errors.New("baoslice: unexpected second header request")
		case baodecode.KindChunk:
			return nil
		}
	}
}

func (sr *Reader) drain(p []byte) int {
	n := copy(p, sr.pending)
	sr.pending = sr.pending[n:]
	return n
}

func truncateEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return baotree.ErrTruncated
	}
	return err
}

func (sr *Reader) fail(err error) error {
	sr.err = err
	return err
}
