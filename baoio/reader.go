// Package baoio adapts the pure baodecode state machine to Go's io.Reader
// and io.Seeker idiom, the way the reference bao crate's decode.rs adapts
// the same state machine to Rust's Read and Read + Seek traits.
package baoio

import (
	"errors"
	"io"

	"github.com/baoproj/bao/baodecode"
	"github.com/baoproj/bao/baotree"
)

// ErrNotSeekable is returned by Seek when the Reader was built over a
// source that doesn't implement io.Seeker.
var ErrNotSeekable = errors.New("baoio: underlying source is not seekable")

// Reader verifies and streams the plaintext of a combined or outboard
// encoding as it's read, returning an error instead of plaintext the
// instant any chunk or parent fails to match its expected hash.
type Reader struct {
	meta    io.Reader // header + parents: the combined source, or the outboard source
	content io.Reader // chunk bytes: the combined source, or the content source
	state   *baodecode.State
	pending []byte // leftover verified plaintext from the last chunk read
	done    bool
	err     error
}

// NewReader verifies a combined encoding read from r against rootHash.
func NewReader(r io.Reader, rootHash baotree.Hash) *Reader {
	return &Reader{meta: r, content: r, state: baodecode.New(rootHash)}
}

// NewOutboardReader verifies content, whose header and parent nodes are
// read separately from outboard, against rootHash.
func NewOutboardReader(content, outboard io.Reader, rootHash baotree.Hash) *Reader {
	return &Reader{meta: outboard, content: content, state: baodecode.New(rootHash)}
}

// Read implements io.Reader, returning verified plaintext in content order.
// It returns an error (baotree.ErrHashMismatch, baotree.ErrTruncated, or
// whatever the underlying source produced) the moment verification fails,
// and never again returns plaintext after that.
func (r *Reader) Read(p []byte) (int, error) {
	if len(r.pending) > 0 {
		n := copy(p, r.pending)
		r.pending = r.pending[n:]
		return n, nil
	}
	if r.err != nil {
		return 0, r.err
	}
	if r.done {
		return 0, io.EOF
	}
	if len(p) == 0 {
		return 0, nil
	}

	for {
		next := r.state.ReadNext()
		switch next.Kind {
		case baodecode.KindHeader:
			var header [baotree.HeaderSize]byte
			if _, err := io.ReadFull(r.meta, header[:]); err != nil {
				return 0, r.fail(truncateEOF(err))
			}
			r.state.FeedHeader(header)

		case baodecode.KindSubtree:
			var parent baotree.ParentNode
			if _, err := io.ReadFull(r.meta, parent[:]); err != nil {
				return 0, r.fail(truncateEOF(err))
			}
			if err := r.state.FeedParent(parent); err != nil {
				return 0, r.fail(err)
			}

		case baodecode.KindChunk:
			chunk := make([]byte, next.Size)
			if _, err := io.ReadFull(r.content, chunk); err != nil {
				return 0, r.fail(truncateEOF(err))
			}
			hash := baotree.HashChunk(chunk, next.Finalization)
			if err := r.state.FeedSubtree(hash); err != nil {
				return 0, r.fail(err)
			}
			r.pending = chunk[next.Skip:]
			n := copy(p, r.pending)
			r.pending = r.pending[n:]
			return n, nil

		case baodecode.KindDone:
			r.done = true
			return 0, io.EOF
		}
	}
}

// truncateEOF maps a short or empty read where the state machine expected
// more bytes to ErrTruncated: from this Reader's perspective, any EOF here
// means the source ended mid-tree, not that decoding finished cleanly.
func truncateEOF(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return baotree.ErrTruncated
	}
	return err
}

func (r *Reader) fail(err error) error {
	r.err = err
	return err
}

// Seek repositions the Reader, re-walking whatever header and parent nodes
// lie between the current position and target, verifying each one exactly
// as Read would. It requires both the meta and content sources to
// implement io.Seeker.
func (r *Reader) Seek(offset int64, whence int) (int64, error) {
	metaSeeker, ok := r.meta.(io.Seeker)
	if !ok {
		return 0, ErrNotSeekable
	}
	contentSeeker, hasContentSeeker := r.content.(io.Seeker)
	if r.content != r.meta && !hasContentSeeker {
		return 0, ErrNotSeekable
	}

	target, err := r.resolveSeekTarget(offset, whence)
	if err != nil {
		return 0, err
	}

	r.pending = nil
	r.done = false
	r.err = nil

	combined := r.content == r.meta

	for {
		encodedOffset, next, err := r.state.SeekNext(target)
		if err != nil {
			return 0, r.fail(err)
		}

		// top.start (the content-byte offset of whatever node is on top
		// of the verification stack right now) splits the combined-layout
		// encodedOffset into its meta (header+parents) and content (chunk
		// bytes) components: contentOffset == top.start, metaOffset ==
		// encodedOffset - top.start. That split only matters in true
		// outboard mode, where the two live in separate streams; in
		// combined mode encodedOffset alone is already the right answer.
		contentOffset := r.state.Position() - next.Skip

		switch next.Kind {
		case baodecode.KindHeader, baodecode.KindSubtree:
			metaOffset := encodedOffset
			if !combined {
				metaOffset = encodedOffset - contentOffset
			}
			if _, err := metaSeeker.Seek(int64(metaOffset), io.SeekStart); err != nil {
				return 0, err
			}
			if next.Kind == baodecode.KindHeader {
				var header [baotree.HeaderSize]byte
				if _, err := io.ReadFull(r.meta, header[:]); err != nil {
					return 0, r.fail(truncateEOF(err))
				}
				r.state.FeedHeader(header)
			} else {
				var parent baotree.ParentNode
				if _, err := io.ReadFull(r.meta, parent[:]); err != nil {
					return 0, r.fail(truncateEOF(err))
				}
				if err := r.state.FeedParent(parent); err != nil {
					return 0, r.fail(err)
				}
			}

		case baodecode.KindChunk:
			if combined {
				if _, err := metaSeeker.Seek(int64(encodedOffset), io.SeekStart); err != nil {
					return 0, err
				}
			} else if hasContentSeeker {
				if _, err := contentSeeker.Seek(int64(contentOffset), io.SeekStart); err != nil {
					return 0, err
				}
			}
			// SeekNext only asks for a chunk while the root is a single,
			// not yet verified chunk. Verify it here and keep the part from
			// target on for Read.
			chunk := make([]byte, next.Size)
			if _, err := io.ReadFull(r.content, chunk); err != nil {
				return 0, r.fail(truncateEOF(err))
			}
			if err := r.state.FeedSubtree(baotree.HashChunk(chunk, next.Finalization)); err != nil {
				return 0, r.fail(err)
			}
			if target < next.Size {
				r.pending = chunk[target:]
			}
			return int64(target), nil

		case baodecode.KindDone:
			if r.state.Exhausted() {
				r.done = true
				return int64(target), nil
			}
			// SeekNext stops here once the target lies inside the
			// subtree on top of the stack, without fully resolving
			// whether that subtree is itself a parent or a leaf. Ask
			// ReadNext for that answer (Skip included) and position both
			// streams at that subtree: SeekNext may have skipped or reset
			// past the last node this loop actually read.
			real := r.state.ReadNext()
			realContentOffset := r.state.Position() - real.Skip
			metaOffset := encodedOffset
			if !combined {
				metaOffset = encodedOffset - realContentOffset
				if hasContentSeeker {
					if _, err := contentSeeker.Seek(int64(realContentOffset), io.SeekStart); err != nil {
						return 0, err
					}
				}
			}
			if _, err := metaSeeker.Seek(int64(metaOffset), io.SeekStart); err != nil {
				return 0, err
			}
			return int64(target), nil
		}
	}
}

func (r *Reader) resolveSeekTarget(offset int64, whence int) (uint64, error) {
	switch whence {
	case io.SeekStart:
		if offset < 0 {
			return 0, baotree.ErrOverflow
		}
		return uint64(offset), nil
	case io.SeekCurrent:
		return baotree.AddOffsetChecked(r.state.Position(), offset)
	case io.SeekEnd:
		length, _, known := r.state.LenNext()
		if !known {
			return 0, errors.New("baoio: SeekEnd requires the content length to already be known; seek from start first")
		}
		return baotree.AddOffsetChecked(length, offset)
	default:
		return 0, errors.New("baoio: invalid whence")
	}
}
