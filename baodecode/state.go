// Package baodecode implements the Bao decode state machine: a pure value
// object with no I/O of its own, ported from the tree-walking logic in the
// reference bao crate's decode.rs. Drivers (baoio.Reader, baoslice.Reader,
// and the whole-buffer Decode in decode.go) pump bytes into it
// and act on the StateNext it returns; the state machine only ever
// verifies, it never reads or seeks anything itself.
package baodecode

import (
	"github.com/baoproj/bao/baotree"
)

// Kind tags what a driver must supply next.
type Kind int

const (
	// KindHeader means the driver must read HeaderSize bytes and call
	// FeedHeader.
	KindHeader Kind = iota
	// KindSubtree means the top of the stack is an internal node; the
	// driver must read a ParentSize-byte parent and call FeedParent.
	KindSubtree
	// KindChunk means the top of the stack is a leaf; the driver must
	// read Size plaintext bytes and call FeedSubtree with their hash.
	KindChunk
	// KindDone means decoding is finished (possibly because the state
	// has seeked past EOF). SeekNext also returns it once the target lies
	// in the first chunk of the subtree on top of the stack; Exhausted
	// tells the two cases apart.
	KindDone
)

// StateNext describes the next event a driver must supply.
type StateNext struct {
	Kind Kind

	// Size is the subtree's or chunk's plaintext length. Meaningful for
	// KindSubtree and KindChunk only.
	Size uint64

	// Skip is how many bytes at the front of this subtree/chunk the
	// current seek target has already passed -- the driver must discard
	// them from whatever it reads before handing plaintext to its
	// caller. Meaningful for KindSubtree and KindChunk only.
	Skip uint64

	// Finalization is the finalization the driver must hash this node's
	// bytes under before comparing/feeding. Meaningful for KindSubtree
	// and KindChunk only.
	Finalization baotree.Finalization
}

// subtree is a pending node on the verification stack: the hash it must
// match, and the plaintext byte range [start, end) it covers.
type subtree struct {
	hash  baotree.Hash
	start uint64
	end   uint64
}

func (s subtree) length() uint64 { return s.end - s.start }

func (s subtree) isRoot(contentLength uint64) bool {
	return s.start == 0 && s.end == contentLength
}

func (s subtree) finalization(contentLength uint64) baotree.Finalization {
	if s.isRoot(contentLength) {
		return baotree.RootFinalization(s.length())
	}
	return baotree.NotRoot
}

func (s subtree) stateNext(contentLength, contentPosition uint64) StateNext {
	skip := contentPosition - s.start
	fin := s.finalization(contentLength)
	if s.length() <= baotree.ChunkSize {
		return StateNext{Kind: KindChunk, Size: s.length(), Skip: skip, Finalization: fin}
	}
	return StateNext{Kind: KindSubtree, Size: s.length(), Skip: skip, Finalization: fin}
}

// State is the pure decode/verification state machine described in
// spec.md section 4.4. It carries no reference to any byte source; every
// method either inspects its own fields or is fed bytes a driver already
// read.
type State struct {
	stack             []subtree
	rootHash          baotree.Hash
	contentLength     uint64
	haveContentLength bool
	lengthVerified    bool
	contentPosition   uint64
	encodedOffset     uint64
}

// New creates a decode state verifying against rootHash.
func New(rootHash baotree.Hash) *State {
	return &State{
		stack:    make([]subtree, 0, baotree.MaxDepth),
		rootHash: rootHash,
	}
}

// Position returns the next plaintext byte offset the state expects to
// emit (or, mid-seek, the target offset).
func (s *State) Position() uint64 { return s.contentPosition }

// LengthVerified reports whether a Root-finalized node has already been
// matched, meaning ContentLength (if known) can be trusted.
func (s *State) LengthVerified() bool { return s.lengthVerified }

// Exhausted reports whether the verification stack is empty: true once
// decoding has truly finished, as opposed to SeekNext returning KindDone
// merely because the seek walk reached a subtree containing the target
// and has nothing further to do before a driver resumes with ReadNext.
func (s *State) Exhausted() bool { return len(s.stack) == 0 }

func (s *State) top() (subtree, bool) {
	if len(s.stack) == 0 {
		return subtree{}, false
	}
	return s.stack[len(s.stack)-1], true
}

func (s *State) resetToRoot() {
	if !s.haveContentLength {
		panic("baodecode: resetToRoot called before a header was fed")
	}
	s.encodedOffset = baotree.HeaderSize
	s.stack = s.stack[:0]
	s.stack = append(s.stack, subtree{hash: s.rootHash, start: 0, end: s.contentLength})
}

// ReadNext returns the next event a driver must supply to make progress
// reading plaintext in order, starting from the current content position.
func (s *State) ReadNext() StateNext {
	contentLength, next, known := s.LenNext()
	if !known {
		return next
	}
	top, ok := s.top()
	if !ok {
		if !s.lengthVerified {
			panic("baodecode: reached EOF without ever verifying the root")
		}
		return StateNext{Kind: KindDone}
	}
	return top.stateNext(contentLength, s.contentPosition)
}

// LenNext returns the verified content length if it's already known, or
// the next event needed to learn/verify it. The boolean return is true
// iff contentLength is valid.
//
// Note: if this returns a Chunk event (the whole input fits in one chunk),
// feeding that chunk to FeedSubtree advances content_position past 0, same
// as any other chunk read. A caller that doesn't buffer that chunk (as
// baoio.Reader does) may need to re-seek to 0 afterward.
func (s *State) LenNext() (contentLength uint64, next StateNext, known bool) {
	if s.haveContentLength {
		if s.lengthVerified {
			return s.contentLength, StateNext{}, true
		}
		top, ok := s.top()
		if !ok {
			panic("baodecode: unverified EOF")
		}
		return 0, top.stateNext(s.contentLength, s.contentPosition), false
	}
	return 0, StateNext{Kind: KindHeader}, false
}

// SeekNext advances internal state toward targetPosition, returning the
// absolute encoded offset the driver must seek its source to, and the next
// event expected to be read from there. Call it repeatedly (physically
// seeking and supplying each returned event in between) until it returns
// KindDone.
func (s *State) SeekNext(targetPosition uint64) (encodedOffset uint64, next StateNext, err error) {
	contentLength, headerNext, known := s.LenNext()
	if !known {
		return s.encodedOffset, headerNext, nil
	}

	s.contentPosition = targetPosition

	if len(s.stack) == 0 {
		if targetPosition >= contentLength {
			return s.encodedOffset, StateNext{Kind: KindDone}, nil
		}
		s.resetToRoot()
	}

	if top, ok := s.top(); ok && targetPosition < top.start {
		s.resetToRoot()
	}

	for {
		top, ok := s.top()
		if !ok {
			break
		}
		if targetPosition < top.end {
			if targetPosition < top.start+baotree.ChunkSize {
				return s.encodedOffset, StateNext{Kind: KindDone}, nil
			}
			return s.encodedOffset, top.stateNext(contentLength, s.contentPosition), nil
		}
		newOffset, addErr := baotree.AddChecked(s.encodedOffset, baotree.EncodedSubtreeSize(top.length()))
		if addErr != nil {
			return 0, StateNext{}, addErr
		}
		s.encodedOffset = newOffset
		s.stack = s.stack[:len(s.stack)-1]
	}
	return s.encodedOffset, StateNext{Kind: KindDone}, nil
}

// FeedHeader tells the state the 8-byte header it has just read, setting
// the content length and resetting the stack to a single root subtree.
// Panics if called a second time: that's a driver bug, not bad input.
func (s *State) FeedHeader(header [baotree.HeaderSize]byte) {
	if s.haveContentLength {
		panic("baodecode: second call to FeedHeader")
	}
	s.contentLength = baotree.DecodeHeader(header)
	s.haveContentLength = true
	s.resetToRoot()
}

// FeedParent hashes parent under the top subtree's finalization and
// compares it (constant-time) to the top subtree's already-committed hash.
// On success, the top subtree is replaced by its right then left children
// (so the left child is processed first). Panics if the top of the stack
// is a leaf, or if the stack is empty: both are driver bugs.
func (s *State) FeedParent(parent baotree.ParentNode) error {
	if !s.haveContentLength {
		panic("baodecode: FeedParent called before a header was fed")
	}
	top, ok := s.top()
	if !ok {
		panic("baodecode: FeedParent called after EOF")
	}
	if top.length() <= baotree.ChunkSize {
		panic("baodecode: FeedParent called on a leaf subtree")
	}

	computed := baotree.HashParent(parent, top.finalization(s.contentLength))
	if !top.hash.Equal(computed) {
		return baotree.ErrHashMismatch
	}

	split := top.start + baotree.LeftLen(top.length())
	left := subtree{hash: parent.Left(), start: top.start, end: split}
	right := subtree{hash: parent.Right(), start: split, end: top.end}

	s.stack = s.stack[:len(s.stack)-1]
	s.stack = append(s.stack, right, left)
	s.encodedOffset += baotree.ParentSize
	s.lengthVerified = true
	return nil
}

// FeedSubtree compares chunkHash (constant-time) to the top subtree's
// committed hash. On success, pops it, advances content_position to its
// end, and advances encoded_offset by its encoded size.
func (s *State) FeedSubtree(chunkHash baotree.Hash) error {
	top, ok := s.top()
	if !ok {
		panic("baodecode: FeedSubtree called after EOF")
	}
	if !chunkHash.Equal(top.hash) {
		return baotree.ErrHashMismatch
	}
	s.stack = s.stack[:len(s.stack)-1]
	s.contentPosition = top.end
	s.encodedOffset += baotree.EncodedSubtreeSize(top.length())
	s.lengthVerified = true
	return nil
}
