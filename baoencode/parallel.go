package baoencode

import (
	"context"
	"io"

	"github.com/baoproj/bao/baotree"
	"golang.org/x/sync/errgroup"
)

// ParallelWriter is EncodeToSlice's incremental cousin for large inputs: it
// spreads chunk hashing across a worker pool (grounded on the same
// errgroup.WithContext fan-out used elsewhere in the pack for bounded
// worker pools), while keeping the merge/back-patch bookkeeping itself
// single-threaded, since it touches the shared stack and output offset.
//
// Callers still get plaintext into it through Write; the parallelism is an
// internal pipelining detail between hashing a chunk and merging its result
// in, not a different API.
type ParallelWriter struct {
	*Writer
	workers int
}

// NewParallelWriter wraps NewWriter with a worker count for chunk hashing.
// workers <= 1 behaves exactly like Writer.
func NewParallelWriter(out io.ReadWriteSeeker, workers int) (*ParallelWriter, error) {
	w, err := NewWriter(out)
	if err != nil {
		return nil, err
	}
	if workers < 1 {
		workers = 1
	}
	return &ParallelWriter{Writer: w, workers: workers}, nil
}

// WriteAll hashes all complete chunks of content across the worker pool,
// then feeds the results to the single-threaded writer in order. Unlike
// Write, it requires the full plaintext up front: splitting the pipeline
// that way is what lets chunk hashing overlap across goroutines while the
// merge step stays a simple left-to-right fold.
func (w *ParallelWriter) WriteAll(ctx context.Context, content []byte) (baotree.Hash, error) {
	contentLength := uint64(len(content))
	if contentLength == 0 {
		return w.Finish()
	}

	numChunks := int(baotree.ChunkCount(contentLength))

	// The last chunk's finalization depends on whether it turns out to be
	// the only chunk, which only Finish knows how to decide; leave it
	// buffered and let the pool hash every chunk before it.
	leadingChunks := numChunks - 1
	hashes := make([]baotree.Hash, leadingChunks)

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(w.workers)

	for i := 0; i < leadingChunks; i++ {
		i := i
		group.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := uint64(i) * baotree.ChunkSize
			hashes[i] = baotree.HashChunk(content[start:start+baotree.ChunkSize], baotree.NotRoot)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return baotree.Hash{}, err
	}

	for i := 0; i < leadingChunks; i++ {
		start := uint64(i) * baotree.ChunkSize
		if err := w.commitHashedChunk(content[start:start+baotree.ChunkSize], hashes[i]); err != nil {
			return baotree.Hash{}, err
		}
	}

	lastStart := uint64(leadingChunks) * baotree.ChunkSize
	if _, err := w.Write(content[lastStart:]); err != nil {
		return baotree.Hash{}, err
	}

	return w.Finish()
}

// commitHashedChunk is commitChunk with the hash already computed, so the
// parallel path never re-hashes work a pool goroutine already did. The last
// chunk still goes through Finish's own re-hash for the root/non-root
// finalization choice, exactly like the sequential Writer.
func (w *ParallelWriter) commitHashedChunk(chunk []byte, hash baotree.Hash) error {
	start := w.fileEnd
	if !w.outboard {
		if err := w.writeAt(start, chunk); err != nil {
			return err
		}
		w.fileEnd += uint64(len(chunk))
	}
	w.totalLen += uint64(len(chunk))

	w.stack = append(w.stack, entry{hash: hash, length: uint64(len(chunk)), start: start})

	for len(w.stack) >= 2 && w.stack[len(w.stack)-1].length == w.stack[len(w.stack)-2].length {
		if err := w.mergeTop(baotree.NotRoot); err != nil {
			return err
		}
	}
	return nil
}
