package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"syscall"
)

// openInput opens path for reading. "" or "-" means stdin (the stdin
// passed into run, not os.Stdin directly, so tests can substitute one).
func openInput(path string, stdin io.Reader) (io.ReadCloser, error) {
	if path == "" || path == "-" {
		return io.NopCloser(stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// openSeekableInput opens path for reading and seeking. Stdin can't
// satisfy this, so "-" is rejected here rather than silently degraded.
func openSeekableInput(path string) (*os.File, error) {
	if path == "" || path == "-" {
		return nil, fmt.Errorf("this command needs a real input file, not stdin")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// openOutput opens path for writing. "" or "-" means stdout (the stdout
// passed into run, not os.Stdout directly, so tests can substitute one).
func openOutput(path string, stdout io.Writer) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopWriteCloser{stdout}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

// openSeekableOutput opens path for reading, writing, and seeking -- what
// baoencode.Writer needs to back-patch parent nodes in place. "" or "-"
// doesn't satisfy this (stdout can't be seeked), so callers fall back to
// the whole-buffer encoder in that case instead of calling this.
func openSeekableOutput(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return f, nil
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

// isBrokenPipe reports whether err is the downstream-closed-early signal a
// CLI streaming plaintext to something like `head` will see; treated as
// clean EOF rather than a fatal error.
func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
