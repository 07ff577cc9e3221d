// Command bao hashes, encodes, decodes, and slices files using the Bao
// verified streaming tree format.
//
// Usage:
//
//	bao hash [--encoded] [input]
//	bao encode [input] [output]
//	bao decode [--start=N] <hash-hex> [input] [output]
//	bao slice <start> <len> [input] [output]
//	bao decode-slice <hash-hex> <start> <len> [input] [output]
//	bao -version
//
// "-" (or an omitted input/output) means stdin/stdout. Flags must come
// before the positional arguments; anything after the first positional
// argument is taken as a positional argument.
package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/baoproj/bao/baodecode"
	"github.com/baoproj/bao/baoencode"
	"github.com/baoproj/bao/baoio"
	"github.com/baoproj/bao/baoslice"
	"github.com/baoproj/bao/baotree"
	"github.com/baoproj/bao/internal/baolog"
)

// Build-time version info, overridable with ldflags:
//
//	go build -ldflags "-X main.version=v0.2.0 -X main.commit=abc1234"
var (
	version = "v0.1.0-dev"
	commit  = "unknown"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// run is the actual entry point, returning an exit code. It takes explicit
// stdin/stdout/stderr so it can be tested in isolation.
func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "usage: bao <hash|encode|decode|slice|decode-slice> [args...]")
		return 2
	}

	log := baolog.Default().Module("cmd")

	switch args[0] {
	case "-version", "--version":
		fmt.Fprintf(stdout, "bao %s (commit %s)\n", version, commit)
		return 0
	case "hash":
		return cmdHash(args[1:], stdin, stdout, stderr, log)
	case "encode":
		return cmdEncode(args[1:], stdin, stdout, stderr, log)
	case "decode":
		return cmdDecode(args[1:], stdin, stdout, stderr, log)
	case "slice":
		return cmdSlice(args[1:], stdin, stdout, stderr, log)
	case "decode-slice":
		return cmdDecodeSlice(args[1:], stdin, stdout, stderr, log)
	default:
		fmt.Fprintf(stderr, "bao: unknown command %q\n", args[0])
		return 2
	}
}

func cmdHash(args []string, stdin io.Reader, stdout, stderr io.Writer, log *baolog.Logger) int {
	fs := newCustomFlagSet("bao hash")
	encoded := fs.Bool("encoded", false, "input is already a combined Bao encoding")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	in, err := openInput(fs.Arg(0), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer in.Close()

	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}

	var hash baotree.Hash
	if *encoded {
		hash, _, err = baodecode.HashFromEncoded(data)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
	} else {
		hash = baoencode.Hash(data)
	}

	log.Debug("computed root hash", "bytes", len(data), "encoded", *encoded)
	fmt.Fprintln(stdout, hex.EncodeToString(hash[:]))
	return 0
}

func cmdEncode(args []string, stdin io.Reader, stdout, stderr io.Writer, log *baolog.Logger) int {
	fs := newCustomFlagSet("bao encode")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	inPath := fs.Arg(0)
	outPath := fs.Arg(1)

	in, err := openInput(inPath, stdin)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer in.Close()

	// A streaming Writer needs to seek its output to back-patch parent
	// nodes; that only works against a real file, not stdout.
	if outPath != "" && outPath != "-" {
		out, err := openSeekableOutput(outPath)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		defer out.Close()

		w, err := baoencode.NewWriter(out)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		if _, err := io.Copy(w, in); err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return 1
		}
		hash, err := w.Finish()
		if err != nil {
			fmt.Fprintf(stderr, "encode: %v\n", err)
			return 1
		}
		log.Debug("encoded to file", "root", hex.EncodeToString(hash[:]))
		fmt.Fprintln(stderr, hex.EncodeToString(hash[:]))
		return 0
	}

	data, err := io.ReadAll(in)
	if err != nil {
		fmt.Fprintf(stderr, "read input: %v\n", err)
		return 1
	}
	hash, encoded := baoencode.EncodeToSlice(data)

	out, err := openOutput(outPath, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer out.Close()

	if _, err := out.Write(encoded); err != nil {
		if isBrokenPipe(err) {
			return 0
		}
		fmt.Fprintf(stderr, "write output: %v\n", err)
		return 1
	}
	log.Debug("encoded to stdout", "root", hex.EncodeToString(hash[:]))
	fmt.Fprintln(stderr, hex.EncodeToString(hash[:]))
	return 0
}

func cmdDecode(args []string, stdin io.Reader, stdout, stderr io.Writer, log *baolog.Logger) int {
	fs := newCustomFlagSet("bao decode")
	start := fs.Uint64("start", 0, "plaintext offset to start decoding from")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	if fs.NArg() < 1 {
		fmt.Fprintln(stderr, "bao decode: missing hash argument")
		return 2
	}
	hash, err := parseHashArg(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}

	inPath := fs.Arg(1)
	outPath := fs.Arg(2)

	var reader *baoio.Reader
	if *start > 0 {
		f, err := openSeekableInput(inPath)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		defer f.Close()
		reader = baoio.NewReader(f, hash)
		if _, err := reader.Seek(int64(*start), io.SeekStart); err != nil {
			fmt.Fprintf(stderr, "seek: %v\n", err)
			return 1
		}
	} else {
		in, err := openInput(inPath, stdin)
		if err != nil {
			fmt.Fprintf(stderr, "%v\n", err)
			return 1
		}
		defer in.Close()
		reader = baoio.NewReader(in, hash)
	}

	out, err := openOutput(outPath, stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer out.Close()

	if _, err := io.Copy(out, reader); err != nil {
		if isBrokenPipe(err) {
			return 0
		}
		fmt.Fprintf(stderr, "decode: %v\n", err)
		return 1
	}
	log.Debug("decoded and verified", "start", *start)
	return 0
}

func cmdSlice(args []string, stdin io.Reader, stdout, stderr io.Writer, log *baolog.Logger) int {
	fs := newCustomFlagSet("bao slice")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	if fs.NArg() < 2 {
		fmt.Fprintln(stderr, "bao slice: missing start/len arguments")
		return 2
	}
	start, err := strconv.ParseUint(fs.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "bao slice: invalid start: %v\n", err)
		return 2
	}
	length, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "bao slice: invalid len: %v\n", err)
		return 2
	}

	in, err := openSeekableInput(fs.Arg(2))
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer in.Close()

	out, err := openOutput(fs.Arg(3), stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer out.Close()

	ex := baoslice.NewExtractor(in, start, length)
	n, err := ex.WriteTo(out)
	if err != nil {
		if isBrokenPipe(err) {
			return 0
		}
		fmt.Fprintf(stderr, "slice: %v\n", err)
		return 1
	}
	log.Debug("extracted slice", "start", start, "len", length, "bytes", n)
	return 0
}

func cmdDecodeSlice(args []string, stdin io.Reader, stdout, stderr io.Writer, log *baolog.Logger) int {
	fs := newCustomFlagSet("bao decode-slice")
	if err := fs.Parse(args); err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	if fs.NArg() < 3 {
		fmt.Fprintln(stderr, "bao decode-slice: missing hash/start/len arguments")
		return 2
	}
	hash, err := parseHashArg(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 2
	}
	start, err := strconv.ParseUint(fs.Arg(1), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "bao decode-slice: invalid start: %v\n", err)
		return 2
	}
	length, err := strconv.ParseUint(fs.Arg(2), 10, 64)
	if err != nil {
		fmt.Fprintf(stderr, "bao decode-slice: invalid len: %v\n", err)
		return 2
	}

	in, err := openInput(fs.Arg(3), stdin)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer in.Close()

	out, err := openOutput(fs.Arg(4), stdout)
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return 1
	}
	defer out.Close()

	sr := baoslice.NewReader(in, hash, start, length)
	if _, err := io.Copy(out, sr); err != nil {
		if isBrokenPipe(err) {
			return 0
		}
		fmt.Fprintf(stderr, "decode-slice: %v\n", err)
		return 1
	}
	log.Debug("decoded slice", "start", start, "len", length)
	return 0
}
