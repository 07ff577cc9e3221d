package main

import "flag"

// flagSet wraps flag.FlagSet purely to construct it with ContinueOnError
// behavior, so callers (subcommand handlers) control error handling
// themselves instead of flag's default os.Exit.
type flagSet struct {
	*flag.FlagSet
}

func newCustomFlagSet(name string) *flagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	return &flagSet{FlagSet: fs}
}
