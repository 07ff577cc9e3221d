package main

import (
	"encoding/hex"
	"strings"

	"github.com/baoproj/bao/baotree"
)

// parseHashArg parses a hash CLI argument into a baotree.Hash, accepting
// both plain hex and a "0x"-prefixed form a user might paste from
// elsewhere. go-ethereum's hexutil would do this, but it isn't worth
// importing that whole module just for this, so it's a few lines of
// encoding/hex plus a trim.
func parseHashArg(s string) (baotree.Hash, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	decoded, err := hex.DecodeString(s)
	if err != nil || len(decoded) != baotree.HashSize {
		return baotree.Hash{}, baotree.ErrInvalidHashArgument
	}
	var h baotree.Hash
	copy(h[:], decoded)
	return h, nil
}
