package msigtest

import (
	"bytes"
	"sort"

	"github.com/gagliardetto/solana-go"
)

// NewKey returns a random public key.
func NewKey() solana.PublicKey {
	return solana.NewWallet().PublicKey()
}

// SortedKeys returns n distinct random keys in ascending byte order, the
// order in which member and vote sets are stored.
func SortedKeys(n int) []solana.PublicKey {
	keys := make([]solana.PublicKey, 0, n)
	seen := make(map[solana.PublicKey]struct{}, n)
	for len(keys) < n {
		k := NewKey()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return bytes.Compare(keys[i][:], keys[j][:]) < 0
	})
	return keys
}

// SeqKey returns a deterministic key with all bytes set to b. Handy when a
// test needs a known ordering without sorting.
func SeqKey(b byte) solana.PublicKey {
	var k solana.PublicKey
	for i := range k {
		k[i] = b
	}
	return k
}
