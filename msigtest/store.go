package msigtest

import (
	"github.com/iov-one/msig"
	"github.com/iov-one/msig/store"
)

// MemStore returns an in-memory, cache wrappable store.
func MemStore() msig.CacheableKVStore {
	return store.NewMemStore()
}
