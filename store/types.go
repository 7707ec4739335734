package store

import "github.com/iov-one/msig"

// Aliases so that store users do not have to import the root package.
type (
	ReadOnlyKVStore  = msig.ReadOnlyKVStore
	SetDeleter       = msig.SetDeleter
	KVStore          = msig.KVStore
	CacheableKVStore = msig.CacheableKVStore
	KVCacheWrap      = msig.KVCacheWrap
)
