package msig

// The host owns persistence. Account records reach the core through the
// interfaces below, keyed by account address.

// ReadOnlyKVStore gives read access to stored records.
type ReadOnlyKVStore interface {
	// Get returns nil when the key does not exist.
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// SetDeleter is the write side of a store.
type SetDeleter interface {
	Set(key, value []byte) error
	Delete(key []byte) error
}

// KVStore is the storage every operation runs against. Implementations must
// not retain the key and value slices given to Set.
type KVStore interface {
	ReadOnlyKVStore
	SetDeleter
}

// CacheableKVStore can open a savepoint on top of itself.
type CacheableKVStore interface {
	KVStore
	CacheWrap() KVCacheWrap
}

// KVCacheWrap is a savepoint. Reads see both the pending writes and the
// underlying store. Write applies pending writes to the underlying store,
// Discard drops them. Either call empties the savepoint.
type KVCacheWrap interface {
	CacheableKVStore
	Write() error
	Discard()
}

// Marshaller is anything that can be represented in binary.
type Marshaller interface {
	Marshal() ([]byte, error)
}
