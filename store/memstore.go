package store

import (
	"github.com/google/btree"
)

// MemStore keeps records in memory, ordered by key. There is no persistence.
type MemStore struct {
	tree *btree.BTree
	free *btree.FreeList
}

var _ CacheableKVStore = (*MemStore)(nil)

// NewMemStore returns an empty store.
func NewMemStore() *MemStore {
	free := btree.NewFreeList(btree.DefaultFreeListSize)
	return &MemStore{
		tree: btree.NewWithFreeList(degree, free),
		free: free,
	}
}

// Get returns a copy of the stored value.
func (s *MemStore) Get(key []byte) ([]byte, error) {
	res := s.tree.Get(lookup(key))
	if res == nil {
		return nil, nil
	}
	return clone(res.(item).value), nil
}

func (s *MemStore) Has(key []byte) (bool, error) {
	return s.tree.Has(lookup(key)), nil
}

func (s *MemStore) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	s.tree.ReplaceOrInsert(item{key: clone(key), value: clone(value)})
	return nil
}

func (s *MemStore) Delete(key []byte) error {
	s.tree.Delete(lookup(key))
	return nil
}

// Len returns the number of stored records.
func (s *MemStore) Len() int {
	return s.tree.Len()
}

// Keys returns all keys in ascending order.
func (s *MemStore) Keys() [][]byte {
	keys := make([][]byte, 0, s.tree.Len())
	s.tree.Ascend(func(i btree.Item) bool {
		keys = append(keys, clone(i.(item).key))
		return true
	})
	return keys
}

func (s *MemStore) CacheWrap() KVCacheWrap {
	return newCacheWrap(s, s.free)
}
