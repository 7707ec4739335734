package store

import (
	"github.com/google/btree"
	"github.com/iov-one/msig/errors"
)

// cacheWrap collects writes in a btree and applies them to the parent store
// in key order on Write.
type cacheWrap struct {
	parent  KVStore
	pending *btree.BTree
	free    *btree.FreeList
}

var _ KVCacheWrap = (*cacheWrap)(nil)

func newCacheWrap(parent KVStore, free *btree.FreeList) *cacheWrap {
	return &cacheWrap{
		parent:  parent,
		pending: btree.NewWithFreeList(degree, free),
		free:    free,
	}
}

func (c *cacheWrap) Get(key []byte) ([]byte, error) {
	res := c.pending.Get(lookup(key))
	if res == nil {
		return c.parent.Get(key)
	}
	it := res.(item)
	if it.deleted {
		return nil, nil
	}
	return clone(it.value), nil
}

func (c *cacheWrap) Has(key []byte) (bool, error) {
	res := c.pending.Get(lookup(key))
	if res == nil {
		return c.parent.Has(key)
	}
	return !res.(item).deleted, nil
}

func (c *cacheWrap) Set(key, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	c.pending.ReplaceOrInsert(item{key: clone(key), value: clone(value)})
	return nil
}

func (c *cacheWrap) Delete(key []byte) error {
	c.pending.ReplaceOrInsert(item{key: clone(key), deleted: true})
	return nil
}

// CacheWrap opens a nested savepoint.
func (c *cacheWrap) CacheWrap() KVCacheWrap {
	return newCacheWrap(c, c.free)
}

// Write applies all pending writes to the parent. When the parent fails,
// the writes applied so far are not reverted.
func (c *cacheWrap) Write() error {
	var err error
	c.pending.Ascend(func(i btree.Item) bool {
		it := i.(item)
		if it.deleted {
			err = c.parent.Delete(it.key)
		} else {
			err = c.parent.Set(it.key, it.value)
		}
		if err != nil {
			err = errors.Wrapf(errors.ErrDatabase, "write %X: %s", it.key, err)
		}
		return err == nil
	})
	reset(c.pending)
	return err
}

func (c *cacheWrap) Discard() {
	reset(c.pending)
}
