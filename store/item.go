package store

import (
	"bytes"

	"github.com/google/btree"
)

// degree of every btree allocated by this package.
const degree = 8

// item is a btree entry ordered by key. Within a savepoint a deleted item
// shadows the value held by the underlying store.
type item struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = item{}

func (i item) Less(than btree.Item) bool {
	return bytes.Compare(i.key, than.(item).key) < 0
}

func lookup(key []byte) item {
	return item{key: key}
}

func clone(b []byte) []byte {
	if b == nil {
		return nil
	}
	c := make([]byte, len(b))
	copy(c, b)
	return c
}

// reset drops all items, returning their nodes to the free list.
func reset(t *btree.BTree) {
	for t.DeleteMin() != nil {
	}
}
