package store

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemStore(t *testing.T) {
	db := NewMemStore()
	k, v := []byte("french"), []byte("fry")
	assertGet(t, db, k, nil)

	require.NoError(t, db.Set(k, v))
	assertGet(t, db, k, v)

	// Stored values must not alias caller memory.
	v[0] = 'F'
	assertGet(t, db, k, []byte("fry"))
	got, err := db.Get(k)
	require.NoError(t, err)
	got[0] = 'X'
	assertGet(t, db, k, []byte("fry"))

	require.NoError(t, db.Set([]byte("apple"), []byte("pie")))
	assert.Equal(t, [][]byte{[]byte("apple"), []byte("french")}, db.Keys())

	require.NoError(t, db.Delete(k))
	assertGet(t, db, k, nil)
	assert.Equal(t, 1, db.Len())
}

func TestCacheWrapWriteAndDiscard(t *testing.T) {
	base := NewMemStore()
	k, v := []byte("french"), []byte("fry")
	require.NoError(t, base.Set(k, v))

	// writes are only visible in the savepoint until written
	cache := base.CacheWrap()
	assertGet(t, cache, k, v)
	k2, v2 := []byte("LA"), []byte("Dodgers")
	require.NoError(t, cache.Set(k2, v2))
	assertGet(t, cache, k2, v2)
	assertGet(t, base, k2, nil)

	require.NoError(t, cache.Write())
	assertGet(t, base, k, v)
	assertGet(t, base, k2, v2)

	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	require.NoError(t, c2.Set(k3, v3))
	require.NoError(t, c2.Delete(k))
	c2.Discard()
	assertGet(t, base, k, v)
	assertGet(t, base, k3, nil)

	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	assertGet(t, c3, k, nil)
	require.NoError(t, c3.Write())
	assertGet(t, base, k, nil)
	assertGet(t, base, k2, v2)
	assert.Equal(t, 1, base.Len())

	// A written savepoint is empty and can be reused.
	require.NoError(t, c3.Set(k3, v3))
	require.NoError(t, c3.Write())
	assertGet(t, base, k3, v3)
}

func TestCacheWrapConflicts(t *testing.T) {
	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	type op struct {
		Key, Value []byte
		Delete     bool
	}
	type pair struct {
		Key, Value []byte
	}
	apply := func(t testing.TB, db KVStore, ops []op) {
		t.Helper()
		for _, o := range ops {
			if o.Delete {
				require.NoError(t, db.Delete(o.Key))
			} else {
				require.NoError(t, db.Set(o.Key, o.Value))
			}
		}
	}

	cases := map[string]struct {
		ParentOps     []op
		ChildOps      []op
		ParentQueries []pair
		ChildQueries  []pair
	}{
		"overwrite one, delete another, add a third": {
			ParentOps:     []op{{Key: ks[1], Value: vs[1]}, {Key: ks[2], Value: vs[2]}},
			ChildOps:      []op{{Key: ks[1], Value: vs[11]}, {Key: ks[3], Value: vs[7]}, {Key: ks[2], Delete: true}},
			ParentQueries: []pair{{ks[1], vs[1]}, {ks[2], vs[2]}, {ks[3], nil}},
			ChildQueries:  []pair{{ks[1], vs[11]}, {ks[2], nil}, {ks[3], vs[7]}},
		},
		"delete and set again": {
			ParentOps:     []op{{Key: ks[4], Value: vs[4]}},
			ChildOps:      []op{{Key: ks[4], Delete: true}, {Key: ks[4], Value: vs[14]}},
			ParentQueries: []pair{{ks[4], vs[4]}},
			ChildQueries:  []pair{{ks[4], vs[14]}},
		},
		"set and delete again": {
			ParentOps:     nil,
			ChildOps:      []op{{Key: ks[5], Value: vs[5]}, {Key: ks[5], Delete: true}},
			ParentQueries: []pair{{ks[5], nil}},
			ChildQueries:  []pair{{ks[5], nil}},
		},
	}

	for testName, tc := range cases {
		t.Run(testName, func(t *testing.T) {
			parent := NewMemStore().CacheWrap()
			apply(t, parent, tc.ParentOps)

			child := parent.CacheWrap()
			apply(t, child, tc.ChildOps)

			for _, q := range tc.ParentQueries {
				assertGet(t, parent, q.Key, q.Value)
			}
			for _, q := range tc.ChildQueries {
				assertGet(t, child, q.Key, q.Value)
			}

			require.NoError(t, child.Write())
			for _, q := range tc.ChildQueries {
				assertGet(t, parent, q.Key, q.Value)
			}
		})
	}
}

func assertGet(t testing.TB, db ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := db.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	has, err := db.Has(key)
	require.NoError(t, err)
	assert.Equal(t, want != nil, has)
}

// randKeys returns count random byte slices of given length.
func randKeys(count, length int) [][]byte {
	res := make([][]byte, count)
	for i := range res {
		res[i] = make([]byte, length)
		_, _ = rand.Read(res[i])
	}
	return res
}
