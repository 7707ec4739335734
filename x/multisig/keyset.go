package multisig

import (
	"bytes"
	"sort"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
)

// KeySet is an ordered collection of unique public keys. Keys are kept in
// ascending byte order so that lookups are binary searches and the
// serialized form is deterministic.
//
// The zero value is an empty set.
type KeySet []solana.PublicKey

// NewKeySet returns a set containing given keys. ErrDuplicateMember is
// returned if any key is present more than once.
func NewKeySet(keys ...solana.PublicKey) (KeySet, error) {
	s := make(KeySet, len(keys))
	copy(s, keys)
	sort.Slice(s, func(i, j int) bool { return less(s[i], s[j]) })
	for i := 1; i < len(s); i++ {
		if s[i] == s[i-1] {
			return nil, errors.Wrapf(ErrDuplicateMember, "key %s", s[i])
		}
	}
	return s, nil
}

// Find returns the position of the key in the set. If the key is not present,
// the position it would be inserted at is returned together with false.
func (s KeySet) Find(key solana.PublicKey) (int, bool) {
	i := sort.Search(len(s), func(i int) bool {
		return bytes.Compare(s[i][:], key[:]) >= 0
	})
	return i, i < len(s) && s[i] == key
}

// Contains returns true if given key belongs to this set.
func (s KeySet) Contains(key solana.PublicKey) bool {
	_, ok := s.Find(key)
	return ok
}

// Insert adds the key at its sorted position. It returns false and leaves the
// set unchanged if the key is already present.
func (s *KeySet) Insert(key solana.PublicKey) bool {
	i, ok := s.Find(key)
	if ok {
		return false
	}
	*s = append(*s, solana.PublicKey{})
	copy((*s)[i+1:], (*s)[i:])
	(*s)[i] = key
	return true
}

// Remove deletes the key from the set. It returns false if the key was not
// present.
func (s *KeySet) Remove(key solana.PublicKey) bool {
	i, ok := s.Find(key)
	if !ok {
		return false
	}
	*s = append((*s)[:i], (*s)[i+1:]...)
	return true
}

// RemoveAt deletes the key at given position and returns it.
func (s *KeySet) RemoveAt(pos int) (solana.PublicKey, error) {
	if pos < 0 || pos >= len(*s) {
		return solana.PublicKey{}, errors.Wrapf(errors.ErrInput, "position %d out of range [0, %d)", pos, len(*s))
	}
	key := (*s)[pos]
	*s = append((*s)[:pos], (*s)[pos+1:]...)
	return key, nil
}

// Clone returns a copy of the set that does not share memory with the
// original.
func (s KeySet) Clone() KeySet {
	if s == nil {
		return nil
	}
	c := make(KeySet, len(s))
	copy(c, s)
	return c
}

// Validate returns an error if the set is not sorted or contains duplicates.
func (s KeySet) Validate() error {
	for i := 1; i < len(s); i++ {
		switch c := bytes.Compare(s[i-1][:], s[i][:]); {
		case c == 0:
			return errors.Wrapf(ErrDuplicateMember, "key %s", s[i])
		case c > 0:
			return errors.Wrapf(errors.ErrModel, "key %d is out of order", i)
		}
	}
	return nil
}

func less(a, b solana.PublicKey) bool {
	return bytes.Compare(a[:], b[:]) < 0
}
