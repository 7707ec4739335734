package orm

import (
	"fmt"
	"regexp"

	"github.com/iov-one/msig"
	"github.com/iov-one/msig/errors"
)

var (
	isBucketName = regexp.MustCompile(`^[a-z_]{3,10}$`).MatchString
)

// Account is implemented by any record that can be stored using an
// AccountBucket.
type Account interface {
	msig.Marshaller
	msig.Validater

	// UnmarshalAccount loads the state from an allocated account. Unlike
	// Unmarshal it must accept zero padding after the encoded record.
	UnmarshalAccount([]byte) error
}

// AccountBucket is a prefixed subspace of the DB that holds allocated
// account records.
//
// This is a generic building block that should generally be embedded in a
// type-safe wrapper to ensure all data is the same type.
type AccountBucket struct {
	name   string
	prefix []byte
}

// NewAccountBucket creates a bucket to store accounts. Name must be 3 to 10
// lower case letters or underscores.
func NewAccountBucket(name string) AccountBucket {
	if !isBucketName(name) {
		panic(fmt.Sprintf("Illegal bucket: %s", name))
	}
	return AccountBucket{
		name:   name,
		prefix: append([]byte(name), ':'),
	}
}

// Name returns the name of this bucket.
func (b AccountBucket) Name() string {
	return b.name
}

// DBKey is the full key we store in the db, including prefix.
// We copy into a new array rather than use append, as we don't
// want consecutive calls to overwrite the same byte array.
func (b AccountBucket) DBKey(addr []byte) []byte {
	l := len(b.prefix)
	out := make([]byte, l+len(addr))
	copy(out, b.prefix)
	copy(out[l:], addr)
	return out
}

// Has returns true if an account with given address was allocated.
func (b AccountBucket) Has(db msig.ReadOnlyKVStore, addr []byte) (bool, error) {
	return db.Has(b.DBKey(addr))
}

// Space returns the number of bytes allocated for the account with given
// address. ErrNotFound is returned if the account does not exist.
func (b AccountBucket) Space(db msig.ReadOnlyKVStore, addr []byte) (int, error) {
	raw, err := b.raw(db, addr)
	if err != nil {
		return 0, err
	}
	return len(raw), nil
}

// Create allocates an account of given space and stores the record in it.
// ErrDuplicate is returned if the address is already in use.
func (b AccountBucket) Create(db msig.KVStore, addr []byte, space int, a Account) error {
	key := b.DBKey(addr)
	switch ok, err := db.Has(key); {
	case err != nil:
		return errors.Wrap(err, "has")
	case ok:
		return errors.Wrapf(errors.ErrDuplicate, "%s account %X", b.name, addr)
	}
	raw, err := encode(a, space)
	if err != nil {
		return err
	}
	if err := db.Set(key, raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Load reads the account with given address into dest. ErrNotFound is
// returned if the account does not exist.
func (b AccountBucket) Load(db msig.ReadOnlyKVStore, addr []byte, dest Account) error {
	raw, err := b.raw(db, addr)
	if err != nil {
		return err
	}
	if err := dest.UnmarshalAccount(raw); err != nil {
		return errors.Wrapf(err, "%s account %X", b.name, addr)
	}
	return nil
}

// Save overwrites the record of an existing account. The allocation is not
// changed. If the encoded record does not fit, ErrInsufficientSpace is
// returned and Realloc must be called first.
func (b AccountBucket) Save(db msig.KVStore, addr []byte, a Account) error {
	space, err := b.Space(db, addr)
	if err != nil {
		return err
	}
	raw, err := encode(a, space)
	if err != nil {
		return errors.Wrapf(err, "%s account %X", b.name, addr)
	}
	if err := db.Set(b.DBKey(addr), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// Realloc changes the space allocated for an account. Growing pads the
// stored value with zeros. Shrinking is allowed only if no stored data is
// cut off, otherwise ErrInsufficientSpace is returned.
func (b AccountBucket) Realloc(db msig.KVStore, addr []byte, space int) error {
	raw, err := b.raw(db, addr)
	if err != nil {
		return err
	}
	switch {
	case space == len(raw):
		return nil
	case space > len(raw):
		grown := make([]byte, space)
		copy(grown, raw)
		raw = grown
	default:
		for _, c := range raw[space:] {
			if c != 0 {
				return errors.Wrapf(ErrInsufficientSpace, "cannot shrink %s account to %d bytes", b.name, space)
			}
		}
		raw = raw[:space]
	}
	if err := db.Set(b.DBKey(addr), raw); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

func (b AccountBucket) raw(db msig.ReadOnlyKVStore, addr []byte) ([]byte, error) {
	raw, err := db.Get(b.DBKey(addr))
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	if raw == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "%s account %X", b.name, addr)
	}
	return raw, nil
}

// encode validates and serializes given account, padding the result with
// zeros up to space bytes.
func encode(a Account, space int) ([]byte, error) {
	if err := a.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid model")
	}
	raw, err := a.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal")
	}
	if len(raw) > space {
		return nil, errors.Wrapf(ErrInsufficientSpace, "need %d bytes, %d allocated", len(raw), space)
	}
	out := make([]byte, space)
	copy(out, raw)
	return out, nil
}
