package msig

import (
	"encoding/json"

	"github.com/iov-one/msig/errors"
)

// Options is the genesis document. Every package reads its own section,
// stored under the package name.
type Options map[string]json.RawMessage

// ReadOptions decodes the section stored under key into obj. A missing
// section is not an error and leaves obj untouched.
func (o Options) ReadOptions(key string, obj interface{}) error {
	raw, ok := o[key]
	if !ok || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "genesis section %q: %s", key, err)
	}
	return nil
}

// Initializer loads the genesis section of a package into the store.
type Initializer interface {
	FromGenesis(Options, KVStore) error
}

// Validater is implemented by every stored model.
type Validater interface {
	Validate() error
}
