package gconf

import (
	"github.com/iov-one/msig"
	"github.com/iov-one/msig/errors"
)

// keyPrefix separates configuration singletons from account records, whose
// keys are 32 byte addresses.
const keyPrefix = "_c:"

// genesisSection is the genesis options entry holding configurations of all
// packages.
const genesisSection = "conf"

// ReadStore is the read half of msig.KVStore.
type ReadStore interface {
	Get([]byte) ([]byte, error)
}

// Store can read and write a configuration singleton.
type Store interface {
	ReadStore
	Set([]byte, []byte) error
}

// Configuration is the contract of a package configuration object.
type Configuration interface {
	ValidMarshaler
	Unmarshaler
}

// ValidMarshaler is a configuration that is checked before it is encoded.
type ValidMarshaler interface {
	msig.Marshaller
	msig.Validater
}

// Unmarshaler decodes a configuration object in place.
type Unmarshaler interface {
	Unmarshal([]byte) error
}

// Key returns the database key of the pkg configuration.
func Key(pkg string) []byte {
	return []byte(keyPrefix + pkg)
}

// Save writes src as the pkg configuration. An invalid configuration is
// never written.
func Save(db Store, pkg string, src ValidMarshaler) error {
	if err := src.Validate(); err != nil {
		return errors.Wrapf(err, "invalid %s configuration", pkg)
	}
	raw, err := src.Marshal()
	if err != nil {
		return errors.Wrapf(err, "cannot encode %s configuration", pkg)
	}
	return db.Set(Key(pkg), raw)
}

// Load decodes the pkg configuration into dst. When nothing was saved yet,
// ErrNotFound is returned and dst is left untouched.
func Load(db ReadStore, pkg string, dst Unmarshaler) error {
	raw, err := db.Get(Key(pkg))
	switch {
	case err != nil:
		return errors.Wrapf(err, "cannot read %s configuration", pkg)
	case raw == nil:
		return errors.Wrapf(errors.ErrNotFound, "%s configuration", pkg)
	}
	if err := dst.Unmarshal(raw); err != nil {
		return errors.Wrapf(err, "cannot decode %s configuration", pkg)
	}
	return nil
}

// InitConfig decodes genesis entry conf.<pkg> into conf and saves it.
// Missing entry fails with ErrNotFound.
func InitConfig(db Store, opts msig.Options, pkg string, conf Configuration) error {
	var byPkg msig.Options
	if err := opts.ReadOptions(genesisSection, &byPkg); err != nil {
		return err
	}
	if _, ok := byPkg[pkg]; !ok {
		return errors.Wrapf(errors.ErrNotFound, "genesis has no %s configuration", pkg)
	}
	if err := byPkg.ReadOptions(pkg, conf); err != nil {
		return err
	}
	return Save(db, pkg, conf)
}
