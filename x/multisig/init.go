package multisig

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig"
	"github.com/iov-one/msig/errors"
	"github.com/iov-one/msig/gconf"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ msig.Initializer = (*Initializer)(nil)

// FromGenesis will parse the configuration and initial multisigs from genesis
// and save them in the database.
func (*Initializer) FromGenesis(opts msig.Options, kv msig.KVStore) error {
	var conf Configuration
	if err := gconf.InitConfig(kv, opts, packageName, &conf); err != nil {
		return errors.Wrap(err, "init config")
	}

	var multisigs []struct {
		CreateKey solana.PublicKey   `json:"create_key"`
		Threshold uint16             `json:"threshold"`
		Members   []solana.PublicKey `json:"members"`
	}
	if err := opts.ReadOptions(packageName, &multisigs); err != nil {
		return err
	}

	bucket := NewMultisigBucket()
	for i, m := range multisigs {
		if len(m.Members) > int(conf.MaxMembers) {
			return errors.Wrapf(ErrIntegerOverflow, "#%d multisig: %d members", i, len(m.Members))
		}
		addr, bump, err := MultisigAddress(conf.ProgramID, m.CreateKey)
		if err != nil {
			return errors.Wrapf(err, "#%d multisig address", i)
		}
		ms, err := NewMultisig(m.Threshold, m.CreateKey, m.Members, bump)
		if err != nil {
			return errors.Wrapf(err, "#%d multisig", i)
		}
		if err := bucket.Create(kv, addr, ms); err != nil {
			return errors.Wrapf(err, "cannot save #%d multisig", i)
		}
	}
	return nil
}
