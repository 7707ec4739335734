package multisig

import (
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
	"github.com/iov-one/msig/gconf"
)

const packageName = "msig"

// Configuration is the runtime configuration of the multisig extension.
type Configuration struct {
	// ProgramID is the identity of the multisig program. It seeds every
	// derived address and instructions addressed to it are applied
	// internally.
	ProgramID solana.PublicKey `json:"program_id"`
	// MaxInstructions limits how many instructions a transaction can carry.
	MaxInstructions uint8 `json:"max_instructions"`
	// MaxMembers limits the size of a multisig member set.
	MaxMembers uint16 `json:"max_members"`
}

var _ gconf.Configuration = (*Configuration)(nil)

// DefaultConfiguration returns the configuration with the widest limits.
func DefaultConfiguration(programID solana.PublicKey) Configuration {
	return Configuration{
		ProgramID:       programID,
		MaxInstructions: math.MaxUint8,
		MaxMembers:      MaxMembers,
	}
}

// Validate ensures the configuration can be used.
func (c *Configuration) Validate() error {
	var errs error
	if c.ProgramID.IsZero() {
		errs = errors.AppendField(errs, "ProgramID", errors.ErrEmpty)
	}
	if c.MaxInstructions == 0 {
		errs = errors.AppendField(errs, "MaxInstructions", errors.ErrEmpty)
	}
	if c.MaxMembers == 0 {
		errs = errors.AppendField(errs, "MaxMembers", errors.ErrEmpty)
	}
	return errs
}

// Marshal returns the borsh representation of the configuration.
func (c *Configuration) Marshal() ([]byte, error) {
	e := newEncoder(keyLen + 1 + 2)
	e.key(c.ProgramID)
	e.u8(c.MaxInstructions)
	e.u16(c.MaxMembers)
	return e.finish("configuration")
}

// Unmarshal loads the configuration from its borsh representation.
func (c *Configuration) Unmarshal(raw []byte) error {
	d := newDecoder(raw)
	var res Configuration
	res.ProgramID = d.key()
	res.MaxInstructions = d.u8()
	res.MaxMembers = d.u16()
	if err := d.finish("configuration", true); err != nil {
		return err
	}
	*c = res
	return nil
}

// LoadConfiguration returns the configuration stored in the database.
func LoadConfiguration(db gconf.ReadStore) (Configuration, error) {
	var conf Configuration
	err := gconf.Load(db, packageName, &conf)
	return conf, err
}

// SaveConfiguration validates and stores the configuration.
func SaveConfiguration(db gconf.Store, conf Configuration) error {
	return gconf.Save(db, packageName, &conf)
}
