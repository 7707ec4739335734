package multisig

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig"
	"github.com/iov-one/msig/errors"
	"github.com/iov-one/msig/orm"
)

// MultisigBucket is a type-safe wrapper around orm.AccountBucket
type MultisigBucket struct {
	orm.AccountBucket
}

// NewMultisigBucket initializes a MultisigBucket with default name
func NewMultisigBucket() MultisigBucket {
	return MultisigBucket{orm.NewAccountBucket("multisig")}
}

// Create allocates an account fitting the multisig exactly.
func (b MultisigBucket) Create(db msig.KVStore, addr solana.PublicKey, ms *Multisig) error {
	return b.AccountBucket.Create(db, addr[:], ms.Size(), ms)
}

// Get loads the multisig stored under given address.
func (b MultisigBucket) Get(db msig.ReadOnlyKVStore, addr solana.PublicKey) (*Multisig, error) {
	var ms Multisig
	if err := b.Load(db, addr[:], &ms); err != nil {
		return nil, err
	}
	return &ms, nil
}

// Put saves the multisig, growing its account first if the member set no
// longer fits.
func (b MultisigBucket) Put(db msig.KVStore, addr solana.PublicKey, ms *Multisig) error {
	space, err := b.Space(db, addr[:])
	if err != nil {
		return err
	}
	if need := ms.Size(); need > space {
		if err := b.Realloc(db, addr[:], need); err != nil {
			return errors.Wrap(err, "realloc")
		}
	}
	return b.Save(db, addr[:], ms)
}

// TransactionBucket is a type-safe wrapper around orm.AccountBucket
type TransactionBucket struct {
	orm.AccountBucket
}

// NewTransactionBucket initializes a TransactionBucket with default name
func NewTransactionBucket() TransactionBucket {
	return TransactionBucket{orm.NewAccountBucket("ms_tx")}
}

// Create allocates an account that fits every vote members of a multisig of
// given size can cast.
func (b TransactionBucket) Create(db msig.KVStore, addr solana.PublicKey, members int, tx *Transaction) error {
	return b.AccountBucket.Create(db, addr[:], TransactionInitialSize(members), tx)
}

// Get loads the transaction stored under given address.
func (b TransactionBucket) Get(db msig.ReadOnlyKVStore, addr solana.PublicKey) (*Transaction, error) {
	var tx Transaction
	if err := b.Load(db, addr[:], &tx); err != nil {
		return nil, err
	}
	return &tx, nil
}

// Put saves the transaction within its allocation.
func (b TransactionBucket) Put(db msig.KVStore, addr solana.PublicKey, tx *Transaction) error {
	return b.Save(db, addr[:], tx)
}

// InstructionBucket is a type-safe wrapper around orm.AccountBucket
type InstructionBucket struct {
	orm.AccountBucket
}

// NewInstructionBucket initializes an InstructionBucket with default name
func NewInstructionBucket() InstructionBucket {
	return InstructionBucket{orm.NewAccountBucket("ms_ix")}
}

// Create allocates an account fitting the instruction exactly.
func (b InstructionBucket) Create(db msig.KVStore, addr solana.PublicKey, ix *Instruction) error {
	return b.AccountBucket.Create(db, addr[:], ix.Size(), ix)
}

// Get loads the instruction stored under given address.
func (b InstructionBucket) Get(db msig.ReadOnlyKVStore, addr solana.PublicKey) (*Instruction, error) {
	var ix Instruction
	if err := b.Load(db, addr[:], &ix); err != nil {
		return nil, err
	}
	return &ix, nil
}
