package multisig

import (
	"encoding/binary"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
)

// Seeds used to derive program addresses. Every address is derived from the
// prefix, the parent identity, an index and the kind of the account.
var (
	seedPrefix      = []byte("squad")
	seedMultisig    = []byte("multisig")
	seedTransaction = []byte("transaction")
	seedInstruction = []byte("instruction")
	seedAuthority   = []byte("authority")
)

// MultisigAddress returns the address of the multisig created with given key
// and the bump of that address.
func MultisigAddress(programID, createKey solana.PublicKey) (solana.PublicKey, uint8, error) {
	return findAddress(programID, seedPrefix, createKey[:], seedMultisig)
}

// TransactionAddress returns the address of the transaction with given index.
func TransactionAddress(programID, ms solana.PublicKey, index uint32) (solana.PublicKey, uint8, error) {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)
	return findAddress(programID, seedPrefix, ms[:], idx[:], seedTransaction)
}

// InstructionAddress returns the address of the instruction at given
// position of the transaction.
func InstructionAddress(programID, tx solana.PublicKey, index uint8) (solana.PublicKey, uint8, error) {
	return findAddress(programID, seedPrefix, tx[:], []byte{index}, seedInstruction)
}

// AuthorityAddress returns the address of the authority with given index.
// Authority 0 is reserved for the multisig itself, 1 is the default vault.
func AuthorityAddress(programID, ms solana.PublicKey, index uint32) (solana.PublicKey, uint8, error) {
	var idx [4]byte
	binary.LittleEndian.PutUint32(idx[:], index)
	return findAddress(programID, seedPrefix, ms[:], idx[:], seedAuthority)
}

func findAddress(programID solana.PublicKey, seeds ...[]byte) (solana.PublicKey, uint8, error) {
	addr, bump, err := solana.FindProgramAddress(seeds, programID)
	if err != nil {
		return solana.PublicKey{}, 0, errors.Wrapf(errors.ErrInput, "program address: %s", err)
	}
	return addr, bump, nil
}
