package multisig

import (
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
)

// AccountMeta describes how an account is used by an instruction.
type AccountMeta struct {
	PublicKey  solana.PublicKey `json:"pubkey"`
	IsSigner   bool             `json:"is_signer"`
	IsWritable bool             `json:"is_writable"`
}

// IncomingInstruction is the payload of an instruction before it is attached
// to a transaction.
type IncomingInstruction struct {
	ProgramID solana.PublicKey `json:"program_id"`
	Keys      []AccountMeta    `json:"keys"`
	Data      []byte           `json:"data"`
}

// Size returns the exact number of bytes an instruction created from this
// payload needs, excluding the account discriminator. It covers the encoded
// payload and the index, bump and executed fields of the stored record.
func (in IncomingInstruction) Size() int {
	return incomingInstructionLen(len(in.Keys), len(in.Data)) + instructionTrailerLen
}

// Instruction is a deferred call attached to a transaction. It is never
// modified after being attached.
type Instruction struct {
	ProgramID solana.PublicKey
	Keys      []AccountMeta
	Data      []byte
	// InstructionIndex is the 0 based position within the transaction.
	InstructionIndex uint8
	Bump             uint8
	// Executed is deprecated in favor of Transaction.ExecutedIndex and is
	// always false.
	Executed bool
}

// NewInstruction returns an instruction at given position, copying the
// payload.
func NewInstruction(index uint8, in IncomingInstruction, bump uint8) *Instruction {
	keys := make([]AccountMeta, len(in.Keys))
	copy(keys, in.Keys)
	data := make([]byte, len(in.Data))
	copy(data, in.Data)
	return &Instruction{
		ProgramID:        in.ProgramID,
		Keys:             keys,
		Data:             data,
		InstructionIndex: index,
		Bump:             bump,
	}
}

// Incoming returns the payload of this instruction.
func (ix *Instruction) Incoming() IncomingInstruction {
	return IncomingInstruction{
		ProgramID: ix.ProgramID,
		Keys:      ix.Keys,
		Data:      ix.Data,
	}
}

// Native returns the instruction in the shape consumed by the execution
// layer.
func (ix *Instruction) Native() *solana.GenericInstruction {
	accounts := make(solana.AccountMetaSlice, len(ix.Keys))
	for i, k := range ix.Keys {
		accounts[i] = &solana.AccountMeta{
			PublicKey:  k.PublicKey,
			IsSigner:   k.IsSigner,
			IsWritable: k.IsWritable,
		}
	}
	data := make([]byte, len(ix.Data))
	copy(data, ix.Data)
	return solana.NewInstruction(ix.ProgramID, accounts, data)
}

// IncomingFromNative converts a native instruction into an attachable
// payload.
func IncomingFromNative(n solana.Instruction) (IncomingInstruction, error) {
	data, err := n.Data()
	if err != nil {
		return IncomingInstruction{}, errors.Wrapf(errors.ErrInput, "instruction data: %s", err)
	}
	accounts := n.Accounts()
	keys := make([]AccountMeta, len(accounts))
	for i, a := range accounts {
		if a == nil {
			return IncomingInstruction{}, errors.Wrapf(errors.ErrEmpty, "account %d", i)
		}
		keys[i] = AccountMeta{
			PublicKey:  a.PublicKey,
			IsSigner:   a.IsSigner,
			IsWritable: a.IsWritable,
		}
	}
	return IncomingInstruction{
		ProgramID: n.ProgramID(),
		Keys:      keys,
		Data:      data,
	}, nil
}

// Validate returns an error if the instruction cannot be stored. The
// payload content is not checked.
func (ix *Instruction) Validate() error {
	if ix.Executed {
		return errors.Field("Executed", errors.ErrState, "deprecated")
	}
	return nil
}

// Size returns the number of bytes the encoded instruction account takes.
func (ix *Instruction) Size() int {
	return InstructionAccountSize(ix.Incoming())
}
