package msigtest

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// ExecutedCall is a single call recorded by the Executor.
type ExecutedCall struct {
	Authority   solana.PublicKey
	Instruction *solana.GenericInstruction
}

// Executor is a fake execution layer that records every dispatched call.
// When Err is set, a call fails once FailAt calls were dispatched
// successfully.
type Executor struct {
	Calls  []ExecutedCall
	Err    error
	FailAt int
}

// Execute records the call or returns the configured error.
func (e *Executor) Execute(ctx context.Context, authority solana.PublicKey, ix *solana.GenericInstruction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if e.Err != nil && len(e.Calls) >= e.FailAt {
		return e.Err
	}
	e.Calls = append(e.Calls, ExecutedCall{
		Authority:   authority,
		Instruction: ix,
	})
	return nil
}
