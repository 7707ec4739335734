package multisig

import (
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
)

// Transaction is a proposed batch of instructions together with the votes
// cast for it.
type Transaction struct {
	Creator  solana.PublicKey
	Multisig solana.PublicKey
	// TransactionIndex is allocated from the multisig counter and together
	// with the multisig address identifies the transaction.
	TransactionIndex uint32
	// AuthorityIndex and AuthorityBump select the authority the
	// instructions are executed as.
	AuthorityIndex uint32
	AuthorityBump  uint8
	Status         Status
	// InstructionIndex is the number of attached instructions.
	InstructionIndex uint8
	Bump             uint8
	Approved         KeySet
	Rejected         KeySet
	// Cancelled collects cancel votes, cast only after the transaction
	// became ready for execution.
	Cancelled KeySet
	// ExecutedIndex is the number of instructions executed so far.
	ExecutedIndex uint8
}

// Approve records an approve vote of the member.
func (t *Transaction) Approve(member solana.PublicKey) error {
	if err := t.canVote(member); err != nil {
		return err
	}
	t.Approved.Insert(member)
	return nil
}

// Reject records a reject vote of the member.
func (t *Transaction) Reject(member solana.PublicKey) error {
	if err := t.canVote(member); err != nil {
		return err
	}
	t.Rejected.Insert(member)
	return nil
}

func (t *Transaction) canVote(member solana.PublicKey) error {
	if t.Status != StatusActive {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot vote on %s transaction", t.Status)
	}
	if t.HasVoted(member) {
		return errors.Wrapf(ErrAlreadyVoted, "key %s", member)
	}
	return nil
}

// Cancel records a cancel vote of the member. Cancel votes are accepted only
// when the transaction is ready for execution.
func (t *Transaction) Cancel(member solana.PublicKey) error {
	if t.Status != StatusExecuteReady {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot cancel %s transaction", t.Status)
	}
	if !t.Cancelled.Insert(member) {
		return errors.Wrapf(ErrAlreadyCancelled, "key %s", member)
	}
	return nil
}

// HasVoted returns true if the member approved or rejected the transaction.
func (t *Transaction) HasVoted(member solana.PublicKey) bool {
	return t.Approved.Contains(member) || t.Rejected.Contains(member)
}

// HasApproved returns the position of the member in the approved set.
func (t *Transaction) HasApproved(member solana.PublicKey) (int, bool) {
	return t.Approved.Find(member)
}

// HasRejected returns the position of the member in the rejected set.
func (t *Transaction) HasRejected(member solana.PublicKey) (int, bool) {
	return t.Rejected.Find(member)
}

// HasCancelled returns the position of the member in the cancelled set.
func (t *Transaction) HasCancelled(member solana.PublicKey) (int, bool) {
	return t.Cancelled.Find(member)
}

// RemoveApprovedAt removes the approve vote at given position. This is an
// administrative correction. Eligibility of the removal is not checked.
func (t *Transaction) RemoveApprovedAt(pos int) (solana.PublicKey, error) {
	return t.Approved.RemoveAt(pos)
}

// RemoveRejectedAt removes the reject vote at given position. This is an
// administrative correction. Eligibility of the removal is not checked.
func (t *Transaction) RemoveRejectedAt(pos int) (solana.PublicKey, error) {
	return t.Rejected.RemoveAt(pos)
}

// ApprovedCount returns the number of approve votes.
func (t *Transaction) ApprovedCount() int { return len(t.Approved) }

// RejectedCount returns the number of reject votes.
func (t *Transaction) RejectedCount() int { return len(t.Rejected) }

// CancelledCount returns the number of cancel votes.
func (t *Transaction) CancelledCount() int { return len(t.Cancelled) }

// AttachInstruction creates the next instruction of a draft transaction.
// max limits the number of instructions, values above 255 are capped.
func (t *Transaction) AttachInstruction(in IncomingInstruction, bump uint8, max int) (*Instruction, error) {
	if t.Status != StatusDraft {
		return nil, errors.Wrapf(ErrInvalidStateTransition, "cannot attach to %s transaction", t.Status)
	}
	if max > math.MaxUint8 || max <= 0 {
		max = math.MaxUint8
	}
	if int(t.InstructionIndex) >= max {
		return nil, errors.Wrapf(ErrInstructionLimit, "%d instructions attached", t.InstructionIndex)
	}
	ix := NewInstruction(t.InstructionIndex, in, bump)
	t.InstructionIndex++
	return ix, nil
}

// Activate moves a draft to active. No instructions can be attached after
// this point.
func (t *Transaction) Activate(ms *Multisig) error {
	if err := t.checkFresh(ms); err != nil {
		return err
	}
	return t.transition(StatusActive)
}

// ReadyToExecute marks an active transaction as approved. It requires that
// the number of approvals meets the current threshold of the multisig.
func (t *Transaction) ReadyToExecute(ms *Multisig) error {
	if err := t.checkFresh(ms); err != nil {
		return err
	}
	if !t.Status.CanTransition(StatusExecuteReady) {
		return errors.Wrapf(ErrInvalidStateTransition, "%s to %s", t.Status, StatusExecuteReady)
	}
	if len(t.Approved) < int(ms.Threshold) {
		return errors.Wrapf(ErrInvalidStateTransition, "%d of %d approvals", len(t.Approved), ms.Threshold)
	}
	return t.transition(StatusExecuteReady)
}

// SetRejected moves an active transaction to rejected.
func (t *Transaction) SetRejected() error {
	if t.Status != StatusActive {
		return errors.Wrapf(ErrInvalidStateTransition, "%s to %s", t.Status, StatusRejected)
	}
	return t.transition(StatusRejected)
}

// SetCancelled moves an active or ready transaction to cancelled.
func (t *Transaction) SetCancelled() error {
	return t.transition(StatusCancelled)
}

// RecordInstructionExecuted notes that the instruction at ExecutedIndex was
// executed. Once all instructions are executed the transaction becomes
// executed.
func (t *Transaction) RecordInstructionExecuted(ms *Multisig) error {
	if err := t.checkFresh(ms); err != nil {
		return err
	}
	if t.Status != StatusExecuteReady {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot execute %s transaction", t.Status)
	}
	if t.ExecutedIndex >= t.InstructionIndex {
		return errors.Wrapf(ErrInvalidStateTransition, "all %d instructions executed", t.InstructionIndex)
	}
	t.ExecutedIndex++
	if t.ExecutedIndex == t.InstructionIndex {
		return t.transition(StatusExecuted)
	}
	return nil
}

// SetExecuted moves a ready transaction with every instruction executed to
// executed.
func (t *Transaction) SetExecuted(ms *Multisig) error {
	if err := t.checkFresh(ms); err != nil {
		return err
	}
	if t.ExecutedIndex != t.InstructionIndex {
		return errors.Wrapf(ErrInvalidStateTransition, "%d of %d instructions executed", t.ExecutedIndex, t.InstructionIndex)
	}
	return t.transition(StatusExecuted)
}

// NextInstructionIndex returns the index of the instruction that must be
// executed next.
func (t *Transaction) NextInstructionIndex() (uint8, bool) {
	if t.ExecutedIndex >= t.InstructionIndex {
		return 0, false
	}
	return t.ExecutedIndex, true
}

func (t *Transaction) transition(next Status) error {
	st, err := t.Status.Transition(next)
	if err != nil {
		return err
	}
	t.Status = st
	return nil
}

// checkFresh ensures the transaction was proposed after the last change of
// the multisig membership.
func (t *Transaction) checkFresh(ms *Multisig) error {
	if ms.IsStale(t.TransactionIndex) {
		return errors.Wrapf(ErrStaleTransaction, "transaction %d, change index %d", t.TransactionIndex, ms.ChangeIndex)
	}
	return nil
}

// Validate returns an error if the transaction state breaks any of its
// invariants.
func (t *Transaction) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Status", t.Status.Validate())
	errs = errors.AppendField(errs, "Approved", t.Approved.Validate())
	errs = errors.AppendField(errs, "Rejected", t.Rejected.Validate())
	errs = errors.AppendField(errs, "Cancelled", t.Cancelled.Validate())
	if t.TransactionIndex == 0 {
		errs = errors.AppendField(errs, "TransactionIndex", errors.ErrEmpty)
	}
	if t.ExecutedIndex > t.InstructionIndex {
		errs = errors.AppendField(errs, "ExecutedIndex", errors.Wrap(errors.ErrState, "greater than instruction index"))
	}
	for _, k := range t.Approved {
		if t.Rejected.Contains(k) {
			errs = errors.AppendField(errs, "Approved", errors.Wrapf(ErrAlreadyVoted, "key %s also rejected", k))
		}
	}
	return errs
}

// Copy returns a deep copy of the transaction.
func (t *Transaction) Copy() *Transaction {
	c := *t
	c.Approved = t.Approved.Clone()
	c.Rejected = t.Rejected.Clone()
	c.Cancelled = t.Cancelled.Clone()
	return &c
}

// Size returns the number of bytes the encoded transaction account takes.
func (t *Transaction) Size() int {
	return TransactionSize(len(t.Approved), len(t.Rejected), len(t.Cancelled))
}
