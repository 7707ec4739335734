package multisig

import (
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
	"github.com/iov-one/msig/msigtest"
	"github.com/iov-one/msig/msigtest/assert"
	"github.com/stretchr/testify/require"
)

func TestProposeTransaction(t *testing.T) {
	ms := newTestMultisig(t, 2, 3)
	msAddr := msigtest.SeqKey(200)

	first, err := ms.ProposeTransaction(msAddr, ms.Members[0], 1, 253, 252)
	require.NoError(t, err)
	second, err := ms.ProposeTransaction(msAddr, ms.Members[1], 1, 253, 251)
	require.NoError(t, err)

	assert.Equal(t, uint32(1), first.TransactionIndex)
	assert.Equal(t, uint32(2), second.TransactionIndex)
	assert.Equal(t, uint32(2), ms.TransactionIndex)
	assert.Equal(t, StatusDraft, first.Status)
	assert.Equal(t, msAddr, first.Multisig)
	assert.Equal(t, ms.Members[0], first.Creator)
	assert.Equal(t, uint32(1), first.AuthorityIndex)
	assert.Equal(t, uint8(253), first.AuthorityBump)
	assert.Equal(t, uint8(252), first.Bump)
	assert.Nil(t, first.Validate())
}

func TestTransactionVotes(t *testing.T) {
	ms, tx := newActiveTransaction(t, 2, 3, 1)
	a, b, c := ms.Members[0], ms.Members[1], ms.Members[2]

	assert.Nil(t, tx.Approve(b))
	assert.IsErr(t, ErrAlreadyVoted, tx.Approve(b))
	assert.IsErr(t, ErrAlreadyVoted, tx.Reject(b))

	assert.Nil(t, tx.Reject(a))
	assert.IsErr(t, ErrAlreadyVoted, tx.Approve(a))
	assert.IsErr(t, ErrAlreadyVoted, tx.Reject(a))

	assert.Nil(t, tx.Approve(c))

	assert.Equal(t, KeySet{b, c}, tx.Approved)
	assert.Equal(t, KeySet{a}, tx.Rejected)
	assert.Equal(t, 2, tx.ApprovedCount())
	assert.Equal(t, 1, tx.RejectedCount())
	assert.Equal(t, true, tx.HasVoted(a))
	assert.Equal(t, true, tx.HasVoted(b))
	assert.Equal(t, false, tx.HasVoted(msigtest.SeqKey(100)))

	pos, ok := tx.HasApproved(c)
	assert.Equal(t, true, ok)
	assert.Equal(t, 1, pos)
	_, ok = tx.HasRejected(c)
	assert.Equal(t, false, ok)

	// No key can be in both sets.
	for _, k := range tx.Approved {
		if tx.Rejected.Contains(k) {
			t.Fatalf("%s both approved and rejected", k)
		}
	}
	assert.Nil(t, tx.Validate())
}

func TestTransactionVoteRequiresActive(t *testing.T) {
	ms := newTestMultisig(t, 1, 2)
	tx, err := ms.ProposeTransaction(msigtest.SeqKey(200), ms.Members[0], 1, 0, 0)
	require.NoError(t, err)

	assert.IsErr(t, ErrInvalidStateTransition, tx.Approve(ms.Members[0]))
	assert.IsErr(t, ErrInvalidStateTransition, tx.Reject(ms.Members[0]))
	assert.IsErr(t, ErrInvalidStateTransition, tx.Cancel(ms.Members[0]))
	assert.Equal(t, 0, tx.ApprovedCount())
}

func TestTransactionCancel(t *testing.T) {
	ms, tx := newActiveTransaction(t, 2, 3, 1)
	a, b := ms.Members[0], ms.Members[1]

	assert.IsErr(t, ErrInvalidStateTransition, tx.Cancel(a))

	require.NoError(t, tx.Approve(a))
	require.NoError(t, tx.Approve(b))
	require.NoError(t, tx.ReadyToExecute(ms))

	assert.IsErr(t, ErrInvalidStateTransition, tx.Approve(ms.Members[2]))
	assert.Nil(t, tx.Cancel(b))
	assert.IsErr(t, ErrAlreadyCancelled, tx.Cancel(b))
	pos, ok := tx.HasCancelled(b)
	assert.Equal(t, true, ok)
	assert.Equal(t, 0, pos)
	assert.Equal(t, 1, tx.CancelledCount())

	assert.Nil(t, tx.SetCancelled())
	assert.Equal(t, StatusCancelled, tx.Status)
	assert.IsErr(t, ErrInvalidStateTransition, tx.Cancel(a))
}

func TestTransactionRemoveVotes(t *testing.T) {
	ms, tx := newActiveTransaction(t, 2, 3, 1)
	a, b := ms.Members[0], ms.Members[1]

	require.NoError(t, tx.Approve(a))
	require.NoError(t, tx.Reject(b))

	_, err := tx.RemoveApprovedAt(1)
	assert.IsErr(t, errors.ErrInput, err)

	got, err := tx.RemoveApprovedAt(0)
	assert.Nil(t, err)
	assert.Equal(t, a, got)
	got, err = tx.RemoveRejectedAt(0)
	assert.Nil(t, err)
	assert.Equal(t, b, got)

	assert.Equal(t, false, tx.HasVoted(a))
	assert.Equal(t, false, tx.HasVoted(b))

	// Removed votes can be cast again, in any direction.
	assert.Nil(t, tx.Reject(a))
	assert.Nil(t, tx.Approve(b))
}

func TestTransactionReadyToExecute(t *testing.T) {
	ms, tx := newActiveTransaction(t, 2, 3, 1)

	assert.IsErr(t, ErrInvalidStateTransition, tx.ReadyToExecute(ms))

	require.NoError(t, tx.Approve(ms.Members[0]))
	assert.IsErr(t, ErrInvalidStateTransition, tx.ReadyToExecute(ms))
	assert.Equal(t, StatusActive, tx.Status)

	require.NoError(t, tx.Approve(ms.Members[1]))
	assert.Nil(t, tx.ReadyToExecute(ms))
	assert.Equal(t, StatusExecuteReady, tx.Status)

	assert.IsErr(t, ErrInvalidStateTransition, tx.ReadyToExecute(ms))
}

func TestTransactionThresholdChangeMakesStale(t *testing.T) {
	ms, tx := newActiveTransaction(t, 1, 3, 1)
	require.NoError(t, tx.Approve(ms.Members[0]))

	// A threshold change makes the transaction stale, even though a single
	// approval would satisfy both thresholds.
	ms.TransactionIndex++
	require.NoError(t, ms.ChangeThreshold(1))
	assert.IsErr(t, ErrStaleTransaction, tx.ReadyToExecute(ms))
}

func TestTransactionSetRejected(t *testing.T) {
	ms, tx := newActiveTransaction(t, 2, 3, 1)
	require.NoError(t, tx.Reject(ms.Members[0]))
	require.NoError(t, tx.Reject(ms.Members[1]))

	assert.Nil(t, tx.SetRejected())
	assert.Equal(t, StatusRejected, tx.Status)
	assert.IsErr(t, ErrInvalidStateTransition, tx.SetRejected())
	assert.IsErr(t, ErrInvalidStateTransition, tx.SetCancelled())
	assert.IsErr(t, ErrInvalidStateTransition, tx.ReadyToExecute(ms))
}

func TestTransactionAttachInstruction(t *testing.T) {
	ms := newTestMultisig(t, 1, 1)
	tx, err := ms.ProposeTransaction(msigtest.SeqKey(200), ms.Members[0], 1, 0, 0)
	require.NoError(t, err)

	in := IncomingInstruction{
		ProgramID: msigtest.SeqKey(77),
		Keys:      []AccountMeta{{PublicKey: msigtest.SeqKey(78), IsWritable: true}},
		Data:      []byte{1, 2, 3},
	}
	for i := 0; i < 3; i++ {
		ix, err := tx.AttachInstruction(in, uint8(100+i), 3)
		require.NoError(t, err)
		assert.Equal(t, uint8(i), ix.InstructionIndex)
		assert.Equal(t, uint8(100+i), ix.Bump)
		assert.Equal(t, in.ProgramID, ix.ProgramID)
		assert.Equal(t, in.Keys, ix.Keys)
		assert.Equal(t, in.Data, ix.Data)
		assert.Equal(t, false, ix.Executed)
	}
	assert.Equal(t, uint8(3), tx.InstructionIndex)

	_, err = tx.AttachInstruction(in, 0, 3)
	assert.IsErr(t, ErrInstructionLimit, err)
	assert.Equal(t, uint8(3), tx.InstructionIndex)

	require.NoError(t, tx.Activate(ms))
	_, err = tx.AttachInstruction(in, 0, 10)
	assert.IsErr(t, ErrInvalidStateTransition, err)
	assert.Equal(t, uint8(3), tx.InstructionIndex)
}

func TestTransactionAttachCopiesPayload(t *testing.T) {
	ms := newTestMultisig(t, 1, 1)
	tx, err := ms.ProposeTransaction(msigtest.SeqKey(200), ms.Members[0], 1, 0, 0)
	require.NoError(t, err)

	in := IncomingInstruction{ProgramID: msigtest.SeqKey(77), Data: []byte{1}}
	ix, err := tx.AttachInstruction(in, 0, 0)
	require.NoError(t, err)
	in.Data[0] = 9
	assert.Equal(t, []byte{1}, ix.Data)
}

func TestTransactionStaleness(t *testing.T) {
	// Transaction proposed at index 5, change index moves to 6.
	ms := newTestMultisig(t, 1, 3)
	ms.TransactionIndex = 4
	tx, err := ms.ProposeTransaction(msigtest.SeqKey(200), ms.Members[0], 1, 0, 0)
	require.NoError(t, err)
	require.Equal(t, uint32(5), tx.TransactionIndex)
	_, err = tx.AttachInstruction(IncomingInstruction{ProgramID: msigtest.SeqKey(77)}, 0, 0)
	require.NoError(t, err)

	ms.TransactionIndex = 6
	require.NoError(t, ms.RemoveMember(ms.Members[2]))
	require.Equal(t, uint32(6), ms.ChangeIndex)

	assert.IsErr(t, ErrStaleTransaction, tx.Activate(ms))
	assert.Equal(t, StatusDraft, tx.Status)

	// Even with enough approvals recorded, the transaction cannot
	// progress towards execution.
	tx.Status = StatusActive
	tx.Approved = KeySet{ms.Members[0], ms.Members[1]}
	assert.IsErr(t, ErrStaleTransaction, tx.ReadyToExecute(ms))

	tx.Status = StatusExecuteReady
	assert.IsErr(t, ErrStaleTransaction, tx.RecordInstructionExecuted(ms))
	assert.IsErr(t, ErrStaleTransaction, tx.SetExecuted(ms))
	assert.Equal(t, uint8(0), tx.ExecutedIndex)
}

func TestTransactionSequentialExecution(t *testing.T) {
	ms, tx := newActiveTransaction(t, 1, 1, 3)
	require.NoError(t, tx.Approve(ms.Members[0]))
	require.NoError(t, tx.ReadyToExecute(ms))

	for i := 0; i < 3; i++ {
		next, ok := tx.NextInstructionIndex()
		assert.Equal(t, true, ok)
		assert.Equal(t, uint8(i), next)
		assert.IsErr(t, ErrInvalidStateTransition, tx.SetExecuted(ms))

		require.NoError(t, tx.RecordInstructionExecuted(ms))
		assert.Equal(t, uint8(i+1), tx.ExecutedIndex)
	}
	assert.Equal(t, StatusExecuted, tx.Status)
	_, ok := tx.NextInstructionIndex()
	assert.Equal(t, false, ok)

	assert.IsErr(t, ErrInvalidStateTransition, tx.RecordInstructionExecuted(ms))
	assert.Equal(t, uint8(3), tx.ExecutedIndex)
}

func TestTransactionPartialExecution(t *testing.T) {
	ms, tx := newActiveTransaction(t, 1, 1, 2)
	require.NoError(t, tx.Approve(ms.Members[0]))
	require.NoError(t, tx.ReadyToExecute(ms))

	require.NoError(t, tx.RecordInstructionExecuted(ms))
	assert.Equal(t, StatusExecuteReady, tx.Status)
	assert.Equal(t, uint8(1), tx.ExecutedIndex)

	// A partially executed transaction survives a round trip through its
	// account representation and can be resumed.
	raw, err := tx.Marshal()
	require.NoError(t, err)
	var loaded Transaction
	require.NoError(t, loaded.Unmarshal(raw))
	next, ok := loaded.NextInstructionIndex()
	assert.Equal(t, true, ok)
	assert.Equal(t, uint8(1), next)

	require.NoError(t, loaded.RecordInstructionExecuted(ms))
	assert.Equal(t, StatusExecuted, loaded.Status)
}

func TestTransactionSetExecutedWithoutInstructions(t *testing.T) {
	ms := newTestMultisig(t, 1, 1)
	tx, err := ms.ProposeTransaction(msigtest.SeqKey(200), ms.Members[0], 1, 0, 0)
	require.NoError(t, err)

	assert.IsErr(t, ErrInvalidStateTransition, tx.SetExecuted(ms))
	require.NoError(t, tx.Activate(ms))
	require.NoError(t, tx.Approve(ms.Members[0]))
	require.NoError(t, tx.ReadyToExecute(ms))

	assert.IsErr(t, ErrInvalidStateTransition, tx.RecordInstructionExecuted(ms))
	assert.Nil(t, tx.SetExecuted(ms))
	assert.Equal(t, StatusExecuted, tx.Status)
}

func TestTransactionExecutedScenario(t *testing.T) {
	// Three members, threshold two. One instruction.
	ms, tx := newActiveTransaction(t, 2, 3, 1)
	a, b := ms.Members[0], ms.Members[1]

	require.NoError(t, tx.Approve(a))
	assert.Equal(t, 1, tx.ApprovedCount())
	assert.IsErr(t, ErrInvalidStateTransition, tx.ReadyToExecute(ms))

	require.NoError(t, tx.Approve(b))
	assert.Equal(t, 2, tx.ApprovedCount())
	require.NoError(t, tx.ReadyToExecute(ms))

	require.NoError(t, tx.RecordInstructionExecuted(ms))
	assert.Equal(t, StatusExecuted, tx.Status)
	assert.Equal(t, uint8(1), tx.ExecutedIndex)
}

func TestTransactionStaleScenario(t *testing.T) {
	ms, tx := newActiveTransaction(t, 2, 3, 1)

	require.NoError(t, ms.RemoveMember(ms.Members[2]))
	assert.Equal(t, 2, len(ms.Members))
	assert.Equal(t, tx.TransactionIndex, ms.ChangeIndex)

	assert.IsErr(t, ErrStaleTransaction, tx.ReadyToExecute(ms))

	tx.Status = StatusDraft
	assert.IsErr(t, ErrStaleTransaction, tx.Activate(ms))
}

func TestTransactionValidate(t *testing.T) {
	a := msigtest.SeqKey(1)
	tx := Transaction{
		Status:           Status(9),
		Approved:         KeySet{a},
		Rejected:         KeySet{a},
		InstructionIndex: 1,
		ExecutedIndex:    2,
	}
	err := tx.Validate()
	assert.FieldError(t, err, "Status", errors.ErrState)
	assert.FieldError(t, err, "Approved", ErrAlreadyVoted)
	assert.FieldError(t, err, "TransactionIndex", errors.ErrEmpty)
	assert.FieldError(t, err, "ExecutedIndex", errors.ErrState)
	assert.FieldError(t, err, "Cancelled", nil)
}

// newActiveTransaction returns a multisig and its active transaction with
// given number of instructions attached.
func newActiveTransaction(t testing.TB, threshold uint16, members, instructions int) (*Multisig, *Transaction) {
	t.Helper()
	ms := newTestMultisig(t, threshold, members)
	tx, err := ms.ProposeTransaction(msigtest.SeqKey(200), ms.Members[0], 1, 0, 0)
	require.NoError(t, err)
	for i := 0; i < instructions; i++ {
		in := IncomingInstruction{
			ProgramID: msigtest.SeqKey(77),
			Keys:      []AccountMeta{{PublicKey: solana.PublicKey{}, IsSigner: true}},
			Data:      []byte{byte(i)},
		}
		_, err := tx.AttachInstruction(in, 0, 0)
		require.NoError(t, err)
	}
	require.NoError(t, tx.Activate(ms))
	return ms, tx
}
