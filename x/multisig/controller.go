package multisig

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig"
	"github.com/iov-one/msig/errors"
	"github.com/tendermint/tendermint/libs/log"
)

// Executor is the execution layer. It performs the call described by the
// instruction, signed by given authority.
//
// Delivery is at least once. The call happens before the controller records
// the instruction as executed, so when storing that progress fails the same
// instruction is executed again on retry.
type Executor interface {
	Execute(ctx context.Context, authority solana.PublicKey, ix *solana.GenericInstruction) error
}

// Controller applies multisig operations to a store. Every operation is
// atomic: when it fails, nothing is written.
//
// Callers are expected to be authenticated before reaching the controller.
type Controller struct {
	multisigs    MultisigBucket
	transactions TransactionBucket
	instructions InstructionBucket
	exec         Executor
	logger       log.Logger
}

// NewController returns a controller dispatching approved instructions to
// given executor. A nil logger falls back to msig.DefaultLogger.
func NewController(exec Executor, logger log.Logger) *Controller {
	return &Controller{
		multisigs:    NewMultisigBucket(),
		transactions: NewTransactionBucket(),
		instructions: NewInstructionBucket(),
		exec:         exec,
		logger:       msig.Logger(logger, packageName),
	}
}

// CreateMultisig creates a new multisig seeded by createKey and returns its
// address.
func (c *Controller) CreateMultisig(db msig.CacheableKVStore, createKey solana.PublicKey, threshold uint16, members []solana.PublicKey) (solana.PublicKey, error) {
	var addr solana.PublicKey
	err := c.atomic(db, func(db msig.KVStore) error {
		conf, err := LoadConfiguration(db)
		if err != nil {
			return errors.Wrap(err, "configuration")
		}
		if len(members) > int(conf.MaxMembers) {
			return errors.Wrapf(ErrIntegerOverflow, "%d members, limit is %d", len(members), conf.MaxMembers)
		}
		a, bump, err := MultisigAddress(conf.ProgramID, createKey)
		if err != nil {
			return err
		}
		ms, err := NewMultisig(threshold, createKey, members, bump)
		if err != nil {
			return err
		}
		if err := c.multisigs.Create(db, a, ms); err != nil {
			return errors.Wrap(err, "cannot save multisig")
		}
		addr = a
		c.logger.Info("multisig created", "ms", a, "members", len(ms.Members), "threshold", ms.Threshold)
		return nil
	})
	return addr, err
}

// AddMember adds a member to the multisig. Only the multisig itself can
// change its membership.
func (c *Controller) AddMember(db msig.CacheableKVStore, caller, ms, member solana.PublicKey) error {
	return c.ApplyChange(db, caller, ms, MembershipChange{Kind: ChangeAddMember, Member: member})
}

// RemoveMember removes a member from the multisig. Only the multisig itself
// can change its membership.
func (c *Controller) RemoveMember(db msig.CacheableKVStore, caller, ms, member solana.PublicKey) error {
	return c.ApplyChange(db, caller, ms, MembershipChange{Kind: ChangeRemoveMember, Member: member})
}

// ChangeThreshold sets the approval threshold of the multisig. Only the
// multisig itself can change its threshold.
func (c *Controller) ChangeThreshold(db msig.CacheableKVStore, caller, ms solana.PublicKey, threshold uint16) error {
	return c.ApplyChange(db, caller, ms, MembershipChange{Kind: ChangeThreshold, Threshold: threshold})
}

// AddAuthority bumps the authority index of the multisig.
func (c *Controller) AddAuthority(db msig.CacheableKVStore, caller, ms solana.PublicKey) error {
	return c.ApplyChange(db, caller, ms, MembershipChange{Kind: ChangeAddAuthority})
}

// ApplyChange applies a membership change signed by the multisig itself.
// Unlike an executed instruction, adding a key that already is a member
// fails with ErrDuplicateMember.
func (c *Controller) ApplyChange(db msig.CacheableKVStore, caller, addr solana.PublicKey, change MembershipChange) error {
	return c.atomic(db, func(db msig.KVStore) error {
		if caller != addr {
			return errors.Wrap(errors.ErrUnauthorized, "only the multisig can change itself")
		}
		conf, err := LoadConfiguration(db)
		if err != nil {
			return errors.Wrap(err, "configuration")
		}
		ms, err := c.multisigs.Get(db, addr)
		if err != nil {
			return err
		}
		switch change.Kind {
		case ChangeAddMember, ChangeAddMemberAndThreshold:
			if ms.Members.Contains(change.Member) {
				return errors.Wrapf(ErrDuplicateMember, "key %s", change.Member)
			}
		}
		if err := c.applyChange(db, conf, addr, ms, change); err != nil {
			return err
		}
		return c.multisigs.Put(db, addr, ms)
	})
}

func (c *Controller) applyChange(db msig.KVStore, conf Configuration, addr solana.PublicKey, ms *Multisig, change MembershipChange) error {
	switch change.Kind {
	case ChangeAddMember, ChangeAddMemberAndThreshold:
		if len(ms.Members) >= int(conf.MaxMembers) {
			return errors.Wrapf(ErrIntegerOverflow, "member limit %d reached", conf.MaxMembers)
		}
	}
	if err := change.Apply(ms); err != nil {
		return err
	}
	c.logger.Info("multisig changed",
		"ms", addr,
		"change", change.Kind,
		"members", len(ms.Members),
		"threshold", ms.Threshold,
		"change_index", ms.ChangeIndex)
	return nil
}

// CreateTransaction proposes a new transaction executed as the authority
// with given index. Caller must be a member of the multisig.
func (c *Controller) CreateTransaction(db msig.CacheableKVStore, caller, msAddr solana.PublicKey, authorityIndex uint32) (solana.PublicKey, error) {
	var addr solana.PublicKey
	err := c.atomic(db, func(db msig.KVStore) error {
		conf, err := LoadConfiguration(db)
		if err != nil {
			return errors.Wrap(err, "configuration")
		}
		ms, err := c.multisigs.Get(db, msAddr)
		if err != nil {
			return err
		}
		if _, ok := ms.IsMember(caller); !ok {
			return errors.Wrapf(ErrNotMember, "key %s", caller)
		}

		authorityBump := ms.Bump
		if authorityIndex > 0 {
			if _, authorityBump, err = AuthorityAddress(conf.ProgramID, msAddr, authorityIndex); err != nil {
				return err
			}
		}
		a, bump, err := TransactionAddress(conf.ProgramID, msAddr, ms.TransactionIndex+1)
		if err != nil {
			return err
		}
		tx, err := ms.ProposeTransaction(msAddr, caller, authorityIndex, authorityBump, bump)
		if err != nil {
			return err
		}
		if err := c.transactions.Create(db, a, len(ms.Members), tx); err != nil {
			return errors.Wrap(err, "cannot save transaction")
		}
		if err := c.multisigs.Put(db, msAddr, ms); err != nil {
			return err
		}
		addr = a
		c.logger.Info("transaction created", "ms", msAddr, "tx", a, "index", tx.TransactionIndex)
		return nil
	})
	return addr, err
}

// AddInstruction attaches an instruction to a draft transaction and returns
// the instruction address. Only the creator can attach instructions.
func (c *Controller) AddInstruction(db msig.CacheableKVStore, caller, txAddr solana.PublicKey, in IncomingInstruction) (solana.PublicKey, error) {
	var addr solana.PublicKey
	err := c.atomic(db, func(db msig.KVStore) error {
		conf, err := LoadConfiguration(db)
		if err != nil {
			return errors.Wrap(err, "configuration")
		}
		tx, err := c.transactions.Get(db, txAddr)
		if err != nil {
			return err
		}
		if tx.Creator != caller {
			return errors.Wrap(errors.ErrUnauthorized, "only the creator can attach instructions")
		}
		a, bump, err := InstructionAddress(conf.ProgramID, txAddr, tx.InstructionIndex)
		if err != nil {
			return err
		}
		ix, err := tx.AttachInstruction(in, bump, int(conf.MaxInstructions))
		if err != nil {
			return err
		}
		if err := c.instructions.Create(db, a, ix); err != nil {
			return errors.Wrap(err, "cannot save instruction")
		}
		if err := c.transactions.Put(db, txAddr, tx); err != nil {
			return err
		}
		addr = a
		c.logger.Debug("instruction attached", "tx", txAddr, "index", ix.InstructionIndex, "size", ix.Size())
		return nil
	})
	return addr, err
}

// ActivateTransaction opens a draft transaction for voting. Only the creator
// can activate and at least one instruction must be attached.
func (c *Controller) ActivateTransaction(db msig.CacheableKVStore, caller, txAddr solana.PublicKey) error {
	return c.updateTransaction(db, txAddr, func(ms *Multisig, tx *Transaction) error {
		if tx.Creator != caller {
			return errors.Wrap(errors.ErrUnauthorized, "only the creator can activate")
		}
		if tx.InstructionIndex == 0 {
			return errors.Wrap(errors.ErrEmpty, "no instructions attached")
		}
		if err := tx.Activate(ms); err != nil {
			return err
		}
		c.logger.Info("transaction activated", "tx", txAddr, "instructions", tx.InstructionIndex)
		return nil
	})
}

// ApproveTransaction records an approve vote. Once the threshold is reached
// the transaction becomes ready for execution.
func (c *Controller) ApproveTransaction(db msig.CacheableKVStore, caller, txAddr solana.PublicKey) (*Transaction, error) {
	var res *Transaction
	err := c.updateTransaction(db, txAddr, func(ms *Multisig, tx *Transaction) error {
		if err := checkVoter(ms, tx, caller); err != nil {
			return err
		}
		if err := tx.Approve(caller); err != nil {
			return err
		}
		if tx.ApprovedCount() >= int(ms.Threshold) {
			if err := tx.ReadyToExecute(ms); err != nil {
				return err
			}
			c.logger.Info("transaction approved", "tx", txAddr, "approved", tx.ApprovedCount(), "threshold", ms.Threshold)
		}
		res = tx
		return nil
	})
	return res, err
}

// RejectTransaction records a reject vote. Once the threshold can no longer
// be reached the transaction is rejected.
func (c *Controller) RejectTransaction(db msig.CacheableKVStore, caller, txAddr solana.PublicKey) (*Transaction, error) {
	var res *Transaction
	err := c.updateTransaction(db, txAddr, func(ms *Multisig, tx *Transaction) error {
		if err := checkVoter(ms, tx, caller); err != nil {
			return err
		}
		if err := tx.Reject(caller); err != nil {
			return err
		}
		if cutoff := len(ms.Members) - int(ms.Threshold); tx.RejectedCount() > cutoff {
			if err := tx.SetRejected(); err != nil {
				return err
			}
			c.logger.Info("transaction rejected", "tx", txAddr, "rejected", tx.RejectedCount(), "threshold", ms.Threshold)
		}
		res = tx
		return nil
	})
	return res, err
}

// CancelTransaction records a cancel vote on a transaction ready for
// execution. Once the threshold is reached the transaction is cancelled.
func (c *Controller) CancelTransaction(db msig.CacheableKVStore, caller, txAddr solana.PublicKey) (*Transaction, error) {
	var res *Transaction
	err := c.updateTransaction(db, txAddr, func(ms *Multisig, tx *Transaction) error {
		if err := checkVoter(ms, tx, caller); err != nil {
			return err
		}
		if err := tx.Cancel(caller); err != nil {
			return err
		}
		if tx.CancelledCount() >= int(ms.Threshold) {
			if err := tx.SetCancelled(); err != nil {
				return err
			}
			c.logger.Info("transaction cancelled", "tx", txAddr, "cancelled", tx.CancelledCount(), "threshold", ms.Threshold)
		}
		res = tx
		return nil
	})
	return res, err
}

// RemoveApproval drops the approve vote of a member. This is an
// administrative correction that only the multisig itself can make.
func (c *Controller) RemoveApproval(db msig.CacheableKVStore, caller, txAddr, member solana.PublicKey) error {
	return c.updateTransaction(db, txAddr, func(ms *Multisig, tx *Transaction) error {
		if caller != tx.Multisig {
			return errors.Wrap(errors.ErrUnauthorized, "only the multisig can remove votes")
		}
		pos, ok := tx.HasApproved(member)
		if !ok {
			return errors.Wrapf(errors.ErrNotFound, "approval of %s", member)
		}
		_, err := tx.RemoveApprovedAt(pos)
		return err
	})
}

// RemoveRejection drops the reject vote of a member. This is an
// administrative correction that only the multisig itself can make.
func (c *Controller) RemoveRejection(db msig.CacheableKVStore, caller, txAddr, member solana.PublicKey) error {
	return c.updateTransaction(db, txAddr, func(ms *Multisig, tx *Transaction) error {
		if caller != tx.Multisig {
			return errors.Wrap(errors.ErrUnauthorized, "only the multisig can remove votes")
		}
		pos, ok := tx.HasRejected(member)
		if !ok {
			return errors.Wrapf(errors.ErrNotFound, "rejection of %s", member)
		}
		_, err := tx.RemoveRejectedAt(pos)
		return err
	})
}

// ExecuteInstruction executes the next instruction of a transaction ready
// for execution. Caller must be a member.
//
// A change of the multisig itself makes the transaction stale, so it can be
// executed alone only when it is the last remaining instruction. Otherwise
// use ExecuteTransaction.
func (c *Controller) ExecuteInstruction(ctx context.Context, db msig.CacheableKVStore, caller, txAddr solana.PublicKey) error {
	return c.atomic(db, func(db msig.KVStore) error {
		_, err := c.executeNext(ctx, db, caller, txAddr, nil)
		return err
	})
}

// ExecuteTransaction executes all remaining instructions of a transaction in
// order. Staleness and membership of the caller are checked against the
// multisig state from before the first instruction, so that a transaction
// can change its own multisig.
//
// A transaction that changes its own multisig is executed all or nothing.
// Any other transaction stores progress after every instruction: when an
// instruction fails the transaction stays ready for execution and can be
// resumed from the failed instruction.
func (c *Controller) ExecuteTransaction(ctx context.Context, db msig.CacheableKVStore, caller, txAddr solana.PublicKey) error {
	tx, err := c.transactions.Get(db, txAddr)
	if err != nil {
		return err
	}
	snapshot, err := c.multisigs.Get(db, tx.Multisig)
	if err != nil {
		return err
	}
	internal, err := c.hasInternalInstruction(db, txAddr, tx)
	if err != nil {
		return err
	}

	step := func(db msig.KVStore) (bool, error) {
		tx, err := c.executeNext(ctx, db, caller, txAddr, snapshot)
		if err != nil {
			return false, err
		}
		return tx.Status == StatusExecuted, nil
	}

	if internal {
		return c.atomic(db, func(db msig.KVStore) error {
			for {
				done, err := step(db)
				if err != nil || done {
					return err
				}
			}
		})
	}
	for {
		var done bool
		err := c.atomic(db, func(db msig.KVStore) error {
			var err error
			done, err = step(db)
			return err
		})
		if err != nil || done {
			return err
		}
	}
}

// hasInternalInstruction returns true if any instruction not executed yet
// changes the multisig itself.
func (c *Controller) hasInternalInstruction(db msig.ReadOnlyKVStore, txAddr solana.PublicKey, tx *Transaction) (bool, error) {
	if tx.AuthorityIndex != 0 {
		return false, nil
	}
	conf, err := LoadConfiguration(db)
	if err != nil {
		return false, errors.Wrap(err, "configuration")
	}
	for i := tx.ExecutedIndex; i < tx.InstructionIndex; i++ {
		addr, _, err := InstructionAddress(conf.ProgramID, txAddr, i)
		if err != nil {
			return false, err
		}
		ix, err := c.instructions.Get(db, addr)
		if err != nil {
			return false, errors.Wrapf(err, "instruction %d", i)
		}
		if ix.ProgramID == conf.ProgramID {
			return true, nil
		}
	}
	return false, nil
}

// executeNext executes the instruction at the executed index and returns the
// updated transaction. Staleness and membership are evaluated against
// snapshot, or the current multisig state when nil.
func (c *Controller) executeNext(ctx context.Context, db msig.KVStore, caller, txAddr solana.PublicKey, snapshot *Multisig) (*Transaction, error) {
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	tx, err := c.transactions.Get(db, txAddr)
	if err != nil {
		return nil, err
	}
	ms, err := c.multisigs.Get(db, tx.Multisig)
	if err != nil {
		return nil, err
	}
	single := snapshot == nil
	if single {
		snapshot = ms.Copy()
	}
	if _, ok := snapshot.IsMember(caller); !ok {
		return nil, errors.Wrapf(ErrNotMember, "key %s", caller)
	}
	if snapshot.IsStale(tx.TransactionIndex) {
		return nil, errors.Wrapf(ErrStaleTransaction, "transaction %d, change index %d", tx.TransactionIndex, snapshot.ChangeIndex)
	}
	if tx.Status != StatusExecuteReady {
		return nil, errors.Wrapf(ErrInvalidStateTransition, "cannot execute %s transaction", tx.Status)
	}
	index, ok := tx.NextInstructionIndex()
	if !ok {
		return nil, errors.Wrap(ErrInvalidStateTransition, "all instructions executed")
	}
	ixAddr, _, err := InstructionAddress(conf.ProgramID, txAddr, index)
	if err != nil {
		return nil, err
	}
	ix, err := c.instructions.Get(db, ixAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "instruction %d", index)
	}

	if ix.ProgramID == conf.ProgramID && tx.AuthorityIndex == 0 {
		if single && index+1 < tx.InstructionIndex {
			return nil, errors.Wrapf(ErrInvalidStateTransition, "instruction %d changes the multisig, execute the whole transaction", index)
		}
		change, err := DecodeMembershipChange(ix.Data)
		if err != nil {
			return nil, err
		}
		if err := c.applyChange(db, conf, tx.Multisig, ms, change); err != nil {
			return nil, err
		}
		if err := c.multisigs.Put(db, tx.Multisig, ms); err != nil {
			return nil, err
		}
	} else {
		authority, err := c.authority(conf, tx)
		if err != nil {
			return nil, err
		}
		if err := c.exec.Execute(ctx, authority, ix.Native()); err != nil {
			return nil, errors.Wrap(err, "execute")
		}
	}

	if err := tx.RecordInstructionExecuted(snapshot); err != nil {
		return nil, err
	}
	if err := c.transactions.Put(db, txAddr, tx); err != nil {
		return nil, err
	}
	c.logger.Info("instruction executed", "tx", txAddr, "index", index, "status", tx.Status)
	return tx, nil
}

// authority returns the address the transaction instructions are signed
// with. Authority 0 is the multisig itself.
func (c *Controller) authority(conf Configuration, tx *Transaction) (solana.PublicKey, error) {
	if tx.AuthorityIndex == 0 {
		return tx.Multisig, nil
	}
	addr, _, err := AuthorityAddress(conf.ProgramID, tx.Multisig, tx.AuthorityIndex)
	return addr, err
}

// Multisig returns the multisig stored under given address.
func (c *Controller) Multisig(db msig.ReadOnlyKVStore, addr solana.PublicKey) (*Multisig, error) {
	return c.multisigs.Get(db, addr)
}

// Transaction returns the transaction stored under given address.
func (c *Controller) Transaction(db msig.ReadOnlyKVStore, addr solana.PublicKey) (*Transaction, error) {
	return c.transactions.Get(db, addr)
}

// Instruction returns the instruction stored under given address.
func (c *Controller) Instruction(db msig.ReadOnlyKVStore, addr solana.PublicKey) (*Instruction, error) {
	return c.instructions.Get(db, addr)
}

// Transactions returns all transactions of the multisig, ordered by their
// index.
func (c *Controller) Transactions(db msig.ReadOnlyKVStore, msAddr solana.PublicKey) ([]*Transaction, error) {
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	ms, err := c.multisigs.Get(db, msAddr)
	if err != nil {
		return nil, err
	}
	res := make([]*Transaction, 0, ms.TransactionIndex)
	for i := uint32(1); i <= ms.TransactionIndex; i++ {
		addr, _, err := TransactionAddress(conf.ProgramID, msAddr, i)
		if err != nil {
			return nil, err
		}
		tx, err := c.transactions.Get(db, addr)
		if err != nil {
			return nil, errors.Wrapf(err, "transaction %d", i)
		}
		res = append(res, tx)
	}
	return res, nil
}

// Instructions returns all instructions attached to the transaction, ordered
// by their index.
func (c *Controller) Instructions(db msig.ReadOnlyKVStore, txAddr solana.PublicKey) ([]*Instruction, error) {
	conf, err := LoadConfiguration(db)
	if err != nil {
		return nil, errors.Wrap(err, "configuration")
	}
	tx, err := c.transactions.Get(db, txAddr)
	if err != nil {
		return nil, err
	}
	res := make([]*Instruction, 0, tx.InstructionIndex)
	for i := uint8(0); i < tx.InstructionIndex; i++ {
		addr, _, err := InstructionAddress(conf.ProgramID, txAddr, i)
		if err != nil {
			return nil, err
		}
		ix, err := c.instructions.Get(db, addr)
		if err != nil {
			return nil, errors.Wrapf(err, "instruction %d", i)
		}
		res = append(res, ix)
	}
	return res, nil
}

// updateTransaction loads a transaction with its multisig, applies fn and
// stores the transaction, all within a single savepoint.
func (c *Controller) updateTransaction(db msig.CacheableKVStore, txAddr solana.PublicKey, fn func(*Multisig, *Transaction) error) error {
	return c.atomic(db, func(db msig.KVStore) error {
		tx, err := c.transactions.Get(db, txAddr)
		if err != nil {
			return err
		}
		ms, err := c.multisigs.Get(db, tx.Multisig)
		if err != nil {
			return err
		}
		if err := fn(ms, tx); err != nil {
			return err
		}
		return c.transactions.Put(db, txAddr, tx)
	})
}

// atomic isolates all writes done by fn. They are committed only if fn
// succeeds.
func (c *Controller) atomic(db msig.CacheableKVStore, fn func(msig.KVStore) error) error {
	cache := db.CacheWrap()
	if err := fn(cache); err != nil {
		cache.Discard()
		c.logger.Debug("operation rejected", "err", err)
		return err
	}
	if err := cache.Write(); err != nil {
		return errors.Wrap(err, "writing savepoint")
	}
	return nil
}

// checkVoter ensures the caller can vote on the transaction.
func checkVoter(ms *Multisig, tx *Transaction, caller solana.PublicKey) error {
	if _, ok := ms.IsMember(caller); !ok {
		return errors.Wrapf(ErrNotMember, "key %s", caller)
	}
	if ms.IsStale(tx.TransactionIndex) {
		return errors.Wrapf(ErrStaleTransaction, "transaction %d, change index %d", tx.TransactionIndex, ms.ChangeIndex)
	}
	return nil
}
