package multisig

import (
	"math"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
)

// MaxMembers is the largest member set a multisig can hold. Threshold is an
// uint16 value, so a bigger set could not be fully required.
const MaxMembers = math.MaxUint16

// Multisig is the membership ledger: a set of member keys and the number of
// approvals required to authorize a transaction.
type Multisig struct {
	// Threshold is the number of approvals a transaction needs. It is
	// always between 1 and the number of members.
	Threshold uint16
	// AuthorityIndex counts authorities derived for this multisig. Index 0
	// is reserved for the multisig itself and 1 is the default vault.
	AuthorityIndex uint16
	// TransactionIndex is the index of the most recently proposed
	// transaction.
	TransactionIndex uint32
	// ChangeIndex is the transaction index as of the last membership or
	// threshold change. Transactions at or below it are stale.
	ChangeIndex uint32
	Bump        uint8
	// CreateKey seeds the multisig address.
	CreateKey solana.PublicKey
	// AllowExternalExecute is deprecated. It is kept for the layout and is
	// always false.
	AllowExternalExecute bool
	Members              KeySet
}

// NewMultisig returns an initialized multisig. Members do not have to be
// sorted.
func NewMultisig(threshold uint16, createKey solana.PublicKey, members []solana.PublicKey, bump uint8) (*Multisig, error) {
	keys, err := NewKeySet(members...)
	if err != nil {
		return nil, err
	}
	if len(keys) > MaxMembers {
		return nil, errors.Wrapf(ErrIntegerOverflow, "%d members", len(keys))
	}
	if err := validThreshold(threshold, len(keys)); err != nil {
		return nil, err
	}
	return &Multisig{
		Threshold:        threshold,
		AuthorityIndex:   1,
		TransactionIndex: 0,
		ChangeIndex:      0,
		Bump:             bump,
		CreateKey:        createKey,
		Members:          keys,
	}, nil
}

// IsMember returns the position of the key in the member set and true if the
// key belongs to a member.
func (m *Multisig) IsMember(key solana.PublicKey) (int, bool) {
	return m.Members.Find(key)
}

// AddMember inserts a new member. Adding a key that already is a member is a
// no-op and does not count as a change. The threshold is not modified.
func (m *Multisig) AddMember(key solana.PublicKey) error {
	if m.Members.Contains(key) {
		return nil
	}
	if len(m.Members) >= MaxMembers {
		return errors.Wrapf(ErrIntegerOverflow, "member set is full")
	}
	m.Members.Insert(key)
	m.markChanged()
	return nil
}

// RemoveMember removes a member. Removing a key that is not a member is a
// no-op. If the member set shrinks below the threshold, the threshold is
// lowered to the number of remaining members.
func (m *Multisig) RemoveMember(key solana.PublicKey) error {
	pos, ok := m.Members.Find(key)
	if !ok {
		return nil
	}
	if len(m.Members) == 1 {
		return errors.Wrapf(ErrCannotRemoveLastMember, "key %s", key)
	}
	if _, err := m.Members.RemoveAt(pos); err != nil {
		return err
	}
	if n := len(m.Members); int(m.Threshold) > n {
		m.Threshold = uint16(n)
	}
	m.markChanged()
	return nil
}

// ChangeThreshold sets the number of approvals required.
func (m *Multisig) ChangeThreshold(threshold uint16) error {
	if err := validThreshold(threshold, len(m.Members)); err != nil {
		return err
	}
	m.Threshold = threshold
	m.markChanged()
	return nil
}

// BumpAuthorityIndex increments the authority counter and returns the new
// value.
func (m *Multisig) BumpAuthorityIndex() (uint16, error) {
	if m.AuthorityIndex == math.MaxUint16 {
		return 0, errors.Wrap(ErrIntegerOverflow, "authority index")
	}
	m.AuthorityIndex++
	return m.AuthorityIndex, nil
}

// NextTransactionIndex allocates an index for a new transaction. The first
// transaction of a multisig gets index 1.
func (m *Multisig) NextTransactionIndex() (uint32, error) {
	if m.TransactionIndex == math.MaxUint32 {
		return 0, errors.Wrap(ErrIntegerOverflow, "transaction index")
	}
	m.TransactionIndex++
	return m.TransactionIndex, nil
}

// IsStale returns true if a transaction with given index was proposed before
// the last membership or threshold change.
func (m *Multisig) IsStale(transactionIndex uint32) bool {
	return transactionIndex <= m.ChangeIndex
}

// ProposeTransaction allocates the next transaction index and returns a new
// draft transaction. Caller must ensure that creator is a member.
func (m *Multisig) ProposeTransaction(ms, creator solana.PublicKey, authorityIndex uint32, authorityBump, bump uint8) (*Transaction, error) {
	index, err := m.NextTransactionIndex()
	if err != nil {
		return nil, err
	}
	return &Transaction{
		Creator:          creator,
		Multisig:         ms,
		TransactionIndex: index,
		AuthorityIndex:   authorityIndex,
		AuthorityBump:    authorityBump,
		Status:           StatusDraft,
		Bump:             bump,
	}, nil
}

// Validate returns an error if the multisig state breaks any of its
// invariants.
func (m *Multisig) Validate() error {
	var errs error
	if err := m.Members.Validate(); err != nil {
		errs = errors.AppendField(errs, "Members", err)
	}
	if len(m.Members) > MaxMembers {
		errs = errors.AppendField(errs, "Members", errors.Wrapf(ErrIntegerOverflow, "%d members", len(m.Members)))
	}
	if err := validThreshold(m.Threshold, len(m.Members)); err != nil {
		errs = errors.AppendField(errs, "Threshold", err)
	}
	if m.ChangeIndex > m.TransactionIndex {
		errs = errors.AppendField(errs, "ChangeIndex", errors.Wrap(errors.ErrState, "greater than transaction index"))
	}
	if m.AllowExternalExecute {
		errs = errors.AppendField(errs, "AllowExternalExecute", errors.Wrap(errors.ErrState, "deprecated"))
	}
	return errs
}

// Copy returns a deep copy of the multisig.
func (m *Multisig) Copy() *Multisig {
	c := *m
	c.Members = m.Members.Clone()
	return &c
}

// Size returns the number of bytes the encoded multisig account takes.
func (m *Multisig) Size() int {
	return MultisigSize(len(m.Members))
}

// markChanged invalidates every transaction proposed so far.
func (m *Multisig) markChanged() {
	m.ChangeIndex = m.TransactionIndex
}

func validThreshold(threshold uint16, members int) error {
	if threshold == 0 {
		return errors.Wrap(ErrInvalidThreshold, "threshold must be greater than zero")
	}
	if int(threshold) > members {
		return errors.Wrapf(ErrInvalidThreshold, "threshold %d is greater than %d members", threshold, members)
	}
	return nil
}
