package multisig

import (
	"bytes"

	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
)

// ChangeKind is the kind of change an internal instruction applies to its
// multisig.
type ChangeKind uint8

const (
	ChangeAddMember ChangeKind = iota + 1
	ChangeRemoveMember
	ChangeThreshold
	ChangeAddMemberAndThreshold
	ChangeRemoveMemberAndThreshold
	ChangeAddAuthority
)

// changeMethods maps change kinds to the program method names their
// selectors are computed from.
var changeMethods = map[ChangeKind]string{
	ChangeAddMember:                "add_member",
	ChangeRemoveMember:             "remove_member",
	ChangeThreshold:                "change_threshold",
	ChangeAddMemberAndThreshold:    "add_member_and_change_threshold",
	ChangeRemoveMemberAndThreshold: "remove_member_and_change_threshold",
	ChangeAddAuthority:             "add_authority",
}

func (k ChangeKind) String() string {
	if m, ok := changeMethods[k]; ok {
		return m
	}
	return "unknown"
}

func (k ChangeKind) selector() [discriminatorLen]byte {
	return hashPrefix("global:" + changeMethods[k])
}

func (k ChangeKind) hasMember() bool {
	switch k {
	case ChangeAddMember, ChangeRemoveMember, ChangeAddMemberAndThreshold, ChangeRemoveMemberAndThreshold:
		return true
	}
	return false
}

func (k ChangeKind) hasThreshold() bool {
	switch k {
	case ChangeThreshold, ChangeAddMemberAndThreshold, ChangeRemoveMemberAndThreshold:
		return true
	}
	return false
}

// MembershipChange is a modification of a multisig that can only be
// executed by the multisig itself, through an approved transaction.
type MembershipChange struct {
	Kind      ChangeKind
	Member    solana.PublicKey
	Threshold uint16
}

// Instruction returns the payload that applies this change to given
// multisig when executed.
func (c MembershipChange) Instruction(programID, ms solana.PublicKey) (IncomingInstruction, error) {
	if _, ok := changeMethods[c.Kind]; !ok {
		return IncomingInstruction{}, errors.Wrapf(errors.ErrInput, "unknown change kind %d", c.Kind)
	}
	sel := c.Kind.selector()
	e := newEncoder(discriminatorLen + keyLen + 2)
	e.raw(sel[:])
	if c.Kind.hasMember() {
		e.key(c.Member)
	}
	if c.Kind.hasThreshold() {
		e.u16(c.Threshold)
	}
	data, err := e.finish(c.Kind.String())
	if err != nil {
		return IncomingInstruction{}, err
	}
	return IncomingInstruction{
		ProgramID: programID,
		Keys: []AccountMeta{
			{PublicKey: ms, IsSigner: true, IsWritable: true},
		},
		Data: data,
	}, nil
}

// Apply modifies the multisig. Either the whole change is applied or the
// multisig is left untouched.
func (c MembershipChange) Apply(ms *Multisig) error {
	next := ms.Copy()
	if err := c.apply(next); err != nil {
		return errors.Wrap(err, c.Kind.String())
	}
	*ms = *next
	return nil
}

func (c MembershipChange) apply(ms *Multisig) error {
	switch c.Kind {
	case ChangeAddMember:
		return ms.AddMember(c.Member)
	case ChangeRemoveMember:
		return ms.RemoveMember(c.Member)
	case ChangeThreshold:
		return ms.ChangeThreshold(c.Threshold)
	case ChangeAddMemberAndThreshold:
		if err := ms.AddMember(c.Member); err != nil {
			return err
		}
		return ms.ChangeThreshold(c.Threshold)
	case ChangeRemoveMemberAndThreshold:
		if err := ms.RemoveMember(c.Member); err != nil {
			return err
		}
		return ms.ChangeThreshold(c.Threshold)
	case ChangeAddAuthority:
		_, err := ms.BumpAuthorityIndex()
		return err
	default:
		return errors.Wrapf(errors.ErrInput, "unknown change kind %d", c.Kind)
	}
}

// DecodeMembershipChange parses the data of an internal instruction.
func DecodeMembershipChange(data []byte) (MembershipChange, error) {
	if len(data) < discriminatorLen {
		return MembershipChange{}, errors.Wrap(errors.ErrInput, "missing selector")
	}
	for kind := range changeMethods {
		sel := kind.selector()
		if !bytes.Equal(sel[:], data[:discriminatorLen]) {
			continue
		}
		c := MembershipChange{Kind: kind}
		d := newDecoder(data[discriminatorLen:])
		if kind.hasMember() {
			c.Member = d.key()
		}
		if kind.hasThreshold() {
			c.Threshold = d.u16()
		}
		if err := d.finish(kind.String(), true); err != nil {
			return MembershipChange{}, err
		}
		return c, nil
	}
	return MembershipChange{}, errors.Wrapf(errors.ErrInput, "unknown selector %X", data[:discriminatorLen])
}

// AddMemberInstruction returns a payload adding a member to the multisig.
func AddMemberInstruction(programID, ms, member solana.PublicKey) (IncomingInstruction, error) {
	return MembershipChange{Kind: ChangeAddMember, Member: member}.Instruction(programID, ms)
}

// RemoveMemberInstruction returns a payload removing a member from the
// multisig.
func RemoveMemberInstruction(programID, ms, member solana.PublicKey) (IncomingInstruction, error) {
	return MembershipChange{Kind: ChangeRemoveMember, Member: member}.Instruction(programID, ms)
}

// ChangeThresholdInstruction returns a payload changing the threshold of the
// multisig.
func ChangeThresholdInstruction(programID, ms solana.PublicKey, threshold uint16) (IncomingInstruction, error) {
	return MembershipChange{Kind: ChangeThreshold, Threshold: threshold}.Instruction(programID, ms)
}

// AddAuthorityInstruction returns a payload bumping the authority index of
// the multisig.
func AddAuthorityInstruction(programID, ms solana.PublicKey) (IncomingInstruction, error) {
	return MembershipChange{Kind: ChangeAddAuthority}.Instruction(programID, ms)
}

// ParseChangeKind returns the change kind with given method name.
func ParseChangeKind(name string) (ChangeKind, error) {
	for k, m := range changeMethods {
		if m == name {
			return k, nil
		}
	}
	return 0, errors.Wrapf(errors.ErrInput, "unknown change kind %q", name)
}
