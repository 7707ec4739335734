package multisig

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/iov-one/msig/errors"
)

// Every stored account starts with an 8 byte discriminator computed from the
// account type name, followed by borsh encoded fields.
const (
	discriminatorLen = 8
	keyLen           = 32
	vecLenLen        = 4
	accountMetaLen   = keyLen + 1 + 1

	// threshold, authority index, transaction index, change index, bump,
	// create key, allow external execute and the members length.
	multisigFixedLen = discriminatorLen + 2 + 2 + 4 + 4 + 1 + keyLen + 1 + vecLenLen

	// creator, multisig, transaction index, authority index, authority
	// bump, status, instruction index, bump, three vote set lengths and the
	// executed index.
	transactionFixedLen = discriminatorLen + keyLen + keyLen + 4 + 4 + 1 + 1 + 1 + 1 + 3*vecLenLen + 1

	// transactionMinimumLen is the space reserved for a transaction without
	// the discriminator and vote sets. The status is given 13 bytes so that
	// the enum may carry data in the future.
	transactionMinimumLen = keyLen + keyLen + 4 + 4 + 1 + (1 + 12) + 1 + 1 + 1

	// instruction index, bump and executed flag.
	instructionTrailerLen = 3
)

var (
	multisigDiscriminator    = accountDiscriminator("Ms")
	transactionDiscriminator = accountDiscriminator("MsTransaction")
	instructionDiscriminator = accountDiscriminator("MsInstruction")
)

func accountDiscriminator(name string) [discriminatorLen]byte {
	return hashPrefix("account:" + name)
}

func hashPrefix(s string) [discriminatorLen]byte {
	var d [discriminatorLen]byte
	h := sha256.Sum256([]byte(s))
	copy(d[:], h[:discriminatorLen])
	return d
}

// MultisigSize returns the exact account size of a multisig with given number
// of members.
func MultisigSize(members int) int {
	return multisigFixedLen + keyLen*members
}

// TransactionSize returns the exact account size of a transaction with given
// numbers of approve, reject and cancel votes.
func TransactionSize(approved, rejected, cancelled int) int {
	return transactionFixedLen + keyLen*(approved+rejected+cancelled)
}

// TransactionInitialSize returns the space allocated for a new transaction of
// a multisig with given number of members. It fits every vote the members
// can cast.
func TransactionInitialSize(members int) int {
	return discriminatorLen + transactionMinimumLen + 3*(vecLenLen+keyLen*members)
}

// InstructionAccountSize returns the exact account size of an instruction
// created from given payload.
func InstructionAccountSize(in IncomingInstruction) int {
	return discriminatorLen + in.Size()
}

func incomingInstructionLen(keys, data int) int {
	return keyLen + vecLenLen + accountMetaLen*keys + vecLenLen + data
}

// Marshal returns the account representation of the multisig.
func (m *Multisig) Marshal() ([]byte, error) {
	e := newEncoder(m.Size())
	e.raw(multisigDiscriminator[:])
	e.u16(m.Threshold)
	e.u16(m.AuthorityIndex)
	e.u32(m.TransactionIndex)
	e.u32(m.ChangeIndex)
	e.u8(m.Bump)
	e.key(m.CreateKey)
	e.bool(m.AllowExternalExecute)
	e.keys(m.Members)
	return e.finish("multisig")
}

// Unmarshal loads the multisig from its exact representation.
func (m *Multisig) Unmarshal(raw []byte) error {
	return m.unmarshal(raw, true)
}

// UnmarshalAccount loads the multisig from an allocated account that may be
// zero padded.
func (m *Multisig) UnmarshalAccount(raw []byte) error {
	return m.unmarshal(raw, false)
}

func (m *Multisig) unmarshal(raw []byte, strict bool) error {
	d := newDecoder(raw)
	d.discriminator(multisigDiscriminator)
	var res Multisig
	res.Threshold = d.u16()
	res.AuthorityIndex = d.u16()
	res.TransactionIndex = d.u32()
	res.ChangeIndex = d.u32()
	res.Bump = d.u8()
	res.CreateKey = d.key()
	res.AllowExternalExecute = d.bool()
	res.Members = d.keys()
	if err := d.finish("multisig", strict); err != nil {
		return err
	}
	*m = res
	return nil
}

// Marshal returns the account representation of the transaction.
func (t *Transaction) Marshal() ([]byte, error) {
	e := newEncoder(t.Size())
	e.raw(transactionDiscriminator[:])
	e.key(t.Creator)
	e.key(t.Multisig)
	e.u32(t.TransactionIndex)
	e.u32(t.AuthorityIndex)
	e.u8(t.AuthorityBump)
	e.u8(uint8(t.Status))
	e.u8(t.InstructionIndex)
	e.u8(t.Bump)
	e.keys(t.Approved)
	e.keys(t.Rejected)
	e.keys(t.Cancelled)
	e.u8(t.ExecutedIndex)
	return e.finish("transaction")
}

// Unmarshal loads the transaction from its exact representation.
func (t *Transaction) Unmarshal(raw []byte) error {
	return t.unmarshal(raw, true)
}

// UnmarshalAccount loads the transaction from an allocated account that may
// be zero padded.
func (t *Transaction) UnmarshalAccount(raw []byte) error {
	return t.unmarshal(raw, false)
}

func (t *Transaction) unmarshal(raw []byte, strict bool) error {
	d := newDecoder(raw)
	d.discriminator(transactionDiscriminator)
	var res Transaction
	res.Creator = d.key()
	res.Multisig = d.key()
	res.TransactionIndex = d.u32()
	res.AuthorityIndex = d.u32()
	res.AuthorityBump = d.u8()
	res.Status = d.status()
	res.InstructionIndex = d.u8()
	res.Bump = d.u8()
	res.Approved = d.keys()
	res.Rejected = d.keys()
	res.Cancelled = d.keys()
	res.ExecutedIndex = d.u8()
	if err := d.finish("transaction", strict); err != nil {
		return err
	}
	*t = res
	return nil
}

// Marshal returns the account representation of the instruction.
func (ix *Instruction) Marshal() ([]byte, error) {
	e := newEncoder(ix.Size())
	e.raw(instructionDiscriminator[:])
	e.incoming(ix.Incoming())
	e.u8(ix.InstructionIndex)
	e.u8(ix.Bump)
	e.bool(ix.Executed)
	return e.finish("instruction")
}

// Unmarshal loads the instruction from its exact representation.
func (ix *Instruction) Unmarshal(raw []byte) error {
	return ix.unmarshal(raw, true)
}

// UnmarshalAccount loads the instruction from an allocated account that may
// be zero padded.
func (ix *Instruction) UnmarshalAccount(raw []byte) error {
	return ix.unmarshal(raw, false)
}

func (ix *Instruction) unmarshal(raw []byte, strict bool) error {
	d := newDecoder(raw)
	d.discriminator(instructionDiscriminator)
	in := d.incoming()
	var res Instruction
	res.ProgramID = in.ProgramID
	res.Keys = in.Keys
	res.Data = in.Data
	res.InstructionIndex = d.u8()
	res.Bump = d.u8()
	res.Executed = d.bool()
	if err := d.finish("instruction", strict); err != nil {
		return err
	}
	*ix = res
	return nil
}

// Marshal returns the borsh representation of the payload, as it is passed
// to the attach instruction.
func (in IncomingInstruction) Marshal() ([]byte, error) {
	e := newEncoder(incomingInstructionLen(len(in.Keys), len(in.Data)))
	e.incoming(in)
	return e.finish("incoming instruction")
}

// Unmarshal loads the payload from its borsh representation.
func (in *IncomingInstruction) Unmarshal(raw []byte) error {
	d := newDecoder(raw)
	res := d.incoming()
	if err := d.finish("incoming instruction", true); err != nil {
		return err
	}
	*in = res
	return nil
}

// encoder is a borsh encoder that remembers the first failure, so that a
// record can be written field by field and checked once.
type encoder struct {
	buf *bytes.Buffer
	enc *bin.Encoder
	err error
}

func newEncoder(size int) *encoder {
	buf := bytes.NewBuffer(make([]byte, 0, size))
	return &encoder{buf: buf, enc: bin.NewBorshEncoder(buf)}
}

func (e *encoder) do(fn func() error) {
	if e.err == nil {
		e.err = fn()
	}
}

func (e *encoder) raw(b []byte) { e.do(func() error { return e.enc.WriteBytes(b, false) }) }
func (e *encoder) u8(v uint8)   { e.do(func() error { return e.enc.WriteUint8(v) }) }
func (e *encoder) bool(v bool)  { e.do(func() error { return e.enc.WriteBool(v) }) }
func (e *encoder) key(k solana.PublicKey) {
	e.raw(k[:])
}

func (e *encoder) u16(v uint16) {
	e.do(func() error { return e.enc.WriteUint16(v, binary.LittleEndian) })
}

func (e *encoder) u32(v uint32) {
	e.do(func() error { return e.enc.WriteUint32(v, binary.LittleEndian) })
}

func (e *encoder) vecLen(n int) {
	if uint64(n) > uint64(^uint32(0)) {
		e.do(func() error { return errors.Wrapf(ErrIntegerOverflow, "collection of %d elements", n) })
		return
	}
	e.u32(uint32(n))
}

func (e *encoder) keys(ks []solana.PublicKey) {
	e.vecLen(len(ks))
	for _, k := range ks {
		e.key(k)
	}
}

func (e *encoder) incoming(in IncomingInstruction) {
	e.key(in.ProgramID)
	e.vecLen(len(in.Keys))
	for _, k := range in.Keys {
		e.key(k.PublicKey)
		e.bool(k.IsSigner)
		e.bool(k.IsWritable)
	}
	e.vecLen(len(in.Data))
	e.raw(in.Data)
}

func (e *encoder) finish(what string) ([]byte, error) {
	if e.err != nil {
		return nil, errors.Wrapf(e.err, "encode %s", what)
	}
	return e.buf.Bytes(), nil
}

// decoder is the reading counterpart of the encoder. After the first failure
// every read returns a zero value.
type decoder struct {
	dec *bin.Decoder
	err error
}

func newDecoder(raw []byte) *decoder {
	return &decoder{dec: bin.NewBorshDecoder(raw)}
}

func (d *decoder) fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *decoder) need(n int) bool {
	if d.err != nil {
		return false
	}
	if d.dec.Remaining() < n {
		d.fail(errors.Wrapf(errors.ErrInput, "need %d bytes, %d left", n, d.dec.Remaining()))
		return false
	}
	return true
}

func (d *decoder) discriminator(want [discriminatorLen]byte) {
	if !d.need(discriminatorLen) {
		return
	}
	got, err := d.dec.ReadNBytes(discriminatorLen)
	if err != nil {
		d.fail(errors.Wrap(errors.ErrInput, err.Error()))
		return
	}
	if !bytes.Equal(got, want[:]) {
		d.fail(errors.Wrapf(ErrDiscriminator, "got %X", got))
	}
}

func (d *decoder) u8() uint8 {
	if !d.need(1) {
		return 0
	}
	v, err := d.dec.ReadUint8()
	if err != nil {
		d.fail(errors.Wrap(errors.ErrInput, err.Error()))
	}
	return v
}

func (d *decoder) u16() uint16 {
	if !d.need(2) {
		return 0
	}
	v, err := d.dec.ReadUint16(binary.LittleEndian)
	if err != nil {
		d.fail(errors.Wrap(errors.ErrInput, err.Error()))
	}
	return v
}

func (d *decoder) u32() uint32 {
	if !d.need(4) {
		return 0
	}
	v, err := d.dec.ReadUint32(binary.LittleEndian)
	if err != nil {
		d.fail(errors.Wrap(errors.ErrInput, err.Error()))
	}
	return v
}

func (d *decoder) bool() bool {
	switch v := d.u8(); v {
	case 0:
		return false
	case 1:
		return true
	default:
		d.fail(errors.Wrapf(errors.ErrInput, "invalid bool value %d", v))
		return false
	}
}

func (d *decoder) status() Status {
	s := Status(d.u8())
	if d.err == nil {
		d.fail(s.Validate())
	}
	return s
}

func (d *decoder) bytes(n int) []byte {
	if !d.need(n) {
		return nil
	}
	b, err := d.dec.ReadNBytes(n)
	if err != nil {
		d.fail(errors.Wrap(errors.ErrInput, err.Error()))
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

func (d *decoder) key() solana.PublicKey {
	b := d.bytes(keyLen)
	if b == nil {
		return solana.PublicKey{}
	}
	return solana.PublicKeyFromBytes(b)
}

// vecLen reads a collection length and ensures that elements of given size
// can fit into the remaining data.
func (d *decoder) vecLen(elemSize int) int {
	n := int(d.u32())
	if d.err != nil {
		return 0
	}
	if n > d.dec.Remaining()/elemSize {
		d.fail(errors.Wrapf(errors.ErrInput, "collection of %d elements does not fit", n))
		return 0
	}
	return n
}

func (d *decoder) keys() KeySet {
	n := d.vecLen(keyLen)
	if n == 0 {
		return nil
	}
	ks := make(KeySet, 0, n)
	for i := 0; i < n; i++ {
		ks = append(ks, d.key())
	}
	return ks
}

func (d *decoder) incoming() IncomingInstruction {
	var in IncomingInstruction
	in.ProgramID = d.key()
	n := d.vecLen(accountMetaLen)
	in.Keys = make([]AccountMeta, 0, n)
	for i := 0; i < n; i++ {
		in.Keys = append(in.Keys, AccountMeta{
			PublicKey:  d.key(),
			IsSigner:   d.bool(),
			IsWritable: d.bool(),
		})
	}
	in.Data = d.bytes(d.vecLen(1))
	if in.Data == nil {
		in.Data = []byte{}
	}
	return in
}

// finish returns the first decoding failure. Strict decoding rejects any
// bytes left, otherwise only zero padding is allowed.
func (d *decoder) finish(what string, strict bool) error {
	if d.err != nil {
		return errors.Wrapf(d.err, "decode %s", what)
	}
	left, err := d.dec.ReadNBytes(d.dec.Remaining())
	if err != nil {
		return errors.Wrapf(errors.ErrInput, "decode %s: %s", what, err)
	}
	if strict && len(left) > 0 {
		return errors.Wrapf(errors.ErrInput, "decode %s: %d trailing bytes", what, len(left))
	}
	for _, c := range left {
		if c != 0 {
			return errors.Wrapf(errors.ErrInput, "decode %s: non zero padding", what)
		}
	}
	return nil
}
