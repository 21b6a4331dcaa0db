// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"io"
	"sort"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/wireutil"
)

// InputKind tags the eleven variants an Input may be. The values match the
// wire-format variant tags exactly so decoding is a direct switch on the
// byte read off the wire.
type InputKind uint8

const (
	KindCoinbase         InputKind = 0xff
	KindSpend            InputKind = 0x02
	KindMint             InputKind = 0x03
	KindRemint           InputKind = 0x04
	KindCreateContract   InputKind = 0x05
	KindMintContract     InputKind = 0x06
	KindGradeContract    InputKind = 0x07
	KindResolveBC        InputKind = 0x08
	KindFuseBC           InputKind = 0x09
	KindRegisterDelegate InputKind = 0x0a
	KindVote             InputKind = 0x0b
)

func (k InputKind) String() string {
	switch k {
	case KindCoinbase:
		return "coinbase"
	case KindSpend:
		return "spend"
	case KindMint:
		return "mint"
	case KindRemint:
		return "remint"
	case KindCreateContract:
		return "create-contract"
	case KindMintContract:
		return "mint-contract"
	case KindGradeContract:
		return "grade-contract"
	case KindResolveBC:
		return "resolve-bc"
	case KindFuseBC:
		return "fuse-bc"
	case KindRegisterDelegate:
		return "register-delegate"
	case KindVote:
		return "vote"
	default:
		return "unknown-input-kind"
	}
}

// SignatureCount returns how many signatures accompany an input of this
// kind in the transaction's per-input signature vector. Only Spend (and
// the embedded spend inside Vote) carry a ring of signatures; every other
// kind is either self-authenticating (a single detached signature stored
// on the input itself, e.g. Remint/GradeContract) or unsigned.
func (k InputKind) SignatureCount(ringSize int) int {
	switch k {
	case KindSpend, KindVote:
		return ringSize
	default:
		return 0
	}
}

// Input is implemented by each of the eleven input kinds. CoinType
// reports the coin type carried alongside the input; for kinds where a
// coin type is not meaningful it is cointype.NA.
type Input interface {
	Kind() InputKind
	CoinType() cointype.CoinType
	encode(w io.Writer) error
	decode(r io.Reader) error
}

// DecodeInput reads one tagged input from r.
func DecodeInput(r io.Reader) (Input, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return nil, err
	}
	kind := InputKind(tagBuf[0])

	var in Input
	switch kind {
	case KindCoinbase:
		in = &CoinbaseInput{}
	case KindSpend:
		in = &SpendInput{}
	case KindMint:
		in = &MintInput{}
	case KindRemint:
		in = &RemintInput{}
	case KindCreateContract:
		in = &CreateContractInput{}
	case KindMintContract:
		in = &MintContractInput{}
	case KindGradeContract:
		in = &GradeContractInput{}
	case KindResolveBC:
		in = &ResolveBCInput{}
	case KindFuseBC:
		in = &FuseBCInput{}
	case KindRegisterDelegate:
		in = &RegisterDelegateInput{}
	case KindVote:
		in = &VoteInput{}
	default:
		return nil, errors.Errorf("unknown input variant tag 0x%02x", byte(kind))
	}
	if err := in.decode(r); err != nil {
		return nil, err
	}
	return in, nil
}

// EncodeInput writes the tagged input to w.
func EncodeInput(w io.Writer, in Input) error {
	if _, err := w.Write([]byte{byte(in.Kind())}); err != nil {
		return err
	}
	return in.encode(w)
}

// ---- Coinbase ----

// CoinbaseInput is the sole input of a miner transaction; it encodes the
// containing block's height so the coinbase hash is unique per height.
type CoinbaseInput struct {
	Height uint64
}

func (in *CoinbaseInput) Kind() InputKind             { return KindCoinbase }
func (in *CoinbaseInput) CoinType() cointype.CoinType { return cointype.XPB }

func (in *CoinbaseInput) encode(w io.Writer) error {
	return wireutil.WriteVarInt(w, in.Height)
}
func (in *CoinbaseInput) decode(r io.Reader) error {
	h, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Height = h
	return nil
}

// ---- Spend ----

// KeyImage is the deterministic one-time identifier derived from the
// spent output's one-time key; it reveals double spends without
// revealing which ring member was actually spent.
type KeyImage [32]byte

// RingSignature is a single signature component of a ring signature; a
// Spend input carries len(Offsets) of these in the transaction's
// signature vector.
type RingSignature [64]byte

// SpendInput spends a single output, identified only by its key image
// and a ring of candidate output offsets; exactly one ring member is the
// true spend, hidden behind the ring signature carried alongside the
// transaction.
type SpendInput struct {
	Coin KeyImage
	// Offsets are ascending global output indices within the coin type's
	// (coin_type, amount) output list; the wire encoding stores them
	// delta-encoded the way ring members are in the original format.
	Offsets  []uint64
	coinType cointype.CoinType
	Amount   amount.Amount
}

func (in *SpendInput) Kind() InputKind             { return KindSpend }
func (in *SpendInput) CoinType() cointype.CoinType { return in.coinType }

// SetCoinType is used by the decoder and by transaction builders; it is
// not part of the wire encoding of the input itself (coin types travel
// in the version-gated side-vectors, see transaction.go).
func (in *SpendInput) SetCoinType(c cointype.CoinType) { in.coinType = c }

func (in *SpendInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, uint64(in.Amount)); err != nil {
		return err
	}
	if _, err := w.Write(in.Coin[:]); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(len(in.Offsets))); err != nil {
		return err
	}
	var prev uint64
	for _, off := range in.Offsets {
		if err := wireutil.WriteVarInt(w, off-prev); err != nil {
			return err
		}
		prev = off
	}
	return nil
}

func (in *SpendInput) decode(r io.Reader) error {
	a, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Amount = amount.Amount(a)
	if _, err := io.ReadFull(r, in.Coin[:]); err != nil {
		return err
	}
	n, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	offsets := make([]uint64, n)
	var acc uint64
	for i := range offsets {
		delta, err := wireutil.ReadVarInt(r)
		if err != nil {
			return err
		}
		acc += delta
		offsets[i] = acc
	}
	in.Offsets = offsets
	return nil
}

// ---- Mint ----

// MintInput registers a brand new sub-currency.
type MintInput struct {
	CurrencyID  uint64
	Description string
	Decimals    uint8
	Amount      amount.Amount
	// RemintKey is nil when the currency has a fixed supply.
	RemintKey *[32]byte
}

func (in *MintInput) Kind() InputKind { return KindMint }
func (in *MintInput) CoinType() cointype.CoinType {
	return cointype.New(in.CurrencyID, cointype.NotContract, cointype.BackedByNA)
}

func (in *MintInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.CurrencyID); err != nil {
		return err
	}
	if err := wireutil.WriteVarBytes(w, []byte(in.Description)); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.Decimals)); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.Amount)); err != nil {
		return err
	}
	hasKey := in.RemintKey != nil
	var flag [1]byte
	if hasKey {
		flag[0] = 1
	}
	if _, err := w.Write(flag[:]); err != nil {
		return err
	}
	if hasKey {
		if _, err := w.Write(in.RemintKey[:]); err != nil {
			return err
		}
	}
	return nil
}

func (in *MintInput) decode(r io.Reader) error {
	var err error
	if in.CurrencyID, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	desc, err := wireutil.ReadVarBytes(r, 4096, "mint description")
	if err != nil {
		return err
	}
	in.Description = string(desc)
	dec, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Decimals = uint8(dec)
	a, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Amount = amount.Amount(a)
	var flag [1]byte
	if _, err := io.ReadFull(r, flag[:]); err != nil {
		return err
	}
	if flag[0] != 0 {
		var key [32]byte
		if _, err := io.ReadFull(r, key[:]); err != nil {
			return err
		}
		in.RemintKey = &key
	}
	return nil
}

// ---- Remint ----

// RemintInput adds to a currency's supply using the currently active
// remint key, and rotates that key forward.
type RemintInput struct {
	CurrencyID   uint64
	Amount       amount.Amount
	NewRemintKey [32]byte
	Signature    [64]byte
}

func (in *RemintInput) Kind() InputKind { return KindRemint }
func (in *RemintInput) CoinType() cointype.CoinType {
	return cointype.New(in.CurrencyID, cointype.NotContract, cointype.BackedByNA)
}

// SignedData returns the bytes signed by the current remint key,
// matching the original's txin_remint::get_prefix_hash preimage (minus
// the hashing step, left to the caller).
func (in *RemintInput) SignedData() []byte {
	buf := make([]byte, 0, 8+8+32)
	buf = appendUint64LE(buf, in.CurrencyID)
	buf = appendUint64LE(buf, uint64(in.Amount))
	buf = append(buf, in.NewRemintKey[:]...)
	return buf
}

func (in *RemintInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.CurrencyID); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.Amount)); err != nil {
		return err
	}
	if _, err := w.Write(in.NewRemintKey[:]); err != nil {
		return err
	}
	_, err := w.Write(in.Signature[:])
	return err
}

func (in *RemintInput) decode(r io.Reader) error {
	var err error
	if in.CurrencyID, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	a, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Amount = amount.Amount(a)
	if _, err := io.ReadFull(r, in.NewRemintKey[:]); err != nil {
		return err
	}
	_, err = io.ReadFull(r, in.Signature[:])
	return err
}

// ---- CreateContract ----

// CreateContractInput registers a new contract available for minting.
type CreateContractInput struct {
	ContractID   uint64
	Description  string
	GradingKey   [32]byte
	FeeScale     uint32
	ExpiryBlock  uint64
	DefaultGrade uint32
}

func (in *CreateContractInput) Kind() InputKind             { return KindCreateContract }
func (in *CreateContractInput) CoinType() cointype.CoinType { return cointype.NA }

func (in *CreateContractInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.ContractID); err != nil {
		return err
	}
	if err := wireutil.WriteVarBytes(w, []byte(in.Description)); err != nil {
		return err
	}
	if _, err := w.Write(in.GradingKey[:]); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.FeeScale)); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, in.ExpiryBlock); err != nil {
		return err
	}
	return wireutil.WriteVarInt(w, uint64(in.DefaultGrade))
}

func (in *CreateContractInput) decode(r io.Reader) error {
	var err error
	if in.ContractID, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	desc, err := wireutil.ReadVarBytes(r, 4096, "contract description")
	if err != nil {
		return err
	}
	in.Description = string(desc)
	if _, err := io.ReadFull(r, in.GradingKey[:]); err != nil {
		return err
	}
	fs, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.FeeScale = uint32(fs)
	if in.ExpiryBlock, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	dg, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.DefaultGrade = uint32(dg)
	return nil
}

// ---- MintContract ----

// MintContractInput burns Amount of BackingCurrency and mints Amount of
// both BackingCoin and ContractCoin of Contract.
type MintContractInput struct {
	Contract        uint64
	BackingCurrency uint64
	Amount          amount.Amount
}

func (in *MintContractInput) Kind() InputKind             { return KindMintContract }
func (in *MintContractInput) CoinType() cointype.CoinType { return cointype.NA }

func (in *MintContractInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.Contract); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, in.BackingCurrency); err != nil {
		return err
	}
	return wireutil.WriteVarInt(w, uint64(in.Amount))
}

func (in *MintContractInput) decode(r io.Reader) error {
	var err error
	if in.Contract, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	if in.BackingCurrency, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	a, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Amount = amount.Amount(a)
	return nil
}

// ---- GradeContract ----

// FeeClaim is one entry of a GradeContract input's claimed-fee map: the
// grader asserts it is owed Amount of Currency.
type FeeClaim struct {
	Currency uint64
	Amount   amount.Amount
}

// GradeContractInput finalizes a contract at Grade, claiming fees in
// FeeClaims, authenticated by the contract's grading key.
type GradeContractInput struct {
	Contract  uint64
	Grade     uint32
	FeeClaims []FeeClaim
	Signature [64]byte
}

func (in *GradeContractInput) Kind() InputKind             { return KindGradeContract }
func (in *GradeContractInput) CoinType() cointype.CoinType { return cointype.NA }

// SignedData returns the bytes signed by the grading key, matching the
// original's txin_grade_contract::get_prefix_hash preimage. Fee claims
// are hashed in ascending currency-id order for determinism, since the
// original stores them in a sorted std::map.
func (in *GradeContractInput) SignedData() []byte {
	claims := make([]FeeClaim, len(in.FeeClaims))
	copy(claims, in.FeeClaims)
	sort.Slice(claims, func(i, j int) bool { return claims[i].Currency < claims[j].Currency })

	buf := make([]byte, 0, 8+4+len(claims)*16)
	buf = appendUint64LE(buf, in.Contract)
	buf = appendUint32LE(buf, in.Grade)
	for _, c := range claims {
		buf = appendUint64LE(buf, c.Currency)
		buf = appendUint64LE(buf, uint64(c.Amount))
	}
	return buf
}

func (in *GradeContractInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.Contract); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.Grade)); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(len(in.FeeClaims))); err != nil {
		return err
	}
	for _, c := range in.FeeClaims {
		if err := wireutil.WriteVarInt(w, c.Currency); err != nil {
			return err
		}
		if err := wireutil.WriteVarInt(w, uint64(c.Amount)); err != nil {
			return err
		}
	}
	_, err := w.Write(in.Signature[:])
	return err
}

func (in *GradeContractInput) decode(r io.Reader) error {
	var err error
	if in.Contract, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	grade, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Grade = uint32(grade)
	n, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	claims := make([]FeeClaim, n)
	for i := range claims {
		cur, err := wireutil.ReadVarInt(r)
		if err != nil {
			return err
		}
		amt, err := wireutil.ReadVarInt(r)
		if err != nil {
			return err
		}
		claims[i] = FeeClaim{Currency: cur, Amount: amount.Amount(amt)}
	}
	in.FeeClaims = claims
	_, err = io.ReadFull(r, in.Signature[:])
	return err
}

// ---- ResolveBC ----

// ResolveBCInput converts SourceAmount of either BackingCoin or
// ContractCoin back into GradedAmount of the backing currency, once the
// contract has been graded (or has expired, using the default grade).
type ResolveBCInput struct {
	Contract        uint64
	IsBackingCoins  bool
	BackingCurrency uint64
	SourceAmount    amount.Amount
	GradedAmount    amount.Amount
}

func (in *ResolveBCInput) Kind() InputKind { return KindResolveBC }
func (in *ResolveBCInput) CoinType() cointype.CoinType {
	return cointype.New(in.BackingCurrency, cointype.NotContract, cointype.BackedByNA)
}

func (in *ResolveBCInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.Contract); err != nil {
		return err
	}
	var b uint64
	if in.IsBackingCoins {
		b = 1
	}
	if err := wireutil.WriteVarInt(w, b); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, in.BackingCurrency); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.SourceAmount)); err != nil {
		return err
	}
	return wireutil.WriteVarInt(w, uint64(in.GradedAmount))
}

func (in *ResolveBCInput) decode(r io.Reader) error {
	var err error
	if in.Contract, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	b, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.IsBackingCoins = b != 0
	if in.BackingCurrency, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	src, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.SourceAmount = amount.Amount(src)
	graded, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.GradedAmount = amount.Amount(graded)
	return nil
}

// ---- FuseBC ----

// FuseBCInput destroys one BackingCoin and one ContractCoin of the same
// contract (both of Amount) to reclaim one backing-currency coin; only
// valid before the contract has been graded.
type FuseBCInput struct {
	Contract        uint64
	BackingCurrency uint64
	Amount          amount.Amount
}

func (in *FuseBCInput) Kind() InputKind { return KindFuseBC }
func (in *FuseBCInput) CoinType() cointype.CoinType {
	return cointype.New(in.BackingCurrency, cointype.NotContract, cointype.BackedByNA)
}

func (in *FuseBCInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.Contract); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, in.BackingCurrency); err != nil {
		return err
	}
	return wireutil.WriteVarInt(w, uint64(in.Amount))
}

func (in *FuseBCInput) decode(r io.Reader) error {
	var err error
	if in.Contract, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	if in.BackingCurrency, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	a, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Amount = amount.Amount(a)
	return nil
}

// ---- RegisterDelegate ----

// RegisterDelegateInput claims DelegateID for Address, paying
// RegistrationFee.
type RegisterDelegateInput struct {
	DelegateID      uint64
	RegistrationFee amount.Amount
	Address         [64]byte // view key || spend key
}

func (in *RegisterDelegateInput) Kind() InputKind             { return KindRegisterDelegate }
func (in *RegisterDelegateInput) CoinType() cointype.CoinType { return cointype.XPB }

func (in *RegisterDelegateInput) encode(w io.Writer) error {
	if err := wireutil.WriteVarInt(w, in.DelegateID); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.RegistrationFee)); err != nil {
		return err
	}
	_, err := w.Write(in.Address[:])
	return err
}

func (in *RegisterDelegateInput) decode(r io.Reader) error {
	var err error
	if in.DelegateID, err = wireutil.ReadVarInt(r); err != nil {
		return err
	}
	fee, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.RegistrationFee = amount.Amount(fee)
	_, err = io.ReadFull(r, in.Address[:])
	return err
}

// ---- Vote ----

// VoteInput spends an XPB output's key image as a vote: it carries an
// embedded spend (so the image still gets the same double-spend
// protection) along with a sequence number and the chosen delegate set.
type VoteInput struct {
	Spend       SpendInput
	Sequence    uint16
	DelegateIDs []uint64
}

func (in *VoteInput) Kind() InputKind             { return KindVote }
func (in *VoteInput) CoinType() cointype.CoinType { return cointype.XPB }

func (in *VoteInput) encode(w io.Writer) error {
	if err := in.Spend.encode(w); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(in.Sequence)); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(len(in.DelegateIDs))); err != nil {
		return err
	}
	for _, id := range in.DelegateIDs {
		if err := wireutil.WriteVarInt(w, id); err != nil {
			return err
		}
	}
	return nil
}

func (in *VoteInput) decode(r io.Reader) error {
	in.Spend.coinType = cointype.XPB
	if err := in.Spend.decode(r); err != nil {
		return err
	}
	seq, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	in.Sequence = uint16(seq)
	n, err := wireutil.ReadVarInt(r)
	if err != nil {
		return err
	}
	ids := make([]uint64, n)
	for i := range ids {
		if ids[i], err = wireutil.ReadVarInt(r); err != nil {
			return err
		}
	}
	in.DelegateIDs = ids
	return nil
}

func appendUint64LE(buf []byte, v uint64) []byte {
	var tmp [8]byte
	for i := 0; i < 8; i++ {
		tmp[i] = byte(v >> (8 * i))
	}
	return append(buf, tmp[:]...)
}

func appendUint32LE(buf []byte, v uint32) []byte {
	var tmp [4]byte
	for i := 0; i < 4; i++ {
		tmp[i] = byte(v >> (8 * i))
	}
	return append(buf, tmp[:]...)
}
