// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package transaction implements the eleven input kinds, the single
// output kind, and the version-gated binary format.
package transaction

import (
	"bytes"
	"io"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/wireutil"
)

// TxTag is the archive-level tag that precedes a serialized transaction.
const TxTag = 0xcc

const (
	maxInputsPerTx  = 1 << 16
	maxOutputsPerTx = 1 << 16
	maxExtraSize    = 1 << 16
)

// Transaction is the single state-mutating unit of the ledger: an
// ordered list of inputs, an ordered list of outputs, and a version that
// gates which coin types its inputs/outputs may legally carry.
type Transaction struct {
	Version    uint64
	UnlockTime uint64
	Inputs     []Input
	Outputs    []Output
	Extra      []byte

	// Signatures holds one slice of ring signatures per input, with
	// length equal to InputKind.SignatureCount for that input; kinds
	// that carry a single detached signature (Remint, GradeContract)
	// store it on the input itself instead and have a nil entry here.
	Signatures [][]RingSignature
}

// coinTypeSettable is implemented by the input kinds whose coin type is
// not derivable from their own fields and must travel in the version
//3/4 side-vectors.
type coinTypeSettable interface {
	SetCoinType(cointype.CoinType)
}

// SetCoinType implements coinTypeSettable for VoteInput by forwarding to
// its embedded spend.
func (in *VoteInput) SetCoinType(c cointype.CoinType) { in.Spend.coinType = c }

// MinVersion returns the minimum transaction version this transaction's
// inputs and outputs require: the max of every input and output coin
// type's MinTxVersion, and DPoSTxVersion if any input is a Vote or
// RegisterDelegate.
func (tx *Transaction) MinVersion() uint64 {
	min := uint64(cointype.VanillaTxVersion)
	for _, in := range tx.Inputs {
		if v := uint64(in.CoinType().MinTxVersion()); v > min {
			min = v
		}
		if in.Kind() == KindVote || in.Kind() == KindRegisterDelegate {
			if cointype.DPoSTxVersion > min {
				min = cointype.DPoSTxVersion
			}
		}
	}
	for _, out := range tx.Outputs {
		if v := uint64(out.CoinType.MinTxVersion()); v > min {
			min = v
		}
	}
	return min
}

// Validate checks that every input's coin type is consistent with its
// kind and that the recorded version is at least MinVersion(). It does
// not perform any ledger-state validation.
func (tx *Transaction) Validate() error {
	if tx.Version < uint64(tx.MinVersion()) {
		return errors.Errorf("transaction version %d below minimum required %d", tx.Version, tx.MinVersion())
	}
	for i, in := range tx.Inputs {
		if err := checkInputCoinTypeConsistency(in); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}
	return nil
}

func checkInputCoinTypeConsistency(in Input) error {
	ct := in.CoinType()
	switch in.Kind() {
	case KindCreateContract, KindMintContract, KindGradeContract:
		if ct != cointype.NA {
			return errors.Errorf("%s input must carry coin type N/A, got %s", in.Kind(), ct)
		}
	case KindCoinbase, KindRegisterDelegate, KindVote:
		if ct != cointype.XPB {
			return errors.Errorf("%s input must carry coin type XPB, got %s", in.Kind(), ct)
		}
	case KindMint, KindRemint, KindFuseBC, KindResolveBC:
		if ct.Role != cointype.NotContract {
			return errors.Errorf("%s input must carry a plain currency coin type, got %s", in.Kind(), ct)
		}
	}
	return nil
}

// PrefixHash hashes every field except the signature vector; it is what
// ring signatures and detached signatures (Remint, GradeContract) sign
// over.
func (tx *Transaction) PrefixHash() chainhash.Hash {
	var buf bytes.Buffer
	tx.encode(&buf, false)
	return chainhash.HashH(buf.Bytes())
}

// Hash hashes the complete transaction, signatures included.
func (tx *Transaction) Hash() chainhash.Hash {
	var buf bytes.Buffer
	tx.encode(&buf, true)
	return chainhash.HashH(buf.Bytes())
}

// Encode writes the full wire encoding (prefix plus signatures) to w.
func (tx *Transaction) Encode(w io.Writer) error {
	return tx.encode(w, true)
}

func (tx *Transaction) encode(w io.Writer, withSignatures bool) error {
	if err := wireutil.WriteVarInt(w, tx.Version); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, tx.UnlockTime); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(len(tx.Inputs))); err != nil {
		return err
	}
	for _, in := range tx.Inputs {
		if err := EncodeInput(w, in); err != nil {
			return err
		}
	}
	if err := wireutil.WriteVarInt(w, uint64(len(tx.Outputs))); err != nil {
		return err
	}
	for _, out := range tx.Outputs {
		if err := encodeOutput(w, out); err != nil {
			return err
		}
	}
	if err := wireutil.WriteVarBytes(w, tx.Extra); err != nil {
		return err
	}
	if err := encodeCoinTypeVectors(w, tx); err != nil {
		return err
	}
	if !withSignatures {
		return nil
	}
	for i, in := range tx.Inputs {
		want := in.Kind().SignatureCount(spendRingSize(in))
		sigs := tx.Signatures[i]
		if len(sigs) != want {
			return errors.Errorf("input %d: have %d signatures, want %d", i, len(sigs), want)
		}
		for _, sig := range sigs {
			if _, err := w.Write(sig[:]); err != nil {
				return err
			}
		}
	}
	return nil
}

func spendRingSize(in Input) int {
	switch v := in.(type) {
	case *SpendInput:
		return len(v.Offsets)
	case *VoteInput:
		return len(v.Spend.Offsets)
	default:
		return 0
	}
}

// Decode reads a full transaction (prefix plus signatures) from r.
func Decode(r io.Reader) (*Transaction, error) {
	tx := &Transaction{}

	var err error
	if tx.Version, err = wireutil.ReadVarInt(r); err != nil {
		return nil, err
	}
	if tx.UnlockTime, err = wireutil.ReadVarInt(r); err != nil {
		return nil, err
	}

	numIn, err := wireutil.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if numIn > maxInputsPerTx {
		return nil, errors.Errorf("input count %d exceeds max %d", numIn, maxInputsPerTx)
	}
	inputs := make([]Input, numIn)
	for i := range inputs {
		in, err := DecodeInput(r)
		if err != nil {
			return nil, errors.Wrapf(err, "input %d", i)
		}
		inputs[i] = in
	}
	tx.Inputs = inputs

	numOut, err := wireutil.ReadVarInt(r)
	if err != nil {
		return nil, err
	}
	if numOut > maxOutputsPerTx {
		return nil, errors.Errorf("output count %d exceeds max %d", numOut, maxOutputsPerTx)
	}
	outputs := make([]Output, numOut)
	for i := range outputs {
		out, err := decodeOutput(r)
		if err != nil {
			return nil, errors.Wrapf(err, "output %d", i)
		}
		outputs[i] = out
	}
	tx.Outputs = outputs

	extra, err := wireutil.ReadVarBytes(r, maxExtraSize, "tx extra")
	if err != nil {
		return nil, err
	}
	tx.Extra = extra

	if err := decodeCoinTypeVectors(r, tx); err != nil {
		return nil, err
	}

	sigs := make([][]RingSignature, len(tx.Inputs))
	for i, in := range tx.Inputs {
		n := in.Kind().SignatureCount(spendRingSize(in))
		if n == 0 {
			continue
		}
		ringSigs := make([]RingSignature, n)
		for j := range ringSigs {
			if _, err := io.ReadFull(r, ringSigs[j][:]); err != nil {
				return nil, errors.Wrapf(err, "input %d signature %d", i, j)
			}
		}
		sigs[i] = ringSigs
	}
	tx.Signatures = sigs

	return tx, nil
}

// encodeCoinTypeVectors writes the version-gated trailing coin-type
// data: nothing for v1/v2, a currency-id-only vector for v3, and a full
// (currency, role, backing) vector for v4.
func encodeCoinTypeVectors(w io.Writer, tx *Transaction) error {
	switch tx.Version {
	case cointype.VanillaTxVersion, cointype.DPoSTxVersion:
		return nil
	case cointype.CurrencyTxVersion:
		for _, in := range tx.Inputs {
			if err := wireutil.WriteVarInt(w, in.CoinType().Currency); err != nil {
				return err
			}
		}
		for _, out := range tx.Outputs {
			if err := wireutil.WriteVarInt(w, out.CoinType.Currency); err != nil {
				return err
			}
		}
		return nil
	case cointype.ContractTxVersion:
		for _, in := range tx.Inputs {
			if err := writeCoinType(w, in.CoinType()); err != nil {
				return err
			}
		}
		for _, out := range tx.Outputs {
			if err := writeCoinType(w, out.CoinType); err != nil {
				return err
			}
		}
		return nil
	default:
		return errors.Errorf("unsupported transaction version %d", tx.Version)
	}
}

func writeCoinType(w io.Writer, c cointype.CoinType) error {
	if err := wireutil.WriteVarInt(w, c.Currency); err != nil {
		return err
	}
	if err := wireutil.WriteVarInt(w, uint64(c.Role)); err != nil {
		return err
	}
	return wireutil.WriteVarInt(w, c.BackingCurrency)
}

func readCoinType(r io.Reader) (cointype.CoinType, error) {
	var c cointype.CoinType
	cur, err := wireutil.ReadVarInt(r)
	if err != nil {
		return c, err
	}
	role, err := wireutil.ReadVarInt(r)
	if err != nil {
		return c, err
	}
	backing, err := wireutil.ReadVarInt(r)
	if err != nil {
		return c, err
	}
	c.Currency = cur
	c.Role = cointype.ContractRole(role)
	c.BackingCurrency = backing
	return c, nil
}

// decodeCoinTypeVectors reads the version-gated coin-type data and
// assigns a coin type to every input and output position, validating
// that kinds whose coin type is derivable from their own fields agree
// with what the vector (or the v1/v2 default) says.
func decodeCoinTypeVectors(r io.Reader, tx *Transaction) error {
	assign := func(i int, in Input, ct cointype.CoinType) error {
		if settable, ok := in.(coinTypeSettable); ok {
			settable.SetCoinType(ct)
			return nil
		}
		if in.CoinType() != ct {
			return errors.Errorf("input %d (%s): coin type %s inconsistent with side-vector entry %s", i, in.Kind(), in.CoinType(), ct)
		}
		return nil
	}

	switch tx.Version {
	case cointype.VanillaTxVersion, cointype.DPoSTxVersion:
		for i, in := range tx.Inputs {
			if err := assign(i, in, cointype.XPB); err != nil {
				return err
			}
		}
		for i := range tx.Outputs {
			tx.Outputs[i].CoinType = cointype.XPB
		}
		return nil

	case cointype.CurrencyTxVersion:
		for i, in := range tx.Inputs {
			cur, err := wireutil.ReadVarInt(r)
			if err != nil {
				return err
			}
			if err := assign(i, in, cointype.New(cur, cointype.NotContract, cointype.BackedByNA)); err != nil {
				return err
			}
		}
		for i := range tx.Outputs {
			cur, err := wireutil.ReadVarInt(r)
			if err != nil {
				return err
			}
			tx.Outputs[i].CoinType = cointype.New(cur, cointype.NotContract, cointype.BackedByNA)
		}
		return nil

	case cointype.ContractTxVersion:
		for i, in := range tx.Inputs {
			ct, err := readCoinType(r)
			if err != nil {
				return err
			}
			if err := assign(i, in, ct); err != nil {
				return err
			}
		}
		for i := range tx.Outputs {
			ct, err := readCoinType(r)
			if err != nil {
				return err
			}
			tx.Outputs[i].CoinType = ct
		}
		return nil

	default:
		return errors.Errorf("unsupported transaction version %d", tx.Version)
	}
}
