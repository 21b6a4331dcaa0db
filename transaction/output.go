// Copyright (c) 2014 The Pebblecoin developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"io"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/wireutil"
)

// OutputKeyTag is the wire tag for the sole output variant this ledger
// supports: a one-time public key destined for a specific recipient.
const OutputKeyTag = 0x02

// OneTimeKey is the stealth one-time public key an output pays to,
// derived from the recipient's view/spend keys and the transaction's
// ephemeral key by the elliptic-curve collaborator (out of scope here).
type OneTimeKey [32]byte

// Output is a single (amount, coin type, one-time key) triple. CoinType
// is stored out of band in the transaction's coin-type side-vectors
// exactly like an input's, so it is not part of Output's own encoding.
type Output struct {
	Amount   amount.Amount
	CoinType cointype.CoinType
	Key      OneTimeKey
}

func encodeOutput(w io.Writer, out Output) error {
	if err := wireutil.WriteVarInt(w, uint64(out.Amount)); err != nil {
		return err
	}
	if _, err := w.Write([]byte{OutputKeyTag}); err != nil {
		return err
	}
	_, err := w.Write(out.Key[:])
	return err
}

func decodeOutput(r io.Reader) (Output, error) {
	var out Output
	a, err := wireutil.ReadVarInt(r)
	if err != nil {
		return out, err
	}
	out.Amount = amount.Amount(a)

	var tag [1]byte
	if _, err := io.ReadFull(r, tag[:]); err != nil {
		return out, err
	}
	if tag[0] != OutputKeyTag {
		return out, errUnknownOutputTag(tag[0])
	}
	if _, err := io.ReadFull(r, out.Key[:]); err != nil {
		return out, err
	}
	return out, nil
}

type errUnknownOutputTag byte

func (e errUnknownOutputTag) Error() string {
	return "unknown output variant tag"
}
