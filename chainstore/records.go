// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainstore

import (
	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/transaction"
)

// outputEntry is one entry in a coin type's append-only output log, the
// ledger's ring-membership universe: a Spend input's Offsets index
// straight into this slice.
type outputEntry struct {
	TxHash     chainhash.Hash
	UnlockTime uint64
	Key        transaction.OneTimeKey
}

// CurrencyRecord tracks a user-minted sub-currency's registration and
// remint-key rotation history.
type CurrencyRecord struct {
	CurrencyID  uint64
	Description string
	Decimals    uint8
	TotalMinted amount.Amount

	// RemintKeyHistory is the stack of remint keys this currency has
	// rotated through. The live key is the last entry; a nil-keyed
	// currency (fixed supply) has an empty history.
	RemintKeyHistory [][32]byte
}

func (c *CurrencyRecord) currentRemintKey() (*[32]byte, bool) {
	return c.CurrentRemintKey()
}

// CurrentRemintKey returns the live remint key — the top of the rotation
// history — or false if the currency has a fixed supply and has never
// carried one.
func (c *CurrencyRecord) CurrentRemintKey() (*[32]byte, bool) {
	if len(c.RemintKeyHistory) == 0 {
		return nil, false
	}
	return &c.RemintKeyHistory[len(c.RemintKeyHistory)-1], true
}

// ContractRecord tracks a contract's registration, running mint/fuse
// totals per backing currency, and final grading outcome.
type ContractRecord struct {
	ContractID   uint64
	Description  string
	GradingKey   [32]byte
	FeeScale     uint32
	ExpiryBlock  uint64
	DefaultGrade uint32

	// MintedTotals is the outstanding amount minted against each backing
	// currency; FuseBC decrements it back down.
	MintedTotals map[uint64]amount.Amount

	Graded bool
	Grade  uint32
}

// inInitialState reports whether the contract has never been minted
// against, fused against, or graded — the precondition CreateContract's
// undo asserts.
func (c *ContractRecord) inInitialState() bool {
	if c.Graded {
		return false
	}
	for _, total := range c.MintedTotals {
		if total != 0 {
			return false
		}
	}
	return true
}

func newContractRecord(in *transaction.CreateContractInput) *ContractRecord {
	return &ContractRecord{
		ContractID:   in.ContractID,
		Description:  in.Description,
		GradingKey:   in.GradingKey,
		FeeScale:     in.FeeScale,
		ExpiryBlock:  in.ExpiryBlock,
		DefaultGrade: in.DefaultGrade,
		MintedTotals: make(map[uint64]amount.Amount),
	}
}
