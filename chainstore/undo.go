// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainstore

import (
	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/dpos"
	"github.com/xpbproject/xpbd/transaction"
)

// undoInput reverses the effect of a prior applyInput call, given the
// inputUndo it returned. It is a consensus fault, not a validation
// failure, if the state being unwound doesn't match what applyInput left
// behind — replaying forward then inverse must return byte-for-byte to
// the original state.
func (s *Store) undoInput(in transaction.Input, undo inputUndo) error {
	switch v := in.(type) {
	case *transaction.CoinbaseInput, *transaction.SpendInput, *transaction.ResolveBCInput:
		// no registry state to unwind beyond the checker claim, below.

	case *transaction.MintInput:
		delete(s.currencies, v.CurrencyID)

	case *transaction.RemintInput:
		rec, ok := s.currencies[v.CurrencyID]
		if !ok {
			return ConsensusFault{Description: "undo remint: currency record missing"}
		}
		n := len(rec.RemintKeyHistory)
		if n == 0 {
			return ConsensusFault{Description: "undo remint: remint key history empty"}
		}
		rec.RemintKeyHistory = rec.RemintKeyHistory[:n-1]
		total, ok := amount.Sub(rec.TotalMinted, v.Amount)
		if !ok {
			return ConsensusFault{Description: "undo remint: total minted underflows"}
		}
		rec.TotalMinted = total

	case *transaction.CreateContractInput:
		rec, ok := s.contracts[v.ContractID]
		if !ok {
			return ConsensusFault{Description: "undo create-contract: record missing"}
		}
		if !rec.inInitialState() {
			return ConsensusFault{Description: "undo create-contract: record is not in its initial state"}
		}
		delete(s.contracts, v.ContractID)

	case *transaction.MintContractInput:
		rec, ok := s.contracts[v.Contract]
		if !ok {
			return ConsensusFault{Description: "undo mint-contract: contract record missing"}
		}
		total, ok := amount.Sub(rec.MintedTotals[v.BackingCurrency], v.Amount)
		if !ok {
			return ConsensusFault{Description: "undo mint-contract: backing total underflows"}
		}
		rec.MintedTotals[v.BackingCurrency] = total

	case *transaction.GradeContractInput:
		rec, ok := s.contracts[v.Contract]
		if !ok {
			return ConsensusFault{Description: "undo grade-contract: contract record missing"}
		}
		rec.Graded = false
		rec.Grade = 0

	case *transaction.FuseBCInput:
		rec, ok := s.contracts[v.Contract]
		if !ok {
			return ConsensusFault{Description: "undo fuse-contract: contract record missing"}
		}
		total, ok := amount.Add(rec.MintedTotals[v.BackingCurrency], v.Amount)
		if !ok {
			return ConsensusFault{Description: "undo fuse-contract: backing total overflows"}
		}
		rec.MintedTotals[v.BackingCurrency] = total

	case *transaction.RegisterDelegateInput:
		delete(s.delegates, v.DelegateID)

	case *transaction.VoteInput:
		history := s.voteHistories[v.Spend.Coin]
		dpos.UndoVote(&history, s.delegates, undo.previousVote)
		if len(history) == 0 {
			delete(s.voteHistories, v.Spend.Coin)
		} else {
			s.voteHistories[v.Spend.Coin] = history
		}

	default:
		return ConsensusFault{Description: "undo: unrecognized input kind"}
	}

	return s.checker.RemoveInput(in)
}
