// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainstore

import (
	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/dpos"
	"github.com/xpbproject/xpbd/transaction"
)

// inputUndo carries whatever extra information an input's undo needs
// beyond the input itself. Only Vote populates a field; every other kind
// is its own exact inverse.
type inputUndo struct {
	previousVote *dpos.VoteRecord
}

// applyInput claims in's compat-checker resources and mutates whichever
// registry (currency, contract, delegate, vote history) its kind touches.
// Callers are expected to have already run in through a compat.Checker
// CanAddInput/CanAddTx check; applyInput still re-checks, since a
// consensus fault here (a claim collision slipping past validation) must
// never silently corrupt the ledger.
func (s *Store) applyInput(in transaction.Input, height uint64) (inputUndo, error) {
	if err := s.checker.CanAddInput(in); err != nil {
		return inputUndo{}, RuleError{ErrorCode: ErrDuplicateClaim, Description: err.Error()}
	}
	if err := s.checker.AddInput(in); err != nil {
		return inputUndo{}, err
	}

	switch v := in.(type) {
	case *transaction.CoinbaseInput, *transaction.SpendInput, *transaction.ResolveBCInput:
		return inputUndo{}, nil

	case *transaction.MintInput:
		rec := &CurrencyRecord{
			CurrencyID:  v.CurrencyID,
			Description: v.Description,
			Decimals:    v.Decimals,
			TotalMinted: v.Amount,
		}
		if v.RemintKey != nil {
			rec.RemintKeyHistory = [][32]byte{*v.RemintKey}
		}
		s.currencies[v.CurrencyID] = rec
		return inputUndo{}, nil

	case *transaction.RemintInput:
		rec, ok := s.currencies[v.CurrencyID]
		if !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrUnknownCurrency, Description: "remint of unregistered currency"}
		}
		if _, ok := rec.currentRemintKey(); !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrRemintKeyMissing, Description: "currency has no active remint key"}
		}
		total, ok := amount.Add(rec.TotalMinted, v.Amount)
		if !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrAmountOverflow, Description: "remint overflows total minted"}
		}
		rec.TotalMinted = total
		rec.RemintKeyHistory = append(rec.RemintKeyHistory, v.NewRemintKey)
		return inputUndo{}, nil

	case *transaction.CreateContractInput:
		s.contracts[v.ContractID] = newContractRecord(v)
		return inputUndo{}, nil

	case *transaction.MintContractInput:
		rec, ok := s.contracts[v.Contract]
		if !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrUnknownContract, Description: "mint against unregistered contract"}
		}
		total, ok := amount.Add(rec.MintedTotals[v.BackingCurrency], v.Amount)
		if !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrAmountOverflow, Description: "mint-contract overflows backing total"}
		}
		rec.MintedTotals[v.BackingCurrency] = total
		return inputUndo{}, nil

	case *transaction.GradeContractInput:
		rec, ok := s.contracts[v.Contract]
		if !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrUnknownContract, Description: "grade of unregistered contract"}
		}
		if rec.Graded {
			return inputUndo{}, RuleError{ErrorCode: ErrContractAlreadyGraded, Description: "contract already graded"}
		}
		rec.Graded = true
		rec.Grade = v.Grade
		return inputUndo{}, nil

	case *transaction.FuseBCInput:
		rec, ok := s.contracts[v.Contract]
		if !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrUnknownContract, Description: "fuse against unregistered contract"}
		}
		total, ok := amount.Sub(rec.MintedTotals[v.BackingCurrency], v.Amount)
		if !ok {
			return inputUndo{}, RuleError{ErrorCode: ErrAmountUnderflow, Description: "fuse-contract underflows backing total"}
		}
		rec.MintedTotals[v.BackingCurrency] = total
		return inputUndo{}, nil

	case *transaction.RegisterDelegateInput:
		s.delegates[v.DelegateID] = &dpos.Delegate{
			ID:              v.DelegateID,
			Address:         v.Address,
			RegistrationFee: v.RegistrationFee,
		}
		return inputUndo{}, nil

	case *transaction.VoteInput:
		history := s.voteHistories[v.Spend.Coin]
		_, previous := dpos.ApplyVote(&history, s.delegates, chaincfg.VoteCap, height, v.Spend.Amount, v.DelegateIDs)
		s.voteHistories[v.Spend.Coin] = history
		return inputUndo{previousVote: previous}, nil

	default:
		return inputUndo{}, RuleError{ErrorCode: ErrMissingTransaction, Description: "unrecognized input kind"}
	}
}

// recalculateDelegateSets refreshes the cached top-N and autovote signer
// sets from the current delegate registry, matching what runs after every
// applied block.
func (s *Store) recalculateDelegateSets() {
	delegates := make([]*dpos.Delegate, 0, len(s.delegates))
	for _, d := range s.delegates {
		delegates = append(delegates, d)
	}
	s.topDelegates = dpos.RecalculateTopDelegates(delegates, chaincfg.DPoSNumDelegates)
	s.autovoteDelegates = dpos.AutovoteDelegates(delegates, chaincfg.DPoSNumDelegates, dpos.Uptime)
}
