// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validation

import (
	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/transaction"
)

// coinTally accumulates per-coin-type sums on both sides of the balance:
// what a transaction's real inputs (and the synthetic contributions of
// MintContract/ResolveBC/FuseBC) supply, against what its real outputs
// (and those same inputs' synthetic sinks) consume.
type coinTally struct {
	in  map[cointype.CoinType]amount.Amount
	out map[cointype.CoinType]amount.Amount
}

func newCoinTally() *coinTally {
	return &coinTally{in: make(map[cointype.CoinType]amount.Amount), out: make(map[cointype.CoinType]amount.Amount)}
}

func (t *coinTally) addIn(ct cointype.CoinType, a amount.Amount) bool {
	sum, ok := amount.Add(t.in[ct], a)
	if !ok {
		return false
	}
	t.in[ct] = sum
	return true
}

func (t *coinTally) addOut(ct cointype.CoinType, a amount.Amount) bool {
	sum, ok := amount.Add(t.out[ct], a)
	if !ok {
		return false
	}
	t.out[ct] = sum
	return true
}

// checkConservationOfValue groups tx's inputs and outputs by coin type and
// requires, for every coin type that appears, that the input side is at
// least the output side. Mint, Remint, and GradeContract's fee claims each
// mint real spendable value with no real input of their own, so they
// contribute a synthetic source on the minted coin type; MintContract,
// ResolveBC, and FuseBC each convert one coin type into another rather
// than spending and paying normally, so they contribute a synthetic entry
// on both sides of the coin types they touch instead of a real (coinType,
// amount) pair of their own; RegisterDelegate's fee is a pure sink,
// contributed only to the output side of XPB.
func (v *Validator) checkConservationOfValue(tx *transaction.Transaction) error {
	tally := newCoinTally()

	for _, in := range tx.Inputs {
		if !contributeInput(tally, in) {
			return ruleError(ErrAmountOverflow, "transaction input sum overflows")
		}
	}
	for _, out := range tx.Outputs {
		if !tally.addOut(out.CoinType, out.Amount) {
			return ruleError(ErrAmountOverflow, "transaction output sum overflows")
		}
	}

	for ct, outSum := range tally.out {
		inSum := tally.in[ct]
		if inSum < outSum {
			return ruleError(ErrConservationOfValue, "coin type "+ct.String()+" spends more than it receives")
		}
	}
	return nil
}

// contributeInput adds in's contribution to tally, returning false on
// overflow.
func contributeInput(tally *coinTally, in transaction.Input) bool {
	switch v := in.(type) {
	case *transaction.SpendInput:
		return tally.addIn(v.CoinType(), v.Amount)

	case *transaction.VoteInput:
		return tally.addIn(v.Spend.CoinType(), v.Spend.Amount)

	case *transaction.MintInput:
		return tally.addIn(v.CoinType(), v.Amount)

	case *transaction.RemintInput:
		return tally.addIn(v.CoinType(), v.Amount)

	case *transaction.GradeContractInput:
		for _, claim := range v.FeeClaims {
			if !tally.addIn(cointype.New(claim.Currency, cointype.NotContract, cointype.BackedByNA), claim.Amount) {
				return false
			}
		}
		return true

	case *transaction.MintContractInput:
		backing := cointype.New(v.BackingCurrency, cointype.NotContract, cointype.BackedByNA)
		backingCoin := cointype.New(v.Contract, cointype.BackingCoin, v.BackingCurrency)
		contractCoin := cointype.New(v.Contract, cointype.ContractCoin, v.BackingCurrency)
		return tally.addOut(backing, v.Amount) &&
			tally.addIn(backingCoin, v.Amount) &&
			tally.addIn(contractCoin, v.Amount)

	case *transaction.ResolveBCInput:
		role := cointype.ContractCoin
		if v.IsBackingCoins {
			role = cointype.BackingCoin
		}
		source := cointype.New(v.Contract, role, v.BackingCurrency)
		backing := cointype.New(v.BackingCurrency, cointype.NotContract, cointype.BackedByNA)
		return tally.addOut(source, v.SourceAmount) && tally.addIn(backing, v.GradedAmount)

	case *transaction.FuseBCInput:
		backing := cointype.New(v.BackingCurrency, cointype.NotContract, cointype.BackedByNA)
		backingCoin := cointype.New(v.Contract, cointype.BackingCoin, v.BackingCurrency)
		contractCoin := cointype.New(v.Contract, cointype.ContractCoin, v.BackingCurrency)
		return tally.addOut(backingCoin, v.Amount) &&
			tally.addOut(contractCoin, v.Amount) &&
			tally.addIn(backing, v.Amount)

	case *transaction.RegisterDelegateInput:
		return tally.addOut(cointype.XPB, v.RegistrationFee)

	default:
		// Coinbase and CreateContract create or register supply and
		// metadata directly through their own registry rather than
		// participating in the per-transaction balance.
		return true
	}
}
