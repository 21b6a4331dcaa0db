// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validation

import (
	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/chainstore"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/grading"
	"github.com/xpbproject/xpbd/transaction"
)

// Context carries the block-level facts a transaction is being validated
// against: the height and timestamp it would be confirmed at, and whether
// a rejected input's fee floor should be waived because the transaction
// is being re-injected by a popped block rather than freshly submitted.
type Context struct {
	Height      uint64
	Timestamp   uint64
	KeptByBlock bool
}

// ValidateTransaction runs every input of tx through the per-kind rule set,
// then checks conservation of value across the whole transaction. It does
// not consult or mutate the input-compatibility checker; callers run that
// separately (chainstore's checker, or the mempool's own scratch clone)
// since mutual-exclusion against sibling transactions is a different
// concern from a transaction's own internal validity.
func (v *Validator) ValidateTransaction(tx *transaction.Transaction, ctx Context) error {
	if len(tx.Inputs) == 0 {
		return ruleError(ErrNoInputs, "transaction has no inputs")
	}
	if err := tx.Validate(); err != nil {
		return errors.Wrap(err, "structural validation")
	}

	prefixHash := tx.PrefixHash()
	for i, in := range tx.Inputs {
		if err := v.validateInput(in, tx, i, ctx, prefixHash); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}
	return v.checkConservationOfValue(tx)
}

func (v *Validator) validateInput(in transaction.Input, tx *transaction.Transaction, index int, ctx Context, prefixHash [32]byte) error {
	switch t := in.(type) {
	case *transaction.CoinbaseInput:
		return ruleError(ErrUnsupportedInputKind, "coinbase input outside a miner transaction")

	case *transaction.SpendInput:
		return v.validateSpend(t, tx, index, ctx, prefixHash)

	case *transaction.MintInput:
		return v.validateMint(t)

	case *transaction.RemintInput:
		return v.validateRemint(t)

	case *transaction.CreateContractInput:
		return v.validateCreateContract(t, ctx)

	case *transaction.MintContractInput:
		return v.validateMintContract(t, ctx)

	case *transaction.GradeContractInput:
		return v.validateGradeContract(t, ctx)

	case *transaction.ResolveBCInput:
		return v.validateResolveBC(t, ctx)

	case *transaction.FuseBCInput:
		return v.validateFuseBC(t, ctx)

	case *transaction.RegisterDelegateInput:
		return v.validateRegisterDelegate(t, ctx)

	case *transaction.VoteInput:
		return v.validateVote(t, tx, index, ctx, prefixHash)

	default:
		return ruleError(ErrUnsupportedInputKind, "unrecognized input kind")
	}
}

func (v *Validator) validateSpend(in *transaction.SpendInput, tx *transaction.Transaction, index int, ctx Context, prefixHash [32]byte) error {
	if err := v.store.CanAcceptInput(in); err != nil {
		return ruleError(ErrDoubleSpend, err.Error())
	}
	if len(in.Offsets) == 0 {
		return ruleError(ErrBadRingOffset, "spend carries an empty ring")
	}

	ring := make([][32]byte, len(in.Offsets))
	for i, off := range in.Offsets {
		mature, err := v.store.OutputMature(in.CoinType(), off, ctx.Height, ctx.Timestamp)
		if err != nil {
			return ruleError(ErrBadRingOffset, err.Error())
		}
		if !mature {
			return ruleError(ErrImmatureOutput, "referenced output is not yet spendable")
		}
		key, err := v.store.OutputKey(in.CoinType(), off)
		if err != nil {
			return ruleError(ErrBadRingOffset, err.Error())
		}
		ring[i] = key
	}

	sigs := sigsFor(tx, index)
	if len(sigs) != len(in.Offsets) {
		return ruleError(ErrBadRingSignature, "signature count does not match ring size")
	}
	if v.verifier != nil && !v.verifier.VerifyRing(prefixHash[:], ring, sigs, in.Coin) {
		return ruleError(ErrBadRingSignature, "ring signature does not verify")
	}
	return nil
}

func sigsFor(tx *transaction.Transaction, index int) [][64]byte {
	if index >= len(tx.Signatures) {
		return nil
	}
	raw := tx.Signatures[index]
	out := make([][64]byte, len(raw))
	for i, s := range raw {
		out[i] = [64]byte(s)
	}
	return out
}

func (v *Validator) validateMint(in *transaction.MintInput) error {
	if !cointype.IsUserCurrency(in.CurrencyID) {
		return ruleError(ErrBadCurrencyID, "mint currency id below the user-mintable range")
	}
	if err := v.store.CanAcceptInput(in); err != nil {
		return ruleError(ErrBadCurrencyID, err.Error())
	}
	if len(in.Description) > chaincfg.CurrencyDescriptionMaxSize {
		return ruleError(ErrDescriptionTooLong, "mint description exceeds the maximum size")
	}
	return nil
}

func (v *Validator) validateRemint(in *transaction.RemintInput) error {
	rec, ok := v.store.Currency(in.CurrencyID)
	if !ok {
		return ruleError(ErrUnknownCurrency, "remint of unregistered currency")
	}
	key, hasKey := rec.CurrentRemintKey()
	if !hasKey {
		return ruleError(ErrNoRemintKey, "currency has no active remint key")
	}
	if amount.WouldOverflow(rec.TotalMinted, in.Amount) {
		return ruleError(ErrAmountOverflow, "remint would overflow total minted")
	}
	if v.verifier != nil {
		h := chainhash.HashH(in.SignedData())
		if !v.verifier.VerifySingle(h[:], *key, in.Signature) {
			return ruleError(ErrBadRemintSignature, "remint signature does not verify under current remint key")
		}
	}
	return nil
}

func (v *Validator) validateCreateContract(in *transaction.CreateContractInput, ctx Context) error {
	if !cointype.IsUserCurrency(in.ContractID) {
		return ruleError(ErrBadContractID, "contract id below the user-mintable range")
	}
	if err := v.store.CanAcceptInput(in); err != nil {
		return ruleError(ErrBadContractID, err.Error())
	}
	if in.GradingKey == ([32]byte{}) {
		return ruleError(ErrBadGradingKey, "grading key is null")
	}
	if len(in.Description) > chaincfg.ContractDescriptionMaxSize {
		return ruleError(ErrDescriptionTooLong, "contract description exceeds the maximum size")
	}
	if in.ExpiryBlock <= ctx.Height || in.ExpiryBlock >= chaincfg.MaxBlockNumber {
		return ruleError(ErrBadExpiry, "contract expiry out of range")
	}
	if in.FeeScale > grading.GradeMax || in.DefaultGrade > grading.GradeMax {
		return ruleError(ErrFeeScaleTooHigh, "fee scale or default grade exceeds GRADE_MAX")
	}
	return nil
}

func (v *Validator) validateMintContract(in *transaction.MintContractInput, ctx Context) error {
	rec, ok := v.store.Contract(in.Contract)
	if !ok {
		return ruleError(ErrUnknownContract, "mint against unregistered contract")
	}
	if rec.Graded {
		return ruleError(ErrContractAlreadyGraded, "contract already graded")
	}
	if contractExpired(rec, ctx.Height) {
		return ruleError(ErrContractExpired, "contract has expired")
	}
	if !validBackingCurrency(v, in.BackingCurrency) {
		return ruleError(ErrBadBackingCurrency, "backing currency is neither XPB nor a registered sub-currency")
	}
	if amount.WouldOverflow(rec.MintedTotals[in.BackingCurrency], in.Amount) {
		return ruleError(ErrAmountOverflow, "mint-contract would overflow backing total")
	}
	return nil
}

func (v *Validator) validateGradeContract(in *transaction.GradeContractInput, ctx Context) error {
	rec, ok := v.store.Contract(in.Contract)
	if !ok {
		return ruleError(ErrUnknownContract, "grade of unregistered contract")
	}
	if rec.Graded {
		return ruleError(ErrContractAlreadyGraded, "contract already graded")
	}
	if contractExpired(rec, ctx.Height) {
		return ruleError(ErrContractExpired, "contract has expired")
	}
	if in.Grade > grading.GradeMax {
		return ruleError(ErrBadGrade, "grade exceeds GRADE_MAX")
	}
	for _, claim := range in.FeeClaims {
		minted := rec.MintedTotals[claim.Currency]
		want := grading.TotalFee(uint64(minted), rec.FeeScale)
		if uint64(claim.Amount) != want {
			return ruleError(ErrFeeClaimMismatch, "claimed fee does not match total_fee_for_pool")
		}
	}
	if v.verifier != nil {
		h := chainhash.HashH(in.SignedData())
		if !v.verifier.VerifySingle(h[:], rec.GradingKey, in.Signature) {
			return ruleError(ErrBadGradeSignature, "grade signature does not verify under the contract's grading key")
		}
	}
	return nil
}

func (v *Validator) validateResolveBC(in *transaction.ResolveBCInput, ctx Context) error {
	rec, ok := v.store.Contract(in.Contract)
	if !ok {
		return ruleError(ErrUnknownContract, "resolve against unregistered contract")
	}

	var want uint64
	if rec.Graded {
		if in.IsBackingCoins {
			want = grading.GradeBackingAmount(uint64(in.SourceAmount), rec.Grade, rec.FeeScale)
		} else {
			want = grading.GradeContractAmount(uint64(in.SourceAmount), rec.Grade, rec.FeeScale)
		}
	} else if contractExpired(rec, ctx.Height) {
		// Expired-but-ungraded contracts resolve at the default grade
		// with zero fee, so holders are never stuck.
		if in.IsBackingCoins {
			want = grading.GradeBackingAmount(uint64(in.SourceAmount), rec.DefaultGrade, 0)
		} else {
			want = grading.GradeContractAmount(uint64(in.SourceAmount), rec.DefaultGrade, 0)
		}
	} else {
		return ruleError(ErrContractExpired, "contract is not yet graded or expired")
	}

	if uint64(in.GradedAmount) != want {
		return ruleError(ErrBadResolveAmount, "graded amount does not match the grading function's output")
	}
	if in.GradedAmount == 0 {
		return ruleError(ErrBadResolveAmount, "graded amount must be positive")
	}
	return nil
}

func (v *Validator) validateFuseBC(in *transaction.FuseBCInput, ctx Context) error {
	rec, ok := v.store.Contract(in.Contract)
	if !ok {
		return ruleError(ErrUnknownContract, "fuse against unregistered contract")
	}
	if rec.Graded {
		return ruleError(ErrContractAlreadyGraded, "contract already graded")
	}
	if contractExpired(rec, ctx.Height) {
		return ruleError(ErrContractExpired, "contract has expired")
	}
	if amount.WouldUnderflow(rec.MintedTotals[in.BackingCurrency], in.Amount) {
		return ruleError(ErrAmountUnderflow, "fuse-contract would underflow backing total")
	}
	return nil
}

func (v *Validator) validateRegisterDelegate(in *transaction.RegisterDelegateInput, ctx Context) error {
	if ctx.Height < v.params.DPoSRegistrationStartBlock {
		return ruleError(ErrDelegateNotActive, "delegate registration has not started yet")
	}
	if in.DelegateID == 0 {
		return ruleError(ErrBadDelegateID, "delegate id zero is reserved")
	}
	if err := v.store.CanAcceptInput(in); err != nil {
		return ruleError(ErrBadDelegateID, err.Error())
	}
	floor := v.store.RollingAverageFee() * amount.Amount(chaincfg.DPoSRegistrationFeeMultiple)
	if floor < chaincfg.DPoSMinRegistrationFee {
		floor = chaincfg.DPoSMinRegistrationFee
	}
	if in.RegistrationFee < floor {
		return ruleError(ErrBadRegistrationFee, "registration fee below the rolling-average floor")
	}
	if in.Address == ([64]byte{}) {
		return ruleError(ErrBadDelegateID, "address keys are null")
	}
	return nil
}

func (v *Validator) validateVote(in *transaction.VoteInput, tx *transaction.Transaction, index int, ctx Context, prefixHash [32]byte) error {
	if ctx.Height < v.params.DPoSRegistrationStartBlock {
		return ruleError(ErrDelegateNotActive, "voting has not started yet")
	}
	if len(in.DelegateIDs) > chaincfg.MaxVoteDelegates {
		return ruleError(ErrVoteSetTooLarge, "vote names more delegates than the protocol allows")
	}
	if err := v.store.CanAcceptInput(in); err != nil {
		return ruleError(ErrDoubleSpend, err.Error())
	}
	if want := v.store.VoteSequence(in.Spend.Coin); in.Sequence != want {
		return ruleError(ErrBadVoteSequence, "vote sequence number does not match the image's history length")
	}
	for _, id := range in.DelegateIDs {
		d, ok := v.store.Delegate(id)
		if !ok {
			return ruleError(ErrUnknownDelegate, "vote names an unregistered delegate")
		}
		if amount.WouldOverflow(amount.Amount(d.TotalVotes), in.Spend.Amount) {
			return ruleError(ErrAmountOverflow, "vote would overflow a delegate's total votes")
		}
	}
	return v.validateSpend(&in.Spend, tx, index, ctx, prefixHash)
}

func validBackingCurrency(v *Validator, backing uint64) bool {
	if backing == cointype.CurrencyXPB {
		return true
	}
	_, ok := v.store.Currency(backing)
	return ok
}

func contractExpired(rec *chainstore.ContractRecord, height uint64) bool {
	return height >= rec.ExpiryBlock
}
