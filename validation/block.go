// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package validation

import (
	"math/big"
	"sort"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainstore"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/difficulty"
	"github.com/xpbproject/xpbd/dpos"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wire"
)

// ValidateHeader runs the context-dependent checks a block's header must
// pass given the chain it extends: median-time-past, and then either the
// PoW difficulty retarget or the DPoS signer-selection rule, whichever the
// header's major version calls for. achievedDifficulty is the amount of
// work the block's proof actually represents; computing it from the block's
// hash is the catch-up worker's job, not this package's.
func (v *Validator) ValidateHeader(block *wire.Block, achievedDifficulty *big.Int) error {
	prev, ok := v.store.BlockByID(block.Header.PrevID)
	if !ok {
		return ruleError(ErrBadTimestamp, "previous block is unknown")
	}

	if err := v.validateMedianTime(block.Header.Timestamp); err != nil {
		return err
	}

	if block.Header.IsDPoS() {
		return v.validateSigner(prev, block)
	}
	return v.validateDifficulty(achievedDifficulty)
}

// validateMedianTime requires the candidate timestamp to exceed the median
// of the preceding TimestampCheckWindow block timestamps, the same rule
// both eras share.
func (v *Validator) validateMedianTime(timestamp uint64) error {
	recent := v.store.RecentTimestamps(chaincfg.TimestampCheckWindow)
	if len(recent) == 0 {
		return nil
	}
	sorted := append([]uint64(nil), recent...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	median := sorted[len(sorted)/2]
	if timestamp <= median {
		return ruleError(ErrBadTimestamp, "timestamp does not exceed the median of recent blocks")
	}
	return nil
}

// validateSigner requires a DPoS block's timestamp to respect the minimum
// slot spacing and its signing delegate to be the one the schedule picks,
// then requires a detached signature over the block id from that delegate.
func (v *Validator) validateSigner(prev *chainstore.StoredBlock, block *wire.Block) error {
	if block.Header.Timestamp < prev.Block.Header.Timestamp+chaincfg.DPoSMinBlockSpacing {
		return ruleError(ErrBadTimestamp, "block arrives before the minimum DPoS slot spacing")
	}

	info := dpos.PrevBlockInfo{
		Timestamp:       prev.Block.Header.Timestamp,
		SigningDelegate: prev.Block.SigningDelegate,
		IsPoW:           prev.Block.Header.IsPoW(),
	}
	expected, err := dpos.SelectSigner(info, block.Header.Timestamp, v.store.TopDelegates())
	if err != nil {
		return errors.Wrap(err, "select signer")
	}
	if block.SigningDelegate != expected {
		return ruleError(ErrBadSigner, "signing delegate does not match the schedule")
	}

	delegate, ok := v.store.Delegate(block.SigningDelegate)
	if !ok {
		return ruleError(ErrUnknownDelegate, "signing delegate is not registered")
	}

	id, err := block.ID()
	if err != nil {
		return errors.Wrap(err, "compute block id")
	}
	var spendKey [32]byte
	copy(spendKey[:], delegate.Address[32:])
	if v.verifier != nil && !v.verifier.VerifySingle(id[:], spendKey, block.Signature) {
		return ruleError(ErrBadSigner, "block signature does not verify against the signing delegate's key")
	}
	return nil
}

// validateDifficulty requires a PoW block's achieved difficulty to meet or
// exceed the retarget computed from the trailing window of main-chain
// samples (the genesis block is excluded from the window, per convention).
func (v *Validator) validateDifficulty(achieved *big.Int) error {
	if achieved == nil {
		return ruleError(ErrBadDifficulty, "block carries no proof-of-work difficulty")
	}

	tip := v.store.TipHeight()
	start := uint64(1)
	if tip >= difficulty.WindowSize {
		start = tip - difficulty.WindowSize + 1
	}
	window := make([]difficulty.Sample, 0, tip-start+1)
	for h := start; h <= tip; h++ {
		sb, ok := v.store.BlockAtHeight(h)
		if !ok {
			continue
		}
		window = append(window, difficulty.Sample{
			Timestamp:            sb.Block.Header.Timestamp,
			CumulativeDifficulty: sb.CumulativeDifficulty.Uint64(),
		})
	}

	target, err := difficulty.NextTarget(window, uint64(v.params.TargetTimePerBlock.Seconds()))
	if err != nil {
		return errors.Wrap(err, "compute difficulty retarget")
	}
	if achieved.Cmp(new(big.Int).SetUint64(target)) < 0 {
		return ruleError(ErrBadDifficulty, "block does not meet the required difficulty")
	}
	return nil
}

// ValidateMinerTransaction checks a block's sole coinbase-bearing
// transaction: it must carry exactly one Coinbase input naming the block's
// own height, pay out only XPB, and not exceed the subsidy the emission
// curve allows plus the block's collected fee — substituted, once the
// chain is DPoS-sealed, by the rolling average of recent blocks' fees
// rather than this block's own.
func (v *Validator) ValidateMinerTransaction(block *wire.Block, height uint64, blockSize, medianSize uint64, alreadyGenerated, collectedFee amount.Amount) error {
	tx := block.MinerTx
	if tx == nil {
		return ruleError(ErrBadCoinbase, "block has no miner transaction")
	}
	if len(tx.Inputs) != 1 {
		return ruleError(ErrBadCoinbase, "miner transaction must carry exactly one input")
	}
	cb, ok := tx.Inputs[0].(*transaction.CoinbaseInput)
	if !ok {
		return ruleError(ErrBadCoinbase, "miner transaction's input is not a coinbase")
	}
	if cb.Height != height {
		return ruleError(ErrBadCoinbase, "coinbase height does not match the containing block")
	}

	var total amount.Amount
	for _, out := range tx.Outputs {
		if out.CoinType != cointype.XPB {
			return ruleError(ErrBadCoinbase, "coinbase output is not denominated in XPB")
		}
		sum, ok := amount.Add(total, out.Amount)
		if !ok {
			return ruleError(ErrAmountOverflow, "coinbase output sum overflows")
		}
		total = sum
	}

	fee := collectedFee
	if block.Header.IsDPoS() {
		fee = v.store.RollingAverageFee()
	}

	reward, err := blockReward(medianSize, blockSize, alreadyGenerated)
	if err != nil {
		return errors.Wrap(err, "compute block reward")
	}
	allowed, ok := amount.Add(reward, fee)
	if !ok {
		return ruleError(ErrBadMinerReward, "reward plus fee overflows")
	}
	if total > allowed {
		return ruleError(ErrBadMinerReward, "coinbase output sum exceeds reward plus fee")
	}
	return nil
}

// blockReward reconstructs the CryptoNote emission curve: a base subsidy
// equal to a fixed fraction of the supply not yet issued, scaled down by a
// quadratic penalty once the block grows past the trailing median size. A
// block more than twice the median size is rejected with an error. This is a
// reconstruction — the original implementation's source was not available
// to copy, only its declaration — documented in DESIGN.md alongside the
// constants it is built from.
func blockReward(medianSize, blockSize uint64, alreadyGenerated amount.Amount) (amount.Amount, error) {
	if medianSize < chaincfg.CoinbaseBlobReservedSize {
		medianSize = chaincfg.CoinbaseBlobReservedSize
	}
	if blockSize > 2*medianSize {
		return 0, ruleError(ErrBadCoinbase, "block size exceeds twice the median size")
	}

	remaining := chaincfg.MoneySupply - uint64(alreadyGenerated)
	base := remaining >> chaincfg.EmissionSpeedFactor

	if blockSize <= medianSize {
		return amount.Amount(base), nil
	}

	// base * blockSize * (2*medianSize - blockSize) / medianSize^2, the
	// standard quadratic size penalty; computed with big.Int since the
	// intermediate product does not fit in 128 bits split across two
	// 64-bit divisions the way the grading package's narrower ratios do.
	num := new(big.Int).SetUint64(base)
	num.Mul(num, new(big.Int).SetUint64(blockSize))
	num.Mul(num, new(big.Int).SetUint64(2*medianSize-blockSize))
	denom := new(big.Int).SetUint64(medianSize)
	denom.Mul(denom, denom)
	num.Div(num, denom)
	if !num.IsUint64() {
		return 0, ruleError(ErrAmountOverflow, "penalized block reward overflows")
	}
	return amount.Amount(num.Uint64()), nil
}
