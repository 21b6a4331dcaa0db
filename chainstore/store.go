// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chainstore holds the committed ledger: the main chain and its
// known alternatives, the append-only output log every Spend ring refers
// into, the currency/contract/delegate registries, and the vote-history
// stacks that back DPoS. It applies and undoes blocks, and switches the
// main chain to a heavier alternative when one overtakes it.
package chainstore

import (
	"math/big"
	"sync"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/compat"
	"github.com/xpbproject/xpbd/dpos"
	"github.com/xpbproject/xpbd/logger"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wire"
)

var log, _ = logger.Get(logger.SubsystemTags.CHST)

// StoredBlock is a block known to the store, whether or not it currently
// sits on the main chain.
type StoredBlock struct {
	Block                *wire.Block
	Height               uint64
	CumulativeDifficulty *big.Int

	// undo reverses this block's effect on the ledger. It is only
	// populated while the block sits on the main chain; a block filed
	// under altChains carries a zero blockUndo until it is actually
	// applied during a chain switch.
	undo blockUndo
}

// Store is the committed ledger state. It is safe for concurrent use.
type Store struct {
	mtx sync.RWMutex

	params *chaincfg.Params

	// mainChain holds the block id at each height; mainChain[0] is genesis.
	mainChain []chainhash.Hash
	blocksByID map[chainhash.Hash]*StoredBlock
	// altChains holds every known block not on the main chain, keyed by id.
	altChains map[chainhash.Hash]*StoredBlock
	invalidBlocks map[chainhash.Hash]struct{}

	// txByHash archives every transaction that has ever been applied or
	// offered alongside a block, since a block's wire encoding carries
	// only transaction hashes.
	txByHash map[chainhash.Hash]*transaction.Transaction

	outputsByCoin map[cointype.CoinType][]outputEntry

	currencies map[uint64]*CurrencyRecord
	contracts  map[uint64]*ContractRecord
	delegates  map[uint64]*dpos.Delegate
	voteHistories map[transaction.KeyImage][]dpos.VoteRecord

	// checker holds the claims of every input ever applied to the main
	// chain: spent key images, minted currency/contract ids, and so on.
	checker *compat.Checker

	topDelegates      []uint64
	autovoteDelegates []uint64

	// recentFees is the trailing window of collected block fees the
	// rolling average is computed from; it backs both the DPoS miner-tx
	// fee substitution and the delegate registration fee floor.
	recentFees []amount.Amount
}

// rollingFeeWindow bounds how many recent blocks' fees contribute to the
// rolling average.
const rollingFeeWindow = 100

// New returns a Store with no blocks, ready to accept a genesis block.
func New(params *chaincfg.Params) *Store {
	return &Store{
		params:        params,
		blocksByID:    make(map[chainhash.Hash]*StoredBlock),
		altChains:     make(map[chainhash.Hash]*StoredBlock),
		invalidBlocks: make(map[chainhash.Hash]struct{}),
		txByHash:      make(map[chainhash.Hash]*transaction.Transaction),
		outputsByCoin: make(map[cointype.CoinType][]outputEntry),
		currencies:    make(map[uint64]*CurrencyRecord),
		contracts:     make(map[uint64]*ContractRecord),
		delegates:     make(map[uint64]*dpos.Delegate),
		voteHistories: make(map[transaction.KeyImage][]dpos.VoteRecord),
		checker:       compat.NewChecker(),
	}
}

// TipHeight implements mempool.ChainView.
func (s *Store) TipHeight() uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.tipHeightLocked()
}

func (s *Store) tipHeightLocked() uint64 {
	if len(s.mainChain) == 0 {
		return 0
	}
	return uint64(len(s.mainChain) - 1)
}

// BlockIDAtHeight implements mempool.ChainView.
func (s *Store) BlockIDAtHeight(height uint64) (chainhash.Hash, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if height >= uint64(len(s.mainChain)) {
		return chainhash.Hash{}, false
	}
	return s.mainChain[height], true
}

// TipID returns the current main-chain tip's block id. It panics if the
// store holds no blocks yet; callers must seed a genesis block first.
func (s *Store) TipID() chainhash.Hash {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.mainChain[len(s.mainChain)-1]
}

// BlockByID returns the stored block known under id, whether it sits on
// the main chain or an alternative one.
func (s *Store) BlockByID(id chainhash.Hash) (*StoredBlock, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if sb, ok := s.blocksByID[id]; ok {
		return sb, true
	}
	sb, ok := s.altChains[id]
	return sb, ok
}

// BlockAtHeight returns the main-chain block at height.
func (s *Store) BlockAtHeight(height uint64) (*StoredBlock, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if height >= uint64(len(s.mainChain)) {
		return nil, false
	}
	return s.blocksByID[s.mainChain[height]], true
}

// RecentTimestamps returns up to n main-chain block timestamps, tip first,
// walking back from the current tip. Fewer than n are returned if the
// chain is shorter.
func (s *Store) RecentTimestamps(n int) []uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]uint64, 0, n)
	for i := len(s.mainChain) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, s.blocksByID[s.mainChain[i]].Block.Header.Timestamp)
	}
	return out
}

// BlockTransactions returns the full transaction list of the stored block
// known under id — its miner transaction followed by the ordinary
// transactions its TxHashes name — resolved against the archive every
// applied or offered transaction is kept in. It returns false if id names
// no known block, or if any of its transaction hashes can no longer be
// resolved.
func (s *Store) BlockTransactions(id chainhash.Hash) ([]*transaction.Transaction, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	sb, ok := s.blocksByID[id]
	if !ok {
		sb, ok = s.altChains[id]
	}
	if !ok {
		return nil, false
	}
	txs := s.blockTransactionsLocked(sb.Block)
	if len(txs) != 1+len(sb.Block.TxHashes) {
		return nil, false
	}
	return txs, true
}

// BlockDifficulty returns the proof-of-work difficulty individually
// achieved by the main-chain block at height — the value AddBlock was
// originally called with — recovered as the delta between consecutive
// cumulative difficulties. Height 0 (genesis) returns its own cumulative
// difficulty, since there is no preceding block to subtract.
func (s *Store) BlockDifficulty(height uint64) (*big.Int, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if height >= uint64(len(s.mainChain)) {
		return nil, false
	}
	cur, ok := s.blocksByID[s.mainChain[height]]
	if !ok {
		return nil, false
	}
	if height == 0 {
		return new(big.Int).Set(cur.CumulativeDifficulty), true
	}
	prev, ok := s.blocksByID[s.mainChain[height-1]]
	if !ok {
		return nil, false
	}
	return new(big.Int).Sub(cur.CumulativeDifficulty, prev.CumulativeDifficulty), true
}

// HaveBlock reports whether id is known, on the main chain or otherwise.
func (s *Store) HaveBlock(id chainhash.Hash) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if _, ok := s.blocksByID[id]; ok {
		return true
	}
	_, ok := s.altChains[id]
	return ok
}

// IsInvalid reports whether id was previously rejected and marked invalid.
func (s *Store) IsInvalid(id chainhash.Hash) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	_, ok := s.invalidBlocks[id]
	return ok
}

// Delegate returns the delegate registered under id, if any.
func (s *Store) Delegate(id uint64) (*dpos.Delegate, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	d, ok := s.delegates[id]
	return d, ok
}

// TopDelegates returns the current rolling top-N signer set.
func (s *Store) TopDelegates() []uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out := make([]uint64, len(s.topDelegates))
	copy(out, s.topDelegates)
	return out
}

// Currency returns the registered currency record for id, if any.
func (s *Store) Currency(id uint64) (*CurrencyRecord, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	c, ok := s.currencies[id]
	return c, ok
}

// Contract returns the registered contract record for id, if any.
func (s *Store) Contract(id uint64) (*ContractRecord, bool) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	c, ok := s.contracts[id]
	return c, ok
}

// outputCount reports how many outputs of coinType have ever been
// created, the upper bound a Spend's ring offsets must stay under.
func (s *Store) outputCount(coinType cointype.CoinType) uint64 {
	return uint64(len(s.outputsByCoin[coinType]))
}

// outputAt fetches the i'th output ever created of coinType.
func (s *Store) outputAt(coinType cointype.CoinType, i uint64) (outputEntry, error) {
	entries := s.outputsByCoin[coinType]
	if i >= uint64(len(entries)) {
		return outputEntry{}, errors.Errorf("offset %d out of range for coin type %s (have %d)", i, coinType, len(entries))
	}
	return entries[i], nil
}

// CanAcceptInput reports whether in's claim (key image, minted id, vote
// slot, ...) is still free against every claim committed to the chain so
// far. It is the same check applyInput re-runs before mutating state, and
// is meant to be consulted during validation, before a transaction is
// accepted into a block or the mempool.
func (s *Store) CanAcceptInput(in transaction.Input) error {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.checker.CanAddInput(in)
}

// OutputCount reports how many outputs of coinType have ever been
// created, the exclusive upper bound a Spend's ring offsets must stay
// under.
func (s *Store) OutputCount(coinType cointype.CoinType) uint64 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.outputCount(coinType)
}

// OutputMature reports whether the i'th output ever created of coinType
// exists and may be spent by a transaction appearing at currentHeight
// with currentTimestamp.
func (s *Store) OutputMature(coinType cointype.CoinType, i uint64, currentHeight, currentTimestamp uint64) (bool, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out, err := s.outputAt(coinType, i)
	if err != nil {
		return false, err
	}
	return isMature(out.UnlockTime, currentHeight, currentTimestamp), nil
}

// VoteSequence reports the current length of image's vote-history stack,
// the sequence number a new Vote input against it must present.
func (s *Store) VoteSequence(image transaction.KeyImage) uint16 {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return uint16(len(s.voteHistories[image]))
}

// OutputKey returns the one-time key of the i'th output ever created of
// coinType, the ring member a Spend's signature is verified against.
func (s *Store) OutputKey(coinType cointype.CoinType, i uint64) (transaction.OneTimeKey, error) {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	out, err := s.outputAt(coinType, i)
	if err != nil {
		return transaction.OneTimeKey{}, err
	}
	return out.Key, nil
}

// ApplyDelegateAccounting credits acc's missed/processed-block bookkeeping
// against the live delegate registry. It is independent of ledger state
// apply/undo (C8): signer-selection accounting is advisory bookkeeping on
// delegates, not a consensus-state mutation an input requested. Every
// sealed DPoS block runs this itself, as part of applyBlock; this
// exported form exists for callers (and tests) driving the scheduler
// outside the normal block-apply path.
func (s *Store) ApplyDelegateAccounting(acc dpos.BlockAccounting) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.applyDelegateAccountingLocked(acc)
}

func (s *Store) applyDelegateAccountingLocked(acc dpos.BlockAccounting) {
	dpos.Apply(s.delegates, acc)
}

// UndoDelegateAccounting reverses a prior ApplyDelegateAccounting call.
func (s *Store) UndoDelegateAccounting(acc dpos.BlockAccounting) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.undoDelegateAccountingLocked(acc)
}

func (s *Store) undoDelegateAccountingLocked(acc dpos.BlockAccounting) {
	dpos.Undo(s.delegates, acc)
}

// RecordBlockFee appends a block's collected fee to the rolling window
// the average fee is computed from, trimming the window to
// rollingFeeWindow entries. applyBlock calls this for every committed
// block, DPoS-sealed or not, since the registration fee floor consults
// the rolling average from the moment delegate registration opens.
func (s *Store) RecordBlockFee(fee amount.Amount) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.recordBlockFeeLocked(fee)
}

func (s *Store) recordBlockFeeLocked(fee amount.Amount) {
	s.recentFees = append(s.recentFees, fee)
	if len(s.recentFees) > rollingFeeWindow {
		s.recentFees = s.recentFees[len(s.recentFees)-rollingFeeWindow:]
	}
}

// undoBlockFeeLocked reverses the most recent recordBlockFeeLocked call.
// It only ever needs to drop the single most-recently-appended sample:
// undo always reverses blocks in LIFO order, so the entry it must remove
// is always whatever is currently last. A sample that has already
// scrolled out of the window on a later trim is gone for good, the same
// as it would be had the block never been undone.
func (s *Store) undoBlockFeeLocked() {
	if len(s.recentFees) == 0 {
		return
	}
	s.recentFees = s.recentFees[:len(s.recentFees)-1]
}

// RollingAverageFee returns the average of the fees in the current
// window, or zero if no blocks have been recorded yet.
func (s *Store) RollingAverageFee() amount.Amount {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	if len(s.recentFees) == 0 {
		return 0
	}
	var total uint64
	for _, f := range s.recentFees {
		total += uint64(f)
	}
	return amount.Amount(total / uint64(len(s.recentFees)))
}

// isMature reports whether an output with the given unlockTime may be
// spent by a transaction appearing at currentHeight with the given
// timestamp. Below chaincfg.MaxBlockNumber, unlockTime is a height;
// at or above it, unlockTime is a unix timestamp — the same convention
// CoinbaseInput.Height validation is bounded by.
func isMature(unlockTime, currentHeight, currentTimestamp uint64) bool {
	if unlockTime < chaincfg.MaxBlockNumber {
		return currentHeight >= unlockTime
	}
	return currentTimestamp >= unlockTime
}
