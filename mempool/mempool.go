// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package mempool holds unconfirmed transactions awaiting inclusion in a
// block: it fee-gates and conflict-checks incoming transactions, tracks
// enough state per entry to cheaply re-validate it after a reorg, and
// fills block templates in two passes (grading transactions first, so
// contract resolution can't be squeezed out by mint/fuse spam).
package mempool

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/compat"
	"github.com/xpbproject/xpbd/logger"
	"github.com/xpbproject/xpbd/transaction"
)

var log, _ = logger.Get(logger.SubsystemTags.MMPL)

// Policy houses the configuration parameters that gate entry to the pool.
type Policy struct {
	// MinRelayFee is the minimum fee a transaction must pay to enter the
	// pool, unless it is KeptByBlock (reinstated from a popped block).
	MinRelayFee amount.Amount

	// MaxOrphanTxs is carried in the policy but not read: the pool keeps
	// no transactions with unknown ancestors.
	MaxOrphanTxs int
}

// TxDesc is a pooled transaction and the bookkeeping needed to decide,
// cheaply, whether it is still valid to mine without a full re-validation.
type TxDesc struct {
	Tx   *transaction.Transaction
	Hash chainhash.Hash
	Size int
	Fee  amount.Amount
	// CorrelationID uniquely tags this pool entry in log lines, so a
	// transaction's path through the pool can be traced even across a
	// remove-then-readd cycle that reuses the same hash.
	CorrelationID uuid.UUID
	Added         time.Time

	// MaxUsedHeight/MaxUsedID record the highest block this entry's
	// inputs were last validated against; a nil MaxUsedID means the
	// entry has never been checked against chain state (e.g. a
	// freshly-submitted transaction).
	MaxUsedHeight uint64
	MaxUsedID     *chainhash.Hash

	LastFailedHeight uint64
	LastFailedID     *chainhash.Hash

	// KeptByBlock marks an entry reinstated from a popped block during a
	// reorg; such entries bypass the minimum relay fee.
	KeptByBlock bool
}

// ChainView is the minimal chain-state query surface the pool needs to
// re-validate a stale entry: the current tip height and the block id at
// a given height (used to detect whether a reorg has invalidated an
// entry's cached MaxUsedID).
type ChainView interface {
	TipHeight() uint64
	BlockIDAtHeight(height uint64) (chainhash.Hash, bool)
}

// TxPool holds every unconfirmed transaction considered for the next
// block template. It is safe for concurrent access; the pool's lock is
// always acquired before, never while holding, the blockchain store's
// lock.
type TxPool struct {
	mtx     sync.RWMutex
	policy  Policy
	pool    map[chainhash.Hash]*TxDesc
	// order preserves insertion order, which both passes of
	// FillBlockTemplate iterate in.
	order   []chainhash.Hash
	checker *compat.Checker
}

// New constructs an empty pool under the given policy.
func New(policy Policy) *TxPool {
	return &TxPool{
		policy:  policy,
		pool:    make(map[chainhash.Hash]*TxDesc),
		checker: compat.NewChecker(),
	}
}

// HaveTransaction reports whether hash is already pooled.
func (mp *TxPool) HaveTransaction(hash chainhash.Hash) bool {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	_, ok := mp.pool[hash]
	return ok
}

// MiningDescs returns every pooled entry, in insertion order.
func (mp *TxPool) MiningDescs() []*TxDesc {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	descs := make([]*TxDesc, 0, len(mp.order))
	for _, h := range mp.order {
		descs = append(descs, mp.pool[h])
	}
	return descs
}

// AddTransaction validates tx against the fee floor and the incremental
// compatibility checker, then admits it. keptByBlock bypasses the fee
// floor for a transaction being reinstated from a popped block.
func (mp *TxPool) AddTransaction(tx *transaction.Transaction, size int, fee amount.Amount, keptByBlock bool) (*TxDesc, error) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()

	hash := tx.Hash()
	if _, exists := mp.pool[hash]; exists {
		return nil, errors.Errorf("transaction %s already in pool", hash)
	}
	if !keptByBlock && fee < mp.policy.MinRelayFee {
		return nil, errors.Errorf("transaction %s pays fee %d below relay floor %d", hash, fee, mp.policy.MinRelayFee)
	}
	if err := mp.checker.CanAddTx(tx); err != nil {
		return nil, errors.Wrap(err, "conflicts with an already-pooled transaction")
	}
	if err := mp.checker.AddTx(tx); err != nil {
		return nil, errors.Wrap(err, "internal error adding to compatibility checker")
	}

	desc := &TxDesc{
		Tx:            tx,
		Hash:          hash,
		Size:          size,
		Fee:           fee,
		CorrelationID: uuid.New(),
		Added:         time.Now(),
		KeptByBlock:   keptByBlock,
	}
	mp.pool[hash] = desc
	mp.order = append(mp.order, hash)
	log.Debugf("accepted transaction %s (entry %s) into the pool", hash, desc.CorrelationID)
	return desc, nil
}

// RemoveTransaction evicts hash from the pool, e.g. because a block
// mined it or a reorg is discarding a now-conflicting entry.
func (mp *TxPool) RemoveTransaction(hash chainhash.Hash) {
	mp.mtx.Lock()
	defer mp.mtx.Unlock()
	mp.removeTransaction(hash)
}

func (mp *TxPool) removeTransaction(hash chainhash.Hash) {
	desc, exists := mp.pool[hash]
	if !exists {
		return
	}
	if err := mp.checker.RemoveTx(desc.Tx); err != nil {
		log.Warnf("removing transaction %s from compatibility checker: %s", hash, err)
	}
	delete(mp.pool, hash)
	for i, h := range mp.order {
		if h == hash {
			mp.order = append(mp.order[:i], mp.order[i+1:]...)
			break
		}
	}
}

// Len returns the number of transactions currently pooled.
func (mp *TxPool) Len() int {
	mp.mtx.RLock()
	defer mp.mtx.RUnlock()
	return len(mp.pool)
}
