// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainstore

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wire"
)

// AddGenesis seeds an empty store with its first block. It bypasses the
// fork-choice machinery entirely, since a store with no blocks has
// nothing to compare the genesis block's difficulty against.
func (s *Store) AddGenesis(block *wire.Block, txs []*transaction.Transaction, difficulty *big.Int) (chainhash.Hash, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	if len(s.mainChain) != 0 {
		return chainhash.Hash{}, ConsensusFault{Description: "AddGenesis called on a non-empty store"}
	}
	id, err := block.ID()
	if err != nil {
		return chainhash.Hash{}, errors.Wrap(err, "compute genesis block id")
	}

	undo, err := s.applyBlock(block, txs, 0)
	if err != nil {
		return chainhash.Hash{}, err
	}
	s.mainChain = append(s.mainChain, id)
	s.blocksByID[id] = &StoredBlock{
		Block:                block,
		Height:               0,
		CumulativeDifficulty: new(big.Int).Set(difficulty),
		undo:                 undo,
	}
	return id, nil
}

// AddBlock offers a new block to the store. A block extending the current
// tip is applied and appended to the main chain directly. A block whose
// parent is known but is not the tip is filed as an alternative chain
// entry; if its chain's cumulative difficulty now exceeds the main
// chain's, or it carries a checkpoint the main chain lacks, the store
// switches to it. A block with an unknown parent is rejected as an
// orphan and not retained.
func (s *Store) AddBlock(block *wire.Block, txs []*transaction.Transaction, difficulty *big.Int) (chainhash.Hash, error) {
	s.mtx.Lock()
	defer s.mtx.Unlock()

	id, err := block.ID()
	if err != nil {
		return chainhash.Hash{}, errors.Wrap(err, "compute block id")
	}
	if s.isKnownLocked(id) {
		return chainhash.Hash{}, RuleError{ErrorCode: ErrDuplicateBlock, Description: "block already known"}
	}
	if _, ok := s.invalidBlocks[id]; ok {
		return chainhash.Hash{}, RuleError{ErrorCode: ErrPreviouslyInvalid, Description: "block previously marked invalid"}
	}

	// Archive the transaction bodies regardless of which chain this block
	// ends up on, so a later alt-chain switch can resolve them without
	// needing the caller to resupply them.
	if _, err := s.resolveTransactions(block, txs); err != nil {
		return chainhash.Hash{}, err
	}

	tip := s.mainChain[len(s.mainChain)-1]
	if block.Header.PrevID == tip {
		height := uint64(len(s.mainChain))
		undo, err := s.applyBlock(block, nil, height)
		if err != nil {
			s.invalidBlocks[id] = struct{}{}
			return chainhash.Hash{}, err
		}
		s.mainChain = append(s.mainChain, id)
		s.blocksByID[id] = &StoredBlock{
			Block:                block,
			Height:               height,
			CumulativeDifficulty: s.cumulativeAtLocked(tip, difficulty),
			undo:                 undo,
		}
		return id, nil
	}

	parentHeight, cumDiff, ok := s.parentContextLocked(block.Header.PrevID)
	if !ok {
		return chainhash.Hash{}, RuleError{ErrorCode: ErrUnknownParent, Description: "orphan block: parent not known"}
	}

	sb := &StoredBlock{
		Block:                block,
		Height:               parentHeight + 1,
		CumulativeDifficulty: addDifficulty(cumDiff, difficulty),
	}
	s.altChains[id] = sb

	mainTip := s.blocksByID[tip]
	viaCheckpoint := s.altCarriesMissingCheckpointLocked(id)
	if viaCheckpoint || sb.CumulativeDifficulty.Cmp(mainTip.CumulativeDifficulty) > 0 {
		if err := s.switchToAlternativeChain(id, viaCheckpoint); err != nil {
			return chainhash.Hash{}, err
		}
	}
	return id, nil
}

func (s *Store) isKnownLocked(id chainhash.Hash) bool {
	if _, ok := s.blocksByID[id]; ok {
		return true
	}
	_, ok := s.altChains[id]
	return ok
}

// storedBlockLocked returns the known block under id, whether it sits on
// the main chain or an alternative one. Unlike BlockByID, it takes no
// lock itself, for use by applyBlock/undoBlock while the caller already
// holds s.mtx.
func (s *Store) storedBlockLocked(id chainhash.Hash) (*StoredBlock, bool) {
	if sb, ok := s.blocksByID[id]; ok {
		return sb, true
	}
	sb, ok := s.altChains[id]
	return sb, ok
}

// parentContextLocked reports the height and cumulative difficulty of a
// known block, whether it sits on the main chain or an alternative one.
func (s *Store) parentContextLocked(id chainhash.Hash) (height uint64, cumDiff *big.Int, ok bool) {
	if sb, found := s.blocksByID[id]; found {
		return sb.Height, sb.CumulativeDifficulty, true
	}
	if sb, found := s.altChains[id]; found {
		return sb.Height, sb.CumulativeDifficulty, true
	}
	return 0, nil, false
}

func (s *Store) cumulativeAtLocked(tipID chainhash.Hash, blockDifficulty *big.Int) *big.Int {
	tip := s.blocksByID[tipID]
	if tip == nil {
		return new(big.Int).Set(blockDifficulty)
	}
	return addDifficulty(tip.CumulativeDifficulty, blockDifficulty)
}

func addDifficulty(cumulative, next *big.Int) *big.Int {
	return new(big.Int).Add(cumulative, next)
}

// altCarriesMissingCheckpointLocked reports whether the alternative chain
// ending at id passes through a checkpoint at a height where the current
// main chain does not have that same block.
func (s *Store) altCarriesMissingCheckpointLocked(id chainhash.Hash) bool {
	if s.params == nil {
		return false
	}
	for cur := id; ; {
		sb, ok := s.altChains[cur]
		if !ok {
			return false
		}
		if cp, ok := s.params.CheckpointByHeight(sb.Height); ok && cp.Hash == cur {
			mainID, onMain := s.mainChainIDAtLocked(sb.Height)
			if !onMain || mainID != cur {
				return true
			}
		}
		cur = sb.Block.Header.PrevID
	}
}

func (s *Store) mainChainIDAtLocked(height uint64) (chainhash.Hash, bool) {
	if height >= uint64(len(s.mainChain)) {
		return chainhash.Hash{}, false
	}
	return s.mainChain[height], true
}

// collectAltPathLocked walks backwards from newTip through altChains
// until it reaches a block already on the main chain, returning the path
// from the fork point forward (oldest first).
func (s *Store) collectAltPathLocked(newTip chainhash.Hash) []*StoredBlock {
	var path []*StoredBlock
	cur := newTip
	for {
		sb, ok := s.altChains[cur]
		if !ok {
			break
		}
		path = append([]*StoredBlock{sb}, path...)
		cur = sb.Block.Header.PrevID
	}
	return path
}

func (s *Store) blockTransactionsLocked(block *wire.Block) []*transaction.Transaction {
	txs := make([]*transaction.Transaction, 0, 1+len(block.TxHashes))
	txs = append(txs, block.MinerTx)
	for _, h := range block.TxHashes {
		if tx, ok := s.txByHash[h]; ok {
			txs = append(txs, tx)
		}
	}
	return txs
}

// switchToAlternativeChain replaces the main chain with the alternative
// chain ending at newTip: pop main-chain blocks down to the fork point,
// undoing each via its stored undo token, then apply the alternative
// chain's blocks in order. If any alternative block fails to apply, every
// popped main-chain block is re-applied and the failing block (and its
// still-pending alt-chain descendants) are marked invalid and discarded.
//
// When viaCheckpoint is true, the switch was forced by a checkpoint the
// former main chain lacked rather than by cumulative difficulty; the
// displaced former-main-chain blocks are discarded outright rather than
// kept around as alternative-chain entries, since a checkpoint-losing
// chain is never worth switching back to.
func (s *Store) switchToAlternativeChain(newTip chainhash.Hash, viaCheckpoint bool) error {
	altPath := s.collectAltPathLocked(newTip)
	if len(altPath) == 0 {
		return ConsensusFault{Description: "switchToAlternativeChain: empty alternative path"}
	}
	forkHeight := altPath[0].Height - 1

	type popped struct {
		id chainhash.Hash
		sb *StoredBlock
	}
	var poppedBlocks []popped
	for height := uint64(len(s.mainChain)) - 1; height > forkHeight; height-- {
		id := s.mainChain[height]
		sb := s.blocksByID[id]
		s.undoBlock(sb.Block, s.blockTransactionsLocked(sb.Block), sb.undo)
		poppedBlocks = append(poppedBlocks, popped{id: id, sb: sb})
		delete(s.blocksByID, id)
	}
	s.mainChain = s.mainChain[:forkHeight+1]

	applied := 0
	for i, sb := range altPath {
		txs := s.blockTransactionsLocked(sb.Block)
		undo, err := s.applyBlock(sb.Block, txs, sb.Height)
		if err != nil {
			for j := applied - 1; j >= 0; j-- {
				s.undoBlock(altPath[j].Block, s.blockTransactionsLocked(altPath[j].Block), altPath[j].undo)
			}
			for j := len(poppedBlocks) - 1; j >= 0; j-- {
				pb := poppedBlocks[j]
				reundo, rerr := s.applyBlock(pb.sb.Block, s.blockTransactionsLocked(pb.sb.Block), pb.sb.Height)
				if rerr != nil {
					panic(ConsensusFault{Description: "failed to restore popped main-chain block during rollback: " + rerr.Error()})
				}
				pb.sb.undo = reundo
				s.blocksByID[pb.id] = pb.sb
				s.mainChain = append(s.mainChain, pb.id)
			}
			failingID, idErr := sb.Block.ID()
			if idErr == nil {
				s.markInvalidAndDiscard(failingID)
			}
			return errors.Wrapf(err, "applying alternative chain block %d", i)
		}
		sb.undo = undo
		applied++
	}

	for _, sb := range altPath {
		id, err := sb.Block.ID()
		if err != nil {
			return errors.Wrap(err, "compute switched block id")
		}
		delete(s.altChains, id)
		s.blocksByID[id] = sb
		s.mainChain = append(s.mainChain, id)
	}

	if viaCheckpoint {
		// The losing chain failed a checkpoint; it is never worth
		// switching back to, so drop it instead of filing it as an
		// alternative.
		return nil
	}

	// The disconnected former-main blocks become alternative-chain
	// entries, available to be switched back to later.
	for _, pb := range poppedBlocks {
		pb.sb.undo = blockUndo{}
		s.altChains[pb.id] = pb.sb
	}
	return nil
}

// markInvalidAndDiscard marks id and every alt-chain block descending
// from it as invalid, removing them from altChains so they are never
// reconsidered.
func (s *Store) markInvalidAndDiscard(id chainhash.Hash) {
	s.invalidBlocks[id] = struct{}{}
	delete(s.altChains, id)
	for candidateID, sb := range s.altChains {
		if sb.Block.Header.PrevID == id {
			s.markInvalidAndDiscard(candidateID)
		}
	}
}
