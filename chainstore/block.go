// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainstore

import (
	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/dpos"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wire"
)

// txUndo is everything needed to reverse one applied transaction: the
// per-input undo tokens, in the same order as the transaction's inputs,
// and the coin types of the outputs it appended (in append order, so undo
// can pop each coin type's log by exactly that many entries).
type txUndo struct {
	inputUndos      []inputUndo
	outputCoinTypes []cointype.CoinType
}

// blockUndo reverses an entire applied block, one transaction at a time,
// in reverse transaction order — miner transaction last, since it was
// applied first — plus whatever DPoS delegate accounting and rolling-fee
// recording the block's own apply step performed.
type blockUndo struct {
	txUndos []txUndo

	// fee is the XPB fee this block's ordinary transactions collected,
	// recorded into the rolling-average window at apply time.
	fee amount.Amount

	// accounting is the missed/processed/fee bookkeeping this block
	// applied against the delegate registry, or nil for a block sealed
	// before the chain switched to DPoS.
	accounting *dpos.BlockAccounting
}

// resolveTransactions maps a block's hash list (plus its miner tx) to
// full Transaction bodies, consulting txs for any hash not already
// archived and archiving every transaction it resolves.
func (s *Store) resolveTransactions(block *wire.Block, txs []*transaction.Transaction) ([]*transaction.Transaction, error) {
	byHash := make(map[chainhash.Hash]*transaction.Transaction, len(txs))
	for _, tx := range txs {
		byHash[tx.Hash()] = tx
	}

	ordered := make([]*transaction.Transaction, 0, 1+len(block.TxHashes))
	ordered = append(ordered, block.MinerTx)

	for _, h := range block.TxHashes {
		if tx, ok := s.txByHash[h]; ok {
			ordered = append(ordered, tx)
			continue
		}
		tx, ok := byHash[h]
		if !ok {
			return nil, RuleError{ErrorCode: ErrMissingTransaction, Description: "block references an unknown transaction"}
		}
		s.txByHash[h] = tx
		ordered = append(ordered, tx)
	}
	return ordered, nil
}

// applyTransaction applies every input of tx, in order, then appends its
// outputs to their coin types' output logs. On any input failure, the
// inputs already applied for this transaction are unwound before the
// error is returned, so a partially-applied transaction is never left
// behind.
func (s *Store) applyTransaction(tx *transaction.Transaction, height uint64) (txUndo, error) {
	var undo txUndo
	for i, in := range tx.Inputs {
		iu, err := s.applyInput(in, height)
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				_ = s.undoInput(tx.Inputs[j], undo.inputUndos[j])
			}
			return txUndo{}, errors.Wrapf(err, "input %d", i)
		}
		undo.inputUndos = append(undo.inputUndos, iu)
	}

	h := tx.Hash()
	for _, out := range tx.Outputs {
		s.outputsByCoin[out.CoinType] = append(s.outputsByCoin[out.CoinType], outputEntry{
			TxHash:     h,
			UnlockTime: tx.UnlockTime,
			Key:        out.Key,
		})
		undo.outputCoinTypes = append(undo.outputCoinTypes, out.CoinType)
	}
	return undo, nil
}

func (s *Store) undoTransaction(tx *transaction.Transaction, undo txUndo) {
	for i := len(undo.outputCoinTypes) - 1; i >= 0; i-- {
		ct := undo.outputCoinTypes[i]
		entries := s.outputsByCoin[ct]
		s.outputsByCoin[ct] = entries[:len(entries)-1]
	}
	for i := len(tx.Inputs) - 1; i >= 0; i-- {
		_ = s.undoInput(tx.Inputs[i], undo.inputUndos[i])
	}
}

// applyBlock applies block's miner transaction first, then every ordinary
// transaction in block.TxHashes order, records the block's collected fee
// into the rolling-average window, plans and applies this block's DPoS
// delegate accounting if it is delegate-sealed, then refreshes the
// top-delegate and autovote-delegate sets. On failure everything applied
// so far — transactions, the fee record, any delegate accounting — is
// undone and the error is returned; the block is not recorded.
func (s *Store) applyBlock(block *wire.Block, txs []*transaction.Transaction, height uint64) (blockUndo, error) {
	ordered, err := s.resolveTransactions(block, txs)
	if err != nil {
		return blockUndo{}, err
	}

	var bu blockUndo
	unwindTxs := func(upTo int) {
		for j := upTo; j >= 0; j-- {
			s.undoTransaction(ordered[j], bu.txUndos[j])
		}
	}
	for i, tx := range ordered {
		tu, err := s.applyTransaction(tx, height)
		if err != nil {
			unwindTxs(i - 1)
			return blockUndo{}, errors.Wrapf(err, "transaction %d", i)
		}
		bu.txUndos = append(bu.txUndos, tu)
	}

	bu.fee = collectedFee(ordered[1:])
	s.recordBlockFeeLocked(bu.fee)

	if block.Header.IsDPoS() {
		if prev, ok := s.storedBlockLocked(block.Header.PrevID); ok {
			info := dpos.PrevBlockInfo{
				Timestamp:       prev.Block.Header.Timestamp,
				SigningDelegate: prev.Block.SigningDelegate,
				IsPoW:           prev.Block.Header.IsPoW(),
			}
			acc, err := dpos.PlanAccounting(info, block.Header.Timestamp, s.topDelegates, bu.fee)
			if err != nil {
				s.undoBlockFeeLocked()
				unwindTxs(len(ordered) - 1)
				return blockUndo{}, errors.Wrap(err, "plan DPoS block accounting")
			}
			s.applyDelegateAccountingLocked(acc)
			bu.accounting = &acc
		}
	}

	s.recalculateDelegateSets()
	return bu, nil
}

func (s *Store) undoBlock(block *wire.Block, txs []*transaction.Transaction, bu blockUndo) {
	ordered, err := s.resolveTransactions(block, txs)
	if err != nil {
		panic(ConsensusFault{Description: "undo block: transactions no longer resolvable"})
	}

	if bu.accounting != nil {
		s.undoDelegateAccountingLocked(*bu.accounting)
	}
	s.undoBlockFeeLocked()

	for i := len(ordered) - 1; i >= 0; i-- {
		s.undoTransaction(ordered[i], bu.txUndos[i])
	}
	s.recalculateDelegateSets()
}

// collectedFee sums the XPB fee every one of txs (a block's ordinary
// transactions, miner transaction excluded) pays: the amount by which its
// XPB inputs exceed its XPB outputs. It mirrors the per-coin-type balance
// Validator.checkConservationOfValue enforces at admission time, narrowed
// to the coin type the miner reward substitution and the delegate
// registration fee floor are both denominated in.
func collectedFee(txs []*transaction.Transaction) amount.Amount {
	var total amount.Amount
	for _, tx := range txs {
		in, out := xpbBalance(tx)
		if in > out {
			total += in - out
		}
	}
	return total
}

func xpbBalance(tx *transaction.Transaction) (in, out amount.Amount) {
	for _, i := range tx.Inputs {
		switch v := i.(type) {
		case *transaction.SpendInput:
			if v.CoinType() == cointype.XPB {
				in += v.Amount
			}
		case *transaction.VoteInput:
			if v.Spend.CoinType() == cointype.XPB {
				in += v.Spend.Amount
			}
		case *transaction.MintInput:
			if v.CoinType() == cointype.XPB {
				in += v.Amount
			}
		case *transaction.RemintInput:
			if v.CoinType() == cointype.XPB {
				in += v.Amount
			}
		case *transaction.GradeContractInput:
			for _, claim := range v.FeeClaims {
				if cointype.New(claim.Currency, cointype.NotContract, cointype.BackedByNA) == cointype.XPB {
					in += claim.Amount
				}
			}
		case *transaction.RegisterDelegateInput:
			out += v.RegistrationFee
		}
	}
	for _, o := range tx.Outputs {
		if o.CoinType == cointype.XPB {
			out += o.Amount
		}
	}
	return in, out
}
