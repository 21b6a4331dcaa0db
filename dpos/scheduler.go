// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dpos

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chaincfg"
)

// NthSortedAfter sorts set ascending, finds the lowest element at or above
// start, and steps forward n positions with wrap-around. set must be
// non-empty.
func NthSortedAfter(set []uint64, start uint64, n uint64) (uint64, error) {
	if len(set) == 0 {
		return 0, errors.New("nth-sorted-after: empty delegate set")
	}
	sorted := append([]uint64(nil), set...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	base := sort.Search(len(sorted), func(i int) bool { return sorted[i] >= start })
	if base == len(sorted) {
		base = 0
	}
	idx := (base + int(n%uint64(len(sorted)))) % len(sorted)
	return sorted[idx], nil
}

// PrevBlockInfo carries the previous block's fields the signer-selection
// rule consults.
type PrevBlockInfo struct {
	Timestamp       uint64
	SigningDelegate uint64
	IsPoW           bool
}

// SelectSigner computes the number of slots elapsed since prev's timestamp,
// then steps that many positions past prev's signer (or position zero, at
// the PoW/DPoS boundary) through the sorted top-delegate set.
func SelectSigner(prev PrevBlockInfo, candidateTimestamp uint64, topDelegates []uint64) (uint64, error) {
	if candidateTimestamp < prev.Timestamp {
		return 0, errors.New("candidate timestamp precedes previous block's timestamp")
	}
	elapsed := candidateTimestamp - prev.Timestamp
	slots := elapsed / chaincfg.DPoSSlotDuration

	previousSigner := uint64(0)
	if !prev.IsPoW {
		previousSigner = prev.SigningDelegate
	}
	return NthSortedAfter(topDelegates, previousSigner+1, slots)
}

// BlockAccounting is one sealed DPoS block's effect on delegate
// bookkeeping: the chosen signer, the slots skipped to reach it (each
// charged a missed block against the delegate who held that slot), and
// the fee credited to the signer.
type BlockAccounting struct {
	Signer       uint64
	SkippedSlots []uint64
	Fee          amount.Amount
}

// PlanAccounting derives the BlockAccounting for sealing a block on top of
// prev at candidateTimestamp: every slot strictly between prev's signer
// and the chosen signer is a miss, charged to whichever delegate held it.
func PlanAccounting(prev PrevBlockInfo, candidateTimestamp uint64, topDelegates []uint64, fee amount.Amount) (BlockAccounting, error) {
	if len(topDelegates) == 0 {
		return BlockAccounting{}, errors.New("no top delegates to schedule against")
	}
	elapsed := candidateTimestamp - prev.Timestamp
	slots := elapsed / chaincfg.DPoSSlotDuration

	previousSigner := uint64(0)
	if !prev.IsPoW {
		previousSigner = prev.SigningDelegate
	}

	skipped := make([]uint64, 0, slots)
	for i := uint64(1); i < slots; i++ {
		id, err := NthSortedAfter(topDelegates, previousSigner+1, i)
		if err != nil {
			return BlockAccounting{}, err
		}
		skipped = append(skipped, id)
	}

	signer, err := NthSortedAfter(topDelegates, previousSigner+1, slots)
	if err != nil {
		return BlockAccounting{}, err
	}
	return BlockAccounting{Signer: signer, SkippedSlots: skipped, Fee: fee}, nil
}

// byID finds the delegate with the given id. Returns nil if absent; a
// missing delegate is treated as a bookkeeping no-op rather than an
// error, since a delegate can be removed from the active registry for
// reasons unrelated to the block it once missed.
func byID(delegates map[uint64]*Delegate, id uint64) *Delegate {
	return delegates[id]
}

// Apply records acc's effect: every skipped delegate's MissedBlocks is
// incremented, and the signer's ProcessedBlocks and FeesReceived are
// credited.
func Apply(delegates map[uint64]*Delegate, acc BlockAccounting) {
	for _, id := range acc.SkippedSlots {
		if d := byID(delegates, id); d != nil {
			d.MissedBlocks++
		}
	}
	if d := byID(delegates, acc.Signer); d != nil {
		d.ProcessedBlocks++
		d.FeesReceived += acc.Fee
	}
}

// Undo reverses Apply, for popping a DPoS block during a reorg.
func Undo(delegates map[uint64]*Delegate, acc BlockAccounting) {
	for _, id := range acc.SkippedSlots {
		if d := byID(delegates, id); d != nil {
			d.MissedBlocks--
		}
	}
	if d := byID(delegates, acc.Signer); d != nil {
		d.ProcessedBlocks--
		d.FeesReceived -= acc.Fee
	}
}
