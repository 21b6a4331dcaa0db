// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dpos

import "github.com/xpbproject/xpbd/amount"

// VoteRecord is one key-image's vote instance: the height it was cast at,
// the amount claimed, and the per-delegate amount actually credited after
// vote-cap clamping. Keeping the effective amounts (not just the claimed
// total) is what lets undo restore delegates' totals exactly.
type VoteRecord struct {
	Height           uint64
	ClaimedAmount    amount.Amount
	EffectiveAmounts map[uint64]amount.Amount
}

// ClampVoteInstance builds the VoteRecord for casting claimedAmount across
// delegateIDs: each named delegate is credited min(claimedAmount, cap -
// its current total), so no delegate's total can be pushed over cap by
// this vote.
func ClampVoteInstance(delegates map[uint64]*Delegate, height uint64, claimedAmount amount.Amount, delegateIDs []uint64, cap uint64) VoteRecord {
	effective := make(map[uint64]amount.Amount, len(delegateIDs))
	for _, id := range delegateIDs {
		remaining := cap
		if d := delegates[id]; d != nil {
			remaining = 0
			if d.TotalVotes < cap {
				remaining = cap - d.TotalVotes
			}
		}
		amt := claimedAmount
		if uint64(amt) > remaining {
			amt = amount.Amount(remaining)
		}
		effective[id] = amt
	}
	return VoteRecord{Height: height, ClaimedAmount: claimedAmount, EffectiveAmounts: effective}
}

func addEffective(delegates map[uint64]*Delegate, effective map[uint64]amount.Amount, sign int64) {
	for id, amt := range effective {
		d := delegates[id]
		if d == nil {
			continue
		}
		if sign > 0 {
			d.TotalVotes += uint64(amt)
		} else {
			d.TotalVotes -= uint64(amt)
		}
	}
}

// ApplyVote casts a new vote for a key-image whose history stack is
// history: the previous top instance (if any) is popped and its effective
// amounts subtracted, the new instance is computed by ClampVoteInstance
// and its amounts added, and it is pushed onto history. The popped
// previous instance is returned (nil if the stack was empty) so the
// caller can hand it back to UndoVote to reverse this exact operation.
func ApplyVote(history *[]VoteRecord, delegates map[uint64]*Delegate, cap uint64, height uint64, claimedAmount amount.Amount, delegateIDs []uint64) (newRecord VoteRecord, previous *VoteRecord) {
	if n := len(*history); n > 0 {
		prev := (*history)[n-1]
		addEffective(delegates, prev.EffectiveAmounts, -1)
		*history = (*history)[:n-1]
		previous = &prev
	}

	newRecord = ClampVoteInstance(delegates, height, claimedAmount, delegateIDs, cap)
	addEffective(delegates, newRecord.EffectiveAmounts, 1)
	*history = append(*history, newRecord)
	return newRecord, previous
}

// UndoVote reverses the ApplyVote call that produced previous (the
// instance it replaced, or nil if there was none): pops the current top
// instance, subtracts its effective amounts, and — if previous is
// non-nil — pushes it back and re-adds its effective amounts.
func UndoVote(history *[]VoteRecord, delegates map[uint64]*Delegate, previous *VoteRecord) {
	n := len(*history)
	if n == 0 {
		return
	}
	top := (*history)[n-1]
	addEffective(delegates, top.EffectiveAmounts, -1)
	*history = (*history)[:n-1]

	if previous != nil {
		addEffective(delegates, previous.EffectiveAmounts, 1)
		*history = append(*history, *previous)
	}
}
