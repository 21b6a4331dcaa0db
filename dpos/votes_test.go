// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dpos

import (
	"testing"

	"github.com/xpbproject/xpbd/amount"
)

func TestApplyVoteCreditsEachDelegateTheClaimedAmount(t *testing.T) {
	delegates := map[uint64]*Delegate{1: {ID: 1}, 2: {ID: 2}}
	var history []VoteRecord

	rec, prev := ApplyVote(&history, delegates, 1_000_000, 10, amount.Amount(500), []uint64{1, 2})
	if prev != nil {
		t.Fatalf("expected no previous instance on first vote, got %+v", prev)
	}
	if rec.EffectiveAmounts[1] != 500 || rec.EffectiveAmounts[2] != 500 {
		t.Errorf("effective amounts = %+v, want 500 each", rec.EffectiveAmounts)
	}
	if delegates[1].TotalVotes != 500 || delegates[2].TotalVotes != 500 {
		t.Errorf("delegate totals = %d,%d, want 500,500", delegates[1].TotalVotes, delegates[2].TotalVotes)
	}
}

func TestApplyVoteClampsToCap(t *testing.T) {
	delegates := map[uint64]*Delegate{1: {ID: 1, TotalVotes: 900}}
	var history []VoteRecord

	rec, _ := ApplyVote(&history, delegates, 1000, 10, amount.Amount(500), []uint64{1})
	if rec.EffectiveAmounts[1] != 100 {
		t.Errorf("effective amount = %d, want 100 (clamped to remaining cap)", rec.EffectiveAmounts[1])
	}
	if delegates[1].TotalVotes != 1000 {
		t.Errorf("delegate total = %d, want 1000", delegates[1].TotalVotes)
	}
}

func TestRevoteReplacesPreviousInstance(t *testing.T) {
	delegates := map[uint64]*Delegate{1: {ID: 1}, 2: {ID: 2}}
	var history []VoteRecord

	ApplyVote(&history, delegates, 1_000_000, 10, amount.Amount(300), []uint64{1})
	_, prev := ApplyVote(&history, delegates, 1_000_000, 20, amount.Amount(700), []uint64{2})

	if prev == nil {
		t.Fatal("expected a previous instance on revote")
	}
	if delegates[1].TotalVotes != 0 {
		t.Errorf("delegate 1 total after revote = %d, want 0 (previous vote withdrawn)", delegates[1].TotalVotes)
	}
	if delegates[2].TotalVotes != 700 {
		t.Errorf("delegate 2 total after revote = %d, want 700", delegates[2].TotalVotes)
	}
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}
}

func TestUndoVoteRestoresPreviousInstanceExactly(t *testing.T) {
	delegates := map[uint64]*Delegate{1: {ID: 1}, 2: {ID: 2}}
	var history []VoteRecord

	ApplyVote(&history, delegates, 1_000_000, 10, amount.Amount(300), []uint64{1})
	_, prev := ApplyVote(&history, delegates, 1_000_000, 20, amount.Amount(700), []uint64{2})

	UndoVote(&history, delegates, prev)

	if delegates[1].TotalVotes != 300 {
		t.Errorf("delegate 1 total after undo = %d, want 300", delegates[1].TotalVotes)
	}
	if delegates[2].TotalVotes != 0 {
		t.Errorf("delegate 2 total after undo = %d, want 0", delegates[2].TotalVotes)
	}
	if len(history) != 1 || history[0].ClaimedAmount != 300 {
		t.Fatalf("history after undo = %+v, want the first vote restored", history)
	}
}

func TestUndoVoteOnFirstVoteEmptiesHistory(t *testing.T) {
	delegates := map[uint64]*Delegate{1: {ID: 1}}
	var history []VoteRecord

	_, prev := ApplyVote(&history, delegates, 1_000_000, 10, amount.Amount(300), []uint64{1})
	UndoVote(&history, delegates, prev)

	if len(history) != 0 {
		t.Errorf("history = %v, want empty after undoing the only vote", history)
	}
	if delegates[1].TotalVotes != 0 {
		t.Errorf("delegate total = %d, want 0", delegates[1].TotalVotes)
	}
}
