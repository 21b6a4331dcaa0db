// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package dpos

import "testing"

func TestRecalculateTopDelegatesSortsByVotesThenAddressThenID(t *testing.T) {
	a := &Delegate{ID: 3, TotalVotes: 100}
	a.Address[0] = 0x01
	b := &Delegate{ID: 1, TotalVotes: 100}
	b.Address[0] = 0x02
	c := &Delegate{ID: 2, TotalVotes: 50}

	top := RecalculateTopDelegates([]*Delegate{a, b, c}, 2)
	if len(top) != 2 || top[0] != a.ID || top[1] != b.ID {
		t.Errorf("top = %v, want [%d %d]", top, a.ID, b.ID)
	}
	if a.Rank != 0 || b.Rank != 1 || c.Rank != 2 {
		t.Errorf("ranks = %d,%d,%d, want 0,1,2", a.Rank, b.Rank, c.Rank)
	}
}

func TestRecalculateTopDelegatesTruncatesToN(t *testing.T) {
	delegates := make([]*Delegate, 5)
	for i := range delegates {
		delegates[i] = &Delegate{ID: uint64(i), TotalVotes: uint64(i)}
	}
	top := RecalculateTopDelegates(delegates, 2)
	if len(top) != 2 {
		t.Fatalf("got %d top delegates, want 2", len(top))
	}
	if top[0] != 4 || top[1] != 3 {
		t.Errorf("top = %v, want [4 3]", top)
	}
}

func TestAutovoteDelegatesWeighsVotesByUptime(t *testing.T) {
	reliable := &Delegate{ID: 1, TotalVotes: 100, ProcessedBlocks: 100}
	unreliable := &Delegate{ID: 2, TotalVotes: 100, ProcessedBlocks: 10, MissedBlocks: 90}

	top := AutovoteDelegates([]*Delegate{reliable, unreliable}, 2, Uptime)
	if top[0] != reliable.ID {
		t.Errorf("autovote top = %v, want %d first", top, reliable.ID)
	}
}

func TestUptimeIsFullyReliableWithNoHistory(t *testing.T) {
	d := &Delegate{}
	if Uptime(d) != 1 {
		t.Errorf("Uptime of a fresh delegate = %v, want 1", Uptime(d))
	}
}
