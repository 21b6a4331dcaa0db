// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package dpos implements the delegate proof-of-stake signer rotation: the
// rolling top-N delegate set, the deterministic nth-sorted-after rule that
// picks a signer for a given previous block and candidate timestamp, and
// the missed/processed-block accounting applied (and, on reorg, reversed)
// as DPoS blocks are sealed.
package dpos

import (
	"encoding/hex"
	"sort"

	"github.com/xpbproject/xpbd/amount"
)

// Delegate is one registered signer candidate. Rank is the position
// RecalculateTopDelegates last assigned it, cached so callers don't need
// to re-derive it from the sorted set.
type Delegate struct {
	ID              uint64
	Address         [64]byte
	RegistrationFee amount.Amount

	TotalVotes uint64
	Rank       int

	MissedBlocks    uint64
	ProcessedBlocks uint64
	FeesReceived    amount.Amount
}

func addressString(addr [64]byte) string {
	return hex.EncodeToString(addr[:])
}

// byRankOrder orders delegates by total votes descending, then by
// address string ascending, then by id ascending, so RecalculateTopDelegates
// is reproducible across nodes that received votes in different orders.
func byRankOrder(delegates []*Delegate) {
	sort.Slice(delegates, func(i, j int) bool {
		a, b := delegates[i], delegates[j]
		if a.TotalVotes != b.TotalVotes {
			return a.TotalVotes > b.TotalVotes
		}
		addrA, addrB := addressString(a.Address), addressString(b.Address)
		if addrA != addrB {
			return addrA < addrB
		}
		return a.ID < b.ID
	})
}

// RecalculateTopDelegates sorts delegates by (total votes desc, address
// string asc, id asc), writes each delegate's Rank back in that order, and
// returns the ids of the first n — the new rolling signer set.
func RecalculateTopDelegates(delegates []*Delegate, n int) []uint64 {
	sorted := append([]*Delegate(nil), delegates...)
	byRankOrder(sorted)
	for i, d := range sorted {
		d.Rank = i
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	top := make([]uint64, n)
	for i := 0; i < n; i++ {
		top[i] = sorted[i].ID
	}
	return top
}

// UptimeFunc scores a delegate's reliability, typically
// processed/(processed+missed), for use by AutovoteDelegates.
type UptimeFunc func(*Delegate) float64

// AutovoteDelegates ranks delegates by a combined votes×uptime score, the
// same tie-break as RecalculateTopDelegates, and returns the ids of the
// first n. This produces the set cast as default votes on behalf of
// holders who have not voted explicitly; it must be exactly as
// deterministic as RecalculateTopDelegates since every node computes it
// independently.
func AutovoteDelegates(delegates []*Delegate, n int, uptime UptimeFunc) []uint64 {
	type scored struct {
		d     *Delegate
		score float64
	}
	ranked := make([]scored, len(delegates))
	for i, d := range delegates {
		ranked[i] = scored{d: d, score: float64(d.TotalVotes) * uptime(d)}
	}
	sort.Slice(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.score != b.score {
			return a.score > b.score
		}
		addrA, addrB := addressString(a.d.Address), addressString(b.d.Address)
		if addrA != addrB {
			return addrA < addrB
		}
		return a.d.ID < b.d.ID
	})
	if n > len(ranked) {
		n = len(ranked)
	}
	ids := make([]uint64, n)
	for i := 0; i < n; i++ {
		ids[i] = ranked[i].d.ID
	}
	return ids
}

// Uptime is the standard uptime function: the fraction of a delegate's
// assigned slots it actually signed. A delegate with no assigned slots
// yet is scored as fully reliable so a freshly-registered delegate isn't
// unfairly excluded from the autovote set.
func Uptime(d *Delegate) float64 {
	total := d.ProcessedBlocks + d.MissedBlocks
	if total == 0 {
		return 1
	}
	return float64(d.ProcessedBlocks) / float64(total)
}
