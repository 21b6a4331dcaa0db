// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package amount defines the checked unsigned-integer arithmetic used
// everywhere coin values are added or subtracted. Every operation that
// could wrap is required to go through Add/Sub rather than the raw +/-
// operators so that overflow and underflow become explicit, recoverable
// conditions instead of silent wraparound.
package amount

import "math"

// Amount represents the base monetary unit. All coin types in the ledger,
// regardless of currency or contract role, are denominated in Amount.
type Amount uint64

// MaxAmount is the largest representable amount.
const MaxAmount = Amount(math.MaxUint64)

// Add returns a+b and true if the addition did not overflow. On overflow
// it returns the zero value and false; callers must treat that as a hard
// error and abort the surrounding operation per the ledger's invariants.
func Add(a, b Amount) (Amount, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// Sub returns a-b and true if the subtraction did not underflow.
func Sub(a, b Amount) (Amount, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// WouldOverflow reports whether Add(a, b) would overflow, without
// performing the addition. Validators use this to reject a transaction
// before touching any state.
func WouldOverflow(a, b Amount) bool {
	return a+b < a
}

// WouldUnderflow reports whether Sub(a, b) would underflow.
func WouldUnderflow(a, b Amount) bool {
	return b > a
}

// SumOverflow adds a slice of amounts, reporting overflow if the running
// total ever wraps.
func SumOverflow(amounts ...Amount) (Amount, bool) {
	var total Amount
	var ok bool
	for _, a := range amounts {
		total, ok = Add(total, a)
		if !ok {
			return 0, false
		}
	}
	return total, true
}
