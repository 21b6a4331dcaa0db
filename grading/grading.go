// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package grading implements the pure arithmetic that splits a contract's
// minted pool between its two counterparties and the grader, without ever
// creating coin. Every rounding direction below is load-bearing: graded
// amounts round down, fees round up, so the sum of every payout plus the
// collected fee never exceeds the pool it was split from.
package grading

import "math/bits"

// GradeMax is the denominator against which a grade and a fee scale are
// expressed; a grade of GradeMax means "fully pays the contract side".
const GradeMax = 1_000_000

// mulDiv computes floor(a*b/d) using the full 128-bit intermediate product,
// the Go stdlib equivalent of the original's boost::multiprecision::uint128_t
// use. Both a and b are bounded well under 2^64 in practice (amounts and
// GradeMax), so the 128-bit product never itself overflows past 128 bits.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// mulDivCeil computes ceil(a*b/d) using the same 128-bit product.
func mulDivCeil(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, r := bits.Div64(hi, lo, d)
	if r != 0 {
		q++
	}
	return q
}

// gradeAmount splits fullAmount at the given grade, then deducts a fee
// computed on the graded share and rounded up, so the fee can never be
// shortchanged by truncation into creating coin elsewhere.
func gradeAmount(fullAmount uint64, grade, feeScale uint32) uint64 {
	graded := mulDiv(fullAmount, uint64(grade), GradeMax)
	// feeScale <= GradeMax is a validated precondition (checked by the
	// transaction validator before a CreateContract input is accepted),
	// which keeps fee <= graded even after rounding up.
	fee := mulDivCeil(graded, uint64(feeScale), GradeMax)
	return graded - fee
}

// GradeContractAmount returns the payout to a contract-coin holder of
// contractAmount once the contract has been graded at grade with the given
// fee scale. Contract-coins resolve directly to the grade.
func GradeContractAmount(contractAmount uint64, grade, feeScale uint32) uint64 {
	return gradeAmount(contractAmount, grade, feeScale)
}

// GradeBackingAmount returns the payout to a backing-coin holder of
// lockedAmount once the contract has been graded. Backing-coins resolve to
// the complementary side of the split.
func GradeBackingAmount(lockedAmount uint64, grade, feeScale uint32) uint64 {
	return gradeAmount(lockedAmount, GradeMax-grade, feeScale)
}

// TotalFee returns the exact fee a grader may claim against a contract's
// total minted pool, rounded down so it can never exceed what graded
// payouts leave behind.
func TotalFee(totalMinted uint64, feeScale uint32) uint64 {
	return mulDiv(totalMinted, uint64(feeScale), GradeMax)
}
