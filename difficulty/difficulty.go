// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package difficulty implements the sliding-window proof-of-work retarget:
// given a trailing window of (timestamp, cumulative-difficulty) samples, it
// derives the difficulty a new block must meet. DPoS-era blocks are signed,
// not mined, and always use the network's fixed difficulty constant instead.
package difficulty

import (
	"math/bits"
	"sort"

	"github.com/pkg/errors"
)

// WindowSize is the number of trailing samples the retarget considers.
const WindowSize = 720

// cutCount is the number of highest and lowest timestamps discarded from
// each end of the window before computing the time span, so a handful of
// blocks with manipulated timestamps can't swing the retarget.
const cutCount = 60

// Sample is one trailing window entry: a block's timestamp and the
// cumulative difficulty of the chain up to and including it.
type Sample struct {
	Timestamp            uint64
	CumulativeDifficulty uint64
}

// NextTarget computes the difficulty the next block must meet given a
// trailing window of samples (oldest first, genesis already excluded by the
// caller per spec) and the network's target seconds per block. Fewer than
// two samples yields a difficulty of 1, matching the convention that a
// chain too short to retarget starts at the easiest possible difficulty.
func NextTarget(window []Sample, targetSecondsPerBlock uint64) (uint64, error) {
	if len(window) > WindowSize {
		window = window[len(window)-WindowSize:]
	}
	if len(window) <= 1 {
		return 1, nil
	}

	sorted := make([]Sample, len(window))
	copy(sorted, window)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Timestamp < sorted[j].Timestamp })

	begin, end := cutWindow(len(sorted))

	timeSpan := sorted[end-1].Timestamp - sorted[begin].Timestamp
	if timeSpan == 0 {
		timeSpan = 1
	}

	totalWork := sorted[end-1].CumulativeDifficulty - sorted[begin].CumulativeDifficulty
	if totalWork == 0 {
		return 0, errors.New("cumulative difficulty did not increase across the retarget window")
	}

	hi, lo := bits.Mul64(totalWork, targetSecondsPerBlock)
	if hi != 0 {
		return 0, errors.New("retarget product overflows 64 bits")
	}
	// Round the quotient up, matching the original's "+timeSpan-1" trick,
	// so a fractional remainder never rounds difficulty down to zero work.
	sum, carry := bits.Add64(lo, timeSpan-1, 0)
	if carry != 0 {
		return 0, errors.New("retarget sum overflows 64 bits")
	}
	return sum / timeSpan, nil
}

// cutWindow returns the [begin, end) slice bounds that discard cutCount
// samples from each end of a length-length window, unless the window is
// already small enough that the full span survives.
func cutWindow(length int) (begin, end int) {
	kept := WindowSize - 2*cutCount
	if length <= kept {
		return 0, length
	}
	begin = (length - kept + 1) / 2
	end = begin + kept
	return begin, end
}
