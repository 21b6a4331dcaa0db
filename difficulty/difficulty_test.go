// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package difficulty

import "testing"

func TestNextTargetTooShortWindowReturnsOne(t *testing.T) {
	for _, window := range [][]Sample{nil, {{Timestamp: 1, CumulativeDifficulty: 1}}} {
		got, err := NextTarget(window, 60)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != 1 {
			t.Errorf("NextTarget(%v) = %d, want 1", window, got)
		}
	}
}

func TestNextTargetStableBlockTimeHoldsDifficultySteady(t *testing.T) {
	const target = 60
	window := make([]Sample, 100)
	for i := range window {
		window[i] = Sample{
			Timestamp:            uint64(i) * target,
			CumulativeDifficulty: uint64(i+1) * 1000,
		}
	}
	got, err := NextTarget(window, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Each sample adds exactly 1000 work over exactly `target` seconds, so
	// the retarget should reproduce ~1000 difficulty per block.
	if got < 990 || got > 1010 {
		t.Errorf("NextTarget = %d, want close to 1000", got)
	}
}

func TestNextTargetFasterBlocksRaiseDifficulty(t *testing.T) {
	const target = 60
	window := make([]Sample, 100)
	for i := range window {
		window[i] = Sample{
			Timestamp:            uint64(i) * (target / 2),
			CumulativeDifficulty: uint64(i+1) * 1000,
		}
	}
	got, err := NextTarget(window, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 1900 {
		t.Errorf("NextTarget = %d, want roughly double the steady-state difficulty for blocks arriving twice as fast", got)
	}
}

func TestNextTargetRejectsStalledDifficulty(t *testing.T) {
	window := make([]Sample, 100)
	for i := range window {
		window[i] = Sample{Timestamp: uint64(i) * 60, CumulativeDifficulty: 1000}
	}
	if _, err := NextTarget(window, 60); err == nil {
		t.Error("expected an error when cumulative difficulty never increases across the window")
	}
}

func TestNextTargetTruncatesToWindowSize(t *testing.T) {
	const target = 60
	window := make([]Sample, WindowSize+500)
	for i := range window {
		window[i] = Sample{
			Timestamp:            uint64(i) * target,
			CumulativeDifficulty: uint64(i+1) * 1000,
		}
	}
	got, err := NextTarget(window, target)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got < 990 || got > 1010 {
		t.Errorf("NextTarget over an oversized window = %d, want close to 1000", got)
	}
}
