// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package logger

import "testing"

func TestGetKnownSubsystem(t *testing.T) {
	if _, ok := Get(SubsystemTags.CHST); !ok {
		t.Error("expected CHST subsystem logger to exist")
	}
	if _, ok := Get("NOPE"); ok {
		t.Error("expected unknown subsystem to be absent")
	}
}

func TestParseAndSetDebugLevelsBareLevel(t *testing.T) {
	if err := ParseAndSetDebugLevels("debug"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	l, _ := Get(SubsystemTags.MMPL)
	if l.Level().String() != "DBG" {
		t.Errorf("expected MMPL level DBG, got %s", l.Level())
	}
}

func TestParseAndSetDebugLevelsPerSubsystem(t *testing.T) {
	if err := ParseAndSetDebugLevels("DPOS=warn,FORK=error"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	dpos, _ := Get(SubsystemTags.DPOS)
	fork, _ := Get(SubsystemTags.FORK)
	if dpos.Level().String() != "WRN" {
		t.Errorf("expected DPOS level WRN, got %s", dpos.Level())
	}
	if fork.Level().String() != "ERR" {
		t.Errorf("expected FORK level ERR, got %s", fork.Level())
	}
}

func TestParseAndSetDebugLevelsRejectsUnknownSubsystem(t *testing.T) {
	if err := ParseAndSetDebugLevels("BOGUS=debug"); err == nil {
		t.Error("expected error for unknown subsystem")
	}
}
