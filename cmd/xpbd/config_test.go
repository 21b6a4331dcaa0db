// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import "testing"

func TestValidLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "error", "critical"} {
		if !validLogLevel(level) {
			t.Errorf("validLogLevel(%q) = false, want true", level)
		}
	}
	if validLogLevel("verbose") {
		t.Errorf("validLogLevel(%q) = true, want false", "verbose")
	}
}

func TestDefaultLogFileUnderDataDir(t *testing.T) {
	got := defaultLogFile("/tmp/xpb")
	want := "/tmp/xpb/xpbd.log"
	if got != want {
		t.Errorf("defaultLogFile = %q, want %q", got, want)
	}
}
