// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package logs

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerFiltersBelowConfiguredLevel(t *testing.T) {
	var buf bytes.Buffer
	backend := NewBackend([]*BackendWriter{NewAllLevelsBackendWriter(&buf)})
	l := backend.Logger("TEST")
	l.SetLevel(LevelWarn)

	l.Infof("should not appear")
	l.Warnf("should appear: %d", 42)

	out := buf.String()
	if strings.Contains(out, "should not appear") {
		t.Error("Infof record was not filtered out below LevelWarn")
	}
	if !strings.Contains(out, "should appear: 42") {
		t.Errorf("Warnf record missing from output: %q", out)
	}
}

func TestErrorBackendWriterOnlyReceivesErrorsAndAbove(t *testing.T) {
	var all, errOnly bytes.Buffer
	backend := NewBackend([]*BackendWriter{
		NewAllLevelsBackendWriter(&all),
		NewErrorBackendWriter(&errOnly),
	})
	l := backend.Logger("TEST")
	l.SetLevel(LevelTrace)

	l.Infof("info line")
	l.Errorf("error line")

	if !strings.Contains(all.String(), "info line") || !strings.Contains(all.String(), "error line") {
		t.Error("all-levels writer missing expected lines")
	}
	if strings.Contains(errOnly.String(), "info line") {
		t.Error("error-only writer received an info line")
	}
	if !strings.Contains(errOnly.String(), "error line") {
		t.Error("error-only writer missing the error line")
	}
}

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantOk  bool
	}{
		{"debug", LevelDebug, true},
		{"ERROR", LevelError, true},
		{"nonsense", LevelInfo, false},
	}
	for _, test := range tests {
		got, ok := LevelFromString(test.in)
		if got != test.want || ok != test.wantOk {
			t.Errorf("LevelFromString(%q) = (%v, %v), want (%v, %v)", test.in, got, ok, test.want, test.wantOk)
		}
	}
}
