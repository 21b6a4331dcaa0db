// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logs implements a small leveled logging backend: one Backend
// writes to a shared set of io.Writers, and hands out per-subsystem
// Logger handles whose level can be raised or lowered independently.
package logs

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Level is a logging severity, ordered so that a Logger only emits a
// record if its configured Level is at or below the record's.
type Level uint32

const (
	LevelTrace Level = iota
	LevelDebug
	LevelInfo
	LevelWarn
	LevelError
	LevelCritical
	LevelOff
)

var levelStrings = [...]string{
	LevelTrace:    "TRC",
	LevelDebug:    "DBG",
	LevelInfo:     "INF",
	LevelWarn:     "WRN",
	LevelError:    "ERR",
	LevelCritical: "CRT",
	LevelOff:      "OFF",
}

func (l Level) String() string {
	if int(l) < len(levelStrings) {
		return levelStrings[l]
	}
	return "UNKNOWN"
}

// LevelFromString parses a level name case-insensitively, defaulting to
// LevelInfo (and reporting false) on an unrecognized name.
func LevelFromString(s string) (Level, bool) {
	switch strings.ToLower(s) {
	case "trace":
		return LevelTrace, true
	case "debug":
		return LevelDebug, true
	case "info":
		return LevelInfo, true
	case "warn":
		return LevelWarn, true
	case "error":
		return LevelError, true
	case "critical":
		return LevelCritical, true
	case "off":
		return LevelOff, true
	default:
		return LevelInfo, false
	}
}

// BackendWriter is one output sink of a Backend, filtered to the levels
// it accepts; a backend typically has an all-levels writer (e.g. stdout)
// and a narrower one (e.g. an error-only file).
type BackendWriter struct {
	w        io.Writer
	minLevel Level
}

// NewAllLevelsBackendWriter wraps w so it receives every record regardless
// of level.
func NewAllLevelsBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelTrace}
}

// NewErrorBackendWriter wraps w so it only receives Error and Critical
// records.
func NewErrorBackendWriter(w io.Writer) *BackendWriter {
	return &BackendWriter{w: w, minLevel: LevelError}
}

// Backend fans a formatted record out to every BackendWriter whose
// minLevel admits it, and constructs the per-subsystem Loggers that share
// it.
type Backend struct {
	writers []*BackendWriter
	mu      sync.Mutex
}

// NewBackend constructs a Backend over the given writers.
func NewBackend(writers []*BackendWriter) *Backend {
	return &Backend{writers: writers}
}

func (b *Backend) write(level Level, tag string, msg string) {
	line := fmt.Sprintf("%s [%s] %s: %s\n", time.Now().Format("2006-01-02 15:04:05.000"), level, tag, msg)
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, w := range b.writers {
		if level >= w.minLevel {
			io.WriteString(w.w, line)
		}
	}
}

// Logger returns a subsystem logger tagged tag, backed by b, defaulting
// to LevelInfo.
func (b *Backend) Logger(tag string) Logger {
	return &subsystemLogger{backend: b, tag: tag, level: uint32(LevelInfo)}
}

// Logger is a per-subsystem logging handle; every method is safe to call
// concurrently.
type Logger interface {
	Tracef(format string, args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	Level() Level
	SetLevel(level Level)
}

type subsystemLogger struct {
	backend *Backend
	tag     string
	level   uint32 // atomic, holds a Level
}

func (l *subsystemLogger) log(level Level, format string, args ...interface{}) {
	if level < l.Level() {
		return
	}
	l.backend.write(level, l.tag, fmt.Sprintf(format, args...))
}

func (l *subsystemLogger) Tracef(format string, args ...interface{})    { l.log(LevelTrace, format, args...) }
func (l *subsystemLogger) Debugf(format string, args ...interface{})    { l.log(LevelDebug, format, args...) }
func (l *subsystemLogger) Infof(format string, args ...interface{})     { l.log(LevelInfo, format, args...) }
func (l *subsystemLogger) Warnf(format string, args ...interface{})     { l.log(LevelWarn, format, args...) }
func (l *subsystemLogger) Errorf(format string, args ...interface{})    { l.log(LevelError, format, args...) }
func (l *subsystemLogger) Criticalf(format string, args ...interface{}) { l.log(LevelCritical, format, args...) }

func (l *subsystemLogger) Level() Level         { return Level(atomic.LoadUint32(&l.level)) }
func (l *subsystemLogger) SetLevel(level Level) { atomic.StoreUint32(&l.level, uint32(level)) }

// Disabled is a Logger that discards every record; used as the default
// for a subsystem before it is wired into a Backend, matching the
// btcsuite convention of a safe zero-value logger.
var Disabled Logger = &subsystemLogger{backend: NewBackend(nil), level: uint32(LevelOff)}

// Stdout is the process's standard output, kept here so callers wiring a
// default backend don't need to import "os" themselves.
var Stdout io.Writer = os.Stdout
