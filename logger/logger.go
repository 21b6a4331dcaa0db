// Copyright (c) 2013-2017 The btcsuite developers
// Copyright (c) 2017 The Decred developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package logger wires the per-subsystem loggers used throughout xpbd:
// chainstore, validation, mempool, the DPoS scheduler, fork choice, and
// contract grading each get their own tagged Logger sharing one rotating
// backend.
package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jrick/logrotate/rotator"

	"github.com/xpbproject/xpbd/logs"
)

// logWriter outputs to both stdout and the write end of LogRotator, once
// InitLogRotators has run.
type logWriter struct{}

func (logWriter) Write(p []byte) (n int, err error) {
	if initiated {
		os.Stdout.Write(p)
		LogRotator.Write(p)
	}
	return len(p), nil
}

// errLogWriter outputs to both stdout and the write end of ErrLogRotator.
type errLogWriter struct{}

func (errLogWriter) Write(p []byte) (n int, err error) {
	if initiated {
		os.Stdout.Write(p)
		ErrLogRotator.Write(p)
	}
	return len(p), nil
}

// Loggers can not be used before the log rotator has been initialized with
// a log file. This must be performed early during application startup by
// calling InitLogRotators.
var (
	backendLog = logs.NewBackend([]*logs.BackendWriter{
		logs.NewAllLevelsBackendWriter(logWriter{}),
		logs.NewErrorBackendWriter(errLogWriter{}),
	})

	// LogRotator and ErrLogRotator are the logging outputs; they should be
	// closed on application shutdown.
	LogRotator    *rotator.Rotator
	ErrLogRotator *rotator.Rotator

	chstLog = backendLog.Logger("CHST")
	valdLog = backendLog.Logger("VALD")
	mmplLog = backendLog.Logger("MMPL")
	dposLog = backendLog.Logger("DPOS")
	forkLog = backendLog.Logger("FORK")
	gradLog = backendLog.Logger("GRAD")
	chcfLog = backendLog.Logger("CHCF")
	wireLog = backendLog.Logger("WIRE")
	persLog = backendLog.Logger("PERS")
	ctchLog = backendLog.Logger("CTCH")
	cmdxLog = backendLog.Logger("CMDX")

	initiated = false
)

// SubsystemTags is an enum of all subsystem tags.
var SubsystemTags = struct {
	CHST,
	VALD,
	MMPL,
	DPOS,
	FORK,
	GRAD,
	CHCF,
	WIRE,
	PERS,
	CTCH,
	CMDX string
}{
	CHST: "CHST",
	VALD: "VALD",
	MMPL: "MMPL",
	DPOS: "DPOS",
	FORK: "FORK",
	GRAD: "GRAD",
	CHCF: "CHCF",
	WIRE: "WIRE",
	PERS: "PERS",
	CTCH: "CTCH",
	CMDX: "CMDX",
}

// subsystemLoggers maps each subsystem identifier to its associated logger.
var subsystemLoggers = map[string]logs.Logger{
	SubsystemTags.CHST: chstLog,
	SubsystemTags.VALD: valdLog,
	SubsystemTags.MMPL: mmplLog,
	SubsystemTags.DPOS: dposLog,
	SubsystemTags.FORK: forkLog,
	SubsystemTags.GRAD: gradLog,
	SubsystemTags.CHCF: chcfLog,
	SubsystemTags.WIRE: wireLog,
	SubsystemTags.PERS: persLog,
	SubsystemTags.CTCH: ctchLog,
	SubsystemTags.CMDX: cmdxLog,
}

// InitLogRotators initializes the logging rotators to write logs to
// logFile and errLogFile, creating roll files in the same directory. It
// must be called before the package-global log rotator variables are
// used.
func InitLogRotators(logFile, errLogFile string) {
	initiated = true
	LogRotator = initLogRotator(logFile)
	ErrLogRotator = initLogRotator(errLogFile)
}

func initLogRotator(logFile string) *rotator.Rotator {
	logDir, _ := filepath.Split(logFile)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "failed to create log directory: %s\n", err)
		os.Exit(1)
	}
	r, err := rotator.New(logFile, 10*1024, false, 3)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create file rotator: %s\n", err)
		os.Exit(1)
	}
	return r
}

// SetLogLevel sets the logging level for the provided subsystem. Invalid
// subsystems are ignored.
func SetLogLevel(subsystemID string, logLevel string) {
	logger, ok := subsystemLoggers[subsystemID]
	if !ok {
		return
	}
	level, _ := logs.LevelFromString(logLevel)
	logger.SetLevel(level)
}

// SetLogLevels sets the log level for every subsystem logger to logLevel.
func SetLogLevels(logLevel string) {
	for subsystemID := range subsystemLoggers {
		SetLogLevel(subsystemID, logLevel)
	}
}

// SupportedSubsystems returns a sorted slice of the supported subsystems.
func SupportedSubsystems() []string {
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}
	sort.Strings(subsystems)
	return subsystems
}

// Get returns the logger for a specific subsystem.
func Get(tag string) (logger logs.Logger, ok bool) {
	logger, ok = subsystemLoggers[tag]
	return
}

// ParseAndSetDebugLevels parses a debug-level spec, either a bare level
// name applied to every subsystem or a comma-separated list of
// SUBSYS=level pairs, and applies it.
func ParseAndSetDebugLevels(debugLevel string) error {
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		if !validLogLevel(debugLevel) {
			return fmt.Errorf("the specified debug level [%s] is invalid", debugLevel)
		}
		SetLogLevels(debugLevel)
		return nil
	}

	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			return fmt.Errorf("the specified debug level contains an invalid subsystem/level pair [%s]", logLevelPair)
		}

		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		if _, exists := Get(subsysID); !exists {
			return fmt.Errorf("the specified subsystem [%s] is invalid -- supported subsystems %s",
				subsysID, strings.Join(SupportedSubsystems(), ", "))
		}
		if !validLogLevel(logLevel) {
			return fmt.Errorf("the specified debug level [%s] is invalid", logLevel)
		}
		SetLogLevel(subsysID, logLevel)
	}
	return nil
}

func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}
