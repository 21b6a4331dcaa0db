// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"path/filepath"

	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/chaincfg"
)

const (
	defaultDataDirname  = "data"
	defaultLogFilename  = "xpbd.log"
	defaultLogLevel     = "info"
	defaultSnapshotName = "chain.snapshot"
	defaultLongHashDir  = "longhash"
)

// config holds the daemon's command-line parameters: where its committed
// ledger and long-hash cache live on disk, which network it tracks, and how
// loudly it logs. There is deliberately no peer-to-peer or RPC configuration
// here: this binary only drives the consensus and state-transition engine
// against a snapshot file, not a live network.
type config struct {
	DataDir  string `short:"b" long:"datadir" description:"Directory to store the chain snapshot and long-hash cache in"`
	TestNet  bool   `long:"testnet" description:"Use the test network"`
	LogLevel string `short:"d" long:"debuglevel" description:"Logging level for all subsystems {trace, debug, info, warn, error, critical}"`

	// NetParams, Snapshot, and LongHash are derived from the flags above
	// rather than parsed directly; they carry no flag tags.
	NetParams *chaincfg.Params
	Snapshot  string
	LongHash  string
}

func loadConfig() (*config, error) {
	cfg := &config{
		DataDir:  defaultDataDir(),
		LogLevel: defaultLogLevel,
	}

	parser := flags.NewParser(cfg, flags.PrintErrors|flags.HelpFlag)
	if _, err := parser.Parse(); err != nil {
		return nil, err
	}

	if !validLogLevel(cfg.LogLevel) {
		return nil, errors.Errorf("invalid debug level %q", cfg.LogLevel)
	}

	cfg.NetParams = &chaincfg.MainNetParams
	if cfg.TestNet {
		cfg.NetParams = &chaincfg.TestNetParams
	}

	netDir := filepath.Join(cfg.DataDir, cfg.NetParams.Name)
	cfg.Snapshot = filepath.Join(netDir, defaultSnapshotName)
	cfg.LongHash = filepath.Join(netDir, defaultLongHashDir)

	return cfg, nil
}

func validLogLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error", "critical":
		return true
	}
	return false
}

func defaultDataDir() string {
	return filepath.Join(".", defaultDataDirname)
}

func defaultLogFile(dataDir string) string {
	return filepath.Join(dataDir, defaultLogFilename)
}
