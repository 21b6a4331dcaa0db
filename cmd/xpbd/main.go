// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Command xpbd drives the consensus and state-transition engine against a
// committed ledger snapshot on disk: on startup it loads the snapshot for
// the selected network (or seeds one from the network's genesis block if
// none exists yet), runs the catch-up long-hash worker in the background,
// and on a clean shutdown flushes both back to disk. It carries no
// peer-to-peer networking or RPC surface of its own.
package main

import (
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/catchup"
	"github.com/xpbproject/xpbd/chainstore"
	"github.com/xpbproject/xpbd/genesis"
	"github.com/xpbproject/xpbd/logger"
	"github.com/xpbproject/xpbd/persist"
)

var log, _ = logger.Get(logger.SubsystemTags.CMDX)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%+v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := loadConfig()
	if err != nil {
		return errors.Wrap(err, "load config")
	}

	netDir := cfg.NetParams.Name
	if err := os.MkdirAll(cfg.LongHash, 0700); err != nil {
		return errors.Wrap(err, "create long-hash cache directory")
	}

	logger.InitLogRotators(defaultLogFile(cfg.DataDir), defaultLogFile(cfg.DataDir)+".err")
	logger.SetLogLevels(cfg.LogLevel)
	log.Infof("starting xpbd on %s", netDir)

	store, err := openStore(cfg)
	if err != nil {
		return errors.Wrap(err, "open chain store")
	}

	cache, err := persist.OpenLongHashCache(cfg.LongHash)
	if err != nil {
		return errors.Wrap(err, "open long-hash cache")
	}

	worker := catchup.New(shortHashLongHasher{}, cache)
	worker.Run()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)
	sig := <-interrupt
	log.Infof("received %s, shutting down", sig)

	worker.Stop()

	if err := persist.SaveSnapshot(store, cfg.Snapshot); err != nil {
		return errors.Wrap(err, "save chain snapshot")
	}
	log.Infof("xpbd shut down cleanly")
	return nil
}

// openStore loads cfg.Snapshot if it exists, or seeds a fresh store with
// the selected network's genesis block if this is the first run.
func openStore(cfg *config) (*chainstore.Store, error) {
	if _, err := os.Stat(cfg.Snapshot); err == nil {
		return persist.LoadSnapshot(cfg.Snapshot, cfg.NetParams)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, "stat snapshot file")
	}

	log.Infof("no snapshot found at %s, seeding genesis", cfg.Snapshot)
	block, err := genesis.Block(cfg.NetParams)
	if err != nil {
		return nil, errors.Wrap(err, "build genesis block")
	}

	store := chainstore.New(cfg.NetParams)
	if _, err := store.AddGenesis(block, nil, big.NewInt(1)); err != nil {
		return nil, errors.Wrap(err, "add genesis block")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Snapshot), 0700); err != nil {
		return nil, errors.Wrap(err, "create data directory")
	}
	if err := persist.SaveSnapshot(store, cfg.Snapshot); err != nil {
		return nil, errors.Wrap(err, "save initial snapshot")
	}
	return store, nil
}
