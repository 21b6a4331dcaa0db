// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package persist

import (
	"math/big"
	"os"
	"path/filepath"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/chainstore"
	"github.com/xpbproject/xpbd/cointype"
	"github.com/xpbproject/xpbd/transaction"
	"github.com/xpbproject/xpbd/wire"
)

func minerTx(height uint64, key byte) *transaction.Transaction {
	return &transaction.Transaction{
		Version:    1,
		UnlockTime: height + chaincfg.MinedMoneyUnlockWindow,
		Inputs:     []transaction.Input{&transaction.CoinbaseInput{Height: height}},
		Signatures: [][]transaction.RingSignature{nil},
		Outputs: []transaction.Output{
			{Amount: amount.Amount(1000), CoinType: cointype.XPB, Key: transaction.OneTimeKey{key}},
		},
	}
}

func buildTestChain(t *testing.T) *chainstore.Store {
	t.Helper()
	store := chainstore.New(&chaincfg.TestNetParams)

	genesis := &wire.Block{
		Header: wire.Header{
			MajorVersion: chaincfg.PoWMajorVersion,
			Timestamp:    1_400_000_000,
			Nonce:        1,
		},
		MinerTx: minerTx(0, 1),
	}
	if _, err := store.AddGenesis(genesis, nil, big.NewInt(1)); err != nil {
		t.Fatalf("AddGenesis: %v", err)
	}

	genesisID, err := genesis.ID()
	if err != nil {
		t.Fatalf("genesis ID: %v", err)
	}
	next := &wire.Block{
		Header: wire.Header{
			MajorVersion: chaincfg.PoWMajorVersion,
			Timestamp:    1_400_000_100,
			PrevID:       genesisID,
			Nonce:        2,
		},
		MinerTx: minerTx(1, 2),
	}
	if _, err := store.AddBlock(next, nil, big.NewInt(3)); err != nil {
		t.Fatalf("AddBlock: %v", err)
	}
	return store
}

func TestSaveAndLoadSnapshotRoundTrips(t *testing.T) {
	store := buildTestChain(t)
	path := filepath.Join(t.TempDir(), "chain.snapshot")

	if err := SaveSnapshot(store, path); err != nil {
		t.Fatalf("SaveSnapshot: %v", err)
	}

	loaded, err := LoadSnapshot(path, &chaincfg.TestNetParams)
	if err != nil {
		t.Fatalf("LoadSnapshot: %v", err)
	}

	if got, want := loaded.TipHeight(), store.TipHeight(); got != want {
		t.Fatalf("tip height = %d, want %d", got, want)
	}
	for height := uint64(0); height <= store.TipHeight(); height++ {
		wantBlock, _ := store.BlockAtHeight(height)
		gotBlock, ok := loaded.BlockAtHeight(height)
		if !ok {
			t.Fatalf("loaded chain missing height %d", height)
		}
		wantID, _ := store.BlockIDAtHeight(height)
		gotID, _ := loaded.BlockIDAtHeight(height)
		if gotID != wantID {
			t.Fatalf("height %d: id = %s, want %s\ngot block: %s\nwant block: %s",
				height, gotID, wantID, spew.Sdump(gotBlock), spew.Sdump(wantBlock))
		}
	}
}

func TestLoadSnapshotRejectsBadMagic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.snapshot")
	if err := os.WriteFile(path, []byte("not a snapshot"), 0600); err != nil {
		t.Fatalf("os.WriteFile: %v", err)
	}
	if _, err := LoadSnapshot(path, &chaincfg.TestNetParams); err == nil {
		t.Fatalf("expected an error loading a non-snapshot file")
	}
}

func TestLongHashCachePutGetAndFlush(t *testing.T) {
	path := filepath.Join(t.TempDir(), "longhash.db")
	cache, err := OpenLongHashCache(path)
	if err != nil {
		t.Fatalf("OpenLongHashCache: %v", err)
	}
	defer cache.Close()

	id := chainhash.HashH([]byte("block one"))
	if err := cache.Put(id, big.NewInt(12345)); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := cache.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	got, ok := cache.Get(id)
	if !ok {
		t.Fatalf("expected a cached difficulty after flush")
	}
	if got.Cmp(big.NewInt(12345)) != 0 {
		t.Fatalf("Get = %s, want 12345", got)
	}

	if _, ok := cache.Get(chainhash.HashH([]byte("never put"))); ok {
		t.Fatalf("expected no entry for an unrecorded id")
	}
}

func TestLongHashCacheFlushesAfterInterval(t *testing.T) {
	path := filepath.Join(t.TempDir(), "longhash-interval.db")
	cache, err := OpenLongHashCache(path)
	if err != nil {
		t.Fatalf("OpenLongHashCache: %v", err)
	}
	defer cache.Close()

	var last chainhash.Hash
	for i := 0; i < flushInterval; i++ {
		last = chainhash.HashH([]byte{byte(i)})
		if err := cache.Put(last, big.NewInt(int64(i))); err != nil {
			t.Fatalf("Put %d: %v", i, err)
		}
	}

	// The flushInterval'th Put should have flushed the whole batch without
	// an explicit Flush call.
	if _, ok := cache.Get(last); !ok {
		t.Fatalf("expected the batch to auto-flush after %d puts", flushInterval)
	}
}
