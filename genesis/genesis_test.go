// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package genesis

import (
	"testing"

	"github.com/xpbproject/xpbd/chaincfg"
)

func TestBlockIsDeterministic(t *testing.T) {
	a, err := Block(&chaincfg.TestNetParams)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	b, err := Block(&chaincfg.TestNetParams)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}

	idA, err := a.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	idB, err := b.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if idA != idB {
		t.Fatalf("genesis block is not deterministic: %s != %s", idA, idB)
	}
}

func TestBlockDiffersAcrossNetworks(t *testing.T) {
	main, err := Block(&chaincfg.MainNetParams)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}
	test, err := Block(&chaincfg.TestNetParams)
	if err != nil {
		t.Fatalf("Block: %v", err)
	}

	idMain, err := main.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	idTest, err := test.ID()
	if err != nil {
		t.Fatalf("ID: %v", err)
	}
	if idMain == idTest {
		t.Fatalf("mainnet and testnet genesis blocks should not collide")
	}
}
