// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"testing"

	"github.com/xpbproject/xpbd/chainhash"
)

func TestIsReadyToGoFreshEntryNeverChecked(t *testing.T) {
	desc := &TxDesc{}
	chain := &fakeChainView{}
	if !IsReadyToGo(desc, chain, func(*TxDesc) error { return errors.New("should not be called") }) {
		t.Error("a never-checked, never-failed entry should be ready")
	}
}

func TestIsReadyToGoFreshEntryWithCachedFailure(t *testing.T) {
	failedID := chainhash.Hash{0x01}
	desc := &TxDesc{LastFailedID: &failedID}
	chain := &fakeChainView{}
	if IsReadyToGo(desc, chain, func(*TxDesc) error { return nil }) {
		t.Error("an entry with a cached failure and no chain reference should not be ready")
	}
}

func TestIsReadyToGoStillValidReferenceSkipsRevalidation(t *testing.T) {
	id := chainhash.Hash{0x02}
	desc := &TxDesc{MaxUsedHeight: 5, MaxUsedID: &id}
	chain := &fakeChainView{blocks: map[uint64]chainhash.Hash{5: id}}

	called := false
	ready := IsReadyToGo(desc, chain, func(*TxDesc) error {
		called = true
		return nil
	})
	if !ready {
		t.Error("entry with an unchanged reference should be ready")
	}
	if called {
		t.Error("revalidate should not be called when the reference still holds")
	}
}

func TestIsReadyToGoReorgTriggersRevalidation(t *testing.T) {
	stale := chainhash.Hash{0x03}
	desc := &TxDesc{MaxUsedHeight: 5, MaxUsedID: &stale}
	chain := &fakeChainView{tipHeight: 5, blocks: map[uint64]chainhash.Hash{5: {0x04}}}

	called := false
	ready := IsReadyToGo(desc, chain, func(*TxDesc) error {
		called = true
		return nil
	})
	if !ready {
		t.Error("entry that revalidates successfully after a reorg should be ready")
	}
	if !called {
		t.Error("revalidate should be called when the block at MaxUsedHeight changed")
	}
}
