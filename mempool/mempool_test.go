// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"errors"
	"testing"

	"github.com/xpbproject/xpbd/chainhash"
	"github.com/xpbproject/xpbd/compat"
	"github.com/xpbproject/xpbd/transaction"
)

func spendTx(keyImageByte byte) *transaction.Transaction {
	spend := &transaction.SpendInput{Coin: transaction.KeyImage{keyImageByte}, Offsets: []uint64{1}}
	return &transaction.Transaction{
		Inputs:     []transaction.Input{spend},
		Signatures: [][]transaction.RingSignature{{{1}}},
	}
}

func gradeTx(contractID uint64) *transaction.Transaction {
	grade := &transaction.GradeContractInput{Contract: contractID, Grade: 500_000}
	return &transaction.Transaction{
		Inputs:     []transaction.Input{grade},
		Signatures: [][]transaction.RingSignature{nil},
	}
}

func TestAddTransactionRejectsBelowFeeFloor(t *testing.T) {
	mp := New(Policy{MinRelayFee: 1000})
	_, err := mp.AddTransaction(spendTx(1), 100, 999, false)
	if err == nil {
		t.Fatal("expected rejection below the relay fee floor")
	}
}

func TestAddTransactionKeptByBlockBypassesFeeFloor(t *testing.T) {
	mp := New(Policy{MinRelayFee: 1000})
	if _, err := mp.AddTransaction(spendTx(1), 100, 0, true); err != nil {
		t.Fatalf("kept-by-block transaction rejected: %v", err)
	}
}

func TestAddTransactionRejectsKeyImageConflict(t *testing.T) {
	mp := New(Policy{})
	if _, err := mp.AddTransaction(spendTx(7), 100, 0, true); err != nil {
		t.Fatalf("first transaction rejected: %v", err)
	}
	if _, err := mp.AddTransaction(spendTx(7), 100, 0, true); err == nil {
		t.Error("expected rejection of a transaction double-spending a pooled key image")
	}
}

func TestRemoveTransactionFreesItsClaims(t *testing.T) {
	mp := New(Policy{})
	desc, err := mp.AddTransaction(spendTx(9), 100, 0, true)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	mp.RemoveTransaction(desc.Hash)
	if mp.HaveTransaction(desc.Hash) {
		t.Error("transaction still present after removal")
	}
	if _, err := mp.AddTransaction(spendTx(9), 100, 0, true); err != nil {
		t.Errorf("re-adding after removal should succeed, got: %v", err)
	}
}

type fakeChainView struct {
	tipHeight uint64
	blocks    map[uint64]chainhash.Hash
}

func (f *fakeChainView) TipHeight() uint64 { return f.tipHeight }
func (f *fakeChainView) BlockIDAtHeight(h uint64) (chainhash.Hash, bool) {
	id, ok := f.blocks[h]
	return id, ok
}

func TestFillBlockTemplatePrioritizesGradeContractPass(t *testing.T) {
	mp := New(Policy{})
	if _, err := mp.AddTransaction(spendTx(1), 10, 0, true); err != nil {
		t.Fatalf("add spend: %v", err)
	}
	if _, err := mp.AddTransaction(gradeTx(5), 10, 0, true); err != nil {
		t.Fatalf("add grade: %v", err)
	}

	chain := &fakeChainView{blocks: map[uint64]chainhash.Hash{}}
	selected := mp.FillBlockTemplate(chain, func(*TxDesc) error { return nil }, compat.NewChecker())

	if len(selected) != 2 {
		t.Fatalf("selected %d entries, want 2", len(selected))
	}
	if selected[0].Tx.Inputs[0].Kind() != transaction.KindGradeContract {
		t.Errorf("first selected entry kind = %v, want GradeContract (pass 1 runs first)", selected[0].Tx.Inputs[0].Kind())
	}
}

func TestFillBlockTemplateExcludesEntryConflictingWithBase(t *testing.T) {
	mp := New(Policy{})
	if _, err := mp.AddTransaction(spendTx(3), 10, 0, true); err != nil {
		t.Fatalf("add: %v", err)
	}

	base := compat.NewChecker()
	if err := base.AddTx(spendTx(3)); err != nil {
		t.Fatalf("seed base checker: %v", err)
	}

	chain := &fakeChainView{blocks: map[uint64]chainhash.Hash{}}
	selected := mp.FillBlockTemplate(chain, func(*TxDesc) error { return nil }, base)

	if len(selected) != 0 {
		t.Errorf("selected %d entries, want 0 (conflicts with base state)", len(selected))
	}
}

func TestFillBlockTemplateSkipsEntriesThatFailRevalidation(t *testing.T) {
	mp := New(Policy{})
	stale := chainhash.Hash{0xaa}
	desc, err := mp.AddTransaction(spendTx(4), 10, 0, true)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	desc.MaxUsedHeight = 10
	desc.MaxUsedID = &stale

	chain := &fakeChainView{tipHeight: 10, blocks: map[uint64]chainhash.Hash{10: {0xbb}}}
	selected := mp.FillBlockTemplate(chain, func(*TxDesc) error {
		return errors.New("not ready")
	}, compat.NewChecker())

	if len(selected) != 0 {
		t.Errorf("selected %d entries, want 0 (stale reference fails revalidation)", len(selected))
	}
	if desc.LastFailedID == nil {
		t.Error("expected LastFailedID to be recorded after a failed revalidation")
	}
}
