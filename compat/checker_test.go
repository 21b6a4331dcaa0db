// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package compat

import (
	"testing"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/transaction"
)

func TestCheckerRejectsDoubleSpendKeyImage(t *testing.T) {
	c := NewChecker()
	spend := &transaction.SpendInput{Coin: transaction.KeyImage{1, 2, 3}, Amount: amount.Amount(10)}

	if err := c.CanAddInput(spend); err != nil {
		t.Fatalf("first spend should be addable: %v", err)
	}
	if err := c.AddInput(spend); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if err := c.CanAddInput(spend); err == nil {
		t.Error("expected double-spend of same key image to be rejected")
	}
}

func TestCheckerRejectsDuplicateCurrencyMint(t *testing.T) {
	c := NewChecker()
	mint := &transaction.MintInput{CurrencyID: 300, Description: "widget"}

	if err := c.AddTx(&transaction.Transaction{Inputs: []transaction.Input{mint}}); err != nil {
		t.Fatalf("first mint should succeed: %v", err)
	}
	if err := c.CanAddInput(mint); err == nil {
		t.Error("expected duplicate currency mint to be rejected")
	}
}

func TestCheckerContractIDSharesNamespaceWithCurrencyMint(t *testing.T) {
	c := NewChecker()
	mint := &transaction.MintInput{CurrencyID: 42}
	create := &transaction.CreateContractInput{ContractID: 42}

	if err := c.AddInput(mint); err != nil {
		t.Fatalf("AddInput mint: %v", err)
	}
	if err := c.CanAddInput(create); err == nil {
		t.Error("expected contract id colliding with a minted currency id to be rejected")
	}
}

func TestCheckerAllowsRepeatedMintContractUntilGraded(t *testing.T) {
	c := NewChecker()
	mint := &transaction.MintContractInput{Contract: 7}

	if err := c.AddInput(mint); err != nil {
		t.Fatalf("AddInput: %v", err)
	}
	if err := c.CanAddInput(mint); err != nil {
		t.Errorf("expected a second mint-contract to be allowed before grading: %v", err)
	}

	grade := &transaction.GradeContractInput{Contract: 7}
	if err := c.CanAddInput(grade); err == nil {
		t.Error("expected grading to be rejected while mints are outstanding")
	}
}

func TestCheckerRejectsMintAfterGrading(t *testing.T) {
	c := NewChecker()
	grade := &transaction.GradeContractInput{Contract: 7}
	if err := c.AddInput(grade); err != nil {
		t.Fatalf("AddInput grade: %v", err)
	}

	mint := &transaction.MintContractInput{Contract: 7}
	if err := c.CanAddInput(mint); err == nil {
		t.Error("expected mint-contract on a graded contract to be rejected")
	}
	fuse := &transaction.FuseBCInput{Contract: 7}
	if err := c.CanAddInput(fuse); err == nil {
		t.Error("expected fuse on a graded contract to be rejected")
	}
}

func TestCanAddTxLeavesCheckerUnmodifiedOnFailure(t *testing.T) {
	c := NewChecker()
	mint := &transaction.MintInput{CurrencyID: 9}
	if err := c.AddInput(mint); err != nil {
		t.Fatalf("AddInput: %v", err)
	}

	dup := &transaction.MintInput{CurrencyID: 9}
	tx := &transaction.Transaction{Inputs: []transaction.Input{dup}}
	if err := c.CanAddTx(tx); err == nil {
		t.Fatal("expected CanAddTx to reject duplicate mint")
	}

	// Checker itself must be untouched: a fresh duplicate check still fails.
	if err := c.CanAddInput(mint); err == nil {
		t.Error("CanAddTx must not have mutated the receiver's state")
	}
}

func TestAddThenRemoveTxRoundTrips(t *testing.T) {
	c := NewChecker()
	spend := &transaction.SpendInput{Coin: transaction.KeyImage{5}, Amount: amount.Amount(1)}
	tx := &transaction.Transaction{Inputs: []transaction.Input{spend}}

	if err := c.AddTx(tx); err != nil {
		t.Fatalf("AddTx: %v", err)
	}
	if err := c.RemoveTx(tx); err != nil {
		t.Fatalf("RemoveTx: %v", err)
	}
	if err := c.CanAddInput(spend); err != nil {
		t.Errorf("expected key image to be free again after RemoveTx: %v", err)
	}
}

func TestIsTxValidRejectsSelfConflictingDelegateRegistration(t *testing.T) {
	addr := [64]byte{1}
	regA := &transaction.RegisterDelegateInput{DelegateID: 1, Address: addr}
	regB := &transaction.RegisterDelegateInput{DelegateID: 2, Address: addr}
	tx := &transaction.Transaction{Inputs: []transaction.Input{regA, regB}}

	if err := IsTxValid(tx); err == nil {
		t.Error("expected two delegate registrations sharing an address to be rejected")
	}
}
