// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package transaction

import (
	"bytes"
	"testing"

	"github.com/xpbproject/xpbd/amount"
	"github.com/xpbproject/xpbd/cointype"
)

func vanillaSpendTx() *Transaction {
	spend := &SpendInput{Coin: KeyImage{1}, Offsets: []uint64{3}, Amount: amount.Amount(500), coinType: cointype.XPB}
	return &Transaction{
		Version: cointype.VanillaTxVersion,
		Inputs:  []Input{spend},
		Outputs: []Output{{Amount: amount.Amount(500), CoinType: cointype.XPB, Key: OneTimeKey{1}}},
		Signatures: [][]RingSignature{
			{{1}},
		},
	}
}

func TestTransactionEncodeDecodeRoundTripVanilla(t *testing.T) {
	tx := vanillaSpendTx()

	var buf bytes.Buffer
	if err := tx.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Version != tx.Version || len(got.Inputs) != 1 || len(got.Outputs) != 1 {
		t.Fatalf("round trip shape mismatch: %+v", got)
	}
	if got.Inputs[0].CoinType() != cointype.XPB {
		t.Errorf("decoded spend coin type = %s, want XPB", got.Inputs[0].CoinType())
	}
	if got.Outputs[0].CoinType != cointype.XPB {
		t.Errorf("decoded output coin type = %s, want XPB", got.Outputs[0].CoinType)
	}
}

func TestTransactionEncodeDecodeRoundTripCurrencyVersion(t *testing.T) {
	mint := &MintInput{CurrencyID: 300, Description: "widget", Amount: amount.Amount(1000)}
	tx := &Transaction{
		Version: cointype.CurrencyTxVersion,
		Inputs:  []Input{mint},
		Outputs: []Output{{Amount: amount.Amount(1000), CoinType: cointype.New(300, cointype.NotContract, cointype.BackedByNA), Key: OneTimeKey{2}}},
		Signatures: [][]RingSignature{
			nil,
		},
	}

	var buf bytes.Buffer
	if err := tx.Encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got, err := Decode(&buf)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	wantCT := cointype.New(300, cointype.NotContract, cointype.BackedByNA)
	if got.Inputs[0].CoinType() != wantCT {
		t.Errorf("decoded mint coin type = %s, want %s", got.Inputs[0].CoinType(), wantCT)
	}
}

func TestMinVersionRequiresContractVersionForGrading(t *testing.T) {
	grade := &GradeContractInput{Contract: 5, Grade: 500_000}
	tx := &Transaction{Inputs: []Input{grade}}
	if got := tx.MinVersion(); got != cointype.ContractTxVersion {
		t.Errorf("MinVersion() = %d, want %d", got, cointype.ContractTxVersion)
	}
}

func TestMinVersionRequiresDPoSVersionForVote(t *testing.T) {
	vote := &VoteInput{}
	tx := &Transaction{Inputs: []Input{vote}}
	if got := tx.MinVersion(); got != cointype.DPoSTxVersion {
		t.Errorf("MinVersion() = %d, want %d", got, cointype.DPoSTxVersion)
	}
}

func TestValidateRejectsVersionBelowMinimum(t *testing.T) {
	grade := &GradeContractInput{Contract: 5}
	tx := &Transaction{Version: cointype.VanillaTxVersion, Inputs: []Input{grade}}
	if err := tx.Validate(); err == nil {
		t.Error("expected error for grade-contract input under vanilla version")
	}
}

func TestValidateAcceptsConsistentCoinTypes(t *testing.T) {
	tx := &Transaction{
		Version: cointype.ContractTxVersion,
		Inputs: []Input{
			&CreateContractInput{ContractID: 1},
			&RegisterDelegateInput{DelegateID: 1},
		},
	}
	if err := tx.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestCoinTypeConsistencyAcceptsWellFormedResolveBC(t *testing.T) {
	resolve := &ResolveBCInput{Contract: 5, BackingCurrency: 300}
	if err := checkInputCoinTypeConsistency(resolve); err != nil {
		t.Errorf("unexpected error for well-formed resolve-bc input: %v", err)
	}
}
