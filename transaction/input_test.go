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

func TestInputCoinTypeByKind(t *testing.T) {
	tests := []struct {
		name string
		in   Input
		want cointype.CoinType
	}{
		{"coinbase", &CoinbaseInput{Height: 10}, cointype.XPB},
		{"mint", &MintInput{CurrencyID: 300}, cointype.New(300, cointype.NotContract, cointype.BackedByNA)},
		{"remint", &RemintInput{CurrencyID: 300}, cointype.New(300, cointype.NotContract, cointype.BackedByNA)},
		{"create-contract", &CreateContractInput{ContractID: 5}, cointype.NA},
		{"mint-contract", &MintContractInput{Contract: 5, BackingCurrency: 300}, cointype.NA},
		{"grade-contract", &GradeContractInput{Contract: 5}, cointype.NA},
		{"resolve-bc", &ResolveBCInput{Contract: 5, BackingCurrency: 300}, cointype.New(300, cointype.NotContract, cointype.BackedByNA)},
		{"fuse-bc", &FuseBCInput{Contract: 5, BackingCurrency: 300}, cointype.New(300, cointype.NotContract, cointype.BackedByNA)},
		{"register-delegate", &RegisterDelegateInput{DelegateID: 1}, cointype.XPB},
		{"vote", &VoteInput{}, cointype.XPB},
	}

	for _, test := range tests {
		if got := test.in.CoinType(); got != test.want {
			t.Errorf("%s: CoinType() = %s, want %s", test.name, got, test.want)
		}
	}
}

func TestSpendInputEncodeDecodeRoundTrip(t *testing.T) {
	in := &SpendInput{
		Coin:    KeyImage{1, 2, 3},
		Offsets: []uint64{5, 8, 8, 20},
		Amount:  amount.Amount(12345),
	}

	var buf bytes.Buffer
	if err := in.encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := &SpendInput{}
	if err := got.decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if got.Amount != in.Amount || got.Coin != in.Coin || len(got.Offsets) != len(in.Offsets) {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, in)
	}
	for i := range in.Offsets {
		if got.Offsets[i] != in.Offsets[i] {
			t.Fatalf("offset %d: got %d, want %d", i, got.Offsets[i], in.Offsets[i])
		}
	}
}

func TestMintInputEncodeDecodeRoundTrip(t *testing.T) {
	key := [32]byte{9, 9, 9}
	in := &MintInput{
		CurrencyID:  300,
		Description: "widgetcoin",
		Decimals:    4,
		Amount:      amount.Amount(1_000_000),
		RemintKey:   &key,
	}

	var buf bytes.Buffer
	if err := in.encode(&buf); err != nil {
		t.Fatalf("encode: %v", err)
	}

	got := &MintInput{}
	if err := got.decode(&buf); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CurrencyID != in.CurrencyID || got.Description != in.Description ||
		got.Decimals != in.Decimals || got.Amount != in.Amount {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, in)
	}
	if got.RemintKey == nil || *got.RemintKey != *in.RemintKey {
		t.Fatalf("remint key mismatch: got %v, want %v", got.RemintKey, in.RemintKey)
	}
}

func TestGradeContractInputSignedDataSortsFeeClaims(t *testing.T) {
	in := &GradeContractInput{
		Contract: 7,
		Grade:    500_000,
		FeeClaims: []FeeClaim{
			{Currency: 300, Amount: amount.Amount(10)},
			{Currency: 77, Amount: amount.Amount(20)},
		},
	}
	sorted := &GradeContractInput{
		Contract: 7,
		Grade:    500_000,
		FeeClaims: []FeeClaim{
			{Currency: 77, Amount: amount.Amount(20)},
			{Currency: 300, Amount: amount.Amount(10)},
		},
	}
	if !bytes.Equal(in.SignedData(), sorted.SignedData()) {
		t.Error("SignedData must be order-independent of FeeClaims input order")
	}
}

func TestDecodeInputRejectsUnknownTag(t *testing.T) {
	buf := bytes.NewReader([]byte{0x42})
	if _, err := DecodeInput(buf); err == nil {
		t.Error("expected error decoding unknown input tag")
	}
}
