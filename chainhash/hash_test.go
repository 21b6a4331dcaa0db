// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainhash

import "testing"

func TestHashHDeterministic(t *testing.T) {
	a := HashH([]byte("hello"))
	b := HashH([]byte("hello"))
	if a != b {
		t.Fatal("HashH is not deterministic")
	}

	c := HashH([]byte("world"))
	if a == c {
		t.Fatal("distinct inputs hashed to the same digest")
	}
}

func TestIsEqual(t *testing.T) {
	a := HashH([]byte("a"))
	b := a
	if !a.IsEqual(&b) {
		t.Error("expected equal hashes to compare equal")
	}

	var nilHash *Hash
	var otherNil *Hash
	if !nilHash.IsEqual(otherNil) {
		t.Error("expected two nil hashes to compare equal")
	}
	if nilHash.IsEqual(&a) {
		t.Error("expected nil hash to differ from a non-nil hash")
	}
}

func TestSetBytes(t *testing.T) {
	var h Hash
	if err := h.SetBytes(make([]byte, HashSize)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := h.SetBytes(make([]byte, HashSize-1)); err == nil {
		t.Fatal("expected error for short byte slice")
	}
}
