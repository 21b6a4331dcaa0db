// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package validation checks a transaction's inputs against ledger state
// and each other, and checks a block's header and miner transaction
// against the chain it extends, before chainstore is ever asked to apply
// either. It never mutates state; every check here is read-only against
// the chainstore.Store it was built with.
package validation

import (
	"github.com/xpbproject/xpbd/chaincfg"
	"github.com/xpbproject/xpbd/chainstore"
	"github.com/xpbproject/xpbd/logger"
)

var log, _ = logger.Get(logger.SubsystemTags.VALD)

// Verifier checks the elliptic-curve signatures this package itself does
// not implement: ring signatures over a Spend's (or a Vote's embedded
// Spend's) candidate outputs, and the single detached signatures carried
// by Remint and GradeContract inputs. A node wires a real implementation
// backed by its key-image/ring-signature library; tests wire a stub that
// always (or selectively) approves.
type Verifier interface {
	// VerifyRing reports whether sigs authenticate msg against the one-
	// time keys in ring, producing keyImage.
	VerifyRing(msg []byte, ring [][32]byte, sigs [][64]byte, keyImage [32]byte) bool
	// VerifySingle reports whether sig authenticates msg under key.
	VerifySingle(msg []byte, key [32]byte, sig [64]byte) bool
}

// Validator checks transactions and block headers against a chainstore.Store
// and the network parameters it was built with.
type Validator struct {
	store    *chainstore.Store
	params   *chaincfg.Params
	verifier Verifier
}

// New returns a Validator backed by store, params, and verifier.
func New(store *chainstore.Store, params *chaincfg.Params, verifier Verifier) *Validator {
	return &Validator{store: store, params: params, verifier: verifier}
}
