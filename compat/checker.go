// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package compat implements the input-compatibility checker: the set of
// mutually-exclusive claims (key images, minted currency/contract ids,
// graded contracts, registered delegates) that a single transaction's
// inputs, and the inputs of every transaction sharing a mempool or
// block, must not collide on.
package compat

import (
	"github.com/pkg/errors"

	"github.com/xpbproject/xpbd/transaction"
)

// Checker accumulates the claims made by a sequence of inputs and rejects
// any input whose claim collides with one already present. The zero
// Checker has nil maps and is not ready to use; build one with NewChecker.
type Checker struct {
	keyImages          map[transaction.KeyImage]struct{}
	mintedIDs          map[uint64]struct{} // shared by Mint.CurrencyID and CreateContract.ContractID
	usedDescriptions   map[string]struct{}
	remintedCurrencies map[uint64]struct{}
	gradedContracts    map[uint64]struct{}
	mintedContracts    map[uint64]int // can be minted more than once
	fusedContracts     map[uint64]int // can be fused more than once
	registeredDelegate map[uint64]struct{}
	registeredAddress  map[[64]byte]struct{}
}

// NewChecker returns an empty Checker.
func NewChecker() *Checker {
	return &Checker{
		keyImages:          make(map[transaction.KeyImage]struct{}),
		mintedIDs:          make(map[uint64]struct{}),
		usedDescriptions:   make(map[string]struct{}),
		remintedCurrencies: make(map[uint64]struct{}),
		gradedContracts:    make(map[uint64]struct{}),
		mintedContracts:    make(map[uint64]int),
		fusedContracts:     make(map[uint64]int),
		registeredDelegate: make(map[uint64]struct{}),
		registeredAddress:  make(map[[64]byte]struct{}),
	}
}

// Clone returns a deep copy, used by CanAddTx's copy-and-try approach so a
// rejected transaction never leaves partial state behind.
func (c *Checker) Clone() *Checker {
	clone := NewChecker()
	for k := range c.keyImages {
		clone.keyImages[k] = struct{}{}
	}
	for k := range c.mintedIDs {
		clone.mintedIDs[k] = struct{}{}
	}
	for k := range c.usedDescriptions {
		clone.usedDescriptions[k] = struct{}{}
	}
	for k := range c.remintedCurrencies {
		clone.remintedCurrencies[k] = struct{}{}
	}
	for k := range c.gradedContracts {
		clone.gradedContracts[k] = struct{}{}
	}
	for k, v := range c.mintedContracts {
		clone.mintedContracts[k] = v
	}
	for k, v := range c.fusedContracts {
		clone.fusedContracts[k] = v
	}
	for k := range c.registeredDelegate {
		clone.registeredDelegate[k] = struct{}{}
	}
	for k := range c.registeredAddress {
		clone.registeredAddress[k] = struct{}{}
	}
	return clone
}

// CanAddInput reports whether in's claim is currently free.
func (c *Checker) CanAddInput(in transaction.Input) error {
	switch v := in.(type) {
	case *transaction.SpendInput:
		return c.canAddKeyImage(v.Coin)
	case *transaction.VoteInput:
		return c.canAddKeyImage(v.Spend.Coin)
	case *transaction.MintInput:
		if _, ok := c.mintedIDs[v.CurrencyID]; ok {
			return errors.Errorf("currency %d already minted", v.CurrencyID)
		}
		if v.Description != "" {
			if _, ok := c.usedDescriptions[v.Description]; ok {
				return errors.Errorf("description %q already in use", v.Description)
			}
		}
		return nil
	case *transaction.RemintInput:
		if _, ok := c.remintedCurrencies[v.CurrencyID]; ok {
			return errors.Errorf("currency %d already reminted", v.CurrencyID)
		}
		return nil
	case *transaction.CreateContractInput:
		if _, ok := c.mintedIDs[v.ContractID]; ok {
			return errors.Errorf("contract %d already minted", v.ContractID)
		}
		if v.Description != "" {
			if _, ok := c.usedDescriptions[v.Description]; ok {
				return errors.Errorf("description %q already in use", v.Description)
			}
		}
		return nil
	case *transaction.MintContractInput:
		// can mint twice; don't mint a graded contract
		if _, ok := c.gradedContracts[v.Contract]; ok {
			return errors.Errorf("contract %d already graded, can't mint", v.Contract)
		}
		return nil
	case *transaction.GradeContractInput:
		if _, ok := c.gradedContracts[v.Contract]; ok {
			return errors.Errorf("contract %d already graded", v.Contract)
		}
		if c.mintedContracts[v.Contract] > 0 {
			return errors.Errorf("contract %d has mints pending, can't grade", v.Contract)
		}
		if c.fusedContracts[v.Contract] > 0 {
			return errors.Errorf("contract %d has fuses pending, can't grade", v.Contract)
		}
		return nil
	case *transaction.ResolveBCInput:
		return nil
	case *transaction.FuseBCInput:
		// can fuse twice; don't fuse a graded contract
		if _, ok := c.gradedContracts[v.Contract]; ok {
			return errors.Errorf("contract %d already graded, can't fuse", v.Contract)
		}
		return nil
	case *transaction.RegisterDelegateInput:
		if _, ok := c.registeredDelegate[v.DelegateID]; ok {
			return errors.Errorf("delegate %d already registering", v.DelegateID)
		}
		if _, ok := c.registeredAddress[v.Address]; ok {
			return errors.Errorf("address already registering a delegate")
		}
		return nil
	default:
		// CoinbaseInput carries no exclusive claim.
		return nil
	}
}

func (c *Checker) canAddKeyImage(k transaction.KeyImage) error {
	if _, ok := c.keyImages[k]; ok {
		return errors.New("key image already spent")
	}
	return nil
}

// AddInput claims in's resources. Callers must call CanAddInput first;
// AddInput itself does not re-check collisions, matching the original's
// assume-already-validated add step.
func (c *Checker) AddInput(in transaction.Input) error {
	switch v := in.(type) {
	case *transaction.SpendInput:
		c.keyImages[v.Coin] = struct{}{}
	case *transaction.VoteInput:
		c.keyImages[v.Spend.Coin] = struct{}{}
	case *transaction.MintInput:
		c.mintedIDs[v.CurrencyID] = struct{}{}
		if v.Description != "" {
			c.usedDescriptions[v.Description] = struct{}{}
		}
	case *transaction.RemintInput:
		c.remintedCurrencies[v.CurrencyID] = struct{}{}
	case *transaction.CreateContractInput:
		c.mintedIDs[v.ContractID] = struct{}{}
		if v.Description != "" {
			c.usedDescriptions[v.Description] = struct{}{}
		}
	case *transaction.MintContractInput:
		c.mintedContracts[v.Contract]++
	case *transaction.GradeContractInput:
		c.gradedContracts[v.Contract] = struct{}{}
	case *transaction.ResolveBCInput:
		// no claim
	case *transaction.FuseBCInput:
		c.fusedContracts[v.Contract]++
	case *transaction.RegisterDelegateInput:
		c.registeredDelegate[v.DelegateID] = struct{}{}
		c.registeredAddress[v.Address] = struct{}{}
	}
	return nil
}

// RemoveInput releases in's claim, undoing a prior AddInput. It is an
// internal error (not a validation failure) if the claim being released
// was never held; that would mean the apply/undo pairing is unbalanced.
func (c *Checker) RemoveInput(in transaction.Input) error {
	switch v := in.(type) {
	case *transaction.SpendInput:
		return c.removeKeyImage(v.Coin)
	case *transaction.VoteInput:
		return c.removeKeyImage(v.Spend.Coin)
	case *transaction.MintInput:
		if _, ok := c.mintedIDs[v.CurrencyID]; !ok {
			return errors.Errorf("internal error: currency %d not in minted set", v.CurrencyID)
		}
		delete(c.mintedIDs, v.CurrencyID)
		if v.Description != "" {
			delete(c.usedDescriptions, v.Description)
		}
	case *transaction.RemintInput:
		if _, ok := c.remintedCurrencies[v.CurrencyID]; !ok {
			return errors.Errorf("internal error: currency %d not in reminted set", v.CurrencyID)
		}
		delete(c.remintedCurrencies, v.CurrencyID)
	case *transaction.CreateContractInput:
		if _, ok := c.mintedIDs[v.ContractID]; !ok {
			return errors.Errorf("internal error: contract %d not in minted set", v.ContractID)
		}
		delete(c.mintedIDs, v.ContractID)
		if v.Description != "" {
			delete(c.usedDescriptions, v.Description)
		}
	case *transaction.MintContractInput:
		if c.mintedContracts[v.Contract] <= 0 {
			return errors.Errorf("internal error: no minted contract %d to remove", v.Contract)
		}
		c.mintedContracts[v.Contract]--
	case *transaction.GradeContractInput:
		if _, ok := c.gradedContracts[v.Contract]; !ok {
			return errors.Errorf("internal error: contract %d not in graded set", v.Contract)
		}
		delete(c.gradedContracts, v.Contract)
	case *transaction.ResolveBCInput:
		// no claim
	case *transaction.FuseBCInput:
		if c.fusedContracts[v.Contract] <= 0 {
			return errors.Errorf("internal error: no fused contract %d to remove", v.Contract)
		}
		c.fusedContracts[v.Contract]--
	case *transaction.RegisterDelegateInput:
		if _, ok := c.registeredDelegate[v.DelegateID]; !ok {
			return errors.Errorf("internal error: delegate %d not registered", v.DelegateID)
		}
		delete(c.registeredDelegate, v.DelegateID)
		delete(c.registeredAddress, v.Address)
	}
	return nil
}

func (c *Checker) removeKeyImage(k transaction.KeyImage) error {
	if _, ok := c.keyImages[k]; !ok {
		return errors.New("internal error: key image not in set")
	}
	delete(c.keyImages, k)
	return nil
}

// CanAddTx reports whether every input of tx may be added without any
// pairwise collision, against a scratch copy of c so c itself is never
// mutated by a failed attempt.
func (c *Checker) CanAddTx(tx *transaction.Transaction) error {
	scratch := c.Clone()
	return scratch.AddTx(tx)
}

// AddTx adds every input of tx, in order, stopping and returning an error
// on the first collision. On error the checker may hold a partial claim
// set for tx; callers that need atomicity should use CanAddTx first.
func (c *Checker) AddTx(tx *transaction.Transaction) error {
	for i, in := range tx.Inputs {
		if err := c.CanAddInput(in); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
		if err := c.AddInput(in); err != nil {
			return errors.Wrapf(err, "input %d", i)
		}
	}
	return nil
}

// RemoveTx releases every input of tx. Unlike AddTx it does not stop at
// the first failure, matching the original's best-effort unwind: removal
// corresponds to undoing an already-applied block, where every input is
// expected to still hold its claim.
func (c *Checker) RemoveTx(tx *transaction.Transaction) error {
	var firstErr error
	for i, in := range tx.Inputs {
		if err := c.RemoveInput(in); err != nil && firstErr == nil {
			firstErr = errors.Wrapf(err, "input %d", i)
		}
	}
	return firstErr
}

// IsTxValid reports whether tx's inputs are mutually compatible in
// isolation, with no accumulated state from any other transaction.
func IsTxValid(tx *transaction.Transaction) error {
	return NewChecker().CanAddTx(tx)
}
