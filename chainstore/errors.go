// Copyright (c) 2014 The Pebblecoin developers
// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chainstore

import "fmt"

// ErrorCode identifies the specific rule a RuleError reports violation of.
type ErrorCode int

const (
	ErrUnknownParent ErrorCode = iota
	ErrDuplicateBlock
	ErrPreviouslyInvalid
	ErrMissingTransaction
	ErrDuplicateClaim
	ErrUnknownCurrency
	ErrUnknownContract
	ErrUnknownDelegate
	ErrContractAlreadyGraded
	ErrContractNotInitialState
	ErrRemintKeyMissing
	ErrAmountOverflow
	ErrAmountUnderflow
	ErrTopDelegateInvariant
)

func (c ErrorCode) String() string {
	switch c {
	case ErrUnknownParent:
		return "unknown-parent"
	case ErrDuplicateBlock:
		return "duplicate-block"
	case ErrPreviouslyInvalid:
		return "previously-invalid"
	case ErrMissingTransaction:
		return "missing-transaction"
	case ErrDuplicateClaim:
		return "duplicate-claim"
	case ErrUnknownCurrency:
		return "unknown-currency"
	case ErrUnknownContract:
		return "unknown-contract"
	case ErrUnknownDelegate:
		return "unknown-delegate"
	case ErrContractAlreadyGraded:
		return "contract-already-graded"
	case ErrContractNotInitialState:
		return "contract-not-initial-state"
	case ErrRemintKeyMissing:
		return "remint-key-missing"
	case ErrAmountOverflow:
		return "amount-overflow"
	case ErrAmountUnderflow:
		return "amount-underflow"
	case ErrTopDelegateInvariant:
		return "top-delegate-invariant"
	default:
		return "unknown-error-code"
	}
}

// RuleError reports a block or transaction that was correctly rejected:
// the error code classifies which consensus rule the rejected data broke.
type RuleError struct {
	ErrorCode   ErrorCode
	Description string
}

func (e RuleError) Error() string {
	return fmt.Sprintf("%s: %s", e.ErrorCode, e.Description)
}

// ConsensusFault reports an internal inconsistency that must never happen
// in correctly-functioning code — e.g. an apply/undo pair left the ledger
// in a state its own invariants forbid. Unlike RuleError this is not a
// judgment about untrusted input; seeing one means a bug.
type ConsensusFault struct {
	Description string
}

func (e ConsensusFault) Error() string {
	return "consensus fault: " + e.Description
}
