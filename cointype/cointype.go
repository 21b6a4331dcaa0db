// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cointype defines the (currency, contract role, backing currency)
// triple that every input and output carries. It is the ledger's sharding
// key: balances, supplies, and the UTXO-by-amount index are all indexed by
// CoinType rather than by currency id alone.
package cointype

import "fmt"

// ContractRole distinguishes a plain currency-denominated coin from the two
// mirrored streams a graded contract produces.
type ContractRole uint8

const (
	// NotContract marks a regular, non-contract coin.
	NotContract ContractRole = 0
	// BackingCoin marks a coin that locked backing currency into a
	// contract and resolves against (GRADE_MAX - grade).
	BackingCoin ContractRole = 1
	// ContractCoin marks a coin minted alongside a BackingCoin that
	// resolves against the contract's grade.
	ContractCoin ContractRole = 2
	// RoleNA is used on inputs/outputs for which a contract role is not
	// meaningful at all, e.g. CreateContract.
	RoleNA ContractRole = 255
)

func (r ContractRole) String() string {
	switch r {
	case NotContract:
		return "not-contract"
	case BackingCoin:
		return "backing-coin"
	case ContractCoin:
		return "contract-coin"
	case RoleNA:
		return "n/a"
	default:
		return fmt.Sprintf("unknown-role(%d)", uint8(r))
	}
}

const (
	// CurrencyNone is the sentinel "no currency" id.
	CurrencyNone uint64 = 0
	// CurrencyXPB is the base coin's currency id.
	CurrencyXPB uint64 = 77
	// CurrencyUserMin is the lowest id a user-minted sub-currency may
	// register. Ids below this (besides CurrencyXPB) are reserved.
	CurrencyUserMin uint64 = 256
	// BackedByNA is the sentinel used for BackingCurrency when the
	// contract role is NotContract or RoleNA.
	BackedByNA uint64 = 0
)

// Transaction format versions. A transaction's recorded version must be at
// least the maximum MinTxVersion() over every input and output coin type it
// carries.
const (
	VanillaTxVersion  = 1
	DPoSTxVersion     = 2
	CurrencyTxVersion = 3
	ContractTxVersion = 4
)

// CoinType is the (currency, role, backing currency) triple used as the
// ledger's map key for balances and supplies. It is comparable and may be
// used directly as a Go map key.
type CoinType struct {
	Currency        uint64
	Role            ContractRole
	BackingCurrency uint64
}

// XPB is the coin type of the base currency.
var XPB = CoinType{Currency: CurrencyXPB, Role: NotContract, BackingCurrency: BackedByNA}

// NA is the coin type carried by inputs/outputs for which no coin type is
// meaningful (e.g. CreateContract).
var NA = CoinType{Currency: CurrencyNone, Role: RoleNA, BackingCurrency: BackedByNA}

// New builds a CoinType from the three given components; nothing is
// defaulted.
func New(currency uint64, role ContractRole, backing uint64) CoinType {
	return CoinType{Currency: currency, Role: role, BackingCurrency: backing}
}

// Equal reports whether two coin types are identical.
func (c CoinType) Equal(other CoinType) bool {
	return c == other
}

// Less gives the lexicographic order on (Currency, Role, BackingCurrency)
// used for deterministic iteration and for sorted output within a coin
// type's UTXO list.
func (c CoinType) Less(other CoinType) bool {
	if c.Currency != other.Currency {
		return c.Currency < other.Currency
	}
	if c.Role != other.Role {
		return c.Role < other.Role
	}
	return c.BackingCurrency < other.BackingCurrency
}

// MinTxVersion returns the minimum transaction format version that may
// carry a coin of this type: plain XPB needs only the vanilla version;
// any other currency needs the currency version; any contract role needs
// the contract version, which supersedes the currency version.
func (c CoinType) MinTxVersion() int {
	if c.Role != NotContract {
		return ContractTxVersion
	}
	if c.Currency != CurrencyXPB {
		return CurrencyTxVersion
	}
	return VanillaTxVersion
}

// IsUserCurrency reports whether id is in the user-mintable range.
func IsUserCurrency(id uint64) bool {
	return id >= CurrencyUserMin
}

func (c CoinType) String() string {
	return fmt.Sprintf("<%d/%s/%d>", c.Currency, c.Role, c.BackingCurrency)
}
