// Copyright (c) 2013-2017 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package chaincfg defines the protocol-wide constants and per-network
// parameter sets (genesis, checkpoints, PoW limits, DPoS schedule) that
// every other package is parameterized by.
package chaincfg

import (
	"math/big"
	"time"

	"github.com/xpbproject/xpbd/chainhash"
)

// Protocol-wide constants. These are not per-network: every network shares
// the same wire format and grading denominator.
const (
	// GradeMax is the grading denominator (see package grading).
	GradeMax = 1_000_000

	// CurrencyDescriptionMaxSize bounds a Mint input's description.
	CurrencyDescriptionMaxSize = 80
	// ContractDescriptionMaxSize bounds a CreateContract input's
	// description.
	ContractDescriptionMaxSize = 200

	// DifficultyBlocksCount is the sliding window size used by the PoW
	// difficulty retarget.
	DifficultyBlocksCount = 720
	// TimestampCheckWindow is the number of preceding blocks whose
	// timestamps are consulted for the median-time-past rule.
	TimestampCheckWindow = 11

	// CoinbaseBlobReservedSize is the number of extra bytes reserved in
	// the coinbase transaction for miner-chosen data (extra nonce, etc).
	CoinbaseBlobReservedSize = 600
	// RewardBlocksWindow is the window size used to average past block
	// size for the dynamic block-reward calculation.
	RewardBlocksWindow = 100

	// MinedMoneyUnlockWindow is the number of confirmations a coinbase
	// output must accrue before it is spendable.
	MinedMoneyUnlockWindow = 60
	// MaxBlockNumber bounds the height field carried by a Coinbase
	// input; heights beyond this are structurally rejected.
	MaxBlockNumber = 500_000_000

	// DPoSSlotDuration is the number of seconds assigned to each
	// delegate's signing slot.
	DPoSSlotDuration = 10
	// DPoSMinBlockSpacing is the minimum number of seconds between two
	// consecutive DPoS block timestamps.
	DPoSMinBlockSpacing = 10
	// DPoSNumDelegates is the size of the rolling top-N signer set.
	DPoSNumDelegates = 21
	// DPoSRegistrationFeeMultiple scales the rolling-average fee to
	// derive the minimum delegate registration fee.
	DPoSRegistrationFeeMultiple = 100
	// DPoSMinRegistrationFee is an absolute floor under the scaled fee.
	DPoSMinRegistrationFee = 1_000_000

	// VoteCap bounds a single delegate's accepted vote total. The
	// original source sets this to effectively unlimited rather than
	// enforcing a dead coin-age-based cap; we carry that choice forward
	// explicitly rather than inventing a new rule (see DESIGN.md
	// open-question log).
	VoteCap = ^uint64(0)

	// MaxVoteDelegates is the maximum number of delegates a single Vote
	// input may name.
	MaxVoteDelegates = DPoSNumDelegates

	// PoWMajorVersion is the highest block header major version sealed by
	// proof of work; a header's Nonce field is only present at or below
	// this major version.
	PoWMajorVersion = 1
	// DPoSMajorVersion is the lowest block header major version sealed by
	// delegate signature; a header's signing-delegate/signature tail is
	// only present at or above this major version.
	DPoSMajorVersion = 2

	// BlockTag is the archive-level tag that precedes a serialized block.
	BlockTag = 0xbb

	// MoneySupply is the total atomic-unit supply the PoW-era emission
	// curve asymptotically approaches; it is never reached exactly since
	// each block mints a fraction of what remains.
	MoneySupply = ^uint64(0)
	// EmissionSpeedFactor is the right-shift applied to the unissued
	// remainder of MoneySupply to derive a block's base subsidy: roughly
	// the standard CryptoNote emission curve's halving-every-so-often
	// shape without an explicit halving height.
	EmissionSpeedFactor = 20
)

// Params defines one network: its genesis, PoW limits, and the heights at
// which the DPoS era begins.
type Params struct {
	Name string

	// GenesisNonceString is hashed to derive the 32-bit genesis nonce.
	GenesisNonceString string
	GenesisTimestamp   uint64
	// GenesisCoinbaseTxHex is the hex-encoded miner transaction recorded
	// for the network's genesis block. genesis.Block does not read it; it
	// builds its own coinbase-only miner transaction instead.
	GenesisCoinbaseTxHex string
	// ExpectedGenesisID is the block id the generated genesis block must
	// hash to; mismatches are a fatal startup error.
	ExpectedGenesisID chainhash.Hash

	PowLimit     *big.Int
	PowLimitBits uint32

	TargetTimePerBlock time.Duration

	// DPoSSwitchBlock is the height at which PoW ceases and DPoS block
	// sealing begins.
	DPoSSwitchBlock uint64
	// DPoSRegistrationStartBlock is the first height at which
	// RegisterDelegate and Vote inputs are accepted.
	DPoSRegistrationStartBlock uint64

	// DPoSFixedDifficulty is the constant difficulty assigned to every
	// DPoS-era block (DPoS blocks are signed, not mined).
	DPoSFixedDifficulty *big.Int

	Checkpoints []Checkpoint
}

// Checkpoint pins a known-good block at a given height, used by fork
// choice to prefer a chain that contains it over one with more work.
type Checkpoint struct {
	Height uint64
	Hash   chainhash.Hash
}

var bigOne = big.NewInt(1)

// mainPowLimit is 2^235 - 1, the highest difficulty-1 target.
var mainPowLimit = new(big.Int).Sub(new(big.Int).Lsh(bigOne, 235), bigOne)

// MainNetParams are the production network's parameters.
var MainNetParams = Params{
	Name: "mainnet",

	GenesisNonceString:   "xpb-genesis",
	GenesisTimestamp:     1_400_000_000,
	GenesisCoinbaseTxHex: "",

	PowLimit:           mainPowLimit,
	PowLimitBits:       0x1e0fffff,
	TargetTimePerBlock: 60 * time.Second,

	DPoSSwitchBlock:            200_000,
	DPoSRegistrationStartBlock: 150_000,
	DPoSFixedDifficulty:        big.NewInt(1_000_000),
}

// TestNetParams are the test network's parameters: lower PoW difficulty
// and an earlier DPoS switchover so test chains don't need to mine or
// grow two hundred thousand blocks to exercise the DPoS path.
var TestNetParams = Params{
	Name: "testnet",

	GenesisNonceString:   "xpb-testnet-genesis",
	GenesisTimestamp:     1_400_000_000,
	GenesisCoinbaseTxHex: "",

	PowLimit:           new(big.Int).Sub(new(big.Int).Lsh(bigOne, 255), bigOne),
	PowLimitBits:       0x207fffff,
	TargetTimePerBlock: 10 * time.Second,

	DPoSSwitchBlock:            100,
	DPoSRegistrationStartBlock: 50,
	DPoSFixedDifficulty:        big.NewInt(1),
}

// CheckpointByHeight returns the checkpoint at height, if one is defined.
func (p *Params) CheckpointByHeight(height uint64) (Checkpoint, bool) {
	for _, cp := range p.Checkpoints {
		if cp.Height == height {
			return cp, true
		}
	}
	return Checkpoint{}, false
}

// IsDPoSHeight reports whether height is sealed by delegate signature
// rather than proof of work.
func (p *Params) IsDPoSHeight(height uint64) bool {
	return height >= p.DPoSSwitchBlock
}
