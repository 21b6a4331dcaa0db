// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

// RevalidateFunc fully re-validates an entry's inputs against current
// chain state, returning nil if it is still spendable.
type RevalidateFunc func(desc *TxDesc) error

// IsReadyToGo re-checks a pooled entry before it is considered for a new
// block template. An entry that has never been checked against chain state
// (MaxUsedID nil) only needs its cached failure (if any) consulted; one
// that has been checked is only re-validated if the block at MaxUsedHeight
// no longer matches MaxUsedID, meaning a reorg invalidated the reference
// it was last checked against.
func IsReadyToGo(desc *TxDesc, chain ChainView, revalidate RevalidateFunc) bool {
	if desc.MaxUsedID == nil {
		return desc.LastFailedID == nil
	}

	currentID, ok := chain.BlockIDAtHeight(desc.MaxUsedHeight)
	if ok && currentID == *desc.MaxUsedID {
		// Reference still holds: the cached failure (if none) stands.
		return desc.LastFailedID == nil
	}

	// The block at MaxUsedHeight changed out from under this entry, so
	// its inputs must be fully re-validated before it can be reused.
	if err := revalidate(desc); err != nil {
		tip, _ := chain.BlockIDAtHeight(chain.TipHeight())
		desc.LastFailedHeight = chain.TipHeight()
		desc.LastFailedID = &tip
		return false
	}
	desc.LastFailedID = nil
	return true
}
