// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package mempool

import (
	"github.com/xpbproject/xpbd/compat"
	"github.com/xpbproject/xpbd/transaction"
)

func hasGradeContractInput(tx *transaction.Transaction) bool {
	for _, in := range tx.Inputs {
		if in.Kind() == transaction.KindGradeContract {
			return true
		}
	}
	return false
}

// FillBlockTemplate selects pooled entries for a new block in two passes:
// pass 1 takes only entries carrying a GradeContract input, so contract
// resolution can't be crowded out by mint/fuse spam; pass 2 takes
// everything else. Within each pass, entries are offered in pool order and
// a fresh compat.Checker (seeded from base) is consulted incrementally so
// two entries that conflict with each other never both land in the same
// template, even if neither conflicts with chain state.
func (mp *TxPool) FillBlockTemplate(chain ChainView, revalidate RevalidateFunc, base *compat.Checker) []*TxDesc {
	mp.mtx.RLock()
	entries := make([]*TxDesc, len(mp.order))
	for i, h := range mp.order {
		entries[i] = mp.pool[h]
	}
	mp.mtx.RUnlock()

	scratch := base.Clone()
	var selected []*TxDesc

	runPass := func(accept func(*TxDesc) bool) {
		for _, desc := range entries {
			if !accept(desc) {
				continue
			}
			if !IsReadyToGo(desc, chain, revalidate) {
				continue
			}
			if err := scratch.CanAddTx(desc.Tx); err != nil {
				continue
			}
			if err := scratch.AddTx(desc.Tx); err != nil {
				continue
			}
			selected = append(selected, desc)
		}
	}

	runPass(func(d *TxDesc) bool { return hasGradeContractInput(d.Tx) })
	runPass(func(d *TxDesc) bool { return !hasGradeContractInput(d.Tx) })

	return selected
}
