// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"cmp"
	"slices"
)

// drawItem is one object queued for a pass.
type drawItem struct {
	obj    *Object
	r      ObjectRenderer
	params DrawParams
}

// compareItems orders by screen Y, then screen X, then category tiebreak.
// IDs settle any remaining tie so the order never depends on discovery.
func compareItems(a, b drawItem) int {
	if c := cmp.Compare(a.params.SortY, b.params.SortY); c != 0 {
		return c
	}
	if c := cmp.Compare(a.params.SortX, b.params.SortX); c != 0 {
		return c
	}
	if c := cmp.Compare(a.obj.Category.tiebreak(), b.obj.Category.tiebreak()); c != 0 {
		return c
	}
	return cmp.Compare(a.obj.ID, b.obj.ID)
}

// sortItems sorts items in place for drawing.
func sortItems(items []drawItem) {
	slices.SortStableFunc(items, compareItems)
}
