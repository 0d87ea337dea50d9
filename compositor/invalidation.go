// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

// Invalidation tracks what must be redrawn. Epoch increases on every full
// viewport redraw; a cell drawn in the current epoch is never drawn again
// until the next one.
type Invalidation struct {
	ViewportDirty bool
	FullMapDirty  bool
	Epoch         uint64
}

// FrameStats describes the last Frame call.
type FrameStats struct {
	Epoch        uint64
	CellsDrawn   int
	ObjectsDrawn int
	DrawCalls    int
	// Cached is set when the world passes were skipped.
	Cached   bool
	Lighting bool
}
