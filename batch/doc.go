// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package batch accumulates textured quads into vertex and index arrays
// keyed by texture and submits each array with one indexed draw.
//
// A [Pool] is used in Begin / Draw / End brackets:
//
//	pool.Begin(gpu.StateAlpha(), gpu.Effect{Mode: gpu.EffectDirect})
//	pool.Draw(tex, dst, src, color.NRGBA{255, 255, 255, 255}, batch.FlatDepth(0.5))
//	if err := pool.End(); err != nil {
//	    return err
//	}
//
// Quads drawn with the same texture share a batch until the batch reaches
// the vertex ceiling. Batches are submitted in creation order and are never
// reordered, so callers that need strict paint order sort before drawing.
// Batches are recycled between brackets; the pool allocates only while
// the working set grows.
package batch
