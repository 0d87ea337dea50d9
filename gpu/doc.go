// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package gpu defines the device abstraction the isomap renderer draws
// through.
//
// A [Device] offers exactly what the compositor needs: texture
// create/upload/copy/dispose, offscreen render targets with an optional
// depth/stencil attachment, settable blend and depth-stencil state
// ([RenderState], expressed with gputypes), shader parameters ([Effect]) and
// indexed triangle-list submission.
//
// Two implementations ship with the module:
//   - gpu/soft: a CPU reference rasterizer with real per-pixel depth,
//     stencil and blending. It is used by tests and headless export.
//   - gpu/halgpu: a wgpu HAL backend with WGSL pipelines.
//
// Depth convention: depth is cleared to 0 and passes compare with
// GreaterEqual, so larger depth values are nearer the viewer and a later
// fragment wins ties.
package gpu
