// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compositor draws an isometric world into full-map render targets
// and composites them into a presentable frame.
//
// A frame runs up to six steps. When the view is invalidated the terrain
// target is cleared and every visible cell is redrawn: terrain with depth
// writes, flat decals depth tested without writes, objects with depth and
// stencil writes, then shadows gated by the stencil so they never darken
// an object. The terrain target is then copied into the composite target,
// optionally multiplied by a light mask, UI layers are blended on top and
// the camera region is scaled into the presentation target.
//
// Targets are sized to the whole map, so panning only redraws cells that
// the camera exposes for the first time in the current epoch.
//
// Depth is cleared to 0 and tested with GreaterEqual: larger values are
// nearer the viewer and a later fragment wins a tie.
package compositor
