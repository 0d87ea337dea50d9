// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package isomap renders large tile-based isometric maps on a GPU.
//
// # Overview
//
// isomap produces a 2.5D look without 3D geometry. Every sprite writes a
// per-pixel depth derived from its ground position, so the depth buffer
// sorts overlapping terrain, buildings and units the way a painter's
// algorithm would, while draws stay batched by texture.
//
// The module has two halves:
//
//   - package atlas packs thousands of small Indexed8 images into a few
//     large textures in two phases: parallel CPU packing per asset category,
//     then a single GPU finalize that merges category textures into pages.
//   - package compositor draws terrain, decals, buildings, units, shadows
//     and overlay UI into offscreen targets and composites them into the
//     presented frame. Only invalidated regions are redrawn.
//
// Packages batch and record sit between them and the device: record groups
// submissions by palette and flushes them in a fixed order, batch turns
// quads into as few DrawIndexed calls as the vertex ceiling allows.
//
// # Quick Start
//
//	rc, err := isomap.NewRenderContext(isomap.WithConfig(cfg))
//	if err != nil {
//	    return err
//	}
//	defer rc.TeardownAll()
//
//	if err := rc.Init(ctx, terrainLoader, unitLoader); err != nil {
//	    return err
//	}
//	c, err := rc.NewCompositor(world)
//	if err != nil {
//	    return err
//	}
//	frame, err := c.Frame()
//
// # Backends
//
// Devices implement gpu.Device. The "software" backend (package gpu/soft)
// is always registered and rasterizes on the CPU with real depth, stencil
// and blending. Importing package gpu/halgpu registers the "hal" backend,
// which renders through wgpu's HAL on the host's device:
//
//	import _ "github.com/gogpu/isomap/gpu/halgpu"
//
//	rc, err := isomap.NewRenderContext(isomap.WithProvider(provider))
//
// # Configuration
//
// Config is read from TOML with LoadConfig or DecodeConfig. Unknown keys
// are rejected and Validate reports the first bad field as a *ConfigError.
//
// # Logging
//
// isomap is silent by default. SetLogger installs a log/slog logger shared
// by every sub-package.
package isomap
