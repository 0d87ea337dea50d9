// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package export encodes rendered map images.
//
// Full-map and viewport images read back from a render target are written
// as PNG or as lossless WebP. Minimap scales an image down with
// premultiplied-alpha filtering so transparent map borders do not bleed
// dark fringes into the terrain.
package export
