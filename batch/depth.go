// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

// DepthRect holds one depth value per quad corner. A sprite standing on
// sloped or raised ground gets a depth gradient across the quad, which lets
// the depth test resolve occlusion per pixel instead of per sprite.
type DepthRect struct {
	TopLeft     float32
	TopRight    float32
	BottomLeft  float32
	BottomRight float32
}

// FlatDepth returns a rectangle with the same depth at every corner.
func FlatDepth(d float32) DepthRect {
	return DepthRect{TopLeft: d, TopRight: d, BottomLeft: d, BottomRight: d}
}

// VerticalDepth returns a rectangle whose depth runs from top at the top
// edge to bottom at the bottom edge.
func VerticalDepth(top, bottom float32) DepthRect {
	return DepthRect{TopLeft: top, TopRight: top, BottomLeft: bottom, BottomRight: bottom}
}
