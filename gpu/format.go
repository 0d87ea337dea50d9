// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "github.com/gogpu/gputypes"

// TextureFormat is the pixel layout of a texture.
type TextureFormat uint8

const (
	// FormatIndexed8 stores one palette index per pixel. Index 0 is
	// transparent.
	FormatIndexed8 TextureFormat = iota + 1

	// FormatAlpha8 stores one coverage byte per pixel (text labels, masks).
	FormatAlpha8

	// FormatRGBA8 stores four bytes per pixel, non-premultiplied.
	FormatRGBA8
)

// BytesPerPixel returns the size of one pixel in bytes.
func (f TextureFormat) BytesPerPixel() int {
	if f == FormatRGBA8 {
		return 4
	}
	return 1
}

// Native returns the gputypes format backing f on hardware devices.
func (f TextureFormat) Native() gputypes.TextureFormat {
	if f == FormatRGBA8 {
		return gputypes.TextureFormatRGBA8Unorm
	}
	return gputypes.TextureFormatR8Unorm
}

// String implements fmt.Stringer.
func (f TextureFormat) String() string {
	switch f {
	case FormatIndexed8:
		return "indexed8"
	case FormatAlpha8:
		return "alpha8"
	case FormatRGBA8:
		return "rgba8"
	default:
		return "unknown"
	}
}
