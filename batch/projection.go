// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

// Ortho returns a column-major orthographic projection mapping target
// pixels (origin top-left, y down) to clip space. Z passes through.
func Ortho(width, height int) [16]float32 {
	var m [16]float32
	if width <= 0 || height <= 0 {
		return m
	}
	m[0] = 2 / float32(width)
	m[5] = -2 / float32(height)
	m[10] = 1
	m[12] = -1
	m[13] = 1
	m[15] = 1
	return m
}
