// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"image"
	"testing"

	"github.com/gogpu/isomap/gpu"
)

func TestAssetImages(t *testing.T) {
	tests := []struct {
		name  string
		img   *image.Paletted
		size  image.Point
		index uint8
	}{
		{"grass", diamond(idxGrass, 4), image.Pt(tileW, tileH), idxGrass},
		{"tree", tree(), image.Pt(16, 30), idxTrunk},
		{"house", house(), image.Pt(32, 42), idxRoof},
		{"flag", flagImage(), image.Pt(8, 12), idxTeam + 15},
		{"unit", unit(), image.Pt(10, 10), gpu.RemapLast},
		{"shadow", ellipse(12, 6), image.Pt(12, 6), idxShadow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.img.Bounds().Size(); got != tt.size {
				t.Errorf("size = %v, want %v", got, tt.size)
			}
			found := false
			for _, px := range tt.img.Pix {
				if px == tt.index {
					found = true
					break
				}
			}
			if !found {
				t.Errorf("no pixel uses palette index %d", tt.index)
			}
		})
	}
}
