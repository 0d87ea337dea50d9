// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package export

import (
	"image"

	"golang.org/x/image/draw"
)

// Minimap scales img to fit within maxW by maxH, keeping the aspect ratio.
// Images that already fit are copied unscaled. Filtering happens on
// premultiplied color and the result is straight alpha.
func Minimap(img image.Image, maxW, maxH int) *image.NRGBA {
	b := img.Bounds()
	w, h := fit(b.Dx(), b.Dy(), maxW, maxH)

	premul := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(premul, premul.Bounds(), img, b.Min, draw.Src)

	scaled := premul
	if w != b.Dx() || h != b.Dy() {
		scaled = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(scaled, scaled.Bounds(), premul, premul.Bounds(), draw.Src, nil)
	}

	out := image.NewNRGBA(scaled.Bounds())
	for y := range h {
		for x := range w {
			si, di := scaled.PixOffset(x, y), out.PixOffset(x, y)
			a := float64(scaled.Pix[si+3])
			if a > 0 {
				inv := 255 / a
				out.Pix[di] = clamp8(float64(scaled.Pix[si]) * inv)
				out.Pix[di+1] = clamp8(float64(scaled.Pix[si+1]) * inv)
				out.Pix[di+2] = clamp8(float64(scaled.Pix[si+2]) * inv)
			}
			out.Pix[di+3] = scaled.Pix[si+3]
		}
	}
	return out
}

func clamp8(v float64) uint8 {
	return uint8(min(max(v+0.5, 0), 255))
}

// fit returns the largest size with the aspect ratio of w by h inside
// maxW by maxH, never upscaling and never below 1x1.
func fit(w, h, maxW, maxH int) (int, int) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	if maxW <= 0 || maxH <= 0 || (w <= maxW && h <= maxH) {
		return w, h
	}
	if w*maxH > h*maxW {
		return maxW, max(1, h*maxW/w)
	}
	return max(1, w*maxH/h), maxH
}
