// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package isomap

import (
	"fmt"
	"image"
	"image/color"
	"slices"
	"sync"

	"github.com/gogpu/isomap/gpu"
)

// PaletteSize is the number of entries in a Palette.
const PaletteSize = 256

// Palette maps Indexed8 texels to colors. Entry 0 is never drawn.
type Palette [PaletteSize]color.NRGBA

// GrayPalette returns the palette mapping index i to gray level i.
func GrayPalette() *Palette {
	var p Palette
	for i := range p {
		p[i] = color.NRGBA{uint8(i), uint8(i), uint8(i), 255}
	}
	return &p
}

// PaletteFrom converts an image/color palette, such as the one of a
// decoded image.Paletted. Missing entries are transparent black.
func PaletteFrom(cp color.Palette) *Palette {
	var p Palette
	for i, c := range cp[:min(len(cp), PaletteSize)] {
		p[i] = color.NRGBAModel.Convert(c).(color.NRGBA)
	}
	return &p
}

// Pixels returns p as one row of RGBA8 texels.
func (p *Palette) Pixels() []byte {
	pix := make([]byte, 0, PaletteSize*4)
	for _, c := range p {
		pix = append(pix, c.R, c.G, c.B, c.A)
	}
	return pix
}

// PaletteRegistry uploads named palettes as 256x1 RGBA8 textures and caches
// them by name. It is safe for concurrent use, but textures are created on
// the device, so callers must not race it with rendering.
type PaletteRegistry struct {
	mu       sync.Mutex
	dev      gpu.Device
	textures map[string]gpu.Texture
}

// NewPaletteRegistry returns an empty registry creating textures on dev.
func NewPaletteRegistry(dev gpu.Device) *PaletteRegistry {
	return &PaletteRegistry{dev: dev, textures: make(map[string]gpu.Texture)}
}

// Add uploads p under name. Adding an existing name re-uploads into the same
// texture, so sprites already holding it see the new colors.
func (r *PaletteRegistry) Add(name string, p *Palette) (gpu.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tex, ok := r.textures[name]
	if !ok {
		var err error
		tex, err = r.dev.CreateTexture(gpu.TextureDescriptor{
			Label:  "palette_" + name,
			Width:  PaletteSize,
			Height: 1,
			Format: gpu.FormatRGBA8,
		})
		if err != nil {
			return nil, fmt.Errorf("isomap: palette %s: %w", name, err)
		}
	}
	if err := r.dev.UploadTexture(tex, image.Rect(0, 0, PaletteSize, 1), p.Pixels()); err != nil {
		if !ok {
			r.dev.DestroyTexture(tex)
		}
		return nil, fmt.Errorf("isomap: palette %s: %w", name, err)
	}
	r.textures[name] = tex
	return tex, nil
}

// Get returns the texture of a palette added earlier.
func (r *PaletteRegistry) Get(name string) (gpu.Texture, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tex, ok := r.textures[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPalette, name)
	}
	return tex, nil
}

// Names returns the registered palette names in sorted order.
func (r *PaletteRegistry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.textures))
	for name := range r.textures {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Destroy releases every palette texture.
func (r *PaletteRegistry) Destroy() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for name, tex := range r.textures {
		r.dev.DestroyTexture(tex)
		delete(r.textures, name)
	}
}
