// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package soft

import (
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/logging"
)

// DefaultLimits mirrors a typical desktop GPU.
var DefaultLimits = gpu.Limits{
	MaxTextureDimension: 16384,
	MaxVertices:         65536,
}

// Stats counts work submitted to the device.
type Stats struct {
	DrawCalls int
	Triangles int
	Fragments int
}

// Device is a CPU gpu.Device.
type Device struct {
	limits   gpu.Limits
	target   *Target
	state    gpu.RenderState
	effect   gpu.Effect
	textures map[*Texture]struct{}
	targets  map[*Target]struct{}
	stats    Stats
}

var _ gpu.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithLimits overrides DefaultLimits.
func WithLimits(l gpu.Limits) Option {
	return func(d *Device) { d.limits = l }
}

// New creates a software device.
func New(opts ...Option) *Device {
	d := &Device{
		limits:   DefaultLimits,
		state:    gpu.StateReplace(),
		textures: make(map[*Texture]struct{}),
		targets:  make(map[*Target]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Stats returns counters accumulated since creation or the last ResetStats.
func (d *Device) Stats() Stats { return d.stats }

// ResetStats zeroes the counters.
func (d *Device) ResetStats() { d.stats = Stats{} }

// LiveTextures reports how many textures are allocated, render target
// color attachments excluded.
func (d *Device) LiveTextures() int { return len(d.textures) }

// LiveTargets reports how many render targets are allocated.
func (d *Device) LiveTargets() int { return len(d.targets) }

func (d *Device) checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", gpu.ErrTextureLoad, w, h)
	}
	if m := d.limits.MaxTextureDimension; m > 0 && (w > m || h > m) {
		return fmt.Errorf("%w: %dx%d exceeds max dimension %d", gpu.ErrTextureLoad, w, h, m)
	}
	return nil
}

func (d *Device) newTexture(label string, w, h int, f gpu.TextureFormat) *Texture {
	return &Texture{
		dev:    d,
		label:  label,
		width:  w,
		height: h,
		format: f,
		pix:    make([]byte, w*h*f.BytesPerPixel()),
	}
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := d.checkSize(desc.Width, desc.Height); err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	t := d.newTexture(desc.Label, desc.Width, desc.Height, desc.Format)
	d.textures[t] = struct{}{}
	return t, nil
}

func (d *Device) own(tex gpu.Texture) (*Texture, error) {
	t, ok := tex.(*Texture)
	if !ok || t == nil || t.dev != d {
		return nil, gpu.ErrForeignResource
	}
	if t.destroyed {
		return nil, fmt.Errorf("%w: texture %q", gpu.ErrDestroyed, t.label)
	}
	return t, nil
}

// UploadTexture implements gpu.Device.
func (d *Device) UploadTexture(tex gpu.Texture, region image.Rectangle, pixels []byte) error {
	t, err := d.own(tex)
	if err != nil {
		return err
	}
	if !region.In(t.Bounds()) {
		return fmt.Errorf("%w: upload region %v outside %v", gpu.ErrTextureLoad, region, t.Bounds())
	}
	bpp := t.format.BytesPerPixel()
	rowLen := region.Dx() * bpp
	if len(pixels) != rowLen*region.Dy() {
		return fmt.Errorf("%w: upload of %d bytes, want %d", gpu.ErrTextureLoad, len(pixels), rowLen*region.Dy())
	}
	for y := 0; y < region.Dy(); y++ {
		dst := (region.Min.Y+y)*t.stride() + region.Min.X*bpp
		copy(t.pix[dst:dst+rowLen], pixels[y*rowLen:(y+1)*rowLen])
	}
	return nil
}

// CopyTexture implements gpu.Device.
func (d *Device) CopyTexture(dst gpu.Texture, dstOrigin image.Point, src gpu.Texture, srcRect image.Rectangle) error {
	dt, err := d.own(dst)
	if err != nil {
		return err
	}
	st, err := d.own(src)
	if err != nil {
		return err
	}
	if dt.format != st.format {
		return fmt.Errorf("%w: copy %s into %s", gpu.ErrUnsupported, st.format, dt.format)
	}
	dstRect := srcRect.Sub(srcRect.Min).Add(dstOrigin)
	if !srcRect.In(st.Bounds()) || !dstRect.In(dt.Bounds()) {
		return fmt.Errorf("%w: copy %v -> %v out of bounds", gpu.ErrTextureLoad, srcRect, dstRect)
	}
	bpp := st.format.BytesPerPixel()
	rowLen := srcRect.Dx() * bpp
	for y := 0; y < srcRect.Dy(); y++ {
		so := (srcRect.Min.Y+y)*st.stride() + srcRect.Min.X*bpp
		do := (dstRect.Min.Y+y)*dt.stride() + dstRect.Min.X*bpp
		copy(dt.pix[do:do+rowLen], st.pix[so:so+rowLen])
	}
	return nil
}

// DestroyTexture implements gpu.Device.
func (d *Device) DestroyTexture(tex gpu.Texture) {
	t, err := d.own(tex)
	if err != nil {
		return
	}
	delete(d.textures, t)
	t.pix = nil
	t.destroyed = true
}

// CreateRenderTarget implements gpu.Device.
func (d *Device) CreateRenderTarget(desc gpu.RenderTargetDescriptor) (gpu.RenderTarget, error) {
	if err := d.checkSize(desc.Width, desc.Height); err != nil {
		return nil, fmt.Errorf("create render target %q: %w", desc.Label, err)
	}
	rt := &Target{
		label: desc.Label,
		color: d.newTexture(desc.Label+"_color", desc.Width, desc.Height, gpu.FormatRGBA8),
	}
	if desc.DepthStencil {
		rt.depth = make([]float32, desc.Width*desc.Height)
		rt.stencil = make([]uint8, desc.Width*desc.Height)
	}
	d.targets[rt] = struct{}{}
	logging.L().Debug("soft: render target created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "depthStencil", desc.DepthStencil)
	return rt, nil
}

// DestroyRenderTarget implements gpu.Device.
func (d *Device) DestroyRenderTarget(rt gpu.RenderTarget) {
	t, ok := rt.(*Target)
	if !ok || t == nil {
		return
	}
	if _, live := d.targets[t]; !live {
		return
	}
	if d.target == t {
		d.target = nil
	}
	delete(d.targets, t)
	t.color.pix = nil
	t.color.destroyed = true
	t.depth = nil
	t.stencil = nil
}

// SetRenderTarget implements gpu.Device. A nil target unbinds.
func (d *Device) SetRenderTarget(rt gpu.RenderTarget) error {
	if rt == nil {
		d.target = nil
		return nil
	}
	t, ok := rt.(*Target)
	if !ok {
		return gpu.ErrForeignResource
	}
	if _, live := d.targets[t]; !live {
		return gpu.ErrForeignResource
	}
	d.target = t
	return nil
}

// Viewport implements gpu.Device.
func (d *Device) Viewport() image.Rectangle {
	if d.target == nil {
		return image.Rectangle{}
	}
	return d.target.color.Bounds()
}

// Clear implements gpu.Device.
func (d *Device) Clear(c color.NRGBA, flags gpu.ClearFlags) error {
	rt := d.target
	if rt == nil {
		return gpu.ErrNoTarget
	}
	if flags&gpu.ClearColor != 0 {
		pix := rt.color.pix
		for i := 0; i < len(pix); i += 4 {
			pix[i], pix[i+1], pix[i+2], pix[i+3] = c.R, c.G, c.B, c.A
		}
	}
	if flags&gpu.ClearDepth != 0 {
		for i := range rt.depth {
			rt.depth[i] = gpu.DepthClearValue
		}
	}
	if flags&gpu.ClearStencil != 0 {
		clear(rt.stencil)
	}
	return nil
}

// SetState implements gpu.Device.
func (d *Device) SetState(s gpu.RenderState) { d.state = s }

// SetEffect implements gpu.Device.
func (d *Device) SetEffect(e gpu.Effect) { d.effect = e }

// DrawIndexed implements gpu.Device.
func (d *Device) DrawIndexed(tex gpu.Texture, vertices []gpu.Vertex, indices []uint16) error {
	if d.target == nil {
		return gpu.ErrNoTarget
	}
	t, err := d.own(tex)
	if err != nil {
		return err
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("soft: index count %d is not a multiple of 3", len(indices))
	}
	if m := d.limits.MaxVertices; m > 0 && len(vertices) > m {
		return fmt.Errorf("soft: %d vertices exceed the per-draw limit %d", len(vertices), m)
	}
	sh, err := d.newShader(t)
	if err != nil {
		return err
	}
	d.stats.DrawCalls++
	for i := 0; i < len(indices); i += 3 {
		i0, i1, i2 := int(indices[i]), int(indices[i+1]), int(indices[i+2])
		if i0 >= len(vertices) || i1 >= len(vertices) || i2 >= len(vertices) {
			return fmt.Errorf("soft: index out of range in triangle %d", i/3)
		}
		d.stats.Triangles++
		d.rasterize(sh, d.project(vertices[i0]), d.project(vertices[i1]), d.project(vertices[i2]))
	}
	return nil
}

// ReadPixels implements gpu.Device.
func (d *Device) ReadPixels(rt gpu.RenderTarget) (*image.NRGBA, error) {
	t, ok := rt.(*Target)
	if !ok {
		return nil, gpu.ErrForeignResource
	}
	if _, live := d.targets[t]; !live {
		return nil, gpu.ErrForeignResource
	}
	img := image.NewNRGBA(t.color.Bounds())
	copy(img.Pix, t.color.pix)
	return img, nil
}

// Flush implements gpu.Device. Work is executed immediately, so there is
// nothing to submit.
func (d *Device) Flush() error { return nil }

// Limits implements gpu.Device.
func (d *Device) Limits() gpu.Limits { return d.limits }

// Close implements gpu.Device.
func (d *Device) Close() error {
	if n := len(d.textures) + len(d.targets); n > 0 {
		logging.L().Debug("soft: releasing live resources on close", "count", n)
	}
	for t := range d.targets {
		d.DestroyRenderTarget(t)
	}
	for t := range d.textures {
		d.DestroyTexture(t)
	}
	return nil
}
