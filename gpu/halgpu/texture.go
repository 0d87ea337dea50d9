// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"fmt"
	"image"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/logging"
)

// Texture is a hal texture with its default view.
type Texture struct {
	dev    *Device
	label  string
	width  int
	height int
	format gpu.TextureFormat
	tex    hal.Texture
	view   hal.TextureView

	// destroyed is set by DestroyTexture; the hal objects may outlive it
	// until the GPU is done with them.
	destroyed bool
}

func (t *Texture) Width() int                { return t.width }
func (t *Texture) Height() int               { return t.height }
func (t *Texture) Format() gpu.TextureFormat { return t.format }
func (t *Texture) Label() string             { return t.label }

func (t *Texture) bounds() image.Rectangle { return image.Rect(0, 0, t.width, t.height) }

func (t *Texture) extent() hal.Extent3D {
	return hal.Extent3D{Width: uint32(t.width), Height: uint32(t.height), DepthOrArrayLayers: 1} //nolint:gosec // sizes are validated against limits
}

// Target is an RGBA8 color texture plus an optional Depth24PlusStencil8
// attachment.
type Target struct {
	label     string
	color     *Texture
	depthTex  hal.Texture
	depthView hal.TextureView
}

func (rt *Target) Width() int            { return rt.color.width }
func (rt *Target) Height() int           { return rt.color.height }
func (rt *Target) Color() gpu.Texture    { return rt.color }
func (rt *Target) HasDepthStencil() bool { return rt.depthView != nil }
func (rt *Target) Label() string         { return rt.label }

func (d *Device) checkSize(w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: invalid size %dx%d", gpu.ErrTextureLoad, w, h)
	}
	if m := d.limits.MaxTextureDimension; m > 0 && (w > m || h > m) {
		return fmt.Errorf("%w: %dx%d exceeds max dimension %d", gpu.ErrTextureLoad, w, h, m)
	}
	return nil
}

// newTexture allocates a hal texture and view. Extra usage flags are added
// to the sampling and copy usages every texture carries.
func (d *Device) newTexture(label string, w, h int, f gpu.TextureFormat, extra gputypes.TextureUsage) (*Texture, error) {
	t := &Texture{dev: d, label: label, width: w, height: h, format: f}
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         label,
		Size:          t.extent(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        f.Native(),
		Usage: gputypes.TextureUsageTextureBinding | gputypes.TextureUsageCopyDst |
			gputypes.TextureUsageCopySrc | extra,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create texture %q: %w", gpu.ErrTextureLoad, label, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label:         label + "_view",
		Format:        f.Native(),
		Dimension:     gputypes.TextureViewDimension2D,
		Aspect:        gputypes.TextureAspectAll,
		MipLevelCount: 1,
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return nil, fmt.Errorf("%w: create view %q: %w", gpu.ErrTextureLoad, label, err)
	}
	t.tex, t.view = tex, view
	return t, nil
}

func (d *Device) releaseTexture(t *Texture) {
	if t.view != nil {
		d.device.DestroyTextureView(t.view)
		t.view = nil
	}
	if t.tex != nil {
		d.device.DestroyTexture(t.tex)
		t.tex = nil
	}
}

// CreateTexture implements gpu.Device.
func (d *Device) CreateTexture(desc gpu.TextureDescriptor) (gpu.Texture, error) {
	if err := d.checkSize(desc.Width, desc.Height); err != nil {
		return nil, fmt.Errorf("create texture %q: %w", desc.Label, err)
	}
	t, err := d.newTexture(desc.Label, desc.Width, desc.Height, desc.Format, 0)
	if err != nil {
		return nil, err
	}
	d.textures[t] = struct{}{}
	return t, nil
}

func (d *Device) own(tex gpu.Texture) (*Texture, error) {
	t, ok := tex.(*Texture)
	if !ok || t == nil || t.dev != d {
		return nil, gpu.ErrForeignResource
	}
	if t.destroyed || t.tex == nil {
		return nil, fmt.Errorf("%w: texture %q", gpu.ErrDestroyed, t.label)
	}
	return t, nil
}

// UploadTexture implements gpu.Device. Recorded work is submitted first so
// the write lands after any draw that sampled the old contents.
func (d *Device) UploadTexture(tex gpu.Texture, region image.Rectangle, pixels []byte) error {
	t, err := d.own(tex)
	if err != nil {
		return err
	}
	if !region.In(t.bounds()) {
		return fmt.Errorf("%w: upload region %v outside %v", gpu.ErrTextureLoad, region, t.bounds())
	}
	rowLen := region.Dx() * t.format.BytesPerPixel()
	if len(pixels) != rowLen*region.Dy() {
		return fmt.Errorf("%w: upload of %d bytes, want %d", gpu.ErrTextureLoad, len(pixels), rowLen*region.Dy())
	}
	if d.encoder != nil {
		if err := d.Flush(); err != nil {
			return err
		}
	}
	//nolint:gosec // region is inside the texture
	err = d.queue.WriteTexture(
		&hal.ImageCopyTexture{
			Texture: t.tex,
			Origin:  hal.Origin3D{X: uint32(region.Min.X), Y: uint32(region.Min.Y)},
			Aspect:  gputypes.TextureAspectAll,
		},
		pixels,
		&hal.ImageDataLayout{BytesPerRow: uint32(rowLen), RowsPerImage: uint32(region.Dy())},
		&hal.Extent3D{Width: uint32(region.Dx()), Height: uint32(region.Dy()), DepthOrArrayLayers: 1},
	)
	if err != nil {
		return fmt.Errorf("%w: write texture %q: %w", gpu.ErrTextureLoad, t.label, err)
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
	if !srcRect.In(st.bounds()) || !dstRect.In(dt.bounds()) {
		return fmt.Errorf("%w: copy %v -> %v out of bounds", gpu.ErrTextureLoad, srcRect, dstRect)
	}
	if srcRect.Empty() {
		return nil
	}
	enc, err := d.commandEncoder()
	if err != nil {
		return err
	}
	d.endPass()
	//nolint:gosec // rectangles are inside both textures
	enc.CopyTextureToTexture(st.tex, dt.tex, []hal.TextureCopy{{
		SrcBase: hal.ImageCopyTexture{
			Texture: st.tex,
			Origin:  hal.Origin3D{X: uint32(srcRect.Min.X), Y: uint32(srcRect.Min.Y)},
			Aspect:  gputypes.TextureAspectAll,
		},
		DstBase: hal.ImageCopyTexture{
			Texture: dt.tex,
			Origin:  hal.Origin3D{X: uint32(dstOrigin.X), Y: uint32(dstOrigin.Y)},
			Aspect:  gputypes.TextureAspectAll,
		},
		Size: hal.Extent3D{Width: uint32(srcRect.Dx()), Height: uint32(srcRect.Dy()), DepthOrArrayLayers: 1},
	}})
	return nil
}

// DestroyTexture implements gpu.Device. Render target colors are released
// with their target.
func (d *Device) DestroyTexture(tex gpu.Texture) {
	t, ok := tex.(*Texture)
	if !ok || t == nil {
		return
	}
	if _, live := d.textures[t]; !live {
		return
	}
	delete(d.textures, t)
	t.destroyed = true
	d.retire(func() { d.releaseTexture(t) })
}

// CreateRenderTarget implements gpu.Device.
func (d *Device) CreateRenderTarget(desc gpu.RenderTargetDescriptor) (gpu.RenderTarget, error) {
	if err := d.checkSize(desc.Width, desc.Height); err != nil {
		return nil, fmt.Errorf("create render target %q: %w", desc.Label, err)
	}
	color, err := d.newTexture(desc.Label+"_color", desc.Width, desc.Height, gpu.FormatRGBA8,
		gputypes.TextureUsageRenderAttachment)
	if err != nil {
		return nil, err
	}
	rt := &Target{label: desc.Label, color: color}
	if desc.DepthStencil {
		if err := d.createDepthStencil(rt); err != nil {
			d.releaseTexture(color)
			return nil, err
		}
	}
	d.targets[rt] = struct{}{}
	logging.L().Debug("halgpu: render target created", "label", desc.Label,
		"width", desc.Width, "height", desc.Height, "depthStencil", desc.DepthStencil)
	return rt, nil
}

func (d *Device) createDepthStencil(rt *Target) error {
	tex, err := d.device.CreateTexture(&hal.TextureDescriptor{
		Label:         rt.label + "_depth_stencil",
		Size:          rt.color.extent(),
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        depthStencilFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("%w: create depth/stencil texture: %w", gpu.ErrTextureLoad, err)
	}
	view, err := d.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: rt.label + "_depth_stencil_view",
	})
	if err != nil {
		d.device.DestroyTexture(tex)
		return fmt.Errorf("%w: create depth/stencil view: %w", gpu.ErrTextureLoad, err)
	}
	rt.depthTex, rt.depthView = tex, view
	return nil
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
		d.endPass()
		d.target = nil
	}
	delete(d.targets, t)
	d.retire(func() {
		if t.depthView != nil {
			d.device.DestroyTextureView(t.depthView)
			t.depthView = nil
		}
		if t.depthTex != nil {
			d.device.DestroyTexture(t.depthTex)
			t.depthTex = nil
		}
		d.releaseTexture(t.color)
	})
}
