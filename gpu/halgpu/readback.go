// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"fmt"
	"image"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/isomap/gpu"
)

// copyPitchAlignment is the BytesPerRow alignment texture-to-buffer copies
// require.
const copyPitchAlignment = 256

func alignedPitch(w int) uint32 {
	return (uint32(w)*4 + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1) //nolint:gosec // validated size
}

// ReadPixels implements gpu.Device. It submits all recorded work and
// blocks until the copy has completed.
func (d *Device) ReadPixels(rt gpu.RenderTarget) (*image.NRGBA, error) {
	t, ok := rt.(*Target)
	if !ok {
		return nil, gpu.ErrForeignResource
	}
	if _, live := d.targets[t]; !live {
		return nil, gpu.ErrForeignResource
	}
	w, h := t.color.width, t.color.height
	pitch := alignedPitch(w)
	size := uint64(pitch) * uint64(h) //nolint:gosec // validated size

	staging, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: t.label + "_staging",
		Size:  size,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create staging buffer: %w", err)
	}
	defer d.device.DestroyBuffer(staging)

	enc, err := d.commandEncoder()
	if err != nil {
		return nil, err
	}
	d.endPass()
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageRenderAttachment,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	enc.CopyTextureToBuffer(t.color.tex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{BytesPerRow: pitch, RowsPerImage: uint32(h)}, //nolint:gosec // validated size
		TextureBase:  hal.ImageCopyTexture{Texture: t.color.tex, Aspect: gputypes.TextureAspectAll},
		Size:         t.color.extent(),
	}})
	enc.TransitionTextures([]hal.TextureBarrier{{
		Texture: t.color.tex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageRenderAttachment,
		},
	}})
	if err := d.Flush(); err != nil {
		return nil, err
	}
	if err := d.device.WaitIdle(); err != nil {
		return nil, fmt.Errorf("halgpu: wait idle: %w", err)
	}
	d.reclaim(true)

	m, err := d.device.MapBuffer(staging, 0, size)
	if err != nil {
		return nil, fmt.Errorf("halgpu: map staging buffer: %w", err)
	}
	data := unsafe.Slice((*byte)(m.Ptr), size)
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	rowLen := w * 4
	for y := range h {
		src := y * int(pitch)
		copy(img.Pix[y*img.Stride:y*img.Stride+rowLen], data[src:src+rowLen])
	}
	if err := d.device.UnmapBuffer(staging); err != nil {
		return img, fmt.Errorf("halgpu: unmap staging buffer: %w", err)
	}
	return img, nil
}
