// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"fmt"
	"image/color"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/isomap/gpu"
)

// frameResources are created while recording and freed once the submission
// that used them completes.
type frameResources struct {
	buffers []hal.Buffer
	groups  []hal.BindGroup
	retired []func()
}

func (f *frameResources) release(device hal.Device) {
	for _, g := range f.groups {
		device.DestroyBindGroup(g)
	}
	for _, b := range f.buffers {
		device.DestroyBuffer(b)
	}
	for _, fn := range f.retired {
		fn()
	}
	*f = frameResources{}
}

type submission struct {
	index uint64
	cmd   hal.CommandBuffer
	frame frameResources
}

// reclaim frees submissions the queue reports complete, or all of them
// when all is set.
func (d *Device) reclaim(all bool) {
	done := d.queue.PollCompleted()
	keep := d.pending[:0]
	for _, s := range d.pending {
		if !all && s.index > done {
			keep = append(keep, s)
			continue
		}
		d.device.FreeCommandBuffer(s.cmd)
		s.frame.release(d.device)
	}
	clear(d.pending[len(keep):])
	d.pending = keep
}

// retire runs fn once no recorded or in-flight command can reference the
// resource it releases.
func (d *Device) retire(fn func()) {
	if d.encoder == nil && len(d.pending) == 0 {
		fn()
		return
	}
	d.frame.retired = append(d.frame.retired, fn)
}

// commandEncoder returns the open encoder, starting one if needed.
func (d *Device) commandEncoder() (hal.CommandEncoder, error) {
	if d.encoder != nil {
		return d.encoder, nil
	}
	enc, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "isomap_frame"})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create command encoder: %w", err)
	}
	if err := enc.BeginEncoding("isomap_frame"); err != nil {
		return nil, fmt.Errorf("halgpu: begin encoding: %w", err)
	}
	d.encoder = enc
	return enc, nil
}

// beginPass opens a render pass on the bound target. Attachments selected
// by flags are cleared, the rest are loaded.
func (d *Device) beginPass(c *color.NRGBA, flags gpu.ClearFlags) error {
	enc, err := d.commandEncoder()
	if err != nil {
		return err
	}
	rt := d.target
	attachment := hal.RenderPassColorAttachment{
		View:    rt.color.view,
		LoadOp:  gputypes.LoadOpLoad,
		StoreOp: gputypes.StoreOpStore,
	}
	if c != nil && flags&gpu.ClearColor != 0 {
		attachment.LoadOp = gputypes.LoadOpClear
		attachment.ClearValue = gputypes.Color{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: float64(c.A) / 255,
		}
	}
	desc := &hal.RenderPassDescriptor{
		Label:            rt.label + "_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{attachment},
	}
	if rt.depthView != nil {
		ds := &hal.RenderPassDepthStencilAttachment{
			View:              rt.depthView,
			DepthLoadOp:       gputypes.LoadOpLoad,
			DepthStoreOp:      gputypes.StoreOpStore,
			DepthClearValue:   gpu.DepthClearValue,
			StencilLoadOp:     gputypes.LoadOpLoad,
			StencilStoreOp:    gputypes.StoreOpStore,
			StencilClearValue: 0,
		}
		if flags&gpu.ClearDepth != 0 {
			ds.DepthLoadOp = gputypes.LoadOpClear
		}
		if flags&gpu.ClearStencil != 0 {
			ds.StencilLoadOp = gputypes.LoadOpClear
		}
		desc.DepthStencilAttachment = ds
	}
	rp := enc.BeginRenderPass(desc)
	w, h := float32(rt.color.width), float32(rt.color.height)
	rp.SetViewport(0, 0, w, h, 0, 1)
	rp.SetScissorRect(0, 0, uint32(rt.color.width), uint32(rt.color.height)) //nolint:gosec // validated size
	d.pass = rp
	d.stats.Passes++
	return nil
}

func (d *Device) endPass() {
	if d.pass != nil {
		d.pass.End()
		d.pass = nil
	}
}

type drawBinding struct {
	vertices  hal.Buffer
	indices   hal.Buffer
	uniforms  hal.Buffer
	bindGroup hal.BindGroup
}

// drawResources uploads one draw's vertex, index and uniform data and binds
// its textures. Everything is owned by the current frame.
func (d *Device) drawResources(tex, palette, secondary *Texture, vertices []gpu.Vertex, indices []uint16) (*drawBinding, error) {
	vb, err := d.uploadBuffer("isomap_vertices", vertexBytes(vertices), gputypes.BufferUsageVertex)
	if err != nil {
		return nil, err
	}
	ib, err := d.uploadBuffer("isomap_indices", indexBytes(indices), gputypes.BufferUsageIndex)
	if err != nil {
		return nil, err
	}
	ub, err := d.uploadBuffer("isomap_uniforms", uniformBytes(&d.effect), gputypes.BufferUsageUniform)
	if err != nil {
		return nil, err
	}
	group, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "isomap_sprite_bind",
		Layout: d.pipeline.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: ub.NativeHandle(), Size: uniformSize}},
			{Binding: 1, Resource: gputypes.TextureViewBinding{TextureView: tex.view.NativeHandle()}},
			{Binding: 2, Resource: gputypes.SamplerBinding{Sampler: d.pipeline.sampler(d.state.Filter).NativeHandle()}},
			{Binding: 3, Resource: gputypes.TextureViewBinding{TextureView: palette.view.NativeHandle()}},
			{Binding: 4, Resource: gputypes.TextureViewBinding{TextureView: secondary.view.NativeHandle()}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create bind group: %w", err)
	}
	d.frame.groups = append(d.frame.groups, group)
	return &drawBinding{vertices: vb, indices: ib, uniforms: ub, bindGroup: group}, nil
}

func (d *Device) uploadBuffer(label string, data []byte, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: label,
		Size:  uint64(len(data)),
		Usage: usage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("halgpu: create %s: %w", label, err)
	}
	d.frame.buffers = append(d.frame.buffers, buf)
	if err := d.queue.WriteBuffer(buf, 0, data); err != nil {
		return nil, fmt.Errorf("halgpu: write %s: %w", label, err)
	}
	return buf, nil
}
