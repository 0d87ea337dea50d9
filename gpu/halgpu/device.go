// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/logging"
)

// DefaultLimits is used when the host does not report limits.
var DefaultLimits = gpu.Limits{
	MaxTextureDimension: 8192,
	MaxVertices:         65536,
}

// Stats counts work recorded and submitted by the device.
type Stats struct {
	DrawCalls   int
	Passes      int
	Submissions int
	Pipelines   int
}

// Device is a gpu.Device backed by a wgpu hal device and queue.
type Device struct {
	device hal.Device
	queue  hal.Queue
	limits gpu.Limits

	pipeline *spritePipeline
	blank    *Texture

	textures map[*Texture]struct{}
	targets  map[*Target]struct{}

	target *Target
	state  gpu.RenderState
	effect gpu.Effect

	encoder hal.CommandEncoder
	pass    hal.RenderPassEncoder
	frame   frameResources
	pending []submission

	stats     Stats
	cacheSize int
	closed    bool
}

var _ gpu.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithLimits overrides DefaultLimits.
func WithLimits(l gpu.Limits) Option {
	return func(d *Device) { d.limits = l }
}

// WithPipelineCacheSize bounds the number of cached render pipelines.
func WithPipelineCacheSize(n int) Option {
	return func(d *Device) { d.cacheSize = n }
}

// New wraps a hal device and queue. The caller keeps ownership of both.
func New(device hal.Device, queue hal.Queue, opts ...Option) (*Device, error) {
	if device == nil || queue == nil {
		return nil, fmt.Errorf("halgpu: nil device or queue")
	}
	d := &Device{
		device:    device,
		queue:     queue,
		limits:    DefaultLimits,
		state:     gpu.StateReplace(),
		textures:  make(map[*Texture]struct{}),
		targets:   make(map[*Target]struct{}),
		cacheSize: DefaultPipelineCacheSize,
	}
	for _, opt := range opts {
		opt(d)
	}
	p, err := newSpritePipeline(device, d.cacheSize)
	if err != nil {
		return nil, err
	}
	d.pipeline = p

	// Bound in place of a missing palette or secondary texture.
	blank, err := d.newTexture("isomap_blank", 1, 1, gpu.FormatRGBA8, 0)
	if err != nil {
		p.destroy()
		return nil, err
	}
	d.blank = blank
	if err := d.UploadTexture(blank, image.Rect(0, 0, 1, 1), []byte{255, 255, 255, 255}); err != nil {
		d.releaseTexture(blank)
		p.destroy()
		return nil, err
	}
	logging.L().Info("halgpu: device ready", "maxTexture", d.limits.MaxTextureDimension)
	return d, nil
}

// halProvider is implemented by hosts that expose their hal objects
// directly.
type halProvider interface {
	HalDevice() any
	HalQueue() any
}

// NewFromProvider wraps the device and queue shared by a gpucontext
// provider. The provider must expose hal types, either through HalDevice
// and HalQueue or by returning them from Device and Queue.
func NewFromProvider(provider gpucontext.DeviceProvider, opts ...Option) (*Device, error) {
	if provider == nil {
		return nil, fmt.Errorf("halgpu: nil device provider")
	}
	var dev, queue any = provider.Device(), provider.Queue()
	if hp, ok := provider.(halProvider); ok {
		dev, queue = hp.HalDevice(), hp.HalQueue()
	}
	device, ok := dev.(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("halgpu: provider device %T is not a hal.Device", dev)
	}
	q, ok := queue.(hal.Queue)
	if !ok || q == nil {
		return nil, fmt.Errorf("halgpu: provider queue %T is not a hal.Queue", queue)
	}
	info := provider.AdapterInfo()
	if info.Type == gpucontext.AdapterTypeSoftware {
		logging.L().Warn("halgpu: provider adapter is a software rasterizer, the soft device is usually faster",
			"adapter", info.Name)
	}
	return New(device, q, opts...)
}

// Stats returns counters accumulated since creation.
func (d *Device) Stats() Stats {
	s := d.stats
	s.Pipelines = d.pipeline.variants.Len()
	return s
}

// LiveTextures reports how many textures are allocated, render target
// colors excluded.
func (d *Device) LiveTextures() int { return len(d.textures) }

// LiveTargets reports how many render targets are allocated.
func (d *Device) LiveTargets() int { return len(d.targets) }

// SetRenderTarget implements gpu.Device. A nil target unbinds.
func (d *Device) SetRenderTarget(rt gpu.RenderTarget) error {
	if rt == nil {
		d.endPass()
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
	if t != d.target {
		d.endPass()
		d.target = t
	}
	return nil
}

// Viewport implements gpu.Device.
func (d *Device) Viewport() image.Rectangle {
	if d.target == nil {
		return image.Rectangle{}
	}
	return d.target.color.bounds()
}

// Clear implements gpu.Device. It starts a new render pass whose load
// operations clear the selected attachments.
func (d *Device) Clear(c color.NRGBA, flags gpu.ClearFlags) error {
	if d.target == nil {
		return gpu.ErrNoTarget
	}
	d.endPass()
	return d.beginPass(&c, flags)
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
	if len(indices) == 0 {
		return nil
	}
	if len(indices)%3 != 0 {
		return fmt.Errorf("halgpu: index count %d is not a multiple of 3", len(indices))
	}
	if m := d.limits.MaxVertices; m > 0 && len(vertices) > m {
		return fmt.Errorf("halgpu: %d vertices exceed the per-draw limit %d", len(vertices), m)
	}
	for i, idx := range indices {
		if int(idx) >= len(vertices) {
			return fmt.Errorf("halgpu: index out of range in triangle %d", i/3)
		}
	}
	if d.effect.Mode.Paletted() && t.format != gpu.FormatIndexed8 {
		return fmt.Errorf("halgpu: effect %d needs an indexed texture, got %s", d.effect.Mode, t.format)
	}
	if d.effect.Mode == gpu.EffectLightMask && d.effect.Secondary == nil {
		return fmt.Errorf("halgpu: light mask effect without a secondary texture")
	}
	palette, secondary := d.blank, d.blank
	if d.effect.Palette != nil {
		if palette, err = d.own(d.effect.Palette); err != nil {
			return fmt.Errorf("palette: %w", err)
		}
	}
	if d.effect.Secondary != nil {
		if secondary, err = d.own(d.effect.Secondary); err != nil {
			return fmt.Errorf("secondary: %w", err)
		}
	}

	depth := d.target.HasDepthStencil()
	pipeline, err := d.pipeline.variant(d.state, depth)
	if err != nil {
		return err
	}
	res, err := d.drawResources(t, palette, secondary, vertices, indices)
	if err != nil {
		return err
	}
	if d.pass == nil {
		if err := d.beginPass(nil, 0); err != nil {
			return err
		}
	}
	rp := d.pass
	rp.SetPipeline(pipeline)
	rp.SetBindGroup(0, res.bindGroup, nil)
	rp.SetVertexBuffer(0, res.vertices, 0)
	rp.SetIndexBuffer(res.indices, gputypes.IndexFormatUint16, 0)
	if depth {
		rp.SetStencilReference(d.state.StencilReference)
	}
	rp.DrawIndexed(uint32(len(indices)), 1, 0, 0, 0) //nolint:gosec // bounded by MaxVertices
	d.stats.DrawCalls++
	return nil
}

// Flush implements gpu.Device. It submits the recorded commands and
// releases per-draw resources of submissions the GPU has finished.
func (d *Device) Flush() error {
	d.endPass()
	if d.encoder == nil {
		d.reclaim(false)
		return nil
	}
	enc := d.encoder
	d.encoder = nil
	cmd, err := enc.EndEncoding()
	if err != nil {
		d.frame.release(d.device)
		return fmt.Errorf("halgpu: end encoding: %w", err)
	}
	index, err := d.queue.Submit([]hal.CommandBuffer{cmd})
	if err != nil {
		d.device.FreeCommandBuffer(cmd)
		d.frame.release(d.device)
		return fmt.Errorf("halgpu: submit: %w", err)
	}
	d.stats.Submissions++
	d.pending = append(d.pending, submission{index: index, cmd: cmd, frame: d.frame})
	d.frame = frameResources{}
	d.reclaim(false)
	return nil
}

// Limits implements gpu.Device.
func (d *Device) Limits() gpu.Limits { return d.limits }

// Close implements gpu.Device. It waits for the GPU and releases every
// resource the device created. The hal device itself is left to its owner.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	err := d.Flush()
	if werr := d.device.WaitIdle(); werr != nil {
		err = errors.Join(err, fmt.Errorf("halgpu: wait idle: %w", werr))
	}
	d.reclaim(true)
	if n := len(d.textures) + len(d.targets); n > 0 {
		logging.L().Debug("halgpu: releasing live resources on close", "count", n)
	}
	for t := range d.targets {
		d.DestroyRenderTarget(t)
	}
	for t := range d.textures {
		d.DestroyTexture(t)
	}
	d.releaseTexture(d.blank)
	d.pipeline.destroy()
	return err
}
