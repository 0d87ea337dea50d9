// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/cache"
	"github.com/gogpu/isomap/internal/logging"
)

// DefaultPipelineCacheSize bounds the number of live render pipelines.
const DefaultPipelineCacheSize = 64

const (
	colorFormat        = gputypes.TextureFormatRGBA8Unorm
	depthStencilFormat = gputypes.TextureFormatDepth24PlusStencil8
)

// pipelineKey identifies one render pipeline variant. The stencil reference
// is dynamic and the filter lives in the bind group, so neither is part of
// it.
type pipelineKey struct {
	state gpu.RenderState
	depth bool
}

// spritePipeline owns the shader, layouts and samplers every variant
// shares, plus the variant cache.
type spritePipeline struct {
	device     hal.Device
	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	nearest    hal.Sampler
	linear     hal.Sampler
	variants   *cache.Cache[pipelineKey, hal.RenderPipeline]
}

func newSpritePipeline(device hal.Device, cacheSize int) (*spritePipeline, error) {
	if err := validateShader(); err != nil {
		return nil, err
	}
	p := &spritePipeline{device: device}
	p.variants = cache.New(cacheSize, cache.WithEvict(func(k pipelineKey, rp hal.RenderPipeline) {
		logging.L().Debug("halgpu: render pipeline evicted", "depth", k.depth)
		device.DestroyRenderPipeline(rp)
	}))
	if err := p.create(); err != nil {
		p.destroy()
		return nil, err
	}
	return p, nil
}

func (p *spritePipeline) create() error {
	shader, err := p.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "isomap_sprite_shader",
		Source: hal.ShaderSource{WGSL: spriteShaderSource},
	})
	if err != nil {
		return fmt.Errorf("%w: create sprite shader module: %w", gpu.ErrShaderLoad, err)
	}
	p.shader = shader

	texture := func(binding uint32) gputypes.BindGroupLayoutEntry {
		return gputypes.BindGroupLayoutEntry{
			Binding:    binding,
			Visibility: gputypes.ShaderStageFragment,
			Texture: &gputypes.TextureBindingLayout{
				SampleType:    gputypes.TextureSampleTypeFloat,
				ViewDimension: gputypes.TextureViewDimension2D,
			},
		}
	}
	bindLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "isomap_sprite_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			texture(1),
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
			texture(3),
			texture(4),
		},
	})
	if err != nil {
		return fmt.Errorf("create sprite bind group layout: %w", err)
	}
	p.bindLayout = bindLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "isomap_sprite_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{p.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create sprite pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	if p.nearest, err = p.createSampler("isomap_sampler_nearest", gputypes.FilterModeNearest); err != nil {
		return err
	}
	if p.linear, err = p.createSampler("isomap_sampler_linear", gputypes.FilterModeLinear); err != nil {
		return err
	}
	return nil
}

func (p *spritePipeline) createSampler(label string, filter gputypes.FilterMode) (hal.Sampler, error) {
	s, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        label,
		AddressModeU: gputypes.AddressModeClampToEdge,
		AddressModeV: gputypes.AddressModeClampToEdge,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    filter,
		MinFilter:    filter,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		return nil, fmt.Errorf("create sampler %s: %w", label, err)
	}
	return s, nil
}

// sampler returns the sampler for a filter mode.
func (p *spritePipeline) sampler(f gputypes.FilterMode) hal.Sampler {
	if f == gputypes.FilterModeLinear {
		return p.linear
	}
	return p.nearest
}

// variant returns the pipeline for s, creating it on first use.
func (p *spritePipeline) variant(s gpu.RenderState, depth bool) (hal.RenderPipeline, error) {
	key := pipelineKey{state: s.PipelineKey(), depth: depth}
	key.state.Filter = gputypes.FilterModeNearest
	return p.variants.GetOrCreate(key, func() (hal.RenderPipeline, error) {
		return p.createVariant(key)
	})
}

func (p *spritePipeline) createVariant(key pipelineKey) (hal.RenderPipeline, error) {
	target := gputypes.ColorTargetState{
		Format:    colorFormat,
		WriteMask: key.state.WriteMask,
	}
	if key.state.BlendEnabled() {
		blend := key.state.Blend
		target.Blend = &blend
	}
	desc := &hal.RenderPipelineDescriptor{
		Label:  "isomap_sprite_pipeline",
		Layout: p.pipeLayout,
		Vertex: hal.VertexState{
			Module:     p.shader,
			EntryPoint: "vs_main",
			Buffers:    spriteVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     p.shader,
			EntryPoint: "fs_main",
			Targets:    []gputypes.ColorTargetState{target},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	}
	if key.depth {
		desc.DepthStencil = depthStencilState(key.state.DepthStencil)
	}
	rp, err := p.device.CreateRenderPipeline(desc)
	if err != nil {
		return nil, fmt.Errorf("create sprite pipeline: %w", err)
	}
	logging.L().Debug("halgpu: render pipeline created", "depth", key.depth,
		"depthCompare", key.state.DepthStencil.DepthCompare)
	return rp, nil
}

// depthStencilState converts ds to its hal form with the device's
// depth/stencil format.
func depthStencilState(ds gputypes.DepthStencilState) *hal.DepthStencilState {
	return &hal.DepthStencilState{
		Format:              depthStencilFormat,
		DepthWriteEnabled:   ds.DepthWriteEnabled,
		DepthCompare:        ds.DepthCompare,
		StencilFront:        stencilFace(ds.StencilFront),
		StencilBack:         stencilFace(ds.StencilBack),
		StencilReadMask:     ds.StencilReadMask,
		StencilWriteMask:    ds.StencilWriteMask,
		DepthBias:           ds.DepthBias,
		DepthBiasSlopeScale: ds.DepthBiasSlopeScale,
		DepthBiasClamp:      ds.DepthBiasClamp,
	}
}

func stencilFace(f gputypes.StencilFaceState) hal.StencilFaceState {
	compare := f.Compare
	if compare == gputypes.CompareFunctionUndefined {
		compare = gputypes.CompareFunctionAlways
	}
	return hal.StencilFaceState{
		Compare:     compare,
		FailOp:      stencilOp(f.FailOp),
		DepthFailOp: stencilOp(f.DepthFailOp),
		PassOp:      stencilOp(f.PassOp),
	}
}

// stencilOp maps a gputypes stencil operation to hal. Undefined keeps.
func stencilOp(op gputypes.StencilOperation) hal.StencilOperation {
	switch op {
	case gputypes.StencilOperationZero:
		return hal.StencilOperationZero
	case gputypes.StencilOperationReplace:
		return hal.StencilOperationReplace
	case gputypes.StencilOperationInvert:
		return hal.StencilOperationInvert
	case gputypes.StencilOperationIncrementClamp:
		return hal.StencilOperationIncrementClamp
	case gputypes.StencilOperationDecrementClamp:
		return hal.StencilOperationDecrementClamp
	case gputypes.StencilOperationIncrementWrap:
		return hal.StencilOperationIncrementWrap
	case gputypes.StencilOperationDecrementWrap:
		return hal.StencilOperationDecrementWrap
	default:
		return hal.StencilOperationKeep
	}
}

func (p *spritePipeline) destroy() {
	if p.variants != nil {
		p.variants.Clear()
	}
	if p.linear != nil {
		p.device.DestroySampler(p.linear)
		p.linear = nil
	}
	if p.nearest != nil {
		p.device.DestroySampler(p.nearest)
		p.nearest = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bindLayout != nil {
		p.device.DestroyBindGroupLayout(p.bindLayout)
		p.bindLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
