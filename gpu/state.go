// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "github.com/gogpu/gputypes"

// RenderState is the fixed-function state applied to draws. Apart from
// StencilReference it is comparable and used as a pipeline cache key by
// hardware devices.
//
// DepthStencil.Format is ignored; devices fill in the format of the bound
// target. When the bound target has no depth/stencil attachment the depth
// and stencil tests are skipped.
type RenderState struct {
	Blend            gputypes.BlendState
	DepthStencil     gputypes.DepthStencilState
	StencilReference uint32
	Filter           gputypes.FilterMode
	WriteMask        gputypes.ColorWriteMask
}

// PipelineKey returns s without the dynamic stencil reference.
func (s RenderState) PipelineKey() RenderState {
	s.StencilReference = 0
	s.DepthStencil.Format = gputypes.TextureFormatUndefined
	return s
}

// BlendEnabled reports whether s blends with the destination.
func (s RenderState) BlendEnabled() bool {
	return s.Blend != gputypes.BlendState{} && s.Blend != gputypes.BlendStateReplace()
}

// keepFace always passes and never touches the stencil buffer.
func keepFace() gputypes.StencilFaceState {
	return gputypes.StencilFaceState{
		Compare:     gputypes.CompareFunctionAlways,
		FailOp:      gputypes.StencilOperationKeep,
		DepthFailOp: gputypes.StencilOperationKeep,
		PassOp:      gputypes.StencilOperationKeep,
	}
}

// StencilFace returns a face state testing compare and applying pass on
// success. Failing fragments keep the stored value.
func StencilFace(compare gputypes.CompareFunction, pass gputypes.StencilOperation) gputypes.StencilFaceState {
	return gputypes.StencilFaceState{
		Compare:     compare,
		FailOp:      gputypes.StencilOperationKeep,
		DepthFailOp: gputypes.StencilOperationKeep,
		PassOp:      pass,
	}
}

// NoDepth is a depth-stencil state that tests and writes nothing.
func NoDepth() gputypes.DepthStencilState {
	return gputypes.DepthStencilState{
		DepthWriteEnabled: false,
		DepthCompare:      gputypes.CompareFunctionAlways,
		StencilFront:      keepFace(),
		StencilBack:       keepFace(),
		StencilReadMask:   0xFF,
		StencilWriteMask:  0xFF,
	}
}

// DepthTest compares against the stored depth with GreaterEqual and
// optionally writes the fragment depth.
func DepthTest(write bool) gputypes.DepthStencilState {
	ds := NoDepth()
	ds.DepthWriteEnabled = write
	ds.DepthCompare = gputypes.CompareFunctionGreaterEqual
	return ds
}

// WithStencil returns ds with both faces set to face.
func WithStencil(ds gputypes.DepthStencilState, face gputypes.StencilFaceState) gputypes.DepthStencilState {
	ds.StencilFront = face
	ds.StencilBack = face
	return ds
}

// StateReplace overwrites the target without depth or stencil.
func StateReplace() RenderState {
	return RenderState{
		Blend:        gputypes.BlendStateReplace(),
		DepthStencil: NoDepth(),
		Filter:       gputypes.FilterModeNearest,
		WriteMask:    gputypes.ColorWriteMaskAll,
	}
}

// StateAlpha blends straight-alpha sources over the target.
func StateAlpha() RenderState {
	s := StateReplace()
	s.Blend = gputypes.BlendStateAlpha()
	return s
}

// StatePremultiplied blends premultiplied sources over the target. Used
// to composite UI targets whose color was accumulated over transparency.
func StatePremultiplied() RenderState {
	s := StateReplace()
	s.Blend = gputypes.BlendStatePremultiplied()
	return s
}

// StateAdditive adds source color scaled by its alpha to the target.
func StateAdditive() RenderState {
	s := StateReplace()
	s.Blend = gputypes.BlendState{
		Color: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorSrcAlpha,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
		Alpha: gputypes.BlendComponent{
			SrcFactor: gputypes.BlendFactorZero,
			DstFactor: gputypes.BlendFactorOne,
			Operation: gputypes.BlendOperationAdd,
		},
	}
	return s
}
