// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"image"
	"image/color"
)

// Texture is an opaque handle to a sampled texture owned by a Device.
type Texture interface {
	Width() int
	Height() int
	Format() TextureFormat
	Label() string
}

// RenderTarget is an offscreen color target with an optional depth/stencil
// attachment. Its color texture can be sampled by later passes.
type RenderTarget interface {
	Width() int
	Height() int
	Color() Texture
	HasDepthStencil() bool
	Label() string
}

// TextureDescriptor describes a texture to create.
type TextureDescriptor struct {
	Label  string
	Width  int
	Height int
	Format TextureFormat
}

// RenderTargetDescriptor describes a render target to create. The color
// attachment is always FormatRGBA8.
type RenderTargetDescriptor struct {
	Label        string
	Width        int
	Height       int
	DepthStencil bool
}

// ClearFlags selects which attachments Clear resets.
type ClearFlags uint8

const (
	ClearColor ClearFlags = 1 << iota
	ClearDepth
	ClearStencil

	ClearAll = ClearColor | ClearDepth | ClearStencil
)

// DepthClearValue is the depth every cleared target starts at. Combined with
// GreaterEqual, anything drawn passes against a cleared buffer.
const DepthClearValue = 0

// Limits reports device capabilities the renderer sizes itself against.
type Limits struct {
	// MaxTextureDimension bounds atlas pages and render targets.
	MaxTextureDimension int

	// MaxVertices bounds one DrawIndexed call (the batch vertex ceiling).
	MaxVertices int
}

// Device is the GPU abstraction consumed by the batch pool, the draw
// recorder and the compositor. Methods are not safe for concurrent use; a
// Device belongs to the render goroutine.
type Device interface {
	// CreateTexture allocates a texture. Contents are undefined until
	// uploaded.
	CreateTexture(desc TextureDescriptor) (Texture, error)

	// UploadTexture writes tightly packed pixels into region of tex.
	UploadTexture(tex Texture, region image.Rectangle, pixels []byte) error

	// CopyTexture copies srcRect of src into dst at dstOrigin. Both
	// textures must share a format.
	CopyTexture(dst Texture, dstOrigin image.Point, src Texture, srcRect image.Rectangle) error

	// DestroyTexture releases tex. Destroying nil is a no-op.
	DestroyTexture(tex Texture)

	// CreateRenderTarget allocates an offscreen target.
	CreateRenderTarget(desc RenderTargetDescriptor) (RenderTarget, error)

	// DestroyRenderTarget releases rt and its attachments.
	DestroyRenderTarget(rt RenderTarget)

	// SetRenderTarget directs subsequent draws at rt.
	SetRenderTarget(rt RenderTarget) error

	// Viewport returns the bounds of the bound target.
	Viewport() image.Rectangle

	// Clear resets the selected attachments of the bound target. Color is
	// set to c, depth to DepthClearValue and stencil to zero.
	Clear(c color.NRGBA, flags ClearFlags) error

	// SetState sets blend, depth-stencil, stencil reference and sampler
	// state for subsequent draws.
	SetState(s RenderState)

	// SetEffect sets shader parameters for subsequent draws.
	SetEffect(e Effect)

	// DrawIndexed draws an indexed triangle list sampling tex.
	DrawIndexed(tex Texture, vertices []Vertex, indices []uint16) error

	// ReadPixels reads the color attachment of rt back to system memory.
	ReadPixels(rt RenderTarget) (*image.NRGBA, error)

	// Flush submits recorded work.
	Flush() error

	// Limits reports device capabilities.
	Limits() Limits

	// Close releases every resource still owned by the device.
	Close() error
}
