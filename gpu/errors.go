// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import "errors"

var (
	// ErrShaderLoad is returned when a shader module fails to compile or
	// validate. It is fatal at init time.
	ErrShaderLoad = errors.New("gpu: shader load failed")

	// ErrTextureLoad is returned when a texture or render target cannot be
	// allocated or uploaded.
	ErrTextureLoad = errors.New("gpu: texture load failed")

	// ErrUnsupported is returned for operations a device cannot perform.
	ErrUnsupported = errors.New("gpu: operation not supported")

	// ErrForeignResource is returned when a texture or target created by a
	// different device is passed in.
	ErrForeignResource = errors.New("gpu: resource belongs to another device")

	// ErrDestroyed is returned when a destroyed texture or target is used.
	ErrDestroyed = errors.New("gpu: resource destroyed")

	// ErrNoTarget is returned by draw calls issued before SetRenderTarget.
	ErrNoTarget = errors.New("gpu: no render target bound")
)
