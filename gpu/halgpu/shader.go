// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/gogpu/naga"

	"github.com/gogpu/isomap/gpu"
)

//go:embed shaders/sprite.wgsl
var spriteShaderSource string

var (
	validateOnce sync.Once
	validateErr  error
)

// validateShader compiles the sprite shader once with naga so syntax and
// type errors surface as gpu.ErrShaderLoad before any backend sees it.
func validateShader() error {
	validateOnce.Do(func() {
		if spriteShaderSource == "" {
			validateErr = fmt.Errorf("%w: sprite shader source is empty", gpu.ErrShaderLoad)
			return
		}
		if _, err := naga.Compile(spriteShaderSource); err != nil {
			validateErr = fmt.Errorf("%w: sprite shader: %w", gpu.ErrShaderLoad, err)
		}
	})
	return validateErr
}

// uniformSize is the byte size of the Uniforms block.
const uniformSize = 96

const flagPalette = 1

// uniformBytes encodes the effect for the Uniforms block.
func uniformBytes(e *gpu.Effect) []byte {
	buf := make([]byte, uniformSize)
	for i, v := range e.Projection {
		putFloat(buf[i*4:], v)
	}
	putUint(buf[64:], uint32(e.Mode))
	var flags uint32
	if e.Palette != nil {
		flags |= flagPalette
	}
	putUint(buf[68:], flags)
	putFloat(buf[80:], float32(e.RemapColor.R)/255)
	putFloat(buf[84:], float32(e.RemapColor.G)/255)
	putFloat(buf[88:], float32(e.RemapColor.B)/255)
	putFloat(buf[92:], float32(e.RemapColor.A)/255)
	return buf
}
