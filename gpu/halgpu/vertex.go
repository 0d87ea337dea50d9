// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"encoding/binary"
	"math"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/isomap/gpu"
)

func putFloat(b []byte, v float32) { binary.LittleEndian.PutUint32(b, math.Float32bits(v)) }
func putUint(b []byte, v uint32)   { binary.LittleEndian.PutUint32(b, v) }

// spriteVertexLayout matches gpu.Vertex.
func spriteVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{{
		ArrayStride: gpu.VertexStride,
		StepMode:    gputypes.VertexStepModeVertex,
		Attributes: []gputypes.VertexAttribute{
			{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
			{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			{Format: gputypes.VertexFormatFloat32x4, Offset: 20, ShaderLocation: 2},
			{Format: gputypes.VertexFormatFloat32x4, Offset: 36, ShaderLocation: 4},
		},
	}}
}

// vertexBytes packs vertices in the spriteVertexLayout order.
func vertexBytes(vertices []gpu.Vertex) []byte {
	buf := make([]byte, len(vertices)*gpu.VertexStride)
	for i := range vertices {
		v := &vertices[i]
		b := buf[i*gpu.VertexStride:]
		putFloat(b[0:], v.X)
		putFloat(b[4:], v.Y)
		putFloat(b[8:], v.Z)
		putFloat(b[12:], v.U)
		putFloat(b[16:], v.V)
		for j := range 4 {
			putFloat(b[20+j*4:], v.Color[j])
			putFloat(b[36+j*4:], v.Custom[j])
		}
	}
	return buf
}

// indexBytes packs uint16 indices, padded to a four byte boundary for
// queue writes.
func indexBytes(indices []uint16) []byte {
	n := len(indices) * 2
	buf := make([]byte, (n+3)&^3)
	for i, idx := range indices {
		binary.LittleEndian.PutUint16(buf[i*2:], idx)
	}
	return buf
}
