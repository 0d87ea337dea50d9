// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package soft is a CPU implementation of gpu.Device.
//
// It rasterizes indexed triangle lists with the same fixed-function
// semantics a hardware pipeline applies: top-left fill rule, per-fragment
// stencil then depth tests using gputypes compare functions and stencil
// operations, blend equations, and color write masks. The shader stage is
// an interpreter for gpu.EffectMode.
//
// The device is the reference the rest of the module is tested against and
// backs headless map export. It is not safe for concurrent use.
package soft
