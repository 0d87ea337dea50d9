// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package halgpu implements gpu.Device on top of a wgpu hal device.
//
// The host application owns the hal device and queue; halgpu receives them
// through New or a gpucontext device provider and never destroys them.
// Every draw runs through one WGSL sprite shader whose effect mode is a
// uniform. Render pipelines are created lazily per fixed-function state and
// kept in an LRU cache.
//
// Commands are recorded into a single encoder and submitted by Flush. Per
// draw buffers and bind groups live until the submission that used them has
// completed.
package halgpu
