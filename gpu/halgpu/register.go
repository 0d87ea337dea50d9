// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package halgpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/gogpu/isomap"
	"github.com/gogpu/isomap/gpu"
)

// Importing this package registers the "hal" backend:
//
//	import _ "github.com/gogpu/isomap/gpu/halgpu"
func init() {
	isomap.RegisterBackend(isomap.BackendHAL, func(p gpucontext.DeviceProvider) (gpu.Device, error) {
		return NewFromProvider(p)
	})
}
