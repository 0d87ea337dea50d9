// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package isomap

import (
	"fmt"
	"slices"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/gpu/soft"
)

// Backend names.
const (
	BackendSoftware = "software"
	BackendHAL      = "hal"
)

// BackendFactory opens a device. provider is the host's GPU device, nil
// when the host supplied none.
type BackendFactory func(provider gpucontext.DeviceProvider) (gpu.Device, error)

// Hardware backends come first; software is the fallback.
var backends = gpucontext.NewRegistry[BackendFactory](
	gpucontext.WithPriority(BackendHAL, BackendSoftware),
)

func init() {
	RegisterBackend(BackendSoftware, func(gpucontext.DeviceProvider) (gpu.Device, error) {
		return soft.New(), nil
	})
}

// RegisterBackend registers a device factory under name, replacing any
// previous registration. Backend packages call it from init; importing
// github.com/gogpu/isomap/gpu/halgpu registers BackendHAL.
func RegisterBackend(name string, factory BackendFactory) {
	backends.Register(name, func() BackendFactory { return factory })
}

// Backends lists the registered backend names in sorted order.
func Backends() []string {
	names := backends.Available()
	slices.Sort(names)
	return names
}

// openBackend opens the named backend. An empty name picks the first
// registered backend in priority order that opens, skipping hardware
// backends when no provider is given.
func openBackend(name string, provider gpucontext.DeviceProvider) (gpu.Device, string, error) {
	if name != "" {
		factory := backends.Get(name)
		if factory == nil {
			return nil, "", fmt.Errorf("%w: %q (registered: %v)", ErrUnknownBackend, name, Backends())
		}
		dev, err := factory(provider)
		if err != nil {
			return nil, "", fmt.Errorf("isomap: open backend %s: %w", name, err)
		}
		return dev, name, nil
	}

	for _, candidate := range []string{BackendHAL, BackendSoftware} {
		if candidate == BackendHAL && provider == nil {
			continue
		}
		factory := backends.Get(candidate)
		if factory == nil {
			continue
		}
		dev, err := factory(provider)
		if err != nil {
			Logger().Warn("isomap: backend unavailable", "backend", candidate, "err", err)
			continue
		}
		return dev, candidate, nil
	}
	return nil, "", fmt.Errorf("%w: no usable backend among %v", ErrUnknownBackend, Backends())
}
