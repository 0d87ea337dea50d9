// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package isomap

import (
	"log/slog"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/isomap/gpu"
)

// Option configures a RenderContext during creation.
//
// Example:
//
//	// Software rendering with defaults
//	rc, err := isomap.NewRenderContext()
//
//	// Hardware rendering on the host's device
//	rc, err := isomap.NewRenderContext(
//	    isomap.WithProvider(provider),
//	    isomap.WithBackend(isomap.BackendHAL),
//	)
type Option func(*contextOptions)

type contextOptions struct {
	cfg      Config
	backend  *string
	logger   *slog.Logger
	device   gpu.Device
	provider gpucontext.DeviceProvider
}

func defaultOptions() contextOptions {
	return contextOptions{cfg: DefaultConfig()}
}

// WithConfig replaces DefaultConfig. Options applied after it still take
// effect.
func WithConfig(cfg Config) Option {
	return func(o *contextOptions) {
		o.cfg = cfg
	}
}

// WithLogger installs l as the package logger, as SetLogger does.
func WithLogger(l *slog.Logger) Option {
	return func(o *contextOptions) {
		o.logger = l
	}
}

// WithBackend overrides Config.Backend.
func WithBackend(name string) Option {
	return func(o *contextOptions) {
		o.backend = &name
	}
}

// WithDevice renders on dev instead of opening a backend. The caller keeps
// ownership: TeardownAll releases everything created on dev but does not
// close it.
func WithDevice(dev gpu.Device) Option {
	return func(o *contextOptions) {
		o.device = dev
	}
}

// WithProvider passes the host's GPU device to the backend factory.
func WithProvider(p gpucontext.DeviceProvider) Option {
	return func(o *contextOptions) {
		o.provider = p
	}
}
