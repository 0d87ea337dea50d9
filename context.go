// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package isomap

import (
	"context"
	"errors"
	"fmt"
	"image"
	"sync"

	"github.com/gogpu/gpucontext"

	"github.com/gogpu/isomap/atlas"
	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/compositor"
	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/text"
)

// RenderContext owns the process-wide rendering resources: the device, the
// finalized atlas pages, palettes and the label rasterizer. Init creates
// them in order and TeardownAll releases them in reverse.
//
// A RenderContext is safe for concurrent use, but the device it hands out
// belongs to one render goroutine.
type RenderContext struct {
	mu sync.Mutex

	cfg      Config
	provider gpucontext.DeviceProvider

	dev        gpu.Device
	ownsDevice bool
	backend    string

	atlas       *atlas.Registry
	palettes    *PaletteRegistry
	labels      *text.Rasterizer
	compositors []*compositor.Compositor

	initialized bool
}

// NewRenderContext validates the configuration. Nothing is allocated until
// Init.
func NewRenderContext(opts ...Option) (*RenderContext, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger != nil {
		SetLogger(o.logger)
	}
	if o.backend != nil {
		o.cfg.Backend = *o.backend
	}
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}
	rc := &RenderContext{cfg: o.cfg, provider: o.provider}
	if o.device != nil {
		rc.dev = o.device
		rc.backend = "external"
	}
	return rc, nil
}

// Init opens the device, runs loaders in parallel to fill the atlas and
// finalizes it into GPU pages. On failure everything created so far is
// released and the context may be initialized again.
func (rc *RenderContext) Init(ctx context.Context, loaders ...atlas.Loader) (err error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.initialized {
		return ErrAlreadyInitialized
	}
	defer func() {
		if err != nil {
			rc.teardown()
		}
	}()

	if rc.dev == nil {
		dev, name, err := openBackend(rc.cfg.Backend, rc.provider)
		if err != nil {
			return err
		}
		rc.dev, rc.ownsDevice, rc.backend = dev, true, name
	}
	Logger().Info("isomap: backend selected", "backend", rc.backend, "limits", rc.dev.Limits())

	rc.atlas = atlas.NewRegistry(atlas.WithMaxPageSize(rc.cfg.MaxPageSize))
	if err := atlas.Load(ctx, rc.atlas, loaders...); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("isomap: init: %w", err)
	}
	pages, err := rc.atlas.Finalize(rc.dev)
	if err != nil {
		Logger().Error("isomap: atlas finalize failed", "err", err)
		return err
	}
	Logger().Info("isomap: atlas finalized", "pages", len(pages), "loaders", len(loaders))

	rc.palettes = NewPaletteRegistry(rc.dev)
	rc.labels, err = text.New(rc.dev, text.WithSize(rc.cfg.LabelSize))
	if err != nil {
		return fmt.Errorf("isomap: labels: %w", err)
	}

	rc.initialized = true
	return nil
}

// Initialized reports whether Init has succeeded and TeardownAll has not run.
func (rc *RenderContext) Initialized() bool {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.initialized
}

// Config returns the configuration the context was created with.
func (rc *RenderContext) Config() Config { return rc.cfg }

// Backend returns the name of the backend in use, or "external" for a
// device passed with WithDevice.
func (rc *RenderContext) Backend() string {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.backend
}

// Device returns the device, or ErrNotInitialized.
func (rc *RenderContext) Device() (gpu.Device, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.initialized {
		return nil, ErrNotInitialized
	}
	return rc.dev, nil
}

// Pages returns the finalized atlas pages.
func (rc *RenderContext) Pages() []*atlas.Page {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.atlas == nil {
		return nil
	}
	return rc.atlas.Pages()
}

// Palettes returns the palette registry, or nil before Init.
func (rc *RenderContext) Palettes() *PaletteRegistry {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.palettes
}

// Labels returns the shared label rasterizer, or nil before Init.
func (rc *RenderContext) Labels() *text.Rasterizer {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.labels
}

// NewCompositor creates a compositor for world configured from Config.
// opts are applied after the configured ones. The compositor is closed by
// TeardownAll unless the caller closes it first.
func (rc *RenderContext) NewCompositor(world compositor.World, opts ...compositor.Option) (*compositor.Compositor, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if !rc.initialized {
		return nil, ErrNotInitialized
	}

	cfg := &rc.cfg
	base := []compositor.Option{
		compositor.WithPadding(cfg.Padding),
		compositor.WithAlphaLighting(cfg.AlphaLighting),
		compositor.WithShadows(cfg.Shadows),
		compositor.WithAmbient(cfg.Ambient.NRGBA()),
		compositor.WithFilter(cfg.FilterMode()),
		compositor.WithLabels(rc.labels),
		compositor.WithPoolOptions(batch.WithVertexCeiling(cfg.MaxVertices)),
	}
	c, err := compositor.New(rc.dev, world, cfg.ViewWidth, cfg.ViewHeight, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	c.SetCamera(image.Point{}, cfg.Zoom)
	if cfg.FullMap {
		c.AttachFullMapConsumer()
	}
	rc.compositors = append(rc.compositors, c)
	return c, nil
}

// TeardownAll releases compositors, labels, palettes, atlas pages and, when
// the context opened it, the device. It is safe to call more than once.
func (rc *RenderContext) TeardownAll() error {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.teardown()
}

func (rc *RenderContext) teardown() error {
	var errs []error
	for _, c := range rc.compositors {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rc.compositors = nil

	if rc.labels != nil {
		if err := rc.labels.Close(); err != nil {
			errs = append(errs, err)
		}
		rc.labels = nil
	}
	if rc.palettes != nil {
		rc.palettes.Destroy()
		rc.palettes = nil
	}
	if rc.atlas != nil {
		if rc.dev != nil {
			rc.atlas.Destroy(rc.dev)
		}
		rc.atlas = nil
	}
	if rc.dev != nil && rc.ownsDevice {
		if err := rc.dev.Flush(); err != nil {
			errs = append(errs, err)
		}
		if err := rc.dev.Close(); err != nil {
			errs = append(errs, err)
		}
		rc.dev, rc.backend, rc.ownsDevice = nil, "", false
	}

	if rc.initialized {
		Logger().Info("isomap: render context torn down")
	}
	rc.initialized = false
	if err := errors.Join(errs...); err != nil {
		Logger().Warn("isomap: teardown", "err", err)
		return err
	}
	return nil
}
