// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"fmt"

	"github.com/gogpu/isomap/gpu"
)

// targetSet holds the full-map render targets.
//
//   - terrain: color + depth/stencil, every world pass draws here
//   - staticUI, perFrameUI: color, transparent UI layers
//   - composite: color + depth, terrain plus lighting plus UI
//   - alphaMask, alphaMaskRead: color, only while light decals exist
type targetSet struct {
	terrain       gpu.RenderTarget
	staticUI      gpu.RenderTarget
	perFrameUI    gpu.RenderTarget
	composite     gpu.RenderTarget
	alphaMask     gpu.RenderTarget
	alphaMaskRead gpu.RenderTarget
	width         int
	height        int
}

// ensure creates the full-map targets at w by h. It is a no-op when the
// size matches; otherwise every old target is destroyed before any new
// one is created.
func (ts *targetSet) ensure(dev gpu.Device, w, h int) error {
	if ts.width == w && ts.height == h && ts.terrain != nil {
		return nil
	}
	ts.destroy(dev)

	specs := []struct {
		dst          *gpu.RenderTarget
		label        string
		depthStencil bool
	}{
		{&ts.terrain, "terrain", true},
		{&ts.staticUI, "static_ui", false},
		{&ts.perFrameUI, "per_frame_ui", false},
		{&ts.composite, "composite", true},
	}
	for _, s := range specs {
		rt, err := dev.CreateRenderTarget(gpu.RenderTargetDescriptor{
			Label: s.label, Width: w, Height: h, DepthStencil: s.depthStencil,
		})
		if err != nil {
			ts.destroy(dev)
			return fmt.Errorf("create %s target: %w", s.label, err)
		}
		*s.dst = rt
	}
	ts.width = w
	ts.height = h
	return nil
}

// ensureLighting creates the light mask targets when missing.
func (ts *targetSet) ensureLighting(dev gpu.Device) error {
	if ts.alphaMask != nil {
		return nil
	}
	mask, err := dev.CreateRenderTarget(gpu.RenderTargetDescriptor{Label: "alpha_mask", Width: ts.width, Height: ts.height})
	if err != nil {
		return fmt.Errorf("create alpha mask target: %w", err)
	}
	read, err := dev.CreateRenderTarget(gpu.RenderTargetDescriptor{Label: "alpha_mask_read", Width: ts.width, Height: ts.height})
	if err != nil {
		dev.DestroyRenderTarget(mask)
		return fmt.Errorf("create alpha mask read target: %w", err)
	}
	ts.alphaMask, ts.alphaMaskRead = mask, read
	return nil
}

// releaseLighting destroys the light mask targets.
func (ts *targetSet) releaseLighting(dev gpu.Device) {
	release(dev, &ts.alphaMask)
	release(dev, &ts.alphaMaskRead)
}

// destroy releases every target and resets the size.
func (ts *targetSet) destroy(dev gpu.Device) {
	ts.releaseLighting(dev)
	release(dev, &ts.composite)
	release(dev, &ts.perFrameUI)
	release(dev, &ts.staticUI)
	release(dev, &ts.terrain)
	ts.width = 0
	ts.height = 0
}

func release(dev gpu.Device, rt *gpu.RenderTarget) {
	if *rt != nil {
		dev.DestroyRenderTarget(*rt)
		*rt = nil
	}
}
