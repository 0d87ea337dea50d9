// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import (
	"fmt"
	"image"
	"slices"
	"strings"
	"sync"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/logging"
)

// Registry collects finished builders and finalizes them into pages.
// Register is safe for concurrent use; Finalize and Destroy run on one
// goroutine after all producers have joined.
type Registry struct {
	maxDim int

	mu        sync.Mutex
	builders  []*Builder
	finalized bool

	pages []*Page
}

// NewRegistry creates an empty registry.
func NewRegistry(opts ...Option) *Registry {
	o := buildOptions(opts)
	return &Registry{maxDim: o.maxDim}
}

// MaxPageSize returns the page dimension limit.
func (r *Registry) MaxPageSize() int { return r.maxDim }

// Register appends a finished builder. It is the only synchronization
// point between category loaders.
func (r *Registry) Register(b *Builder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.finalized {
		return ErrFinalized
	}
	r.builders = append(r.builders, b)
	return nil
}

// staged is a workspace uploaded at its exact size during phase 1.
type staged struct {
	ws      *Workspace
	tex     gpu.Texture
	page    *Page
	yOffset int
}

// Finalize turns every registered workspace into GPU pages and notifies
// owners.
//
// Phase 1 uploads each workspace to a texture sized to its used bounds.
// Phase 2 stacks those textures vertically in order, starting a new
// composite whenever the running height would exceed the page limit.
// Phase 3 shifts every placement by its page's Y offset and calls the
// owner.
//
// Builders are processed in name order so the result does not depend on
// which loader finished first.
func (r *Registry) Finalize(dev gpu.Device) ([]*Page, error) {
	r.mu.Lock()
	if r.finalized {
		r.mu.Unlock()
		return nil, ErrFinalized
	}
	r.finalized = true
	builders := slices.Clone(r.builders)
	r.mu.Unlock()

	slices.SortStableFunc(builders, func(a, b *Builder) int {
		return strings.Compare(a.name, b.name)
	})

	maxDim := r.maxDim
	if lim := dev.Limits().MaxTextureDimension; lim > 0 && lim < maxDim {
		maxDim = lim
	}

	// Phase 1.
	var stages []*staged
	for _, b := range builders {
		for _, ws := range b.Workspaces() {
			bounds := ws.UsedBounds()
			if bounds.Dx() > maxDim || bounds.Dy() > maxDim {
				r.destroyStages(dev, stages)
				return nil, &OverflowError{Width: bounds.Dx(), Height: bounds.Dy(), Max: maxDim, Owner: b.name}
			}
			tex, err := dev.CreateTexture(gpu.TextureDescriptor{
				Label:  fmt.Sprintf("atlas_%s_%d", b.name, len(stages)),
				Width:  bounds.Dx(),
				Height: bounds.Dy(),
				Format: gpu.FormatIndexed8,
			})
			if err != nil {
				r.destroyStages(dev, stages)
				return nil, fmt.Errorf("atlas: create page texture: %w", err)
			}
			stages = append(stages, &staged{ws: ws, tex: tex})
			if err := dev.UploadTexture(tex, bounds, ws.Pixels()); err != nil {
				r.destroyStages(dev, stages)
				return nil, fmt.Errorf("atlas: upload page: %w", err)
			}
		}
	}

	// Phase 2.
	var run []*staged
	runHeight := 0
	for _, s := range stages {
		h := s.ws.UsedBounds().Dy()
		if len(run) > 0 && runHeight+h > maxDim {
			if err := r.emit(dev, run); err != nil {
				r.destroyStages(dev, stages)
				return nil, err
			}
			run, runHeight = nil, 0
		}
		s.yOffset = runHeight
		run = append(run, s)
		runHeight += h
	}
	if len(run) > 0 {
		if err := r.emit(dev, run); err != nil {
			r.destroyStages(dev, stages)
			return nil, err
		}
	}

	// Phase 3.
	images := 0
	for _, s := range stages {
		for _, p := range s.ws.Placements() {
			p.Rect = p.Rect.Add(image.Pt(0, s.yOffset))
			p.Page = s.page
			if p.Owner != nil {
				p.Owner.AtlasPlaced(s.page, p.Rect)
			}
			images++
		}
	}

	logging.L().Info("atlas: finalized",
		"categories", len(builders), "workspaces", len(stages),
		"pages", len(r.pages), "images", images)
	return r.pages, nil
}

// emit produces one page from a run of stacked stages. A run of one keeps
// its phase 1 texture; longer runs are copied into a composite and their
// phase 1 textures destroyed.
func (r *Registry) emit(dev gpu.Device, run []*staged) error {
	if len(run) == 1 {
		page := &Page{Texture: run[0].tex, Sources: 1}
		run[0].page = page
		run[0].tex = nil
		r.pages = append(r.pages, page)
		return nil
	}

	width, height := 0, 0
	for _, s := range run {
		width = max(width, s.tex.Width())
		height += s.tex.Height()
	}
	composite, err := dev.CreateTexture(gpu.TextureDescriptor{
		Label:  fmt.Sprintf("atlas_page_%d", len(r.pages)),
		Width:  width,
		Height: height,
		Format: gpu.FormatIndexed8,
	})
	if err != nil {
		return fmt.Errorf("atlas: create composite page: %w", err)
	}
	page := &Page{Texture: composite, Sources: len(run)}
	for _, s := range run {
		src := image.Rect(0, 0, s.tex.Width(), s.tex.Height())
		if err := dev.CopyTexture(composite, image.Pt(0, s.yOffset), s.tex, src); err != nil {
			dev.DestroyTexture(composite)
			return fmt.Errorf("atlas: stack page: %w", err)
		}
	}
	for _, s := range run {
		dev.DestroyTexture(s.tex)
		s.tex = nil
		s.page = page
	}
	r.pages = append(r.pages, page)
	return nil
}

// destroyStages releases everything created by a failed Finalize.
func (r *Registry) destroyStages(dev gpu.Device, stages []*staged) {
	for _, s := range stages {
		if s.tex != nil {
			dev.DestroyTexture(s.tex)
			s.tex = nil
		}
	}
	for _, p := range r.pages {
		dev.DestroyTexture(p.Texture)
	}
	r.pages = nil
}

// Pages returns the finalized pages.
func (r *Registry) Pages() []*Page { return r.pages }

// Destroy releases every page texture.
func (r *Registry) Destroy(dev gpu.Device) {
	for _, p := range r.pages {
		dev.DestroyTexture(p.Texture)
	}
	r.pages = nil
}
