// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import (
	"errors"

	"github.com/gogpu/isomap/internal/logging"
)

// Option configures a Builder or a Registry.
type Option func(*options)

type options struct {
	maxDim int
}

// WithMaxPageSize sets the page dimension limit.
func WithMaxPageSize(n int) Option {
	return func(o *options) { o.maxDim = n }
}

func buildOptions(opts []Option) options {
	o := options{maxDim: DefaultMaxPageSize}
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxDim <= 0 {
		o.maxDim = DefaultMaxPageSize
	}
	return o
}

// Builder packs the images of one asset category into a sequence of
// workspaces. A Builder is owned by a single goroutine.
type Builder struct {
	name     string
	maxDim   int
	current  *Workspace
	finished []*Workspace
}

// NewBuilder creates a builder for the named category.
func NewBuilder(name string, opts ...Option) *Builder {
	o := buildOptions(opts)
	return &Builder{name: name, maxDim: o.maxDim}
}

// Name returns the category name.
func (b *Builder) Name() string { return b.name }

// GetOrCreateWorkspace returns a workspace that can hold a width by height
// image. When the current workspace is too full it is retired to the
// finished list and a new one is started.
func (b *Builder) GetOrCreateWorkspace(width, height int) (*Workspace, error) {
	if width > b.maxDim || height > b.maxDim {
		return nil, &OverflowError{Width: width, Height: height, Max: b.maxDim}
	}
	if b.current != nil && !b.current.CanFit(width, height) {
		b.retire()
	}
	if b.current == nil {
		b.current = NewWorkspace(b.maxDim)
	}
	return b.current, nil
}

// Add packs an image and returns its provisional placement. Overflow is
// logged before it is returned so it cannot be lost by a careless caller.
func (b *Builder) Add(width, height int, pixels []byte, owner Owner) (*Placement, error) {
	ws, err := b.GetOrCreateWorkspace(width, height)
	if err == nil {
		_, err = ws.AddImage(width, height, pixels, owner)
	}
	if err != nil {
		var oe *OverflowError
		if errors.As(err, &oe) {
			oe.Owner = ownerLabel(owner)
			logging.L().Error("atlas: image does not fit an empty page",
				"category", b.name, "owner", oe.Owner,
				"width", width, "height", height, "max", b.maxDim)
		}
		return nil, err
	}
	placements := ws.Placements()
	return placements[len(placements)-1], nil
}

func (b *Builder) retire() {
	if b.current != nil && !b.current.Empty() {
		b.finished = append(b.finished, b.current)
	}
	b.current = nil
}

// Workspaces retires the current workspace and returns every non-empty
// workspace in creation order.
func (b *Builder) Workspaces() []*Workspace {
	b.retire()
	return b.finished
}
