// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"image/color"

	"github.com/gogpu/gputypes"

	"github.com/gogpu/isomap/batch"
	"github.com/gogpu/isomap/text"
)

// Option configures a Compositor.
type Option func(*options)

type options struct {
	depth         DepthFunc
	paddingCells  int
	alphaLighting bool
	shadows       bool
	ambient       color.NRGBA
	filter        gputypes.FilterMode
	labels        *text.Rasterizer
	poolOptions   []batch.Option
	renderers     map[Category]ObjectRenderer
}

func defaultOptions() options {
	return options{
		paddingCells: 2,
		shadows:      true,
		ambient:      color.NRGBA{255, 255, 255, 255},
		filter:       gputypes.FilterModeNearest,
		renderers:    make(map[Category]ObjectRenderer),
	}
}

// WithDepthFunc sets the depth formula. The default is LinearDepth over
// the map height.
func WithDepthFunc(f DepthFunc) Option {
	return func(o *options) { o.depth = f }
}

// WithPadding sets how many cells beyond the camera are drawn so short
// pans need no redraw.
func WithPadding(cells int) Option {
	return func(o *options) { o.paddingCells = max(cells, 0) }
}

// WithAlphaLighting enables the light mask pass.
func WithAlphaLighting(enabled bool) Option {
	return func(o *options) { o.alphaLighting = enabled }
}

// WithAmbient sets the color the light mask is cleared to.
func WithAmbient(c color.NRGBA) Option {
	return func(o *options) { o.ambient = c }
}

// WithShadows toggles the shadow pass.
func WithShadows(enabled bool) Option {
	return func(o *options) { o.shadows = enabled }
}

// WithFilter sets the sampler used when scaling the camera region into the
// presentation target.
func WithFilter(f gputypes.FilterMode) Option {
	return func(o *options) { o.filter = f }
}

// WithLabels draws LabeledWorld labels with r. The caller keeps ownership.
func WithLabels(r *text.Rasterizer) Option {
	return func(o *options) { o.labels = r }
}

// WithPoolOptions configures the internal batch pool.
func WithPoolOptions(opts ...batch.Option) Option {
	return func(o *options) { o.poolOptions = append(o.poolOptions, opts...) }
}

// WithRenderer replaces the renderer of one category. A nil renderer makes
// objects of that category panic with ErrMissingRenderer.
func WithRenderer(c Category, r ObjectRenderer) Option {
	return func(o *options) { o.renderers[c] = r }
}
