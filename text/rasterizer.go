// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package text

import (
	"fmt"
	"image"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
	"golang.org/x/text/unicode/norm"

	"github.com/gogpu/isomap/gpu"
	"github.com/gogpu/isomap/internal/cache"
	"github.com/gogpu/isomap/internal/logging"
)

// DefaultSize is the label size in pixels per em.
const DefaultSize = 12

// DefaultCacheSize is the number of label textures kept alive.
const DefaultCacheSize = 256

// Label is a rasterized string.
type Label struct {
	Texture gpu.Texture
	// Bounds is the covered texture rectangle, anchored at the origin.
	Bounds image.Rectangle
	// Ascent is the baseline offset from the top edge.
	Ascent int
}

// Option configures a Rasterizer.
type Option func(*options)

type options struct {
	size      float64
	cacheSize int
	ttf       []byte
}

// WithSize sets the font size in pixels per em.
func WithSize(px float64) Option {
	return func(o *options) { o.size = px }
}

// WithCacheSize sets how many label textures are cached.
func WithCacheSize(n int) Option {
	return func(o *options) { o.cacheSize = n }
}

// WithFont uses the given TrueType or OpenType data instead of Go Regular.
func WithFont(ttf []byte) Option {
	return func(o *options) { o.ttf = ttf }
}

// Rasterizer turns strings into cached label textures. It is safe for
// concurrent use.
//
// Evicted labels keep their textures until Release, so a texture returned
// by Label stays valid until the draws using it have been flushed.
type Rasterizer struct {
	dev   gpu.Device
	face  font.Face
	cache *cache.Cache[string, *Label]

	mu      sync.Mutex
	retired []gpu.Texture
}

// New returns a rasterizer creating textures on dev.
func New(dev gpu.Device, opts ...Option) (*Rasterizer, error) {
	o := options{size: DefaultSize, cacheSize: DefaultCacheSize, ttf: goregular.TTF}
	for _, opt := range opts {
		opt(&o)
	}
	f, err := opentype.Parse(o.ttf)
	if err != nil {
		return nil, fmt.Errorf("text: parse font: %w", err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    o.size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("text: new face: %w", err)
	}
	r := &Rasterizer{dev: dev, face: face}
	r.cache = cache.New(o.cacheSize, cache.WithEvict(func(key string, l *Label) {
		logging.L().Debug("text: label evicted", "label", key)
		r.mu.Lock()
		r.retired = append(r.retired, l.Texture)
		r.mu.Unlock()
	}))
	return r, nil
}

// Label returns the texture for s, rasterizing it on first use.
func (r *Rasterizer) Label(s string) (*Label, error) {
	key := norm.NFC.String(s)
	if key == "" {
		return nil, ErrEmptyLabel
	}
	return r.cache.GetOrCreate(key, func() (*Label, error) { return r.rasterize(key) })
}

// Len returns the number of cached labels.
func (r *Rasterizer) Len() int { return r.cache.Len() }

func (r *Rasterizer) rasterize(s string) (*Label, error) {
	d := &font.Drawer{Face: r.face, Src: image.Opaque}
	m := r.face.Metrics()
	ascent := m.Ascent.Ceil()
	w := max(d.MeasureString(s).Ceil(), 1)
	h := max(ascent+m.Descent.Ceil(), 1)

	img := image.NewAlpha(image.Rect(0, 0, w, h))
	d.Dst = img
	d.Dot = fixed.P(0, ascent)
	d.DrawString(s)

	tex, err := r.dev.CreateTexture(gpu.TextureDescriptor{
		Label:  "label:" + s,
		Width:  w,
		Height: h,
		Format: gpu.FormatAlpha8,
	})
	if err != nil {
		return nil, fmt.Errorf("text: %w", err)
	}
	if err := r.dev.UploadTexture(tex, img.Bounds(), img.Pix); err != nil {
		r.dev.DestroyTexture(tex)
		return nil, fmt.Errorf("text: %w", err)
	}
	return &Label{Texture: tex, Bounds: img.Bounds(), Ascent: ascent}, nil
}

// Retired returns the number of evicted textures waiting for Release.
func (r *Rasterizer) Retired() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.retired)
}

// Release destroys the textures of labels evicted since the last call.
// Call it after flushing every pass that drew labels.
func (r *Rasterizer) Release() {
	r.mu.Lock()
	retired := r.retired
	r.retired = nil
	r.mu.Unlock()
	for _, tex := range retired {
		r.dev.DestroyTexture(tex)
	}
}

// Close destroys every cached texture and the font face.
func (r *Rasterizer) Close() error {
	r.cache.Clear()
	r.Release()
	return r.face.Close()
}
