// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import (
	"fmt"
	"image"

	"github.com/gogpu/isomap/gpu"
)

// Owner receives the final location of an image when its registry is
// finalized.
type Owner interface {
	AtlasPlaced(page *Page, rect image.Rectangle)
}

// OwnerFunc adapts a function to Owner.
type OwnerFunc func(page *Page, rect image.Rectangle)

// AtlasPlaced implements Owner.
func (f OwnerFunc) AtlasPlaced(page *Page, rect image.Rectangle) { f(page, rect) }

// ownerLabel names an owner in diagnostics.
func ownerLabel(o Owner) string {
	if s, ok := o.(fmt.Stringer); ok {
		return s.String()
	}
	return ""
}

// Placement records where an image went. Rect is relative to the
// workspace until Finalize, then relative to Page.
type Placement struct {
	Owner Owner
	Rect  image.Rectangle
	Page  *Page
}

// Page is a finalized atlas texture. It is immutable and owned by the
// registry that created it.
type Page struct {
	Texture gpu.Texture
	// Sources counts the workspaces stacked into this page.
	Sources int
}

// Width returns the page width in pixels.
func (p *Page) Width() int { return p.Texture.Width() }

// Height returns the page height in pixels.
func (p *Page) Height() int { return p.Texture.Height() }
