// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import (
	"fmt"
	"image"
)

// DefaultMaxPageSize is the page dimension used when none is configured.
const DefaultMaxPageSize = 16384

// minGrowRows is the smallest number of rows the backing buffer grows by.
const minGrowRows = 64

// Workspace shelf-packs 8-bit images into one system-memory page.
//
// Images are placed left to right on the current shelf; when one does not
// fit the remaining width a new shelf starts below the tallest image of the
// current one. The backing buffer has a stride of the maximum page size and
// grows by rows, so an empty workspace costs nothing.
type Workspace struct {
	maxDim int
	pix    []byte

	cursorX   int
	cursorY   int
	rowHeight int

	// Used bounds, for exact-size textures.
	maxX int
	maxY int

	placements []*Placement
}

// NewWorkspace creates an empty workspace whose pages may grow to maxDim
// in each direction. A non-positive maxDim selects DefaultMaxPageSize.
func NewWorkspace(maxDim int) *Workspace {
	if maxDim <= 0 {
		maxDim = DefaultMaxPageSize
	}
	return &Workspace{maxDim: maxDim}
}

// MaxDimension returns the page size limit.
func (w *Workspace) MaxDimension() int { return w.maxDim }

// CanFit reports whether an image of width by height fits on the current
// shelf, or on a new shelf below it.
func (w *Workspace) CanFit(width, height int) bool {
	if width <= 0 || height <= 0 || width > w.maxDim || height > w.maxDim {
		return false
	}
	if w.cursorX+width <= w.maxDim && w.cursorY+height <= w.maxDim {
		return true
	}
	return w.cursorY+w.rowHeight+height <= w.maxDim
}

// AddImage copies a tightly packed width by height image into the page and
// returns its top-left corner.
//
// An image larger than the page in either direction is a content error
// (*OverflowError). Adding an image that CanFit rejects panics with
// ErrPageOverflow.
func (w *Workspace) AddImage(width, height int, pixels []byte, owner Owner) (image.Point, error) {
	if width > w.maxDim || height > w.maxDim {
		return image.Point{}, &OverflowError{Width: width, Height: height, Max: w.maxDim, Owner: ownerLabel(owner)}
	}
	if width <= 0 || height <= 0 || len(pixels) != width*height {
		return image.Point{}, fmt.Errorf("%w: %dx%d with %d bytes", ErrInvalidImage, width, height, len(pixels))
	}

	if w.cursorX+width > w.maxDim {
		w.newShelf()
	}
	if w.cursorY+height > w.maxDim {
		panic(fmt.Errorf("%w: %dx%d at y=%d on a %d page", ErrPageOverflow, width, height, w.cursorY, w.maxDim))
	}

	x, y := w.cursorX, w.cursorY
	w.ensureRows(y + height)
	for row := 0; row < height; row++ {
		off := (y+row)*w.maxDim + x
		copy(w.pix[off:off+width], pixels[row*width:(row+1)*width])
	}

	w.cursorX += width
	w.rowHeight = max(w.rowHeight, height)
	w.maxX = max(w.maxX, w.cursorX)
	w.maxY = max(w.maxY, y+height)

	pt := image.Pt(x, y)
	w.placements = append(w.placements, &Placement{
		Owner: owner,
		Rect:  image.Rectangle{Min: pt, Max: pt.Add(image.Pt(width, height))},
	})
	return pt, nil
}

// newShelf starts a new row below the tallest image of the current one.
func (w *Workspace) newShelf() {
	w.cursorY += w.rowHeight
	w.cursorX = 0
	w.rowHeight = 0
}

// ensureRows grows the buffer to hold at least rows rows.
func (w *Workspace) ensureRows(rows int) {
	have := len(w.pix) / w.maxDim
	if rows <= have {
		return
	}
	n := min(max(rows, have*2, minGrowRows), w.maxDim)
	grown := make([]byte, n*w.maxDim)
	copy(grown, w.pix)
	w.pix = grown
}

// UsedBounds returns the rectangle covering every placed image.
func (w *Workspace) UsedBounds() image.Rectangle {
	return image.Rect(0, 0, w.maxX, w.maxY)
}

// Empty reports whether no image has been added.
func (w *Workspace) Empty() bool { return len(w.placements) == 0 }

// Placements returns the provisional placements in insertion order.
func (w *Workspace) Placements() []*Placement { return w.placements }

// Pixels returns the used bounds as a tightly packed buffer.
func (w *Workspace) Pixels() []byte {
	out := make([]byte, w.maxX*w.maxY)
	for y := 0; y < w.maxY; y++ {
		copy(out[y*w.maxX:(y+1)*w.maxX], w.pix[y*w.maxDim:y*w.maxDim+w.maxX])
	}
	return out
}

// PixelAt returns the byte at (x, y), or 0 outside the used bounds.
func (w *Workspace) PixelAt(x, y int) byte {
	if x < 0 || y < 0 || x >= w.maxX || y >= w.maxY {
		return 0
	}
	return w.pix[y*w.maxDim+x]
}
