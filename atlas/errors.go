// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package atlas

import (
	"errors"
	"fmt"
)

var (
	// ErrAtlasOverflow reports an image larger than an empty page. It is a
	// content error and must reach the operator.
	ErrAtlasOverflow = errors.New("atlas: image larger than an empty page")

	// ErrPageOverflow reports AddImage on a workspace that cannot hold the
	// image. Callers check CanFit first; it is raised as a panic.
	ErrPageOverflow = errors.New("atlas: page overflow")

	// ErrInvalidImage reports a non-positive size or a pixel buffer whose
	// length does not match the size.
	ErrInvalidImage = errors.New("atlas: invalid image")

	// ErrFinalized reports use of a registry after Finalize.
	ErrFinalized = errors.New("atlas: registry already finalized")
)

// OverflowError describes an image that cannot fit on any page.
type OverflowError struct {
	Width, Height int
	Max           int
	Owner         string
}

func (e *OverflowError) Error() string {
	if e.Owner != "" {
		return fmt.Sprintf("atlas: image %q of %dx%d exceeds page size %d", e.Owner, e.Width, e.Height, e.Max)
	}
	return fmt.Sprintf("atlas: image of %dx%d exceeds page size %d", e.Width, e.Height, e.Max)
}

// Unwrap lets errors.Is match ErrAtlasOverflow.
func (e *OverflowError) Unwrap() error { return ErrAtlasOverflow }
