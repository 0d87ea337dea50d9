// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import "errors"

var (
	// ErrMissingRenderer is the panic value for an object whose category
	// has no renderer.
	ErrMissingRenderer = errors.New("compositor: no renderer for object category")

	// ErrNoWorld is returned by Frame before a world is attached.
	ErrNoWorld = errors.New("compositor: no world attached")

	// ErrUnknownObject is returned when an ObjectID is not in the arena.
	ErrUnknownObject = errors.New("compositor: unknown object")
)
