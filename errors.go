// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package isomap

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned by RenderContext methods called before
	// Init or after TeardownAll.
	ErrNotInitialized = errors.New("isomap: render context not initialized")

	// ErrAlreadyInitialized is returned by a second Init.
	ErrAlreadyInitialized = errors.New("isomap: render context already initialized")

	// ErrUnknownBackend is returned when the configured backend has not
	// been registered.
	ErrUnknownBackend = errors.New("isomap: unknown backend")

	// ErrUnknownPalette is returned by PaletteRegistry.Get for names that
	// were never added.
	ErrUnknownPalette = errors.New("isomap: unknown palette")
)

// ConfigError reports an invalid Config field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("isomap: config %s: %s", e.Field, e.Reason)
}
