// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package atlas packs many small 8-bit images into few GPU textures.
//
// Packing happens in two phases. During bulk loading, one [Builder] per
// asset category shelf-packs images into system-memory [Workspace] pages,
// each on its own goroutine. Every Add returns a provisional [Placement].
// Once all producers have registered with the shared [Registry], a single
// Finalize call uploads each workspace at its exact used size, stacks pages
// vertically into composite textures up to the page size limit, and hands
// every owner its final page and rectangle.
//
// [Load] runs a set of category loaders concurrently and joins them before
// returning, so callers can finalize immediately afterwards.
package atlas
