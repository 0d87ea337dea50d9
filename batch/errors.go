// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package batch

import "errors"

var (
	// ErrBatchUsage reports Begin without End or Draw/End without Begin.
	// It is raised as a panic: the caller has a bug.
	ErrBatchUsage = errors.New("batch: Begin/End misuse")

	// ErrStaleBatch reports a recycled batch that still references a
	// texture or quads. Only checked in isomapdebug builds.
	ErrStaleBatch = errors.New("batch: stale recycled batch")
)
