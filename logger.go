// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package isomap

import (
	"log/slog"

	"github.com/gogpu/isomap/internal/logging"
)

// SetLogger configures the logger for isomap and all its sub-packages.
// By default isomap produces no log output. Pass nil to restore silence.
//
// SetLogger is safe for concurrent use.
//
// Log levels used by isomap:
//   - [slog.LevelDebug]: batch and pipeline diagnostics
//   - [slog.LevelInfo]: lifecycle events (backend selected, atlas finalized)
//   - [slog.LevelWarn]: non-fatal issues (resource release failures)
//   - [slog.LevelError]: content errors such as atlas overflow, logged
//     before they are returned
//
// Example:
//
//	isomap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	logging.Set(l)
}

// Logger returns the current logger. Safe for concurrent use.
func Logger() *slog.Logger {
	return logging.L()
}
