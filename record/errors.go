// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import "errors"

// ErrNilTexture is returned when an entry has no texture.
var ErrNilTexture = errors.New("record: entry has nil texture")
