// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package text

import "errors"

// ErrEmptyLabel is returned for a label with no text.
var ErrEmptyLabel = errors.New("text: empty label")
