// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package record

import "math"

func hypot(x, y float32) float64 { return math.Hypot(float64(x), float64(y)) }
