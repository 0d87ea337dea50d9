// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package text rasterizes short map labels into Alpha8 textures.
//
// Labels are NFC-normalized before lookup, so composed and decomposed
// spellings of the same string share one texture. Textures live in an LRU
// cache and are destroyed when evicted or when the Rasterizer is closed.
package text
