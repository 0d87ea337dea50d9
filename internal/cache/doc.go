// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package cache provides a generic LRU cache with an eviction callback.
//
// The callback lets owners of GPU resources release a value as soon as it
// leaves the cache:
//
//	c := cache.New[string, gpu.Texture](64, cache.WithEvict(func(_ string, t gpu.Texture) {
//		dev.DestroyTexture(t)
//	}))
//
// Cache is safe for concurrent use. The eviction callback runs with the
// cache lock held and must not call back into the cache.
package cache
