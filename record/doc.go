// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package record buffers one frame's draw requests, classifies them and
// replays them through a batch.Pool in a fixed order.
//
// Graphics entries are split into three buckets: shadows, non-paletted
// sprites, and paletted sprites grouped by palette and remap so each group
// binds its palette once. Text and line entries keep their own ordered
// lists. Flush draws lines, then paletted groups, then non-paletted
// sprites, then shadows, then text last so labels are depth tested
// against everything else.
package record
