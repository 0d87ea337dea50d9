// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import "fmt"

// Category is the closed set of drawable object kinds.
type Category uint8

const (
	Building Category = iota
	Unit
	Infantry
	Aircraft
	TerrainObject
	Animation
	Overlay
	Smudge

	numCategories
)

var categoryNames = [numCategories]string{
	Building:      "building",
	Unit:          "unit",
	Infantry:      "infantry",
	Aircraft:      "aircraft",
	TerrainObject: "terrain-object",
	Animation:     "animation",
	Overlay:       "overlay",
	Smudge:        "smudge",
}

// String returns the lower-case category name.
func (c Category) String() string {
	if c < numCategories {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", uint8(c))
}

// tiebreak orders categories whose objects share a sort position.
// Ground-level kinds come first, aircraft last.
func (c Category) tiebreak() int {
	switch c {
	case Smudge:
		return 0
	case Overlay:
		return 1
	case TerrainObject:
		return 2
	case Building:
		return 3
	case Infantry:
		return 4
	case Unit:
		return 5
	case Animation:
		return 6
	case Aircraft:
		return 7
	default:
		return 8
	}
}
