// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"fmt"
	"image"
	"image/color"
	"slices"
)

// ObjectID identifies an object in an Arena. The zero ID is never issued.
type ObjectID uint32

// Foundation holds the left, bottom and right corners of a building's
// ground diamond in full-map pixels.
type Foundation struct {
	Left, Bottom, Right image.Point
}

// IsZero reports whether f is unset.
func (f Foundation) IsZero() bool { return f == Foundation{} }

// Object is one drawable map object.
type Object struct {
	ID       ObjectID
	Category Category
	Cell     CellRef
	// Anchor is the ground point in full-map pixels.
	Anchor image.Point

	Sprite Sprite
	Shadow Sprite
	// Tint multiplies the sprite. The zero value draws untinted.
	Tint       color.NRGBA
	RemapColor color.NRGBA
	// Flat overlays are drawn in the decal pass.
	Flat bool

	// Building parts.
	Foundation Foundation
	Bib        Sprite
	Turret     Sprite
	SplitBody  bool
	Anims      []ObjectID

	// Owner is the building an animation is attached to. It does not own
	// the building.
	Owner ObjectID
	// SortKey orders attached animations: negative keys draw before the
	// body, the rest after it.
	SortKey int
}

// decal reports whether o belongs in the flat decal pass.
func (o *Object) decal() bool {
	return o.Category == Smudge || (o.Category == Overlay && o.Flat)
}

// tint returns the effective multiplier color.
func (o *Object) tint() color.NRGBA {
	if o.Tint == (color.NRGBA{}) {
		return color.NRGBA{255, 255, 255, 255}
	}
	return o.Tint
}

// Arena stores objects by ID. Buildings own their attached animations.
type Arena struct {
	objects map[ObjectID]*Object
	next    ObjectID
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{objects: make(map[ObjectID]*Object)}
}

// Add stores a copy of o under a fresh ID and returns the ID.
func (a *Arena) Add(o Object) ObjectID {
	a.next++
	o.ID = a.next
	o.Anims = slices.Clone(o.Anims)
	a.objects[o.ID] = &o
	return o.ID
}

// Get returns the object for id.
func (a *Arena) Get(id ObjectID) (*Object, bool) {
	o, ok := a.objects[id]
	return o, ok
}

// Len returns the number of stored objects.
func (a *Arena) Len() int { return len(a.objects) }

// Attach gives ownership of the animation anim to building.
func (a *Arena) Attach(building, anim ObjectID) error {
	b, ok := a.objects[building]
	if !ok {
		return fmt.Errorf("%w: building %d", ErrUnknownObject, building)
	}
	if b.Category != Building {
		return fmt.Errorf("compositor: attach to %s %d, want building", b.Category, building)
	}
	an, ok := a.objects[anim]
	if !ok {
		return fmt.Errorf("%w: animation %d", ErrUnknownObject, anim)
	}
	if an.Owner != 0 {
		a.detach(an)
	}
	an.Owner = building
	b.Anims = append(b.Anims, anim)
	return nil
}

func (a *Arena) detach(anim *Object) {
	if owner, ok := a.objects[anim.Owner]; ok {
		owner.Anims = slices.DeleteFunc(owner.Anims, func(id ObjectID) bool { return id == anim.ID })
	}
	anim.Owner = 0
}

// Remove deletes id. Removing a building also removes every animation it
// owns. It reports whether id was present.
func (a *Arena) Remove(id ObjectID) bool {
	o, ok := a.objects[id]
	if !ok {
		return false
	}
	if o.Owner != 0 {
		a.detach(o)
	}
	for _, anim := range o.Anims {
		delete(a.objects, anim)
	}
	delete(a.objects, id)
	return true
}

// Each calls fn for every object in ascending ID order.
func (a *Arena) Each(fn func(*Object)) {
	ids := make([]ObjectID, 0, len(a.objects))
	for id := range a.objects {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	for _, id := range ids {
		fn(a.objects[id])
	}
}
