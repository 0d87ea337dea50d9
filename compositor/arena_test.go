// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compositor

import (
	"errors"
	"slices"
	"testing"
)

func TestArenaOwnership(t *testing.T) {
	a := NewArena()
	b := a.Add(Object{Category: Building})
	anims := []ObjectID{a.Add(Object{Category: Animation}), a.Add(Object{Category: Animation})}
	unit := a.Add(Object{Category: Unit})
	for _, id := range anims {
		if err := a.Attach(b, id); err != nil {
			t.Fatalf("Attach(%d): %v", id, err)
		}
	}

	o, _ := a.Get(anims[0])
	if o.Owner != b {
		t.Errorf("Owner = %d, want %d", o.Owner, b)
	}

	// Removing an animation detaches it from its building.
	a.Remove(anims[0])
	bo, _ := a.Get(b)
	if !slices.Equal(bo.Anims, anims[1:]) {
		t.Errorf("Anims = %v, want %v", bo.Anims, anims[1:])
	}

	if !a.Remove(b) {
		t.Fatal("Remove(building) = false")
	}
	if _, ok := a.Get(anims[1]); ok {
		t.Error("owned animation survived its building")
	}
	if got := a.Len(); got != 1 {
		t.Errorf("Len() = %d, want 1 (only the unit)", got)
	}
	if _, ok := a.Get(unit); !ok {
		t.Error("unrelated unit was removed")
	}
	if a.Remove(b) {
		t.Error("second Remove = true, want false")
	}
}

func TestArenaAttachValidation(t *testing.T) {
	a := NewArena()
	unit := a.Add(Object{Category: Unit})
	anim := a.Add(Object{Category: Animation})
	b1 := a.Add(Object{Category: Building})
	b2 := a.Add(Object{Category: Building})

	if err := a.Attach(unit, anim); err == nil {
		t.Error("Attach to a unit succeeded")
	}
	if err := a.Attach(b1, 999); !errors.Is(err, ErrUnknownObject) {
		t.Errorf("Attach(unknown) = %v, want ErrUnknownObject", err)
	}

	// Re-attaching moves ownership.
	_ = a.Attach(b1, anim)
	_ = a.Attach(b2, anim)
	o1, _ := a.Get(b1)
	o2, _ := a.Get(b2)
	if len(o1.Anims) != 0 || !slices.Equal(o2.Anims, []ObjectID{anim}) {
		t.Errorf("anims = %v and %v, want moved to the second building", o1.Anims, o2.Anims)
	}
}

func TestArenaEachOrder(t *testing.T) {
	a := NewArena()
	for range 5 {
		a.Add(Object{})
	}
	var ids []ObjectID
	a.Each(func(o *Object) { ids = append(ids, o.ID) })
	if want := []ObjectID{1, 2, 3, 4, 5}; !slices.Equal(ids, want) {
		t.Errorf("Each order = %v, want %v", ids, want)
	}
}

func TestCategoryString(t *testing.T) {
	tests := []struct {
		c    Category
		want string
	}{
		{Building, "building"},
		{TerrainObject, "terrain-object"},
		{Smudge, "smudge"},
		{Category(42), "category(42)"},
	}
	for _, tt := range tests {
		if got := tt.c.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.c, got, tt.want)
		}
	}
}
