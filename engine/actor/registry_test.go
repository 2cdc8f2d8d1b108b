package actor

import (
	"errors"
	"testing"
)

func ids(actors []Actor) []uint64 {
	out := make([]uint64, len(actors))
	for i, a := range actors {
		out[i] = a.ID()
	}
	return out
}

func equalIDs(a, b []uint64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestRegistryCapacity(t *testing.T) {
	const capacity = 3
	r := NewRegistry(capacity)
	for i := range capacity {
		if _, err := r.Spawn(); err != nil {
			t.Fatalf("Spawn %d: %v", i, err)
		}
	}
	if _, err := r.Spawn(); !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("Spawn beyond capacity = %v, want ErrCapacityExceeded", err)
	}
	if r.Count() != capacity {
		t.Errorf("Count() = %d after a refused spawn", r.Count())
	}

	r.Remove(2)
	if _, err := r.Spawn(); err != nil {
		t.Errorf("Spawn after Remove: %v", err)
	}
}

func TestRegistryStableOrder(t *testing.T) {
	r := NewRegistry(5)
	for range 4 {
		if _, err := r.Spawn(); err != nil {
			t.Fatal(err)
		}
	}
	if got := ids(r.Live()); !equalIDs(got, []uint64{1, 2, 3, 4}) {
		t.Fatalf("Live() = %v", got)
	}

	if !r.Remove(2) || r.Remove(2) {
		t.Fatal("Remove(2) should succeed once")
	}
	if r.Get(2) != nil || r.Get(3) == nil {
		t.Error("Get() disagrees with the live set")
	}
	a, err := r.Spawn()
	if err != nil {
		t.Fatal(err)
	}
	if a.ID() != 5 {
		t.Errorf("new ID = %d, want 5 (IDs are not reused)", a.ID())
	}
	if got := ids(r.Live()); !equalIDs(got, []uint64{1, 3, 4, 5}) {
		t.Errorf("Live() after remove and spawn = %v", got)
	}
}

func TestRegistryAdd(t *testing.T) {
	r := NewRegistry(4)
	if err := r.Add(NewActor(WithID(2))); err != nil {
		t.Fatal(err)
	}
	if err := r.Add(NewActor(WithID(2))); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("duplicate Add = %v, want ErrDuplicateID", err)
	}
	first, _ := r.Spawn()
	second, _ := r.Spawn()
	if first.ID() != 1 || second.ID() != 3 {
		t.Errorf("assigned IDs %d, %d, want 1, 3", first.ID(), second.ID())
	}

	r.Clear()
	if r.Count() != 0 || len(r.Live()) != 0 {
		t.Error("Clear() left actors behind")
	}
}
