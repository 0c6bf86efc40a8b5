package idgen

import (
	"testing"

	"github.com/steveyegge/flm/internal/types"
)

func TestAllocateStartsAtMaxCustomFilterID(t *testing.T) {
	a := New(types.MaxCustomFilterID + 1)
	id, err := a.Allocate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != types.MaxCustomFilterID {
		t.Errorf("first id = %d, want %d", id, types.MaxCustomFilterID)
	}
}

func TestAllocateIsStrictlyDecreasing(t *testing.T) {
	a := New(types.MaxCustomFilterID + 1)
	prev, err := a.Allocate()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 100; i++ {
		id, err := a.Allocate()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if id >= prev {
			t.Fatalf("id %d is not strictly less than previous %d", id, prev)
		}
		prev = id
	}
}

func TestAllocateErrorsWhenRangeExhausted(t *testing.T) {
	a := New(types.MinCustomFilterID + 1)
	if _, err := a.Allocate(); err != nil {
		t.Fatalf("last legal id should still allocate: %v", err)
	}
	if _, err := a.Allocate(); err == nil {
		t.Fatal("expected range-exhausted error")
	}
}
