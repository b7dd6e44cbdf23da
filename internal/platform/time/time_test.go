package time

import (
	"testing"
	"time"
)

func TestManual(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m := NewManual(start)
	m.Advance(25 * time.Hour)
	if got := m.Now().Sub(start); got != 25*time.Hour {
		t.Fatalf("advance = %v", got)
	}
}

func TestOr(t *testing.T) {
	if Or(nil) != System {
		t.Fatalf("nil should fall back to System")
	}
	m := &Manual{}
	if Or(m) != m {
		t.Fatalf("non nil clock should pass through")
	}
}
