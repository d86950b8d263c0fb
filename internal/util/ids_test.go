package util

import (
	"strings"
	"testing"
)

func wellFormed(id string) bool {
	return len(id) == idLength && strings.Trim(id, idAlphabet) == ""
}

func TestNewID(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id, err := NewID()
		if err != nil {
			t.Fatalf("NewID() error = %v", err)
		}
		if !wellFormed(id) {
			t.Fatalf("NewID() = %q, expected a valid id", id)
		}
		if seen[id] {
			t.Fatalf("NewID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestNewPrefixedID(t *testing.T) {
	id, err := NewPrefixedID("job")
	if err != nil {
		t.Fatalf("NewPrefixedID() error = %v", err)
	}
	rest, ok := strings.CutPrefix(id, "job_")
	if !ok || !wellFormed(rest) {
		t.Fatalf("expected job_<id>, got %q", id)
	}

	bare, err := NewPrefixedID("")
	if err != nil || !wellFormed(bare) {
		t.Fatalf("expected bare id, got %q (%v)", bare, err)
	}
}
