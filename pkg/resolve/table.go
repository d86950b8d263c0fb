package resolve

import (
	"github.com/assemblage/backend/pkg/common"
)

type tableEntry struct {
	normalized string
	id         string
}

// NameTable maps free-text names onto canonical actor IDs. Lookups try the
// exact normalized name first and fall back to a fuzzy scan in insertion
// order, so the first registered actor wins when several names match.
//
// A NameTable is built per request and is not safe for concurrent writes.
type NameTable struct {
	exact     map[string]string
	entries   []tableEntry
	threshold int
}

// NewNameTable indexes the given actors by normalized name. Actors whose
// name normalizes to the empty string are not indexed.
func NewNameTable(actors []common.Actor) *NameTable {
	t := &NameTable{
		exact:     make(map[string]string, len(actors)),
		entries:   make([]tableEntry, 0, len(actors)),
		threshold: DefaultDistanceThreshold,
	}
	for _, a := range actors {
		t.Add(a.Name, a.ID)
	}
	return t
}

// WithThreshold sets the edit distance used by the fuzzy fallback.
func (t *NameTable) WithThreshold(threshold int) *NameTable {
	t.threshold = threshold
	return t
}

// Add registers name as an alias for id. Earlier registrations of the same
// normalized name take precedence.
func (t *NameTable) Add(name, id string) {
	n := Normalize(name)
	if n == "" || id == "" {
		return
	}
	if _, exists := t.exact[n]; exists {
		return
	}
	t.exact[n] = id
	t.entries = append(t.entries, tableEntry{normalized: n, id: id})
}

// Resolve returns the actor ID name refers to.
func (t *NameTable) Resolve(name string) (string, bool) {
	n := Normalize(name)
	if n == "" {
		return "", false
	}
	if id, ok := t.exact[n]; ok {
		return id, true
	}
	for _, e := range t.entries {
		if MatchesWithin(e.normalized, n, t.threshold) {
			return e.id, true
		}
	}
	return "", false
}

// Len returns the number of indexed names.
func (t *NameTable) Len() int {
	return len(t.entries)
}
