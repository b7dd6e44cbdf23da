// Package names keeps a plurality-voted display name per number
package names

import (
	"slices"

	"callerid/internal/core/normalize"
)

// Variation is one candidate display name and how often it was seen
type Variation struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Variations is ordered by Count descending. Among equal counts the entry that
// reached the count first stays ahead, and a brand new name ranks above older
// names it ties with
type Variations []Variation

// Likely returns the current best name or "" when empty
func (vs Variations) Likely() string {
	if len(vs) == 0 {
		return ""
	}
	return vs[0].Name
}

// Find returns the index of the case-insensitive match for name or -1
func (vs Variations) Find(name string) int {
	key := normalize.FoldName(name)
	if key == "" {
		return -1
	}
	for i, v := range vs {
		if normalize.FoldName(v.Name) == key {
			return i
		}
	}
	return -1
}

// Sight records one sighting of name and returns the re-sorted copy.
// Blank names are ignored and return vs unchanged
func (vs Variations) Sight(name string) Variations {
	name = normalize.Name(name)
	if name == "" {
		return vs
	}

	out := make(Variations, 0, len(vs)+1)
	if i := vs.Find(name); i >= 0 {
		out = append(out, vs...)
		out[i].Count++
	} else {
		// new names go first so a stable sort lets them win ties with older entries
		out = append(out, Variation{Name: name, Count: 1})
		out = append(out, vs...)
	}

	slices.SortStableFunc(out, func(a, b Variation) int { return b.Count - a.Count })
	return out
}

// SightAll folds a batch of sightings in order
func (vs Variations) SightAll(names ...string) Variations {
	for _, n := range names {
		vs = vs.Sight(n)
	}
	return vs
}
