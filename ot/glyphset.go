package ot

import (
	"slices"

	"golang.org/x/exp/maps"
)

// GlyphSet is an unordered set of glyph IDs.
type GlyphSet map[GlyphIndex]struct{}

// NewGlyphSet creates a set holding the given glyphs.
func NewGlyphSet(glyphs ...GlyphIndex) GlyphSet {
	set := make(GlyphSet, len(glyphs))
	for _, g := range glyphs {
		set[g] = struct{}{}
	}
	return set
}

// Add inserts glyph g.
func (set GlyphSet) Add(g GlyphIndex) {
	set[g] = struct{}{}
}

// AddArray inserts every glyph of a glyph array.
func (set GlyphSet) AddArray(a U16Array) {
	for _, g := range a.Glyphs() {
		set[g] = struct{}{}
	}
}

// Contains reports whether g is an element of the set.
func (set GlyphSet) Contains(g GlyphIndex) bool {
	_, ok := set[g]
	return ok
}

// Len returns the population of the set.
func (set GlyphSet) Len() int {
	return len(set)
}

// Union adds all elements of other.
func (set GlyphSet) Union(other GlyphSet) {
	for g := range other {
		set[g] = struct{}{}
	}
}

// IsSubset reports whether every element of set is contained in other.
func (set GlyphSet) IsSubset(other GlyphSet) bool {
	if len(set) > len(other) {
		return false
	}
	for g := range set {
		if !other.Contains(g) {
			return false
		}
	}
	return true
}

// Clear removes all elements.
func (set GlyphSet) Clear() {
	clear(set)
}

// DeleteFrom removes all glyphs >= limit.
func (set GlyphSet) DeleteFrom(limit int) {
	for g := range set {
		if int(g) >= limit {
			delete(set, g)
		}
	}
}

// Clone returns a copy of the set.
func (set GlyphSet) Clone() GlyphSet {
	return maps.Clone(set)
}

// Glyphs returns the elements of the set in ascending order.
func (set GlyphSet) Glyphs() []GlyphIndex {
	gs := maps.Keys(set)
	slices.Sort(gs)
	return gs
}
