package ot

import "iter"

// Coverage is a view onto a coverage table. A coverage table maps glyph IDs
// to dense coverage indices.
//
// Format 1 lists covered glyphs in ascending order, the coverage index being
// the position within the list:
//
//	uint16       coverageFormat   Format identifier: format = 1
//	uint16       glyphCount       Number of glyphs in the glyph array
//	uint16       glyphArray[]     Array of glyph IDs, in numerical order
//
// Format 2 lists ranges of consecutive glyph IDs:
//
//	uint16       coverageFormat   Format identifier: format = 2
//	uint16       rangeCount       Number of RangeRecords
//	RangeRecord  rangeRecords[]   Ordered by startGlyphID
//
// where each RangeRecord is (startGlyphID, endGlyphID, startCoverageIndex).
//
// The zero value of Coverage covers nothing.
type Coverage struct {
	b binarySegm
}

func coverageAt(b binarySegm) Coverage {
	if len(b) < minSizeCoverage {
		return Coverage{b: null("Coverage", minSizeCoverage)}
	}
	return Coverage{b: b}
}

// Format returns the format of the coverage table, or 0 for a null coverage.
func (c Coverage) Format() uint16 {
	return c.b.U16(0)
}

func (c Coverage) count() int {
	n := int(c.b.U16(2))
	switch c.Format() {
	case 1:
		return min(n, (len(c.b)-4)/2)
	case 2:
		return min(n, (len(c.b)-4)/6)
	}
	return 0
}

// Index returns the coverage index of glyph g, or NotCovered.
// Lookup is by binary search.
func (c Coverage) Index(g GlyphIndex) uint32 {
	switch c.Format() {
	case 1:
		lo, hi := 0, c.count()
		for lo < hi {
			mid := int(uint(lo+hi) >> 1)
			x := GlyphIndex(c.b.U16(4 + 2*mid))
			switch {
			case g < x:
				hi = mid
			case g > x:
				lo = mid + 1
			default:
				return uint32(mid)
			}
		}
	case 2:
		lo, hi := 0, c.count()
		for lo < hi {
			mid := int(uint(lo+hi) >> 1)
			rec := 4 + 6*mid
			start, end := GlyphIndex(c.b.U16(rec)), GlyphIndex(c.b.U16(rec+2))
			switch {
			case g < start:
				hi = mid
			case g > end:
				lo = mid + 1
			default:
				return uint32(c.b.U16(rec+4)) + uint32(g-start)
			}
		}
	}
	return NotCovered
}

// Contains reports whether g is covered.
func (c Coverage) Contains(g GlyphIndex) bool {
	return c.Index(g) != NotCovered
}

// Glyphs iterates over all covered glyphs together with their coverage
// indices, in ascending glyph order.
func (c Coverage) Glyphs() iter.Seq2[uint32, GlyphIndex] {
	return func(yield func(uint32, GlyphIndex) bool) {
		switch c.Format() {
		case 1:
			for i := range c.count() {
				if !yield(uint32(i), GlyphIndex(c.b.U16(4+2*i))) {
					return
				}
			}
		case 2:
			for i := range c.count() {
				rec := 4 + 6*i
				start, end := int(c.b.U16(rec)), int(c.b.U16(rec+2))
				inx := uint32(c.b.U16(rec + 4))
				for g := start; g <= end; g++ {
					if !yield(inx, GlyphIndex(g)) {
						return
					}
					inx++
				}
			}
		}
	}
}

// Intersects reports whether any covered glyph is contained in set.
func (c Coverage) Intersects(set GlyphSet) bool {
	if c.Format() == 1 && len(set) < c.count() {
		for g := range set {
			if c.Contains(g) {
				return true
			}
		}
		return false
	}
	for _, g := range c.Glyphs() {
		if set.Contains(g) {
			return true
		}
	}
	return false
}

// CollectInto adds every covered glyph to set.
func (c Coverage) CollectInto(set GlyphSet) {
	for _, g := range c.Glyphs() {
		set.Add(g)
	}
}
