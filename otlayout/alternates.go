package otlayout

import "github.com/npillmayer/otsubst/ot"

// GlyphAlternates lists the alternates an alternate substitution lookup
// offers for glyph g, starting at alternate #start and returning at most n
// of them. n < 0 returns all alternates from start on. total is the number
// of alternates available for g, independent of start and n, and may be
// used to page through the list.
//
// Lookups wrapped in extension subtables are looked through. The first
// subtable with alternates for g wins. Lookups of other types yield no
// alternates.
func GlyphAlternates(face *ot.Face, inx int, g ot.GlyphIndex, start, n int) (alternates []ot.GlyphIndex, total int) {
	l, ok := face.Lookup(inx)
	if !ok || l.EffectiveType() != ot.GSubLookupTypeAlternate {
		return nil, 0
	}
	for i := range l.SubtableCount() {
		st := l.Subtable(i).Resolve()
		if st.Type != ot.GSubLookupTypeAlternate || st.Format() != 1 {
			continue
		}
		alternate := st.Alternate()
		cinx := alternate.Coverage().Index(g)
		if cinx == ot.NotCovered {
			continue
		}
		set := alternate.AlternateSet(int(cinx))
		if total = set.Len(); total == 0 {
			continue
		}
		start = max(start, 0)
		end := total
		if n >= 0 {
			end = min(total, start+n)
		}
		for j := start; j < end; j++ {
			alternates = append(alternates, set.Glyph(j))
		}
		tracer().Debugf("glyph %d has %d alternates in lookup %d", g, total, inx)
		return alternates, total
	}
	return nil, 0
}
