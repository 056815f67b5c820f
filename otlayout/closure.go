package otlayout

import (
	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/otsubst/ot"
)

// closureCtx is the state of a glyph closure computation.
type closureCtx struct {
	face        *ot.Face
	glyphs      ot.GlyphSet // glyphs reached so far
	output      ot.GlyphSet // glyphs produced by the current top-level lookup
	done        map[int]int // lookup index → size of glyph set when last visited
	visits      int
	nestingLeft int
}

// Closure extends a set of glyphs by all glyphs the given lookups may
// produce from them, directly or through nested lookups. If lookups is nil,
// all lookups of the face take part. glyphs is modified in place.
//
// The computation is repeated until the set no longer grows, but at most
// ot.ClosureMaxStages times, and visits at most ot.MaxLookupVisitCount
// lookups. For fonts with cyclic lookup references the result may therefore
// be an approximation. If face.NumGlyphs is set, glyph IDs not present in
// the font are dropped.
func Closure(face *ot.Face, glyphs ot.GlyphSet, lookups []int) {
	if lookups == nil {
		lookups = allLookups(face)
	}
	c := &closureCtx{
		face:        face,
		glyphs:      glyphs,
		output:      ot.NewGlyphSet(),
		done:        make(map[int]int),
		nestingLeft: ot.MaxNestingLevel,
	}
	for stage := 0; stage < ot.ClosureMaxStages; stage++ {
		n := glyphs.Len()
		for _, inx := range lookups {
			c.closeLookup(inx)
		}
		if glyphs.Len() == n {
			tracer().Debugf("glyph closure stable after %d stages, %d glyphs", stage+1, n)
			return
		}
	}
	tracer().Infof("glyph closure stopped after %d stages", ot.ClosureMaxStages)
}

func allLookups(face *ot.Face) []int {
	lookups := make([]int, face.LookupCount())
	for i := range lookups {
		lookups[i] = i
	}
	return lookups
}

// shouldVisit reports whether a lookup has to be (re-)visited: it has not
// been visited with the current glyph set.
func (c *closureCtx) shouldVisit(inx int) bool {
	if c.visits > ot.MaxLookupVisitCount {
		return false
	}
	c.visits++
	if n, ok := c.done[inx]; ok && n == c.glyphs.Len() {
		return false
	}
	c.done[inx] = c.glyphs.Len()
	return true
}

// closeLookup visits a top-level lookup and adds its output to the glyph
// set.
func (c *closureCtx) closeLookup(inx int) {
	if !c.shouldVisit(inx) {
		return
	}
	if l, ok := c.face.Lookup(inx); ok {
		c.close(l)
	}
	c.flush()
}

// recurse visits a nested lookup. Its output is not flushed to the glyph
// set, as a recursive lookup may keep growing the set; the outer stages
// catch up instead.
func (c *closureCtx) recurse(inx int) {
	if c.nestingLeft == 0 || !c.shouldVisit(inx) {
		return
	}
	l, ok := c.face.Lookup(inx)
	if !ok {
		return
	}
	c.nestingLeft--
	c.close(l)
	c.nestingLeft++
}

func (c *closureCtx) flush() {
	if c.face.NumGlyphs > 0 {
		c.output.DeleteFrom(c.face.NumGlyphs)
	}
	c.glyphs.Union(c.output)
	c.output.Clear()
}

func (c *closureCtx) close(l ot.Lookup) {
	for i := range l.SubtableCount() {
		closeSubtable(c, l.Subtable(i).Resolve())
	}
}

// closeSubtable adds to the output all glyphs a subtable may produce from
// glyphs of the closure set.
func closeSubtable(c *closureCtx, st ot.Subtable) {
	switch st.Type {
	case ot.GSubLookupTypeSingle:
		single := st.Single()
		switch single.Format() {
		case 1:
			delta := single.Delta()
			for _, g := range single.Coverage().Glyphs() {
				if c.glyphs.Contains(g) {
					c.output.Add(ot.GlyphIndex(uint16(g) + delta))
				}
			}
		case 2:
			substitutes := single.Substitutes()
			for inx, g := range single.Coverage().Glyphs() {
				if c.glyphs.Contains(g) && int(inx) < substitutes.Len() {
					c.output.Add(substitutes.Glyph(int(inx)))
				}
			}
		}
	case ot.GSubLookupTypeMultiple:
		multiple := st.Multiple()
		if multiple.Format() == 1 {
			for inx, g := range multiple.Coverage().Glyphs() {
				if c.glyphs.Contains(g) {
					c.output.AddArray(multiple.Sequence(int(inx)))
				}
			}
		}
	case ot.GSubLookupTypeAlternate:
		alternate := st.Alternate()
		if alternate.Format() == 1 {
			for inx, g := range alternate.Coverage().Glyphs() {
				if c.glyphs.Contains(g) {
					c.output.AddArray(alternate.AlternateSet(int(inx)))
				}
			}
		}
	case ot.GSubLookupTypeLigature:
		ligature := st.Ligature()
		if ligature.Format() == 1 {
			for inx, g := range ligature.Coverage().Glyphs() {
				if !c.glyphs.Contains(g) {
					continue
				}
				set := ligature.LigatureSet(int(inx))
				for i := range set.Len() {
					if lig := set.Ligature(i); componentsIntersect(lig, c.glyphs) {
						c.output.Add(lig.Glyph())
					}
				}
			}
		}
	case ot.GSubLookupTypeContext, ot.GSubLookupTypeChainingContext:
		closeContext(c, contextTable{st.Context()})
	case ot.GSubLookupTypeReverseChaining:
		reverse := st.ReverseChain()
		if reverse.Format() == 1 && intersectsReverse(reverse, c.glyphs) {
			substitutes := reverse.Substitutes()
			for inx, g := range reverse.Coverage().Glyphs() {
				if c.glyphs.Contains(g) && int(inx) < substitutes.Len() {
					c.output.Add(substitutes.Glyph(int(inx)))
				}
			}
		}
	}
}

// componentsIntersect reports whether all components of a ligature
// following the first one are contained in a set.
func componentsIntersect(lig ot.Ligature, glyphs ot.GlyphSet) bool {
	for _, g := range lig.Components().Glyphs() {
		if !glyphs.Contains(g) {
			return false
		}
	}
	return true
}

func intersectsReverse(st ot.ReverseChainSubst, glyphs ot.GlyphSet) bool {
	return st.Coverage().Intersects(glyphs) &&
		seqIntersects(coverageSeq{st.Backtrack()}, glyphs) &&
		seqIntersects(coverageSeq{st.Lookahead()}, glyphs)
}

// --- Intersects ----------------------------------------------------------------

// Intersects reports whether lookup #inx may apply to a glyph sequence
// consisting of glyphs of a set.
func Intersects(face *ot.Face, inx int, glyphs ot.GlyphSet) bool {
	l, ok := face.Lookup(inx)
	return ok && intersectsLookup(l, glyphs)
}

func intersectsLookup(l ot.Lookup, glyphs ot.GlyphSet) bool {
	for i := range l.SubtableCount() {
		if intersectsSubtable(l.Subtable(i).Resolve(), glyphs) {
			return true
		}
	}
	return false
}

func intersectsSubtable(st ot.Subtable, glyphs ot.GlyphSet) bool {
	switch st.Type {
	case ot.GSubLookupTypeSingle, ot.GSubLookupTypeMultiple, ot.GSubLookupTypeAlternate:
		switch st.Format() {
		case 1:
			return st.Coverage().Intersects(glyphs)
		case 2:
			return st.Type == ot.GSubLookupTypeSingle && st.Coverage().Intersects(glyphs)
		}
	case ot.GSubLookupTypeLigature:
		ligature := st.Ligature()
		if ligature.Format() != 1 {
			return false
		}
		for inx, g := range ligature.Coverage().Glyphs() {
			if !glyphs.Contains(g) {
				continue
			}
			set := ligature.LigatureSet(int(inx))
			for i := range set.Len() {
				if componentsIntersect(set.Ligature(i), glyphs) {
					return true
				}
			}
		}
	case ot.GSubLookupTypeContext, ot.GSubLookupTypeChainingContext:
		return intersectsContext(contextTable{st.Context()}, glyphs)
	case ot.GSubLookupTypeReverseChaining:
		reverse := st.ReverseChain()
		return reverse.Format() == 1 && intersectsReverse(reverse, glyphs)
	}
	return false
}

// --- Closure lookups -------------------------------------------------------------

// closureLookupsCtx is the state of pruning a set of lookups.
type closureLookupsCtx struct {
	face        *ot.Face
	glyphs      ot.GlyphSet
	visited     *treeset.Set // lookup indices visited
	inactive    *treeset.Set // lookup indices which may not apply to glyphs
	visits      int
	nestingLeft int
}

// ClosureLookups returns the lookups, out of a given set of lookups, which
// may apply to a glyph sequence consisting of glyphs of a set. Lookups
// invoked by contextual rules of the given lookups are added. The result is
// sorted and free of duplicates.
func ClosureLookups(face *ot.Face, glyphs ot.GlyphSet, lookups []int) []int {
	c := &closureLookupsCtx{
		face:        face,
		glyphs:      glyphs,
		visited:     treeset.NewWithIntComparator(),
		inactive:    treeset.NewWithIntComparator(),
		nestingLeft: ot.MaxNestingLevel,
	}
	result := treeset.NewWithIntComparator()
	for _, inx := range lookups {
		result.Add(inx)
		c.closureLookups(inx)
	}
	result.Add(c.visited.Values()...)
	result.Remove(c.inactive.Values()...)
	pruned := make([]int, 0, result.Size())
	for _, v := range result.Values() {
		pruned = append(pruned, v.(int))
	}
	return pruned
}

func (c *closureLookupsCtx) isVisited(inx int) bool {
	if c.visits > ot.MaxLookupVisitCount {
		return true
	}
	c.visits++
	return c.visited.Contains(inx)
}

func (c *closureLookupsCtx) closureLookups(inx int) {
	if c.isVisited(inx) {
		return
	}
	c.visited.Add(inx)
	l, ok := c.face.Lookup(inx)
	if !ok || !intersectsLookup(l, c.glyphs) {
		c.inactive.Add(inx)
		return
	}
	for i := range l.SubtableCount() {
		st := l.Subtable(i).Resolve()
		if st.Type != ot.GSubLookupTypeContext && st.Type != ot.GSubLookupTypeChainingContext {
			continue
		}
		contextTable{st.Context()}.reachableRules(c.glyphs, func(rule contextRule) bool {
			for j := range rule.records.Len() {
				c.recurse(int(rule.records.At(j).LookupListIndex))
			}
			return true
		})
	}
}

func (c *closureLookupsCtx) recurse(inx int) {
	if c.nestingLeft == 0 || c.visits > ot.MaxLookupVisitCount || c.visited.Contains(inx) {
		return
	}
	c.nestingLeft--
	c.closureLookups(inx)
	c.nestingLeft++
}
