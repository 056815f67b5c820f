package otlayout

import "github.com/npillmayer/otsubst/ot"

// GlyphCollection holds the glyphs a lookup may read or write.
type GlyphCollection struct {
	Before ot.GlyphSet // glyphs matched by backtrack sequences
	Input  ot.GlyphSet // glyphs subject to substitution, i.e. covered glyphs
	After  ot.GlyphSet // glyphs matched by lookahead sequences
	Output ot.GlyphSet // glyphs produced, including those of nested lookups
}

func newGlyphCollection() GlyphCollection {
	return GlyphCollection{
		Before: ot.NewGlyphSet(),
		Input:  ot.NewGlyphSet(),
		After:  ot.NewGlyphSet(),
		Output: ot.NewGlyphSet(),
	}
}

// collectCtx is the state of collecting the glyphs of a lookup.
type collectCtx struct {
	face        *ot.Face
	before      ot.GlyphSet
	input       ot.GlyphSet
	after       ot.GlyphSet
	output      ot.GlyphSet
	recursed    map[int]bool // nested lookups already collected
	visits      int
	nestingLeft int
}

// CollectGlyphs collects the glyphs lookup #inx may match and produce.
// For lookups invoked by contextual rules, only the glyphs produced are
// collected. An unknown lookup results in an empty collection.
func CollectGlyphs(face *ot.Face, inx int) GlyphCollection {
	gc := newGlyphCollection()
	l, ok := face.Lookup(inx)
	if !ok {
		return gc
	}
	c := &collectCtx{
		face:        face,
		before:      gc.Before,
		input:       gc.Input,
		after:       gc.After,
		output:      gc.Output,
		recursed:    map[int]bool{inx: true},
		nestingLeft: ot.MaxNestingLevel,
	}
	c.collect(l)
	tracer().Debugf("lookup %d: collected %d input and %d output glyphs", inx,
		gc.Input.Len(), gc.Output.Len())
	return gc
}

func (c *collectCtx) collect(l ot.Lookup) {
	for i := range l.SubtableCount() {
		collectSubtable(c, l.Subtable(i).Resolve())
	}
}

// recurse collects the output of a nested lookup. Matching context of the
// nested lookup is not of interest and goes to throwaway sets.
func (c *collectCtx) recurse(inx int) {
	if c.nestingLeft == 0 || c.visits > ot.MaxLookupVisitCount || c.recursed[inx] {
		return
	}
	c.visits++
	l, ok := c.face.Lookup(inx)
	if !ok {
		return
	}
	before, input, after := c.before, c.input, c.after
	c.before, c.input, c.after = ot.NewGlyphSet(), ot.NewGlyphSet(), ot.NewGlyphSet()
	c.nestingLeft--
	c.collect(l)
	c.nestingLeft++
	c.before, c.input, c.after = before, input, after
	c.recursed[inx] = true
}

func collectSubtable(c *collectCtx, st ot.Subtable) {
	switch st.Type {
	case ot.GSubLookupTypeSingle:
		single := st.Single()
		switch single.Format() {
		case 1:
			delta := single.Delta()
			for _, g := range single.Coverage().Glyphs() {
				c.input.Add(g)
				c.output.Add(ot.GlyphIndex(uint16(g) + delta))
			}
		case 2:
			single.Coverage().CollectInto(c.input)
			c.output.AddArray(single.Substitutes())
		}
	case ot.GSubLookupTypeMultiple:
		multiple := st.Multiple()
		if multiple.Format() == 1 {
			for inx, g := range multiple.Coverage().Glyphs() {
				c.input.Add(g)
				c.output.AddArray(multiple.Sequence(int(inx)))
			}
		}
	case ot.GSubLookupTypeAlternate:
		alternate := st.Alternate()
		if alternate.Format() == 1 {
			for inx, g := range alternate.Coverage().Glyphs() {
				c.input.Add(g)
				c.output.AddArray(alternate.AlternateSet(int(inx)))
			}
		}
	case ot.GSubLookupTypeLigature:
		ligature := st.Ligature()
		if ligature.Format() == 1 {
			for inx, g := range ligature.Coverage().Glyphs() {
				c.input.Add(g)
				set := ligature.LigatureSet(int(inx))
				for i := range set.Len() {
					lig := set.Ligature(i)
					c.input.AddArray(lig.Components())
					c.output.Add(lig.Glyph())
				}
			}
		}
	case ot.GSubLookupTypeContext, ot.GSubLookupTypeChainingContext:
		collectContext(c, contextTable{st.Context()})
	case ot.GSubLookupTypeReverseChaining:
		reverse := st.ReverseChain()
		if reverse.Format() == 1 {
			reverse.Coverage().CollectInto(c.input)
			seqCollect(coverageSeq{reverse.Backtrack()}, c.before)
			seqCollect(coverageSeq{reverse.Lookahead()}, c.after)
			c.output.AddArray(reverse.Substitutes())
		}
	}
}
