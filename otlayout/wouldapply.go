package otlayout

import "github.com/npillmayer/otsubst/ot"

// wouldApplyCtx is the state of testing a lookup against a glyph sequence,
// without a buffer.
type wouldApplyCtx struct {
	glyphs      []ot.GlyphIndex
	zeroContext bool // rules with backtrack or lookahead never apply
}

// WouldApply reports whether lookup #inx would apply to exactly the glyph
// sequence glyphs, i.e. match all of it and nothing more. Glyph properties
// and lookup flags are not taken into account.
//
// With zeroContext set, chained contextual rules requiring backtrack or
// lookahead glyphs are considered not to apply.
func WouldApply(face *ot.Face, inx int, glyphs []ot.GlyphIndex, zeroContext bool) bool {
	if len(glyphs) == 0 {
		return false
	}
	l, ok := face.Lookup(inx)
	if !ok {
		return false
	}
	c := &wouldApplyCtx{glyphs: glyphs, zeroContext: zeroContext}
	for i := range l.SubtableCount() {
		if c.wouldApplySubtable(l.Subtable(i).Resolve()) {
			return true
		}
	}
	return false
}

func (c *wouldApplyCtx) wouldApplySubtable(st ot.Subtable) bool {
	switch st.Type {
	case ot.GSubLookupTypeSingle, ot.GSubLookupTypeMultiple, ot.GSubLookupTypeAlternate,
		ot.GSubLookupTypeReverseChaining:
		return len(c.glyphs) == 1 && st.Coverage().Contains(c.glyphs[0])
	case ot.GSubLookupTypeLigature:
		ligature := st.Ligature()
		inx := ligature.Coverage().Index(c.glyphs[0])
		if inx == ot.NotCovered {
			return false
		}
		set := ligature.LigatureSet(int(inx))
		for i := range set.Len() {
			if c.wouldMatchLigature(set.Ligature(i)) {
				return true
			}
		}
	case ot.GSubLookupTypeContext, ot.GSubLookupTypeChainingContext:
		return wouldApplyContext(c, contextTable{st.Context()})
	}
	return false
}

func (c *wouldApplyCtx) wouldMatchLigature(lig ot.Ligature) bool {
	if len(c.glyphs) != lig.ComponentCount() {
		return false
	}
	components := lig.Components()
	for i := 1; i < len(c.glyphs); i++ {
		if c.glyphs[i] != components.Glyph(i-1) {
			return false
		}
	}
	return true
}

// wouldMatch reports whether a contextual rule matches the glyph sequence.
// The first glyph has been matched by the caller.
func (c *wouldApplyCtx) wouldMatch(rule contextRule) bool {
	if c.zeroContext && (rule.backtrack.Len() > 0 || rule.lookahead.Len() > 0) {
		return false
	}
	if len(c.glyphs) != rule.inputCount {
		return false
	}
	for i := 1; i < len(c.glyphs); i++ {
		if !rule.input.match(c.glyphs[i], i-1) {
			return false
		}
	}
	return true
}
