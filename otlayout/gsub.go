package otlayout

import "github.com/npillmayer/otsubst/ot"

// dispatchGSubLookup applies a GSUB subtable at the current buffer
// position. Dispatch is by lookup type, then by subtable format. Unknown
// types and formats never apply.
func dispatchGSubLookup(ctx *applyCtx, st ot.Subtable) bool {
	switch st.Type {
	case ot.GSubLookupTypeSingle:
		switch st.Format() {
		case 1:
			return gsubLookupType1Fmt1(ctx, st.Single())
		case 2:
			return gsubLookupType1Fmt2(ctx, st.Single())
		}
	case ot.GSubLookupTypeMultiple:
		if st.Format() == 1 {
			return gsubLookupType2Fmt1(ctx, st.Multiple())
		}
	case ot.GSubLookupTypeAlternate:
		if st.Format() == 1 {
			return gsubLookupType3Fmt1(ctx, st.Alternate())
		}
	case ot.GSubLookupTypeLigature:
		if st.Format() == 1 {
			return gsubLookupType4Fmt1(ctx, st.Ligature())
		}
	case ot.GSubLookupTypeContext, ot.GSubLookupTypeChainingContext:
		return gsubLookupType5or6(ctx, st.Context())
	case ot.GSubLookupTypeExtensionSubs:
		if st.Format() == 1 {
			return dispatchGSubLookup(ctx, st.Resolve())
		}
	case ot.GSubLookupTypeReverseChaining:
		if st.Format() == 1 {
			return gsubLookupType8Fmt1(ctx, st.ReverseChain())
		}
	}
	return false
}

// GSUB LookupType 1: Single Substitution Subtable
//
// Single substitution (SingleSubst) subtables tell a client to replace a single glyph
// with another glyph. The subtables can be either of two formats. Both formats require
// two distinct sets of glyph indices: one that defines input glyphs (specified in the
// Coverage table), and one that defines the output glyphs.

// GSUB LookupSubtable Type 1 Format 1 calculates the indices of the output glyphs, which
// are not explicitly defined in the subtable. To calculate an output glyph index,
// Format 1 adds a constant delta value to the input glyph index. For the substitutions to
// occur properly, the glyph indices in the input and output ranges must be in the same order.
// This format does not use the Coverage index that is returned from the Coverage table.
//
// Addition is modulo 65536.
func gsubLookupType1Fmt1(ctx *applyCtx, st ot.SingleSubst) bool {
	g := ctx.buf.cur(0).Glyph
	if !st.Coverage().Contains(g) {
		return false
	}
	subst := ot.GlyphIndex(uint16(g) + st.Delta())
	tracer().Debugf("OT lookup GSUB 1/1: subst %d for %d", subst, g)
	ctx.replaceGlyph(subst)
	return true
}

// GSUB LookupSubtable Type 1 Format 2 provides an array of output glyph indices
// (substituteGlyphIDs) explicitly matched to the input glyph indices specified in the
// Coverage table.
// The substituteGlyphIDs array must contain the same number of glyph indices as the
// Coverage table. To locate the corresponding output glyph index in the substituteGlyphIDs
// array, this format uses the Coverage index returned from the Coverage table.
func gsubLookupType1Fmt2(ctx *applyCtx, st ot.SingleSubst) bool {
	g := ctx.buf.cur(0).Glyph
	inx := st.Coverage().Index(g)
	if inx == ot.NotCovered {
		return false
	}
	substitutes := st.Substitutes()
	if int(inx) >= substitutes.Len() {
		tracer().Debugf("GSUB 1/2: coverage index %d exceeds substitutes", inx)
		return false
	}
	subst := substitutes.Glyph(int(inx))
	tracer().Debugf("OT lookup GSUB 1/2: subst %d for %d", subst, g)
	ctx.replaceGlyph(subst)
	return true
}

// LookupType 2: Multiple Substitution Subtable
//
// A Multiple Substitution (MultipleSubst) subtable replaces a single glyph with more
// than one glyph, as when multiple glyphs replace a single ligature.

// GSUB LookupSubtable Type 2 Format 1 defines a count of offsets in the sequenceOffsets
// array (sequenceCount), and an array of offsets to Sequence tables that define the output
// glyph indices (sequenceOffsets). The Sequence table offsets are ordered by the Coverage
// index of the input glyphs.
// For each input glyph listed in the Coverage table, a Sequence table defines the output
// glyphs. Each Sequence table contains a count of the glyphs in the output glyph sequence
// (glyphCount) and an array of output glyph indices (substituteGlyphIDs).
//
// A sequence of length 1 replaces the glyph in place. Empty sequences are not allowed by
// the OpenType specification, but fonts in the wild use them to delete glyphs, so we do.
func gsubLookupType2Fmt1(ctx *applyCtx, st ot.MultipleSubst) bool {
	cur := ctx.buf.cur(0)
	inx := st.Coverage().Index(cur.Glyph)
	if inx == ot.NotCovered {
		return false
	}
	seq := st.Sequence(int(inx))
	switch seq.Len() {
	case 0:
		tracer().Debugf("OT lookup GSUB 2/1: delete %d", cur.Glyph)
		ctx.buf.deleteGlyph()
		return true
	case 1:
		tracer().Debugf("OT lookup GSUB 2/1: subst %d for %d", seq.Glyph(0), cur.Glyph)
		ctx.replaceGlyph(seq.Glyph(0))
		return true
	}
	tracer().Debugf("OT lookup GSUB 2/1: subst %d glyphs for %d", seq.Len(), cur.Glyph)
	var classGuess GlyphProps
	if cur.isLigature() {
		classGuess = GlyphPropsBase
	}
	for i, g := range seq.Glyphs() {
		cur.setLigPropsForComponent(i)
		ctx.outputGlyphForComponent(g, classGuess)
	}
	ctx.buf.skipGlyph()
	return true
}

// LookupType 3: Alternate Substitution Subtable
//
// An Alternate Substitution (AlternateSubst) subtable identifies any number of aesthetic
// alternatives from which a user can choose a glyph variant to replace the input glyph.
// For example, if a font contains four variants of the ampersand symbol, the 'cmap' table
// will specify the index of one of the four glyphs as the default glyph index, and an
// AlternateSubst subtable will list the indices of the other three glyphs as alternatives.
// A text-processing client would then have the option of replacing the default glyph with
// any of the three alternatives.

// GSUB LookupSubtable Type 3 Format 1: For each glyph, an AlternateSet subtable contains a
// count of the alternative glyphs (glyphCount) and an array of their glyph indices
// (alternateGlyphIDs).
//
// The alternate is selected by the bits of the glyph's feature mask covered by the lookup
// mask, interpreted as a 1-based index into alternateGlyphIDs. With randomization enabled,
// an index of MaxValue selects a random alternate.
func gsubLookupType3Fmt1(ctx *applyCtx, st ot.AlternateSubst) bool {
	cur := ctx.buf.cur(0)
	inx := st.Coverage().Index(cur.Glyph)
	if inx == ot.NotCovered {
		return false
	}
	alternates := st.AlternateSet(int(inx))
	alt := ctx.alternateIndex(cur.Mask, alternates.Len())
	if alt == 0 {
		return false
	}
	tracer().Debugf("OT lookup GSUB 3/1: subst alternate #%d = %d for %d", alt,
		alternates.Glyph(alt-1), cur.Glyph)
	ctx.replaceGlyph(alternates.Glyph(alt - 1))
	return true
}

// LookupType 4: Ligature Substitution Subtable
//
// A Ligature Substitution (LigatureSubst) subtable identifies ligature substitutions where
// a single glyph replaces multiple glyphs. One LigatureSubst subtable can specify any number
// of ligature substitutions.

// GSUB LookupSubtable Type 4 Format 1 receives a sequence of glyphs and outputs a
// single glyph replacing the sequence. The Coverage table specifies only the index of the
// first glyph component of each ligature set.
//
// Ligatures of a set are tried in order, the first one matching wins.
func gsubLookupType4Fmt1(ctx *applyCtx, st ot.LigatureSubst) bool {
	inx := st.Coverage().Index(ctx.buf.cur(0).Glyph)
	if inx == ot.NotCovered {
		return false
	}
	ligatures := st.LigatureSet(int(inx))
	for i := range ligatures.Len() {
		if applyLigature(ctx, ligatures.Ligature(i)) {
			return true
		}
	}
	return false
}

func applyLigature(ctx *applyCtx, lig ot.Ligature) bool {
	count := lig.ComponentCount()
	switch count {
	case 0:
		return false
	case 1:
		// a ligature of one component is a single substitution
		ctx.replaceGlyph(lig.Glyph())
		return true
	}
	var pos matchPositions
	matchLength, totalComponents, ok := matchInput(ctx, count, glyphSeq{lig.Components()}, &pos)
	if !ok {
		return false
	}
	tracer().Debugf("OT lookup GSUB 4/1: subst %d for %d glyphs", lig.Glyph(), count)
	ligateInput(ctx, count, &pos, matchLength, lig.Glyph(), totalComponents)
	return true
}

// LookupType 5: Contextual Substitution
//
// GSUB type 5 subtables define input sequences in terms of specific glyph IDs (format 1),
// glyph classes (format 2) or coverage tables (format 3). When the current glyph sequence
// matches an input sequence, the sequence lookup records of the matching rule are applied
// to the glyphs of the sequence.
//
// LookupType 6: Chained Contexts Substitution
//
// Type 6 subtables extend type 5 by backtrack and lookahead sequences, which have to match
// the glyphs preceding and following the input sequence, but are not subject to
// substitution by the rule.
func gsubLookupType5or6(ctx *applyCtx, st ot.ContextSubst) bool {
	return applyContext(ctx, contextTable{st})
}

// GSUB LookupType 8: Reverse Chaining Single Substitution Subtable
//
// Reverse Chaining Contextual Single Substitution subtables describe single glyph
// substitutions in context with an ability to look back and/or look ahead in the sequence
// of glyphs. The major difference from other contextual subtables is that processing
// of input glyph sequence goes from the end to the start. These subtables may not be
// invoked by contextual rules.
//
// The glyph is replaced in place and the cursor is not advanced; moving the cursor is
// left to the driving loop.
func gsubLookupType8Fmt1(ctx *applyCtx, st ot.ReverseChainSubst) bool {
	if ctx.nestingLeft != ot.MaxNestingLevel {
		return false // no chaining to this type
	}
	g := ctx.buf.cur(0).Glyph
	inx := st.Coverage().Index(g)
	if inx == ot.NotCovered {
		return false
	}
	substitutes := st.Substitutes()
	if int(inx) >= substitutes.Len() {
		return false
	}
	start, ok := matchBacktrack(ctx, coverageSeq{st.Backtrack()})
	if !ok {
		return false
	}
	end, ok := matchLookahead(ctx, coverageSeq{st.Lookahead()}, 1)
	if !ok {
		return false
	}
	tracer().Debugf("OT lookup GSUB 8/1: subst %d for %d", substitutes.Glyph(int(inx)), g)
	ctx.buf.unsafeToBreakFromOutbuffer(start, end)
	ctx.replaceGlyphInplace(substitutes.Glyph(int(inx)))
	return true
}
