package otlayout

import (
	"math/bits"

	"github.com/npillmayer/otsubst/ot"
)

// applyCtx is the state of applying a lookup to a buffer. It is passed
// explicitly through dispatch, matching and recursive lookup invocation.
type applyCtx struct {
	face            *ot.Face
	gdef            ot.GDef
	hasGlyphClasses bool
	buf             *Buffer
	lookupMask      uint32 // feature mask the current lookup is active for
	lookupIndex     int    // index of the lookup currently applied
	lookupProps     uint32 // lookup flags and mark filtering set, see ot.Lookup.Props
	nestingLeft     int    // remaining levels of recursive lookup invocation
	random          bool   // randomize alternate selection for MaxValue masks
	rand            RandomSource
}

func newApplyCtx(face *ot.Face, buf *Buffer, mask uint32) *applyCtx {
	gdef := face.GDef()
	return &applyCtx{
		face:            face,
		gdef:            gdef,
		hasGlyphClasses: gdef.HasGlyphClasses(),
		buf:             buf,
		lookupMask:      mask,
		nestingLeft:     ot.MaxNestingLevel,
	}
}

// setLookup prepares the context for applying lookup #index.
func (ctx *applyCtx) setLookup(index int, l ot.Lookup) {
	ctx.lookupIndex = index
	ctx.lookupProps = l.Props()
}

// applyLookup applies the subtables of a lookup at the current buffer
// position. The first subtable which applies wins.
func (ctx *applyCtx) applyLookup(l ot.Lookup) bool {
	if ctx.buf.idx >= ctx.buf.Len() {
		return false
	}
	for i := range l.SubtableCount() {
		if dispatchGSubLookup(ctx, l.Subtable(i)) {
			return true
		}
	}
	return false
}

// recurse applies a nested lookup at the current buffer position, as
// requested by a sequence lookup record of a contextual rule.
func (ctx *applyCtx) recurse(lookupIndex int) bool {
	if ctx.nestingLeft == 0 || ctx.buf.opsLeft <= 0 {
		tracer().Debugf("lookup %d: nesting level or operations budget exhausted", lookupIndex)
		return false
	}
	ctx.buf.opsLeft--
	l, ok := ctx.face.Lookup(lookupIndex)
	if !ok {
		return false
	}
	savedIndex, savedProps := ctx.lookupIndex, ctx.lookupProps
	ctx.setLookup(lookupIndex, l)
	ctx.nestingLeft--
	ok = ctx.applyLookup(l)
	ctx.nestingLeft++
	ctx.lookupIndex, ctx.lookupProps = savedIndex, savedProps
	return ok
}

// --- Glyph properties ------------------------------------------------------

// glyphProps derives the glyph properties of g from GDEF.
func (ctx *applyCtx) glyphProps(g ot.GlyphIndex) GlyphProps {
	switch ctx.gdef.GlyphClass(g) {
	case ot.BaseGlyph:
		return GlyphPropsBase
	case ot.LigatureGlyph:
		return GlyphPropsLigature
	case ot.MarkGlyph:
		return GlyphPropsMark | GlyphProps(ctx.gdef.MarkAttachClass(g))<<8
	}
	return 0
}

// checkGlyphProperty reports whether a glyph takes part in matching under
// the given lookup properties, or has to be skipped.
func (ctx *applyCtx) checkGlyphProperty(r *GlyphRecord, matchProps uint32) bool {
	const ignoreFlags = uint32(ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS |
		ot.LOOKUP_FLAG_IGNORE_LIGATURES | ot.LOOKUP_FLAG_IGNORE_MARKS)
	props := uint32(r.Props)
	if props&matchProps&ignoreFlags != 0 {
		return false
	}
	if r.isMark() {
		return ctx.matchMarkProperties(r.Glyph, props, matchProps)
	}
	return true
}

func (ctx *applyCtx) matchMarkProperties(g ot.GlyphIndex, props, matchProps uint32) bool {
	if matchProps&uint32(ot.LOOKUP_FLAG_USE_MARK_FILTERING_SET) != 0 {
		return ctx.gdef.MarkSetCovers(uint16(matchProps>>16), g)
	}
	if markType := matchProps & uint32(ot.LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK); markType != 0 {
		return markType == props&uint32(ot.LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK)
	}
	return true
}

// setGlyphProps updates the properties of the current glyph, which is about
// to be replaced by g. classGuess is used if GDEF does not classify glyphs.
func (ctx *applyCtx) setGlyphProps(g ot.GlyphIndex, classGuess GlyphProps, ligature, component bool) {
	cur := ctx.buf.cur(0)
	addIn := cur.Props&glyphPropsPreserve | GlyphPropsSubstituted
	if ligature {
		addIn |= GlyphPropsLigated
		addIn &^= GlyphPropsMultiplied
	}
	if component {
		addIn |= GlyphPropsMultiplied
	}
	if ctx.hasGlyphClasses {
		cur.Props = addIn | ctx.glyphProps(g)
	} else if classGuess != 0 {
		cur.Props = addIn | classGuess
	}
}

// --- Mutation of the buffer --------------------------------------------------

func (ctx *applyCtx) replaceGlyph(g ot.GlyphIndex) {
	ctx.setGlyphProps(g, 0, false, false)
	ctx.buf.replaceGlyph(g)
}

func (ctx *applyCtx) replaceGlyphInplace(g ot.GlyphIndex) {
	ctx.setGlyphProps(g, 0, false, false)
	ctx.buf.cur(0).Glyph = g
}

func (ctx *applyCtx) replaceGlyphWithLigature(g ot.GlyphIndex, classGuess GlyphProps) {
	ctx.setGlyphProps(g, classGuess, true, false)
	ctx.buf.replaceGlyph(g)
}

func (ctx *applyCtx) outputGlyphForComponent(g ot.GlyphIndex, classGuess GlyphProps) {
	ctx.setGlyphProps(g, classGuess, false, true)
	ctx.buf.outputGlyph(g)
}

// --- Randomization -----------------------------------------------------------

// MaxValue is the feature value which, with randomization enabled, selects
// a random alternate glyph.
const MaxValue = 255

// RandomSource supplies random numbers for alternate selection.
type RandomSource interface {
	Uint32() uint32
}

// MinStd is the "minimal standard" linear congruential generator of Park
// and Miller. It is deterministic for a given seed, which keeps randomized
// alternate selection reproducible.
type MinStd struct {
	state uint32
}

// NewMinStd creates a generator. A seed of 0 is replaced by 1.
func NewMinStd(seed uint32) *MinStd {
	if seed%2147483647 == 0 {
		seed = 1
	}
	return &MinStd{state: seed}
}

// Uint32 returns the next number of the sequence, in [1…2³¹-2].
func (r *MinStd) Uint32() uint32 {
	r.state = uint32(uint64(r.state) * 48271 % 2147483647)
	return r.state
}

// alternateIndex selects an alternate from a set of count alternates, using
// the field of the glyph mask covered by the lookup mask. The result is
// 1-based; 0 means that no alternate is selected.
func (ctx *applyCtx) alternateIndex(glyphMask uint32, count int) int {
	if count == 0 || ctx.lookupMask == 0 {
		return 0
	}
	shift := bits.TrailingZeros32(ctx.lookupMask)
	inx := int((ctx.lookupMask & glyphMask) >> shift)
	if inx == MaxValue && ctx.random && ctx.rand != nil {
		inx = int(ctx.rand.Uint32()%uint32(count)) + 1
	}
	if inx > count || inx == 0 {
		return 0
	}
	return inx
}
