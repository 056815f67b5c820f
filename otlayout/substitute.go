package otlayout

import "github.com/npillmayer/otsubst/ot"

// Substituter applies GSUB lookups of a face to glyph buffers.
//
// A Substituter may be shared between buffers, but not concurrently if
// randomization is enabled, as the random source is not synchronized.
type Substituter struct {
	Face   *ot.Face
	Random bool         // randomize alternate selection for features with MaxValue
	Rand   RandomSource // source for randomization, defaults to NewMinStd(1)
}

// NewSubstituter creates a substituter for a face.
func NewSubstituter(face *ot.Face) *Substituter {
	return &Substituter{Face: face, Rand: NewMinStd(1)}
}

// Start prepares a buffer for substitution: glyph properties are
// initialized from GDEF, ligature information is cleared and the buffer's
// operations budget is reset. Start has to be called once before a sequence
// of lookups is applied.
func (s *Substituter) Start(buf *Buffer) {
	ctx := newApplyCtx(s.Face, buf, MaskGlobal)
	for i := range buf.info {
		r := &buf.info[i]
		r.Props = ctx.glyphProps(r.Glyph)
		r.LigProps = 0
	}
	buf.resetOps()
}

// SubstituteLookup applies lookup #inx to a buffer, for all glyphs with
// a feature mask intersecting mask. It returns true if any substitution
// took place. Unknown lookups are ignored.
func (s *Substituter) SubstituteLookup(buf *Buffer, inx int, mask uint32) bool {
	l, ok := s.Face.Lookup(inx)
	if !ok || buf.Len() == 0 {
		return false
	}
	ctx := newApplyCtx(s.Face, buf, mask)
	ctx.random = s.Random
	ctx.rand = s.Rand
	if ctx.rand == nil {
		ctx.rand = NewMinStd(1)
	}
	ctx.setLookup(inx, l)
	tracer().Debugf("applying lookup %d of type %s", inx, l.EffectiveType().GSubString())
	if l.IsReverse() {
		return s.applyBackward(ctx, l)
	}
	return s.applyForward(ctx, l)
}

// SubstituteLookups applies a sequence of lookups to a buffer, in order. It
// returns true if any substitution took place.
func (s *Substituter) SubstituteLookups(buf *Buffer, lookups []int, mask uint32) bool {
	applied := false
	for _, inx := range lookups {
		if s.SubstituteLookup(buf, inx, mask) {
			applied = true
		}
	}
	return applied
}

// applies reports whether the lookup has to be tried at the current glyph.
func (ctx *applyCtx) applies(r *GlyphRecord) bool {
	return r.Mask&ctx.lookupMask != 0 && ctx.checkGlyphProperty(r, ctx.lookupProps)
}

func (s *Substituter) applyForward(ctx *applyCtx, l ot.Lookup) bool {
	buf := ctx.buf
	buf.clearOutput()
	buf.idx = 0
	applied := false
	for buf.idx < buf.Len() {
		at := buf.idx
		if ctx.applies(buf.cur(0)) && ctx.applyLookup(l) {
			applied = true
			if buf.idx == at { // in-place substitution, cursor has to move on
				buf.nextGlyph()
			}
			continue
		}
		buf.nextGlyph()
	}
	if applied {
		buf.swapBuffers()
	} else {
		buf.removeOutput()
		buf.idx = 0
	}
	return applied
}

// applyBackward applies a reverse chaining lookup from the end of the
// buffer to its start. Substitutions are done in place and do not move the
// cursor.
func (s *Substituter) applyBackward(ctx *applyCtx, l ot.Lookup) bool {
	buf := ctx.buf
	buf.removeOutput()
	applied := false
	for buf.idx = buf.Len() - 1; buf.idx >= 0; buf.idx-- {
		if ctx.applies(buf.cur(0)) && ctx.applyLookup(l) {
			applied = true
		}
	}
	buf.idx = 0
	return applied
}
