package otlayout

import "github.com/npillmayer/otsubst/ot"

// contextSeq is a sequence of rule elements a glyph sequence is matched
// against. Depending on the subtable format, elements are glyph IDs, glyph
// classes or coverage tables.
type contextSeq interface {
	Len() int
	match(g ot.GlyphIndex, i int) bool         // does glyph g match element i?
	intersects(glyphs ot.GlyphSet, i int) bool // may any glyph of a set match element i?
	collect(glyphs ot.GlyphSet, i int)         // add all glyphs matching element i
}

// glyphSeq is a sequence of glyph IDs (format 1 rules).
type glyphSeq struct {
	ot.U16Array
}

func (s glyphSeq) match(g ot.GlyphIndex, i int) bool {
	return uint16(g) == s.At(i)
}

func (s glyphSeq) intersects(glyphs ot.GlyphSet, i int) bool {
	return glyphs.Contains(s.Glyph(i))
}

func (s glyphSeq) collect(glyphs ot.GlyphSet, i int) {
	glyphs.Add(s.Glyph(i))
}

// classSeq is a sequence of glyph classes (format 2 rules).
type classSeq struct {
	ot.U16Array
	classes ot.ClassDef
}

func (s classSeq) match(g ot.GlyphIndex, i int) bool {
	return s.classes.Class(g) == s.At(i)
}

func (s classSeq) intersects(glyphs ot.GlyphSet, i int) bool {
	return s.classes.IntersectsClass(glyphs, s.At(i))
}

func (s classSeq) collect(glyphs ot.GlyphSet, i int) {
	s.classes.CollectClass(glyphs, s.At(i))
}

// coverageSeq is a sequence of coverage tables (format 3 rules).
type coverageSeq struct {
	ot.CoverageSequence
}

func (s coverageSeq) match(g ot.GlyphIndex, i int) bool {
	return s.At(i).Contains(g)
}

func (s coverageSeq) intersects(glyphs ot.GlyphSet, i int) bool {
	return s.At(i).Intersects(glyphs)
}

func (s coverageSeq) collect(glyphs ot.GlyphSet, i int) {
	s.At(i).CollectInto(glyphs)
}

// seqIntersects reports whether every element of a sequence may be matched
// by glyphs of a set.
func seqIntersects(seq contextSeq, glyphs ot.GlyphSet) bool {
	for i := range seq.Len() {
		if !seq.intersects(glyphs, i) {
			return false
		}
	}
	return true
}

func seqCollect(seq contextSeq, glyphs ot.GlyphSet) {
	for i := range seq.Len() {
		seq.collect(glyphs, i)
	}
}

// --- Skipping iterator -------------------------------------------------------

// skippingIterator walks the buffer from a start position, stepping over
// glyphs the current lookup flags tell it to ignore, and matching the
// remaining glyphs against a sequence of rule elements.
type skippingIterator struct {
	ctx      *applyCtx
	idx      int
	numItems int // glyphs left to match
	end      int
	mask     uint32     // glyphs not carrying one of these bits never match
	seq      contextSeq // nil matches every glyph not skipped
	matched  int        // number of elements matched so far
}

// newInputIterator creates an iterator for the input sequence of a rule.
// Input glyphs have to be active for the current lookup.
func newInputIterator(ctx *applyCtx) *skippingIterator {
	return &skippingIterator{ctx: ctx, mask: ctx.lookupMask}
}

// newContextIterator creates an iterator for backtrack and lookahead
// sequences, which are matched regardless of feature masks.
func newContextIterator(ctx *applyCtx) *skippingIterator {
	return &skippingIterator{ctx: ctx, mask: ^uint32(0)}
}

func (it *skippingIterator) reset(start, numItems int, seq contextSeq) {
	it.idx = start
	it.numItems = numItems
	it.end = it.ctx.buf.Len()
	it.seq = seq
	it.matched = 0
}

func (it *skippingIterator) maySkip(r *GlyphRecord) bool {
	return !it.ctx.checkGlyphProperty(r, it.ctx.lookupProps)
}

func (it *skippingIterator) mayMatch(r *GlyphRecord) bool {
	if r.Mask&it.mask == 0 {
		return false
	}
	if it.seq == nil {
		return true
	}
	return it.seq.match(r.Glyph, it.matched)
}

// next moves forward to the next glyph not skipped and reports whether it
// matches the next sequence element.
func (it *skippingIterator) next() bool {
	for it.idx+it.numItems < it.end {
		it.idx++
		r := it.ctx.buf.At(it.idx)
		if it.maySkip(r) {
			continue
		}
		if it.mayMatch(r) {
			it.numItems--
			it.matched++
			return true
		}
		return false
	}
	return false
}

// prev moves backward over the glyphs preceding the cursor. With an output
// sequence present, these are the output glyphs.
func (it *skippingIterator) prev() bool {
	for it.idx > it.numItems-1 {
		it.idx--
		r := it.ctx.buf.backtrackAt(it.idx)
		if it.maySkip(r) {
			continue
		}
		if it.mayMatch(r) {
			it.numItems--
			it.matched++
			return true
		}
		return false
	}
	return false
}

// --- Sequence matching -------------------------------------------------------

// matchPositions holds the input positions of the glyphs matched by a rule.
type matchPositions [ot.MaxContextLength]int

// matchInput matches the glyphs following the cursor against the elements of
// seq. count is the number of input glyphs including the current one, which
// is not matched against seq. On success, matchInput returns the length of
// the matched span (including skipped glyphs) and the total number of
// ligature components of the matched glyphs; the buffer positions of the
// matched glyphs are stored in pos.
func matchInput(ctx *applyCtx, count int, seq contextSeq, pos *matchPositions) (
	matchLength, totalComponents int, ok bool) {
	//
	if count > ot.MaxContextLength || count < 1 {
		return 0, 0, false
	}
	buf := ctx.buf
	it := newInputIterator(ctx)
	it.reset(buf.idx, count-1, seq)
	first := buf.cur(0)
	totalComponents = first.LigatureComponents()
	firstLigID := first.LigatureID()
	firstLigComp := first.LigatureComponent()
	pos[0] = buf.idx
	for i := 1; i < count; i++ {
		if !it.next() {
			return 0, 0, false
		}
		pos[i] = it.idx
		r := buf.At(it.idx)
		thisLigID, thisLigComp := r.LigatureID(), r.LigatureComponent()
		if firstLigID != 0 && firstLigComp != 0 {
			// if the first glyph is attached to a ligature component, all
			// following glyphs have to be attached to the same component
			if firstLigID != thisLigID || firstLigComp != thisLigComp {
				return 0, 0, false
			}
		} else if thisLigID != 0 && thisLigComp != 0 && thisLigID != firstLigID {
			// otherwise no glyph may be attached to a foreign ligature
			return 0, 0, false
		}
		totalComponents += r.LigatureComponents()
	}
	return it.idx - buf.idx + 1, totalComponents, true
}

// matchBacktrack matches the glyphs preceding the cursor against seq, the
// element closest to the cursor first. It returns the position of the
// farthest glyph matched, as an index into the sequence preceding the
// cursor.
func matchBacktrack(ctx *applyCtx, seq contextSeq) (start int, ok bool) {
	it := newContextIterator(ctx)
	it.reset(ctx.buf.backtrackLen(), seq.Len(), seq)
	for range seq.Len() {
		if !it.prev() {
			return 0, false
		}
	}
	return it.idx, true
}

// matchLookahead matches the glyphs following an input span of length
// offset against seq. It returns the input position following the last
// glyph matched.
func matchLookahead(ctx *applyCtx, seq contextSeq, offset int) (end int, ok bool) {
	it := newContextIterator(ctx)
	it.reset(ctx.buf.idx+offset-1, seq.Len(), seq)
	for range seq.Len() {
		if !it.next() {
			return 0, false
		}
	}
	return it.idx + 1, true
}

// --- Ligation ----------------------------------------------------------------

// ligateInput replaces the glyphs matched at pos[:count] by a ligature
// glyph. Glyphs skipped during matching (usually marks) are kept and
// re-attached to the ligature component they followed.
func ligateInput(ctx *applyCtx, count int, pos *matchPositions, matchLength int,
	ligGlyph ot.GlyphIndex, totalComponents int) {
	//
	buf := ctx.buf
	buf.mergeClusters(buf.idx, buf.idx+matchLength)
	// A base glyph ligating with marks only stays a base glyph, so following
	// marks may still attach to it. If all components are marks, we have a
	// mark ligature, which keeps the ligature ID of its components.
	isBaseLigature := buf.At(pos[0]).isBaseGlyph()
	isMarkLigature := buf.At(pos[0]).isMark()
	for i := 1; i < count; i++ {
		if !buf.At(pos[i]).isMark() {
			isBaseLigature, isMarkLigature = false, false
			break
		}
	}
	isLigature := !isBaseLigature && !isMarkLigature
	var classGuess GlyphProps
	var ligID int
	if isLigature {
		classGuess = GlyphPropsLigature
		ligID = buf.allocateLigID()
	}
	lastLigID := buf.cur(0).LigatureID()
	lastNumComps := buf.cur(0).LigatureComponents()
	compsSoFar := lastNumComps
	if isLigature {
		buf.cur(0).setLigPropsForLigature(ligID, totalComponents)
	}
	ctx.replaceGlyphWithLigature(ligGlyph, classGuess)
	for i := 1; i < count; i++ {
		for buf.idx < pos[i] {
			if isLigature {
				comp := buf.cur(0).LigatureComponent()
				if comp == 0 {
					comp = lastNumComps
				}
				newComp := compsSoFar - lastNumComps + min(comp, lastNumComps)
				buf.cur(0).setLigPropsForMark(ligID, newComp)
			}
			buf.nextGlyph()
		}
		lastLigID = buf.cur(0).LigatureID()
		lastNumComps = buf.cur(0).LigatureComponents()
		compsSoFar += lastNumComps
		buf.skipGlyph() // the component is consumed by the ligature
	}
	if !isMarkLigature && lastLigID != 0 {
		// re-attach marks following the last component
		for i := buf.idx; i < buf.Len(); i++ {
			r := buf.At(i)
			if r.LigatureID() != lastLigID {
				break
			}
			comp := r.LigatureComponent()
			if comp == 0 {
				break
			}
			r.setLigPropsForMark(ligID, compsSoFar-lastNumComps+min(comp, lastNumComps))
		}
	}
	tracer().Debugf("ligated %d glyphs into %d with %d components", count, ligGlyph, totalComponents)
}

// --- Nested lookups ------------------------------------------------------------

// applyLookupRecords applies the nested lookups of a matched contextual
// rule. Positions of matched glyphs are tracked while nested lookups change
// the length of the buffer. When done, the cursor is placed after the
// (possibly modified) matched span.
func applyLookupRecords(ctx *applyCtx, count int, pos *matchPositions, records ot.LookupRecords,
	matchLength int) {
	//
	buf := ctx.buf
	// from here on, positions are relative to the start of the output
	bl := buf.backtrackLen()
	end := bl + matchLength
	for j := range count {
		pos[j] += bl - buf.idx
	}
	for i := range records.Len() {
		rec := records.At(i)
		inx := int(rec.SequenceIndex)
		if inx >= count {
			continue
		}
		if inx == 0 && int(rec.LookupListIndex) == ctx.lookupIndex {
			continue // do not recurse to ourselves at the same position
		}
		if !buf.moveTo(pos[inx]) || buf.opsLeft <= 0 {
			break
		}
		origLen := buf.backtrackLen() + buf.lookaheadLen()
		if !ctx.recurse(int(rec.LookupListIndex)) {
			continue
		}
		delta := buf.backtrackLen() + buf.lookaheadLen() - origLen
		if delta == 0 {
			continue
		}
		// The nested lookup changed the length of the buffer. We assume that
		// glyphs have been inserted or removed right after the current
		// position.
		end += delta
		if end <= pos[inx] {
			end = pos[inx]
			break
		}
		next := inx + 1
		if delta > 0 {
			if delta+count > ot.MaxContextLength {
				break
			}
		} else {
			delta = max(delta, next-count)
			next -= delta
		}
		copy(pos[next+delta:count+delta], pos[next:count])
		next += delta
		count += delta
		for j := inx + 1; j < next; j++ {
			pos[j] = pos[j-1] + 1
		}
		for ; next < count; next++ {
			pos[next] += delta
		}
	}
	buf.moveTo(end)
}
