package otlayout

import (
	"iter"

	"github.com/npillmayer/otsubst/ot"
)

// contextRule is a rule of a contextual or chained contextual subtable,
// with sequences interpreted according to the subtable format. input does
// not contain the element for the first input glyph.
type contextRule struct {
	backtrack  contextSeq
	input      contextSeq
	lookahead  contextSeq
	inputCount int // number of input glyphs, including the first one
	records    ot.LookupRecords
}

// intersects reports whether glyphs of a set may match all the sequences of
// the rule.
func (r contextRule) intersects(glyphs ot.GlyphSet) bool {
	return seqIntersects(r.backtrack, glyphs) &&
		seqIntersects(r.input, glyphs) &&
		seqIntersects(r.lookahead, glyphs)
}

// contextTable wraps a contextual (type 5) or chained contextual (type 6)
// subtable of any format.
type contextTable struct {
	ot.ContextSubst
}

// sequenceRule interprets a format 1 or format 2 rule.
func (ct contextTable) sequenceRule(r ot.SequenceRule) contextRule {
	rule := contextRule{inputCount: r.InputCount, records: r.Records}
	if ct.Format() == 2 {
		rule.backtrack = classSeq{r.Backtrack, ct.BacktrackClassDef()}
		rule.input = classSeq{r.Input, ct.InputClassDef()}
		rule.lookahead = classSeq{r.Lookahead, ct.LookaheadClassDef()}
		return rule
	}
	rule.backtrack = glyphSeq{r.Backtrack}
	rule.input = glyphSeq{r.Input}
	rule.lookahead = glyphSeq{r.Lookahead}
	return rule
}

// coverageRule interprets the rule of a format 3 subtable.
func (ct contextTable) coverageRule() contextRule {
	r := ct.CoverageRule()
	return contextRule{
		backtrack:  coverageSeq{r.Backtrack},
		input:      coverageSeq{r.Input.From(1)},
		lookahead:  coverageSeq{r.Lookahead},
		inputCount: r.Input.Len(),
		records:    r.Records,
	}
}

// ruleSet iterates over the rules of rule set #i of a format 1 or 2
// subtable.
func (ct contextTable) ruleSet(i int) iter.Seq[contextRule] {
	return func(yield func(contextRule) bool) {
		rs := ct.RuleSet(i)
		for j := range rs.Len() {
			if !yield(ct.sequenceRule(rs.Rule(j))) {
				return
			}
		}
	}
}

// allRules iterates over every rule of the subtable.
func (ct contextTable) allRules() iter.Seq[contextRule] {
	return func(yield func(contextRule) bool) {
		if ct.Format() == 3 {
			yield(ct.coverageRule())
			return
		}
		for i := range ct.RuleSetCount() {
			for rule := range ct.ruleSet(i) {
				if !yield(rule) {
					return
				}
			}
		}
	}
}

// ruleSetIndex returns the rule set index for the first input glyph g:
// its coverage index for format 1, its input class for format 2.
func (ct contextTable) ruleSetIndex(g ot.GlyphIndex) (int, bool) {
	inx := ct.Coverage().Index(g)
	if inx == ot.NotCovered {
		return 0, false
	}
	if ct.Format() == 2 {
		return int(ct.InputClassDef().Class(g)), true
	}
	return int(inx), true
}

// --- Apply -----------------------------------------------------------------

// applyContext applies the first matching rule of a contextual subtable at
// the current buffer position.
func applyContext(ctx *applyCtx, ct contextTable) bool {
	switch ct.Format() {
	case 1, 2:
		inx, ok := ct.ruleSetIndex(ctx.buf.cur(0).Glyph)
		if !ok {
			return false
		}
		for rule := range ct.ruleSet(inx) {
			if applyContextRule(ctx, rule) {
				return true
			}
		}
	case 3:
		if !ct.Coverage().Contains(ctx.buf.cur(0).Glyph) {
			return false
		}
		return applyContextRule(ctx, ct.coverageRule())
	}
	return false
}

// applyContextRule matches a rule at the current buffer position and, on
// success, applies its nested lookups. Nothing is changed if the rule does
// not match.
func applyContextRule(ctx *applyCtx, rule contextRule) bool {
	var pos matchPositions
	matchLength, _, ok := matchInput(ctx, rule.inputCount, rule.input, &pos)
	if !ok {
		return false
	}
	start, ok := matchBacktrack(ctx, rule.backtrack)
	if !ok {
		return false
	}
	end, ok := matchLookahead(ctx, rule.lookahead, matchLength)
	if !ok {
		return false
	}
	tracer().Debugf("lookup %d: context matched at %d, applying %d nested lookups",
		ctx.lookupIndex, ctx.buf.idx, rule.records.Len())
	ctx.buf.unsafeToBreakFromOutbuffer(start, end)
	applyLookupRecords(ctx, rule.inputCount, &pos, rule.records, matchLength)
	return true
}

// --- Closure -----------------------------------------------------------------

// intersectsContext reports whether a contextual subtable may apply to
// glyphs of a set.
func intersectsContext(ct contextTable, glyphs ot.GlyphSet) bool {
	found := false
	ct.reachableRules(glyphs, func(contextRule) bool {
		found = true
		return false
	})
	return found
}

// closeContext recurses into the nested lookups of every rule which may
// match glyphs of the closure set.
func closeContext(c *closureCtx, ct contextTable) {
	ct.reachableRules(c.glyphs, func(rule contextRule) bool {
		for i := range rule.records.Len() {
			c.recurse(int(rule.records.At(i).LookupListIndex))
		}
		return true
	})
}

// reachableRules calls fn for every rule which may match glyphs of a set,
// until fn returns false.
func (ct contextTable) reachableRules(glyphs ot.GlyphSet, fn func(contextRule) bool) {
	switch ct.Format() {
	case 1:
		for inx, g := range ct.Coverage().Glyphs() {
			if !glyphs.Contains(g) {
				continue
			}
			for rule := range ct.ruleSet(int(inx)) {
				if rule.intersects(glyphs) && !fn(rule) {
					return
				}
			}
		}
	case 2:
		if !ct.Coverage().Intersects(glyphs) {
			return
		}
		classes := ct.InputClassDef()
		for i := range ct.RuleSetCount() {
			if !classes.IntersectsClass(glyphs, uint16(i)) {
				continue
			}
			for rule := range ct.ruleSet(i) {
				if rule.intersects(glyphs) && !fn(rule) {
					return
				}
			}
		}
	case 3:
		rule := ct.coverageRule()
		if ct.Coverage().Intersects(glyphs) && rule.intersects(glyphs) {
			fn(rule)
		}
	}
}

// --- Collect glyphs ------------------------------------------------------------

func collectContext(c *collectCtx, ct contextTable) {
	ct.Coverage().CollectInto(c.input)
	for rule := range ct.allRules() {
		seqCollect(rule.backtrack, c.before)
		seqCollect(rule.input, c.input)
		seqCollect(rule.lookahead, c.after)
		for i := range rule.records.Len() {
			c.recurse(int(rule.records.At(i).LookupListIndex))
		}
	}
}

// --- Would apply ---------------------------------------------------------------

func wouldApplyContext(c *wouldApplyCtx, ct contextTable) bool {
	if len(c.glyphs) == 0 {
		return false
	}
	switch ct.Format() {
	case 1, 2:
		inx, ok := ct.ruleSetIndex(c.glyphs[0])
		if !ok {
			return false
		}
		for rule := range ct.ruleSet(inx) {
			if c.wouldMatch(rule) {
				return true
			}
		}
	case 3:
		return ct.Coverage().Contains(c.glyphs[0]) && c.wouldMatch(ct.coverageRule())
	}
	return false
}
