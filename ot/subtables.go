package ot

// Subtable is a view onto a GSUB lookup subtable of a given lookup type.
// Clients switch on Type and Format and then convert the subtable to the
// typed view for the (type, format) combination. Converting to a view not
// matching the subtable's type yields a null view.
type Subtable struct {
	Type LayoutTableLookupType
	b    binarySegm
}

// Format returns the format identifier of the subtable.
func (st Subtable) Format() uint16 {
	return st.b.U16(0)
}

// IsNull reports whether the subtable is absent.
func (st Subtable) IsNull() bool {
	return st.Format() == 0
}

// Coverage returns the primary coverage table of the subtable, i.e. the
// coverage table which decides whether the subtable applies to a glyph.
func (st Subtable) Coverage() Coverage {
	switch st.Type {
	case GSubLookupTypeSingle, GSubLookupTypeMultiple, GSubLookupTypeAlternate,
		GSubLookupTypeLigature, GSubLookupTypeReverseChaining:
		return coverageAt(st.b.resolve16(2))
	case GSubLookupTypeContext, GSubLookupTypeChainingContext:
		return st.Context().Coverage()
	}
	return Coverage{b: nullSegm}
}

func (st Subtable) as(t LayoutTableLookupType, name string, minSize int) binarySegm {
	if st.Type != t || len(st.b) < minSize {
		return null(name, minSize)
	}
	return st.b
}

// Single returns the view for a single substitution subtable (type 1).
func (st Subtable) Single() SingleSubst {
	return SingleSubst{b: st.as(GSubLookupTypeSingle, "SingleSubst", minSizeSingleSubst)}
}

// Multiple returns the view for a multiple substitution subtable (type 2).
func (st Subtable) Multiple() MultipleSubst {
	return MultipleSubst{sequenceTable{b: st.as(GSubLookupTypeMultiple, "MultipleSubst", minSizeMultipleSubst)}}
}

// Alternate returns the view for an alternate substitution subtable (type 3).
func (st Subtable) Alternate() AlternateSubst {
	return AlternateSubst{sequenceTable{b: st.as(GSubLookupTypeAlternate, "AlternateSubst", minSizeMultipleSubst)}}
}

// Ligature returns the view for a ligature substitution subtable (type 4).
func (st Subtable) Ligature() LigatureSubst {
	return LigatureSubst{b: st.as(GSubLookupTypeLigature, "LigatureSubst", minSizeMultipleSubst)}
}

// Context returns the view for a contextual (type 5) or chained contextual
// (type 6) substitution subtable.
func (st Subtable) Context() ContextSubst {
	switch st.Type {
	case GSubLookupTypeContext:
		return ContextSubst{b: st.as(st.Type, "ContextSubst", minSizeContextFmt3)}
	case GSubLookupTypeChainingContext:
		return ContextSubst{b: st.as(st.Type, "ChainContextSubst", minSizeChainContextFmt2), chained: true}
	}
	return ContextSubst{b: nullSegm}
}

// Extension returns the view for an extension subtable (type 7).
func (st Subtable) Extension() ExtensionSubst {
	return ExtensionSubst{b: st.as(GSubLookupTypeExtensionSubs, "ExtensionSubst", minSizeExtension)}
}

// ReverseChain returns the view for a reverse chaining contextual single
// substitution subtable (type 8).
func (st Subtable) ReverseChain() ReverseChainSubst {
	return ReverseChainSubst{b: st.as(GSubLookupTypeReverseChaining, "ReverseChainSubst", minSizeReverseChain)}
}

// Resolve looks through an extension subtable and returns its target.
// Subtables of other types are returned unchanged. Extension subtables may
// not point to extension subtables; such a target resolves to a null
// subtable.
func (st Subtable) Resolve() Subtable {
	if st.Type != GSubLookupTypeExtensionSubs {
		return st
	}
	return st.Extension().Target()
}

// --- Type 1: Single substitution -------------------------------------------

// SingleSubst is a view onto a single substitution subtable.
//
// Format 1 calculates the output glyph by adding a constant delta:
//
//	uint16    substFormat       Format identifier: format = 1
//	Offset16  coverageOffset    Offset to Coverage table, from beginning of substitution subtable
//	int16     deltaGlyphID      Add to original glyph ID to get substitute glyph ID
//
// Format 2 provides an array of output glyph indices:
//
//	uint16    substFormat       Format identifier: format = 2
//	Offset16  coverageOffset    Offset to Coverage table, from beginning of substitution subtable
//	uint16    glyphCount        Number of glyph IDs in the substituteGlyphIDs array
//	uint16    substituteGlyphIDs[glyphCount]   Ordered by Coverage index
type SingleSubst struct {
	b binarySegm
}

// Format returns the format of the subtable.
func (s SingleSubst) Format() uint16 { return s.b.U16(0) }

// Coverage returns the coverage table of the subtable.
func (s SingleSubst) Coverage() Coverage { return coverageAt(s.b.resolve16(2)) }

// Delta returns the glyph delta of a format 1 subtable.
func (s SingleSubst) Delta() uint16 { return s.b.U16(4) }

// Substitutes returns the substitute glyphs of a format 2 subtable.
func (s SingleSubst) Substitutes() U16Array {
	if s.Format() != 2 {
		return U16Array{}
	}
	return u16ArrayAt(s.b, 4)
}

// --- Type 2 and 3: Multiple and alternate substitution -----------------------

// sequenceTable is the shared layout of multiple and alternate substitution
// subtables:
//
//	uint16    substFormat       Format identifier: format = 1
//	Offset16  coverageOffset    Offset to Coverage table, from beginning of substitution subtable
//	uint16    count             Number of Sequence/AlternateSet table offsets
//	Offset16  offsets[count]    Offsets to Sequence/AlternateSet tables, ordered by Coverage index
//
// Every Sequence/AlternateSet table is a uint16 count followed by count glyph IDs.
type sequenceTable struct {
	b binarySegm
}

func (s sequenceTable) Format() uint16 { return s.b.U16(0) }

func (s sequenceTable) Coverage() Coverage { return coverageAt(s.b.resolve16(2)) }

func (s sequenceTable) Len() int {
	if s.Format() != 1 {
		return 0
	}
	return offsetArray16At(s.b, 4).Len()
}

func (s sequenceTable) glyphs(i int) U16Array {
	if s.Format() != 1 {
		return U16Array{}
	}
	return u16ArrayAt(offsetArray16At(s.b, 4).Get(i), 0)
}

// MultipleSubst is a view onto a multiple substitution subtable.
type MultipleSubst struct {
	sequenceTable
}

// Sequence returns the output glyph sequence for coverage index i.
func (m MultipleSubst) Sequence(i int) U16Array {
	return m.glyphs(i)
}

// AlternateSubst is a view onto an alternate substitution subtable.
type AlternateSubst struct {
	sequenceTable
}

// AlternateSet returns the alternate glyphs for coverage index i.
func (a AlternateSubst) AlternateSet(i int) U16Array {
	return a.glyphs(i)
}

// --- Type 4: Ligature substitution -----------------------------------------

// LigatureSubst is a view onto a ligature substitution subtable:
//
//	uint16    substFormat            Format identifier: format = 1
//	Offset16  coverageOffset         Offset to Coverage table, from beginning of substitution subtable
//	uint16    ligatureSetCount       Number of LigatureSet tables
//	Offset16  ligatureSetOffsets[]   Offsets to LigatureSet tables, ordered by Coverage index
type LigatureSubst struct {
	b binarySegm
}

// Format returns the format of the subtable.
func (l LigatureSubst) Format() uint16 { return l.b.U16(0) }

// Coverage returns the coverage table of the subtable.
func (l LigatureSubst) Coverage() Coverage { return coverageAt(l.b.resolve16(2)) }

// Len returns the number of ligature sets.
func (l LigatureSubst) Len() int {
	if l.Format() != 1 {
		return 0
	}
	return offsetArray16At(l.b, 4).Len()
}

// LigatureSet returns the ligature set for coverage index i.
func (l LigatureSubst) LigatureSet(i int) LigatureSet {
	if l.Format() != 1 {
		return LigatureSet{}
	}
	return LigatureSet{offsets: offsetArray16At(offsetArray16At(l.b, 4).Get(i), 0)}
}

// LigatureSet is a list of ligatures starting with the same glyph, ordered
// by preference.
type LigatureSet struct {
	offsets offsetArray16
}

// Len returns the number of ligatures of the set.
func (ls LigatureSet) Len() int {
	return ls.offsets.Len()
}

// Ligature returns ligature #i of the set.
func (ls LigatureSet) Ligature(i int) Ligature {
	b := ls.offsets.Get(i)
	if len(b) < minSizeLigature {
		b = null("Ligature", minSizeLigature)
	}
	return Ligature{b: b}
}

// Ligature is a view onto a ligature table:
//
//	uint16    ligatureGlyph                   glyph ID of ligature to substitute
//	uint16    componentCount                  Number of components in the ligature
//	uint16    componentGlyphIDs[componentCount - 1]  Array of component glyph IDs, starting with the second
type Ligature struct {
	b binarySegm
}

// Glyph returns the ligature glyph.
func (l Ligature) Glyph() GlyphIndex { return GlyphIndex(l.b.U16(0)) }

// ComponentCount returns the number of components, including the first one.
func (l Ligature) ComponentCount() int { return int(l.b.U16(2)) }

// Components returns the component glyphs, starting with the second one.
func (l Ligature) Components() U16Array {
	n := l.ComponentCount() - 1
	if n <= 0 {
		return U16Array{}
	}
	return headless(l.b, 4, n)
}

// --- Type 5 and 6: Contextual and chained contextual substitution ------------

// ContextSubst is a view onto a contextual (type 5) or chained contextual
// (type 6) substitution subtable. Both share the same three formats:
//
// Format 1 matches sequences of glyph IDs, organized in rule sets indexed by
// the coverage index of the first input glyph.
//
//	uint16    format                 Format identifier: format = 1
//	Offset16  coverageOffset         Offset to Coverage table, from beginning of subtable
//	uint16    ruleSetCount           Number of rule sets
//	Offset16  ruleSetOffsets[]       Array of offsets to rule set tables
//
// Format 2 matches sequences of glyph classes, organized in rule sets indexed
// by the class of the first input glyph. The chained variant carries three
// class definitions (backtrack, input and lookahead), the non-chained one
// only the input class definition.
//
//	uint16    format                 Format identifier: format = 2
//	Offset16  coverageOffset         Offset to Coverage table, from beginning of subtable
//	Offset16  [backtrackClassDefOffset]
//	Offset16  inputClassDefOffset
//	Offset16  [lookaheadClassDefOffset]
//	uint16    classSeqRuleSetCount   Number of class sequence rule sets
//	Offset16  classSeqRuleSetOffsets[]
//
// Format 3 matches a single sequence of coverage tables.
//
//	uint16    format                 Format identifier: format = 3
//	[uint16   backtrackGlyphCount, Offset16 backtrackCoverageOffsets[]]
//	uint16    inputGlyphCount
//	[uint16   seqLookupCount]        (non-chained variant)
//	Offset16  inputCoverageOffsets[]
//	[uint16   lookaheadGlyphCount, Offset16 lookaheadCoverageOffsets[]]
//	[uint16   seqLookupCount]        (chained variant)
//	SequenceLookupRecord seqLookupRecords[seqLookupCount]
type ContextSubst struct {
	b       binarySegm
	chained bool
}

// Format returns the format of the subtable.
func (c ContextSubst) Format() uint16 { return c.b.U16(0) }

// IsChained reports whether this is a chained contextual subtable.
func (c ContextSubst) IsChained() bool { return c.chained }

// Coverage returns the coverage table for the first input glyph.
func (c ContextSubst) Coverage() Coverage {
	switch c.Format() {
	case 1, 2:
		return coverageAt(c.b.resolve16(2))
	case 3:
		return c.CoverageRule().Input.At(0)
	}
	return Coverage{b: nullSegm}
}

func (c ContextSubst) ruleSets() offsetArray16 {
	switch c.Format() {
	case 1:
		return offsetArray16At(c.b, 4)
	case 2:
		if c.chained {
			return offsetArray16At(c.b, 10)
		}
		return offsetArray16At(c.b, 6)
	}
	return offsetArray16{}
}

// RuleSetCount returns the number of rule sets of a format 1 or format 2
// subtable.
func (c ContextSubst) RuleSetCount() int {
	return c.ruleSets().Len()
}

// RuleSet returns rule set #i of a format 1 or format 2 subtable. For format
// 1, i is the coverage index of the first input glyph; for format 2, it is
// the input class of the first input glyph.
func (c ContextSubst) RuleSet(i int) RuleSet {
	rs := c.ruleSets()
	if rs.Len() == 0 {
		return RuleSet{}
	}
	return RuleSet{offsets: offsetArray16At(rs.Get(i), 0), chained: c.chained}
}

// BacktrackClassDef returns the backtrack class definition of a chained
// format 2 subtable.
func (c ContextSubst) BacktrackClassDef() ClassDef {
	if c.Format() != 2 || !c.chained {
		return ClassDef{b: nullSegm}
	}
	return classDefAt(c.b.resolve16(4))
}

// InputClassDef returns the input class definition of a format 2 subtable.
func (c ContextSubst) InputClassDef() ClassDef {
	switch {
	case c.Format() != 2:
		return ClassDef{b: nullSegm}
	case c.chained:
		return classDefAt(c.b.resolve16(6))
	}
	return classDefAt(c.b.resolve16(4))
}

// LookaheadClassDef returns the lookahead class definition of a chained
// format 2 subtable.
func (c ContextSubst) LookaheadClassDef() ClassDef {
	if c.Format() != 2 || !c.chained {
		return ClassDef{b: nullSegm}
	}
	return classDefAt(c.b.resolve16(8))
}

// CoverageRule returns the single rule of a format 3 subtable.
func (c ContextSubst) CoverageRule() CoverageRule {
	if c.Format() != 3 {
		return CoverageRule{}
	}
	if !c.chained {
		n := int(c.b.U16(2))
		lookups := int(c.b.U16(4))
		return CoverageRule{
			Input:   coverageSequence(c.b, 6, n),
			Records: lookupRecordsAt(c.b, 6+2*n, lookups),
		}
	}
	var r CoverageRule
	at := 2
	r.Backtrack, at = coverageSequenceAt(c.b, at)
	r.Input, at = coverageSequenceAt(c.b, at)
	r.Lookahead, at = coverageSequenceAt(c.b, at)
	r.Records = lookupRecordsAt(c.b, at+2, int(c.b.U16(at)))
	return r
}

// RuleSet is a view onto a (class) sequence rule set or chained (class)
// sequence rule set.
type RuleSet struct {
	offsets offsetArray16
	chained bool
}

// Len returns the number of rules in the set.
func (rs RuleSet) Len() int {
	return rs.offsets.Len()
}

// Rule returns rule #i of the set.
func (rs RuleSet) Rule(i int) SequenceRule {
	b := rs.offsets.Get(i)
	var r SequenceRule
	if !rs.chained {
		// uint16 glyphCount, uint16 seqLookupCount, uint16 inputSequence[glyphCount-1],
		// SequenceLookupRecord seqLookupRecords[seqLookupCount]
		r.InputCount = int(b.U16(0))
		lookups := int(b.U16(2))
		tail := max(r.InputCount-1, 0)
		r.Input = headless(b, 4, tail)
		r.Records = lookupRecordsAt(b, 4+2*tail, lookups)
		return r
	}
	// uint16 backtrackGlyphCount, uint16 backtrackSequence[...], uint16 inputGlyphCount,
	// uint16 inputSequence[inputGlyphCount-1], uint16 lookaheadGlyphCount,
	// uint16 lookaheadSequence[...], uint16 seqLookupCount, SequenceLookupRecord[...]
	at := 0
	r.Backtrack = u16ArrayAt(b, at)
	at += 2 + 2*int(b.U16(at))
	r.InputCount = int(b.U16(at))
	tail := max(r.InputCount-1, 0)
	r.Input = headless(b, at+2, tail)
	at += 2 + 2*tail
	r.Lookahead = u16ArrayAt(b, at)
	at += 2 + 2*int(b.U16(at))
	r.Records = lookupRecordsAt(b, at+2, int(b.U16(at)))
	return r
}

// SequenceRule is a rule of a format 1 or format 2 (chained) contextual
// subtable. Depending on the format, sequences hold glyph IDs or class
// values. Input does not include the first input glyph, which is implied by
// the rule set the rule belongs to. Non-chained rules have empty backtrack
// and lookahead sequences.
type SequenceRule struct {
	Backtrack  U16Array
	Input      U16Array
	Lookahead  U16Array
	InputCount int // number of input glyphs, including the first one
	Records    LookupRecords
}

// CoverageRule is the rule of a format 3 (chained) contextual subtable.
// Input includes the coverage table for the first input glyph.
type CoverageRule struct {
	Backtrack CoverageSequence
	Input     CoverageSequence
	Lookahead CoverageSequence
	Records   LookupRecords
}

// CoverageSequence is a sequence of coverage tables, given by offsets
// relative to the beginning of a subtable.
type CoverageSequence struct {
	base binarySegm
	offs U16Array
}

func coverageSequence(base binarySegm, at, n int) CoverageSequence {
	return CoverageSequence{base: base, offs: headless(base, at, n)}
}

// coverageSequenceAt reads a counted coverage sequence and returns it
// together with the position following it.
func coverageSequenceAt(base binarySegm, at int) (CoverageSequence, int) {
	n := int(base.U16(at))
	return coverageSequence(base, at+2, n), at + 2 + 2*n
}

// Len returns the number of coverage tables.
func (cs CoverageSequence) Len() int {
	return cs.offs.Len()
}

// At returns coverage table #i.
func (cs CoverageSequence) At(i int) Coverage {
	off := cs.offs.At(i)
	if off == 0 {
		return Coverage{b: nullSegm}
	}
	return coverageAt(cs.base.jump(int(off)))
}

// From returns the sub-sequence starting at coverage table #i.
func (cs CoverageSequence) From(i int) CoverageSequence {
	return CoverageSequence{base: cs.base, offs: cs.offs.From(i)}
}

// --- Type 7: Extension -----------------------------------------------------

// ExtensionSubst is a view onto an extension substitution subtable:
//
//	uint16    substFormat          Format identifier. Set to 1.
//	uint16    extensionLookupType  Lookup type of subtable referenced by extensionOffset
//	Offset32  extensionOffset      Offset to the extension subtable, relative to the start of this subtable
type ExtensionSubst struct {
	b binarySegm
}

// Format returns the format of the subtable.
func (x ExtensionSubst) Format() uint16 { return x.b.U16(0) }

// ExtensionType returns the lookup type of the target subtable.
func (x ExtensionSubst) ExtensionType() LayoutTableLookupType {
	if x.Format() != 1 {
		return 0
	}
	return LayoutTableLookupType(x.b.U16(2))
}

// Target returns the subtable the extension points to.
func (x ExtensionSubst) Target() Subtable {
	t := x.ExtensionType()
	if t == 0 || t == GSubLookupTypeExtensionSubs {
		return Subtable{b: nullSegm}
	}
	return Subtable{Type: t, b: x.b.resolve32(4)}
}

// --- Type 8: Reverse chaining contextual single substitution -----------------

// ReverseChainSubst is a view onto a reverse chaining contextual single
// substitution subtable:
//
//	uint16    substFormat                  Format identifier: format = 1
//	Offset16  coverageOffset               Offset to Coverage table, from beginning of substitution subtable
//	uint16    backtrackGlyphCount          Number of glyphs in the backtrack sequence
//	Offset16  backtrackCoverageOffsets[]   Array of offsets to coverage tables in backtrack sequence
//	uint16    lookaheadGlyphCount          Number of glyphs in lookahead sequence
//	Offset16  lookaheadCoverageOffsets[]   Array of offsets to coverage tables in lookahead sequence
//	uint16    glyphCount                   Number of glyph IDs in the substituteGlyphIDs array
//	uint16    substituteGlyphIDs[]         Array of substitute glyph IDs, ordered by Coverage index
type ReverseChainSubst struct {
	b binarySegm
}

// Format returns the format of the subtable.
func (r ReverseChainSubst) Format() uint16 { return r.b.U16(0) }

// Coverage returns the coverage table for the current glyph.
func (r ReverseChainSubst) Coverage() Coverage { return coverageAt(r.b.resolve16(2)) }

// Backtrack returns the backtrack coverage sequence.
func (r ReverseChainSubst) Backtrack() CoverageSequence {
	cs, _ := coverageSequenceAt(r.b, 4)
	return cs
}

// Lookahead returns the lookahead coverage sequence.
func (r ReverseChainSubst) Lookahead() CoverageSequence {
	_, at := coverageSequenceAt(r.b, 4)
	cs, _ := coverageSequenceAt(r.b, at)
	return cs
}

// Substitutes returns the substitute glyphs, ordered by coverage index.
func (r ReverseChainSubst) Substitutes() U16Array {
	_, at := coverageSequenceAt(r.b, 4)
	_, at = coverageSequenceAt(r.b, at)
	return u16ArrayAt(r.b, at)
}
