package ot

import (
	"testing"

	"github.com/npillmayer/otsubst/internal/otbuild"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinarySegmBounds(t *testing.T) {
	b := binarySegm{0x01, 0x02, 0x03, 0x04, 0x05}
	assert.Equal(t, uint16(0x0102), b.U16(0))
	assert.Equal(t, uint16(0x0405), b.U16(3))
	assert.Equal(t, uint16(0), b.U16(4), "read across end of segment must yield 0")
	assert.Equal(t, uint16(0), b.U16(-1))
	assert.Equal(t, uint32(0x02030405), b.U32(1))
	assert.Equal(t, uint32(0), b.U32(2))
	_, err := b.view(int(^uint(0)>>1), 2)
	assert.ErrorIs(t, err, errBufferBounds, "overflowing offset must be rejected")
}

func TestOffsetResolution(t *testing.T) {
	b := binarySegm{0x00, 0x00, 0x00, 0x04, 0xAB, 0xCD, 0x00, 0x40}
	assert.Equal(t, nullSegm, b.resolve16(0), "NULL offset must resolve to null pool")
	assert.Equal(t, binarySegm{0xAB, 0xCD, 0x00, 0x40}, b.resolve16(2))
	assert.Equal(t, nullSegm, b.resolve16(6), "offset beyond table must resolve to null pool")
	assert.Equal(t, nullSegm, b.resolve16(7), "truncated offset must resolve to null pool")
	assert.Equal(t, nullSegm, b.resolve32(4))
}

func TestNullPoolImpersonatesRecords(t *testing.T) {
	var cov Coverage
	assert.Equal(t, NotCovered, cov.Index(7))
	var cd ClassDef
	assert.Equal(t, uint16(0), cd.Class(7))
	var l Lookup
	assert.Equal(t, 0, l.SubtableCount())
	assert.True(t, l.Subtable(0).IsNull())
	n := coverageAt(binarySegm{0, 1})
	assert.Equal(t, NullPoolSize, len(n.b), "short coverage must be replaced by null pool")
	assert.Panics(t, func() { null("Huge", NullPoolSize+1) })
}

func TestScratchIsReset(t *testing.T) {
	type rec struct{ A, B int }
	var s Scratch[rec]
	p := s.Get()
	p.A = 42
	q := s.Get()
	assert.Equal(t, 0, q.A, "scratch value must be zeroed for each use")
}

func TestCoverageFormats(t *testing.T) {
	tests := []struct {
		name     string
		table    []byte
		glyph    GlyphIndex
		expected uint32
	}{
		{"fmt1 first", otbuild.Coverage(3, 7, 9).Bytes(), 3, 0},
		{"fmt1 last", otbuild.Coverage(3, 7, 9).Bytes(), 9, 2},
		{"fmt1 miss", otbuild.Coverage(3, 7, 9).Bytes(), 8, NotCovered},
		{"fmt2 range start", otbuild.CoverageRanges(otbuild.Range{Start: 10, End: 12}, otbuild.Range{Start: 20, End: 20}).Bytes(), 10, 0},
		{"fmt2 second range", otbuild.CoverageRanges(otbuild.Range{Start: 10, End: 12}, otbuild.Range{Start: 20, End: 20}).Bytes(), 20, 3},
		{"fmt2 gap", otbuild.CoverageRanges(otbuild.Range{Start: 10, End: 12}, otbuild.Range{Start: 20, End: 20}).Bytes(), 13, NotCovered},
		{"unknown format", []byte{0, 5, 0, 1, 0, 3}, 3, NotCovered},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cov := coverageAt(tt.table)
			if inx := cov.Index(tt.glyph); inx != tt.expected {
				t.Fatalf("expected coverage index %d for glyph %d, have %d", tt.expected, tt.glyph, inx)
			}
		})
	}
}

func TestCoverageTruncatedCount(t *testing.T) {
	// count claims 100 glyphs, but only 2 are present
	cov := coverageAt(binarySegm{0, 1, 0, 100, 0, 5, 0, 6})
	assert.Equal(t, uint32(1), cov.Index(6))
	n := 0
	for range cov.Glyphs() {
		n++
	}
	assert.Equal(t, 2, n)
}

func TestCoverageIntersects(t *testing.T) {
	cov := coverageAt(otbuild.CoverageRanges(otbuild.Range{Start: 10, End: 20}).Bytes())
	assert.True(t, cov.Intersects(NewGlyphSet(1, 15)))
	assert.False(t, cov.Intersects(NewGlyphSet(1, 21)))
	set := NewGlyphSet()
	cov.CollectInto(set)
	assert.Equal(t, 11, set.Len())
}

func TestClassDefFormats(t *testing.T) {
	cd1 := classDefAt(otbuild.ClassDef1(5, 1, 2, 0, 2).Bytes())
	assert.Equal(t, uint16(1), cd1.Class(5))
	assert.Equal(t, uint16(2), cd1.Class(8))
	assert.Equal(t, uint16(0), cd1.Class(4))
	assert.Equal(t, uint16(0), cd1.Class(9))
	cd2 := classDefAt(otbuild.ClassDef2(
		otbuild.ClassRange{Start: 10, End: 19, Class: 1},
		otbuild.ClassRange{Start: 30, End: 30, Class: 3},
	).Bytes())
	assert.Equal(t, uint16(1), cd2.Class(15))
	assert.Equal(t, uint16(3), cd2.Class(30))
	assert.Equal(t, uint16(0), cd2.Class(25))
	//
	assert.True(t, cd1.IntersectsClass(NewGlyphSet(8), 2))
	assert.True(t, cd1.IntersectsClass(NewGlyphSet(100), 0))
	assert.False(t, cd2.IntersectsClass(NewGlyphSet(15, 16), 3))
	set := NewGlyphSet()
	cd1.CollectClass(set, 2)
	assert.Equal(t, []GlyphIndex{6, 8}, set.Glyphs())
	set.Clear()
	cd1.CollectClass(set, 0)
	assert.Equal(t, []GlyphIndex{7}, set.Glyphs())
	set.Clear()
	cd0 := classDefAt(otbuild.ClassDef2(
		otbuild.ClassRange{Start: 3, End: 4, Class: 0},
		otbuild.ClassRange{Start: 10, End: 11, Class: 1},
	).Bytes())
	cd0.CollectClass(set, 0)
	assert.Equal(t, []GlyphIndex{3, 4}, set.Glyphs())
}

func TestGlyphSet(t *testing.T) {
	set := NewGlyphSet(5, 3, 9)
	require.Equal(t, []GlyphIndex{3, 5, 9}, set.Glyphs())
	clone := set.Clone()
	clone.Add(1)
	assert.False(t, set.Contains(1))
	assert.True(t, set.IsSubset(clone))
	assert.False(t, clone.IsSubset(set))
	clone.DeleteFrom(5)
	assert.Equal(t, []GlyphIndex{1, 3}, clone.Glyphs())
	set.Union(clone)
	assert.Equal(t, 4, set.Len())
	set.Clear()
	assert.Equal(t, 0, set.Len())
}

func TestLookupMarkFilteringSet(t *testing.T) {
	st := otbuild.Single1(otbuild.Coverage(1), 1)
	gsub := otbuild.GSUB(
		otbuild.Lookup(1, uint16(LOOKUP_FLAG_IGNORE_LIGATURES), st),
		otbuild.LookupWithMarkSet(1, uint16(LOOKUP_FLAG_IGNORE_BASE_GLYPHS), 3, st),
	)
	face := NewFace(gsub, nil)
	require.Equal(t, 2, face.LookupCount())
	l0, _ := face.Lookup(0)
	_, ok := l0.MarkFilteringSet()
	assert.False(t, ok)
	assert.Equal(t, uint32(LOOKUP_FLAG_IGNORE_LIGATURES), l0.Props())
	l1, _ := face.Lookup(1)
	set, ok := l1.MarkFilteringSet()
	assert.True(t, ok)
	assert.Equal(t, uint16(3), set)
	assert.Equal(t, uint32(3<<16|0x0012), l1.Props())
	_, ok = face.Lookup(2)
	assert.False(t, ok)
}

func TestExtensionResolves(t *testing.T) {
	target := otbuild.Reverse(otbuild.Coverage(4), nil, nil, 40)
	gsub := otbuild.GSUB(otbuild.Lookup(7, 0, otbuild.Extension(8, target)))
	face := NewFace(gsub, nil)
	l, ok := face.Lookup(0)
	require.True(t, ok)
	assert.True(t, l.IsReverse())
	st := l.Subtable(0).Resolve()
	assert.Equal(t, GSubLookupTypeReverseChaining, st.Type)
	assert.Equal(t, uint16(40), st.ReverseChain().Substitutes().At(0))
	assert.True(t, st.Coverage().Contains(4))
}

func TestSubtableTypeMismatchYieldsNull(t *testing.T) {
	b := otbuild.Single1(otbuild.Coverage(1), 1).Bytes()
	st := Subtable{Type: GSubLookupTypeSingle, b: b}
	assert.Equal(t, uint16(1), st.Single().Format())
	assert.Equal(t, uint16(0), st.Multiple().Format())
	assert.Equal(t, uint16(0), st.Context().Format())
}

func TestChainedRuleLayout(t *testing.T) {
	b := otbuild.Chain1(otbuild.Coverage(5), []otbuild.ChainRule{{
		Backtrack: []uint16{1, 2},
		Input:     []uint16{6},
		Lookahead: []uint16{7, 8, 9},
		Records:   []otbuild.Rec{{Seq: 1, Lookup: 4}},
	}}).Bytes()
	ctx := Subtable{Type: GSubLookupTypeChainingContext, b: b}.Context()
	require.True(t, ctx.IsChained())
	rule := ctx.RuleSet(0).Rule(0)
	assert.Equal(t, 2, rule.Backtrack.Len())
	assert.Equal(t, uint16(2), rule.Backtrack.At(0), "backtrack is stored closest glyph first")
	assert.Equal(t, 2, rule.InputCount)
	assert.Equal(t, uint16(6), rule.Input.At(0))
	assert.Equal(t, 3, rule.Lookahead.Len())
	require.Equal(t, 1, rule.Records.Len())
	assert.Equal(t, LookupRecord{SequenceIndex: 1, LookupListIndex: 4}, rule.Records.At(0))
}

func TestFeatureAndScriptLists(t *testing.T) {
	gsub := otbuild.GSUBWithFeatures([]otbuild.Feature{
		{Tag: "liga", Lookups: []uint16{0}},
		{Tag: "salt", Lookups: []uint16{0, 1}},
	}, otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1), 1)))
	face := NewFace(gsub, nil)
	g := face.GSub()
	fl := g.FeatureList()
	require.Equal(t, 2, fl.Len())
	assert.Equal(t, T("salt"), fl.Tag(1))
	assert.Equal(t, 2, fl.LookupIndices(1).Len())
	sl := g.ScriptList()
	require.Equal(t, 1, sl.Len())
	assert.Equal(t, T("DFLT"), sl.Tag(0))
	langSys := sl.Script(0).DefaultLangSys()
	_, ok := langSys.RequiredFeature()
	assert.False(t, ok)
	assert.Equal(t, 2, langSys.FeatureIndices().Len())
}

func TestGDefMarkSets(t *testing.T) {
	gdef := otbuild.GDEF(
		otbuild.ClassDef2(otbuild.ClassRange{Start: 1, End: 9, Class: 1}, otbuild.ClassRange{Start: 10, End: 19, Class: 3}),
		otbuild.ClassDef1(10, 1, 1, 2),
		otbuild.Coverage(10, 11),
		otbuild.Coverage(12),
	)
	face := NewFace(nil, gdef)
	d := face.GDef()
	assert.Equal(t, MarkGlyph, d.GlyphClass(11))
	assert.Equal(t, BaseGlyph, d.GlyphClass(2))
	assert.Equal(t, uint16(2), d.MarkAttachClass(12))
	assert.Equal(t, 2, d.MarkGlyphSetCount())
	assert.True(t, d.MarkSetCovers(0, 11))
	assert.False(t, d.MarkSetCovers(1, 11))
	assert.False(t, d.MarkSetCovers(5, 12))
	assert.Empty(t, face.Errors())
}
