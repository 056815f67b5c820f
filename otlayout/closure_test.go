package otlayout

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/otsubst/internal/otbuild"
	"github.com/npillmayer/otsubst/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
)

func closureTestFace(t *testing.T) *ot.Face {
	return newTestFace(t, otbuild.GSUB(
		/* 0 */ otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1), 1)),
		/* 1 */ otbuild.Lookup(1, 0, otbuild.Single2(otbuild.Coverage(2), 1)),
		/* 2 */ otbuild.Lookup(2, 0, otbuild.Multiple(otbuild.Coverage(3), []uint16{4, 5})),
		/* 3 */ otbuild.Lookup(3, 0, otbuild.Alternate(otbuild.Coverage(4), []uint16{6, 7})),
		/* 4 */ otbuild.Lookup(4, 0, otbuild.Ligature(otbuild.Coverage(1),
			[]otbuild.Lig{{Glyph: 50, Components: []uint16{2}}, {Glyph: 51, Components: []uint16{9}}})),
		/* 5 */ otbuild.Lookup(5, 0, otbuild.Context1(otbuild.Coverage(3),
			[]otbuild.Rule{{Input: []uint16{1}, Records: []otbuild.Rec{{Seq: 1, Lookup: 6}}}})),
		/* 6 */ otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1), 59)),
		/* 7 */ otbuild.Lookup(8, 0, otbuild.Reverse(otbuild.Coverage(8), nil,
			[]*otbuild.Node{otbuild.Coverage(1)}, 61)),
		/* 8 */ otbuild.Lookup(6, 0, otbuild.Chain3(
			[]*otbuild.Node{otbuild.Coverage(99)}, []*otbuild.Node{otbuild.Coverage(1)}, nil,
			otbuild.Rec{Seq: 0, Lookup: 6})),
	), nil)
}

func TestClosure(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := closureTestFace(t)
	cases := []struct {
		name     string
		input    []ot.GlyphIndex
		lookups  []int
		expected []ot.GlyphIndex
	}{
		{"mutual-reference", glyphs(1), []int{0, 1}, glyphs(1, 2)},
		{"mutual-reference-reversed", glyphs(2), []int{1, 0}, glyphs(1, 2)},
		{"multiple-and-alternate", glyphs(3), []int{2, 3}, glyphs(3, 4, 5, 6, 7)},
		{"ligature-needs-components", glyphs(1), []int{4}, glyphs(1)},
		{"ligature", glyphs(1, 2), []int{4}, glyphs(1, 2, 50)},
		{"context-recursion", glyphs(1, 3), []int{5}, glyphs(1, 3, 60)},
		{"context-not-reached", glyphs(1), []int{5}, glyphs(1)},
		{"reverse", glyphs(1, 8), []int{7}, glyphs(1, 8, 61)},
		{"reverse-no-context", glyphs(8), []int{7}, glyphs(8)},
		{"chain-backtrack-missing", glyphs(1), []int{8}, glyphs(1)},
		{"chain-backtrack", glyphs(1, 99), []int{8}, glyphs(1, 60, 99)},
		{"cascade", glyphs(3), []int{2, 3, 5}, glyphs(3, 4, 5, 6, 7)},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			set := ot.NewGlyphSet(tc.input...)
			Closure(face, set, tc.lookups)
			if diff := cmp.Diff(tc.expected, set.Glyphs()); diff != "" {
				t.Fatalf("closure mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestClosureAllLookupsIsStable(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := closureTestFace(t)
	set := ot.NewGlyphSet(1, 3)
	Closure(face, set, nil)
	// single, multiple, alternate, ligature and the single nested in context 3 1
	assert.Equal(t, glyphs(1, 2, 3, 4, 5, 6, 7, 50, 60), set.Glyphs())
	again := set.Clone()
	Closure(face, again, nil)
	assert.Equal(t, set.Glyphs(), again.Glyphs(), "closure must be a fixpoint")
}

func TestClosureCyclicContexts(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(5, 0, otbuild.Context1(otbuild.Coverage(1), []otbuild.Rule{{
			Records: []otbuild.Rec{{Seq: 0, Lookup: 1}, {Seq: 0, Lookup: 2}},
		}})),
		otbuild.Lookup(5, 0, otbuild.Context1(otbuild.Coverage(1), []otbuild.Rule{{
			Records: []otbuild.Rec{{Seq: 0, Lookup: 0}},
		}})),
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1, 2), 1)),
	), nil)
	set := ot.NewGlyphSet(1)
	Closure(face, set, []int{0})
	assert.Equal(t, glyphs(1, 2, 3), set.Glyphs())
}

func TestClosureDropsGlyphsOutsideFont(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1, 2), 10)),
	), nil)
	face.NumGlyphs = 12
	set := ot.NewGlyphSet(1, 2)
	Closure(face, set, nil)
	assert.Equal(t, glyphs(1, 2, 11), set.Glyphs())
}

func TestClosureStageLimit(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	// a chain g → g+1, visited in descending order, grows by one glyph per stage
	const n = ot.ClosureMaxStages + 8
	lookups := make([]*otbuild.Node, n)
	order := make([]int, n)
	for i := range n {
		lookups[i] = otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(uint16(i)), 1))
		order[i] = n - 1 - i
	}
	face := newTestFace(t, otbuild.GSUB(lookups...), nil)
	set := ot.NewGlyphSet(0)
	Closure(face, set, order)
	assert.Equal(t, ot.ClosureMaxStages+1, set.Len())
	Closure(face, set, order)
	assert.Equal(t, n+1, set.Len())
}

func TestIntersects(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := closureTestFace(t)
	assert.True(t, Intersects(face, 0, ot.NewGlyphSet(1)))
	assert.False(t, Intersects(face, 0, ot.NewGlyphSet(2)))
	assert.False(t, Intersects(face, 4, ot.NewGlyphSet(1)))
	assert.True(t, Intersects(face, 4, ot.NewGlyphSet(1, 9)))
	assert.False(t, Intersects(face, 7, ot.NewGlyphSet(8)))
	assert.True(t, Intersects(face, 7, ot.NewGlyphSet(1, 8)))
	assert.False(t, Intersects(face, 99, ot.NewGlyphSet(1)))
}

func TestClosureLookups(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := closureTestFace(t)
	assert.Equal(t, []int{0, 4}, ClosureLookups(face, ot.NewGlyphSet(1, 2), []int{0, 2, 4}))
	// lookup 5 invokes lookup 6
	assert.Equal(t, []int{5, 6}, ClosureLookups(face, ot.NewGlyphSet(1, 3), []int{5}))
	assert.Equal(t, []int{}, ClosureLookups(face, ot.NewGlyphSet(100), []int{0, 5}))
}

func TestClosureLookupsSkipsUnreachableRules(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(5, 0, otbuild.Context1(otbuild.Coverage(1), []otbuild.Rule{
			{Input: []uint16{2}, Records: []otbuild.Rec{{Seq: 0, Lookup: 1}}},
			{Input: []uint16{3}, Records: []otbuild.Rec{{Seq: 0, Lookup: 2}}},
		})),
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1), 1)),
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1), 2)),
	), nil)
	assert.Equal(t, []int{0, 1}, ClosureLookups(face, ot.NewGlyphSet(1, 2), []int{0}))
	assert.Equal(t, []int{0, 2}, ClosureLookups(face, ot.NewGlyphSet(1, 3), []int{0}))
	assert.Equal(t, []int{0, 1, 2}, ClosureLookups(face, ot.NewGlyphSet(1, 2, 3), []int{0}))
}

func TestCollectGlyphs(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		/* 0 */ otbuild.Lookup(6, 0, otbuild.Chain1(otbuild.Coverage(2), []otbuild.ChainRule{{
			Backtrack: []uint16{1}, Input: []uint16{3}, Lookahead: []uint16{4},
			Records: []otbuild.Rec{{Seq: 1, Lookup: 1}},
		}})),
		/* 1 */ otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(3), 10)),
		/* 2 */ otbuild.Lookup(4, 0, otbuild.Ligature(otbuild.Coverage(1),
			[]otbuild.Lig{{Glyph: 50, Components: []uint16{2, 3}}})),
		/* 3 */ otbuild.Lookup(8, 0, otbuild.Reverse(otbuild.Coverage(1, 2),
			[]*otbuild.Node{otbuild.Coverage(5)}, []*otbuild.Node{otbuild.Coverage(6)}, 7, 8)),
		/* 4 */ otbuild.Lookup(5, 0, otbuild.Context1(otbuild.Coverage(1), []otbuild.Rule{{
			Records: []otbuild.Rec{{Seq: 0, Lookup: 4}, {Seq: 0, Lookup: 2}},
		}})),
	), nil)
	cases := []struct {
		name                         string
		lookup                       int
		before, input, after, output []ot.GlyphIndex
	}{
		{"chain", 0, glyphs(1), glyphs(2, 3), glyphs(4), glyphs(13)},
		{"ligature", 2, nil, glyphs(1, 2, 3), nil, glyphs(50)},
		{"reverse", 3, glyphs(5), glyphs(1, 2), glyphs(6), glyphs(7, 8)},
		{"recursive", 4, nil, glyphs(1), nil, glyphs(50)},
		{"unknown", 99, nil, nil, nil, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gc := CollectGlyphs(face, tc.lookup)
			assert.Equal(t, len(tc.before), gc.Before.Len(), "before")
			assert.Equal(t, len(tc.input), gc.Input.Len(), "input")
			assert.Equal(t, len(tc.after), gc.After.Len(), "after")
			assert.Equal(t, len(tc.output), gc.Output.Len(), "output")
			for _, g := range tc.before {
				assert.True(t, gc.Before.Contains(g), "before: %d", g)
			}
			for _, g := range tc.input {
				assert.True(t, gc.Input.Contains(g), "input: %d", g)
			}
			for _, g := range tc.after {
				assert.True(t, gc.After.Contains(g), "after: %d", g)
			}
			for _, g := range tc.output {
				assert.True(t, gc.Output.Contains(g), "output: %d", g)
			}
		})
	}
}

func TestWouldApply(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		/* 0 */ otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1), 1)),
		/* 1 */ otbuild.Lookup(4, 0, otbuild.Ligature(otbuild.Coverage(1),
			[]otbuild.Lig{{Glyph: 50, Components: []uint16{2, 3}}})),
		/* 2 */ otbuild.Lookup(6, 0, otbuild.Chain1(otbuild.Coverage(2), []otbuild.ChainRule{
			{Backtrack: []uint16{1}, Input: []uint16{3}, Records: []otbuild.Rec{{Seq: 1, Lookup: 0}}},
		})),
		/* 3 */ otbuild.Lookup(5, 0, otbuild.Context2(otbuild.Coverage(1, 2), otbuild.ClassDef1(1, 1, 2),
			nil, []otbuild.Rule{{Input: []uint16{2, 2}}})),
		/* 4 */ otbuild.Lookup(7, 0, otbuild.Extension(8,
			otbuild.Reverse(otbuild.Coverage(5), nil, nil, 6))),
	), nil)
	cases := []struct {
		name        string
		lookup      int
		input       []ot.GlyphIndex
		zeroContext bool
		expected    bool
	}{
		{"single", 0, glyphs(1), false, true},
		{"single-too-long", 0, glyphs(1, 1), false, false},
		{"single-not-covered", 0, glyphs(2), false, false},
		{"empty", 0, nil, false, false},
		{"ligature", 1, glyphs(1, 2, 3), false, true},
		{"ligature-prefix", 1, glyphs(1, 2), false, false},
		{"ligature-longer", 1, glyphs(1, 2, 3, 4), false, false},
		{"chain", 2, glyphs(2, 3), false, true},
		{"chain-zero-context", 2, glyphs(2, 3), true, false},
		{"classes", 3, glyphs(1, 2, 2), false, true},
		{"classes-mismatch", 3, glyphs(1, 2, 1), false, false},
		{"extension-reverse", 4, glyphs(5), false, true},
		{"unknown-lookup", 9, glyphs(1), false, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := WouldApply(face, tc.lookup, tc.input, tc.zeroContext); got != tc.expected {
				t.Fatalf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}
