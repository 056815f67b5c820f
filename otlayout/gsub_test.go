package otlayout

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/npillmayer/otsubst/internal/otbuild"
	"github.com/npillmayer/otsubst/ot"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func glyphs(ids ...uint16) []ot.GlyphIndex {
	gs := make([]ot.GlyphIndex, len(ids))
	for i, id := range ids {
		gs[i] = ot.GlyphIndex(id)
	}
	return gs
}

func newTestFace(t *testing.T, gsub, gdef []byte) *ot.Face {
	t.Helper()
	face := ot.NewFace(gsub, gdef)
	require.True(t, face.HasGSub(), "GSUB rejected: %v", face.Errors())
	require.Empty(t, face.Errors())
	return face
}

// substitute applies lookups in order to a fresh buffer.
func substitute(face *ot.Face, input []ot.GlyphIndex, lookups ...int) (*Buffer, bool) {
	buf := NewBuffer(input...)
	s := NewSubstituter(face)
	s.Start(buf)
	return buf, s.SubstituteLookups(buf, lookups, MaskGlobal)
}

type substCase struct {
	name     string
	input    []ot.GlyphIndex
	expected []ot.GlyphIndex
	applied  bool
}

func runSubstCases(t *testing.T, face *ot.Face, cases []substCase, lookups ...int) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf, applied := substitute(face, tc.input, lookups...)
			if applied != tc.applied {
				t.Fatalf("expected applied=%v, got %v", tc.applied, applied)
			}
			if diff := cmp.Diff(tc.expected, buf.Glyphs()); diff != "" {
				t.Fatalf("glyphs mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestGSUBSingle(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(10, 11), 5)),
		otbuild.Lookup(1, 0, otbuild.Single2(otbuild.Coverage(15, 16), 10, 11)),
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(0xFFFF), 2)),
		otbuild.Lookup(7, 0, otbuild.Extension(1, otbuild.Single2(otbuild.Coverage(12), 99))),
	), nil)
	runSubstCases(t, face, []substCase{
		{"delta", glyphs(10, 11, 12), glyphs(15, 16, 12), true},
		{"not-covered", glyphs(1, 2), glyphs(1, 2), false},
		{"empty", nil, []ot.GlyphIndex{}, false},
	}, 0)
	runSubstCases(t, face, []substCase{
		{"round-trip", glyphs(10, 11, 12), glyphs(10, 11, 12), true},
	}, 0, 1)
	runSubstCases(t, face, []substCase{
		{"wrap-around", glyphs(0xFFFF), glyphs(1), true},
	}, 2)
	runSubstCases(t, face, []substCase{
		{"extension", glyphs(11, 12), glyphs(11, 99), true},
	}, 3)
}

func TestGSUBSingleSetsProps(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	gdef := otbuild.GDEF(otbuild.ClassDef1(1, 1, 1, 0, 3), nil)
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(1), 3)),
	), gdef)
	buf, ok := substitute(face, glyphs(1, 2), 0)
	require.True(t, ok)
	assert.Equal(t, glyphs(4, 2), buf.Glyphs())
	r := buf.At(0)
	assert.NotZero(t, r.Props&GlyphPropsSubstituted)
	assert.NotZero(t, r.Props&GlyphPropsMark, "props must be taken from GDEF class of the new glyph")
	assert.Equal(t, GlyphPropsBase, buf.At(1).Props)
}

func TestGSUBMultiple(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(2, 0, otbuild.Multiple(otbuild.Coverage(10, 11, 12),
			[]uint16{1, 2, 3}, []uint16{}, []uint16{5})),
	), nil)
	runSubstCases(t, face, []substCase{
		{"expand", glyphs(10, 20), glyphs(1, 2, 3, 20), true},
		// empty sequences are not allowed by OpenType; we accept them as deletion
		{"delete", glyphs(20, 11, 21), glyphs(20, 21), true},
		{"single", glyphs(12), glyphs(5), true},
		{"mixed", glyphs(12, 11, 10), glyphs(5, 1, 2, 3), true},
	}, 0)
	buf, _ := substitute(face, glyphs(7, 10, 8), 0)
	clusters := make([]uint32, buf.Len())
	for i, r := range buf.Records() {
		clusters[i] = r.Cluster
	}
	assert.Equal(t, []uint32{0, 1, 1, 1, 2}, clusters, "expanded glyphs keep the cluster")
}

func TestGSUBMultipleMarksComponents(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	gdef := otbuild.GDEF(otbuild.ClassDef1(1, 1, 1, 1), nil)
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(2, 0, otbuild.Multiple(otbuild.Coverage(3), []uint16{1, 2})),
	), gdef)
	buf, ok := substitute(face, glyphs(3), 0)
	require.True(t, ok)
	require.Equal(t, glyphs(1, 2), buf.Glyphs())
	for i, r := range buf.Records() {
		assert.NotZero(t, r.Props&GlyphPropsMultiplied, "glyph #%d", i)
		assert.NotZero(t, r.Props&GlyphPropsSubstituted, "glyph #%d", i)
		assert.Equal(t, i, r.LigatureComponent())
	}
}

func TestGSUBAlternate(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(3, 0, otbuild.Alternate(otbuild.Coverage(10), []uint16{30, 31, 32})),
	), nil)
	const lookupMask = uint32(0xFF) << 1
	cases := []struct {
		name     string
		value    uint32 // feature value stored in the glyph mask
		random   bool
		expected ot.GlyphIndex
		applied  bool
	}{
		{"value-1", 1, false, 30, true},
		{"value-2", 2, false, 31, true},
		{"value-3", 3, false, 32, true},
		{"value-0", 0, false, 10, false},
		{"value-too-large", 4, false, 10, false},
		{"max-value-no-random", MaxValue, false, 10, false},
		{"max-value-random", MaxValue, true, 31, true}, // 48271 % 3 + 1
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			buf := NewBuffer(10)
			s := NewSubstituter(face)
			s.Random = tc.random
			s.Start(buf)
			buf.At(0).Mask = MaskGlobal | tc.value<<1
			applied := s.SubstituteLookup(buf, 0, lookupMask)
			if applied != tc.applied {
				t.Fatalf("expected applied=%v, got %v", tc.applied, applied)
			}
			if g := buf.At(0).Glyph; g != tc.expected {
				t.Fatalf("expected glyph %d, got %d", tc.expected, g)
			}
		})
	}
}

func TestGlyphAlternates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(3, 0, otbuild.Alternate(otbuild.Coverage(10, 11), []uint16{30, 31, 32}, []uint16{40})),
		otbuild.Lookup(7, 0,
			otbuild.Extension(3, otbuild.Alternate(otbuild.Coverage(12), []uint16{})),
			otbuild.Extension(3, otbuild.Alternate(otbuild.Coverage(12), []uint16{50, 51}))),
		otbuild.Lookup(1, 0, otbuild.Single1(otbuild.Coverage(10), 1)),
	), nil)
	cases := []struct {
		name       string
		lookup     int
		glyph      ot.GlyphIndex
		start, n   int
		alternates []ot.GlyphIndex
		total      int
	}{
		{"all", 0, 10, 0, -1, glyphs(30, 31, 32), 3},
		{"page", 0, 10, 1, 1, glyphs(31), 3},
		{"start-beyond-end", 0, 10, 5, 2, nil, 3},
		{"second-set", 0, 11, 0, -1, glyphs(40), 1},
		{"not-covered", 0, 12, 0, -1, nil, 0},
		{"extension-skips-empty-set", 1, 12, 0, 10, glyphs(50, 51), 2},
		{"other-type", 2, 10, 0, -1, nil, 0},
		{"no-lookup", 9, 10, 0, -1, nil, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			alternates, total := GlyphAlternates(face, tc.lookup, tc.glyph, tc.start, tc.n)
			assert.Equal(t, tc.total, total)
			if diff := cmp.Diff(tc.alternates, alternates); diff != "" {
				t.Fatalf("alternates mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMinStd(t *testing.T) {
	r := NewMinStd(0)
	assert.Equal(t, uint32(48271), r.Uint32())
	assert.Equal(t, uint32(182605794), r.Uint32())
}

func TestGSUBLigature(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(4, 0, otbuild.Ligature(otbuild.Coverage(1, 4),
			[]otbuild.Lig{{Glyph: 50, Components: []uint16{2, 3}}, {Glyph: 51, Components: []uint16{2}}},
			[]otbuild.Lig{{Glyph: 52}},
		)),
	), nil)
	runSubstCases(t, face, []substCase{
		{"first-wins", glyphs(1, 2, 3), glyphs(50), true},
		{"fallback", glyphs(1, 2, 9), glyphs(51, 9), true},
		{"atomic", glyphs(1, 9, 3), glyphs(1, 9, 3), false},
		{"at-end", glyphs(7, 1), glyphs(7, 1), false},
		{"one-component", glyphs(4, 4), glyphs(52, 52), true},
		{"repeated", glyphs(1, 2, 1, 2, 3), glyphs(51, 50), true},
	}, 0)
}

func TestGSUBLigatureEndToEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(4, 0, otbuild.Ligature(otbuild.Coverage(2),
			[]otbuild.Lig{{Glyph: 4, Components: []uint16{3}}})),
	), nil)
	buf, ok := substitute(face, glyphs(1, 2, 3), 0)
	require.True(t, ok)
	require.Equal(t, glyphs(1, 4), buf.Glyphs())
	lig := buf.At(1)
	assert.Equal(t, 2, lig.LigatureComponents())
	assert.NotZero(t, lig.LigatureID())
	assert.NotZero(t, lig.Props&GlyphPropsLigated)
	assert.Equal(t, uint32(1), lig.Cluster, "ligature takes the minimum cluster")
	assert.Equal(t, uint32(0), buf.At(0).Cluster)
}

func TestGSUBLigatureSkipsMarks(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	gdef := otbuild.GDEF(otbuild.ClassDef1(1, 1, 1, 0, 0, 3), nil)
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(4, uint16(ot.LOOKUP_FLAG_IGNORE_MARKS), otbuild.Ligature(otbuild.Coverage(1),
			[]otbuild.Lig{{Glyph: 50, Components: []uint16{2}}})),
		otbuild.Lookup(4, 0, otbuild.Ligature(otbuild.Coverage(1),
			[]otbuild.Lig{{Glyph: 50, Components: []uint16{2}}})),
	), gdef)
	buf, ok := substitute(face, glyphs(1, 5, 2), 0)
	require.True(t, ok)
	require.Equal(t, glyphs(50, 5), buf.Glyphs())
	assert.Equal(t, buf.At(0).LigatureID(), buf.At(1).LigatureID(), "mark must be attached to ligature")
	assert.Equal(t, 1, buf.At(1).LigatureComponent())
	//
	buf, ok = substitute(face, glyphs(1, 5, 2), 1)
	assert.False(t, ok, "marks interrupt matching without IGNORE_MARKS")
	assert.Equal(t, glyphs(1, 5, 2), buf.Glyphs())
}

func TestGSUBReverse(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := newTestFace(t, otbuild.GSUB(
		otbuild.Lookup(8, 0, otbuild.Reverse(otbuild.Coverage(1, 2), nil,
			[]*otbuild.Node{otbuild.Coverage(3)}, 11, 12)),
		otbuild.Lookup(8, 0, otbuild.Reverse(otbuild.Coverage(1), nil,
			[]*otbuild.Node{otbuild.Coverage(2)}, 2)),
		otbuild.Lookup(8, 0, otbuild.Reverse(otbuild.Coverage(1),
			[]*otbuild.Node{otbuild.Coverage(7), otbuild.Coverage(8)}, nil, 9)),
	), nil)
	runSubstCases(t, face, []substCase{
		{"lookahead", glyphs(1, 3, 2, 3, 2), glyphs(11, 3, 12, 3, 2), true},
		{"no-context", glyphs(1, 2), glyphs(1, 2), false},
	}, 0)
	runSubstCases(t, face, []substCase{
		{"end-to-start", glyphs(1, 1, 2), glyphs(2, 2, 2), true},
	}, 1)
	runSubstCases(t, face, []substCase{
		{"backtrack", glyphs(7, 8, 1, 8, 1), glyphs(7, 8, 9, 8, 1), true},
	}, 2)
}

// withDeadline fails the test if f does not return within d.
func withDeadline(t *testing.T, d time.Duration, f func()) {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		f()
	}()
	select {
	case <-done:
	case <-time.After(d):
		t.Fatalf("did not terminate within %v", d)
	}
}

func TestGSUBExtensionReverseTerminates(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	reverse := func() *otbuild.Node {
		return otbuild.Extension(8, otbuild.Reverse(otbuild.Coverage(5), nil, nil, 5))
	}
	// extension type of subtable 0 decides the lookup direction, so a reverse
	// subtable behind a NULL subtable would be driven forward
	mixed := ot.NewFace(otbuild.GSUB(otbuild.Lookup(7, 0, nil, reverse())), nil)
	assert.False(t, mixed.HasGSub())
	withDeadline(t, 3*time.Second, func() {
		buf, ok := substitute(mixed, glyphs(5), 0)
		assert.False(t, ok)
		assert.Equal(t, glyphs(5), buf.Glyphs())
	})
	face := newTestFace(t, otbuild.GSUB(otbuild.Lookup(7, 0, reverse(), reverse())), nil)
	l, _ := face.Lookup(0)
	require.True(t, l.IsReverse())
	withDeadline(t, 3*time.Second, func() {
		buf, ok := substitute(face, glyphs(5, 5, 1), 0)
		assert.True(t, ok)
		assert.Equal(t, glyphs(5, 5, 1), buf.Glyphs())
	})
}

func TestGSUBRejectedTableIsEmpty(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "font.opentype.layout")
	defer teardown()
	//
	face := ot.NewFace(otbuild.New().U16(1, 0, 0, 0, 200).Bytes(), nil)
	assert.False(t, face.HasGSub())
	assert.NotEmpty(t, face.Errors())
	buf, ok := substitute(face, glyphs(1, 2), 0)
	assert.False(t, ok)
	assert.Equal(t, glyphs(1, 2), buf.Glyphs())
	set := ot.NewGlyphSet(1, 2)
	Closure(face, set, nil)
	assert.Equal(t, 2, set.Len())
	assert.False(t, WouldApply(face, 0, glyphs(1), false))
}
