package otlayout

import (
	"testing"
	"time"

	"github.com/npillmayer/otsubst/internal/otbuild"
	"github.com/npillmayer/otsubst/ot"
)

func fuzzSeedTables() [][]byte {
	cov := otbuild.Coverage
	return [][]byte{
		otbuild.GSUB(
			otbuild.Lookup(1, 0, otbuild.Single1(cov(1, 2), 1)),
			otbuild.Lookup(2, 0, otbuild.Multiple(cov(3), []uint16{4, 5})),
			otbuild.Lookup(3, 0, otbuild.Alternate(cov(4), []uint16{6, 7})),
			otbuild.Lookup(4, 0, otbuild.Ligature(cov(1), []otbuild.Lig{{Glyph: 50, Components: []uint16{2}}})),
		),
		otbuild.GSUB(
			otbuild.Lookup(5, 0, otbuild.Context1(cov(1), []otbuild.Rule{{
				Input: []uint16{1}, Records: []otbuild.Rec{{Seq: 0, Lookup: 1}, {Seq: 1, Lookup: 0}},
			}})),
			otbuild.Lookup(6, 0, otbuild.Chain3(
				[]*otbuild.Node{cov(1)}, []*otbuild.Node{cov(2)}, []*otbuild.Node{cov(3)},
				otbuild.Rec{Seq: 0, Lookup: 2})),
			otbuild.Lookup(2, 0, otbuild.Multiple(cov(2), []uint16{2, 2})),
		),
		otbuild.GSUB(
			otbuild.Lookup(7, 0, otbuild.Extension(8, otbuild.Reverse(cov(5), nil, nil, 5))),
			otbuild.Lookup(7, 0, nil, otbuild.Extension(8, otbuild.Reverse(cov(5), nil, nil, 5))),
		),
	}
}

// FuzzLookups checks that applying, closing over, collecting and testing
// the lookups of arbitrary certified tables terminates without panics.
func FuzzLookups(f *testing.F) {
	for _, table := range fuzzSeedTables() {
		f.Add(table, []byte{1, 2, 3, 5, 1})
	}
	f.Fuzz(func(t *testing.T, data []byte, input []byte) {
		face := ot.NewFace(data, nil)
		if !face.HasGSub() {
			return
		}
		face.NumGlyphs = 512 // keeps closures small
		gs := make([]ot.GlyphIndex, len(input))
		for i, b := range input {
			gs[i] = ot.GlyphIndex(b)
		}
		withDeadline(t, 10*time.Second, func() {
			all := allLookups(face)
			buf, _ := substitute(face, gs, all...)
			_ = buf.Glyphs()
			set := ot.NewGlyphSet(gs...)
			ClosureLookups(face, set, all)
			Closure(face, set, all)
			for i := range all {
				CollectGlyphs(face, i)
				WouldApply(face, i, gs, false)
				WouldApply(face, i, gs, true)
				if len(gs) > 0 {
					GlyphAlternates(face, i, gs[0], 0, -1)
				}
			}
		})
	})
}
