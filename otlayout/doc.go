/*
Package otlayout applies OpenType GSUB lookups to glyph buffers.

The package executes lookups it is handed; it does not decide which lookups
are active for a script, language or feature. Clients select lookup indices
and per-glyph feature masks, then drive the substitution with a Substituter:

	face := ot.NewFace(gsubBytes, gdefBytes)
	buf := otlayout.NewBuffer(glyphs...)
	s := otlayout.NewSubstituter(face)
	s.Start(buf)
	for _, inx := range lookups {
	    s.SubstituteLookup(buf, inx, otlayout.MaskGlobal)
	}

Apart from applying lookups, the package computes glyph closures over a set
of lookups (Closure), prunes lookups not reachable from a glyph set
(ClosureLookups), collects the glyphs a lookup reads and writes
(CollectGlyphs) and tests whether a lookup would apply to a glyph sequence
(WouldApply).

Work on untrusted tables is bounded: recursive lookup invocation is limited
to ot.MaxNestingLevel levels, contextual rules match at most
ot.MaxContextLength glyphs, and closure computations stop after
ot.ClosureMaxStages passes or ot.MaxLookupVisitCount lookup visits.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otlayout

import (
	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype.layout'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype.layout")
}
