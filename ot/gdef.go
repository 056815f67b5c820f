package ot

// GlyphClassDefEnum lists the glyph classes of a GDEF glyph class
// definition table.
type GlyphClassDefEnum uint16

const (
	UnclassifiedGlyph GlyphClassDefEnum = iota // glyphs not assigned a class
	BaseGlyph                                  // single character, spacing glyph
	LigatureGlyph                              // multiple character, spacing glyph
	MarkGlyph                                  // non-spacing combining glyph
	ComponentGlyph                             // part of single character, spacing glyph
)

// GDef is a view onto a GDEF table header:
//
//	uint16    majorVersion               Major version of the GDEF table, = 1
//	uint16    minorVersion               Minor version of the GDEF table, = 0, 2 or 3
//	Offset16  glyphClassDefOffset        Offset to class definition table for glyph type
//	Offset16  attachListOffset           Offset to attachment point list table
//	Offset16  ligCaretListOffset         Offset to ligature caret list table
//	Offset16  markAttachClassDefOffset   Offset to class definition table for mark attachment type
//	Offset16  markGlyphSetsDefOffset     Offset to the table of mark glyph set definitions (1.2)
//	Offset32  itemVarStoreOffset         Offset to the Item Variation Store table (1.3)
//
// All offsets are from the beginning of the GDEF header and may be NULL. Only
// the parts used for glyph filtering during substitution are exposed.
type GDef struct {
	b binarySegm
}

// Version returns the major and minor version of the table.
func (g GDef) Version() (major, minor uint16) {
	return g.b.U16(0), g.b.U16(2)
}

// GlyphClassDef returns the glyph class definitions.
func (g GDef) GlyphClassDef() ClassDef {
	return classDefAt(g.b.resolve16(4))
}

// HasGlyphClasses reports whether the table assigns glyph classes.
func (g GDef) HasGlyphClasses() bool {
	return g.GlyphClassDef().Format() != 0
}

// GlyphClass returns the glyph class of g.
func (g GDef) GlyphClass(gid GlyphIndex) GlyphClassDefEnum {
	return GlyphClassDefEnum(g.GlyphClassDef().Class(gid))
}

// MarkAttachClassDef returns the mark attachment class definitions.
func (g GDef) MarkAttachClassDef() ClassDef {
	return classDefAt(g.b.resolve16(10))
}

// MarkAttachClass returns the mark attachment class of g.
func (g GDef) MarkAttachClass(gid GlyphIndex) uint16 {
	return g.MarkAttachClassDef().Class(gid)
}

// markGlyphSets returns the coverage offsets of the mark glyph sets table:
//
//	uint16    format                    Format identifier, = 1
//	uint16    markGlyphSetCount         Number of mark glyph sets defined
//	Offset32  coverageOffsets[markGlyphSetCount]   Array of offsets to mark glyph set coverage tables,
//	                                    from the start of the MarkGlyphSets table
func (g GDef) markGlyphSets() (binarySegm, int) {
	if _, minor := g.Version(); minor < 2 {
		return nil, 0
	}
	b := g.b.resolve16(12)
	if b.U16(0) != 1 {
		return nil, 0
	}
	return b, min(int(b.U16(2)), (len(b)-4)/4)
}

// MarkGlyphSetCount returns the number of mark glyph sets.
func (g GDef) MarkGlyphSetCount() int {
	_, n := g.markGlyphSets()
	return n
}

// MarkSetCovers reports whether mark glyph set #set contains glyph gid.
func (g GDef) MarkSetCovers(set uint16, gid GlyphIndex) bool {
	b, n := g.markGlyphSets()
	if int(set) >= n {
		return false
	}
	return coverageAt(b.resolve32(4 + 4*int(set))).Contains(gid)
}
