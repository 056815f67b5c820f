package ot

import "sync"

// Face holds the layout tables of a font relevant for glyph substitution.
// Tables are certified lazily, exactly once per table, the first time they
// are accessed. A table failing certification is treated as absent for the
// lifetime of the Face; the findings are available through Errors.
//
// A Face is safe for concurrent use. The table bytes are borrowed and must
// not be modified by clients while the Face is in use.
type Face struct {
	// NumGlyphs is the number of glyphs of the font. Glyph closures drop glyph
	// IDs outside of the font. A value of 0 means unknown, and no glyphs are
	// dropped.
	NumGlyphs int

	gsubRaw, gdefRaw   binarySegm
	gsubOnce, gdefOnce sync.Once
	gsub               GSub
	gdef               GDef
	gsubErrs, gdefErrs errorCollector
}

// NewFace creates a face from the bytes of a GSUB table and a GDEF table.
// Either may be nil.
func NewFace(gsub, gdef []byte) *Face {
	return &Face{gsubRaw: gsub, gdefRaw: gdef}
}

// GSub returns the certified GSUB table, or an empty table.
func (f *Face) GSub() GSub {
	f.gsubOnce.Do(func() {
		f.gsub = GSub{b: nullSegm}
		if len(f.gsubRaw) == 0 {
			return
		}
		s := newSanitizer(T("GSUB"), f.gsubRaw)
		if s.gsub() && !s.ec.hasCriticalErrors() {
			f.gsub = gsubAt(f.gsubRaw)
		} else {
			tracer().Errorf("GSUB table failed certification, will be ignored")
		}
		f.gsubErrs = s.ec
	})
	return f.gsub
}

// GDef returns the certified GDEF table, or an empty table.
func (f *Face) GDef() GDef {
	f.gdefOnce.Do(func() {
		f.gdef = GDef{b: nullSegm}
		if len(f.gdefRaw) == 0 {
			return
		}
		s := newSanitizer(T("GDEF"), f.gdefRaw)
		if s.gdef() && !s.ec.hasCriticalErrors() {
			f.gdef = GDef{b: f.gdefRaw}
		} else {
			tracer().Errorf("GDEF table failed certification, will be ignored")
		}
		f.gdefErrs = s.ec
	})
	return f.gdef
}

// HasGSub reports whether the face has a usable GSUB table.
func (f *Face) HasGSub() bool {
	major, _ := f.GSub().Version()
	return major != 0
}

// LookupCount returns the number of GSUB lookups.
func (f *Face) LookupCount() int {
	return f.GSub().LookupList().Len()
}

// Lookup returns GSUB lookup #index. ok is false if there is no such lookup.
func (f *Face) Lookup(index int) (Lookup, bool) {
	ll := f.GSub().LookupList()
	if index < 0 || index >= ll.Len() {
		return Lookup{b: nullSegm}, false
	}
	return ll.Lookup(index), true
}

// Errors returns the findings of certification for both tables. It forces
// certification of tables not yet accessed.
func (f *Face) Errors() []FontError {
	f.GSub()
	f.GDef()
	var ec errorCollector
	ec.merge(&f.gsubErrs)
	ec.merge(&f.gdefErrs)
	return ec.errors
}

// Warnings returns non-critical findings of certification for both tables.
func (f *Face) Warnings() []FontWarning {
	f.GSub()
	f.GDef()
	var ec errorCollector
	ec.merge(&f.gsubErrs)
	ec.merge(&f.gdefErrs)
	return ec.warnings
}
