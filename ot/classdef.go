package ot

// ClassDef is a view onto a class definition table, assigning glyphs to
// classes. Glyphs not mentioned by the table belong to class 0.
//
// Format 1 assigns classes to a consecutive run of glyphs:
//
//	uint16    classFormat          Format identifier: format = 1
//	uint16    startGlyphID         First glyph ID of the classValueArray
//	uint16    glyphCount           Size of the classValueArray
//	uint16    classValueArray[]    Array of class values, one per glyph ID
//
// Format 2 assigns classes to ranges of glyphs:
//
//	uint16            classFormat         Format identifier: format = 2
//	uint16            classRangeCount     Number of ClassRangeRecords
//	ClassRangeRecord  classRangeRecords[] Ordered by startGlyphID
//
// where each ClassRangeRecord is (startGlyphID, endGlyphID, class).
//
// The zero value of ClassDef maps every glyph to class 0.
type ClassDef struct {
	b binarySegm
}

func classDefAt(b binarySegm) ClassDef {
	if len(b) < minSizeClassDef {
		return ClassDef{b: null("ClassDef", minSizeClassDef)}
	}
	return ClassDef{b: b}
}

// Format returns the format of the class definition table, or 0 for null.
func (cd ClassDef) Format() uint16 {
	return cd.b.U16(0)
}

// Class returns the class of glyph g.
func (cd ClassDef) Class(g GlyphIndex) uint16 {
	switch cd.Format() {
	case 1:
		start := GlyphIndex(cd.b.U16(2))
		values := u16ArrayAt(cd.b, 4)
		if g < start {
			return 0
		}
		return values.At(int(g - start))
	case 2:
		ranges := cd.rangeCount()
		lo, hi := 0, ranges
		for lo < hi {
			mid := int(uint(lo+hi) >> 1)
			rec := 4 + 6*mid
			start, end := GlyphIndex(cd.b.U16(rec)), GlyphIndex(cd.b.U16(rec+2))
			switch {
			case g < start:
				hi = mid
			case g > end:
				lo = mid + 1
			default:
				return cd.b.U16(rec + 4)
			}
		}
	}
	return 0
}

func (cd ClassDef) rangeCount() int {
	return min(int(cd.b.U16(2)), (len(cd.b)-4)/6)
}

// IntersectsClass reports whether set contains a glyph of class `class`.
// For class 0 this includes every glyph the table does not mention.
func (cd ClassDef) IntersectsClass(set GlyphSet, class uint16) bool {
	for g := range set {
		if cd.Class(g) == class {
			return true
		}
	}
	return false
}

// CollectClass adds all glyphs explicitly assigned to `class` to set. For
// class 0 only glyphs listed with class 0 are added, as glyphs not mentioned
// by the table cannot be enumerated.
func (cd ClassDef) CollectClass(set GlyphSet, class uint16) {
	switch cd.Format() {
	case 1:
		start := int(cd.b.U16(2))
		values := u16ArrayAt(cd.b, 4)
		for i := range values.Len() {
			if values.At(i) == class {
				set.Add(GlyphIndex(start + i))
			}
		}
	case 2:
		for i := range cd.rangeCount() {
			rec := 4 + 6*i
			if cd.b.U16(rec+4) != class {
				continue
			}
			for g := int(cd.b.U16(rec)); g <= int(cd.b.U16(rec+2)); g++ {
				set.Add(GlyphIndex(g))
			}
		}
	}
}
