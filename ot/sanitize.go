package ot

import "fmt"

// Certification of layout tables.
//
// The sanitizer walks the complete offset graph of a table once and checks
// that every reachable record, including all arrays it declares, lies within
// the table. It does not repair tables: any violation disqualifies the table
// as a whole. Subtables and coverage/class tables of unknown formats are not
// violations; they are reported as warnings and will be ignored at shaping
// time.
//
// Work is bounded by an operations budget proportional to the size of the
// table, guarding against offset graphs which reference the same records
// over and over again.

const (
	sanitizeMaxOpsFactor = 8
	sanitizeMinOps       = 16384
)

type sanitizer struct {
	table   binarySegm
	tag     Tag
	opsLeft int
	ec      errorCollector
}

func newSanitizer(tag Tag, table []byte) *sanitizer {
	return &sanitizer{
		table:   table,
		tag:     tag,
		opsLeft: max(sanitizeMaxOpsFactor*len(table), sanitizeMinOps),
	}
}

// Sanitize certifies a GSUB table. It returns false together with a list of
// findings if the table must not be used.
func Sanitize(gsub []byte) (bool, []FontError) {
	s := newSanitizer(T("GSUB"), gsub)
	ok := s.gsub()
	return ok, s.ec.errors
}

// SanitizeGDEF certifies the parts of a GDEF table used for glyph filtering
// during substitution.
func SanitizeGDEF(gdef []byte) (bool, []FontError) {
	s := newSanitizer(T("GDEF"), gdef)
	ok := s.gdef()
	return ok, s.ec.errors
}

// offsetOf returns the position of segment b within the table.
func (s *sanitizer) offsetOf(b binarySegm) uint32 {
	if len(b) > len(s.table) {
		return 0
	}
	return uint32(len(s.table) - len(b))
}

func (s *sanitizer) fail(section string, b binarySegm, format string, args ...any) bool {
	issue := fmt.Sprintf(format, args...)
	s.ec.addError(s.tag, section, issue, SeverityCritical, s.offsetOf(b))
	tracer().Errorf("%s/%s at %d: %s", s.tag, section, s.offsetOf(b), issue)
	return false
}

func (s *sanitizer) warn(b binarySegm, format string, args ...any) {
	s.ec.addWarning(s.tag, fmt.Sprintf(format, args...), s.offsetOf(b))
}

// check asserts that n bytes starting at b are part of the table, and
// consumes one operation.
func (s *sanitizer) check(section string, b binarySegm, n int) bool {
	s.opsLeft--
	if s.opsLeft < 0 {
		if s.opsLeft == -1 {
			s.fail(section, b, "operations budget exhausted")
		}
		return false
	}
	if !b.has(0, n) {
		return s.fail(section, b, "record of %d bytes exceeds table (%d bytes left)", n, len(b))
	}
	return true
}

// checkArray asserts that a counted array of records, with the count field
// at position `at`, is part of the table. It returns the count.
func (s *sanitizer) checkArray(section string, b binarySegm, at, recSize int) (int, bool) {
	if !s.check(section, b, at+2) {
		return 0, false
	}
	n := int(b.U16(at))
	return n, s.check(section, b, at+2+n*recSize)
}

// offset16 checks the 16-bit offset at position `at` of b and returns its
// target. A NULL offset yields an empty segment.
func (s *sanitizer) offset16(section string, b binarySegm, at int) (binarySegm, bool) {
	if !s.check(section, b, at+2) {
		return nil, false
	}
	off := int(b.U16(at))
	if off == 0 {
		return nil, true
	}
	if off >= len(b) {
		return nil, s.fail(section, b, "offset %d points beyond end of table", off)
	}
	return b[off:], true
}

// offset32 is the 32-bit variant of offset16.
func (s *sanitizer) offset32(section string, b binarySegm, at int) (binarySegm, bool) {
	if !s.check(section, b, at+4) {
		return nil, false
	}
	off := uint64(b.U32(at))
	if off == 0 {
		return nil, true
	}
	if off >= uint64(len(b)) {
		return nil, s.fail(section, b, "offset %d points beyond end of table", off)
	}
	return b[off:], true
}

// offsets16 checks a counted array of 16-bit offsets, relative to b, and
// validates every target with v.
func (s *sanitizer) offsets16(section string, b binarySegm, at int, v func(binarySegm) bool) bool {
	n, ok := s.checkArray(section, b, at, 2)
	for i := 0; ok && i < n; i++ {
		var target binarySegm
		if target, ok = s.offset16(section, b, at+2+2*i); ok && target != nil {
			ok = v(target)
		}
	}
	return ok
}

// --- GSUB ------------------------------------------------------------------

func (s *sanitizer) gsub() bool {
	b := s.table
	if !s.check("Header", b, minSizeGSubHeader) {
		return false
	}
	major, minor := b.U16(0), b.U16(2)
	if major != 1 {
		return s.fail("Header", b, "unsupported table version %d.%d", major, minor)
	}
	ok := s.linked16("ScriptList", b, 4, s.scriptList) &&
		s.linked16("FeatureList", b, 6, s.featureList) &&
		s.linked16("LookupList", b, 8, s.lookupList)
	if ok && minor >= 1 {
		ok = s.check("Header", b, minSizeGSubHeaderV11) &&
			s.linked32("FeatureVariations", b, 10, s.featureVariations)
	}
	if ok {
		tracer().Infof("%s table of %d bytes certified, %d ops left",
			s.tag, len(b), s.opsLeft)
	}
	return ok
}

func (s *sanitizer) linked16(section string, b binarySegm, at int, v func(binarySegm) bool) bool {
	target, ok := s.offset16(section, b, at)
	if !ok || target == nil {
		return ok
	}
	return v(target)
}

func (s *sanitizer) linked32(section string, b binarySegm, at int, v func(binarySegm) bool) bool {
	target, ok := s.offset32(section, b, at)
	if !ok || target == nil {
		return ok
	}
	return v(target)
}

// tagged checks a counted array of (Tag, Offset16) records at position `at`
// of b and validates every target with v.
func (s *sanitizer) tagged(section string, b binarySegm, at int, v func(binarySegm) bool) bool {
	n, ok := s.checkArray(section, b, at, 6)
	for i := 0; ok && i < n; i++ {
		ok = s.linked16(section, b, at+2+6*i+4, v)
	}
	return ok
}

func (s *sanitizer) scriptList(b binarySegm) bool {
	return s.tagged("ScriptList", b, 0, s.script)
}

func (s *sanitizer) script(b binarySegm) bool {
	return s.linked16("Script", b, 0, s.langSys) &&
		s.tagged("Script", b, 2, s.langSys)
}

func (s *sanitizer) langSys(b binarySegm) bool {
	_, ok := s.checkArray("LangSys", b, 4, 2)
	return ok
}

func (s *sanitizer) featureList(b binarySegm) bool {
	return s.tagged("FeatureList", b, 0, s.feature)
}

func (s *sanitizer) feature(b binarySegm) bool {
	// feature parameters depend on the feature tag; only their offset is checked
	if _, ok := s.offset16("Feature", b, 0); !ok {
		return false
	}
	_, ok := s.checkArray("Feature", b, 2, 2)
	return ok
}

// featureVariations checks the record structure of a FeatureVariations table:
//
//	uint16    majorVersion
//	uint16    minorVersion
//	uint32    featureVariationRecordCount
//	FeatureVariationRecord  records[]   where record = (Offset32 conditionSet, Offset32 featureTableSubstitution)
func (s *sanitizer) featureVariations(b binarySegm) bool {
	const section = "FeatureVariations"
	if !s.check(section, b, 8) {
		return false
	}
	n := uint64(b.U32(4))
	if n > uint64(len(b)) {
		return s.fail(section, b, "record count %d exceeds table", n)
	}
	if !s.check(section, b, 8+8*int(n)) {
		return false
	}
	for i := range int(n) {
		if _, ok := s.offset32(section, b, 8+8*i); !ok {
			return false
		}
		if _, ok := s.offset32(section, b, 8+8*i+4); !ok {
			return false
		}
	}
	return true
}

func (s *sanitizer) lookupList(b binarySegm) bool {
	return s.offsets16("LookupList", b, 0, s.lookup)
}

func (s *sanitizer) lookup(b binarySegm) bool {
	const section = "Lookup"
	n, ok := s.checkArray(section, b, 4, 2)
	if !ok {
		return false
	}
	l := Lookup{b: b}
	if l.Flag()&LOOKUP_FLAG_USE_MARK_FILTERING_SET != 0 {
		if !s.check(section, b, 6+2*n+2) {
			return false
		}
	}
	ltype := l.Type()
	var extType LayoutTableLookupType
	for i := range n {
		st, ok := s.offset16(section, b, 6+2*i)
		if !ok {
			return false
		}
		if st != nil && !s.subtable(ltype, st, false) {
			return false
		}
		if ltype == GSubLookupTypeExtensionSubs {
			// all subtables of an extension lookup have to agree with the first one
			t := extensionTypeOf(st)
			if i == 0 {
				extType = t
			} else if t != extType {
				return s.fail(section, b, "extension subtables of mixed types %d and %d", extType, t)
			}
		}
	}
	return true
}

// extensionTypeOf returns the wrapped lookup type of an extension subtable.
// NULL subtables and extensions of unknown format count as type 0.
func extensionTypeOf(st binarySegm) LayoutTableLookupType {
	if len(st) < minSizeExtension {
		return 0
	}
	return ExtensionSubst{b: st}.ExtensionType()
}

func (s *sanitizer) subtable(ltype LayoutTableLookupType, b binarySegm, inExtension bool) bool {
	section := "LookupType" + ltype.GSubString()
	if !s.check(section, b, 2) {
		return false
	}
	format := b.U16(0)
	switch ltype {
	case GSubLookupTypeSingle:
		switch format {
		case 1:
			return s.check(section, b, 6) && s.linked16(section, b, 2, s.coverage)
		case 2:
			_, ok := s.checkArray(section, b, 4, 2)
			return ok && s.linked16(section, b, 2, s.coverage)
		}
	case GSubLookupTypeMultiple, GSubLookupTypeAlternate:
		if format == 1 {
			return s.linked16(section, b, 2, s.coverage) &&
				s.offsets16(section, b, 4, s.glyphArray)
		}
	case GSubLookupTypeLigature:
		if format == 1 {
			return s.linked16(section, b, 2, s.coverage) &&
				s.offsets16(section, b, 4, s.ligatureSet)
		}
	case GSubLookupTypeContext, GSubLookupTypeChainingContext:
		return s.context(section, b, format, ltype == GSubLookupTypeChainingContext)
	case GSubLookupTypeExtensionSubs:
		if format == 1 {
			return s.extension(section, b, inExtension)
		}
	case GSubLookupTypeReverseChaining:
		if format == 1 {
			return s.reverseChain(section, b)
		}
	default:
		s.warn(b, "lookup of unknown type %d ignored", ltype)
		return true
	}
	s.warn(b, "%s subtable of unknown format %d ignored", section, format)
	return true
}

func (s *sanitizer) glyphArray(b binarySegm) bool {
	_, ok := s.checkArray("Sequence", b, 0, 2)
	return ok
}

func (s *sanitizer) ligatureSet(b binarySegm) bool {
	return s.offsets16("LigatureSet", b, 0, s.ligature)
}

func (s *sanitizer) ligature(b binarySegm) bool {
	if !s.check("Ligature", b, minSizeLigature) {
		return false
	}
	n := max(int(b.U16(2))-1, 0)
	return s.check("Ligature", b, 4+2*n)
}

func (s *sanitizer) extension(section string, b binarySegm, inExtension bool) bool {
	if inExtension {
		return s.fail(section, b, "nested extension subtable")
	}
	if !s.check(section, b, minSizeExtension) {
		return false
	}
	ltype := LayoutTableLookupType(b.U16(2))
	if ltype == GSubLookupTypeExtensionSubs {
		return s.fail(section, b, "extension subtable pointing to extension subtable")
	}
	target, ok := s.offset32(section, b, 4)
	if !ok || target == nil {
		return ok
	}
	return s.subtable(ltype, target, true)
}

func (s *sanitizer) context(section string, b binarySegm, format uint16, chained bool) bool {
	rule := s.sequenceRule
	if chained {
		rule = s.chainedSequenceRule
	}
	ruleSet := func(rs binarySegm) bool {
		return s.offsets16(section, rs, 0, rule)
	}
	switch format {
	case 1:
		return s.linked16(section, b, 2, s.coverage) &&
			s.offsets16(section, b, 4, ruleSet)
	case 2:
		if !chained {
			return s.linked16(section, b, 2, s.coverage) &&
				s.linked16(section, b, 4, s.classDef) &&
				s.offsets16(section, b, 6, ruleSet)
		}
		return s.linked16(section, b, 2, s.coverage) &&
			s.linked16(section, b, 4, s.classDef) &&
			s.linked16(section, b, 6, s.classDef) &&
			s.linked16(section, b, 8, s.classDef) &&
			s.offsets16(section, b, 10, ruleSet)
	case 3:
		if !chained {
			if !s.check(section, b, minSizeContextFmt3) {
				return false
			}
			n, lookups := int(b.U16(2)), int(b.U16(4))
			return s.check(section, b, 6+2*n+4*lookups) &&
				s.coverages(section, b, 6, n)
		}
		at := 2
		for range 3 {
			n, ok := s.checkArray(section, b, at, 2)
			if !ok || !s.coverages(section, b, at+2, n) {
				return false
			}
			at += 2 + 2*n
		}
		_, ok := s.checkArray(section, b, at, 4)
		return ok
	}
	s.warn(b, "%s subtable of unknown format %d ignored", section, format)
	return true
}

// coverages checks n coverage offsets starting at position `at` of b.
func (s *sanitizer) coverages(section string, b binarySegm, at, n int) bool {
	for i := range n {
		if !s.linked16(section, b, at+2*i, s.coverage) {
			return false
		}
	}
	return true
}

func (s *sanitizer) sequenceRule(b binarySegm) bool {
	if !s.check("SequenceRule", b, 4) {
		return false
	}
	n := max(int(b.U16(0))-1, 0)
	return s.check("SequenceRule", b, 4+2*n+4*int(b.U16(2)))
}

func (s *sanitizer) chainedSequenceRule(b binarySegm) bool {
	const section = "ChainedSequenceRule"
	n, ok := s.checkArray(section, b, 0, 2) // backtrack
	if !ok {
		return false
	}
	at := 2 + 2*n
	if !s.check(section, b, at+2) {
		return false
	}
	at += 2 + 2*max(int(b.U16(at))-1, 0) // input
	if n, ok = s.checkArray(section, b, at, 2); !ok { // lookahead
		return false
	}
	at += 2 + 2*n
	_, ok = s.checkArray(section, b, at, 4)
	return ok
}

func (s *sanitizer) reverseChain(section string, b binarySegm) bool {
	if !s.check(section, b, minSizeReverseChain) || !s.linked16(section, b, 2, s.coverage) {
		return false
	}
	at := 4
	for range 2 {
		n, ok := s.checkArray(section, b, at, 2)
		if !ok || !s.coverages(section, b, at+2, n) {
			return false
		}
		at += 2 + 2*n
	}
	_, ok := s.checkArray(section, b, at, 2)
	return ok
}

func (s *sanitizer) coverage(b binarySegm) bool {
	if !s.check("Coverage", b, minSizeCoverage) {
		return false
	}
	switch format := b.U16(0); format {
	case 1:
		_, ok := s.checkArray("Coverage", b, 2, 2)
		return ok
	case 2:
		_, ok := s.checkArray("Coverage", b, 2, 6)
		return ok
	default:
		s.warn(b, "coverage table of unknown format %d ignored", format)
	}
	return true
}

func (s *sanitizer) classDef(b binarySegm) bool {
	if !s.check("ClassDef", b, minSizeClassDef) {
		return false
	}
	switch format := b.U16(0); format {
	case 1:
		_, ok := s.checkArray("ClassDef", b, 4, 2)
		return ok
	case 2:
		_, ok := s.checkArray("ClassDef", b, 2, 6)
		return ok
	default:
		s.warn(b, "class definition table of unknown format %d ignored", format)
	}
	return true
}

// --- GDEF ------------------------------------------------------------------

func (s *sanitizer) gdef() bool {
	b := s.table
	if !s.check("Header", b, 12) {
		return false
	}
	major, minor := b.U16(0), b.U16(2)
	if major != 1 {
		return s.fail("Header", b, "unsupported table version %d.%d", major, minor)
	}
	ok := s.linked16(GDefGlyphClassDefSection, b, 4, s.classDef) &&
		s.linked16(GDefMarkAttachClassSection, b, 10, s.classDef)
	// attachment points and ligature carets are not used for substitution
	if ok {
		_, ok = s.offset16(GDefAttachListSection, b, 6)
	}
	if ok {
		_, ok = s.offset16(GDefLigCaretListSection, b, 8)
	}
	if ok && minor >= 2 {
		ok = s.check("Header", b, 14) &&
			s.linked16(GDefMarkGlyphSetsDefSection, b, 12, s.markGlyphSets)
	}
	if ok && minor >= 3 {
		if ok = s.check("Header", b, minSizeGDefHeaderV13); ok {
			_, ok = s.offset32(GDefItemVarStoreSection, b, 14)
		}
	}
	return ok
}

func (s *sanitizer) markGlyphSets(b binarySegm) bool {
	const section = GDefMarkGlyphSetsDefSection
	if !s.check(section, b, 4) {
		return false
	}
	if b.U16(0) != 1 {
		s.warn(b, "mark glyph sets table of unknown format %d ignored", b.U16(0))
		return true
	}
	n, ok := s.checkArray(section, b, 2, 4)
	for i := 0; ok && i < n; i++ {
		ok = s.linked32(section, b, 4+4*i, s.coverage)
	}
	return ok
}

// Sections of a GDEF table.
const (
	GDefGlyphClassDefSection    = "GlyphClassDef"
	GDefAttachListSection       = "AttachList"
	GDefLigCaretListSection     = "LigCaretList"
	GDefMarkAttachClassSection  = "MarkAttachClassDef"
	GDefMarkGlyphSetsDefSection = "MarkGlyphSetsDef"
	GDefItemVarStoreSection     = "ItemVarStore"
)
