package ot

import "strconv"

// LayoutTableLookupFlag is a flag type for layout tables (GPOS and GSUB).
type LayoutTableLookupFlag uint16

// Lookup flags of layout tables
const ( // LookupFlag bit enumeration
	// Note that the RIGHT_TO_LEFT flag is used only for GPOS type 3 lookups and is ignored
	// otherwise. It is not used by client software in determining text direction.
	LOOKUP_FLAG_RIGHT_TO_LEFT             LayoutTableLookupFlag = 0x0001
	LOOKUP_FLAG_IGNORE_BASE_GLYPHS        LayoutTableLookupFlag = 0x0002 // If set, skips over base glyphs
	LOOKUP_FLAG_IGNORE_LIGATURES          LayoutTableLookupFlag = 0x0004 // If set, skips over ligatures
	LOOKUP_FLAG_IGNORE_MARKS              LayoutTableLookupFlag = 0x0008 // If set, skips over all combining marks
	LOOKUP_FLAG_USE_MARK_FILTERING_SET    LayoutTableLookupFlag = 0x0010 // If set, the lookup table is followed by a MarkFilteringSet field
	LOOKUP_FLAG_reserved                  LayoutTableLookupFlag = 0x00E0 // For future use (Set to zero)
	LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK LayoutTableLookupFlag = 0xFF00 // If not zero, skips over all marks of attachment type different from specified
)

// LayoutTableLookupType is a type identifier for layout lookup records.
type LayoutTableLookupType uint16

// GSUB Lookup Type Enumeration
const (
	GSubLookupTypeSingle          LayoutTableLookupType = 1 // Replace one glyph with one glyph
	GSubLookupTypeMultiple        LayoutTableLookupType = 2 // Replace one glyph with more than one glyph
	GSubLookupTypeAlternate       LayoutTableLookupType = 3 // Replace one glyph with one of many glyphs
	GSubLookupTypeLigature        LayoutTableLookupType = 4 // Replace multiple glyphs with one glyph
	GSubLookupTypeContext         LayoutTableLookupType = 5 // Replace one or more glyphs in context
	GSubLookupTypeChainingContext LayoutTableLookupType = 6 // Replace one or more glyphs in chained context
	GSubLookupTypeExtensionSubs   LayoutTableLookupType = 7 // Extension mechanism for other substitutions
	GSubLookupTypeReverseChaining LayoutTableLookupType = 8 // Applied in reverse order, replace single glyph in chaining context
)

const gsubLookupTypeNames = "Single|Multiple|Alternate|Ligature|Context|Chaining|Extension|Reverse"

var gsubLookupTypeInx = [...]int{0, 7, 16, 26, 35, 43, 52, 62, 70}

// GSubString interprets a layout table lookup type as a GSUB table type.
func (lt LayoutTableLookupType) GSubString() string {
	if lt >= GSubLookupTypeSingle && lt <= GSubLookupTypeReverseChaining {
		lt -= 1
		return gsubLookupTypeNames[gsubLookupTypeInx[lt] : gsubLookupTypeInx[lt+1]-1]
	}
	return strconv.Itoa(int(lt))
}

// --- Lookup ----------------------------------------------------------------

// Lookup is a view onto a lookup table:
//
//	uint16    lookupType          Different enumerations for GSUB and GPOS
//	uint16    lookupFlag          Lookup qualifiers
//	uint16    subTableCount       Number of subtables for this lookup
//	Offset16  subtableOffsets[]   Array of offsets to lookup subtables, from beginning of Lookup table
//	uint16    markFilteringSet    Index into GDEF mark glyph sets structure. This field is only present
//	                              if the USE_MARK_FILTERING_SET lookup flag is set.
type Lookup struct {
	b binarySegm
}

func lookupAt(b binarySegm) Lookup {
	if len(b) < minSizeLookup {
		return Lookup{b: null("Lookup", minSizeLookup)}
	}
	return Lookup{b: b}
}

// Type returns the lookup type.
func (l Lookup) Type() LayoutTableLookupType {
	return LayoutTableLookupType(l.b.U16(0))
}

// Flag returns the lookup flags.
func (l Lookup) Flag() LayoutTableLookupFlag {
	return LayoutTableLookupFlag(l.b.U16(2))
}

// SubtableCount returns the number of subtables of the lookup.
func (l Lookup) SubtableCount() int {
	return max(0, min(int(l.b.U16(4)), (len(l.b)-6)/2))
}

// Subtable returns subtable #i. Subtables of an extension lookup are
// returned unresolved, i.e. as extension subtables.
func (l Lookup) Subtable(i int) Subtable {
	if i < 0 || i >= l.SubtableCount() {
		return Subtable{}
	}
	return Subtable{Type: l.Type(), b: l.b.resolve16(6 + 2*i)}
}

// MarkFilteringSet returns the index of the GDEF mark glyph set the lookup
// filters marks with. ok is false if the lookup has no mark filtering set.
func (l Lookup) MarkFilteringSet() (set uint16, ok bool) {
	if l.Flag()&LOOKUP_FLAG_USE_MARK_FILTERING_SET == 0 {
		return 0, false
	}
	n, err := l.b.u16(6 + 2*int(l.b.U16(4)))
	if err != nil {
		return 0, false
	}
	return n, true
}

// Props returns the lookup flags together with the mark filtering set, as
// used for glyph filtering during matching: the flags occupy the lower 16
// bits, the mark filtering set the upper 16 bits.
func (l Lookup) Props() uint32 {
	props := uint32(l.Flag())
	if set, ok := l.MarkFilteringSet(); ok {
		props |= uint32(set) << 16
	}
	return props
}

// EffectiveType returns the lookup type, looking through extension
// subtables. For an extension lookup the type of its first subtable's target
// is returned.
func (l Lookup) EffectiveType() LayoutTableLookupType {
	if t := l.Type(); t != GSubLookupTypeExtensionSubs {
		return t
	}
	return l.Subtable(0).Extension().ExtensionType()
}

// IsReverse reports whether the lookup has to be applied from the end of the
// glyph sequence to its start. This is true for reverse chaining lookups,
// including those wrapped in extension subtables.
func (l Lookup) IsReverse() bool {
	return l.EffectiveType() == GSubLookupTypeReverseChaining
}

// --- Lookup list -----------------------------------------------------------

// LookupList is a view onto a lookup list table:
//
//	uint16    lookupCount         Number of lookups in this table
//	Offset16  lookupOffsets[]     Array of offsets to Lookup tables, from beginning of LookupList
type LookupList struct {
	offsets offsetArray16
}

func lookupListAt(b binarySegm) LookupList {
	if len(b) < minSizeLookupList {
		b = null("LookupList", minSizeLookupList)
	}
	return LookupList{offsets: offsetArray16At(b, 0)}
}

// Len returns the number of lookups.
func (ll LookupList) Len() int {
	return ll.offsets.Len()
}

// Lookup returns lookup #i, or a null lookup if i is out of range.
func (ll LookupList) Lookup(i int) Lookup {
	if i < 0 || i >= ll.Len() {
		return Lookup{b: nullSegm}
	}
	return lookupAt(ll.offsets.Get(i))
}
