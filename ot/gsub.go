package ot

// GSub is a view onto a GSUB table header:
//
//	uint16    majorVersion             Major version of the GSUB table, = 1
//	uint16    minorVersion             Minor version of the GSUB table, = 0 or 1
//	Offset16  scriptListOffset         Offset to ScriptList table, from beginning of GSUB table
//	Offset16  featureListOffset        Offset to FeatureList table, from beginning of GSUB table
//	Offset16  lookupListOffset         Offset to LookupList table, from beginning of GSUB table
//	Offset32  featureVariationsOffset  Offset to FeatureVariations table, from beginning of
//	                                   the GSUB table (may be NULL). Version 1.1 only.
//
// The zero value of GSub is an empty table.
type GSub struct {
	b binarySegm
}

func gsubAt(b binarySegm) GSub {
	if len(b) < minSizeGSubHeader {
		return GSub{b: null("GSUB", minSizeGSubHeader)}
	}
	return GSub{b: b}
}

// Version returns the major and minor version of the table.
func (g GSub) Version() (major, minor uint16) {
	return g.b.U16(0), g.b.U16(2)
}

// ScriptList returns the script list of the table.
func (g GSub) ScriptList() ScriptList {
	return ScriptList{records: tagRecordsAt(g.b.resolve16(4))}
}

// FeatureList returns the feature list of the table.
func (g GSub) FeatureList() FeatureList {
	return FeatureList{records: tagRecordsAt(g.b.resolve16(6))}
}

// LookupList returns the lookup list of the table.
func (g GSub) LookupList() LookupList {
	return lookupListAt(g.b.resolve16(8))
}

// HasFeatureVariations reports whether the table carries a non-null
// FeatureVariations offset. Only tables of version 1.1 and later may do so.
func (g GSub) HasFeatureVariations() bool {
	if _, minor := g.Version(); minor < 1 {
		return false
	}
	return g.b.U32(10) != 0
}

// --- Script and feature lists ----------------------------------------------

// tagRecords is a counted array of (Tag, Offset16) records, the layout shared
// by script lists, feature lists and script tables:
//
//	uint16       count
//	TagRecord    records[count]   where TagRecord = (Tag tag, Offset16 offset)
type tagRecords struct {
	base binarySegm // offsets are relative to base
	at   int        // position of the count field
}

func tagRecordsAt(b binarySegm) tagRecords {
	return tagRecords{base: b}
}

func (tr tagRecords) Len() int {
	return min(int(tr.base.U16(tr.at)), (len(tr.base)-tr.at-2)/6)
}

func (tr tagRecords) tag(i int) Tag {
	return Tag(tr.base.U32(tr.at + 2 + 6*i))
}

func (tr tagRecords) target(i int) binarySegm {
	if i < 0 || i >= tr.Len() {
		return nullSegm
	}
	return tr.base.resolve16(tr.at + 2 + 6*i + 4)
}

// ScriptList is a view onto the script list of a layout table.
type ScriptList struct {
	records tagRecords
}

// Len returns the number of scripts.
func (sl ScriptList) Len() int { return sl.records.Len() }

// Tag returns the script tag of script #i.
func (sl ScriptList) Tag(i int) Tag { return sl.records.tag(i) }

// Script returns script table #i.
//
//	Offset16     defaultLangSysOffset   Offset to default LangSys table, from beginning of Script table (may be NULL)
//	uint16       langSysCount           Number of LangSysRecords for this script, excluding the default LangSys
//	LangSysRecord langSysRecords[langSysCount]  Array of LangSysRecords, listed alphabetically by LangSys tag
func (sl ScriptList) Script(i int) Script {
	return Script{b: sl.records.target(i)}
}

// Script is a view onto a script table.
type Script struct {
	b binarySegm
}

// DefaultLangSys returns the default language system of the script.
func (s Script) DefaultLangSys() LangSys {
	return LangSys{b: s.b.resolve16(0)}
}

func (s Script) langSys() tagRecords {
	return tagRecords{base: s.b, at: 2}
}

// LangSysCount returns the number of language systems, excluding the default.
func (s Script) LangSysCount() int { return s.langSys().Len() }

// LangSysTag returns the tag of language system #i.
func (s Script) LangSysTag(i int) Tag { return s.langSys().tag(i) }

// LangSys returns language system #i.
func (s Script) LangSys(i int) LangSys {
	return LangSys{b: s.langSys().target(i)}
}

// LangSys is a view onto a language system table:
//
//	Offset16  lookupOrderOffset      = NULL (reserved for an offset to a reordering table)
//	uint16    requiredFeatureIndex   Index of a feature required for this language system; if no required features = 0xFFFF
//	uint16    featureIndexCount      Number of feature index values for this language system, excludes the required feature
//	uint16    featureIndices[featureIndexCount]  Array of indices into the FeatureList, in arbitrary order
type LangSys struct {
	b binarySegm
}

// RequiredFeature returns the index of the required feature, if any.
func (ls LangSys) RequiredFeature() (int, bool) {
	inx, err := ls.b.u16(2)
	if err != nil || inx == 0xFFFF {
		return 0, false
	}
	return int(inx), true
}

// FeatureIndices returns the indices into the feature list.
func (ls LangSys) FeatureIndices() U16Array {
	return u16ArrayAt(ls.b, 4)
}

// FeatureList is a view onto the feature list of a layout table.
type FeatureList struct {
	records tagRecords
}

// Len returns the number of features.
func (fl FeatureList) Len() int { return fl.records.Len() }

// Tag returns the feature tag of feature #i.
func (fl FeatureList) Tag(i int) Tag { return fl.records.tag(i) }

// LookupIndices returns the lookup list indices of feature #i.
//
//	Offset16  featureParamsOffset    Offset from start of Feature table to FeatureParams table, if defined
//	uint16    lookupIndexCount       Number of LookupList indices for this feature
//	uint16    lookupListIndices[lookupIndexCount]  Array of indices into the LookupList, zero-based
func (fl FeatureList) LookupIndices(i int) U16Array {
	return u16ArrayAt(fl.records.target(i), 2)
}
