/*
Package langsys reads the script and language systems of a GSUB table and
resolves them to features and lookup indices.

Deciding which lookups are active is up to clients of the substitution
engine. This package serves tooling (the inspector CLI) with the
conventional choice: the features of a language system, narrowed down by
feature tags.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package langsys

import (
	"fmt"

	"github.com/emirpasic/gods/sets/treeset"
	"github.com/npillmayer/otsubst/ot"
	"github.com/npillmayer/schuko/tracing"
)

// tracer traces with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}

func errFontFormat(message string) error {
	return fmt.Errorf("OpenType GSUB: %s", message)
}

// Feature is a GSUB feature as linked from a language system.
// From the specification website
// https://docs.microsoft.com/en-us/typography/opentype/spec/featuretags :
//
// “Features provide information about how to use the glyphs in a font to render a script or
// language. For example, an Arabic font might have a feature for substituting initial glyph
// forms, and a Kanji font might have a feature for positioning glyphs vertically.”
//
// A feature uses ‘lookups’ to do operations on glyphs. The order of the lookup indices
// matters.
type Feature struct {
	Tag      ot.Tag // e.g., 'liga'
	Index    int    // index into the feature list
	Lookups  []int  // indices into the lookup list
	Required bool   // the required feature of the language system
}

// DFLT is the tag of the default script.
var DFLT = ot.T("DFLT")

// FeaturesForLangSys looks up the GSUB features for a script/language
// combination. If the font has no entry for script, features of the DFLT
// script are returned. If lang is 0 or not present for the script, the
// default language system is used.
//
// The required feature of the language system, if any, is the first entry
// of the result.
func FeaturesForLangSys(face *ot.Face, script, lang ot.Tag) ([]Feature, error) {
	if !face.HasGSub() {
		return nil, errFontFormat("font has no usable GSUB table")
	}
	gsub := face.GSub()
	if script == 0 {
		script = DFLT
	}
	scr, ok := findScript(gsub.ScriptList(), script)
	if !ok && script != DFLT {
		tracer().Infof("font has no feature-links from script %s, trying DFLT", script)
		scr, ok = findScript(gsub.ScriptList(), DFLT)
	}
	if !ok {
		return nil, errFontFormat(fmt.Sprintf("font has no script entry for %s", script))
	}
	lsys := scr.DefaultLangSys()
	if lang != 0 {
		for i := range scr.LangSysCount() {
			if scr.LangSysTag(i) == lang {
				lsys = scr.LangSys(i)
				break
			}
		}
	}
	fl := gsub.FeatureList()
	features := make([]Feature, 0, 8)
	if inx, ok := lsys.RequiredFeature(); ok && inx < fl.Len() {
		f := featureAt(fl, inx)
		f.Required = true
		features = append(features, f)
	}
	indices := lsys.FeatureIndices()
	for i := range indices.Len() {
		inx := int(indices.At(i))
		if inx >= fl.Len() {
			tracer().Infof("language system links to unknown feature #%d", inx)
			continue
		}
		f := featureAt(fl, inx)
		tracer().Debugf("%2d: feature %s with %d lookups", len(features), f.Tag, len(f.Lookups))
		features = append(features, f)
	}
	return features, nil
}

func findScript(sl ot.ScriptList, tag ot.Tag) (ot.Script, bool) {
	for i := range sl.Len() {
		if sl.Tag(i) == tag {
			return sl.Script(i), true
		}
	}
	return ot.Script{}, false
}

func featureAt(fl ot.FeatureList, inx int) Feature {
	indices := fl.LookupIndices(inx)
	f := Feature{Tag: fl.Tag(inx), Index: inx, Lookups: make([]int, 0, indices.Len())}
	for i := range indices.Len() {
		f.Lookups = append(f.Lookups, int(indices.At(i)))
	}
	return f
}

// SelectFeatures returns the features out of fs with a tag contained in
// tags. The required feature is always selected.
func SelectFeatures(fs []Feature, tags ...ot.Tag) []Feature {
	selected := make([]Feature, 0, len(fs))
	for _, f := range fs {
		if f.Required {
			selected = append(selected, f)
			continue
		}
		for _, tag := range tags {
			if f.Tag == tag {
				selected = append(selected, f)
				break
			}
		}
	}
	return selected
}

// LookupsForFeatures returns the lookup indices of a set of features,
// sorted and free of duplicates. This is the order in which lookups have to
// be applied.
func LookupsForFeatures(fs []Feature) []int {
	set := treeset.NewWithIntComparator()
	for _, f := range fs {
		for _, inx := range f.Lookups {
			set.Add(inx)
		}
	}
	lookups := make([]int, 0, set.Size())
	for _, v := range set.Values() {
		lookups = append(lookups, v.(int))
	}
	return lookups
}
