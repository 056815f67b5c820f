package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/npillmayer/otsubst/internal/langsys"
	"github.com/npillmayer/otsubst/ot"
	"github.com/npillmayer/otsubst/otlayout"
	"github.com/pterm/pterm"
	"golang.org/x/text/unicode/norm"
)

func scriptOp(intp *Intp, op *Op) (err error, stop bool) {
	tag, ok := op.hasArg()
	if !ok {
		pterm.Printf("script = %s\n", intp.script)
		return
	}
	intp.script, intp.lang = ot.T(tag), 0
	if op.format != "" {
		intp.lang = ot.T(op.format)
	}
	tracer().Infof("setting script/lang: %s/%v", intp.script, intp.lang)
	return
}

func featuresOp(intp *Intp, op *Op) (err error, stop bool) {
	var fs []langsys.Feature
	if fs, err = intp.features(op.arg); err != nil {
		return
	}
	printFeatures(fs)
	return
}

func lookupsOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkGSUB(); err != nil {
		return
	}
	if op.noArg() {
		printLookupList(intp.face)
	} else if i, err2 := strconv.Atoi(op.arg); err2 == nil {
		printLookup(intp.face, i)
	} else {
		tracer().Errorf("Lookup index not numeric: %v\n", op.arg)
		err = errors.New("invalid lookup index")
	}
	return
}

func collectOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkGSUB(); err != nil {
		return
	}
	i, err := strconv.Atoi(op.arg)
	if err != nil || i < 0 || i >= intp.face.LookupCount() {
		return fmt.Errorf("invalid lookup index: %q", op.arg), false
	}
	c := otlayout.CollectGlyphs(intp.face, i)
	data := [][]string{
		{"Context", "Count", "Glyphs"},
		{"before", strconv.Itoa(c.Before.Len()), intp.formatGlyphs(c.Before.Glyphs())},
		{"input", strconv.Itoa(c.Input.Len()), intp.formatGlyphs(c.Input.Glyphs())},
		{"after", strconv.Itoa(c.After.Len()), intp.formatGlyphs(c.After.Glyphs())},
		{"output", strconv.Itoa(c.Output.Len()), intp.formatGlyphs(c.Output.Glyphs())},
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	return
}

func alternatesOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkGSUB(); err != nil {
		return
	}
	i, err := strconv.Atoi(op.arg)
	if err != nil || i < 0 || i >= intp.face.LookupCount() {
		return fmt.Errorf("invalid lookup index: %q", op.arg), false
	}
	g, err := strconv.ParseUint(op.format, 10, 16)
	if err != nil {
		return fmt.Errorf("invalid glyph ID: %q", op.format), false
	}
	alternates, total := otlayout.GlyphAlternates(intp.face, i, ot.GlyphIndex(g), 0, -1)
	if total == 0 {
		pterm.Info.Printf("lookup %d has no alternates for glyph %d\n", i, g)
		return
	}
	pterm.Printf("glyph %d has %d alternates:\n", g, total)
	pterm.Println(intp.formatGlyphs(alternates))
	return
}

func sanitizeOp(intp *Intp, op *Op) (err error, stop bool) {
	if intp.face == nil {
		return ErrNoFont, false
	}
	ok := intp.face.HasGSub()
	_ = intp.face.GDef() // certify GDEF as well
	if ok {
		pterm.Success.Println("GSUB passed certification")
	} else {
		pterm.Warning.Println("GSUB is absent or failed certification")
	}
	printFindings(intp.face)
	return
}

func applyOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkGSUB(); err != nil {
		return
	}
	var glyphs []ot.GlyphIndex
	if glyphs, err = intp.glyphsForText(op.arg); err != nil {
		return
	}
	var fs []langsys.Feature
	if fs, err = intp.features(op.format); err != nil {
		return
	}
	lookups := langsys.LookupsForFeatures(fs)
	tracer().Infof("applying lookups %v", lookups)
	buf := otlayout.NewBuffer(glyphs...)
	s := otlayout.NewSubstituter(intp.face)
	s.Start(buf)
	if !s.SubstituteLookups(buf, lookups, otlayout.MaskGlobal) {
		pterm.Info.Println("no substitution applied")
	}
	intp.printBuffer(buf)
	return
}

func closureOp(intp *Intp, op *Op) (err error, stop bool) {
	if err = intp.checkGSUB(); err != nil {
		return
	}
	var glyphs []ot.GlyphIndex
	if glyphs, err = intp.glyphsForText(op.arg); err != nil {
		return
	}
	var fs []langsys.Feature
	if fs, err = intp.features(op.format); err != nil {
		return
	}
	lookups := langsys.LookupsForFeatures(fs)
	set := ot.NewGlyphSet(glyphs...)
	used := otlayout.ClosureLookups(intp.face, set, lookups)
	otlayout.Closure(intp.face, set, lookups)
	pterm.Printf("lookups reachable: %v\n", used)
	pterm.Printf("closure of %d glyphs has %d glyphs:\n", len(glyphs), set.Len())
	pterm.Println(intp.formatGlyphs(set.Glyphs()))
	return
}

// features returns the features of the current language system, filtered
// by a comma-separated list of feature tags. An empty list selects all
// features.
func (intp *Intp) features(tags string) ([]langsys.Feature, error) {
	if err := intp.checkGSUB(); err != nil {
		return nil, err
	}
	fs, err := langsys.FeaturesForLangSys(intp.face, intp.script, intp.lang)
	if err != nil || tags == "" {
		return fs, err
	}
	var sel []ot.Tag
	for _, t := range strings.Split(tags, ",") {
		sel = append(sel, ot.T(t))
	}
	return langsys.SelectFeatures(fs, sel...), nil
}

// glyphsForText maps the runes of an NFC-normalized text to glyphs.
func (intp *Intp) glyphsForText(text string) ([]ot.GlyphIndex, error) {
	if text == "" {
		return nil, errors.New("no text given")
	}
	text = norm.NFC.String(text)
	glyphs := make([]ot.GlyphIndex, 0, len(text))
	for _, r := range text {
		g, err := intp.font.GlyphIndex(r)
		if err != nil {
			return nil, fmt.Errorf("cannot map %q: %w", r, err)
		}
		if g == 0 {
			tracer().Infof("font has no glyph for %q", r)
		}
		glyphs = append(glyphs, g)
	}
	return glyphs, nil
}
