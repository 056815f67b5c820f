package main

import (
	"fmt"
	"strings"

	"github.com/npillmayer/otsubst/internal/langsys"
	"github.com/npillmayer/otsubst/ot"
	"github.com/npillmayer/otsubst/otlayout"
	"github.com/pterm/pterm"
)

func printLookupList(face *ot.Face) {
	count := face.LookupCount()
	pterm.Printf("GSUB LookupList has %d entries\n", count)
	if count == 0 {
		return
	}
	data := [][]string{
		{"Index", "Type", "Subtables", "Flags"},
	}
	for i := range count {
		lookup, _ := face.Lookup(i)
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			formatLookupType(lookup),
			fmt.Sprintf("%d", lookup.SubtableCount()),
			formatLookupFlags(lookup),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printLookup(face *ot.Face, index int) {
	lookup, ok := face.Lookup(index)
	if !ok {
		pterm.Error.Printf("Lookup index out of range: %d\n", index)
		return
	}
	pterm.Printf("Lookup %d: type=%s flags=%s subtables=%d\n",
		index,
		formatLookupType(lookup),
		formatLookupFlags(lookup),
		lookup.SubtableCount(),
	)
	data := [][]string{
		{"Sub", "Type", "Format", "Coverage"},
	}
	for i := range lookup.SubtableCount() {
		sub := lookup.Subtable(i).Resolve()
		if sub.IsNull() {
			continue
		}
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			sub.Type.GSubString(),
			fmt.Sprintf("%d", sub.Format()),
			formatCoverageSummary(sub.Coverage()),
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printFeatures(fs []langsys.Feature) {
	if len(fs) == 0 {
		pterm.Println("no features")
		return
	}
	data := [][]string{
		{"Tag", "Index", "Lookups", "Required"},
	}
	for _, f := range fs {
		req := ""
		if f.Required {
			req = "yes"
		}
		data = append(data, []string{
			f.Tag.String(),
			fmt.Sprintf("%d", f.Index),
			fmt.Sprintf("%v", f.Lookups),
			req,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func printFindings(face *ot.Face) {
	errs, warnings := face.Errors(), face.Warnings()
	if len(errs) == 0 && len(warnings) == 0 {
		pterm.Println("no findings")
		return
	}
	data := [][]string{
		{"Severity", "Finding"},
	}
	for _, e := range errs {
		data = append(data, []string{e.Severity.String(), e.Error()})
	}
	for _, w := range warnings {
		data = append(data, []string{"WARNING", w.String()})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func (intp *Intp) printBuffer(buf *otlayout.Buffer) {
	data := [][]string{
		{"Pos", "Glyph", "Name", "Cluster", "Props", "Ligature"},
	}
	for i, r := range buf.Records() {
		lig := "-"
		if id := r.LigatureID(); id != 0 {
			lig = fmt.Sprintf("id=%d comp=%d/%d", id, r.LigatureComponent(), r.LigatureComponents())
		}
		data = append(data, []string{
			fmt.Sprintf("%d", i),
			fmt.Sprintf("%d", r.Glyph),
			intp.font.GlyphName(r.Glyph),
			fmt.Sprintf("%d", r.Cluster),
			formatGlyphProps(r.Props),
			lig,
		})
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}

func formatLookupType(lookup ot.Lookup) string {
	t := lookup.Type()
	if t == 0 {
		return "Unknown(0)"
	}
	if t == ot.GSubLookupTypeExtensionSubs {
		return t.GSubString() + "(" + lookup.EffectiveType().GSubString() + ")"
	}
	return t.GSubString()
}

func formatLookupFlags(lookup ot.Lookup) string {
	flag := lookup.Flag()
	if flag == 0 {
		return "-"
	}
	parts := make([]string, 0, 6)
	if flag&ot.LOOKUP_FLAG_RIGHT_TO_LEFT != 0 {
		parts = append(parts, "RightToLeft")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_BASE_GLYPHS != 0 {
		parts = append(parts, "IgnoreBase")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_LIGATURES != 0 {
		parts = append(parts, "IgnoreLigatures")
	}
	if flag&ot.LOOKUP_FLAG_IGNORE_MARKS != 0 {
		parts = append(parts, "IgnoreMarks")
	}
	if set, ok := lookup.MarkFilteringSet(); ok {
		parts = append(parts, fmt.Sprintf("MarkFilteringSet=%d", set))
	}
	if flag&ot.LOOKUP_FLAG_MARK_ATTACHMENT_TYPE_MASK != 0 {
		parts = append(parts, fmt.Sprintf("MarkAttachType=%d", flag>>8))
	}
	return strings.Join(parts, "|")
}

func formatCoverageSummary(cov ot.Coverage) string {
	n := 0
	for range cov.Glyphs() {
		n++
	}
	if n == 0 {
		return "-"
	}
	return fmt.Sprintf("fmt=%d count=%d", cov.Format(), n)
}

func formatGlyphProps(props otlayout.GlyphProps) string {
	parts := make([]string, 0, 4)
	switch {
	case props&otlayout.GlyphPropsMark != 0:
		parts = append(parts, "mark")
	case props&otlayout.GlyphPropsLigature != 0:
		parts = append(parts, "lig")
	case props&otlayout.GlyphPropsBase != 0:
		parts = append(parts, "base")
	}
	if props&otlayout.GlyphPropsLigated != 0 {
		parts = append(parts, "ligated")
	} else if props&otlayout.GlyphPropsMultiplied != 0 {
		parts = append(parts, "multiplied")
	} else if props&otlayout.GlyphPropsSubstituted != 0 {
		parts = append(parts, "substituted")
	}
	if len(parts) == 0 {
		return "-"
	}
	return strings.Join(parts, ",")
}

// formatGlyphs prints glyph IDs, together with glyph names if the font
// has them.
func (intp *Intp) formatGlyphs(glyphs []ot.GlyphIndex) string {
	sb := strings.Builder{}
	for i, g := range glyphs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if name := intp.font.GlyphName(g); name != "" {
			sb.WriteString(fmt.Sprintf("%d(%s)", g, name))
		} else {
			sb.WriteString(fmt.Sprintf("%d", g))
		}
	}
	return sb.String()
}
