/*
Package fontload loads OpenType font files and extracts the raw bytes of
the layout tables.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package fontload

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/npillmayer/otsubst/ot"
	"github.com/npillmayer/schuko/tracing"
	"golang.org/x/image/font/sfnt"
)

// tracer traces with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}

// ScalableFont is a parsed scalable font with original bytes and SFNT view.
type ScalableFont struct {
	Fontname string
	Binary   []byte
	SFNT     *sfnt.Font
	tables   map[ot.Tag][]byte
}

// LoadOpenTypeFont loads an OpenType font (TTF or OTF) from a file.
func LoadOpenTypeFont(fontfile string) (*ScalableFont, error) {
	bytez, err := os.ReadFile(fontfile)
	if err != nil {
		return nil, err
	}
	return ParseOpenTypeFont(bytez)
}

// ParseOpenTypeFont loads an OpenType font (TTF or OTF) from memory.
func ParseOpenTypeFont(fbytes []byte) (f *ScalableFont, err error) {
	f = &ScalableFont{Binary: fbytes}
	if f.tables, err = readTableDirectory(fbytes); err != nil {
		return nil, err
	}
	if f.SFNT, err = sfnt.Parse(f.Binary); err != nil {
		return nil, err
	}
	if f.Fontname, err = f.SFNT.Name(nil, sfnt.NameIDFull); err != nil {
		tracer().Infof("font has no full name: %v", err)
		f.Fontname = "<unnamed>"
	}
	return f, nil
}

// Table returns the bytes of the table with the given tag. If the font does
// not contain the table, ot.ErrNoTable is returned.
func (f *ScalableFont) Table(tag ot.Tag) ([]byte, error) {
	if b, ok := f.tables[tag]; ok {
		return b, nil
	}
	return nil, fmt.Errorf("%w: %s", ot.ErrNoTable, tag)
}

// Face creates a face from the GSUB and GDEF tables of the font. Missing
// tables result in empty tables of the face.
func (f *ScalableFont) Face() *ot.Face {
	gsub, err := f.Table(ot.T("GSUB"))
	if err != nil {
		tracer().Infof("font %s: %v", f.Fontname, err)
	}
	gdef, _ := f.Table(ot.T("GDEF"))
	face := ot.NewFace(gsub, gdef)
	face.NumGlyphs = f.SFNT.NumGlyphs()
	return face
}

// GlyphIndex maps a rune to a glyph using the font's cmap table.
func (f *ScalableFont) GlyphIndex(r rune) (ot.GlyphIndex, error) {
	var buf sfnt.Buffer
	g, err := f.SFNT.GlyphIndex(&buf, r)
	return ot.GlyphIndex(g), err
}

// GlyphName returns the name of a glyph, if the font contains glyph names.
func (f *ScalableFont) GlyphName(g ot.GlyphIndex) string {
	var buf sfnt.Buffer
	name, err := f.SFNT.GlyphName(&buf, sfnt.GlyphIndex(g))
	if err != nil {
		return ""
	}
	return name
}

// readTableDirectory locates the tables of an OpenType font:
//
//	uint32    sfntVersion     0x00010000 or 0x4F54544F ('OTTO')
//	uint16    numTables       Number of tables
//	uint16    searchRange, entrySelector, rangeShift
//	TableRecord tableRecords[numTables]   Table records, 16 bytes each:
//	    Tag       tableTag
//	    uint32    checksum
//	    Offset32  offset        Offset from beginning of font file
//	    uint32    length
func readTableDirectory(font []byte) (map[ot.Tag][]byte, error) {
	if len(font) < 12 {
		return nil, errFontFormat("font header truncated")
	}
	switch v := binary.BigEndian.Uint32(font); v {
	case 0x00010000, 0x4f54544f, 0x74727565: // TrueType, OTTO, true
	default:
		return nil, errFontFormat(fmt.Sprintf("font type not supported: %x", v))
	}
	n := int(binary.BigEndian.Uint16(font[4:]))
	if len(font) < 12+16*n {
		return nil, errFontFormat("table record entries")
	}
	tables := make(map[ot.Tag][]byte, n)
	prevTag := ot.Tag(0)
	for i := range n {
		rec := font[12+16*i:]
		tag := ot.Tag(binary.BigEndian.Uint32(rec))
		if tag < prevTag {
			return nil, errFontFormat("table order")
		}
		prevTag = tag
		off := uint64(binary.BigEndian.Uint32(rec[8:]))
		size := uint64(binary.BigEndian.Uint32(rec[12:]))
		if off&3 != 0 { // ignore checksums, but "all tables must begin on four byte boundaries"
			return nil, errFontFormat(fmt.Sprintf("table %s: invalid table offset", tag))
		}
		if off+size > uint64(len(font)) {
			return nil, errFontFormat(fmt.Sprintf("table %s: bounds [%d:%d] exceed font size %d",
				tag, off, off+size, len(font)))
		}
		tables[tag] = font[off : off+size]
		tracer().Debugf("table %s at %d, %d bytes", tag, off, size)
	}
	return tables, nil
}

func errFontFormat(message string) error {
	return fmt.Errorf("OpenType font format: %s", message)
}
