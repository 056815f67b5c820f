package ot

// GlyphIndex is a glyph identifier within a font.
type GlyphIndex uint16

// Tag is an OpenType tag, i.e. four ASCII characters packed into 32 bits.
type Tag uint32

// T returns a Tag from a string of at most 4 characters. Shorter strings
// are padded with blanks.
func T(t string) Tag {
	t = (t + "    ")[:4]
	return Tag(u32([]byte(t)))
}

func (t Tag) String() string {
	return string([]byte{
		byte(t >> 24 & 0xff),
		byte(t >> 16 & 0xff),
		byte(t >> 8 & 0xff),
		byte(t & 0xff),
	})
}

// NotCovered is returned by coverage lookups for glyphs not contained in a
// coverage table.
const NotCovered = uint32(0xFFFFFFFF)

// Limits applied when interpreting untrusted layout tables.
const (
	MaxNestingLevel     = 64    // depth of recursive lookup invocation
	MaxContextLength    = 64    // glyphs matched by a single contextual rule
	MaxExtensionDepth   = 1     // Extension subtables may not point to Extension subtables
	MaxLookupVisitCount = 35000 // lookup visits during one closure computation
	ClosureMaxStages    = 32    // outer passes of a closure computation
)
