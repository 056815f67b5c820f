package ot

import (
	"errors"
	"iter"
)

// Reading bytes from a font's binary representation

var errBufferBounds = errors.New("internal inconsistency: buffer bounds error")

func u16(b []byte) uint16 {
	_ = b[1] // Bounds check hint to compiler
	return uint16(b[0])<<8 | uint16(b[1])<<0
}

func u32(b []byte) uint32 {
	_ = b[3] // Bounds check hint to compiler
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])<<0
}

// --- Locations, i.e. byte segments/slices ----------------------------------

// binarySegm is a segment of byte data borrowed from a font table.
//
// All segments handed out by resolving offsets are suffixes of the table they
// live in: a segment starts at its record and extends up to the end of the
// table. Checking a read against the length of a segment is therefore the
// same as checking it against the end of the table.
type binarySegm []byte

// Size returns the number of bytes from the start of the segment to the end
// of the table.
func (b binarySegm) Size() int {
	return len(b)
}

// U16 returns the uint16 at byte index i, or 0 if i is out of bounds.
func (b binarySegm) U16(i int) uint16 {
	n, err := b.u16(i)
	if err != nil {
		return 0
	}
	return n
}

// U32 returns the uint32 at byte index i, or 0 if i is out of bounds.
func (b binarySegm) U32(i int) uint32 {
	n, err := b.u32(i)
	if err != nil {
		return 0
	}
	return n
}

// view returns n bytes at the given offset.
// The byte segment returned is a sub-slice of b.
func (b binarySegm) view(offset, n int) (binarySegm, error) {
	if offset < 0 || n <= 0 || offset > len(b)-n {
		return nil, errBufferBounds
	}
	return b[offset : offset+n], nil
}

// u16 returns the uint16 in b at the relative offset i.
func (b binarySegm) u16(i int) (uint16, error) {
	buf, err := b.view(i, 2)
	if err != nil {
		return 0, err
	}
	return u16(buf), nil
}

// u32 returns the uint32 in b at the relative offset i.
func (b binarySegm) u32(i int) (uint32, error) {
	buf, err := b.view(i, 4)
	if err != nil {
		return 0, err
	}
	return u32(buf), nil
}

// has reports whether n bytes starting at offset are within b.
func (b binarySegm) has(offset, n int) bool {
	return offset >= 0 && n >= 0 && offset <= len(b)-n
}

// --- Offsets ---------------------------------------------------------------

// resolve16 reads a 16-bit offset at byte index `at` of b and returns the
// segment it points to, relative to the start of b. An offset of 0 denotes
// an absent record and resolves to the null pool, as does an offset pointing
// beyond the end of the table.
func (b binarySegm) resolve16(at int) binarySegm {
	off, err := b.u16(at)
	if err != nil || off == 0 {
		return nullSegm
	}
	return b.jump(int(off))
}

// resolve32 is the 32-bit variant of resolve16.
func (b binarySegm) resolve32(at int) binarySegm {
	off, err := b.u32(at)
	if err != nil || off == 0 {
		return nullSegm
	}
	if uint64(off) >= uint64(len(b)) {
		return nullSegm
	}
	return b.jump(int(off))
}

func (b binarySegm) jump(off int) binarySegm {
	if off <= 0 || off >= len(b) {
		return nullSegm
	}
	return b[off:]
}

// --- Arrays ----------------------------------------------------------------

// U16Array is a view onto an array of 16-bit values, such as glyph IDs,
// class values or offsets.
type U16Array struct {
	data binarySegm
	n    int
}

// u16ArrayAt interprets the bytes at index `at` of b as a uint16 count
// followed by count uint16 values.
func u16ArrayAt(b binarySegm, at int) U16Array {
	n := int(b.U16(at))
	return headless(b, at+2, n)
}

// headless creates a view onto n uint16 values starting at byte index `at`,
// without a count prefix. The length is clipped to what b can provide.
func headless(b binarySegm, at, n int) U16Array {
	if !b.has(at, 0) {
		return U16Array{}
	}
	data := b[at:]
	if limit := len(data) / 2; n > limit {
		n = limit
	}
	return U16Array{data: data, n: n}
}

// Len returns the number of entries.
func (a U16Array) Len() int {
	return a.n
}

// At returns entry i, or 0 if i is out of range.
func (a U16Array) At(i int) uint16 {
	if i < 0 || i >= a.n {
		return 0
	}
	return u16(a.data[2*i:])
}

// Glyph returns entry i interpreted as a glyph ID.
func (a U16Array) Glyph(i int) GlyphIndex {
	return GlyphIndex(a.At(i))
}

// From returns the sub-array starting at entry i.
func (a U16Array) From(i int) U16Array {
	if i <= 0 {
		return a
	}
	if i >= a.n {
		return U16Array{}
	}
	return U16Array{data: a.data[2*i:], n: a.n - i}
}

// Glyphs iterates over the entries interpreted as glyph IDs.
func (a U16Array) Glyphs() iter.Seq2[int, GlyphIndex] {
	return func(yield func(int, GlyphIndex) bool) {
		for i := 0; i < a.n; i++ {
			if !yield(i, a.Glyph(i)) {
				return
			}
		}
	}
}

// offsetArray16 is an array of 16-bit offsets, each relative to base.
type offsetArray16 struct {
	base binarySegm
	offs U16Array
}

func offsetArray16At(base binarySegm, at int) offsetArray16 {
	return offsetArray16{base: base, offs: u16ArrayAt(base, at)}
}

func (a offsetArray16) Len() int {
	return a.offs.Len()
}

// Get resolves offset #i. Out-of-range indices resolve to the null pool.
func (a offsetArray16) Get(i int) binarySegm {
	off := a.offs.At(i)
	if off == 0 {
		return nullSegm
	}
	return a.base.jump(int(off))
}

// LookupRecord is a SequenceLookupRecord of a contextual rule: apply lookup
// LookupListIndex at input position SequenceIndex.
type LookupRecord struct {
	SequenceIndex   uint16
	LookupListIndex uint16
}

// LookupRecords is a view onto an array of SequenceLookupRecords.
type LookupRecords struct {
	data binarySegm
	n    int
}

func lookupRecordsAt(b binarySegm, at, n int) LookupRecords {
	if !b.has(at, 0) {
		return LookupRecords{}
	}
	data := b[at:]
	if limit := len(data) / 4; n > limit {
		n = limit
	}
	return LookupRecords{data: data, n: n}
}

// Len returns the number of records.
func (r LookupRecords) Len() int {
	return r.n
}

// At returns record #i.
func (r LookupRecords) At(i int) LookupRecord {
	if i < 0 || i >= r.n {
		return LookupRecord{}
	}
	return LookupRecord{
		SequenceIndex:   u16(r.data[4*i:]),
		LookupListIndex: u16(r.data[4*i+2:]),
	}
}
