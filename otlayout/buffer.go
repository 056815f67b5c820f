package otlayout

import (
	"slices"

	"github.com/npillmayer/otsubst/ot"
)

// GlyphProps classify a glyph for lookup flag filtering and record what
// substitutions have been applied to it.
type GlyphProps uint16

// Glyph properties. The lower bits line up with the LOOKUP_FLAG_IGNORE_*
// lookup flags. For marks, the upper byte holds the GDEF mark attachment
// class.
const (
	GlyphPropsBase        GlyphProps = 0x02
	GlyphPropsLigature    GlyphProps = 0x04
	GlyphPropsMark        GlyphProps = 0x08
	GlyphPropsSubstituted GlyphProps = 0x10 // glyph has been replaced by a substitution
	GlyphPropsLigated     GlyphProps = 0x20 // glyph has been produced by a ligature substitution
	GlyphPropsMultiplied  GlyphProps = 0x40 // glyph has been produced by a multiple substitution

	glyphPropsPreserve = GlyphPropsSubstituted | GlyphPropsLigated | GlyphPropsMultiplied
)

// GlyphFlags are annotations of a glyph record produced during substitution.
type GlyphFlags uint8

// GlyphUnsafeToBreak marks glyphs whose shaping result depends on context:
// breaking the text at such a glyph and re-shaping the parts separately may
// produce different glyphs.
const GlyphUnsafeToBreak GlyphFlags = 0x01

// MaskGlobal is the feature mask bit set for every glyph of a new buffer.
const MaskGlobal uint32 = 0x01

// Ligature properties encode ligature membership of a glyph:
//
//	bits 7-5   ligature ID (1…7, 0 if not part of a ligature)
//	bit  4     set for the ligature glyph itself
//	bits 3-0   number of components for the ligature glyph,
//	           component index for components and attached marks
const ligPropsIsLigBase = 0x10

// GlyphRecord is a glyph of a Buffer together with its shaping information.
type GlyphRecord struct {
	Glyph    ot.GlyphIndex
	Cluster  uint32     // index of the character the glyph originates from
	Mask     uint32     // feature activation bits, see SubstituteLookup
	Props    GlyphProps // glyph class and substitution history
	LigProps uint8      // ligature membership
	Flags    GlyphFlags
}

func (r *GlyphRecord) isBaseGlyph() bool { return r.Props&GlyphPropsBase != 0 }
func (r *GlyphRecord) isLigature() bool  { return r.Props&GlyphPropsLigature != 0 }
func (r *GlyphRecord) isMark() bool      { return r.Props&GlyphPropsMark != 0 }

func (r *GlyphRecord) isLigatedInternal() bool {
	return r.LigProps&ligPropsIsLigBase != 0
}

// LigatureID returns the ID of the ligature the glyph belongs to, or 0.
func (r *GlyphRecord) LigatureID() int {
	return int(r.LigProps >> 5)
}

// LigatureComponent returns the index (starting at 1) of the ligature
// component a glyph has been produced from or is attached to. It is 0 for
// ligature glyphs and for glyphs not related to a ligature.
func (r *GlyphRecord) LigatureComponent() int {
	if r.isLigatedInternal() {
		return 0
	}
	return int(r.LigProps & 0x0f)
}

// LigatureComponents returns the number of components of a ligature glyph,
// and 1 for all other glyphs.
func (r *GlyphRecord) LigatureComponents() int {
	if r.isLigature() && r.isLigatedInternal() {
		return int(r.LigProps & 0x0f)
	}
	return 1
}

func (r *GlyphRecord) setLigPropsForLigature(ligID, numComps int) {
	r.LigProps = uint8(ligID<<5) | ligPropsIsLigBase | uint8(numComps&0x0f)
}

func (r *GlyphRecord) setLigPropsForMark(ligID, comp int) {
	r.LigProps = uint8(ligID<<5) | uint8(comp&0x0f)
}

func (r *GlyphRecord) setLigPropsForComponent(comp int) {
	r.setLigPropsForMark(0, comp)
}

// --- Buffer ----------------------------------------------------------------

// Buffer is the mutable glyph sequence lookups operate on.
//
// During application of a lookup, a Buffer works as a pair of sequences: an
// input sequence read at a cursor position, and an output sequence written
// by substitutions. Glyphs move from input to output as the cursor advances;
// when the lookup is done, the output becomes the new content of the
// buffer. Reverse chaining lookups work in place, without an output
// sequence.
//
// A Buffer belongs to a single shaping session and is not safe for
// concurrent use.
type Buffer struct {
	info       []GlyphRecord
	out        []GlyphRecord
	idx        int  // cursor into info
	haveOutput bool // substitutions write to out
	serial     uint8
	opsLeft    int // budget for nested lookup invocations
	crap       ot.Scratch[GlyphRecord]
}

// Bounds of the operations budget of a buffer: each glyph may cause a fixed
// number of nested lookup invocations.
const (
	maxOpsFactor = 64
	maxOpsMin    = 16384
)

// NewBuffer creates a buffer for a sequence of glyphs. Every glyph starts
// as its own cluster, with the global feature mask set.
func NewBuffer(glyphs ...ot.GlyphIndex) *Buffer {
	b := &Buffer{info: make([]GlyphRecord, len(glyphs))}
	for i, g := range glyphs {
		b.info[i] = GlyphRecord{Glyph: g, Cluster: uint32(i), Mask: MaskGlobal}
	}
	b.resetOps()
	return b
}

func (b *Buffer) resetOps() {
	b.opsLeft = max(len(b.info)*maxOpsFactor, maxOpsMin)
}

// Len returns the number of glyphs in the buffer.
func (b *Buffer) Len() int {
	return len(b.info)
}

// At returns glyph record #i. For an out-of-range index, At returns a
// writable record which is discarded.
func (b *Buffer) At(i int) *GlyphRecord {
	if i < 0 || i >= len(b.info) {
		return b.crap.Get()
	}
	return &b.info[i]
}

// Glyphs returns the glyph IDs of the buffer.
func (b *Buffer) Glyphs() []ot.GlyphIndex {
	glyphs := make([]ot.GlyphIndex, len(b.info))
	for i := range b.info {
		glyphs[i] = b.info[i].Glyph
	}
	return glyphs
}

// Records returns the glyph records of the buffer. The slice is shared with
// the buffer and becomes invalid with the next substitution.
func (b *Buffer) Records() []GlyphRecord {
	return b.info
}

// cur returns the input glyph at offset i from the cursor.
func (b *Buffer) cur(i int) *GlyphRecord {
	return b.At(b.idx + i)
}

func (b *Buffer) clearOutput() {
	b.haveOutput = true
	b.out = b.out[:0]
}

func (b *Buffer) removeOutput() {
	b.haveOutput = false
	b.out = b.out[:0]
}

// swapBuffers makes the output the new input. All input glyphs must have
// been consumed.
func (b *Buffer) swapBuffers() {
	if !b.haveOutput {
		return
	}
	b.haveOutput = false
	b.info, b.out = b.out, b.info[:0]
	b.idx = 0
}

// backtrackLen is the number of glyphs preceding the cursor.
func (b *Buffer) backtrackLen() int {
	if b.haveOutput {
		return len(b.out)
	}
	return b.idx
}

// lookaheadLen is the number of glyphs starting at the cursor.
func (b *Buffer) lookaheadLen() int {
	return len(b.info) - b.idx
}

// backtrackAt returns glyph #i of the sequence preceding the cursor.
func (b *Buffer) backtrackAt(i int) *GlyphRecord {
	if b.haveOutput {
		if i < 0 || i >= len(b.out) {
			return b.crap.Get()
		}
		return &b.out[i]
	}
	return b.At(i)
}

// nextGlyph copies the current glyph to the output and advances the cursor.
func (b *Buffer) nextGlyph() {
	if b.idx >= len(b.info) {
		return
	}
	if b.haveOutput {
		b.out = append(b.out, b.info[b.idx])
	}
	b.idx++
}

// skipGlyph advances the cursor without output.
func (b *Buffer) skipGlyph() {
	b.idx++
}

// replaceGlyph outputs the current glyph with a new glyph ID and advances
// the cursor.
func (b *Buffer) replaceGlyph(g ot.GlyphIndex) {
	if b.idx >= len(b.info) {
		return
	}
	if !b.haveOutput {
		b.info[b.idx].Glyph = g
		b.idx++
		return
	}
	r := b.info[b.idx]
	r.Glyph = g
	b.out = append(b.out, r)
	b.idx++
}

// outputGlyph outputs a copy of the current glyph with a new glyph ID,
// without advancing the cursor.
func (b *Buffer) outputGlyph(g ot.GlyphIndex) {
	r := *b.cur(0)
	r.Glyph = g
	b.out = append(b.out, r)
}

// deleteGlyph removes the current glyph. Its cluster is merged into a
// neighbouring glyph unless another glyph of the same cluster survives.
func (b *Buffer) deleteGlyph() {
	if b.idx >= len(b.info) {
		return
	}
	cluster := b.info[b.idx].Cluster
	switch {
	case b.idx+1 < len(b.info) && cluster == b.info[b.idx+1].Cluster:
		// cluster survives
	case len(b.out) > 0:
		if last := b.out[len(b.out)-1].Cluster; cluster < last {
			for i := len(b.out); i > 0 && b.out[i-1].Cluster == last; i-- {
				b.out[i-1].Cluster = cluster
			}
		}
	case b.idx+1 < len(b.info):
		b.mergeClusters(b.idx, b.idx+2)
	}
	b.skipGlyph()
}

// moveTo moves the cursor so that the output holds exactly i glyphs,
// moving glyphs between input and output as needed.
func (b *Buffer) moveTo(i int) bool {
	if !b.haveOutput {
		if i < 0 || i > len(b.info) {
			return false
		}
		b.idx = i
		return true
	}
	if i < 0 || i > len(b.out)+len(b.info)-b.idx {
		return false
	}
	if n := i - len(b.out); n > 0 {
		b.out = append(b.out, b.info[b.idx:b.idx+n]...)
		b.idx += n
	} else if n < 0 {
		n = -n
		if b.idx < n {
			grow := n - b.idx
			b.info = slices.Insert(b.info, b.idx, make([]GlyphRecord, grow)...)
			b.idx += grow
		}
		b.idx -= n
		copy(b.info[b.idx:], b.out[i:])
		b.out = b.out[:i]
	}
	return true
}

// mergeClusters assigns the minimum cluster value of input glyphs
// [start…end) to all of them, extending the range to cover whole clusters.
func (b *Buffer) mergeClusters(start, end int) {
	if end-start < 2 {
		return
	}
	cluster := b.info[start].Cluster
	for i := start + 1; i < end; i++ {
		cluster = min(cluster, b.info[i].Cluster)
	}
	for end < len(b.info) && b.info[end-1].Cluster == b.info[end].Cluster {
		end++
	}
	for b.idx < start && b.info[start-1].Cluster == b.info[start].Cluster {
		start--
	}
	if b.idx == start {
		for i := len(b.out); i > 0 && b.out[i-1].Cluster == b.info[start].Cluster; i-- {
			b.out[i-1].Cluster = cluster
		}
	}
	for i := start; i < end; i++ {
		b.info[i].Cluster = cluster
	}
}

// unsafeToBreak flags input glyphs [start…end) not belonging to the
// cluster the range starts with.
func (b *Buffer) unsafeToBreak(start, end int) {
	end = min(end, len(b.info))
	if end-start < 2 {
		return
	}
	cluster := b.info[start].Cluster
	for i := start + 1; i < end; i++ {
		cluster = min(cluster, b.info[i].Cluster)
	}
	flagUnsafe(b.info[start:end], cluster)
}

// unsafeToBreakFromOutbuffer works like unsafeToBreak for a range starting
// at output position start and ending at input position end.
func (b *Buffer) unsafeToBreakFromOutbuffer(start, end int) {
	if !b.haveOutput {
		b.unsafeToBreak(start, end)
		return
	}
	start = min(start, len(b.out))
	end = min(max(end, b.idx), len(b.info))
	cluster := ^uint32(0)
	for i := start; i < len(b.out); i++ {
		cluster = min(cluster, b.out[i].Cluster)
	}
	for i := b.idx; i < end; i++ {
		cluster = min(cluster, b.info[i].Cluster)
	}
	flagUnsafe(b.out[start:], cluster)
	flagUnsafe(b.info[b.idx:end], cluster)
}

func flagUnsafe(records []GlyphRecord, cluster uint32) {
	for i := range records {
		if records[i].Cluster != cluster {
			records[i].Flags |= GlyphUnsafeToBreak
		}
	}
}

// allocateLigID returns the next ligature ID, cycling through 1…7.
func (b *Buffer) allocateLigID() int {
	for {
		id := b.serial & 0x07
		b.serial++
		if id != 0 {
			return int(id)
		}
	}
}
