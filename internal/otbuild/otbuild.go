/*
Package otbuild assembles binary GSUB and GDEF tables for tests.

Tables are built as a graph of nodes. A node holds the fixed part of a
record and links to the records it references by offset. Serializing the
root node places every reachable node exactly once, children after their
parents, and patches all offsets. Nodes shared by several parents are
serialized once and referenced by each of them.

Builders do not validate their input: tests use them to produce malformed
tables just as well as well-formed ones.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package otbuild

import (
	"encoding/binary"
	"fmt"
)

// Node is a table record under construction.
type Node struct {
	data  []byte
	links []link
}

type link struct {
	at     int
	width  int // 2 or 4
	target *Node
}

// New creates an empty record.
func New() *Node {
	return &Node{}
}

// U16 appends 16-bit values.
func (n *Node) U16(v ...uint16) *Node {
	for _, x := range v {
		n.data = binary.BigEndian.AppendUint16(n.data, x)
	}
	return n
}

// U32 appends 32-bit values.
func (n *Node) U32(v ...uint32) *Node {
	for _, x := range v {
		n.data = binary.BigEndian.AppendUint32(n.data, x)
	}
	return n
}

// Tag appends a 4-byte tag.
func (n *Node) Tag(t string) *Node {
	t = (t + "    ")[:4]
	n.data = append(n.data, t...)
	return n
}

// Raw appends raw bytes.
func (n *Node) Raw(b ...byte) *Node {
	n.data = append(n.data, b...)
	return n
}

// Off16 appends a 16-bit offset to target, relative to the start of n.
// A nil target yields a NULL offset.
func (n *Node) Off16(target *Node) *Node {
	return n.offset(target, 2)
}

// Off32 appends a 32-bit offset to target, relative to the start of n.
// A nil target yields a NULL offset.
func (n *Node) Off32(target *Node) *Node {
	return n.offset(target, 4)
}

func (n *Node) offset(target *Node, width int) *Node {
	if target != nil {
		n.links = append(n.links, link{at: len(n.data), width: width, target: target})
	}
	n.data = append(n.data, make([]byte, width)...)
	return n
}

// Len returns the size of the fixed part of the record.
func (n *Node) Len() int {
	return len(n.data)
}

// Bytes serializes the graph rooted at n.
func (n *Node) Bytes() []byte {
	pos := map[*Node]int{n: 0}
	order := []*Node{n}
	size := len(n.data)
	for i := 0; i < len(order); i++ {
		for _, l := range order[i].links {
			if _, ok := pos[l.target]; !ok {
				pos[l.target] = size
				size += len(l.target.data)
				order = append(order, l.target)
			}
		}
	}
	out := make([]byte, 0, size)
	for _, node := range order {
		out = append(out, node.data...)
	}
	for _, node := range order {
		base := pos[node]
		for _, l := range node.links {
			off := pos[l.target] - base
			if off <= 0 {
				panic(fmt.Sprintf("otbuild: backward offset from %d to %d", base, pos[l.target]))
			}
			switch l.width {
			case 2:
				if off > 0xFFFF {
					panic(fmt.Sprintf("otbuild: offset %d overflows Offset16", off))
				}
				binary.BigEndian.PutUint16(out[base+l.at:], uint16(off))
			case 4:
				binary.BigEndian.PutUint32(out[base+l.at:], uint32(off))
			}
		}
	}
	return out
}

// --- Coverage and class definitions ----------------------------------------

// Coverage creates a format 1 coverage table. Glyphs have to be given in
// ascending order.
func Coverage(glyphs ...uint16) *Node {
	return New().U16(1, uint16(len(glyphs))).U16(glyphs...)
}

// Range is a range of glyph IDs, bounds included.
type Range struct {
	Start, End uint16
}

// CoverageRanges creates a format 2 coverage table. Coverage indices are
// assigned consecutively over the ranges.
func CoverageRanges(ranges ...Range) *Node {
	n := New().U16(2, uint16(len(ranges)))
	inx := uint16(0)
	for _, r := range ranges {
		n.U16(r.Start, r.End, inx)
		inx += r.End - r.Start + 1
	}
	return n
}

// ClassDef1 creates a format 1 class definition table, assigning classes to
// consecutive glyphs starting at glyph start.
func ClassDef1(start uint16, classes ...uint16) *Node {
	return New().U16(1, start, uint16(len(classes))).U16(classes...)
}

// ClassRange assigns Class to a range of glyphs.
type ClassRange struct {
	Start, End, Class uint16
}

// ClassDef2 creates a format 2 class definition table.
func ClassDef2(ranges ...ClassRange) *Node {
	n := New().U16(2, uint16(len(ranges)))
	for _, r := range ranges {
		n.U16(r.Start, r.End, r.Class)
	}
	return n
}

// --- Lookups and subtables -------------------------------------------------

// Lookup creates a lookup table of type ltype with the given flags.
func Lookup(ltype, flag uint16, subtables ...*Node) *Node {
	n := New().U16(ltype, flag, uint16(len(subtables)))
	for _, st := range subtables {
		n.Off16(st)
	}
	return n
}

// LookupWithMarkSet creates a lookup table using mark filtering set `set`.
// Flag USE_MARK_FILTERING_SET is set automatically.
func LookupWithMarkSet(ltype, flag, set uint16, subtables ...*Node) *Node {
	return Lookup(ltype, flag|0x0010, subtables...).U16(set)
}

// Single1 creates a single substitution subtable of format 1.
func Single1(cov *Node, delta uint16) *Node {
	return New().U16(1).Off16(cov).U16(delta)
}

// Single2 creates a single substitution subtable of format 2.
func Single2(cov *Node, subst ...uint16) *Node {
	return New().U16(2).Off16(cov).U16(uint16(len(subst))).U16(subst...)
}

func sequences(format uint16, cov *Node, seqs [][]uint16) *Node {
	n := New().U16(format).Off16(cov).U16(uint16(len(seqs)))
	for _, seq := range seqs {
		n.Off16(New().U16(uint16(len(seq))).U16(seq...))
	}
	return n
}

// Multiple creates a multiple substitution subtable, one sequence per
// coverage index.
func Multiple(cov *Node, seqs ...[]uint16) *Node {
	return sequences(1, cov, seqs)
}

// Alternate creates an alternate substitution subtable, one alternate set
// per coverage index.
func Alternate(cov *Node, sets ...[]uint16) *Node {
	return sequences(1, cov, sets)
}

// Lig describes a ligature: the ligature glyph and the component glyphs
// following the first one.
type Lig struct {
	Glyph      uint16
	Components []uint16
}

// Ligature creates a ligature substitution subtable, one ligature set per
// coverage index.
func Ligature(cov *Node, sets ...[]Lig) *Node {
	n := New().U16(1).Off16(cov).U16(uint16(len(sets)))
	for _, set := range sets {
		ls := New().U16(uint16(len(set)))
		for _, lig := range set {
			ls.Off16(New().U16(lig.Glyph, uint16(len(lig.Components)+1)).U16(lig.Components...))
		}
		n.Off16(ls)
	}
	return n
}

// Rec is a sequence lookup record: apply lookup Lookup at input position Seq.
type Rec struct {
	Seq, Lookup uint16
}

func records(n *Node, recs []Rec) *Node {
	for _, r := range recs {
		n.U16(r.Seq, r.Lookup)
	}
	return n
}

// Rule is a rule of a contextual subtable of format 1 or 2. Input holds
// glyphs or classes, without the first input glyph.
type Rule struct {
	Input   []uint16
	Records []Rec
}

func ruleSets(n *Node, sets [][]Rule) *Node {
	n.U16(uint16(len(sets)))
	for _, set := range sets {
		if set == nil {
			n.Off16(nil)
			continue
		}
		rs := New().U16(uint16(len(set)))
		for _, r := range set {
			rule := New().U16(uint16(len(r.Input)+1), uint16(len(r.Records))).U16(r.Input...)
			rs.Off16(records(rule, r.Records))
		}
		n.Off16(rs)
	}
	return n
}

// Context1 creates a contextual substitution subtable of format 1. Rule set
// i belongs to the glyph with coverage index i.
func Context1(cov *Node, sets ...[]Rule) *Node {
	return ruleSets(New().U16(1).Off16(cov), sets)
}

// Context2 creates a contextual substitution subtable of format 2. Rule set
// i belongs to input class i; a nil rule set yields a NULL offset.
func Context2(cov, classes *Node, sets ...[]Rule) *Node {
	return ruleSets(New().U16(2).Off16(cov).Off16(classes), sets)
}

// Context3 creates a contextual substitution subtable of format 3.
func Context3(input []*Node, recs ...Rec) *Node {
	n := New().U16(3, uint16(len(input)), uint16(len(recs)))
	for _, cov := range input {
		n.Off16(cov)
	}
	return records(n, recs)
}

// ChainRule is a rule of a chained contextual subtable of format 1 or 2.
// Input holds glyphs or classes, without the first input glyph. Backtrack
// is given in logical order, i.e. the glyph closest to the input comes last.
type ChainRule struct {
	Backtrack []uint16
	Input     []uint16
	Lookahead []uint16
	Records   []Rec
}

func chainRuleSets(n *Node, sets [][]ChainRule) *Node {
	n.U16(uint16(len(sets)))
	for _, set := range sets {
		if set == nil {
			n.Off16(nil)
			continue
		}
		rs := New().U16(uint16(len(set)))
		for _, r := range set {
			rule := New().U16(uint16(len(r.Backtrack))).U16(reversed(r.Backtrack)...)
			rule.U16(uint16(len(r.Input) + 1)).U16(r.Input...)
			rule.U16(uint16(len(r.Lookahead))).U16(r.Lookahead...)
			rule.U16(uint16(len(r.Records)))
			rs.Off16(records(rule, r.Records))
		}
		n.Off16(rs)
	}
	return n
}

// Chain1 creates a chained contextual substitution subtable of format 1.
func Chain1(cov *Node, sets ...[]ChainRule) *Node {
	return chainRuleSets(New().U16(1).Off16(cov), sets)
}

// Chain2 creates a chained contextual substitution subtable of format 2.
func Chain2(cov, backtrack, input, lookahead *Node, sets ...[]ChainRule) *Node {
	n := New().U16(2).Off16(cov).Off16(backtrack).Off16(input).Off16(lookahead)
	return chainRuleSets(n, sets)
}

// Chain3 creates a chained contextual substitution subtable of format 3.
// Backtrack coverages are given in logical order.
func Chain3(backtrack, input, lookahead []*Node, recs ...Rec) *Node {
	n := New().U16(3)
	coverages(n, reversedNodes(backtrack))
	coverages(n, input)
	coverages(n, lookahead)
	n.U16(uint16(len(recs)))
	return records(n, recs)
}

func coverages(n *Node, covs []*Node) {
	n.U16(uint16(len(covs)))
	for _, cov := range covs {
		n.Off16(cov)
	}
}

// Extension creates an extension subtable wrapping a subtable of type ltype.
func Extension(ltype uint16, target *Node) *Node {
	return New().U16(1, ltype).Off32(target)
}

// Reverse creates a reverse chaining contextual single substitution
// subtable. Backtrack coverages are given in logical order.
func Reverse(cov *Node, backtrack, lookahead []*Node, subst ...uint16) *Node {
	n := New().U16(1).Off16(cov)
	coverages(n, reversedNodes(backtrack))
	coverages(n, lookahead)
	return n.U16(uint16(len(subst))).U16(subst...)
}

func reversed(s []uint16) []uint16 {
	r := make([]uint16, len(s))
	for i, x := range s {
		r[len(s)-1-i] = x
	}
	return r
}

func reversedNodes(s []*Node) []*Node {
	r := make([]*Node, len(s))
	for i, x := range s {
		r[len(s)-1-i] = x
	}
	return r
}

// --- Tables ----------------------------------------------------------------

// Feature is a feature record of a GSUB table.
type Feature struct {
	Tag     string
	Lookups []uint16
}

// GSUB creates a GSUB table of version 1.0 without scripts and features.
func GSUB(lookups ...*Node) []byte {
	return GSUBWithFeatures(nil, lookups...)
}

// GSUBWithFeatures creates a GSUB table of version 1.0. If features are
// given, a script 'DFLT' with a default language system enabling all of them
// is created.
func GSUBWithFeatures(features []Feature, lookups ...*Node) []byte {
	var scripts, featureList *Node
	if len(features) > 0 {
		langSys := New().U16(0, 0xFFFF, uint16(len(features)))
		for i := range features {
			langSys.U16(uint16(i))
		}
		scripts = New().U16(1).Tag("DFLT").Off16(New().Off16(langSys).U16(0))
		featureList = New().U16(uint16(len(features)))
		for _, f := range features {
			featureList.Tag(f.Tag).Off16(New().U16(0, uint16(len(f.Lookups))).U16(f.Lookups...))
		}
	}
	return New().U16(1, 0).Off16(scripts).Off16(featureList).Off16(lookupList(lookups)).Bytes()
}

func lookupList(lookups []*Node) *Node {
	n := New().U16(uint16(len(lookups)))
	for _, l := range lookups {
		n.Off16(l)
	}
	return n
}

// GDEF creates a GDEF table. If mark glyph sets are given, the table is of
// version 1.2, otherwise of version 1.0.
func GDEF(glyphClasses, markAttachClasses *Node, markSets ...*Node) []byte {
	if len(markSets) == 0 {
		return New().U16(1, 0).Off16(glyphClasses).U16(0, 0).Off16(markAttachClasses).Bytes()
	}
	sets := New().U16(1, uint16(len(markSets)))
	for _, cov := range markSets {
		sets.Off32(cov)
	}
	return New().U16(1, 2).Off16(glyphClasses).U16(0, 0).Off16(markAttachClasses).Off16(sets).Bytes()
}
