package ot

// NullPoolSize is the size in bytes of the static zero-filled buffer which
// stands in for absent records.
const NullPoolSize = 384

var nullPool [NullPoolSize]byte

// nullSegm is the DefaultValue for every record type of this package.
var nullSegm = binarySegm(nullPool[:])

// Minimum sizes of records the null pool has to impersonate.
const (
	minSizeCoverage         = 4
	minSizeClassDef         = 4
	minSizeLookup           = 6
	minSizeLookupList       = 2
	minSizeSingleSubst      = 6
	minSizeMultipleSubst    = 6
	minSizeLigature         = 4
	minSizeContextFmt3      = 6
	minSizeChainContextFmt2 = 12
	minSizeExtension        = 8
	minSizeReverseChain     = 10
	minSizeGSubHeader       = 10
	minSizeGSubHeaderV11    = 14
	minSizeGDefHeaderV13    = 18

	maxMinRecordSize = minSizeGDefHeaderV13
)

// The null pool must be able to impersonate the largest record. This fails to
// compile if it cannot.
const _ = uint(NullPoolSize - maxMinRecordSize)

// null returns the DefaultValue for a record of the given minimum size.
// Requesting a record larger than the pool is a programming error.
func null(name string, minSize int) binarySegm {
	assertFitsNullPool(name, minSize)
	return nullSegm
}

// Scratch provides a writable zero value of type T. It is used as a target
// for writes whose result will never be read, e.g. when clients access an
// out-of-range record of a mutable sequence. Each call to Get resets the
// value, so nothing written to it survives.
//
// Scratch is not safe for concurrent use; embed one per session.
type Scratch[T any] struct {
	v T
}

// Get returns a pointer to a freshly zeroed T.
func (s *Scratch[T]) Get() *T {
	var zero T
	s.v = zero
	return &s.v
}
