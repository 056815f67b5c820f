/*
Package ot provides read-only access to the binary structures of an OpenType
glyph substitution table (GSUB) and the glyph definition table (GDEF) it
depends on.

Package `ot` never copies table data. Clients hand in the bytes of a table and
receive typed views onto them: coverage tables, class definitions, lookups and
the subtables of the eight GSUB lookup types. Every view borrows a slice of the
original table.

Font data is untrusted. Before any view is handed out, a table has to pass the
sanitizer, which walks the complete offset graph once and certifies that every
reachable record lies within the table. Certification is memoized per Face.
A table failing certification is treated as if it were absent.

# Null Values

An offset of 0 in OpenType means "no table here". Package `ot` resolves such
offsets (and any offset not pointing into the table) to the null pool, a
static zero-filled buffer large enough to impersonate every record type of
this package. Reading from a null view yields zeros, which every record type
interprets as "empty": coverage tables cover nothing, class definitions map
every glyph to class 0, arrays have length 0. Clients may therefore
dereference views unconditionally.

# License

Governed by a 3-Clause BSD license. License file may be found in the root
folder of this module.

Copyright © Norbert Pillmayer <norbert@pillmayer.com>
*/
package ot

import (
	"fmt"

	"github.com/npillmayer/schuko/tracing"
)

// tracer writes to trace with key 'font.opentype'
func tracer() tracing.Trace {
	return tracing.Select("font.opentype")
}

func assertFitsNullPool(name string, size int) {
	if size < 0 || size > NullPoolSize {
		panic(fmt.Sprintf("assertion [%s] failed: record size %d exceeds null pool (%d)",
			name, size, NullPoolSize))
	}
}
