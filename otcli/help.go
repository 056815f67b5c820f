package main

import (
	"strings"

	"github.com/pterm/pterm"
)

func helpOp(intp *Intp, op *Op) (error, bool) {
	help(op.arg)
	return nil, false
}

func help(topic string) {
	tracer().Infof("help %v", topic)
	t := strings.ToLower(topic)
	switch t {
	case "script", "lang", "langsys", "features":
		pterm.Info.Println("Script / LangSys / Features")
		pterm.Println(`
	script:<tag>[:<lang>]   select script and language system, e.g. "script:latn:DEU"
	features[:<tag>,...]    list the features of the current language system

	A LangSys links a language with features to activate. It does so using an
	index into the feature list:
	+-----------------------------------+
	| Index of required feature or null |
	+-----------------------------------+
	| Index of feature 1                |
	+-----------------------------------+
	| ...                               |
	+-----------------------------------+
	Scripts missing from the font fall back to DFLT.
	`)
	case "lookups", "lookup", "collect", "alternates":
		pterm.Info.Println("Lookups")
		pterm.Println(`
	lookups                 list all lookups of GSUB
	lookups:<n>             print the subtables of lookup n
	collect:<n>             collect the glyphs lookup n may read or write
	alternates:<n>:<glyph>  list the alternates alternate lookup n offers for a glyph ID
	`)
	case "apply", "closure":
		pterm.Info.Println("Applying lookups")
		pterm.Println(`
	apply:<text>[:<tag>,...]    map text to glyphs and apply the lookups of the
	                            given features (default: all features)
	closure:<text>[:<tag>,...]  compute the set of glyphs reachable from text
	`)
	default:
		pterm.Info.Println("Commands")
		pterm.Println(`
	script, features, lookups, collect, alternates, sanitize, apply, closure,
	help, quit
	Enter "help:<command>" for details. Commands may be chained on one line.
	`)
	}
}
