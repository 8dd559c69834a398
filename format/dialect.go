package format

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ParamStyle selects how parameters are rendered and how the parameter bag
// is shaped.
type ParamStyle int

const (
	// ParamPreserve re-emits each parameter the way it appeared in the
	// source. This is the Plain dialect's style.
	ParamPreserve ParamStyle = iota
	// ParamAnonymous renders every parameter as the bare symbol (`?`).
	ParamAnonymous
	// ParamIndexed renders `$1`, `$2`, ... numbered in first-visit order.
	ParamIndexed
	// ParamNamed renders `:name` / `@name`, falling back to a synthesized
	// name for parameters that carry none.
	ParamNamed
)

// IdentCase is the case folding applied to unquoted identifiers.
type IdentCase int

const (
	IdentCaseKeep IdentCase = iota
	IdentCaseLower
	IdentCaseUpper
)

// Dialect is a formatting preset: identifier escapes, parameter symbol and
// style, and identifier case folding.
type Dialect struct {
	Name        string
	IdentStart  string
	IdentEnd    string
	ParamSymbol string
	ParamStyle  ParamStyle
	QuoteAll    bool // quote every identifier, not only the ones that need it
	IdentCase   IdentCase
}

// WithParamStyle returns a copy of the dialect with a different parameter
// style, for callers that want e.g. postgres escaping with named params.
func (d *Dialect) WithParamStyle(style ParamStyle) *Dialect {
	c := *d
	c.ParamStyle = style
	return &c
}

// namedSymbol is the prefix used when parameters render in the named
// style. Dialects whose native symbol is positional (`?`, `$`) fall back
// to the portable `:name` form.
func (d *Dialect) namedSymbol() string {
	if d.ParamSymbol == "@" || d.ParamSymbol == ":" {
		return d.ParamSymbol
	}
	return ":"
}

// x/text casers fold non-ASCII identifiers correctly, which plain
// strings.ToLower does not for characters like İ.
var (
	lowerCaser = cases.Lower(language.Und)
	upperCaser = cases.Upper(language.Und)
)

func (d *Dialect) foldIdent(id string) string {
	switch d.IdentCase {
	case IdentCaseLower:
		return lowerCaser.String(id)
	case IdentCaseUpper:
		return upperCaser.String(id)
	default:
		return id
	}
}

// quoteIdent wraps id in the dialect's identifier escapes, doubling any
// embedded end-escape character.
func (d *Dialect) quoteIdent(id string) string {
	escaped := strings.ReplaceAll(id, d.IdentEnd, d.IdentEnd+d.IdentEnd)
	return d.IdentStart + escaped + d.IdentEnd
}

// Plain is the dialect used when Options.Dialect is nil: double-quote
// escaping only where required, parameters re-emitted as written.
var Plain = &Dialect{
	Name:        "plain",
	IdentStart:  `"`,
	IdentEnd:    `"`,
	ParamSymbol: "?",
	ParamStyle:  ParamPreserve,
}

var presets = map[string]*Dialect{
	"postgres":  {Name: "postgres", IdentStart: `"`, IdentEnd: `"`, ParamSymbol: "$", ParamStyle: ParamIndexed, QuoteAll: true},
	"mysql":     {Name: "mysql", IdentStart: "`", IdentEnd: "`", ParamSymbol: "?", ParamStyle: ParamAnonymous, QuoteAll: true},
	"sqlserver": {Name: "sqlserver", IdentStart: "[", IdentEnd: "]", ParamSymbol: "@", ParamStyle: ParamNamed, QuoteAll: true},
	"oracle":    {Name: "oracle", IdentStart: `"`, IdentEnd: `"`, ParamSymbol: ":", ParamStyle: ParamNamed, QuoteAll: true},
	"sqlite":    {Name: "sqlite", IdentStart: `"`, IdentEnd: `"`, ParamSymbol: "?", ParamStyle: ParamAnonymous, QuoteAll: true},
	"bigquery":  {Name: "bigquery", IdentStart: "`", IdentEnd: "`", ParamSymbol: "@", ParamStyle: ParamNamed, QuoteAll: true},
	"snowflake": {Name: "snowflake", IdentStart: `"`, IdentEnd: `"`, ParamSymbol: "?", ParamStyle: ParamAnonymous, QuoteAll: true},
	"duckdb":    {Name: "duckdb", IdentStart: `"`, IdentEnd: `"`, ParamSymbol: "$", ParamStyle: ParamIndexed, QuoteAll: true},
	"redshift":  {Name: "redshift", IdentStart: `"`, IdentEnd: `"`, ParamSymbol: "$", ParamStyle: ParamIndexed, QuoteAll: true},
}

// Preset returns the named dialect preset. The returned dialect is a copy;
// callers may adjust it freely.
func Preset(name string) (*Dialect, bool) {
	d, ok := presets[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	c := *d
	return &c, true
}

// Presets returns the names of all built-in dialect presets, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
