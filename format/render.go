package format

import (
	"reflect"
	"strings"

	"github.com/sqlweave/sqlweave/errs"
)

// Params is the parameter bag assembled during rendering. Named styles fill
// Named; indexed, anonymous, and preserve styles fill Ordered in numbering
// order. Positions without a bound value hold nil.
type Params struct {
	Named   map[string]any
	Ordered []any
}

// Render walks a PrintToken tree against the dialect in opts and returns
// the SQL string plus the parameter bag. The only error it can produce is
// InconsistentParameterValue: the same named parameter resolving to two
// different bound values.
func Render(tokens []PrintToken, opts Options) (string, *Params, error) {
	d := opts.Dialect
	if d == nil {
		d = Plain
	}
	r := renderer{dialect: d, opts: opts}
	r.render(tokens)
	params, err := collectParams(tokens, d, opts.Values)
	return r.buf.String(), params, err
}

type renderer struct {
	buf     strings.Builder
	dialect *Dialect
	opts    Options
}

func (r *renderer) render(tokens []PrintToken) {
	for i := range tokens {
		t := &tokens[i]
		switch t.Type {
		case TokenContainer:
			r.render(t.Inner)
		case TokenKeyword:
			if r.opts.Uppercase {
				r.buf.WriteString(strings.ToUpper(t.Text))
			} else {
				r.buf.WriteString(t.Text)
			}
		case TokenIdentifier:
			r.writeIdent(t.Text, false)
		case TokenFunction:
			r.writeIdent(t.Text, true)
		case TokenParameter:
			r.buf.WriteString(r.paramText(t))
		case TokenComment:
			r.buf.WriteString(t.Text)
			if isLineComment(t.Text) {
				r.buf.WriteByte('\n')
			} else {
				r.buf.WriteByte(' ')
			}
		default:
			r.buf.WriteString(t.Text)
		}
	}
}

// writeIdent renders one identifier component. Function names are never
// quoted for being keywords, and the * placeholder is never quoted at all.
func (r *renderer) writeIdent(id string, isFunc bool) {
	if id == "*" {
		r.buf.WriteString(id)
		return
	}
	d := r.dialect
	quote := d.QuoteAll
	if !quote {
		if isFunc {
			quote = needsQuotingNonKeyword(id)
		} else {
			quote = needsQuoting(id)
		}
	}
	if isFunc && d.QuoteAll {
		// Built-in function names stay bare even under QuoteAll; only
		// names that would otherwise be ambiguous get escaped.
		quote = needsQuotingNonKeyword(id)
	}
	if quote {
		r.buf.WriteString(d.quoteIdent(id))
	} else {
		r.buf.WriteString(d.foldIdent(id))
	}
}

func (r *renderer) paramText(t *PrintToken) string {
	d := r.dialect
	switch d.ParamStyle {
	case ParamAnonymous:
		return d.ParamSymbol
	case ParamIndexed:
		return d.ParamSymbol + itoa(t.Ordinal)
	case ParamNamed:
		return d.namedSymbol() + paramName(t)
	default:
		return t.Text
	}
}

// paramName is the declared name of a parameter, or a synthesized one for
// parameters that carry none (anonymous ? promoted to a named style).
func paramName(t *PrintToken) string {
	if t.Param != nil && t.Param.Name != "" {
		return t.Param.Name
	}
	if t.Param != nil && t.Param.Index > 0 {
		return "p" + itoa(t.Param.Index)
	}
	return "p" + itoa(t.Ordinal)
}

func isLineComment(text string) bool {
	return strings.HasPrefix(text, "--") || strings.HasPrefix(text, "#")
}

// collectParams builds the parameter bag from the token tree and the
// caller's bound values. Named styles merge repeated uses of one name and
// fail when the same name resolves to different values.
func collectParams(tokens []PrintToken, d *Dialect, values map[string]any) (*Params, error) {
	var ptoks []*PrintToken
	walkTokens(tokens, func(t *PrintToken) {
		if t.Type == TokenParameter {
			ptoks = append(ptoks, t)
		}
	})
	params := &Params{}
	if len(ptoks) == 0 {
		return params, nil
	}

	if d.ParamStyle == ParamNamed {
		params.Named = make(map[string]any, len(ptoks))
		var errList errs.List
		for _, t := range ptoks {
			name := paramName(t)
			val, ok := lookupValue(values, t)
			if !ok {
				if _, seen := params.Named[name]; !seen {
					params.Named[name] = nil
				}
				continue
			}
			if prev, seen := params.Named[name]; seen && prev != nil {
				if !reflect.DeepEqual(prev, val) {
					errList = append(errList, errs.NewInconsistentParameterValue(name))
				}
				continue
			}
			params.Named[name] = val
		}
		return params, errList.Err()
	}

	params.Ordered = make([]any, 0, len(ptoks))
	for _, t := range ptoks {
		val, _ := lookupValue(values, t)
		params.Ordered = append(params.Ordered, val)
	}
	return params, nil
}

// lookupValue resolves a parameter's bound value: by declared name first,
// then by declared positional index, then by first-visit ordinal.
func lookupValue(values map[string]any, t *PrintToken) (any, bool) {
	if values == nil {
		return nil, false
	}
	if t.Param != nil && t.Param.Name != "" {
		if v, ok := values[t.Param.Name]; ok {
			return v, true
		}
	}
	if t.Param != nil && t.Param.Index > 0 {
		if v, ok := values[itoa(t.Param.Index)]; ok {
			return v, true
		}
	}
	if v, ok := values[itoa(t.Ordinal)]; ok {
		return v, true
	}
	return nil, false
}
