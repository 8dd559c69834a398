// Package schema validates the table and column references of a parsed
// statement against a caller-supplied catalog. Errors are accumulated: one
// Validate call reports every unknown table, every unknown column, and
// every arity mismatch it finds.
package schema

import (
	"strings"

	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/colref"
	"github.com/sqlweave/sqlweave/errs"
)

// TableColumnResolver supplies the columns of a physical table. An empty
// return means the table is unknown.
type TableColumnResolver func(tableName string) []string

// Schemas is the map form of a resolver, for callers with a static catalog.
type Schemas map[string][]string

// Resolver adapts a Schemas map to the resolver function type.
func (s Schemas) Resolver(tableName string) []string {
	if cols, ok := s[strings.ToLower(tableName)]; ok {
		return cols
	}
	return s[tableName]
}

// Validate checks every table and column reference in stmt against the
// resolver and returns the accumulated semantic errors, or nil.
func Validate(stmt ast.Statement, resolver TableColumnResolver) error {
	v := &validator{resolver: resolver, ctes: map[string]*ast.CTE{}}
	v.walkStatement(stmt)
	return v.errors.Err()
}

type validator struct {
	resolver TableColumnResolver
	ctes     map[string]*ast.CTE
	errors   errs.List
}

// source is one FROM/JOIN entry in the scope of a single query.
type source struct {
	key     string   // alias if present, else table name (lowercased)
	columns []string // nil means unknown: column checks are skipped
}

func (v *validator) walkStatement(stmt ast.Statement) {
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		v.registerCTEs(s.With)
		v.validateSelect(s)
	case *ast.SetOp:
		v.registerCTEs(s.With)
		v.walkStatement(s.Left)
		v.walkStatement(s.Right)
		v.checkSetOpArity(s)
	case *ast.InsertStmt:
		v.registerCTEs(s.With)
		if s.Table != nil {
			v.checkTable(s.Table)
		}
		if s.Select != nil {
			v.walkStatement(s.Select)
		}
	case *ast.UpdateStmt:
		v.registerCTEs(s.With)
		var sources []source
		v.collectSources(s.Table, "", &sources)
		v.collectSources(s.From, "", &sources)
		v.validateSources(sources, s)
	case *ast.DeleteStmt:
		v.registerCTEs(s.With)
		var sources []source
		v.collectSources(s.Table, "", &sources)
		v.collectSources(s.Using, "", &sources)
		v.validateSources(sources, s)
	}
}

func (v *validator) registerCTEs(with *ast.WithClause) {
	if with == nil {
		return
	}
	for _, c := range with.CTEs {
		v.ctes[strings.ToLower(c.Name)] = c
		v.checkCTEArity(c)
		v.walkStatement(c.Query)
	}
}

// checkCTEArity verifies a CTE's declared column list against the arity its
// query actually projects, where that is statically known.
func (v *validator) checkCTEArity(c *ast.CTE) {
	if len(c.Columns) == 0 {
		return
	}
	arity, known := projectionArity(c.Query)
	if known && arity != len(c.Columns) {
		v.errors = append(v.errors, errs.NewArityMismatch(c.Name, len(c.Columns), arity))
	}
}

func (v *validator) validateSelect(s *ast.SelectStmt) {
	var sources []source
	v.collectSources(s.From, "", &sources)
	v.validateSources(sources, s)

	// Nested subqueries in the FROM tree were validated by collectSources;
	// scalar subqueries in expressions are reached here.
	for _, ref := range subqueriesIn(s) {
		v.walkStatement(ref)
	}
}

// validateSources checks the given statement's column references against
// the visible sources.
func (v *validator) validateSources(sources []source, stmt ast.Statement) {
	byKey := map[string]source{}
	for _, src := range sources {
		byKey[src.key] = src
	}
	for _, ref := range colref.Collect(stmt) {
		v.checkColumn(ref, byKey, sources)
	}
}

// collectSources walks a FROM tree registering each source and validating
// table existence as it goes.
func (v *validator) collectSources(te ast.TableExpr, alias string, out *[]source) {
	switch t := te.(type) {
	case nil:
	case *ast.JoinExpr:
		v.collectSources(t.Left, "", out)
		v.collectSources(t.Right, "", out)
	case *ast.ParenTableExpr:
		v.collectSources(t.Expr, alias, out)
	case *ast.AliasedTableExpr:
		if sub, ok := t.Expr.(*ast.Subquery); ok && len(t.Columns) > 0 {
			v.walkStatement(sub.Select)
			*out = append(*out, source{key: strings.ToLower(t.Alias), columns: t.Columns})
			return
		}
		v.collectSources(t.Expr, t.Alias, out)
	case *ast.TableName:
		key := alias
		if key == "" {
			key = t.Name()
		}
		*out = append(*out, source{key: strings.ToLower(key), columns: v.tableColumns(t)})
	case *ast.Subquery:
		v.walkStatement(t.Select)
		*out = append(*out, source{key: strings.ToLower(alias), columns: projectedNames(t.Select)})
	}
}

// tableColumns resolves a table's columns through the CTE registry first,
// then the caller's resolver. An unknown table is reported once here.
func (v *validator) tableColumns(t *ast.TableName) []string {
	if c, ok := v.ctes[strings.ToLower(t.Name())]; ok && t.Schema() == "" {
		if len(c.Columns) > 0 {
			return c.Columns
		}
		return projectedNames(c.Query)
	}
	if v.resolver == nil {
		return nil
	}
	full := strings.Join(t.Parts, ".")
	cols := v.resolver(full)
	if len(cols) == 0 && len(t.Parts) > 1 {
		cols = v.resolver(t.Name())
	}
	if len(cols) == 0 {
		v.errors = append(v.errors, errs.NewUnknownTable(full))
		return nil
	}
	return cols
}

func (v *validator) checkTable(t *ast.TableName) {
	v.tableColumns(t)
}

func (v *validator) checkColumn(ref colref.Ref, byKey map[string]source, sources []source) {
	name := ref.Col.Name()
	if name == "" || name == "*" {
		return
	}
	qualifier := strings.ToLower(ref.Col.Table())
	if qualifier != "" {
		src, ok := byKey[qualifier]
		if !ok {
			// Qualifier may be a schema-qualified table referenced directly.
			return
		}
		if src.columns != nil && !containsFold(src.columns, name) {
			v.errors = append(v.errors, errs.NewUnknownColumn(ref.Col.Table()+"."+name))
		}
		return
	}
	// Unqualified: visible if any source claims it, or any source's columns
	// are unknown.
	known := true
	for _, src := range sources {
		if src.columns == nil {
			known = false
			continue
		}
		if containsFold(src.columns, name) {
			return
		}
	}
	if known && len(sources) > 0 {
		v.errors = append(v.errors, errs.NewUnknownColumn(name))
	}
}

// checkSetOpArity reports mismatched projection arities between the two
// sides of a set operation, where both are statically known.
func (v *validator) checkSetOpArity(s *ast.SetOp) {
	left, lok := projectionArity(s.Left)
	right, rok := projectionArity(s.Right)
	if lok && rok && left != right {
		v.errors = append(v.errors, errs.NewArityMismatch(s.Type.String(), left, right))
	}
}

// projectionArity returns the number of columns stmt projects and whether
// that number is statically known (a star projection is not).
func projectionArity(stmt ast.Statement) (int, bool) {
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		n := 0
		for _, col := range s.Columns {
			if _, ok := col.(*ast.StarExpr); ok {
				return 0, false
			}
			n++
		}
		return n, true
	case *ast.SetOp:
		return projectionArity(s.Left)
	case *ast.ValuesStmt:
		if len(s.Rows) > 0 {
			return len(s.Rows[0]), true
		}
	}
	return 0, false
}

// projectedNames enumerates a query's output column names, or nil when they
// cannot be statically determined.
func projectedNames(stmt ast.Statement) []string {
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		if op, ok := stmt.(*ast.SetOp); ok {
			return projectedNames(op.Left)
		}
		return nil
	}
	var cols []string
	for _, item := range sel.Columns {
		switch e := item.(type) {
		case *ast.AliasedExpr:
			if e.Alias != "" {
				cols = append(cols, e.Alias)
				continue
			}
			if col, ok := e.Expr.(*ast.ColName); ok {
				cols = append(cols, col.Name())
				continue
			}
			return nil
		case *ast.StarExpr:
			return nil
		}
	}
	return cols
}

// subqueriesIn returns the scalar subqueries appearing in s's expressions,
// so they can be validated in their own scope.
func subqueriesIn(s *ast.SelectStmt) []ast.Statement {
	var out []ast.Statement
	var walkExpr func(e ast.Expr)
	walkExpr = func(e ast.Expr) {
		switch ex := e.(type) {
		case nil:
		case *ast.Subquery:
			out = append(out, ex.Select)
		case *ast.BinaryExpr:
			walkExpr(ex.Left)
			walkExpr(ex.Right)
		case *ast.UnaryExpr:
			walkExpr(ex.Operand)
		case *ast.ParenExpr:
			walkExpr(ex.Expr)
		case *ast.InExpr:
			walkExpr(ex.Expr)
			if ex.Select != nil {
				out = append(out, ex.Select)
			}
		case *ast.ExistsExpr:
			if ex.Subquery != nil {
				out = append(out, ex.Subquery.Select)
			}
		}
	}
	for _, col := range s.Columns {
		if ae, ok := col.(*ast.AliasedExpr); ok {
			walkExpr(ae.Expr)
		}
	}
	walkExpr(s.Where)
	walkExpr(s.Having)
	return out
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}
