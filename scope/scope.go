// Package scope maps a cursor position in SQL text to the set of tables,
// CTEs, and columns visible there, for completion and validation tooling.
package scope

import (
	"strings"

	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/recover"
	"github.com/sqlweave/sqlweave/token"
)

// SourceType classifies where a visible table comes from.
type SourceType int

const (
	SourceTable SourceType = iota
	SourceCTE
	SourceSubquery
)

func (s SourceType) String() string {
	switch s {
	case SourceCTE:
		return "cte"
	case SourceSubquery:
		return "subquery"
	default:
		return "table"
	}
}

// TableRef is one table visible at the cursor.
type TableRef struct {
	Name       string
	Alias      string
	Schema     string
	FullName   string
	SourceType SourceType
	Query      ast.Statement // the defining query, for CTE and subquery sources
	Columns    []string      // declared column aliases, for derived tables
}

// Column is one column visible at the cursor. Name is "*" when the source's
// columns cannot be enumerated without a resolver.
type Column struct {
	Table string // alias if the source has one, else the table name
	Name  string
}

// TableColumnResolver supplies the columns of a physical table. An empty
// return means the table is unknown.
type TableColumnResolver func(tableName string) []string

// Options configures scope resolution.
type Options struct {
	Resolver TableColumnResolver
	Recovery recover.Options
}

// Info is the scope visible at a cursor position.
type Info struct {
	AvailableTables []TableRef
	AvailableCTEs   []string
	VisibleColumns  []Column
	SubqueryLevel   int
	CurrentQuery    *ast.SelectStmt
	ParentQueries   []*ast.SelectStmt // outer-to-inner, excluding CurrentQuery
	TableScope      string            // alias left of a trailing "alias." at the cursor
	SuggestColumns  bool
	Fallback        bool // resolution failed; all collections are empty
}

// Resolve parses sql with error recovery up to cursor and computes the
// scope at that position.
func Resolve(sql string, cursor int, opts Options) (*Info, error) {
	res := recover.ParseToPosition(sql, cursor, opts.Recovery)
	if !res.Success || res.Statement == nil || res.Strategy == "minimal" {
		return &Info{Fallback: true}, nil
	}

	info := &Info{}
	setCursorContext(info, res)

	frames := collectFrames(res.Statement, cursor)
	if len(frames) == 0 {
		info.Fallback = true
		return info, nil
	}

	active := frames[len(frames)-1]
	info.SubqueryLevel = len(frames) - 1
	info.CurrentQuery = active.query
	for _, fr := range frames[:len(frames)-1] {
		info.ParentQueries = append(info.ParentQueries, fr.query)
	}

	// CTEs from every enclosing frame, outermost first.
	ctes := map[string]*ast.CTE{}
	for _, fr := range frames {
		if fr.query.With == nil {
			continue
		}
		for _, c := range fr.query.With.CTEs {
			key := normalizeTableName(c.Name)
			if _, seen := ctes[key]; !seen {
				ctes[key] = c
				info.AvailableCTEs = append(info.AvailableCTEs, c.Name)
			}
		}
	}

	collectTables(info, active.query.From, ctes)
	collectColumns(info, ctes, opts.Resolver)
	return info, nil
}

// setCursorContext derives the "alias."-style context from the lexemes
// around the cursor.
func setCursorContext(info *Info, res *recover.Result) {
	tok := res.TokenBeforeCursor
	if tok == nil {
		return
	}
	if tok.Type == token.DOT {
		info.SuggestColumns = true
		// The identifier preceding the dot names the table scope.
		for i := len(res.Lexemes) - 1; i >= 0; i-- {
			if res.Lexemes[i].Pos == tok.Pos && i > 0 && res.Lexemes[i-1].Type == token.IDENT {
				info.TableScope = res.Lexemes[i-1].Value
				break
			}
		}
	}
}

// frame is one query nesting level enclosing the cursor.
type frame struct {
	query *ast.SelectStmt
}

// collectFrames returns the stack of SelectStmt frames whose source span
// encloses the cursor, outermost first. A frame with no recorded span
// (synthesized during recovery) is treated as enclosing.
func collectFrames(stmt ast.Statement, cursor int) []frame {
	var frames []frame

	var pushSelect func(s *ast.SelectStmt)
	var walkStmt func(stmt ast.Statement)
	var walkTable func(te ast.TableExpr)

	encloses := func(start, end token.Pos) bool {
		if end.Offset == 0 && start.Offset == 0 {
			return true
		}
		return start.Offset <= cursor && (end.Offset == 0 || cursor <= end.Offset+1)
	}

	pushSelect = func(s *ast.SelectStmt) {
		// The outermost query always encloses the cursor; recovered
		// statements can carry spans shorter than the original input.
		if len(frames) > 0 && !encloses(s.StartPos, s.EndPos) {
			return
		}
		frames = append(frames, frame{query: s})
		if s.From != nil {
			walkTable(s.From)
		}
	}

	walkStmt = func(stmt ast.Statement) {
		switch s := stmt.(type) {
		case *ast.SelectStmt:
			pushSelect(s)
		case *ast.SetOp:
			walkStmt(s.Left)
			walkStmt(s.Right)
		}
	}

	walkTable = func(te ast.TableExpr) {
		switch t := te.(type) {
		case *ast.JoinExpr:
			walkTable(t.Left)
			walkTable(t.Right)
		case *ast.AliasedTableExpr:
			walkTable(t.Expr)
		case *ast.ParenTableExpr:
			walkTable(t.Expr)
		case *ast.Subquery:
			walkStmt(t.Select)
		}
	}

	walkStmt(stmt)
	return frames
}

// collectTables fills AvailableTables from the active frame's FROM tree.
func collectTables(info *Info, te ast.TableExpr, ctes map[string]*ast.CTE) {
	switch t := te.(type) {
	case nil:
	case *ast.JoinExpr:
		collectTables(info, t.Left, ctes)
		collectTables(info, t.Right, ctes)
	case *ast.ParenTableExpr:
		collectTables(info, t.Expr, ctes)
	case *ast.AliasedTableExpr:
		addSource(info, t.Expr, t.Alias, t.Columns, ctes)
	default:
		addSource(info, te, "", nil, ctes)
	}
}

func addSource(info *Info, te ast.TableExpr, alias string, columns []string, ctes map[string]*ast.CTE) {
	switch t := te.(type) {
	case *ast.TableName:
		ref := TableRef{
			Name:     t.Name(),
			Alias:    alias,
			Schema:   t.Schema(),
			FullName: strings.Join(t.Parts, "."),
		}
		if c, ok := ctes[normalizeTableName(t.Name())]; ok && t.Schema() == "" {
			ref.SourceType = SourceCTE
			ref.Query = c.Query
		}
		info.AvailableTables = append(info.AvailableTables, ref)
	case *ast.Subquery:
		ref := TableRef{
			Name:       alias,
			Alias:      alias,
			FullName:   alias,
			SourceType: SourceSubquery,
			Query:      t.Select,
		}
		if len(columns) > 0 {
			ref.Columns = columns
		}
		info.AvailableTables = append(info.AvailableTables, ref)
	case *ast.JoinExpr, *ast.ParenTableExpr, *ast.AliasedTableExpr:
		collectTables(info, t, ctes)
	}
}

// collectColumns fills VisibleColumns: resolver-supplied columns for
// physical tables, declared or projected aliases for CTEs and subqueries,
// and a * placeholder when nothing better is known.
func collectColumns(info *Info, ctes map[string]*ast.CTE, resolver TableColumnResolver) {
	for _, ref := range info.AvailableTables {
		owner := ref.Alias
		if owner == "" {
			owner = ref.Name
		}
		var cols []string
		switch ref.SourceType {
		case SourceCTE:
			if c := ctes[normalizeTableName(ref.Name)]; c != nil {
				cols = cteColumns(c)
			}
		case SourceSubquery:
			cols = ref.Columns
			if len(cols) == 0 {
				cols = projectedColumns(ref.Query)
			}
		default:
			if resolver != nil {
				cols = resolver(ref.FullName)
			}
		}
		if len(cols) == 0 {
			info.VisibleColumns = append(info.VisibleColumns, Column{Table: owner, Name: "*"})
			continue
		}
		for _, c := range cols {
			info.VisibleColumns = append(info.VisibleColumns, Column{Table: owner, Name: c})
		}
	}
}

// cteColumns prefers the CTE's declared column aliases, falling back to the
// columns its query projects.
func cteColumns(c *ast.CTE) []string {
	if len(c.Columns) > 0 {
		return c.Columns
	}
	return projectedColumns(c.Query)
}

// projectedColumns enumerates the output column names of a query, where
// statically known.
func projectedColumns(stmt ast.Statement) []string {
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		if op, ok := stmt.(*ast.SetOp); ok {
			return projectedColumns(op.Left)
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
			}
		case *ast.StarExpr:
			return nil
		}
	}
	return cols
}

func normalizeTableName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
