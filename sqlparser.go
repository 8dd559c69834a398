// Package sqlweave provides SQL parsing, analysis, and formatting.
//
// sqlweave is a dialect-agnostic SQL analysis library centered on
// PostgreSQL, with pragmatic coverage of MySQL, SQL Server, Oracle, SQLite,
// and BigQuery syntax. It parses SQL text into a typed AST, offers Walk and
// Rewrite traversal, a transformer layer (CTE normalization and
// decomposition, scope resolution, schema validation, parameter
// collection), and a dialect-aware formatter.
//
// Basic usage:
//
//	stmt, err := sqlweave.Parse("SELECT * FROM users WHERE id = 1")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(sqlweave.String(stmt))
//
// Walking the AST:
//
//	sqlweave.Walk(stmt, func(node ast.Node) bool {
//	    if col, ok := node.(*ast.ColName); ok {
//	        fmt.Printf("Found column: %s\n", col.Name())
//	    }
//	    return true
//	})
//
// Formatting for a specific dialect:
//
//	d, _ := format.Preset("postgres")
//	sql, params, err := sqlweave.Format(stmt, format.Options{Uppercase: true, Dialect: d})
package sqlweave

import (
	"fmt"

	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/cte"
	"github.com/sqlweave/sqlweave/format"
	"github.com/sqlweave/sqlweave/parser"
	"github.com/sqlweave/sqlweave/recover"
	"github.com/sqlweave/sqlweave/schema"
	"github.com/sqlweave/sqlweave/scope"
	"github.com/sqlweave/sqlweave/token"
	"github.com/sqlweave/sqlweave/visitor"
)

// Parse parses a single SQL statement.
// The parser uses internal pooling for efficiency.
// For maximum performance when parsing many queries, call Repool(stmt)
// when done with the statement (optional, see Repool).
func Parse(sql string) (ast.Statement, error) {
	p := parser.Get(sql)
	stmt, err := p.Parse()
	parser.Put(p)
	return stmt, err
}

// ParseAll parses all statements in the input.
// For maximum performance, call Repool on each statement when done (optional).
func ParseAll(sql string) ([]ast.Statement, error) {
	p := parser.Get(sql)
	stmts, err := p.ParseAll()
	parser.Put(p)
	return stmts, err
}

// ParseSelect parses a SELECT statement, including one with a WITH clause.
// A set operation or a bare VALUES list is rejected with an error.
func ParseSelect(sql string) (*ast.SelectStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	sel, ok := stmt.(*ast.SelectStmt)
	if !ok {
		return nil, fmt.Errorf("expected SELECT statement, got %T", stmt)
	}
	return sel, nil
}

// ParseInsert parses an INSERT statement.
func ParseInsert(sql string) (*ast.InsertStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	ins, ok := stmt.(*ast.InsertStmt)
	if !ok {
		return nil, fmt.Errorf("expected INSERT statement, got %T", stmt)
	}
	return ins, nil
}

// ParseUpdate parses an UPDATE statement.
func ParseUpdate(sql string) (*ast.UpdateStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	upd, ok := stmt.(*ast.UpdateStmt)
	if !ok {
		return nil, fmt.Errorf("expected UPDATE statement, got %T", stmt)
	}
	return upd, nil
}

// ParseDelete parses a DELETE statement.
func ParseDelete(sql string) (*ast.DeleteStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	del, ok := stmt.(*ast.DeleteStmt)
	if !ok {
		return nil, fmt.Errorf("expected DELETE statement, got %T", stmt)
	}
	return del, nil
}

// ParseMerge parses a MERGE statement.
func ParseMerge(sql string) (*ast.MergeStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	m, ok := stmt.(*ast.MergeStmt)
	if !ok {
		return nil, fmt.Errorf("expected MERGE statement, got %T", stmt)
	}
	return m, nil
}

// ParseCreateTable parses a CREATE TABLE statement.
func ParseCreateTable(sql string) (*ast.CreateTableStmt, error) {
	stmt, err := Parse(sql)
	if err != nil {
		return nil, err
	}
	ct, ok := stmt.(*ast.CreateTableStmt)
	if !ok {
		return nil, fmt.Errorf("expected CREATE TABLE statement, got %T", stmt)
	}
	return ct, nil
}

// ParseValue parses a single value expression.
func ParseValue(sql string) (ast.Expr, error) {
	p := parser.Get(sql)
	expr, err := p.ParseExpression()
	parser.Put(p)
	return expr, err
}

// AnalyzeResult is the non-throwing parse outcome returned by ParseAnalyze.
type AnalyzeResult struct {
	Success   bool
	Statement ast.Statement
	Err       error
	ErrPos    *token.Pos // position of the failure, when known
}

// ParseAnalyze parses sql and reports the outcome as a value instead of an
// error, with the failing position when one is known.
func ParseAnalyze(sql string) AnalyzeResult {
	stmt, err := Parse(sql)
	if err != nil {
		res := AnalyzeResult{Err: err}
		if pe, ok := err.(parser.ParseError); ok {
			pos := pe.Pos
			res.ErrPos = &pos
		}
		return res
	}
	return AnalyzeResult{Success: true, Statement: stmt}
}

// Repool returns AST nodes to internal pools for reuse.
// This is optional - if not called, nodes are garbage collected normally.
// Calling Repool after you're done with a statement improves performance
// when parsing many queries by reducing allocations.
//
// Example:
//
//	stmt, err := sqlweave.Parse(sql)
//	if err != nil {
//	    return err
//	}
//	defer sqlweave.Repool(stmt)
//	// ... use stmt ...
func Repool(stmt Statement) {
	ast.ReleaseAST(stmt)
}

// String formats an AST node back to SQL with the default options.
func String(node ast.Node) string {
	return format.String(node)
}

// Format renders a statement against the given options and returns the SQL
// plus the bound-parameter bag.
func Format(stmt ast.Statement, opts format.Options) (string, *format.Params, error) {
	return format.Format(stmt, opts)
}

// NormalizeCTEs hoists every nested WITH clause in q to the root query, in
// dependency order. See the cte package for the full contract.
func NormalizeCTEs(q *ast.SelectStmt) (*ast.SelectStmt, error) {
	return cte.Normalize(q)
}

// DecomposeCTEs splits q's CTEs into standalone queries plus a restoration
// description for reassembling the original.
func DecomposeCTEs(q *ast.SelectStmt) (map[string]*ast.SelectStmt, *cte.RestorationResult, error) {
	return cte.Decompose(q)
}

// ResolveScope returns the tables, CTEs, and columns visible at a cursor
// position in sql.
func ResolveScope(sql string, cursor int, opts scope.Options) (*scope.Info, error) {
	return scope.Resolve(sql, cursor, opts)
}

// ParseToPosition parses possibly-incomplete sql with error recovery up to
// the cursor. It never fails; inspect Result.Success.
func ParseToPosition(sql string, cursor int, opts recover.Options) *recover.Result {
	return recover.ParseToPosition(sql, cursor, opts)
}

// ValidateSchema checks every table and column reference in stmt against
// the resolver, accumulating all semantic errors into one return.
func ValidateSchema(stmt ast.Statement, resolver schema.TableColumnResolver) error {
	return schema.Validate(stmt, resolver)
}

// Walk traverses the AST calling the function for each node.
// If the function returns false, children are not visited.
func Walk(node ast.Node, fn func(ast.Node) bool) {
	visitor.WalkFunc(node, fn)
}

// Rewrite traverses the AST allowing node replacement.
// The function is called in post-order (children first, then parent).
// Return the replacement node or the original to keep it.
func Rewrite(node ast.Node, fn func(ast.Node) ast.Node) ast.Node {
	return visitor.Rewrite(node, fn)
}

// Statement is the interface for all SQL statements.
type Statement = ast.Statement

// Expr is the interface for all expressions.
type Expr = ast.Expr

// Node is the base interface for all AST nodes.
type Node = ast.Node

// Common type aliases for convenience.
type (
	SelectStmt       = ast.SelectStmt
	InsertStmt       = ast.InsertStmt
	UpdateStmt       = ast.UpdateStmt
	DeleteStmt       = ast.DeleteStmt
	MergeStmt        = ast.MergeStmt
	CreateTableStmt  = ast.CreateTableStmt
	AlterTableStmt   = ast.AlterTableStmt
	DropTableStmt    = ast.DropTableStmt
	CreateIndexStmt  = ast.CreateIndexStmt
	DropIndexStmt    = ast.DropIndexStmt
	TruncateStmt     = ast.TruncateStmt
	ExplainStmt      = ast.ExplainStmt
	ColName          = ast.ColName
	TableName        = ast.TableName
	Literal          = ast.Literal
	BinaryExpr       = ast.BinaryExpr
	UnaryExpr        = ast.UnaryExpr
	FuncExpr         = ast.FuncExpr
	CaseExpr         = ast.CaseExpr
	CastExpr         = ast.CastExpr
	Subquery         = ast.Subquery
	JoinExpr         = ast.JoinExpr
	AliasedExpr      = ast.AliasedExpr
	AliasedTableExpr = ast.AliasedTableExpr
	StarExpr         = ast.StarExpr
	ParenExpr        = ast.ParenExpr
	InExpr           = ast.InExpr
	BetweenExpr      = ast.BetweenExpr
	LikeExpr         = ast.LikeExpr
	IsExpr           = ast.IsExpr
	ExistsExpr       = ast.ExistsExpr
	OrderByExpr      = ast.OrderByExpr
	Limit            = ast.Limit
	WithClause       = ast.WithClause
	CTE              = ast.CTE
)

// Join types
const (
	JoinInner = ast.JoinInner
	JoinLeft  = ast.JoinLeft
	JoinRight = ast.JoinRight
	JoinFull  = ast.JoinFull
	JoinCross = ast.JoinCross
)

// Literal types
const (
	LiteralNull   = ast.LiteralNull
	LiteralInt    = ast.LiteralInt
	LiteralFloat  = ast.LiteralFloat
	LiteralString = ast.LiteralString
	LiteralBool   = ast.LiteralBool
)
