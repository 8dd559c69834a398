// Package colref collects column references from an AST along with the
// clause each reference appears in, for use by scope validation.
package colref

import (
	"github.com/sqlweave/sqlweave/ast"
)

// Clause identifies which part of a statement a column reference came from.
type Clause int

const (
	ClauseSelect Clause = iota
	ClauseWhere
	ClauseGroupBy
	ClauseHaving
	ClauseOrderBy
	ClauseOn
	ClauseSet
	ClauseOther
)

func (c Clause) String() string {
	switch c {
	case ClauseSelect:
		return "SELECT"
	case ClauseWhere:
		return "WHERE"
	case ClauseGroupBy:
		return "GROUP BY"
	case ClauseHaving:
		return "HAVING"
	case ClauseOrderBy:
		return "ORDER BY"
	case ClauseOn:
		return "ON"
	case ClauseSet:
		return "SET"
	default:
		return "OTHER"
	}
}

// Ref is one column reference together with its enclosing clause.
type Ref struct {
	Col    *ast.ColName
	Clause Clause
}

// Collect returns every column reference in stmt, tagged by clause. The
// top-level clauses get explicit tags; everything else (function args,
// CASE branches reached through those clauses, etc.) is walked under
// whichever clause it's nested in.
func Collect(stmt ast.Node) []Ref {
	var refs []Ref
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		for _, col := range s.Columns {
			collectSelectExpr(col, ClauseSelect, &refs)
		}
		if s.Where != nil {
			collectExpr(s.Where, ClauseWhere, &refs)
		}
		for _, g := range s.GroupBy {
			collectExpr(g, ClauseGroupBy, &refs)
		}
		if s.Having != nil {
			collectExpr(s.Having, ClauseHaving, &refs)
		}
		for _, ob := range s.OrderBy {
			collectExpr(ob.Expr, ClauseOrderBy, &refs)
		}
		collectFromOn(s.From, &refs)
	case *ast.UpdateStmt:
		for _, ue := range s.Set {
			collectExpr(ue.Column, ClauseSet, &refs)
			collectExpr(ue.Expr, ClauseSet, &refs)
		}
		if s.Where != nil {
			collectExpr(s.Where, ClauseWhere, &refs)
		}
	case *ast.DeleteStmt:
		if s.Where != nil {
			collectExpr(s.Where, ClauseWhere, &refs)
		}
	}
	return refs
}

func collectFromOn(te ast.TableExpr, refs *[]Ref) {
	switch t := te.(type) {
	case *ast.JoinExpr:
		collectFromOn(t.Left, refs)
		collectFromOn(t.Right, refs)
		if t.On != nil {
			collectExpr(t.On, ClauseOn, refs)
		}
	case *ast.AliasedTableExpr:
		collectFromOn(t.Expr, refs)
	case *ast.ParenTableExpr:
		collectFromOn(t.Expr, refs)
	}
}

func collectSelectExpr(se ast.SelectExpr, clause Clause, refs *[]Ref) {
	if ae, ok := se.(*ast.AliasedExpr); ok {
		collectExpr(ae.Expr, clause, refs)
	}
}

func collectExpr(e ast.Expr, clause Clause, refs *[]Ref) {
	if e == nil {
		return
	}
	switch ex := e.(type) {
	case *ast.ColName:
		*refs = append(*refs, Ref{Col: ex, Clause: clause})
	case *ast.BinaryExpr:
		collectExpr(ex.Left, clause, refs)
		collectExpr(ex.Right, clause, refs)
	case *ast.UnaryExpr:
		collectExpr(ex.Operand, clause, refs)
	case *ast.ParenExpr:
		collectExpr(ex.Expr, clause, refs)
	case *ast.FuncExpr:
		for _, a := range ex.Args {
			collectExpr(a, clause, refs)
		}
	case *ast.CaseExpr:
		if ex.Operand != nil {
			collectExpr(ex.Operand, clause, refs)
		}
		for _, w := range ex.Whens {
			collectExpr(w.Cond, clause, refs)
			collectExpr(w.Result, clause, refs)
		}
		if ex.Else != nil {
			collectExpr(ex.Else, clause, refs)
		}
	case *ast.InExpr:
		collectExpr(ex.Expr, clause, refs)
		for _, v := range ex.Values {
			collectExpr(v, clause, refs)
		}
	case *ast.BetweenExpr:
		collectExpr(ex.Expr, clause, refs)
		collectExpr(ex.Low, clause, refs)
		collectExpr(ex.High, clause, refs)
	case *ast.LikeExpr:
		collectExpr(ex.Expr, clause, refs)
		collectExpr(ex.Pattern, clause, refs)
	case *ast.IsExpr:
		collectExpr(ex.Expr, clause, refs)
		if ex.Other != nil {
			collectExpr(ex.Other, clause, refs)
		}
	case *ast.CastExpr:
		collectExpr(ex.Expr, clause, refs)
	}
}
