package cte

import (
	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/visitor"
)

// RestorationResult describes how to reassemble a decomposed query: the
// root statement (with its WithClause stripped) and the dependency order
// the CTEs must be restored in.
type RestorationResult struct {
	RootName  string              // synthetic name standing in for the original root query
	Order     []string            // CTE names in original declaration order
	Recursive bool                // the original WithClause's RECURSIVE flag
	Columns   map[string][]string // declared column aliases per CTE, if any
}

// Decompose takes a normalized query (WithClause at the root only) and
// returns one standalone *ast.SelectStmt per CTE with a SELECT body, keyed
// by CTE name, plus the root query without its WithClause under the key ""
// (RestorationResult.RootName), and a RestorationResult describing how to
// rebuild the original.
//
// Each standalone statement is a shallow copy of the CTE's own query with
// a WithClause listing just the CTEs it transitively depends on. Only the
// top-level statement is copied: the *ast.CTE entries and every node below
// the statement are shared with q, not cloned, so a change to a shared
// node also changes q.
func Decompose(q *ast.SelectStmt) (map[string]*ast.SelectStmt, *RestorationResult, error) {
	if q.With == nil || len(q.With.CTEs) == 0 {
		return map[string]*ast.SelectStmt{}, &RestorationResult{}, nil
	}

	byName := map[string]*ast.CTE{}
	order := make([]string, 0, len(q.With.CTEs))
	for _, c := range q.With.CTEs {
		byName[normalizeTableName(c.Name)] = c
		order = append(order, c.Name)
	}

	out := make(map[string]*ast.SelectStmt, len(q.With.CTEs))
	for _, c := range q.With.CTEs {
		sel, ok := c.Query.(*ast.SelectStmt)
		if !ok {
			// Non-SELECT CTE bodies (rare dialect extension) can't be
			// decomposed into a standalone SelectStmt; skip.
			continue
		}
		standalone := *sel
		deps := transitiveDeps(sel, byName)
		if len(deps) > 0 {
			standalone.With = &ast.WithClause{Recursive: q.With.Recursive}
			for _, name := range order {
				if deps[normalizeTableName(name)] {
					standalone.With.CTEs = append(standalone.With.CTEs, byName[normalizeTableName(name)])
				}
			}
		}
		out[c.Name] = &standalone
	}

	rootCopy := *q
	rootCopy.With = nil
	out[""] = &rootCopy

	res := &RestorationResult{RootName: "", Order: order, Recursive: q.With.Recursive}
	for _, c := range q.With.CTEs {
		if len(c.Columns) > 0 {
			if res.Columns == nil {
				res.Columns = map[string][]string{}
			}
			res.Columns[c.Name] = c.Columns
		}
	}
	return out, res, nil
}

// Restore reassembles the original query from the pieces Decompose
// produced: it reattaches root's WithClause using result.Order and the
// per-CTE bodies found in pieces.
func Restore(pieces map[string]*ast.SelectStmt, result *RestorationResult) *ast.SelectStmt {
	root, ok := pieces[result.RootName]
	if !ok {
		return nil
	}
	rebuilt := *root
	if len(result.Order) == 0 {
		return &rebuilt
	}
	rebuilt.With = &ast.WithClause{Recursive: result.Recursive}
	for _, name := range result.Order {
		piece, ok := pieces[name]
		if !ok {
			continue
		}
		body := *piece
		body.With = nil // the flat root WithClause carries every CTE already
		rebuilt.With.CTEs = append(rebuilt.With.CTEs, &ast.CTE{
			Name:    name,
			Columns: result.Columns[name],
			Query:   &body,
		})
	}
	return &rebuilt
}

func transitiveDeps(stmt ast.Statement, known map[string]*ast.CTE) map[string]bool {
	deps := map[string]bool{}
	var visit func(s ast.Statement)
	visit = func(s ast.Statement) {
		visitor.Inspect(s, func(n ast.Node) bool {
			tn, ok := n.(*ast.TableName)
			if !ok {
				return true
			}
			key := normalizeTableName(tn.Name())
			if c, ok := known[key]; ok && !deps[key] {
				deps[key] = true
				visit(c.Query)
			}
			return true
		})
	}
	visit(stmt)
	return deps
}
