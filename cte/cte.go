// Package cte normalizes WITH clauses (hoisting every inner WithClause to
// the root query, in dependency order) and decomposes a query's CTEs into
// standalone statements that can be edited in isolation and reassembled.
package cte

import (
	"sort"
	"strings"

	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/errs"
	"github.com/sqlweave/sqlweave/format"
	"github.com/sqlweave/sqlweave/visitor"
)

func normalizeTableName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Normalize hoists every WithClause found anywhere in q to the root,
// in declaration order, deduplicating identical definitions and
// topologically sorting the result by CTE dependency.
func Normalize(q *ast.SelectStmt) (*ast.SelectStmt, error) {
	collected, err := collect(q)
	if err != nil {
		return nil, err
	}
	if len(collected) == 0 {
		return q, nil
	}

	recursive := false
	for _, c := range collected {
		if c.recursive {
			recursive = true
		}
	}

	ordered, err := topoSort(collected, recursive)
	if err != nil {
		return nil, err
	}

	eraseInnerWith(q)

	q.With = &ast.WithClause{Recursive: recursive}
	for _, c := range ordered {
		q.With.CTEs = append(q.With.CTEs, c.cte)
	}
	return q, nil
}

type collectedCTE struct {
	cte       *ast.CTE
	recursive bool // true if declared under a RECURSIVE WithClause
	order     int
}

// collect walks q depth-first, left-to-right, gathering every CTE in
// declaration order and checking name uniqueness as it goes.
func collect(q *ast.SelectStmt) ([]*collectedCTE, error) {
	var out []*collectedCTE
	byName := map[string]*collectedCTE{}

	collectWith := func(with *ast.WithClause) {
		if with == nil {
			return
		}
		for _, c := range with.CTEs {
			key := normalizeTableName(c.Name)
			if existing, ok := byName[key]; ok {
				if format.String(existing.cte.Query) != format.String(c.Query) {
					panic(duplicateCTE{name: c.Name})
				}
				existing.recursive = existing.recursive || with.Recursive
				continue
			}
			entry := &collectedCTE{cte: c, recursive: with.Recursive, order: len(out)}
			byName[key] = entry
			out = append(out, entry)
		}
	}

	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				if d, ok := r.(duplicateCTE); ok {
					err = errs.NewDuplicateCommonTable(d.name)
					return
				}
				panic(r)
			}
		}()
		// Inspect's descent order matches declaration order: a node's WITH
		// entries (and their bodies) are visited before the rest of the
		// query, including subqueries nested anywhere in its clauses.
		visitor.Inspect(q, func(n ast.Node) bool {
			switch s := n.(type) {
			case *ast.SelectStmt:
				collectWith(s.With)
			case *ast.SetOp:
				collectWith(s.With)
			}
			return true
		})
	}()
	if err != nil {
		return nil, err
	}
	return out, nil
}

type duplicateCTE struct{ name string }

// eraseInnerWith clears every WithClause except the root's own (which the
// caller overwrites right after calling this).
func eraseInnerWith(q *ast.SelectStmt) {
	visitor.Inspect(q, func(n ast.Node) bool {
		switch s := n.(type) {
		case *ast.SelectStmt:
			if s != q {
				s.With = nil
			}
		case *ast.SetOp:
			s.With = nil
		}
		return true
	})
}

// topoSort stably orders CTEs so each appears after every CTE it
// references, breaking ties by declaration order. Cycles are permitted
// only when recursive is true.
func topoSort(ctes []*collectedCTE, recursive bool) ([]*collectedCTE, error) {
	names := map[string]*collectedCTE{}
	for _, c := range ctes {
		names[normalizeTableName(c.cte.Name)] = c
	}

	deps := map[string]map[string]bool{}
	for _, c := range ctes {
		key := normalizeTableName(c.cte.Name)
		deps[key] = dependencies(c.cte.Query, names)
	}

	var order []*collectedCTE
	visited := map[string]int{} // 0=unvisited, 1=in-progress, 2=done
	var visit func(c *collectedCTE) error
	visit = func(c *collectedCTE) error {
		key := normalizeTableName(c.cte.Name)
		switch visited[key] {
		case 2:
			return nil
		case 1:
			if recursive {
				return nil
			}
			return errs.NewCyclicCommonTables([]string{c.cte.Name})
		}
		visited[key] = 1
		depNames := make([]string, 0, len(deps[key]))
		for d := range deps[key] {
			depNames = append(depNames, d)
		}
		sort.Slice(depNames, func(i, j int) bool {
			return names[depNames[i]].order < names[depNames[j]].order
		})
		for _, d := range depNames {
			dep, ok := names[d]
			if !ok {
				continue
			}
			if err := visit(dep); err != nil {
				return err
			}
		}
		visited[key] = 2
		order = append(order, c)
		return nil
	}

	sorted := make([]*collectedCTE, len(ctes))
	copy(sorted, ctes)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].order < sorted[j].order })

	for _, c := range sorted {
		if err := visit(c); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// dependencies returns the set of known CTE names (lowercased) that stmt's
// body references as a table source. A visited set guards against ASTs a
// transformer has spliced into a cycle.
func dependencies(stmt ast.Statement, known map[string]*collectedCTE) map[string]bool {
	deps := map[string]bool{}
	var visited visitor.VisitedSet
	visitor.Inspect(stmt, func(n ast.Node) bool {
		if visited.Enter(n) {
			return false
		}
		tn, ok := n.(*ast.TableName)
		if !ok {
			return true
		}
		key := normalizeTableName(tn.Name())
		if _, ok := known[key]; ok {
			deps[key] = true
		}
		return true
	})
	return deps
}
