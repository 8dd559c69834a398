package visitor

import "github.com/sqlweave/sqlweave/ast"

// VisitedSet tracks nodes by identity so collectors can tolerate ASTs a
// transformer has deliberately spliced into a cycle. Zero value is ready
// to use.
type VisitedSet struct {
	seen map[ast.Node]struct{}
}

// Enter records node and reports whether it was seen before. A nil node is
// always "seen" so callers can guard and skip in one test.
func (v *VisitedSet) Enter(node ast.Node) bool {
	if node == nil {
		return true
	}
	if v.seen == nil {
		v.seen = make(map[ast.Node]struct{})
	}
	if _, ok := v.seen[node]; ok {
		return true
	}
	v.seen[node] = struct{}{}
	return false
}

// Len returns the number of distinct nodes entered.
func (v *VisitedSet) Len() int {
	return len(v.seen)
}
