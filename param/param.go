// Package param collects parameters from an AST, assigns formatter-facing
// indices, and checks named-parameter consistency.
package param

import (
	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/errs"
	"github.com/sqlweave/sqlweave/visitor"
)

// Param is one collected occurrence of a parameter, in first-visit order.
type Param struct {
	Node  *ast.Param
	Index int // 1-based, assigned by Collect in visit order
}

// Collect walks stmt and returns every ast.Param in visit order, with Index
// assigned 1..n regardless of the parameter's own declared Index/Name —
// callers needing the declared positional/named identity read Node directly.
func Collect(stmt ast.Node) []Param {
	var params []Param
	visitor.Inspect(stmt, func(n ast.Node) bool {
		if p, ok := n.(*ast.Param); ok {
			params = append(params, Param{Node: p, Index: len(params) + 1})
		}
		return true
	})
	return params
}

// CheckConsistency verifies that every named parameter is used with a
// single value across the statement. It cannot inspect bound values on its
// own — callers pass the value each occurrence resolves to via valueOf,
// keyed by the parameter's declared name.
func CheckConsistency(params []Param, valueOf func(name string) (string, bool)) error {
	seen := map[string]string{}
	var errList errs.List
	for _, p := range params {
		if (p.Node.Type != ast.ParamColon && p.Node.Type != ast.ParamAt) || p.Node.Name == "" {
			continue
		}
		val, ok := valueOf(p.Node.Name)
		if !ok {
			continue
		}
		if prev, ok := seen[p.Node.Name]; ok {
			if prev != val {
				errList = append(errList, errs.NewInconsistentParameterValue(p.Node.Name))
			}
			continue
		}
		seen[p.Node.Name] = val
	}
	return errList.Err()
}
