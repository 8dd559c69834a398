package param

import (
	"testing"

	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/parser"
)

func parse(t *testing.T, sql string) ast.Statement {
	t.Helper()
	p := parser.New(sql)
	stmt, err := p.Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	return stmt
}

func TestCollectOrderAndIndices(t *testing.T) {
	stmt := parse(t, "select * from t where a = :first and b = ? and c = $3")
	params := Collect(stmt)
	if len(params) != 3 {
		t.Fatalf("expected 3 params, got %d", len(params))
	}
	for i, p := range params {
		if p.Index != i+1 {
			t.Errorf("param %d: expected index %d, got %d", i, i+1, p.Index)
		}
	}
	if params[0].Node.Name != "first" {
		t.Errorf("expected first named param, got %+v", params[0].Node)
	}
	if params[2].Node.Index != 3 {
		t.Errorf("declared positional index must be preserved on the node, got %+v", params[2].Node)
	}
}

func TestCollectNested(t *testing.T) {
	stmt := parse(t, "select (select x from u where u.id = :a) from t where b in (select c from v where d = :b)")
	params := Collect(stmt)
	if len(params) != 2 {
		t.Fatalf("expected params from nested subqueries, got %d", len(params))
	}
}

func TestCollectNone(t *testing.T) {
	if params := Collect(parse(t, "select 1")); len(params) != 0 {
		t.Fatalf("expected no params, got %d", len(params))
	}
}

func TestCheckConsistency(t *testing.T) {
	stmt := parse(t, "select * from t where a = :x or b = :x or c = :y")
	params := Collect(stmt)

	// Same name, same value: fine.
	values := map[string]string{"x": "1", "y": "2"}
	err := CheckConsistency(params, func(name string) (string, bool) {
		v, ok := values[name]
		return v, ok
	})
	if err != nil {
		t.Fatalf("consistent values: %v", err)
	}

	// Same name, different value per occurrence: error.
	n := 0
	err = CheckConsistency(params, func(name string) (string, bool) {
		if name != "x" {
			return "2", true
		}
		n++
		if n > 1 {
			return "other", true
		}
		return "1", true
	})
	if err == nil {
		t.Fatal("expected InconsistentParameterValue")
	}
}
