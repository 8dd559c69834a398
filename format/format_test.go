package format

import (
	"strings"
	"testing"

	"github.com/sqlweave/sqlweave/ast"
	"github.com/sqlweave/sqlweave/parser"
)

func parseStmt(t *testing.T, sql string) ast.Statement {
	t.Helper()
	p := parser.New(sql)
	stmt, err := p.Parse()
	if err != nil {
		t.Fatalf("parse %q: %v", sql, err)
	}
	return stmt
}

func TestPresets(t *testing.T) {
	want := []string{"bigquery", "duckdb", "mysql", "oracle", "postgres", "redshift", "snowflake", "sqlite", "sqlserver"}
	got := Presets()
	if len(got) != len(want) {
		t.Fatalf("expected %d presets, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("preset list mismatch: want %v, got %v", want, got)
		}
	}
	for _, name := range want {
		if _, ok := Preset(name); !ok {
			t.Errorf("Preset(%q) not found", name)
		}
	}
	if _, ok := Preset("dbase"); ok {
		t.Error("unknown preset should not resolve")
	}
}

func TestFormatPostgresNamedParams(t *testing.T) {
	stmt := parseStmt(t, "select id, name from users where id = :id")
	d, _ := Preset("postgres")
	sql, params, err := Format(stmt, Options{
		Dialect: d.WithParamStyle(ParamNamed),
		Values:  map[string]any{"id": 42},
	})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := `select "id", "name" from "users" where "id" = :id`
	if sql != want {
		t.Fatalf("sql mismatch:\nwant: %s\n got: %s", want, sql)
	}
	if params.Named == nil || params.Named["id"] != 42 {
		t.Fatalf("expected params {id: 42}, got %#v", params)
	}
}

func TestFormatIndexedParams(t *testing.T) {
	stmt := parseStmt(t, "select * from t where a = ? and b = ? and c = ?")
	d, _ := Preset("postgres")
	sql, params, err := Format(stmt, Options{Uppercase: true, Dialect: d,
		Values: map[string]any{"1": "x", "2": "y", "3": "z"}})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	// Indices must be 1..n, gap-free, in left-to-right output order.
	for i, marker := range []string{"$1", "$2", "$3"} {
		idx := strings.Index(sql, marker)
		if idx < 0 {
			t.Fatalf("missing %s in %q", marker, sql)
		}
		if i > 0 {
			prev := strings.Index(sql, "$"+string(rune('0'+i)))
			if prev > idx {
				t.Fatalf("parameter order violated in %q", sql)
			}
		}
	}
	if len(params.Ordered) != 3 || params.Ordered[0] != "x" || params.Ordered[2] != "z" {
		t.Fatalf("expected ordered params [x y z], got %#v", params.Ordered)
	}
}

func TestFormatAnonymousParams(t *testing.T) {
	stmt := parseStmt(t, "select * from t where a = $1 and b = $2")
	d, _ := Preset("sqlite")
	sql, _, err := Format(stmt, Options{Uppercase: true, Dialect: d})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.Count(sql, "?") != 2 || strings.Contains(sql, "$") {
		t.Fatalf("expected two anonymous markers, got %q", sql)
	}
}

func TestInconsistentParameterValue(t *testing.T) {
	stmt := parseStmt(t, "select * from t where a = :x or b = :x")
	d, _ := Preset("oracle")
	// Binding by first-visit ordinal gives the same name two values.
	_, _, err := Format(stmt, Options{Dialect: d,
		Values: map[string]any{"1": 1, "2": 2}})
	if err == nil {
		t.Fatal("expected InconsistentParameterValue error")
	}

	// The same value twice is fine and merges.
	_, params, err := Format(stmt, Options{Dialect: d,
		Values: map[string]any{"x": 7}})
	if err != nil {
		t.Fatalf("consistent values must merge: %v", err)
	}
	if params.Named["x"] != 7 {
		t.Fatalf("expected merged {x: 7}, got %#v", params.Named)
	}
}

func TestMySQLIdentifierEscape(t *testing.T) {
	stmt := parseStmt(t, "select `id` from `users`")
	d, _ := Preset("mysql")
	sql, _, err := Format(stmt, Options{Dialect: d})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "select `id` from `users`"
	if sql != want {
		t.Fatalf("want %q, got %q", want, sql)
	}
}

func TestSQLServerIdentifierEscape(t *testing.T) {
	stmt := parseStmt(t, "select id from users")
	d, _ := Preset("sqlserver")
	sql, _, err := Format(stmt, Options{Dialect: d})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	want := "select [id] from [users]"
	if sql != want {
		t.Fatalf("want %q, got %q", want, sql)
	}
}

func TestCubeAndRollup(t *testing.T) {
	tests := []struct {
		sql  string
		want string
	}{
		{"select a from t group by cube(a, b)", "cube(a, b)"},
		{"select a from t group by rollup(a, b)", "rollup(a, b)"},
		{"select a from t group by grouping sets((a), (a, b))", "grouping sets((a), (a, b))"},
	}
	for _, tt := range tests {
		stmt := parseStmt(t, tt.sql)
		sql, _, err := Format(stmt, Options{Uppercase: false})
		if err != nil {
			t.Fatalf("Format(%q): %v", tt.sql, err)
		}
		if !strings.Contains(sql, tt.want) {
			t.Errorf("expected %q in %q", tt.want, sql)
		}
	}
}

func TestStarNeverQuoted(t *testing.T) {
	stmt := parseStmt(t, "select u.* from users u")
	d, _ := Preset("postgres")
	sql, _, err := Format(stmt, Options{Dialect: d})
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(sql, `"u".*`) && !strings.Contains(sql, "u.*") {
		t.Fatalf("star placeholder must stay bare, got %q", sql)
	}
	if strings.Contains(sql, `"*"`) {
		t.Fatalf("star placeholder was quoted: %q", sql)
	}
}

func TestEmitProducesContainerTree(t *testing.T) {
	stmt := parseStmt(t, "select id from users where id in (select user_id from orders)")
	tokens := Emit(stmt, DefaultOptions)
	if len(tokens) != 1 || tokens[0].Type != TokenContainer || tokens[0].Container != "select" {
		t.Fatalf("expected a single select container at the root, got %+v", tokens)
	}
	// The IN subquery must appear as a nested container.
	nested := 0
	var count func(toks []PrintToken)
	count = func(toks []PrintToken) {
		for _, tok := range toks {
			if tok.Type == TokenContainer {
				nested++
				count(tok.Inner)
			}
		}
	}
	count(tokens[0].Inner)
	if nested == 0 {
		t.Fatal("expected a nested container for the subquery")
	}
}

func TestCommentReemission(t *testing.T) {
	stmt := parseStmt(t, "-- fetch active users\nselect id from users")
	sql := String(stmt)
	if !strings.HasPrefix(sql, "-- fetch active users\n") {
		t.Fatalf("expected leading comment re-emitted, got %q", sql)
	}
	if !strings.Contains(sql, "SELECT") {
		t.Fatalf("statement body missing: %q", sql)
	}

	stmt2 := parseStmt(t, "/* audit */ select id from users")
	sql2 := String(stmt2)
	if !strings.HasPrefix(sql2, "/* audit */ ") {
		t.Fatalf("expected block comment re-emitted with trailing space, got %q", sql2)
	}
}

func TestPlainPreservesParams(t *testing.T) {
	for _, sql := range []string{
		"SELECT * FROM t WHERE a = ?",
		"SELECT * FROM t WHERE a = $1",
		"SELECT * FROM t WHERE a = :name",
		"SELECT * FROM t WHERE a = @name",
	} {
		stmt := parseStmt(t, sql)
		if got := String(stmt); got != sql {
			t.Errorf("plain round-trip changed params:\nwant %q\n got %q", sql, got)
		}
	}
}
