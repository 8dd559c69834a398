package scope

import (
	"strings"
	"testing"
)

func TestResolveJoinScope(t *testing.T) {
	sql := "select u. from users u join orders o on o.user_id = u.id"
	cursor := len("select u.")

	info, err := Resolve(sql, cursor, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.Fallback {
		t.Fatal("expected a real resolution, got fallback")
	}
	if len(info.AvailableTables) != 2 {
		t.Fatalf("expected 2 tables, got %+v", info.AvailableTables)
	}
	byAlias := map[string]TableRef{}
	for _, ref := range info.AvailableTables {
		byAlias[ref.Alias] = ref
	}
	if byAlias["u"].Name != "users" || byAlias["o"].Name != "orders" {
		t.Fatalf("expected users u and orders o, got %+v", info.AvailableTables)
	}
	if info.TableScope != "u" {
		t.Fatalf("expected table scope u, got %q", info.TableScope)
	}
	if !info.SuggestColumns {
		t.Fatal("expected SuggestColumns after a trailing dot")
	}
}

func TestResolveWithResolver(t *testing.T) {
	sql := "select id from users"
	resolver := func(table string) []string {
		if table == "users" {
			return []string{"id", "name", "created_at"}
		}
		return nil
	}
	info, err := Resolve(sql, len(sql), Options{Resolver: resolver})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(info.VisibleColumns) != 3 {
		t.Fatalf("expected 3 resolved columns, got %+v", info.VisibleColumns)
	}
	for _, col := range info.VisibleColumns {
		if col.Table != "users" {
			t.Errorf("column %q attributed to %q, want users", col.Name, col.Table)
		}
	}
}

func TestResolveWithoutResolverYieldsStar(t *testing.T) {
	info, err := Resolve("select id from users u", 6, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(info.VisibleColumns) != 1 || info.VisibleColumns[0].Name != "*" {
		t.Fatalf("expected the * placeholder, got %+v", info.VisibleColumns)
	}
	if info.VisibleColumns[0].Table != "u" {
		t.Fatalf("placeholder should be attributed to the alias, got %+v", info.VisibleColumns)
	}
}

func TestResolveCTEs(t *testing.T) {
	sql := "with active as (select id, name from users where deleted_at is null) select id from active"
	info, err := Resolve(sql, len(sql), Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(info.AvailableCTEs) != 1 || info.AvailableCTEs[0] != "active" {
		t.Fatalf("expected CTE active, got %v", info.AvailableCTEs)
	}
	if len(info.AvailableTables) != 1 || info.AvailableTables[0].SourceType != SourceCTE {
		t.Fatalf("expected active classified as a CTE source, got %+v", info.AvailableTables)
	}
	names := make([]string, 0, len(info.VisibleColumns))
	for _, c := range info.VisibleColumns {
		names = append(names, c.Name)
	}
	if strings.Join(names, ",") != "id,name" {
		t.Fatalf("expected CTE projection [id name], got %v", names)
	}
}

func TestResolveSubqueryLevel(t *testing.T) {
	sql := "select * from (select id from orders where id = 1) o"
	// Cursor inside the inner query.
	cursor := strings.Index(sql, "orders") + 3

	info, err := Resolve(sql, cursor, Options{})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if info.SubqueryLevel != 1 {
		t.Fatalf("expected subquery level 1, got %d", info.SubqueryLevel)
	}
	if len(info.ParentQueries) != 1 {
		t.Fatalf("expected one parent query, got %d", len(info.ParentQueries))
	}
	if len(info.AvailableTables) != 1 || info.AvailableTables[0].Name != "orders" {
		t.Fatalf("expected inner scope over orders, got %+v", info.AvailableTables)
	}
}

func TestResolveFallback(t *testing.T) {
	info, err := Resolve(")))", 3, Options{})
	if err != nil {
		t.Fatalf("Resolve must not fail: %v", err)
	}
	if !info.Fallback {
		t.Fatal("expected fallback for unparseable input")
	}
	if len(info.AvailableTables) != 0 || len(info.VisibleColumns) != 0 {
		t.Fatalf("fallback scope must be empty, got %+v", info)
	}
}
