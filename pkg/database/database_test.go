package database

import (
	"testing"

	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/engineconfig"
	"github.com/blockql/blockql/pkg/filter"
	"github.com/blockql/blockql/pkg/schema"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := engineconfig.Default()
	cfg.StorageDir = t.TempDir()
	return NewEngine(cfg)
}

func mustUse(t *testing.T, e *Engine, name string) *Database {
	t.Helper()
	if err := e.UseDatabase(name); err != nil {
		t.Fatalf("UseDatabase: %v", err)
	}
	db, err := e.Current()
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	return db
}

func peopleAttrs() []schema.Attribute {
	return []schema.Attribute{
		{Name: "id", Type: dbtype.KindInt, PrimaryKey: true, AutoIncrement: true},
		{Name: "name", Type: dbtype.KindText, Nullable: true},
		{Name: "age", Type: dbtype.KindInt, Nullable: true},
	}
}

func TestCreateTableInsertSelect(t *testing.T) {
	e := newTestEngine(t)
	db := mustUse(t, e, "test")

	if err := db.CreateTable("people", peopleAttrs()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}

	if _, err := db.Insert("people", []string{"name", "age"}, []dbtype.Value{dbtype.Text("alice"), dbtype.Int(30)}); err != nil {
		t.Fatalf("Insert alice: %v", err)
	}
	if _, err := db.Insert("people", []string{"name", "age"}, []dbtype.Value{dbtype.Text("bob"), dbtype.Int(25)}); err != nil {
		t.Fatalf("Insert bob: %v", err)
	}

	rows, err := db.Select(SelectRequest{Table: "people", Fields: []string{"*"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}

	var sawAlice, sawBob bool
	for _, r := range rows {
		switch r.Get("name").S {
		case "alice":
			sawAlice = true
			if r.Get("id").I != 1 {
				t.Fatalf("alice's auto-increment id = %d, want 1", r.Get("id").I)
			}
		case "bob":
			sawBob = true
			if r.Get("id").I != 2 {
				t.Fatalf("bob's auto-increment id = %d, want 2", r.Get("id").I)
			}
		}
	}
	if !sawAlice || !sawBob {
		t.Fatalf("missing expected rows: alice=%v bob=%v", sawAlice, sawBob)
	}
}

func TestInsertFillsOmittedColumnFromDefault(t *testing.T) {
	e := newTestEngine(t)
	db := mustUse(t, e, "test")
	attrs := []schema.Attribute{
		{Name: "id", Type: dbtype.KindInt, PrimaryKey: true, AutoIncrement: true},
		{Name: "status", Type: dbtype.KindText, Size: 10, Nullable: true, HasDefault: true, Default: dbtype.Text("active")},
	}
	if err := db.CreateTable("accounts", attrs); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := db.Insert("accounts", []string{}, []dbtype.Value{}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	rows, err := db.Select(SelectRequest{Table: "accounts", Fields: []string{"*"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 1 || rows[0].Get("status").S != "active" {
		t.Fatalf("expected default-filled status, got %+v", rows)
	}
}

func TestSelectWithWhereAndOrderBy(t *testing.T) {
	e := newTestEngine(t)
	db := mustUse(t, e, "test")
	if err := db.CreateTable("people", peopleAttrs()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	for _, p := range []struct {
		name string
		age  int64
	}{{"alice", 30}, {"bob", 25}, {"carol", 40}} {
		if _, err := db.Insert("people", []string{"name", "age"}, []dbtype.Value{dbtype.Text(p.name), dbtype.Int(p.age)}); err != nil {
			t.Fatalf("Insert %s: %v", p.name, err)
		}
	}

	rows, err := db.Select(SelectRequest{
		Table:  "people",
		Fields: []string{"*"},
		Where: filter.Filters{
			Expressions: []filter.Expression{{LHS: filter.Col("age"), Op: filter.GreaterOrEqual, RHS: filter.Lit(dbtype.Int(30))}},
		},
		HasWhere: true,
		OrderBy:  []OrderKey{{Column: "age", Desc: true}},
	})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].Get("name").S != "carol" || rows[1].Get("name").S != "alice" {
		t.Fatalf("unexpected order: %v then %v", rows[0].Get("name").S, rows[1].Get("name").S)
	}
}

func TestUpdateAndDelete(t *testing.T) {
	e := newTestEngine(t)
	db := mustUse(t, e, "test")
	if err := db.CreateTable("people", peopleAttrs()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := db.Insert("people", []string{"name", "age"}, []dbtype.Value{dbtype.Text("alice"), dbtype.Int(30)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	n, err := db.Update("people",
		[]SetClause{{Column: "age", Value: filter.Lit(dbtype.Int(31))}},
		filter.Filters{Expressions: []filter.Expression{{LHS: filter.Col("name"), Op: filter.Equal, RHS: filter.Lit(dbtype.Text("alice"))}}},
		true)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if n != 1 {
		t.Fatalf("Update affected %d rows, want 1", n)
	}

	rows, err := db.Select(SelectRequest{Table: "people", Fields: []string{"*"}})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if rows[0].Get("age").I != 31 {
		t.Fatalf("age after update = %d, want 31", rows[0].Get("age").I)
	}

	deleted, err := db.Delete("people", filter.Filters{}, false)
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("Delete removed %d rows, want 1", deleted)
	}
	rows, err = db.Select(SelectRequest{Table: "people", Fields: []string{"*"}})
	if err != nil {
		t.Fatalf("Select after delete: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("expected no rows after delete, got %d", len(rows))
	}
}

func TestLeftJoin(t *testing.T) {
	e := newTestEngine(t)
	db := mustUse(t, e, "test")
	if err := db.CreateTable("people", peopleAttrs()); err != nil {
		t.Fatalf("CreateTable people: %v", err)
	}
	if err := db.CreateTable("pets", []schema.Attribute{
		{Name: "pet_id", Type: dbtype.KindInt, PrimaryKey: true, AutoIncrement: true},
		{Name: "owner", Type: dbtype.KindText, Nullable: true},
	}); err != nil {
		t.Fatalf("CreateTable pets: %v", err)
	}

	if _, err := db.Insert("people", []string{"name", "age"}, []dbtype.Value{dbtype.Text("alice"), dbtype.Int(30)}); err != nil {
		t.Fatalf("Insert alice: %v", err)
	}
	if _, err := db.Insert("people", []string{"name", "age"}, []dbtype.Value{dbtype.Text("bob"), dbtype.Int(25)}); err != nil {
		t.Fatalf("Insert bob: %v", err)
	}
	if _, err := db.Insert("pets", []string{"owner"}, []dbtype.Value{dbtype.Text("alice")}); err != nil {
		t.Fatalf("Insert pet: %v", err)
	}

	rows, err := db.Select(SelectRequest{
		Table:  "people",
		Fields: []string{"*"},
		Joins: []JoinClause{{
			Kind:  JoinLeft,
			Table: "pets",
			On: filter.Filters{Expressions: []filter.Expression{
				{LHS: filter.Col("name"), Op: filter.Equal, RHS: filter.Col("owner")},
			}},
		}},
	})
	if err != nil {
		t.Fatalf("Select with join: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	var bobHasPet, aliceHasPet bool
	for _, r := range rows {
		if r.Get("name").S == "alice" && !r.Get("pet_id").IsNone() {
			aliceHasPet = true
		}
		if r.Get("name").S == "bob" && r.Get("pet_id").IsNone() {
			bobHasPet = true
		}
	}
	if !aliceHasPet || !bobHasPet {
		t.Fatalf("join result missing expected rows: aliceHasPet=%v bobNoPet=%v", aliceHasPet, bobHasPet)
	}
}

func TestCloseAndReopenPersists(t *testing.T) {
	e := newTestEngine(t)
	db := mustUse(t, e, "test")
	if err := db.CreateTable("people", peopleAttrs()); err != nil {
		t.Fatalf("CreateTable: %v", err)
	}
	if _, err := db.Insert("people", []string{"name", "age"}, []dbtype.Value{dbtype.Text("alice"), dbtype.Int(30)}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db2 := mustUse(t, e, "test")
	rows, err := db2.Select(SelectRequest{Table: "people", Fields: []string{"*"}})
	if err != nil {
		t.Fatalf("Select after reopen: %v", err)
	}
	if len(rows) != 1 || rows[0].Get("name").S != "alice" {
		t.Fatalf("row did not persist across reopen: %v", rows)
	}
}
