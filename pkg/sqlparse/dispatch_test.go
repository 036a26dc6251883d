package sqlparse

import (
	"testing"

	"github.com/blockql/blockql/pkg/database"
	"github.com/blockql/blockql/pkg/dberr"
	"github.com/blockql/blockql/pkg/engineconfig"
)

func newTestEngine(t *testing.T) *database.Engine {
	t.Helper()
	cfg := engineconfig.Default()
	cfg.StorageDir = t.TempDir()
	return database.NewEngine(cfg)
}

func run(t *testing.T, engine *database.Engine, sql string) (*dberr.Status, int) {
	t.Helper()
	stmt, err := Parse(sql)
	if err != nil {
		t.Fatalf("Parse(%q): %v", sql, err)
	}
	status, rows := Dispatch(engine, stmt)
	if !dberr.IsOK(status) {
		t.Fatalf("Dispatch(%q): %v", sql, status)
	}
	return status, len(rows)
}

func TestDispatchEndToEnd(t *testing.T) {
	engine := newTestEngine(t)
	run(t, engine, "CREATE DATABASE shop")
	run(t, engine, "USE shop")
	run(t, engine, "CREATE TABLE people (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR NOT NULL)")
	run(t, engine, `INSERT INTO people (name) VALUES ('alice')`)
	run(t, engine, `INSERT INTO people (name) VALUES ('bob')`)

	_, n := run(t, engine, "SELECT * FROM people")
	if n != 2 {
		t.Fatalf("got %d rows, want 2", n)
	}

	_, n = run(t, engine, "SELECT * FROM people WHERE name = 'bob'")
	if n != 1 {
		t.Fatalf("got %d rows, want 1", n)
	}

	status, _ := run(t, engine, "UPDATE people SET name = 'robert' WHERE name = 'bob'")
	if status.Value != 1 {
		t.Fatalf("Update affected %d rows, want 1", status.Value)
	}

	status, _ = run(t, engine, "DELETE FROM people WHERE name = 'robert'")
	if status.Value != 1 {
		t.Fatalf("Delete removed %d rows, want 1", status.Value)
	}

	_, n = run(t, engine, "SHOW TABLES")
	if n != 1 {
		t.Fatalf("got %d tables, want 1", n)
	}
}

func TestDispatchUnsupportedJoinKindIsNotImplemented(t *testing.T) {
	engine := newTestEngine(t)
	run(t, engine, "CREATE DATABASE shop")
	run(t, engine, "USE shop")
	run(t, engine, "CREATE TABLE a (id INT PRIMARY KEY)")
	run(t, engine, "CREATE TABLE b (id INT PRIMARY KEY)")

	stmt, err := Parse("SELECT * FROM a INNER JOIN b ON id = id")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	status, _ := Dispatch(engine, stmt)
	if status.Kind != dberr.NotImplemented {
		t.Fatalf("got %v, want NotImplemented", status.Kind)
	}
}

func TestDispatchNoDatabaseSelected(t *testing.T) {
	engine := newTestEngine(t)
	stmt, err := Parse("SHOW TABLES")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	status, _ := Dispatch(engine, stmt)
	if status.Kind != dberr.NoDatabaseSelected {
		t.Fatalf("got %v, want NoDatabaseSelected", status.Kind)
	}
}
