package sqlparse

import (
	"testing"

	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/filter"
)

func TestParseCreateTable(t *testing.T) {
	stmt, err := Parse("CREATE TABLE people (id INT PRIMARY KEY AUTO_INCREMENT, name VARCHAR NOT NULL)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Kind != CreateTable || stmt.Table != "people" {
		t.Fatalf("unexpected statement: %+v", stmt)
	}
	if len(stmt.Columns) != 2 {
		t.Fatalf("got %d columns, want 2", len(stmt.Columns))
	}
	if !stmt.Columns[0].PrimaryKey || !stmt.Columns[0].AutoIncrement {
		t.Fatalf("unexpected id column: %+v", stmt.Columns[0])
	}
	if stmt.Columns[1].Nullable {
		t.Fatalf("expected NOT NULL column to have Nullable=false")
	}
}

func TestParseCreateTableWithSizeAndDefault(t *testing.T) {
	stmt, err := Parse("CREATE TABLE people (id INT PRIMARY KEY, first_name VARCHAR(50) NOT NULL, status VARCHAR(10) DEFAULT 'active')")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Columns) != 3 {
		t.Fatalf("got %d columns, want 3", len(stmt.Columns))
	}
	if stmt.Columns[1].Size != 50 {
		t.Fatalf("unexpected first_name size: %+v", stmt.Columns[1])
	}
	status := stmt.Columns[2]
	if status.Size != 10 || !status.HasDefault || status.Default != dbtype.Text("active") {
		t.Fatalf("unexpected status column: %+v", status)
	}
}

func TestParseCreateTableTypeAliases(t *testing.T) {
	stmt, err := Parse("CREATE TABLE t (a INTEGER PRIMARY KEY, b DOUBLE, c DECIMAL, d BOOLEAN)")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []dbtype.Kind{dbtype.KindInt, dbtype.KindFloat, dbtype.KindFloat, dbtype.KindBool}
	for i, k := range want {
		if stmt.Columns[i].Type != k {
			t.Fatalf("column %d type = %v, want %v", i, stmt.Columns[i].Type, k)
		}
	}
}

func TestParseShowIndexFromTable(t *testing.T) {
	stmt, err := Parse("SHOW INDEX id, name FROM people")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Kind != ShowIndexes || stmt.Table != "people" {
		t.Fatalf("unexpected statement: %+v", stmt)
	}
	if len(stmt.IndexColumns) != 2 || stmt.IndexColumns[0] != "id" || stmt.IndexColumns[1] != "name" {
		t.Fatalf("unexpected index columns: %v", stmt.IndexColumns)
	}
}

func TestParseShowIndexesStillWorks(t *testing.T) {
	stmt, err := Parse("SHOW INDEXES")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Kind != ShowIndexes || stmt.IndexColumns != nil {
		t.Fatalf("unexpected statement: %+v", stmt)
	}
}

func TestParseRejectsTrailingTokens(t *testing.T) {
	if _, err := Parse("SELECT * FROM people extra garbage"); err == nil {
		t.Fatalf("expected error for trailing tokens")
	}
}

func TestParseInsert(t *testing.T) {
	stmt, err := Parse(`INSERT INTO people (name, age) VALUES ('alice', 30)`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Kind != Insert || stmt.Table != "people" {
		t.Fatalf("unexpected statement: %+v", stmt)
	}
	if len(stmt.InsertColumns) != 2 || stmt.InsertColumns[0] != "name" {
		t.Fatalf("unexpected insert columns: %v", stmt.InsertColumns)
	}
	if stmt.InsertValues[0] != dbtype.Text("alice") || stmt.InsertValues[1] != dbtype.Int(30) {
		t.Fatalf("unexpected insert values: %v", stmt.InsertValues)
	}
}

func TestParseSelectWithWhereOrderLimit(t *testing.T) {
	stmt, err := Parse("SELECT name, age FROM people WHERE age >= 18 AND name != 'bob' ORDER BY age DESC LIMIT 5")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Kind != Select || stmt.Table != "people" {
		t.Fatalf("unexpected statement: %+v", stmt)
	}
	if len(stmt.Fields) != 2 || stmt.Fields[0] != "name" || stmt.Fields[1] != "age" {
		t.Fatalf("unexpected fields: %v", stmt.Fields)
	}
	if !stmt.HasWhere || len(stmt.Where.Expressions) != 2 {
		t.Fatalf("unexpected where clause: %+v", stmt.Where)
	}
	if len(stmt.OrderBy) != 1 || stmt.OrderBy[0].Column != "age" || !stmt.OrderBy[0].Desc {
		t.Fatalf("unexpected order by: %+v", stmt.OrderBy)
	}
	if !stmt.HasLimit || stmt.Limit != 5 {
		t.Fatalf("unexpected limit: hasLimit=%v limit=%d", stmt.HasLimit, stmt.Limit)
	}
}

func TestParseSelectWithJoin(t *testing.T) {
	stmt, err := Parse("SELECT * FROM people LEFT JOIN pets ON name = owner")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Joins) != 1 {
		t.Fatalf("got %d joins, want 1", len(stmt.Joins))
	}
	j := stmt.Joins[0]
	if j.Kind != JoinLeft || j.Table != "pets" {
		t.Fatalf("unexpected join: %+v", j)
	}
	if len(j.On.Expressions) != 1 {
		t.Fatalf("unexpected join condition: %+v", j.On)
	}
}

func TestParseSelectWithBareJoinDefaultsInner(t *testing.T) {
	stmt, err := Parse("SELECT * FROM people JOIN pets ON id = owner_id")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(stmt.Joins) != 1 || stmt.Joins[0].Kind != JoinInner {
		t.Fatalf("expected a bare JOIN to parse as inner: %+v", stmt.Joins)
	}
}

func TestParseUpdate(t *testing.T) {
	stmt, err := Parse(`UPDATE people SET age = 31, name = 'al' WHERE id = 1`)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Kind != Update || len(stmt.SetClauses) != 2 {
		t.Fatalf("unexpected statement: %+v", stmt)
	}
	if !stmt.HasWhere || len(stmt.Where.Expressions) != 1 {
		t.Fatalf("unexpected where clause: %+v", stmt.Where)
	}
}

func TestParseDeleteWithoutWhere(t *testing.T) {
	stmt, err := Parse("DELETE FROM people")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if stmt.Kind != Delete || stmt.HasWhere {
		t.Fatalf("unexpected statement: %+v", stmt)
	}
}

func TestParseMissingANDBetweenExpressionsFails(t *testing.T) {
	if _, err := Parse("SELECT * FROM people WHERE age > 5 name = 'x'"); err == nil {
		t.Fatalf("expected error for two expressions with no connective")
	}
}

func TestParseNotInvertsViaExpression(t *testing.T) {
	stmt, err := Parse("SELECT * FROM people WHERE NOT age > 10")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	e := stmt.Where.Expressions[0]
	if e.NotCount != 1 || e.Op != filter.GreaterThan {
		t.Fatalf("unexpected expression: %+v", e)
	}
}
