// Package sqlparse turns a token stream into a Statement and dispatches it
// against an open database. Statement is a single tagged-variant struct
// (the original engine's polymorphic AST hierarchy collapsed into the Go
// idiom named in the redesign notes this engine follows) rather than an
// interface hierarchy, since every statement kind here is a flat bag of
// optional fields with no recursive structure.
package sqlparse

import (
	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/filter"
)

// Kind discriminates which statement a Statement value represents.
type Kind int

const (
	CreateDatabase Kind = iota
	DropDatabase
	UseDatabase
	ShowDatabases
	DumpDatabase
	CreateTable
	DropTable
	Describe
	ShowTables
	ShowIndexes
	Insert
	Select
	Update
	Delete
)

// ColumnDef describes one column in a CREATE TABLE statement.
type ColumnDef struct {
	Name          string
	Type          dbtype.Kind
	Size          int
	PrimaryKey    bool
	AutoIncrement bool
	Nullable      bool
	HasDefault    bool
	Default       dbtype.Value
}

// JoinKind names which join a SELECT's JOIN clause requested.
type JoinKind int

const (
	JoinLeft JoinKind = iota
	JoinRight
	JoinInner
	JoinCross
	JoinFull
)

// JoinClause is one SELECT JOIN.
type JoinClause struct {
	Kind  JoinKind
	Table string
	On    filter.Filters
}

// OrderKey is one ORDER BY column.
type OrderKey struct {
	Column string
	Desc   bool
}

// SetClause is one UPDATE ... SET column assignment.
type SetClause struct {
	Column string
	Value  filter.Operand
}

// Statement is every SQL surface form the engine accepts, as one flat
// struct; only the fields relevant to Kind are populated.
type Statement struct {
	Kind Kind

	// Database-level
	Name string // CREATE/DROP/USE DATABASE target

	// Table-level
	Table   string
	Columns []ColumnDef // CREATE TABLE

	// SHOW INDEX col[, col...] FROM table: the named columns (unused beyond
	// parsing, matching showIndexFromTable's own field-list parameter).
	IndexColumns []string

	// SELECT
	Fields   []string // "*" entry means all columns
	Joins    []JoinClause
	OrderBy  []OrderKey
	Limit    int
	HasLimit bool

	// WHERE, shared by SELECT/UPDATE/DELETE
	Where    filter.Filters
	HasWhere bool

	// INSERT
	InsertColumns []string
	InsertValues  []dbtype.Value

	// UPDATE
	SetClauses []SetClause
}
