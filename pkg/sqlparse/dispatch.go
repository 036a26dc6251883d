package sqlparse

import (
	"fmt"
	"sort"

	"github.com/blockql/blockql/pkg/database"
	"github.com/blockql/blockql/pkg/dberr"
	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/row"
	"github.com/blockql/blockql/pkg/schema"
)

func stringValue(s string) dbtype.Value { return dbtype.Text(s) }
func intValue(i int64) dbtype.Value     { return dbtype.Int(i) }

// Dispatch executes a parsed Statement against engine, returning the
// affected/returned row count and, for SELECT, the resulting rows.
func Dispatch(engine *database.Engine, stmt *Statement) (*dberr.Status, []*row.Row) {
	switch stmt.Kind {
	case CreateDatabase:
		if err := engine.CreateDatabase(stmt.Name); err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(0), nil

	case DropDatabase:
		if err := engine.DropDatabase(stmt.Name); err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(0), nil

	case UseDatabase:
		if err := engine.UseDatabase(stmt.Name); err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(0), nil

	case ShowDatabases:
		names, err := engine.ShowDatabases()
		if err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(int64(len(names))), namesToRows(names, "database")

	case DumpDatabase:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		lines, err := db.Dump()
		if err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(int64(len(lines))), linesToRows(lines)

	case CreateTable:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		attrs := make([]schema.Attribute, len(stmt.Columns))
		for i, c := range stmt.Columns {
			attrs[i] = schema.Attribute{
				Name:          c.Name,
				Type:          c.Type,
				Size:          c.Size,
				PrimaryKey:    c.PrimaryKey,
				AutoIncrement: c.AutoIncrement,
				Nullable:      c.Nullable,
				HasDefault:    c.HasDefault,
				Default:       c.Default,
			}
		}
		if err := db.CreateTable(stmt.Table, attrs); err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(0), nil

	case DropTable:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		if err := db.DropTable(stmt.Table); err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(0), nil

	case Describe:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		e, err := db.Describe(stmt.Table)
		if err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(int64(len(e.Attributes))), describeRows(e)

	case ShowTables:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		names := db.ShowTables()
		return dberr.Ok(int64(len(names))), namesToRows(names, "table")

	case ShowIndexes:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		if stmt.IndexColumns != nil {
			// SHOW INDEX col[, col...] FROM table: report every (key,
			// block) entry of the table's index. The requested column
			// list is parsed but, as in showIndexFromTable, doesn't
			// narrow the result — the engine has only the one PK index.
			entries, err := db.ShowIndexEntries(stmt.Table)
			if err != nil {
				return asStatus(err), nil
			}
			rows := make([]*row.Row, len(entries))
			for i, ent := range entries {
				r := row.New()
				r.Set("key", stringValue(ent.Key))
				r.Set("block", intValue(int64(ent.Block)))
				rows[i] = r
			}
			return dberr.Ok(int64(len(rows))), rows
		}
		tables := []string{stmt.Table}
		if stmt.Table == "" {
			tables = db.ShowTables()
		}
		sort.Strings(tables)
		var rows []*row.Row
		for _, t := range tables {
			size, err := db.ShowIndexes(t)
			if err != nil {
				return asStatus(err), nil
			}
			r := row.New()
			r.Set("table", stringValue(t))
			r.Set("entries", intValue(int64(size)))
			rows = append(rows, r)
		}
		return dberr.Ok(int64(len(rows))), rows

	case Insert:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		var cols []string
		if len(stmt.InsertColumns) > 0 {
			cols = stmt.InsertColumns
		}
		n, err := db.Insert(stmt.Table, cols, stmt.InsertValues)
		if err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(n), nil

	case Select:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		req := database.SelectRequest{
			Table:    stmt.Table,
			Fields:   stmt.Fields,
			Where:    stmt.Where,
			HasWhere: stmt.HasWhere,
			Limit:    stmt.Limit,
			HasLimit: stmt.HasLimit,
		}
		for _, j := range stmt.Joins {
			kind, ok := toDBJoinKind(j.Kind)
			if !ok {
				return dberr.New(dberr.NotImplemented), nil
			}
			req.Joins = append(req.Joins, database.JoinClause{Kind: kind, Table: j.Table, On: j.On})
		}
		for _, o := range stmt.OrderBy {
			req.OrderBy = append(req.OrderBy, database.OrderKey{Column: o.Column, Desc: o.Desc})
		}
		rows, err := db.Select(req)
		if err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(int64(len(rows))), rows

	case Update:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		sets := make([]database.SetClause, len(stmt.SetClauses))
		for i, s := range stmt.SetClauses {
			sets[i] = database.SetClause{Column: s.Column, Value: s.Value}
		}
		n, err := db.Update(stmt.Table, sets, stmt.Where, stmt.HasWhere)
		if err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(n), nil

	case Delete:
		db, err := engine.Current()
		if err != nil {
			return asStatus(err), nil
		}
		n, err := db.Delete(stmt.Table, stmt.Where, stmt.HasWhere)
		if err != nil {
			return asStatus(err), nil
		}
		return dberr.Ok(n), nil

	default:
		return dberr.New(dberr.NotImplemented), nil
	}
}

func toDBJoinKind(k JoinKind) (database.JoinKind, bool) {
	switch k {
	case JoinLeft:
		return database.JoinLeft, true
	case JoinRight:
		return database.JoinRight, true
	default:
		return 0, false
	}
}

func asStatus(err error) *dberr.Status {
	if s, ok := err.(*dberr.Status); ok {
		return s
	}
	return dberr.Wrap(dberr.IOError, err)
}

func namesToRows(names []string, field string) []*row.Row {
	rows := make([]*row.Row, len(names))
	for i, n := range names {
		r := row.New()
		r.Set(field, stringValue(n))
		rows[i] = r
	}
	return rows
}

func linesToRows(lines []string) []*row.Row {
	rows := make([]*row.Row, len(lines))
	for i, l := range lines {
		r := row.New()
		r.Set("line", stringValue(l))
		rows[i] = r
	}
	return rows
}

func describeRows(e *schema.Entity) []*row.Row {
	rows := make([]*row.Row, len(e.Attributes))
	for i, a := range e.Attributes {
		r := row.New()
		r.Set("name", stringValue(a.Name))
		r.Set("type", stringValue(a.Type.String()))
		r.Set("primary_key", stringValue(fmt.Sprintf("%v", a.PrimaryKey)))
		r.Set("nullable", stringValue(fmt.Sprintf("%v", a.Nullable)))
		rows[i] = r
	}
	return rows
}
