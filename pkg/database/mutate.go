package database

import (
	"strconv"

	"github.com/blockql/blockql/pkg/blockstore"
	"github.com/blockql/blockql/pkg/dberr"
	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/filter"
	"github.com/blockql/blockql/pkg/row"
)

// Insert adds one row to table. columns may be nil to mean "every
// attribute, in schema order"; values must then line up 1:1 with columns
// (or with the schema's attribute order, if columns is nil). A primary-key
// attribute marked AUTO_INCREMENT is filled from the entity's counter when
// no value was supplied for it, matching the original engine's
// Entity auto-increment semantics (counters start at 1).
func (d *Database) Insert(table string, columns []string, values []dbtype.Value) (int64, error) {
	if !d.catalog.HasTable(table) {
		return 0, dberr.New(dberr.TableNotFound)
	}
	e, err := d.catalog.Table(table)
	if err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}
	if columns == nil {
		for _, a := range e.Attributes {
			columns = append(columns, a.Name)
		}
	}
	if len(columns) != len(values) {
		return 0, dberr.New(dberr.InvalidArgument)
	}

	r := row.New()
	for i, col := range columns {
		attr, ok := e.Attribute(col)
		if !ok {
			return 0, dberr.New(dberr.AttributeNotFound)
		}
		if values[i].Kind != dbtype.KindNone && values[i].Kind != attr.Type {
			return 0, dberr.New(dberr.TypeMismatch)
		}
		r.Set(col, values[i])
	}

	pk, ok := e.PrimaryKey()
	if !ok {
		return 0, dberr.New(dberr.PrimaryKeyRequired)
	}
	pkValue := r.Get(pk.Name)
	var autoID int64
	if pk.AutoIncrement && pkValue.IsNone() {
		autoID = e.NextAutoID
		pkValue = dbtype.Int(autoID)
		r.Set(pk.Name, pkValue)
	}
	if pkValue.IsNone() {
		return 0, dberr.New(dberr.PrimaryKeyRequired)
	}
	for _, a := range e.Attributes {
		if a.Name == pk.Name || !r.Get(a.Name).IsNone() {
			continue
		}
		if a.HasDefault {
			r.Set(a.Name, a.Default)
			continue
		}
		if !a.Nullable {
			return 0, dberr.New(dberr.InvalidArgument)
		}
	}

	ix, err := d.catalog.TableIndex(table)
	if err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}
	key := indexKey(pkValue)
	if _, exists := ix.Get(key); exists {
		return 0, dberr.New(dberr.DuplicateKey)
	}

	fields := r.Encode(e.Attributes)
	head, err := d.store.Save(0, blockstore.TypeData, table, blockstore.HashEntity(table), fields)
	if err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}
	ix.Put(key, head)

	if pk.AutoIncrement && autoID != 0 {
		e.NextAutoID = autoID + 1
	}

	if err := d.catalog.Flush(); err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}
	return 1, nil
}

// indexKey renders a primary-key value as its canonical text form, the
// on-disk Index's key — every key round-trips through text even when the
// attribute is numeric.
func indexKey(v dbtype.Value) string {
	if v.Kind == dbtype.KindInt || v.Kind == dbtype.KindDatetime {
		return strconv.FormatInt(v.I, 10)
	}
	return v.String()
}

// SetClause is one UPDATE ... SET column assignment.
type SetClause struct {
	Column string
	Value  filter.Operand
}

// Update applies sets to every row of table matching where (all rows
// if hasWhere==false), returning the number of rows
// changed.
func (d *Database) Update(table string, sets []SetClause, where filter.Filters, hasWhere bool) (int64, error) {
	if !d.catalog.HasTable(table) {
		return 0, dberr.New(dberr.TableNotFound)
	}
	e, err := d.catalog.Table(table)
	if err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}
	ix, err := d.catalog.TableIndex(table)
	if err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}
	pk, ok := e.PrimaryKey()
	if !ok {
		return 0, dberr.New(dberr.PrimaryKeyRequired)
	}

	var touched int64
	var iterErr error
	type pending struct {
		oldKey string
		newKey string
		head   uint32
		row    *row.Row
	}
	var updates []pending

	ix.EachKV(func(key string, head uint32) bool {
		fields, err := d.store.Load(head)
		if err != nil {
			iterErr = err
			return false
		}
		r, err := row.Decode(e.Attributes, fields)
		if err != nil {
			iterErr = err
			return false
		}
		if hasWhere {
			ok, err := where.Matches(r)
			if err != nil {
				iterErr = err
				return false
			}
			if !ok {
				return true
			}
		}
		for _, s := range sets {
			attr, ok := e.Attribute(s.Column)
			if !ok {
				iterErr = dberr.New(dberr.AttributeNotFound)
				return false
			}
			v := s.Value.Resolve(r)
			if v.Kind != dbtype.KindNone && v.Kind != attr.Type {
				iterErr = dberr.New(dberr.TypeMismatch)
				return false
			}
			r.Set(s.Column, v)
		}
		updates = append(updates, pending{oldKey: key, newKey: indexKey(r.Get(pk.Name)), head: head, row: r})
		return true
	})
	if iterErr != nil {
		return 0, dberr.Wrap(dberr.IOError, iterErr)
	}

	for _, u := range updates {
		fields := u.row.Encode(e.Attributes)
		newHead, err := d.store.Save(u.head, blockstore.TypeData, table, blockstore.HashEntity(table), fields)
		if err != nil {
			return touched, dberr.Wrap(dberr.IOError, err)
		}
		if u.newKey != u.oldKey {
			ix.Erase(u.oldKey)
			ix.Put(u.newKey, newHead)
		} else if newHead != u.head {
			ix.Put(u.oldKey, newHead)
		}
		touched++
	}

	if err := d.catalog.Flush(); err != nil {
		return touched, dberr.Wrap(dberr.IOError, err)
	}
	return touched, nil
}

// Delete removes every row of table matching where (all rows if
// hasWhere==false), returning the number of rows removed.
func (d *Database) Delete(table string, where filter.Filters, hasWhere bool) (int64, error) {
	if !d.catalog.HasTable(table) {
		return 0, dberr.New(dberr.TableNotFound)
	}
	e, err := d.catalog.Table(table)
	if err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}
	ix, err := d.catalog.TableIndex(table)
	if err != nil {
		return 0, dberr.Wrap(dberr.IOError, err)
	}

	var toDelete []string
	var toRelease []uint32
	var iterErr error
	ix.EachKV(func(key string, head uint32) bool {
		if !hasWhere {
			toDelete = append(toDelete, key)
			toRelease = append(toRelease, head)
			return true
		}
		fields, err := d.store.Load(head)
		if err != nil {
			iterErr = err
			return false
		}
		r, err := row.Decode(e.Attributes, fields)
		if err != nil {
			iterErr = err
			return false
		}
		ok, err := where.Matches(r)
		if err != nil {
			iterErr = err
			return false
		}
		if ok {
			toDelete = append(toDelete, key)
			toRelease = append(toRelease, head)
		}
		return true
	})
	if iterErr != nil {
		return 0, dberr.Wrap(dberr.IOError, iterErr)
	}

	for _, key := range toDelete {
		ix.Erase(key)
	}
	for _, head := range toRelease {
		if err := d.store.ReleaseChain(head); err != nil {
			return int64(len(toDelete)), dberr.Wrap(dberr.IOError, err)
		}
	}

	if err := d.catalog.Flush(); err != nil {
		return int64(len(toDelete)), dberr.Wrap(dberr.IOError, err)
	}
	return int64(len(toDelete)), nil
}
