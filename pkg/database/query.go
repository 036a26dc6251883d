package database

import (
	"sort"

	"github.com/blockql/blockql/pkg/blockstore"
	"github.com/blockql/blockql/pkg/dberr"
	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/filter"
	"github.com/blockql/blockql/pkg/row"
	"github.com/blockql/blockql/pkg/schema"
)

// JoinKind names which join a Select request's JoinClause performs. Only
// Left and Right are actually executed; the others exist so the dispatcher
// can report NotImplemented for them instead of silently mis-joining.
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

// SelectRequest bundles everything a SELECT needs beyond the base table
// name.
type SelectRequest struct {
	Table    string
	Fields   []string // "*" means every column
	Joins    []JoinClause
	Where    filter.Filters
	HasWhere bool
	OrderBy  []OrderKey
	Limit    int
	HasLimit bool
}

// loadAllRows brute-force-scans a table's primary-key index, loading and
// decoding every row chain it references — the engine's only scan
// strategy, matching the stated non-goal of no query planning beyond
// linear scan/PK lookup. If the index comes back empty, it falls back to
// scanByEntityHash: a full pass over the data blocks tagged with the
// table's entity hash, covering the case where the PK index chain itself
// was lost or never populated even though row data survives.
func (d *Database) loadAllRows(table string) ([]*row.Row, error) {
	e, err := d.catalog.Table(table)
	if err != nil {
		return nil, err
	}
	ix, err := d.catalog.TableIndex(table)
	if err != nil {
		return nil, err
	}
	if ix.Empty() {
		return d.scanByEntityHash(e)
	}

	var rows []*row.Row
	var iterErr error
	ix.EachKV(func(_ string, head uint32) bool {
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
		rows = append(rows, r)
		return true
	})
	return rows, iterErr
}

// scanByEntityHash materializes every row of e by walking every Data block
// in the store whose EntityHash matches e's, independent of the PK index.
// A chain's head is whichever matching block is never referenced by
// another matching block's Next pointer; heads are visited in ascending
// block-number order, i.e. file order, matching the ordering guarantee a
// scan (as opposed to an index walk) makes.
func (d *Database) scanByEntityHash(e *schema.Entity) ([]*row.Row, error) {
	hash := blockstore.HashEntity(e.Name)
	blocks := make(map[uint32]*blockstore.Block)
	referenced := make(map[uint32]bool)
	err := d.store.Each(func(b *blockstore.Block) (bool, error) {
		if b.Type == blockstore.TypeData && b.EntityHash == hash {
			blocks[b.Num] = b
			if b.Next != 0 {
				referenced[b.Next] = true
			}
		}
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	var heads []uint32
	for num := range blocks {
		if !referenced[num] {
			heads = append(heads, num)
		}
	}
	sort.Slice(heads, func(i, j int) bool { return heads[i] < heads[j] })

	var rows []*row.Row
	for _, head := range heads {
		fields, err := d.store.Load(head)
		if err != nil {
			return nil, err
		}
		r, err := row.Decode(e.Attributes, fields)
		if err != nil {
			return nil, err
		}
		rows = append(rows, r)
	}
	return rows, nil
}

// Select executes a SELECT request, joining, filtering, sorting and
// projecting as requested.
func (d *Database) Select(req SelectRequest) ([]*row.Row, error) {
	if !d.catalog.HasTable(req.Table) {
		return nil, dberr.New(dberr.TableNotFound)
	}
	rows, err := d.loadAllRows(req.Table)
	if err != nil {
		return nil, dberr.Wrap(dberr.IOError, err)
	}

	for _, j := range req.Joins {
		if j.Kind != JoinLeft && j.Kind != JoinRight {
			return nil, dberr.New(dberr.NotImplemented)
		}
		if !d.catalog.HasTable(j.Table) {
			return nil, dberr.New(dberr.TableNotFound)
		}
		other, err := d.loadAllRows(j.Table)
		if err != nil {
			return nil, dberr.Wrap(dberr.IOError, err)
		}
		rows, err = applyJoin(rows, other, j)
		if err != nil {
			return nil, dberr.Wrap(dberr.IOError, err)
		}
	}

	if req.HasWhere {
		var filtered []*row.Row
		for _, r := range rows {
			ok, err := req.Where.Matches(r)
			if err != nil {
				return nil, dberr.Wrap(dberr.IOError, err)
			}
			if ok {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	if len(req.OrderBy) > 0 {
		sort.SliceStable(rows, func(i, j int) bool {
			for _, key := range req.OrderBy {
				cmp := dbtype.Compare(rows[i].Get(key.Column), rows[j].Get(key.Column))
				if cmp == 0 {
					continue
				}
				if key.Desc {
					return cmp > 0
				}
				return cmp < 0
			}
			return false
		})
	}

	if req.HasLimit && req.Limit < len(rows) {
		rows = rows[:req.Limit]
	}

	if len(req.Fields) == 1 && req.Fields[0] == "*" {
		return rows, nil
	}
	projected := make([]*row.Row, len(rows))
	for i, r := range rows {
		p := row.New()
		for _, f := range req.Fields {
			p.Set(f, r.Get(f))
		}
		projected[i] = p
	}
	return projected, nil
}

// applyJoin combines left with right per the ON condition in j. LEFT keeps
// every left row, pairing it with each matching right row, or a single
// all-None right side if nothing matched. RIGHT is LEFT with the two sides
// swapped, matching the original engine's Join semantics: only LEFT and
// RIGHT are implemented.
func applyJoin(left, right []*row.Row, j JoinClause) ([]*row.Row, error) {
	driver, probe := left, right
	if j.Kind == JoinRight {
		driver, probe = right, left
	}

	var out []*row.Row
	for _, d := range driver {
		matched := false
		for _, p := range probe {
			var ok bool
			var err error
			if j.Kind == JoinRight {
				ok, err = j.On.MatchesJoin(p, d)
			} else {
				ok, err = j.On.MatchesJoin(d, p)
			}
			if err != nil {
				return nil, err
			}
			if ok {
				matched = true
				out = append(out, merge(d, p, j.Kind))
			}
		}
		if !matched {
			out = append(out, merge(d, row.New(), j.Kind))
		}
	}
	return out, nil
}

func merge(driver, probe *row.Row, kind JoinKind) *row.Row {
	m := row.New()
	if kind == JoinRight {
		for k, v := range probe.Values {
			m.Values[k] = v
		}
		for k, v := range driver.Values {
			m.Values[k] = v
		}
		return m
	}
	for k, v := range driver.Values {
		m.Values[k] = v
	}
	for k, v := range probe.Values {
		m.Values[k] = v
	}
	return m
}
