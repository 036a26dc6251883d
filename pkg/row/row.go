// Package row implements row materialization: a row is a set of named
// values keyed by attribute name, encoded to and decoded from the
// positional, attribute-ordered token stream the Page Store persists.
package row

import (
	"fmt"

	"github.com/blockql/blockql/pkg/codec"
	"github.com/blockql/blockql/pkg/dbtype"
	"github.com/blockql/blockql/pkg/schema"
)

// Row is one record: a set of attribute-name-to-Value pairs.
type Row struct {
	Values map[string]dbtype.Value
}

// New builds an empty row.
func New() *Row {
	return &Row{Values: make(map[string]dbtype.Value)}
}

// Get returns the value of the named field, or dbtype.None if absent.
func (r *Row) Get(name string) dbtype.Value {
	if v, ok := r.Values[name]; ok {
		return v
	}
	return dbtype.None()
}

// Set assigns the named field's value.
func (r *Row) Set(name string, v dbtype.Value) {
	r.Values[name] = v
}

// Encode renders the row as codec tokens, one per attribute, in the
// entity's attribute order — the Page Store has no field names on disk,
// only position, exactly mirroring the original engine's fixed-layout row
// records.
func (r *Row) Encode(attrs []schema.Attribute) []string {
	fields := make([]string, len(attrs))
	for i, a := range attrs {
		fields[i] = codec.EncodeValue(r.Get(a.Name))
	}
	return fields
}

// Decode reconstructs a row from positional tokens given the entity's
// attribute list.
func Decode(attrs []schema.Attribute, fields []string) (*Row, error) {
	if len(fields) != len(attrs) {
		return nil, fmt.Errorf("row: got %d fields, want %d for %d attributes", len(fields), len(attrs), len(attrs))
	}
	r := New()
	for i, a := range attrs {
		v, err := codec.DecodeValue(fields[i])
		if err != nil {
			return nil, fmt.Errorf("row: attribute %s: %w", a.Name, err)
		}
		r.Values[a.Name] = v
	}
	return r, nil
}
