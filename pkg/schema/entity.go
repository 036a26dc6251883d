// Package schema defines a table's structural metadata: its attributes and
// the bookkeeping (auto-increment counter, index chain head) the catalog
// needs to operate on it. Grounded on the original engine's Entity.hpp and
// Attribute.hpp, with the bitfield-packed attribute flags translated to a
// plain Go struct.
package schema

import (
	"fmt"
	"strconv"

	"github.com/blockql/blockql/pkg/codec"
	"github.com/blockql/blockql/pkg/dbtype"
)

// Attribute flag bits, packed the way Attribute.hpp packs them, kept here
// only for the on-disk encoding; callers use the named Attribute fields.
const (
	flagPrimaryKey    = 1 << 0
	flagAutoIncrement = 1 << 1
	flagNullable      = 1 << 2
	flagHasDefault    = 1 << 3
)

// Attribute describes one column of a table. Size is only meaningful for
// KindText columns (its declared VARCHAR(n) length); Default is only
// meaningful when HasDefault is set.
type Attribute struct {
	Name          string
	Type          dbtype.Kind
	Size          int
	PrimaryKey    bool
	AutoIncrement bool
	Nullable      bool
	HasDefault    bool
	Default       dbtype.Value
}

func (a Attribute) flags() int {
	f := 0
	if a.PrimaryKey {
		f |= flagPrimaryKey
	}
	if a.AutoIncrement {
		f |= flagAutoIncrement
	}
	if a.Nullable {
		f |= flagNullable
	}
	if a.HasDefault {
		f |= flagHasDefault
	}
	return f
}

func attributeFromFlags(name string, kind dbtype.Kind, flags, size int, defaultVal dbtype.Value) Attribute {
	return Attribute{
		Name:          name,
		Type:          kind,
		Size:          size,
		PrimaryKey:    flags&flagPrimaryKey != 0,
		AutoIncrement: flags&flagAutoIncrement != 0,
		Nullable:      flags&flagNullable != 0,
		HasDefault:    flags&flagHasDefault != 0,
		Default:       defaultVal,
	}
}

// Entity is a table's schema plus the bookkeeping the catalog needs: the
// block number of the table's primary-key index chain, and the next value
// the auto-increment attribute (if any) will take. Per the original
// engine's Entity.cpp, auto-increment counters start at 1.
type Entity struct {
	Name       string
	Attributes []Attribute
	NextAutoID int64
	IndexBlock uint32
}

// NewEntity builds a freshly created table's schema with the
// auto-increment counter at its initial value.
func NewEntity(name string, attrs []Attribute) *Entity {
	return &Entity{Name: name, Attributes: attrs, NextAutoID: 1}
}

// PrimaryKey returns the table's single primary-key attribute, if any.
func (e *Entity) PrimaryKey() (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.PrimaryKey {
			return a, true
		}
	}
	return Attribute{}, false
}

// Attribute looks up a column by name.
func (e *Entity) Attribute(name string) (Attribute, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return Attribute{}, false
}

// Encode renders the entity as codec fields, ready for a blockstore.Save.
func (e *Entity) Encode() []string {
	fields := []string{
		codec.Sentinelize(e.Name),
		strconv.FormatInt(e.NextAutoID, 10),
		strconv.FormatUint(uint64(e.IndexBlock), 10),
		strconv.Itoa(len(e.Attributes)),
	}
	for _, a := range e.Attributes {
		def := a.Default
		if !a.HasDefault {
			def = dbtype.None()
		}
		fields = append(fields,
			codec.Sentinelize(a.Name),
			string(byte(a.Type)),
			strconv.Itoa(a.flags()),
			strconv.Itoa(a.Size),
			codec.EncodeValue(def),
		)
	}
	return fields
}

// Decode reconstructs an Entity from the fields produced by Encode.
func Decode(fields []string) (*Entity, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("schema: entity record too short: %d fields", len(fields))
	}
	autoID, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("schema: bad auto-increment counter %q: %w", fields[1], err)
	}
	indexBlock, err := strconv.ParseUint(fields[2], 10, 32)
	if err != nil {
		return nil, fmt.Errorf("schema: bad index block %q: %w", fields[2], err)
	}
	count, err := strconv.Atoi(fields[3])
	if err != nil {
		return nil, fmt.Errorf("schema: bad attribute count %q: %w", fields[3], err)
	}
	const fieldsPerAttr = 5
	if len(fields) != 4+count*fieldsPerAttr {
		return nil, fmt.Errorf("schema: entity record has %d fields, want %d for %d attributes", len(fields), 4+count*fieldsPerAttr, count)
	}

	e := &Entity{
		Name:       codec.Desentinelize(fields[0]),
		NextAutoID: autoID,
		IndexBlock: uint32(indexBlock),
	}
	for i := 0; i < count; i++ {
		base := 4 + i*fieldsPerAttr
		flags, err := strconv.Atoi(fields[base+2])
		if err != nil {
			return nil, fmt.Errorf("schema: bad attribute flags %q: %w", fields[base+2], err)
		}
		size, err := strconv.Atoi(fields[base+3])
		if err != nil {
			return nil, fmt.Errorf("schema: bad attribute size %q: %w", fields[base+3], err)
		}
		defaultVal, err := codec.DecodeValue(fields[base+4])
		if err != nil {
			return nil, fmt.Errorf("schema: bad attribute default %q: %w", fields[base+4], err)
		}
		name := codec.Desentinelize(fields[base])
		kind := dbtype.Kind(fields[base+1][0])
		e.Attributes = append(e.Attributes, attributeFromFlags(name, kind, flags, size, defaultVal))
	}
	return e, nil
}
