// Package dbindex implements the engine's ordered index: a sorted
// string-key-to-block-number map, persisted as its own block chain.
// Grounded on the original engine's Index.hpp/Index.cpp, including its
// rule that every key — even an integer primary key — round-trips through
// its text form before being stored or compared.
package dbindex

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/blockql/blockql/pkg/codec"
)

// Index is an ordered map from a table's primary-key text form to the
// block number of that row's data chain (or, for the catalog's entity
// index, to a table's Entity chain head).
type Index struct {
	name     string
	blockNum uint32
	data     map[string]uint32
	dirty    bool
}

// New builds an empty, named index for the given chain head block.
func New(name string, blockNum uint32) *Index {
	return &Index{name: name, blockNum: blockNum, data: make(map[string]uint32)}
}

func (ix *Index) Name() string         { return ix.name }
func (ix *Index) BlockNum() uint32     { return ix.blockNum }
func (ix *Index) SetBlockNum(n uint32) { ix.blockNum = n }
func (ix *Index) Dirty() bool          { return ix.dirty }
func (ix *Index) Size() int            { return len(ix.data) }
func (ix *Index) Empty() bool          { return len(ix.data) == 0 }

// Get looks up the block number stored under key.
func (ix *Index) Get(key string) (uint32, bool) {
	v, ok := ix.data[key]
	return v, ok
}

// Put inserts or overwrites key's target block number.
func (ix *Index) Put(key string, target uint32) {
	ix.data[key] = target
	ix.dirty = true
}

// Erase removes key, reporting whether it was present.
func (ix *Index) Erase(key string) bool {
	if _, ok := ix.data[key]; !ok {
		return false
	}
	delete(ix.data, key)
	ix.dirty = true
	return true
}

// EachKV visits every (key, target) pair in ascending key order. visit
// returning false stops iteration early.
func (ix *Index) EachKV(visit func(key string, target uint32) bool) {
	keys := ix.sortedKeys()
	for _, k := range keys {
		if !visit(k, ix.data[k]) {
			return
		}
	}
}

func (ix *Index) sortedKeys() []string {
	keys := make([]string, 0, len(ix.data))
	for k := range ix.data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ClearDirty marks the index as flushed to disk.
func (ix *Index) ClearDirty() { ix.dirty = false }

// Encode renders the index as codec fields: its name, entry count, then
// each (key, target) pair in sorted order, for a deterministic on-disk
// layout.
func (ix *Index) Encode() []string {
	fields := []string{codec.Sentinelize(ix.name), strconv.Itoa(len(ix.data))}
	ix.EachKV(func(key string, target uint32) bool {
		fields = append(fields, codec.Sentinelize(key), strconv.FormatUint(uint64(target), 10))
		return true
	})
	return fields
}

// Decode reconstructs an index from the fields produced by Encode.
func Decode(blockNum uint32, fields []string) (*Index, error) {
	if len(fields) < 2 {
		return nil, fmt.Errorf("dbindex: record too short: %d fields", len(fields))
	}
	count, err := strconv.Atoi(fields[1])
	if err != nil {
		return nil, fmt.Errorf("dbindex: bad entry count %q: %w", fields[1], err)
	}
	if len(fields) != 2+count*2 {
		return nil, fmt.Errorf("dbindex: record has %d fields, want %d for %d entries", len(fields), 2+count*2, count)
	}
	ix := New(codec.Desentinelize(fields[0]), blockNum)
	for i := 0; i < count; i++ {
		base := 2 + i*2
		target, err := strconv.ParseUint(fields[base+1], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("dbindex: bad target %q: %w", fields[base+1], err)
		}
		ix.data[codec.Desentinelize(fields[base])] = uint32(target)
	}
	return ix, nil
}
