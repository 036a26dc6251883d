package database

import (
	"fmt"

	"github.com/blockql/blockql/pkg/blockstore"
	"github.com/blockql/blockql/pkg/dberr"
)

// Dump renders one diagnostic line per in-use block: its number, type and
// diagnostic tag. It is read-only — Store.Each's underlying reads populate
// the page cache the same way any other read would, but Dump itself never
// writes a block.
func (d *Database) Dump() ([]string, error) {
	var lines []string
	err := d.store.Each(func(b *blockstore.Block) (bool, error) {
		lines = append(lines, fmt.Sprintf(
			"block %d: type=%s next=%d count=%d entity_hash=%d version=%d extra=%q",
			b.Num, blockTypeName(b.Type), b.Next, b.Count, b.EntityHash, b.Version, b.Extra,
		))
		return true, nil
	})
	if err != nil {
		return nil, dberr.Wrap(dberr.IOError, err)
	}
	return lines, nil
}

func blockTypeName(t blockstore.BlockType) string {
	switch t {
	case blockstore.TypeMeta:
		return "Meta"
	case blockstore.TypeLookUp:
		return "LookUp"
	case blockstore.TypeEntity:
		return "Entity"
	case blockstore.TypeIndex:
		return "Index"
	case blockstore.TypeData:
		return "Data"
	case blockstore.TypeFree:
		return "Free"
	default:
		return "Unknown"
	}
}
