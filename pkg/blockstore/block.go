package blockstore

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"
)

// BlockType tags the role a block plays, the Go analogue of the original
// engine's block-kind discriminant.
type BlockType byte

const (
	TypeFree   BlockType = 0
	TypeMeta   BlockType = 'M' // block 0: the catalog's entity index chain head
	TypeLookUp BlockType = 'L' // block 1: the per-table primary-key index map
	TypeEntity BlockType = 'E' // a table's entity (schema) chain
	TypeIndex  BlockType = 'I' // a table's primary-key index chain
	TypeData   BlockType = 'D' // a row's data chain
)

const (
	// BlockSize is the fixed on-disk size of every block, header and
	// payload together.
	BlockSize = 1024

	extraSize = 48
	headerSize = 4 /*num*/ + 1 /*type*/ + 4 /*next*/ + 2 /*extraLen*/ + extraSize +
		4 /*count*/ + 4 /*entityHash*/ + 2 /*version*/

	// PayloadSize is the number of payload bytes a single block carries;
	// longer records span multiple chained blocks.
	PayloadSize = BlockSize - headerSize

	// FormatVersion is the on-disk block layout version stamped into
	// every block's header, distinct from engineconfig.Version (the
	// human-facing build string `blockql version` reports).
	FormatVersion uint16 = 1
)

// Reserved entity names hashed into the fixed meta/lookup blocks' headers,
// the Go analogue of kMetaBlockHash/kLookupBlockHash.
const (
	metaEntityName   = "#Meta#"
	lookupEntityName = "#Lookup#"
)

var (
	// MetaEntityHash and LookupEntityHash are the stable hashes stamped
	// into blocks 0 and 1 respectively.
	MetaEntityHash   = HashEntity(metaEntityName)
	LookupEntityHash = HashEntity(lookupEntityName)
)

// HashEntity returns a stable hash of an owning table/entity name (or one
// of the reserved sentinels), the Go analogue of Helpers::hashString.
func HashEntity(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(name))
	return h.Sum32()
}

// Block is one fixed-size page: a header (its own number, type, chain
// pointer, chain length, owning-entity hash, format version and a short
// diagnostic tag) plus a payload.
type Block struct {
	Num        uint32
	Type       BlockType
	Next       uint32 // 0 means end of chain
	Count      uint32 // total blocks in the chain this block belongs to
	EntityHash uint32 // hash of the owning table/entity name
	Version    uint16 // FormatVersion at write time
	Extra      string // diagnostic tag: table name, "table.pk", "Meta", "LookUp"
	Payload    [PayloadSize]byte
}

// encode serializes b into a BlockSize-byte page.
func (b *Block) encode() []byte {
	buf := make([]byte, BlockSize)
	binary.BigEndian.PutUint32(buf[0:4], b.Num)
	buf[4] = byte(b.Type)
	binary.BigEndian.PutUint32(buf[5:9], b.Next)

	extra := b.Extra
	if len(extra) > extraSize {
		extra = extra[:extraSize]
	}
	binary.BigEndian.PutUint16(buf[9:11], uint16(len(extra)))
	copy(buf[11:11+extraSize], extra)

	tail := 11 + extraSize
	binary.BigEndian.PutUint32(buf[tail:tail+4], b.Count)
	binary.BigEndian.PutUint32(buf[tail+4:tail+8], b.EntityHash)
	binary.BigEndian.PutUint16(buf[tail+8:tail+10], b.Version)

	copy(buf[headerSize:], b.Payload[:])
	return buf
}

// decodeBlock parses a BlockSize-byte page back into a Block.
func decodeBlock(buf []byte) (*Block, error) {
	if len(buf) != BlockSize {
		return nil, fmt.Errorf("blockstore: short block: got %d bytes, want %d", len(buf), BlockSize)
	}
	b := &Block{
		Num:  binary.BigEndian.Uint32(buf[0:4]),
		Type: BlockType(buf[4]),
		Next: binary.BigEndian.Uint32(buf[5:9]),
	}
	extraLen := binary.BigEndian.Uint16(buf[9:11])
	if int(extraLen) > extraSize {
		return nil, fmt.Errorf("blockstore: corrupt extra length %d in block %d", extraLen, b.Num)
	}
	b.Extra = string(buf[11 : 11+int(extraLen)])

	tail := 11 + extraSize
	b.Count = binary.BigEndian.Uint32(buf[tail : tail+4])
	b.EntityHash = binary.BigEndian.Uint32(buf[tail+4 : tail+8])
	b.Version = binary.BigEndian.Uint16(buf[tail+8 : tail+10])

	copy(b.Payload[:], buf[headerSize:])
	return b, nil
}
