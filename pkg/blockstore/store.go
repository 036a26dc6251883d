// Package blockstore implements the engine's page store: a single file of
// fixed-size blocks, chained via a Next pointer, with free-block recycling
// and an LRU page cache in front of reads. Grounded on the shape of
// perkeep's pkg/blobserver/diskpacked (single-file-owning storage struct
// guarded by a mutex, fmt-based small-record encoding) combined with the
// original engine's fixed-block, header-stamped free-list model.
package blockstore

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/blockql/blockql/pkg/codec"
)

// Special, fixed block numbers reserved by the catalog.
const (
	MetaBlockNum   uint32 = 0
	LookUpBlockNum uint32 = 1
)

// Store owns one database file of fixed-size blocks.
type Store struct {
	mu   sync.Mutex
	file *os.File
	path string

	count uint32 // total blocks currently in the file, free or not
	free  []uint32 // stack of recyclable block numbers, built at Open

	cache *pageCache
}

// Open opens (creating if necessary) the database file at path, sized to
// cacheSize resident blocks, and rebuilds the free-block list by scanning
// every block's header once.
func Open(path string, cacheSize int) (*Store, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("blockstore: open %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("blockstore: stat %s: %w", path, err)
	}

	s := &Store{
		file:  f,
		path:  path,
		count: uint32(info.Size() / BlockSize),
		cache: newPageCache(cacheSize),
	}

	if s.count == 0 {
		if err := s.initializeEmpty(); err != nil {
			f.Close()
			return nil, err
		}
	} else if err := s.scanFreeList(); err != nil {
		f.Close()
		return nil, err
	}

	return s, nil
}

// initializeEmpty lays down the fixed meta (0) and lookup (1) blocks of a
// freshly created database file.
func (s *Store) initializeEmpty() error {
	meta := &Block{Num: MetaBlockNum, Type: TypeMeta, Extra: "Meta", Count: 1, EntityHash: MetaEntityHash, Version: FormatVersion}
	lookup := &Block{Num: LookUpBlockNum, Type: TypeLookUp, Extra: "LookUp", Count: 1, EntityHash: LookupEntityHash, Version: FormatVersion}
	s.count = 2
	if err := s.writeBlockLocked(meta); err != nil {
		return err
	}
	return s.writeBlockLocked(lookup)
}

func (s *Store) scanFreeList() error {
	for n := uint32(0); n < s.count; n++ {
		b, err := s.readBlockLocked(n)
		if err != nil {
			return err
		}
		if b.Type == TypeFree {
			s.free = append(s.free, n)
		}
	}
	return nil
}

// Close flushes the underlying file handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}

// BlockCount returns the total number of blocks backing the file, free or
// in use.
func (s *Store) BlockCount() uint32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// ReadBlock returns the block at num, consulting the page cache first.
func (s *Store) ReadBlock(num uint32) (*Block, error) {
	if b, ok := s.cache.get(num); ok {
		return b, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.readBlockLocked(num)
	if err != nil {
		return nil, err
	}
	s.cache.add(num, b)
	return b, nil
}

func (s *Store) readBlockLocked(num uint32) (*Block, error) {
	if num >= s.count {
		return nil, fmt.Errorf("blockstore: block %d out of range (count %d)", num, s.count)
	}
	buf := make([]byte, BlockSize)
	if _, err := s.file.ReadAt(buf, int64(num)*BlockSize); err != nil && err != io.EOF {
		return nil, fmt.Errorf("blockstore: read block %d: %w", num, err)
	}
	return decodeBlock(buf)
}

// WriteBlock writes b to disk (write-through) and updates the page cache.
func (s *Store) WriteBlock(b *Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeBlockLocked(b); err != nil {
		return err
	}
	s.cache.add(b.Num, b)
	return nil
}

func (s *Store) writeBlockLocked(b *Block) error {
	if _, err := s.file.WriteAt(b.encode(), int64(b.Num)*BlockSize); err != nil {
		return fmt.Errorf("blockstore: write block %d: %w", b.Num, err)
	}
	return nil
}

// Allocate returns a fresh block number of the given type, either recycled
// from the free list or grown at the end of the file.
func (s *Store) Allocate(t BlockType, extra string, entityHash uint32) (uint32, error) {
	s.mu.Lock()
	var num uint32
	if n := len(s.free); n > 0 {
		num = s.free[n-1]
		s.free = s.free[:n-1]
	} else {
		num = s.count
		s.count++
	}
	s.mu.Unlock()

	b := &Block{Num: num, Type: t, Extra: extra, Count: 1, EntityHash: entityHash, Version: FormatVersion}
	if err := s.WriteBlock(b); err != nil {
		return 0, err
	}
	return num, nil
}

// ReleaseChain walks the chain starting at head, marking every block in it
// Free and returning each to the free list for reuse. head==0 means an
// empty chain and is a no-op.
func (s *Store) ReleaseChain(head uint32) error {
	for head != 0 {
		b, err := s.ReadBlock(head)
		if err != nil {
			return err
		}
		next := b.Next
		if err := s.WriteBlock(&Block{Num: head, Type: TypeFree}); err != nil {
			return err
		}
		s.mu.Lock()
		s.free = append(s.free, head)
		s.mu.Unlock()
		s.cache.remove(head)
		head = next
	}
	return nil
}

// CreateSpecial (re)initializes one of the two fixed, well-known blocks.
func (s *Store) CreateSpecial(num uint32, t BlockType, extra string, entityHash uint32) error {
	return s.WriteBlock(&Block{Num: num, Type: t, Extra: extra, Count: 1, EntityHash: entityHash, Version: FormatVersion})
}

// Each visits every non-free block in block-number order. visit returns
// false to stop iteration early.
func (s *Store) Each(visit func(*Block) (bool, error)) error {
	count := s.BlockCount()
	for n := uint32(0); n < count; n++ {
		b, err := s.ReadBlock(n)
		if err != nil {
			return err
		}
		if b.Type == TypeFree {
			continue
		}
		cont, err := visit(b)
		if err != nil {
			return err
		}
		if !cont {
			return nil
		}
	}
	return nil
}

// Save writes fields as one NUL-terminated record, spanning as many
// chained blocks as needed. If head is 0 and t is not TypeMeta, a new
// chain is allocated; otherwise the existing chain starting at head (for
// TypeMeta, the fixed meta block 0) is reused, extended,
// and any now-unused trailing blocks are released. Every block written
// carries the same count, entityHash, type and extra; the last block's
// Next is 0. Save returns the (possibly newly allocated) chain head.
func (s *Store) Save(head uint32, t BlockType, extra string, entityHash uint32, fields []string) (uint32, error) {
	data := codec.EncodeFields(fields)

	var chain []uint32
	if head != 0 || t == TypeMeta {
		cur := head
		for first := true; first || cur != 0; first = false {
			chain = append(chain, cur)
			b, err := s.ReadBlock(cur)
			if err != nil {
				return 0, err
			}
			cur = b.Next
		}
	}

	needed := (len(data) + PayloadSize - 1) / PayloadSize
	if needed == 0 {
		needed = 1
	}

	for len(chain) < needed {
		num, err := s.Allocate(t, extra, entityHash)
		if err != nil {
			return 0, err
		}
		chain = append(chain, num)
	}

	for i := 0; i < needed; i++ {
		b := &Block{Num: chain[i], Type: t, Extra: extra, Count: uint32(needed), EntityHash: entityHash, Version: FormatVersion}
		start := i * PayloadSize
		end := start + PayloadSize
		if end > len(data) {
			end = len(data)
		}
		copy(b.Payload[:], data[start:end])
		if i < needed-1 {
			b.Next = chain[i+1]
		}
		if err := s.WriteBlock(b); err != nil {
			return 0, err
		}
	}

	if len(chain) > needed {
		if err := s.ReleaseChain(chain[needed]); err != nil {
			return 0, err
		}
	}

	return chain[0], nil
}

// Load reconstructs the fields written by a prior Save, walking the chain
// from head. Block 0 is the meta block, so Load(0) reads the meta chain.
func (s *Store) Load(head uint32) ([]string, error) {
	var data []byte
	cur := head
	for first := true; first || cur != 0; first = false {
		b, err := s.ReadBlock(cur)
		if err != nil {
			return nil, err
		}
		data = append(data, b.Payload[:]...)
		cur = b.Next
	}
	return codec.DecodeFields(data), nil
}
