// Package catalog implements the engine's catalog: the entity index rooted
// at block 0 (table name -> that table's Entity chain head) and the
// per-table primary-key index map rooted at block 1 (table name -> that
// table's primary-key Index chain head). Grounded on the original engine's
// Storage.cpp saveMetaBlock/loadMetaBlock and saveIndexMap/loadIndexMap.
package catalog

import (
	"fmt"
	"log"

	"github.com/blockql/blockql/pkg/blockstore"
	"github.com/blockql/blockql/pkg/dbindex"
	"github.com/blockql/blockql/pkg/schema"
)

// Catalog is the open database's table directory.
type Catalog struct {
	store *blockstore.Store

	entityIndex *dbindex.Index // block 0: table name -> Entity chain head
	lookupIndex *dbindex.Index // block 1: table name -> PK Index chain head

	// entities and indexes are bounded LRU caches of decoded Entity/Index
	// records, sized from Config.EntityCacheSize/IndexCacheSize; an entry
	// evicted under memory pressure is flushed to disk first, so dropping
	// it from the cache never loses state.
	entities *boundedCache[*schema.Entity]
	indexes  *boundedCache[*dbindex.Index]
}

// Load reads the catalog's two fixed blocks and returns an empty,
// lazily-populated Catalog ready for table lookups. entityCacheSize and
// indexCacheSize bound how many decoded Entity/Index records stay resident
// at once.
func Load(store *blockstore.Store, entityCacheSize, indexCacheSize int) (*Catalog, error) {
	metaFields, err := store.Load(blockstore.MetaBlockNum)
	if err != nil {
		return nil, fmt.Errorf("catalog: load meta block: %w", err)
	}
	var entityIndex *dbindex.Index
	if len(metaFields) == 0 {
		entityIndex = dbindex.New("Meta", blockstore.MetaBlockNum)
	} else {
		entityIndex, err = dbindex.Decode(blockstore.MetaBlockNum, metaFields)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode meta block: %w", err)
		}
	}

	lookupFields, err := store.Load(blockstore.LookUpBlockNum)
	if err != nil {
		return nil, fmt.Errorf("catalog: load lookup block: %w", err)
	}
	var lookupIndex *dbindex.Index
	if len(lookupFields) == 0 {
		lookupIndex = dbindex.New("LookUp", blockstore.LookUpBlockNum)
	} else {
		lookupIndex, err = dbindex.Decode(blockstore.LookUpBlockNum, lookupFields)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode lookup block: %w", err)
		}
	}

	c := &Catalog{
		store:       store,
		entityIndex: entityIndex,
		lookupIndex: lookupIndex,
	}
	c.entities = newBoundedCache(entityCacheSize, c.evictEntity)
	c.indexes = newBoundedCache(indexCacheSize, c.evictIndex)
	return c, nil
}

// evictEntity flushes an Entity being dropped from the resident cache back
// to its chain, so a bounded cache never loses a pending change (e.g. an
// auto-increment counter bump) when it recycles the entry.
func (c *Catalog) evictEntity(name string, e *schema.Entity) {
	entityHead, ok := c.entityIndex.Get(name)
	if !ok {
		return // table was dropped out from under this entry
	}
	newHead, err := c.store.Save(entityHead, blockstore.TypeEntity, name, blockstore.HashEntity(name), e.Encode())
	if err != nil {
		log.Printf("catalog: error flushing evicted entity %s: %v", name, err)
		return
	}
	if newHead != entityHead {
		c.entityIndex.Put(name, newHead)
	}
}

// evictIndex flushes an Index being dropped from the resident cache, if it
// carries unsaved changes.
func (c *Catalog) evictIndex(name string, ix *dbindex.Index) {
	if !ix.Dirty() {
		return
	}
	extra := name + ".pk"
	newHead, err := c.store.Save(ix.BlockNum(), blockstore.TypeIndex, extra, blockstore.HashEntity(name), ix.Encode())
	if err != nil {
		log.Printf("catalog: error flushing evicted index %s: %v", name, err)
		return
	}
	if newHead != ix.BlockNum() {
		ix.SetBlockNum(newHead)
		c.lookupIndex.Put(name, newHead)
	}
	ix.ClearDirty()
}

// Close flushes any dirty catalog state back to disk.
func (c *Catalog) Close() error {
	return c.Flush()
}

// Flush writes the entity index, lookup index, and every modified table
// entity/index chain back to disk.
func (c *Catalog) Flush() error {
	if c.entityIndex.Dirty() {
		head, err := c.store.Save(blockstore.MetaBlockNum, blockstore.TypeMeta, "Meta", blockstore.MetaEntityHash, c.entityIndex.Encode())
		if err != nil {
			return fmt.Errorf("catalog: save meta block: %w", err)
		}
		_ = head // meta block head is fixed at MetaBlockNum
		c.entityIndex.ClearDirty()
	}
	if c.lookupIndex.Dirty() {
		if _, err := c.store.Save(blockstore.LookUpBlockNum, blockstore.TypeLookUp, "LookUp", blockstore.LookupEntityHash, c.lookupIndex.Encode()); err != nil {
			return fmt.Errorf("catalog: save lookup block: %w", err)
		}
		c.lookupIndex.ClearDirty()
	}
	var flushErr error
	c.entities.each(func(name string, e *schema.Entity) {
		if flushErr != nil {
			return
		}
		entityHead, _ := c.entityIndex.Get(name)
		hash := blockstore.HashEntity(name)
		newHead, err := c.store.Save(entityHead, blockstore.TypeEntity, name, hash, e.Encode())
		if err != nil {
			flushErr = fmt.Errorf("catalog: save entity %s: %w", name, err)
			return
		}
		if newHead != entityHead {
			c.entityIndex.Put(name, newHead)
		}
	})
	if flushErr != nil {
		return flushErr
	}
	c.indexes.each(func(name string, ix *dbindex.Index) {
		if flushErr != nil || !ix.Dirty() {
			return
		}
		extra := name + "." + "pk"
		hash := blockstore.HashEntity(name)
		newHead, err := c.store.Save(ix.BlockNum(), blockstore.TypeIndex, extra, hash, ix.Encode())
		if err != nil {
			flushErr = fmt.Errorf("catalog: save index %s: %w", name, err)
			return
		}
		if newHead != ix.BlockNum() {
			ix.SetBlockNum(newHead)
			c.lookupIndex.Put(name, newHead)
		}
		ix.ClearDirty()
	})
	if flushErr != nil {
		return flushErr
	}
	if c.lookupIndex.Dirty() {
		if _, err := c.store.Save(blockstore.LookUpBlockNum, blockstore.TypeLookUp, "LookUp", blockstore.LookupEntityHash, c.lookupIndex.Encode()); err != nil {
			return fmt.Errorf("catalog: save lookup block (post-index): %w", err)
		}
		c.lookupIndex.ClearDirty()
	}
	return nil
}

// HasTable reports whether name is a known table.
func (c *Catalog) HasTable(name string) bool {
	_, ok := c.entityIndex.Get(name)
	return ok
}

// Tables lists every known table name in sorted order.
func (c *Catalog) Tables() []string {
	var names []string
	c.entityIndex.EachKV(func(key string, _ uint32) bool {
		names = append(names, key)
		return true
	})
	return names
}

// Table loads (or returns the cached) Entity for name.
func (c *Catalog) Table(name string) (*schema.Entity, error) {
	if e, ok := c.entities.get(name); ok {
		return e, nil
	}
	head, ok := c.entityIndex.Get(name)
	if !ok {
		return nil, fmt.Errorf("catalog: table %s not found", name)
	}
	fields, err := c.store.Load(head)
	if err != nil {
		return nil, fmt.Errorf("catalog: load table %s: %w", name, err)
	}
	e, err := schema.Decode(fields)
	if err != nil {
		return nil, fmt.Errorf("catalog: decode table %s: %w", name, err)
	}
	c.entities.put(name, e)
	return e, nil
}

// TableIndex loads (or returns the cached) primary-key Index for name.
func (c *Catalog) TableIndex(name string) (*dbindex.Index, error) {
	if ix, ok := c.indexes.get(name); ok {
		return ix, nil
	}
	head, ok := c.lookupIndex.Get(name)
	if !ok {
		return nil, fmt.Errorf("catalog: index for table %s not found", name)
	}
	var ix *dbindex.Index
	if head == 0 {
		ix = dbindex.New(name, 0)
	} else {
		fields, err := c.store.Load(head)
		if err != nil {
			return nil, fmt.Errorf("catalog: load index for %s: %w", name, err)
		}
		ix, err = dbindex.Decode(head, fields)
		if err != nil {
			return nil, fmt.Errorf("catalog: decode index for %s: %w", name, err)
		}
	}
	c.indexes.put(name, ix)
	return ix, nil
}

// CreateTable registers a brand new table, allocating its Entity and Index
// chains.
func (c *Catalog) CreateTable(name string, attrs []schema.Attribute) (*schema.Entity, error) {
	if c.HasTable(name) {
		return nil, fmt.Errorf("catalog: table %s already exists", name)
	}
	e := schema.NewEntity(name, attrs)
	hash := blockstore.HashEntity(name)
	ix := dbindex.New(name, 0)
	indexHead, err := c.store.Save(0, blockstore.TypeIndex, name+".pk", hash, ix.Encode())
	if err != nil {
		return nil, fmt.Errorf("catalog: allocate index %s: %w", name, err)
	}
	ix.SetBlockNum(indexHead)
	e.IndexBlock = indexHead
	entityHead, err := c.store.Save(0, blockstore.TypeEntity, name, hash, e.Encode())
	if err != nil {
		return nil, fmt.Errorf("catalog: allocate entity %s: %w", name, err)
	}
	c.entityIndex.Put(name, entityHead)
	c.lookupIndex.Put(name, indexHead)
	c.entities.put(name, e)
	c.indexes.put(name, ix)
	return e, nil
}

// DropTable releases a table's Entity chain, Index chain, and every row
// chain referenced by that index.
func (c *Catalog) DropTable(name string) error {
	entityHead, ok := c.entityIndex.Get(name)
	if !ok {
		return fmt.Errorf("catalog: table %s not found", name)
	}
	ix, err := c.TableIndex(name)
	if err != nil {
		return err
	}
	ix.EachKV(func(_ string, rowHead uint32) bool {
		_ = c.store.ReleaseChain(rowHead)
		return true
	})
	if indexHead := ix.BlockNum(); indexHead != 0 {
		if err := c.store.ReleaseChain(indexHead); err != nil {
			return err
		}
	}
	if err := c.store.ReleaseChain(entityHead); err != nil {
		return err
	}
	c.entityIndex.Erase(name)
	c.lookupIndex.Erase(name)
	c.entities.remove(name)
	c.indexes.remove(name)
	return nil
}
