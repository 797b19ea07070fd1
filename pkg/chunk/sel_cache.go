package chunk

import (
	"github.com/tidwall/btree"
)

// selCacheEntry is the (key,value) pair stored in a SelCache's ordered
// set. tidwall/btree's generic BTreeG[T] (the same API the teacher
// used for its index B-trees) orders by a
// single comparable item rather than a separate key/value pair, so the
// key rides along inside the entry.
type selCacheEntry struct {
	key uint64
	sel *SelectVector
}

func selCacheEntryLess(a, b *selCacheEntry) bool {
	return a.key < b.key
}

// SelCache memoizes composed selection vectors within the scope of a
// single top-level slice operation (one Chunk.Slice call slicing every
// column through the same selection). Grounded on DuckDB's SelCache
// local, passed by reference through DataChunk::Slice into each
// Vector::Slice(sel, count, cache) call: when two columns happen to
// already be dictionaries over the same selection vector, composing
// the new selection with the old one is redundant work done once and
// shared, rather than once per column.
type SelCache struct {
	tree *btree.BTreeG[*selCacheEntry]
}

func NewSelCache() *SelCache {
	return &SelCache{
		tree: btree.NewBTreeG[*selCacheEntry](selCacheEntryLess),
	}
}

// GetOrCompute returns the SelectVector representing cur sliced through
// sel (the first count entries), computing and caching it on a miss.
// cur is the key: a second column dictionary-encoded over the same cur
// selection reuses the first column's composed result.
func (c *SelCache) GetOrCompute(cur *SelectVector, sel *SelectVector, count int) *SelectVector {
	key := cur.cacheKey()
	if entry, ok := c.tree.Get(&selCacheEntry{key: key}); ok {
		return entry.sel
	}
	composed := &SelectVector{}
	composed.Init3(cur.Slice(sel, count))
	c.tree.Set(&selCacheEntry{key: key, sel: composed})
	return composed
}
