package chunk

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/xlab/treeprint"
	"go.uber.org/zap"

	"github.com/daviszhen/plan/pkg/chunkerr"
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

type Chunk struct {
	Data  []*Vector
	Count int
	_Cap  int
	// caches holds one VectorCache per column, built alongside Data in
	// Init and reused by Reset so repeated Init/Reset cycles over the
	// same column types (the common batch-processing loop) don't
	// reallocate a fresh buffer for every batch.
	caches []*VectorCache
	// owner asserts a Chunk is only ever mutated from one goroutine at
	// a time, per the single-threaded-per-chunk model: nothing here is
	// internally synchronized, so concurrent mutation is a caller bug
	// this turns into a panic (in every build) rather than a race to
	// prevent.
	owner util.OwnerCheck
}

func (c *Chunk) Init(types []common.LType, cap int) error {
	c.owner.Verify()
	if len(types) == 0 {
		return chunkerr.OutOfRangef("chunk.Init", "types must not be empty")
	}
	c._Cap = cap
	c.Data = nil
	c.caches = nil
	for _, lType := range types {
		c.Data = append(c.Data, NewVectorForType(lType, c._Cap))
		c.caches = append(c.caches, NewVectorCache(lType))
	}
	return nil
}

// InitEmpty builds a Chunk with the given column types but zero
// capacity/backing storage — used as a Reference target or a
// placeholder before a real batch is produced, per the DataChunk
// public API's initialize_empty. Each column still gets an empty
// VectorCache, which allocates nothing until Reset draws from it.
func (c *Chunk) InitEmpty(types []common.LType) {
	c.owner.Verify()
	c._Cap = 0
	c.Data = make([]*Vector, len(types))
	c.caches = make([]*VectorCache, len(types))
	for i, lType := range types {
		c.Data[i] = NewVector(lType, false, 0)
		c.caches[i] = NewVectorCache(lType)
	}
}

func (c *Chunk) Reset() {
	c.owner.Verify()
	if len(c.Data) == 0 {
		return
	}
	for i, vec := range c.Data {
		vec.ResetFromCache(c.caches[i], util.DefaultVectorSize)
	}
	c._Cap = util.DefaultVectorSize
	c.Count = 0
}

func (c *Chunk) Cap() int {
	return c._Cap
}

func (c *Chunk) SetCap(cap int) {
	c._Cap = cap
}

func (c *Chunk) SetCard(count int) {
	util.AssertFunc(c.Count <= c._Cap)
	c.Count = count
}

func (c *Chunk) Card() int {
	return c.Count
}

func (c *Chunk) ColumnCount() int {
	if c == nil {
		return 0
	}
	return len(c.Data)
}

func (c *Chunk) ReferenceIndice(other *Chunk, indice []int) {
	//assertFunc(other.columnCount() <= c.columnCount())
	c.SetCard(other.Card())
	for i, idx := range indice {
		c.Data[i].Reference(other.Data[idx])
	}
}

func (c *Chunk) Reference(other *Chunk) {
	util.AssertFunc(other.ColumnCount() <= c.ColumnCount())
	c.SetCap(other.Cap())
	c.SetCard(other.Card())
	for i := 0; i < other.ColumnCount(); i++ {
		c.Data[i].Reference(other.Data[i])
	}
}

func (c *Chunk) SliceIndice(other *Chunk, sel *SelectVector, count int, colOffset int, indice []int) {
	//assertFunc(other.columnCount() <= colOffset+c.columnCount())
	c.SetCard(count)
	cache := NewSelCache()
	for i, idx := range indice {
		if other.Data[i].PhyFormat().IsDict() {
			c.Data[i+colOffset].Reference(other.Data[idx])
			c.Data[i+colOffset].Slice2(sel, count, cache)
		} else {
			c.Data[i+colOffset].Slice(other.Data[idx], sel, count, cache)
		}
	}
}

// Slice slices every column of other through sel in one pass, sharing
// a single SelCache (spec's selection cache scope: one cache per
// top-level slice operation) so that columns which were already
// dictionary-encoded over the same selection reuse each other's
// composed result instead of recomputing it per column.
func (c *Chunk) Slice(other *Chunk, sel *SelectVector, count int, colOffset int) {
	util.AssertFunc(other.ColumnCount() <= colOffset+c.ColumnCount())
	c.SetCard(count)
	cache := NewSelCache()
	for i := 0; i < other.ColumnCount(); i++ {
		if other.Data[i].PhyFormat().IsDict() {
			c.Data[i+colOffset].Reference(other.Data[i])
			c.Data[i+colOffset].Slice2(sel, count, cache)
		} else {
			c.Data[i+colOffset].Slice(other.Data[i], sel, count, cache)
		}
	}
}

func (c *Chunk) ToUnifiedFormat() []*UnifiedFormat {
	ret := make([]*UnifiedFormat, c.ColumnCount())
	for i := 0; i < c.ColumnCount(); i++ {
		ret[i] = &UnifiedFormat{}
		c.Data[i].ToUnifiedFormat(c.Card(), ret[i])
	}
	return ret
}

// Print renders the chunk as a tree: one branch per row, one leaf per
// column, with LIST/STRUCT/MAP columns expanding into their own
// sub-branches instead of a flattened string — a flat tab-separated
// row (still available via SaveToFile/SaveToWriter) loses the nesting.
func (c *Chunk) Print() {
	fmt.Println(c.tree().String())
}

func (c *Chunk) tree() treeprint.Tree {
	root := treeprint.New()
	for i := 0; i < c.Card(); i++ {
		row := root.AddBranch(fmt.Sprintf("row %d", i))
		for j := 0; j < c.ColumnCount(); j++ {
			addValueNode(row, fmt.Sprintf("col %d", j), c.Data[j].GetValue(i))
		}
	}
	return root
}

func addValueNode(parent treeprint.Tree, label string, val *Value) {
	switch {
	case val.IsNull:
		parent.AddNode(label + ": NULL")
	case val.List != nil:
		branch := parent.AddBranch(label)
		for i, elem := range val.List {
			addValueNode(branch, fmt.Sprintf("[%d]", i), &elem)
		}
	case val.Map != nil:
		branch := parent.AddBranch(label)
		for i, entry := range val.Map {
			pair := branch.AddBranch(fmt.Sprintf("[%d]", i))
			addValueNode(pair, "key", &entry.Key)
			addValueNode(pair, "value", &entry.Value)
		}
	case val.Struct != nil:
		branch := parent.AddBranch(label)
		for name, field := range val.Struct {
			field := field
			addValueNode(branch, name, &field)
		}
	default:
		parent.AddNode(label + ": " + val.String())
	}
}

func (c *Chunk) Print2(rwoPrefix string) {
	util.Info(rwoPrefix, zap.String("chunk", c.tree().String()))
}

func (c *Chunk) SliceItself(sel *SelectVector, cnt int) {
	c.Count = cnt
	cache := NewSelCache()
	for i := 0; i < c.ColumnCount(); i++ {
		c.Data[i].SliceOnSelf(sel, cnt, cache)
	}
}

func (c *Chunk) Hash(result *Vector) {
	util.AssertFunc(result.Typ().Id == common.HashType().Id)
	HashTypeSwitch(c.Data[0], result, nil, c.Card(), false)
	for i := 1; i < c.ColumnCount(); i++ {
		CombineHashTypeSwitch(result, c.Data[i], nil, c.Card(), false)
	}
}

func (c *Chunk) Serialize(serial util.Serialize) error {
	//save row count
	err := util.Write[uint32](uint32(c.Card()), serial)
	if err != nil {
		return err
	}
	//save column count
	err = util.Write[uint32](uint32(c.ColumnCount()), serial)
	if err != nil {
		return err
	}
	//save column types
	for i := 0; i < c.ColumnCount(); i++ {
		err = c.Data[i].Typ().Serialize(serial)
		if err != nil {
			return err
		}
	}
	//save column data
	for i := 0; i < c.ColumnCount(); i++ {
		err = c.Data[i].Serialize(c.Card(), serial)
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Chunk) SaveToFile(resFile *os.File) (err error) {
	rowCnt := c.Card()
	colCnt := c.ColumnCount()
	for i := 0; i < rowCnt; i++ {
		for j := 0; j < colCnt; j++ {
			val := c.Data[j].GetValue(i)
			_, err = resFile.WriteString(val.String())
			if err != nil {
				return err
			}
			if j == colCnt-1 {
				continue
			}
			_, err = resFile.WriteString("\t")
			if err != nil {
				return err
			}
		}
		_, err = resFile.WriteString("\n")
		if err != nil {
			return err
		}
	}
	return nil
}

func (c *Chunk) Deserialize(deserial util.Deserialize) error {
	//read row count
	rowCnt := uint32(0)
	err := util.Read[uint32](&rowCnt, deserial)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	//read column count
	colCnt := uint32(0)
	err = util.Read[uint32](&colCnt, deserial)
	if err != nil {
		return err
	}
	//read column types
	typs := make([]common.LType, colCnt)
	for i := uint32(0); i < colCnt; i++ {
		typs[i], err = common.DeserializeLType(deserial)
		if err != nil {
			return err
		}
	}
	if err = c.Init(typs, util.DefaultVectorSize); err != nil {
		return err
	}
	c.SetCard(int(rowCnt))
	//read column data
	for i := uint32(0); i < colCnt; i++ {
		err = c.Data[i].Deserialize(int(rowCnt), deserial)
		if err != nil {
			return err
		}
	}
	return err
}

// SaveToWriter writes every row as tab-separated values to any
// io.Writer. Grounded on SaveToFile's format but against the generic
// io.Writer interface rather than *os.File so callers can target a
// buffer or pipe just as easily.
func (c *Chunk) SaveToWriter(w io.Writer) (err error) {
	rowCnt := c.Card()
	colCnt := c.ColumnCount()
	for i := 0; i < rowCnt; i++ {
		for j := 0; j < colCnt; j++ {
			val := c.Data[j].GetValue(i)
			if _, err = io.WriteString(w, val.String()); err != nil {
				return err
			}
			if j != colCnt-1 {
				if _, err = io.WriteString(w, "\t"); err != nil {
					return err
				}
			}
		}
		if _, err = io.WriteString(w, "\n"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Chunk) Flatten() {
	for i := 0; i < c.ColumnCount(); i++ {
		c.Data[i].Flatten(c.Card())
	}
}

// Copy copies other's rows [offset, offset+count) into c starting at
// dstOffset, growing c's row count to cover them. sel optionally
// reorders/filters the source rows being copied; pass nil to copy them
// in order. Per the DataChunk public API's copy(dest[, selection],
// count, offset).
func (c *Chunk) Copy(other *Chunk, sel *SelectVector, count int, offset int, dstOffset int) error {
	c.owner.Verify()
	if other.ColumnCount() != c.ColumnCount() {
		return chunkerr.OutOfRangef("chunk.Copy", "column count mismatch: got %d, want %d", other.ColumnCount(), c.ColumnCount())
	}
	for i := 0; i < other.ColumnCount(); i++ {
		Copy(other.Data[i], c.Data[i], sel, offset+count, offset, dstOffset)
	}
	c.SetCard(max(c.Card(), dstOffset+count))
	return nil
}

// Append copies every row of other onto the end of c, growing c's row
// count by other's. Per the DataChunk public API's append(other).
func (c *Chunk) Append(other *Chunk) error {
	c.owner.Verify()
	if need := c.Card() + other.Card(); need > c._Cap {
		for _, vec := range c.Data {
			reserveVector(vec, need)
		}
		c._Cap = need
	}
	return c.Copy(other, nil, other.Card(), 0, c.Card())
}

// Move transfers other's backing vectors and caches into c, leaving
// other empty, instead of copying row data. Per the DataChunk public
// API's move_into(other) (named Move here since it drains into the
// receiver, mirroring DuckDB's DataChunk::Move semantics of handing
// ownership of the columns across).
func (c *Chunk) Move(other *Chunk) {
	c.owner.Verify()
	c.Data = other.Data
	c.caches = other.caches
	c._Cap = other._Cap
	c.Count = other.Count
	other.Data = nil
	other.caches = nil
	other._Cap = 0
	other.Count = 0
}

// Verify asserts that c.Card() does not exceed util.DefaultVectorSize
// and that every selection index of a dictionary column's first
// c.Card() rows is non-negative. Flat columns' validity masks are read
// but not checked against anything, constant columns are skipped, and
// selection indices are not checked against the child's length. It
// panics via AssertFunc (in every build) rather than returning an
// error, since a failure here means an internal invariant broke, not a
// caller mistake (spec's InvariantViolation kind).
func (c *Chunk) Verify() {
	c.owner.Verify()
	util.AssertFunc(c.Card() <= util.DefaultVectorSize)
	for _, vec := range c.Data {
		switch vec.PhyFormat() {
		case PF_CONST:
		case PF_FLAT:
			if !vec.Mask.AllValid() {
				for i := 0; i < c.Card(); i++ {
					_ = vec.Mask.RowIsValid(uint64(i))
				}
			}
		case PF_DICT:
			sel := GetSelVectorInPhyFormatDict(vec)
			for i := 0; i < c.Card(); i++ {
				util.AssertFunc(sel.GetIndex(i) >= 0)
			}
		}
	}
}
