package chunk

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/plan/pkg/chunkerr"
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

func newInt32FlatVector(values []int32) *Vector {
	vec := NewFlatVector(common.IntegerType(), len(values))
	data := GetSliceInPhyFormatFlat[int32](vec)
	copy(data, values)
	return vec
}

// Slicing [10,20,30,40,50] by [4,2,0] then by [2,0] yields [10,50], and
// two columns sliced through the same prior selection via one SelCache
// share a single composed selection vector rather than recomputing it.
func TestSliceCompositionSharesCache(t *testing.T) {
	src := []int32{10, 20, 30, 40, 50}
	colA := newInt32FlatVector(src)
	colB := newInt32FlatVector(src)

	sel1 := NewSelectVector3([]int{4, 2, 0})
	colA.SliceOnSelf(sel1, 3, nil)
	colB.SliceOnSelf(sel1, 3, nil)

	cache := NewSelCache()
	sel2 := NewSelectVector3([]int{2, 0})
	curSelA := GetSelVectorInPhyFormatDict(colA)
	colA.SliceOnSelf(sel2, 2, cache)
	colB.SliceOnSelf(sel2, 2, cache)

	// Composing the same (curSel, sel2) pair twice through one SelCache
	// must return the identical *SelectVector both times.
	composedAgain := cache.GetOrCompute(curSelA, sel2, 2)
	composedA := GetSelVectorInPhyFormatDict(colA)
	assert.Same(t, composedAgain, composedA)
	assert.Same(t, composedA, GetSelVectorInPhyFormatDict(colB))

	assert.Equal(t, int64(10), colA.GetValue(0).I64)
	assert.Equal(t, int64(50), colA.GetValue(1).I64)
	assert.Equal(t, int64(10), colB.GetValue(0).I64)
	assert.Equal(t, int64(50), colB.GetValue(1).I64)
}

// A chunk's row hash must be sensitive to which column holds which
// value: rows {a:1,b:2} and {a:2,b:1} hash differently because column
// order matters.
func TestChunkHashIsColumnOrderSensitive(t *testing.T) {
	types := []common.LType{common.IntegerType(), common.IntegerType()}

	c1 := &Chunk{}
	require.NoError(t, c1.Init(types, 1))
	c1.Data[0].SetValue(0, &Value{Typ: common.IntegerType(), I64: 1})
	c1.Data[1].SetValue(0, &Value{Typ: common.IntegerType(), I64: 2})
	c1.SetCard(1)

	c2 := &Chunk{}
	require.NoError(t, c2.Init(types, 1))
	c2.Data[0].SetValue(0, &Value{Typ: common.IntegerType(), I64: 2})
	c2.Data[1].SetValue(0, &Value{Typ: common.IntegerType(), I64: 1})
	c2.SetCard(1)

	h1 := NewFlatVector(common.HashType(), 1)
	h2 := NewFlatVector(common.HashType(), 1)
	c1.Hash(h1)
	c2.Hash(h2)

	assert.NotEqual(t, GetSliceInPhyFormatFlat[uint64](h1)[0], GetSliceInPhyFormatFlat[uint64](h2)[0])
}

// GetValue/SetValue round-trip through a null row for every scalar kind
// exercised by a mixed-primitive row.
func TestMixedPrimitiveRowRoundTrip(t *testing.T) {
	types := []common.LType{common.IntegerType(), common.VarcharType(), common.BooleanType()}
	c := &Chunk{}
	require.NoError(t, c.Init(types, 3))

	rows := [][3]any{
		{int64(1), "a", true},
		{int64(2), "bb", false},
		{nil, "", true},
	}
	for i, row := range rows {
		if row[0] == nil {
			c.Data[0].SetValue(i, &Value{Typ: common.IntegerType(), IsNull: true})
		} else {
			c.Data[0].SetValue(i, &Value{Typ: common.IntegerType(), I64: row[0].(int64)})
		}
		c.Data[1].SetValue(i, &Value{Typ: common.VarcharType(), Str: row[1].(string)})
		c.Data[2].SetValue(i, &Value{Typ: common.BooleanType(), Bool: row[2].(bool)})
	}
	c.SetCard(3)
	c.Verify()

	assert.True(t, c.Data[0].GetValue(2).IsNull)
	assert.Equal(t, int64(1), c.Data[0].GetValue(0).I64)
	assert.Equal(t, int64(2), c.Data[0].GetValue(1).I64)
	assert.Equal(t, "a", c.Data[1].GetValue(0).Str)
	assert.Equal(t, "bb", c.Data[1].GetValue(1).Str)
	assert.Equal(t, "", c.Data[1].GetValue(2).Str)
	assert.True(t, c.Data[2].GetValue(0).Bool)
	assert.False(t, c.Data[2].GetValue(1).Bool)
}

// String edge cases: empty, inline-threshold-crossing (>12 bytes), and
// non-ASCII content must all round-trip through Get/SetValue unchanged.
func TestVarcharEdgeCases(t *testing.T) {
	vec := NewFlatVector(common.VarcharType(), 3)
	cases := []string{"", "this string is over twelve bytes long", "héllo wörld 日本語"}
	for i, s := range cases {
		vec.SetValue(i, &Value{Typ: common.VarcharType(), Str: s})
	}
	for i, s := range cases {
		assert.Equal(t, s, vec.GetValue(i).Str)
	}
}

// A LIST vector with an all-null row, an all-empty-list row, and a
// deeply nested list-of-lists row must all read back correctly.
func TestListVectorEdgeCases(t *testing.T) {
	innerTyp := common.ListType(common.IntegerType())
	outerTyp := common.ListType(innerTyp)
	vec := NewVectorForType(outerTyp, 3)

	intVal := func(i int64) Value { return Value{Typ: common.IntegerType(), I64: i} }
	innerList := func(vals ...int64) Value {
		elems := make([]Value, len(vals))
		for i, v := range vals {
			elems[i] = intVal(v)
		}
		return Value{Typ: innerTyp, List: elems}
	}

	vec.SetValue(0, &Value{Typ: outerTyp, IsNull: true})
	vec.SetValue(1, &Value{Typ: outerTyp, List: []Value{}})
	vec.SetValue(2, &Value{Typ: outerTyp, List: []Value{innerList(1, 2), innerList(3)}})

	assert.True(t, vec.GetValue(0).IsNull)
	assert.Len(t, vec.GetValue(1).List, 0)
	row2 := vec.GetValue(2).List
	if assert.Len(t, row2, 2) {
		assert.Equal(t, []int64{1, 2}, valuesToI64(row2[0].List))
		assert.Equal(t, []int64{3}, valuesToI64(row2[1].List))
	}
}

func valuesToI64(vals []Value) []int64 {
	out := make([]int64, len(vals))
	for i, v := range vals {
		out[i] = v.I64
	}
	return out
}

// Chunk.Copy/Append/Move must preserve row values and counts.
func TestChunkCopyAppendMove(t *testing.T) {
	types := []common.LType{common.IntegerType()}

	src := &Chunk{}
	require.NoError(t, src.Init(types, 3))
	for i, v := range []int64{1, 2, 3} {
		src.Data[0].SetValue(i, &Value{Typ: common.IntegerType(), I64: v})
	}
	src.SetCard(3)

	dst := &Chunk{}
	require.NoError(t, dst.Init(types, 3))
	require.NoError(t, dst.Append(src))
	dst.Verify()
	assert.Equal(t, 3, dst.Card())
	assert.Equal(t, int64(1), dst.Data[0].GetValue(0).I64)
	assert.Equal(t, int64(3), dst.Data[0].GetValue(2).I64)

	require.NoError(t, dst.Append(src))
	assert.Equal(t, 6, dst.Card())
	assert.Equal(t, int64(1), dst.Data[0].GetValue(3).I64)

	moved := &Chunk{}
	moved.Move(dst)
	assert.Equal(t, 6, moved.Card())
	assert.Equal(t, 0, dst.Card())
	assert.Nil(t, dst.Data)
}

// Reset returns a chunk to row_count==0 with flat, cache-backed columns.
func TestChunkResetInvariant(t *testing.T) {
	types := []common.LType{common.IntegerType()}
	c := &Chunk{}
	require.NoError(t, c.Init(types, 4))
	for i := 0; i < 4; i++ {
		c.Data[0].SetValue(i, &Value{Typ: common.IntegerType(), I64: int64(i)})
	}
	c.SetCard(4)

	c.Reset()
	assert.Equal(t, 0, c.Card())
	for _, vec := range c.Data {
		assert.True(t, vec.PhyFormat().IsFlat())
	}
}

// Flattening an already-flat vector is a no-op: same buffers, same values.
func TestFlattenFlatVectorIsIdentity(t *testing.T) {
	vec := newInt32FlatVector([]int32{1, 2, 3})
	before := GetDataInPhyFormatFlat(vec)
	vec.Flatten(3)
	after := GetDataInPhyFormatFlat(vec)
	assert.Equal(t, before, after)
	assert.True(t, vec.PhyFormat().IsFlat())
}

// Boundary row counts: 0, VECTOR_SIZE-1, and VECTOR_SIZE all init/verify
// cleanly.
func TestChunkBoundaryRowCounts(t *testing.T) {
	types := []common.LType{common.IntegerType()}
	for _, n := range []int{0, util.DefaultVectorSize - 1, util.DefaultVectorSize} {
		c := &Chunk{}
		require.NoError(t, c.Init(types, util.DefaultVectorSize))
		for i := 0; i < n; i++ {
			c.Data[0].SetValue(i, &Value{Typ: common.IntegerType(), I64: int64(i)})
		}
		c.SetCard(n)
		c.Verify()
		assert.Equal(t, n, c.Card())
	}
}

// Init rejects an empty type list per the DataChunk public API's
// initialize(types) contract.
func TestChunkInitRejectsEmptyTypes(t *testing.T) {
	c := &Chunk{}
	err := c.Init(nil, util.DefaultVectorSize)
	require.Error(t, err)
	assert.True(t, chunkerr.Is(err, chunkerr.OutOfRange))
	assert.Nil(t, c.Data)
}

// Copy/Append raise OutOfRange, rather than panicking, on a column
// count mismatch between source and destination.
func TestChunkCopyColumnCountMismatch(t *testing.T) {
	dst := &Chunk{}
	require.NoError(t, dst.Init([]common.LType{common.IntegerType()}, 1))

	src := &Chunk{}
	require.NoError(t, src.Init([]common.LType{common.IntegerType(), common.VarcharType()}, 1))
	src.SetCard(0)

	err := dst.Copy(src, nil, 0, 0, 0)
	require.Error(t, err)
	assert.True(t, chunkerr.Is(err, chunkerr.OutOfRange))

	err = dst.Append(src)
	require.Error(t, err)
	assert.True(t, chunkerr.Is(err, chunkerr.OutOfRange))
}

func serializeChunkRoundTrip(t *testing.T, c *Chunk) *Chunk {
	t.Helper()
	tmp, err := os.CreateTemp("", "chunk-serde-*.bin")
	require.NoError(t, err)
	path := tmp.Name()
	_ = tmp.Close()
	t.Cleanup(func() { os.Remove(path) })

	serial, err := util.NewFileSerialize(path)
	require.NoError(t, err)
	require.NoError(t, c.Serialize(serial))
	require.NoError(t, serial.Close())

	deserial, err := util.NewFileDeserialize(path)
	require.NoError(t, err)
	read := &Chunk{}
	require.NoError(t, read.Deserialize(deserial))
	require.NoError(t, deserial.Close())
	return read
}

// Scenario 1: a mixed-primitive chunk [int32, varchar, boolean] with a
// null must round-trip through Serialize/Deserialize — every value,
// including the null, must read back with the same string form.
func TestChunkSerializeDeserializeRoundTrip(t *testing.T) {
	types := []common.LType{common.IntegerType(), common.VarcharType(), common.BooleanType()}
	c := &Chunk{}
	require.NoError(t, c.Init(types, 3))

	c.Data[0].SetValue(0, &Value{Typ: common.IntegerType(), I64: 1})
	c.Data[0].SetValue(1, &Value{Typ: common.IntegerType(), IsNull: true})
	c.Data[0].SetValue(2, &Value{Typ: common.IntegerType(), I64: 3})
	c.Data[1].SetValue(0, &Value{Typ: common.VarcharType(), Str: "a"})
	c.Data[1].SetValue(1, &Value{Typ: common.VarcharType(), Str: "bb"})
	c.Data[1].SetValue(2, &Value{Typ: common.VarcharType(), Str: "ccc"})
	c.Data[2].SetValue(0, &Value{Typ: common.BooleanType(), Bool: true})
	c.Data[2].SetValue(1, &Value{Typ: common.BooleanType(), Bool: false})
	c.Data[2].SetValue(2, &Value{Typ: common.BooleanType(), Bool: true})
	c.SetCard(3)

	read := serializeChunkRoundTrip(t, c)

	require.Equal(t, c.Card(), read.Card())
	require.Equal(t, c.ColumnCount(), read.ColumnCount())
	for col := 0; col < c.ColumnCount(); col++ {
		for row := 0; row < c.Card(); row++ {
			want := c.Data[col].GetValue(row)
			got := read.Data[col].GetValue(row)
			assert.Equal(t, want.IsNull, got.IsNull, "col %d row %d null mismatch", col, row)
			if want.IsNull {
				continue
			}
			assert.Equal(t, want.String(), got.String(), "col %d row %d value mismatch", col, row)
		}
	}
}

// The recursive LIST/STRUCT serialize path (pkg/chunk/vector_serialize.go)
// must round-trip a list<int32> column with a null row and an
// empty-list row, and a struct<a int32, b varchar> column, without
// losing nesting.
func TestChunkSerializeDeserializeListAndStruct(t *testing.T) {
	listTyp := common.ListType(common.IntegerType())
	structTyp := common.StructType([]string{"a", "b"}, []common.LType{common.IntegerType(), common.VarcharType()})
	types := []common.LType{listTyp, structTyp}

	c := &Chunk{}
	require.NoError(t, c.Init(types, 3))

	intVal := func(i int64) Value { return Value{Typ: common.IntegerType(), I64: i} }
	c.Data[0].SetValue(0, &Value{Typ: listTyp, List: []Value{intVal(1), intVal(2)}})
	c.Data[0].SetValue(1, &Value{Typ: listTyp, IsNull: true})
	c.Data[0].SetValue(2, &Value{Typ: listTyp, List: []Value{}})

	c.Data[1].SetValue(0, &Value{Typ: structTyp, Struct: map[string]Value{
		"a": intVal(7),
		"b": {Typ: common.VarcharType(), Str: "x"},
	}})
	c.Data[1].SetValue(1, &Value{Typ: structTyp, Struct: map[string]Value{
		"a": intVal(8),
		"b": {Typ: common.VarcharType(), Str: "y"},
	}})
	c.Data[1].SetValue(2, &Value{Typ: structTyp, Struct: map[string]Value{
		"a": intVal(9),
		"b": {Typ: common.VarcharType(), Str: "z"},
	}})
	c.SetCard(3)

	read := serializeChunkRoundTrip(t, c)

	assert.True(t, read.Data[0].GetValue(1).IsNull)
	assert.Len(t, read.Data[0].GetValue(2).List, 0)
	assert.Equal(t, []int64{1, 2}, valuesToI64(read.Data[0].GetValue(0).List))

	wantRows := []struct {
		a int64
		b string
	}{{7, "x"}, {8, "y"}, {9, "z"}}
	for row, want := range wantRows {
		got := read.Data[1].GetValue(row)
		require.NotNil(t, got.Struct)
		assert.Equal(t, want.a, got.Struct["a"].I64)
		assert.Equal(t, want.b, got.Struct["b"].Str)
	}
}
