package interchange

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/plan/pkg/chunk"
	"github.com/daviszhen/plan/pkg/chunkerr"
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

func singleColumnChunk(t *testing.T, lt common.LType, rows int) *chunk.Chunk {
	t.Helper()
	c := &chunk.Chunk{}
	require.NoError(t, c.Init([]common.LType{lt}, rows))
	c.SetCard(rows)
	return c
}

// Export of ["", "hi", NULL, "world"] must produce offsets [0,0,2,2,7],
// a "hiworld" heap, validity bit 2 cleared, and null_count=-1.
func TestExportVarcharOffsetsAndHeap(t *testing.T) {
	c := singleColumnChunk(t, common.VarcharType(), 4)
	vals := []struct {
		s    string
		null bool
	}{
		{"", false},
		{"hi", false},
		{"", true},
		{"world", false},
	}
	for i, v := range vals {
		c.Data[0].SetValue(i, &chunk.Value{Typ: common.VarcharType(), Str: v.s, IsNull: v.null})
	}

	arr, sch, err := Export(c)
	require.NoError(t, err)
	defer arr.Release(arr)

	col := arr.Children[0]
	assert.Equal(t, "varchar", sch.Children[0].Format)
	assert.Equal(t, int64(3), col.NBuffers)
	assert.Equal(t, int64(-1), col.NullCount)

	offsets := util.PointerToSlice[uint32](col.Buffers[1], 5)
	assert.Equal(t, []uint32{0, 0, 2, 2, 7}, offsets)

	heap := util.PointerToSlice[byte](col.Buffers[2], 7)
	assert.Equal(t, "hiworld", string(heap))

	validity := util.PointerToSlice[byte](col.Buffers[0], 1)
	assert.False(t, util.EntryIsSet(validity[0], 2), "row 2 must be cleared in the validity bitmap")
	assert.True(t, util.EntryIsSet(validity[0], 0))
	assert.True(t, util.EntryIsSet(validity[0], 1))
	assert.True(t, util.EntryIsSet(validity[0], 3))
}

// Export of list<int32> [[1,2],[],NULL,[3]] must produce parent offsets
// [0,2,2,2,3] and a 3-element compacted child [1,2,3].
func TestExportListInt32Compaction(t *testing.T) {
	listTyp := common.ListType(common.IntegerType())
	c := singleColumnChunk(t, listTyp, 4)

	intVal := func(i int64) chunk.Value { return chunk.Value{Typ: common.IntegerType(), I64: i} }
	c.Data[0].SetValue(0, &chunk.Value{Typ: listTyp, List: []chunk.Value{intVal(1), intVal(2)}})
	c.Data[0].SetValue(1, &chunk.Value{Typ: listTyp, List: []chunk.Value{}})
	c.Data[0].SetValue(2, &chunk.Value{Typ: listTyp, IsNull: true})
	c.Data[0].SetValue(3, &chunk.Value{Typ: listTyp, List: []chunk.Value{intVal(3)}})

	arr, sch, err := Export(c)
	require.NoError(t, err)
	defer arr.Release(arr)

	col := arr.Children[0]
	assert.Equal(t, "+l", sch.Children[0].Format)
	assert.Equal(t, int64(1), col.NChildren)

	offsets := util.PointerToSlice[uint32](col.Buffers[1], 5)
	assert.Equal(t, []uint32{0, 2, 2, 2, 3}, offsets)

	child := col.Children[0]
	assert.Equal(t, int64(3), child.Length)
	values := util.PointerToSlice[int32](child.Buffers[1], 3)
	assert.Equal(t, []int32{1, 2, 3}, values)
}

// A map with a null key must be rejected during export rather than
// silently compacted.
func TestExportMapWithNullKeyRejected(t *testing.T) {
	mapTyp := common.MapType(common.VarcharType(), common.IntegerType())
	c := singleColumnChunk(t, mapTyp, 1)

	nullKey := chunk.Value{Typ: common.VarcharType(), IsNull: true}
	val := chunk.Value{Typ: common.IntegerType(), I64: 1}
	c.Data[0].SetValue(0, &chunk.Value{
		Typ: mapTyp,
		Map: []chunk.MapEntry{{Key: nullKey, Value: val}},
	})

	arr, _, err := Export(c)
	require.Error(t, err)
	assert.Nil(t, arr)
	assert.True(t, chunkerr.Is(err, chunkerr.NullConstraintViolation), "want NullConstraintViolation, got %v", err)
}

// A well-formed map (no null keys) exports cleanly as a +m array over a
// {key,value} struct child.
func TestExportMapWithoutNullKey(t *testing.T) {
	mapTyp := common.MapType(common.VarcharType(), common.IntegerType())
	c := singleColumnChunk(t, mapTyp, 1)

	key := chunk.Value{Typ: common.VarcharType(), Str: "a"}
	val := chunk.Value{Typ: common.IntegerType(), I64: 1}
	c.Data[0].SetValue(0, &chunk.Value{
		Typ: mapTyp,
		Map: []chunk.MapEntry{{Key: key, Value: val}},
	})

	arr, sch, err := Export(c)
	require.NoError(t, err)
	defer arr.Release(arr)

	col := arr.Children[0]
	assert.Equal(t, "+m", sch.Children[0].Format)
	assert.Equal(t, "+s", sch.Children[0].Children[0].Format)
}

// The release callback must free allocations exactly once and tolerate
// being invoked again (the C Data Interface's idempotent-release rule).
func TestExportReleaseIsIdempotent(t *testing.T) {
	c := singleColumnChunk(t, common.IntegerType(), 3)
	for i := 0; i < 3; i++ {
		c.Data[0].SetValue(i, &chunk.Value{Typ: common.IntegerType(), I64: int64(i)})
	}

	arr, _, err := Export(c)
	require.NoError(t, err)

	release := arr.Release
	assert.NotPanics(t, func() {
		release(arr)
		release(arr)
	})
	assert.Nil(t, arr.Release, "Release must clear itself after firing, per the C Data Interface contract")
}

// A column with no nulls at all reports null_count=0, not -1.
func TestExportNullCountZeroWhenAllValid(t *testing.T) {
	c := singleColumnChunk(t, common.IntegerType(), 2)
	c.Data[0].SetValue(0, &chunk.Value{Typ: common.IntegerType(), I64: 1})
	c.Data[0].SetValue(1, &chunk.Value{Typ: common.IntegerType(), I64: 2})

	arr, _, err := Export(c)
	require.NoError(t, err)
	defer arr.Release(arr)

	assert.Equal(t, int64(0), arr.Children[0].NullCount)
}

func TestExportStructChildren(t *testing.T) {
	structTyp := common.StructType([]string{"a", "b"}, []common.LType{common.IntegerType(), common.VarcharType()})
	c := singleColumnChunk(t, structTyp, 1)
	c.Data[0].SetValue(0, &chunk.Value{
		Typ: structTyp,
		Struct: map[string]chunk.Value{
			"a": {Typ: common.IntegerType(), I64: 7},
			"b": {Typ: common.VarcharType(), Str: "x"},
		},
	})

	arr, sch, err := Export(c)
	require.NoError(t, err)
	defer arr.Release(arr)

	col := arr.Children[0]
	assert.Equal(t, "+s", sch.Children[0].Format)
	assert.Equal(t, int64(1), col.NBuffers)
	assert.Equal(t, int64(2), col.NChildren)
}
