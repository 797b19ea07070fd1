package interchange

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/plan/pkg/chunk"
	"github.com/daviszhen/plan/pkg/chunkerr"
	"github.com/daviszhen/plan/pkg/common"
)

func TestWriteParquetScalarColumns(t *testing.T) {
	tmp, err := os.CreateTemp("", "chunk-*.parquet")
	require.NoError(t, err)
	path := tmp.Name()
	_ = tmp.Close()
	defer os.Remove(path)

	types := []common.LType{common.IntegerType(), common.VarcharType(), common.BooleanType()}
	names := []string{"id", "name", "flag"}
	c := &chunk.Chunk{}
	require.NoError(t, c.Init(types, 2))
	c.Data[0].SetValue(0, &chunk.Value{Typ: common.IntegerType(), I64: 1})
	c.Data[0].SetValue(1, &chunk.Value{Typ: common.IntegerType(), IsNull: true})
	c.Data[1].SetValue(0, &chunk.Value{Typ: common.VarcharType(), Str: "a"})
	c.Data[1].SetValue(1, &chunk.Value{Typ: common.VarcharType(), Str: "b"})
	c.Data[2].SetValue(0, &chunk.Value{Typ: common.BooleanType(), Bool: true})
	c.Data[2].SetValue(1, &chunk.Value{Typ: common.BooleanType(), Bool: false})
	c.SetCard(2)

	err = WriteParquet(path, names, types, []*chunk.Chunk{c})
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestWriteParquetRejectsNestedType(t *testing.T) {
	types := []common.LType{common.ListType(common.IntegerType())}
	names := []string{"items"}
	c := &chunk.Chunk{}
	require.NoError(t, c.Init(types, 1))
	c.Data[0].SetValue(0, &chunk.Value{
		Typ:  types[0],
		List: []chunk.Value{{Typ: common.IntegerType(), I64: 1}},
	})
	c.SetCard(1)

	err := WriteParquet(os.TempDir()+"/should-not-be-created.parquet", names, types, []*chunk.Chunk{c})
	require.Error(t, err)
	assert.True(t, chunkerr.Is(err, chunkerr.UnsupportedType))
}

func TestWriteParquetNameCountMismatch(t *testing.T) {
	types := []common.LType{common.IntegerType()}
	err := WriteParquet("ignored.parquet", []string{"a", "b"}, types, nil)
	require.Error(t, err)
	assert.True(t, chunkerr.Is(err, chunkerr.OutOfRange))
}
