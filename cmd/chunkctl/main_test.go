package main

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviszhen/plan/pkg/chunk"
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

func writeChunkFile(t *testing.T) string {
	t.Helper()
	tmp, err := os.CreateTemp("", "chunkctl-*.chunk")
	require.NoError(t, err)
	path := tmp.Name()
	_ = tmp.Close()
	t.Cleanup(func() { os.Remove(path) })

	c := &chunk.Chunk{}
	require.NoError(t, c.Init([]common.LType{common.IntegerType(), common.VarcharType()}, 2))
	c.Data[0].SetValue(0, &chunk.Value{Typ: common.IntegerType(), I64: 1})
	c.Data[0].SetValue(1, &chunk.Value{Typ: common.IntegerType(), I64: 2})
	c.Data[1].SetValue(0, &chunk.Value{Typ: common.VarcharType(), Str: "a"})
	c.Data[1].SetValue(1, &chunk.Value{Typ: common.VarcharType(), Str: "b"})
	c.SetCard(2)

	serial, err := util.NewFileSerialize(path)
	require.NoError(t, err)
	require.NoError(t, c.Serialize(serial))
	require.NoError(t, serial.Close())
	return path
}

func TestRunInspectRequiresPath(t *testing.T) {
	err := runInspect("")
	assert.Error(t, err)
}

func TestRunInspectReadsChunkFile(t *testing.T) {
	path := writeChunkFile(t)
	assert.NoError(t, runInspect(path))
}

func TestRunExportArrowFormat(t *testing.T) {
	path := writeChunkFile(t)
	err := runExport(util.ExportOptions{Path: path, Format: "arrow"})
	assert.NoError(t, err)
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := writeChunkFile(t)
	err := runExport(util.ExportOptions{Path: path, Format: "csv"})
	assert.Error(t, err)
}

func TestRunExportParquetRequiresOut(t *testing.T) {
	path := writeChunkFile(t)
	err := runExport(util.ExportOptions{Path: path, Format: "parquet"})
	assert.Error(t, err)
}

func TestRunExportParquetFormat(t *testing.T) {
	path := writeChunkFile(t)
	out, err := os.CreateTemp("", "chunkctl-*.parquet")
	require.NoError(t, err)
	outPath := out.Name()
	_ = out.Close()
	t.Cleanup(func() { os.Remove(outPath) })

	err = runExport(util.ExportOptions{Path: path, Format: "parquet", Out: outPath})
	assert.NoError(t, err)

	info, err := os.Stat(outPath)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
