package interchange

import (
	"fmt"
	"strings"

	pqLocal "github.com/xitongsys/parquet-go-source/local"
	pqWriter "github.com/xitongsys/parquet-go/writer"

	"github.com/daviszhen/plan/pkg/chunk"
	"github.com/daviszhen/plan/pkg/chunkerr"
	"github.com/daviszhen/plan/pkg/common"
)

// WriteParquet is a supplementary sink alongside Export: it drains a
// sequence of chunks (all sharing types) to a Parquet file on disk.
// Grounded on the teacher's read-side usage of xitongsys/parquet-go in
// its now-deleted pkg/compute/executor_scan.go (pqLocal.
// NewLocalFileReader + pqReader.NewParquetColumnReader +
// ReadColumnByIndex); this is the writer-side mirror the teacher never
// needed, built against the same library's column-writer API
// (NewParquetColumnWriter + WriteColumnByIndex) rather than its
// struct-tag row writer, to stay column-oriented like the rest of this
// package.
//
// Scope: scalar column types only. A chunk carrying a LIST/STRUCT/MAP
// column is rejected with chunkerr.UnsupportedType — Parquet's own
// nested-schema JSON (repeated groups, optional wrappers per level) is
// a large surface on its own, and nothing in the spec's testable
// properties exercises it; the interchange Array/Schema path is the
// one nested types are required to work over.
func WriteParquet(path string, names []string, types []common.LType, chunks []*chunk.Chunk) error {
	if len(names) != len(types) {
		return chunkerr.OutOfRangef("interchange.WriteParquet", "%d names for %d columns", len(names), len(types))
	}
	schema, err := parquetSchemaJSON(names, types)
	if err != nil {
		return err
	}

	fw, err := pqLocal.NewLocalFileWriter(path)
	if err != nil {
		return chunkerr.Allocationf("interchange.WriteParquet", err)
	}
	pw, err := pqWriter.NewParquetColumnWriter(fw, schema, 1)
	if err != nil {
		_ = fw.Close()
		return chunkerr.Wrap(chunkerr.UnsupportedType, "interchange.WriteParquet", "schema rejected by parquet-go", err)
	}

	for _, c := range chunks {
		c.Flatten()
		count := c.Card()
		for col := 0; col < len(types); col++ {
			vec := c.Data[col]
			mask := chunk.GetMaskInPhyFormatFlat(vec)
			for row := 0; row < count; row++ {
				val := parquetCellValue(vec, types[col], row, mask.RowIsValid(uint64(row)))
				if err := pw.WriteColumnByIndex(int64(col), val); err != nil {
					_ = pw.WriteStop()
					_ = fw.Close()
					return chunkerr.Wrap(chunkerr.Allocation, "interchange.WriteParquet", "write cell failed", err)
				}
			}
		}
	}

	if err := pw.WriteStop(); err != nil {
		_ = fw.Close()
		return chunkerr.Wrap(chunkerr.Allocation, "interchange.WriteParquet", "flush failed", err)
	}
	return fw.Close()
}

func parquetSchemaJSON(names []string, types []common.LType) (string, error) {
	fields := make([]string, len(types))
	for i, t := range types {
		tag, err := parquetTag(names[i], t)
		if err != nil {
			return "", err
		}
		fields[i] = tag
	}
	return fmt.Sprintf(`{"Tag":"name=root, repetitiontype=REQUIRED","Fields":[%s]}`, strings.Join(fields, ",")), nil
}

func parquetTag(name string, t common.LType) (string, error) {
	var pt string
	switch t.GetInternalType() {
	case common.BOOL:
		pt = "type=BOOLEAN"
	case common.INT8, common.INT16, common.INT32:
		pt = "type=INT32"
	case common.UINT8, common.UINT16, common.UINT32:
		pt = "type=INT32, convertedtype=UINT_32"
	case common.INT64:
		pt = "type=INT64"
	case common.UINT64:
		pt = "type=INT64, convertedtype=UINT_64"
	case common.FLOAT:
		pt = "type=FLOAT"
	case common.DOUBLE:
		pt = "type=DOUBLE"
	case common.VARCHAR:
		pt = "type=BYTE_ARRAY, convertedtype=UTF8"
	case common.DATE:
		pt = "type=INT32, convertedtype=DATE"
	default:
		return "", chunkerr.UnsupportedTypef("interchange.parquetTag", "column %q: type %v has no parquet mapping", name, t)
	}
	return fmt.Sprintf(`{"Tag":"name=%s, %s, repetitiontype=OPTIONAL"}`, name, pt), nil
}

// parquetCellValue converts one row's logical value into the Go
// primitive xitongsys/parquet-go's column writer expects for the
// tag parquetTag produced for this column's type. A null cell is nil:
// the OPTIONAL repetition type in the tag lets the writer encode
// absence without a sentinel value.
func parquetCellValue(vec *chunk.Vector, t common.LType, row int, valid bool) any {
	if !valid {
		return nil
	}
	switch t.GetInternalType() {
	case common.BOOL:
		return chunk.GetSliceInPhyFormatFlat[bool](vec)[row]
	case common.INT8:
		return int32(chunk.GetSliceInPhyFormatFlat[int8](vec)[row])
	case common.INT16:
		return int32(chunk.GetSliceInPhyFormatFlat[int16](vec)[row])
	case common.INT32:
		return chunk.GetSliceInPhyFormatFlat[int32](vec)[row]
	case common.UINT8:
		return int32(chunk.GetSliceInPhyFormatFlat[uint8](vec)[row])
	case common.UINT16:
		return int32(chunk.GetSliceInPhyFormatFlat[uint16](vec)[row])
	case common.UINT32:
		return int32(chunk.GetSliceInPhyFormatFlat[uint32](vec)[row])
	case common.INT64:
		return chunk.GetSliceInPhyFormatFlat[int64](vec)[row]
	case common.UINT64:
		return int64(chunk.GetSliceInPhyFormatFlat[uint64](vec)[row])
	case common.FLOAT:
		return chunk.GetSliceInPhyFormatFlat[float32](vec)[row]
	case common.DOUBLE:
		return chunk.GetSliceInPhyFormatFlat[float64](vec)[row]
	case common.VARCHAR:
		return chunk.GetSliceInPhyFormatFlat[common.String](vec)[row].String()
	case common.DATE:
		d := chunk.GetSliceInPhyFormatFlat[common.Date](vec)[row]
		return int32(d.ToDate().Unix() / 86400)
	default:
		return nil
	}
}
