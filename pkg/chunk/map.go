package chunk

import (
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

// mapEntryType builds the synthetic {key, value} STRUCT type backing
// a MAP vector's child. Physically a MAP is a LIST of these entries
// (GetInternalType maps LTID_MAP to LIST, same as DuckDB), but the
// LTID_MAP logical type itself only carries the bare key/value types
// (common.MapType), not the wrapping struct/list — so the child vector
// is built directly here rather than by going through ListType/NewListVector.
func mapEntryType(lTyp common.LType) common.LType {
	return common.StructType(
		[]string{"key", "value"},
		[]common.LType{lTyp.MapTypeKeyType(), lTyp.MapTypeValueType()},
	)
}

// NewMapVector builds a MAP vector: a flat buffer of (offset,length)
// entries (same physical shape as LIST) over a child struct vector.
func NewMapVector(lTyp common.LType, cap int) *Vector {
	vec := NewVector2(lTyp, cap)
	child := NewStructVector(mapEntryType(lTyp), util.DefaultVectorSize)
	vec.Aux = NewChildBuffer(child)
	return vec
}

// MapVectorGetEntries returns the (offset,length) slots of a MAP
// vector, one per row — same physical shape as a LIST vector.
func MapVectorGetEntries(vec *Vector) []common.ListEntry {
	return ListVectorGetEntries(vec)
}

// MapVectorAppend appends the given key/value pairs as one row's
// {key,value} struct entries and returns the (offset,length) slot
// describing them.
func MapVectorAppend(vec *Vector, entries []MapEntry) common.ListEntry {
	child := ListVectorGetChild(vec)
	offset := ListVectorGetSize(vec)
	ListVectorReserve(vec, offset+len(entries))
	for i, e := range entries {
		fields := map[string]Value{"key": e.Key, "value": e.Value}
		sv := NewStructValue(
			child.Typ().ChildrenNames,
			child.Typ().Children,
			fields,
		)
		child.SetValue(offset+i, &sv)
	}
	ListVectorSetSize(vec, offset+len(entries))
	return common.ListEntry{Offset: uint64(offset), Length: uint64(len(entries))}
}

// MapVectorGetValues reads back the key/value pairs described by
// entry out of the MAP vector's child struct vector.
func MapVectorGetValues(vec *Vector, entry common.ListEntry) []MapEntry {
	child := ListVectorGetChild(vec)
	ret := make([]MapEntry, entry.Length)
	for i := range ret {
		v := child.GetValue(int(entry.Offset) + i)
		ret[i] = MapEntry{Key: v.Struct["key"], Value: v.Struct["value"]}
	}
	return ret
}
