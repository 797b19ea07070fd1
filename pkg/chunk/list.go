package chunk

import (
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

// NewListVector builds a LIST vector whose rows are (offset,length)
// entries into a single child vector holding every element of every
// row. Grounded on original_source's data_chunk.cpp SetList, which
// reads the child element type off the parent LTID_LIST type to build
// the child vector the same way.
func NewListVector(lTyp common.LType, cap int) *Vector {
	vec := NewVector2(lTyp, cap)
	child := NewVectorForType(lTyp.ListTypeChildType(), util.DefaultVectorSize)
	vec.Aux = NewChildBuffer(child)
	return vec
}

// ListVectorGetEntries returns the (offset,length) slots of a LIST
// vector, one per row.
func ListVectorGetEntries(vec *Vector) []common.ListEntry {
	switch vec.PhyFormat() {
	case PF_CONST:
		return GetSliceInPhyFormatConst[common.ListEntry](vec)
	case PF_FLAT:
		return GetSliceInPhyFormatFlat[common.ListEntry](vec)
	default:
		panic("usp")
	}
}

// ListVectorGetChild returns the vector holding every element across
// every row of the LIST vector.
func ListVectorGetChild(vec *Vector) *Vector {
	util.AssertFunc(vec.Aux != nil && vec.Aux.BufTyp == VBT_CHILD)
	return vec.Aux.Child
}

// ListVectorGetSize returns how many of the child vector's slots are
// currently occupied. The child vector itself has no independent row
// count (it is not bound by a Chunk's Card); the occupied length is
// tracked on the Aux buffer instead, mirroring DuckDB's
// ListBuffer::size_.
func ListVectorGetSize(vec *Vector) int {
	util.AssertFunc(vec.Aux != nil && vec.Aux.BufTyp == VBT_CHILD)
	return vec.Aux.Size
}

func ListVectorSetSize(vec *Vector, size int) {
	util.AssertFunc(vec.Aux != nil && vec.Aux.BufTyp == VBT_CHILD)
	vec.Aux.Size = size
}

// ListVectorReserve grows the child vector's backing buffer so it can
// hold at least reqCap elements, reallocating and copying forward if
// needed. The child vector's own declared capacity is tracked via its
// Buf.Data length divided by the element's physical size.
func ListVectorReserve(vec *Vector, reqCap int) {
	reserveVector(ListVectorGetChild(vec), reqCap)
}

// reserveVector grows v's backing buffer(s) to hold at least reqCap
// rows, recursing into STRUCT field vectors (a MAP's child is a
// {key,value} struct, not a scalar) since those carry no buffer of
// their own to resize.
func reserveVector(v *Vector, reqCap int) {
	if v.Typ().GetInternalType() == common.STRUCT {
		for _, child := range StructVectorGetChildren(v) {
			reserveVector(child, reqCap)
		}
		return
	}
	elemSize := v.Typ().GetInternalType().Size()
	if elemSize == 0 {
		return
	}
	curCap := len(v.Buf.Data) / elemSize
	if reqCap <= curCap {
		return
	}
	newCap := curCap
	if newCap == 0 {
		newCap = util.DefaultVectorSize
	}
	for newCap < reqCap {
		newCap *= 2
	}
	newBuf := NewStandardBuffer(v.Typ(), newCap)
	copy(newBuf.Data, v.Buf.Data)
	v.Buf = newBuf
	v.Data = newBuf.Data
	v.Mask.Resize(curCap, newCap)
}

// ListVectorAppend copies elems onto the end of the LIST vector's
// child vector and returns the (offset,length) entry describing them,
// growing the child vector first if it would overflow.
func ListVectorAppend(vec *Vector, elems []Value) common.ListEntry {
	child := ListVectorGetChild(vec)
	offset := ListVectorGetSize(vec)
	ListVectorReserve(vec, offset+len(elems))
	for i, v := range elems {
		child.SetValue(offset+i, &v)
	}
	ListVectorSetSize(vec, offset+len(elems))
	return common.ListEntry{Offset: uint64(offset), Length: uint64(len(elems))}
}

// ListVectorGetValues reads back the element values described by
// entry out of the LIST vector's child vector.
func ListVectorGetValues(vec *Vector, entry common.ListEntry) []Value {
	child := ListVectorGetChild(vec)
	ret := make([]Value, entry.Length)
	for i := range ret {
		ret[i] = *child.GetValue(int(entry.Offset) + i)
	}
	return ret
}
