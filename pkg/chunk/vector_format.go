package chunk

import (
	"unsafe"

	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

// Format conversion methods for Vector
func (vec *Vector) Flatten(cnt int) {
	switch vec.PhyFormat() {
	case PF_FLAT:
	case PF_CONST:
		null := IsNullInPhyFormatConst(vec)
		oldData := vec.Data
		vec.Buf = NewStandardBuffer(vec._Typ, int(max(util.DefaultVectorSize, cnt)))
		vec.Data = vec.Buf.Data
		vec._PhyFormat = PF_FLAT
		if null {
			vec.Mask.SetAllInvalid(cnt)
			return
		}
		//fill flat vector
		pTyp := vec.Typ().GetInternalType()
		switch pTyp {
		case common.BOOL:
			FlattenConstVector[bool](vec.Data, oldData, pTyp.Size(), cnt)
		case common.UINT8:
			FlattenConstVector[uint8](vec.Data, oldData, pTyp.Size(), cnt)
		case common.INT8:
			FlattenConstVector[int8](vec.Data, oldData, pTyp.Size(), cnt)
		case common.UINT16:
			FlattenConstVector[uint16](vec.Data, oldData, pTyp.Size(), cnt)
		case common.INT16:
			FlattenConstVector[int16](vec.Data, oldData, pTyp.Size(), cnt)
		case common.UINT32:
			FlattenConstVector[uint32](vec.Data, oldData, pTyp.Size(), cnt)
		case common.INT32:
			FlattenConstVector[int32](vec.Data, oldData, pTyp.Size(), cnt)
		case common.UINT64:
			FlattenConstVector[uint64](vec.Data, oldData, pTyp.Size(), cnt)
		case common.INT64:
			FlattenConstVector[int64](vec.Data, oldData, pTyp.Size(), cnt)
		case common.FLOAT:
			FlattenConstVector[float32](vec.Data, oldData, pTyp.Size(), cnt)
		case common.DOUBLE:
			FlattenConstVector[float64](vec.Data, oldData, pTyp.Size(), cnt)
		case common.VARCHAR:
			FlattenConstVector[common.String](vec.Data, oldData, pTyp.Size(), cnt)
		case common.INT128:
			FlattenConstVector[common.Hugeint](vec.Data, oldData, pTyp.Size(), cnt)
		case common.INTERVAL:
			FlattenConstVector[common.Interval](vec.Data, oldData, pTyp.Size(), cnt)
		case common.DATE:
			FlattenConstVector[common.Date](vec.Data, oldData, pTyp.Size(), cnt)
		case common.DECIMAL:
			FlattenConstVector[common.Decimal](vec.Data, oldData, pTyp.Size(), cnt)
		case common.POINTER:
			FlattenConstVector[unsafe.Pointer](vec.Data, oldData, pTyp.Size(), cnt)
		case common.LIST:
			FlattenConstVector[common.ListEntry](vec.Data, oldData, pTyp.Size(), cnt)
			// The single referenced list row's data already lives in
			// the shared child vector at its original offset; every
			// flattened row's entry points at that same range, so no
			// child vector work is needed here.
		case common.STRUCT:
			// STRUCT carries no value buffer of its own (Size()==0);
			// broadcasting means flattening each field vector from
			// its single populated row out to cnt rows.
			for _, child := range StructVectorGetChildren(vec) {
				child.SetPhyFormat(PF_CONST)
				child.Flatten(cnt)
			}
		default:
			panic("usp")
		}
	case PF_DICT:
		// A dictionary vector's own data is the selection vector, not
		// row data — flattening means resolving every selected row out
		// of the (possibly itself non-flat) child into a fresh flat
		// buffer.
		sel := GetSelVectorInPhyFormatDict(vec)
		child := GetChildInPhyFormatDict(vec)
		if !child.PhyFormat().IsFlat() {
			child.Flatten(cnt)
		}
		vec.Buf = NewStandardBuffer(vec._Typ, max(util.DefaultVectorSize, cnt))
		vec.Data = vec.Buf.Data
		vec.Aux = nil
		vec._PhyFormat = PF_FLAT
		vec.Mask.Reset()
		for i := 0; i < cnt; i++ {
			srcIdx := sel.GetIndex(i)
			vec.SetValue(i, child.GetValue(srcIdx))
		}
	}
}

// Flatten2 resolves vec (which may still be constant or another
// dictionary) into a flat vector of cnt rows selected through sel. It
// exists separately from Flatten because the caller (ToUnifiedFormat,
// resolving a dictionary whose child is itself non-flat) already has
// the selection it needs to apply and must not have Flatten silently
// pick its own identity selection instead.
func (vec *Vector) Flatten2(sel *SelectVector, cnt int) {
	if vec.PhyFormat().IsFlat() {
		return
	}
	if vec.PhyFormat().IsConst() {
		vec.Flatten(cnt)
		return
	}
	util.AssertFunc(vec.PhyFormat().IsDict())
	dictSel := GetSelVectorInPhyFormatDict(vec)
	child := GetChildInPhyFormatDict(vec)
	if !child.PhyFormat().IsFlat() {
		child.Flatten2(dictSel, cnt)
	}
	vec.Buf = NewStandardBuffer(vec._Typ, max(util.DefaultVectorSize, cnt))
	vec.Data = vec.Buf.Data
	vec.Aux = nil
	vec._PhyFormat = PF_FLAT
	vec.Mask.Reset()
	for i := 0; i < cnt; i++ {
		srcIdx := dictSel.GetIndex(sel.GetIndex(i))
		vec.SetValue(i, child.GetValue(srcIdx))
	}
}

func (vec *Vector) ToUnifiedFormat(count int, output *UnifiedFormat) {
	output.PTypSize = vec._Typ.GetInternalType().Size()
	switch vec.PhyFormat() {
	case PF_DICT:
		sel := GetSelVectorInPhyFormatDict(vec)
		child := GetChildInPhyFormatDict(vec)
		if child.PhyFormat().IsFlat() {
			output.Sel = sel
			output.Data = GetDataInPhyFormatFlat(child)
			output.Mask = GetMaskInPhyFormatFlat(child)
		} else {
			//flatten child
			childVec := &Vector{
				_Typ: child._Typ,
			}
			childVec.Reference(child)
			childVec.Flatten2(sel, count)
			childBuf := NewChildBuffer(childVec)
			output.Sel = sel
			output.Data = GetDataInPhyFormatFlat(childBuf.Child)
			output.Mask = GetMaskInPhyFormatFlat(childBuf.Child)
			vec.Aux = childVec.Aux
		}
	case PF_CONST:
		output.Sel = ZeroSelectVectorInPhyFormatConst(count, &output.InterSel)
		output.Data = GetDataInPhyFormatConst(vec)
		output.Mask = GetMaskInPhyFormatConst(vec)
	case PF_FLAT:
		vec.Flatten(count)
		output.Sel = IncrSelectVectorInPhyFormatFlat()
		output.Data = GetDataInPhyFormatFlat(vec)
		output.Mask = GetMaskInPhyFormatFlat(vec)
	}
}

// SliceOnSelf composes vec's current selection (if any) with sel so
// that vec ends up representing exactly the count rows sel selects.
// cache is optional (nil disables memoization): when set, composing a
// dictionary vector's selection with sel is looked up/stored keyed by
// the vector's prior selection vector, so multiple columns sliced
// through the same prior dictionary selection in one Chunk.Slice call
// share the composed result instead of recomputing it per column.
func (vec *Vector) SliceOnSelf(sel *SelectVector, count int, cache *SelCache) {
	if vec.PhyFormat().IsConst() {
	} else if vec.PhyFormat().IsDict() {
		//dict
		curSel := GetSelVectorInPhyFormatDict(vec)
		var composed *SelectVector
		if cache != nil {
			composed = cache.GetOrCompute(curSel, sel, count)
		} else {
			composed = &SelectVector{}
			composed.Init3(curSel.Slice(sel, count))
		}
		vec.Buf = &VecBuffer{BufTyp: VBT_DICT, Sel: composed}
	} else {
		//flat
		child := &Vector{
			_Typ: vec.Typ(),
		}
		child.Reference(vec)
		childRef := NewChildBuffer(child)
		dictBuf := &VecBuffer{BufTyp: VBT_DICT, Sel: sel}
		vec._PhyFormat = PF_DICT
		vec.Buf = dictBuf
		vec.Aux = childRef
	}
}

func (vec *Vector) Slice2(sel *SelectVector, count int, cache *SelCache) {
	vec.SliceOnSelf(sel, count, cache)
}

func (vec *Vector) Slice(other *Vector, sel *SelectVector, count int, cache *SelCache) {
	vec.Reference(other)
	vec.SliceOnSelf(sel, count, cache)
}

func (vec *Vector) Slice3(other *Vector, offset uint64, end uint64) {
	if other.PhyFormat().IsConst() {
		vec.Reference(other)
		return
	}
	util.AssertFunc(other.PhyFormat().IsFlat())
	interTyp := vec.Typ().GetInternalType()
	if interTyp == common.STRUCT {
		vec.Reference(other)
		if offset > 0 {
			vec.Mask.Slice(other.Mask, offset, end-offset)
			otherChildren := StructVectorGetChildren(other)
			slicedChildren := make([]*Vector, len(otherChildren))
			for i, oc := range otherChildren {
				sc := &Vector{Mask: &util.Bitmap{}}
				sc.Slice3(oc, offset, end)
				slicedChildren[i] = sc
			}
			vec.Aux = NewStructBuffer(slicedChildren)
		}
	} else {
		vec.Reference(other)
		if offset > 0 {
			vec.Data = vec.Data[offset*uint64(interTyp.Size()):]
			vec.Mask.Slice(other.Mask, offset, end-offset)
		}
	}
}

// Helper functions for format conversion
func FlattenConstVector[T any](data []byte, srcData []byte, pSize int, cnt int) {
	src := util.ToSlice[T](srcData, pSize)
	dst := util.ToSlice[T](data, pSize)
	for i := 0; i < cnt; i++ {
		dst[i] = src[0]
	}
}
