package chunk

import (
	"github.com/liyue201/gostl/ds/deque"

	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

// VectorCache lets a Chunk's columns be reset between batches without
// reallocating their backing buffers every time. Grounded on
// original_source's data_chunk.cpp, which builds one VectorCache per
// column type (`VectorCache cache(types[i])`) and calls
// `Vector::ResetFromCache(cache)` on every reuse; the teacher's port
// dropped this entirely — Vector.Reset only clears phy-format and mask
// and leaves Buf/Aux exactly as they were; this is still correct for a
// single fixed-size buffer, but reallocates from scratch whenever a
// vector's format changed shape (e.g. was sliced into a dictionary, or
// a list/struct child grew) since those mutate Buf/Aux in place rather
// than restoring them.
//
// One VectorCache exists per top-level column, with a recursively
// owned child cache for LIST/STRUCT/MAP, since those own independent
// child vectors that need their own reusable buffers.
type VectorCache struct {
	typ      common.LType
	free     *deque.Deque[*VecBuffer]
	children []*VectorCache
}

func NewVectorCache(typ common.LType) *VectorCache {
	vc := &VectorCache{
		typ:  typ,
		free: deque.New[*VecBuffer](),
	}
	switch typ.GetInternalType() {
	case common.LIST:
		if typ.Id == common.LTID_MAP {
			vc.children = []*VectorCache{NewVectorCache(mapEntryType(typ))}
		} else {
			vc.children = []*VectorCache{NewVectorCache(typ.ListTypeChildType())}
		}
	case common.STRUCT:
		vc.children = make([]*VectorCache, typ.StructTypeChildCount())
		for i := range vc.children {
			vc.children[i] = NewVectorCache(typ.StructTypeChildType(i))
		}
	}
	return vc
}

// take returns a reusable standard buffer of the right size for this
// cache's type, pulling the most recently released one off the free
// list (it's still warm) or allocating fresh if the list is empty.
func (vc *VectorCache) take(cap int) *VecBuffer {
	if !vc.free.Empty() {
		buf := vc.free.PopBack()
		if len(buf.Data) >= vc.typ.GetInternalType().Size()*cap {
			return buf
		}
	}
	return NewStandardBuffer(vc.typ, cap)
}

// release returns buf to the free list so a later ResetFromCache call
// on the same column can reuse its allocation.
func (vc *VectorCache) release(buf *VecBuffer) {
	if buf == nil {
		return
	}
	vc.free.PushBack(buf)
}

// ResetFromCache restores vec to a flat vector of cap rows, reusing a
// previously-released buffer from cache when one of sufficient size is
// available instead of allocating. Nested children are recursively
// restored the same way.
func (vec *Vector) ResetFromCache(cache *VectorCache, cap int) {
	vec._PhyFormat = PF_FLAT
	vec.Mask.Reset()
	switch vec.Typ().GetInternalType() {
	case common.STRUCT:
		children := make([]*Vector, len(cache.children))
		existing := (*VecBuffer)(nil)
		if vec.Aux != nil && vec.Aux.BufTyp == VBT_STRUCT {
			existing = vec.Aux
		}
		for i, childCache := range cache.children {
			var child *Vector
			if existing != nil && i < len(existing.Children) {
				child = existing.Children[i]
			} else {
				child = NewVectorForType(childCache.typ, cap)
			}
			child.ResetFromCache(childCache, cap)
			children[i] = child
		}
		vec.Aux = NewStructBuffer(children)
	case common.LIST:
		var child *Vector
		if vec.Buf != nil {
			cache.release(vec.Buf)
		}
		if vec.Aux != nil && vec.Aux.BufTyp == VBT_CHILD {
			child = vec.Aux.Child
		} else if vec.Typ().Id == common.LTID_MAP {
			child = NewStructVector(mapEntryType(vec.Typ()), util.DefaultVectorSize)
		} else {
			child = NewVectorForType(vec.Typ().ListTypeChildType(), util.DefaultVectorSize)
		}
		child.ResetFromCache(cache.children[0], util.DefaultVectorSize)
		vec.Buf = cache.take(cap)
		vec.Data = vec.Buf.Data
		vec.Aux = NewChildBuffer(child)
	default:
		if vec.Buf != nil {
			cache.release(vec.Buf)
		}
		sz := vec.Typ().GetInternalType().Size()
		if sz > 0 {
			vec.Buf = cache.take(cap)
			vec.Data = vec.Buf.Data
		}
		vec.Aux = nil
	}
}
