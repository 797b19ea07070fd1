package chunk

import (
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

// NewStructVector builds a STRUCT vector: one child vector per field,
// sharing the parent's row count. Grounded on original_source's
// data_chunk.cpp SetStruct, which builds one child per
// StructType::GetChildTypes entry the same way. The parent itself has
// no value buffer (PhyType.Size() is 0 for STRUCT); only its validity
// mask and the children carry data.
func NewStructVector(lTyp common.LType, cap int) *Vector {
	vec := NewVector2(lTyp, cap)
	children := make([]*Vector, lTyp.StructTypeChildCount())
	for i := range children {
		children[i] = NewVectorForType(lTyp.StructTypeChildType(i), cap)
	}
	vec.Aux = NewStructBuffer(children)
	return vec
}

// StructVectorGetChildren returns the STRUCT vector's field vectors in
// declaration order.
func StructVectorGetChildren(vec *Vector) []*Vector {
	util.AssertFunc(vec.Aux != nil && vec.Aux.BufTyp == VBT_STRUCT)
	return vec.Aux.Children
}

// StructVectorGetChild returns the idx-th field vector.
func StructVectorGetChild(vec *Vector, idx int) *Vector {
	return StructVectorGetChildren(vec)[idx]
}
