package chunk

import (
	"sync/atomic"

	"github.com/daviszhen/plan/pkg/util"
)

type SelectVector struct {
	SelVec []int
	// id identifies this selection vector as a SelCache key. Assigned
	// lazily on first use as a cache input rather than at construction,
	// since most selection vectors are never fed through a cache.
	id uint64
}

var selVectorIDCounter uint64

// cacheKey returns a process-wide unique, stable id for svec, assigning
// one on first call. Grounded on DuckDB's SelCache, which keys by the
// pointer identity of the selection vector's backing data; Go slices
// aren't orderable as map keys, so an assigned id stands in for that
// pointer identity instead.
func (svec *SelectVector) cacheKey() uint64 {
	for {
		if id := atomic.LoadUint64(&svec.id); id != 0 {
			return id
		}
		newID := atomic.AddUint64(&selVectorIDCounter, 1)
		if atomic.CompareAndSwapUint64(&svec.id, 0, newID) {
			return newID
		}
	}
}

func NewSelectVector(count int) *SelectVector {
	vec := &SelectVector{}
	vec.Init(count)
	return vec
}

func NewSelectVector2(start, count int) *SelectVector {
	vec := &SelectVector{}
	vec.Init(util.DefaultVectorSize)
	for i := 0; i < count; i++ {
		vec.SetIndex(i, start+i)
	}
	return vec
}

func (svec *SelectVector) Invalid() bool {
	return len(svec.SelVec) == 0
}

func (svec *SelectVector) Init(cnt int) {
	svec.SelVec = make([]int, cnt)
}

func (svec *SelectVector) GetIndex(idx int) int {
	if svec.Invalid() {
		return idx
	} else {
		return svec.SelVec[idx]
	}
}

func (svec *SelectVector) SetIndex(idx int, index int) {
	svec.SelVec[idx] = index
}

func (svec *SelectVector) Slice(sel *SelectVector, count int) []int {
	data := make([]int, count)
	for i := 0; i < count; i++ {
		newIdx := sel.GetIndex(i)
		idx := svec.GetIndex(newIdx)
		data[i] = idx
	}
	return data
}

func (svec *SelectVector) Init2(sel *SelectVector) {
	svec.SelVec = sel.SelVec
}

func (svec *SelectVector) Init3(data []int) {
	svec.SelVec = data
}

func NewSelectVector3(tuples []int) *SelectVector {
	v := NewSelectVector(util.DefaultVectorSize)
	v.Init3(tuples)
	return v
}
