package interchange

import (
	"github.com/daviszhen/plan/pkg/chunk"
	"github.com/daviszhen/plan/pkg/util"
)

// Holder is the root owner of every allocation an export made: freshly
// built buffers (validity, offsets, widened decimals, string heaps),
// plus a reference to the source vectors whose storage was aliased
// rather than copied — keeping them alive for the exported Array's
// lifetime. Grounded on DuckDBArrowArrayHolder: one holder per root
// Array, reachable from the array via its PrivateData pointer, torn
// down exactly once by the Release callback.
type Holder struct {
	// owned lists every buffer this holder allocated via util.GAlloc
	// (the same allocator NewStandardBuffer uses for every Vector's
	// data buffer), released through util.GAlloc.Free in Destroy.
	// Aliased buffers (pulled directly from a source vector's storage)
	// are NOT listed here — they're kept alive via keepAlive instead.
	owned []unsafeFreeable
	// keepAlive references the source vectors whose storage buffers
	// were aliased, so they outlive the export even if the source
	// chunk is otherwise dropped by its owner — per §5's "source
	// vectors kept alive until the release callback fires".
	keepAlive []*chunk.Vector
	// children holds one child Holder per nested child array (LIST
	// element array, STRUCT field arrays, MAP entry array), torn down
	// recursively by Destroy.
	children []*Holder
}

type unsafeFreeable = []byte // util.GAlloc.Alloc'd buffers are freed through util.GAlloc.Free; see Destroy below

func newHolder() *Holder {
	return &Holder{}
}

func (h *Holder) alloc(sz int) []byte {
	buf := util.GAlloc.Alloc(sz)
	h.owned = append(h.owned, buf)
	return buf
}

func (h *Holder) keepVector(v *chunk.Vector) {
	h.keepAlive = append(h.keepAlive, v)
}

func (h *Holder) addChild(c *Holder) {
	h.children = append(h.children, c)
}

// Destroy frees every buffer this holder (and its children,
// transitively) allocated. Called exactly once, by the root Array's
// Release callback — see the Release closure Export installs, which
// guards against double-release the way the C Data Interface requires
// (a released flag, and clearing the Release field before destroying
// the holder).
func (h *Holder) Destroy() {
	for _, buf := range h.owned {
		util.GAlloc.Free(buf)
	}
	h.owned = nil
	h.keepAlive = nil
	for _, c := range h.children {
		c.Destroy()
	}
	h.children = nil
}
