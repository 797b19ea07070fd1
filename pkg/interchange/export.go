package interchange

import (
	"math/big"
	"strconv"
	"strings"
	"unsafe"

	"github.com/daviszhen/plan/pkg/chunk"
	"github.com/daviszhen/plan/pkg/chunkerr"
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
	"github.com/sourcegraph/conc"
)

// Export bridges a chunk to the C Data Interface ABI described by
// §4.3: a root Array of one struct-typed record batch, one child per
// column, plus a parallel Schema. The chunk is flattened first — the
// export boundary carries no dictionary or constant columns.
//
// Grounded on original_source's data_chunk.cpp ToArrowArray /
// SetArrowChild / InitializeChild for the buffer geometry and the
// release-holder ownership shape; the teacher's port never carried an
// Arrow bridge at all, so the fan-out itself is new code, built with
// sourcegraph/conc.WaitGroup since columns convert independently.
func Export(c *chunk.Chunk) (*Array, *Schema, error) {
	c.Flatten()
	n := c.ColumnCount()
	count := c.Card()

	arrays := make([]*Array, n)
	schemas := make([]*Schema, n)
	holders := make([]*Holder, n)
	errs := make([]error, n)

	var wg conc.WaitGroup
	for i := 0; i < n; i++ {
		i := i
		wg.Go(func() {
			a, s, h, err := exportColumn(c.Data[i], count)
			arrays[i], schemas[i], holders[i], errs[i] = a, s, h, err
		})
	}
	wg.Wait()

	root := newHolder()
	for _, err := range errs {
		if err != nil {
			for _, h := range holders {
				if h != nil {
					h.Destroy()
				}
			}
			return nil, nil, err
		}
	}
	for _, h := range holders {
		root.addChild(h)
	}

	names := make([]string, n)
	for i := range names {
		names[i] = "col" + strconv.Itoa(i)
	}

	arr := &Array{
		Length:      int64(count),
		NullCount:   0,
		NBuffers:    1,
		NChildren:   int64(n),
		Buffers:     []unsafe.Pointer{nil},
		Children:    arrays,
		PrivateData: unsafe.Pointer(root),
	}
	released := false
	arr.Release = func(a *Array) {
		if released {
			return
		}
		released = true
		a.Release = nil
		root.Destroy()
	}

	schChildren := make([]*Schema, n)
	for i, s := range schemas {
		s.Name = names[i]
		schChildren[i] = s
	}
	sch := &Schema{
		Format:   "+s",
		Children: schChildren,
	}
	return arr, sch, nil
}

// exportColumn converts one flat vector into an Array/Schema pair per
// the type's row in §4.3's buffer-layout table, plus the Holder
// owning whatever it had to allocate fresh.
func exportColumn(vec *chunk.Vector, count int) (*Array, *Schema, *Holder, error) {
	h := newHolder()
	h.keepVector(vec)

	typ := vec.Typ()
	pTyp := typ.GetInternalType()
	mask := chunk.GetMaskInPhyFormatFlat(vec)

	nullCount := int64(0)
	if !mask.AllValid() {
		nullCount = -1
	}
	validityPtr := aliasBytes(mask.Data())

	arr := &Array{Length: int64(count), NullCount: nullCount}
	sch := &Schema{Flags: FlagNullable}

	switch {
	case typ.Id == common.LTID_NULL:
		arr.NBuffers = 1
		arr.Buffers = []unsafe.Pointer{validityPtr}
		sch.Format = "null"

	case pTyp == common.BOOL:
		packed := h.alloc(util.EntryCount(count))
		bits := chunk.GetSliceInPhyFormatFlat[bool](vec)
		for i := 0; i < count; i++ {
			if bits[i] {
				packed[i/8] |= 1 << uint(i%8)
			}
		}
		arr.NBuffers = 2
		arr.Buffers = []unsafe.Pointer{validityPtr, aliasBytes(packed)}
		sch.Format = "bool"

	case typ.Id == common.LTID_TIME || typ.Id == common.LTID_TIME_TZ:
		micros := chunk.GetSliceInPhyFormatFlat[int64](vec)
		buf := h.alloc(count * 4)
		out := util.PointerToSlice[uint32](aliasBytes(buf), count)
		for i := 0; i < count; i++ {
			// Lossy: truncates microsecond precision down to
			// milliseconds, per §9's note on the interchange
			// boundary not preserving sub-millisecond time.
			out[i] = uint32(micros[i] / 1000)
		}
		arr.NBuffers = 2
		arr.Buffers = []unsafe.Pointer{validityPtr, aliasBytes(buf)}
		sch.Format = "time_ms"

	case typ.Id == common.LTID_DECIMAL:
		decs := chunk.GetSliceInPhyFormatFlat[common.Decimal](vec)
		buf := h.alloc(count * common.Int128Size)
		out := util.PointerToSlice[common.Hugeint](aliasBytes(buf), count)
		for i := 0; i < count; i++ {
			if mask.RowIsValid(uint64(i)) {
				out[i] = decimalToHugeint(&decs[i], typ.Scale)
			}
		}
		arr.NBuffers = 2
		arr.Buffers = []unsafe.Pointer{validityPtr, aliasBytes(buf)}
		sch.Format = "decimal128"

	case pTyp == common.VARCHAR:
		strs := chunk.GetSliceInPhyFormatFlat[common.String](vec)
		offsets := make([]uint32, count+1)
		total := 0
		for i := 0; i < count; i++ {
			offsets[i] = uint32(total)
			if mask.RowIsValid(uint64(i)) {
				total += strs[i].Length()
			}
		}
		offsets[count] = uint32(total)
		offBuf := h.alloc((count + 1) * 4)
		copy(util.PointerToSlice[uint32](aliasBytes(offBuf), count+1), offsets)
		dataBuf := h.alloc(total)
		for i := 0; i < count; i++ {
			if mask.RowIsValid(uint64(i)) {
				copy(dataBuf[offsets[i]:], strs[i].DataSlice())
			}
		}
		arr.NBuffers = 3
		arr.Buffers = []unsafe.Pointer{validityPtr, aliasBytes(offBuf), aliasBytes(dataBuf)}
		sch.Format = "varchar"

	case typ.Id == common.LTID_MAP:
		entries := chunk.MapVectorGetEntries(vec)
		entryChild := chunk.ListVectorGetChild(vec)
		keyChild := chunk.StructVectorGetChild(entryChild, 0)
		keyMask := chunk.GetMaskInPhyFormatFlat(keyChild)
		for i := 0; i < count; i++ {
			if !mask.RowIsValid(uint64(i)) {
				continue
			}
			e := entries[i]
			for j := e.Offset; j < e.Offset+e.Length; j++ {
				if !keyMask.RowIsValid(j) {
					return nil, nil, nil, chunkerr.NullConstraintf(
						"interchange.Export", "map key null at row %d, key list position %d", i, j)
				}
			}
		}
		childArr, childSch, offsets, childH, err := exportListLike(entryChild, entries, mask, count)
		if err != nil {
			return nil, nil, nil, err
		}
		h.addChild(childH)
		offBuf := h.alloc((count + 1) * 4)
		copy(util.PointerToSlice[uint32](aliasBytes(offBuf), count+1), offsets)
		arr.NBuffers = 2
		arr.Buffers = []unsafe.Pointer{validityPtr, aliasBytes(offBuf)}
		arr.Children = []*Array{childArr}
		arr.NChildren = 1
		sch.Format = "+m"
		sch.Children = []*Schema{childSch}

	case pTyp == common.LIST:
		child := chunk.ListVectorGetChild(vec)
		entries := chunk.ListVectorGetEntries(vec)
		childArr, childSch, offsets, childH, err := exportListLike(child, entries, mask, count)
		if err != nil {
			return nil, nil, nil, err
		}
		h.addChild(childH)
		offBuf := h.alloc((count + 1) * 4)
		copy(util.PointerToSlice[uint32](aliasBytes(offBuf), count+1), offsets)
		arr.NBuffers = 2
		arr.Buffers = []unsafe.Pointer{validityPtr, aliasBytes(offBuf)}
		arr.Children = []*Array{childArr}
		arr.NChildren = 1
		sch.Format = "+l"
		sch.Children = []*Schema{childSch}

	case pTyp == common.STRUCT:
		children := chunk.StructVectorGetChildren(vec)
		childArrs := make([]*Array, len(children))
		childSchs := make([]*Schema, len(children))
		for i, ch := range children {
			ca, cs, cH, err := exportColumn(ch, count)
			if err != nil {
				return nil, nil, nil, err
			}
			cs.Name = typ.StructTypeChildName(i)
			h.addChild(cH)
			childArrs[i], childSchs[i] = ca, cs
		}
		arr.NBuffers = 1
		arr.Buffers = []unsafe.Pointer{validityPtr}
		arr.Children = childArrs
		arr.NChildren = int64(len(children))
		sch.Format = "+s"
		sch.Children = childSchs

	default:
		// Fixed-width scalar (ints, floats, date, hugeint, pointer,
		// timestamp variants): §4.3 aliases the source vector's
		// contiguous native-width storage directly, no copy.
		arr.NBuffers = 2
		arr.Buffers = []unsafe.Pointer{validityPtr, aliasBytes(vec.Data)}
		sch.Format = pTyp.String()
	}

	return arr, sch, h, nil
}

// exportListLike rebuilds a compacted child array for a LIST/MAP
// column: for every valid parent row it copies that row's (offset,
// length) window of the source child vector into contiguous output
// positions, so the returned offsets are simple running sums and null
// parent rows contribute zero length without advancing the offset,
// per §4.3's rule. Rebuilding through Vector.GetValue/SetValue keeps
// this correct for arbitrarily nested child types (struct-of-list,
// list-of-struct, ...) without a separate physical-copy path per
// nested shape.
func exportListLike(child *chunk.Vector, entries []common.ListEntry, mask *util.Bitmap, count int) (*Array, *Schema, []uint32, *Holder, error) {
	offsets := make([]uint32, count+1)
	total := uint64(0)
	for i := 0; i < count; i++ {
		offsets[i] = uint32(total)
		if mask.RowIsValid(uint64(i)) {
			total += entries[i].Length
		}
	}
	offsets[count] = uint32(total)

	elemTyp := child.Typ()
	compact := chunk.NewVectorForType(elemTyp, int(max(total, 1)))
	pos := uint64(0)
	for i := 0; i < count; i++ {
		if !mask.RowIsValid(uint64(i)) {
			continue
		}
		e := entries[i]
		for j := uint64(0); j < e.Length; j++ {
			compact.SetValue(int(pos), child.GetValue(int(e.Offset+j)))
			pos++
		}
	}
	arr, sch, h, err := exportColumn(compact, int(total))
	return arr, sch, offsets, h, err
}

func aliasBytes(b []byte) unsafe.Pointer {
	if len(b) == 0 {
		return nil
	}
	return util.BytesSliceToPointer(b)
}

// decimalToHugeint widens a row's decimal value to a 128-bit signed
// coefficient scaled by the column's declared scale, per §4.3's
// decimal buffer row. govalues' Int64(scale) covers every value that
// fits an int64 coefficient; the big.Int fallback below only runs for
// the rare column near DECIMAL(38, _)'s width where it doesn't.
func decimalToHugeint(dec *common.Decimal, scale int) common.Hugeint {
	whole, frac, ok := dec.Decimal.Int64(scale)
	var coeff *big.Int
	if ok {
		coeff = big.NewInt(whole)
		coeff.Mul(coeff, pow10(scale))
		fracBig := big.NewInt(frac)
		if whole < 0 || (whole == 0 && strings.HasPrefix(dec.Decimal.String(), "-")) {
			fracBig.Neg(fracBig)
		}
		coeff.Add(coeff, fracBig)
	} else {
		coeff = decimalStringToCoeff(dec.Decimal.String(), scale)
	}
	return bigToHugeint(coeff)
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}

// decimalStringToCoeff parses a decimal's canonical string form into
// an integer coefficient scaled to the given number of fractional
// digits, for values too wide for Int64(scale)'s int64 arithmetic.
func decimalStringToCoeff(s string, scale int) *big.Int {
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, fracPart, _ := strings.Cut(s, ".")
	for len(fracPart) < scale {
		fracPart += "0"
	}
	fracPart = fracPart[:scale]
	digits := intPart + fracPart
	coeff := new(big.Int)
	coeff.SetString(digits, 10)
	if neg {
		coeff.Neg(coeff)
	}
	return coeff
}

func bigToHugeint(v *big.Int) common.Hugeint {
	mask64 := new(big.Int).SetUint64(^uint64(0))
	lower := new(big.Int).And(v, mask64).Uint64()
	upper := new(big.Int).Rsh(v, 64).Int64()
	return common.Hugeint{Lower: lower, Upper: upper}
}
