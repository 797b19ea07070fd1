package chunk

import (
	"github.com/daviszhen/plan/pkg/common"
	"github.com/daviszhen/plan/pkg/util"
)

// Serialization and deserialization methods for Vector
func (vec *Vector) Serialize(count int, serial util.Serialize) error {
	var vdata UnifiedFormat
	vec.ToUnifiedFormat(count, &vdata)
	writeValidity := (count > 0) && !vdata.Mask.AllValid()
	err := util.Write[bool](writeValidity, serial)
	if err != nil {
		return err
	}
	if writeValidity {
		flatMask := &util.Bitmap{}
		flatMask.Init(count)
		for i := 0; i < count; i++ {
			rowIdx := vdata.Sel.GetIndex(i)
			flatMask.Set(uint64(i), vdata.Mask.RowIsValid(uint64(rowIdx)))
		}
		err = serial.WriteData(flatMask.Data(), flatMask.Bytes(count))
		if err != nil {
			return err
		}
	}
	typ := vec.Typ()
	if typ.GetInternalType().IsConstant() {
		writeSize := typ.GetInternalType().Size() * count
		buff := util.GAlloc.Alloc(writeSize)
		defer util.GAlloc.Free(buff)
		WriteToStorage(vec, count, util.BytesSliceToPointer(buff))
		err = serial.WriteData(buff, writeSize)
		if err != nil {
			return err
		}
	} else {
		switch typ.GetInternalType() {
		case common.VARCHAR:
			strSlice := GetSliceInPhyFormatUnifiedFormat[common.String](&vdata)
			for i := 0; i < count; i++ {
				idx := vdata.Sel.GetIndex(i)
				if !vdata.Mask.RowIsValid(uint64(idx)) {
					nVal := StringScatterOp{}.NullValue()
					err = common.WriteString(nVal, serial)
					if err != nil {
						return err
					}
				} else {
					val := strSlice[idx]
					err = common.WriteString(val, serial)
					if err != nil {
						return err
					}
				}
			}
		case common.LIST:
			// Recursive per the wire format: lists/structs recurse
			// rather than templating over a fixed-width cell. Each row
			// writes its element count followed by the elements
			// themselves, read out through the shared child vector so
			// MAP's {key,value} struct entries go through the same
			// path as any other LIST.
			entries := ListVectorGetEntries(vec)
			for i := 0; i < count; i++ {
				idx := vdata.Sel.GetIndex(i)
				if !vdata.Mask.RowIsValid(uint64(idx)) {
					err = util.Write[uint32](0, serial)
					if err != nil {
						return err
					}
					continue
				}
				entry := entries[idx]
				err = util.Write[uint32](uint32(entry.Length), serial)
				if err != nil {
					return err
				}
				child := ListVectorGetChild(vec)
				window := &Vector{_Typ: child.Typ(), Mask: &util.Bitmap{}}
				window.Slice3(child, entry.Offset, entry.Offset+entry.Length)
				err = window.Serialize(int(entry.Length), serial)
				if err != nil {
					return err
				}
			}
		case common.STRUCT:
			for _, child := range StructVectorGetChildren(vec) {
				err = child.Serialize(count, serial)
				if err != nil {
					return err
				}
			}
		default:
			panic("usp")
		}
	}
	return err
}

func (vec *Vector) Deserialize(count int, deserial util.Deserialize) error {
	var mask *util.Bitmap
	switch vec.PhyFormat() {
	case PF_CONST:
		mask = GetMaskInPhyFormatConst(vec)
	case PF_FLAT:
		mask = GetMaskInPhyFormatFlat(vec)
	case PF_DICT:
		panic("usp")
	}
	mask.Reset()
	hasMask := false
	err := util.Read[bool](&hasMask, deserial)
	if err != nil {
		return err
	}
	if hasMask {
		mask.Init(count)
		err = deserial.ReadData(mask.Data(), mask.Bytes(count))
		if err != nil {
			return err
		}
	}

	typ := vec.Typ()
	if typ.GetInternalType().IsConstant() {
		readSize := typ.GetInternalType().Size() * count
		buf := util.GAlloc.Alloc(readSize)
		defer util.GAlloc.Free(buf)
		err = deserial.ReadData(buf, readSize)
		if err != nil {
			return err
		}
		ReadFromStorage(util.BytesSliceToPointer(buf), count, vec)
	} else {
		switch typ.GetInternalType() {
		case common.VARCHAR:
			strSlice := GetSliceInPhyFormatFlat[common.String](vec)
			for i := 0; i < count; i++ {
				var str common.String
				err = common.ReadString(&str, deserial)
				if err != nil {
					return err
				}
				if mask.RowIsValid(uint64(i)) {
					strSlice[i] = str
				}
			}
		case common.LIST:
			for i := 0; i < count; i++ {
				var n uint32
				err = util.Read[uint32](&n, deserial)
				if err != nil {
					return err
				}
				if n == 0 && !mask.RowIsValid(uint64(i)) {
					continue
				}
				child := ListVectorGetChild(vec)
				offset := ListVectorGetSize(vec)
				ListVectorReserve(vec, offset+int(n))
				window := &Vector{_Typ: child.Typ(), Mask: &util.Bitmap{}}
				window.Slice3(child, uint64(offset), uint64(offset)+uint64(n))
				err = window.Deserialize(int(n), deserial)
				if err != nil {
					return err
				}
				ListVectorSetSize(vec, offset+int(n))
				entries := ListVectorGetEntries(vec)
				entries[i] = common.ListEntry{Offset: uint64(offset), Length: uint64(n)}
			}
		case common.STRUCT:
			for _, child := range StructVectorGetChildren(vec) {
				err = child.Deserialize(count, deserial)
				if err != nil {
					return err
				}
			}
		default:
			panic("usp")
		}
	}
	return nil
}
