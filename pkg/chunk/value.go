package chunk

import (
	"fmt"
	"math"
	"math/big"
	"strings"
	"time"

	"github.com/daviszhen/plan/pkg/common"
	"github.com/govalues/decimal"
	"github.com/huandu/go-clone"
)

// MapEntry is one key/value pair of a Value holding LTID_MAP data. Kept
// as an ordered slice (not a Go map) since map key order is otherwise
// unspecified and this value round-trips through Serialize/Deserialize
// and the interchange exporter, both of which need a stable order.
type MapEntry struct {
	Key   Value
	Value Value
}

type Value struct {
	Typ    common.LType
	IsNull bool
	//value
	Bool  bool
	I64   int64
	I64_1 int64
	I64_2 int64
	U64   uint64
	F64   float64
	Str   string
	//nested value, only one of these is populated depending on Typ.Id
	List   []Value
	Struct map[string]Value
	Map    []MapEntry
}

// Clone deep-copies val, including any nested List/Struct/Map payload.
// Scalars are copied by value already; go-clone only does real work for
// the nested variants, mirroring the teacher's reach for a library over
// hand-rolled recursive copy code wherever one is already in the stack.
func (val Value) Clone() Value {
	if val.List == nil && val.Struct == nil && val.Map == nil {
		return val
	}
	return clone.Clone(val).(Value)
}

func (val Value) String() string {
	if val.IsNull {
		return "NULL"
	}
	switch val.Typ.Id {
	case common.LTID_INTEGER, common.LTID_TINYINT, common.LTID_SMALLINT,
		common.LTID_UTINYINT, common.LTID_USMALLINT, common.LTID_UINTEGER:
		return fmt.Sprintf("%d", val.I64)
	case common.LTID_BOOLEAN:
		return fmt.Sprintf("%v", val.Bool)
	case common.LTID_VARCHAR, common.LTID_CHAR, common.LTID_BLOB, common.LTID_BIT:
		return val.Str
	case common.LTID_DECIMAL:
		if len(val.Str) != 0 {
			return val.Str
		} else {
			d, err := decimal.NewFromInt64(val.I64, val.I64_1, val.Typ.Scale)
			if err != nil {
				panic(err)
			}
			return d.String()
		}
	case common.LTID_DATE:
		dat := time.Date(int(val.I64), time.Month(val.I64_1), int(val.I64_2),
			0, 0, 0, 0, time.UTC)
		return dat.Format(time.DateOnly)
	case common.LTID_TIME, common.LTID_TIME_TZ:
		return fmt.Sprintf("%02d:%02d:%02d", val.I64, val.I64_1, val.I64_2)
	case common.LTID_TIMESTAMP, common.LTID_TIMESTAMP_SEC, common.LTID_TIMESTAMP_MS,
		common.LTID_TIMESTAMP_NS, common.LTID_TIMESTAMP_TZ:
		return fmt.Sprintf("%d", val.I64)
	case common.LTID_BIGINT:
		return fmt.Sprintf("%d", val.I64)
	case common.LTID_UBIGINT:
		return fmt.Sprintf("0x%x %d", val.I64, val.I64)
	case common.LTID_DOUBLE:
		return fmt.Sprintf("%v", val.F64)
	case common.LTID_FLOAT:
		return fmt.Sprintf("%v", val.F64)
	case common.LTID_POINTER:
		return fmt.Sprintf("0x%x", val.I64)
	case common.LTID_HUGEINT, common.LTID_UUID:
		h := big.NewInt(val.I64)
		l := big.NewInt(val.I64_1)
		h.Lsh(h, 64)
		h.Add(h, l)
		return fmt.Sprintf("%v", h.String())
	case common.LTID_INTERVAL:
		return fmt.Sprintf("%d months %d days %d micros", val.I64, val.I64_1, val.I64_2)
	case common.LTID_LIST:
		parts := make([]string, len(val.List))
		for i, v := range val.List {
			parts[i] = v.String()
		}
		return fmt.Sprintf("[%s]", strings.Join(parts, ", "))
	case common.LTID_STRUCT, common.LTID_UNION:
		parts := make([]string, 0, len(val.Typ.ChildrenNames))
		for _, name := range val.Typ.ChildrenNames {
			parts = append(parts, fmt.Sprintf("%s: %v", name, val.Struct[name]))
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	case common.LTID_MAP:
		parts := make([]string, len(val.Map))
		for i, e := range val.Map {
			parts[i] = fmt.Sprintf("%v=%v", e.Key, e.Value)
		}
		return fmt.Sprintf("{%s}", strings.Join(parts, ", "))
	default:
		panic("usp")
	}
}

// NewListValue builds an LTID_LIST value; elemType is the declared
// element type even for an empty list, since the type is otherwise
// unrecoverable from the (empty) payload.
func NewListValue(elemType common.LType, elems []Value) Value {
	return Value{
		Typ:  common.ListType(elemType),
		List: elems,
	}
}

// NewStructValue builds an LTID_STRUCT value from parallel field
// name/type slices and a name->value payload map.
func NewStructValue(names []string, types []common.LType, fields map[string]Value) Value {
	return Value{
		Typ:    common.StructType(names, types),
		Struct: fields,
	}
}

// NewMapValue builds an LTID_MAP value, rejecting a null key up front
// per the interchange export's null-key prohibition (spec's map
// constraint), rather than deferring the check to export time.
func NewMapValue(keyType, valueType common.LType, entries []MapEntry) Value {
	for _, e := range entries {
		if e.Key.IsNull {
			panic("map key must not be null")
		}
	}
	return Value{
		Typ: common.MapType(keyType, valueType),
		Map: entries,
	}
}

var (
	POWERS_OF_TEN = []int64{
		1,
		10,
		100,
		1000,
		10000,
		100000,
		1000000,
		10000000,
		100000000,
		1000000000,
		10000000000,
		100000000000,
		1000000000000,
		10000000000000,
		100000000000000,
		1000000000000000,
		10000000000000000,
		100000000000000000,
		1000000000000000000,
	}
)

func MaxValue(typ common.LType) *Value {
	ret := &Value{
		Typ: typ,
	}
	switch typ.Id {
	case common.LTID_BOOLEAN:
		ret.Bool = true
	case common.LTID_TINYINT:
		ret.I64 = math.MaxInt8
	case common.LTID_UTINYINT:
		ret.I64 = math.MaxUint8
	case common.LTID_SMALLINT:
		ret.I64 = math.MaxInt16
	case common.LTID_USMALLINT:
		ret.I64 = math.MaxUint16
	case common.LTID_INTEGER:
		ret.I64 = math.MaxInt32
	case common.LTID_UINTEGER:
		ret.I64 = math.MaxUint32
	case common.LTID_BIGINT:
		ret.I64 = math.MaxInt64
	case common.LTID_UBIGINT:
		ret.U64 = math.MaxUint64
	case common.LTID_FLOAT:
		ret.F64 = math.MaxFloat32
	case common.LTID_DOUBLE:
		ret.F64 = math.MaxFloat64
	case common.LTID_DECIMAL:
		ret.I64 = POWERS_OF_TEN[typ.Width] - 1
	case common.LTID_DATE:
		ret.I64 = 5881580
		ret.I64_1 = 7
		ret.I64_2 = 10
	default:
		panic("usp")
	}
	return ret
}

func MinValue(typ common.LType) *Value {
	ret := &Value{
		Typ: typ,
	}
	switch typ.Id {
	case common.LTID_BOOLEAN:
		ret.Bool = false
	case common.LTID_TINYINT:
		ret.I64 = math.MinInt8
	case common.LTID_UTINYINT:
		ret.I64 = 0
	case common.LTID_SMALLINT:
		ret.I64 = math.MinInt16
	case common.LTID_USMALLINT:
		ret.I64 = 0
	case common.LTID_INTEGER:
		ret.I64 = math.MinInt32
	case common.LTID_UINTEGER:
		ret.I64 = 0
	case common.LTID_BIGINT:
		ret.I64 = math.MinInt64
	case common.LTID_UBIGINT:
		ret.I64 = 0
	case common.LTID_FLOAT:
		ret.F64 = -math.MaxFloat32
	case common.LTID_DOUBLE:
		ret.F64 = -math.MaxFloat64
	case common.LTID_DECIMAL:
		ret.I64 = -POWERS_OF_TEN[typ.Width] + 1
	case common.LTID_DATE:
		ret.I64 = -5877641
		ret.I64_1 = 6
		ret.I64_2 = 25
	default:
		panic("usp")
	}
	return ret
}
