package pascal

import (
	"fmt"
	"strconv"
)

// VarType is the type code of a Variant, using the foreign runtime's
// VarType numbering.
type VarType uint16

const (
	VarEmpty    VarType = 0x0000
	VarNull     VarType = 0x0001
	VarSmallint VarType = 0x0002
	VarInteger  VarType = 0x0003
	VarSingle   VarType = 0x0004
	VarDouble   VarType = 0x0005
	VarBoolean  VarType = 0x000B
	VarInt64    VarType = 0x0014
	VarString   VarType = 0x0100
	VarUString  VarType = 0x0102
)

var varTypeNames = map[VarType]string{
	VarEmpty:    "varEmpty",
	VarNull:     "varNull",
	VarSmallint: "varSmallint",
	VarInteger:  "varInteger",
	VarSingle:   "varSingle",
	VarDouble:   "varDouble",
	VarBoolean:  "varBoolean",
	VarInt64:    "varInt64",
	VarString:   "varString",
	VarUString:  "varUString",
}

func (t VarType) String() string {
	if n, ok := varTypeNames[t]; ok {
		return n
	}
	return "VarType(0x" + strconv.FormatUint(uint64(t), 16) + ")"
}

// Variant is a closed tagged union over the value kinds a procedure can
// return. The zero value is varEmpty.
type Variant struct {
	s   string
	i   int64
	f   float64
	typ VarType
}

func Empty() Variant { return Variant{} }
func Null() Variant { return Variant{typ: VarNull} }
func SmallintVariant(v int16) Variant { return Variant{typ: VarSmallint, i: int64(v)} }
func IntegerVariant(v int32) Variant { return Variant{typ: VarInteger, i: int64(v)} }
func Int64Variant(v int64) Variant { return Variant{typ: VarInt64, i: v} }
func SingleVariant(v float32) Variant { return Variant{typ: VarSingle, f: float64(v)} }
func DoubleVariant(v float64) Variant { return Variant{typ: VarDouble, f: v} }
func StringVariant(v string) Variant { return Variant{typ: VarString, s: v} }
func UStringVariant(v string) Variant { return Variant{typ: VarUString, s: v} }

func BooleanVariant(v bool) Variant {
	var i int64
	if v {
		i = 1
	}
	return Variant{typ: VarBoolean, i: i}
}

func (v Variant) Type() VarType { return v.typ }
func (v Variant) IsEmpty() bool { return v.typ == VarEmpty }

// Int returns the value of an integer variant.
func (v Variant) Int() (int64, bool) {
	switch v.typ {
	case VarSmallint, VarInteger, VarInt64:
		return v.i, true
	}
	return 0, false
}

// Float returns the value of a floating point variant.
func (v Variant) Float() (float64, bool) {
	switch v.typ {
	case VarSingle, VarDouble:
		return v.f, true
	}
	return 0, false
}

// Bool returns the value of a boolean variant.
func (v Variant) Bool() (bool, bool) {
	if v.typ != VarBoolean {
		return false, false
	}
	return v.i != 0, true
}

// Str returns the value of a string variant.
func (v Variant) Str() (string, bool) {
	switch v.typ {
	case VarString, VarUString:
		return v.s, true
	}
	return "", false
}

func (v Variant) String() string {
	switch v.typ {
	case VarEmpty:
		return "Unassigned"
	case VarNull:
		return "Null"
	case VarSmallint, VarInteger, VarInt64:
		return strconv.FormatInt(v.i, 10)
	case VarSingle:
		return strconv.FormatFloat(v.f, 'g', -1, 32)
	case VarDouble:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case VarBoolean:
		return strconv.FormatBool(v.i != 0)
	case VarString, VarUString:
		return strconv.Quote(v.s)
	}
	return fmt.Sprintf("%s(?)", v.typ)
}
