package machine

import (
	"fmt"
	"math"
	"strconv"
)

// ValueType discriminates the cases of Value.
type ValueType uint8

const (
	ValBool ValueType = iota
	ValNil
	ValNumber
	ValObj
)

// A Value is the tagged union manipulated by the compiler's constant pool and
// the machine's operand stack: a boolean, nil, an IEEE-754 double, or a
// reference to a heap-allocated Obj. The zero Value is ValBool/false; use
// Nil, Bool, or Number to construct the other cases explicitly.
type Value struct {
	typ ValueType
	num float64
	obj Obj
}

// Nil is the sole value of type nil.
var Nil = Value{typ: ValNil}

// Bool returns a boolean Value.
func Bool(b bool) Value {
	if b {
		return Value{typ: ValBool, num: 1}
	}
	return Value{typ: ValBool, num: 0}
}

// Number returns a numeric Value.
func Number(n float64) Value { return Value{typ: ValNumber, num: n} }

// ObjValue returns a Value referencing a heap object.
func ObjValue(o Obj) Value { return Value{typ: ValObj, obj: o} }

func (v Value) Type() ValueType { return v.typ }
func (v Value) IsNil() bool     { return v.typ == ValNil }
func (v Value) IsBool() bool    { return v.typ == ValBool }
func (v Value) IsNumber() bool  { return v.typ == ValNumber }
func (v Value) IsObj() bool     { return v.typ == ValObj }

// AsBool returns the boolean content of v. The caller must know v.IsBool().
func (v Value) AsBool() bool { return v.num != 0 }

// AsNumber returns the numeric content of v. The caller must know v.IsNumber().
func (v Value) AsNumber() float64 { return v.num }

// AsObj returns the object reference held by v. The caller must know v.IsObj().
func (v Value) AsObj() Obj { return v.obj }

func (v Value) IsString() bool {
	_, ok := v.obj.(*ObjString)
	return v.typ == ValObj && ok
}

func (v Value) AsString() *ObjString { return v.obj.(*ObjString) }

// Truth reports whether v is truthy: every value is truthy except nil and
// boolean false.
func (v Value) Truth() bool {
	switch v.typ {
	case ValNil:
		return false
	case ValBool:
		return v.AsBool()
	default:
		return true
	}
}

// Equal implements structural equality for the primitive cases and identity
// equality for object references (string interning makes string equality
// identity-equivalent).
func Equal(a, b Value) bool {
	if a.typ != b.typ {
		return false
	}
	switch a.typ {
	case ValBool:
		return a.AsBool() == b.AsBool()
	case ValNil:
		return true
	case ValNumber:
		return a.num == b.num
	case ValObj:
		return a.obj == b.obj
	default:
		return false
	}
}

// String renders v the way the PRINT opcode and ADD's string coercion do:
// numbers with %g semantics, nil as "nil", and objects via their own String.
func (v Value) String() string {
	switch v.typ {
	case ValBool:
		if v.AsBool() {
			return "true"
		}
		return "false"
	case ValNil:
		return "nil"
	case ValNumber:
		return formatNumber(v.num)
	case ValObj:
		return v.obj.String()
	default:
		return fmt.Sprintf("<invalid value type %d>", v.typ)
	}
}

// formatNumber renders n in %g style with 14 significant digits: trailing
// zeros are dropped and very large or small magnitudes use exponent form.
// Values needing more than 14 digits are rounded, so the text does not
// always round-trip. Infinities and NaN print as inf, -inf and nan.
func formatNumber(n float64) string {
	if math.IsInf(n, 1) {
		return "inf"
	}
	if math.IsInf(n, -1) {
		return "-inf"
	}
	if math.IsNaN(n) {
		return "nan"
	}
	return strconv.FormatFloat(n, 'g', 14, 64)
}
