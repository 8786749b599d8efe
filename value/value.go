// Package value implements the primitive scalar layer of the runtime: a
// tagged union of value kinds, a tree-shaped Tuple built from them, and the
// TupleAccessor projection language operators use to reach into a Tuple
// without named fields.
package value

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Kind identifies which variant of the Value union is populated.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindI8
	KindI16
	KindI32
	KindI64
	KindU8
	KindU16
	KindU32
	KindU64
	KindF32
	KindF64
	KindBool
	KindChar
	KindString
	KindSymbol
	KindDate
	KindDuration
	KindEntity
)

// String renders a Kind for error messages and debugging.
func (k Kind) String() string {
	switch k {
	case KindI8:
		return "i8"
	case KindI16:
		return "i16"
	case KindI32:
		return "i32"
	case KindI64:
		return "i64"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindBool:
		return "bool"
	case KindChar:
		return "char"
	case KindString:
		return "string"
	case KindSymbol:
		return "symbol"
	case KindDate:
		return "date"
	case KindDuration:
		return "duration"
	case KindEntity:
		return "entity"
	default:
		return "invalid"
	}
}

// Value is a tagged union of primitive scalars. The zero Value is invalid;
// use one of the New* constructors to build a well-formed Value.
//
// Entity ids are represented by uuid.UUID rather than a bare integer: fact
// ids and the differentiable schemes' gradient-attribution ids are entity
// values under the hood, and a UUID lets them be minted independently by
// concurrent provenance contexts without a shared counter.
type Value struct {
	kind Kind
	i    int64
	u    uint64
	f    float64
	b    bool
	c    rune
	s    string
	t    time.Time
	dur  time.Duration
	id   uuid.UUID
}

func NewI8(v int8) Value   { return Value{kind: KindI8, i: int64(v)} }
func NewI16(v int16) Value { return Value{kind: KindI16, i: int64(v)} }
func NewI32(v int32) Value { return Value{kind: KindI32, i: int64(v)} }
func NewI64(v int64) Value { return Value{kind: KindI64, i: v} }
func NewU8(v uint8) Value  { return Value{kind: KindU8, u: uint64(v)} }
func NewU16(v uint16) Value { return Value{kind: KindU16, u: uint64(v)} }
func NewU32(v uint32) Value { return Value{kind: KindU32, u: uint64(v)} }
func NewU64(v uint64) Value { return Value{kind: KindU64, u: v} }
func NewF32(v float32) Value { return Value{kind: KindF32, f: float64(v)} }
func NewF64(v float64) Value { return Value{kind: KindF64, f: v} }
func NewBool(v bool) Value   { return Value{kind: KindBool, b: v} }
func NewChar(v rune) Value   { return Value{kind: KindChar, c: v} }
func NewString(v string) Value { return Value{kind: KindString, s: v} }
func NewSymbol(v string) Value { return Value{kind: KindSymbol, s: v} }
func NewDate(v time.Time) Value { return Value{kind: KindDate, t: v} }
func NewDuration(v time.Duration) Value { return Value{kind: KindDuration, dur: v} }
func NewEntity(v uuid.UUID) Value { return Value{kind: KindEntity, id: v} }

// Kind reports which variant is populated.
func (v Value) Kind() Kind { return v.kind }

func (v Value) I64() int64           { return v.i }
func (v Value) U64() uint64          { return v.u }
func (v Value) F64() float64         { return v.f }
func (v Value) Bool() bool           { return v.b }
func (v Value) Char() rune           { return v.c }
func (v Value) String() string       { return v.s }
func (v Value) Time() time.Time      { return v.t }
func (v Value) Duration() time.Duration { return v.dur }
func (v Value) Entity() uuid.UUID    { return v.id }

// TypeMismatchError reports an attempt to compare or combine values of
// incompatible kinds. Per spec, these are construction-time errors: the
// front end/compiler is assumed to have already type-checked the program,
// so a runtime TypeMismatchError indicates a malformed RAM program.
type TypeMismatchError struct {
	A, B Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("value: cannot compare %s with %s", e.A, e.B)
}

// Equal reports whether two values of the same kind are equal. Comparing
// values of different kinds returns a TypeMismatchError.
func Equal(a, b Value) (bool, error) {
	c, err := CompareValues(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}

// CompareValues defines the total order within each Value variant:
// negative if a < b, zero if equal, positive if a > b. Cross-variant
// comparisons are errors, per spec §3 ("cross-variant comparisons are
// errors at RAM construction time").
func CompareValues(a, b Value) (int, error) {
	if a.kind != b.kind {
		return 0, &TypeMismatchError{A: a.kind, B: b.kind}
	}
	switch a.kind {
	case KindI8, KindI16, KindI32, KindI64:
		return cmpInt64(a.i, b.i), nil
	case KindU8, KindU16, KindU32, KindU64:
		return cmpUint64(a.u, b.u), nil
	case KindF32, KindF64:
		return cmpFloat64(a.f, b.f), nil
	case KindBool:
		return cmpBool(a.b, b.b), nil
	case KindChar:
		return cmpInt64(int64(a.c), int64(b.c)), nil
	case KindString, KindSymbol:
		return cmpString(a.s, b.s), nil
	case KindDate:
		switch {
		case a.t.Before(b.t):
			return -1, nil
		case a.t.After(b.t):
			return 1, nil
		default:
			return 0, nil
		}
	case KindDuration:
		return cmpInt64(int64(a.dur), int64(b.dur)), nil
	case KindEntity:
		return cmpString(a.id.String(), b.id.String()), nil
	default:
		return 0, fmt.Errorf("value: invalid kind %s", a.kind)
	}
}

func cmpInt64(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpFloat64(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func cmpBool(a, b bool) int {
	if a == b {
		return 0
	}
	if !a {
		return -1
	}
	return 1
}

func cmpString(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
