package value

import "fmt"

// Tuple is either a leaf Value or an ordered sequence of child Tuples.
// Tuples are trees, not flat rows; the arity-0 tuple (Leaf == false,
// Children == nil) is the unit tuple.
type Tuple struct {
	leaf     bool
	value    Value
	children []Tuple
}

// Leaf wraps a single Value as a leaf Tuple.
func Leaf(v Value) Tuple {
	return Tuple{leaf: true, value: v}
}

// Seq builds a non-leaf Tuple from an ordered sequence of children.
// Seq() with no arguments is the unit tuple.
func Seq(children ...Tuple) Tuple {
	return Tuple{children: children}
}

// IsLeaf reports whether t wraps a single Value rather than a sequence.
func (t Tuple) IsLeaf() bool { return t.leaf }

// Value returns the wrapped Value. Only meaningful when IsLeaf is true.
func (t Tuple) Value() Value { return t.value }

// Children returns the ordered child tuples. Only meaningful when IsLeaf
// is false; an empty, non-nil-checked result also describes the unit
// tuple.
func (t Tuple) Children() []Tuple { return t.children }

// Arity returns the number of immediate children, or 0 for a leaf or the
// unit tuple.
func (t Tuple) Arity() int {
	if t.leaf {
		return 0
	}
	return len(t.children)
}

// TupleType is the matching tree of value Kinds that every Tuple inserted
// into a relation must conform to (spec §3 invariant).
type TupleType struct {
	leaf     bool
	kind     Kind
	children []TupleType
}

// LeafType builds a leaf TupleType for the given value Kind.
func LeafType(k Kind) TupleType { return TupleType{leaf: true, kind: k} }

// SeqType builds a non-leaf TupleType from ordered child types.
func SeqType(children ...TupleType) TupleType { return TupleType{children: children} }

func (t TupleType) IsLeaf() bool        { return t.leaf }
func (t TupleType) Kind() Kind          { return t.kind }
func (t TupleType) Children() []TupleType { return t.children }

// Matches reports whether a Tuple conforms to this TupleType: the same
// tree shape, and leaf Values of the declared Kind.
func (t TupleType) Matches(tup Tuple) bool {
	if t.leaf != tup.leaf {
		return false
	}
	if t.leaf {
		return tup.value.Kind() == t.kind
	}
	if len(t.children) != len(tup.children) {
		return false
	}
	for i, ct := range t.children {
		if !ct.Matches(tup.children[i]) {
			return false
		}
	}
	return true
}

// TypeError reports a Tuple that does not conform to a relation's declared
// TupleType; it is one of the error kinds named in spec §7.
type TypeError struct {
	Tuple    Tuple
	Expected TupleType
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("value: tuple %s does not match expected type", e.Tuple)
}

// Validate returns a *TypeError if tup does not conform to t, nil otherwise.
func (t TupleType) Validate(tup Tuple) error {
	if !t.Matches(tup) {
		return &TypeError{Tuple: tup, Expected: t}
	}
	return nil
}

// String renders a Tuple for debugging and error messages.
func (t Tuple) String() string {
	if t.leaf {
		return fmt.Sprintf("%v", leafString(t.value))
	}
	s := "("
	for i, c := range t.children {
		if i > 0 {
			s += ", "
		}
		s += c.String()
	}
	return s + ")"
}

func leafString(v Value) string {
	switch v.Kind() {
	case KindString, KindSymbol:
		return v.String()
	case KindBool:
		return fmt.Sprintf("%t", v.Bool())
	case KindChar:
		return string(v.Char())
	case KindF32, KindF64:
		return fmt.Sprintf("%g", v.F64())
	case KindU8, KindU16, KindU32, KindU64:
		return fmt.Sprintf("%d", v.U64())
	case KindDate:
		return v.Time().String()
	case KindDuration:
		return v.Duration().String()
	case KindEntity:
		return v.Entity().String()
	default:
		return fmt.Sprintf("%d", v.I64())
	}
}

// CompareTuples defines the total order over Tuples: lexicographic over a
// depth-first traversal. Leaves compare by CompareValues; non-leaves
// compare children left to right, with a shorter child list ordering
// before a longer one sharing the same prefix (this only arises for
// malformed programs, since well-typed tuples of the same relation share
// exactly one TupleType).
func CompareTuples(a, b Tuple) (int, error) {
	if a.leaf != b.leaf {
		if a.leaf {
			return -1, nil
		}
		return 1, nil
	}
	if a.leaf {
		return CompareValues(a.value, b.value)
	}
	n := len(a.children)
	if len(b.children) < n {
		n = len(b.children)
	}
	for i := 0; i < n; i++ {
		c, err := CompareTuples(a.children[i], b.children[i])
		if err != nil {
			return 0, err
		}
		if c != 0 {
			return c, nil
		}
	}
	return cmpInt64(int64(len(a.children)), int64(len(b.children))), nil
}

// TuplesEqual reports whether two Tuples are equal under CompareTuples.
func TuplesEqual(a, b Tuple) (bool, error) {
	c, err := CompareTuples(a, b)
	if err != nil {
		return false, err
	}
	return c == 0, nil
}
