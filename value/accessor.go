package value

import (
	"errors"
	"fmt"
)

// TupleAccessor is an index path into a Tuple, e.g. []int{0, 1} reaches
// tup.Children()[0].Children()[1]. It lets project/filter/join/reduce
// designate keys and payloads without introducing named fields.
type TupleAccessor []int

// ErrAccessorOutOfRange is returned by Get when a path index exceeds the
// arity of the tuple node it is applied to.
var ErrAccessorOutOfRange = errors.New("value: tuple accessor out of range")

// ErrAccessorOnLeaf is returned by Get when a path tries to descend past a
// leaf Tuple.
var ErrAccessorOnLeaf = errors.New("value: tuple accessor descends into a leaf")

// Get walks the accessor path from the root of t and returns the Tuple
// found there.
func (a TupleAccessor) Get(t Tuple) (Tuple, error) {
	cur := t
	for depth, idx := range a {
		if cur.leaf {
			return Tuple{}, fmt.Errorf("%w: at depth %d", ErrAccessorOnLeaf, depth)
		}
		if idx < 0 || idx >= len(cur.children) {
			return Tuple{}, fmt.Errorf("%w: index %d at depth %d (arity %d)", ErrAccessorOutOfRange, idx, depth, len(cur.children))
		}
		cur = cur.children[idx]
	}
	return cur, nil
}

// Project builds a new Tuple by extracting the subtuple at each accessor
// in order, wrapping the results as the children of a fresh Tuple. An
// empty accessor list yields the unit tuple.
func Project(t Tuple, accessors []TupleAccessor) (Tuple, error) {
	children := make([]Tuple, 0, len(accessors))
	for _, acc := range accessors {
		sub, err := acc.Get(t)
		if err != nil {
			return Tuple{}, err
		}
		children = append(children, sub)
	}
	return Seq(children...), nil
}

// String renders an accessor path for debugging.
func (a TupleAccessor) String() string {
	return fmt.Sprintf("%v", []int(a))
}
