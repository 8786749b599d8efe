// Package relation implements the per-predicate tagged-tuple store: a
// Relation holds its contents across three containers (stable, recent,
// to-add) and exposes the semi-naive promotion step (changed) that moves
// newly derived tuples through them under a provenance.Context's tag
// algebra.
package relation

import (
	"sort"

	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/value"
)

// Batch is an ordered, finite sequence of provenance.Elements, sorted by
// tuple. It is the unit dataflow nodes and the relation store exchange:
// cloning a Batch is O(1) since a Go slice header already shares its
// backing array.
type Batch struct {
	elems []provenance.Element
}

// NewBatch wraps an already-sorted element slice as a Batch. Callers that
// cannot guarantee sortedness should use SortedBatch instead.
func NewBatch(elems []provenance.Element) Batch {
	return Batch{elems: elems}
}

// SortedBatch sorts elems by tuple order and wraps the result.
func SortedBatch(elems []provenance.Element) (Batch, error) {
	out := append([]provenance.Element(nil), elems...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		c, err := value.CompareTuples(out[i].Tuple, out[j].Tuple)
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return Batch{}, sortErr
	}
	return Batch{elems: out}, nil
}

// Len reports the number of elements in the batch.
func (b Batch) Len() int { return len(b.elems) }

// Empty reports whether the batch has no elements.
func (b Batch) Empty() bool { return len(b.elems) == 0 }

// At returns the element at index i.
func (b Batch) At(i int) provenance.Element { return b.elems[i] }

// Elements exposes the underlying slice for callers (join, reduce) that
// need to walk it directly. Callers must not mutate the returned slice.
func (b Batch) Elements() []provenance.Element { return b.elems }

// Clone returns a batch sharing the same backing storage: cheap by
// construction, since Go slices are already cheap to copy by value.
func (b Batch) Clone() Batch { return b }

// Slice returns the sub-batch view starting at index from, sharing
// storage with b.
func (b Batch) Slice(from int) Batch {
	if from >= len(b.elems) {
		return Batch{}
	}
	return Batch{elems: b.elems[from:]}
}

// SearchAhead implements the batch "search ahead" primitive of spec §4:
// given a predicate that is true for a prefix of the batch and false for
// the remaining suffix (monotone in tuple order — e.g. "tuple's key is
// less than some target"), it returns the index of the first element for
// which pred is false, in amortized logarithmic-expected time via a
// doubling probe followed by a bisect. Used by Find to skip to a key;
// Join's merge-sort walk does not use it.
func (b Batch) SearchAhead(pred func(value.Tuple) bool) int {
	n := len(b.elems)
	if n == 0 || !pred(b.elems[0].Tuple) {
		return 0
	}
	lo, hi := 0, 1
	for hi < n && pred(b.elems[hi].Tuple) {
		lo = hi
		hi *= 2
	}
	if hi > n {
		hi = n
	}
	idx := sort.Search(hi-lo, func(i int) bool {
		return !pred(b.elems[lo+i].Tuple)
	})
	return lo + idx
}

// Concat appends other's elements after b's, without re-sorting; callers
// must only use this when the caller already knows the concatenation
// stays ordered (e.g. appending disjoint key ranges).
func (b Batch) Concat(other Batch) Batch {
	out := make([]provenance.Element, 0, len(b.elems)+len(other.elems))
	out = append(out, b.elems...)
	out = append(out, other.elems...)
	return Batch{elems: out}
}
