// Package dataflow implements the lazy operator tree of spec §4.3: a
// Dataflow composes Relation leaves through Project/Filter/Find/Union/
// Intersect/Product/Join/Antijoin/Difference/Reduce nodes, each exposing
// a stable and a recent batch stream. Trees are built fresh every
// recursive pass (they close over the relation views current at build
// time) and are never mutated in place, mirroring the teacher's
// `flow.Node`/`flow.Flow` composition — a Node interface with a Run-style
// method, assembled by small, independent per-operator types rather than
// a single monolithic evaluator — generalized here from "single input,
// single output" to "lazy batch stream, stable+recent views".
package dataflow

import (
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
)

// Dataflow is the common interface every operator and leaf implements.
// IterRecent satisfies relation.RecentProducer, so a tree's root can be
// drained straight into a target Relation's to-add buffer via
// Relation.InsertDataflowRecent without this package importing relation
// for anything beyond the Batch/RecentProducer types it already needs.
type Dataflow interface {
	IterStable() []relation.Batch
	IterRecent() []relation.Batch
}

// relationLeaf is the Relation(name) leaf of spec §4.3: it reads straight
// through to the current stable/recent batches of the named relation.
type relationLeaf struct {
	rel *relation.Relation
}

// FromRelation wraps a Relation as a dataflow leaf.
func FromRelation(rel *relation.Relation) Dataflow {
	return relationLeaf{rel: rel}
}

func (l relationLeaf) IterStable() []relation.Batch { return []relation.Batch{l.rel.Stable()} }
func (l relationLeaf) IterRecent() []relation.Batch { return []relation.Batch{l.rel.Recent()} }

// unitLeaf is the Unit leaf of spec §4.3: a constant single-element
// relation holding the unit tuple tagged with the context's semiring one,
// present in stable from the first pass onward and never recent again
// (it never changes, so re-deriving it would be wasted work).
type unitLeaf struct {
	batch relation.Batch
}

// Unit returns the constant one-tuple dataflow leaf for ctx.
func Unit(ctx provenance.Context) Dataflow {
	return unitLeaf{batch: relation.NewBatch([]provenance.Element{{Tuple: value.Seq(), Tag: ctx.One()}})}
}

func (l unitLeaf) IterStable() []relation.Batch { return []relation.Batch{l.batch} }
func (l unitLeaf) IterRecent() []relation.Batch { return nil }

// concatElements flattens a Dataflow's stable or recent stream into one
// element slice by concatenating its batches in order, without
// re-sorting. Every operator in this package needs a single view of its
// operand(s) to walk, so this is the shared entry point rather than each
// node re-flattening inline.
func concatElements(batches []relation.Batch) []provenance.Element {
	n := 0
	for _, b := range batches {
		n += b.Len()
	}
	out := make([]provenance.Element, 0, n)
	for _, b := range batches {
		out = append(out, b.Elements()...)
	}
	return out
}

// asSortedBatch flattens d's stream (stable or recent, chosen by the
// caller) into one Batch. Leaves and most operators already maintain
// sortedness internally, so this mostly just concatenates; it re-sorts
// defensively since a malformed custom Dataflow could violate ordering.
func asSortedBatch(batches []relation.Batch) (relation.Batch, error) {
	return relation.SortedBatch(concatElements(batches))
}

// Project reshapes every tuple through accessors (tag unchanged). Per
// spec §4.3 this has no effect on tags; since an arbitrary accessor list
// need not preserve the source ordering, the result is re-sorted.
type Project struct {
	Source    Dataflow
	Accessors []value.TupleAccessor
}

func (p Project) IterStable() []relation.Batch { return p.project(p.Source.IterStable()) }
func (p Project) IterRecent() []relation.Batch { return p.project(p.Source.IterRecent()) }

func (p Project) project(batches []relation.Batch) []relation.Batch {
	elems := concatElements(batches)
	out := make([]provenance.Element, len(elems))
	for i, e := range elems {
		tup, err := value.Project(e.Tuple, p.Accessors)
		if err != nil {
			// Construction-time accessor errors indicate a malformed RAM
			// program; spec treats these as fatal at build time, not a
			// per-element skip, so panic rather than silently dropping
			// rows the caller expects to see.
			panic(err)
		}
		out[i] = provenance.Element{Tuple: tup, Tag: e.Tag}
	}
	batch, err := relation.SortedBatch(out)
	if err != nil {
		panic(err)
	}
	return []relation.Batch{batch}
}

// Filter drops elements failing a pure predicate; tag and ordering are
// unaffected since it only removes a subsequence of an already-sorted
// stream.
type Filter struct {
	Source    Dataflow
	Predicate func(value.Tuple) bool
}

func (f Filter) IterStable() []relation.Batch { return f.filter(f.Source.IterStable()) }
func (f Filter) IterRecent() []relation.Batch { return f.filter(f.Source.IterRecent()) }

func (f Filter) filter(batches []relation.Batch) []relation.Batch {
	elems := concatElements(batches)
	out := make([]provenance.Element, 0, len(elems))
	for _, e := range elems {
		if f.Predicate(e.Tuple) {
			out = append(out, e)
		}
	}
	return []relation.Batch{relation.NewBatch(out)}
}

// Find retains elements whose first component equals Key, located via
// Batch.SearchAhead rather than a linear scan (spec §4.3's explicit
// direction: "uses batch search_ahead").
type Find struct {
	Source Dataflow
	Key    value.Tuple
}

func (f Find) IterStable() []relation.Batch { return f.find(f.Source.IterStable()) }
func (f Find) IterRecent() []relation.Batch { return f.find(f.Source.IterRecent()) }

func (f Find) find(batches []relation.Batch) []relation.Batch {
	var out []provenance.Element
	for _, b := range batches {
		start := b.SearchAhead(func(t value.Tuple) bool {
			c, err := value.CompareTuples(firstComponent(t), f.Key)
			if err != nil {
				panic(err)
			}
			return c < 0
		})
		for i := start; i < b.Len(); i++ {
			e := b.At(i)
			c, err := value.CompareTuples(firstComponent(e.Tuple), f.Key)
			if err != nil {
				panic(err)
			}
			if c != 0 {
				break
			}
			out = append(out, e)
		}
	}
	return []relation.Batch{relation.NewBatch(out)}
}

// firstComponent returns a tuple's leading child, or the tuple itself if
// it is a leaf (a leaf tuple is its own sole "component").
func firstComponent(t value.Tuple) value.Tuple {
	if t.IsLeaf() || len(t.Children()) == 0 {
		return t
	}
	return t.Children()[0]
}
