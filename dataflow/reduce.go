package dataflow

import (
	"sort"

	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
)

// Aggregate names one entry of spec §4.4's catalog.
type Aggregate int

const (
	AggCount Aggregate = iota
	AggSum
	AggProd
	AggMin
	AggMax
	AggArgmin
	AggArgmax
	AggExists
	AggForall
	AggUnique
	AggTopK
)

// GroupKind selects one of spec §4.4's ReduceGroupByType modes.
type GroupKind int

const (
	// GroupNone aggregates the whole predicate as a single group.
	GroupNone GroupKind = iota
	// GroupImplicit groups by the leading KeyArity columns of the
	// predicate's tuple type.
	GroupImplicit
	// GroupJoin performs an antijoin-style outer scan over Other's keys,
	// so a key present in Other but absent from Source still emits a
	// group with the aggregate's empty semantics (e.g. 0 for count).
	GroupJoin
)

// GroupMode configures Reduce's grouping.
type GroupMode struct {
	Kind  GroupKind
	Other Dataflow // only meaningful when Kind == GroupJoin
}

// Reduce applies a named Aggregate to Source's contents, optionally
// grouped, per spec §4.4. It recomputes fully on every call rather than
// incrementally: spec.md's delta law (§4.3) is specified only for the
// binary dataflow nodes, not for Reduce, so IterStable and IterRecent
// both return the same freshly computed batch — a materialized rather
// than differential aggregate, the scope simplification recorded in
// DESIGN.md.
type Reduce struct {
	Source    Dataflow
	Aggregate Aggregate
	// KeyArity is the number of leading children that form the group key
	// under GroupImplicit; ignored otherwise.
	KeyArity int
	// OrderBy locates the scalar value within each tuple that Min/Max/
	// Argmin/Argmax/Sum/Prod/TopK operate over.
	OrderBy value.TupleAccessor
	Group   GroupMode
	K       int // only meaningful for AggTopK
	Ctx     provenance.Context
}

func (r Reduce) IterStable() []relation.Batch { return r.eval() }
func (r Reduce) IterRecent() []relation.Batch { return r.eval() }

func (r Reduce) eval() []relation.Batch {
	// A relation's stable batch already holds every element of its
	// recent batch, so Source's stable stream is its full content;
	// appending the recent stream too would count those elements twice.
	elems := concatElements(r.Source.IterStable())

	switch r.Group.Kind {
	case GroupNone:
		out, err := r.aggregateGroup(elems)
		if err != nil {
			panic(err)
		}
		return []relation.Batch{relation.NewBatch(out)}
	case GroupImplicit:
		groups := groupByPrefix(elems, r.KeyArity)
		return r.evalGroups(groups)
	case GroupJoin:
		otherKeys, err := materializeByKey(r.Group.Other, func(t value.Tuple) value.Tuple {
			key, _ := splitKey(t, r.KeyArity)
			return key
		}, r.Ctx)
		if err != nil {
			panic(err)
		}
		present := groupByPrefix(elems, r.KeyArity)
		groups := outerJoinGroups(otherKeys, present)
		return r.evalGroups(groups)
	default:
		panic("dataflow: unknown GroupKind")
	}
}

type keyedGroup struct {
	key   value.Tuple
	elems []provenance.Element
}

// groupByPrefix partitions elems into contiguous runs sharing the leading
// arity children, after sorting by that prefix.
func groupByPrefix(elems []provenance.Element, arity int) []keyedGroup {
	type pair struct {
		key value.Tuple
		e   provenance.Element
	}
	pairs := make([]pair, len(elems))
	for i, e := range elems {
		key, _ := splitKey(e.Tuple, arity)
		pairs[i] = pair{key: key, e: e}
	}
	sort.SliceStable(pairs, func(i, j int) bool {
		c, err := value.CompareTuples(pairs[i].key, pairs[j].key)
		if err != nil {
			panic(err)
		}
		return c < 0
	})
	var groups []keyedGroup
	i := 0
	for i < len(pairs) {
		key := pairs[i].key
		j := i
		var members []provenance.Element
		for j < len(pairs) {
			eq, err := value.TuplesEqual(pairs[j].key, key)
			if err != nil {
				panic(err)
			}
			if !eq {
				break
			}
			members = append(members, pairs[j].e)
			j++
		}
		groups = append(groups, keyedGroup{key: key, elems: members})
		i = j
	}
	return groups
}

// outerJoinGroups folds present (keys actually derived in Source) into
// the full key universe named by other, inserting empty groups for keys
// present in other but missing from Source.
func outerJoinGroups(other []keyedTag, present []keyedGroup) []keyedGroup {
	byKey := make(map[string]*keyedGroup, len(present))
	for i := range present {
		byKey[present[i].key.String()] = &present[i]
	}
	out := make([]keyedGroup, 0, len(other))
	for _, o := range other {
		if g, ok := byKey[o.Key.String()]; ok {
			out = append(out, *g)
		} else {
			out = append(out, keyedGroup{key: o.Key})
		}
	}
	return out
}

func (r Reduce) evalGroups(groups []keyedGroup) []relation.Batch {
	var out []provenance.Element
	for _, g := range groups {
		vals, err := r.aggregateGroup(g.elems)
		if err != nil {
			panic(err)
		}
		for _, v := range vals {
			children := append([]value.Tuple{g.key}, v.Tuple)
			out = append(out, provenance.Element{Tuple: value.Seq(children...), Tag: v.Tag})
		}
	}
	sorted, err := relation.SortedBatch(out)
	if err != nil {
		panic(err)
	}
	return []relation.Batch{sorted}
}

// aggregateGroup computes the catalog entry's semantics over one group's
// elements. It may return more than one element for Min/Max/Argmin/
// Argmax/Count under a probabilistic scheme: the dynamic_* aggregates
// are themselves distributions over candidate outcomes (spec §4.4), not
// a single deterministic answer, which is why ctx.DynamicMin/Max/Count
// return a batch rather than one value.
func (r Reduce) aggregateGroup(elems []provenance.Element) ([]provenance.Element, error) {
	switch r.Aggregate {
	case AggCount:
		return r.Ctx.DynamicCount(elems)
	case AggExists:
		return r.Ctx.DynamicExists(elems)
	case AggForall:
		return r.forall(elems)
	case AggMin, AggArgmin:
		sorted, err := r.sortByOrder(elems, true)
		if err != nil {
			return nil, err
		}
		return r.Ctx.DynamicMin(sorted)
	case AggMax, AggArgmax:
		sorted, err := r.sortByOrder(elems, false)
		if err != nil {
			return nil, err
		}
		return r.Ctx.DynamicMax(sorted)
	case AggSum:
		return r.sumOrProd(elems, true)
	case AggProd:
		return r.sumOrProd(elems, false)
	case AggUnique:
		return r.unique(elems)
	case AggTopK:
		return r.topK(elems)
	default:
		return nil, &provenance.UnsupportedOperationError{Scheme: r.Ctx.Name(), Op: "reduce (unknown aggregate)"}
	}
}

// forall is "not exists (not x)" per spec §4.4's rewrite; it requires a
// total Negate, surfacing UnsupportedOperation when the scheme (e.g.
// sample-k-proofs) lacks one.
func (r Reduce) forall(elems []provenance.Element) ([]provenance.Element, error) {
	negated := make([]provenance.Element, len(elems))
	for i, e := range elems {
		neg, ok, err := r.Ctx.Negate(e.Tag)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &provenance.UnsupportedOperationError{Scheme: r.Ctx.Name(), Op: "forall (negate undefined)"}
		}
		negated[i] = provenance.Element{Tuple: e.Tuple, Tag: neg}
	}
	existsNotX, err := r.Ctx.DynamicExists(negated)
	if err != nil {
		return nil, err
	}
	out := make([]provenance.Element, len(existsNotX))
	for i, e := range existsNotX {
		neg, ok, err := r.Ctx.Negate(e.Tag)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &provenance.UnsupportedOperationError{Scheme: r.Ctx.Name(), Op: "forall (negate undefined)"}
		}
		out[i] = provenance.Element{Tuple: e.Tuple, Tag: neg}
	}
	return out, nil
}

// sortByOrder sorts elems by the scalar OrderBy locates, ascending (for
// Min) or descending (for Max) — the ordering GenericDynamicMin/Max
// document as a caller responsibility.
func (r Reduce) sortByOrder(elems []provenance.Element, ascending bool) ([]provenance.Element, error) {
	out := append([]provenance.Element(nil), elems...)
	var sortErr error
	sort.SliceStable(out, func(i, j int) bool {
		vi, err := r.OrderBy.Get(out[i].Tuple)
		if err != nil {
			sortErr = err
			return false
		}
		vj, err := r.OrderBy.Get(out[j].Tuple)
		if err != nil {
			sortErr = err
			return false
		}
		c, err := value.CompareTuples(vi, vj)
		if err != nil {
			sortErr = err
			return false
		}
		if ascending {
			return c < 0
		}
		return c > 0
	})
	return out, sortErr
}

// sumOrProd folds the scalar OrderBy locates across every element via
// plain arithmetic, and folds every contributing tag together via
// ctx.Add. Context has no dynamic_sum/dynamic_prod primitive (spec §4.1's
// table), so this is necessarily an approximation under probabilistic
// schemes: the emitted tag records "this total holds if any contributing
// derivation held", not a weighted expectation over subsets.
func (r Reduce) sumOrProd(elems []provenance.Element, sum bool) ([]provenance.Element, error) {
	if len(elems) == 0 {
		if sum {
			return []provenance.Element{{Tuple: value.Leaf(value.NewI64(0)), Tag: r.Ctx.One()}}, nil
		}
		return []provenance.Element{{Tuple: value.Leaf(value.NewI64(1)), Tag: r.Ctx.One()}}, nil
	}
	acc := int64(0)
	if !sum {
		acc = 1
	}
	tag := r.Ctx.Zero()
	first := true
	for _, e := range elems {
		v, err := r.OrderBy.Get(e.Tuple)
		if err != nil {
			return nil, err
		}
		if sum {
			acc += v.Value().I64()
		} else {
			acc *= v.Value().I64()
		}
		if first {
			tag = e.Tag
			first = false
			continue
		}
		combined, err := r.Ctx.Add(tag, e.Tag)
		if err != nil {
			return nil, err
		}
		tag = combined
	}
	return []provenance.Element{{Tuple: value.Leaf(value.NewI64(acc)), Tag: tag}}, nil
}

// unique assumes the group's elements already share one logical payload
// (the caller is expected to have grouped by the columns that make the
// value functionally determined); it folds every derivation's tag
// together via ctx.Add and emits the shared tuple once.
func (r Reduce) unique(elems []provenance.Element) ([]provenance.Element, error) {
	if len(elems) == 0 {
		return nil, nil
	}
	tag := elems[0].Tag
	for _, e := range elems[1:] {
		combined, err := r.Ctx.Add(tag, e.Tag)
		if err != nil {
			return nil, err
		}
		tag = combined
	}
	if r.Ctx.Discard(tag) {
		return nil, nil
	}
	return []provenance.Element{{Tuple: elems[0].Tuple, Tag: tag}}, nil
}

// topK keeps the K elements with the highest OrderBy value, tags
// unchanged (spec lists top-k alongside the other aggregates without a
// semiring rewrite, so unlike provenance's own top-k-proofs clause
// truncation this is a plain value-ranked limit).
func (r Reduce) topK(elems []provenance.Element) ([]provenance.Element, error) {
	sorted, err := r.sortByOrder(elems, false)
	if err != nil {
		return nil, err
	}
	if len(sorted) > r.K {
		sorted = sorted[:r.K]
	}
	return sorted, nil
}
