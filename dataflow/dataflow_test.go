package dataflow

import (
	"testing"

	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
)

func leafI64(v int64) value.Tuple { return value.Leaf(value.NewI64(v)) }

func kv(k, v int64) value.Tuple {
	return value.Seq(leafI64(k), leafI64(v))
}

func newRel(t *testing.T, ctx provenance.Context, name string, facts []value.Tuple, tt value.TupleType) *relation.Relation {
	t.Helper()
	r := relation.New(name, tt)
	if err := r.InsertUntagged(ctx, facts); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := r.Changed(ctx); err != nil {
		t.Fatalf("changed: %v", err)
	}
	if _, err := r.Changed(ctx); err != nil { // promote recent -> stable
		t.Fatalf("changed: %v", err)
	}
	return r
}

var pairType = value.SeqType(value.LeafType(value.KindI64), value.LeafType(value.KindI64))

func TestProjectAndFilter(t *testing.T) {
	ctx := provenance.NewUnitContext()
	rel := newRel(t, ctx, "p", []value.Tuple{kv(1, 10), kv(2, 20), kv(3, 30)}, pairType)
	src := FromRelation(rel)

	proj := Project{Source: src, Accessors: []value.TupleAccessor{{1}}}
	batches := proj.IterStable()
	if got := totalLen(batches); got != 3 {
		t.Fatalf("project: got %d elements, want 3", got)
	}

	filt := Filter{Source: src, Predicate: func(tup value.Tuple) bool {
		return tup.Children()[0].Value().I64() >= 2
	}}
	fb := filt.IterStable()
	if got := totalLen(fb); got != 2 {
		t.Fatalf("filter: got %d elements, want 2", got)
	}
}

func TestFind(t *testing.T) {
	ctx := provenance.NewUnitContext()
	rel := newRel(t, ctx, "p", []value.Tuple{kv(1, 10), kv(1, 11), kv(2, 20)}, pairType)
	find := Find{Source: FromRelation(rel), Key: leafI64(1)}
	out := find.IterStable()
	if got := totalLen(out); got != 2 {
		t.Fatalf("find: got %d elements, want 2", got)
	}
}

func TestUnion(t *testing.T) {
	ctx := provenance.NewUnitContext()
	a := newRel(t, ctx, "a", []value.Tuple{leafI64(1), leafI64(2)}, value.LeafType(value.KindI64))
	b := newRel(t, ctx, "b", []value.Tuple{leafI64(2), leafI64(3)}, value.LeafType(value.KindI64))

	u := Union{Left: FromRelation(a), Right: FromRelation(b), Ctx: ctx}
	out := u.IterStable()
	if got := totalLen(out); got != 3 {
		t.Fatalf("union: got %d elements, want 3 (dedup of shared tuple 2)", got)
	}
}

func TestIntersect(t *testing.T) {
	ctx := provenance.NewUnitContext()
	a := newRel(t, ctx, "a", []value.Tuple{leafI64(1), leafI64(2)}, value.LeafType(value.KindI64))
	b := newRel(t, ctx, "b", []value.Tuple{leafI64(2), leafI64(3)}, value.LeafType(value.KindI64))

	x := Intersect{Left: FromRelation(a), Right: FromRelation(b), Ctx: ctx}
	out := x.IterStable()
	if got := totalLen(out); got != 1 {
		t.Fatalf("intersect: got %d elements, want 1", got)
	}
}

func TestProduct(t *testing.T) {
	ctx := provenance.NewUnitContext()
	a := newRel(t, ctx, "a", []value.Tuple{leafI64(1), leafI64(2)}, value.LeafType(value.KindI64))
	b := newRel(t, ctx, "b", []value.Tuple{leafI64(10)}, value.LeafType(value.KindI64))

	p := Product{Left: FromRelation(a), Right: FromRelation(b), Ctx: ctx}
	out := p.IterStable()
	if got := totalLen(out); got != 2 {
		t.Fatalf("product: got %d elements, want 2", got)
	}
}

func TestJoin(t *testing.T) {
	ctx := provenance.NewUnitContext()
	edgeType := value.SeqType(value.LeafType(value.KindI64), value.LeafType(value.KindI64))
	ab := newRel(t, ctx, "ab", []value.Tuple{kv(1, 2), kv(1, 3)}, edgeType)
	bc := newRel(t, ctx, "bc", []value.Tuple{kv(2, 100), kv(3, 200)}, edgeType)

	// Re-key ab as (b, a) so its join key meets bc's leading column.
	abByB := Project{Source: FromRelation(ab), Accessors: []value.TupleAccessor{{1}, {0}}}
	j := Join{Left: abByB, Right: FromRelation(bc), LeftArity: 1, RightArity: 1, Ctx: ctx}
	out := j.IterStable()
	if got := totalLen(out); got != 2 {
		t.Fatalf("join: got %d elements, want 2", got)
	}
}

func TestAntijoin(t *testing.T) {
	ctx := provenance.NewUnitContext()
	edgeType := value.SeqType(value.LeafType(value.KindI64), value.LeafType(value.KindI64))
	left := newRel(t, ctx, "left", []value.Tuple{kv(1, 2), kv(1, 3)}, edgeType)
	right := newRel(t, ctx, "right", []value.Tuple{kv(1, 999)}, edgeType)

	aj := Antijoin{Left: FromRelation(left), Right: FromRelation(right), LeftArity: 1, Ctx: ctx}
	out := aj.IterStable()
	// Under unit provenance, Minus always succeeds and the matched tuples'
	// tag becomes zero (discarded); only unmatched keys pass through, and
	// here the right side matches key=1 for every left element, so
	// nothing survives.
	if got := totalLen(out); got != 0 {
		t.Fatalf("antijoin: got %d elements, want 0", got)
	}
}

func TestReduceCountNone(t *testing.T) {
	ctx := provenance.NewUnitContext()
	rel := newRel(t, ctx, "p", []value.Tuple{leafI64(1), leafI64(2), leafI64(3)}, value.LeafType(value.KindI64))
	red := Reduce{Source: FromRelation(rel), Aggregate: AggCount, Ctx: ctx}
	out := red.IterStable()
	elems := concatElements(out)
	if len(elems) != 1 {
		t.Fatalf("reduce count: got %d elements, want 1", len(elems))
	}
	if got := elems[0].Tuple.Value().I64(); got != 3 {
		t.Fatalf("reduce count: got %d, want 3", got)
	}
}

func TestReduceSumImplicitGroup(t *testing.T) {
	ctx := provenance.NewUnitContext()
	rel := newRel(t, ctx, "p", []value.Tuple{kv(1, 10), kv(1, 20), kv(2, 5)}, pairType)
	red := Reduce{
		Source:    FromRelation(rel),
		Aggregate: AggSum,
		KeyArity:  1,
		OrderBy:   value.TupleAccessor{1},
		Group:     GroupMode{Kind: GroupImplicit},
		Ctx:       ctx,
	}
	out := concatElements(red.IterStable())
	if len(out) != 2 {
		t.Fatalf("reduce sum: got %d groups, want 2", len(out))
	}
	totals := map[int64]int64{}
	for _, e := range out {
		// The group key is itself a Seq of the KeyArity key children.
		key := e.Tuple.Children()[0].Children()[0].Value().I64()
		sum := e.Tuple.Children()[1].Value().I64()
		totals[key] = sum
	}
	if totals[1] != 30 || totals[2] != 5 {
		t.Fatalf("reduce sum: got %v, want {1:30, 2:5}", totals)
	}
}

func totalLen(batches []relation.Batch) int {
	n := 0
	for _, b := range batches {
		n += b.Len()
	}
	return n
}
