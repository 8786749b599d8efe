package dataflow

import (
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
)

// mergeElements walks two tuple-sorted element slices and folds equal
// tuples' tags with combine; passThrough selects the non-matching
// behavior of either Union (true: pass everything through) or
// Intersect (false: drop non-matches). Shared by Union/Intersect, both of which
// are equal-tuple merges differing only in what happens to non-matches
// and which semiring operation folds a match.
func mergeElements(a, b []provenance.Element, ctx provenance.Context, combine func(x, y provenance.Tag) (provenance.Tag, error), passThrough bool) ([]provenance.Element, error) {
	out := make([]provenance.Element, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		c, err := value.CompareTuples(a[i].Tuple, b[j].Tuple)
		if err != nil {
			return nil, err
		}
		switch {
		case c < 0:
			if passThrough {
				out = append(out, a[i])
			}
			i++
		case c > 0:
			if passThrough {
				out = append(out, b[j])
			}
			j++
		default:
			tag, err := combine(a[i].Tag, b[j].Tag)
			if err != nil {
				return nil, err
			}
			if !ctx.Discard(tag) {
				out = append(out, provenance.Element{Tuple: a[i].Tuple, Tag: tag})
			}
			i++
			j++
		}
	}
	if passThrough {
		out = append(out, a[i:]...)
		out = append(out, b[j:]...)
	}
	return out, nil
}

// deltaParts returns the three cross terms of the delta law
// recent(d1 ⊕ d2) = (stable(d1) ⊕ recent(d2)) · (recent(d1) ⊕ stable(d2)) · (recent(d1) ⊕ recent(d2))
// as element slices, letting a caller fold them together with whatever
// combine rule the operator uses. Each term is itself computed with
// mergeElements so the delta law and the plain stable⊕stable evaluation
// share one merge implementation.
func deltaParts(d1, d2 Dataflow, ctx provenance.Context, combine func(x, y provenance.Tag) (provenance.Tag, error), passThrough bool) ([]provenance.Element, error) {
	stable1 := concatElements(d1.IterStable())
	stable2 := concatElements(d2.IterStable())
	recent1 := concatElements(d1.IterRecent())
	recent2 := concatElements(d2.IterRecent())

	terms := []struct{ a, b, recent []provenance.Element }{
		{stable1, recent2, recent2},
		{recent1, stable2, recent1},
		{recent1, recent2, recent2},
	}
	var all []provenance.Element
	for _, t := range terms {
		// Every term has one "recent" operand (recent2 in the first and
		// third terms, recent1 in the second); if it's empty,
		// mergeElements with passThrough=true would still walk and
		// re-copy the whole stable operand for zero new combinations —
		// every one of its tuples is already accounted for from an
		// earlier iteration. Skipping the call entirely avoids that
		// repeated pass-through without changing the union's result.
		if len(t.recent) == 0 {
			continue
		}
		part, err := mergeElements(t.a, t.b, ctx, combine, passThrough)
		if err != nil {
			return nil, err
		}
		all = append(all, part...)
	}
	return all, nil
}

// Union merges two operand streams; equal tuples are combined by
// ctx.Add, non-matching tuples pass through unchanged.
type Union struct {
	Left, Right Dataflow
	Ctx         provenance.Context
}

func (u Union) IterStable() []relation.Batch {
	a := concatElements(u.Left.IterStable())
	b := concatElements(u.Right.IterStable())
	out, err := mergeElements(a, b, u.Ctx, u.Ctx.Add, true)
	if err != nil {
		panic(err)
	}
	return asSingleton(out)
}

func (u Union) IterRecent() []relation.Batch {
	out, err := deltaParts(u.Left, u.Right, u.Ctx, u.Ctx.Add, true)
	if err != nil {
		panic(err)
	}
	return asSingleton(out)
}

// Intersect keeps only equal-tuple pairs, combined by ctx.Mult;
// non-matching tuples are dropped.
type Intersect struct {
	Left, Right Dataflow
	Ctx         provenance.Context
}

func (x Intersect) IterStable() []relation.Batch {
	a := concatElements(x.Left.IterStable())
	b := concatElements(x.Right.IterStable())
	out, err := mergeElements(a, b, x.Ctx, x.Ctx.Mult, false)
	if err != nil {
		panic(err)
	}
	return asSingleton(out)
}

func (x Intersect) IterRecent() []relation.Batch {
	out, err := deltaParts(x.Left, x.Right, x.Ctx, x.Ctx.Mult, false)
	if err != nil {
		panic(err)
	}
	return asSingleton(out)
}

// Product is the Cartesian product of two operand streams: every pair of
// elements is emitted, tuple = Seq(left, right), tag = mult(t1, t2).
// Since the outer loop walks d1 in ascending order and replays all of d2
// in ascending order for each d1 element, the output is already sorted
// under CompareTuples (which compares the first child — the d1 side —
// before the second).
type Product struct {
	Left, Right Dataflow
	Ctx         provenance.Context
}

func (p Product) IterStable() []relation.Batch {
	a := concatElements(p.Left.IterStable())
	b := concatElements(p.Right.IterStable())
	out, err := cartesian(a, b, p.Ctx)
	if err != nil {
		panic(err)
	}
	return []relation.Batch{relation.NewBatch(out)}
}

func (p Product) IterRecent() []relation.Batch {
	stable1 := concatElements(p.Left.IterStable())
	stable2 := concatElements(p.Right.IterStable())
	recent1 := concatElements(p.Left.IterRecent())
	recent2 := concatElements(p.Right.IterRecent())

	var all []provenance.Element
	for _, pair := range [][2][]provenance.Element{
		{stable1, recent2},
		{recent1, stable2},
		{recent1, recent2},
	} {
		part, err := cartesian(pair[0], pair[1], p.Ctx)
		if err != nil {
			panic(err)
		}
		all = append(all, part...)
	}
	return []relation.Batch{relation.NewBatch(all)}
}

func cartesian(a, b []provenance.Element, ctx provenance.Context) ([]provenance.Element, error) {
	out := make([]provenance.Element, 0, len(a)*len(b))
	for _, ea := range a {
		for _, eb := range b {
			tag, err := ctx.Mult(ea.Tag, eb.Tag)
			if err != nil {
				return nil, err
			}
			if ctx.Discard(tag) {
				continue
			}
			out = append(out, provenance.Element{Tuple: value.Seq(ea.Tuple, eb.Tuple), Tag: tag})
		}
	}
	return out, nil
}

// Join is the keyed equi-join of spec §4.3: each operand's tuple is
// viewed as (key, payload) by splitting its children at LeftArity
// (Left) or RightArity (Right). Equal keys are paired via a merge-sort
// walk — gathering the equal-key run on both sides and cross-multiplying
// with mult-combined tags — and differing keys advance the lower side
// one element at a time. The output tuple is Seq(key, leftPayload...,
// rightPayload...), where key is itself a Seq of the key children.
type Join struct {
	Left, Right         Dataflow
	LeftArity, RightArity int
	Ctx                 provenance.Context
}

func (jn Join) IterStable() []relation.Batch {
	a := concatElements(jn.Left.IterStable())
	b := concatElements(jn.Right.IterStable())
	out, err := mergeJoin(a, b, jn.LeftArity, jn.RightArity, jn.Ctx)
	if err != nil {
		panic(err)
	}
	return []relation.Batch{relation.NewBatch(out)}
}

func (jn Join) IterRecent() []relation.Batch {
	stable1 := concatElements(jn.Left.IterStable())
	stable2 := concatElements(jn.Right.IterStable())
	recent1 := concatElements(jn.Left.IterRecent())
	recent2 := concatElements(jn.Right.IterRecent())

	var all []provenance.Element
	for _, pair := range [][2][]provenance.Element{
		{stable1, recent2},
		{recent1, stable2},
		{recent1, recent2},
	} {
		part, err := mergeJoin(pair[0], pair[1], jn.LeftArity, jn.RightArity, jn.Ctx)
		if err != nil {
			panic(err)
		}
		all = append(all, part...)
	}
	return []relation.Batch{relation.NewBatch(all)}
}

// splitKey divides a tuple's children into its leading key (the first
// arity children) and its remaining payload children.
func splitKey(t value.Tuple, arity int) (key value.Tuple, payload []value.Tuple) {
	children := t.Children()
	return value.Seq(children[:arity]...), children[arity:]
}

func mergeJoin(a, b []provenance.Element, leftArity, rightArity int, ctx provenance.Context) ([]provenance.Element, error) {
	var out []provenance.Element
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		keyA, _ := splitKey(a[i].Tuple, leftArity)
		keyB, _ := splitKey(b[j].Tuple, rightArity)
		c, err := value.CompareTuples(keyA, keyB)
		if err != nil {
			return nil, err
		}
		switch {
		case c < 0:
			i++
		case c > 0:
			j++
		default:
			runEndA := i
			for runEndA < len(a) {
				k, _ := splitKey(a[runEndA].Tuple, leftArity)
				if eq, err := value.TuplesEqual(k, keyA); err != nil {
					return nil, err
				} else if !eq {
					break
				}
				runEndA++
			}
			runEndB := j
			for runEndB < len(b) {
				k, _ := splitKey(b[runEndB].Tuple, rightArity)
				if eq, err := value.TuplesEqual(k, keyB); err != nil {
					return nil, err
				} else if !eq {
					break
				}
				runEndB++
			}
			for x := i; x < runEndA; x++ {
				_, payloadA := splitKey(a[x].Tuple, leftArity)
				for y := j; y < runEndB; y++ {
					_, payloadB := splitKey(b[y].Tuple, rightArity)
					tag, err := ctx.Mult(a[x].Tag, b[y].Tag)
					if err != nil {
						return nil, err
					}
					if ctx.Discard(tag) {
						continue
					}
					children := make([]value.Tuple, 0, 1+len(payloadA)+len(payloadB))
					children = append(children, keyA)
					children = append(children, payloadA...)
					children = append(children, payloadB...)
					out = append(out, provenance.Element{Tuple: value.Seq(children...), Tag: tag})
				}
			}
			i = runEndA
			j = runEndB
		}
	}
	sorted, err := relation.SortedBatch(out)
	if err != nil {
		return nil, err
	}
	return sorted.Elements(), nil
}

// asSingleton wraps an element slice as the single batch a node's
// IterStable/IterRecent returns, without sorting it. mergeElements'
// output is sorted; deltaParts' output is three sorted terms
// concatenated, so it is not sorted as a whole.
func asSingleton(elems []provenance.Element) []relation.Batch {
	return []relation.Batch{relation.NewBatch(elems)}
}
