package dataflow

import (
	"sort"

	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
)

// keyedTag is one entry of a materialized antijoin/difference right side:
// a key (or, for Difference, the whole tuple) with every matching
// element's tag folded together via ctx.Add, so a single minus(t1, ·)
// call against the combined tag captures "none of the matches held" for
// schemes whose Negate is total.
type keyedTag struct {
	Key value.Tuple
	Tag provenance.Tag
}

// materializeByKey flattens d's full contents (stable and recent both —
// spec §4.3 requires the antijoin/difference right side to be a
// materialized collection, not a differential one) and folds same-key
// elements together by ctx.Add.
func materializeByKey(d Dataflow, keyOf func(value.Tuple) value.Tuple, ctx provenance.Context) ([]keyedTag, error) {
	elems := concatElements(d.IterStable())
	elems = append(elems, concatElements(d.IterRecent())...)

	type pair struct {
		key value.Tuple
		tag provenance.Tag
	}
	pairs := make([]pair, len(elems))
	for i, e := range elems {
		pairs[i] = pair{key: keyOf(e.Tuple), tag: e.Tag}
	}
	var sortErr error
	sort.SliceStable(pairs, func(i, j int) bool {
		c, err := value.CompareTuples(pairs[i].key, pairs[j].key)
		if err != nil {
			sortErr = err
			return false
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}

	out := make([]keyedTag, 0, len(pairs))
	i := 0
	for i < len(pairs) {
		key := pairs[i].key
		tag := pairs[i].tag
		j := i + 1
		for j < len(pairs) {
			c, err := value.CompareTuples(key, pairs[j].key)
			if err != nil {
				return nil, err
			}
			if c != 0 {
				break
			}
			tag, err = ctx.Add(tag, pairs[j].tag)
			if err != nil {
				return nil, err
			}
			j++
		}
		out = append(out, keyedTag{Key: key, Tag: tag})
		i = j
	}
	return out, nil
}

// findKey returns the combined tag for key in a sorted []keyedTag, or
// (nil, false) if no entry matches.
func findKey(sorted []keyedTag, key value.Tuple) (provenance.Tag, bool, error) {
	lo, hi := 0, len(sorted)
	for lo < hi {
		mid := (lo + hi) / 2
		c, err := value.CompareTuples(sorted[mid].Key, key)
		if err != nil {
			return nil, false, err
		}
		switch {
		case c < 0:
			lo = mid + 1
		case c > 0:
			hi = mid
		default:
			return sorted[mid].Tag, true, nil
		}
	}
	return nil, false, nil
}

// applyAntijoin implements the shared Antijoin/Difference tag rule of
// spec §4.3: if a matching key exists on the materialized right side, the
// emitted tag is minus(t1, matched); if minus is undefined for the
// scheme, the element is dropped. With no match, the left element passes
// through unchanged.
func applyAntijoin(left []provenance.Element, right []keyedTag, keyOf func(value.Tuple) value.Tuple, ctx provenance.Context) ([]provenance.Element, error) {
	out := make([]provenance.Element, 0, len(left))
	for _, e := range left {
		matched, ok, err := findKey(right, keyOf(e.Tuple))
		if err != nil {
			return nil, err
		}
		if !ok {
			out = append(out, e)
			continue
		}
		minus, defined, err := ctx.Minus(e.Tag, matched)
		if err != nil {
			return nil, err
		}
		if !defined || ctx.Discard(minus) {
			continue
		}
		out = append(out, provenance.Element{Tuple: e.Tuple, Tag: minus})
	}
	return out, nil
}

// Antijoin implements spec §4.3's Antijoin(d1, d2): for each (key,
// payload) element of Left, drop or discount it if Right holds a
// matching key, pass it through unchanged otherwise. Right is
// materialized once per evaluation since antijoin is not differential on
// its right side.
type Antijoin struct {
	Left, Right Dataflow
	LeftArity   int
	Ctx         provenance.Context
}

func (aj Antijoin) keyOf(t value.Tuple) value.Tuple {
	if t.IsLeaf() {
		return t
	}
	key, _ := splitKey(t, aj.LeftArity)
	return key
}

func (aj Antijoin) IterStable() []relation.Batch { return aj.run(aj.Left.IterStable()) }
func (aj Antijoin) IterRecent() []relation.Batch { return aj.run(aj.Left.IterRecent()) }

func (aj Antijoin) run(leftBatches []relation.Batch) []relation.Batch {
	// Right's key arity is assumed to match Left's (spec's Join key
	// contract applies symmetrically to antijoin operands); a Right whose
	// tuples are flat leaves uses the whole tuple as its own key.
	right, err := materializeByKey(aj.Right, aj.keyOf, aj.Ctx)
	if err != nil {
		panic(err)
	}
	out, err := applyAntijoin(concatElements(leftBatches), right, aj.keyOf, aj.Ctx)
	if err != nil {
		panic(err)
	}
	return asSingleton(out)
}

// Difference is Antijoin matched by full-tuple equality instead of a key
// prefix (spec §4.3: "like antijoin but matches full tuple equality").
type Difference struct {
	Left, Right Dataflow
	Ctx         provenance.Context
}

func identityKey(t value.Tuple) value.Tuple { return t }

func (d Difference) IterStable() []relation.Batch { return d.run(d.Left.IterStable()) }
func (d Difference) IterRecent() []relation.Batch { return d.run(d.Left.IterRecent()) }

func (d Difference) run(leftBatches []relation.Batch) []relation.Batch {
	right, err := materializeByKey(d.Right, identityKey, d.Ctx)
	if err != nil {
		panic(err)
	}
	out, err := applyAntijoin(concatElements(leftBatches), right, identityKey, d.Ctx)
	if err != nil {
		panic(err)
	}
	return asSingleton(out)
}
