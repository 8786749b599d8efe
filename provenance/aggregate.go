package provenance

import "github.com/Tangerg/veritas/value"

// GenericDynamicCount implements spec §4.4's dynamic_count formula for any
// Context with a total Negate: it enumerates every subset S of elems,
// computes the chosen-set tag as the product of chosen elements' Tags and
// the negation of the non-chosen elements' Tags, and Add-combines subsets
// that land on the same observed count.
//
// This is exponential in len(elems) and is only suitable for the small,
// already-truncated groups the clause-based schemes produce; it is offered
// as a building block, not a mandate, for schemes whose Negate is total.
func GenericDynamicCount(ctx Context, elems []Element) ([]Element, error) {
	n := len(elems)
	if n > 20 {
		return nil, &UnsupportedOperationError{Scheme: ctx.Name(), Op: "dynamic_count (batch too large for subset enumeration)"}
	}
	byCount := make(map[int]Tag, n+1)
	for mask := 0; mask < (1 << n); mask++ {
		tag, err := subsetTag(ctx, elems, mask)
		if err != nil {
			return nil, err
		}
		count := popcount(mask)
		if existing, ok := byCount[count]; ok {
			combined, err := ctx.Add(existing, tag)
			if err != nil {
				return nil, err
			}
			byCount[count] = combined
		} else {
			byCount[count] = tag
		}
	}
	out := make([]Element, 0, len(byCount))
	for count, tag := range byCount {
		if ctx.Discard(tag) {
			continue
		}
		out = append(out, Element{Tuple: value.Leaf(value.NewI64(int64(count))), Tag: tag})
	}
	return out, nil
}

func subsetTag(ctx Context, elems []Element, mask int) (Tag, error) {
	acc := ctx.One()
	for i, e := range elems {
		var factor Tag
		if mask&(1<<i) != 0 {
			factor = e.Tag
		} else {
			negated, ok, err := ctx.Negate(e.Tag)
			if err != nil {
				return nil, err
			}
			if !ok {
				return nil, &UnsupportedOperationError{Scheme: ctx.Name(), Op: "dynamic_count (partial negate)"}
			}
			factor = negated
		}
		combined, err := ctx.Mult(acc, factor)
		if err != nil {
			return nil, err
		}
		acc = combined
	}
	return acc, nil
}

func popcount(mask int) int {
	c := 0
	for mask != 0 {
		c += mask & 1
		mask >>= 1
	}
	return c
}

// GenericDynamicMin implements spec §4.4's dynamic_min: elements are
// processed in the order given (callers pass elems sorted by the quantity
// being minimized); position i's tag is mult(AND_{j<i} negate(tau_j), tau_i).
func GenericDynamicMin(ctx Context, elems []Element) ([]Element, error) {
	out := make([]Element, 0, len(elems))
	prefixNegated := ctx.One()
	for _, e := range elems {
		tag, err := ctx.Mult(prefixNegated, e.Tag)
		if err != nil {
			return nil, err
		}
		if !ctx.Discard(tag) {
			out = append(out, Element{Tuple: e.Tuple, Tag: tag})
		}
		negated, ok, err := ctx.Negate(e.Tag)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &UnsupportedOperationError{Scheme: ctx.Name(), Op: "dynamic_min (partial negate)"}
		}
		prefixNegated, err = ctx.Mult(prefixNegated, negated)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// GenericDynamicMax mirrors GenericDynamicMin over elements sorted in
// descending order of the maximized quantity by the caller.
func GenericDynamicMax(ctx Context, elems []Element) ([]Element, error) {
	return GenericDynamicMin(ctx, elems)
}

// GenericDynamicExists returns the Add-combination of every element's Tag:
// "exists" is the semiring sum over the batch.
func GenericDynamicExists(ctx Context, elems []Element) ([]Element, error) {
	acc := ctx.Zero()
	for _, e := range elems {
		combined, err := ctx.Add(acc, e.Tag)
		if err != nil {
			return nil, err
		}
		acc = combined
	}
	if ctx.Discard(acc) {
		return nil, nil
	}
	return []Element{{Tuple: value.Seq(), Tag: acc}}, nil
}
