package provenance

import "math"

// ProbInputTag is the InputTag shape accepted by the probability schemes:
// a bare probability in [0, 1].
type ProbInputTag float64

const probEpsilon = 1e-12

func probEqual(a, b float64) bool {
	return math.Abs(a-b) < probEpsilon
}

func clip01(p float64) float64 {
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// MinMaxProbContext implements the "min-max-prob" scheme of spec §4.1: tag
// is a real in [0, 1], Add is max, Mult is min, Negate is 1-p.
type MinMaxProbContext struct{}

func NewMinMaxProbContext() *MinMaxProbContext { return &MinMaxProbContext{} }

func (c *MinMaxProbContext) Name() string { return "min-max-prob" }
func (c *MinMaxProbContext) Zero() Tag     { return 0.0 }
func (c *MinMaxProbContext) One() Tag      { return 1.0 }

func (c *MinMaxProbContext) Tagging(input InputTag) (Tag, error) {
	p, err := asProb(input)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *MinMaxProbContext) TaggingDisjunction(inputs []InputTag) ([]Tag, error) {
	return taggingDisjunctionViaTagging(c, inputs)
}

func (c *MinMaxProbContext) Add(a, b Tag) (Tag, error) {
	return math.Max(a.(float64), b.(float64)), nil
}
func (c *MinMaxProbContext) Mult(a, b Tag) (Tag, error) {
	return math.Min(a.(float64), b.(float64)), nil
}
func (c *MinMaxProbContext) Negate(a Tag) (Tag, bool, error) {
	return clip01(1 - a.(float64)), true, nil
}
func (c *MinMaxProbContext) Minus(a, b Tag) (Tag, bool, error) {
	neg, _, _ := c.Negate(b)
	t, err := c.Mult(a, neg)
	return t, true, err
}
func (c *MinMaxProbContext) Discard(a Tag) bool { return a.(float64) <= 0 }

func (c *MinMaxProbContext) AddWithProceeding(stable, recent Tag) (Tag, Proceeding, error) {
	combined, err := c.Add(stable, recent)
	if err != nil {
		return nil, Stable, err
	}
	if probEqual(combined.(float64), stable.(float64)) || probEqual(combined.(float64), recent.(float64)) {
		return combined, Stable, nil
	}
	return combined, Recent, nil
}

func (c *MinMaxProbContext) Recover(a Tag) (OutputTag, error) { return a.(float64), nil }
func (c *MinMaxProbContext) SupportsNegation() bool           { return true }

func (c *MinMaxProbContext) DynamicCount(elems []Element) ([]Element, error) {
	return GenericDynamicCount(c, elems)
}
func (c *MinMaxProbContext) DynamicMin(elems []Element) ([]Element, error) {
	return GenericDynamicMin(c, elems)
}
func (c *MinMaxProbContext) DynamicMax(elems []Element) ([]Element, error) {
	return GenericDynamicMax(c, elems)
}
func (c *MinMaxProbContext) DynamicExists(elems []Element) ([]Element, error) {
	return GenericDynamicExists(c, elems)
}

// AddMultProbContext implements the "add-mult-prob" scheme of spec §4.1:
// tag is a real in [0, 1], Add is clipped +, Mult is clipped x — the
// independent-events approximation.
type AddMultProbContext struct{}

func NewAddMultProbContext() *AddMultProbContext { return &AddMultProbContext{} }

func (c *AddMultProbContext) Name() string { return "add-mult-prob" }
func (c *AddMultProbContext) Zero() Tag     { return 0.0 }
func (c *AddMultProbContext) One() Tag      { return 1.0 }

func (c *AddMultProbContext) Tagging(input InputTag) (Tag, error) {
	p, err := asProb(input)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (c *AddMultProbContext) TaggingDisjunction(inputs []InputTag) ([]Tag, error) {
	return taggingDisjunctionViaTagging(c, inputs)
}

func (c *AddMultProbContext) Add(a, b Tag) (Tag, error) {
	return clip01(a.(float64) + b.(float64)), nil
}
func (c *AddMultProbContext) Mult(a, b Tag) (Tag, error) {
	return clip01(a.(float64) * b.(float64)), nil
}
func (c *AddMultProbContext) Negate(a Tag) (Tag, bool, error) {
	return clip01(1 - a.(float64)), true, nil
}
func (c *AddMultProbContext) Minus(a, b Tag) (Tag, bool, error) {
	neg, _, _ := c.Negate(b)
	t, err := c.Mult(a, neg)
	return t, true, err
}
func (c *AddMultProbContext) Discard(a Tag) bool { return a.(float64) <= 0 }

func (c *AddMultProbContext) AddWithProceeding(stable, recent Tag) (Tag, Proceeding, error) {
	combined, err := c.Add(stable, recent)
	if err != nil {
		return nil, Stable, err
	}
	if probEqual(combined.(float64), stable.(float64)) {
		return combined, Stable, nil
	}
	return combined, Recent, nil
}

func (c *AddMultProbContext) Recover(a Tag) (OutputTag, error) { return a.(float64), nil }
func (c *AddMultProbContext) SupportsNegation() bool           { return true }

func (c *AddMultProbContext) DynamicCount(elems []Element) ([]Element, error) {
	return GenericDynamicCount(c, elems)
}
func (c *AddMultProbContext) DynamicMin(elems []Element) ([]Element, error) {
	return GenericDynamicMin(c, elems)
}
func (c *AddMultProbContext) DynamicMax(elems []Element) ([]Element, error) {
	return GenericDynamicMax(c, elems)
}
func (c *AddMultProbContext) DynamicExists(elems []Element) ([]Element, error) {
	return GenericDynamicExists(c, elems)
}

func asProb(input InputTag) (float64, error) {
	switch v := input.(type) {
	case ProbInputTag:
		return clip01(float64(v)), nil
	case float64:
		return clip01(v), nil
	default:
		return 0, &UnsupportedOperationError{Scheme: "prob", Op: "tagging (unrecognized input tag shape)"}
	}
}

// taggingDisjunctionViaTagging is shared by schemes whose Tagging ignores
// the disjunction grouping itself. It simply tags each input
// independently; for these schemes the grouping is not recorded, and
// nothing in the dataflow or driver layers keeps two facts from the same
// group out of one derivation.
func taggingDisjunctionViaTagging(ctx Context, inputs []InputTag) ([]Tag, error) {
	out := make([]Tag, len(inputs))
	for i, in := range inputs {
		t, err := ctx.Tagging(in)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
