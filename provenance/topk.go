package provenance

import "sort"

func formulaKey(f Formula) string {
	keys := make([]string, 0, len(f.clauses))
	for _, c := range f.clauses {
		keys = append(keys, c.key())
	}
	sort.Strings(keys)
	s := ""
	for _, k := range keys {
		s += k + ";"
	}
	return s
}

func formulaEqual(a, b Formula) bool { return formulaKey(a) == formulaKey(b) }

// TopKProofsContext implements the "top-k-proofs" scheme of spec §4.1: tag
// is a DNF formula capped at k clauses; Add unions then keeps the k
// clauses of highest independent-events probability, Mult distributes then
// does the same (after filtering disjunction conflicts).
type TopKProofsContext struct {
	clauseContext
}

// NewTopKProofsContext returns a context that truncates every formula to
// at most k clauses, selecting the highest-probability ones.
func NewTopKProofsContext(k int) *TopKProofsContext {
	return &TopKProofsContext{clauseContext: newClauseContext("top-k-proofs", k, TopKSelector)}
}

func (c *TopKProofsContext) Zero() Tag { return c.zeroFormula() }
func (c *TopKProofsContext) One() Tag  { return c.oneFormula() }

func (c *TopKProofsContext) Tagging(input InputTag) (Tag, error) { return c.tagging(input) }

func (c *TopKProofsContext) TaggingDisjunction(inputs []InputTag) ([]Tag, error) {
	fs, err := c.taggingDisjunction(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]Tag, len(fs))
	for i, f := range fs {
		out[i] = f
	}
	return out, nil
}

func (c *TopKProofsContext) Add(a, b Tag) (Tag, error) {
	return c.add(a.(Formula), b.(Formula)), nil
}
func (c *TopKProofsContext) Mult(a, b Tag) (Tag, error) {
	return c.mult(a.(Formula), b.(Formula)), nil
}
func (c *TopKProofsContext) Negate(a Tag) (Tag, bool, error) {
	return c.negate(a.(Formula)), true, nil
}
func (c *TopKProofsContext) Minus(a, b Tag) (Tag, bool, error) {
	neg, _, _ := c.Negate(b)
	t, err := c.Mult(a, neg)
	return t, true, err
}
func (c *TopKProofsContext) Discard(a Tag) bool { return c.discard(a.(Formula)) }

func (c *TopKProofsContext) AddWithProceeding(stable, recent Tag) (Tag, Proceeding, error) {
	combined := c.add(stable.(Formula), recent.(Formula))
	if formulaEqual(combined, stable.(Formula)) || formulaEqual(combined, recent.(Formula)) {
		return combined, Stable, nil
	}
	return combined, Recent, nil
}

func (c *TopKProofsContext) Recover(a Tag) (OutputTag, error) {
	return c.wmc(a.(Formula)), nil
}

func (c *TopKProofsContext) SupportsNegation() bool { return true }

func (c *TopKProofsContext) DynamicCount(elems []Element) ([]Element, error) {
	return GenericDynamicCount(c, elems)
}
func (c *TopKProofsContext) DynamicMin(elems []Element) ([]Element, error) {
	return GenericDynamicMin(c, elems)
}
func (c *TopKProofsContext) DynamicMax(elems []Element) ([]Element, error) {
	return GenericDynamicMax(c, elems)
}
func (c *TopKProofsContext) DynamicExists(elems []Element) ([]Element, error) {
	return GenericDynamicExists(c, elems)
}
