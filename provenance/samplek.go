package provenance

// SampleKProofsContext implements the "sample-k-proofs" scheme of spec
// §4.1: like top-k-proofs, but Add's truncation is a weighted
// sample-without-replacement (weighted by clause probability) drawn from
// the context's seeded RNGCell, rather than a deterministic top-k pick —
// recovered from original_source/.../sample_k_proofs.rs (SPEC_FULL.md
// "supplemented features").
//
// Negate and Minus are undefined for this scheme (they report ok=false):
// a sampled proof set is not a faithful representation of "none of these
// held", so no negation is sampled. Antijoin/Difference drop a matched
// element under this scheme, and forall reports UnsupportedOperationError
// (spec §9's Open Question resolution).
type SampleKProofsContext struct {
	clauseContext
	rng *RNGCell
}

// NewSampleKProofsContext returns a context that truncates every formula
// to at most k clauses via weighted sampling, drawn from rng.
func NewSampleKProofsContext(k int, rng *RNGCell) *SampleKProofsContext {
	c := &SampleKProofsContext{rng: rng}
	c.clauseContext = newClauseContext("sample-k-proofs", k, c.sample)
	return c
}

func (c *SampleKProofsContext) sample(clauses []Clause, table *FactTable, k int) []Clause {
	if len(clauses) <= k {
		return clauses
	}
	weights := make([]float64, len(clauses))
	for i, cl := range clauses {
		weights[i] = cl.prob(table)
	}
	idx := c.rng.WeightedSampleWithoutReplacement(weights, k)
	out := make([]Clause, len(idx))
	for i, j := range idx {
		out[i] = clauses[j]
	}
	return out
}

func (c *SampleKProofsContext) Zero() Tag { return c.zeroFormula() }
func (c *SampleKProofsContext) One() Tag  { return c.oneFormula() }

func (c *SampleKProofsContext) Tagging(input InputTag) (Tag, error) { return c.tagging(input) }

func (c *SampleKProofsContext) TaggingDisjunction(inputs []InputTag) ([]Tag, error) {
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

func (c *SampleKProofsContext) Add(a, b Tag) (Tag, error) {
	return c.add(a.(Formula), b.(Formula)), nil
}
func (c *SampleKProofsContext) Mult(a, b Tag) (Tag, error) {
	return c.mult(a.(Formula), b.(Formula)), nil
}

// Negate is undefined for sample-k-proofs: see the type doc comment.
func (c *SampleKProofsContext) Negate(a Tag) (Tag, bool, error) {
	return nil, false, nil
}
func (c *SampleKProofsContext) Minus(a, b Tag) (Tag, bool, error) {
	return nil, false, nil
}
func (c *SampleKProofsContext) Discard(a Tag) bool { return c.discard(a.(Formula)) }

func (c *SampleKProofsContext) AddWithProceeding(stable, recent Tag) (Tag, Proceeding, error) {
	combined := c.add(stable.(Formula), recent.(Formula))
	if formulaEqual(combined, stable.(Formula)) || formulaEqual(combined, recent.(Formula)) {
		return combined, Stable, nil
	}
	return combined, Recent, nil
}

func (c *SampleKProofsContext) Recover(a Tag) (OutputTag, error) {
	return c.wmc(a.(Formula)), nil
}

func (c *SampleKProofsContext) SupportsNegation() bool { return false }

func (c *SampleKProofsContext) DynamicCount(elems []Element) ([]Element, error) {
	return nil, &AggregateUndefinedError{Scheme: c.Name(), Op: "dynamic_count"}
}
func (c *SampleKProofsContext) DynamicMin(elems []Element) ([]Element, error) {
	return nil, &AggregateUndefinedError{Scheme: c.Name(), Op: "dynamic_min"}
}
func (c *SampleKProofsContext) DynamicMax(elems []Element) ([]Element, error) {
	return nil, &AggregateUndefinedError{Scheme: c.Name(), Op: "dynamic_max"}
}
func (c *SampleKProofsContext) DynamicExists(elems []Element) ([]Element, error) {
	return GenericDynamicExists(c, elems)
}
