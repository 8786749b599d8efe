package provenance

// TopBottomKClausesContext implements the "top-bottom-k-clauses" scheme of
// spec §4.1. Conceptually the tag is a CNF formula (AND of OR-clauses)
// capped at k clauses, truncated to the highest-probability clauses of the
// proposition's negation — "bottom-k" of the original proposition. The
// implementation stores the DNF of the *negated* proposition instead of a
// literal CNF structure, and swaps Add/Mult so the public semiring
// operations still read as "OR"/"AND" of the proposition itself: De
// Morgan's law makes OR(P1,P2) on the surface equal AND of the stored
// negations, and vice versa. This keeps a single Clause/Formula/Selector
// implementation (clause.go) serving every clause-based scheme instead of
// a second, CNF-shaped one — the Open Question resolution recorded in
// DESIGN.md.
type TopBottomKClausesContext struct {
	clauseContext
}

// NewTopBottomKClausesContext returns a context truncating to at most k
// clauses of the negation, by probability.
func NewTopBottomKClausesContext(k int) *TopBottomKClausesContext {
	return &TopBottomKClausesContext{clauseContext: newClauseContext("top-bottom-k-clauses", k, TopKSelector)}
}

// Zero is the proposition "false"; stored as the DNF of its negation,
// "true", which is the unit formula.
func (c *TopBottomKClausesContext) Zero() Tag { return c.oneFormula() }

// One is the proposition "true"; stored as the DNF of its negation,
// "false", the empty formula.
func (c *TopBottomKClausesContext) One() Tag { return c.zeroFormula() }

func (c *TopBottomKClausesContext) Tagging(input InputTag) (Tag, error) {
	f, err := c.tagging(input)
	if err != nil {
		return nil, err
	}
	// tagging() builds the DNF of the proposition itself (a single positive
	// literal); this scheme stores the negation, so flip it once up front.
	return c.negate(f), nil
}

func (c *TopBottomKClausesContext) TaggingDisjunction(inputs []InputTag) ([]Tag, error) {
	fs, err := c.taggingDisjunction(inputs)
	if err != nil {
		return nil, err
	}
	out := make([]Tag, len(fs))
	for i, f := range fs {
		out[i] = c.negate(f)
	}
	return out, nil
}

// Add is the proposition's OR, realized as AND (distribute) of the stored
// negations.
func (c *TopBottomKClausesContext) Add(a, b Tag) (Tag, error) {
	return c.mult(a.(Formula), b.(Formula)), nil
}

// Mult is the proposition's AND, realized as OR (union) of the stored
// negations.
func (c *TopBottomKClausesContext) Mult(a, b Tag) (Tag, error) {
	return c.add(a.(Formula), b.(Formula)), nil
}

func (c *TopBottomKClausesContext) Negate(a Tag) (Tag, bool, error) {
	return c.negate(a.(Formula)), true, nil
}
func (c *TopBottomKClausesContext) Minus(a, b Tag) (Tag, bool, error) {
	neg, _, _ := c.Negate(b)
	t, err := c.Mult(a, neg)
	return t, true, err
}

func (c *TopBottomKClausesContext) Discard(a Tag) bool {
	return formulaEqual(a.(Formula), c.oneFormula())
}

func (c *TopBottomKClausesContext) AddWithProceeding(stable, recent Tag) (Tag, Proceeding, error) {
	combined := c.mult(stable.(Formula), recent.(Formula))
	if formulaEqual(combined, stable.(Formula)) || formulaEqual(combined, recent.(Formula)) {
		return combined, Stable, nil
	}
	return combined, Recent, nil
}

// Recover computes P(proposition) = 1 - wmc(stored negation).
func (c *TopBottomKClausesContext) Recover(a Tag) (OutputTag, error) {
	return clip01(1 - c.wmc(a.(Formula))), nil
}

func (c *TopBottomKClausesContext) SupportsNegation() bool { return true }

func (c *TopBottomKClausesContext) DynamicCount(elems []Element) ([]Element, error) {
	return GenericDynamicCount(c, elems)
}
func (c *TopBottomKClausesContext) DynamicMin(elems []Element) ([]Element, error) {
	return GenericDynamicMin(c, elems)
}
func (c *TopBottomKClausesContext) DynamicMax(elems []Element) ([]Element, error) {
	return GenericDynamicMax(c, elems)
}
func (c *TopBottomKClausesContext) DynamicExists(elems []Element) ([]Element, error) {
	return GenericDynamicExists(c, elems)
}
