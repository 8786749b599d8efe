package provenance

// clauseContext holds the state shared by every clause-based scheme
// (top-k-proofs, sample-k-proofs, top-bottom-k-clauses, and their
// differentiable siblings): the FactTable fact ids are minted from, the
// DisjunctionRegistry conflicts are checked against, the clause-width
// parameter k, and the Selector used to truncate a formula back down to k
// clauses after Add or Mult.
type clauseContext struct {
	name  string
	table *FactTable
	reg   *DisjunctionRegistry
	k     int
	sel   Selector
}

func newClauseContext(name string, k int, sel Selector) clauseContext {
	table := NewFactTable()
	return clauseContext{
		name:  name,
		table: table,
		reg:   NewDisjunctionRegistry(table),
		k:     k,
		sel:   sel,
	}
}

func (c *clauseContext) Name() string { return c.name }

func (c *clauseContext) zeroFormula() Formula { return EmptyFormula() }
func (c *clauseContext) oneFormula() Formula  { return SingletonFormula(UnitClause()) }

func (c *clauseContext) tagging(input InputTag) (Formula, error) {
	p, err := asProb(input)
	if err != nil {
		return Formula{}, err
	}
	id := c.table.New(p)
	return SingletonFormula(NewLiteralClause(id, false)), nil
}

func (c *clauseContext) taggingDisjunction(inputs []InputTag) ([]Formula, error) {
	ids := make([]FactID, len(inputs))
	out := make([]Formula, len(inputs))
	for i, in := range inputs {
		p, err := asProb(in)
		if err != nil {
			return nil, err
		}
		ids[i] = c.table.New(p)
	}
	c.reg.Register(ids)
	for i, id := range ids {
		out[i] = SingletonFormula(NewLiteralClause(id, false))
	}
	return out, nil
}

func (c *clauseContext) add(a, b Formula) Formula {
	return unionFormulas(a, b, c.table, c.k, c.sel)
}

func (c *clauseContext) mult(a, b Formula) Formula {
	return distributeFormulas(a, b, c.table, c.reg, c.k, c.sel)
}

// negate implements De Morgan distribution of a DNF formula into its
// negation, also expressed as a DNF: AND_i (OR of each clause's negated
// literals), expanded term by term. Clause width stays small (k is a
// scheme parameter, typically single digits) so the intermediate blowup is
// bounded; the result is truncated to 4k clauses as a safety margin — this
// is the Open Question resolution recorded in DESIGN.md for "what negate
// of a DNF formula means" when the scheme must stay total.
func (c *clauseContext) negate(f Formula) Formula {
	acc := c.oneFormula()
	for _, clause := range f.Clauses() {
		negatedLits := negatedLiteralClauses(clause)
		if len(negatedLits) == 0 {
			// The unit clause negates to the empty formula (false).
			return c.zeroFormula()
		}
		step := Formula{clauses: negatedLits}
		acc = distributeFormulas(acc, step, c.table, c.reg, 4*c.k+len(negatedLits), c.sel)
	}
	return Formula{clauses: c.sel(acc.Clauses(), c.table, 4*c.k)}
}

// negatedLiteralClauses returns one singleton clause per literal in c, each
// holding that literal's negation — the OR side of De Morgan's law applied
// to one conjunctive clause.
func negatedLiteralClauses(c Clause) []Clause {
	out := make([]Clause, 0, c.Len())
	for i, ok := c.pos.NextSet(0); ok; i, ok = c.pos.NextSet(i + 1) {
		out = append(out, NewLiteralClause(FactID(i), true))
	}
	for i, ok := c.neg.NextSet(0); ok; i, ok = c.neg.NextSet(i + 1) {
		out = append(out, NewLiteralClause(FactID(i), false))
	}
	return out
}

func (c *clauseContext) discard(f Formula) bool { return f.IsZero() }

// wmc computes the weighted model count (probability that at least one
// clause holds) via inclusion-exclusion over the formula's clauses. Exact,
// and only tractable because formulas are capped at k clauses.
func (c *clauseContext) wmc(f Formula) float64 {
	clauses := f.Clauses()
	n := len(clauses)
	if n == 0 {
		return 0
	}
	total := 0.0
	for mask := 1; mask < (1 << n); mask++ {
		var combined Clause
		first := true
		sat := true
		for i := 0; i < n; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			if first {
				combined = clauses[i]
				first = false
				continue
			}
			joined, ok := combined.and(clauses[i], c.reg)
			if !ok {
				sat = false
				break
			}
			combined = joined
		}
		if !sat {
			continue
		}
		term := combined.prob(c.table)
		if popcount(mask)%2 == 1 {
			total += term
		} else {
			total -= term
		}
	}
	return clip01(total)
}
