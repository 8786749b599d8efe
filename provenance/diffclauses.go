package provenance

// DiffTopBottomKClausesContext implements the "diff-top-bottom-k-clauses"
// scheme of spec §4.1: the same formula-of-the-negation representation as
// TopBottomKClausesContext, but Recover performs weighted model counting
// in the dual-number semiring (dualnum.go) instead of plain floats,
// returning both the recovered probability and its per-external-id
// gradient — recovered from
// original_source/.../diff_top_bottom_k_clauses.rs.
type DiffTopBottomKClausesContext struct {
	TopBottomKClausesContext
}

// NewDiffTopBottomKClausesContext returns a differentiable top-bottom-k
// context truncating to k clauses.
func NewDiffTopBottomKClausesContext(k int) *DiffTopBottomKClausesContext {
	return &DiffTopBottomKClausesContext{
		TopBottomKClausesContext: TopBottomKClausesContext{
			clauseContext: newClauseContext("diff-top-bottom-k-clauses", k, TopKSelector),
		},
	}
}

// DiffOutputTag is the OutputTag recovered by this scheme: a probability
// plus its gradient with respect to every probabilistic input fact that
// contributed, keyed by that fact's external uuid (spec §4.1's
// diff_probs vector entry, (probability, external id)).
type DiffOutputTag struct {
	Probability float64
	Gradient    map[string]float64 // keyed by external id's string form
}

// Recover evaluates the stored negation-formula's weighted model count in
// the dual-number semiring, then returns 1 minus that (matching
// TopBottomKClausesContext.Recover's plain-float version) along with the
// derivative of the *original* proposition's probability with respect to
// each contributing input: d(1-x)/d(id) = -dx/d(id).
func (c *DiffTopBottomKClausesContext) Recover(a Tag) (OutputTag, error) {
	f := a.(Formula)
	negWMC := c.wmcDual(f)
	prob := clip01(1 - negWMC.Value)
	grad := make(map[string]float64, len(negWMC.Grad))
	for id, d := range negWMC.Grad {
		grad[id.String()] = -d
	}
	return DiffOutputTag{Probability: prob, Gradient: grad}, nil
}

// wmcDual mirrors clauseContext.wmc but accumulates a DualNum via
// inclusion-exclusion, so every literal's probability carries its
// gradient along through the computation.
func (c *DiffTopBottomKClausesContext) wmcDual(f Formula) DualNum {
	clauses := f.Clauses()
	n := len(clauses)
	if n == 0 {
		return ConstDual(0)
	}
	total := ConstDual(0)
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
		term := c.clauseDual(combined)
		if popcount(mask)%2 == 1 {
			total = dualAdd(total, term)
		} else {
			total = dualSub(total, term)
		}
	}
	return total
}

// clauseDual is clauseContext.Clause.prob, re-expressed over DualNum so
// gradients compose through the clause's literal conjunction.
func (c *DiffTopBottomKClausesContext) clauseDual(cl Clause) DualNum {
	acc := ConstDual(1)
	for i, ok := cl.pos.NextSet(0); ok; i, ok = cl.pos.NextSet(i + 1) {
		id := FactID(i)
		acc = dualMul(acc, VarDual(c.table.Prob(id), c.table.ExternalID(id)))
	}
	for i, ok := cl.neg.NextSet(0); ok; i, ok = cl.neg.NextSet(i + 1) {
		id := FactID(i)
		acc = dualMul(acc, dualOneMinus(VarDual(c.table.Prob(id), c.table.ExternalID(id))))
	}
	return acc
}

func (c *DiffTopBottomKClausesContext) Name() string { return "diff-top-bottom-k-clauses" }
