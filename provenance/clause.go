package provenance

import (
	"sort"

	"github.com/bits-and-blooms/bitset"
)

// Clause is a conjunction ("AND") of Literals, each a positive or negative
// reference to a FactID. It is backed by two bitset.BitSet values (one per
// polarity) rather than a map or sorted slice: detecting that two clauses
// assert the same fact with opposite polarity reduces to a bitset
// intersection test, asserting two facts from the same disjunction group
// positively is found by walking the set bits (conflictsBetween), and
// membership/union are also bitset primitives. This is the representation SPEC_FULL.md's provenance-wiring
// section calls for.
type Clause struct {
	pos *bitset.BitSet
	neg *bitset.BitSet
}

// UnitClause returns the empty clause (conjunction of zero literals),
// which is semiring-one when used as a DNF singleton.
func UnitClause() Clause {
	return Clause{pos: bitset.New(0), neg: bitset.New(0)}
}

// NewLiteralClause returns the single-literal clause for id with the given
// polarity.
func NewLiteralClause(id FactID, negative bool) Clause {
	c := UnitClause()
	if negative {
		c.neg.Set(uint(id))
	} else {
		c.pos.Set(uint(id))
	}
	return c
}

// Len returns the number of literals in the clause.
func (c Clause) Len() int {
	return int(c.pos.Count() + c.neg.Count())
}

// and returns the conjunction of c and other. ok is false if the two
// clauses conflict: a fact id appears with both polarities, or two distinct
// ids from the same disjunction group both appear positively.
func (c Clause) and(other Clause, reg *DisjunctionRegistry) (Clause, bool) {
	if c.pos.Intersection(other.neg).Any() || c.neg.Intersection(other.pos).Any() {
		return Clause{}, false
	}
	if reg != nil {
		if conflictsBetween(c.pos, other.pos, reg) {
			return Clause{}, false
		}
	}
	return Clause{
		pos: c.pos.Union(other.pos),
		neg: c.neg.Union(other.neg),
	}, true
}

// conflictsBetween reports whether any id set positively in a conflicts
// (shares a disjunction group, different fact) with any id set positively
// in b.
func conflictsBetween(a, b *bitset.BitSet, reg *DisjunctionRegistry) bool {
	for i, ok := a.NextSet(0); ok; i, ok = a.NextSet(i + 1) {
		for j, ok2 := b.NextSet(0); ok2; j, ok2 = b.NextSet(j + 1) {
			if reg.Conflicts(FactID(i), FactID(j)) {
				return true
			}
		}
	}
	return false
}

// prob returns the independent-events probability of this clause's
// conjunction: the product of each positive literal's probability and each
// negative literal's complement.
func (c Clause) prob(table *FactTable) float64 {
	p := 1.0
	for i, ok := c.pos.NextSet(0); ok; i, ok = c.pos.NextSet(i + 1) {
		p *= table.Prob(FactID(i))
	}
	for i, ok := c.neg.NextSet(0); ok; i, ok = c.neg.NextSet(i + 1) {
		p *= 1 - table.Prob(FactID(i))
	}
	return p
}

// equal reports whether two clauses contain exactly the same literals.
func (c Clause) equal(other Clause) bool {
	return c.pos.Equal(other.pos) && c.neg.Equal(other.neg)
}

// key returns a canonical, order-independent string key for deduplication.
func (c Clause) key() string {
	b1, _ := c.pos.MarshalJSON()
	b2, _ := c.neg.MarshalJSON()
	return string(b1) + "|" + string(b2)
}

// Formula is a disjunction ("OR") of Clauses — a DNF formula — capped at a
// scheme-chosen width k. CNF-oriented schemes (top-bottom-k-clauses) store
// the formula for the *negated* proposition, swap Add and Mult, and
// complement the probability at Recover time (see bottomk.go); this
// keeps one DNF Formula implementation serving every clause-based
// scheme, which is the Open Question resolution recorded in DESIGN.md.
type Formula struct {
	clauses []Clause
}

// EmptyFormula is the semiring-zero formula (no satisfying clause).
func EmptyFormula() Formula { return Formula{} }

// SingletonFormula wraps one clause as a one-clause DNF — semiring-one
// when the clause is the unit clause.
func SingletonFormula(c Clause) Formula { return Formula{clauses: []Clause{c}} }

// IsZero reports whether the formula has no clauses.
func (f Formula) IsZero() bool { return len(f.clauses) == 0 }

// Clauses returns the formula's clause list.
func (f Formula) Clauses() []Clause { return f.clauses }

// dedupe removes duplicate clauses (equal modulo literal ordering, which
// the bitset representation already normalizes).
func dedupe(clauses []Clause) []Clause {
	seen := make(map[string]bool, len(clauses))
	out := make([]Clause, 0, len(clauses))
	for _, c := range clauses {
		k := c.key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, c)
	}
	return out
}

// Selector truncates a deduplicated clause list down to at most k clauses.
// top-k-proofs and top-bottom-k-clauses select by descending probability;
// sample-k-proofs selects by weighted sampling without replacement.
type Selector func(clauses []Clause, table *FactTable, k int) []Clause

// TopKSelector keeps the k highest-probability clauses.
func TopKSelector(clauses []Clause, table *FactTable, k int) []Clause {
	sorted := append([]Clause(nil), clauses...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].prob(table) > sorted[j].prob(table)
	})
	if len(sorted) > k {
		sorted = sorted[:k]
	}
	return sorted
}

// unionFormulas implements Formula.Add: union the clause lists, dedupe,
// then truncate with sel.
func unionFormulas(a, b Formula, table *FactTable, k int, sel Selector) Formula {
	all := make([]Clause, 0, len(a.clauses)+len(b.clauses))
	all = append(all, a.clauses...)
	all = append(all, b.clauses...)
	all = dedupe(all)
	return Formula{clauses: sel(all, table, k)}
}

// distributeFormulas implements Formula.Mult: cross the clause lists,
// filtering out conjunctions that conflict (same fact both polarities, or
// disjunction-group conflicts), then dedupe and truncate.
func distributeFormulas(a, b Formula, table *FactTable, reg *DisjunctionRegistry, k int, sel Selector) Formula {
	all := make([]Clause, 0, len(a.clauses)*len(b.clauses))
	for _, ca := range a.clauses {
		for _, cb := range b.clauses {
			combined, ok := ca.and(cb, reg)
			if ok {
				all = append(all, combined)
			}
		}
	}
	all = dedupe(all)
	return Formula{clauses: sel(all, table, k)}
}
