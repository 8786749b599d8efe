package provenance

import (
	"sync"

	"github.com/google/uuid"
)

// FactID is the dense internal identifier minted by Tagging for every
// clause-based fact. It indexes directly into a
// bitset.BitSet, which is how Clause (clause.go) tracks literal membership
// without a map lookup per test.
type FactID uint

// FactTable assigns sequential FactIDs and stores each fact's probability,
// external id (the differentiable schemes' gradient-attribution key), and
// disjunction group membership. It is the "fact-table growth during
// tagging" piece of mutable state spec §5 calls out as needing narrow
// interior mutability: every Context that mints FactIDs embeds one,
// guarded by a mutex so concurrent input-file loading (ioadapter) can race
// Tagging calls safely even though the fixed-point loop itself is
// single-threaded.
type FactTable struct {
	mu      sync.Mutex
	probs   []float64
	extIDs  []uuid.UUID
	groups  []int // disjunction group index, -1 if none
}

// NewFactTable returns an empty FactTable.
func NewFactTable() *FactTable {
	return &FactTable{}
}

// New mints a fresh FactID for a fact with the given probability, assigning
// it a random external uuid for gradient attribution.
func (t *FactTable) New(prob float64) FactID {
	return t.newWithExternal(prob, uuid.New())
}

func (t *FactTable) newWithExternal(prob float64, ext uuid.UUID) FactID {
	t.mu.Lock()
	defer t.mu.Unlock()
	id := FactID(len(t.probs))
	t.probs = append(t.probs, prob)
	t.extIDs = append(t.extIDs, ext)
	t.groups = append(t.groups, -1)
	return id
}

// Prob returns the stored probability for id.
func (t *FactTable) Prob(id FactID) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.probs[id]
}

// ExternalID returns the gradient-attribution uuid for id.
func (t *FactTable) ExternalID(id FactID) uuid.UUID {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.extIDs[id]
}

// SetGroup records that id belongs to disjunction group g.
func (t *FactTable) SetGroup(id FactID, g int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.groups[id] = g
}

// Group returns the disjunction group index for id, or -1 if it belongs to
// none.
func (t *FactTable) Group(id FactID) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.groups[id]
}

// SameGroup reports whether a and b belong to the same disjunction group
// (and thus must never both appear positively in one clause).
func (t *FactTable) SameGroup(a, b FactID) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	ga, gb := t.groups[a], t.groups[b]
	return ga >= 0 && ga == gb
}

// DisjunctionRegistry records mutual-exclusion groups across all
// clause-based and probabilistic schemes that share one FactTable — per
// SPEC_FULL.md's "disjunctive facts as a first-class registry" recovered
// from original_source/.../common/mod.rs.
type DisjunctionRegistry struct {
	mu     sync.Mutex
	table  *FactTable
	groups [][]FactID
}

// NewDisjunctionRegistry builds a registry backed by table.
func NewDisjunctionRegistry(table *FactTable) *DisjunctionRegistry {
	return &DisjunctionRegistry{table: table}
}

// Register declares ids as mutually exclusive, returning the new group's
// index.
func (r *DisjunctionRegistry) Register(ids []FactID) int {
	r.mu.Lock()
	g := len(r.groups)
	r.groups = append(r.groups, append([]FactID(nil), ids...))
	r.mu.Unlock()
	for _, id := range ids {
		r.table.SetGroup(id, g)
	}
	return g
}

// Conflicts reports whether a and b cannot appear together in the same
// clause (same disjunction group, different facts).
func (r *DisjunctionRegistry) Conflicts(a, b FactID) bool {
	return a != b && r.table.SameGroup(a, b)
}
