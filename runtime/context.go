package runtime

import (
	"fmt"

	"github.com/Tangerg/veritas/config"
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
	"github.com/Tangerg/veritas/veritaserr"
)

// ExecutionContext is spec §6.2's execution API: a provenance.Context
// paired with the relation stores it has accumulated across New,
// AddFacts*, and Run calls.
type ExecutionContext struct {
	ctx       provenance.Context
	cfg       *config.Config
	relations map[string]*relation.Relation
	computed  map[string]bool
}

// New builds an execution context around ctx (spec §6.2 "new(ctx)"),
// with a fully-defaulted Config.
func New(ctx provenance.Context) *ExecutionContext {
	return NewWithConfig(ctx, config.Default())
}

// NewWithConfig builds an execution context around ctx and cfg, for
// callers that need non-default loader/iteration settings (spec §6.4).
func NewWithConfig(ctx provenance.Context, cfg *config.Config) *ExecutionContext {
	return &ExecutionContext{
		ctx:       ctx,
		cfg:       cfg,
		relations: make(map[string]*relation.Relation),
		computed:  make(map[string]bool),
	}
}

// Context returns the underlying provenance.Context.
func (ec *ExecutionContext) Context() provenance.Context { return ec.ctx }

// relationFor returns predicate's store, creating it against tt if this
// is the first reference.
func (ec *ExecutionContext) relationFor(predicate string, tt value.TupleType) *relation.Relation {
	if r, ok := ec.relations[predicate]; ok {
		return r
	}
	r := relation.New(predicate, tt)
	ec.relations[predicate] = r
	return r
}

// AddFacts inserts facts into predicate (creating it against tt if new),
// per spec §6.2 add_facts. A Fact with a nil Tag is inserted untagged
// (ctx.One()); otherwise it is tagged via ctx.Tagging.
//
// typecheck is accepted for interface fidelity with spec's
// `add_facts(predicate, [(opt input-tag, tuple)], typecheck?)` but is
// always honored as true: relation.Relation's insertion paths validate
// unconditionally, and skipping validation would let a malformed tuple
// corrupt a relation's sortedness invariant silently — the one case
// this runtime chooses safety over spec's literal optionality.
func (ec *ExecutionContext) AddFacts(predicate string, tt value.TupleType, facts []Fact, typecheck bool) error {
	return ec.addFacts(predicate, tt, facts, nil)
}

// AddFactsWithDisjunction inserts facts into predicate, with groups
// naming index-sets into facts that are mutually exclusive (spec §6.2
// add_facts_with_disjunction). Every fact referenced by a group must
// carry a non-nil Tag, since disjunctive tagging requires an InputTag
// per member; facts not referenced by any group are inserted normally.
func (ec *ExecutionContext) AddFactsWithDisjunction(predicate string, tt value.TupleType, facts []Fact, groups [][]int) error {
	return ec.addFacts(predicate, tt, facts, groups)
}

func (ec *ExecutionContext) addFacts(predicate string, tt value.TupleType, facts []Fact, groups [][]int) error {
	r := ec.relationFor(predicate, tt)

	inGroup := make([]bool, len(facts))
	for _, group := range groups {
		members := make([]relation.TaggedFact, 0, len(group))
		for _, idx := range group {
			if idx < 0 || idx >= len(facts) {
				return &veritaserr.DisjunctionConflict{Predicate: predicate}
			}
			f := facts[idx]
			if f.Tag == nil {
				return &veritaserr.DisjunctionConflict{Predicate: predicate}
			}
			inGroup[idx] = true
			members = append(members, relation.TaggedFact{Tuple: f.Tuple, Input: f.Tag})
		}
		if err := r.InsertTaggedDisjunction(ec.ctx, members); err != nil {
			return err
		}
	}

	var untagged []value.Tuple
	var tagged []relation.TaggedFact
	for i, f := range facts {
		if inGroup[i] {
			continue
		}
		if f.Tag == nil {
			untagged = append(untagged, f.Tuple)
		} else {
			tagged = append(tagged, relation.TaggedFact{Tuple: f.Tuple, Input: f.Tag})
		}
	}
	if len(untagged) > 0 {
		if err := r.InsertUntagged(ec.ctx, untagged); err != nil {
			return err
		}
	}
	if len(tagged) > 0 {
		if err := r.InsertTagged(ec.ctx, tagged); err != nil {
			return err
		}
	}
	return nil
}

// OutputEntry pairs a tuple with its recovered output tag — the shape
// Relation(predicate) yields (spec §6.2: "tuple -> recovered
// output-tag").
type OutputEntry struct {
	Tuple  value.Tuple
	Output provenance.OutputTag
}

// Relation returns predicate's recovered output collection (spec §6.2
// "relation(predicate)"). Returns UnknownRelation if predicate was
// never declared or inserted into.
func (ec *ExecutionContext) Relation(predicate string) ([]OutputEntry, error) {
	r, ok := ec.relations[predicate]
	if !ok {
		return nil, &veritaserr.UnknownRelation{Predicate: predicate}
	}
	stable := r.Stable()
	out := make([]OutputEntry, 0, stable.Len())
	for i := 0; i < stable.Len(); i++ {
		e := stable.At(i)
		output, err := ec.ctx.Recover(e.Tag)
		if err != nil {
			return nil, fmt.Errorf("runtime: recovering %q: %w", predicate, err)
		}
		out = append(out, OutputEntry{Tuple: e.Tuple, Output: output})
	}
	return out, nil
}

// NumRelations returns the count of relations the context has seen
// (spec §6.2 num_relations).
func (ec *ExecutionContext) NumRelations() int { return len(ec.relations) }

// AllRelations returns every predicate the context has seen, in no
// particular order (spec §6.2 all_relations).
func (ec *ExecutionContext) AllRelations() []string {
	out := make([]string, 0, len(ec.relations))
	for name := range ec.relations {
		out = append(out, name)
	}
	return out
}

// IsComputed reports whether predicate's owning stratum has finished
// executing within a Run call (spec §6.2 is_computed).
func (ec *ExecutionContext) IsComputed(predicate string) bool { return ec.computed[predicate] }
