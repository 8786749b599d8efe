package relation

import (
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/value"
)

// RecentProducer is implemented by a dataflow tree (package dataflow):
// draining a tree's recent stream into a relation's to-add buffer is the
// only coupling the relation store has to the dataflow layer, so the
// interface is declared here rather than importing dataflow — keeping the
// five-layer dependency order (value -> provenance -> relation ->
// dataflow -> runtime) acyclic.
type RecentProducer interface {
	IterRecent() []Batch
}

// Relation is the per-predicate store of spec §4.2: three containers
// (stable, recent, to-add) plus the type every inserted tuple must
// conform to.
//
// Stable is kept as a single merge-sorted Batch rather than spec's literal
// "list of batches": diffAgainstStable always merges the new survivors
// into one fully sorted, duplicate-free sequence, so a list of more than
// one batch would only ever hold transient state within a single
// changed() call.
// Collapsing it to one batch simplifies every reader (Find's
// search_ahead, Join's merge-sort walk) at no cost to the semantics the
// invariants in spec §4.2 describe.
type Relation struct {
	Predicate string
	Type      value.TupleType

	stable Batch
	recent Batch
	toAdd  []provenance.Element
}

// New returns an empty Relation for predicate, whose tuples must conform
// to tt.
func New(predicate string, tt value.TupleType) *Relation {
	return &Relation{Predicate: predicate, Type: tt}
}

// Stable returns the relation's finalized batch for this iteration.
func (r *Relation) Stable() Batch { return r.stable }

// Recent returns the batch of elements added in the previous change step.
func (r *Relation) Recent() Batch { return r.recent }

// IsEmpty reports whether both stable and recent are empty.
func (r *Relation) IsEmpty() bool { return r.stable.Empty() && r.recent.Empty() }

// InsertUntagged wraps each value with the context's semiring one and
// stages it into to-add (spec §4.2 insert_untagged).
func (r *Relation) InsertUntagged(ctx provenance.Context, tuples []value.Tuple) error {
	one := ctx.One()
	for _, t := range tuples {
		if err := r.Type.Validate(t); err != nil {
			return err
		}
		r.toAdd = append(r.toAdd, provenance.Element{Tuple: t, Tag: one})
	}
	return nil
}

// TaggedFact pairs a tuple with the InputTag its provenance.Context should
// tag it with — the shape insert_tagged and insert_tagged_disjunction
// accept.
type TaggedFact struct {
	Tuple value.Tuple
	Input provenance.InputTag
}

// InsertTagged tags each fact independently via ctx.Tagging and stages the
// result into to-add (spec §4.2 insert_tagged, non-disjunctive case).
func (r *Relation) InsertTagged(ctx provenance.Context, facts []TaggedFact) error {
	for _, f := range facts {
		if err := r.Type.Validate(f.Tuple); err != nil {
			return err
		}
		tag, err := ctx.Tagging(f.Input)
		if err != nil {
			return err
		}
		r.toAdd = append(r.toAdd, provenance.Element{Tuple: f.Tuple, Tag: tag})
	}
	return nil
}

// InsertTaggedDisjunction tags a single disjunctive-fact group via
// ctx.TaggingDisjunction (so the context's disjunction registry records
// that at most one of the group's tags may hold at once) and stages the
// results into to-add.
func (r *Relation) InsertTaggedDisjunction(ctx provenance.Context, facts []TaggedFact) error {
	inputs := make([]provenance.InputTag, len(facts))
	for i, f := range facts {
		if err := r.Type.Validate(f.Tuple); err != nil {
			return err
		}
		inputs[i] = f.Input
	}
	tags, err := ctx.TaggingDisjunction(inputs)
	if err != nil {
		return err
	}
	for i, f := range facts {
		r.toAdd = append(r.toAdd, provenance.Element{Tuple: f.Tuple, Tag: tags[i]})
	}
	return nil
}

// InsertDataflowRecent drains a dataflow tree's recent stream into to-add
// (spec §4.2 insert_dataflow_recent).
func (r *Relation) InsertDataflowRecent(p RecentProducer) {
	for _, batch := range p.IterRecent() {
		r.toAdd = append(r.toAdd, batch.elems...)
	}
}

// Changed implements the semi-naive promotion step of spec §4.2:
//
//  1. Promote current recent into stable. Its elements are already in
//     stable (step 3 of the previous call put them there), so this
//     just empties recent.
//  2. Canonicalize to-add: sort by tuple, merge tags of duplicate tuples
//     via ctx.Add, drop entries ctx.Discard rejects.
//  3. Diff to-add against stable: for each tuple already stable, call
//     ctx.AddWithProceeding(stable_tag, new_tag); keep only the ones that
//     proceed (result is Recent) and update the stable tag in place.
//  4. Move survivors into the new recent.
//  5. Return recent.non_empty().
func (r *Relation) Changed(ctx provenance.Context) (bool, error) {
	// Step 1: diffAgainstStable already wrote every recent element into
	// stable with its combined tag, so promoting recent only clears it;
	// merging it into stable again would Add each of its tags twice.
	r.recent = Batch{}

	canon, err := canonicalize(r.toAdd, ctx)
	if err != nil {
		return false, err
	}
	r.toAdd = nil

	survivors, newStable, err := diffAgainstStable(r.stable, canon, ctx)
	if err != nil {
		return false, err
	}
	r.stable = newStable
	r.recent = Batch{elems: survivors}

	return !r.recent.Empty(), nil
}

// mergeRetain merges promote into stable: equal tuples have their tags
// combined by ctx.Add, and results ctx.Discard rejects are dropped from
// the merged sequence (spec §4.2 "Merge-retain into stable").
func mergeRetain(stable, promote Batch, ctx provenance.Context) (Batch, error) {
	if promote.Empty() {
		return stable, nil
	}
	if stable.Empty() {
		return promote, nil
	}
	a, b := stable.elems, promote.elems
	out := make([]provenance.Element, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		c, err := value.CompareTuples(a[i].Tuple, b[j].Tuple)
		if err != nil {
			return Batch{}, err
		}
		switch {
		case c < 0:
			out = append(out, a[i])
			i++
		case c > 0:
			out = append(out, b[j])
			j++
		default:
			combined, err := ctx.Add(a[i].Tag, b[j].Tag)
			if err != nil {
				return Batch{}, err
			}
			if !ctx.Discard(combined) {
				out = append(out, provenance.Element{Tuple: a[i].Tuple, Tag: combined})
			}
			i++
			j++
		}
	}
	out = append(out, a[i:]...)
	out = append(out, b[j:]...)
	return Batch{elems: out}, nil
}

// canonicalize implements step 2 of Changed: sort to-add by tuple, fold
// duplicate tuples' tags together via ctx.Add, and drop anything
// ctx.Discard rejects.
func canonicalize(elems []provenance.Element, ctx provenance.Context) (Batch, error) {
	sorted, err := SortedBatch(elems)
	if err != nil {
		return Batch{}, err
	}
	in := sorted.elems
	out := make([]provenance.Element, 0, len(in))
	i := 0
	for i < len(in) {
		tuple := in[i].Tuple
		tag := in[i].Tag
		j := i + 1
		for j < len(in) {
			c, err := value.CompareTuples(tuple, in[j].Tuple)
			if err != nil {
				return Batch{}, err
			}
			if c != 0 {
				break
			}
			tag, err = ctx.Add(tag, in[j].Tag)
			if err != nil {
				return Batch{}, err
			}
			j++
		}
		if !ctx.Discard(tag) {
			out = append(out, provenance.Element{Tuple: tuple, Tag: tag})
		}
		i = j
	}
	return Batch{elems: out}, nil
}

// diffAgainstStable implements step 3-4 of Changed: canon has already been
// canonicalized and sorted. Tuples not present in stable become
// survivors (new facts) directly; tuples already stable are combined via
// ctx.AddWithProceeding, which reports whether the result actually moved
// (Recent) or was already implied by the stable tag (Stable). Survivors
// that did proceed get their stable entry updated in place and are also
// returned as recent survivors, per spec §4.2 step 3 ("keep only those
// that proceed ... and update the stable tag in place").
func diffAgainstStable(stable, canon Batch, ctx provenance.Context) (survivors []provenance.Element, newStable Batch, err error) {
	a, b := stable.elems, canon.elems
	merged := make([]provenance.Element, 0, len(a)+len(b))
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		c, cerr := value.CompareTuples(a[i].Tuple, b[j].Tuple)
		if cerr != nil {
			return nil, Batch{}, cerr
		}
		switch {
		case c < 0:
			merged = append(merged, a[i])
			i++
		case c > 0:
			survivors = append(survivors, b[j])
			merged = append(merged, b[j])
			j++
		default:
			combined, proceeding, aerr := ctx.AddWithProceeding(a[i].Tag, b[j].Tag)
			if aerr != nil {
				return nil, Batch{}, aerr
			}
			updated := provenance.Element{Tuple: a[i].Tuple, Tag: combined}
			merged = append(merged, updated)
			if proceeding == provenance.Recent {
				survivors = append(survivors, updated)
			}
			i++
			j++
		}
	}
	merged = append(merged, a[i:]...)
	for ; j < len(b); j++ {
		survivors = append(survivors, b[j])
		merged = append(merged, b[j])
	}
	return survivors, Batch{elems: merged}, nil
}
