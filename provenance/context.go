// Package provenance implements the Tag abstraction described in spec §4.1:
// a pluggable algebraic structure (semiring) that every derived tuple's
// provenance annotation is drawn from, plus the Context capability
// interface responsible for constructing, combining, and recovering tags.
//
// A provenance scheme is expressed as a Go value implementing Context —
// the "capability interface (vtable)" called for in spec §9 — rather than
// as a generic type parameter, so that a runtime.Program can select a
// scheme at construction time instead of compile time.
package provenance

import (
	"fmt"

	"github.com/Tangerg/veritas/value"
)

// Tag is an opaque element of the active provenance semiring. Its concrete
// representation is scheme-specific (unit struct, float64, a clause-based
// Formula, ...); callers only combine Tags through the owning Context.
type Tag any

// OutputTag is the user-facing summary a Context recovers from a Tag
// (spec §4.1 "recover"): a bool for unit, a probability for the
// probabilistic schemes, or a (probability, gradient) pair for the
// differentiable schemes.
type OutputTag any

// InputTag is handed to Tagging/TaggingDisjunction by the runtime when a
// Fact is ingested; its shape depends on the active scheme (spec §6.1).
type InputTag any

// Proceeding reports whether a tag update produced by AddWithProceeding
// equals one of its operands (Stable — no further iteration required for
// this tuple) or is a genuinely new value (Recent — another semi-naive
// pass may derive more from it). It is the signal that drives the driver's
// fixed-point loop termination (spec glossary: "Proceeding").
type Proceeding int

const (
	Stable Proceeding = iota
	Recent
)

func (p Proceeding) String() string {
	if p == Stable {
		return "stable"
	}
	return "recent"
}

// Element pairs a Tuple with its Tag — the atomic unit moved by dataflow
// (spec §3). It is defined in this package, not relation, so that the
// Context's Dynamic* aggregate operations (which work over Elements) do
// not require provenance to depend on the relation-store layer above it.
type Element struct {
	Tuple value.Tuple
	Tag   Tag
}

// UnsupportedOperationError reports a scheme asked to perform an operation
// it does not support — e.g. a forall aggregate under a scheme whose
// Negate is partial, or an input tag shape a scheme's Tagging does not
// recognize. Antijoin and Difference do not report it: they drop a
// matched element whose Minus is undefined.
type UnsupportedOperationError struct {
	Scheme string
	Op     string
}

func (e *UnsupportedOperationError) Error() string {
	return fmt.Sprintf("provenance: scheme %q does not support %s", e.Scheme, e.Op)
}

// AggregateUndefinedError reports an aggregate the active scheme cannot
// evaluate (spec §7 AggregateUndefined).
type AggregateUndefinedError struct {
	Scheme string
	Op     string
}

func (e *AggregateUndefinedError) Error() string {
	return fmt.Sprintf("provenance: aggregate %q undefined for scheme %q", e.Op, e.Scheme)
}

// Context carries scheme-wide state (probability tables, sampler RNG,
// clause-width parameter k, disjunctions registry) and implements the
// contract of spec §4.1.
type Context interface {
	// Name identifies the scheme, used in error messages and Monitor events.
	Name() string

	// Zero and One are the semiring identities.
	Zero() Tag
	One() Tag

	// Tagging assigns a Tag to a freshly-ingested Fact from its InputTag.
	Tagging(input InputTag) (Tag, error)

	// TaggingDisjunction assigns Tags to a group of facts declared mutually
	// exclusive, registering the group with the disjunctions registry.
	TaggingDisjunction(inputs []InputTag) ([]Tag, error)

	// Add is the semiring's disjunction (OR) operator.
	Add(a, b Tag) (Tag, error)
	// Mult is the semiring's conjunction (AND) operator.
	Mult(a, b Tag) (Tag, error)

	// Negate returns the complement of a Tag. ok is false if the scheme's
	// negation is partial and undefined for this Tag (e.g. sample-k-proofs).
	Negate(a Tag) (tag Tag, ok bool, err error)

	// Minus defaults to Mult(a, Negate(b)) but schemes may override it.
	// ok mirrors Negate's: false means the scheme cannot compute this Minus.
	Minus(a, b Tag) (tag Tag, ok bool, err error)

	// Discard reports whether a Tag is semiring-zero and its Element should
	// be dropped.
	Discard(a Tag) bool

	// AddWithProceeding combines a stable and a recent Tag for the same
	// tuple, reporting whether the result proceeds (differs from both
	// operands) or is stable (equals one of them).
	AddWithProceeding(stable, recent Tag) (Tag, Proceeding, error)

	// Recover produces the user-facing OutputTag for a Tag.
	Recover(a Tag) (OutputTag, error)

	// SupportsNegation reports whether Negate/Minus are total for this
	// scheme. The runtime driver does not consult it and does not reject
	// programs with antijoins: under a scheme whose Minus is undefined,
	// dataflow's Antijoin and Difference drop every matched element.
	SupportsNegation() bool

	// DynamicCount, DynamicMin, DynamicMax, DynamicExists implement the
	// probabilistic aggregate rewrites of spec §4.4. Non-probabilistic
	// schemes may implement them via GenericDynamicCount etc., or return
	// an AggregateUndefinedError if the rewrite does not apply.
	DynamicCount(elems []Element) ([]Element, error)
	DynamicMin(elems []Element) ([]Element, error)
	DynamicMax(elems []Element) ([]Element, error)
	DynamicExists(elems []Element) ([]Element, error)
}
