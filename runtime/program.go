// Package runtime implements the stratified fixed-point driver of spec
// §4.5 and the execution API of spec §6.2: it accepts a compiler-built
// Program, loads facts and input files, drives each stratum to a fixed
// point (or a single pass, for non-recursive strata), and exposes the
// resulting relations.
package runtime

import (
	"github.com/Tangerg/veritas/dataflow"
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
)

// OutputMode selects whether a declared relation's final contents are
// exposed to the caller at all, and if so, how (spec §6.1:
// "output: Hidden|Default|File(path)").
type OutputMode int

const (
	OutputHidden OutputMode = iota
	OutputDefault
	OutputFile
)

// Fact pairs a tuple with the InputTag its provenance.Context should
// tag it with (spec §6.1); a nil Tag means insert_untagged (the
// context's semiring one) rather than insert_tagged.
type Fact struct {
	Tag   provenance.InputTag
	Tuple value.Tuple
}

// InputFile names the CSV/TSV source a RelationDecl may bind to (spec
// §6.3). An empty Path means no binding.
type InputFile struct {
	Path  string
	IsTSV bool
}

// RelationDecl is the RAM-level relation declaration of spec §6.1 —
// named RelationDecl rather than Relation in this package to avoid
// colliding with relation.Relation, the mutable store it causes to be
// built at stratum-load time.
type RelationDecl struct {
	Predicate        string
	TupleType        value.TupleType
	Input            InputFile
	Facts            []Fact
	DisjunctiveFacts [][]Fact
	Output           OutputMode
	OutputPath       string // meaningful only when Output == OutputFile
}

// Update is one dataflow assignment within a stratum (spec §6.1). Build
// constructs the Update's dataflow tree against the current relation
// bindings of its own stratum; the driver calls it once per evaluation
// pass so that, per spec §4.3, "dataflow trees close over the current
// relation views" — the tree it returns reads whatever is in relations
// at the moment IterStable/IterRecent run, never a stale snapshot.
type Update struct {
	Target string
	Build  func(relations map[string]*relation.Relation) dataflow.Dataflow
}

// Stratum is one strongly-connected component of the derivation graph
// (spec glossary), evaluated together: either a single non-recursive
// pass or a loop to fixed point.
type Stratum struct {
	IsRecursive bool
	Relations   map[string]*RelationDecl
	Updates     []Update
}

// Program is the tree-shaped RAM value the compiler hands the runtime
// (spec §6.1).
type Program struct {
	Strata            []*Stratum
	RelationToStratum map[string]int
}
