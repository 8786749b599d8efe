// Command veritasctl is a thin external caller for package runtime: it
// wires a named provenance scheme to a hard-coded transitive-closure
// Program (standing in for a compiler's output, which this tree does
// not implement) and prints the resulting relation.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Tangerg/veritas/dataflow"
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/runtime"
	"github.com/Tangerg/veritas/value"
)

func main() {
	scheme := flag.String("scheme", "unit", "provenance scheme: unit, minmax-prob, addmult-prob, top-k-proofs, top-bottom-k-clauses")
	program := flag.String("program", "", "unused placeholder for a compiled RAM program path; this build runs a fixed transitive-closure fixture")
	facts := flag.String("facts", "", "unused placeholder for an input-fact file path; this build seeds its own edge facts")
	iterLimit := flag.Int("iter-limit", 100, "fixed-point iteration cap per recursive stratum")
	flag.Parse()
	_ = *program
	_ = *facts

	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	ctx, err := schemeByName(*scheme, 3)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ec := runtime.New(ctx)
	prog := transitiveClosureFixture(ctx)
	if err := ec.Run(prog, *iterLimit, nil); err != nil {
		fmt.Fprintln(os.Stderr, "run failed:", err)
		os.Exit(1)
	}

	entries, err := ec.Relation("path")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	for _, e := range entries {
		slog.Info("path", slog.String("tuple", e.Tuple.String()), slog.Any("tag", e.Output))
	}
}

// schemeByName builds a provenance.Context for one of the scheme names
// spec §4.1 lists, using k as the clause/proof cap for the truncated
// schemes. Schemes with no zero-argument-equivalent construction (e.g.
// sample-k-proofs, which also needs a seeded RNGCell) are left for a
// caller that builds provenance.Context directly; this CLI only needs
// enough breadth to demonstrate scheme selection.
func schemeByName(name string, k int) (provenance.Context, error) {
	switch name {
	case "unit", "":
		return provenance.NewUnitContext(), nil
	case "minmax-prob":
		return provenance.NewMinMaxProbContext(), nil
	case "addmult-prob":
		return provenance.NewAddMultProbContext(), nil
	case "top-k-proofs":
		return provenance.NewTopKProofsContext(k), nil
	case "top-bottom-k-clauses":
		return provenance.NewTopBottomKClausesContext(k), nil
	case "diff-top-bottom-k-clauses":
		return provenance.NewDiffTopBottomKClausesContext(k), nil
	default:
		return nil, fmt.Errorf("veritasctl: unknown scheme %q", name)
	}
}

var edgeType = value.SeqType(value.LeafType(value.KindI64), value.LeafType(value.KindI64))

func edgeFact(x, y int64) runtime.Fact {
	return runtime.Fact{Tuple: value.Seq(value.Leaf(value.NewI64(x)), value.Leaf(value.NewI64(y)))}
}

// transitiveClosureFixture builds edge={(1,2),(2,3),(3,4)} and the rule
// path(x,y):-edge(x,y). path(x,z):-path(x,y),edge(y,z). as a single
// recursive stratum, standing in for a compiled Program until this tree
// grows a front end.
func transitiveClosureFixture(ctx provenance.Context) *runtime.Program {
	edgeDecl := &runtime.RelationDecl{
		Predicate: "edge",
		TupleType: edgeType,
		Facts:     []runtime.Fact{edgeFact(1, 2), edgeFact(2, 3), edgeFact(3, 4)},
		Output:    runtime.OutputHidden,
	}
	pathDecl := &runtime.RelationDecl{
		Predicate: "path",
		TupleType: edgeType,
		Output:    runtime.OutputDefault,
	}

	base := runtime.Update{
		Target: "path",
		Build: func(relations map[string]*relation.Relation) dataflow.Dataflow {
			return dataflow.FromRelation(relations["edge"])
		},
	}
	induction := runtime.Update{
		Target: "path",
		Build: func(relations map[string]*relation.Relation) dataflow.Dataflow {
			pathByY := dataflow.Project{
				Source:    dataflow.FromRelation(relations["path"]),
				Accessors: []value.TupleAccessor{{1}, {0}},
			}
			joined := dataflow.Join{
				Left:       pathByY,
				Right:      dataflow.FromRelation(relations["edge"]),
				LeftArity:  1,
				RightArity: 1,
				Ctx:        ctx,
			}
			return dataflow.Project{Source: joined, Accessors: []value.TupleAccessor{{1}, {2}}}
		},
	}

	return &runtime.Program{
		Strata: []*runtime.Stratum{{
			IsRecursive: true,
			Relations:   map[string]*runtime.RelationDecl{"edge": edgeDecl, "path": pathDecl},
			Updates:     []runtime.Update{base, induction},
		}},
		RelationToStratum: map[string]int{"edge": 0, "path": 0},
	}
}
