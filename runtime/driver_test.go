package runtime

import (
	"errors"
	"testing"

	"github.com/Tangerg/veritas/dataflow"
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
	"github.com/Tangerg/veritas/veritaserr"
)

func leafI64(v int64) value.Tuple { return value.Leaf(value.NewI64(v)) }

func pairI64(x, y int64) value.Tuple {
	return value.Seq(leafI64(x), leafI64(y))
}

var edgeType = value.SeqType(value.LeafType(value.KindI64), value.LeafType(value.KindI64))

func untaggedFacts(tuples ...value.Tuple) []Fact {
	out := make([]Fact, len(tuples))
	for i, t := range tuples {
		out[i] = Fact{Tuple: t}
	}
	return out
}

// transitiveClosureProgram builds the stratum for spec §8 scenario 1:
// edge={(1,2),(2,3),(3,4)}, path(x,y):-edge(x,y), path(x,z):-path(x,y),edge(y,z).
func transitiveClosureProgram(ctx provenance.Context) *Program {
	edgeDecl := &RelationDecl{
		Predicate: "edge",
		TupleType: edgeType,
		Facts:     untaggedFacts(pairI64(1, 2), pairI64(2, 3), pairI64(3, 4)),
		Output:    OutputDefault,
	}
	pathDecl := &RelationDecl{
		Predicate: "path",
		TupleType: edgeType,
		Output:    OutputDefault,
	}

	base := Update{
		Target: "path",
		Build: func(relations map[string]*relation.Relation) dataflow.Dataflow {
			return dataflow.FromRelation(relations["edge"])
		},
	}
	induction := Update{
		Target: "path",
		Build: func(relations map[string]*relation.Relation) dataflow.Dataflow {
			// path(x,y) -> (y,x) so Join can key on y against edge's leading x.
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
			// joined = ((y), x, z); keep (x, z).
			return dataflow.Project{Source: joined, Accessors: []value.TupleAccessor{{1}, {2}}}
		},
	}

	stratum := &Stratum{
		IsRecursive: true,
		Relations:   map[string]*RelationDecl{"edge": edgeDecl, "path": pathDecl},
		Updates:     []Update{base, induction},
	}
	return &Program{
		Strata:            []*Stratum{stratum},
		RelationToStratum: map[string]int{"edge": 0, "path": 0},
	}
}

func TestTransitiveClosure(t *testing.T) {
	ctx := provenance.NewUnitContext()
	ec := New(ctx)
	program := transitiveClosureProgram(ctx)

	if err := ec.Run(program, 10, nil); err != nil {
		t.Fatalf("run: %v", err)
	}

	entries, err := ec.Relation("path")
	if err != nil {
		t.Fatalf("relation: %v", err)
	}
	got := map[[2]int64]bool{}
	for _, e := range entries {
		k := [2]int64{e.Tuple.Children()[0].Value().I64(), e.Tuple.Children()[1].Value().I64()}
		got[k] = true
	}
	want := []([2]int64){{1, 2}, {1, 3}, {1, 4}, {2, 3}, {2, 4}, {3, 4}}
	if len(got) != len(want) {
		t.Fatalf("path: got %d tuples %v, want %d", len(got), got, len(want))
	}
	for _, w := range want {
		if !got[w] {
			t.Fatalf("path: missing %v in %v", w, got)
		}
	}
	if !ec.IsComputed("path") || !ec.IsComputed("edge") {
		t.Fatalf("expected both relations computed after Run")
	}
}

func TestTransitiveClosureIterationLimitExceeded(t *testing.T) {
	ctx := provenance.NewUnitContext()
	ec := New(ctx)
	program := transitiveClosureProgram(ctx)

	err := ec.Run(program, 2, nil)
	if err == nil {
		t.Fatalf("expected an iteration limit error, got nil")
	}
	var limitErr *veritaserr.IterationLimitExceeded
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected *veritaserr.IterationLimitExceeded, got %v (%T)", err, err)
	}
	if limitErr.Stratum != 0 {
		t.Fatalf("expected stratum 0, got %d", limitErr.Stratum)
	}
}

// TestAntijoinScenario covers spec §8 scenario 3: a={1,2,3}, b={2}, a not-in b = {1,3}.
func TestAntijoinScenario(t *testing.T) {
	ctx := provenance.NewUnitContext()
	ec := New(ctx)

	aDecl := &RelationDecl{
		Predicate: "a",
		TupleType: value.LeafType(value.KindI64),
		Facts:     untaggedFacts(leafI64(1), leafI64(2), leafI64(3)),
	}
	bDecl := &RelationDecl{
		Predicate: "b",
		TupleType: value.LeafType(value.KindI64),
		Facts:     untaggedFacts(leafI64(2)),
	}
	resultDecl := &RelationDecl{
		Predicate: "result",
		TupleType: value.LeafType(value.KindI64),
		Output:    OutputDefault,
	}
	update := Update{
		Target: "result",
		Build: func(relations map[string]*relation.Relation) dataflow.Dataflow {
			return dataflow.Difference{Left: dataflow.FromRelation(relations["a"]), Right: dataflow.FromRelation(relations["b"]), Ctx: ctx}
		},
	}
	program := &Program{
		Strata: []*Stratum{{
			IsRecursive: false,
			Relations:   map[string]*RelationDecl{"a": aDecl, "b": bDecl, "result": resultDecl},
			Updates:     []Update{update},
		}},
		RelationToStratum: map[string]int{"a": 0, "b": 0, "result": 0},
	}

	if err := ec.Run(program, 10, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, err := ec.Relation("result")
	if err != nil {
		t.Fatalf("relation: %v", err)
	}
	got := map[int64]bool{}
	for _, e := range entries {
		got[e.Tuple.Value().I64()] = true
	}
	if len(got) != 2 || !got[1] || !got[3] {
		t.Fatalf("result: got %v, want {1,3}", got)
	}
}

// TestAggregateCount covers spec §8 scenario 4: q(c):-c=count{x:a(x)}.
func TestAggregateCount(t *testing.T) {
	ctx := provenance.NewUnitContext()
	ec := New(ctx)

	aDecl := &RelationDecl{
		Predicate: "a",
		TupleType: value.LeafType(value.KindSymbol),
		Facts:     untaggedFacts(value.Leaf(value.NewSymbol("a")), value.Leaf(value.NewSymbol("b")), value.Leaf(value.NewSymbol("c"))),
	}
	qDecl := &RelationDecl{
		Predicate: "q",
		TupleType: value.LeafType(value.KindI64),
		Output:    OutputDefault,
	}
	update := Update{
		Target: "q",
		Build: func(relations map[string]*relation.Relation) dataflow.Dataflow {
			return dataflow.Reduce{Source: dataflow.FromRelation(relations["a"]), Aggregate: dataflow.AggCount, Ctx: ctx}
		},
	}
	program := &Program{
		Strata: []*Stratum{{
			IsRecursive: false,
			Relations:   map[string]*RelationDecl{"a": aDecl, "q": qDecl},
			Updates:     []Update{update},
		}},
		RelationToStratum: map[string]int{"a": 0, "q": 0},
	}

	if err := ec.Run(program, 10, nil); err != nil {
		t.Fatalf("run: %v", err)
	}
	entries, err := ec.Relation("q")
	if err != nil {
		t.Fatalf("relation: %v", err)
	}
	if len(entries) != 1 || entries[0].Tuple.Value().I64() != 3 {
		t.Fatalf("q: got %v, want a single tuple holding 3", entries)
	}
}

type recordedElement struct {
	predicate string
	tuple     value.Tuple
}

type recordingMonitor struct {
	tagged    []recordedElement
	elements  []recordedElement
	recovered []recordedElement
}

func (m *recordingMonitor) OnTagged(predicate string, tuple value.Tuple, tag provenance.Tag) {
	m.tagged = append(m.tagged, recordedElement{predicate, tuple})
}

func (m *recordingMonitor) OnElement(predicate string, tuple value.Tuple, tag provenance.Tag) {
	m.elements = append(m.elements, recordedElement{predicate, tuple})
}

func (m *recordingMonitor) OnRecovered(predicate string, tuple value.Tuple, output provenance.OutputTag) {
	m.recovered = append(m.recovered, recordedElement{predicate, tuple})
}

func TestMonitorObservesElementsAndRecovery(t *testing.T) {
	ctx := provenance.NewUnitContext()
	ec := New(ctx)

	aDecl := &RelationDecl{
		Predicate: "a",
		TupleType: value.LeafType(value.KindI64),
		Facts:     untaggedFacts(leafI64(1), leafI64(2)),
		Output:    OutputDefault,
	}
	program := &Program{
		Strata: []*Stratum{{
			IsRecursive: false,
			Relations:   map[string]*RelationDecl{"a": aDecl},
		}},
		RelationToStratum: map[string]int{"a": 0},
	}

	mon := &recordingMonitor{}
	if err := ec.Run(program, 10, mon); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(mon.elements) != 2 {
		t.Fatalf("OnElement: got %d calls, want 2", len(mon.elements))
	}
	if len(mon.recovered) != 2 {
		t.Fatalf("OnRecovered: got %d calls, want 2", len(mon.recovered))
	}
}

type panickingMonitor struct{ recordingMonitor }

func (m *panickingMonitor) OnElement(predicate string, tuple value.Tuple, tag provenance.Tag) {
	panic("boom")
}

func TestMonitorPanicIsRecovered(t *testing.T) {
	ctx := provenance.NewUnitContext()
	ec := New(ctx)

	aDecl := &RelationDecl{
		Predicate: "a",
		TupleType: value.LeafType(value.KindI64),
		Facts:     untaggedFacts(leafI64(1)),
		Output:    OutputDefault,
	}
	program := &Program{
		Strata: []*Stratum{{
			IsRecursive: false,
			Relations:   map[string]*RelationDecl{"a": aDecl},
		}},
		RelationToStratum: map[string]int{"a": 0},
	}

	mon := &panickingMonitor{}
	if err := ec.Run(program, 10, mon); err != nil {
		t.Fatalf("run should survive a panicking monitor, got: %v", err)
	}
	entries, err := ec.Relation("a")
	if err != nil || len(entries) != 1 {
		t.Fatalf("relation a should still hold its fact despite the monitor panic: %v, %v", entries, err)
	}
}
