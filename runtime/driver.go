package runtime

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/Tangerg/veritas/dataflow"
	"github.com/Tangerg/veritas/ioadapter"
	"github.com/Tangerg/veritas/pkg/result"
	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/relation"
	"github.com/Tangerg/veritas/value"
	"github.com/Tangerg/veritas/veritaserr"
	"github.com/Tangerg/veritas/veritaslog"
)

// Run drives program to completion, stratum by stratum, per spec §4.5.
// iterLimit bounds each recursive stratum's fixed-point loop (0 means
// unbounded); monitor, if non-nil, observes tagging, post-proceeding
// elements, and final recovery. The first fatal error is returned,
// wrapped with the failing stratum's index.
func (ec *ExecutionContext) Run(program *Program, iterLimit int, monitor Monitor) error {
	deadline := ec.deadline()
	for idx, stratum := range program.Strata {
		if deadline != nil && time.Now().After(*deadline) {
			return fmt.Errorf("stratum %d: %w", idx, &veritaserr.DeadlineExceeded{Stratum: idx})
		}
		if err := ec.runStratum(idx, stratum, iterLimit, monitor, deadline); err != nil {
			return fmt.Errorf("stratum %d: %w", idx, err)
		}
		for predicate := range stratum.Relations {
			ec.computed[predicate] = true
		}
	}
	return nil
}

func (ec *ExecutionContext) deadline() *time.Time {
	if ec.cfg == nil || ec.cfg.Deadline <= 0 {
		return nil
	}
	t := time.Now().Add(ec.cfg.Deadline)
	return &t
}

// runStratum implements spec §4.5's four numbered steps for one
// stratum, then seals its relations and recovers their output.
func (ec *ExecutionContext) runStratum(idx int, stratum *Stratum, iterLimit int, monitor Monitor, deadline *time.Time) error {
	veritaslog.StratumStart(idx, stratum.IsRecursive)

	ec.declareRelations(stratum)
	if err := ec.loadInputFiles(stratum); err != nil {
		return err
	}

	// Step 1: load declared facts, register disjunctions, changed once.
	if err := ec.loadDeclaredFacts(stratum, monitor); err != nil {
		return err
	}
	if _, err := ec.changedAll(stratum, monitor); err != nil {
		return err
	}

	iterations := 1
	if !stratum.IsRecursive {
		// Step 2: evaluate each update once (full content, not a delta),
		// merge into target, changed once.
		ec.evaluateUpdatesOnce(stratum)
		if _, err := ec.changedAll(stratum, monitor); err != nil {
			return err
		}
	} else {
		// Step 3/4: loop to fixed point, bounded by the iteration cap.
		for {
			if deadline != nil && time.Now().After(*deadline) {
				return &veritaserr.DeadlineExceeded{Stratum: idx}
			}
			ec.evaluateUpdatesRecent(stratum)
			changed, err := ec.changedAll(stratum, monitor)
			if err != nil {
				return err
			}
			iterations++
			if !changed {
				break
			}
			if iterLimit > 0 && iterations >= iterLimit {
				veritaslog.IterationLimitHit(idx, iterLimit)
				return &veritaserr.IterationLimitExceeded{Stratum: idx}
			}
		}
	}

	if err := ec.sealAll(stratum); err != nil {
		return err
	}
	ec.recoverOutputs(stratum, monitor)

	veritaslog.StratumDone(idx, iterations)
	return nil
}

// stableAsRecent adapts a dataflow.Dataflow's stable stream to
// relation.RecentProducer, letting the non-recursive Step 2 reuse
// InsertDataflowRecent to drain a "full evaluation" (built from every
// source's current stable content) rather than an incremental delta.
// This is valid because, immediately after Step 1's changed() call,
// every source relation's newly loaded facts are present in both
// stable and recent (spec's "facts become stable recent"), so a
// non-recursive update's single required pass is exactly its tree's
// IterStable.
type stableAsRecent struct{ d dataflow.Dataflow }

func (s stableAsRecent) IterRecent() []relation.Batch { return s.d.IterStable() }

func (ec *ExecutionContext) evaluateUpdatesOnce(stratum *Stratum) {
	for _, u := range stratum.Updates {
		tree := u.Build(ec.relations)
		target := ec.relations[u.Target]
		target.InsertDataflowRecent(stableAsRecent{d: tree})
	}
}

func (ec *ExecutionContext) evaluateUpdatesRecent(stratum *Stratum) {
	for _, u := range stratum.Updates {
		tree := u.Build(ec.relations)
		target := ec.relations[u.Target]
		target.InsertDataflowRecent(tree)
	}
}

func (ec *ExecutionContext) declareRelations(stratum *Stratum) {
	for predicate, decl := range stratum.Relations {
		ec.relationFor(predicate, decl.TupleType)
	}
}

// loadInputFiles concurrently loads every CSV/TSV-bound relation in the
// stratum (spec §6.3; §5 "all I/O happens before and after" licenses
// concurrency here since it is outside the fixed-point loop). Errors
// from concurrent loads are errors.Join-combined rather than reporting
// only the first.
func (ec *ExecutionContext) loadInputFiles(stratum *Stratum) error {
	var bound []*RelationDecl
	for _, decl := range stratum.Relations {
		if decl.Input.Path != "" {
			bound = append(bound, decl)
		}
	}
	if len(bound) == 0 {
		return nil
	}

	backend, maxWorkers := "goroutine", 4
	if ec.cfg != nil {
		backend, maxWorkers = ec.cfg.LoaderBackend, ec.cfg.MaxLoaderWorkers
	}
	pool, err := ioadapter.NewPool(backend, maxWorkers)
	if err != nil {
		return err
	}

	results := make([]result.Result[[]value.Tuple], len(bound))
	for i, decl := range bound {
		i, decl := i, decl
		pool.Go(func() {
			format := ioadapter.FormatCSV
			if decl.Input.IsTSV {
				format = ioadapter.FormatTSV
			}
			tuples, loadErr := ioadapter.Load(decl.Input.Path, format, decl.TupleType)
			if loadErr != nil {
				results[i] = result.Error[[]value.Tuple](loadErr)
				veritaslog.InputFileFailed(decl.Predicate, decl.Input.Path, loadErr)
				return
			}
			results[i] = result.Value(tuples)
			veritaslog.InputFileLoaded(decl.Predicate, decl.Input.Path, len(tuples))
		})
	}
	pool.Wait()

	var errs []error
	for i, decl := range bound {
		tuples, err := results[i].Get()
		if err != nil {
			errs = append(errs, err)
			continue
		}
		r := ec.relationFor(decl.Predicate, decl.TupleType)
		if insErr := r.InsertUntagged(ec.ctx, tuples); insErr != nil {
			errs = append(errs, insErr)
		}
	}
	return errors.Join(errs...)
}

// loadDeclaredFacts stages every RelationDecl's inline Facts and
// DisjunctiveFacts groups into their relation's to-add (spec §4.5 step
// 1's "load all declared facts ... register all disjunctive-fact
// groups").
func (ec *ExecutionContext) loadDeclaredFacts(stratum *Stratum, monitor Monitor) error {
	for predicate, decl := range stratum.Relations {
		r := ec.relationFor(predicate, decl.TupleType)

		var untagged []Fact
		var tagged []Fact
		for _, f := range decl.Facts {
			if f.Tag == nil {
				untagged = append(untagged, f)
			} else {
				tagged = append(tagged, f)
			}
		}
		if err := insertUntaggedFacts(r, ec.ctx, untagged); err != nil {
			return err
		}
		if err := insertTaggedFacts(r, ec.monitoredFor(monitor, predicate, tagged), tagged); err != nil {
			return err
		}

		for _, group := range decl.DisjunctiveFacts {
			gctx := ec.monitoredFor(monitor, predicate, group)
			members := make([]relation.TaggedFact, len(group))
			for i, f := range group {
				members[i] = relation.TaggedFact{Tuple: f.Tuple, Input: f.Tag}
			}
			if err := r.InsertTaggedDisjunction(gctx, members); err != nil {
				return err
			}
		}
	}
	return nil
}

// monitoredFor wraps ec.ctx with a monitoringContext that reports each
// produced tag against facts' tuples, in order, if monitor is non-nil;
// otherwise it returns ec.ctx unchanged.
func (ec *ExecutionContext) monitoredFor(monitor Monitor, predicate string, facts []Fact) provenance.Context {
	if monitor == nil {
		return ec.ctx
	}
	tuples := make([]value.Tuple, len(facts))
	for i, f := range facts {
		tuples[i] = f.Tuple
	}
	return &monitoringContext{Context: ec.ctx, monitor: monitor, predicate: predicate, tuples: tuples}
}

func insertUntaggedFacts(r *relation.Relation, ctx provenance.Context, facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}
	tuples := make([]value.Tuple, len(facts))
	for i, f := range facts {
		tuples[i] = f.Tuple
	}
	return r.InsertUntagged(ctx, tuples)
}

func insertTaggedFacts(r *relation.Relation, ctx provenance.Context, facts []Fact) error {
	if len(facts) == 0 {
		return nil
	}
	taggedFacts := make([]relation.TaggedFact, len(facts))
	for i, f := range facts {
		taggedFacts[i] = relation.TaggedFact{Tuple: f.Tuple, Input: f.Tag}
	}
	return r.InsertTagged(ctx, taggedFacts)
}

// changedAll calls Changed on every relation in the stratum and, for
// each element surviving into recent, notifies the Monitor's
// OnElement (spec §4.5 "each element entering a relation after
// changed, post-proceeding"). Returns whether any relation changed.
func (ec *ExecutionContext) changedAll(stratum *Stratum, monitor Monitor) (bool, error) {
	any := false
	for predicate := range stratum.Relations {
		r := ec.relations[predicate]
		changed, err := r.Changed(ec.ctx)
		if err != nil {
			return false, err
		}
		if changed {
			any = true
			recent := r.Recent()
			for i := 0; i < recent.Len(); i++ {
				e := recent.At(i)
				notifyElement(monitor, predicate, e.Tuple, e.Tag)
			}
		}
	}
	return any, nil
}

// sealAll flushes each relation's recent into stable (spec §4.5: "after
// every stratum completes, relations of that stratum are sealed").
// Sealing calls Changed once more with nothing staged in to-add, which
// empties recent; its elements already sit in stable.
func (ec *ExecutionContext) sealAll(stratum *Stratum) error {
	for predicate := range stratum.Relations {
		r := ec.relations[predicate]
		if _, err := r.Changed(ec.ctx); err != nil {
			return err
		}
	}
	return nil
}

// recoverOutputs calls ctx.Recover over every non-Hidden relation's
// sealed stable contents, notifies the Monitor's OnRecovered (spec
// §4.5 "the final recover on output relations"), and writes File-mode
// relations to their declared path. File writing happens regardless of
// whether a Monitor is present; the monitor notification does not.
func (ec *ExecutionContext) recoverOutputs(stratum *Stratum, monitor Monitor) {
	for predicate, decl := range stratum.Relations {
		if decl.Output == OutputHidden {
			continue
		}
		r := ec.relations[predicate]
		stable := r.Stable()

		var fileLines []string
		for i := 0; i < stable.Len(); i++ {
			e := stable.At(i)
			output, err := ec.ctx.Recover(e.Tag)
			if err != nil {
				continue
			}
			notifyRecovered(monitor, predicate, e.Tuple, output)
			if decl.Output == OutputFile {
				fileLines = append(fileLines, fmt.Sprintf("%s\t%v", e.Tuple.String(), output))
			}
		}
		if decl.Output == OutputFile && decl.OutputPath != "" {
			if err := writeOutputFile(decl.OutputPath, fileLines); err != nil {
				veritaslog.OutputFileFailed(predicate, decl.OutputPath, err)
			}
		}
	}
}

func writeOutputFile(path string, lines []string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, line := range lines {
		if _, err := w.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return w.Flush()
}
