package runtime

import (
	"fmt"
	"runtime/debug"

	"github.com/Tangerg/veritas/provenance"
	"github.com/Tangerg/veritas/value"
	"github.com/Tangerg/veritas/veritaslog"
)

// Monitor observes the three synchronous events spec §4.5 names:
// every tag produced by tagging, every element that enters a relation
// after changed (the post-proceeding survivors), and the final recover
// on output relations. Monitors never alter tags — these are read-only
// notifications, invoked synchronously within the driver's own
// goroutine.
type Monitor interface {
	OnTagged(predicate string, tuple value.Tuple, tag provenance.Tag)
	OnElement(predicate string, tuple value.Tuple, tag provenance.Tag)
	OnRecovered(predicate string, tuple value.Tuple, output provenance.OutputTag)
}

// safeCall invokes fn with panic recovery, adapted from the teacher's
// safe.WithRecover — used synchronously here (never via a spawned
// goroutine, unlike the teacher's safe.Go) since a Monitor is called
// inline within the driver loop. A panicking Monitor must not crash a
// fixed-point computation that is otherwise well-formed.
func safeCall(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			veritaslog.MonitorPanic(fmt.Errorf("%v\n%s", r, debug.Stack()))
		}
	}()
	fn()
}

// notifyTagged dispatches OnTagged if monitor is non-nil.
func notifyTagged(monitor Monitor, predicate string, tuple value.Tuple, tag provenance.Tag) {
	if monitor == nil {
		return
	}
	safeCall(func() { monitor.OnTagged(predicate, tuple, tag) })
}

// notifyElement dispatches OnElement if monitor is non-nil.
func notifyElement(monitor Monitor, predicate string, tuple value.Tuple, tag provenance.Tag) {
	if monitor == nil {
		return
	}
	safeCall(func() { monitor.OnElement(predicate, tuple, tag) })
}

// notifyRecovered dispatches OnRecovered if monitor is non-nil.
func notifyRecovered(monitor Monitor, predicate string, tuple value.Tuple, output provenance.OutputTag) {
	if monitor == nil {
		return
	}
	safeCall(func() { monitor.OnRecovered(predicate, tuple, output) })
}

// monitoringContext decorates a provenance.Context so that Tagging and
// TaggingDisjunction notify a Monitor's OnTagged for every produced
// tag, without relation or provenance needing any Monitor-awareness of
// their own — the decorator pattern keeps the five-layer dependency
// order intact (runtime is the only layer that knows Monitor exists).
type monitoringContext struct {
	provenance.Context
	monitor   Monitor
	predicate string
	tuples    []value.Tuple // parallel to the InputTag slice Tagging*/TaggingDisjunction receive
	next      int           // index in tuples of the fact the next Tagging call tags
}

func (m *monitoringContext) Tagging(input provenance.InputTag) (provenance.Tag, error) {
	tag, err := m.Context.Tagging(input)
	if err != nil {
		return nil, err
	}
	if m.next < len(m.tuples) {
		notifyTagged(m.monitor, m.predicate, m.tuples[m.next], tag)
		m.next++
	}
	return tag, nil
}

func (m *monitoringContext) TaggingDisjunction(inputs []provenance.InputTag) ([]provenance.Tag, error) {
	tags, err := m.Context.TaggingDisjunction(inputs)
	if err != nil {
		return nil, err
	}
	for i, tag := range tags {
		if i < len(m.tuples) {
			notifyTagged(m.monitor, m.predicate, m.tuples[i], tag)
		}
	}
	return tags, nil
}
