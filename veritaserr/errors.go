// Package veritaserr collects the concrete error kinds of spec §7: each
// is an exported type implementing error and Unwrap where it wraps a
// cause, so callers can use errors.As/errors.Is across the fixed-point
// driver the way the teacher's own handlers do with its HTTP/broker
// error types.
//
// spec §7's TypeError(tuple, expected_type) lives in value.TypeError
// instead of here, since value is where the tuple/type-matching logic
// it reports on already lives; every other kind below is specific to
// the runtime driver and so lives in this package.
package veritaserr

import "fmt"

// UnknownRelation reports a reference to a predicate the program never
// declared.
type UnknownRelation struct {
	Predicate string
}

func (e *UnknownRelation) Error() string {
	return fmt.Sprintf("veritas: unknown relation %q", e.Predicate)
}

// IterationLimitExceeded reports that a recursive stratum's fixed-point
// loop did not converge within the caller-supplied iteration cap.
type IterationLimitExceeded struct {
	Stratum int
}

func (e *IterationLimitExceeded) Error() string {
	return fmt.Sprintf("veritas: stratum %d exceeded the iteration limit", e.Stratum)
}

// InputFileError reports a failure binding or reading a relation's
// input_file source. Missing files are always fatal per spec §6.3.
type InputFileError struct {
	Path  string
	Cause error
}

func (e *InputFileError) Error() string {
	return fmt.Sprintf("veritas: input file %q: %v", e.Path, e.Cause)
}

func (e *InputFileError) Unwrap() error { return e.Cause }

// DisjunctionConflict reports an insertion-time violation of a
// declared disjunction group (a group index outside the fact list, or a
// group member without an input tag).
type DisjunctionConflict struct {
	Predicate string
}

func (e *DisjunctionConflict) Error() string {
	return fmt.Sprintf("veritas: disjunction conflict inserting facts for %q", e.Predicate)
}

// DeadlineExceeded reports that the optional wall-clock deadline
// (spec §5) elapsed, as checked at each stratum boundary and before
// each fixed-point pass of a recursive stratum; it is not checked
// between the updates of one pass.
type DeadlineExceeded struct {
	Stratum int
}

func (e *DeadlineExceeded) Error() string {
	return fmt.Sprintf("veritas: wall-clock deadline exceeded during stratum %d", e.Stratum)
}
