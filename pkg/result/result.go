// Package result provides a generic Result type for collecting a
// value-or-error outcome from concurrent work without a dedicated
// channel per task — the runtime driver's input-file loading uses it to
// gather each file's outcome from its pool goroutine before joining them.
package result

import "fmt"

// Result holds either a successful value of type T or the error that
// prevented one.
type Result[T any] struct {
	v   T
	err error
}

// New wraps an existing (T, error) pair, for adapting functions that
// already return the Go-idiomatic two-value shape.
func New[T any](v T, err error) Result[T] {
	return Result[T]{v: v, err: err}
}

// Value wraps a successful value.
func Value[T any](v T) Result[T] {
	return Result[T]{v: v}
}

// Error wraps a failure, with T's zero value as the payload.
func Error[T any](err error) Result[T] {
	return Result[T]{err: err}
}

// Get returns both the value and error, Go-idiomatic style.
func (r *Result[T]) Get() (T, error) {
	return r.v, r.err
}

// Error returns the wrapped error, or nil if r holds a value.
func (r *Result[T]) Error() error {
	return r.err
}

// Value returns the wrapped value. It is T's zero value if r holds an
// error instead; check Error first if that distinction matters.
func (r *Result[T]) Value() T {
	return r.v
}

// String renders "error: <msg>" or "value: <v>" (using T's Stringer if
// it implements one).
func (r *Result[T]) String() string {
	if r.err != nil {
		return "error: " + r.err.Error()
	}
	if s, ok := any(r.v).(fmt.Stringer); ok {
		return "value: " + s.String()
	}
	return fmt.Sprintf("value: %+v", r.v)
}
