// Package veritaslog wraps log/slog with the handful of events the
// fixed-point driver and input loader emit, matching the teacher's
// direct-package-level slog.Info/slog.Error style rather than
// threading a logger instance through every call.
package veritaslog

import "log/slog"

// StratumStart logs the beginning of a stratum's evaluation.
func StratumStart(index int, recursive bool) {
	slog.Info("stratum start", slog.Int("stratum", index), slog.Bool("recursive", recursive))
}

// StratumDone logs a stratum's successful completion after n fixed-point
// iterations (n is always 1 for non-recursive strata).
func StratumDone(index, iterations int) {
	slog.Info("stratum done", slog.Int("stratum", index), slog.Int("iterations", iterations))
}

// IterationLimitHit logs that a stratum's fixed-point loop was aborted by
// the iteration cap before reaching convergence.
func IterationLimitHit(index, limit int) {
	slog.Error("iteration limit exceeded", slog.Int("stratum", index), slog.Int("limit", limit))
}

// InputFileLoaded logs a successful input-file bind for a relation.
func InputFileLoaded(predicate, path string, rows int) {
	slog.Info("input file loaded", slog.String("relation", predicate), slog.String("path", path), slog.Int("rows", rows))
}

// InputFileFailed logs a failed input-file bind.
func InputFileFailed(predicate, path string, err error) {
	slog.Error("input file load failed", slog.String("relation", predicate), slog.String("path", path), slog.String("err", err.Error()))
}

// OutputFileFailed logs a failure writing a relation's File-mode output.
func OutputFileFailed(predicate, path string, err error) {
	slog.Error("output file write failed", slog.String("relation", predicate), slog.String("path", path), slog.String("err", err.Error()))
}

// MonitorPanic logs a recovered panic from a user-supplied Monitor.
func MonitorPanic(err error) {
	slog.Error("monitor panicked", slog.String("err", err.Error()))
}
