package ioadapter

// Limiter is a counting-semaphore concurrency limiter, adapted directly
// from the teacher's pkg/sync.Limiter: Acquire blocks until a slot is
// free, Release frees one.
type Limiter struct {
	semaphore chan struct{}
}

// NewLimiter builds a Limiter allowing at most max concurrent holders.
// Panics if max <= 0, matching the teacher's constructor.
func NewLimiter(max int) *Limiter {
	if max <= 0 {
		panic("ioadapter: max must be > 0")
	}
	return &Limiter{semaphore: make(chan struct{}, max)}
}

// Acquire blocks until a slot is available.
func (l *Limiter) Acquire() { l.semaphore <- struct{}{} }

// Release frees one slot.
func (l *Limiter) Release() { <-l.semaphore }
