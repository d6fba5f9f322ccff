// Package concurrency provides the shared worker-pool sizing policy
// used by the memoized generator's batch evaluation and the stepper's
// parallel regions. It supplies the limit those callers pass to
// golang.org/x/sync/errgroup's SetLimit, the same way a bounded worker
// layer bounds its fan-out.
package concurrency

import "runtime"

// DefaultLimit is the concurrency limit used when an engine or memo
// generator is not given an explicit one. It mirrors a common default
// of runtime.NumCPU() * 2: successor computation is
// typically CPU-light (user-supplied pure functions), so modest
// oversubscription keeps workers busy across short-lived goroutines
// without unbounded fan-out on wide distributions.
func DefaultLimit() int {
	return runtime.NumCPU() * 2
}

// Limit returns n if positive, or DefaultLimit() otherwise.
func Limit(n int) int {
	if n > 0 {
		return n
	}
	return DefaultLimit()
}
