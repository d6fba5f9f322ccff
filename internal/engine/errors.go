package engine

import (
	"errors"
	"fmt"

	"github.com/go-markov/chain/internal/digest"
)

// Sentinel error kinds, wrapped in the structured error types below so
// callers can still errors.Is against the kind while getting
// operation-specific context.
var (
	// ErrNonStochasticRow indicates a successor list's probabilities did
	// not sum to 1.0 after 10-decimal rounding.
	ErrNonStochasticRow = errors.New("markov: successor probabilities do not sum to 1.0")

	// ErrMissingTime indicates a query for a time step with no recorded
	// distribution.
	ErrMissingTime = errors.New("markov: no distribution recorded for requested time")

	// ErrUnnormalizedDistribution indicates an initial distribution whose
	// probabilities do not sum to 1.0 within tolerance.
	ErrUnnormalizedDistribution = errors.New("markov: distribution does not sum to 1.0")

	// ErrEmptyDistribution indicates an operation that requires at least
	// one state in the distribution was given none.
	ErrEmptyDistribution = errors.New("markov: distribution has no support")
)

// NonStochasticRowError reports which source state produced a successor
// list whose probabilities did not sum to 1.0, and what they summed to.
type NonStochasticRowError struct {
	// Source is the digest of the state whose successor row failed
	// validation.
	Source digest.Digest
	// Sum is the rounded sum of the successor probabilities actually
	// observed.
	Sum float64
}

func (e *NonStochasticRowError) Error() string {
	return fmt.Sprintf("%v: source=%d sum=%v", ErrNonStochasticRow, e.Source, e.Sum)
}

func (e *NonStochasticRowError) Unwrap() error { return ErrNonStochasticRow }

// MissingTimeError reports which time step was requested and found
// absent from the distribution history.
type MissingTimeError struct{ Time uint64 }

func (e *MissingTimeError) Error() string {
	return fmt.Sprintf("%v: time=%d", ErrMissingTime, e.Time)
}

func (e *MissingTimeError) Unwrap() error { return ErrMissingTime }

// UnnormalizedDistributionError reports the sum actually observed for a
// distribution rejected at construction time.
type UnnormalizedDistributionError struct{ Sum float64 }

func (e *UnnormalizedDistributionError) Error() string {
	return fmt.Sprintf("%v: sum=%v", ErrUnnormalizedDistribution, e.Sum)
}

func (e *UnnormalizedDistributionError) Unwrap() error { return ErrUnnormalizedDistribution }
