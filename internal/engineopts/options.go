// Package engineopts validates the small set of runtime knobs the
// engine exposes: worker-pool concurrency and the numeric tolerance
// used for distribution-sum checks. It carries no file-based
// configuration loading — the engine itself takes none — only the
// struct-tag validation half of a config-struct pattern.
package engineopts

import "github.com/go-playground/validator/v10"

// Options configures an Engine's runtime behavior.
type Options struct {
	// ConcurrencyLimit bounds the worker pool used for the parallel
	// batch-generator evaluation and the stepper's parallel regions.
	// Zero means "use the package default" (runtime.NumCPU()*2).
	ConcurrencyLimit int `validate:"omitempty,min=1,max=100000"`

	// SumTolerance is the absolute tolerance applied when checking that
	// a distribution's probabilities sum to 1.0. Zero means "use the
	// default, 1e-10".
	SumTolerance float64 `validate:"omitempty,min=0,max=1e-3"`
}

var validate = validator.New()

// Validate checks o against its struct tags, returning a
// validator.ValidationErrors value listing every field that is out of
// range, or nil.
func (o Options) Validate() error {
	return validate.Struct(o)
}

// DefaultSumTolerance is applied when Options.SumTolerance is zero.
const DefaultSumTolerance = 1e-10

// Tolerance returns o's configured sum tolerance, or the default.
func (o Options) Tolerance() float64 {
	if o.SumTolerance > 0 {
		return o.SumTolerance
	}
	return DefaultSumTolerance
}
