// Package tracing provides optional OpenTelemetry instrumentation for
// the engine, implemented as an engine.StepObserver hook.
package tracing

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OTelObserver implements engine.StepObserver, wrapping each NextStep
// in a span named "markov.step" and recording cache hit/miss counts
// as span attributes at step end.
type OTelObserver struct {
	ctx        context.Context
	tracerName string

	mu      sync.Mutex
	spans   map[uint64]trace.Span
	hits    map[uint64]int
	misses  map[uint64]int
	current uint64
}

// NewOTelObserver creates an OTelObserver. ctx is the base context
// spans are started from (typically context.Background(), since
// NextStep's own context is not threaded into observer callbacks);
// tracerName identifies the tracer in exported spans.
func NewOTelObserver(ctx context.Context, tracerName string) *OTelObserver {
	return &OTelObserver{
		ctx:        ctx,
		tracerName: tracerName,
		spans:      make(map[uint64]trace.Span),
		hits:       make(map[uint64]int),
		misses:     make(map[uint64]int),
	}
}

// BeforeStep implements engine.StepObserver, starting a span for time t.
func (o *OTelObserver) BeforeStep(t uint64) {
	tracer := otel.Tracer(o.tracerName)
	_, span := tracer.Start(o.ctx, "markov.step", trace.WithAttributes(
		attribute.Int64("markov.time", int64(t)),
	))

	o.mu.Lock()
	o.spans[t] = span
	o.current = t
	o.mu.Unlock()
}

// AfterStep implements engine.StepObserver, recording cache-event
// counts and the step outcome, then ending the span.
func (o *OTelObserver) AfterStep(t uint64, err error) {
	o.mu.Lock()
	span, ok := o.spans[t]
	hits, misses := o.hits[t], o.misses[t]
	delete(o.spans, t)
	delete(o.hits, t)
	delete(o.misses, t)
	o.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(
		attribute.Int("markov.cache_hits", hits),
		attribute.Int("markov.cache_misses", misses),
	)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// CacheEvent implements engine.StepObserver, accumulating a hit/miss
// count against the step currently in flight.
func (o *OTelObserver) CacheEvent(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits[o.current]++
	} else {
		o.misses[o.current]++
	}
}
