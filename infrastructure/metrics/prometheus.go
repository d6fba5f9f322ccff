// Package metrics provides optional Prometheus instrumentation for the
// engine, implemented as an engine.StepObserver hook — the engine
// itself never imports this package.
package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// PrometheusObserver implements engine.StepObserver, recording step
// latency, cache hit/miss counts, and step outcome counts in
// Prometheus. The chain label identifies which engine instance a set
// of metrics belongs to when a process runs more than one.
type PrometheusObserver struct {
	chain string

	stepLatency *prometheus.HistogramVec
	stepsTotal  *prometheus.CounterVec
	cacheEvents *prometheus.CounterVec

	mu      sync.Mutex
	started map[uint64]time.Time
}

// NewPrometheusObserver creates a PrometheusObserver and registers its
// metrics in the global Prometheus registry. chain labels every metric
// this observer records.
func NewPrometheusObserver(chain string) *PrometheusObserver {
	return &PrometheusObserver{
		chain:   chain,
		started: make(map[uint64]time.Time),
		stepLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "markov_step_duration_seconds",
				Help:    "Duration of a single NextStep call.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"chain"},
		),
		stepsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markov_steps_total",
				Help: "Total number of NextStep invocations, by outcome.",
			},
			[]string{"chain", "outcome"},
		),
		cacheEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markov_cache_events_total",
				Help: "Total memoized-generator lookups, by hit or miss.",
			},
			[]string{"chain", "event"},
		),
	}
}

// BeforeStep implements engine.StepObserver, recording the step's start
// time so AfterStep can compute its duration.
func (p *PrometheusObserver) BeforeStep(t uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.started[t] = time.Now()
}

// AfterStep implements engine.StepObserver, recording step latency and
// the outcome counter.
func (p *PrometheusObserver) AfterStep(t uint64, err error) {
	p.mu.Lock()
	start, ok := p.started[t]
	delete(p.started, t)
	p.mu.Unlock()

	if ok {
		p.stepLatency.WithLabelValues(p.chain).Observe(time.Since(start).Seconds())
	}

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	p.stepsTotal.WithLabelValues(p.chain, outcome).Inc()
}

// CacheEvent implements engine.StepObserver, incrementing the hit or
// miss counter.
func (p *PrometheusObserver) CacheEvent(hit bool) {
	event := "miss"
	if hit {
		event = "hit"
	}
	p.cacheEvents.WithLabelValues(p.chain, event).Inc()
}
