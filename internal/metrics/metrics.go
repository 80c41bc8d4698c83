// Package metrics exposes Prometheus collectors for generation requests.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "roomdream"

// Outcome labels.
const (
	OutcomeSucceeded = "succeeded"
)

// Collector records generation outcomes. A nil *Collector records nothing.
type Collector struct {
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	polls       prometheus.Histogram
	listings    prometheus.Counter
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Collector {
	c := &Collector{
		generations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generations_total",
			Help:      "Number of generation requests by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_duration_seconds",
			Help:      "Time spent handling a generation request.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		}, []string{"outcome"}),
		polls: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "generation_poll_attempts",
			Help:      "Status checks needed before a job reached a terminal state.",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}),
		listings: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_total",
			Help:      "Number of design history listings served.",
		}),
	}
	reg.MustRegister(c.generations, c.duration, c.polls, c.listings)
	return c
}

// ObserveGeneration records one finished generation request.
func (c *Collector) ObserveGeneration(outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.generations.WithLabelValues(outcome).Inc()
	c.duration.WithLabelValues(outcome).Observe(d.Seconds())
}

// ObservePollAttempts records how many status checks a job took.
func (c *Collector) ObservePollAttempts(n int) {
	if c == nil {
		return
	}
	c.polls.Observe(float64(n))
}

// IncListings counts one listing.
func (c *Collector) IncListings() {
	if c == nil {
		return
	}
	c.listings.Inc()
}

// Generations returns the counter for outcome, for tests.
func (c *Collector) Generations(outcome string) prometheus.Counter {
	return c.generations.WithLabelValues(outcome)
}
