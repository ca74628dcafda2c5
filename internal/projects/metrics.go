package projects

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts project fetch outcomes. A nil *Metrics records nothing.
type Metrics struct {
	fetches  *prometheus.CounterVec
	stale    prometheus.Counter
	duration prometheus.Histogram
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "portfolio_project_fetches_total",
				Help: "Project metadata fetches by result.",
			},
			[]string{"result"},
		),
		stale: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "portfolio_project_stale_results_total",
			Help: "Fetch results dropped because the card moved on to another identifier.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "portfolio_project_fetch_duration_seconds",
			Help:    "Latency of project metadata fetches.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(m.fetches, m.stale, m.duration)
	return m
}

func (m *Metrics) observeFetch(ok bool, elapsed time.Duration) {
	if m == nil {
		return
	}
	result := "error"
	if ok {
		result = "loaded"
	}
	m.fetches.WithLabelValues(result).Inc()
	m.duration.Observe(elapsed.Seconds())
}

func (m *Metrics) observeStale() {
	if m == nil {
		return
	}
	m.stale.Inc()
}
