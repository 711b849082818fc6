package registry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
)

// Metrics holds Prometheus metrics for one session's registry. A nil
// *Metrics records nothing.
type Metrics struct {
	hits          prometheus.Counter
	misses        prometheus.Counter
	builds        prometheus.Counter
	buildFailures prometheus.Counter
	inProgress    prometheus.Counter
	size          prometheus.Gauge
}

// NewMetrics creates registry metrics labelled with the session id and
// registers them with reg.
func NewMetrics(reg prometheus.Registerer, session string) (*Metrics, error) {
	labels := prometheus.Labels{"session": session}

	m := &Metrics{
		hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "registry",
			Name:        "hits_total",
			ConstLabels: labels,
			Help:        "Total number of identities served from the registry",
		}),
		misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "registry",
			Name:        "misses_total",
			ConstLabels: labels,
			Help:        "Total number of identities that had to be built",
		}),
		builds: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "registry",
			Name:        "builds_total",
			ConstLabels: labels,
			Help:        "Total number of successful builds",
		}),
		buildFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "registry",
			Name:        "build_failures_total",
			ConstLabels: labels,
			Help:        "Total number of failed builds",
		}),
		inProgress: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "registry",
			Name:        "in_progress_total",
			ConstLabels: labels,
			Help:        "Total number of requests for identities still being built (cycles)",
		}),
		size: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "registry",
			Name:        "size",
			ConstLabels: labels,
			Help:        "Current number of registered resources",
		}),
	}

	collectors := []prometheus.Collector{m.hits, m.misses, m.builds, m.buildFailures, m.inProgress, m.size}
	for _, collector := range collectors {
		err := reg.Register(collector)
		if err != nil {
			return nil, fmt.Errorf("registering registry metrics: %w", err)
		}
	}

	return m, nil
}

func (m *Metrics) recordHit() {
	if m != nil {
		m.hits.Inc()
	}
}

func (m *Metrics) recordMiss() {
	if m != nil {
		m.misses.Inc()
	}
}

func (m *Metrics) recordInProgress() {
	if m != nil {
		m.inProgress.Inc()
	}
}

func (m *Metrics) recordBuild(size int) {
	if m != nil {
		m.builds.Inc()
		m.size.Set(float64(size))
	}
}

func (m *Metrics) recordBuildFailure() {
	if m != nil {
		m.buildFailures.Inc()
	}
}
