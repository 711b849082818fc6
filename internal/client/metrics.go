package client

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/fivetwenty-io/delivery-client/internal/constants"
	"github.com/fivetwenty-io/delivery-client/pkg/cda"
)

// fetchMetrics counts the requests a session makes. A nil *fetchMetrics
// records nothing.
type fetchMetrics struct {
	fetches   *prometheus.CounterVec
	lazyLoads prometheus.Counter
}

func newFetchMetrics(reg prometheus.Registerer, session string) (*fetchMetrics, error) {
	labels := prometheus.Labels{"session": session}

	m := &fetchMetrics{
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "session",
			Name:        "fetches_total",
			ConstLabels: labels,
			Help:        "Total number of API fetches by resource type and kind",
		}, []string{"type", "kind"}),
		lazyLoads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   constants.MetricsNamespace,
			Subsystem:   "session",
			Name:        "lazy_loads_total",
			ConstLabels: labels,
			Help:        "Total number of link dereferences that reached the session",
		}),
	}

	for _, collector := range []prometheus.Collector{m.fetches, m.lazyLoads} {
		err := reg.Register(collector)
		if err != nil {
			return nil, fmt.Errorf("registering session metrics: %w", err)
		}
	}

	return m, nil
}

func (m *fetchMetrics) recordFetch(resourceType cda.ResourceType, kind string) {
	if m != nil {
		m.fetches.WithLabelValues(string(resourceType), kind).Inc()
	}
}

func (m *fetchMetrics) recordLazyLoad() {
	if m != nil {
		m.lazyLoads.Inc()
	}
}
