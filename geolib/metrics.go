package geolib

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "geolocator"

// Metrics is a set of prometheus collectors updated by Resolver. A nil
// *Metrics is valid and does nothing.
type Metrics struct {
	Lookups *prometheus.CounterVec
	Cache   *prometheus.CounterVec
	Updates *prometheus.CounterVec
}

func (m *Metrics) lookup(provider string, err error) {
	if m == nil {
		return
	}

	m.Lookups.WithLabelValues(provider, outcome(err)).Inc()
}

func (m *Metrics) cache(hit bool) {
	if m == nil {
		return
	}

	if hit {
		m.Cache.WithLabelValues("hit").Inc()
	} else {
		m.Cache.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) update(provider string, err error) {
	if m == nil {
		return
	}

	m.Updates.WithLabelValues(provider, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "failure"
	}

	return "success"
}

// NewMetrics creates collectors and registers them in a given registry.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	rv := &Metrics{
		Lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "lookups_total",
			Help:      "Number of provider lookups by outcome.",
		}, []string{"provider", "outcome"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "cache_total",
			Help:      "Number of cache lookups by result.",
		}, []string{"result"}),
		Updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "updates_total",
			Help:      "Number of dataset updates by outcome.",
		}, []string{"provider", "outcome"}),
	}

	registerer.MustRegister(rv.Lookups, rv.Cache, rv.Updates)

	return rv
}
