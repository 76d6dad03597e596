// Package metrics wires the acceptor's occupancy and throughput counters
// to Prometheus, generalizing the teacher's buffer_pool_prometheus.go
// (a build-tag-gated pool-metrics file) into an always-on, injectable
// registry rather than a package-global build tag.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry holds the acceptor's Prometheus collectors. A nil *Registry
// receiver is valid everywhere below (methods no-op), so callers that
// don't want metrics can simply pass nil to server.Config.
type Registry struct {
	connectionsAccepted prometheus.Counter
	connectionsActive   prometheus.Gauge
	requestsServed      prometheus.Counter
}

// NewRegistry registers its collectors against reg, or against the
// default global registry if reg is nil. Pass a fresh
// prometheus.NewRegistry() in tests to avoid collisions across runs.
func NewRegistry(reg prometheus.Registerer) *Registry {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	r := &Registry{
		connectionsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "server",
			Name:      "connections_accepted_total",
			Help:      "Total number of connections accepted by the worker pool.",
		}),
		connectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "httpcore",
			Subsystem: "server",
			Name:      "connections_active",
			Help:      "Number of connections currently occupying a worker-pool slot.",
		}),
		requestsServed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "httpcore",
			Subsystem: "server",
			Name:      "requests_served_total",
			Help:      "Total number of requests dispatched to a handler.",
		}),
	}
	reg.MustRegister(r.connectionsAccepted, r.connectionsActive, r.requestsServed)
	return r
}

func (r *Registry) ConnectionAccepted() {
	if r == nil {
		return
	}
	r.connectionsAccepted.Inc()
	r.connectionsActive.Inc()
}

func (r *Registry) ConnectionClosed() {
	if r == nil {
		return
	}
	r.connectionsActive.Dec()
}

func (r *Registry) RequestServed() {
	if r == nil {
		return
	}
	r.requestsServed.Inc()
}
