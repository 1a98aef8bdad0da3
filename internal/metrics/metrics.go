// Package metrics exposes Prometheus instrumentation for the registry.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Operation outcome labels. The registry's public contract never surfaces
// store errors, so the counter is the only place the causes stay visible.
const (
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeStoreError = "store_error"
)

// Registry holds the metric collectors for registry operations.
type Registry struct {
	operations  *prometheus.CounterVec
	auditDrops  prometheus.Counter
	shareResolv *prometheus.CounterVec
}

// New creates the collectors and registers them with the given registerer.
func New(reg prometheus.Registerer) *Registry {
	m := &Registry{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credregistry_operations_total",
			Help: "Registry operations by operation name and outcome.",
		}, []string{"operation", "outcome"}),
		auditDrops: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "credregistry_audit_writes_dropped_total",
			Help: "Audit entries lost to store failures (writes are best-effort).",
		}),
		shareResolv: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "credregistry_share_resolutions_total",
			Help: "Share token resolutions by outcome (hit or miss; misses fold expired and unknown together).",
		}, []string{"outcome"}),
	}

	reg.MustRegister(m.operations, m.auditDrops, m.shareResolv)
	return m
}

// NewUnregistered creates collectors without registering them, for tests.
func NewUnregistered() *Registry {
	return New(prometheus.NewRegistry())
}

// Operation records one registry operation with its outcome.
func (m *Registry) Operation(name, outcome string) {
	m.operations.WithLabelValues(name, outcome).Inc()
}

// AuditDropped records a lost audit write.
func (m *Registry) AuditDropped() {
	m.auditDrops.Inc()
}

// ShareResolution records a share redemption attempt.
func (m *Registry) ShareResolution(hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.shareResolv.WithLabelValues(outcome).Inc()
}
