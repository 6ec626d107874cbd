package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/devblac/semaphore-cli/internal/group"
)

// Metrics holds Prometheus counters for group lookups.
type Metrics struct {
	registry *prometheus.Registry
	attempts *prometheus.CounterVec
	lookups  *prometheus.CounterVec
	errors   prometheus.Counter
}

// New builds counters on a private registry so repeated construction in tests is safe.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semaphore_cli_source_attempts_total",
			Help: "Total number of source queries by network, tier, and outcome",
		}, []string{"network", "tier", "outcome"}),
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "semaphore_cli_lookups_total",
			Help: "Total number of finished lookups by command, answering tier, and outcome",
		}, []string{"command", "tier", "outcome"}),
		errors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "semaphore_cli_errors_total",
			Help: "Total number of command errors encountered",
		}),
	}
	m.registry.MustRegister(m.attempts, m.lookups, m.errors)
	return m
}

// Observe counts one tier attempt. It matches group.Observer.
func (m *Metrics) Observe(network string, a group.Attempt) {
	if m != nil {
		m.attempts.WithLabelValues(network, a.Tier.String(), a.Outcome.String()).Inc()
	}
}

// Lookup counts a finished lookup.
func (m *Metrics) Lookup(command string, tier group.Tier, outcome group.Outcome) {
	if m != nil {
		m.lookups.WithLabelValues(command, tier.String(), outcome.String()).Inc()
	}
}

// Errors increments the errors counter.
func (m *Metrics) Errors() {
	if m != nil {
		m.errors.Inc()
	}
}

// WriteTextfile writes the counters in the node exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
