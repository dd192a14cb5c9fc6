// Package metrics counts phonebook operations with Prometheus collectors and
// writes them in the node_exporter textfile format.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hongminglow/phonebook/internal/phonebook"
)

var _ phonebook.Observer = (*Collector)(nil)

// Collector implements phonebook.Observer.
type Collector struct {
	gatherer   prometheus.Gatherer
	operations *prometheus.CounterVec
	contacts   prometheus.Gauge
}

// NewCollector registers the phonebook metrics on a fresh registry.
func NewCollector() *Collector {
	reg := prometheus.NewRegistry()
	c := &Collector{
		gatherer: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "phonebook_operations_total",
			Help: "Phonebook operations by operation and outcome.",
		}, []string{"operation", "outcome"}),
		contacts: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "phonebook_contacts",
			Help: "Contacts currently held by the phonebook.",
		}),
	}
	reg.MustRegister(c.operations, c.contacts)
	return c
}

// RecordOperation counts one operation outcome.
func (c *Collector) RecordOperation(op, outcome string) {
	c.operations.WithLabelValues(op, outcome).Inc()
}

// RecordContacts sets the current contact count.
func (c *Collector) RecordContacts(n int) {
	c.contacts.Set(float64(n))
}

// Gatherer exposes the underlying registry.
func (c *Collector) Gatherer() prometheus.Gatherer { return c.gatherer }

// WriteTextfile atomically writes every metric to path.
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.gatherer); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
