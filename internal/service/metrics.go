package service

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the engine's Prometheus collectors. A nil *Metrics records nothing.
type Metrics struct {
	operations    *prometheus.CounterVec
	importRows    *prometheus.CounterVec
	notifications *prometheus.CounterVec
	cacheLookups  *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg. A nil reg builds unregistered collectors.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "housing",
			Name:      "occupancy_operations_total",
			Help:      "Occupancy engine operations by name and outcome.",
		}, []string{"operation", "result"}),
		importRows: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "housing",
			Name:      "bulk_rows_total",
			Help:      "Rows processed by bulk eviction and spreadsheet import.",
		}, []string{"operation", "result"}),
		notifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "housing",
			Name:      "notifications_emitted_total",
			Help:      "Notifications recorded by type.",
		}, []string{"type"}),
		cacheLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "housing",
			Name:      "dashboard_cache_lookups_total",
			Help:      "Dashboard cache lookups by outcome.",
		}, []string{"result"}),
	}
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *Metrics) observeOperation(op string, err error) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) observeRow(op string, err error) {
	if m == nil {
		return
	}
	m.importRows.WithLabelValues(op, outcome(err)).Inc()
}

func (m *Metrics) observeNotification(typ string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(typ).Inc()
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		return
	}
	m.cacheLookups.WithLabelValues("miss").Inc()
}
