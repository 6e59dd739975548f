/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package tablestore

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Operation outcomes recorded by Metrics.
const (
	OutcomeSuccess  = "success"
	OutcomeNotFound = "not_found"
	OutcomeError    = "error"
)

// Metrics holds the Prometheus collectors of the storage layer. A nil *Metrics records nothing.
type Metrics struct {
	operations  *prometheus.CounterVec
	durations   *prometheus.HistogramVec
	rebuilds    *prometheus.CounterVec
	pages       *prometheus.CounterVec
	resolutions *prometheus.CounterVec
}

// NewMetrics registers the collectors with registerer; nil uses the default registerer.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	factory := promauto.With(registerer)

	return &Metrics{
		operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablestore",
				Subsystem: "storage",
				Name:      "operations_total",
				Help:      "Total number of storage operations",
			},
			[]string{"op", "table", "outcome"},
		),
		durations: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "tablestore",
				Subsystem: "storage",
				Name:      "operation_duration_seconds",
				Help:      "Storage operation duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"op", "table"},
		),
		rebuilds: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablestore",
				Subsystem: "client",
				Name:      "rebuilds_total",
				Help:      "Total number of backing-store client builds",
			},
			[]string{"instance"},
		),
		pages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablestore",
				Subsystem: "query",
				Name:      "pages_total",
				Help:      "Total number of query pages fetched",
			},
			[]string{"table"},
		),
		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "tablestore",
				Subsystem: "auth",
				Name:      "resolutions_total",
				Help:      "Total number of connection string resolutions by source",
			},
			[]string{"source"},
		),
	}
}

func (m *Metrics) observe(op, table, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.operations.WithLabelValues(op, table, outcome).Inc()
	m.durations.WithLabelValues(op, table).Observe(time.Since(started).Seconds())
}

func (m *Metrics) rebuilt(instance string) {
	if m == nil {
		return
	}
	m.rebuilds.WithLabelValues(instance).Inc()
}

func (m *Metrics) page(table string) {
	if m == nil {
		return
	}
	m.pages.WithLabelValues(table).Inc()
}

func (m *Metrics) resolved(source string) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(source).Inc()
}
