// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Daco Labs

// Package metrics provides Prometheus metrics for schema conversions.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dacolabs/usdl/internal/usdl"
)

// Operation labels.
const (
	OpParse   = "parse"
	OpRender  = "render"
	OpConvert = "convert"
)

// StatusOK labels a conversion that succeeded. Failures are labelled with the
// error kind name, e.g. "ConstraintViolation".
const StatusOK = "ok"

// Collector holds all Prometheus metrics for usdl.
type Collector struct {
	// Conversion metrics
	ConversionsTotal   *prometheus.CounterVec
	ConversionDuration *prometheus.HistogramVec

	// HTTP metrics
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge
}

// NewWithRegistry creates a collector registered with reg. Tests use a fresh
// prometheus.NewRegistry to avoid global state.
func NewWithRegistry(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		ConversionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "usdl",
				Name:      "conversions_total",
				Help:      "Total number of schema parse, render and convert operations",
			},
			[]string{"operation", "format", "status"},
		),
		ConversionDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "usdl",
				Name:      "conversion_duration_seconds",
				Help:      "Schema operation duration in seconds",
				Buckets:   []float64{.0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "format"},
		),
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "usdl",
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests processed",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "usdl",
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
			},
			[]string{"method", "route"},
		),
		RequestsInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "usdl",
				Name:      "http_requests_in_flight",
				Help:      "Number of HTTP requests currently being processed",
			},
		),
	}
}

// Status returns the status label for err.
func Status(err error) string {
	if err == nil {
		return StatusOK
	}
	if name := usdl.KindName(err); name != "" {
		return name
	}
	return "Error"
}

// ObserveConversion records one operation on format f that started at start.
// For conversions f is the target format.
func (c *Collector) ObserveConversion(op string, f usdl.Format, start time.Time, err error) {
	if c == nil {
		return
	}
	c.ConversionsTotal.WithLabelValues(op, f.String(), Status(err)).Inc()
	c.ConversionDuration.WithLabelValues(op, f.String()).Observe(time.Since(start).Seconds())
}
