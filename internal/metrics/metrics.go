// Package metrics exposes Prometheus instrumentation for the relay.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RelayTotal counts relay requests by final outcome (ok, validation,
	// auth, rate_limited, dispatch, provider, internal).
	RelayTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pushgate_relay_total",
		Help: "Total number of relay requests processed",
	}, []string{"outcome"})

	// DispatchDuration tracks outbound provider call latency.
	DispatchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pushgate_dispatch_duration_seconds",
		Help:    "Histogram of outbound provider request duration",
		Buckets: prometheus.DefBuckets,
	})
)
