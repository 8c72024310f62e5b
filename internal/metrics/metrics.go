// Package metrics holds the development backend's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ReadingsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fridge",
		Subsystem: "backend",
		Name:      "readings_inserted_total",
		Help:      "Total readings stored, by source (api or simulator).",
	}, []string{"source"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fridge",
		Subsystem: "backend",
		Name:      "http_requests_total",
		Help:      "Total HTTP requests, by route and status code.",
	}, []string{"route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fridge",
		Subsystem: "backend",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds, by route.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route"})

	WSConnectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "fridge",
		Subsystem: "backend",
		Name:      "ws_connections_active",
		Help:      "Number of active live-feed WebSocket connections.",
	})

	HubDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fridge",
		Subsystem: "backend",
		Name:      "hub_dropped_total",
		Help:      "Readings dropped because a live subscriber fell behind.",
	})
)

// Source labels for ReadingsInserted.
const (
	SourceAPI       = "api"
	SourceSimulator = "simulator"
)
