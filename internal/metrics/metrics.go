// Package metrics exposes the Prometheus collectors of the flock server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Simulation metrics
	StepDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flock_step_duration_seconds",
			Help:    "Duration of one simulation step in seconds",
			Buckets: []float64{0.0005, 0.001, 0.002, 0.004, 0.008, 0.016, 0.033, 0.066, 0.1},
		},
		[]string{"algorithm"}, // algorithm: quadtree, grid, direct
	)

	FramesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flock_frames_total",
			Help: "Total number of snapshots received from the world",
		},
	)

	FlockSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flock_boids",
			Help: "Number of boids in the flock",
		},
	)

	Paused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flock_paused",
			Help: "1 while the world is paused",
		},
	)

	// Quadtree metrics
	TreeNodes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flock_quadtree_nodes",
			Help: "Number of nodes of the last quadtree",
		},
	)

	TreeDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flock_quadtree_depth",
			Help: "Depth of the deepest node of the last quadtree",
		},
	)

	// WebSocket metrics
	WebSocketConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "flock_websocket_connections",
			Help: "Number of connected WebSocket clients",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "flock_websocket_messages_sent_total",
			Help: "Total number of snapshot messages queued for WebSocket clients",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flock_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"route", "status"},
	)
)
