// Package metrics exposes the server's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ActiveConnections tracks currently open WebSocket connections.
	ActiveConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "chatapp_active_connections",
		Help: "Number of currently open WebSocket connections",
	})

	// FramesIn counts inbound frames by discriminator.
	FramesIn = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chatapp_frames_in_total",
		Help: "Inbound frames by type",
	}, []string{"type"})

	// FanOut counts frames delivered to recipients other than the sender.
	FanOut = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_fanout_frames_total",
		Help: "Frames fanned out to online recipients",
	})

	// StoreErrors counts failed document-store calls.
	StoreErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_store_errors_total",
		Help: "Failed document store operations",
	})

	// BlobErrors counts failed blob-store calls.
	BlobErrors = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chatapp_blob_errors_total",
		Help: "Failed blob store operations",
	})
)
