// Package metrics holds the Prometheus collectors shared between the
// collection pipeline and the HTTP layer. HTTP-only collectors live with
// their middleware in internal/handler.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal counts finished collection runs by final status. Both the
	// scheduled worker and the HTTP trigger go through RunService.Execute,
	// which records here.
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channelpulse_runs_total",
			Help: "Collection runs completed, by final status.",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "channelpulse_run_duration_seconds",
			Help:    "Duration of full collection runs.",
			Buckets: []float64{30, 60, 120, 300, 600, 1200, 2400, 3600},
		},
	)

	ChannelsCollected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channelpulse_channels_collected_total",
			Help: "Channel collection attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	NotificationsFired = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channelpulse_notifications_total",
			Help: "Notification decisions, by action.",
		},
		[]string{"action"},
	)

	APIFaults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "channelpulse_youtube_faults_total",
			Help: "YouTube API faults, by classified kind.",
		},
		[]string{"kind"},
	)
)
