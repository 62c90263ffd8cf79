// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	StatusUpdatesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "status_updates_total",
			Help: "Total number of project status updates by result",
		},
		[]string{"result"},
	)

	NotificationsDispatched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_dispatched_total",
			Help: "Total number of per-recipient notification attempts",
		},
		[]string{"channel", "status"},
	)

	DispatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "notification_dispatch_duration_seconds",
			Help: "Duration of a single recipient delivery attempt in seconds",
		},
		[]string{"channel"},
	)

	DispatchInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "notification_dispatch_in_flight",
			Help: "Number of delivery attempts currently in flight",
		},
	)
)
