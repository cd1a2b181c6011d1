package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	fanoutNotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dispatch_fanout_notifications_total",
		Help: "Push notifications sent during dispatch fan-out, by result.",
	}, []string{"result"})

	fanoutCandidates = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "dispatch_fanout_candidates",
		Help:    "Number of available couriers notified per dispatched delivery.",
		Buckets: []float64{0, 1, 2, 5, 10, 20, 50},
	})
)
