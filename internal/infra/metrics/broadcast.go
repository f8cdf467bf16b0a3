package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(broadcastsTotal, broadcastDeliveriesTotal, broadcastDuration)
}

var (
	broadcastsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcasts_total",
			Help: "Confirmed broadcasts by media kind.",
		},
		[]string{"kind"},
	)

	broadcastDeliveriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broadcast_deliveries_total",
			Help: "Per-recipient broadcast delivery attempts.",
		},
		[]string{"result"}, // 'success', 'failed'
	)

	broadcastDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "broadcast_duration_seconds",
			Help:    "Wall time of a full broadcast fan-out.",
			Buckets: []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
		},
	)
)

func IncBroadcast(kind string) {
	broadcastsTotal.WithLabelValues(norm(kind)).Inc()
}

func IncBroadcastDelivery(success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	broadcastDeliveriesTotal.WithLabelValues(result).Inc()
}

func ObserveBroadcastDuration(seconds float64) {
	broadcastDuration.Observe(seconds)
}
