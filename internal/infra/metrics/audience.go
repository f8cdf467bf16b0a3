package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(audienceSize) }

var audienceSize = prometheus.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "bot_audience_size",
		Help: "Registered users and opted-in users at the last refresh.",
	},
	[]string{"group"}, // 'registered', 'opted_in'
)

func SetAudience(registered, optedIn int) {
	audienceSize.WithLabelValues("registered").Set(float64(registered))
	audienceSize.WithLabelValues("opted_in").Set(float64(optedIn))
}
