package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() { register(engagementClicksTotal) }

var engagementClicksTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "engagement_clicks_total",
		Help: "Button clicks by label and whether they created a new record.",
	},
	[]string{"label", "result"}, // result: 'new', 'duplicate'
)

func IncEngagementClick(label string, created bool) {
	result := "duplicate"
	if created {
		result = "new"
	}
	engagementClicksTotal.WithLabelValues(norm(label), result).Inc()
}
