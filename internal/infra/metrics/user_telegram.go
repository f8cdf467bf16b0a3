package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(
		usersRegisteredTotal,
		telegramUpdatesTotal,
		telegramRateLimitTriggeredTotal,
		telegramSendErrorsTotal,
	)
}

var (
	usersRegisteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "users_registered_total",
			Help: "Total number of new users registered.",
		},
	)

	telegramUpdatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_updates_received_total",
			Help: "Counts incoming updates by kind and command/callback name.",
		},
		[]string{"kind", "name"}, // kind: 'command', 'callback', 'message'
	)

	telegramRateLimitTriggeredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "telegram_rate_limit_triggered_total",
			Help: "Total number of times users have been rate-limited.",
		},
	)

	telegramSendErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telegram_send_errors_total",
			Help: "Outbound Telegram calls that failed, by method.",
		},
		[]string{"method"},
	)
)

func IncUsersRegistered() {
	usersRegisteredTotal.Inc()
}

func IncTelegramUpdate(kind, name string) {
	telegramUpdatesTotal.WithLabelValues(norm(kind), norm(name)).Inc()
}

func IncRateLimitTriggered() {
	telegramRateLimitTriggeredTotal.Inc()
}

func IncSendError(method string) {
	telegramSendErrorsTotal.WithLabelValues(norm(method)).Inc()
}
