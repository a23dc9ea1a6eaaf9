package emergency

import "github.com/prometheus/client_golang/prometheus"

var (
	sweepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodwatch_emergency_sweeps_total",
			Help: "Emergency sweeps by outcome.",
		},
		[]string{"outcome"},
	)

	sweepDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "moodwatch_emergency_sweep_duration_seconds",
			Help:    "Wall time of a full emergency sweep.",
			Buckets: []float64{.05, .1, .5, 1, 5, 10, 30, 60, 300},
		},
	)

	alertsSent = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodwatch_emergency_alerts_sent_total",
			Help: "Emergency notifications accepted by the SMS provider.",
		},
		[]string{"channel"},
	)

	alertSendFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodwatch_emergency_alert_send_failures_total",
			Help: "Emergency notifications the SMS provider rejected or that timed out.",
		},
		[]string{"channel"},
	)

	alertsDeduplicated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "moodwatch_emergency_alerts_deduplicated_total",
			Help: "Emergencies suppressed because the user was already alerted today.",
		},
		[]string{"channel"},
	)
)

func init() {
	prometheus.MustRegister(sweepsTotal, sweepDuration, alertsSent, alertSendFailures, alertsDeduplicated)
}
