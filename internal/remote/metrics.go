package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// metrics holds the prometheus collectors of one Surface.
//
// Metrics:
//   - dawctl_osc_sent_total{command} - messages sent to the DAW
//   - dawctl_osc_received_total - feedback messages received
//   - dawctl_osc_matched_total - replies that completed a request
//   - dawctl_osc_unmatched_total - feedback nobody waited for
//   - dawctl_osc_timeouts_total{command} - requests without a reply in time
//   - dawctl_osc_reply_latency_seconds{command} - time from send to reply
type metrics struct {
	sent      *prometheus.CounterVec
	received  prometheus.Counter
	matched   prometheus.Counter
	unmatched prometheus.Counter
	timeouts  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
}

// newMetrics registers the collectors with reg. A nil reg leaves them unregistered.
func newMetrics(reg prometheus.Registerer) *metrics {
	f := promauto.With(reg)
	return &metrics{
		sent: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dawctl",
			Subsystem: "osc",
			Name:      "sent_total",
			Help:      "Total number of OSC messages sent to the DAW",
		}, []string{"command"}),
		received: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dawctl",
			Subsystem: "osc",
			Name:      "received_total",
			Help:      "Total number of OSC feedback messages received",
		}),
		matched: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dawctl",
			Subsystem: "osc",
			Name:      "matched_total",
			Help:      "Total number of feedback messages that completed a request",
		}),
		unmatched: f.NewCounter(prometheus.CounterOpts{
			Namespace: "dawctl",
			Subsystem: "osc",
			Name:      "unmatched_total",
			Help:      "Total number of feedback messages no request waited for",
		}),
		timeouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "dawctl",
			Subsystem: "osc",
			Name:      "timeouts_total",
			Help:      "Total number of requests that got no reply in time",
		}, []string{"command"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "dawctl",
			Subsystem: "osc",
			Name:      "reply_latency_seconds",
			Help:      "Time from sending a request to receiving its reply",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 14), // 0.5ms to ~4s
		}, []string{"command"}),
	}
}
