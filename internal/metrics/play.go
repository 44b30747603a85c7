package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	playTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "play_requests_total",
			Help: "Total play requests by result and game",
		},
		[]string{"result", "game"},
	)

	playDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "play_request_duration_ms",
			Help:    "Play request duration in milliseconds",
			Buckets: prometheus.ExponentialBuckets(5, 2, 10),
		},
		[]string{"result", "game"},
	)

	payoutTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "payout_amount_total",
			Help: "Accumulated win amount paid out by game",
		},
		[]string{"game"},
	)
)

// RecordPlay records business metrics for a play call.
// result should be "success" or "fail"; game is normalized to lower-case.
func RecordPlay(result, game string, started time.Time) {
	res := result
	if res != "success" {
		res = "fail"
	}
	g := strings.ToLower(game)
	playTotal.WithLabelValues(res, g).Inc()
	durMs := float64(time.Since(started).Milliseconds())
	playDuration.WithLabelValues(res, g).Observe(durMs)
}

// RecordPayout accumulates the paid-out amount for a settled round.
func RecordPayout(game string, amount float64) {
	if amount <= 0 {
		return
	}
	payoutTotal.WithLabelValues(strings.ToLower(game)).Add(amount)
}
