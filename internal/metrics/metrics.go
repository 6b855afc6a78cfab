package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
)

var (
	TicketsBooked = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kart",
		Name:      "tickets_booked_total",
		Help:      "Tickets booked.",
	})

	TicketsCancelled = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kart",
		Name:      "tickets_cancelled_total",
		Help:      "Tickets cancelled, by refund tier.",
	}, []string{"refund"})

	Checkouts = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kart",
		Name:      "checkouts_total",
		Help:      "Cart checkouts, by payment method.",
	}, []string{"method"})

	PaymentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kart",
		Name:      "payments_processed_total",
		Help:      "Ticket payments recorded, by payment method.",
	}, []string{"method"})

	Refunds = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "kart",
		Name:      "refunds_total",
		Help:      "Payments refunded in full or in part.",
	})

	LoginsRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "kart",
		Name:      "logins_rejected_total",
		Help:      "Rejected login attempts, by reason.",
	}, []string{"reason"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "kart",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// RefundTier labels a refund fraction for TicketsCancelled.
func RefundTier(pct decimal.Decimal) string {
	switch {
	case pct.GreaterThanOrEqual(decimal.NewFromInt(1)):
		return "full"
	case pct.IsPositive():
		return "partial"
	default:
		return "none"
	}
}
