package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	FullRefundWindow = 48 * time.Hour
	HalfRefundWindow = 24 * time.Hour
)

var (
	refundFull = decimal.NewFromInt(1)
	refundHalf = decimal.RequireFromString("0.5")
)

// RefundPercentage is the fraction of the fare returned when a ticket is
// cancelled untilDeparture before the train leaves.
func RefundPercentage(untilDeparture time.Duration) decimal.Decimal {
	switch {
	case untilDeparture >= FullRefundWindow:
		return refundFull
	case untilDeparture >= HalfRefundWindow:
		return refundHalf
	default:
		return decimal.Zero
	}
}

func RefundAmount(price decimal.Decimal, departure, now time.Time) decimal.Decimal {
	return Money(price.Mul(RefundPercentage(departure.Sub(now))))
}
