package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// DefaultPointsRate is one point per currency unit spent.
	DefaultPointsRate = decimal.NewFromInt(1)
	// PointValue is the currency value of a single point when redeemed.
	PointValue = decimal.RequireFromString("0.01")
)

var ErrInsufficientPoints = errors.New("insufficient points")

// PointsEarned returns floor(amount * rate). A non-positive rate falls back to
// DefaultPointsRate.
func PointsEarned(amount, rate decimal.Decimal) int64 {
	if !rate.IsPositive() {
		rate = DefaultPointsRate
	}
	if !amount.IsPositive() {
		return 0
	}
	return amount.Mul(rate).Floor().IntPart()
}

func PointsValue(points int64) decimal.Decimal {
	if points <= 0 {
		return decimal.Zero
	}
	return Money(decimal.NewFromInt(points).Mul(PointValue))
}

// PointsCovering is the largest number of points whose value does not exceed amount.
func PointsCovering(amount decimal.Decimal) int64 {
	if !amount.IsPositive() {
		return 0
	}
	return amount.Div(PointValue).Floor().IntPart()
}

// ApplyPointsDelta returns the balance after delta, refusing to go below zero.
func ApplyPointsDelta(balance, delta int64) (int64, error) {
	next := balance + delta
	if next < 0 {
		return balance, ErrInsufficientPoints
	}
	return next, nil
}
