package domain

import (
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/google/uuid"
)

var ErrValidation = errors.New("validation failed")

// FieldError reports a single invalid field. It matches ErrValidation with errors.Is.
type FieldError struct {
	Field  string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *FieldError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, reason string) error {
	return &FieldError{Field: field, Reason: reason}
}

func required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return invalid(field, "is required")
	}
	return nil
}

const MinPasswordLen = 6

func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (u *User) Validate() error {
	for _, f := range []struct{ name, v string }{
		{"name", u.Name},
		{"email", u.Email},
		{"phone", u.Phone},
		{"address", u.Address},
	} {
		if err := required(f.name, f.v); err != nil {
			return err
		}
	}
	if !ValidEmail(u.Email) {
		return invalid("email", "is malformed")
	}
	if u.LoyaltyPoints < 0 {
		return invalid("loyalty_points", "must not be negative")
	}
	return nil
}

func (r *Route) Validate() error {
	if err := required("start_location", r.StartLocation); err != nil {
		return err
	}
	if err := required("end_location", r.EndLocation); err != nil {
		return err
	}
	if strings.EqualFold(r.StartLocation, r.EndLocation) {
		return invalid("end_location", "must differ from start_location")
	}
	if r.DistanceKm <= 0 {
		return invalid("distance_km", "must be positive")
	}
	if r.DurationMin <= 0 {
		return invalid("duration_min", "must be positive")
	}
	if r.Fare.IsNegative() {
		return invalid("fare", "must not be negative")
	}
	return nil
}

func (t *Trip) Validate() error {
	if t.RouteID == uuid.Nil {
		return invalid("route_id", "is required")
	}
	if t.DepartsAt.IsZero() {
		return invalid("departs_at", "is required")
	}
	if !t.ArrivesAt.After(t.DepartsAt) {
		return invalid("arrives_at", "must be after departs_at")
	}
	if t.SeatsTotal <= 0 {
		return invalid("seats_total", "must be positive")
	}
	if t.SeatsAvailable < 0 || t.SeatsAvailable > t.SeatsTotal {
		return invalid("seats_available", "out of range")
	}
	return nil
}

func (t *Ticket) Validate() error {
	if err := required("origin", t.Origin); err != nil {
		return err
	}
	if err := required("destination", t.Destination); err != nil {
		return err
	}
	if t.Passengers < 1 {
		return invalid("passengers", "must be at least 1")
	}
	if t.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	switch t.Status {
	case TicketBooked, TicketCancelled, TicketUsed:
	default:
		return invalid("status", "unknown")
	}
	return nil
}

func (m *Merchandise) Validate() error {
	if err := required("name", m.Name); err != nil {
		return err
	}
	if m.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if m.Stock < 0 {
		return invalid("stock", "must not be negative")
	}
	return nil
}

func (it *OrderItem) Validate() error {
	switch it.ItemType {
	case ItemTicket, ItemMerchandise:
	default:
		return invalid("item_type", "must be ticket or merchandise")
	}
	if it.ItemID == uuid.Nil {
		return invalid("item_id", "is required")
	}
	if it.Quantity < 0 {
		return invalid("quantity", "must not be negative")
	}
	if it.UnitPrice.IsNegative() {
		return invalid("unit_price", "must not be negative")
	}
	return nil
}

func (o *Order) Validate() error {
	if o.UserID == uuid.Nil {
		return invalid("user_id", "is required")
	}
	for i := range o.Items {
		if err := o.Items[i].Validate(); err != nil {
			return err
		}
	}
	if o.Discount.IsNegative() {
		return invalid("discount", "must not be negative")
	}
	return nil
}

func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCard, MethodEWallet, MethodOnlineBanking, MethodPoints:
		return true
	}
	return false
}

func (p *Payment) Validate() error {
	if !p.Method.Valid() {
		return invalid("method", "unsupported payment method")
	}
	// A ticket settled inside an order fully covered by points is paid 0.
	settledByPoints := p.Amount.IsZero() && p.OrderID != nil && p.TicketID != nil
	if !p.Amount.IsPositive() && !settledByPoints {
		return invalid("amount", "must be positive")
	}
	if p.RefundedAmount.IsNegative() || p.RefundedAmount.GreaterThan(p.Amount) {
		return invalid("refunded_amount", "out of range")
	}
	return nil
}

func (f *Feedback) Validate() error {
	if err := required("subject", f.Subject); err != nil {
		return err
	}
	if err := required("message", f.Message); err != nil {
		return err
	}
	if f.Rating < 1 || f.Rating > 5 {
		return invalid("rating", "must be between 1 and 5")
	}
	return nil
}

func (s FeedbackStatus) Valid() bool {
	switch s {
	case FeedbackNew, FeedbackInReview, FeedbackResolved:
		return true
	}
	return false
}

// PriorityForRating maps low ratings to high priority.
func PriorityForRating(rating int) FeedbackPriority {
	switch {
	case rating <= 2:
		return FeedbackHigh
	case rating == 3:
		return FeedbackMedium
	default:
		return FeedbackLow
	}
}

func (n *Notification) Validate() error {
	if n.UserID == uuid.Nil {
		return invalid("user_id", "is required")
	}
	if err := required("title", n.Title); err != nil {
		return err
	}
	if err := required("message", n.Message); err != nil {
		return err
	}
	switch n.Type {
	case NotifyBooking, NotifyPayment, NotifyPromotion, NotifySystem:
	default:
		return invalid("type", "unknown")
	}
	switch n.Priority {
	case PriorityLow, PriorityNormal, PriorityHigh:
	default:
		return invalid("priority", "unknown")
	}
	return nil
}
