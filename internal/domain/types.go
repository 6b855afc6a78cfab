package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ItemType string

const (
	ItemTicket      ItemType = "ticket"
	ItemMerchandise ItemType = "merchandise"
)

type OrderStatus string

const (
	OrderCart      OrderStatus = "cart"
	OrderPending   OrderStatus = "pending"
	OrderPaid      OrderStatus = "paid"
	OrderCancelled OrderStatus = "cancelled"
	OrderRefunded  OrderStatus = "refunded"
)

type PaymentStatus string

const (
	PaymentUnpaid    PaymentStatus = "unpaid"
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentRefunded  PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	MethodCard          PaymentMethod = "card"
	MethodEWallet       PaymentMethod = "ewallet"
	MethodOnlineBanking PaymentMethod = "online_banking"
	MethodPoints        PaymentMethod = "points"
)

type TicketStatus string

const (
	TicketBooked    TicketStatus = "booked"
	TicketCancelled TicketStatus = "cancelled"
	TicketUsed      TicketStatus = "used"
)

type FeedbackStatus string

const (
	FeedbackNew      FeedbackStatus = "new"
	FeedbackInReview FeedbackStatus = "in_review"
	FeedbackResolved FeedbackStatus = "resolved"
)

type FeedbackPriority string

const (
	FeedbackLow    FeedbackPriority = "low"
	FeedbackMedium FeedbackPriority = "medium"
	FeedbackHigh   FeedbackPriority = "high"
)

type NotificationType string

const (
	NotifyBooking   NotificationType = "booking"
	NotifyPayment   NotificationType = "payment"
	NotifyPromotion NotificationType = "promotion"
	NotifySystem    NotificationType = "system"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type PointsKind string

const (
	PointsEarn   PointsKind = "earn"
	PointsRedeem PointsKind = "redeem"
	PointsAdjust PointsKind = "adjust"
)

type User struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Phone            string    `json:"phone"`
	Address          string    `json:"address"`
	LoyaltyPoints    int64     `json:"loyalty_points"`
	RegistrationDate time.Time `json:"registration_date"`
}

type Route struct {
	ID            uuid.UUID       `json:"id"`
	StartLocation string          `json:"start_location"`
	EndLocation   string          `json:"end_location"`
	DistanceKm    float64         `json:"distance_km"`
	DurationMin   int             `json:"duration_min"`
	Fare          decimal.Decimal `json:"fare"`
	Active        bool            `json:"active"`
}

// Trip is one scheduled run of a Route.
type Trip struct {
	ID             uuid.UUID `json:"id"`
	RouteID        uuid.UUID `json:"route_id"`
	DepartsAt      time.Time `json:"departs_at"`
	ArrivesAt      time.Time `json:"arrives_at"`
	SeatsTotal     int       `json:"seats_total"`
	SeatsAvailable int       `json:"seats_available"`
}

type TripListing struct {
	Trip
	Origin      string          `json:"origin"`
	Destination string          `json:"destination"`
	Fare        decimal.Decimal `json:"fare"`
}

type Ticket struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	RouteID       uuid.UUID       `json:"route_id"`
	TripID        uuid.UUID       `json:"trip_id"`
	Origin        string          `json:"origin"`
	Destination   string          `json:"destination"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	Passengers    int             `json:"passengers"`
	Price         decimal.Decimal `json:"price"`
	Status        TicketStatus    `json:"status"`
	BookedAt      time.Time       `json:"booked_at"`
}

type Merchandise struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
}

type Order struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
	PointsRedeemed int64           `json:"points_redeemed"`
	Status         OrderStatus     `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

type OrderItem struct {
	ID        uuid.UUID       `json:"id"`
	OrderID   uuid.UUID       `json:"order_id"`
	ItemType  ItemType        `json:"item_type"`
	ItemID    uuid.UUID       `json:"item_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

type Payment struct {
	ID             uuid.UUID       `json:"id"`
	UserID         uuid.UUID       `json:"user_id"`
	OrderID        *uuid.UUID      `json:"order_id,omitempty"`
	TicketID       *uuid.UUID      `json:"ticket_id,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
	RefundedAmount decimal.Decimal `json:"refunded_amount"`
	Method         PaymentMethod   `json:"method"`
	Status         PaymentStatus   `json:"status"`
	TransactionRef string          `json:"transaction_ref"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Feedback struct {
	ID        uuid.UUID        `json:"id"`
	UserID    uuid.UUID        `json:"user_id"`
	Subject   string           `json:"subject"`
	Message   string           `json:"message"`
	Rating    int              `json:"rating"`
	Category  string           `json:"category"`
	Status    FeedbackStatus   `json:"status"`
	Priority  FeedbackPriority `json:"priority"`
	CreatedAt time.Time        `json:"created_at"`
}

type Notification struct {
	ID        uuid.UUID            `json:"id"`
	UserID    uuid.UUID            `json:"user_id"`
	Type      NotificationType     `json:"type"`
	Priority  NotificationPriority `json:"priority"`
	Title     string               `json:"title"`
	Message   string               `json:"message"`
	Read      bool                 `json:"read"`
	CreatedAt time.Time            `json:"created_at"`
}

// PointsTransaction is one row of a user's points ledger. BalanceAfter is the
// running balance once Points has been applied.
type PointsTransaction struct {
	ID           uuid.UUID  `json:"id"`
	UserID       uuid.UUID  `json:"user_id"`
	Kind         PointsKind `json:"kind"`
	Points       int64      `json:"points"`
	BalanceAfter int64      `json:"balance_after"`
	Reference    string     `json:"reference"`
	Description  string     `json:"description"`
	CreatedAt    time.Time  `json:"created_at"`
}
