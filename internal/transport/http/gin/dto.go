package httpgin

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
)

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateProfileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

type BookTicketRequest struct {
	UserID      uuid.UUID `json:"user_id" binding:"required"`
	TripID      uuid.UUID `json:"trip_id" binding:"required"`
	Origin      string    `json:"origin" binding:"required"`
	Destination string    `json:"destination" binding:"required"`
	TravelDate  string    `json:"travel_date"`
	Passengers  int       `json:"passengers" binding:"required,gt=0"`
}

type ProcessPaymentRequest struct {
	UserID   uuid.UUID            `json:"user_id" binding:"required"`
	TicketID uuid.UUID            `json:"ticket_id" binding:"required"`
	Amount   decimal.Decimal      `json:"amount"`
	Method   domain.PaymentMethod `json:"method" binding:"required"`
}

type RefundRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

type SelectStationsRequest struct {
	Origin      string `json:"origin" binding:"required"`
	Destination string `json:"destination" binding:"required"`
	TravelDate  string `json:"travel_date" binding:"required"`
}

type SelectTripRequest struct {
	TripID uuid.UUID `json:"trip_id" binding:"required"`
}

type SetPassengersRequest struct {
	Passengers int `json:"passengers" binding:"required"`
}

type AddCartItemRequest struct {
	ItemType domain.ItemType `json:"item_type" binding:"required"`
	ItemID   uuid.UUID       `json:"item_id" binding:"required"`
	Quantity int             `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int `json:"quantity" binding:"gte=0"`
}

type ApplyPointsRequest struct {
	Points int64 `json:"points" binding:"gte=0"`
}

type CheckoutRequest struct {
	Method domain.PaymentMethod `json:"method" binding:"required"`
}

type SubmitFeedbackRequest struct {
	UserID   uuid.UUID `json:"user_id" binding:"required"`
	Subject  string    `json:"subject"`
	Message  string    `json:"message"`
	Rating   int       `json:"rating"`
	Category string    `json:"category"`
}

type UpdateFeedbackStatusRequest struct {
	Status domain.FeedbackStatus `json:"status" binding:"required"`
}

type CreateRouteRequest struct {
	StartLocation string          `json:"start_location" binding:"required"`
	EndLocation   string          `json:"end_location" binding:"required"`
	DistanceKm    float64         `json:"distance_km"`
	DurationMin   int             `json:"duration_min"`
	Fare          decimal.Decimal `json:"fare"`
}

type SetRouteActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type CreateTripRequest struct {
	RouteID   uuid.UUID `json:"route_id" binding:"required"`
	DepartsAt string    `json:"departs_at" binding:"required"`
	Seats     int       `json:"seats" binding:"required,gt=0"`
}

type CreateMerchandiseRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock" binding:"gte=0"`
}

type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

type AdjustPointsRequest struct {
	Delta  int64  `json:"delta" binding:"required"`
	Reason string `json:"reason" binding:"required"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type BookDraftResponse struct {
	Ticket *domain.Ticket       `json:"ticket"`
	Draft  *domain.BookingDraft `json:"draft"`
}

type PointsBalanceResponse struct {
	UserID  uuid.UUID `json:"user_id"`
	Balance int64     `json:"balance"`
}

type UnreadCountResponse struct {
	Unread int64 `json:"unread"`
}

type MarkAllReadResponse struct {
	Updated int64 `json:"updated"`
}

func parseRFC3339(s string) (time.Time, error) {
	return time.Parse(time.RFC3339, s)
}
