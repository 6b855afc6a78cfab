package httpgin

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/booking"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/catalog"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/feedback"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/notifications"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/orders"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/payments"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/points"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/users"
)

type errorMapping struct {
	target error
	status int
}

// errorStatuses is checked in order; the first sentinel matched wins.
var errorStatuses = []errorMapping{
	// 404
	{users.ErrUserNotFound, http.StatusNotFound},
	{points.ErrUserNotFound, http.StatusNotFound},
	{catalog.ErrRouteNotFound, http.StatusNotFound},
	{catalog.ErrTripNotFound, http.StatusNotFound},
	{catalog.ErrMerchandiseNotFound, http.StatusNotFound},
	{booking.ErrTripNotFound, http.StatusNotFound},
	{booking.ErrTicketNotFound, http.StatusNotFound},
	{orders.ErrOrderNotFound, http.StatusNotFound},
	{orders.ErrItemNotFound, http.StatusNotFound},
	{orders.ErrItemNotInCart, http.StatusNotFound},
	{payments.ErrPaymentNotFound, http.StatusNotFound},
	{payments.ErrTicketNotFound, http.StatusNotFound},
	{feedback.ErrFeedbackNotFound, http.StatusNotFound},
	{notifications.ErrNotificationNotFound, http.StatusNotFound},

	// 401
	{users.ErrInvalidCredentials, http.StatusUnauthorized},

	// 402
	{booking.ErrPaymentRequired, http.StatusPaymentRequired},

	// 409
	{users.ErrEmailTaken, http.StatusConflict},
	{catalog.ErrRouteConflict, http.StatusConflict},
	{catalog.ErrRouteInactive, http.StatusConflict},
	{catalog.ErrOutOfStock, http.StatusConflict},
	{booking.ErrRouteInactive, http.StatusConflict},
	{booking.ErrTripMismatch, http.StatusConflict},
	{booking.ErrTripDeparted, http.StatusConflict},
	{booking.ErrNoSeats, http.StatusConflict},
	{booking.ErrTicketNotCancellable, http.StatusConflict},
	{domain.ErrWizardStep, http.StatusConflict},
	{orders.ErrOrderNotCancellable, http.StatusConflict},
	{orders.ErrEmptyCart, http.StatusConflict},
	{orders.ErrCartBusy, http.StatusConflict},
	{orders.ErrItemUnavailable, http.StatusConflict},
	{orders.ErrTicketInCart, http.StatusConflict},
	{orders.ErrTicketPaid, http.StatusConflict},
	{orders.ErrOutOfStock, http.StatusConflict},
	{orders.ErrInsufficientPoints, http.StatusConflict},
	{domain.ErrOrderNotOpen, http.StatusConflict},
	{payments.ErrTicketNotBooked, http.StatusConflict},
	{payments.ErrAlreadyPaid, http.StatusConflict},
	{payments.ErrNotRefundable, http.StatusConflict},
	{points.ErrInsufficientPoints, http.StatusConflict},

	// 400
	{users.ErrMissingField, http.StatusBadRequest},
	{domain.ErrValidation, http.StatusBadRequest},
	{payments.ErrAmountMismatch, http.StatusBadRequest},
	{payments.ErrRefundExceeds, http.StatusBadRequest},
	{points.ErrInvalidAmount, http.StatusBadRequest},
}

func statusFor(err error) int {
	for _, m := range errorStatuses {
		if errors.Is(err, m.target) {
			return m.status
		}
	}
	return http.StatusInternalServerError
}

// respondErr writes err as an ErrorResponse. Unknown errors become a 500 with a
// generic message; the detail goes to the request log only.
func respondErr(c *gin.Context, err error) {
	if err == nil {
		c.Status(http.StatusNoContent)
		return
	}

	var rl users.RateLimitedError
	if errors.As(err, &rl) {
		secs := int(math.Ceil(rl.RetryAfter.Seconds()))
		if secs < 1 {
			secs = 1
		}
		c.Header("Retry-After", strconv.Itoa(secs))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: users.ErrRateLimited.Error()})
		return
	}

	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		c.JSON(status, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(status, ErrorResponse{Error: publicMessage(err)})
}

// publicMessage strips the op prefixes added on the way up so clients see the
// innermost message only.
func publicMessage(err error) string {
	var fe *domain.FieldError
	if errors.As(err, &fe) {
		return fe.Error()
	}

	for _, m := range errorStatuses {
		if errors.Is(err, m.target) {
			return m.target.Error()
		}
	}

	return err.Error()
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Error: msg})
}
