package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/booking"
)

// @Summary  Book a ticket (idempotent)
// @Param    req  body  BookTicketRequest  true  "payload"
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  domain.Ticket
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "no seats / trip mismatch / idem in progress"
// @Router   /api/book-ticket [post]
func handleBookTicket(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req BookTicketRequest
		if !bindJSON(c, &req) {
			return
		}

		idempotent(c, idem, "book", req.UserID, func() (any, error) {
			return svcs.Booking.BookTicket(c.Request.Context(), booking.BookTicketInput{
				UserID:      req.UserID,
				TripID:      req.TripID,
				Origin:      req.Origin,
				Destination: req.Destination,
				TravelDate:  req.TravelDate,
				Passengers:  req.Passengers,
			})
		})
	}
}

// @Summary  List user's tickets
// @Param    id  path  string  true  "User ID"
// @Success  200  {array}  domain.Ticket
// @Router   /api/users/{id}/tickets [get]
func handleListTickets(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		tickets, err := svcs.Booking.ListTickets(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, tickets)
	}
}

// @Summary  Get ticket
// @Param    id        path  string  true  "User ID"
// @Param    ticketId  path  string  true  "Ticket ID"
// @Success  200  {object}  domain.Ticket
// @Failure  404  {object}  ErrorResponse
// @Router   /api/users/{id}/tickets/{ticketId} [get]
func handleGetTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		ticketID, ok := parseUUIDParam(c, "ticketId")
		if !ok {
			return
		}
		t, err := svcs.Booking.GetTicket(c.Request.Context(), userID, ticketID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Cancel ticket and refund per cancellation window
// @Param    id        path  string  true  "User ID"
// @Param    ticketId  path  string  true  "Ticket ID"
// @Success  200  {object}  booking.CancelResult
// @Failure  409  {object}  ErrorResponse  "not cancellable"
// @Router   /api/users/{id}/tickets/{ticketId}/cancel [post]
func handleCancelTicket(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		ticketID, ok := parseUUIDParam(c, "ticketId")
		if !ok {
			return
		}
		res, err := svcs.Booking.CancelTicket(c.Request.Context(), userID, ticketID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, res)
	}
}

// @Summary  Mark tickets of departed trips as used
// @Success  200  {object}  map[string]int64
// @Router   /admin/tickets/sweep [post]
func handleSweepDeparted(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := svcs.Booking.MarkDeparted(c.Request.Context())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"updated": n})
	}
}

// --- Booking wizard ---

// @Summary  Current booking draft
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  domain.BookingDraft
// @Router   /api/users/{id}/booking [get]
func handleGetDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		d, err := svcs.Booking.GetDraft(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Wizard step 1: stations and date
// @Param    id   path  string                 true  "User ID"
// @Param    req  body  SelectStationsRequest  true  "payload"
// @Success  200  {object}  domain.BookingDraft
// @Failure  409  {object}  ErrorResponse  "step out of order"
// @Router   /api/users/{id}/booking/stations [post]
func handleSelectStations(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SelectStationsRequest
		if !bindJSON(c, &req) {
			return
		}
		d, err := svcs.Booking.SelectStations(c.Request.Context(), userID, req.Origin, req.Destination, req.TravelDate)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Wizard step 2: trip
// @Param    id   path  string             true  "User ID"
// @Param    req  body  SelectTripRequest  true  "payload"
// @Success  200  {object}  domain.BookingDraft
// @Failure  409  {object}  ErrorResponse  "step out of order"
// @Router   /api/users/{id}/booking/trip [post]
func handleSelectTrip(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SelectTripRequest
		if !bindJSON(c, &req) {
			return
		}
		d, err := svcs.Booking.SelectTrip(c.Request.Context(), userID, req.TripID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Wizard step 3: passengers
// @Param    id   path  string                true  "User ID"
// @Param    req  body  SetPassengersRequest  true  "payload"
// @Success  200  {object}  domain.BookingDraft
// @Failure  409  {object}  ErrorResponse  "step out of order / no seats"
// @Router   /api/users/{id}/booking/passengers [post]
func handleSetPassengers(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SetPassengersRequest
		if !bindJSON(c, &req) {
			return
		}
		d, err := svcs.Booking.SetPassengers(c.Request.Context(), userID, req.Passengers)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, d)
	}
}

// @Summary  Wizard step 4: book the drafted journey
// @Param    id  path  string  true  "User ID"
// @Success  201  {object}  BookDraftResponse
// @Failure  409  {object}  ErrorResponse
// @Router   /api/users/{id}/booking/book [post]
func handleBookDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		t, d, err := svcs.Booking.BookDraft(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, BookDraftResponse{Ticket: t, Draft: d})
	}
}

// @Summary  Wizard step 5: confirm once paid
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  domain.Ticket
// @Failure  402  {object}  ErrorResponse  "ticket not paid"
// @Router   /api/users/{id}/booking/confirm [post]
func handleConfirmDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Booking.ConfirmDraft(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  Abandon the booking draft
// @Param    id  path  string  true  "User ID"
// @Success  204
// @Router   /api/users/{id}/booking [delete]
func handleResetDraft(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		if err := svcs.Booking.ResetDraft(c.Request.Context(), userID); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
