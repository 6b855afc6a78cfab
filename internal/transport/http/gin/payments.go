package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/payments"
)

// @Summary  Pay for a booked ticket (idempotent)
// @Param    req  body  ProcessPaymentRequest  true  "payload"
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  domain.Payment
// @Failure  400  {object}  ErrorResponse  "amount mismatch / bad method"
// @Failure  409  {object}  ErrorResponse  "already paid / idem in progress"
// @Router   /api/process-payment [post]
func handleProcessPayment(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ProcessPaymentRequest
		if !bindJSON(c, &req) {
			return
		}

		idempotent(c, idem, "pay", req.UserID, func() (any, error) {
			return svcs.Payments.Process(c.Request.Context(), payments.ProcessInput{
				UserID:   req.UserID,
				TicketID: req.TicketID,
				Amount:   req.Amount,
				Method:   req.Method,
			})
		})
	}
}

// @Summary  Get payment
// @Param    id  path  string  true  "Payment ID"
// @Success  200  {object}  domain.Payment
// @Failure  404  {object}  ErrorResponse
// @Router   /api/payments/{id} [get]
func handleGetPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		p, err := svcs.Payments.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

// @Summary  List user's payments
// @Param    id  path  string  true  "User ID"
// @Success  200  {array}  domain.Payment
// @Router   /api/users/{id}/payments [get]
func handleListPayments(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Payments.ListByUser(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Refund a completed payment
// @Param    id   path  string         true  "Payment ID"
// @Param    req  body  RefundRequest  true  "payload"
// @Success  200  {object}  domain.Payment
// @Failure  400  {object}  ErrorResponse  "exceeds remaining"
// @Failure  409  {object}  ErrorResponse  "not refundable"
// @Router   /admin/payments/{id}/refund [post]
func handleRefundPayment(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req RefundRequest
		if !bindJSON(c, &req) {
			return
		}
		p, err := svcs.Payments.Refund(c.Request.Context(), id, req.Amount)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}
