package httpgin

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
)

// HealthCheck reports whether a backing store is reachable.
type HealthCheck func(ctx context.Context) error

func NewRouter(
	svcs *service.Services,
	idem *redisrepo.IdempotencyStore,
	logger *slog.Logger,
	checks []HealthCheck,
	middlewares ...gin.HandlerFunc,
) *gin.Engine {
	r := gin.New()

	r.Use(gin.Recovery(), RequestIDMiddleware(), LoggingMiddleware(logger), MetricsMiddleware(), CORS())
	for _, m := range middlewares {
		if m != nil {
			r.Use(m)
		}
	}

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", handleHealth(checks))

	api := r.Group("/api")
	{
		api.GET("/routes", handleListRoutes(svcs))
		api.GET("/routes/:id", handleGetRoute(svcs))
		api.GET("/trips", handleSearchTrips(svcs))
		api.GET("/trips/:id", handleGetTrip(svcs))
		api.GET("/merchandise", handleListMerchandise(svcs))
		api.GET("/merchandise/:id", handleGetMerchandise(svcs))

		api.POST("/book-ticket", handleBookTicket(svcs, idem))
		api.POST("/process-payment", handleProcessPayment(svcs, idem))
		api.GET("/payments/:id", handleGetPayment(svcs))

		api.POST("/feedback", handleSubmitFeedback(svcs))
		api.GET("/feedback/:id", handleGetFeedback(svcs))

		api.POST("/users/register", handleRegister(svcs))
		api.POST("/users/login", handleLogin(svcs))

		user := api.Group("/users/:id")
		{
			user.GET("", handleGetUser(svcs))
			user.PUT("", handleUpdateProfile(svcs))
			user.PUT("/password", handleChangePassword(svcs))

			user.GET("/tickets", handleListTickets(svcs))
			user.GET("/tickets/:ticketId", handleGetTicket(svcs))
			user.POST("/tickets/:ticketId/cancel", handleCancelTicket(svcs))

			user.GET("/booking", handleGetDraft(svcs))
			user.POST("/booking/stations", handleSelectStations(svcs))
			user.POST("/booking/trip", handleSelectTrip(svcs))
			user.POST("/booking/passengers", handleSetPassengers(svcs))
			user.POST("/booking/book", handleBookDraft(svcs))
			user.POST("/booking/confirm", handleConfirmDraft(svcs))
			user.DELETE("/booking", handleResetDraft(svcs))

			user.GET("/cart", handleGetCart(svcs))
			user.DELETE("/cart", handleClearCart(svcs))
			user.POST("/cart/items", handleAddCartItem(svcs))
			user.PUT("/cart/items/:itemId", handleUpdateCartItem(svcs))
			user.DELETE("/cart/items/:itemId", handleRemoveCartItem(svcs))
			user.POST("/cart/points", handleApplyPoints(svcs))
			user.POST("/cart/checkout", handleCheckout(svcs, idem))

			user.GET("/orders", handleListOrders(svcs))
			user.GET("/orders/:orderId", handleGetOrder(svcs))
			user.POST("/orders/:orderId/cancel", handleCancelOrder(svcs))

			user.GET("/payments", handleListPayments(svcs))
			user.GET("/points", handlePointsBalance(svcs))
			user.GET("/points/history", handlePointsHistory(svcs))
			user.GET("/feedback", handleListUserFeedback(svcs))

			user.GET("/notifications", handleListNotifications(svcs))
			user.GET("/notifications/unread-count", handleUnreadCount(svcs))
			user.POST("/notifications/read-all", handleMarkAllRead(svcs))
			user.POST("/notifications/:nid/read", handleMarkRead(svcs))
			user.DELETE("/notifications/:nid", handleDeleteNotification(svcs))
		}
	}

	// TODO: put the staff endpoints behind an admin auth middleware once users carry roles.
	admin := r.Group("/admin")
	{
		admin.POST("/routes", handleCreateRoute(svcs))
		admin.PATCH("/routes/:id", handleSetRouteActive(svcs))
		admin.POST("/trips", handleCreateTrip(svcs))
		admin.POST("/merchandise", handleCreateMerchandise(svcs))
		admin.PATCH("/merchandise/:id/stock", handleAdjustStock(svcs))
		admin.POST("/payments/:id/refund", handleRefundPayment(svcs))
		admin.POST("/users/:id/points", handleAdjustPoints(svcs))
		admin.GET("/feedback", handleListFeedback(svcs))
		admin.PATCH("/feedback/:id", handleUpdateFeedbackStatus(svcs))
		admin.POST("/tickets/sweep", handleSweepDeparted(svcs))
	}

	return r
}

// @Summary  Liveness and dependency check
// @Success  200  {object}  map[string]string
// @Failure  503  {object}  ErrorResponse
// @Router   /healthz [get]
func handleHealth(checks []HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		for _, check := range checks {
			if err := check(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "dependency unavailable"})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// --- Helpers ---

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		badRequest(c, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

func pageParams(c *gin.Context) (limit, offset int) {
	return parseIntDefault(c.Query("limit"), 0), parseIntDefault(c.Query("offset"), 0)
}

func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		badRequest(c, err.Error())
		return false
	}
	return true
}
