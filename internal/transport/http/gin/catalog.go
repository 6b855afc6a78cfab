package httpgin

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/catalog"
)

// @Summary  List routes
// @Param    all  query  bool  false  "include inactive routes"
// @Success  200  {array}  domain.Route
// @Router   /api/routes [get]
func handleListRoutes(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		activeOnly := c.Query("all") != "true"

		routes, err := svcs.Catalog.ListRoutes(c.Request.Context(), activeOnly)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeCachedJSON(c, http.StatusOK, routes, 60*time.Second)
	}
}

// @Summary  Get route
// @Param    id  path  string  true  "Route ID"
// @Success  200  {object}  domain.Route
// @Failure  404  {object}  ErrorResponse
// @Router   /api/routes/{id} [get]
func handleGetRoute(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		rt, err := svcs.Catalog.GetRoute(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		writeCachedJSON(c, http.StatusOK, rt, 60*time.Second)
	}
}

// @Summary  Search trips departing on a date
// @Param    origin       query  string  true  "origin station"
// @Param    destination  query  string  true  "destination station"
// @Param    date         query  string  true  "YYYY-MM-DD"
// @Success  200  {array}   domain.TripListing
// @Failure  400  {object}  ErrorResponse
// @Router   /api/trips [get]
func handleSearchTrips(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		trips, err := svcs.Catalog.SearchTrips(
			c.Request.Context(),
			c.Query("origin"),
			c.Query("destination"),
			c.Query("date"),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		// seat counts move quickly
		writeCachedJSON(c, http.StatusOK, trips, 15*time.Second)
	}
}

// @Summary  Get trip
// @Param    id  path  string  true  "Trip ID"
// @Success  200  {object}  domain.Trip
// @Failure  404  {object}  ErrorResponse
// @Router   /api/trips/{id} [get]
func handleGetTrip(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		t, err := svcs.Catalog.GetTrip(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, t)
	}
}

// @Summary  List merchandise
// @Param    all  query  bool  false  "include inactive items"
// @Success  200  {array}  domain.Merchandise
// @Router   /api/merchandise [get]
func handleListMerchandise(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := svcs.Catalog.ListMerchandise(c.Request.Context(), c.Query("all") != "true")
		if err != nil {
			respondErr(c, err)
			return
		}
		writeCachedJSON(c, http.StatusOK, items, 30*time.Second)
	}
}

// @Summary  Get merchandise item
// @Param    id  path  string  true  "Merchandise ID"
// @Success  200  {object}  domain.Merchandise
// @Failure  404  {object}  ErrorResponse
// @Router   /api/merchandise/{id} [get]
func handleGetMerchandise(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		m, err := svcs.Catalog.GetMerchandise(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}

// @Summary  Create route
// @Param    req  body  CreateRouteRequest  true  "payload"
// @Success  201  {object}  domain.Route
// @Failure  409  {object}  ErrorResponse
// @Router   /admin/routes [post]
func handleCreateRoute(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateRouteRequest
		if !bindJSON(c, &req) {
			return
		}
		rt, err := svcs.Catalog.CreateRoute(c.Request.Context(), catalog.CreateRouteInput{
			StartLocation: req.StartLocation,
			EndLocation:   req.EndLocation,
			DistanceKm:    req.DistanceKm,
			DurationMin:   req.DurationMin,
			Fare:          req.Fare,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, rt)
	}
}

// @Summary  Activate or deactivate a route
// @Param    id   path  string                 true  "Route ID"
// @Param    req  body  SetRouteActiveRequest  true  "payload"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /admin/routes/{id} [patch]
func handleSetRouteActive(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req SetRouteActiveRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := svcs.Catalog.SetRouteActive(c.Request.Context(), id, *req.Active); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Schedule a trip on a route
// @Param    req  body  CreateTripRequest  true  "payload"
// @Success  201  {object}  domain.Trip
// @Failure  400  {object}  ErrorResponse
// @Router   /admin/trips [post]
func handleCreateTrip(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateTripRequest
		if !bindJSON(c, &req) {
			return
		}
		departs, err := parseRFC3339(req.DepartsAt)
		if err != nil {
			badRequest(c, "invalid departs_at (RFC3339)")
			return
		}
		t, err := svcs.Catalog.CreateTrip(c.Request.Context(), req.RouteID, departs, req.Seats)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, t)
	}
}

// @Summary  Create merchandise item
// @Param    req  body  CreateMerchandiseRequest  true  "payload"
// @Success  201  {object}  domain.Merchandise
// @Router   /admin/merchandise [post]
func handleCreateMerchandise(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateMerchandiseRequest
		if !bindJSON(c, &req) {
			return
		}
		m, err := svcs.Catalog.CreateMerchandise(c.Request.Context(), catalog.CreateMerchandiseInput{
			Name:        req.Name,
			Description: req.Description,
			Category:    req.Category,
			Price:       req.Price,
			Stock:       req.Stock,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, m)
	}
}

// @Summary  Restock or write off merchandise
// @Param    id   path  string              true  "Merchandise ID"
// @Param    req  body  AdjustStockRequest  true  "payload"
// @Success  200  {object}  domain.Merchandise
// @Failure  409  {object}  ErrorResponse  "stock would go negative"
// @Router   /admin/merchandise/{id}/stock [patch]
func handleAdjustStock(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req AdjustStockRequest
		if !bindJSON(c, &req) {
			return
		}
		m, err := svcs.Catalog.AdjustStock(c.Request.Context(), id, req.Delta)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, m)
	}
}
