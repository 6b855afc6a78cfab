package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	redisrepo "github.com/Josan88/Kuching-ART-Online-System-sub000/internal/repository/redis"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/orders"
)

// @Summary  Get cart
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  domain.Order
// @Router   /api/users/{id}/cart [get]
func handleGetCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		cart, err := svcs.Orders.GetCart(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// @Summary  Add ticket or merchandise to cart
// @Param    id   path  string              true  "User ID"
// @Param    req  body  AddCartItemRequest  true  "payload"
// @Success  200  {object}  domain.Order
// @Failure  404  {object}  ErrorResponse  "item not found"
// @Failure  409  {object}  ErrorResponse  "out of stock / already in cart"
// @Router   /api/users/{id}/cart/items [post]
func handleAddCartItem(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req AddCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		if req.Quantity == 0 {
			req.Quantity = 1
		}
		cart, err := svcs.Orders.AddItem(c.Request.Context(), userID, orders.AddItemInput{
			ItemType: req.ItemType,
			ItemID:   req.ItemID,
			Quantity: req.Quantity,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// @Summary  Change quantity of a cart line (0 removes it)
// @Param    id      path  string                 true  "User ID"
// @Param    itemId  path  string                 true  "Cart line ID"
// @Param    req     body  UpdateCartItemRequest  true  "payload"
// @Success  200  {object}  domain.Order
// @Router   /api/users/{id}/cart/items/{itemId} [put]
func handleUpdateCartItem(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		lineID, ok := parseUUIDParam(c, "itemId")
		if !ok {
			return
		}
		var req UpdateCartItemRequest
		if !bindJSON(c, &req) {
			return
		}
		cart, err := svcs.Orders.UpdateQuantity(c.Request.Context(), userID, lineID, req.Quantity)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// @Summary  Remove a cart line
// @Param    id      path  string  true  "User ID"
// @Param    itemId  path  string  true  "Cart line ID"
// @Success  200  {object}  domain.Order
// @Router   /api/users/{id}/cart/items/{itemId} [delete]
func handleRemoveCartItem(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		lineID, ok := parseUUIDParam(c, "itemId")
		if !ok {
			return
		}
		cart, err := svcs.Orders.RemoveItem(c.Request.Context(), userID, lineID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// @Summary  Empty the cart
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  domain.Order
// @Router   /api/users/{id}/cart [delete]
func handleClearCart(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		cart, err := svcs.Orders.Clear(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// @Summary  Redeem points against the cart
// @Param    id   path  string              true  "User ID"
// @Param    req  body  ApplyPointsRequest  true  "payload"
// @Success  200  {object}  domain.Order
// @Failure  409  {object}  ErrorResponse  "insufficient points"
// @Router   /api/users/{id}/cart/points [post]
func handleApplyPoints(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req ApplyPointsRequest
		if !bindJSON(c, &req) {
			return
		}
		cart, err := svcs.Orders.ApplyPoints(c.Request.Context(), userID, req.Points)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// @Summary  Check out the cart (idempotent)
// @Param    id   path  string           true  "User ID"
// @Param    req  body  CheckoutRequest  true  "payload"
// @Header   201  {string}  Idempotency-Key  "echo"
// @Success  201  {object}  orders.CheckoutResult
// @Failure  409  {object}  ErrorResponse  "empty cart / out of stock"
// @Router   /api/users/{id}/cart/checkout [post]
func handleCheckout(svcs *service.Services, idem *redisrepo.IdempotencyStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req CheckoutRequest
		if !bindJSON(c, &req) {
			return
		}

		idempotent(c, idem, "checkout", userID, func() (any, error) {
			return svcs.Orders.Checkout(c.Request.Context(), userID, req.Method)
		})
	}
}

// @Summary  List placed orders
// @Param    id      path   string  true   "User ID"
// @Param    limit   query  int     false  "page size"
// @Param    offset  query  int     false  "offset"
// @Success  200  {array}  domain.Order
// @Router   /api/users/{id}/orders [get]
func handleListOrders(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		limit, offset := pageParams(c)
		list, err := svcs.Orders.ListOrders(c.Request.Context(), userID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Get order
// @Param    id       path  string  true  "User ID"
// @Param    orderId  path  string  true  "Order ID"
// @Success  200  {object}  domain.Order
// @Failure  404  {object}  ErrorResponse
// @Router   /api/users/{id}/orders/{orderId} [get]
func handleGetOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		orderID, ok := parseUUIDParam(c, "orderId")
		if !ok {
			return
		}
		o, err := svcs.Orders.Get(c.Request.Context(), userID, orderID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}

// @Summary  Cancel an unpaid order
// @Param    id       path  string  true  "User ID"
// @Param    orderId  path  string  true  "Order ID"
// @Success  200  {object}  domain.Order
// @Failure  409  {object}  ErrorResponse  "not cancellable"
// @Router   /api/users/{id}/orders/{orderId}/cancel [post]
func handleCancelOrder(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		orderID, ok := parseUUIDParam(c, "orderId")
		if !ok {
			return
		}
		o, err := svcs.Orders.Cancel(c.Request.Context(), userID, orderID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, o)
	}
}
