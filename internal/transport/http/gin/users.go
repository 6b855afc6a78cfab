package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/users"
)

// @Summary  Register account
// @Param    req  body  RegisterRequest  true  "payload"
// @Success  201  {object}  domain.User
// @Failure  400  {object}  ErrorResponse
// @Failure  409  {object}  ErrorResponse  "email taken"
// @Router   /api/users/register [post]
func handleRegister(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest
		if !bindJSON(c, &req) {
			return
		}
		u, err := svcs.Users.Register(c.Request.Context(), users.RegisterInput{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Phone:    req.Phone,
			Address:  req.Address,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, u)
	}
}

// @Summary  Log in
// @Param    req  body  LoginRequest  true  "payload"
// @Success  200  {object}  domain.User
// @Failure  401  {object}  ErrorResponse
// @Failure  429  {object}  ErrorResponse  "rate limited"
// @Router   /api/users/login [post]
func handleLogin(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest
		if !bindJSON(c, &req) {
			return
		}
		u, err := svcs.Users.Login(c.Request.Context(), req.Email, req.Password, "ip:"+c.ClientIP())
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary  Get user profile
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  domain.User
// @Failure  404  {object}  ErrorResponse
// @Router   /api/users/{id} [get]
func handleGetUser(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		u, err := svcs.Users.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary  Update user profile
// @Param    id   path  string                true  "User ID"
// @Param    req  body  UpdateProfileRequest  true  "payload"
// @Success  200  {object}  domain.User
// @Router   /api/users/{id} [put]
func handleUpdateProfile(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateProfileRequest
		if !bindJSON(c, &req) {
			return
		}
		u, err := svcs.Users.UpdateProfile(c.Request.Context(), id, req.Name, req.Phone, req.Address)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, u)
	}
}

// @Summary  Change password
// @Param    id   path  string                 true  "User ID"
// @Param    req  body  ChangePasswordRequest  true  "payload"
// @Success  204
// @Failure  401  {object}  ErrorResponse  "old password wrong"
// @Router   /api/users/{id}/password [put]
func handleChangePassword(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req ChangePasswordRequest
		if !bindJSON(c, &req) {
			return
		}
		if err := svcs.Users.ChangePassword(c.Request.Context(), id, req.OldPassword, req.NewPassword); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Loyalty points balance
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  PointsBalanceResponse
// @Router   /api/users/{id}/points [get]
func handlePointsBalance(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		balance, err := svcs.Points.Balance(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, PointsBalanceResponse{UserID: id, Balance: balance})
	}
}

// @Summary  Loyalty points history
// @Param    id      path   string  true   "User ID"
// @Param    limit   query  int     false  "page size"
// @Param    offset  query  int     false  "offset"
// @Success  200  {array}  domain.PointsTransaction
// @Router   /api/users/{id}/points/history [get]
func handlePointsHistory(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		limit, offset := pageParams(c)
		history, err := svcs.Points.History(c.Request.Context(), id, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, history)
	}
}

// @Summary  Manually adjust a user's points
// @Param    id   path  string               true  "User ID"
// @Param    req  body  AdjustPointsRequest  true  "payload"
// @Success  201  {object}  domain.PointsTransaction
// @Failure  409  {object}  ErrorResponse  "balance would go negative"
// @Router   /admin/users/{id}/points [post]
func handleAdjustPoints(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req AdjustPointsRequest
		if !bindJSON(c, &req) {
			return
		}
		tx, err := svcs.Points.Adjust(c.Request.Context(), id, req.Delta, req.Reason)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, tx)
	}
}
