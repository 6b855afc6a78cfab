package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/domain"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service/feedback"
)

// @Summary  Submit feedback
// @Param    req  body  SubmitFeedbackRequest  true  "payload"
// @Success  201  {object}  domain.Feedback
// @Failure  400  {object}  ErrorResponse
// @Router   /api/feedback [post]
func handleSubmitFeedback(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req SubmitFeedbackRequest
		if !bindJSON(c, &req) {
			return
		}
		f, err := svcs.Feedback.Submit(c.Request.Context(), feedback.SubmitInput{
			UserID:   req.UserID,
			Subject:  req.Subject,
			Message:  req.Message,
			Rating:   req.Rating,
			Category: req.Category,
		})
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusCreated, f)
	}
}

// @Summary  Get feedback
// @Param    id  path  string  true  "Feedback ID"
// @Success  200  {object}  domain.Feedback
// @Failure  404  {object}  ErrorResponse
// @Router   /api/feedback/{id} [get]
func handleGetFeedback(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		f, err := svcs.Feedback.Get(c.Request.Context(), id)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}

// @Summary  List user's feedback
// @Param    id      path   string  true   "User ID"
// @Param    limit   query  int     false  "page size"
// @Param    offset  query  int     false  "offset"
// @Success  200  {array}  domain.Feedback
// @Router   /api/users/{id}/feedback [get]
func handleListUserFeedback(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		limit, offset := pageParams(c)
		list, err := svcs.Feedback.ListByUser(c.Request.Context(), userID, limit, offset)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  List all feedback, most urgent first
// @Param    status  query  string  false  "new|in_review|resolved"
// @Param    limit   query  int     false  "page size"
// @Param    offset  query  int     false  "offset"
// @Success  200  {array}  domain.Feedback
// @Router   /admin/feedback [get]
func handleListFeedback(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := pageParams(c)
		list, err := svcs.Feedback.List(
			c.Request.Context(),
			domain.FeedbackStatus(c.Query("status")),
			limit,
			offset,
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Move feedback through review
// @Param    id   path  string                       true  "Feedback ID"
// @Param    req  body  UpdateFeedbackStatusRequest  true  "payload"
// @Success  200  {object}  domain.Feedback
// @Failure  404  {object}  ErrorResponse
// @Router   /admin/feedback/{id} [patch]
func handleUpdateFeedbackStatus(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		var req UpdateFeedbackStatusRequest
		if !bindJSON(c, &req) {
			return
		}
		f, err := svcs.Feedback.UpdateStatus(c.Request.Context(), id, req.Status)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, f)
	}
}
