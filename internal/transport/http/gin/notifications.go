package httpgin

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Josan88/Kuching-ART-Online-System-sub000/internal/service"
)

// @Summary  List notifications, newest first
// @Param    id      path   string  true   "User ID"
// @Param    unread  query  bool    false  "only unread"
// @Param    limit   query  int     false  "page size"
// @Success  200  {array}  domain.Notification
// @Router   /api/users/{id}/notifications [get]
func handleListNotifications(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		list, err := svcs.Notifications.List(
			c.Request.Context(),
			userID,
			c.Query("unread") == "true",
			parseIntDefault(c.Query("limit"), 0),
		)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// @Summary  Unread notification count
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  UnreadCountResponse
// @Router   /api/users/{id}/notifications/unread-count [get]
func handleUnreadCount(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		n, err := svcs.Notifications.UnreadCount(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, UnreadCountResponse{Unread: n})
	}
}

// @Summary  Mark one notification read
// @Param    id   path  string  true  "User ID"
// @Param    nid  path  string  true  "Notification ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /api/users/{id}/notifications/{nid}/read [post]
func handleMarkRead(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		id, ok := parseUUIDParam(c, "nid")
		if !ok {
			return
		}
		if err := svcs.Notifications.MarkRead(c.Request.Context(), userID, id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// @Summary  Mark all notifications read
// @Param    id  path  string  true  "User ID"
// @Success  200  {object}  MarkAllReadResponse
// @Router   /api/users/{id}/notifications/read-all [post]
func handleMarkAllRead(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		n, err := svcs.Notifications.MarkAllRead(c.Request.Context(), userID)
		if err != nil {
			respondErr(c, err)
			return
		}
		c.JSON(http.StatusOK, MarkAllReadResponse{Updated: n})
	}
}

// @Summary  Delete a notification
// @Param    id   path  string  true  "User ID"
// @Param    nid  path  string  true  "Notification ID"
// @Success  204
// @Failure  404  {object}  ErrorResponse
// @Router   /api/users/{id}/notifications/{nid} [delete]
func handleDeleteNotification(svcs *service.Services) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := parseUUIDParam(c, "id")
		if !ok {
			return
		}
		id, ok := parseUUIDParam(c, "nid")
		if !ok {
			return
		}
		if err := svcs.Notifications.Delete(c.Request.Context(), userID, id); err != nil {
			respondErr(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
