package handler

import (
	"net/http"

	"credito/internal/middleware"
	"credito/internal/model"
	"credito/internal/service"
	"credito/pkg/pagination"
	"credito/pkg/response"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	notificationService service.NotificationService
}

func NewNotificationHandler(notificationService service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationService: notificationService}
}

func (h *NotificationHandler) RegisterRoutes(router *gin.RouterGroup) {
	notificaciones := router.Group("/api/notificaciones")
	{
		anyRole := middleware.RequireRole(model.RoleAdmin, model.RoleAnalyst, model.RoleMerchant, model.RoleClient)
		notificaciones.GET("", anyRole, h.ListNotifications)
		notificaciones.PUT("/:id/leida", anyRole, h.MarkRead)
	}
}

// ListNotifications returns the authenticated user's notifications, both
// direct and role-addressed
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	userID, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	params := pagination.Parse(c)

	items, total, err := h.notificationService.ListForUser(c.Request.Context(), userID, actorRole(c), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, items, params.Page, params.Limit, total))
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	if err := h.notificationService.MarkRead(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, "Notification marked as read"))
}
