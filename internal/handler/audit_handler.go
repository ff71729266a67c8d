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

type AuditHandler struct {
	auditService service.AuditService
}

func NewAuditHandler(auditService service.AuditService) *AuditHandler {
	return &AuditHandler{auditService: auditService}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	audit := router.Group("/api/audit")
	{
		audit.GET("", middleware.RequirePermission(model.CapAuditRead), h.ListAuditLogs)
		audit.GET("/solicitud/:id", middleware.RequirePermission(model.CapAuditRead), h.GetApplicationHistory)
	}
}

// ListAuditLogs returns the audit trail, newest first
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	params := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), params.Page, params.Limit)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, params.Page, params.Limit, total))
}

// GetApplicationHistory returns every audit entry tied to one application
// chain, preliminary id as the root
func (h *AuditHandler) GetApplicationHistory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	logs, err := h.auditService.GetApplicationHistory(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, logs))
}
