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

type PreliminaryHandler struct {
	preliminaryService service.PreliminaryService
}

func NewPreliminaryHandler(preliminaryService service.PreliminaryService) *PreliminaryHandler {
	return &PreliminaryHandler{preliminaryService: preliminaryService}
}

func (h *PreliminaryHandler) RegisterRoutes(router *gin.RouterGroup) {
	preliminares := router.Group("/api/solicitudes/preliminares")
	{
		preliminares.POST("", middleware.RequireRole(model.RoleMerchant), h.CreatePreliminary)
		preliminares.POST("/:id/verificar", middleware.RequireRole(model.RoleMerchant, model.RoleAnalyst, model.RoleAdmin), h.VerifyApproval)
		preliminares.GET("/:id", middleware.RequireRole(model.RoleMerchant, model.RoleAnalyst, model.RoleAdmin), h.GetPreliminary)
		preliminares.GET("", middleware.RequireRole(model.RoleMerchant, model.RoleAnalyst, model.RoleAdmin), h.ListPreliminaries)
	}
}

// CreatePreliminary submits a preliminary application for a client and runs
// the credit bureau check
func (h *PreliminaryHandler) CreatePreliminary(c *gin.Context) {
	var req service.CreatePreliminaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	merchantID, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}
	req.MerchantID = merchantID

	app, err := h.preliminaryService.Create(c.Request.Context(), req)
	if err != nil {
		// A rejected bureau verdict still carries the persisted application
		if app != nil {
			c.JSON(statusFor(err), gin.H{
				"status": "error",
				"error":  err.Error(),
				"data":   app,
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, app))
}

// VerifyApproval re-checks a preliminary application against the credit bureau
func (h *PreliminaryHandler) VerifyApproval(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	app, err := h.preliminaryService.VerifyApproval(c.Request.Context(), id)
	if err != nil {
		if app != nil {
			c.JSON(statusFor(err), gin.H{
				"status": "error",
				"error":  err.Error(),
				"data":   app,
			})
			return
		}
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

func (h *PreliminaryHandler) GetPreliminary(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	app, err := h.preliminaryService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// ListPreliminaries returns preliminary applications, optionally filtered by state
func (h *PreliminaryHandler) ListPreliminaries(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.PreliminaryFilter{
		State: c.Query("estado"),
		Page:  params.Page,
		Limit: params.Limit,
	}

	apps, total, err := h.preliminaryService.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, apps, params.Page, params.Limit, total))
}
