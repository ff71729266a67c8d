package handler

import (
	"net/http"

	"credito/internal/middleware"
	"credito/internal/model"
	"credito/internal/service"
	"credito/pkg/pagination"
	"credito/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type FormalHandler struct {
	formalService service.FormalService
}

func NewFormalHandler(formalService service.FormalService) *FormalHandler {
	return &FormalHandler{formalService: formalService}
}

func (h *FormalHandler) RegisterRoutes(router *gin.RouterGroup) {
	formales := router.Group("/api/solicitudes/formales")
	{
		formales.POST("", middleware.RequirePermission(model.CapFormalCreate), h.CreateFormal)
		formales.PUT("/:id/aprobar", middleware.RequireRole(model.RoleAnalyst, model.RoleAdmin), h.ApproveFormal)
		formales.PUT("/:id/rechazar", middleware.RequireRole(model.RoleAnalyst, model.RoleAdmin), h.RejectFormal)
		formales.PUT("/:id", middleware.RequireRole(model.RoleMerchant, model.RoleAnalyst, model.RoleAdmin), h.UpdateFormal)
		formales.GET("/:id", middleware.RequireRole(model.RoleMerchant, model.RoleAnalyst, model.RoleAdmin), h.GetFormal)
		formales.GET("", middleware.RequireRole(model.RoleAnalyst, model.RoleAdmin), h.ListFormals)
	}
}

// CreateFormal files the documented second-stage application for an approved
// preliminary application
func (h *FormalHandler) CreateFormal(c *gin.Context) {
	var req service.CreateFormalRequest
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

	app, err := h.formalService.Create(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, app))
}

// ApproveFormal approves a pending formal application and records the payment data
func (h *FormalHandler) ApproveFormal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	approverID, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	var req service.ApproveFormalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	isAdmin := actorRole(c) == model.RoleAdmin
	app, err := h.formalService.Approve(c.Request.Context(), id, req, approverID, isAdmin)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// RejectFormal rejects a pending formal application with a mandatory comment
func (h *FormalHandler) RejectFormal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	approverID, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	var req service.RejectFormalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	isAdmin := actorRole(c) == model.RoleAdmin
	app, err := h.formalService.Reject(c.Request.Context(), id, req, approverID, isAdmin)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

type updateFormalRequest struct {
	FullName         string                   `json:"full_name" binding:"required"`
	Address          string                   `json:"address"`
	Phone            string                   `json:"phone"`
	Email            string                   `json:"email"`
	EmployerName     string                   `json:"employer_name"`
	EmployerPhone    string                   `json:"employer_phone"`
	MonthlyIncome    decimal.Decimal          `json:"monthly_income"`
	EmploymentMonths int                      `json:"employment_months"`
	References       []service.ReferenceInput `json:"references" binding:"required"`
	Comment          string                   `json:"comment"`
}

// UpdateFormal edits a non-approved formal application, auditing field changes
func (h *FormalHandler) UpdateFormal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	userID, ok := actorID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, response.Error(http.StatusUnauthorized, "Invalid session"))
		return
	}

	var req updateFormalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, response.Error(http.StatusBadRequest, "Invalid request body: "+err.Error()))
		return
	}

	refs := make([]model.Reference, 0, len(req.References))
	for _, r := range req.References {
		refs = append(refs, model.Reference{
			FullName:     r.FullName,
			Relationship: r.Relationship,
			Phone:        r.Phone,
		})
	}

	modified := &model.FormalApplication{
		FullName:         req.FullName,
		Address:          req.Address,
		Phone:            req.Phone,
		Email:            req.Email,
		EmployerName:     req.EmployerName,
		EmployerPhone:    req.EmployerPhone,
		MonthlyIncome:    req.MonthlyIncome,
		EmploymentMonths: req.EmploymentMonths,
		References:       refs,
	}
	modified.ID = id

	app, err := h.formalService.Update(c.Request.Context(), modified, userID, req.Comment)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

func (h *FormalHandler) GetFormal(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	app, err := h.formalService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, app))
}

// ListFormals returns formal applications, optionally filtered by state
func (h *FormalHandler) ListFormals(c *gin.Context) {
	params := pagination.Parse(c)

	filter := service.FormalFilter{
		State: c.Query("estado"),
		Page:  params.Page,
		Limit: params.Limit,
	}

	apps, total, err := h.formalService.List(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, apps, params.Page, params.Limit, total))
}
