package handler

import (
	"net/http"

	"credito/internal/middleware"
	"credito/internal/model"
	"credito/internal/service"
	"credito/pkg/response"

	"github.com/gin-gonic/gin"
)

type ContractHandler struct {
	contractService service.ContractService
}

func NewContractHandler(contractService service.ContractService) *ContractHandler {
	return &ContractHandler{contractService: contractService}
}

func (h *ContractHandler) RegisterRoutes(router *gin.RouterGroup) {
	contratos := router.Group("/api/contratos")
	{
		contratos.POST("/generar/:formalId", middleware.RequireRole(model.RoleAnalyst, model.RoleAdmin, model.RoleMerchant), h.GenerateContract)
		contratos.GET("/:id/descargar", middleware.RequireRole(model.RoleClient), h.DownloadContract)
		contratos.GET("/:id", middleware.RequirePermission(model.CapContractRead), h.GetContract)
	}
}

// GenerateContract issues the signed contract for an approved formal application
func (h *ContractHandler) GenerateContract(c *gin.Context) {
	formalID, ok := pathID(c, "formalId")
	if !ok {
		return
	}

	contract, err := h.contractService.Generate(c.Request.Context(), formalID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, contract))
}

// DownloadContract streams the contract document to its owning client
func (h *ContractHandler) DownloadContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	dni := actorDNI(c)
	if dni == "" {
		c.JSON(http.StatusForbidden, response.Error(http.StatusForbidden, "Session has no associated DNI"))
		return
	}

	payload, err := h.contractService.Download(c.Request.Context(), id, dni)
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", "attachment; filename=contrato_"+id.String()+".pdf")
	c.Data(http.StatusOK, "application/pdf", payload)
}

func (h *ContractHandler) GetContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	contract, err := h.contractService.GetByID(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Success(http.StatusOK, contract))
}
