package handler

import (
	"net/http"

	"balcao/internal/apierror"
	"balcao/internal/dto"
	"balcao/internal/middleware"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
)

// CatalogHandler serves products and the loyalty ledger of customers.
type CatalogHandler struct {
	products service.ProductService
	loyalty  service.LoyaltyService
}

func NewCatalogHandler(products service.ProductService, loyalty service.LoyaltyService) *CatalogHandler {
	return &CatalogHandler{products: products, loyalty: loyalty}
}

// ListProducts godoc
// @Summary Lista o catálogo; com device_id os favoritos vêm primeiro
// @Tags produtos
// @Produce json
// @Security BearerAuth
// @Param name query string false "Filtro por nome"
// @Param category_id query string false "Categoria"
// @Param redeemable_only query bool false "Somente resgatáveis com pontos"
// @Param device_id query string false "Dispositivo"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/products [get]
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parâmetros inválidos: "+err.Error()))
		return
	}
	if filter.DeviceID == "" {
		filter.DeviceID = c.GetHeader(middleware.DeviceIDHeader)
	}
	resp, err := h.products.List(c.Request.Context(), store, filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetProduct godoc
// @Summary Obtém um produto com suas variações
// @Tags produtos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do produto"
// @Success 200 {object} dto.ProductResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/products/{id} [get]
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.products.Get(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoyaltyHistory godoc
// @Summary Extrato de pontos do cliente
// @Tags fidelidade
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do cliente"
// @Success 200 {array} dto.LoyaltyTransactionResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/customers/{id}/loyalty [get]
func (h *CatalogHandler) LoyaltyHistory(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.loyalty.History(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// LoyaltyAudit godoc
// @Summary Confere o saldo do cliente contra o extrato
// @Tags fidelidade
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do cliente"
// @Success 200 {object} dto.LoyaltyAuditResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/customers/{id}/loyalty/audit [get]
func (h *CatalogHandler) LoyaltyAudit(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.loyalty.Audit(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
