package handler

import (
	"net/http"

	"balcao/internal/dto"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
)

// TotemHandler is the public kiosk surface. The store comes from the path;
// the routes carry no token and are rate limited per IP instead.
type TotemHandler struct {
	carts    service.CartService
	products service.ProductService
}

func NewTotemHandler(carts service.CartService, products service.ProductService) *TotemHandler {
	return &TotemHandler{carts: carts, products: products}
}

// Catalog godoc
// @Summary Cardápio do totem
// @Tags totem
// @Produce json
// @Param store_id path string true "ID da loja"
// @Success 200 {array} dto.ProductResponse
// @Router /v1/totem/{store_id}/products [get]
func (h *TotemHandler) Catalog(c *gin.Context) {
	store, ok := pathUUID(c, "store_id")
	if !ok {
		return
	}
	resp, err := h.products.List(c.Request.Context(), store, dto.ProductFilter{})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Order godoc
// @Summary Envia um pedido do totem
// @Tags totem
// @Accept json
// @Produce json
// @Param store_id path string true "ID da loja"
// @Param body body dto.TotemOrderRequest true "Itens e pagamento"
// @Success 201 {object} dto.OrderResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/totem/{store_id}/orders [post]
func (h *TotemHandler) Order(c *gin.Context) {
	store, ok := pathUUID(c, "store_id")
	if !ok {
		return
	}
	var req dto.TotemOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.carts.TotemOrder(c.Request.Context(), store, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}
