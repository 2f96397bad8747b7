package handler

import (
	"net/http"

	"balcao/internal/dto"
	"balcao/internal/middleware"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CartHandler serves the PDV cart: a cart lives in Redis until it is checked
// out or discarded.
type CartHandler struct{ svc service.CartService }

func NewCartHandler(svc service.CartService) *CartHandler { return &CartHandler{svc: svc} }

// scope resolves the store of the token and the :id cart.
func scope(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	store, ok := storeID(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	id, ok := pathUUID(c, "id")
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	return store, id, true
}

// Create godoc
// @Summary Abre um carrinho
// @Tags carrinho
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CreateCartRequest false "Dispositivo"
// @Success 201 {object} dto.CartResponse
// @Router /v1/carts [post]
func (h *CartHandler) Create(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var req dto.CreateCartRequest
	if c.Request.ContentLength > 0 && !bindAndValidate(c, &req) {
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = deviceID(c)
	}
	resp, err := h.svc.Create(c.Request.Context(), store, req.DeviceID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// Get godoc
// @Summary Obtém um carrinho
// @Tags carrinho
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/carts/{id} [get]
func (h *CartHandler) Get(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Discard godoc
// @Summary Descarta um carrinho
// @Tags carrinho
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Success 204
// @Router /v1/carts/{id} [delete]
func (h *CartHandler) Discard(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	if err := h.svc.Discard(c.Request.Context(), store, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetCustomer godoc
// @Summary Associa o cliente pelo telefone (cria quando o nome é informado)
// @Tags carrinho
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.SetCustomerRequest true "Cliente"
// @Success 200 {object} dto.CartResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/carts/{id}/customer [put]
func (h *CartHandler) SetCustomer(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	var req dto.SetCustomerRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.SetCustomer(c.Request.Context(), store, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ClearCustomer godoc
// @Summary Remove o cliente do carrinho
// @Tags carrinho
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Success 200 {object} dto.CartResponse
// @Router /v1/carts/{id}/customer [delete]
func (h *CartHandler) ClearCustomer(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.svc.ClearCustomer(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// AddItem godoc
// @Summary Adiciona uma unidade ao carrinho
// @Tags carrinho
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.CartLineRequest true "Produto"
// @Success 200 {object} dto.CartResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/carts/{id}/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CartLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.AddItem(c.Request.Context(), store, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// UpdateQuantity godoc
// @Summary Altera a quantidade de uma linha (0 remove)
// @Tags carrinho
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.UpdateQuantityRequest true "Quantidade"
// @Success 200 {object} dto.CartResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/carts/{id}/items [patch]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	var req dto.UpdateQuantityRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.UpdateQuantity(c.Request.Context(), store, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ToggleRedeem godoc
// @Summary Marca ou desmarca o resgate da linha com pontos
// @Tags carrinho
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.CartLineRequest true "Produto"
// @Success 200 {object} dto.CartResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/carts/{id}/redeem [post]
func (h *CartHandler) ToggleRedeem(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CartLineRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.ToggleRedeem(c.Request.Context(), store, id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Checkout godoc
// @Summary Finaliza o pedido do carrinho
// @Tags carrinho
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do carrinho"
// @Param body body dto.CheckoutRequest true "Pagamento, entrega e reserva"
// @Success 201 {object} dto.OrderResponse
// @Failure 422 {object} apierror.APIError
// @Failure 500 {object} apierror.APIError
// @Router /v1/carts/{id}/checkout [post]
func (h *CartHandler) Checkout(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CheckoutRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.svc.Checkout(c.Request.Context(), store, middleware.UserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// deviceID identifies the terminal: X-Device-ID header, else ?device_id=.
func deviceID(c *gin.Context) string {
	if id := c.GetHeader(middleware.DeviceIDHeader); id != "" {
		return id
	}
	return c.Query("device_id")
}
