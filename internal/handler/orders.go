package handler

import (
	"net/http"

	"balcao/internal/dto"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
)

type OrdersHandler struct {
	status service.OrderStatusService
	panel  service.PanelService
}

func NewOrdersHandler(status service.OrderStatusService, panel service.PanelService) *OrdersHandler {
	return &OrdersHandler{status: status, panel: panel}
}

// Get godoc
// @Summary Obtém um pedido
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 200 {object} dto.OrderResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/orders/{id} [get]
func (h *OrdersHandler) Get(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.panel.Order(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Advance godoc
// @Summary Avança o pedido para o próximo status do fluxo
// @Description Uma reserva no último status responde 409 com as formas de pagamento em options.
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 200 {object} dto.TransitionResponse
// @Failure 409 {object} apierror.APIError
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders/{id}/advance [post]
func (h *OrdersHandler) Advance(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.status.Advance(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CompleteReservation godoc
// @Summary Quita uma reserva e entrega o pedido
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Param body body dto.CompleteReservationRequest true "Forma de pagamento"
// @Success 200 {object} dto.TransitionResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders/{id}/complete-reservation [post]
func (h *OrdersHandler) CompleteReservation(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CompleteReservationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.status.CompleteReservation(c.Request.Context(), store, id, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Cancel godoc
// @Summary Cancela o pedido e devolve os pontos resgatados
// @Tags pedidos
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Param body body dto.CancelOrderRequest true "Confirmação"
// @Success 200 {object} dto.TransitionResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders/{id}/cancel [post]
func (h *OrdersHandler) Cancel(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	var req dto.CancelOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.status.Cancel(c.Request.Context(), store, id, req.Confirmed)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// CourierLink godoc
// @Summary Link do WhatsApp para enviar a entrega ao motoboy
// @Tags pedidos
// @Produce json
// @Security BearerAuth
// @Param id path string true "ID do pedido"
// @Success 200 {object} dto.CourierLinkResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/orders/{id}/courier-link [get]
func (h *OrdersHandler) CourierLink(c *gin.Context) {
	store, id, ok := scope(c)
	if !ok {
		return
	}
	resp, err := h.panel.CourierLink(c.Request.Context(), store, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
