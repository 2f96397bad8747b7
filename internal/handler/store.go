package handler

import (
	"net/http"

	"balcao/internal/dto"
	"balcao/internal/middleware"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
)

// StoreHandler serves the store's order flow and its cash register.
type StoreHandler struct {
	flow     service.OrderFlowService
	register service.CashRegisterService
}

func NewStoreHandler(flow service.OrderFlowService, register service.CashRegisterService) *StoreHandler {
	return &StoreHandler{flow: flow, register: register}
}

// ── Order flow ───────────────────────────────────────────────────────────────

// Flow godoc
// @Summary Fluxo de status ativo da loja
// @Tags loja
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.FlowResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/store/flow [get]
func (h *StoreHandler) Flow(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	resp, err := h.flow.Describe(c.Request.Context(), store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfigureFlow godoc
// @Summary Define os status ativos do fluxo, em ordem
// @Tags loja
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.FlowConfigRequest true "Status ativos"
// @Success 200 {object} dto.FlowResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/store/flow [put]
func (h *StoreHandler) ConfigureFlow(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var req dto.FlowConfigRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.flow.Configure(c.Request.Context(), store, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ── Cash register ────────────────────────────────────────────────────────────

// CurrentRegister godoc
// @Summary Caixa aberto da loja
// @Tags caixa
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CashRegisterResponse
// @Failure 404 {object} apierror.APIError
// @Router /v1/cash-register [get]
func (h *StoreHandler) CurrentRegister(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	resp, err := h.register.Current(c.Request.Context(), store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// OpenRegister godoc
// @Summary Abre o caixa
// @Tags caixa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.OpenCashRegisterRequest true "Fundo de troco"
// @Success 201 {object} dto.CashRegisterResponse
// @Failure 409 {object} apierror.APIError
// @Router /v1/cash-register/open [post]
func (h *StoreHandler) OpenRegister(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var req dto.OpenCashRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.register.Open(c.Request.Context(), store, middleware.UserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// CloseRegister godoc
// @Summary Fecha o caixa
// @Tags caixa
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.CloseCashRegisterRequest true "Valor contado"
// @Success 200 {object} dto.CashRegisterResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/cash-register/close [post]
func (h *StoreHandler) CloseRegister(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var req dto.CloseCashRegisterRequest
	if !bindAndValidate(c, &req) {
		return
	}
	resp, err := h.register.Close(c.Request.Context(), store, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
