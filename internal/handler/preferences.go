package handler

import (
	"net/http"

	"balcao/internal/dto"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
)

// PreferencesHandler serves per-device settings. The device is named by the
// X-Device-ID header or the device_id query parameter.
type PreferencesHandler struct{ svc service.PreferencesService }

func NewPreferencesHandler(svc service.PreferencesService) *PreferencesHandler {
	return &PreferencesHandler{svc: svc}
}

// Get godoc
// @Summary Preferências do dispositivo
// @Tags preferencias
// @Produce json
// @Security BearerAuth
// @Param device_id query string false "Dispositivo"
// @Success 200 {object} dto.PreferencesResponse
// @Router /v1/preferences [get]
func (h *PreferencesHandler) Get(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	resp, err := h.svc.Get(c.Request.Context(), store, deviceID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ToggleFavorite godoc
// @Summary Marca ou desmarca um produto favorito
// @Tags preferencias
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.FavoriteRequest true "Produto"
// @Success 200 {object} map[string]bool
// @Router /v1/preferences/favorites [post]
func (h *PreferencesHandler) ToggleFavorite(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var req dto.FavoriteRequest
	if !bindAndValidate(c, &req) {
		return
	}
	on, err := h.svc.ToggleFavorite(c.Request.Context(), store, deviceID(c), req.ProductID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorite": on})
}

// AddSearch godoc
// @Summary Registra uma busca no histórico
// @Tags preferencias
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body dto.SearchTermRequest true "Termo"
// @Success 200 {array} string
// @Router /v1/preferences/searches [post]
func (h *PreferencesHandler) AddSearch(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var req dto.SearchTermRequest
	if !bindAndValidate(c, &req) {
		return
	}
	history, err := h.svc.AddSearch(c.Request.Context(), store, deviceID(c), req.Term)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// ClearSearch godoc
// @Summary Limpa o histórico de buscas
// @Tags preferencias
// @Security BearerAuth
// @Success 204
// @Router /v1/preferences/searches [delete]
func (h *PreferencesHandler) ClearSearch(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	if err := h.svc.ClearSearch(c.Request.Context(), store, deviceID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetPrint godoc
// @Summary Liga ou desliga a impressão automática do dispositivo
// @Tags preferencias
// @Accept json
// @Security BearerAuth
// @Param body body dto.PrintToggleRequest true "Impressão"
// @Success 204
// @Router /v1/preferences/print [put]
func (h *PreferencesHandler) SetPrint(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	var req dto.PrintToggleRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SetPrintEnabled(c.Request.Context(), store, deviceID(c), req.Enabled); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
