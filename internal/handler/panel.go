package handler

import (
	"context"
	"io"
	"net/http"
	"time"

	"balcao/internal/notify"
	"balcao/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const keepAliveInterval = 25 * time.Second

// Subscriber streams a store's order events until ctx is done.
type Subscriber interface {
	Subscribe(ctx context.Context, storeID uuid.UUID) <-chan notify.Event
}

type PanelHandler struct {
	panel  service.PanelService
	events Subscriber
	// closing ends open streams when the server shuts down
	closing <-chan struct{}
}

func NewPanelHandler(panel service.PanelService, events Subscriber, closing <-chan struct{}) *PanelHandler {
	return &PanelHandler{panel: panel, events: events, closing: closing}
}

// Board godoc
// @Summary Painel de pedidos agrupado por status
// @Tags painel
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.BoardResponse
// @Failure 422 {object} apierror.APIError
// @Router /v1/panel/board [get]
func (h *PanelHandler) Board(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	resp, err := h.panel.Board(c.Request.Context(), store)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Stream godoc
// @Summary Eventos de pedidos em tempo real (server-sent events)
// @Tags painel
// @Produce text/event-stream
// @Security BearerAuth
// @Success 200
// @Router /v1/panel/stream [get]
func (h *PanelHandler) Stream(c *gin.Context) {
	store, ok := storeID(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	events := h.events.Subscribe(ctx, store)
	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	log.Debug().Str("store_id", store.String()).Msg("panel: stream opened")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case <-h.closing:
			return false
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-ticker.C:
			c.SSEvent("ping", gin.H{"at": time.Now().UTC()})
			return true
		}
	})
	log.Debug().Str("store_id", store.String()).Msg("panel: stream closed")
}
