package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// StockAlertPayload is the job envelope sent to QueueStockAlert.
type StockAlertPayload struct {
	StoreID   string `json:"store_id"`
	StoreName string `json:"store_name"`
	ToEmail   string `json:"to_email"`
	Item      string `json:"item"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// Sender delivers an email.
type Sender interface {
	Send(to, subject, body, attachPath string) error
}

// StockAlertWorker emails the store when an item reaches its low-stock threshold.
type StockAlertWorker struct {
	mailer Sender
}

func NewStockAlertWorker(mailer Sender) *StockAlertWorker {
	return &StockAlertWorker{mailer: mailer}
}

func (w *StockAlertWorker) Process(_ context.Context, raw json.RawMessage) {
	var p StockAlertPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		log.Error().Err(err).Msg("stock_alert_worker: invalid payload")
		return
	}
	if p.ToEmail == "" {
		log.Warn().Str("store_id", p.StoreID).Msg("stock_alert_worker: store has no alert email, skipping")
		return
	}
	subject, body := StockAlertMessage(p)
	if err := w.mailer.Send(p.ToEmail, subject, body, ""); err != nil {
		log.Error().Err(err).Str("to", p.ToEmail).Msg("stock_alert_worker: failed to send email")
		return
	}
	log.Info().Str("item", p.Item).Int("stock", p.Stock).Msg("stock_alert_worker: alert sent")
}

// StockAlertMessage builds the subject and body of a low-stock alert.
func StockAlertMessage(p StockAlertPayload) (string, string) {
	subject := fmt.Sprintf("Estoque baixo: %s", p.Item)
	body := fmt.Sprintf(
		"%s\n\nO item %q está com %d unidade(s) em estoque (limite de alerta: %d).\nConsidere pausar o item nos canais de venda ou repor o estoque.",
		p.StoreName, p.Item, p.Stock, p.Threshold,
	)
	return subject, body
}
