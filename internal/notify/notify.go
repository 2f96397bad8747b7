// Package notify is the realtime change feed: order events are published on a
// Redis channel per store and streamed to panels over server-sent events.
package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// Event types.
const (
	OrderCreated       = "order_created"
	OrderStatusChanged = "order_status_changed"
)

type Event struct {
	Type        string    `json:"type"`
	StoreID     uuid.UUID `json:"store_id"`
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Status      string    `json:"status"`
	At          time.Time `json:"at"`
}

// Publisher is what services use to announce order changes.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

func Channel(storeID uuid.UUID) string { return "orders:" + storeID.String() }

// Hub publishes and subscribes through Redis pub/sub.
type Hub struct {
	rdb *redis.Client
}

func NewHub(rdb *redis.Client) *Hub { return &Hub{rdb: rdb} }

func (h *Hub) Publish(ctx context.Context, ev Event) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return h.rdb.Publish(ctx, Channel(ev.StoreID), b).Err()
}

// Subscribe streams the store's events until ctx is done. The returned channel
// is closed on exit.
func (h *Hub) Subscribe(ctx context.Context, storeID uuid.UUID) <-chan Event {
	out := make(chan Event, 16)
	sub := h.rdb.Subscribe(ctx, Channel(storeID))
	go func() {
		defer close(out)
		defer sub.Close()
		msgs := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-msgs:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
					log.Warn().Err(err).Str("channel", m.Channel).Msg("notify: bad event payload")
					continue
				}
				select {
				case out <- ev:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}
