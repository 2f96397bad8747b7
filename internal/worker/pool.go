package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	QueuePrint      = "jobs:print"
	QueueStockAlert = "jobs:stock_alert"
	// QueueReconcile never has consumers: it only names the dead-letter list
	// that collects post-sale reconciliation failures.
	QueueReconcile = "jobs:reconcile"
)

// Job is the generic envelope for all async tasks.
type Job struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Handler processes one job payload.
type Handler func(ctx context.Context, payload json.RawMessage)

// Dispatcher enqueues async jobs into Redis lists consumed with BRPOP.
type Dispatcher struct {
	rdb *redis.Client
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb}
}

func (d *Dispatcher) EnqueuePrint(ctx context.Context, p PrintJobPayload) error {
	return d.enqueue(ctx, QueuePrint, "print", p)
}

func (d *Dispatcher) EnqueueStockAlert(ctx context.Context, p StockAlertPayload) error {
	return d.enqueue(ctx, QueueStockAlert, "stock_alert", p)
}

// DeadLetter records a failure that needs manual reconciliation.
func (d *Dispatcher) DeadLetter(ctx context.Context, queue, jobType string, payload any, reason string) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("queue", queue).Msg("dlq: failed to marshal payload")
		return
	}
	SendToDLQ(ctx, d.rdb, queue, jobType, data, reason, 1)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	encoded, err := json.Marshal(Job{Type: jobType, Payload: data})
	if err != nil {
		return err
	}
	return d.rdb.LPush(ctx, queue, encoded).Err()
}

// StartWorkerPool launches numWorkers goroutines consuming the queues that have
// a handler. Each goroutine blocks on BRPOP while idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, numWorkers int, handlers map[string]Handler) {
	queues := make([]string, 0, len(handlers))
	for q := range handlers {
		queues = append(queues, q)
	}
	if len(queues) == 0 {
		log.Warn().Msg("worker pool: no handlers registered")
		return
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, i, queues, handlers)
	}
	log.Info().Strs("queues", queues).Msgf("worker pool started with %d workers", numWorkers)
}

func runWorker(ctx context.Context, rdb *redis.Client, id int, queues []string, handlers map[string]Handler) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// wait up to 5s, then loop to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil || len(result) < 2 {
				continue
			}
			processJob(ctx, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, handlers map[string]Handler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		return
	}
	h, ok := handlers[queue]
	if !ok {
		log.Warn().Str("queue", queue).Str("type", job.Type).Msg("no handler for queue")
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Str("queue", queue).Msg("job handler panicked")
		}
	}()
	h(ctx, job.Payload)
}
