package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"balcao/internal/infra"
	"balcao/internal/model"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// MaxPrintRetries is how many failed attempts a print job gets before it is
// marked failed and dead-lettered.
const MaxPrintRetries = 5

// PrintJobPayload is the job envelope sent to QueuePrint.
type PrintJobPayload struct {
	PrintJobID string `json:"print_job_id"`
}

// Printer delivers a rendered receipt to a device.
type Printer interface {
	Print(ctx context.Context, storeID, deviceID string, pdf []byte) error
}

// PrintWorker renders receipts and sends them to the print bridge through the
// circuit breaker.
type PrintWorker struct {
	jobs        repository.PrintJobRepository
	orders      repository.OrderRepository
	stores      repository.StoreRepository
	printer     Printer
	cb          *infra.CircuitBreaker
	rdb         *redis.Client
	storagePath string
	now         func() time.Time
}

func NewPrintWorker(
	jobs repository.PrintJobRepository,
	orders repository.OrderRepository,
	stores repository.StoreRepository,
	printer Printer,
	cb *infra.CircuitBreaker,
	rdb *redis.Client,
	storagePath string,
) *PrintWorker {
	return &PrintWorker{
		jobs:        jobs,
		orders:      orders,
		stores:      stores,
		printer:     printer,
		cb:          cb,
		rdb:         rdb,
		storagePath: storagePath,
		now:         time.Now,
	}
}

// Process handles one job from QueuePrint.
func (w *PrintWorker) Process(ctx context.Context, raw json.RawMessage) {
	var payload PrintJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("print_worker: invalid payload")
		return
	}
	id, err := uuid.Parse(payload.PrintJobID)
	if err != nil {
		log.Error().Str("print_job_id", payload.PrintJobID).Msg("print_worker: invalid print_job_id")
		return
	}
	job, err := w.jobs.FindByID(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("print_job_id", payload.PrintJobID).Msg("print_worker: job not found")
		return
	}
	// a failed job only comes back through the queue when requeued from the DLQ
	if job.Status == model.PrintFailed {
		log.Info().Str("print_job_id", payload.PrintJobID).Msg("print_worker: requeued job, resetting retries")
		job.Status = model.PrintPending
		job.RetryCount = 0
	}
	w.Attempt(ctx, job)
}

// Attempt renders and sends job once, updating its retry bookkeeping.
func (w *PrintWorker) Attempt(ctx context.Context, job *model.PrintJob) {
	if job.Status != model.PrintPending {
		return
	}
	err := w.send(ctx, job)
	if err == nil {
		job.Status = model.PrintPrinted
		job.NextRetryAt = nil
		job.LastError = nil
		if uerr := w.jobs.Update(ctx, job); uerr != nil {
			log.Error().Err(uerr).Str("print_job_id", job.ID.String()).Msg("print_worker: failed to update job")
		}
		log.Info().Str("order_id", job.OrderID.String()).Int("retries", job.RetryCount).Msg("print_worker: receipt printed")
		return
	}

	job.RetryCount++
	msg := err.Error()
	job.LastError = &msg
	if job.RetryCount >= MaxPrintRetries {
		job.Status = model.PrintFailed
		job.NextRetryAt = nil
		log.Error().Err(err).Str("order_id", job.OrderID.String()).Int("retries", job.RetryCount).
			Msg("print_worker: max retries exceeded")
		if w.rdb != nil {
			data, _ := json.Marshal(PrintJobPayload{PrintJobID: job.ID.String()})
			SendToDLQ(ctx, w.rdb, QueuePrint, "print", data,
				fmt.Sprintf("max retries (%d) exceeded: %s", MaxPrintRetries, msg), job.RetryCount)
		}
	} else {
		next := w.now().Add(retryBackoff(job.RetryCount))
		job.NextRetryAt = &next
		log.Warn().Err(err).Str("order_id", job.OrderID.String()).Int("retry_count", job.RetryCount).
			Time("next_retry_at", next).Msg("print_worker: print failed, scheduled retry")
	}
	if uerr := w.jobs.Update(ctx, job); uerr != nil {
		log.Error().Err(uerr).Str("print_job_id", job.ID.String()).Msg("print_worker: failed to update job")
	}
}

func (w *PrintWorker) send(ctx context.Context, job *model.PrintJob) error {
	pdf, err := w.receipt(ctx, job)
	if err != nil {
		return err
	}
	return w.cb.Execute(func() error {
		return w.printer.Print(ctx, job.StoreID.String(), job.DeviceID, pdf)
	})
}

// receipt reuses the stored PDF when an earlier attempt rendered it.
func (w *PrintWorker) receipt(ctx context.Context, job *model.PrintJob) ([]byte, error) {
	if job.PDFPath != nil {
		if data, err := os.ReadFile(filepath.Join(w.storagePath, *job.PDFPath)); err == nil {
			return data, nil
		}
	}
	order, err := w.orders.FindByID(ctx, job.OrderID)
	if err != nil {
		return nil, fmt.Errorf("load order: %w", err)
	}
	storeName := ""
	if s, err := w.stores.FindByID(ctx, job.StoreID); err == nil {
		storeName = s.Name
	}
	data, err := infra.RenderReceiptPDF(order, storeName)
	if err != nil {
		return nil, err
	}
	if w.storagePath != "" {
		if name, err := infra.SaveReceipt(w.storagePath, order.OrderNumber, data); err == nil {
			job.PDFPath = &name
		} else {
			log.Warn().Err(err).Str("order_id", order.ID.String()).Msg("print_worker: could not store receipt")
		}
	}
	return data, nil
}

// retryBackoff: 30s, 1m, 2m, 4m ... capped at 15m.
func retryBackoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := 30 * time.Second << uint(attempt-1)
	if d > 15*time.Minute || d <= 0 {
		d = 15 * time.Minute
	}
	return d
}
