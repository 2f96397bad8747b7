package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"balcao/internal/infra"
	"balcao/internal/model"
	"balcao/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// ── stubs ────────────────────────────────────────────────────────────────────

type stubPrintJobs struct {
	jobs    map[uuid.UUID]*model.PrintJob
	updates int
}

var _ repository.PrintJobRepository = (*stubPrintJobs)(nil)

func (s *stubPrintJobs) Create(_ context.Context, j *model.PrintJob) error {
	s.jobs[j.ID] = j
	return nil
}
func (s *stubPrintJobs) FindByID(_ context.Context, id uuid.UUID) (*model.PrintJob, error) {
	if j, ok := s.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}
func (s *stubPrintJobs) Update(_ context.Context, j *model.PrintJob) error {
	s.updates++
	cp := *j
	s.jobs[j.ID] = &cp
	return nil
}
func (s *stubPrintJobs) FindPendingRetry(_ context.Context, now time.Time, limit int) ([]model.PrintJob, error) {
	var out []model.PrintJob
	for _, j := range s.jobs {
		if j.Status == model.PrintPending && j.NextRetryAt != nil && !j.NextRetryAt.After(now) {
			out = append(out, *j)
		}
	}
	return out, nil
}

type stubOrders struct {
	repository.OrderRepository
	order *model.Order
}

func (s *stubOrders) FindByID(_ context.Context, id uuid.UUID) (*model.Order, error) {
	if s.order == nil || s.order.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.order, nil
}

type stubStores struct {
	repository.StoreRepository
}

func (stubStores) FindByID(_ context.Context, id uuid.UUID) (*model.Store, error) {
	return &model.Store{ID: id, Name: "Pastelaria"}, nil
}

type fakePrinter struct {
	err   error
	calls int
}

func (p *fakePrinter) Print(_ context.Context, _, _ string, pdf []byte) error {
	p.calls++
	if len(pdf) == 0 {
		return errors.New("empty pdf")
	}
	return p.err
}

type fakeMailer struct {
	to, subject, body string
}

func (m *fakeMailer) Send(to, subject, body, _ string) error {
	m.to, m.subject, m.body = to, subject, body
	return nil
}

func newPrintFixture(t *testing.T, printer *fakePrinter) (*PrintWorker, *stubPrintJobs, *model.PrintJob) {
	t.Helper()
	order := &model.Order{
		ID:          uuid.New(),
		OrderNumber: "PED-000001",
		Total:       decimal.NewFromInt(10),
		Items:       []model.OrderItem{{ProductName: "Pastel", Quantity: 1, Subtotal: decimal.NewFromInt(10)}},
	}
	job := &model.PrintJob{ID: uuid.New(), StoreID: uuid.New(), OrderID: order.ID, Status: model.PrintPending}
	jobs := &stubPrintJobs{jobs: map[uuid.UUID]*model.PrintJob{job.ID: job}}
	cb := infra.NewCircuitBreaker(infra.CircuitBreakerConfig{FailureThreshold: 100})
	w := NewPrintWorker(jobs, &stubOrders{order: order}, stubStores{}, printer, cb, nil, t.TempDir())
	return w, jobs, job
}

// ── tests ────────────────────────────────────────────────────────────────────

func TestPrintWorker_Success(t *testing.T) {
	printer := &fakePrinter{}
	w, jobs, job := newPrintFixture(t, printer)

	raw, _ := json.Marshal(PrintJobPayload{PrintJobID: job.ID.String()})
	w.Process(context.Background(), raw)

	assert.Equal(t, 1, printer.calls)
	got := jobs.jobs[job.ID]
	assert.Equal(t, model.PrintPrinted, got.Status)
	require.NotNil(t, got.PDFPath)
	assert.Equal(t, "receipt_PED-000001.pdf", *got.PDFPath)
}

func TestPrintWorker_FailureSchedulesRetryThenFails(t *testing.T) {
	printer := &fakePrinter{err: errors.New("paper jam")}
	w, jobs, job := newPrintFixture(t, printer)
	now := time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return now }

	w.Attempt(context.Background(), job)
	got := jobs.jobs[job.ID]
	assert.Equal(t, model.PrintPending, got.Status)
	assert.Equal(t, 1, got.RetryCount)
	require.NotNil(t, got.NextRetryAt)
	assert.Equal(t, now.Add(30*time.Second), *got.NextRetryAt)

	for i := 1; i < MaxPrintRetries; i++ {
		w.Attempt(context.Background(), jobs.jobs[job.ID])
	}
	got = jobs.jobs[job.ID]
	assert.Equal(t, model.PrintFailed, got.Status)
	assert.Nil(t, got.NextRetryAt)
	assert.Equal(t, MaxPrintRetries, printer.calls)
}

func TestProcessRetries_PicksDueJobs(t *testing.T) {
	printer := &fakePrinter{}
	w, jobs, job := newPrintFixture(t, printer)
	past := time.Now().Add(-time.Minute)
	jobs.jobs[job.ID].NextRetryAt = &past
	jobs.jobs[job.ID].RetryCount = 1

	processRetries(context.Background(), RetryCronConfig{PrintJobs: jobs, Worker: w, CB: w.cb}, time.Now())
	assert.Equal(t, model.PrintPrinted, jobs.jobs[job.ID].Status)
}

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, 30*time.Second, retryBackoff(1))
	assert.Equal(t, time.Minute, retryBackoff(2))
	assert.Equal(t, 15*time.Minute, retryBackoff(10))
}

func TestStockAlertWorker(t *testing.T) {
	m := &fakeMailer{}
	w := NewStockAlertWorker(m)
	raw, _ := json.Marshal(StockAlertPayload{StoreName: "Loja", ToEmail: "dono@loja.com", Item: "Pastel - Carne", Stock: 2, Threshold: 3})
	w.Process(context.Background(), raw)
	assert.Equal(t, "dono@loja.com", m.to)
	assert.Equal(t, "Estoque baixo: Pastel - Carne", m.subject)
	assert.Contains(t, m.body, "2 unidade(s)")
}

func TestProcessJob_RoutesByQueue(t *testing.T) {
	var got string
	handlers := map[string]Handler{
		QueuePrint: func(_ context.Context, p json.RawMessage) { got = string(p) },
	}
	raw, _ := json.Marshal(Job{Type: "print", Payload: json.RawMessage(`{"print_job_id":"x"}`)})
	processJob(context.Background(), handlers, QueuePrint, string(raw))
	assert.JSONEq(t, `{"print_job_id":"x"}`, got)

	got = ""
	processJob(context.Background(), handlers, QueueStockAlert, string(raw))
	assert.Empty(t, got)
}

func TestPrintWorker_RequeuedFailedJobGetsFreshRetries(t *testing.T) {
	printer := &fakePrinter{}
	w, jobs, job := newPrintFixture(t, printer)
	jobs.jobs[job.ID].Status = model.PrintFailed
	jobs.jobs[job.ID].RetryCount = MaxPrintRetries

	raw, _ := json.Marshal(PrintJobPayload{PrintJobID: job.ID.String()})
	w.Process(context.Background(), raw)

	got := jobs.jobs[job.ID]
	assert.Equal(t, model.PrintPrinted, got.Status)
	assert.Zero(t, got.RetryCount)
	assert.Equal(t, 1, printer.calls)
}
