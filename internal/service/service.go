// Package service holds the business operations of the order engine. Services
// depend on repository interfaces and are wired in the router.
package service

import (
	"context"
	"sync"
	"time"

	"balcao/internal/worker"

	"gorm.io/gorm"
)

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// Clock returns the current time; tests pin it.
type Clock func() time.Time

func (c Clock) now() time.Time {
	if c == nil {
		return time.Now()
	}
	return c()
}

func strPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// Jobs is the asynchronous side of a sale: receipt printing, stock alerts and
// the dead-letter list for failed reconciliation steps.
type Jobs interface {
	EnqueuePrint(ctx context.Context, p worker.PrintJobPayload) error
	EnqueueStockAlert(ctx context.Context, p worker.StockAlertPayload) error
	DeadLetter(ctx context.Context, queue, jobType string, payload any, reason string)
}

// parallel runs fn for every index in its own goroutine and waits for all.
func parallel(n int, fn func(i int)) {
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func(i int) {
			defer wg.Done()
			fn(i)
		}(i)
	}
	wg.Wait()
}
