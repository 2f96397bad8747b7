package worker

// Background goroutine that periodically re-sends print jobs left pending with
// a next_retry_at in the past. It stops early while the print bridge circuit is
// open.

import (
	"context"
	"time"

	"balcao/internal/infra"
	"balcao/internal/repository"

	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
)

type RetryCronConfig struct {
	PrintJobs repository.PrintJobRepository
	Worker    *PrintWorker
	CB        *infra.CircuitBreaker
}

// StartRetryCron ticks every 30s until ctx is done.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")
		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg, time.Now())
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig, now time.Time) {
	if cfg.CB.State() == infra.CBOpen {
		log.Debug().Msg("retry_cron: circuit breaker is open, skipping tick")
		return
	}

	jobs, err := cfg.PrintJobs.FindPendingRetry(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(jobs) == 0 {
		return
	}
	log.Info().Int("count", len(jobs)).Msg("retry_cron: retrying print jobs")

	for i := range jobs {
		// the breaker may trip mid-batch
		if cfg.CB.State() == infra.CBOpen {
			log.Debug().Msg("retry_cron: circuit breaker opened mid-batch, stopping")
			return
		}
		cfg.Worker.Attempt(ctx, &jobs[i])
	}
}
