package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"balcao/internal/config"
	"balcao/internal/infra"
	"balcao/internal/repository"
	"balcao/internal/router"
	"balcao/internal/worker"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Structured logger: pretty in dev, JSON in prod
	if cfg.Production() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "balcao").Logger()
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	if err := infra.RunMigrations(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate schema")
	}

	rdb, err := infra.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Worker handlers are wired here (composition root) so that the pool
	// has full access to all infrastructure dependencies.
	printCB := infra.NewCircuitBreaker(infra.DefaultCBConfig())
	bridge := infra.NewPrintBridgeClient(cfg.PrintBridgeURL)
	mailer := infra.NewMailer(cfg)

	printJobs := repository.NewPrintJobRepository(db)
	printWorker := worker.NewPrintWorker(
		printJobs,
		repository.NewOrderRepository(db),
		repository.NewStoreRepository(db),
		bridge,
		printCB,
		rdb,
		cfg.ReceiptStoragePath,
	)

	handlers := map[string]worker.Handler{
		worker.QueuePrint: printWorker.Process,
	}
	if mailer.Enabled() {
		handlers[worker.QueueStockAlert] = worker.NewStockAlertWorker(mailer).Process
	} else {
		log.Warn().Msg("SMTP_HOST not set, stock alerts are logged only")
		handlers[worker.QueueStockAlert] = func(_ context.Context, raw json.RawMessage) {
			log.Warn().RawJSON("alert", raw).Msg("stock alert not sent: mailer disabled")
		}
	}
	worker.StartWorkerPool(ctx, rdb, cfg.WorkerPoolSize, handlers)
	worker.StartRetryCron(ctx, worker.RetryCronConfig{
		PrintJobs: printJobs,
		Worker:    printWorker,
		CB:        printCB,
	})

	r := router.New(ctx, router.Deps{Config: cfg, DB: db, Redis: rdb, PrintCB: printCB})

	srv := &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     r,
		ReadTimeout: 10 * time.Second,
		// no WriteTimeout: the panel stream is long-lived
		IdleTimeout: 60 * time.Second,
	}

	// Graceful shutdown on SIGINT / SIGTERM
	go func() {
		log.Info().Str("checkout_mode", cfg.CheckoutMode).Msgf("balcao listening on :%d", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server…")
	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server exited")
}
