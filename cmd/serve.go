package main

import (
	"context"
	"fmt"

	"group-task-tracker/config"
	"group-task-tracker/internal/distribution"
	"group-task-tracker/internal/monitoring"
	"group-task-tracker/internal/repository"
	"group-task-tracker/internal/transport/http/middleware"
	handlers_fiber "group-task-tracker/internal/transport/http/server/handlers-fiber"
	"group-task-tracker/internal/usecase"
	"group-task-tracker/internal/usecase/domain"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type application struct {
	log       *zap.SugaredLogger
	repo      repository.Repository
	uc        usecase.InterfaceUsecase
	collector *monitoring.Collector
}

func newApplication(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*application, error) {
	repo, err := repository.New(ctx, cfg.Storage.Backend, log, cfg)
	if err != nil {
		log.Errorw("repository initialization error", "error", err)
		return nil, err
	}
	if err := repo.OnStart(ctx); err != nil {
		log.Errorw("repository start error", "error", err)
		return nil, err
	}

	collector := monitoring.NewCollector(prometheus.DefaultRegisterer, "tasktracker")

	proposers := []distribution.Proposer{distribution.NewRuleBased()}
	if cfg.AI.Enabled {
		client := distribution.NewOpenAIClient(cfg.AI.APIKey, cfg.AI.BaseURL, cfg.AI.Timeout)
		proposers = append(proposers, distribution.NewAIEngine(client, distribution.AIConfig{
			Model:       cfg.AI.Model,
			Temperature: cfg.AI.Temperature,
			MaxTokens:   cfg.AI.MaxTokens,
			Timeout:     cfg.AI.Timeout,
		}, log, collector))
	}
	registry := distribution.NewRegistry(proposers...)
	log.Infow("distribution methods registered", "methods", registry.Methods())

	uc := usecase.New(log, ctx, repo, registry, domain.Settings{
		Timeout:         cfg.HTTP.RequestTimeout,
		PreviewTTL:      cfg.Distribution.PreviewTTL,
		MaxRangeDays:    cfg.Distribution.MaxRangeDays,
		AsyncGeneration: cfg.Distribution.AsyncGeneration,
	}, domain.WithMetrics(collector))

	return &application{log: log, repo: repo, uc: uc, collector: collector}, nil
}

func (a *application) close() {
	if err := a.repo.OnStop(context.Background()); err != nil {
		a.log.Warnw("repository stop error", "error", err)
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) error {
	app, err := newApplication(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer app.close()

	// inline AI generation answers within the same request
	writeTimeout := cfg.HTTP.RequestTimeout
	if cfg.AI.Enabled && !cfg.Distribution.AsyncGeneration {
		writeTimeout += cfg.AI.Timeout
	}

	perf := monitoring.NewPerfBuffer(cfg.Monitoring.SampleCapacity)

	serv := handlers_fiber.NewApp(fiber.Config{
		ReadTimeout:           cfg.HTTP.RequestTimeout,
		WriteTimeout:          writeTimeout,
		DisableStartupMessage: true,
	})
	serv.Use(recover.New())
	serv.Use(requestid.New())
	serv.Use(middleware.RequestLogger(log))
	serv.Use(middleware.Metrics(app.collector, perf))

	serv.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	serv.Get(cfg.Monitoring.MetricsPath, adaptor.HTTPHandler(promhttp.Handler()))

	api := serv.Group("/api", middleware.Auth(log, []byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer))
	h := handlers_fiber.NewHandler(log, app.uc, perf)
	handlers_fiber.RegisterHandlers(api, h)

	go app.uc.RunSweeper(ctx, cfg.Distribution.SweepInterval)

	listenErr := make(chan error, 1)
	go func() {
		log.Infow("http server listening", "addr", cfg.ServerAddr(), "backend", cfg.Storage.Backend)
		if err := serv.Listen(cfg.ServerAddr()); err != nil {
			listenErr <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-listenErr:
		log.Errorw("failed to start server", "error", err)
		return fmt.Errorf("listen: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	done := make(chan struct{})
	go func() {
		_ = serv.Shutdown()
		app.uc.Wait()
		close(done)
	}()

	select {
	case <-done:
		log.Infow("server stopped")
	case <-shutdownCtx.Done():
		log.Warnw("server shutdown timeout", "timeout", cfg.Server.ShutdownTimeout)
	}
	return nil
}
