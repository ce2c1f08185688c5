package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	herdbookserver "github.com/Apurer/herdbook-api/go"

	logsnotifier "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/notifier"
	logsobs "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/observability"
	logsapp "github.com/Apurer/herdbook-api/internal/domains/logs/application"
	regobs "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/observability"
	regworkflows "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/workflows"
	regapp "github.com/Apurer/herdbook-api/internal/domains/registrations/application"
	regports "github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
	platformobservability "github.com/Apurer/herdbook-api/internal/platform/observability"
	platformpostgres "github.com/Apurer/herdbook-api/internal/platform/postgres"
)

// ServiceName identifies the API process in traces and logs.
const ServiceName = "herdbook-api"

// Run boots the herdbook HTTP API with observability, stores, and workflows wired.
func Run(ctx context.Context) error {
	cfg, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, ServiceName)
	if err != nil {
		return fmt.Errorf("failed to initialize observability: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	db, cleanupDB := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger)
	defer cleanupDB()

	blobs, err := blob.Open(ctx, string(cfg.BlobDriver))
	if err != nil {
		return fmt.Errorf("failed to open blob store: %w", err)
	}

	registrations, closeTemporal := buildRegistrationService(cfg, instruments, db, blobs)
	defer closeTemporal()

	logStore, idempotency, closeLogs, err := BuildLogStores(ctx, cfg, db, logger)
	if err != nil {
		return err
	}
	defer closeLogs()
	coreLogs := logsapp.NewService(logStore, logsnotifier.New(logsnotifier.WithRegisterer(instruments.Registry)), logsapp.WithIdempotencyStore(idempotency))
	logService := logsobs.New(
		coreLogs,
		logsobs.WithLogger(logger),
		logsobs.WithTracer(instruments.Tracer("internal.logs.application")),
		logsobs.WithMeter(instruments.Meter("internal.logs.application")),
	)

	handlers := herdbookserver.ApiHandleFunctions{
		RegistrationAPI: herdbookserver.NewRegistrationAPI(registrations),
		LogAPI:          herdbookserver.NewLogAPI(logService),
		ValidationAPI:   herdbookserver.NewValidationAPI(),
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), otelgin.Middleware(ServiceName))
	router := herdbookserver.NewRouterWithGinEngine(engine, handlers)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(instruments.Registry, promhttp.HandlerOpts{})))
	router.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	logger.Info("herdbook API listening", slog.String("addr", ln.Addr().String()))
	if err := serve(ctx, &http.Server{Handler: router, ReadHeaderTimeout: 10 * time.Second}, ln, logger); err != nil {
		logger.Error("herdbook API server exited", slog.String("addr", cfg.Addr()), slog.String("error", err.Error()))
		return err
	}
	logger.Info("herdbook API stopped")
	return nil
}

const shutdownTimeout = 10 * time.Second

// serve runs srv on ln until ctx ends, then drains it. Request contexts are
// cancelled when draining starts so open collection streams close.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, logger *slog.Logger) error {
	base, cancelRequests := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelRequests()
	srv.BaseContext = func(net.Listener) context.Context { return base }
	srv.RegisterOnShutdown(cancelRequests)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down herdbook API", slog.Duration("timeout", shutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// buildRegistrationService falls back to inline submissions when Temporal is unavailable.
func buildRegistrationService(cfg Config, instruments *platformobservability.Instruments, db *gorm.DB, blobs blob.Store) (regports.Service, func()) {
	logger := instruments.Logger
	closeFn := func() {}
	opts := []regapp.Option{regapp.WithMuzzleMatcher(BuildMuzzleMatcher(cfg))}

	gateway, err := BuildAssetGateway(cfg, blobs)
	if err != nil {
		logger.Warn("farm backend unavailable, submissions and reference data disabled", slog.String("error", err.Error()))
	} else {
		opts = append(opts, regapp.WithReferenceSource(gateway), regapp.WithOrchestrator(regworkflows.NewInlineSubmissions(gateway)))
		if temporalClient, err := ConnectTemporal(cfg, instruments, "temporal-client"); err != nil {
			logger.Warn("Temporal workflows unavailable, submitting inline", slog.String("error", err.Error()))
		} else {
			closeFn = temporalClient.Close
			opts = append(opts, regapp.WithOrchestrator(regworkflows.NewTemporalSubmissions(temporalClient)))
			logger.Info("Temporal workflows enabled", slog.String("namespace", cfg.TemporalNamespace))
		}
	}

	core := regapp.NewService(BuildRegistrationRepository(db, logger), blobs, opts...)
	return regobs.New(
		core,
		regobs.WithLogger(logger),
		regobs.WithTracer(instruments.Tracer("internal.registrations.application")),
		regobs.WithMeter(instruments.Meter("internal.registrations.application")),
	), closeFn
}
