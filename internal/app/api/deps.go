package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"go.temporal.io/sdk/client"
	temporalotel "go.temporal.io/sdk/contrib/opentelemetry"
	workerlog "go.temporal.io/sdk/log"
	"gorm.io/gorm"

	assetsclient "github.com/Apurer/herdbook-api/internal/clients/http/assets"
	muzzleclient "github.com/Apurer/herdbook-api/internal/clients/http/muzzle"
	logsmemory "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/memory"
	logspostgres "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/persistence/postgres"
	logssqlite "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/sqlite"
	logsports "github.com/Apurer/herdbook-api/internal/domains/logs/ports"
	assetsgateway "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/external/assets"
	muzzlematcher "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/external/muzzle"
	regmemory "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/memory"
	regpostgres "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/persistence/postgres"
	regports "github.com/Apurer/herdbook-api/internal/domains/registrations/ports"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
	"github.com/Apurer/herdbook-api/internal/platform/migrations"
	platformobservability "github.com/Apurer/herdbook-api/internal/platform/observability"
	"github.com/Apurer/herdbook-api/internal/platform/temporal/codec"
)

// ConnectTemporal dials Temporal with tracing, structured logging and sealed payloads, unless submissions cannot run there.
func ConnectTemporal(cfg Config, instruments *platformobservability.Instruments, tracerName string) (client.Client, error) {
	if err := CheckTemporalSubmissions(cfg); err != nil {
		return nil, err
	}
	dataConverter, err := codec.DataConverter(cfg.TemporalPayloadKey)
	if err != nil {
		return nil, err
	}
	tracingInterceptor, err := temporalotel.NewTracingInterceptor(temporalotel.TracerOptions{Tracer: instruments.Tracer(tracerName)})
	if err != nil {
		return nil, err
	}
	options := client.Options{
		HostPort:      cfg.TemporalAddress,
		Namespace:     cfg.TemporalNamespace,
		Logger:        workerlog.NewStructuredLogger(instruments.Logger),
		DataConverter: dataConverter,
	}
	options.Interceptors = append(options.Interceptors, tracingInterceptor)
	return client.Dial(options)
}

// CheckTemporalSubmissions reports why submissions cannot go through Temporal workers.
// Workers read attachments from the blob store, so it must be shared, and payloads
// carry the user's bearer token, so they must be sealed.
func CheckTemporalSubmissions(cfg Config) error {
	if cfg.TemporalDisabled {
		return errors.New("temporal disabled via TEMPORAL_DISABLED env")
	}
	if cfg.BlobDriver != blob.DriverS3 {
		return fmt.Errorf("BLOB_DRIVER=%s is not shared with workers, s3 is required", cfg.BlobDriver)
	}
	if len(cfg.TemporalPayloadKey) == 0 {
		return errors.New("TEMPORAL_PAYLOAD_KEY is not set, workflow payloads would be stored unencrypted")
	}
	return nil
}

// BuildAssetGateway wires the farm backend client onto the blob store holding attachment bytes.
func BuildAssetGateway(cfg Config, blobs blob.Store) (*assetsgateway.Gateway, error) {
	if cfg.AssetAPIBaseURL == "" {
		return nil, errors.New("ASSET_API_BASE_URL is not set")
	}
	c, err := assetsclient.NewClient(cfg.AssetAPIBaseURL, assetsclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}))
	if err != nil {
		return nil, fmt.Errorf("build asset client: %w", err)
	}
	return assetsgateway.NewGateway(c, blobs), nil
}

// BuildMuzzleMatcher wires the muzzle identification client.
func BuildMuzzleMatcher(cfg Config) *muzzlematcher.Matcher {
	c := muzzleclient.NewClient(cfg.MuzzleAPIBaseURL,
		muzzleclient.WithHTTPClient(&http.Client{Timeout: cfg.HTTPClientTimeout}),
		muzzleclient.WithToken(cfg.MuzzleAPIToken),
	)
	return muzzlematcher.NewMatcher(c)
}

// BuildRegistrationRepository picks postgres when db is available and migrates it.
func BuildRegistrationRepository(db *gorm.DB, logger *slog.Logger) regports.Repository {
	if db == nil {
		logger.Warn("registration drafts kept in memory")
		return regmemory.NewRepository()
	}
	if err := migrations.Run(db); err != nil {
		logger.Warn("failed to migrate postgres, falling back to memory", slog.String("error", err.Error()))
		return regmemory.NewRepository()
	}
	logger.Info("registration repository configured with postgres")
	return regpostgres.NewRepository(db)
}

// BuildLogStores selects the key space backing the log collections plus its idempotency store.
func BuildLogStores(ctx context.Context, cfg Config, db *gorm.DB, logger *slog.Logger) (logsports.KeyValueStore, logsports.IdempotencyStore, func(), error) {
	noop := func() {}
	switch cfg.LogStoreDriver {
	case LogStorePostgres:
		if db == nil {
			return nil, nil, noop, errors.New("log store driver postgres needs a database connection")
		}
		if err := migrations.Run(db); err != nil {
			return nil, nil, noop, fmt.Errorf("migrate log store: %w", err)
		}
		logger.Info("log collections configured with postgres")
		return logspostgres.NewStore(db), logspostgres.NewIdempotencyStore(db), noop, nil
	case LogStoreSQLite:
		store, err := logssqlite.Open(cfg.LogStoreSQLitePath)
		if err != nil {
			return nil, nil, noop, fmt.Errorf("open sqlite log store: %w", err)
		}
		logger.InfoContext(ctx, "log collections configured with sqlite", slog.String("path", cfg.LogStoreSQLitePath))
		return store, logsmemory.NewIdempotencyStore(), func() { _ = store.Close() }, nil
	default:
		logger.Info("log collections kept in memory")
		return logsmemory.NewStore(), logsmemory.NewIdempotencyStore(), noop, nil
	}
}
