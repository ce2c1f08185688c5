package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	muzzleclient "github.com/Apurer/herdbook-api/internal/clients/http/muzzle"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
	"github.com/Apurer/herdbook-api/internal/platform/temporal/codec"
)

// LogStoreDriver selects where the log collections are kept.
type LogStoreDriver string

const (
	LogStoreMemory   LogStoreDriver = "memory"
	LogStoreSQLite   LogStoreDriver = "sqlite"
	LogStorePostgres LogStoreDriver = "postgres"
)

const (
	defaultDraftTTL          = 72 * time.Hour
	defaultHTTPClientTimeout = 60 * time.Second
)

// Config carries environment-driven settings for the API, worker and purger processes.
type Config struct {
	Port              string
	PostgresDSN       string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool

	// TemporalPayloadKey seals workflow payloads; Temporal stays off without it.
	TemporalPayloadKey []byte

	AssetAPIBaseURL  string
	MuzzleAPIBaseURL string
	MuzzleAPIToken   string

	LogStoreDriver     LogStoreDriver
	LogStoreSQLitePath string
	BlobDriver         blob.Driver

	DraftTTL          time.Duration
	HTTPClientTimeout time.Duration
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:               envDefault("PORT", "8080"),
		PostgresDSN:        strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		TemporalAddress:    envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace:  envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:   isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		AssetAPIBaseURL:    strings.TrimSpace(os.Getenv("ASSET_API_BASE_URL")),
		MuzzleAPIBaseURL:   envDefault("MUZZLE_API_BASE_URL", muzzleclient.DefaultBaseURL),
		MuzzleAPIToken:     strings.TrimSpace(os.Getenv("MUZZLE_API_TOKEN")),
		LogStoreSQLitePath: envDefault("LOG_STORE_SQLITE_PATH", "herdbook-logs.db"),
		BlobDriver:         blob.Driver(strings.ToLower(envDefault("BLOB_DRIVER", string(blob.DriverMemory)))),
		DraftTTL:           defaultDraftTTL,
		HTTPClientTimeout:  defaultHTTPClientTimeout,
	}

	switch driver := LogStoreDriver(strings.ToLower(envDefault("LOG_STORE_DRIVER", string(LogStoreMemory)))); driver {
	case LogStoreMemory, LogStoreSQLite, LogStorePostgres:
		cfg.LogStoreDriver = driver
	default:
		return Config{}, fmt.Errorf("LOG_STORE_DRIVER must be one of memory, sqlite, postgres; got %q", driver)
	}
	if cfg.LogStoreDriver == LogStorePostgres && cfg.PostgresDSN == "" {
		return Config{}, fmt.Errorf("LOG_STORE_DRIVER=postgres requires POSTGRES_DSN")
	}

	if raw := strings.TrimSpace(os.Getenv("TEMPORAL_PAYLOAD_KEY")); raw != "" {
		key, err := codec.ParseKey(raw)
		if err != nil {
			return Config{}, fmt.Errorf("TEMPORAL_PAYLOAD_KEY: %w", err)
		}
		cfg.TemporalPayloadKey = key
	}

	hours, err := positiveInt("DRAFT_TTL_HOURS")
	if err != nil {
		return Config{}, err
	}
	if hours > 0 {
		cfg.DraftTTL = time.Duration(hours) * time.Hour
	}
	seconds, err := positiveInt("HTTP_CLIENT_TIMEOUT_SECONDS")
	if err != nil {
		return Config{}, err
	}
	if seconds > 0 {
		cfg.HTTPClientTimeout = time.Duration(seconds) * time.Second
	}
	return cfg, nil
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return ":" + c.Port
}

// positiveInt returns 0 when key is unset.
func positiveInt(key string) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("%s must be a positive integer", key)
	}
	return n, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
