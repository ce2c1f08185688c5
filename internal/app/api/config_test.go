package api

import (
	"bytes"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	muzzleclient "github.com/Apurer/herdbook-api/internal/clients/http/muzzle"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, key := range []string{
		"PORT", "POSTGRES_DSN", "TEMPORAL_DISABLED", "ASSET_API_BASE_URL", "MUZZLE_API_BASE_URL",
		"MUZZLE_API_TOKEN", "LOG_STORE_DRIVER", "LOG_STORE_SQLITE_PATH", "BLOB_DRIVER",
		"DRAFT_TTL_HOURS", "HTTP_CLIENT_TIMEOUT_SECONDS", "TEMPORAL_PAYLOAD_KEY",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, muzzleclient.DefaultBaseURL, cfg.MuzzleAPIBaseURL)
	assert.Equal(t, LogStoreMemory, cfg.LogStoreDriver)
	assert.Equal(t, blob.DriverMemory, cfg.BlobDriver)
	assert.Equal(t, 72*time.Hour, cfg.DraftTTL)
	assert.Equal(t, 60*time.Second, cfg.HTTPClientTimeout)
	assert.False(t, cfg.TemporalDisabled)
	assert.Empty(t, cfg.TemporalPayloadKey)
}

func TestLoadConfig_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("TEMPORAL_DISABLED", "true")
	t.Setenv("LOG_STORE_DRIVER", "SQLite")
	t.Setenv("LOG_STORE_SQLITE_PATH", "/tmp/logs.db")
	t.Setenv("DRAFT_TTL_HOURS", "24")
	t.Setenv("HTTP_CLIENT_TIMEOUT_SECONDS", "5")
	t.Setenv("TEMPORAL_PAYLOAD_KEY", base64.StdEncoding.EncodeToString(bytes.Repeat([]byte{4}, 32)))

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Addr())
	assert.True(t, cfg.TemporalDisabled)
	assert.Equal(t, LogStoreSQLite, cfg.LogStoreDriver)
	assert.Equal(t, "/tmp/logs.db", cfg.LogStoreSQLitePath)
	assert.Equal(t, 24*time.Hour, cfg.DraftTTL)
	assert.Equal(t, 5*time.Second, cfg.HTTPClientTimeout)
	assert.Len(t, cfg.TemporalPayloadKey, 32)
}

func TestLoadConfig_Rejects(t *testing.T) {
	cases := map[string]map[string]string{
		"unknown driver":       {"LOG_STORE_DRIVER": "redis"},
		"postgres without dsn": {"LOG_STORE_DRIVER": "postgres", "POSTGRES_DSN": ""},
		"negative ttl":         {"DRAFT_TTL_HOURS": "-1"},
		"non numeric timeout":  {"HTTP_CLIENT_TIMEOUT_SECONDS": "soon"},
		"short payload key":    {"TEMPORAL_PAYLOAD_KEY": "c2hvcnQ="},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			t.Setenv("LOG_STORE_DRIVER", "")
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			require.Error(t, err)
		})
	}
}

func TestCheckTemporalSubmissions(t *testing.T) {
	ready := Config{BlobDriver: blob.DriverS3, TemporalPayloadKey: bytes.Repeat([]byte{1}, 32)}
	require.NoError(t, CheckTemporalSubmissions(ready))

	cases := map[string]func(*Config){
		"disabled":       func(c *Config) { c.TemporalDisabled = true },
		"local blobs":    func(c *Config) { c.BlobDriver = blob.DriverMemory },
		"no payload key": func(c *Config) { c.TemporalPayloadKey = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := ready
			mutate(&cfg)
			require.Error(t, CheckTemporalSubmissions(cfg))
		})
	}
}
