package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/Apurer/herdbook-api/internal/app/api"
	regpostgres "github.com/Apurer/herdbook-api/internal/domains/registrations/adapters/persistence/postgres"
	regapp "github.com/Apurer/herdbook-api/internal/domains/registrations/application"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
	platformpostgres "github.com/Apurer/herdbook-api/internal/platform/postgres"
)

func main() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	db, cleanup := platformpostgres.ConnectOptional(ctx, cfg.PostgresDSN, logger, platformpostgres.WithMaxOpenConns(2))
	defer cleanup()
	if db == nil {
		log.Fatal("POSTGRES_DSN not set or connection failed; cannot purge drafts")
	}
	blobs, err := blob.Open(ctx, string(cfg.BlobDriver))
	if err != nil {
		log.Fatalf("failed to open blob store: %v", err)
	}

	service := regapp.NewService(regpostgres.NewRepository(db), blobs)
	purged, err := service.PurgeAbandoned(ctx, cfg.DraftTTL)
	if err != nil {
		log.Fatalf("failed to purge drafts: %v", err)
	}
	logger.Info("draft purge completed", slog.Int("purged", purged), slog.Duration("ttl", cfg.DraftTTL))
}
