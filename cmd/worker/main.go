package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/worker"
	"go.temporal.io/sdk/workflow"

	"github.com/Apurer/herdbook-api/internal/app/api"
	"github.com/Apurer/herdbook-api/internal/platform/blob"
	platformobservability "github.com/Apurer/herdbook-api/internal/platform/observability"
	regactivities "github.com/Apurer/herdbook-api/internal/platform/temporal/activities/registrations"
	regworkflows "github.com/Apurer/herdbook-api/internal/platform/temporal/workflows/registrations"
)

func main() {
	ctx := context.Background()
	const serviceName = "herdbook-worker"
	cfg, err := api.LoadConfig()
	if err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	instruments, shutdown, err := platformobservability.Init(ctx, serviceName)
	if err != nil {
		log.Fatalf("failed to initialize observability: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdown(shutdownCtx); err != nil {
			instruments.Logger.Error("failed to shutdown observability", slog.String("error", err.Error()))
		}
	}()
	logger := instruments.Logger

	// Refuses to start unless the blob store is shared with the API and payloads are sealed.
	temporalClient, err := api.ConnectTemporal(cfg, instruments, "temporal-worker")
	if err != nil {
		logger.Error("failed to create Temporal client", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer temporalClient.Close()

	blobs, err := blob.Open(ctx, string(cfg.BlobDriver))
	if err != nil {
		logger.Error("failed to open blob store", slog.String("error", err.Error()))
		os.Exit(1)
	}
	gateway, err := api.BuildAssetGateway(cfg, blobs)
	if err != nil {
		logger.Error("failed to configure farm backend gateway", slog.String("error", err.Error()))
		os.Exit(1)
	}
	submissionActivities := regactivities.NewActivities(gateway)

	w := worker.New(temporalClient, regworkflows.AssetSubmissionTaskQueue, worker.Options{})
	w.RegisterWorkflowWithOptions(regworkflows.AssetSubmissionWorkflow, workflow.RegisterOptions{Name: regworkflows.AssetSubmissionWorkflowName})
	w.RegisterActivityWithOptions(submissionActivities.SubmitAsset, activity.RegisterOptions{Name: regactivities.SubmitAssetActivityName})

	logger.Info("worker listening", slog.String("taskQueue", regworkflows.AssetSubmissionTaskQueue), slog.String("namespace", cfg.TemporalNamespace))
	if err := w.Run(worker.InterruptCh()); err != nil {
		logger.Error("Temporal worker exited with error", slog.String("error", err.Error()))
		return
	}
	logger.Info("Temporal worker stopped")
}
