//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	// Dashboard drives the herdbook API.
	ProviderName = "herdbook-api"
	ConsumerName = "herdbook-dashboard"

	// The herdbook API in turn consumes the farm backend.
	FarmBackendName = "farm-backend"

	StateLogsBaseline  = "log collections are empty"
	StateFeedLogExists = "a feed log for cow pact-cow exists"
	StateReferenceData = "reference lists are populated"
	StateTokenExpired  = "the bearer token has expired"
)

const (
	ExampleCowID       = "pact-cow"
	ExampleDate        = "2026-02-01"
	ExampleBearerToken = "pact-token"
	ExpiredBearerToken = "expired-token"
	ExampleValidPhone  = "01712345678"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the dashboard consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleFeedPayload provides stable test data for feed log interactions.
func ExampleFeedPayload() map[string]any {
	return map[string]any{
		"cowId": ExampleCowID,
		"date":  ExampleDate,
		"feed": map[string]any{
			"feedType":   "silage",
			"quantityKg": 12.5,
		},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
