package herdbookserver

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	logshttpmapper "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/http/mapper"
	logsmemory "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/memory"
	logsnotifier "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/notifier"
	logsapp "github.com/Apurer/herdbook-api/internal/domains/logs/application"
	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

func newLogsRouter(t *testing.T, store *logsmemory.Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := logsapp.NewService(store, logsnotifier.New(), logsapp.WithIdempotencyStore(logsmemory.NewIdempotencyStore()))
	return NewRouterWithGinEngine(gin.New(), ApiHandleFunctions{LogAPI: NewLogAPI(svc)})
}

func breedingPayload(cow string) map[string]any {
	return map[string]any{
		"cowId": cow,
		"date":  "2026-01-01",
		"breeding": map[string]any{
			"method":          "AI",
			"pregnancyStatus": "pending",
		},
	}
}

func TestLogAPI_AppendListReplace(t *testing.T) {
	router := newLogsRouter(t, logsmemory.NewStore())

	rec := doJSON(t, router, http.MethodGet, "/v1/logs/breedingLogs", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"collection":"breedingLogs","records":[]}`, rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/v1/logs/breedingLogs", breedingPayload("cow-1"))
	require.Equal(t, http.StatusOK, rec.Code)
	var written logshttpmapper.WriteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &written))
	require.NotEmpty(t, written.Record.ID)
	assert.Empty(t, written.Warning)

	replacement := breedingPayload("cow-1")
	replacement["breeding"].(map[string]any)["technician"] = "Rahim"
	rec = doJSON(t, router, http.MethodPut, "/v1/logs/breedingLogs/"+written.Record.ID, replacement)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/v1/logs/breedingLogs/"+written.Record.ID+"/pregnancy", map[string]string{"status": "confirmed"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &written))
	require.NotNil(t, written.Record.Breeding.ExpectedCalvingDate)
	assert.Equal(t, "Rahim", written.Record.Breeding.Technician)

	rec = doJSON(t, router, http.MethodPut, "/v1/logs/breedingLogs/missing", breedingPayload("cow-1"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogAPI_Rejections(t *testing.T) {
	router := newLogsRouter(t, logsmemory.NewStore())

	rec := doJSON(t, router, http.MethodGet, "/v1/logs/milkLogs", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/v1/logs/feedLogs", breedingPayload("cow-1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, router, http.MethodPatch, "/v1/logs/feedLogs/any/pregnancy", map[string]string{"status": "confirmed"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestLogAPI_IdempotentAppend(t *testing.T) {
	store := logsmemory.NewStore()
	router := newLogsRouter(t, store)

	first := doJSON(t, router, http.MethodPost, "/v1/logs/breedingLogs", breedingPayload("cow-2"), IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusOK, first.Code)
	second := doJSON(t, router, http.MethodPost, "/v1/logs/breedingLogs", breedingPayload("cow-2"), IdempotencyKeyHeader, "retry-1")
	require.Equal(t, http.StatusOK, second.Code)

	var a, b logshttpmapper.WriteResponse
	require.NoError(t, json.Unmarshal(first.Body.Bytes(), &a))
	require.NoError(t, json.Unmarshal(second.Body.Bytes(), &b))
	assert.Equal(t, a.Record.ID, b.Record.ID)
	assert.True(t, b.Replayed)

	conflict := doJSON(t, router, http.MethodPost, "/v1/logs/breedingLogs", breedingPayload("cow-3"), IdempotencyKeyHeader, "retry-1")
	assert.Equal(t, http.StatusConflict, conflict.Code)
}

func TestLogAPI_StreamSendsSnapshots(t *testing.T) {
	router := newLogsRouter(t, logsmemory.NewStore())
	server := httptest.NewServer(router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/logs/feedLogs/stream", nil)
	require.NoError(t, err)
	resp, err := server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	nextEvent := func() (string, logshttpmapper.CollectionResponse) {
		var name string
		var payload logshttpmapper.CollectionResponse
		for {
			line, err := reader.ReadString('\n')
			require.NoError(t, err)
			line = strings.TrimRight(line, "\n")
			switch {
			case strings.HasPrefix(line, "event:"):
				name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &payload))
			case line == "" && name != "":
				return name, payload
			}
		}
	}

	name, snapshot := nextEvent()
	assert.Equal(t, domain.CollectionFeed.EventName(), name)
	assert.Empty(t, snapshot.Records)

	rec := doJSON(t, router, http.MethodPost, "/v1/logs/feedLogs", map[string]any{
		"cowId": "cow-5",
		"date":  "2026-02-01",
		"feed":  map[string]any{"feedType": "hay", "quantityKg": 3},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	_, snapshot = nextEvent()
	require.Len(t, snapshot.Records, 1)
	assert.Equal(t, "cow-5", snapshot.Records[0].CowID)
}
