package herdbookserver

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	logshttpmapper "github.com/Apurer/herdbook-api/internal/domains/logs/adapters/http/mapper"
	logstypes "github.com/Apurer/herdbook-api/internal/domains/logs/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
	logsports "github.com/Apurer/herdbook-api/internal/domains/logs/ports"
	apierrors "github.com/Apurer/herdbook-api/internal/shared/errors"
)

// IdempotencyKeyHeader lets clients retry an append without duplicating the record.
const IdempotencyKeyHeader = "Idempotency-Key"

// LogAPI exposes the breeding, feed and birth collections.
type LogAPI struct {
	service logsports.Service
}

// NewLogAPI creates a LogAPI backed by the provided service.
func NewLogAPI(service logsports.Service) LogAPI {
	return LogAPI{service: service}
}

// Get /v1/logs/:collection
func (api *LogAPI) ListLogs(c *gin.Context) {
	collection, ok := parseCollectionParam(c)
	if !ok {
		return
	}
	records := api.service.ReadAll(c.Request.Context(), collection)
	c.JSON(http.StatusOK, logshttpmapper.FromRecords(collection, records))
}

// Post /v1/logs/:collection
// Appends a record. Unsaved writes still answer 200 with a warning.
func (api *LogAPI) AppendLog(c *gin.Context) {
	collection, ok := parseCollectionParam(c)
	if !ok {
		return
	}
	var payload logshttpmapper.RecordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := api.service.Append(c.Request.Context(), logstypes.AppendInput{
		Collection:     collection,
		Record:         logshttpmapper.ToRecord(payload),
		IdempotencyKey: strings.TrimSpace(c.GetHeader(IdempotencyKeyHeader)),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logshttpmapper.FromWriteResult(result))
}

// Put /v1/logs/:collection/:id
func (api *LogAPI) ReplaceLog(c *gin.Context) {
	collection, ok := parseCollectionParam(c)
	if !ok {
		return
	}
	var payload logshttpmapper.RecordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := api.service.Replace(c.Request.Context(), logstypes.ReplaceInput{
		Collection: collection,
		ID:         c.Param("id"),
		Record:     logshttpmapper.ToRecord(payload),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logshttpmapper.FromWriteResult(result))
}

// Patch /v1/logs/breedingLogs/:id/pregnancy
func (api *LogAPI) UpdatePregnancyStatus(c *gin.Context) {
	collection, ok := parseCollectionParam(c)
	if !ok {
		return
	}
	if collection != domain.CollectionBreeding {
		respondProblem(c, apierrors.ErrNotFound.WithDetail("pregnancy status only exists on "+string(domain.CollectionBreeding)))
		return
	}
	var payload logshttpmapper.PregnancyRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondError(c, http.StatusBadRequest, err)
		return
	}
	result, err := api.service.UpdatePregnancyStatus(c.Request.Context(), logstypes.PregnancyInput{
		ID:     c.Param("id"),
		Status: domain.PregnancyStatus(strings.ToLower(strings.TrimSpace(payload.Status))),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logshttpmapper.FromWriteResult(result))
}

// Get /v1/logs/:collection/stream
// Server-Sent Events: the collection is sent on connect and after every change.
func (api *LogAPI) StreamLogs(c *gin.Context) {
	collection, ok := parseCollectionParam(c)
	if !ok {
		return
	}
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Status(http.StatusOK)

	err := api.service.Watch(c.Request.Context(), collection, func(records []domain.Record) {
		c.SSEvent(collection.EventName(), logshttpmapper.FromRecords(collection, records))
		c.Writer.Flush()
	})
	if err != nil {
		c.SSEvent("error", gin.H{"error": err.Error()})
		c.Writer.Flush()
	}
}

func parseCollectionParam(c *gin.Context) (domain.Collection, bool) {
	collection, err := domain.ParseCollection(c.Param("collection"))
	if err != nil {
		respondProblem(c, apierrors.NewNotFoundProblem("collection", c.Param("collection")))
		return "", false
	}
	return collection, true
}
