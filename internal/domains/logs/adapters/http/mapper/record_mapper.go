package mapper

import (
	openapi_types "github.com/oapi-codegen/runtime/types"

	types "github.com/Apurer/herdbook-api/internal/domains/logs/application/types"
	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

// RecordPayload is the inbound body for append and replace; ids and timestamps are server-owned.
type RecordPayload struct {
	CowID    string                  `json:"cowId" binding:"required"`
	Date     openapi_types.Date      `json:"date"`
	Breeding *domain.BreedingDetails `json:"breeding,omitempty"`
	Feed     *domain.FeedDetails     `json:"feed,omitempty"`
	Birth    *domain.BirthDetails    `json:"birth,omitempty"`
}

// PregnancyRequest sets the pregnancy status of a breeding record.
type PregnancyRequest struct {
	Status string `json:"status" binding:"required"`
}

// WriteResponse is returned by every write; Warning is set when the record could not be saved.
type WriteResponse struct {
	Record   domain.Record `json:"record"`
	Warning  string        `json:"warning,omitempty"`
	Replayed bool          `json:"replayed,omitempty"`
}

// CollectionResponse is a full collection read.
type CollectionResponse struct {
	Collection string          `json:"collection"`
	Records    []domain.Record `json:"records"`
}

// ToRecord maps the payload onto a domain record.
func ToRecord(p RecordPayload) domain.Record {
	return domain.Record{
		CowID:    p.CowID,
		Date:     p.Date,
		Breeding: p.Breeding,
		Feed:     p.Feed,
		Birth:    p.Birth,
	}
}

// FromWriteResult maps a write result.
func FromWriteResult(r *types.WriteResult) WriteResponse {
	return WriteResponse{Record: r.Record, Warning: r.Warning, Replayed: r.Replayed}
}

// FromRecords maps a collection, never rendering null.
func FromRecords(collection domain.Collection, records []domain.Record) CollectionResponse {
	if records == nil {
		records = []domain.Record{}
	}
	return CollectionResponse{Collection: string(collection), Records: records}
}
