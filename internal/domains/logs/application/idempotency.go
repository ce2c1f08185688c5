package application

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

type normalizedAppend struct {
	Collection domain.Collection       `json:"collection"`
	CowID      string                  `json:"cowId"`
	Date       string                  `json:"date"`
	Breeding   *domain.BreedingDetails `json:"breeding,omitempty"`
	Feed       *domain.FeedDetails     `json:"feed,omitempty"`
	Birth      *domain.BirthDetails    `json:"birth,omitempty"`
}

// FingerprintAppend hashes the append payload, ignoring server-stamped fields.
func FingerprintAppend(collection domain.Collection, record domain.Record) (string, error) {
	payload, err := json.Marshal(normalizedAppend{
		Collection: collection,
		CowID:      record.CowID,
		Date:       record.Date.Format(openapi_types.DateFormat),
		Breeding:   record.Breeding,
		Feed:       record.Feed,
		Birth:      record.Birth,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
