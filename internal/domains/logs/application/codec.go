package application

import (
	"bytes"
	"encoding/json"

	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

// DecodeCollection never fails. Empty, malformed or non-array values decode to an empty
// collection; array elements that are not records are skipped.
func DecodeCollection(raw []byte) []domain.Record {
	records := []domain.Record{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return records
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return records
	}
	for _, item := range items {
		var rec domain.Record
		if err := json.Unmarshal(item, &rec); err != nil {
			continue
		}
		records = append(records, rec)
	}
	return records
}

// EncodeCollection always renders a JSON array, including for a nil slice.
func EncodeCollection(records []domain.Record) ([]byte, error) {
	if records == nil {
		records = []domain.Record{}
	}
	return json.Marshal(records)
}
