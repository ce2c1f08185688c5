package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMetadata_TouchKeepsCreatedAt(t *testing.T) {
	first := time.Date(2026, 1, 1, 8, 0, 0, 0, time.UTC)
	later := first.Add(2 * time.Hour)

	var m Metadata
	m.Touch(first)
	m.Touch(later)

	assert.Equal(t, first, m.CreatedAt)
	assert.Equal(t, later, m.UpdatedAt)
	assert.True(t, m.IdleBefore(later.Add(time.Minute)))
	assert.False(t, m.IdleBefore(later))
}
