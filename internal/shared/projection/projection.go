// Package projection holds persistence metadata shared by read models.
package projection

import "time"

// Metadata captures when a stored aggregate was created and last written.
type Metadata struct {
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Touch stamps UpdatedAt, and CreatedAt on first save.
func (m *Metadata) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

// IdleBefore reports whether the aggregate has not been written since cutoff.
func (m Metadata) IdleBefore(cutoff time.Time) bool {
	return m.UpdatedAt.Before(cutoff)
}
