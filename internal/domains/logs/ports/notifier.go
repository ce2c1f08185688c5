package ports

import "github.com/Apurer/herdbook-api/internal/domains/logs/domain"

// Notifier fans collection changes out to in-process listeners.
type Notifier interface {
	// Publish never blocks; slow subscribers miss events.
	Publish(event domain.ChangeEvent)
	// Subscribe returns a channel of events and a func that closes it.
	Subscribe() (<-chan domain.ChangeEvent, func())
}
