package notifier

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
	"github.com/Apurer/herdbook-api/internal/domains/logs/ports"
)

var _ ports.Notifier = (*Notifier)(nil)

const defaultBuffer = 16

// Notifier is an in-process fan-out of collection changes.
type Notifier struct {
	mu     sync.RWMutex
	subs   map[uint64]chan domain.ChangeEvent
	nextID uint64
	buffer int

	subscribers prometheus.Gauge
	published   *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

type Option func(*Notifier)

// WithBuffer sets the per-subscriber channel capacity.
func WithBuffer(n int) Option {
	return func(nt *Notifier) {
		if n > 0 {
			nt.buffer = n
		}
	}
}

// WithRegisterer registers the notifier metrics on reg.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(nt *Notifier) {
		if reg != nil {
			reg.MustRegister(nt.subscribers, nt.published, nt.dropped)
		}
	}
}

// New builds a notifier. Metrics are only exported when WithRegisterer is given.
func New(opts ...Option) *Notifier {
	n := &Notifier{
		subs:   map[uint64]chan domain.ChangeEvent{},
		buffer: defaultBuffer,
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "herdbook",
			Subsystem: "logs",
			Name:      "subscribers",
			Help:      "Number of active collection change subscribers.",
		}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herdbook",
			Subsystem: "logs",
			Name:      "events_published_total",
			Help:      "Collection change events published.",
		}, []string{"event", "kind"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "herdbook",
			Subsystem: "logs",
			Name:      "events_dropped_total",
			Help:      "Events skipped because a subscriber was not keeping up.",
		}, []string{"event"}),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(n)
		}
	}
	return n
}

// Publish hands event to every subscriber without blocking.
func (n *Notifier) Publish(event domain.ChangeEvent) {
	name := event.Collection.EventName()
	n.published.WithLabelValues(name, string(event.Kind)).Inc()

	n.mu.RLock()
	defer n.mu.RUnlock()
	for _, ch := range n.subs {
		select {
		case ch <- event:
		default:
			n.dropped.WithLabelValues(name).Inc()
		}
	}
}

// Subscribe registers a listener. The returned func closes the channel and is safe to call twice.
func (n *Notifier) Subscribe() (<-chan domain.ChangeEvent, func()) {
	ch := make(chan domain.ChangeEvent, n.buffer)

	n.mu.Lock()
	id := n.nextID
	n.nextID++
	n.subs[id] = ch
	n.mu.Unlock()
	n.subscribers.Inc()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			n.mu.Lock()
			delete(n.subs, id)
			n.mu.Unlock()
			close(ch)
			n.subscribers.Dec()
		})
	}
}
