package notifier

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/Apurer/herdbook-api/internal/domains/logs/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNotifier_FanOut(t *testing.T) {
	reg := prometheus.NewRegistry()
	n := New(WithRegisterer(reg))

	first, unsubFirst := n.Subscribe()
	second, unsubSecond := n.Subscribe()
	assert.Equal(t, float64(2), testutil.ToFloat64(n.subscribers))

	event := domain.ChangeEvent{Collection: domain.CollectionFeed, Kind: domain.ChangeAppended, Record: domain.Record{ID: "r1"}}
	n.Publish(event)

	assert.Equal(t, event, <-first)
	assert.Equal(t, event, <-second)
	assert.Equal(t, float64(1), testutil.ToFloat64(n.published.WithLabelValues("feedLogUpdated", "appended")))

	unsubFirst()
	unsubFirst()
	unsubSecond()
	assert.Equal(t, float64(0), testutil.ToFloat64(n.subscribers))

	_, open := <-first
	assert.False(t, open)
}

func TestNotifier_PublishNeverBlocks(t *testing.T) {
	n := New(WithBuffer(1))
	ch, unsubscribe := n.Subscribe()
	defer unsubscribe()

	event := domain.ChangeEvent{Collection: domain.CollectionBirth, Kind: domain.ChangeReplaced}
	for i := 0; i < 5; i++ {
		n.Publish(event)
	}
	assert.Len(t, ch, 1)
	assert.Equal(t, float64(4), testutil.ToFloat64(n.dropped.WithLabelValues("birthLogUpdated")))
}

func TestNotifier_ConcurrentSubscribers(t *testing.T) {
	n := New()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ch, unsubscribe := n.Subscribe()
			n.Publish(domain.ChangeEvent{Collection: domain.CollectionBreeding, Kind: domain.ChangeAppended})
			<-ch
			unsubscribe()
		}()
	}
	wg.Wait()

	n.mu.RLock()
	defer n.mu.RUnlock()
	require.Empty(t, n.subs)
}
