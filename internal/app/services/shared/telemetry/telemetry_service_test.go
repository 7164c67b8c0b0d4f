package telemetry

import (
	"context"
	"sync"
	"testing"
	"time"

	"frontdesk-service/internal/pkg/constvars"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(publish func(event TelemetryEvent) error) *telemetryService {
	service := &telemetryService{
		log:     zap.NewNop(),
		events:  make(chan TelemetryEvent, eventBufferSize),
		publish: publish,
	}
	go service.drain()
	return service
}

func TestTrackPaymentEventDoesNotBlockOnSlowBroker(t *testing.T) {
	release := make(chan struct{})
	service := newTestService(func(event TelemetryEvent) error {
		<-release
		return nil
	})
	defer close(release)

	done := make(chan struct{})
	go func() {
		// One event parks the drain loop; the rest must still enqueue
		// or drop without waiting.
		for i := 0; i < eventBufferSize+10; i++ {
			service.TrackPaymentEvent(context.Background(), constvars.EventPaymentAttemptCreated, nil)
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("TrackPaymentEvent blocked on a stalled publisher")
	}
}

func TestEventsDrainInOrder(t *testing.T) {
	var mu sync.Mutex
	var names []string
	service := newTestService(func(event TelemetryEvent) error {
		mu.Lock()
		names = append(names, event.Name)
		mu.Unlock()
		return nil
	})

	service.TrackPaymentEvent(context.Background(), constvars.EventSettlementStarted, nil)
	service.TrackPaymentEvent(context.Background(), constvars.EventPaymentAttemptCreated, nil)
	service.TrackPaymentEvent(context.Background(), constvars.EventPaymentSucceeded, nil)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(names) == 3
	}, 2*time.Second, 10*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		constvars.EventSettlementStarted,
		constvars.EventPaymentAttemptCreated,
		constvars.EventPaymentSucceeded,
	}, names)
}
