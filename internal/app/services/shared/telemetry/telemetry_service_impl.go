package telemetry

import (
	"context"
	"sync"
	"time"

	"frontdesk-service/internal/app/contracts"
	"frontdesk-service/internal/pkg/constvars"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

var (
	telemetryServiceInstance contracts.TelemetryService
	onceTelemetryService     sync.Once
)

// eventBufferSize bounds the in-flight backlog. A slow broker fills the
// buffer and further events are dropped, never queued on the money path.
const eventBufferSize = 256

// TelemetryEvent is the payload pushed onto the payment events queue. A
// separate consumer ships these to the analytics store.
type TelemetryEvent struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Properties map[string]interface{} `json:"properties,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

type telemetryService struct {
	log    *zap.Logger
	events chan TelemetryEvent

	// publish ships one event to the broker. Injected so the drain loop
	// can be exercised without a live channel.
	publish func(event TelemetryEvent) error
}

// NewTelemetryService declares the durable event queues and returns the
// publisher. Publishing is fire-and-forget: events are handed to a buffered
// drain goroutine, and broker problems are logged and swallowed so they can
// never stall a payment in progress.
func NewTelemetryService(conn *amqp.Connection, logger *zap.Logger) (contracts.TelemetryService, error) {
	var initErr error
	onceTelemetryService.Do(func() {
		ch, err := conn.Channel()
		if err != nil {
			initErr = err
			return
		}

		_, err = ch.QueueDeclare(constvars.TelemetryQueueName, true, false, false, false, nil)
		if err != nil {
			initErr = err
			return
		}
		_, err = ch.QueueDeclare(constvars.TelemetryDeadLetterQueueName, true, false, false, false, nil)
		if err != nil {
			initErr = err
			return
		}

		service := &telemetryService{
			log:    logger,
			events: make(chan TelemetryEvent, eventBufferSize),
		}
		service.publish = func(event TelemetryEvent) error {
			body, err := json.Marshal(event)
			if err != nil {
				return err
			}
			return ch.PublishWithContext(context.Background(), "", constvars.TelemetryQueueName, false, false, amqp.Publishing{
				ContentType:  constvars.MIMEApplicationJSON,
				Body:         body,
				DeliveryMode: amqp.Persistent,
			})
		}
		go service.drain()

		telemetryServiceInstance = service
	})
	return telemetryServiceInstance, initErr
}

// TrackPaymentEvent enqueues without blocking. When the buffer is full the
// event is dropped and logged; the caller never waits on the broker.
func (s *telemetryService) TrackPaymentEvent(ctx context.Context, eventName string, properties map[string]interface{}) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	event := TelemetryEvent{
		ID:         uuid.NewString(),
		Name:       eventName,
		Properties: properties,
		OccurredAt: time.Now(),
	}

	select {
	case s.events <- event:
	default:
		s.log.Warn("telemetryService.TrackPaymentEvent buffer full, dropping event",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingEventNameKey, eventName),
		)
	}
}

func (s *telemetryService) drain() {
	for event := range s.events {
		if err := s.publish(event); err != nil {
			s.log.Error("telemetryService.drain error publishing event",
				zap.String(constvars.LoggingEventNameKey, event.Name),
				zap.Error(err),
			)
			continue
		}
		s.log.Debug("telemetryService.drain published",
			zap.String(constvars.LoggingEventNameKey, event.Name),
		)
	}
}
