package contracts

import (
	"context"
)

// TelemetryService records payment flow events. Fire-and-forget: it must
// never return an error to the money flow and must never block it.
type TelemetryService interface {
	TrackPaymentEvent(ctx context.Context, eventName string, properties map[string]interface{})
}
