package paymentflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/dto/responses"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubGateway struct {
	mu sync.Mutex

	attemptErr error
	connectRes *responses.ConnectPOSResponse
	connectErr error
	processRes *models.PaymentAttempt
	processErr error
	payloadRes *responses.UPIPayloadResponse
	payloadErr error

	// When set, ProcessCardPayment signals processStarted and then parks
	// until processGate closes, letting tests interleave other calls.
	processGate    chan struct{}
	processStarted chan struct{}

	pollQueue []*responses.UPIStatusResponse
	pollCalls int
}

func (g *stubGateway) CreatePaymentIntent(ctx context.Context, request *requests.CreatePaymentIntentRequest) (*models.PaymentIntent, error) {
	return &models.PaymentIntent{
		ID:      "intent-stub",
		OrderID: request.OrderID,
		Amount:  request.Amount,
		Purpose: request.Purpose,
		Method:  request.Method,
	}, nil
}

func (g *stubGateway) CreatePaymentAttempt(ctx context.Context, request *requests.CreatePaymentAttemptRequest) error {
	return g.attemptErr
}

func (g *stubGateway) ConnectPOS(ctx context.Context) (*responses.ConnectPOSResponse, error) {
	if g.connectErr != nil {
		return nil, g.connectErr
	}
	if g.connectRes != nil {
		return g.connectRes, nil
	}
	return &responses.ConnectPOSResponse{Connected: true}, nil
}

func (g *stubGateway) ProcessCardPayment(ctx context.Context, request *requests.ProcessCardPaymentRequest) (*models.PaymentAttempt, error) {
	if g.processGate != nil {
		g.processStarted <- struct{}{}
		<-g.processGate
	}
	if g.processErr != nil {
		return nil, g.processErr
	}
	return g.processRes, nil
}

func (g *stubGateway) GenerateUPIPayload(ctx context.Context, intentID string) (*responses.UPIPayloadResponse, error) {
	if g.payloadErr != nil {
		return nil, g.payloadErr
	}
	if g.payloadRes != nil {
		return g.payloadRes, nil
	}
	return &responses.UPIPayloadResponse{QRPayload: "upi://pay?pa=stub", DeepLink: "upi://pay"}, nil
}

// PollUPIStatus serves the queued responses in order, repeating the last one
// once the queue runs dry.
func (g *stubGateway) PollUPIStatus(ctx context.Context, intentID string) (*responses.UPIStatusResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.pollCalls++
	if len(g.pollQueue) == 0 {
		return &responses.UPIStatusResponse{Status: responses.UPIPollPending}, nil
	}
	next := g.pollQueue[0]
	if len(g.pollQueue) > 1 {
		g.pollQueue = g.pollQueue[1:]
	}
	return next, nil
}

func (g *stubGateway) PollCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pollCalls
}

type stubTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (s *stubTelemetry) TrackPaymentEvent(ctx context.Context, eventName string, properties map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, eventName)
}

func (s *stubTelemetry) Events() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.events))
	copy(out, s.events)
	return out
}

func testIntent(method models.PaymentMethod) *models.PaymentIntent {
	return &models.PaymentIntent{
		ID:        "intent-1",
		OrderID:   "INV-2024-0042",
		Amount:    50000,
		Purpose:   models.PurposeSettlement,
		Method:    method,
		CreatedAt: time.Now(),
	}
}

func TestCardFlowHappyPath(t *testing.T) {
	gateway := &stubGateway{
		processRes: &models.PaymentAttempt{
			Status: models.AttemptSucceeded,
			Card:   &models.CardMetadata{CardBrand: "visa", Last4: "4242", AuthCode: "A1B2C3"},
		},
	}
	telemetry := &stubTelemetry{}

	var got *models.PaymentAttempt
	flow := NewCardFlow(zap.NewNop(), gateway, telemetry, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{
		OnSucceeded: func(attempt *models.PaymentAttempt) {
			got = attempt
		},
	})

	require.NoError(t, flow.Begin(context.Background()))
	assert.Equal(t, StateAwaitingInput, flow.Machine().State())

	require.NoError(t, flow.CardDetected(context.Background(), "tap"))
	assert.Equal(t, StateSucceeded, flow.Machine().State())

	require.NotNil(t, got)
	assert.Equal(t, models.AttemptSucceeded, got.Status)
	require.NotNil(t, got.Card)
	assert.Equal(t, "4242", got.Card.Last4)
	assert.Contains(t, telemetry.Events(), constvars.EventPaymentAttemptCreated)
}

func TestCardFlowPOSDisconnected(t *testing.T) {
	gateway := &stubGateway{connectRes: &responses.ConnectPOSResponse{Connected: false}}

	var gotCode string
	flow := NewCardFlow(zap.NewNop(), gateway, &stubTelemetry{}, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{
		OnFailed: func(code, message string) {
			gotCode = code
		},
	})

	require.NoError(t, flow.Begin(context.Background()))
	assert.Equal(t, StateFailed, flow.Machine().State())
	assert.Equal(t, constvars.FailureCodePOSDisconnected, gotCode)
	_, message := flow.Machine().Failure()
	assert.Equal(t, constvars.PaymentErrorMessages[constvars.FailureCodePOSDisconnected], message)
	assert.True(t, flow.Machine().CanRetry())
}

func TestCardFlowDeclineDefaultsToBankDeclined(t *testing.T) {
	gateway := &stubGateway{
		processRes: &models.PaymentAttempt{Status: models.AttemptFailed},
	}
	flow := NewCardFlow(zap.NewNop(), gateway, &stubTelemetry{}, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.CardDetected(context.Background(), "insert"))

	code, message := flow.Machine().Failure()
	assert.Equal(t, constvars.FailureCodeBankDeclined, code)
	assert.Equal(t, constvars.PaymentErrorMessages[constvars.FailureCodeBankDeclined], message)
	require.NotNil(t, flow.Attempt())
	assert.Equal(t, models.AttemptFailed, flow.Attempt().Status)
}

func TestCardFlowGatewayErrorMapsToNetworkError(t *testing.T) {
	gateway := &stubGateway{connectErr: errors.New("dial tcp: connection refused")}
	flow := NewCardFlow(zap.NewNop(), gateway, &stubTelemetry{}, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	code, _ := flow.Machine().Failure()
	assert.Equal(t, constvars.FailureCodeNetworkError, code)
}

func TestCardFlowRetryIssuesFreshAttempt(t *testing.T) {
	gateway := &stubGateway{connectRes: &responses.ConnectPOSResponse{Connected: false}}
	telemetry := &stubTelemetry{}
	flow := NewCardFlow(zap.NewNop(), gateway, telemetry, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	require.Equal(t, StateFailed, flow.Machine().State())
	firstAttemptID := flow.Attempt().ID

	gateway.connectRes = &responses.ConnectPOSResponse{Connected: true}
	require.NoError(t, flow.Retry(context.Background()))

	assert.Equal(t, StateAwaitingInput, flow.Machine().State())
	assert.Equal(t, 1, flow.Machine().RetryCount())
	assert.NotEqual(t, firstAttemptID, flow.Attempt().ID)
	assert.Contains(t, telemetry.Events(), constvars.EventPaymentRetried)
}

func TestCardFlowNilGatewayResult(t *testing.T) {
	gateway := &stubGateway{} // processRes left nil with no error
	flow := NewCardFlow(zap.NewNop(), gateway, &stubTelemetry{}, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.CardDetected(context.Background(), "tap"))

	assert.Equal(t, StateFailed, flow.Machine().State())
	code, _ := flow.Machine().Failure()
	assert.Equal(t, constvars.FailureCodeNetworkError, code)
}

func TestCardFlowCancelMidProcessingLeavesAttemptUntouched(t *testing.T) {
	gateway := &stubGateway{
		processRes: &models.PaymentAttempt{
			Status: models.AttemptSucceeded,
			Card:   &models.CardMetadata{CardBrand: "visa", Last4: "4242"},
		},
		processGate:    make(chan struct{}),
		processStarted: make(chan struct{}),
	}
	var succeeded int32
	flow := NewCardFlow(zap.NewNop(), gateway, &stubTelemetry{}, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{
		OnSucceeded: func(attempt *models.PaymentAttempt) {
			atomic.AddInt32(&succeeded, 1)
		},
	})

	require.NoError(t, flow.Begin(context.Background()))

	done := make(chan error, 1)
	go func() {
		done <- flow.CardDetected(context.Background(), "tap")
	}()
	<-gateway.processStarted

	require.NoError(t, flow.Cancel())
	close(gateway.processGate)
	require.NoError(t, <-done)

	assert.Equal(t, StateCancelled, flow.Machine().State())
	assert.Equal(t, int32(0), atomic.LoadInt32(&succeeded))
	require.NotNil(t, flow.Attempt())
	assert.Equal(t, models.AttemptPending, flow.Attempt().Status, "late result must not mark the attempt succeeded")
	assert.Nil(t, flow.Attempt().CompletedAt)
}

func TestCardFlowCancelBlocksLateInput(t *testing.T) {
	gateway := &stubGateway{}
	flow := NewCardFlow(zap.NewNop(), gateway, &stubTelemetry{}, constvars.PaymentProviderPOSBridge, testIntent(models.MethodCard), time.Minute, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.Cancel())
	assert.Equal(t, StateCancelled, flow.Machine().State())

	err := flow.CardDetected(context.Background(), "tap")
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StateCancelled, flow.Machine().State())
}
