package paymentflow

import (
	"context"
	"sync"
	"time"

	"frontdesk-service/internal/app/contracts"
	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/requests"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CardFlow drives one card attempt against the POS bridge: connect the
// reader, wait for a tap/insert/swipe, process, and map the gateway result
// onto the state machine. Retry reconnects the reader from scratch; the prior
// connection is never assumed to still be valid.
type CardFlow struct {
	log       *zap.Logger
	gateway   contracts.PaymentGatewayService
	telemetry contracts.TelemetryService
	provider  string
	intent    *models.PaymentIntent
	machine   *Machine

	mu      sync.Mutex
	attempt *models.PaymentAttempt
}

func NewCardFlow(
	log *zap.Logger,
	gateway contracts.PaymentGatewayService,
	telemetry contracts.TelemetryService,
	provider string,
	intent *models.PaymentIntent,
	cardReadingWindow time.Duration,
	callbacks Callbacks,
) *CardFlow {
	flow := &CardFlow{
		log:       log,
		gateway:   gateway,
		telemetry: telemetry,
		provider:  provider,
		intent:    intent,
	}
	flow.machine = NewMachine(log, models.MethodCard, cardReadingWindow, callbacks)
	return flow
}

func (f *CardFlow) Machine() *Machine {
	return f.machine
}

func (f *CardFlow) Attempt() *models.PaymentAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempt
}

// Begin creates a fresh attempt, connects the reader, and opens the card
// reading window.
func (f *CardFlow) Begin(ctx context.Context) error {
	if err := f.machine.Start(); err != nil {
		return err
	}
	return f.connect(ctx)
}

// Retry fully re-runs the connect sequence under a new attempt id.
func (f *CardFlow) Retry(ctx context.Context) error {
	if err := f.machine.Retry(); err != nil {
		return err
	}
	f.telemetry.TrackPaymentEvent(ctx, constvars.EventPaymentRetried, map[string]interface{}{
		"intent_id": f.intent.ID,
		"method":    string(models.MethodCard),
	})
	return f.connect(ctx)
}

func (f *CardFlow) connect(ctx context.Context) error {
	attempt := f.newAttempt()
	f.machine.BindAttempt(attempt.ID)

	if err := f.gateway.CreatePaymentAttempt(ctx, &requests.CreatePaymentAttemptRequest{
		IntentID: f.intent.ID,
		Method:   models.MethodCard,
		Provider: f.provider,
	}); err != nil {
		f.log.Error("paymentflow.CardFlow error recording attempt start",
			zap.String(constvars.LoggingIntentIDKey, f.intent.ID),
			zap.Error(err),
		)
		f.fail(attempt.ID, constvars.FailureCodeNetworkError, "")
		return nil
	}
	f.telemetry.TrackPaymentEvent(ctx, constvars.EventPaymentAttemptCreated, map[string]interface{}{
		"intent_id":  f.intent.ID,
		"attempt_id": attempt.ID,
		"method":     string(models.MethodCard),
	})

	connectResponse, err := f.gateway.ConnectPOS(ctx)
	if err != nil {
		f.log.Error("paymentflow.CardFlow error connecting to POS",
			zap.String(constvars.LoggingIntentIDKey, f.intent.ID),
			zap.String(constvars.LoggingAttemptIDKey, attempt.ID),
			zap.Error(err),
		)
		f.fail(attempt.ID, constvars.FailureCodeNetworkError, "")
		return nil
	}
	if !connectResponse.Connected {
		f.fail(attempt.ID, constvars.FailureCodePOSDisconnected, "")
		return nil
	}

	return f.machine.MarkReady()
}

// CardDetected reacts to the reader signalling a tap, insert, or swipe and
// runs the card-processing call.
func (f *CardFlow) CardDetected(ctx context.Context, cardType string) error {
	if err := f.machine.InputDetected(); err != nil {
		return err
	}

	f.mu.Lock()
	attemptID := ""
	if f.attempt != nil {
		attemptID = f.attempt.ID
	}
	f.mu.Unlock()

	result, err := f.gateway.ProcessCardPayment(ctx, &requests.ProcessCardPaymentRequest{
		IntentID: f.intent.ID,
		CardType: cardType,
	})
	if err != nil || result == nil {
		f.log.Error("paymentflow.CardFlow error processing card payment",
			zap.String(constvars.LoggingIntentIDKey, f.intent.ID),
			zap.String(constvars.LoggingAttemptIDKey, attemptID),
			zap.Error(err),
		)
		f.fail(attemptID, constvars.FailureCodeNetworkError, "")
		return nil
	}

	if result.Status == models.AttemptSucceeded {
		err := f.machine.Succeed(attemptID, func() *models.PaymentAttempt {
			return f.completeAttempt(models.AttemptSucceeded, "", "", result)
		})
		if err != nil {
			f.log.Warn("paymentflow.CardFlow dropping stale card result",
				zap.String(constvars.LoggingAttemptIDKey, attemptID),
				zap.Error(err),
			)
		}
		return nil
	}

	code := result.FailureCode
	if code == "" {
		code = constvars.FailureCodeBankDeclined
	}
	f.fail(attemptID, code, result.FailureMessage)
	return nil
}

func (f *CardFlow) Cancel() error {
	return f.machine.Cancel()
}

// fail drives the machine first; the attempt record is finalized only when
// the machine accepts the failure, so a stale result leaves it untouched.
func (f *CardFlow) fail(attemptID, code, attemptMessage string) {
	message := ResolveFailureMessage(code, attemptMessage)
	if err := f.machine.Fail(attemptID, code, message); err != nil {
		f.log.Warn("paymentflow.CardFlow dropping stale card failure",
			zap.String(constvars.LoggingAttemptIDKey, attemptID),
			zap.String(constvars.LoggingFailureCodeKey, code),
			zap.Error(err),
		)
		return
	}
	f.completeAttempt(models.AttemptFailed, code, message, nil)
}

func (f *CardFlow) newAttempt() *models.PaymentAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempt = &models.PaymentAttempt{
		ID:        uuid.NewString(),
		IntentID:  f.intent.ID,
		Method:    models.MethodCard,
		Provider:  f.provider,
		Status:    models.AttemptPending,
		StartedAt: time.Now(),
	}
	return f.attempt
}

func (f *CardFlow) completeAttempt(status models.AttemptStatus, code, message string, result *models.PaymentAttempt) *models.PaymentAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.attempt == nil || f.attempt.Terminal() {
		return f.attempt
	}
	now := time.Now()
	f.attempt.Status = status
	f.attempt.CompletedAt = &now
	f.attempt.FailureCode = code
	f.attempt.FailureMessage = message
	if result != nil {
		f.attempt.Card = result.Card
	}
	return f.attempt
}
