package paymentflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"frontdesk-service/internal/app/contracts"
	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/dto/responses"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

var ErrRefreshThrottled = errors.New("manual status refresh throttled")

// UPIFlow drives one UPI attempt: request a QR payload, poll the PSP for
// status on a fixed interval, and close the attempt on the first terminal
// poll or on QR expiry. The QR-validity window is independent of, and longer
// than, the polling interval.
type UPIFlow struct {
	log       *zap.Logger
	gateway   contracts.PaymentGatewayService
	telemetry contracts.TelemetryService
	provider  string
	intent    *models.PaymentIntent
	machine   *Machine

	pollInterval   time.Duration
	refreshLimiter *rate.Limiter

	mu        sync.Mutex
	attempt   *models.PaymentAttempt
	qrPayload string
	deepLink  string
	pollStop  chan struct{}
}

func NewUPIFlow(
	log *zap.Logger,
	gateway contracts.PaymentGatewayService,
	telemetry contracts.TelemetryService,
	provider string,
	intent *models.PaymentIntent,
	qrValidityWindow time.Duration,
	pollInterval time.Duration,
	callbacks Callbacks,
) *UPIFlow {
	flow := &UPIFlow{
		log:          log,
		gateway:      gateway,
		telemetry:    telemetry,
		provider:     provider,
		intent:       intent,
		pollInterval: pollInterval,
		// One manual refresh per polling interval on top of the loop.
		refreshLimiter: rate.NewLimiter(rate.Every(pollInterval), 1),
	}

	wrapped := callbacks
	userTimedOut := callbacks.OnTimedOut
	wrapped.OnTimedOut = func() {
		flow.StopPolling()
		if userTimedOut != nil {
			userTimedOut()
		}
	}
	userCancelled := callbacks.OnCancelled
	wrapped.OnCancelled = func() {
		flow.StopPolling()
		if userCancelled != nil {
			userCancelled()
		}
	}

	flow.machine = NewMachine(log, models.MethodUPI, qrValidityWindow, wrapped)
	return flow
}

func (f *UPIFlow) Machine() *Machine {
	return f.machine
}

func (f *UPIFlow) Attempt() *models.PaymentAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.attempt
}

func (f *UPIFlow) QRPayload() (qrPayload, deepLink string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.qrPayload, f.deepLink
}

// Begin creates a fresh attempt, requests a QR payload, opens the QR
// validity window, and starts the polling loop.
func (f *UPIFlow) Begin(ctx context.Context) error {
	if err := f.machine.Start(); err != nil {
		return err
	}
	return f.generateQR(ctx)
}

// Retry stops any running polling loop and requests a fresh QR under a new
// attempt id.
func (f *UPIFlow) Retry(ctx context.Context) error {
	f.StopPolling()
	if err := f.machine.Retry(); err != nil {
		return err
	}
	f.telemetry.TrackPaymentEvent(ctx, constvars.EventPaymentRetried, map[string]interface{}{
		"intent_id": f.intent.ID,
		"method":    string(models.MethodUPI),
	})
	return f.generateQR(ctx)
}

func (f *UPIFlow) generateQR(ctx context.Context) error {
	attempt := f.newAttempt()
	f.machine.BindAttempt(attempt.ID)

	if err := f.gateway.CreatePaymentAttempt(ctx, &requests.CreatePaymentAttemptRequest{
		IntentID: f.intent.ID,
		Method:   models.MethodUPI,
		Provider: f.provider,
	}); err != nil {
		f.log.Error("paymentflow.UPIFlow error recording attempt start",
			zap.String(constvars.LoggingIntentIDKey, f.intent.ID),
			zap.Error(err),
		)
		f.fail(attempt.ID, constvars.FailureCodeNetworkError, "")
		return nil
	}
	f.telemetry.TrackPaymentEvent(ctx, constvars.EventPaymentAttemptCreated, map[string]interface{}{
		"intent_id":  f.intent.ID,
		"attempt_id": attempt.ID,
		"method":     string(models.MethodUPI),
	})

	payload, err := f.gateway.GenerateUPIPayload(ctx, f.intent.ID)
	if err != nil {
		f.log.Error("paymentflow.UPIFlow error generating UPI payload",
			zap.String(constvars.LoggingIntentIDKey, f.intent.ID),
			zap.String(constvars.LoggingAttemptIDKey, attempt.ID),
			zap.Error(err),
		)
		f.fail(attempt.ID, constvars.FailureCodeNetworkError, "")
		return nil
	}

	f.mu.Lock()
	f.qrPayload = payload.QRPayload
	f.deepLink = payload.DeepLink
	f.mu.Unlock()

	if err := f.machine.MarkReady(); err != nil {
		return err
	}
	f.startPolling(attempt.ID)
	return nil
}

func (f *UPIFlow) startPolling(attemptID string) {
	f.mu.Lock()
	if f.pollStop != nil {
		f.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	f.pollStop = stop
	f.mu.Unlock()

	go func() {
		ticker := time.NewTicker(f.pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				select {
				case <-stop:
					return
				default:
				}
				f.pollOnce(context.Background(), attemptID)
			}
		}
	}()
}

// StopPolling halts the polling loop. Idempotent: the handle is nulled once
// cleared, so a second call is a no-op.
func (f *UPIFlow) StopPolling() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pollStop == nil {
		return
	}
	close(f.pollStop)
	f.pollStop = nil
}

// RefreshStatus performs one out-of-band poll without disturbing the
// interval. Throttled so the desk cannot hammer the PSP.
func (f *UPIFlow) RefreshStatus(ctx context.Context) error {
	if !f.refreshLimiter.Allow() {
		return ErrRefreshThrottled
	}
	f.mu.Lock()
	attemptID := ""
	if f.attempt != nil {
		attemptID = f.attempt.ID
	}
	f.mu.Unlock()

	f.pollOnce(ctx, attemptID)
	return nil
}

func (f *UPIFlow) pollOnce(ctx context.Context, attemptID string) {
	status, err := f.gateway.PollUPIStatus(ctx, f.intent.ID)
	if err != nil {
		f.log.Warn("paymentflow.UPIFlow poll error, will keep polling",
			zap.String(constvars.LoggingIntentIDKey, f.intent.ID),
			zap.String(constvars.LoggingAttemptIDKey, attemptID),
			zap.Error(err),
		)
		return
	}

	switch status.Status {
	case responses.UPIPollPending:
		return
	case responses.UPIPollSuccess:
		f.StopPolling()
		if err := f.machine.InputDetected(); err != nil {
			// Cancelled or already terminal; the result is stale.
			f.log.Warn("paymentflow.UPIFlow dropping late poll success",
				zap.String(constvars.LoggingAttemptIDKey, attemptID),
				zap.Error(err),
			)
			return
		}
		err := f.machine.Succeed(attemptID, func() *models.PaymentAttempt {
			return f.completeAttempt(models.AttemptSucceeded, "", "", status.Attempt)
		})
		if err != nil {
			f.log.Warn("paymentflow.UPIFlow dropping stale poll success",
				zap.String(constvars.LoggingAttemptIDKey, attemptID),
				zap.Error(err),
			)
		}
	case responses.UPIPollFailed:
		f.StopPolling()
		f.fail(attemptID, constvars.FailureCodePayerCancelled, "")
	}
}

func (f *UPIFlow) Cancel() error {
	f.StopPolling()
	return f.machine.Cancel()
}

// fail drives the machine first and finalizes the attempt record only when
// the machine accepts the failure.
func (f *UPIFlow) fail(attemptID, code, attemptMessage string) {
	message := ResolveFailureMessage(code, attemptMessage)
	if err := f.machine.Fail(attemptID, code, message); err != nil {
		f.log.Warn("paymentflow.UPIFlow dropping stale failure",
			zap.String(constvars.LoggingAttemptIDKey, attemptID),
			zap.String(constvars.LoggingFailureCodeKey, code),
			zap.Error(err),
		)
		return
	}
	f.completeAttempt(models.AttemptFailed, code, message, nil)
}

func (f *UPIFlow) newAttempt() *models.PaymentAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempt = &models.PaymentAttempt{
		ID:        uuid.NewString(),
		IntentID:  f.intent.ID,
		Method:    models.MethodUPI,
		Provider:  f.provider,
		Status:    models.AttemptPending,
		StartedAt: time.Now(),
	}
	return f.attempt
}

func (f *UPIFlow) completeAttempt(status models.AttemptStatus, code, message string, result *models.PaymentAttempt) *models.PaymentAttempt {
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
		f.attempt.UPI = result.UPI
	}
	return f.attempt
}
