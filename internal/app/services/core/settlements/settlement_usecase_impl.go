package settlements

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"frontdesk-service/internal/app/config"
	"frontdesk-service/internal/app/contracts"
	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/app/services/shared/paymentflow"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/dto/responses"
	"frontdesk-service/internal/pkg/exceptions"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sessionLockTTL bounds how long one desk can hold an invoice before the
// lock falls away on its own, covering desks that crash mid-settlement.
const sessionLockTTL = 30 * time.Minute

// closedSessionRetention is how long a closed session stays readable in the
// registry before it is evicted.
const closedSessionRetention = 15 * time.Minute

type settlementUsecase struct {
	Gateway              contracts.PaymentGatewayService
	Telemetry            contracts.TelemetryService
	Locker               contracts.LockerService
	SettlementRepository contracts.SettlementRepository
	InternalConfig       *config.InternalConfig
	Log                  *zap.Logger

	// SessionRetention overrides closedSessionRetention when positive.
	SessionRetention time.Duration

	mu       sync.RWMutex
	sessions map[string]*settlementSession
}

var (
	settlementUsecaseInstance contracts.SettlementUsecase
	onceSettlementUsecase     sync.Once
)

func NewSettlementUsecase(
	gateway contracts.PaymentGatewayService,
	telemetry contracts.TelemetryService,
	lockerService contracts.LockerService,
	settlementRepository contracts.SettlementRepository,
	internalConfig *config.InternalConfig,
	logger *zap.Logger,
) contracts.SettlementUsecase {
	onceSettlementUsecase.Do(func() {
		instance := &settlementUsecase{
			Gateway:              gateway,
			Telemetry:            telemetry,
			Locker:               lockerService,
			SettlementRepository: settlementRepository,
			InternalConfig:       internalConfig,
			Log:                  logger,
			sessions:             make(map[string]*settlementSession),
		}
		settlementUsecaseInstance = instance
	})
	return settlementUsecaseInstance
}

func (uc *settlementUsecase) CreateSettlement(ctx context.Context, request *requests.CreateSettlementRequest) (*responses.SettlementResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("settlementUsecase.CreateSettlement called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingInvoiceIDKey, request.InvoiceID),
		zap.Int64(constvars.LoggingAmountKey, request.TotalAmount),
	)

	if err := request.Validate(); err != nil {
		uc.Log.Error("settlementUsecase.CreateSettlement invalid request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}

	lockKey := fmt.Sprintf(constvars.RedisSettlementLockKeyFormat, request.InvoiceID)
	acquired, lockValue, err := uc.Locker.TryLock(ctx, lockKey, sessionLockTTL)
	if err != nil {
		return nil, err
	}
	if !acquired {
		uc.Log.Warn("settlementUsecase.CreateSettlement invoice already locked",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingInvoiceIDKey, request.InvoiceID),
		)
		return nil, exceptions.ErrSettlementLocked(nil)
	}

	session := &settlementSession{
		ID:          uuid.NewString(),
		InvoiceID:   request.InvoiceID,
		PatientID:   request.PatientID,
		PatientName: request.PatientName,
		MRN:         request.MRN,
		Purpose:     models.PaymentPurpose(request.Purpose),
		TotalAmount: request.TotalAmount,
		Status:      models.SettlementActive,
		CreatedAt:   time.Now(),
		lockValue:   lockValue,
	}
	session.Steps = make([]*models.SplitPaymentStep, len(request.Steps))
	for i, input := range request.Steps {
		session.Steps[i] = &models.SplitPaymentStep{
			ID:     uuid.NewString(),
			Method: models.PaymentMethod(input.Method),
			Amount: input.Amount,
			Status: models.StepPending,
		}
	}

	uc.mu.Lock()
	uc.sessions[session.ID] = session
	uc.mu.Unlock()

	uc.Telemetry.TrackPaymentEvent(ctx, constvars.EventSettlementStarted, map[string]interface{}{
		"settlement_id": session.ID,
		"invoice_id":    session.InvoiceID,
		"total_amount":  session.TotalAmount,
		"step_count":    len(session.Steps),
	})

	uc.Log.Info("settlementUsecase.CreateSettlement session opened",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSettlementIDKey, session.ID),
		zap.Int("step_count", len(session.Steps)),
	)

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

func (uc *settlementUsecase) GetSettlement(ctx context.Context, settlementID string) (*responses.SettlementResponse, error) {
	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}
	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

// ConfirmCashStep settles the current step by operator attestation. Cash has
// no device flow; the attempt is synthesized here.
func (uc *settlementUsecase) ConfirmCashStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("settlementUsecase.ConfirmCashStep called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSettlementIDKey, settlementID),
	)

	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.Status != models.SettlementActive {
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	step := session.currentStepLocked()
	if step == nil || step.Method != models.MethodCash || step.Status != models.StepPending {
		return nil, exceptions.ErrStepNotActionable(nil)
	}

	now := time.Now()
	step.Status = models.StepSucceeded
	step.Attempt = &models.PaymentAttempt{
		ID:          uuid.NewString(),
		Method:      models.MethodCash,
		Status:      models.AttemptSucceeded,
		StartedAt:   now,
		CompletedAt: &now,
	}

	uc.Telemetry.TrackPaymentEvent(ctx, constvars.EventSettlementStepDone, map[string]interface{}{
		"settlement_id": session.ID,
		"step_id":       step.ID,
		"method":        string(models.MethodCash),
		"amount":        step.Amount,
	})
	return session.snapshotLocked(), nil
}

// StartStep opens the device flow for the current card or UPI step. The
// session lock is released before any network call; late flow callbacks take
// it themselves.
func (uc *settlementUsecase) StartStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("settlementUsecase.StartStep called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSettlementIDKey, settlementID),
	)

	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.Status != models.SettlementActive {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	step := session.currentStepLocked()
	if step == nil || step.Status != models.StepPending {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	if step.Method == models.MethodCash {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	if session.activeMachineLocked() != nil {
		session.mu.Unlock()
		return nil, exceptions.ErrFlowBusy(nil)
	}
	step.Status = models.StepProcessing
	session.starting = true
	method := step.Method
	amount := step.Amount
	session.mu.Unlock()

	// Cancellation is refused while starting is set, so nothing can close
	// the session under the gateway calls below.
	defer func() {
		session.mu.Lock()
		session.starting = false
		session.mu.Unlock()
	}()

	intent, err := uc.Gateway.CreatePaymentIntent(ctx, &requests.CreatePaymentIntentRequest{
		OrderID:     session.InvoiceID,
		PatientID:   session.PatientID,
		PatientName: session.PatientName,
		MRN:         session.MRN,
		Amount:      amount,
		Purpose:     session.Purpose,
		Method:      method,
	})
	if err != nil {
		uc.Log.Error("settlementUsecase.StartStep error creating payment intent",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingSettlementIDKey, settlementID),
			zap.Error(err),
		)
		session.mu.Lock()
		step.Status = models.StepPending
		session.mu.Unlock()
		return nil, err
	}

	callbacks := uc.stepCallbacks(session, step)
	timeouts := uc.InternalConfig.Timeouts

	session.mu.Lock()
	if session.Status != models.SettlementActive || session.currentStepLocked() != step || step.Status != models.StepProcessing {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	switch method {
	case models.MethodCard:
		session.cardFlow = paymentflow.NewCardFlow(
			uc.Log,
			uc.Gateway,
			uc.Telemetry,
			uc.InternalConfig.PaymentGateway.POSProvider,
			intent,
			time.Duration(timeouts.CardReading)*time.Second,
			callbacks,
		)
	case models.MethodUPI:
		session.upiFlow = paymentflow.NewUPIFlow(
			uc.Log,
			uc.Gateway,
			uc.Telemetry,
			uc.InternalConfig.PaymentGateway.UPIProvider,
			intent,
			time.Duration(timeouts.UPIQRValidity)*time.Second,
			time.Duration(timeouts.UPIPollingInterval)*time.Second,
			callbacks,
		)
	}
	cardFlow, upiFlow := session.cardFlow, session.upiFlow
	session.mu.Unlock()

	uc.Telemetry.TrackPaymentEvent(ctx, constvars.EventPaymentFlowStarted, map[string]interface{}{
		"settlement_id": session.ID,
		"intent_id":     intent.ID,
		"method":        string(method),
	})

	if cardFlow != nil {
		err = cardFlow.Begin(ctx)
	} else {
		err = upiFlow.Begin(ctx)
	}
	if err != nil {
		return nil, uc.mapFlowError(err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

// SignalCardDetected forwards the reader's tap, insert, or swipe signal to
// the card flow.
func (uc *settlementUsecase) SignalCardDetected(ctx context.Context, settlementID string, request *requests.CardDetectedRequest) (*responses.SettlementResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("settlementUsecase.SignalCardDetected called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSettlementIDKey, settlementID),
	)

	if err := request.Validate(); err != nil {
		return nil, err
	}

	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	flow := session.cardFlow
	session.mu.Unlock()
	if flow == nil {
		return nil, exceptions.ErrStepNotActionable(nil)
	}

	if err := flow.CardDetected(ctx, request.CardType); err != nil {
		return nil, uc.mapFlowError(err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

// RefreshUPIStatus triggers one out-of-band poll for the operator's refresh
// button.
func (uc *settlementUsecase) RefreshUPIStatus(ctx context.Context, settlementID string) (*responses.SettlementResponse, error) {
	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	flow := session.upiFlow
	session.mu.Unlock()
	if flow == nil {
		return nil, exceptions.ErrStepNotActionable(nil)
	}

	if err := flow.RefreshStatus(ctx); err != nil {
		if errors.Is(err, paymentflow.ErrRefreshThrottled) {
			return nil, exceptions.ErrRefreshThrottled(err)
		}
		return nil, uc.mapFlowError(err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

// RetryStep re-runs the current step's flow after a failure or timeout. The
// same intent is reused; only the attempt is fresh.
func (uc *settlementUsecase) RetryStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("settlementUsecase.RetryStep called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSettlementIDKey, settlementID),
	)

	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.Status != models.SettlementActive {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	step := session.currentStepLocked()
	if step == nil || step.Status != models.StepFailed {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	cardFlow, upiFlow := session.cardFlow, session.upiFlow
	if cardFlow == nil && upiFlow == nil {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	step.Status = models.StepProcessing
	session.mu.Unlock()

	if cardFlow != nil {
		err = cardFlow.Retry(ctx)
	} else {
		err = upiFlow.Retry(ctx)
	}
	if err != nil {
		session.mu.Lock()
		step.Status = models.StepFailed
		session.mu.Unlock()
		return nil, uc.mapFlowError(err)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

// AdvanceStep moves past a succeeded step. Completion is explicit so the
// desk confirms each collected slice before the next one opens.
func (uc *settlementUsecase) AdvanceStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("settlementUsecase.AdvanceStep called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSettlementIDKey, settlementID),
	)

	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.Status != models.SettlementActive {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	step := session.currentStepLocked()
	if step == nil || step.Status != models.StepSucceeded {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}

	session.clearFlowsLocked()
	lastStep := session.CurrentStep == len(session.Steps)-1
	if lastStep {
		session.Status = models.SettlementCompleted
		session.Outcome = models.OutcomeComplete
	} else {
		session.CurrentStep++
	}
	session.mu.Unlock()

	if lastStep {
		uc.closeSession(ctx, session, constvars.EventSettlementCompleted)
	}

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

// CancelSettlement aborts the session. Once any step has collected money the
// desk must confirm, and the session closes as partial rather than
// cancelled.
func (uc *settlementUsecase) CancelSettlement(ctx context.Context, settlementID string, request *requests.CancelSettlementRequest) (*responses.SettlementResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	uc.Log.Info("settlementUsecase.CancelSettlement called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingSettlementIDKey, settlementID),
	)

	session, err := uc.findSession(settlementID)
	if err != nil {
		return nil, err
	}

	session.mu.Lock()
	if session.Status != models.SettlementActive {
		session.mu.Unlock()
		return nil, exceptions.ErrStepNotActionable(nil)
	}
	if session.starting {
		// A step is mid-arming; closing now would strand the flow it is
		// about to open. The desk retries once StartStep returns.
		session.mu.Unlock()
		return nil, exceptions.ErrFlowBusy(nil)
	}
	collected := session.amountCollectedLocked()
	if collected > 0 && !request.Confirm {
		session.mu.Unlock()
		return nil, exceptions.ErrCancelNeedsConfirmation(nil)
	}
	cardFlow, upiFlow := session.cardFlow, session.upiFlow
	session.mu.Unlock()

	if cardFlow != nil {
		if err := cardFlow.Cancel(); err != nil {
			uc.Log.Warn("settlementUsecase.CancelSettlement card flow not cancellable",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Error(err),
			)
		}
	}
	if upiFlow != nil {
		if err := upiFlow.Cancel(); err != nil {
			uc.Log.Warn("settlementUsecase.CancelSettlement upi flow not cancellable",
				zap.String(constvars.LoggingRequestIDKey, requestID),
				zap.Error(err),
			)
		}
	}

	session.mu.Lock()
	session.clearFlowsLocked()
	eventName := constvars.EventSettlementCancelled
	if collected > 0 {
		session.Status = models.SettlementPartial
		session.Outcome = models.OutcomePartial
		eventName = constvars.EventSettlementPartial
	} else {
		session.Status = models.SettlementCancelled
		session.Outcome = models.OutcomeCancelled
	}
	session.mu.Unlock()

	uc.closeSession(ctx, session, eventName)

	session.mu.Lock()
	defer session.mu.Unlock()
	return session.snapshotLocked(), nil
}

func (uc *settlementUsecase) findSession(settlementID string) (*settlementSession, error) {
	uc.mu.RLock()
	session, ok := uc.sessions[settlementID]
	uc.mu.RUnlock()
	if !ok {
		return nil, exceptions.ErrSettlementNotFound(nil)
	}
	return session, nil
}

// stepCallbacks wires flow terminal events back onto the owning step. They
// run on flow goroutines, so they take the session lock themselves and must
// never be called with it held.
func (uc *settlementUsecase) stepCallbacks(session *settlementSession, step *models.SplitPaymentStep) paymentflow.Callbacks {
	return paymentflow.Callbacks{
		OnSucceeded: func(attempt *models.PaymentAttempt) {
			session.mu.Lock()
			step.Status = models.StepSucceeded
			step.Attempt = attempt
			session.mu.Unlock()

			uc.Telemetry.TrackPaymentEvent(context.Background(), constvars.EventPaymentSucceeded, map[string]interface{}{
				"settlement_id": session.ID,
				"step_id":       step.ID,
				"method":        string(step.Method),
				"amount":        step.Amount,
			})
			uc.Telemetry.TrackPaymentEvent(context.Background(), constvars.EventSettlementStepDone, map[string]interface{}{
				"settlement_id": session.ID,
				"step_id":       step.ID,
				"method":        string(step.Method),
				"amount":        step.Amount,
			})
		},
		OnFailed: func(code, message string) {
			session.mu.Lock()
			step.Status = models.StepFailed
			session.mu.Unlock()

			uc.Log.Warn("settlementUsecase step attempt failed",
				zap.String(constvars.LoggingSettlementIDKey, session.ID),
				zap.String(constvars.LoggingStepIDKey, step.ID),
				zap.String(constvars.LoggingFailureCodeKey, code),
			)
			uc.Telemetry.TrackPaymentEvent(context.Background(), constvars.EventPaymentFailed, map[string]interface{}{
				"settlement_id": session.ID,
				"step_id":       step.ID,
				"failure_code":  code,
			})
		},
		OnTimedOut: func() {
			session.mu.Lock()
			step.Status = models.StepFailed
			session.mu.Unlock()

			uc.Telemetry.TrackPaymentEvent(context.Background(), constvars.EventPaymentTimedOut, map[string]interface{}{
				"settlement_id": session.ID,
				"step_id":       step.ID,
				"method":        string(step.Method),
			})
		},
		OnCancelled: func() {
			uc.Telemetry.TrackPaymentEvent(context.Background(), constvars.EventPaymentCancelled, map[string]interface{}{
				"settlement_id": session.ID,
				"step_id":       step.ID,
			})
		},
	}
}

// closeSession persists the terminal snapshot and releases the per-invoice
// lock. Persistence problems are logged, not surfaced: the money has already
// moved and the desk needs the outcome.
func (uc *settlementUsecase) closeSession(ctx context.Context, session *settlementSession, eventName string) {
	record := session.record(time.Now())

	if err := uc.SettlementRepository.InsertSettlement(ctx, record); err != nil {
		uc.Log.Error("settlementUsecase.closeSession error persisting settlement record",
			zap.String(constvars.LoggingSettlementIDKey, session.ID),
			zap.Error(err),
		)
	}

	lockKey := fmt.Sprintf(constvars.RedisSettlementLockKeyFormat, session.InvoiceID)
	if err := uc.Locker.Unlock(ctx, lockKey, session.lockValue); err != nil {
		uc.Log.Error("settlementUsecase.closeSession error releasing invoice lock",
			zap.String(constvars.LoggingSettlementIDKey, session.ID),
			zap.Error(err),
		)
	}

	uc.Telemetry.TrackPaymentEvent(ctx, eventName, map[string]interface{}{
		"settlement_id":    session.ID,
		"invoice_id":       record.InvoiceID,
		"outcome":          string(record.Outcome),
		"amount_collected": record.AmountCollected,
	})

	// The closed session stays readable for a grace period, then drops out
	// of the registry.
	retention := uc.SessionRetention
	if retention <= 0 {
		retention = closedSessionRetention
	}
	time.AfterFunc(retention, func() {
		uc.mu.Lock()
		delete(uc.sessions, session.ID)
		uc.mu.Unlock()
	})
}

func (uc *settlementUsecase) mapFlowError(err error) error {
	switch {
	case errors.Is(err, paymentflow.ErrFlowBusy):
		return exceptions.ErrFlowBusy(err)
	case errors.Is(err, paymentflow.ErrRetryNotAllowed):
		return exceptions.ErrStepNotActionable(err)
	case errors.Is(err, paymentflow.ErrIllegalTransition), errors.Is(err, paymentflow.ErrStaleAttempt):
		return exceptions.ErrIllegalFlowTransition(err)
	default:
		return err
	}
}
