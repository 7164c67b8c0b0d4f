package paymentflow

import (
	"errors"
	"sync"
	"time"

	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/app/services/shared/countdown"
	"frontdesk-service/internal/pkg/constvars"

	"go.uber.org/zap"
)

type State string

const (
	StateIdle          State = "idle"
	StateInitializing  State = "initializing"
	StateAwaitingInput State = "awaiting_input"
	StateProcessing    State = "processing"
	StateSucceeded     State = "succeeded"
	StateFailed        State = "failed"
	StateTimedOut      State = "timed_out"
	StateCancelled     State = "cancelled"
)

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateCancelled
}

// Recoverable reports whether the state accepts a retry transition.
func (s State) Recoverable() bool {
	return s == StateFailed || s == StateTimedOut
}

var (
	ErrIllegalTransition = errors.New("illegal attempt state transition")
	ErrFlowBusy          = errors.New("flow is already initializing")
	ErrStaleAttempt      = errors.New("result refers to an attempt that is no longer active")
	ErrRetryNotAllowed   = errors.New("retry not allowed from current state")
)

// Callbacks surface machine transitions to the owning flow controller and,
// through it, to the settlement orchestrator. Terminal callbacks fire exactly
// once per attempt; a retry arms them again for the new attempt. Every
// callback runs outside the machine lock, so subscribers may call back into
// the machine; OnStateChange fires before the terminal callback of the same
// transition.
type Callbacks struct {
	OnStateChange func(from, to State)
	OnSucceeded   func(attempt *models.PaymentAttempt)
	OnFailed      func(code, message string)
	OnTimedOut    func()
	OnCancelled   func()
}

// Machine is the per-attempt finite state machine shared by the card and UPI
// flows. Every trigger is guarded by the current state; triggers arriving in
// the wrong state are rejected rather than applied. All triggers are
// serialized on one mutex, so timer callbacks and network callbacks never
// interleave mid-transition.
type Machine struct {
	mu  sync.Mutex
	log *zap.Logger

	method      models.PaymentMethod
	inputWindow time.Duration
	timeoutCode string

	state            State
	initializing     bool
	retryCount       int
	activeAttemptID  string
	failureCode      string
	failureMessage   string
	terminalNotified bool

	inputTimer *countdown.Countdown
	callbacks  Callbacks
}

func NewMachine(log *zap.Logger, method models.PaymentMethod, inputWindow time.Duration, callbacks Callbacks) *Machine {
	timeoutCode := constvars.FailureCodeInputTimeout
	if method == models.MethodUPI {
		timeoutCode = constvars.FailureCodeQRExpired
	}
	return &Machine{
		log:         log,
		method:      method,
		inputWindow: inputWindow,
		timeoutCode: timeoutCode,
		state:       StateIdle,
		callbacks:   callbacks,
	}
}

// Start moves idle → initializing and clears retry-eligible error state. The
// in-flight flag rejects a second initialization racing the first one's async
// connect call.
func (m *Machine) Start() error {
	m.mu.Lock()

	if m.initializing {
		m.mu.Unlock()
		return ErrFlowBusy
	}
	if m.state != StateIdle {
		m.mu.Unlock()
		return ErrIllegalTransition
	}
	m.initializing = true
	m.failureCode = ""
	m.failureMessage = ""
	notifyState := m.transitionLocked(StateInitializing)
	m.mu.Unlock()

	if notifyState != nil {
		notifyState()
	}
	return nil
}

// BindAttempt registers the attempt the current flow run belongs to. Async
// results carrying any other attempt id are discarded.
func (m *Machine) BindAttempt(attemptID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeAttemptID = attemptID
}

// MarkReady is the method-specific readiness signal (POS connected, QR
// generated). It opens the input window and starts its countdown.
func (m *Machine) MarkReady() error {
	m.mu.Lock()

	if m.state != StateInitializing {
		m.mu.Unlock()
		return ErrIllegalTransition
	}
	m.initializing = false
	notifyState := m.transitionLocked(StateAwaitingInput)

	timer := countdown.New(m.inputWindow, func() {
		if err := m.Timeout(); err != nil {
			m.log.Debug("paymentflow.Machine input window expired in non-awaiting state",
				zap.String(constvars.LoggingPaymentMethodKey, string(m.method)),
				zap.Error(err),
			)
		}
	})
	m.inputTimer = timer
	m.mu.Unlock()

	if notifyState != nil {
		notifyState()
	}
	timer.Start()
	return nil
}

// InputDetected reacts to the card tap/insert/swipe or a pending→success poll
// transition. Only meaningful while awaiting input.
func (m *Machine) InputDetected() error {
	m.mu.Lock()

	if m.state != StateAwaitingInput {
		m.mu.Unlock()
		return ErrIllegalTransition
	}
	m.stopInputTimerLocked()
	notifyState := m.transitionLocked(StateProcessing)
	m.mu.Unlock()

	if notifyState != nil {
		notifyState()
	}
	return nil
}

// Succeed finishes the attempt. The attempt id must still be the active one;
// a result arriving after cancel or retry is dropped and finalize never runs.
// finalize produces the settled attempt record only once the transition is
// accepted, so a dropped late result leaves the record untouched.
func (m *Machine) Succeed(attemptID string, finalize func() *models.PaymentAttempt) error {
	m.mu.Lock()

	if attemptID != m.activeAttemptID {
		m.mu.Unlock()
		return ErrStaleAttempt
	}
	if m.state != StateProcessing {
		m.mu.Unlock()
		return ErrIllegalTransition
	}
	m.stopInputTimerLocked()
	notifyState := m.transitionLocked(StateSucceeded)
	notify := m.claimTerminalLocked()
	callback := m.callbacks.OnSucceeded
	m.mu.Unlock()

	var attempt *models.PaymentAttempt
	if finalize != nil {
		attempt = finalize()
	}
	if notifyState != nil {
		notifyState()
	}
	if notify && callback != nil {
		callback(attempt)
	}
	return nil
}

// Fail moves any non-terminal state to failed with a failure code.
func (m *Machine) Fail(attemptID, code, message string) error {
	m.mu.Lock()

	if attemptID != "" && attemptID != m.activeAttemptID {
		m.mu.Unlock()
		return ErrStaleAttempt
	}
	if m.state.Terminal() || m.state.Recoverable() {
		m.mu.Unlock()
		return ErrIllegalTransition
	}
	m.initializing = false
	m.stopInputTimerLocked()
	m.failureCode = code
	m.failureMessage = message
	notifyState := m.transitionLocked(StateFailed)
	notify := m.claimTerminalLocked()
	callback := m.callbacks.OnFailed
	m.mu.Unlock()

	if notifyState != nil {
		notifyState()
	}
	if notify && callback != nil {
		callback(code, message)
	}
	return nil
}

// Timeout closes the input window, either from the countdown or manually.
func (m *Machine) Timeout() error {
	m.mu.Lock()

	if m.state != StateAwaitingInput {
		m.mu.Unlock()
		return ErrIllegalTransition
	}
	m.stopInputTimerLocked()
	m.failureCode = m.timeoutCode
	m.failureMessage = constvars.PaymentErrorMessages[m.timeoutCode]
	notifyState := m.transitionLocked(StateTimedOut)
	notify := m.claimTerminalLocked()
	callback := m.callbacks.OnTimedOut
	m.mu.Unlock()

	if notifyState != nil {
		notifyState()
	}
	if notify && callback != nil {
		callback()
	}
	return nil
}

// Cancel aborts the attempt from any non-terminal state. Repeated cancels are
// no-ops.
func (m *Machine) Cancel() error {
	m.mu.Lock()

	if m.state == StateCancelled || m.state == StateIdle {
		m.mu.Unlock()
		return nil
	}
	if m.state == StateSucceeded {
		m.mu.Unlock()
		return ErrIllegalTransition
	}
	m.initializing = false
	m.stopInputTimerLocked()
	m.activeAttemptID = ""
	notifyState := m.transitionLocked(StateCancelled)
	notify := m.claimTerminalLocked()
	callback := m.callbacks.OnCancelled
	m.mu.Unlock()

	if notifyState != nil {
		notifyState()
	}
	if notify && callback != nil {
		callback()
	}
	return nil
}

// Retry re-arms the machine from failed or timed_out. The caller creates a
// new attempt and binds it; the previous attempt is never reused.
func (m *Machine) Retry() error {
	m.mu.Lock()

	if !m.canRetryLocked() {
		m.mu.Unlock()
		return ErrRetryNotAllowed
	}
	m.retryCount++
	m.failureCode = ""
	m.failureMessage = ""
	m.activeAttemptID = ""
	m.terminalNotified = false
	m.initializing = true
	notifyState := m.transitionLocked(StateInitializing)
	m.mu.Unlock()

	if notifyState != nil {
		notifyState()
	}
	return nil
}

func (m *Machine) CanRetry() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.canRetryLocked()
}

func (m *Machine) canRetryLocked() bool {
	return m.state.Recoverable() && !m.initializing
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Machine) RetryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.retryCount
}

func (m *Machine) ActiveAttemptID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeAttemptID
}

func (m *Machine) Failure() (code, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failureCode, m.failureMessage
}

// InputRemaining reports the time left in the input window, zero when no
// window is open.
func (m *Machine) InputRemaining() time.Duration {
	m.mu.Lock()
	timer := m.inputTimer
	m.mu.Unlock()
	if timer == nil {
		return 0
	}
	return timer.Remaining()
}

// transitionLocked applies the state change and returns the OnStateChange
// notification to fire once the lock is released, nil when nobody subscribed.
func (m *Machine) transitionLocked(to State) func() {
	from := m.state
	m.state = to
	m.log.Debug("paymentflow.Machine transition",
		zap.String(constvars.LoggingPaymentMethodKey, string(m.method)),
		zap.String("from", string(from)),
		zap.String(constvars.LoggingFlowStateKey, string(to)),
		zap.Int(constvars.LoggingRetryCountKey, m.retryCount),
	)
	if callback := m.callbacks.OnStateChange; callback != nil {
		return func() { callback(from, to) }
	}
	return nil
}

func (m *Machine) claimTerminalLocked() bool {
	if m.terminalNotified {
		return false
	}
	m.terminalNotified = true
	return true
}

func (m *Machine) stopInputTimerLocked() {
	if m.inputTimer != nil {
		m.inputTimer.Stop()
		m.inputTimer = nil
	}
}
