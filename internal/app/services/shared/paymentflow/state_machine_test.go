package paymentflow

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/constvars"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestMachine(t *testing.T, method models.PaymentMethod, window time.Duration, callbacks Callbacks) *Machine {
	t.Helper()
	return NewMachine(zap.NewNop(), method, window, callbacks)
}

func TestMachineHappyPath(t *testing.T) {
	var succeeded int32
	machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{
		OnSucceeded: func(attempt *models.PaymentAttempt) {
			atomic.AddInt32(&succeeded, 1)
		},
	})

	require.NoError(t, machine.Start())
	assert.Equal(t, StateInitializing, machine.State())

	machine.BindAttempt("attempt-1")
	require.NoError(t, machine.MarkReady())
	assert.Equal(t, StateAwaitingInput, machine.State())
	assert.Greater(t, machine.InputRemaining(), time.Duration(0))

	require.NoError(t, machine.InputDetected())
	assert.Equal(t, StateProcessing, machine.State())

	require.NoError(t, machine.Succeed("attempt-1", func() *models.PaymentAttempt {
		return &models.PaymentAttempt{ID: "attempt-1"}
	}))
	assert.Equal(t, StateSucceeded, machine.State())
	assert.Equal(t, int32(1), atomic.LoadInt32(&succeeded))
}

func TestMachineNeverSkipsProcessing(t *testing.T) {
	machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{})

	require.NoError(t, machine.Start())
	machine.BindAttempt("attempt-1")
	require.NoError(t, machine.MarkReady())

	finalized := false
	err := machine.Succeed("attempt-1", func() *models.PaymentAttempt {
		finalized = true
		return &models.PaymentAttempt{ID: "attempt-1"}
	})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Equal(t, StateAwaitingInput, machine.State())
	assert.False(t, finalized, "rejected result must not finalize the attempt record")
}

func TestMachineDropsStaleAttemptResult(t *testing.T) {
	machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{})

	require.NoError(t, machine.Start())
	machine.BindAttempt("attempt-2")
	require.NoError(t, machine.MarkReady())
	require.NoError(t, machine.InputDetected())

	finalized := false
	err := machine.Succeed("attempt-1", func() *models.PaymentAttempt {
		finalized = true
		return &models.PaymentAttempt{ID: "attempt-1"}
	})
	assert.ErrorIs(t, err, ErrStaleAttempt)
	assert.Equal(t, StateProcessing, machine.State())
	assert.False(t, finalized, "stale result must not finalize the attempt record")
}

func TestMachineRejectsConcurrentStart(t *testing.T) {
	machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{})

	require.NoError(t, machine.Start())
	assert.ErrorIs(t, machine.Start(), ErrFlowBusy)
}

func TestMachineCancel(t *testing.T) {
	t.Run("idempotent from any non-terminal state", func(t *testing.T) {
		var cancelled int32
		machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{
			OnCancelled: func() {
				atomic.AddInt32(&cancelled, 1)
			},
		})

		require.NoError(t, machine.Start())
		machine.BindAttempt("attempt-1")
		require.NoError(t, machine.MarkReady())

		require.NoError(t, machine.Cancel())
		require.NoError(t, machine.Cancel())
		assert.Equal(t, StateCancelled, machine.State())
		assert.Equal(t, int32(1), atomic.LoadInt32(&cancelled))
		assert.Empty(t, machine.ActiveAttemptID())
	})

	t.Run("rejected after success", func(t *testing.T) {
		machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{})

		require.NoError(t, machine.Start())
		machine.BindAttempt("attempt-1")
		require.NoError(t, machine.MarkReady())
		require.NoError(t, machine.InputDetected())
		require.NoError(t, machine.Succeed("attempt-1", func() *models.PaymentAttempt {
			return &models.PaymentAttempt{ID: "attempt-1"}
		}))

		assert.ErrorIs(t, machine.Cancel(), ErrIllegalTransition)
	})
}

func TestMachineRetry(t *testing.T) {
	t.Run("allowed from failed and re-arms terminal callbacks", func(t *testing.T) {
		var failed int32
		machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{
			OnFailed: func(code, message string) {
				atomic.AddInt32(&failed, 1)
			},
		})

		require.NoError(t, machine.Start())
		machine.BindAttempt("attempt-1")
		require.NoError(t, machine.Fail("attempt-1", constvars.FailureCodePOSDisconnected, "reader unplugged"))
		assert.Equal(t, StateFailed, machine.State())
		assert.True(t, machine.CanRetry())

		require.NoError(t, machine.Retry())
		assert.Equal(t, StateInitializing, machine.State())
		assert.Equal(t, 1, machine.RetryCount())
		code, message := machine.Failure()
		assert.Empty(t, code)
		assert.Empty(t, message)

		machine.BindAttempt("attempt-2")
		require.NoError(t, machine.Fail("attempt-2", constvars.FailureCodeNetworkError, ""))
		assert.Equal(t, int32(2), atomic.LoadInt32(&failed))
	})

	t.Run("rejected mid-flow", func(t *testing.T) {
		machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{})

		require.NoError(t, machine.Start())
		assert.ErrorIs(t, machine.Retry(), ErrRetryNotAllowed)

		machine.BindAttempt("attempt-1")
		require.NoError(t, machine.MarkReady())
		require.NoError(t, machine.InputDetected())
		assert.ErrorIs(t, machine.Retry(), ErrRetryNotAllowed)
	})
}

func TestMachineTimeoutCodePerMethod(t *testing.T) {
	t.Run("card reading window", func(t *testing.T) {
		machine := newTestMachine(t, models.MethodCard, time.Minute, Callbacks{})
		require.NoError(t, machine.Start())
		machine.BindAttempt("attempt-1")
		require.NoError(t, machine.MarkReady())

		require.NoError(t, machine.Timeout())
		code, message := machine.Failure()
		assert.Equal(t, constvars.FailureCodeInputTimeout, code)
		assert.Equal(t, constvars.PaymentErrorMessages[constvars.FailureCodeInputTimeout], message)
	})

	t.Run("qr validity window", func(t *testing.T) {
		machine := newTestMachine(t, models.MethodUPI, time.Minute, Callbacks{})
		require.NoError(t, machine.Start())
		machine.BindAttempt("attempt-1")
		require.NoError(t, machine.MarkReady())

		require.NoError(t, machine.Timeout())
		code, _ := machine.Failure()
		assert.Equal(t, constvars.FailureCodeQRExpired, code)
	})
}

func TestMachineStateChangeCanReenter(t *testing.T) {
	var order []string
	var mu sync.Mutex
	var machine *Machine
	machine = newTestMachine(t, models.MethodCard, time.Minute, Callbacks{
		OnStateChange: func(from, to State) {
			// Calling accessors from the subscriber must not deadlock.
			observed := machine.State()
			mu.Lock()
			order = append(order, "state:"+string(observed))
			mu.Unlock()
		},
		OnSucceeded: func(attempt *models.PaymentAttempt) {
			mu.Lock()
			order = append(order, "succeeded")
			mu.Unlock()
		},
	})

	require.NoError(t, machine.Start())
	machine.BindAttempt("attempt-1")
	require.NoError(t, machine.MarkReady())
	require.NoError(t, machine.InputDetected())
	require.NoError(t, machine.Succeed("attempt-1", func() *models.PaymentAttempt {
		return &models.PaymentAttempt{ID: "attempt-1"}
	}))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{
		"state:initializing",
		"state:awaiting_input",
		"state:processing",
		"state:succeeded",
		"succeeded",
	}, order, "state changes fire in order, before the terminal callback")
}

func TestMachineInputWindowExpires(t *testing.T) {
	var timedOut int32
	machine := newTestMachine(t, models.MethodCard, time.Second, Callbacks{
		OnTimedOut: func() {
			atomic.AddInt32(&timedOut, 1)
		},
	})

	require.NoError(t, machine.Start())
	machine.BindAttempt("attempt-1")
	require.NoError(t, machine.MarkReady())

	require.Eventually(t, func() bool {
		return machine.State() == StateTimedOut
	}, 3*time.Second, 50*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&timedOut))
	assert.True(t, machine.CanRetry())
	assert.Zero(t, machine.InputRemaining())
}
