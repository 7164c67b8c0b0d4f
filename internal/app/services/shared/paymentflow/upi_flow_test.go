package paymentflow

import (
	"context"
	"testing"
	"time"

	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/responses"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestUPIFlow(gateway *stubGateway, qrValidity, pollInterval time.Duration, callbacks Callbacks) *UPIFlow {
	return NewUPIFlow(
		zap.NewNop(),
		gateway,
		&stubTelemetry{},
		constvars.PaymentProviderUPIPSP,
		testIntent(models.MethodUPI),
		qrValidity,
		pollInterval,
		callbacks,
	)
}

func TestUPIFlowSucceedsAfterPendingPolls(t *testing.T) {
	gateway := &stubGateway{
		pollQueue: []*responses.UPIStatusResponse{
			{Status: responses.UPIPollPending},
			{Status: responses.UPIPollPending},
			{Status: responses.UPIPollPending},
			{Status: responses.UPIPollPending},
			{Status: responses.UPIPollPending},
			{
				Status:  responses.UPIPollSuccess,
				Attempt: &models.PaymentAttempt{UPI: &models.UPIMetadata{PayerVPA: "payer@bank", UTR: "UTR123"}},
			},
		},
	}

	var got *models.PaymentAttempt
	flow := newTestUPIFlow(gateway, time.Minute, 10*time.Millisecond, Callbacks{
		OnSucceeded: func(attempt *models.PaymentAttempt) {
			got = attempt
		},
	})

	require.NoError(t, flow.Begin(context.Background()))
	assert.Equal(t, StateAwaitingInput, flow.Machine().State())
	qrPayload, deepLink := flow.QRPayload()
	assert.NotEmpty(t, qrPayload)
	assert.NotEmpty(t, deepLink)

	require.Eventually(t, func() bool {
		return flow.Machine().State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	require.NotNil(t, got)
	require.NotNil(t, got.UPI)
	assert.Equal(t, "payer@bank", got.UPI.PayerVPA)

	// The loop stops on the first terminal poll.
	settled := gateway.PollCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, gateway.PollCount())
}

func TestUPIFlowPayerCancelled(t *testing.T) {
	gateway := &stubGateway{
		pollQueue: []*responses.UPIStatusResponse{
			{Status: responses.UPIPollFailed},
		},
	}

	var gotCode string
	flow := newTestUPIFlow(gateway, time.Minute, 10*time.Millisecond, Callbacks{
		OnFailed: func(code, message string) {
			gotCode = code
		},
	})

	require.NoError(t, flow.Begin(context.Background()))
	require.Eventually(t, func() bool {
		return flow.Machine().State() == StateFailed
	}, 2*time.Second, 10*time.Millisecond)

	assert.Equal(t, constvars.FailureCodePayerCancelled, gotCode)
	_, message := flow.Machine().Failure()
	assert.Equal(t, constvars.PaymentErrorMessages[constvars.FailureCodePayerCancelled], message)
	assert.True(t, flow.Machine().CanRetry())
}

func TestUPIFlowCancelStopsPolling(t *testing.T) {
	gateway := &stubGateway{}
	flow := newTestUPIFlow(gateway, time.Minute, 10*time.Millisecond, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.Cancel())
	assert.Equal(t, StateCancelled, flow.Machine().State())

	// A tick already in flight when the loop stops may land one last poll.
	time.Sleep(30 * time.Millisecond)
	settled := gateway.PollCount()
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, settled, gateway.PollCount())

	// Cancel again is a no-op, not a panic on a closed channel.
	require.NoError(t, flow.Cancel())
}

func TestUPIFlowLateSuccessAfterCancelIsDropped(t *testing.T) {
	gateway := &stubGateway{
		pollQueue: []*responses.UPIStatusResponse{
			{Status: responses.UPIPollSuccess},
		},
	}
	// Long interval so only a manual refresh can reach the gateway.
	flow := newTestUPIFlow(gateway, time.Minute, time.Minute, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	require.NoError(t, flow.Cancel())

	require.NoError(t, flow.RefreshStatus(context.Background()))
	assert.Equal(t, StateCancelled, flow.Machine().State())
}

func TestUPIFlowRefreshStatusThrottled(t *testing.T) {
	gateway := &stubGateway{}
	flow := newTestUPIFlow(gateway, time.Minute, time.Minute, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))

	require.NoError(t, flow.RefreshStatus(context.Background()))
	assert.ErrorIs(t, flow.RefreshStatus(context.Background()), ErrRefreshThrottled)
}

func TestUPIFlowQRExpiry(t *testing.T) {
	gateway := &stubGateway{}

	var timedOut bool
	flow := newTestUPIFlow(gateway, time.Second, time.Minute, Callbacks{
		OnTimedOut: func() {
			timedOut = true
		},
	})

	require.NoError(t, flow.Begin(context.Background()))
	require.Eventually(t, func() bool {
		return flow.Machine().State() == StateTimedOut
	}, 3*time.Second, 50*time.Millisecond)

	assert.True(t, timedOut)
	code, _ := flow.Machine().Failure()
	assert.Equal(t, constvars.FailureCodeQRExpired, code)
	assert.True(t, flow.Machine().CanRetry())
}

func TestUPIFlowRetryRegeneratesQR(t *testing.T) {
	gateway := &stubGateway{
		pollQueue: []*responses.UPIStatusResponse{
			{Status: responses.UPIPollFailed},
		},
	}
	flow := newTestUPIFlow(gateway, time.Minute, 10*time.Millisecond, Callbacks{})

	require.NoError(t, flow.Begin(context.Background()))
	require.Eventually(t, func() bool {
		return flow.Machine().State() == StateFailed
	}, 2*time.Second, 10*time.Millisecond)
	firstAttemptID := flow.Attempt().ID

	gateway.mu.Lock()
	gateway.pollQueue = []*responses.UPIStatusResponse{
		{Status: responses.UPIPollSuccess, Attempt: &models.PaymentAttempt{UPI: &models.UPIMetadata{UTR: "UTR456"}}},
	}
	gateway.mu.Unlock()

	require.NoError(t, flow.Retry(context.Background()))
	assert.NotEqual(t, firstAttemptID, flow.Attempt().ID)
	assert.Equal(t, 1, flow.Machine().RetryCount())

	require.Eventually(t, func() bool {
		return flow.Machine().State() == StateSucceeded
	}, 2*time.Second, 10*time.Millisecond)
}
