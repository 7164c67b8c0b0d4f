package constvars

// Failure codes surfaced by the gateway adapter or produced locally by the
// flow controllers. Codes, not user text: message lookup happens in
// PaymentErrorMessages.
const (
	FailureCodePOSDisconnected = "POS_DISCONNECTED"
	FailureCodeNetworkError    = "NETWORK_ERROR"
	FailureCodeBankDeclined    = "BANK_DECLINED"
	FailureCodeCardReadError   = "CARD_READ_ERROR"
	FailureCodePayerCancelled  = "PAYER_CANCELLED"
	FailureCodeQRExpired       = "QR_EXPIRED"
	FailureCodeInputTimeout    = "INPUT_TIMEOUT"
	FailureCodeUnknown         = "UNKNOWN"
)

// PaymentErrorMessages maps failure codes to the human message shown at the
// desk. Unrecognized codes fall back to the attempt's own message, then to
// ErrClientPaymentGeneric.
var PaymentErrorMessages = map[string]string{
	FailureCodePOSDisconnected: "Card reader is disconnected. Please check the device and try again.",
	FailureCodeNetworkError:    "Network problem while talking to the payment service. Please try again.",
	FailureCodeBankDeclined:    "The bank declined this payment. Please try another card or method.",
	FailureCodeCardReadError:   "The card could not be read. Please tap, insert, or swipe again.",
	FailureCodePayerCancelled:  "The payer cancelled the UPI request.",
	FailureCodeQRExpired:       "The QR code expired before payment was made.",
	FailureCodeInputTimeout:    "No card activity detected within the allowed time.",
}

// Telemetry event names published through the telemetry queue.
const (
	EventPaymentFlowStarted    = "payment_flow_started"
	EventPaymentAttemptCreated = "payment_attempt_created"
	EventPaymentSucceeded      = "payment_succeeded"
	EventPaymentFailed         = "payment_failed"
	EventPaymentTimedOut       = "payment_timed_out"
	EventPaymentCancelled      = "payment_cancelled"
	EventPaymentRetried        = "payment_retried"
	EventSettlementStarted     = "settlement_started"
	EventSettlementStepDone    = "settlement_step_done"
	EventSettlementCompleted   = "settlement_completed"
	EventSettlementPartial     = "settlement_partial"
	EventSettlementCancelled   = "settlement_cancelled"
)

// Default timeout values in seconds; overridable through environment.
const (
	DefaultCardReadingTimeoutInSeconds = 60
	DefaultUPIPollingIntervalInSeconds = 5
	DefaultUPIQRValidityInSeconds      = 300
)
