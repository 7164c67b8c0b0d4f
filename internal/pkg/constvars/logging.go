package constvars

const (
	LoggingRequestIDKey      = "request_id"
	LoggingDataKey           = "data"
	LoggingRequestKey        = "request"
	LoggingResponseKey       = "response"
	LoggingQueryKey          = "query"
	LoggingMethodKey         = "method"
	LoggingEndpointKey       = "endpoint"
	LoggingRemoteAddrKey     = "remote_addr"
	LoggingUserAgentKey      = "user_agent"
	LoggingStatusCodeKey     = "status_code"
	LoggingDurationKey       = "duration"
	LoggingSuccessKey        = "success"
	LoggingErrorTypeKey      = "error_type"
	LoggingOperationKey      = "operation"
	LoggingEventNameKey      = "event_name"
	LoggingRedisKey          = "redis_key"
	LoggingLockExpirationKey = "lock_expiration"
	LoggingLockValueKey      = "lock_value"

	LoggingSettlementIDKey  = "settlement_id"
	LoggingInvoiceIDKey     = "invoice_id"
	LoggingIntentIDKey      = "intent_id"
	LoggingAttemptIDKey     = "attempt_id"
	LoggingStepIDKey        = "step_id"
	LoggingStepIndexKey     = "step_index"
	LoggingPaymentMethodKey = "payment_method"
	LoggingAmountKey        = "amount"
	LoggingFlowStateKey     = "flow_state"
	LoggingFailureCodeKey   = "failure_code"
	LoggingRetryCountKey    = "retry_count"
)
