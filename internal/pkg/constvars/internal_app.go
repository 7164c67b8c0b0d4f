package constvars

type ContextKey string

const (
	CONTEXT_REQUEST_ID_KEY           ContextKey = "request_id"
	CONTEXT_DESK_SESSION_KEY         ContextKey = "desk_session"
	CONTEXT_IS_CLIENT_REQUEST_ID_KEY ContextKey = "is_client_request_id"
)

const (
	REQUEST_ID_PREFIX = "FRNTDSK_SVC_"
)

const (
	ResourceSettlements = "settlements"
	ResourceAttempts    = "attempts"
)

const (
	// PaymentProviderPOSBridge identifies the in-clinic card terminal bridge.
	PaymentProviderPOSBridge = "pos_bridge"
	// PaymentProviderUPIPSP identifies the UPI payment service provider.
	PaymentProviderUPIPSP = "upi_psp"
)

const (
	RedisSettlementLockKeyFormat = "settlement:invoice:%s:lock"
)

const (
	MongoDatabaseName            = "frontdesk"
	MongoSettlementsCollection   = "settlements"
	MongoAttemptsCollection      = "payment_attempts"
	TelemetryQueueName           = "frontdesk_payment_events_queue"
	TelemetryDeadLetterQueueName = "frontdesk_payment_events_dlq"
)
