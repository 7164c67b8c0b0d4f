package constvars

// Client-facing messages.
const (
	ErrClientSomethingWrongWithApplication = "Something went wrong with the application, please contact the administrator!"
	ErrClientCannotProcessRequest          = "Cannot process the request, please re-check the inputs"
	ErrClientServerLongRespond             = "Server took too long to respond, please try again later"
	ErrClientNotAuthorized                 = "You are not authorized to do this action"
	ErrClientPaymentGeneric                = "Payment could not be completed. Please try again or use another method."
	ErrClientSplitAmountMismatch           = "Split amounts do not add up to the total due"
	ErrClientSettlementNotFound            = "Settlement session not found or already closed"
	ErrClientSettlementLocked              = "Another desk is already collecting this invoice"
	ErrClientStepNotActionable             = "This settlement step cannot be acted on right now"
	ErrClientCancelNeedsConfirmation       = "Money has already been collected for this bill; cancelling requires confirmation"
	ErrClientRefreshThrottled              = "Status was refreshed a moment ago, please wait before refreshing again"
)

// Developer-facing messages.
const (
	ErrDevValidationFailed           = "Request validation failed"
	ErrDevCannotParseJSON            = "Failed to parse JSON body"
	ErrDevCannotMarshalJSON          = "Failed to marshal JSON"
	ErrDevBuildRequest               = "Failed to build outbound request"
	ErrDevServerDeadlineExceeded     = "Deadline exceeded while processing request"
	ErrDevMissingRequestID           = "Request ID missing from context"
	ErrDevAuthTokenMissing           = "Authorization token missing"
	ErrDevAuthTokenInvalidOrExpired  = "Authorization token invalid or expired"
	ErrDevSplitAmountMismatch        = "Sum of split step amounts does not equal total to collect"
	ErrDevSettlementNotFound         = "Settlement session does not exist in the registry"
	ErrDevSettlementLockNotAcquired  = "Per-invoice settlement lock not acquired"
	ErrDevStepNotActionable          = "Step is not in an actionable status for this operation"
	ErrDevStepOutOfOrder             = "Operation targets a step that is not the current step"
	ErrDevCancelNeedsConfirmation    = "Cancellation with succeeded steps requires confirm flag"
	ErrDevIllegalFlowTransition      = "Illegal attempt state machine transition"
	ErrDevFlowBusy                   = "Flow is already initializing"
	ErrDevGatewayRequestFailed       = "Payment gateway request failed"
	ErrDevGatewayBadStatus           = "Payment gateway returned non-success status"
	ErrDevRefreshThrottled           = "Manual status refresh rate limit exceeded"
	ErrDevMongoCannotInsertEntity    = "Failed to insert entity into mongo collection"
	ErrDevMongoCannotFindEntity      = "Failed to find entity in mongo collection"
	ErrDevRedisCannotSetKey          = "Failed to set redis key"
	ErrDevRedisCannotGetKey          = "Failed to get redis key"
	ErrDevRedisCannotDeleteKey       = "Failed to delete redis key"
	ErrDevQueueCannotPublishMessage  = "Failed to publish message to queue"
	ErrDevQueueCannotDeclareQueue    = "Failed to declare queue"
	ErrDevLockNotOwnedOrAlreadyFreed = "Lock not owned by caller or already released"
)

const (
	ResponseUnknown = "unknown"
	ResponseSuccess = "success"
)
