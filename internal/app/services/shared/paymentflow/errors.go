package paymentflow

import (
	"frontdesk-service/internal/pkg/constvars"
)

// ResolveFailureMessage looks a failure code up in the fixed error-message
// table, falling back to the attempt's own message and then to the generic
// payment message. The desk never sees a raw code.
func ResolveFailureMessage(code, attemptMessage string) string {
	if message, ok := constvars.PaymentErrorMessages[code]; ok {
		return message
	}
	if attemptMessage != "" {
		return attemptMessage
	}
	return constvars.ErrClientPaymentGeneric
}
