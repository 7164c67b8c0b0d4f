package requests

import (
	"frontdesk-service/internal/app/models"
)

type CreatePaymentIntentRequest struct {
	OrderID     string                `json:"order_id"`
	PatientID   string                `json:"patient_id"`
	PatientName string                `json:"patient_name"`
	MRN         string                `json:"mrn"`
	Amount      int64                 `json:"amount"`
	Purpose     models.PaymentPurpose `json:"purpose"`
	Method      models.PaymentMethod  `json:"method"`
}

type CreatePaymentAttemptRequest struct {
	IntentID string               `json:"intent_id"`
	Method   models.PaymentMethod `json:"method"`
	Provider string               `json:"provider"`
}

type ProcessCardPaymentRequest struct {
	IntentID string `json:"intent_id"`
	CardType string `json:"card_type"`
}
