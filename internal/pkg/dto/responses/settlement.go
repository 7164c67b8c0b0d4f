package responses

import (
	"frontdesk-service/internal/app/models"
)

type SettlementStepResponse struct {
	ID      string                 `json:"id"`
	Method  models.PaymentMethod   `json:"method"`
	Amount  int64                  `json:"amount"`
	Status  models.StepStatus      `json:"status"`
	Attempt *models.PaymentAttempt `json:"attempt,omitempty"`
}

type SettlementResponse struct {
	ID              string                   `json:"id"`
	InvoiceID       string                   `json:"invoice_id"`
	Status          models.SettlementStatus  `json:"status"`
	Outcome         models.SettlementOutcome `json:"outcome,omitempty"`
	TotalAmount     int64                    `json:"total_amount"`
	AmountCollected int64                    `json:"amount_collected"`
	CurrentStep     int                      `json:"current_step"`
	FlowState       string                   `json:"flow_state,omitempty"`
	FailureCode     string                   `json:"failure_code,omitempty"`
	FailureMessage  string                   `json:"failure_message,omitempty"`
	QRPayload       string                   `json:"qr_payload,omitempty"`
	DeepLink        string                   `json:"deep_link,omitempty"`
	Steps           []SettlementStepResponse `json:"steps"`
}
