package requests

import (
	"frontdesk-service/internal/pkg/exceptions"
	"frontdesk-service/internal/pkg/utils"
)

type SplitStepInput struct {
	Method string `json:"method" validate:"required,payment_method"`
	Amount int64  `json:"amount" validate:"required,gt=0"`
}

type CreateSettlementRequest struct {
	InvoiceID   string           `json:"invoice_id" validate:"required"`
	PatientID   string           `json:"patient_id" validate:"required"`
	PatientName string           `json:"patient_name" validate:"required"`
	MRN         string           `json:"mrn" validate:"required"`
	Purpose     string           `json:"purpose" validate:"required,purpose"`
	TotalAmount int64            `json:"total_amount" validate:"required,gt=0"`
	Steps       []SplitStepInput `json:"steps" validate:"required,min=1,dive"`
}

// Validate rejects malformed payloads and split lists whose amounts do not
// sum to the total, before any intent is created.
func (r *CreateSettlementRequest) Validate() error {
	if err := utils.ValidateStruct(r); err != nil {
		return exceptions.ErrInputValidation(err)
	}

	var sum int64
	for _, step := range r.Steps {
		sum += step.Amount
	}
	if sum != r.TotalAmount {
		return exceptions.ErrSplitAmountMismatch(nil)
	}
	return nil
}

type CardDetectedRequest struct {
	CardType string `json:"card_type" validate:"required,oneof=tap insert swipe"`
}

func (r *CardDetectedRequest) Validate() error {
	if err := utils.ValidateStruct(r); err != nil {
		return exceptions.ErrInputValidation(err)
	}
	return nil
}

type CancelSettlementRequest struct {
	Confirm bool `json:"confirm"`
}
