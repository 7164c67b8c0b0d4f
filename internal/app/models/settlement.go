package models

import (
	"time"
)

type StepStatus string

const (
	StepPending    StepStatus = "pending"
	StepProcessing StepStatus = "processing"
	StepSucceeded  StepStatus = "succeeded"
	StepFailed     StepStatus = "failed"
)

// SplitPaymentStep is one slice of a bill total, collected via one method.
// Owned exclusively by the settlement orchestrator. Cash steps never produce
// a flow-controller attempt; their Attempt is synthesized on confirmation.
type SplitPaymentStep struct {
	ID      string          `json:"id" bson:"_id"`
	Method  PaymentMethod   `json:"method" bson:"method"`
	Amount  int64           `json:"amount" bson:"amount"`
	Status  StepStatus      `json:"status" bson:"status"`
	Attempt *PaymentAttempt `json:"attempt,omitempty" bson:"attempt,omitempty"`
}

type SettlementOutcome string

const (
	OutcomeComplete  SettlementOutcome = "complete"
	OutcomePartial   SettlementOutcome = "partial"
	OutcomeCancelled SettlementOutcome = "cancelled"
)

type SettlementStatus string

const (
	SettlementActive    SettlementStatus = "active"
	SettlementCompleted SettlementStatus = "completed"
	SettlementPartial   SettlementStatus = "partial"
	SettlementCancelled SettlementStatus = "cancelled"
)

// SettlementRecord is the terminal snapshot of a settlement session persisted
// for bookkeeping once the session closes.
type SettlementRecord struct {
	ID              string             `json:"id" bson:"_id"`
	InvoiceID       string             `json:"invoice_id" bson:"invoice_id"`
	PatientID       string             `json:"patient_id" bson:"patient_id"`
	PatientName     string             `json:"patient_name" bson:"patient_name"`
	MRN             string             `json:"mrn" bson:"mrn"`
	TotalAmount     int64              `json:"total_amount" bson:"total_amount"`
	AmountCollected int64              `json:"amount_collected" bson:"amount_collected"`
	Outcome         SettlementOutcome  `json:"outcome" bson:"outcome"`
	Steps           []SplitPaymentStep `json:"steps" bson:"steps"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	ClosedAt        time.Time          `json:"closed_at" bson:"closed_at"`
}
