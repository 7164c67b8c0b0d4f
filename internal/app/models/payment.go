package models

import (
	"time"
)

type PaymentMethod string

const (
	MethodCash PaymentMethod = "cash"
	MethodCard PaymentMethod = "card"
	MethodUPI  PaymentMethod = "upi"
)

type PaymentPurpose string

const (
	PurposeSettlement PaymentPurpose = "settlement"
	PurposeAdvance    PaymentPurpose = "advance"
	PurposeDues       PaymentPurpose = "dues"
	PurposeRefund     PaymentPurpose = "refund"
)

type AttemptStatus string

const (
	AttemptPending   AttemptStatus = "pending"
	AttemptSucceeded AttemptStatus = "succeeded"
	AttemptFailed    AttemptStatus = "failed"
)

// PaymentIntent declares the amount about to be collected for one purpose.
// Immutable once created; at most one in-progress attempt refers to it at a
// time.
type PaymentIntent struct {
	ID          string         `json:"id" bson:"_id"`
	OrderID     string         `json:"order_id" bson:"order_id"`
	PatientID   string         `json:"patient_id" bson:"patient_id"`
	PatientName string         `json:"patient_name" bson:"patient_name"`
	MRN         string         `json:"mrn" bson:"mrn"`
	Amount      int64          `json:"amount" bson:"amount"`
	Purpose     PaymentPurpose `json:"purpose" bson:"purpose"`
	Method      PaymentMethod  `json:"method" bson:"method"`
	CreatedAt   time.Time      `json:"created_at" bson:"created_at"`
}

type CardMetadata struct {
	CardBrand string `json:"card_brand" bson:"card_brand"`
	Last4     string `json:"last4" bson:"last4"`
	AuthCode  string `json:"auth_code,omitempty" bson:"auth_code,omitempty"`
	RRN       string `json:"rrn,omitempty" bson:"rrn,omitempty"`
}

type UPIMetadata struct {
	PayerVPA string `json:"payer_vpa,omitempty" bson:"payer_vpa,omitempty"`
	UTR      string `json:"utr,omitempty" bson:"utr,omitempty"`
	RRN      string `json:"rrn,omitempty" bson:"rrn,omitempty"`
}

// PaymentAttempt is one concrete try to collect an intent's amount via one
// method. Immutable after CompletedAt is set. Exactly one of Card/UPI is set
// for device-backed methods; cash attempts carry neither.
type PaymentAttempt struct {
	ID             string        `json:"id" bson:"_id"`
	IntentID       string        `json:"intent_id" bson:"intent_id"`
	Method         PaymentMethod `json:"method" bson:"method"`
	Provider       string        `json:"provider" bson:"provider"`
	Status         AttemptStatus `json:"status" bson:"status"`
	StartedAt      time.Time     `json:"started_at" bson:"started_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	FailureCode    string        `json:"failure_code,omitempty" bson:"failure_code,omitempty"`
	FailureMessage string        `json:"failure_message,omitempty" bson:"failure_message,omitempty"`
	Card           *CardMetadata `json:"card,omitempty" bson:"card,omitempty"`
	UPI            *UPIMetadata  `json:"upi,omitempty" bson:"upi,omitempty"`
}

func (a *PaymentAttempt) Terminal() bool {
	return a.Status == AttemptSucceeded || a.Status == AttemptFailed
}
