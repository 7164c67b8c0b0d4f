package responses

import (
	"frontdesk-service/internal/app/models"
)

type ConnectPOSResponse struct {
	Connected bool `json:"connected"`
}

type UPIPayloadResponse struct {
	QRPayload string `json:"qr_payload"`
	DeepLink  string `json:"deep_link"`
}

type UPIPollStatus string

const (
	UPIPollPending UPIPollStatus = "pending"
	UPIPollSuccess UPIPollStatus = "success"
	UPIPollFailed  UPIPollStatus = "failed"
)

type UPIStatusResponse struct {
	Status  UPIPollStatus          `json:"status"`
	Attempt *models.PaymentAttempt `json:"attempt,omitempty"`
}
