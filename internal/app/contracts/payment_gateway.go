package contracts

import (
	"context"
	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/dto/responses"
)

// PaymentGatewayService is the boundary to the POS bridge and the UPI PSP.
// The flow controllers consume it; implementations live under
// services/shared/payment_gateway.
type PaymentGatewayService interface {
	CreatePaymentIntent(ctx context.Context, request *requests.CreatePaymentIntentRequest) (*models.PaymentIntent, error)
	CreatePaymentAttempt(ctx context.Context, request *requests.CreatePaymentAttemptRequest) error
	ConnectPOS(ctx context.Context) (*responses.ConnectPOSResponse, error)
	ProcessCardPayment(ctx context.Context, request *requests.ProcessCardPaymentRequest) (*models.PaymentAttempt, error)
	GenerateUPIPayload(ctx context.Context, intentID string) (*responses.UPIPayloadResponse, error)
	PollUPIStatus(ctx context.Context, intentID string) (*responses.UPIStatusResponse, error)
}
