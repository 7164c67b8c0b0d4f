package contracts

import (
	"context"
	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/dto/responses"
)

type SettlementUsecase interface {
	CreateSettlement(ctx context.Context, request *requests.CreateSettlementRequest) (*responses.SettlementResponse, error)
	GetSettlement(ctx context.Context, settlementID string) (*responses.SettlementResponse, error)
	ConfirmCashStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error)
	StartStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error)
	SignalCardDetected(ctx context.Context, settlementID string, request *requests.CardDetectedRequest) (*responses.SettlementResponse, error)
	RefreshUPIStatus(ctx context.Context, settlementID string) (*responses.SettlementResponse, error)
	RetryStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error)
	AdvanceStep(ctx context.Context, settlementID string) (*responses.SettlementResponse, error)
	CancelSettlement(ctx context.Context, settlementID string, request *requests.CancelSettlementRequest) (*responses.SettlementResponse, error)
}

type SettlementRepository interface {
	InsertSettlement(ctx context.Context, record *models.SettlementRecord) error
	FindByInvoiceID(ctx context.Context, invoiceID string) ([]models.SettlementRecord, error)
}
