package controllers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"frontdesk-service/internal/app/contracts"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/exceptions"
	"frontdesk-service/internal/pkg/utils"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

const requestTimeout = 15 * time.Second

type SettlementController struct {
	Log               *zap.Logger
	SettlementUsecase contracts.SettlementUsecase
}

var (
	settlementControllerInstance *SettlementController
	onceSettlementController     sync.Once
)

func NewSettlementController(logger *zap.Logger, settlementUsecase contracts.SettlementUsecase) *SettlementController {
	onceSettlementController.Do(func() {
		settlementControllerInstance = &SettlementController{
			Log:               logger,
			SettlementUsecase: settlementUsecase,
		}
	})
	return settlementControllerInstance
}

func (ctrl *SettlementController) CreateSettlement(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	request := new(requests.CreateSettlementRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		ctrl.Log.Error("Failed to parse create settlement request",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.CreateSettlement(ctx, request)
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "settlement_session_created", requestID,
		zap.String(constvars.LoggingSettlementIDKey, result.ID),
		zap.String(constvars.LoggingInvoiceIDKey, result.InvoiceID),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.SettlementCreatedSuccessMessage, result)
}

func (ctrl *SettlementController) GetSettlement(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	result, err := ctrl.SettlementUsecase.GetSettlement(r.Context(), chi.URLParam(r, "settlementID"))
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SettlementFetchedSuccessMessage, result)
}

func (ctrl *SettlementController) ConfirmCashStep(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.ConfirmCashStep(ctx, chi.URLParam(r, "settlementID"))
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.StepConfirmedSuccessMessage, result)
}

func (ctrl *SettlementController) StartStep(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.StartStep(ctx, chi.URLParam(r, "settlementID"))
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.StepStartedSuccessMessage, result)
}

func (ctrl *SettlementController) SignalCardDetected(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	request := new(requests.CardDetectedRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.SignalCardDetected(ctx, chi.URLParam(r, "settlementID"), request)
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.StepSignalledSuccessMessage, result)
}

func (ctrl *SettlementController) RefreshUPIStatus(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.RefreshUPIStatus(ctx, chi.URLParam(r, "settlementID"))
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SettlementFetchedSuccessMessage, result)
}

func (ctrl *SettlementController) RetryStep(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.RetryStep(ctx, chi.URLParam(r, "settlementID"))
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.StepRetriedSuccessMessage, result)
}

func (ctrl *SettlementController) AdvanceStep(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.AdvanceStep(ctx, chi.URLParam(r, "settlementID"))
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SettlementAdvancedSuccessMessage, result)
}

func (ctrl *SettlementController) CancelSettlement(w http.ResponseWriter, r *http.Request) {
	requestID, ok := ctrl.requireRequestID(w, r)
	if !ok {
		return
	}

	request := new(requests.CancelSettlementRequest)
	if r.Body != nil && r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(request); err != nil {
			utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	result, err := ctrl.SettlementUsecase.CancelSettlement(ctx, chi.URLParam(r, "settlementID"), request)
	if err != nil {
		ctrl.respondError(w, requestID, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "settlement_session_closed", requestID,
		zap.String(constvars.LoggingSettlementIDKey, result.ID),
		zap.String("outcome", string(result.Outcome)),
	)
	utils.BuildSuccessResponse(w, constvars.StatusOK, constvars.SettlementCancelledSuccessMessage, result)
}

func (ctrl *SettlementController) requireRequestID(w http.ResponseWriter, r *http.Request) (string, bool) {
	requestID, ok := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	if !ok || requestID == "" {
		ctrl.Log.Error("Request ID missing from context",
			zap.String(constvars.LoggingEndpointKey, r.URL.Path),
			zap.String(constvars.LoggingMethodKey, r.Method),
		)
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrMissingRequestID(nil))
		return "", false
	}
	return requestID, true
}

func (ctrl *SettlementController) respondError(w http.ResponseWriter, requestID string, err error) {
	if err == context.DeadlineExceeded {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrServerDeadlineExceeded(err))
		return
	}
	ctrl.Log.Error("settlement operation failed",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.Error(err),
	)
	utils.BuildErrorResponse(ctrl.Log, w, err)
}
