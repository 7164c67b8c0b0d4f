package payment_gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"frontdesk-service/internal/app/config"
	"frontdesk-service/internal/app/contracts"
	"frontdesk-service/internal/app/models"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/dto/responses"
	"frontdesk-service/internal/pkg/exceptions"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

var (
	bridgeServiceInstance contracts.PaymentGatewayService
	onceBridgeService     sync.Once
)

// bridgeService talks to the payments bridge, the sidecar that fronts both
// the POS terminal vendor and the UPI PSP behind one HTTP API.
type bridgeService struct {
	BaseUrl string
	ApiKey  string
	Client  *http.Client
	Log     *zap.Logger
}

func NewBridgeService(internalConfig *config.InternalConfig, logger *zap.Logger) contracts.PaymentGatewayService {
	onceBridgeService.Do(func() {
		bridgeServiceInstance = &bridgeService{
			BaseUrl: internalConfig.PaymentGateway.BaseUrl,
			ApiKey:  internalConfig.PaymentGateway.ApiKey,
			Client: &http.Client{
				Timeout: time.Duration(internalConfig.PaymentGateway.HTTPTimeoutInSeconds) * time.Second,
			},
			Log: logger,
		}
	})
	return bridgeServiceInstance
}

func (s *bridgeService) CreatePaymentIntent(ctx context.Context, request *requests.CreatePaymentIntentRequest) (*models.PaymentIntent, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("bridgeService.CreatePaymentIntent called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String("order_id", request.OrderID),
		zap.Int64("amount", request.Amount),
	)

	intent := &models.PaymentIntent{}
	if err := s.post(ctx, "/v1/payment-intents", request, intent); err != nil {
		s.Log.Error("bridgeService.CreatePaymentIntent error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return intent, nil
}

func (s *bridgeService) CreatePaymentAttempt(ctx context.Context, request *requests.CreatePaymentAttemptRequest) error {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("bridgeService.CreatePaymentAttempt called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, request.IntentID),
		zap.String(constvars.LoggingPaymentMethodKey, string(request.Method)),
	)

	if err := s.post(ctx, "/v1/payment-attempts", request, nil); err != nil {
		s.Log.Error("bridgeService.CreatePaymentAttempt error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return err
	}
	return nil
}

func (s *bridgeService) ConnectPOS(ctx context.Context) (*responses.ConnectPOSResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("bridgeService.ConnectPOS called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
	)

	result := &responses.ConnectPOSResponse{}
	if err := s.post(ctx, "/v1/pos/connect", nil, result); err != nil {
		s.Log.Error("bridgeService.ConnectPOS error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return result, nil
}

func (s *bridgeService) ProcessCardPayment(ctx context.Context, request *requests.ProcessCardPaymentRequest) (*models.PaymentAttempt, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("bridgeService.ProcessCardPayment called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, request.IntentID),
	)

	attempt := &models.PaymentAttempt{}
	if err := s.post(ctx, "/v1/pos/charge", request, attempt); err != nil {
		s.Log.Error("bridgeService.ProcessCardPayment error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return attempt, nil
}

func (s *bridgeService) GenerateUPIPayload(ctx context.Context, intentID string) (*responses.UPIPayloadResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Info("bridgeService.GenerateUPIPayload called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, intentID),
	)

	payload := &responses.UPIPayloadResponse{}
	body := map[string]string{"intent_id": intentID}
	if err := s.post(ctx, "/v1/upi/qr", body, payload); err != nil {
		s.Log.Error("bridgeService.GenerateUPIPayload error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return payload, nil
}

func (s *bridgeService) PollUPIStatus(ctx context.Context, intentID string) (*responses.UPIStatusResponse, error) {
	requestID, _ := ctx.Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)
	s.Log.Debug("bridgeService.PollUPIStatus called",
		zap.String(constvars.LoggingRequestIDKey, requestID),
		zap.String(constvars.LoggingIntentIDKey, intentID),
	)

	status := &responses.UPIStatusResponse{}
	url := fmt.Sprintf("%s/v1/upi/status?intent_id=%s", s.BaseUrl, intentID)
	if err := s.send(ctx, constvars.MethodGet, url, nil, status); err != nil {
		s.Log.Error("bridgeService.PollUPIStatus error",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		return nil, err
	}
	return status, nil
}

func (s *bridgeService) post(ctx context.Context, path string, body, out interface{}) error {
	return s.send(ctx, constvars.MethodPost, s.BaseUrl+path, body, out)
}

func (s *bridgeService) send(ctx context.Context, method, url string, body, out interface{}) error {
	var payload io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return exceptions.ErrCannotMarshalJSON(err)
		}
		payload = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return exceptions.ErrBuildRequest(err)
	}
	req.Header.Set(constvars.HeaderContentType, constvars.MIMEApplicationJSON)
	req.Header.Set(constvars.HeaderAuthorization, "Bearer "+s.ApiKey)

	resp, err := s.Client.Do(req)
	if err != nil {
		return exceptions.ErrGatewayRequest(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < constvars.StatusOK || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return exceptions.ErrGatewayBadStatus(fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(bodyBytes)))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return exceptions.ErrCannotParseJSON(err)
	}
	return nil
}
