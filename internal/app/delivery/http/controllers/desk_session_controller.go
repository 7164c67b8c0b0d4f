package controllers

import (
	"net/http"
	"sync"

	"frontdesk-service/internal/app/config"
	"frontdesk-service/internal/pkg/constvars"
	"frontdesk-service/internal/pkg/dto/requests"
	"frontdesk-service/internal/pkg/dto/responses"
	"frontdesk-service/internal/pkg/exceptions"
	"frontdesk-service/internal/pkg/utils"

	"github.com/goccy/go-json"
	"go.uber.org/zap"
)

type DeskSessionController struct {
	Log            *zap.Logger
	InternalConfig *config.InternalConfig
}

var (
	deskSessionControllerInstance *DeskSessionController
	onceDeskSessionController     sync.Once
)

func NewDeskSessionController(logger *zap.Logger, internalConfig *config.InternalConfig) *DeskSessionController {
	onceDeskSessionController.Do(func() {
		deskSessionControllerInstance = &DeskSessionController{
			Log:            logger,
			InternalConfig: internalConfig,
		}
	})
	return deskSessionControllerInstance
}

// CreateDeskSession issues the bearer token a front-desk terminal uses for
// all settlement calls.
func (ctrl *DeskSessionController) CreateDeskSession(w http.ResponseWriter, r *http.Request) {
	requestID, _ := r.Context().Value(constvars.CONTEXT_REQUEST_ID_KEY).(string)

	request := new(requests.CreateDeskSessionRequest)
	if err := json.NewDecoder(r.Body).Decode(request); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, exceptions.ErrCannotParseJSON(err))
		return
	}
	if err := request.Validate(); err != nil {
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	token, err := utils.GenerateDeskSessionJWT(request.DeskID, ctrl.InternalConfig.JWT.Secret, ctrl.InternalConfig.JWT.ExpTimeInHour)
	if err != nil {
		ctrl.Log.Error("Failed to sign desk session token",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.Error(err),
		)
		utils.BuildErrorResponse(ctrl.Log, w, err)
		return
	}

	utils.LogBusinessEvent(ctrl.Log, "desk_session_created", requestID,
		zap.String("desk_id", request.DeskID),
	)
	utils.BuildSuccessResponse(w, constvars.StatusCreated, constvars.DeskSessionCreatedSuccessMessage, &responses.DeskSessionResponse{
		Token:          token,
		DeskID:         request.DeskID,
		ExpiresInHours: ctrl.InternalConfig.JWT.ExpTimeInHour,
	})
}
