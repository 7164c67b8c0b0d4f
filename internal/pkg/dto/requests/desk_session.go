package requests

import (
	"frontdesk-service/internal/pkg/exceptions"
	"frontdesk-service/internal/pkg/utils"
)

type CreateDeskSessionRequest struct {
	DeskID       string `json:"desk_id" validate:"required"`
	OperatorName string `json:"operator_name" validate:"required"`
}

func (r *CreateDeskSessionRequest) Validate() error {
	if err := utils.ValidateStruct(r); err != nil {
		return exceptions.ErrInputValidation(err)
	}
	return nil
}
