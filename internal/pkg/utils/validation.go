package utils

import (
	"github.com/go-playground/validator/v10"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("payment_method", validatePaymentMethod)
	validate.RegisterValidation("purpose", validatePurpose)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "cash" || value == "card" || value == "upi"
}

func validatePurpose(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == "settlement" || value == "advance" || value == "dues" || value == "refund"
}
