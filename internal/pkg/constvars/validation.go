package constvars

var CustomValidationErrorMessages = map[string]string{
	"required":       "is required",
	"min":            "must be at least %s",
	"max":            "must be at most %s",
	"gt":             "must be greater than %s",
	"gte":            "must be greater than or equal to %s",
	"oneof":          "must be one of: %s",
	"uuid":           "must be a valid UUID",
	"payment_method": "must be one of: cash, card, upi",
	"purpose":        "must be one of: settlement, advance, dues, refund",
	"dive":           "contains an invalid element",
}

var TagsWithParams = map[string]bool{
	"min":   true,
	"max":   true,
	"gt":    true,
	"gte":   true,
	"oneof": true,
}
