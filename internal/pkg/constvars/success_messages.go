package constvars

const (
	SettlementCreatedSuccessMessage   = "Settlement session created successfully"
	SettlementFetchedSuccessMessage   = "Settlement session fetched successfully"
	SettlementAdvancedSuccessMessage  = "Settlement advanced to next step"
	SettlementCancelledSuccessMessage = "Settlement closed"
	StepStartedSuccessMessage         = "Payment step started"
	StepConfirmedSuccessMessage       = "Cash step confirmed"
	StepSignalledSuccessMessage       = "Payment step signal accepted"
	StepRetriedSuccessMessage         = "Payment step retried"
	DeskSessionCreatedSuccessMessage  = "Desk session created successfully"
)
