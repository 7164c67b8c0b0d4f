package routers

import (
	"frontdesk-service/internal/app/delivery/http/controllers"

	"github.com/go-chi/chi/v5"
)

func attachDeskSessionRoutes(router chi.Router, deskSessionController *controllers.DeskSessionController) {
	router.Post("/", deskSessionController.CreateDeskSession)
}

func attachSettlementRoutes(router chi.Router, settlementController *controllers.SettlementController) {
	router.Post("/", settlementController.CreateSettlement)
	router.Get("/{settlementID}", settlementController.GetSettlement)
	router.Post("/{settlementID}/steps/confirm-cash", settlementController.ConfirmCashStep)
	router.Post("/{settlementID}/steps/start", settlementController.StartStep)
	router.Post("/{settlementID}/steps/card-detected", settlementController.SignalCardDetected)
	router.Post("/{settlementID}/steps/refresh-upi", settlementController.RefreshUPIStatus)
	router.Post("/{settlementID}/steps/retry", settlementController.RetryStep)
	router.Post("/{settlementID}/steps/advance", settlementController.AdvanceStep)
	router.Post("/{settlementID}/cancel", settlementController.CancelSettlement)
}
