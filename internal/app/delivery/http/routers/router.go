package routers

import (
	"fmt"
	"time"

	"frontdesk-service/internal/app/config"
	"frontdesk-service/internal/app/delivery/http/controllers"
	"frontdesk-service/internal/app/delivery/http/middlewares"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

func SetupRoutes(
	router *chi.Mux,
	internalConfig *config.InternalConfig,
	middlewares *middlewares.Middlewares,
	deskSessionController *controllers.DeskSessionController,
	settlementController *controllers.SettlementController,
) {
	corsOptions := cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	router.Use(cors.Handler(corsOptions))

	router.Use(httprate.LimitByIP(internalConfig.App.MaxRequests, time.Second))

	endpointPrefix := fmt.Sprintf("/%s", internalConfig.App.EndpointPrefix)
	versionPrefix := fmt.Sprintf("/%s", internalConfig.App.Version)

	router.Route(endpointPrefix, func(r chi.Router) {
		r.Route(versionPrefix, func(r chi.Router) {
			r.Route("/desk-sessions", func(r chi.Router) {
				attachDeskSessionRoutes(r, deskSessionController)
			})

			r.Route("/settlements", func(r chi.Router) {
				r.Use(middlewares.DeskSessionAuth)
				attachSettlementRoutes(r, settlementController)
			})
		})
	})
}
