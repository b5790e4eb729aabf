package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-notification-dispatch/internal/application/delivery"
	"github.com/go-notification-dispatch/internal/application/device"
	"github.com/go-notification-dispatch/internal/application/dispatch"
	"github.com/go-notification-dispatch/internal/application/notification"
	"github.com/go-notification-dispatch/internal/config"
	"github.com/go-notification-dispatch/internal/transport/http/handler"
	appmiddleware "github.com/go-notification-dispatch/internal/transport/http/middleware"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	notifSvc := notification.NewService(deps.NotificationRepo, deps.TypeRepo, notification.Options{Location: deps.Location})
	deviceSvc := device.NewService(deps.DeviceRepo)
	engine := delivery.NewEngine(deps.PushProvider, delivery.Options{
		Workers: cfg.FanoutWorkers,
		Timeout: cfg.PushTimeout,
	})
	dispatchSvc := dispatch.NewService(notifSvc, deviceSvc, engine)

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(notifSvc, deps.Invitations)
	internalH := handler.NewInternalNotificationHandler(notifSvc, dispatchSvc)
	deviceH := handler.NewDeviceHandler(deviceSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes ────────────────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)

		// ── Session-authenticated routes ─────────────────────────────────────
		r.With(appmiddleware.Auth(deps.Verifier)).Get("/notifications", notifH.ListMine)

		// ── Service-to-service routes ────────────────────────────────────────
		r.Route("/internal", func(r chi.Router) {
			r.Use(appmiddleware.RequireAPIKey(cfg.InternalAPIKey))

			r.Post("/send-notification", internalH.Send)
			r.Get("/notification-states", internalH.States)
			r.Get("/notification-types", internalH.Types)
			r.Get("/notifications", internalH.List)
			r.Get("/notifications/{id}", internalH.Get)
			r.Patch("/notifications/{id}/state", internalH.UpdateState)
			r.Get("/notifications/by-invitation/{entity_id}", internalH.GetByInvitation)
			r.Delete("/notifications/by-invitation/{entity_id}", internalH.DeleteByInvitation)
			r.Get("/notifications/by-entity/{type}/{entity_id}", internalH.GetByEntity)
			r.Delete("/notifications/by-entity/{type}/{entity_id}", internalH.DeleteByEntity)
			r.Post("/devices", deviceH.Register)
			r.Get("/users/{id}/devices", deviceH.ListForUser)
		})
	})

	return r
}
