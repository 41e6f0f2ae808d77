// Package api wires the HTTP surface consumed by the session controller.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/handler"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/middleware"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/api/spec"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/service"
	"github.com/espadawo/bot-for-a-brokerage-company/internal/session"
)

// Router assembles the middleware stack and route tree.
type Router struct {
	logger         *zap.Logger
	engine         *service.Engine
	sessions       session.Manager
	healthChecks   []handler.Check
	publicRateRPS  int
	authRateRPS    int
}

// NewRouter creates the router with its collaborators.
func NewRouter(logger *zap.Logger, engine *service.Engine, sessions session.Manager, publicRPS, authRPS int, healthChecks ...handler.Check) *Router {
	return &Router{
		logger:        logger,
		engine:        engine,
		sessions:      sessions,
		healthChecks:  healthChecks,
		publicRateRPS: publicRPS,
		authRateRPS:   authRPS,
	}
}

// Routes builds the chi route tree.
func (api *Router) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TraceMiddleware)
	r.Use(middleware.LoggingMiddleware(api.logger))
	r.Use(middleware.MetricsMiddleware)
	r.Use(middleware.RecoverMiddleware(api.logger))

	authHandler := handler.NewAuthHandler()
	userHandler := handler.NewUserHandler(api.engine)
	depositHandler := handler.NewDepositHandler(api.engine)
	withdrawalHandler := handler.NewWithdrawalHandler(api.engine)
	verificationHandler := handler.NewVerificationHandler(api.engine)
	staffHandler := handler.NewStaffHandler(api.engine)
	sessionHandler := handler.NewSessionHandler(api.sessions)
	healthHandler := handler.NewHealthHandler(api.healthChecks...)

	// Public routes.
	r.Group(func(r chi.Router) {
		r.Use(middleware.PublicRateLimiter(api.publicRateRPS))

		r.Post("/v1/auth/token", authHandler.Token)
		r.Get("/healthz", healthHandler.Live)
		r.Get("/readyz", healthHandler.Ready)
		r.Get("/openapi.yaml", spec.OpenAPIHandler())
		r.Get("/swagger/*", httpSwagger.Handler(httpSwagger.URL("/openapi.yaml")))
	})
	r.Handle("/metrics", promhttp.Handler())

	// Authenticated routes: the chat user acting on their own behalf.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.authRateRPS))

		r.Post("/v1/users", userHandler.Register)
		r.Get("/v1/users/me", userHandler.Me)
		r.Post("/v1/users/me/language", userHandler.SetLanguage)
		r.Post("/v1/deposits", depositHandler.Create)
		r.Post("/v1/withdrawals", withdrawalHandler.Create)
		r.Post("/v1/verifications", verificationHandler.Create)
	})

	// Staff routes: roster-gated decisions and ledger management.
	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthMiddleware)
		r.Use(middleware.AuthRateLimiter(api.authRateRPS))
		r.Use(middleware.RequireStaff(api.engine))

		r.Get("/v1/users", userHandler.List)
		r.Get("/v1/users/{id}", userHandler.Get)
		r.Patch("/v1/users/{id}", userHandler.UpdateProfile)
		r.Post("/v1/users/{id}/balance", userHandler.AdjustBalance)
		r.Post("/v1/users/{id}/verification", userHandler.ToggleVerification)

		r.Get("/v1/deposits", depositHandler.List)
		r.Post("/v1/deposits/{id}/approve", depositHandler.Approve)
		r.Post("/v1/deposits/{id}/reject", depositHandler.Reject)

		r.Get("/v1/withdrawals", withdrawalHandler.List)
		r.Post("/v1/withdrawals/{id}/approve", withdrawalHandler.Approve)
		r.Post("/v1/withdrawals/{id}/reject", withdrawalHandler.Reject)

		r.Get("/v1/verifications", verificationHandler.List)
		r.Post("/v1/verifications/{id}/approve", verificationHandler.Approve)
		r.Post("/v1/verifications/{id}/reject", verificationHandler.Reject)

		r.Get("/v1/staff", staffHandler.List)
		r.Post("/v1/staff", staffHandler.Add)

		r.Get("/v1/sessions/{id}", sessionHandler.Get)
		r.Put("/v1/sessions/{id}", sessionHandler.Put)
		r.Delete("/v1/sessions/{id}", sessionHandler.Delete)
	})

	return r
}
