package main

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/handlers"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/middleware"
	"github.com/nickym11111/forge-fall-25-project-sub000/internal/telemetry"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"
	"go.uber.org/zap"
)

// routerDeps is everything the HTTP surface needs
type routerDeps struct {
	logger         *zap.Logger
	invites        *handlers.InviteHandler
	health         *handlers.HealthChecker
	metrics        http.Handler
	verifier       middleware.TokenVerifier
	rateLimit      func(http.Handler) http.Handler
	allowedOrigins []string
	enableHSTS     bool
	requestTimeout time.Duration
}

// newRouter builds the invite API. Middleware registered later wraps closer to the handler.
func newRouter(d routerDeps) http.Handler {
	r := mux.NewRouter()

	r.Use(otelmux.Middleware(telemetry.ServiceInviteAPI))
	r.Use(middleware.RequestID)
	r.Use(middleware.SecurityHeaders(d.enableHSTS))
	r.Use(middleware.MaxRequestSize(middleware.DefaultMaxRequestSize, d.logger))
	r.Use(middleware.ContentType(d.logger))
	r.Use(middleware.Timeout(d.requestTimeout))
	r.Use(middleware.ErrorHandler(d.logger))
	r.Use(middleware.Audit(d.logger))
	r.Use(middleware.Logging(d.logger))

	r.HandleFunc("/healthz", d.health.HealthCheck).Methods(http.MethodGet)
	if d.metrics != nil {
		r.Handle("/metrics", d.metrics).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	if d.verifier != nil {
		api.Use(middleware.Auth(d.verifier, d.logger))
	}
	if d.rateLimit != nil {
		api.Use(d.rateLimit)
	}
	api.HandleFunc("/invites", d.invites.SendInvite).Methods(http.MethodPost)

	// CORS wraps the router so preflight requests are answered before route matching
	return middleware.CORS(d.allowedOrigins)(r)
}
