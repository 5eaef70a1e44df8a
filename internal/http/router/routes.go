// Package router registra las rutas del servicio.
package router

import (
	"net/http"

	adminctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/admin"
	healthctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/health"
	oauthctrl "github.com/xianzhi-projects/xianzhi-uaa/internal/http/controllers/oauth"
	mw "github.com/xianzhi-projects/xianzhi-uaa/internal/http/middlewares"
)

// Deps contiene las dependencias del router.
type Deps struct {
	Token       *oauthctrl.TokenController
	Clients     *adminctrl.ClientsController
	Health      *healthctrl.Controller
	Metrics     http.Handler
	AdminAPIKey string
}

// New arma el mux completo del servicio.
func New(deps Deps) http.Handler {
	mux := http.NewServeMux()

	// POST /oauth2/token - Token endpoint (RFC 6749)
	mux.Handle("/oauth2/token", oauthHandler(http.HandlerFunc(deps.Token.Token)))

	// Superficie admin, protegida por API key
	mux.Handle("POST /v1/admin/clients", adminHandler(deps.AdminAPIKey, http.HandlerFunc(deps.Clients.Create)))
	mux.Handle("PUT /v1/admin/clients/{id}", adminHandler(deps.AdminAPIKey, http.HandlerFunc(deps.Clients.Update)))

	// Operacional
	if deps.Health != nil {
		mux.Handle("GET /healthz", http.HandlerFunc(deps.Health.Healthz))
	}
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	return mux
}

// oauthHandler arma el middleware chain para endpoints OAuth.
func oauthHandler(handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithNoStore(),
		mw.WithLogging(),
	)
}

// adminHandler arma el chain para la superficie admin.
func adminHandler(apiKey string, handler http.Handler) http.Handler {
	return mw.Chain(handler,
		mw.WithRecover(),
		mw.WithRequestID(),
		mw.WithSecurityHeaders(),
		mw.WithAdminKey(apiKey),
		mw.WithLogging(),
	)
}
