// Package httptransport assembles the HTTP surface: middleware chain,
// public endpoints, and the operator-gated console routes.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	adminhandler "opsconsole/internal/admin/handler"
	"opsconsole/internal/identity"
	kychandler "opsconsole/internal/kyc/handler"
	operatorhandler "opsconsole/internal/operator/handler"
	"opsconsole/internal/platform/metrics"
	"opsconsole/internal/platform/middleware"
	sessionhandler "opsconsole/internal/session/handler"
	"opsconsole/internal/transport/http/shared"
)

// tokenValidator adapts the issuer to the middleware contract.
type tokenValidator struct {
	issuer *identity.TokenIssuer
}

func (v tokenValidator) Validate(tokenString string) (string, string, error) {
	claims, err := v.issuer.Verify(tokenString)
	if err != nil {
		return "", "", err
	}
	return claims.IdentityID.String(), claims.Email, nil
}

// Deps carries everything the router mounts.
type Deps struct {
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
	Issuer   *identity.TokenIssuer
	Sessions middleware.SessionChecker

	Auth     *sessionhandler.Handler
	Admins   *adminhandler.Handler
	Kyc      *kychandler.Handler
	Operator *operatorhandler.Handler
}

// NewRouter wires the middleware chain and all routes.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestTime)
	r.Use(middleware.ClientMetadata)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Latency(deps.Metrics))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		shared.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	deps.Auth.RegisterPublic(r)

	r.Group(func(protected chi.Router) {
		protected.Use(middleware.RequireOperator(
			tokenValidator{issuer: deps.Issuer}, deps.Sessions, deps.Logger))
		deps.Auth.RegisterProtected(protected)
		deps.Admins.Register(protected)
		deps.Kyc.Register(protected)
		deps.Operator.Register(protected)
	})

	return r
}
