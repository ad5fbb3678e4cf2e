// Package httptransport assembles the HTTP surface: public access decisions,
// break-glass lifecycle, token-guarded policy administration, health probes
// and metrics.
package httptransport

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	bghandler "github.com/Vumbi2018/lgis-sub001/internal/breakglass/handler"
	gatehandler "github.com/Vumbi2018/lgis-sub001/internal/gate/handler"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/health"
	"github.com/Vumbi2018/lgis-sub001/internal/platform/middleware"
	policyhandler "github.com/Vumbi2018/lgis-sub001/internal/policy/handler"
)

// Deps carries everything the router mounts.
type Deps struct {
	Logger       *slog.Logger
	Validator    middleware.JWTValidator
	AdminToken   string
	Policies     *policyhandler.Handler
	BreakGlass   *bghandler.Handler
	Access       *gatehandler.Handler
	Health       *health.Handler
	RequestLimit time.Duration
}

// NewRouter wires all endpoints with the middleware stack.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()

	timeout := deps.RequestLimit
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(deps.Logger))
	r.Use(middleware.Timeout(timeout))
	r.Use(middleware.ContentTypeJSON)

	if deps.Health != nil {
		deps.Health.Register(r)
	}
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Session-authenticated surface: access decisions and the break-glass
	// lifecycle.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(deps.Validator, deps.Logger))
		deps.Access.Register(r)
		deps.BreakGlass.Register(r)
	})

	// Policy administration is guarded by the operator token, not sessions.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(deps.AdminToken, deps.Logger))
		deps.Policies.Register(r)
	})

	return r
}
