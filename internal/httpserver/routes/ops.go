package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/chantabs/internal/httpserver/deps"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/chantabs/internal/httpserver/mw"
)

func init() { Register(registerOps) }

// registerOps mounts the operator endpoints, reachable only from the allowed
// CIDRs. Reload additionally requires an allowed Host.
func registerOps(r chi.Router, d deps.Deps) {
	ops := r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger))

	ops.Get("/readyz", handlers.Readyz(d))
	ops.With(mw.EnforceHost(d.AllowedHosts, d.Logger)).Post("/reload", handlers.Reload(d))
	if d.Metrics != nil {
		ops.Method(http.MethodGet, "/metrics", d.Metrics.Handler())
	}
}
