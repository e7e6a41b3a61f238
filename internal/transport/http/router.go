package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustledger/internal/platform/metrics"
	auth "trustledger/pkg/platform/middleware/auth"
	request "trustledger/pkg/platform/middleware/request"
)

// Registrar mounts a module's routes onto an authenticated router.
type Registrar interface {
	Register(r chi.Router)
}

type Deps struct {
	Logger    *slog.Logger
	Validator auth.JWTValidator
	// Metrics is optional; nil disables request instrumentation.
	Metrics *metrics.Metrics
	Modules []Registrar
}

// NewRouter wires the public health and metrics endpoints and mounts every
// module behind bearer token authentication.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.Middleware)
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Handle("/metrics", metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(deps.Validator, deps.Logger))
		for _, m := range deps.Modules {
			m.Register(r)
		}
	})
	return r
}
