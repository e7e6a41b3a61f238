package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"trustledger/internal/integrity"
	dErrors "trustledger/pkg/domain-errors"
	"trustledger/pkg/platform/httputil"
	"trustledger/pkg/platform/middleware/auth"
	"trustledger/pkg/requestcontext"
)

type Runner interface {
	RunExclusive(ctx context.Context, opts integrity.Options) (*integrity.Report, error)
}

// Handler exposes on-demand integrity runs.
type Handler struct {
	runner Runner
	logger *slog.Logger
}

func New(runner Runner, logger *slog.Logger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.With(auth.RequireRole(h.logger, requestcontext.RoleAdmin, requestcontext.RoleAuditor)).
		Post("/integrity/runs", h.HandleRun)
}

// HandleRun handles POST /integrity/runs?detect=&score=. Both phases default to true.
func (h *Handler) HandleRun(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	opts := integrity.DefaultOptions()
	var err error
	if opts.Detect, err = boolParam(r, "detect", opts.Detect); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if opts.Score, err = boolParam(r, "score", opts.Score); err != nil {
		httputil.WriteError(w, err)
		return
	}

	report, err := h.runner.RunExclusive(ctx, opts)
	if err != nil {
		if errors.Is(err, integrity.ErrRunInProgress) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeConflict, "an integrity run is already in progress"))
			return
		}
		h.logger.ErrorContext(ctx, "integrity run failed",
			"request_id", requestID,
			"error", err,
		)
		if report != nil {
			httputil.WriteErrorReport(w, err, report)
			return
		}
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}

func boolParam(r *http.Request, name string, def bool) (bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, dErrors.New(dErrors.CodeBadRequest, name+" must be a boolean")
	}
	return v, nil
}
