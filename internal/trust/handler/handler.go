package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
	"trustledger/pkg/platform/httputil"
	"trustledger/pkg/platform/middleware/auth"
	"trustledger/pkg/requestcontext"
)

type Service interface {
	CalculateDepartmentTrustScore(ctx context.Context, deptID id.DepartmentID) (*models.TrustIndicator, error)
	Summary(ctx context.Context) ([]models.DepartmentScore, error)
}

// Handler wires trust score endpoints to the trust service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts trust endpoints. The router must already run RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.With(auth.RequireRole(h.logger, requestcontext.RoleAdmin, requestcontext.RoleAuditor)).
		Post("/integrity/departments/{id}/trust-score", h.HandleCalculate)
	r.Get("/integrity/trust-scores", h.HandleSummary)
}

// indicatorResponse adds the derived overall score to the stored indicator.
type indicatorResponse struct {
	*models.TrustIndicator
	OverallScore int `json:"overall_score"`
}

// HandleCalculate handles POST /integrity/departments/{id}/trust-score.
func (h *Handler) HandleCalculate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	deptID, err := id.ParseDepartmentID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	ind, err := h.service.CalculateDepartmentTrustScore(ctx, deptID)
	if err != nil {
		h.logger.WarnContext(ctx, "trust score calculation failed",
			"request_id", requestcontext.RequestID(ctx),
			"department_id", deptID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, indicatorResponse{TrustIndicator: ind, OverallScore: ind.OverallScore()})
}

// HandleSummary handles GET /integrity/trust-scores.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	scores, err := h.service.Summary(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"departments": scores})
}
