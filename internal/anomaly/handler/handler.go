package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"trustledger/internal/anomaly/models"
	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
	"trustledger/pkg/platform/httputil"
	"trustledger/pkg/platform/middleware/auth"
	"trustledger/pkg/requestcontext"
)

// Service defines the anomaly operations exposed over HTTP.
type Service interface {
	RunAll(ctx context.Context) (*models.DetectionReport, error)
	Resolve(ctx context.Context, anomalyID id.AnomalyID, auditor id.UserID, notes string) (*models.Anomaly, error)
	Flag(ctx context.Context, flowID id.FundFlowID, actor id.UserID, description string, severity models.Severity) (*models.Anomaly, error)
	Counts(ctx context.Context) (models.Counts, error)
}

// Handler wires anomaly endpoints to the anomaly service.
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

// Register mounts anomaly endpoints. The router must already run RequireAuth.
func (h *Handler) Register(r chi.Router) {
	r.With(auth.RequireRole(h.logger, requestcontext.RoleAdmin, requestcontext.RoleAuditor)).
		Post("/integrity/detections", h.HandleRunDetections)
	r.With(auth.RequireRole(h.logger, requestcontext.RoleAuditor)).
		Post("/integrity/anomalies/{id}/resolve", h.HandleResolve)
	r.Get("/integrity/anomalies/count", h.HandleCounts)
	r.Post("/integrity/fund-flows/{id}/flag", h.HandleFlag)
}

// HandleRunDetections handles POST /integrity/detections.
func (h *Handler) HandleRunDetections(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	report, err := h.service.RunAll(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "anomaly detection failed",
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

	h.logger.InfoContext(ctx, "anomaly detection completed",
		"request_id", requestID,
		"total_detected", report.TotalDetected,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, report)
}

// HandleResolve handles POST /integrity/anomalies/{id}/resolve.
func (h *Handler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	auditor := requestcontext.UserID(ctx)
	if auditor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	anomalyID, err := id.ParseAnomalyID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndValidate[ResolveRequest](w, r, h.logger)
	if !ok {
		return
	}

	resolved, err := h.service.Resolve(ctx, anomalyID, auditor, req.Notes)
	if err != nil {
		h.logger.WarnContext(ctx, "failed to resolve anomaly",
			"request_id", requestID,
			"anomaly_id", anomalyID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, resolved)
}

// HandleFlag handles POST /integrity/fund-flows/{id}/flag.
func (h *Handler) HandleFlag(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	actor := requestcontext.UserID(ctx)
	if actor.IsNil() {
		httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "authentication required"))
		return
	}
	flowID, err := id.ParseFundFlowID(chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.DecodeAndValidate[FlagRequest](w, r, h.logger)
	if !ok {
		return
	}

	flagged, err := h.service.Flag(ctx, flowID, actor, req.Description, models.Severity(req.Severity))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to flag fund flow",
			"request_id", requestID,
			"fund_flow_id", flowID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, flagged)
}

// HandleCounts handles GET /integrity/anomalies/count.
func (h *Handler) HandleCounts(w http.ResponseWriter, r *http.Request) {
	counts, err := h.service.Counts(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, counts)
}
