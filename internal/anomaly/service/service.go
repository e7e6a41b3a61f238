package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"trustledger/internal/anomaly/metrics"
	"trustledger/internal/anomaly/models"
	ledger "trustledger/internal/ledger/models"
	id "trustledger/pkg/domain"
	audit "trustledger/pkg/platform/audit"
	request "trustledger/pkg/platform/middleware/request"
)

// ZeroBudgetPolicy decides what an over-budget project with a zero budget produces.
type ZeroBudgetPolicy string

const (
	// ZeroBudgetCritical records a critical overrun with no percentage.
	ZeroBudgetCritical ZeroBudgetPolicy = "critical"
	// ZeroBudgetSkip records a diagnostic only.
	ZeroBudgetSkip ZeroBudgetPolicy = "skip"
)

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks ProjectReader,FlowReader,AnomalyStore,AuditPublisher

type ProjectReader interface {
	ListOverBudgetProjects(ctx context.Context) ([]*ledger.Project, error)
	ListProjectsByStatus(ctx context.Context, statuses ...ledger.ProjectStatus) ([]*ledger.Project, error)
	ListOverdueProjects(ctx context.Context, today time.Time) ([]*ledger.Project, error)
}

type FlowReader interface {
	FindFlow(ctx context.Context, flowID id.FundFlowID) (*ledger.FundFlow, error)
	ListProjectFlows(ctx context.Context, projectID id.ProjectID, from, to time.Time, excludeSource id.FundSourceID) ([]*ledger.FundFlow, error)
}

type AnomalyStore interface {
	RecordDetection(ctx context.Context, det *models.Detection) (bool, error)
	FindAnomaly(ctx context.Context, anomalyID id.AnomalyID) (*models.Anomaly, error)
	ExecuteAnomaly(ctx context.Context, anomalyID id.AnomalyID, fn func(*models.Anomaly) error) (*models.Anomaly, error)
	CountAnomalies(ctx context.Context) (models.Counts, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Config carries the identities and policies the detector needs.
type Config struct {
	// SystemActorID is recorded as DetectedBy on automatic detections.
	SystemActorID id.UserID
	// SystemSourceID is the fund source of synthetic flows. Flows from it are
	// excluded from spending windows.
	SystemSourceID   id.FundSourceID
	ZeroBudgetPolicy ZeroBudgetPolicy
}

// Service runs the detectors and manages the anomaly lifecycle.
type Service struct {
	projects       ProjectReader
	flows          FlowReader
	anomalies      AnomalyStore
	cfg            Config
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	now            func() time.Time
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source; "today" is its UTC calendar date.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New constructs a Service.
func New(projects ProjectReader, flows FlowReader, anomalies AnomalyStore, cfg Config, opts ...Option) (*Service, error) {
	if projects == nil {
		return nil, errors.New("project reader is required")
	}
	if flows == nil {
		return nil, errors.New("flow reader is required")
	}
	if anomalies == nil {
		return nil, errors.New("anomaly store is required")
	}
	if cfg.SystemActorID.IsNil() {
		return nil, errors.New("system actor id is required")
	}
	if cfg.SystemSourceID.IsNil() {
		return nil, errors.New("system source id is required")
	}
	switch cfg.ZeroBudgetPolicy {
	case "":
		cfg.ZeroBudgetPolicy = ZeroBudgetCritical
	case ZeroBudgetCritical, ZeroBudgetSkip:
	default:
		return nil, errors.New("unknown zero budget policy")
	}

	s := &Service{
		projects:  projects,
		flows:     flows,
		anomalies: anomalies,
		cfg:       cfg,
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, subject string, actor id.UserID, attributes map[string]string) {
	args := []any{"event", string(event), "log_type", "audit", "subject", subject}
	if requestID := request.GetRequestID(ctx); requestID != "" {
		args = append(args, "request_id", requestID)
	}
	for k, v := range attributes {
		args = append(args, k, v)
	}
	s.logger.InfoContext(ctx, string(event), args...)

	if s.auditPublisher == nil {
		return
	}
	if err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:     string(event),
		Subject:    subject,
		ActorID:    actor,
		Attributes: attributes,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
