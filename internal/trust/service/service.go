package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	ledger "trustledger/internal/ledger/models"
	"trustledger/internal/trust"
	"trustledger/internal/trust/metrics"
	"trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
	audit "trustledger/pkg/platform/audit"
	request "trustledger/pkg/platform/middleware/request"
	"trustledger/pkg/platform/sentinel"
)

// SnapshotMode selects how computed indicators are persisted.
type SnapshotMode string

const (
	// SnapshotUpsert keeps one indicator per department.
	SnapshotUpsert SnapshotMode = "upsert"
	// SnapshotAppend keeps history; the current indicator is the latest by calculated_at.
	SnapshotAppend SnapshotMode = "append"
)

const defaultWorkers = 4

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks LedgerReader,IndicatorStore

// LedgerReader is the read side the scores are computed from.
type LedgerReader interface {
	FindDepartment(ctx context.Context, deptID id.DepartmentID) (*ledger.Department, error)
	ListDepartments(ctx context.Context) ([]*ledger.Department, error)
	ListProjectsByDepartment(ctx context.Context, deptID id.DepartmentID) ([]*ledger.Project, error)
	ListFeedbackByDepartment(ctx context.Context, deptID id.DepartmentID) ([]*ledger.CommunityFeedback, error)
	CountDocumentsByDepartment(ctx context.Context, deptID id.DepartmentID) (int, int, error)
}

type IndicatorStore interface {
	UpsertIndicator(ctx context.Context, ind *models.TrustIndicator) (*models.TrustIndicator, error)
	AppendIndicator(ctx context.Context, ind *models.TrustIndicator) error
	LatestIndicators(ctx context.Context) ([]*models.TrustIndicator, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Config struct {
	SnapshotMode SnapshotMode
	// Workers bounds concurrent department calculations in CalculateAll.
	Workers int
	// SystemActorID is the actor recorded on trust_score_calculated events.
	SystemActorID id.UserID
}

// Service computes and stores department trust indicators.
type Service struct {
	ledger         LedgerReader
	indicators     IndicatorStore
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

func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(ledgerReader LedgerReader, indicators IndicatorStore, cfg Config, opts ...Option) (*Service, error) {
	if ledgerReader == nil {
		return nil, errors.New("ledger reader is required")
	}
	if indicators == nil {
		return nil, errors.New("indicator store is required")
	}
	switch cfg.SnapshotMode {
	case "":
		cfg.SnapshotMode = SnapshotUpsert
	case SnapshotUpsert, SnapshotAppend:
	default:
		return nil, errors.New("unknown snapshot mode")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}

	s := &Service{
		ledger:     ledgerReader,
		indicators: indicators,
		cfg:        cfg,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// CalculateDepartmentTrustScore computes the four sub-scores for one
// department, persists the indicator per the snapshot mode and returns it.
func (s *Service) CalculateDepartmentTrustScore(ctx context.Context, deptID id.DepartmentID) (*models.TrustIndicator, error) {
	start := time.Now()
	dept, err := s.ledger.FindDepartment(ctx, deptID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "department not found")
		}
		return nil, s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to load department"))
	}

	projects, err := s.ledger.ListProjectsByDepartment(ctx, dept.ID)
	if err != nil {
		return nil, s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to list department projects"))
	}
	feedback, err := s.ledger.ListFeedbackByDepartment(ctx, dept.ID)
	if err != nil {
		return nil, s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to list department feedback"))
	}
	totalDocs, verifiedDocs, err := s.ledger.CountDocumentsByDepartment(ctx, dept.ID)
	if err != nil {
		return nil, s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to count department documents"))
	}

	ind := trust.Combine(dept.ID,
		trust.TransparencyScore(projects),
		trust.CommunityScore(feedback),
		trust.ResponseScore(feedback),
		trust.DocumentScore(totalDocs, verifiedDocs),
		s.now(),
	)

	switch s.cfg.SnapshotMode {
	case SnapshotAppend:
		if err := s.indicators.AppendIndicator(ctx, ind); err != nil {
			return nil, s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to store trust indicator"))
		}
	default:
		ind, err = s.indicators.UpsertIndicator(ctx, ind)
		if err != nil {
			return nil, s.fail(dErrors.Wrap(err, dErrors.CodeInternal, "failed to store trust indicator"))
		}
	}

	if s.metrics != nil {
		s.metrics.ObserveCalculated(dept.ID.String(), ind.OverallScore(), start)
	}
	s.logAudit(ctx, dept, ind)
	return ind, nil
}

// CalculateAll scores every department with bounded parallelism. Results are
// ordered by department name. A department removed mid-run is left out.
func (s *Service) CalculateAll(ctx context.Context) ([]models.DepartmentScore, error) {
	depts, err := s.ledger.ListDepartments(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list departments")
	}

	results := make([]*models.TrustIndicator, len(depts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.Workers)
	for i, dept := range depts {
		g.Go(func() error {
			ind, err := s.CalculateDepartmentTrustScore(gctx, dept.ID)
			if err != nil {
				if dErrors.HasCode(err, dErrors.CodeNotFound) {
					return nil
				}
				return err
			}
			results[i] = ind
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	scores := make([]models.DepartmentScore, 0, len(depts))
	for i, dept := range depts {
		if results[i] == nil {
			continue
		}
		scores = append(scores, models.NewDepartmentScore(dept.Name, results[i]))
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Department < scores[j].Department })
	return scores, nil
}

// Summary returns the current indicator per department, highest overall
// score first. Ties order by department name.
func (s *Service) Summary(ctx context.Context) ([]models.DepartmentScore, error) {
	latest, err := s.indicators.LatestIndicators(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load trust indicators")
	}
	depts, err := s.ledger.ListDepartments(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list departments")
	}
	names := make(map[id.DepartmentID]string, len(depts))
	for _, d := range depts {
		names[d.ID] = d.Name
	}

	scores := make([]models.DepartmentScore, 0, len(latest))
	for _, ind := range latest {
		name, ok := names[ind.DepartmentID]
		if !ok {
			continue
		}
		scores = append(scores, models.NewDepartmentScore(name, ind))
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].OverallScore != scores[j].OverallScore {
			return scores[i].OverallScore > scores[j].OverallScore
		}
		return scores[i].Department < scores[j].Department
	})
	return scores, nil
}

func (s *Service) fail(err error) error {
	if s.metrics != nil {
		s.metrics.IncFailure()
	}
	return err
}

func (s *Service) logAudit(ctx context.Context, dept *ledger.Department, ind *models.TrustIndicator) {
	event := audit.EventTrustScoreCalculated
	attributes := map[string]string{
		"department":    dept.Name,
		"transparency":  strconv.Itoa(ind.TransparencyScore),
		"community":     strconv.Itoa(ind.CommunityOversightScore),
		"response_time": strconv.Itoa(ind.ResponseTimeScore),
		"documents":     strconv.Itoa(ind.DocumentCompletenessScore),
		"overall":       strconv.Itoa(ind.OverallScore()),
	}
	args := []any{"event", string(event), "log_type", "audit", "department_id", dept.ID.String()}
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
		Subject:    dept.ID.String(),
		ActorID:    s.cfg.SystemActorID,
		Attributes: attributes,
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
