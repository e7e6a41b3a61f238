// Package integrity sequences anomaly detection and trust scoring into a
// single audited run. It holds no business rules of its own.
package integrity

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	anomaly "trustledger/internal/anomaly/models"
	trust "trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
	audit "trustledger/pkg/platform/audit"
)

var tracer = otel.Tracer("trustledger/integrity")

type Detector interface {
	RunAll(ctx context.Context) (*anomaly.DetectionReport, error)
}

type Scorer interface {
	CalculateAll(ctx context.Context) ([]trust.DepartmentScore, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Options selects the phases of a run.
type Options struct {
	Detect bool
	Score  bool
}

// DefaultOptions runs detection and scoring.
func DefaultOptions() Options {
	return Options{Detect: true, Score: true}
}

// Report is the outcome of one run. A phase that did not run is nil.
type Report struct {
	Detections  *anomaly.DetectionReport `json:"detections,omitempty"`
	TrustScores []trust.DepartmentScore  `json:"trust_scores,omitempty"`
	StartedAt   time.Time                `json:"started_at"`
	FinishedAt  time.Time                `json:"finished_at"`
}

// Orchestrator runs detection then scoring.
type Orchestrator struct {
	detector       Detector
	scorer         Scorer
	systemActor    id.UserID
	locker         Locker
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *Metrics
	now            func() time.Time
}

type Option func(*Orchestrator)

func WithLogger(logger *slog.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(o *Orchestrator) {
		o.auditPublisher = publisher
	}
}

func WithMetrics(m *Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// WithLocker makes RunExclusive take the given lock. Without it runs are
// serialized within the process only.
func WithLocker(l Locker) Option {
	return func(o *Orchestrator) {
		o.locker = l
	}
}

func New(detector Detector, scorer Scorer, systemActor id.UserID, opts ...Option) (*Orchestrator, error) {
	if detector == nil {
		return nil, errors.New("detector is required")
	}
	if scorer == nil {
		return nil, errors.New("scorer is required")
	}
	if systemActor.IsNil() {
		return nil, errors.New("system actor id is required")
	}
	o := &Orchestrator{
		detector:    detector,
		scorer:      scorer,
		systemActor: systemActor,
		locker:      NewLocalLocker(),
		logger:      slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// RunExclusive takes the run lock, runs, and releases it. It returns
// ErrRunInProgress when another run holds the lock.
func (o *Orchestrator) RunExclusive(ctx context.Context, opts Options) (*Report, error) {
	release, err := o.locker.Acquire(ctx)
	if err != nil {
		if errors.Is(err, ErrRunInProgress) && o.metrics != nil {
			o.metrics.incSkipped()
		}
		return nil, err
	}
	defer func() {
		// The run may have consumed ctx; release on a fresh one.
		releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := release(releaseCtx); err != nil {
			o.logger.WarnContext(ctx, "failed to release run lock", "error", err)
		}
	}()
	return o.Run(ctx, opts)
}

// Run executes the selected phases in order. A detector category failure
// does not stop scoring; all failures are returned joined with the report.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Report, error) {
	if !opts.Detect && !opts.Score {
		return nil, dErrors.New(dErrors.CodeValidation, "at least one of detect or score must be selected")
	}

	ctx, span := tracer.Start(ctx, "integrity.Run", trace.WithAttributes(
		attribute.Bool("integrity.detect", opts.Detect),
		attribute.Bool("integrity.score", opts.Score),
	))
	defer span.End()

	report := &Report{StartedAt: o.now()}
	var errs []error

	if opts.Detect {
		detections, err := o.detector.RunAll(ctx)
		report.Detections = detections
		if err != nil {
			errs = append(errs, err)
		}
		if detections != nil {
			span.SetAttributes(attribute.Int("integrity.anomalies_detected", detections.TotalDetected))
		}
	}

	if opts.Score {
		if err := ctx.Err(); err != nil {
			errs = append(errs, dErrors.Wrap(err, dErrors.CodeTimeout, "run cancelled before scoring"))
		} else {
			scores, err := o.scorer.CalculateAll(ctx)
			if err != nil {
				errs = append(errs, err)
			}
			report.TrustScores = scores
			span.SetAttributes(attribute.Int("integrity.departments_scored", len(scores)))
		}
	}

	report.FinishedAt = o.now()
	err := errors.Join(errs...)
	outcome := outcomeSuccess
	if err != nil {
		outcome = outcomeFailed
		span.RecordError(err)
		span.SetStatus(codes.Error, "integrity run failed")
	}
	if o.metrics != nil {
		o.metrics.observeRun(outcome, report.StartedAt, report.FinishedAt)
	}
	o.logRun(ctx, report, outcome, err)
	return report, err
}

func (o *Orchestrator) logRun(ctx context.Context, report *Report, outcome string, runErr error) {
	event := audit.EventIntegrityRunCompleted
	attributes := map[string]string{
		"outcome":            outcome,
		"duration_ms":        strconv.FormatInt(report.FinishedAt.Sub(report.StartedAt).Milliseconds(), 10),
		"departments_scored": strconv.Itoa(len(report.TrustScores)),
	}
	if report.Detections != nil {
		attributes["anomalies_detected"] = strconv.Itoa(report.Detections.TotalDetected)
	}

	args := []any{"event", string(event), "log_type", "audit"}
	for k, v := range attributes {
		args = append(args, k, v)
	}
	if runErr != nil {
		o.logger.ErrorContext(ctx, string(event), append(args, "error", runErr)...)
	} else {
		o.logger.InfoContext(ctx, string(event), args...)
	}

	if o.auditPublisher == nil {
		return
	}
	if err := o.auditPublisher.Emit(ctx, audit.Event{
		Action:     string(event),
		Subject:    "integrity_run",
		ActorID:    o.systemActor,
		Attributes: attributes,
	}); err != nil {
		o.logger.WarnContext(ctx, "failed to emit audit event", "event", string(event), "error", err)
	}
}
