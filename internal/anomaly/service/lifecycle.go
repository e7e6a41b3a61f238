package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"trustledger/internal/anomaly/models"
	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
	audit "trustledger/pkg/platform/audit"
	"trustledger/pkg/platform/sentinel"
)

const maxNotesLength = 2000

// Resolve marks an anomaly resolved by an auditor. Resolving frees the dedup
// key, so the next run may record the same condition again.
func (s *Service) Resolve(ctx context.Context, anomalyID id.AnomalyID, auditor id.UserID, notes string) (*models.Anomaly, error) {
	if auditor.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "auditor is required")
	}
	notes = strings.TrimSpace(notes)
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return nil, dErrors.New(dErrors.CodeValidation, "resolution notes are too long")
	}

	resolved, err := s.anomalies.ExecuteAnomaly(ctx, anomalyID, func(a *models.Anomaly) error {
		if err := a.CanResolve(); err != nil {
			return err
		}
		a.ApplyResolution(auditor, s.now(), notes)
		return nil
	})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "anomaly not found")
		}
		if dErrors.HasCode(err, dErrors.CodeInvariantViolation) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve anomaly")
	}

	if s.metrics != nil {
		s.metrics.IncResolved()
	}
	s.logAudit(ctx, audit.EventAnomalyResolved, resolved.ID.String(), auditor, map[string]string{
		"category": string(resolved.Category),
	})
	return resolved, nil
}

// Flag records a manual anomaly against an existing fund flow and moves the
// flow to anomaly status. A flow holds at most one open manual flag.
func (s *Service) Flag(ctx context.Context, flowID id.FundFlowID, actor id.UserID, description string, severity models.Severity) (*models.Anomaly, error) {
	if actor.IsNil() {
		return nil, dErrors.New(dErrors.CodeValidation, "actor is required")
	}
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "description is required")
	}
	if utf8.RuneCountInString(description) > maxNotesLength {
		return nil, dErrors.New(dErrors.CodeValidation, "description is too long")
	}
	if severity == "" {
		severity = models.SeverityMedium
	}
	if !severity.IsValid() {
		return nil, dErrors.New(dErrors.CodeValidation, "severity must be one of low, medium, high, critical")
	}

	if _, err := s.flows.FindFlow(ctx, flowID); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "fund flow not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load fund flow")
	}

	a := &models.Anomaly{
		ID:          id.NewAnomalyID(),
		FundFlowID:  flowID,
		Category:    models.CategoryManual,
		DedupKey:    models.ManualKey(flowID),
		Description: description,
		Severity:    severity,
		DetectedBy:  actor,
		DetectedAt:  s.now(),
	}
	created, err := s.anomalies.RecordDetection(ctx, &models.Detection{Anomaly: a, MarkFlow: &flowID})
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "fund flow not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to flag fund flow")
	}
	if !created {
		return nil, dErrors.New(dErrors.CodeConflict, "fund flow already has an open flag")
	}

	if s.metrics != nil {
		s.metrics.IncDetected(string(a.Category), string(a.Severity))
	}
	s.logAudit(ctx, audit.EventAnomalyFlagged, a.ID.String(), actor, map[string]string{
		"fund_flow_id": flowID.String(),
		"severity":     string(severity),
	})
	return a, nil
}

// Counts returns total and unresolved anomaly counts.
func (s *Service) Counts(ctx context.Context) (models.Counts, error) {
	c, err := s.anomalies.CountAnomalies(ctx)
	if err != nil {
		return models.Counts{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to count anomalies")
	}
	return c, nil
}
