package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"trustledger/internal/anomaly"
	"trustledger/internal/anomaly/models"
	ledger "trustledger/internal/ledger/models"
	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
	audit "trustledger/pkg/platform/audit"
)

// RunAll runs the three detectors in order and assembles the report. A store
// failure aborts only its own category; the report still carries every
// category and the failures are returned joined.
func (s *Service) RunAll(ctx context.Context) (*models.DetectionReport, error) {
	report := models.NewDetectionReport()
	var errs []error

	overruns, diags, err := s.DetectBudgetOverruns(ctx)
	report.BudgetOverruns = append(report.BudgetOverruns, overruns...)
	errs = append(errs, s.summarize(ctx, report, models.CategoryBudgetOverrun, len(overruns), diags, err))

	spikes, diags, err := s.DetectUnusualSpending(ctx)
	report.UnusualSpending = append(report.UnusualSpending, spikes...)
	errs = append(errs, s.summarize(ctx, report, models.CategorySpendingSpike, len(spikes), diags, err))

	delays, diags, err := s.DetectDelayedProjects(ctx)
	report.DelayedProjects = append(report.DelayedProjects, delays...)
	errs = append(errs, s.summarize(ctx, report, models.CategoryProjectDelay, len(delays), diags, err))

	report.TotalDetected = len(report.BudgetOverruns) + len(report.UnusualSpending) + len(report.DelayedProjects)
	return report, errors.Join(errs...)
}

func (s *Service) summarize(ctx context.Context, report *models.DetectionReport, category models.Category, detected int, diags []models.Diagnostic, err error) error {
	summary := models.CategorySummary{Category: category, Detected: detected, Skipped: len(diags)}
	report.Diagnostics = append(report.Diagnostics, diags...)
	if err != nil {
		summary.Error = err.Error()
		if s.metrics != nil {
			s.metrics.IncCategoryFailure(string(category))
		}
		s.logger.ErrorContext(ctx, "anomaly detector category failed",
			"category", category,
			"detected_before_failure", detected,
			"error", err,
		)
		err = fmt.Errorf("%s: %w", category, err)
	}
	report.Summaries = append(report.Summaries, summary)
	return err
}

// DetectBudgetOverruns records an anomaly for each over-budget project that
// does not already have an open one, and returns only the new detections.
func (s *Service) DetectBudgetOverruns(ctx context.Context) ([]models.BudgetOverrun, []models.Diagnostic, error) {
	category := models.CategoryBudgetOverrun
	defer s.observe(category, time.Now())
	now := s.now()
	today := anomaly.DateOf(now)

	projects, err := s.projects.ListOverBudgetProjects(ctx)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list over-budget projects")
	}

	found := []models.BudgetOverrun{}
	var diags []models.Diagnostic
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return found, diags, dErrors.Wrap(err, dErrors.CodeTimeout, "budget overrun detection cancelled")
		}
		if reason := projectDataError(p); reason != "" {
			diags = append(diags, s.skip(ctx, category, p.ID.String(), reason))
			continue
		}
		assessment, ok := anomaly.ClassifyOverrun(p.Budget, p.Spent)
		if !ok {
			continue
		}
		if assessment.Percentage == nil && s.cfg.ZeroBudgetPolicy == ZeroBudgetSkip {
			diags = append(diags, s.skip(ctx, category, p.ID.String(), "project has zero budget"))
			continue
		}

		flow, err := ledger.NewFundFlow(
			id.NewFundFlowID(), s.cfg.SystemSourceID, ledger.ToProject(p.ID),
			assessment.Amount, ledger.FlowAnomaly, overrunFlowDescription(assessment), today, now,
		)
		if err != nil {
			diags = append(diags, s.skip(ctx, category, p.ID.String(), err.Error()))
			continue
		}
		a := &models.Anomaly{
			ID:          id.NewAnomalyID(),
			FundFlowID:  flow.ID,
			Category:    category,
			DedupKey:    models.OverrunKey(p.ID),
			Description: overrunDescription(p, assessment),
			Severity:    assessment.Severity,
			DetectedBy:  s.cfg.SystemActorID,
			DetectedAt:  now,
		}
		created, err := s.anomalies.RecordDetection(ctx, &models.Detection{Anomaly: a, SyntheticFlow: flow})
		if err != nil {
			return found, diags, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record budget overrun")
		}
		if !created {
			continue
		}
		s.recordDetected(ctx, a)
		found = append(found, models.BudgetOverrun{
			AnomalyID:         a.ID,
			ProjectID:         p.ID,
			Project:           p.Name,
			Budget:            p.Budget,
			Spent:             p.Spent,
			OverrunAmount:     assessment.Amount,
			OverrunPercentage: assessment.Percentage,
			Severity:          assessment.Severity,
		})
	}
	return found, diags, nil
}

// DetectUnusualSpending flags flows into active projects that exceed three
// times the project's average daily spend over the window. Synthetic flows
// written by the detector itself are not part of the window.
func (s *Service) DetectUnusualSpending(ctx context.Context) ([]models.UnusualSpending, []models.Diagnostic, error) {
	category := models.CategorySpendingSpike
	defer s.observe(category, time.Now())
	now := s.now()
	from, to := anomaly.SpendingWindow(now)

	projects, err := s.projects.ListProjectsByStatus(ctx, ledger.ProjectActive)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active projects")
	}

	found := []models.UnusualSpending{}
	var diags []models.Diagnostic
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return found, diags, dErrors.Wrap(err, dErrors.CodeTimeout, "spending detection cancelled")
		}
		if reason := projectDataError(p); reason != "" {
			diags = append(diags, s.skip(ctx, category, p.ID.String(), reason))
			continue
		}

		flows, err := s.flows.ListProjectFlows(ctx, p.ID, from, to, s.cfg.SystemSourceID)
		if err != nil {
			return found, diags, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list project flows")
		}
		if len(flows) < 2 {
			continue
		}
		total := decimal.Zero
		for _, f := range flows {
			total = total.Add(f.Amount)
		}
		avgDaily := anomaly.AverageDaily(total)

		for _, f := range flows {
			if !anomaly.IsSpike(f.Amount, total) {
				continue
			}
			a := &models.Anomaly{
				ID:         id.NewAnomalyID(),
				FundFlowID: f.ID,
				Category:   category,
				DedupKey:   models.SpikeKey(f.ID),
				Description: fmt.Sprintf("Unusual spending spike detected: %s on %s (over %dx daily average %s)",
					f.Amount.StringFixed(2), f.TransactionDate.Format(time.DateOnly), anomaly.SpikeMultiplier, avgDaily.StringFixed(2)),
				Severity:   models.SeverityMedium,
				DetectedBy: s.cfg.SystemActorID,
				DetectedAt: now,
			}
			created, err := s.anomalies.RecordDetection(ctx, &models.Detection{Anomaly: a})
			if err != nil {
				return found, diags, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record spending spike")
			}
			if !created {
				continue
			}
			s.recordDetected(ctx, a)
			found = append(found, models.UnusualSpending{
				AnomalyID:    a.ID,
				ProjectID:    p.ID,
				Project:      p.Name,
				FundFlowID:   f.ID,
				Amount:       f.Amount,
				Date:         f.TransactionDate,
				AverageDaily: avgDaily,
				Severity:     a.Severity,
			})
		}
	}
	return found, diags, nil
}

// DetectDelayedProjects records an anomaly for each planning or active
// project past its end date.
func (s *Service) DetectDelayedProjects(ctx context.Context) ([]models.DelayedProject, []models.Diagnostic, error) {
	category := models.CategoryProjectDelay
	defer s.observe(category, time.Now())
	now := s.now()
	today := anomaly.DateOf(now)

	projects, err := s.projects.ListOverdueProjects(ctx, today)
	if err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list overdue projects")
	}

	found := []models.DelayedProject{}
	var diags []models.Diagnostic
	for _, p := range projects {
		if err := ctx.Err(); err != nil {
			return found, diags, dErrors.Wrap(err, dErrors.CodeTimeout, "delay detection cancelled")
		}
		if reason := projectDataError(p); reason != "" {
			diags = append(diags, s.skip(ctx, category, p.ID.String(), reason))
			continue
		}
		if p.EndDate == nil || !anomaly.DateOf(*p.EndDate).Before(today) {
			continue
		}
		days, severity := anomaly.ClassifyDelay(*p.EndDate, today)

		flow, err := ledger.NewFundFlow(
			id.NewFundFlowID(), s.cfg.SystemSourceID, ledger.ToProject(p.ID),
			decimal.Zero, ledger.FlowAnomaly, fmt.Sprintf("Project delay detected: %d days overdue", days), today, now,
		)
		if err != nil {
			diags = append(diags, s.skip(ctx, category, p.ID.String(), err.Error()))
			continue
		}
		a := &models.Anomaly{
			ID:         id.NewAnomalyID(),
			FundFlowID: flow.ID,
			Category:   category,
			DedupKey:   models.DelayKey(p.ID),
			Description: fmt.Sprintf("Project %q is %d days overdue (end date: %s)",
				p.Name, days, p.EndDate.Format(time.DateOnly)),
			Severity:   severity,
			DetectedBy: s.cfg.SystemActorID,
			DetectedAt: now,
		}
		created, err := s.anomalies.RecordDetection(ctx, &models.Detection{Anomaly: a, SyntheticFlow: flow})
		if err != nil {
			return found, diags, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record project delay")
		}
		if !created {
			continue
		}
		s.recordDetected(ctx, a)
		found = append(found, models.DelayedProject{
			AnomalyID:   a.ID,
			ProjectID:   p.ID,
			Project:     p.Name,
			DaysOverdue: days,
			EndDate:     *p.EndDate,
			Severity:    severity,
		})
	}
	return found, diags, nil
}

// projectDataError returns a reason when the record cannot be evaluated.
func projectDataError(p *ledger.Project) string {
	switch {
	case p.DepartmentID.IsNil():
		return "project has no department"
	case p.Budget.IsNegative():
		return "project budget is negative"
	case p.Spent.IsNegative():
		return "project spent is negative"
	}
	return ""
}

func overrunFlowDescription(a anomaly.OverrunAssessment) string {
	if a.Percentage == nil {
		return "Budget overrun detected: no budget allocated"
	}
	return fmt.Sprintf("Budget overrun detected: %s%% over budget", a.Percentage.StringFixed(1))
}

func overrunDescription(p *ledger.Project, a anomaly.OverrunAssessment) string {
	if a.Percentage == nil {
		return fmt.Sprintf("Project %q has spent %s with no budget allocated", p.Name, a.Amount.StringFixed(2))
	}
	return fmt.Sprintf("Project %q has exceeded budget by %s (%s%%)",
		p.Name, a.Amount.StringFixed(2), a.Percentage.StringFixed(1))
}

func (s *Service) skip(ctx context.Context, category models.Category, recordID, reason string) models.Diagnostic {
	s.logger.WarnContext(ctx, "skipping record",
		"category", category,
		"record_id", recordID,
		"reason", reason,
	)
	if s.metrics != nil {
		s.metrics.IncSkipped(string(category))
	}
	return models.Diagnostic{Category: category, RecordID: recordID, Reason: reason}
}

func (s *Service) recordDetected(ctx context.Context, a *models.Anomaly) {
	if s.metrics != nil {
		s.metrics.IncDetected(string(a.Category), string(a.Severity))
	}
	s.logAudit(ctx, audit.EventAnomalyDetected, a.ID.String(), a.DetectedBy, map[string]string{
		"category":     string(a.Category),
		"severity":     string(a.Severity),
		"fund_flow_id": a.FundFlowID.String(),
		"dedup_key":    a.DedupKey,
	})
}

func (s *Service) observe(category models.Category, start time.Time) {
	if s.metrics != nil {
		s.metrics.ObserveDetect(string(category), start)
	}
}
