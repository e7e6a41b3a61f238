package models

import (
	"time"

	"github.com/shopspring/decimal"

	ledger "trustledger/internal/ledger/models"
	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
)

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Rank orders severities low < medium < high < critical. Unknown values rank 0.
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	case SeverityCritical:
		return 4
	}
	return 0
}

func (s Severity) IsValid() bool { return s.Rank() > 0 }

// Category identifies which rule produced an anomaly. Together with the
// subject id it forms the dedup key.
type Category string

const (
	CategoryBudgetOverrun Category = "budget_overrun"
	CategorySpendingSpike Category = "spending_spike"
	CategoryProjectDelay  Category = "project_delay"
	CategoryManual        Category = "manual"
)

func OverrunKey(projectID id.ProjectID) string {
	return string(CategoryBudgetOverrun) + ":project:" + projectID.String()
}

func SpikeKey(flowID id.FundFlowID) string {
	return string(CategorySpendingSpike) + ":flow:" + flowID.String()
}

func DelayKey(projectID id.ProjectID) string {
	return string(CategoryProjectDelay) + ":project:" + projectID.String()
}

func ManualKey(flowID id.FundFlowID) string {
	return string(CategoryManual) + ":flow:" + flowID.String()
}

// Anomaly is a recorded integrity finding attached to a fund flow.
//
// Invariants:
//   - at most one unresolved anomaly exists per DedupKey
//   - once resolved, ResolvedBy and ResolvedAt are set and never cleared
type Anomaly struct {
	ID              id.AnomalyID  `json:"id"`
	FundFlowID      id.FundFlowID `json:"fund_flow_id"`
	Category        Category      `json:"category"`
	DedupKey        string        `json:"dedup_key"`
	Description     string        `json:"description"`
	Severity        Severity      `json:"severity"`
	DetectedBy      id.UserID     `json:"detected_by"`
	DetectedAt      time.Time     `json:"detected_at"`
	Resolved        bool          `json:"resolved"`
	ResolvedBy      *id.UserID    `json:"resolved_by,omitempty"`
	ResolvedAt      *time.Time    `json:"resolved_at,omitempty"`
	ResolutionNotes string        `json:"resolution_notes,omitempty"`
}

// CanResolve checks the resolved -> resolved transition is not attempted.
func (a *Anomaly) CanResolve() error {
	if a.Resolved {
		return dErrors.New(dErrors.CodeInvariantViolation, "anomaly is already resolved")
	}
	return nil
}

// ApplyResolution marks the anomaly resolved. Call CanResolve first.
func (a *Anomaly) ApplyResolution(by id.UserID, at time.Time, notes string) {
	a.Resolved = true
	a.ResolvedBy = &by
	a.ResolvedAt = &at
	a.ResolutionNotes = notes
}

// Detection is a unit of work for the store's dedup guard: the anomaly to
// create, plus an optional synthetic flow to insert first, plus an optional
// existing flow whose status flips to anomaly.
type Detection struct {
	Anomaly       *Anomaly
	SyntheticFlow *ledger.FundFlow
	MarkFlow      *id.FundFlowID
}

type BudgetOverrun struct {
	AnomalyID     id.AnomalyID    `json:"anomaly_id"`
	ProjectID     id.ProjectID    `json:"project_id"`
	Project       string          `json:"project"`
	Budget        decimal.Decimal `json:"budget"`
	Spent         decimal.Decimal `json:"spent"`
	OverrunAmount decimal.Decimal `json:"overrun_amount"`
	// OverrunPercentage is nil when the budget is zero.
	OverrunPercentage *decimal.Decimal `json:"overrun_percentage"`
	Severity          Severity         `json:"severity"`
}

type UnusualSpending struct {
	AnomalyID    id.AnomalyID    `json:"anomaly_id"`
	ProjectID    id.ProjectID    `json:"project_id"`
	Project      string          `json:"project"`
	FundFlowID   id.FundFlowID   `json:"fund_flow_id"`
	Amount       decimal.Decimal `json:"amount"`
	Date         time.Time       `json:"date"`
	AverageDaily decimal.Decimal `json:"average_daily"`
	Severity     Severity        `json:"severity"`
}

type DelayedProject struct {
	AnomalyID   id.AnomalyID `json:"anomaly_id"`
	ProjectID   id.ProjectID `json:"project_id"`
	Project     string       `json:"project"`
	DaysOverdue int          `json:"days_overdue"`
	EndDate     time.Time    `json:"end_date"`
	Severity    Severity     `json:"severity"`
}

// Diagnostic records a record the detector skipped and why.
type Diagnostic struct {
	Category Category `json:"category"`
	RecordID string   `json:"record_id"`
	Reason   string   `json:"reason"`
}

// CategorySummary reports one detector's outcome. Error is set when the
// category aborted on a store failure.
type CategorySummary struct {
	Category Category `json:"category"`
	Detected int      `json:"detected"`
	Skipped  int      `json:"skipped"`
	Error    string   `json:"error,omitempty"`
}

func (c CategorySummary) Failed() bool { return c.Error != "" }

// DetectionReport is the result of running all detectors. Every list is
// non-nil and every category has a summary, even on failure.
type DetectionReport struct {
	BudgetOverruns  []BudgetOverrun   `json:"budget_overruns"`
	UnusualSpending []UnusualSpending `json:"unusual_spending"`
	DelayedProjects []DelayedProject  `json:"delayed_projects"`
	TotalDetected   int               `json:"total_detected"`
	Summaries       []CategorySummary `json:"summaries"`
	Diagnostics     []Diagnostic      `json:"diagnostics"`
}

// NewDetectionReport returns a report with empty, non-nil lists.
func NewDetectionReport() *DetectionReport {
	return &DetectionReport{
		BudgetOverruns:  []BudgetOverrun{},
		UnusualSpending: []UnusualSpending{},
		DelayedProjects: []DelayedProject{},
		Summaries:       []CategorySummary{},
		Diagnostics:     []Diagnostic{},
	}
}

// Counts is the anomaly dashboard tally.
type Counts struct {
	Total      int `json:"total"`
	Unresolved int `json:"unresolved"`
}
