// Package models holds the financial record types the integrity engine reads
// and writes: departments, projects, fund flows, feedback and documents.
package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type Department struct {
	ID       id.DepartmentID `json:"id"`
	Name     string          `json:"name" validate:"required,max=200"`
	Budget   decimal.Decimal `json:"budget"`
	IsActive bool            `json:"is_active"`
}

// SpentAmount sums Spent over the department's active and completed projects.
// Projects belonging to other departments are ignored.
func (d *Department) SpentAmount(projects []*Project) decimal.Decimal {
	total := decimal.Zero
	for _, p := range projects {
		if p == nil || p.DepartmentID != d.ID {
			continue
		}
		if p.Status == ProjectActive || p.Status == ProjectCompleted {
			total = total.Add(p.Spent)
		}
	}
	return total
}

type ProjectStatus string

const (
	ProjectPlanning  ProjectStatus = "planning"
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectCancelled ProjectStatus = "cancelled"
	ProjectOnHold    ProjectStatus = "on_hold"
)

func (s ProjectStatus) IsValid() bool {
	switch s {
	case ProjectPlanning, ProjectActive, ProjectCompleted, ProjectCancelled, ProjectOnHold:
		return true
	}
	return false
}

type Project struct {
	ID           id.ProjectID    `json:"id"`
	Name         string          `json:"name" validate:"required,max=200"`
	DepartmentID id.DepartmentID `json:"department_id"`
	Budget       decimal.Decimal `json:"budget"`
	Spent        decimal.Decimal `json:"spent"`
	Status       ProjectStatus   `json:"status" validate:"required"`
	StartDate    time.Time       `json:"start_date"`
	EndDate      *time.Time      `json:"end_date,omitempty"`
}

// IsOverBudget reports spent > budget.
func (p *Project) IsOverBudget() bool {
	return p.Spent.GreaterThan(p.Budget)
}

type FundSource struct {
	ID   id.FundSourceID `json:"id"`
	Name string          `json:"name"`
}

type FlowStatus string

const (
	FlowVerified    FlowStatus = "verified"
	FlowUnderReview FlowStatus = "under_review"
	FlowAnomaly     FlowStatus = "anomaly"
)

func (s FlowStatus) IsValid() bool {
	return s == FlowVerified || s == FlowUnderReview || s == FlowAnomaly
}

// FundFlow is a movement of money from a source to exactly one target:
// a department or a project, never both and never neither.
type FundFlow struct {
	ID                 id.FundFlowID    `json:"id"`
	SourceID           id.FundSourceID  `json:"source_id"`
	TargetDepartmentID *id.DepartmentID `json:"target_department_id,omitempty"`
	TargetProjectID    *id.ProjectID    `json:"target_project_id,omitempty"`
	Amount             decimal.Decimal  `json:"amount"`
	Status             FlowStatus       `json:"status" validate:"required"`
	Description        string           `json:"description" validate:"max=2000"`
	TransactionDate    time.Time        `json:"transaction_date"`
	CreatedAt          time.Time        `json:"created_at"`
}

// DateOf truncates t to its calendar date in UTC. Transaction, start and end
// dates are calendar dates.
func DateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// FlowTarget selects the single target of a fund flow.
type FlowTarget struct {
	Department *id.DepartmentID
	Project    *id.ProjectID
}

// ToProject targets a project.
func ToProject(projectID id.ProjectID) FlowTarget {
	return FlowTarget{Project: &projectID}
}

// ToDepartment targets a department.
func ToDepartment(departmentID id.DepartmentID) FlowTarget {
	return FlowTarget{Department: &departmentID}
}

// NewFundFlow builds a fund flow, enforcing the single-target and
// non-negative amount rules before anything can be persisted.
func NewFundFlow(
	flowID id.FundFlowID,
	source id.FundSourceID,
	target FlowTarget,
	amount decimal.Decimal,
	status FlowStatus,
	description string,
	transactionDate time.Time,
	now time.Time,
) (*FundFlow, error) {
	hasDept := target.Department != nil && !target.Department.IsNil()
	hasProject := target.Project != nil && !target.Project.IsNil()
	if hasDept == hasProject {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fund flow must target exactly one of department or project")
	}
	if source.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fund flow requires a source")
	}
	if amount.IsNegative() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "fund flow amount must not be negative")
	}
	if !status.IsValid() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "unknown fund flow status")
	}

	f := &FundFlow{
		ID:              flowID,
		SourceID:        source,
		Amount:          amount,
		Status:          status,
		Description:     strings.TrimSpace(description),
		TransactionDate: DateOf(transactionDate),
		CreatedAt:       now,
	}
	if hasDept {
		d := *target.Department
		f.TargetDepartmentID = &d
	} else {
		p := *target.Project
		f.TargetProjectID = &p
	}
	if err := validate.Struct(f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInvariantViolation, "invalid fund flow")
	}
	return f, nil
}

// TargetsProject reports whether the flow targets the given project.
func (f *FundFlow) TargetsProject(projectID id.ProjectID) bool {
	return f.TargetProjectID != nil && *f.TargetProjectID == projectID
}

type FeedbackStatus string

const (
	FeedbackPending     FeedbackStatus = "pending"
	FeedbackUnderReview FeedbackStatus = "under_review"
	FeedbackResponded   FeedbackStatus = "responded"
	FeedbackResolved    FeedbackStatus = "resolved"
	FeedbackClosed      FeedbackStatus = "closed"
)

type CommunityFeedback struct {
	ID           id.FeedbackID   `json:"id"`
	DepartmentID id.DepartmentID `json:"department_id"`
	ProjectID    *id.ProjectID   `json:"project_id,omitempty"`
	IsPublic     bool            `json:"is_public"`
	Status       FeedbackStatus  `json:"status"`
	CreatedAt    time.Time       `json:"created_at"`
	RespondedAt  *time.Time      `json:"responded_at,omitempty"`
}

// IsAnswered reports whether an official responded to or resolved the feedback.
func (f *CommunityFeedback) IsAnswered() bool {
	return f.Status == FeedbackResponded || f.Status == FeedbackResolved
}

type Document struct {
	ID        id.DocumentID `json:"id"`
	ProjectID id.ProjectID  `json:"project_id"`
	Verified  bool          `json:"verified"`
}
