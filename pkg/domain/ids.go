package domain

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"

	dErrors "trustledger/pkg/domain-errors"
)

// ID is a UUID tagged with the entity it identifies. Distinct tags make
// DepartmentID and ProjectID different types, so one cannot be passed where
// the other is expected.
type ID[K any] uuid.UUID

type (
	userKind           struct{}
	departmentKind     struct{}
	projectKind        struct{}
	fundSourceKind     struct{}
	fundFlowKind       struct{}
	anomalyKind        struct{}
	trustIndicatorKind struct{}
	feedbackKind       struct{}
	documentKind       struct{}
)

type (
	UserID           = ID[userKind]
	DepartmentID     = ID[departmentKind]
	ProjectID        = ID[projectKind]
	FundSourceID     = ID[fundSourceKind]
	FundFlowID       = ID[fundFlowKind]
	AnomalyID        = ID[anomalyKind]
	TrustIndicatorID = ID[trustIndicatorKind]
	FeedbackID       = ID[feedbackKind]
	DocumentID       = ID[documentKind]
)

func (i ID[K]) String() string {
	return uuid.UUID(i).String()
}

// IsNil reports whether the ID is the zero UUID.
func (i ID[K]) IsNil() bool {
	return uuid.UUID(i) == uuid.Nil
}

func (i ID[K]) MarshalText() ([]byte, error) {
	return uuid.UUID(i).MarshalText()
}

func (i *ID[K]) UnmarshalText(data []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(data); err != nil {
		return err
	}
	*i = ID[K](u)
	return nil
}

// Value stores nil IDs as SQL NULL so optional foreign keys round-trip.
func (i ID[K]) Value() (driver.Value, error) {
	if i.IsNil() {
		return nil, nil
	}
	return uuid.UUID(i).String(), nil
}

func (i *ID[K]) Scan(src any) error {
	if src == nil {
		*i = ID[K](uuid.Nil)
		return nil
	}
	var u uuid.UUID
	if err := u.Scan(src); err != nil {
		return fmt.Errorf("scan id: %w", err)
	}
	*i = ID[K](u)
	return nil
}

func newID[K any]() ID[K] {
	return ID[K](uuid.New())
}

// parseID enforces the trust-boundary rule: input must be a valid, non-nil UUID.
func parseID[K any](s, label string) (ID[K], error) {
	if s == "" {
		return ID[K]{}, dErrors.New(dErrors.CodeInvalidInput, label+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return ID[K]{}, dErrors.New(dErrors.CodeInvalidInput, "invalid "+label)
	}
	if u == uuid.Nil {
		return ID[K]{}, dErrors.New(dErrors.CodeInvalidInput, label+" cannot be nil")
	}
	return ID[K](u), nil
}

func NewUserID() UserID                     { return newID[userKind]() }
func NewDepartmentID() DepartmentID         { return newID[departmentKind]() }
func NewProjectID() ProjectID               { return newID[projectKind]() }
func NewFundSourceID() FundSourceID         { return newID[fundSourceKind]() }
func NewFundFlowID() FundFlowID             { return newID[fundFlowKind]() }
func NewAnomalyID() AnomalyID               { return newID[anomalyKind]() }
func NewTrustIndicatorID() TrustIndicatorID { return newID[trustIndicatorKind]() }
func NewFeedbackID() FeedbackID             { return newID[feedbackKind]() }
func NewDocumentID() DocumentID             { return newID[documentKind]() }

func ParseUserID(s string) (UserID, error) {
	return parseID[userKind](s, "user_id")
}

func ParseDepartmentID(s string) (DepartmentID, error) {
	return parseID[departmentKind](s, "department_id")
}

func ParseProjectID(s string) (ProjectID, error) {
	return parseID[projectKind](s, "project_id")
}

func ParseFundSourceID(s string) (FundSourceID, error) {
	return parseID[fundSourceKind](s, "fund_source_id")
}

func ParseFundFlowID(s string) (FundFlowID, error) {
	return parseID[fundFlowKind](s, "fund_flow_id")
}

func ParseAnomalyID(s string) (AnomalyID, error) {
	return parseID[anomalyKind](s, "anomaly_id")
}
