package models

import (
	"time"

	id "trustledger/pkg/domain"
)

// TrustIndicator is a department's composite trust score at a point in time.
// Every sub-score is an integer in [0, 100].
type TrustIndicator struct {
	ID                        id.TrustIndicatorID `json:"id"`
	DepartmentID              id.DepartmentID     `json:"department_id"`
	TransparencyScore         int                 `json:"transparency_score"`
	CommunityOversightScore   int                 `json:"community_oversight_score"`
	ResponseTimeScore         int                 `json:"response_time_score"`
	DocumentCompletenessScore int                 `json:"document_completeness_score"`
	CalculatedAt              time.Time           `json:"calculated_at"`
}

// OverallScore is the floor of the mean of the four sub-scores.
func (t *TrustIndicator) OverallScore() int {
	return (t.TransparencyScore + t.CommunityOversightScore + t.ResponseTimeScore + t.DocumentCompletenessScore) / 4
}

// SameScores reports whether two indicators carry identical sub-scores.
func (t *TrustIndicator) SameScores(o *TrustIndicator) bool {
	return t.TransparencyScore == o.TransparencyScore &&
		t.CommunityOversightScore == o.CommunityOversightScore &&
		t.ResponseTimeScore == o.ResponseTimeScore &&
		t.DocumentCompletenessScore == o.DocumentCompletenessScore
}

// DepartmentScore pairs an indicator with its department for listings.
type DepartmentScore struct {
	DepartmentID              id.DepartmentID `json:"department_id"`
	Department                string          `json:"department"`
	TransparencyScore         int             `json:"transparency_score"`
	CommunityOversightScore   int             `json:"community_oversight_score"`
	ResponseTimeScore         int             `json:"response_time_score"`
	DocumentCompletenessScore int             `json:"document_completeness_score"`
	OverallScore              int             `json:"overall_score"`
	CalculatedAt              time.Time       `json:"calculated_at"`
}

// NewDepartmentScore flattens an indicator for API and export output.
func NewDepartmentScore(name string, t *TrustIndicator) DepartmentScore {
	return DepartmentScore{
		DepartmentID:              t.DepartmentID,
		Department:                name,
		TransparencyScore:         t.TransparencyScore,
		CommunityOversightScore:   t.CommunityOversightScore,
		ResponseTimeScore:         t.ResponseTimeScore,
		DocumentCompletenessScore: t.DocumentCompletenessScore,
		OverallScore:              t.OverallScore(),
		CalculatedAt:              t.CalculatedAt,
	}
}
