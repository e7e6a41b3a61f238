// Package trust computes the four-factor department trust score.
package trust

import (
	"time"

	ledger "trustledger/internal/ledger/models"
	"trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
)

// NeutralScore is used when a factor has no data to judge.
const NeutralScore = 50

// NoDocumentsScore penalises a department with nothing on file.
const NoDocumentsScore = 30

// TransparencyScore is the share of completed projects.
func TransparencyScore(projects []*ledger.Project) int {
	if len(projects) == 0 {
		return NeutralScore
	}
	completed := 0
	for _, p := range projects {
		if p.Status == ledger.ProjectCompleted {
			completed++
		}
	}
	return percent(completed, len(projects))
}

// CommunityScore is answered feedback (responded or resolved, public or not)
// over public feedback, capped at 100.
func CommunityScore(feedback []*ledger.CommunityFeedback) int {
	public, answered := 0, 0
	for _, f := range feedback {
		if f.IsPublic {
			public++
		}
		if f.IsAnswered() {
			answered++
		}
	}
	if public == 0 {
		return NeutralScore
	}
	return percent(answered, public)
}

// ResponseScore buckets the mean response time over feedback that has one.
func ResponseScore(feedback []*ledger.CommunityFeedback) int {
	var total time.Duration
	n := 0
	for _, f := range feedback {
		if f.RespondedAt == nil {
			continue
		}
		total += f.RespondedAt.Sub(f.CreatedAt)
		n++
	}
	if n == 0 {
		return NeutralScore
	}
	avgHours := total.Hours() / float64(n)
	switch {
	case avgHours < 24:
		return 100
	case avgHours < 72:
		return 80
	case avgHours < 168:
		return 60
	default:
		return 40
	}
}

// DocumentScore is the share of verified documents.
func DocumentScore(total, verified int) int {
	if total <= 0 {
		return NoDocumentsScore
	}
	return percent(verified, total)
}

// Combine assembles an indicator from the four sub-scores.
func Combine(departmentID id.DepartmentID, transparency, community, response, document int, at time.Time) *models.TrustIndicator {
	return &models.TrustIndicator{
		ID:                        id.NewTrustIndicatorID(),
		DepartmentID:              departmentID,
		TransparencyScore:         transparency,
		CommunityOversightScore:   community,
		ResponseTimeScore:         response,
		DocumentCompletenessScore: document,
		CalculatedAt:              at,
	}
}

// percent is floor(part*100/whole) capped to [0, 100].
func percent(part, whole int) int {
	p := part * 100 / whole
	if p > 100 {
		return 100
	}
	if p < 0 {
		return 0
	}
	return p
}
