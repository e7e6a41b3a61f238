package memory_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	anomaly "trustledger/internal/anomaly/models"
	ledger "trustledger/internal/ledger/models"
	"trustledger/internal/ledger/store/memory"
	trust "trustledger/internal/trust/models"
	id "trustledger/pkg/domain"
	"trustledger/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx    context.Context
	store  *memory.Store
	source id.FundSourceID
	dept   *ledger.Department
	now    time.Time
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	s.now = time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	s.source = id.NewFundSourceID()
	s.Require().NoError(s.store.CreateFundSource(s.ctx, &ledger.FundSource{ID: s.source, Name: "Treasury"}))
	s.dept = &ledger.Department{ID: id.NewDepartmentID(), Name: "Works", IsActive: true}
	s.Require().NoError(s.store.CreateDepartment(s.ctx, s.dept))
}

func (s *MemoryStoreSuite) project(name string, status ledger.ProjectStatus, budget, spent int64, end *time.Time) *ledger.Project {
	p := &ledger.Project{
		ID:           id.NewProjectID(),
		Name:         name,
		DepartmentID: s.dept.ID,
		Budget:       decimal.NewFromInt(budget),
		Spent:        decimal.NewFromInt(spent),
		Status:       status,
		StartDate:    s.now.AddDate(0, -6, 0),
		EndDate:      end,
	}
	s.Require().NoError(s.store.CreateProject(s.ctx, p))
	return p
}

func (s *MemoryStoreSuite) flow(projectID id.ProjectID, source id.FundSourceID, amount int64, date time.Time) *ledger.FundFlow {
	f, err := ledger.NewFundFlow(id.NewFundFlowID(), source, ledger.ToProject(projectID),
		decimal.NewFromInt(amount), ledger.FlowVerified, "", date, s.now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateFlow(s.ctx, f))
	return f
}

func (s *MemoryStoreSuite) detection(key string, flowID id.FundFlowID) *anomaly.Detection {
	return &anomaly.Detection{Anomaly: &anomaly.Anomaly{
		ID:          id.NewAnomalyID(),
		FundFlowID:  flowID,
		Category:    anomaly.CategoryManual,
		DedupKey:    key,
		Description: "test",
		Severity:    anomaly.SeverityMedium,
		DetectedBy:  id.NewUserID(),
		DetectedAt:  s.now,
	}}
}

// =============================================================================
// Ledger reads
// =============================================================================

func (s *MemoryStoreSuite) TestProjectQueries() {
	yesterday := s.now.AddDate(0, 0, -1)
	today := s.now
	over := s.project("Bridge", ledger.ProjectActive, 100, 150, nil)
	s.project("Road", ledger.ProjectActive, 100, 100, nil)
	late := s.project("Depot", ledger.ProjectPlanning, 100, 0, &yesterday)
	s.project("Park", ledger.ProjectActive, 100, 0, &today)
	s.project("Library", ledger.ProjectCompleted, 100, 0, &yesterday)

	s.Run("over budget is strictly spent above budget", func() {
		got, err := s.store.ListOverBudgetProjects(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(over.ID, got[0].ID)
	})

	s.Run("overdue excludes today and closed projects", func() {
		got, err := s.store.ListOverdueProjects(s.ctx, s.now)
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(late.ID, got[0].ID)
	})

	s.Run("by status is ordered by name", func() {
		got, err := s.store.ListProjectsByStatus(s.ctx, ledger.ProjectActive)
		s.Require().NoError(err)
		s.Require().Len(got, 3)
		s.Equal([]string{"Bridge", "Park", "Road"}, []string{got[0].Name, got[1].Name, got[2].Name})
	})

	s.Run("returned projects are copies", func() {
		got, err := s.store.ListProjectsByDepartment(s.ctx, s.dept.ID)
		s.Require().NoError(err)
		got[0].Spent = decimal.NewFromInt(1_000_000)
		again, err := s.store.ListProjectsByDepartment(s.ctx, s.dept.ID)
		s.Require().NoError(err)
		s.False(again[0].Spent.Equal(decimal.NewFromInt(1_000_000)))
	})
}

func (s *MemoryStoreSuite) TestListProjectFlows() {
	p := s.project("Bridge", ledger.ProjectActive, 100, 0, nil)
	system := id.NewFundSourceID()
	from := s.now.AddDate(0, 0, -30)

	inside := s.flow(p.ID, s.source, 10, from)
	edge := s.flow(p.ID, s.source, 20, s.now)
	s.flow(p.ID, s.source, 30, from.AddDate(0, 0, -1))
	s.flow(p.ID, system, 40, s.now)

	got, err := s.store.ListProjectFlows(s.ctx, p.ID, from, s.now, system)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Equal(inside.ID, got[0].ID)
	s.Equal(edge.ID, got[1].ID)
}

func (s *MemoryStoreSuite) TestListProjectFlowsComparesCalendarDates() {
	p := s.project("Bridge", ledger.ProjectActive, 100, 0, nil)
	morning := &ledger.FundFlow{
		ID:              id.NewFundFlowID(),
		SourceID:        s.source,
		TargetProjectID: &p.ID,
		Amount:          decimal.NewFromInt(5000),
		Status:          ledger.FlowVerified,
		TransactionDate: s.now.Add(9 * time.Hour),
		CreatedAt:       s.now,
	}
	s.Require().NoError(s.store.CreateFlow(s.ctx, morning))

	// The detector passes the window bounds as midnight dates.
	got, err := s.store.ListProjectFlows(s.ctx, p.ID, s.now.AddDate(0, 0, -30), s.now, id.NewFundSourceID())
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(morning.ID, got[0].ID)
}

func (s *MemoryStoreSuite) TestOverdueComparesCalendarDates() {
	endedLastNight := s.now.Add(-time.Hour)
	endsThisEvening := s.now.Add(20 * time.Hour)
	late := s.project("Depot", ledger.ProjectActive, 100, 0, &endedLastNight)
	s.project("Park", ledger.ProjectActive, 100, 0, &endsThisEvening)

	got, err := s.store.ListOverdueProjects(s.ctx, s.now.Add(21*time.Hour))
	s.Require().NoError(err)
	s.Require().Len(got, 1)
	s.Equal(late.ID, got[0].ID)
}

func (s *MemoryStoreSuite) TestCountDocumentsByDepartment() {
	p := s.project("Bridge", ledger.ProjectActive, 100, 0, nil)
	other := &ledger.Department{ID: id.NewDepartmentID(), Name: "Health"}
	s.Require().NoError(s.store.CreateDepartment(s.ctx, other))

	s.Require().NoError(s.store.CreateDocument(s.ctx, &ledger.Document{ID: id.NewDocumentID(), ProjectID: p.ID, Verified: true}))
	s.Require().NoError(s.store.CreateDocument(s.ctx, &ledger.Document{ID: id.NewDocumentID(), ProjectID: p.ID}))

	total, verified, err := s.store.CountDocumentsByDepartment(s.ctx, s.dept.ID)
	s.Require().NoError(err)
	s.Equal(2, total)
	s.Equal(1, verified)

	total, verified, err = s.store.CountDocumentsByDepartment(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Zero(total)
	s.Zero(verified)
}

func (s *MemoryStoreSuite) TestFindNotFound() {
	_, err := s.store.FindDepartment(s.ctx, id.NewDepartmentID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindFlow(s.ctx, id.NewFundFlowID())
	s.ErrorIs(err, sentinel.ErrNotFound)
	_, err = s.store.FindAnomaly(s.ctx, id.NewAnomalyID())
	s.ErrorIs(err, sentinel.ErrNotFound)
}

// =============================================================================
// Dedup guard
// =============================================================================

func (s *MemoryStoreSuite) TestRecordDetection() {
	p := s.project("Bridge", ledger.ProjectActive, 100, 0, nil)
	f := s.flow(p.ID, s.source, 10, s.now)

	s.Run("first detection for a key is created", func() {
		det := s.detection("manual:one", f.ID)
		det.MarkFlow = &f.ID
		created, err := s.store.RecordDetection(s.ctx, det)
		s.Require().NoError(err)
		s.True(created)

		stored, err := s.store.FindFlow(s.ctx, f.ID)
		s.Require().NoError(err)
		s.Equal(ledger.FlowAnomaly, stored.Status)
	})

	s.Run("open key suppresses a second detection and its synthetic flow", func() {
		synthetic, err := ledger.NewFundFlow(id.NewFundFlowID(), s.source, ledger.ToProject(p.ID),
			decimal.Zero, ledger.FlowAnomaly, "", s.now, s.now)
		s.Require().NoError(err)
		det := s.detection("manual:one", synthetic.ID)
		det.SyntheticFlow = synthetic

		created, err := s.store.RecordDetection(s.ctx, det)
		s.Require().NoError(err)
		s.False(created)
		_, err = s.store.FindFlow(s.ctx, synthetic.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("resolving frees the key", func() {
		all, err := s.store.ListAnomalies(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(all, 1)
		_, err = s.store.ExecuteAnomaly(s.ctx, all[0].ID, func(a *anomaly.Anomaly) error {
			a.ApplyResolution(id.NewUserID(), s.now, "checked")
			return nil
		})
		s.Require().NoError(err)

		created, err := s.store.RecordDetection(s.ctx, s.detection("manual:one", f.ID))
		s.Require().NoError(err)
		s.True(created)

		counts, err := s.store.CountAnomalies(s.ctx)
		s.Require().NoError(err)
		s.Equal(anomaly.Counts{Total: 2, Unresolved: 1}, counts)
	})

	s.Run("marking a missing flow fails without writing", func() {
		missing := id.NewFundFlowID()
		det := s.detection("manual:missing", missing)
		det.MarkFlow = &missing
		created, err := s.store.RecordDetection(s.ctx, det)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.False(created)
	})
}

func (s *MemoryStoreSuite) TestRecordDetectionConcurrent() {
	p := s.project("Bridge", ledger.ProjectActive, 100, 0, nil)
	f := s.flow(p.ID, s.source, 10, s.now)

	const goroutines = 50
	var wg sync.WaitGroup
	var created atomic.Int32
	for range goroutines {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.store.RecordDetection(s.ctx, s.detection(anomaly.ManualKey(f.ID), f.ID))
			if err == nil && ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	s.Equal(int32(1), created.Load())
}

func (s *MemoryStoreSuite) TestExecuteAnomalyErrorLeavesStateUntouched() {
	p := s.project("Bridge", ledger.ProjectActive, 100, 0, nil)
	f := s.flow(p.ID, s.source, 10, s.now)
	det := s.detection("manual:rollback", f.ID)
	_, err := s.store.RecordDetection(s.ctx, det)
	s.Require().NoError(err)

	_, err = s.store.ExecuteAnomaly(s.ctx, det.Anomaly.ID, func(a *anomaly.Anomaly) error {
		a.ApplyResolution(id.NewUserID(), s.now, "nope")
		return sentinel.ErrInvalidState
	})
	s.Require().Error(err)

	stored, err := s.store.FindAnomaly(s.ctx, det.Anomaly.ID)
	s.Require().NoError(err)
	s.False(stored.Resolved)
}

// =============================================================================
// Trust indicators
// =============================================================================

func (s *MemoryStoreSuite) TestIndicators() {
	first := &trust.TrustIndicator{ID: id.NewTrustIndicatorID(), DepartmentID: s.dept.ID, TransparencyScore: 50, CalculatedAt: s.now}
	saved, err := s.store.UpsertIndicator(s.ctx, first)
	s.Require().NoError(err)
	s.Equal(first.ID, saved.ID)

	second := &trust.TrustIndicator{ID: id.NewTrustIndicatorID(), DepartmentID: s.dept.ID, TransparencyScore: 70, CalculatedAt: s.now.Add(time.Hour)}
	saved, err = s.store.UpsertIndicator(s.ctx, second)
	s.Require().NoError(err)
	s.Equal(first.ID, saved.ID, "upsert keeps the original row id")
	s.Equal(70, saved.TransparencyScore)

	s.Require().NoError(s.store.AppendIndicator(s.ctx, &trust.TrustIndicator{
		ID: id.NewTrustIndicatorID(), DepartmentID: s.dept.ID, TransparencyScore: 90, CalculatedAt: s.now.Add(2 * time.Hour),
	}))

	latest, err := s.store.LatestIndicators(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(latest, 1)
	s.Equal(90, latest[0].TransparencyScore)

	history, err := s.store.ListIndicatorHistory(s.ctx, s.dept.ID)
	s.Require().NoError(err)
	s.Require().Len(history, 2)
	s.Equal(70, history[0].TransparencyScore)
}
