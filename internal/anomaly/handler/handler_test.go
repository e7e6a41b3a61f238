package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"trustledger/internal/anomaly/models"
	"trustledger/internal/anomaly/service"
	ledger "trustledger/internal/ledger/models"
	"trustledger/internal/ledger/store/memory"
	id "trustledger/pkg/domain"
	"trustledger/pkg/requestcontext"
	"trustledger/pkg/testutil"
)

// HandlerSuite runs the anomaly endpoints over a real service and in-memory
// store. Handler tests cover parsing, role checks and status mapping.
type HandlerSuite struct {
	suite.Suite
	ctx     context.Context
	store   *memory.Store
	router  http.Handler
	project *ledger.Project
	flow    *ledger.FundFlow
	userID  string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = memory.New()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	svc, err := service.New(s.store, s.store, s.store, service.Config{
		SystemActorID:  id.NewUserID(),
		SystemSourceID: id.NewFundSourceID(),
	}, service.WithClock(func() time.Time { return now }))
	s.Require().NoError(err)

	dept := &ledger.Department{ID: id.NewDepartmentID(), Name: "Health"}
	s.Require().NoError(s.store.CreateDepartment(s.ctx, dept))
	s.project = &ledger.Project{
		ID: id.NewProjectID(), Name: "Clinic", DepartmentID: dept.ID,
		Budget: decimal.NewFromInt(1000), Spent: decimal.NewFromInt(1200),
		Status: ledger.ProjectActive,
	}
	s.Require().NoError(s.store.CreateProject(s.ctx, s.project))
	s.flow, err = ledger.NewFundFlow(id.NewFundFlowID(), id.NewFundSourceID(), ledger.ToProject(s.project.ID),
		decimal.NewFromInt(500), ledger.FlowVerified, "equipment", now, now)
	s.Require().NoError(err)
	s.Require().NoError(s.store.CreateFlow(s.ctx, s.flow))

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	r := chi.NewRouter()
	New(svc, logger).Register(r)
	s.router = r
	s.userID = id.NewUserID().String()
}

func (s *HandlerSuite) do(req *http.Request, role requestcontext.Role) *httptest.ResponseRecorder {
	return testutil.DoRequest(s.router, testutil.WithAuth(req, s.userID, role))
}

// =============================================================================
// POST /integrity/detections
// =============================================================================

func (s *HandlerSuite) TestRunDetections() {
	s.Run("auditor runs detection and gets the report", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/integrity/detections"), requestcontext.RoleAuditor)
		testutil.AssertStatusOK(s.T(), rr)

		report := testutil.UnmarshalResponse[models.DetectionReport](s.T(), rr)
		s.Equal(1, report.TotalDetected)
		s.Len(report.BudgetOverruns, 1)
		s.Equal("Clinic", report.BudgetOverruns[0].Project)
	})

	s.Run("rerun returns an empty report", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/integrity/detections"), requestcontext.RoleAdmin)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "total_detected", float64(0))
	})

	s.Run("citizen is forbidden", func() {
		rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/integrity/detections"), requestcontext.RoleCitizen)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})
}

// failingDetector returns a report whose budget overrun category failed.
type failingDetector struct {
	Service
}

func (failingDetector) RunAll(context.Context) (*models.DetectionReport, error) {
	report := models.NewDetectionReport()
	report.Summaries = []models.CategorySummary{
		{Category: models.CategoryBudgetOverrun, Error: "query projects: connection refused"},
		{Category: models.CategorySpendingSpike},
		{Category: models.CategoryProjectDelay, Detected: 1},
	}
	report.TotalDetected = 1
	return report, errors.New("budget_overrun: query projects: connection refused")
}

func (s *HandlerSuite) TestRunDetectionsCategoryFailure() {
	r := chi.NewRouter()
	New(failingDetector{}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)

	req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost, "/integrity/detections"), s.userID, requestcontext.RoleAuditor)
	rr := testutil.DoRequest(r, req)
	testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)

	body := testutil.UnmarshalErrorReport[models.DetectionReport](s.T(), rr)
	s.Equal("internal_error", body.Error)
	s.Require().NotNil(body.Report)
	s.Equal(1, body.Report.TotalDetected)
	s.Require().Len(body.Report.Summaries, 3)
	s.True(body.Report.Summaries[0].Failed())
	s.False(body.Report.Summaries[2].Failed())
}

// =============================================================================
// POST /integrity/anomalies/{id}/resolve
// =============================================================================

func (s *HandlerSuite) TestResolve() {
	rr := s.do(testutil.NewRequest(s.T(), http.MethodPost, "/integrity/detections"), requestcontext.RoleAuditor)
	testutil.AssertStatusOK(s.T(), rr)
	report := testutil.UnmarshalResponse[models.DetectionReport](s.T(), rr)
	s.Require().Len(report.BudgetOverruns, 1)
	path := "/integrity/anomalies/" + report.BudgetOverruns[0].AnomalyID.String() + "/resolve"

	s.Run("officer cannot resolve", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, ResolveRequest{Notes: "ok"})
		testutil.AssertStatus(s.T(), s.do(req, requestcontext.RoleOfficer), http.StatusForbidden)
	})

	s.Run("auditor resolves", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, ResolveRequest{Notes: "budget amended"})
		rr := s.do(req, requestcontext.RoleAuditor)
		testutil.AssertStatusOK(s.T(), rr)
		a := testutil.UnmarshalResponse[models.Anomaly](s.T(), rr)
		s.True(a.Resolved)
		s.Equal("budget amended", a.ResolutionNotes)
	})

	s.Run("second resolve conflicts", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, ResolveRequest{})
		rr := s.do(req, requestcontext.RoleAuditor)
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, "invariant_violation")
	})

	s.Run("malformed id is a bad request", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/integrity/anomalies/not-a-uuid/resolve", ResolveRequest{})
		testutil.AssertStatus(s.T(), s.do(req, requestcontext.RoleAuditor), http.StatusBadRequest)
	})

	s.Run("unknown id is not found", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/integrity/anomalies/"+id.NewAnomalyID().String()+"/resolve", ResolveRequest{})
		testutil.AssertStatus(s.T(), s.do(req, requestcontext.RoleAuditor), http.StatusNotFound)
	})
}

// =============================================================================
// POST /integrity/fund-flows/{id}/flag
// =============================================================================

func (s *HandlerSuite) TestFlag() {
	path := "/integrity/fund-flows/" + s.flow.ID.String() + "/flag"

	s.Run("any authenticated caller can flag", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, FlagRequest{Description: "duplicate invoice", Severity: "high"})
		rr := s.do(req, requestcontext.RoleCitizen)
		testutil.AssertStatus(s.T(), rr, http.StatusCreated)
		a := testutil.UnmarshalResponse[models.Anomaly](s.T(), rr)
		s.Equal(models.CategoryManual, a.Category)
		s.Equal(models.SeverityHigh, a.Severity)
	})

	s.Run("second flag conflicts", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, FlagRequest{Description: "again"})
		testutil.AssertStatusAndError(s.T(), s.do(req, requestcontext.RoleOfficer), http.StatusConflict, "conflict")
	})

	s.Run("missing description fails validation", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, FlagRequest{})
		testutil.AssertStatus(s.T(), s.do(req, requestcontext.RoleOfficer), http.StatusBadRequest)
	})

	s.Run("unknown severity fails validation", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, FlagRequest{Description: "x", Severity: "urgent"})
		testutil.AssertStatus(s.T(), s.do(req, requestcontext.RoleOfficer), http.StatusBadRequest)
	})

	s.Run("unauthenticated caller is rejected", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path, FlagRequest{Description: "x"})
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})
}

// =============================================================================
// GET /integrity/anomalies/count
// =============================================================================

func (s *HandlerSuite) TestCounts() {
	s.do(testutil.NewRequest(s.T(), http.MethodPost, "/integrity/detections"), requestcontext.RoleAdmin)

	rr := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/integrity/anomalies/count"), requestcontext.RoleCitizen)
	testutil.AssertStatusOK(s.T(), rr)
	counts := testutil.UnmarshalResponse[models.Counts](s.T(), rr)
	s.Equal(models.Counts{Total: 1, Unresolved: 1}, *counts)
}
