package handler

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"trustledger/internal/anomaly/models"
	"trustledger/internal/integrity"
	id "trustledger/pkg/domain"
	dErrors "trustledger/pkg/domain-errors"
	"trustledger/pkg/requestcontext"
	"trustledger/pkg/testutil"
)

type stubRunner struct {
	last  integrity.Options
	calls int
	err   error
	// partial is returned alongside err.
	partial *integrity.Report
}

func (r *stubRunner) RunExclusive(_ context.Context, opts integrity.Options) (*integrity.Report, error) {
	r.calls++
	r.last = opts
	if r.err != nil {
		return r.partial, r.err
	}
	return &integrity.Report{}, nil
}

type HandlerSuite struct {
	suite.Suite
	runner *stubRunner
	router http.Handler
	userID string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.runner = &stubRunner{}
	r := chi.NewRouter()
	New(s.runner, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)
	s.router = r
	s.userID = id.NewUserID().String()
}

func (s *HandlerSuite) post(path string, role requestcontext.Role) int {
	req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost, path), s.userID, role)
	return testutil.DoRequest(s.router, req).Code
}

func (s *HandlerSuite) TestRun() {
	s.Run("defaults run both phases", func() {
		s.Equal(http.StatusOK, s.post("/integrity/runs", requestcontext.RoleAdmin))
		s.Equal(integrity.Options{Detect: true, Score: true}, s.runner.last)
	})

	s.Run("query parameters select phases", func() {
		s.Equal(http.StatusOK, s.post("/integrity/runs?detect=false", requestcontext.RoleAuditor))
		s.Equal(integrity.Options{Detect: false, Score: true}, s.runner.last)
	})

	s.Run("non-boolean parameter is a bad request", func() {
		calls := s.runner.calls
		s.Equal(http.StatusBadRequest, s.post("/integrity/runs?score=maybe", requestcontext.RoleAdmin))
		s.Equal(calls, s.runner.calls)
	})

	s.Run("officer is forbidden", func() {
		s.Equal(http.StatusForbidden, s.post("/integrity/runs", requestcontext.RoleOfficer))
	})

	s.Run("run in progress conflicts", func() {
		s.runner.err = integrity.ErrRunInProgress
		s.Equal(http.StatusConflict, s.post("/integrity/runs", requestcontext.RoleAdmin))
	})

	s.Run("validation errors pass through", func() {
		s.runner.err = dErrors.New(dErrors.CodeValidation, "at least one of detect or score must be selected")
		s.Equal(http.StatusBadRequest, s.post("/integrity/runs?detect=false&score=false", requestcontext.RoleAdmin))
	})

	s.Run("failed category returns the partial report", func() {
		detections := models.NewDetectionReport()
		detections.Summaries = []models.CategorySummary{
			{Category: models.CategoryBudgetOverrun, Error: "list over budget projects: timeout"},
			{Category: models.CategorySpendingSpike},
			{Category: models.CategoryProjectDelay},
		}
		s.runner.partial = &integrity.Report{Detections: detections}
		s.runner.err = errors.New("budget_overrun: timeout")
		defer func() { s.runner.partial = nil }()

		req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost, "/integrity/runs"), s.userID, requestcontext.RoleAuditor)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusInternalServerError)

		body := testutil.UnmarshalErrorReport[integrity.Report](s.T(), rr)
		s.Equal("internal_error", body.Error)
		s.Require().NotNil(body.Report)
		s.Require().NotNil(body.Report.Detections)
		s.Require().Len(body.Report.Detections.Summaries, 3)
		s.Equal("list over budget projects: timeout", body.Report.Detections.Summaries[0].Error)
	})

	s.Run("unexpected errors are internal", func() {
		s.runner.err = errors.New("boom")
		s.Equal(http.StatusInternalServerError, s.post("/integrity/runs", requestcontext.RoleAdmin))
	})
}
