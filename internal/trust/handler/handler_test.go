package handler

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	ledger "trustledger/internal/ledger/models"
	"trustledger/internal/ledger/store/memory"
	"trustledger/internal/trust/models"
	"trustledger/internal/trust/service"
	id "trustledger/pkg/domain"
	"trustledger/pkg/requestcontext"
	"trustledger/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite
	store  *memory.Store
	router http.Handler
	dept   *ledger.Department
	userID string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.store = memory.New()
	s.dept = &ledger.Department{ID: id.NewDepartmentID(), Name: "Education"}
	s.Require().NoError(s.store.CreateDepartment(context.Background(), s.dept))

	svc, err := service.New(s.store, s.store, service.Config{})
	s.Require().NoError(err)

	r := chi.NewRouter()
	New(svc, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))).Register(r)
	s.router = r
	s.userID = id.NewUserID().String()
}

func (s *HandlerSuite) TestCalculate() {
	path := "/integrity/departments/" + s.dept.ID.String() + "/trust-score"

	s.Run("auditor calculates the department score", func() {
		req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost, path), s.userID, requestcontext.RoleAuditor)
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "overall_score", float64(45))
	})

	s.Run("officer is forbidden", func() {
		req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost, path), s.userID, requestcontext.RoleOfficer)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusForbidden)
	})

	s.Run("unknown department is not found", func() {
		req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost,
			"/integrity/departments/"+id.NewDepartmentID().String()+"/trust-score"), s.userID, requestcontext.RoleAdmin)
		testutil.AssertStatusAndError(s.T(), testutil.DoRequest(s.router, req), http.StatusNotFound, "not_found")
	})

	s.Run("malformed id is a bad request", func() {
		req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost,
			"/integrity/departments/abc/trust-score"), s.userID, requestcontext.RoleAdmin)
		testutil.AssertStatus(s.T(), testutil.DoRequest(s.router, req), http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestSummary() {
	path := "/integrity/departments/" + s.dept.ID.String() + "/trust-score"
	req := testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodPost, path), s.userID, requestcontext.RoleAdmin)
	testutil.AssertStatusOK(s.T(), testutil.DoRequest(s.router, req))

	req = testutil.WithAuth(testutil.NewRequest(s.T(), http.MethodGet, "/integrity/trust-scores"), s.userID, requestcontext.RoleCitizen)
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusOK(s.T(), rr)

	resp := testutil.UnmarshalResponse[struct {
		Departments []models.DepartmentScore `json:"departments"`
	}](s.T(), rr)
	s.Require().Len(resp.Departments, 1)
	s.Equal("Education", resp.Departments[0].Department)
	s.Equal(45, resp.Departments[0].OverallScore)
}
