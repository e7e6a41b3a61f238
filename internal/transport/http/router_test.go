package httptransport

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trustledger/internal/integrity"
	integrityhandler "trustledger/internal/integrity/handler"
	jwttoken "trustledger/internal/jwt_token"
	id "trustledger/pkg/domain"
	"trustledger/pkg/requestcontext"
	"trustledger/pkg/testutil"
)

type stubRunner struct{ calls int }

func (r *stubRunner) RunExclusive(context.Context, integrity.Options) (*integrity.Report, error) {
	r.calls++
	return &integrity.Report{}, nil
}

func newTestRouter(t *testing.T) (http.Handler, *jwttoken.JWTService, *stubRunner) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	jwt := jwttoken.NewJWTService("router-test-signing-key", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
	runner := &stubRunner{}
	router := NewRouter(Deps{
		Logger:    logger,
		Validator: jwttoken.NewJWTServiceAdapter(jwt),
		Modules:   []Registrar{integrityhandler.New(runner, logger)},
	})
	return router, jwt, runner
}

func bearer(t *testing.T, jwt *jwttoken.JWTService, role requestcontext.Role) string {
	t.Helper()
	token, err := jwt.GenerateAccessToken(id.NewUserID(), role, time.Minute)
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRouter(t *testing.T) {
	router, jwt, runner := newTestRouter(t)

	t.Run("healthz needs no token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/healthz"))
		testutil.AssertStatusOK(t, rr)
		testutil.AssertJSONContains(t, rr, "status", "ok")
	})

	t.Run("metrics needs no token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
	})

	t.Run("missing token is unauthorized", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodPost, "/integrity/runs"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")
		assert.Zero(t, runner.calls)
	})

	t.Run("token signed with another key is unauthorized", func(t *testing.T) {
		other := jwttoken.NewJWTService("some-other-signing-key", jwttoken.DefaultIssuer, jwttoken.DefaultAudience)
		req := testutil.NewRequest(t, http.MethodPost, "/integrity/runs")
		req.Header.Set("Authorization", bearer(t, other, requestcontext.RoleAdmin))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("role is enforced from the token claim", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/integrity/runs")
		req.Header.Set("Authorization", bearer(t, jwt, requestcontext.RoleCitizen))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusAndError(t, rr, http.StatusForbidden, "forbidden")
		assert.Zero(t, runner.calls)
	})

	t.Run("auditor token runs the orchestrator", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodPost, "/integrity/runs")
		req.Header.Set("Authorization", bearer(t, jwt, requestcontext.RoleAuditor))
		rr := testutil.DoRequest(router, req)
		testutil.AssertStatusOK(t, rr)
		assert.Equal(t, 1, runner.calls)
	})
}

func TestRouterScenario(t *testing.T) {
	testutil.Given(t, "an auditor holding a valid token", func(t *testing.T) {
		router, jwt, runner := newTestRouter(t)
		auth := bearer(t, jwt, requestcontext.RoleAuditor)

		testutil.When(t, "an integrity run is requested for scoring only", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodPost, "/integrity/runs?detect=false")
			req.Header.Set("Authorization", auth)
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "the run is accepted", func(t *testing.T) {
				testutil.AssertStatusOK(t, rr)
				assert.Equal(t, 1, runner.calls)
			})
		})

		testutil.When(t, "an unknown route is requested", func(t *testing.T) {
			req := testutil.NewRequest(t, http.MethodGet, "/integrity/unknown")
			req.Header.Set("Authorization", auth)
			rr := testutil.DoRequest(router, req)

			testutil.Then(t, "it is not found", func(t *testing.T) {
				testutil.AssertStatus(t, rr, http.StatusNotFound)
			})
		})
	})
}
