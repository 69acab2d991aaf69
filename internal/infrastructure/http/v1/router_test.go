package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowmetrics/internal/domain/flow"
	"flowmetrics/internal/domain/wiql"
	"flowmetrics/internal/domain/workitem"
	"flowmetrics/pkg/logger"
)

type stubSource struct {
	items []workitem.WorkItem
}

func (s *stubSource) QueryWorkItems(_ context.Context, _ *wiql.Query) ([]workitem.WorkItem, error) {
	return s.items, nil
}

type stubParser struct{}

func (stubParser) Parse(text string) (*wiql.Query, error) { return wiql.Parse(text) }

func newTestRouter(t *testing.T, authSecret string) http.Handler {
	t.Helper()

	reg := wiql.NewRegistry()
	src := &stubSource{items: []workitem.WorkItem{
		{ID: 1, Fields: map[string]any{
			"System.State":                     "Closed",
			"System.WorkItemType":              "Bug",
			"System.CreatedDate":               "2026-01-01T00:00:00Z",
			"Microsoft.VSTS.Common.ClosedDate": "2026-01-08T00:00:00Z",
		}},
	}}
	svc := flow.NewService(src, nil, stubParser{}, reg, logger.Default())

	return NewRouter(RouterConfig{
		Service:       svc,
		FieldRegistry: reg,
		Logger:        logger.Default(),
		AuthSecret:    authSecret,
	})
}

func doJSON(t *testing.T, h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestValidateEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/v1/query/validate",
		`{"query":"SELECT [System.Id] FROM WorkItems WHERE [System.State] = 'Active'"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res flow.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Valid)
	assert.Contains(t, res.Canonical, "[System.State] = 'Active'")
}

func TestValidateEndpoint_InvalidQueryStillOK(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/v1/query/validate",
		`{"query":"SELECT [System.Id] FROM WorkItems WHERE [System.Id] LIKE 'x'"}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res flow.ValidationResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.False(t, res.Valid)
	assert.NotEmpty(t, res.Errors)
}

func TestValidateEndpoint_MissingBody(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/v1/query/validate", `{}`, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBuildEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodPost, "/api/v1/query/build",
		`{"project":"Fabrikam","daysBack":30,"workItemTypes":["Bug"]}`, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		Query         string `json:"query"`
		ProjectFilter string `json:"projectFilter"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "Fabrikam", res.ProjectFilter)
	assert.Contains(t, res.Query, "[System.TeamProject] = 'Fabrikam'")
	assert.Contains(t, res.Query, "ORDER BY [System.ChangedDate] DESC")
}

func TestFieldsEndpoints(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodGet, "/api/v1/fields", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fields []struct {
		ReferenceName string `json:"referenceName"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fields))
	assert.NotEmpty(t, fields)

	w = doJSON(t, router, http.MethodGet, "/api/v1/fields/System.Title", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/fields/Custom.Nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReportEndpoint(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodGet, "/api/v1/reports/flow?project=Fabrikam&daysBack=90", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var res struct {
		TotalItems int `json:"totalItems"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, 1, res.TotalItems)
}

func TestAuthRequired(t *testing.T) {
	secret := "test-secret"
	router := newTestRouter(t, secret)

	w := doJSON(t, router, http.MethodGet, "/api/v1/fields", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "reporter",
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)

	w = doJSON(t, router, http.MethodGet, "/api/v1/fields", "", map[string]string{
		"Authorization": "Bearer " + signed,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	// Health stays open.
	w = doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestTraceHeaders(t *testing.T) {
	router := newTestRouter(t, "")

	w := doJSON(t, router, http.MethodGet, "/health/live", "", map[string]string{
		"X-Request-ID": "req-42",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "req-42", w.Header().Get("X-Request-ID"))
	assert.NotEmpty(t, w.Header().Get("X-Trace-ID"))

	w = doJSON(t, router, http.MethodGet, "/health/live", "", nil)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}
