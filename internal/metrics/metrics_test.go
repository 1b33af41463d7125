package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestMiddleware_CountsRequestsPerRoute(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	router := gin.New()
	router.Use(collector.Middleware())
	router.GET("/recipes/:id", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/recipes/42", nil))
	}

	body := scrape(t, reg)
	assert.Contains(t, body,
		`galley_http_requests_total{method="GET",route="/recipes/:id",status="200"} 3`)
}

func TestMiddleware_UnmatchedRouteCollapses(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	router := gin.New()
	router.Use(collector.Middleware())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/no-such-page", nil))

	body := scrape(t, reg)
	assert.Contains(t, body, `route="unmatched"`)
	assert.NotContains(t, body, "no-such-page", "raw paths must not become label values")
}

func TestRecordAuthAttempt(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	collector.RecordAuthAttempt("login", "success")
	collector.RecordAuthAttempt("login", "failure")
	collector.RecordAuthAttempt("login", "failure")

	body := scrape(t, reg)
	assert.Contains(t, body, `galley_auth_attempts_total{operation="login",outcome="failure"} 2`)
	assert.Contains(t, body, `galley_auth_attempts_total{operation="login",outcome="success"} 1`)
}

func TestRecordSessionRefresh(t *testing.T) {
	reg := prometheus.NewRegistry()
	collector := NewCollector(reg)

	collector.RecordSessionRefresh("success")
	collector.RecordBackendFailure()

	body := scrape(t, reg)
	assert.Contains(t, body, `galley_session_refresh_total{outcome="success"} 1`)
	assert.True(t, strings.Contains(body, "galley_backend_failures_total 1"))
}
