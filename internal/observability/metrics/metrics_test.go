package metrics

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestHTTPMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(HTTPMetricsMiddleware)
	r.Get("/api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	before := counterValue(t, httpRequestsTotal.WithLabelValues("GET", "/api/posts/{id}", "418"))
	for _, id := range []string{"1", "2", "abc"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/posts/"+id, nil))
	}
	after := counterValue(t, httpRequestsTotal.WithLabelValues("GET", "/api/posts/{id}", "418"))

	assert.Equal(t, 3.0, after-before)
}

func TestHTTPMetricsMiddlewareUnmatched(t *testing.T) {
	h := HTTPMetricsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	before := counterValue(t, httpRequestsTotal.WithLabelValues("GET", "unmatched", "200"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	after := counterValue(t, httpRequestsTotal.WithLabelValues("GET", "unmatched", "200"))

	assert.Equal(t, 1.0, after-before)
}

func TestObservePostWrite(t *testing.T) {
	ok := postWrites.WithLabelValues("create", ResultOK)
	failed := postWrites.WithLabelValues("create", ResultError)
	okBefore, failedBefore := counterValue(t, ok), counterValue(t, failed)

	ObservePostWrite("create", nil)
	ObservePostWrite("create", errors.New("boom"))
	ObservePostWrite("create", nil)

	assert.Equal(t, 2.0, counterValue(t, ok)-okBefore)
	assert.Equal(t, 1.0, counterValue(t, failed)-failedBefore)
}

func TestObserveUploadCountsBytesOnSuccess(t *testing.T) {
	before := counterValue(t, mediaUploadBytes)
	ObserveUpload(1024, nil)
	ObserveUpload(4096, errors.New("rejected"))
	assert.Equal(t, 1024.0, counterValue(t, mediaUploadBytes)-before)
}

func TestObserveRateLimited(t *testing.T) {
	c := rateLimited.WithLabelValues("/api/auth/login")
	before := counterValue(t, c)
	ObserveRateLimited("/api/auth/login")
	assert.Equal(t, 1.0, counterValue(t, c)-before)
}
