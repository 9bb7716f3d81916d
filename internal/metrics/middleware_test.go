package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/assert"
)

func TestPathLabel(t *testing.T) {
	tests := map[string]string{
		"/":                "root",
		"":                 "root",
		"/health":          "health",
		"/decrypt/zip":     "decrypt_zip",
		"/decrypt/zip/x/y": "decrypt_zip",
	}
	for in, want := range tests {
		assert.Equal(t, want, pathLabel(in), in)
	}
}

func TestMiddleware_RecordsStatus(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics-test", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)

	scrape := httptest.NewRecorder()
	promhttp.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, scrape.Body.String(),
		`backupdecrypt_http_requests_total{method="GET",path="metrics-test",status="418"} 1`)
}
