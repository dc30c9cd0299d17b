package restapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overyonder.app/internal/models"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRateLimitMiddleware_AllowsRequestsWithinLimit(t *testing.T) {
	limitedHandler := NewRateLimitMiddleware(5, time.Second)(okHandler())

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest("GET", "/test?key=test-api-key", nil)
		w := httptest.NewRecorder()
		limitedHandler.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should be allowed", i+1)
	}
}

func TestRateLimitMiddleware_BlocksRequestsOverLimit(t *testing.T) {
	limitedHandler := NewRateLimitMiddleware(3, time.Second)(okHandler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=test-api-key", nil))
		assert.Equal(t, http.StatusOK, w.Code, "Request %d should be allowed", i+1)
	}

	w := httptest.NewRecorder()
	limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=test-api-key", nil))
	require.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "1", w.Header().Get("Retry-After"))
	assert.Equal(t, "3", w.Header().Get("X-RateLimit-Limit"))
	assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))

	var response models.ResponseModel
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, http.StatusTooManyRequests, response.Code)
	assert.Equal(t, "Rate limit exceeded. Please try again later.", response.Text)
}

func TestRateLimitMiddleware_PerAPIKeyLimiting(t *testing.T) {
	limitedHandler := NewRateLimitMiddleware(2, time.Second)(okHandler())

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=api-key-1", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}

	w := httptest.NewRecorder()
	limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=api-key-1", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "API key 1 should be rate limited")

	w = httptest.NewRecorder()
	limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=api-key-2", nil))
	assert.Equal(t, http.StatusOK, w.Code, "API key 2 should not be affected")

	req := httptest.NewRequest("GET", "/test", nil)
	req.Header.Set("X-API-Key", "api-key-1")
	w = httptest.NewRecorder()
	limitedHandler.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "header keys share the query key's limiter")
}

func TestRateLimitMiddleware_NegativeRateDisablesLimiting(t *testing.T) {
	limitedHandler := NewRateLimitMiddleware(-1, time.Second)(okHandler())

	for i := 0; i < 20; i++ {
		w := httptest.NewRecorder()
		limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=busy", nil))
		assert.Equal(t, http.StatusOK, w.Code)
	}
}

func TestRateLimitMiddleware_ZeroRateBlocksEverything(t *testing.T) {
	limitedHandler := NewRateLimitMiddleware(0, time.Second)(okHandler())

	w := httptest.NewRecorder()
	limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=any", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Equal(t, "3600", w.Header().Get("Retry-After"))
}

func TestRateLimitMiddleware_Refills(t *testing.T) {
	limitedHandler := NewRateLimitMiddleware(10, 100*time.Millisecond)(okHandler())

	for i := 0; i < 10; i++ {
		limitedHandler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/test?key=refill", nil))
	}
	w := httptest.NewRecorder()
	limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=refill", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	time.Sleep(50 * time.Millisecond)
	w = httptest.NewRecorder()
	limitedHandler.ServeHTTP(w, httptest.NewRequest("GET", "/test?key=refill", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
