package security

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"learnsphere_backend/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(mw)
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})
	return router
}

func TestCORS_AllowedOriginEchoed(t *testing.T) {
	router := newTestRouter(CORS([]string{"https://learn.example.com"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://learn.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "https://learn.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), "Range")
	assert.Contains(t, w.Header().Get("Access-Control-Expose-Headers"), "Content-Range")
}

func TestCORS_UnknownOriginNotEchoed(t *testing.T) {
	router := newTestRouter(CORS([]string{"https://learn.example.com"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	router.ServeHTTP(w, req)

	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_PreflightShortCircuits(t *testing.T) {
	router := newTestRouter(CORS([]string{"https://learn.example.com"}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/ping", nil)
	req.Header.Set("Origin", "https://learn.example.com")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestSecure_SetsProtectionHeaders(t *testing.T) {
	router := newTestRouter(Secure())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", w.Header().Get("X-Frame-Options"))
	assert.Equal(t, "1; mode=block", w.Header().Get("X-XSS-Protection"))
}

// 超限请求应返回统一响应结构而不是裸 error 字段
func TestRateLimiter_RejectsWithResponseEnvelope(t *testing.T) {
	router := newTestRouter(RateLimiter(2, time.Minute))

	var last *httptest.ResponseRecorder
	for i := 0; i < 3; i++ {
		last = httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/ping", nil)
		req.RemoteAddr = "203.0.113.7:40000"
		router.ServeHTTP(last, req)
	}

	require.Equal(t, http.StatusTooManyRequests, last.Code)

	var resp util.Response
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &resp))
	assert.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "too many requests", resp.Message)
}

func TestRateLimiter_IsolatesClientsByIP(t *testing.T) {
	router := newTestRouter(RateLimiter(1, time.Minute))

	first := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.8:40000"
	router.ServeHTTP(first, req)
	require.Equal(t, http.StatusOK, first.Code)

	blocked := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.8:40001"
	router.ServeHTTP(blocked, req)
	assert.Equal(t, http.StatusTooManyRequests, blocked.Code)

	other := httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = "203.0.113.9:40000"
	router.ServeHTTP(other, req)
	assert.Equal(t, http.StatusOK, other.Code)
}
