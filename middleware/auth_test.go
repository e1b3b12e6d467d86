package middleware

import (
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func contextWithAuth(header string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodPost, "/v1/chat/completions", nil)
	if header != "" {
		c.Request.Header.Set("Authorization", header)
	}
	return c
}

func TestExtractAPIKeyBearer(t *testing.T) {
	key, ok := extractAPIKey(contextWithAuth("Bearer sk-test-123"))
	require.True(t, ok)
	require.Equal(t, "sk-test-123", key)
}

func TestExtractAPIKeyBasic(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString([]byte(":sk-test-123"))
	key, ok := extractAPIKey(contextWithAuth("Basic " + encoded))
	require.True(t, ok)
	require.Equal(t, "sk-test-123", key)
}

func TestExtractAPIKeyRejects(t *testing.T) {
	for name, header := range map[string]string{
		"missing":        "",
		"empty bearer":   "Bearer ",
		"unknown scheme": "Digest abc",
		"broken base64":  "Basic %%%",
		"no password":    "Basic " + base64.StdEncoding.EncodeToString([]byte("user:")),
	} {
		_, ok := extractAPIKey(contextWithAuth(header))
		require.False(t, ok, name)
	}
}

func TestAdminTokenRoundTrip(t *testing.T) {
	token, err := IssueAdminToken("admin")
	require.NoError(t, err)

	username, err := validateAdminToken(token)
	require.NoError(t, err)
	require.Equal(t, "admin", username)
}

func TestAdminTokenRejectsGarbage(t *testing.T) {
	_, err := validateAdminToken("not-a-token")
	require.Error(t, err)
}

func TestMemoryRateLimiter(t *testing.T) {
	limiter := &memoryRateLimiter{windows: make(map[string][]time.Time)}

	for i := 0; i < 3; i++ {
		require.True(t, limiter.allow("ip", 3, time.Minute))
	}
	require.False(t, limiter.allow("ip", 3, time.Minute))
	// Another key has its own window.
	require.True(t, limiter.allow("other", 3, time.Minute))
}

func TestMemoryRateLimiterWindowSlides(t *testing.T) {
	limiter := &memoryRateLimiter{windows: make(map[string][]time.Time)}

	require.True(t, limiter.allow("ip", 1, 30*time.Millisecond))
	require.False(t, limiter.allow("ip", 1, 30*time.Millisecond))
	time.Sleep(40 * time.Millisecond)
	require.True(t, limiter.allow("ip", 1, 30*time.Millisecond))
}
