package router

import (
	"embed"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	engine := gin.New()
	SetRouter(engine, embed.FS{})
	return engine
}

func serve(engine *gin.Engine, method string, path string) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, httptest.NewRequest(method, path, nil))
	return recorder
}

func TestKnownEndpointWrongMethodReturns405(t *testing.T) {
	engine := newTestEngine()

	recorder := serve(engine, http.MethodGet, "/v1/chat/completions")
	require.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
	require.Contains(t, recorder.Body.String(), "invalid_request_error")
	require.NotContains(t, recorder.Body.String(), "unknown_url")
}

func TestUnknownPathReturns404(t *testing.T) {
	engine := newTestEngine()

	recorder := serve(engine, http.MethodPost, "/v1/does/not/exist")
	require.Equal(t, http.StatusNotFound, recorder.Code)
	require.Contains(t, recorder.Body.String(), "unknown_url")
}
