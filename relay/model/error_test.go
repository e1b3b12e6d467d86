package model

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestErrorEnvelopeMapping(t *testing.T) {
	cases := []struct {
		name    string
		err     *ErrorWithStatusCode
		status  int
		errType string
		code    any
	}{
		{"bad request", NewBadRequest("bad", nil), http.StatusBadRequest, ErrorTypeInvalidRequest, nil},
		{"auth missing", NewAuthMissing(), http.StatusUnauthorized, ErrorTypeInvalidRequest, nil},
		{"auth invalid", NewAuthInvalid(), http.StatusUnauthorized, ErrorTypeInvalidRequest, ErrorCodeInvalidAPIKey},
		{"unknown endpoint", NewUnknownEndpoint("GET", "/v1/nope"), http.StatusNotFound, ErrorTypeInvalidRequest, ErrorCodeUnknownURL},
		{"bad method", NewBadEndpointMethod(), http.StatusMethodNotAllowed, ErrorTypeInvalidRequest, nil},
		{"model not found", NewModelNotFound("gpt-x"), http.StatusNotFound, ErrorTypeInvalidRequest, ErrorCodeModelNotFound},
		{"user rate limit", NewUserRateLimit("over quota", nil), http.StatusTooManyRequests, ErrorTypeInsufficient, ErrorCodeInsufficientQuota},
		{"model rate limit", NewModelRateLimit("overloaded", nil), http.StatusServiceUnavailable, ErrorTypeServer, nil},
		{"backend error", NewBackendError("upstream", nil), http.StatusBadGateway, ErrorTypeServer, nil},
		{"internal error", NewInternalError("boom", nil), http.StatusInternalServerError, ErrorTypeServer, nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.status, tc.err.StatusCode)
			require.Equal(t, tc.errType, tc.err.Error.Type)
			require.Equal(t, tc.code, tc.err.Error.Code)
			require.NotEmpty(t, tc.err.Error.Message)
		})
	}
}

func TestErrorMessagesMentionContext(t *testing.T) {
	require.Contains(t, NewModelNotFound("my-model").Error.Message, "my-model")
	require.Contains(t, NewUnknownEndpoint("POST", "/v1/missing").Error.Message, "POST /v1/missing")
}
