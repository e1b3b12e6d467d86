package model

import "net/http"

// OpenAI error types and codes used across the proxy. Each constructor below
// maps one failure kind to its user-visible status, type, and code; callers
// never assemble envelopes by hand.
const (
	ErrorTypeInvalidRequest = "invalid_request_error"
	ErrorTypeInsufficient   = "insufficient_quota"
	ErrorTypeServer         = "server_error"

	ErrorCodeInvalidAPIKey     = "invalid_api_key"
	ErrorCodeUnknownURL        = "unknown_url"
	ErrorCodeModelNotFound     = "model_not_found"
	ErrorCodeInsufficientQuota = "insufficient_quota"
)

func newError(status int, errType string, code any, message string, raw error) *ErrorWithStatusCode {
	return &ErrorWithStatusCode{
		StatusCode: status,
		Error: Error{
			Message:  message,
			Type:     errType,
			Code:     code,
			RawError: raw,
		},
	}
}

// NewBadRequest reports a request body that failed JSON or form decoding.
func NewBadRequest(message string, raw error) *ErrorWithStatusCode {
	return newError(http.StatusBadRequest, ErrorTypeInvalidRequest, nil, message, raw)
}

// NewAuthMissing reports an absent Authorization header.
func NewAuthMissing() *ErrorWithStatusCode {
	return newError(http.StatusUnauthorized, ErrorTypeInvalidRequest, nil,
		"You didn't provide an API key. You need to provide your API key in an Authorization header using Bearer auth (i.e. Authorization: Bearer YOUR_KEY)", nil)
}

// NewAuthInvalid reports an API key that resolved to no user.
func NewAuthInvalid() *ErrorWithStatusCode {
	return newError(http.StatusUnauthorized, ErrorTypeInvalidRequest, ErrorCodeInvalidAPIKey,
		"Incorrect API key provided", nil)
}

// NewUnknownEndpoint reports a path outside the supported endpoint catalogue.
func NewUnknownEndpoint(method string, path string) *ErrorWithStatusCode {
	return newError(http.StatusNotFound, ErrorTypeInvalidRequest, ErrorCodeUnknownURL,
		"Invalid URL ("+method+" "+path+")", nil)
}

// NewBadEndpointMethod reports a known path hit with an unsupported method.
func NewBadEndpointMethod() *ErrorWithStatusCode {
	return newError(http.StatusMethodNotAllowed, ErrorTypeInvalidRequest, nil,
		"Not allowed to request this resource with this method", nil)
}

// NewModelNotFound reports a model label absent from the principal's view.
func NewModelNotFound(label string) *ErrorWithStatusCode {
	return newError(http.StatusNotFound, ErrorTypeInvalidRequest, ErrorCodeModelNotFound,
		"The model `"+label+"` does not exist or you do not have access to it", nil)
}

// NewUserRateLimit reports a permanently impossible admission (the request's
// cost exceeds a quota's burst capacity) or a structural quota denial.
func NewUserRateLimit(message string, raw error) *ErrorWithStatusCode {
	return newError(http.StatusTooManyRequests, ErrorTypeInsufficient, ErrorCodeInsufficientQuota, message, raw)
}

// NewModelRateLimit reports transient overload: a full worker queue, an
// upstream 429, or an upstream timeout. Clients may retry.
func NewModelRateLimit(message string, raw error) *ErrorWithStatusCode {
	return newError(http.StatusServiceUnavailable, ErrorTypeServer, nil, message, raw)
}

// NewBackendError reports an upstream-side failure: auth rejection, 5xx, or
// an undecodable response. Upstream auth errors are deliberately remapped
// here rather than surfaced as AuthInvalid, which would mis-attribute them.
func NewBackendError(message string, raw error) *ErrorWithStatusCode {
	return newError(http.StatusBadGateway, ErrorTypeServer, nil, message, raw)
}

// NewInternalError covers everything else.
func NewInternalError(message string, raw error) *ErrorWithStatusCode {
	return newError(http.StatusInternalServerError, ErrorTypeServer, nil, message, raw)
}
