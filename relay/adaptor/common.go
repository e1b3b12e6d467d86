package adaptor

import (
	"context"
	"net"
	"net/http"

	"github.com/Laisky/errors/v2"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/client"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
)

// DoRequest sends one HTTP call to the upstream with the shared relay client
// and classifies transport-level failures: deadline and timeout mean the
// backend is saturated (retryable 503), anything else is a backend fault.
func DoRequest(ctx context.Context, method, url string, req payload.Request, setHeaders func(*http.Request)) (*http.Response, *relaymodel.ErrorWithStatusCode) {
	body, contentType, err := req.Body()
	if err != nil {
		return nil, relaymodel.NewInternalError("failed to encode upstream request", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, relaymodel.NewInternalError("failed to build upstream request", err)
	}
	httpReq.Header.Set("Content-Type", contentType)
	if setHeaders != nil {
		setHeaders(httpReq)
	}

	resp, err := client.HTTPClient.Do(httpReq)
	if err != nil {
		if isTimeout(err) {
			return nil, relaymodel.NewModelRateLimit("model is overloaded, please retry later", errors.Wrap(err, "upstream timeout"))
		}
		return nil, relaymodel.NewBackendError("failed to reach upstream", err)
	}
	return resp, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// CheckStatus maps upstream HTTP statuses that must not pass through to the
// client. 429 means the provider is throttling this model; auth failures and
// server errors are the proxy's fault from the client's perspective. Other
// statuses (including non-auth 4xx) pass through with the upstream body.
func CheckStatus(resp *http.Response) *relaymodel.ErrorWithStatusCode {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		drainBody(resp)
		return relaymodel.NewModelRateLimit("model is overloaded, please retry later",
			errors.Errorf("upstream throttled: status %d", resp.StatusCode))
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		drainBody(resp)
		return relaymodel.NewBackendError("upstream request failed",
			errors.Errorf("upstream rejected credentials: status %d", resp.StatusCode))
	case resp.StatusCode >= http.StatusInternalServerError:
		drainBody(resp)
		return relaymodel.NewBackendError("upstream request failed",
			errors.Errorf("upstream failure: status %d", resp.StatusCode))
	}
	return nil
}

// DecodeResponse finishes one upstream exchange: status triage, then body
// decoding. A body the upstream labelled JSON but that does not parse is a
// backend fault.
func DecodeResponse(resp *http.Response) (payload.Response, *relaymodel.ErrorWithStatusCode) {
	if errResp := CheckStatus(resp); errResp != nil {
		return nil, errResp
	}
	decoded, err := payload.DecodeResponse(resp)
	if err != nil {
		return nil, relaymodel.NewBackendError("upstream returned an unreadable response", err)
	}
	return decoded, nil
}

func drainBody(resp *http.Response) {
	_ = resp.Body.Close()
}
