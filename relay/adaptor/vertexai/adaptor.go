// Package vertexai relays chat completions to Google Vertex AI through its
// OpenAI-compatible endpoint, authenticating with short-lived access tokens
// minted from the model's service-account key. Only chat is supported.
package vertexai

import (
	"context"
	"fmt"
	"net/http"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

type Adaptor struct{}

var _ adaptor.Adaptor = (*Adaptor)(nil)

// GetRequestURL targets the OpenAI-compatibility surface, which accepts the
// chat completion body unchanged. The `global` location uses the regionless
// host.
func GetRequestURL(backend *model.Backend) string {
	host := fmt.Sprintf("%s-aiplatform.googleapis.com", backend.Location)
	if backend.Location == "global" {
		host = "aiplatform.googleapis.com"
	}
	return fmt.Sprintf("https://%s/v1beta1/projects/%s/locations/%s/endpoints/openapi/chat/completions",
		host, backend.Project, backend.Location)
}

// SupportsMode limits Vertex models to chat; the worker rejects other
// endpoint families before admission.
func (a *Adaptor) SupportsMode(mode int) bool {
	return mode == relaymode.ChatCompletions
}

func (a *Adaptor) Relay(ctx context.Context, m *model.Model, req payload.Request) (payload.Response, *relaymodel.ErrorWithStatusCode) {
	token, err := getToken(ctx, m.ID, m.Backend.CredentialsJSON)
	if err != nil {
		return nil, relaymodel.NewBackendError("upstream request failed", err)
	}

	resp, errResp := adaptor.DoRequest(ctx, http.MethodPost, GetRequestURL(&m.Backend), req, func(httpReq *http.Request) {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	})
	if errResp != nil {
		return nil, errResp
	}
	return adaptor.DecodeResponse(resp)
}
