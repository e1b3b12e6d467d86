// Package openai relays to OpenAI-compatible HTTP backends, including Azure
// OpenAI deployments. Every endpoint family is supported; the request body
// passes through as the payload layer rewrote it.
package openai

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

type Adaptor struct{}

var _ adaptor.Adaptor = (*Adaptor)(nil)

// SupportsMode covers every endpoint family: OpenAI-style backends expose the
// full surface.
func (a *Adaptor) SupportsMode(mode int) bool {
	return requestPath(mode) != ""
}

func requestPath(mode int) string {
	switch mode {
	case relaymode.ChatCompletions:
		return "/chat/completions"
	case relaymode.Completions:
		return "/completions"
	case relaymode.Edits:
		return "/edits"
	case relaymode.Embeddings:
		return "/embeddings"
	case relaymode.Moderations:
		return "/moderations"
	case relaymode.ImagesGenerations:
		return "/images/generations"
	case relaymode.ImagesEdits:
		return "/images/edits"
	case relaymode.ImagesVariations:
		return "/images/variations"
	case relaymode.AudioSpeech:
		return "/audio/speech"
	case relaymode.AudioTranscription:
		return "/audio/transcriptions"
	case relaymode.AudioTranslation:
		return "/audio/translations"
	default:
		return ""
	}
}

// GetRequestURL builds the upstream URL. OpenAI-style backends append the
// endpoint path to the configured base (which already carries /v1 or an
// equivalent prefix); Azure routes through the deployment named by the
// backend's internal model id.
func GetRequestURL(backend *model.Backend, mode int) (string, error) {
	path := requestPath(mode)
	if path == "" {
		return "", fmt.Errorf("unsupported relay mode %d", mode)
	}
	baseURL := strings.TrimSuffix(backend.BaseURL, "/")
	if backend.Kind == model.BackendAzure {
		return fmt.Sprintf("%s/openai/deployments/%s%s?api-version=%s",
			baseURL, backend.ModelID, path, backend.APIVersion), nil
	}
	return baseURL + path, nil
}

func setupHeader(backend *model.Backend, req *http.Request) {
	if backend.Kind == model.BackendAzure {
		req.Header.Set("api-key", backend.APIKey)
		return
	}
	req.Header.Set("Authorization", "Bearer "+backend.APIKey)
}

func (a *Adaptor) Relay(ctx context.Context, m *model.Model, req payload.Request) (payload.Response, *relaymodel.ErrorWithStatusCode) {
	url, err := GetRequestURL(&m.Backend, req.Mode())
	if err != nil {
		return nil, relaymodel.NewInternalError("failed to build upstream request", err)
	}
	resp, errResp := adaptor.DoRequest(ctx, http.MethodPost, url, req, func(httpReq *http.Request) {
		setupHeader(&m.Backend, httpReq)
	})
	if errResp != nil {
		return nil, errResp
	}
	return adaptor.DecodeResponse(resp)
}
