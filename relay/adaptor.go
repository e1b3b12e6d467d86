package relay

import (
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor/bedrock"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor/openai"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor/vertexai"
)

// GetAdaptor returns the upstream client for one backend variant.
func GetAdaptor(kind model.BackendKind) adaptor.Adaptor {
	switch kind {
	case model.BackendBedrock:
		return &bedrock.Adaptor{}
	case model.BackendVertexAI:
		return &vertexai.Adaptor{}
	default:
		// OpenAI and Azure share one HTTP adaptor; the URL and header
		// layouts differ per kind inside it.
		return &openai.Adaptor{}
	}
}
