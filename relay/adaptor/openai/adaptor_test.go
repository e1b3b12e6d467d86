package openai

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

func TestGetRequestURL(t *testing.T) {
	backend := &model.Backend{
		Kind:    model.BackendOpenAI,
		BaseURL: "https://api.openai.com/v1",
	}
	url, err := GetRequestURL(backend, relaymode.ChatCompletions)
	require.NoError(t, err)
	require.Equal(t, "https://api.openai.com/v1/chat/completions", url)

	url, err = GetRequestURL(backend, relaymode.AudioTranscription)
	require.NoError(t, err)
	require.Equal(t, "https://api.openai.com/v1/audio/transcriptions", url)
}

func TestGetRequestURLTrimsTrailingSlash(t *testing.T) {
	backend := &model.Backend{
		Kind:    model.BackendOpenAI,
		BaseURL: "https://proxy.example.com/v1/",
	}
	url, err := GetRequestURL(backend, relaymode.Embeddings)
	require.NoError(t, err)
	require.Equal(t, "https://proxy.example.com/v1/embeddings", url)
}

func TestGetRequestURLAzure(t *testing.T) {
	backend := &model.Backend{
		Kind:       model.BackendAzure,
		BaseURL:    "https://example.openai.azure.com",
		ModelID:    "gpt-4o-deployment",
		APIVersion: "2024-02-01",
	}
	url, err := GetRequestURL(backend, relaymode.ChatCompletions)
	require.NoError(t, err)
	require.Equal(t,
		"https://example.openai.azure.com/openai/deployments/gpt-4o-deployment/chat/completions?api-version=2024-02-01",
		url)
}

func TestGetRequestURLUnknownMode(t *testing.T) {
	backend := &model.Backend{Kind: model.BackendOpenAI, BaseURL: "https://api.openai.com/v1"}
	_, err := GetRequestURL(backend, relaymode.Unknown)
	require.Error(t, err)
}
