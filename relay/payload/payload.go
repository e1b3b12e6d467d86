// Package payload gives the limiter, router, and worker a uniform view over
// the heterogeneous OpenAI request and response shapes. Nothing downstream
// of the endpoint classifier branches on endpoint-specific structs: every
// variant answers the same four questions (which model, how many
// generations, how many tokens, what cap) and accepts the same rewrites.
package payload

import (
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

// Request is the uniform view over one decoded client request.
type Request interface {
	Mode() int

	// ModelLabel returns the model string exactly as the client sent it.
	ModelLabel() string

	// GenerationFanout is the number of generations the request asks for;
	// always >= 1. Token estimates scale by it.
	GenerationFanout() int

	// EstimatedTokens is the tokenized length of the input content under
	// the model's configured tokenizer, times the fanout, capped at
	// context_length x fanout where the endpoint supports max_tokens.
	EstimatedTokens(m *model.Model) int64

	// MaxTokens is EstimatedTokens plus the output side: the client's
	// max_tokens, or the model's context length when absent.
	MaxTokens(m *model.Model) int64

	// SetModelID substitutes the backend's internal model identifier for
	// the public label in the outgoing body.
	SetModelID(id string)

	// SetUser sets the outgoing user field; the empty string removes it.
	// The client-supplied value never reaches the upstream either way.
	SetUser(id string)

	// StripStream removes the stream flag; streaming is disabled
	// proxy-wide.
	StripStream()

	// Body serialises the rewritten request for the upstream call.
	Body() (io.Reader, string, error)
}

// Response is the uniform view over one upstream response.
type Response interface {
	// ReportedTokens returns usage.total_tokens when the upstream reported
	// usage; ok is false otherwise and the admission estimate stands.
	ReportedTokens() (tokens int64, ok bool)

	// ReplaceModelLabel restores the public label in the response body.
	ReplaceModelLabel(label string)

	// ReplaceID overwrites the upstream response id with one derived from
	// the request's tag list.
	ReplaceID(id string)

	// Write sends the response to the client.
	Write(c *gin.Context) error
}

// DecodeRequest parses the request body for the endpoint family into its
// uniform view. JSON endpoints are decoded twice: once into the typed DTO
// the estimator introspects, once into a raw map so unknown client fields
// survive the round trip to the upstream.
func DecodeRequest(c *gin.Context, mode int) (Request, error) {
	switch mode {
	case relaymode.ChatCompletions:
		return decodeChat(c, mode)
	case relaymode.Completions:
		return decodeCompletion(c, mode)
	case relaymode.Edits:
		return decodeEdit(c, mode)
	case relaymode.Embeddings:
		return decodeEmbedding(c, mode)
	case relaymode.Moderations:
		return decodeModeration(c, mode)
	case relaymode.ImagesGenerations:
		return decodeImage(c, mode)
	case relaymode.AudioSpeech:
		return decodeTTS(c, mode)
	case relaymode.ImagesEdits, relaymode.ImagesVariations,
		relaymode.AudioTranscription, relaymode.AudioTranslation:
		return decodeMultipart(c, mode)
	default:
		return nil, errors.Errorf("unsupported relay mode %d", mode)
	}
}
