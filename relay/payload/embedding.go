package payload

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// Embedding adapts POST /v1/embeddings. An array input embeds each element,
// so the fanout is the array length.
type Embedding struct {
	jsonBase
	req relaymodel.EmbeddingRequest
}

func decodeEmbedding(c *gin.Context, mode int) (*Embedding, error) {
	p := &Embedding{}
	base, err := decodeJSONBody(c, mode, &p.req)
	if err != nil {
		return nil, err
	}
	p.jsonBase = base
	return p, nil
}

func (p *Embedding) ModelLabel() string { return p.req.Model }

func (p *Embedding) GenerationFanout() int {
	return arrayInputFanout(p.req.Input)
}

func (p *Embedding) EstimatedTokens(m *model.Model) int64 {
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	return int64(tokenizer.CountInput(encoder, p.req.Input))
}

func (p *Embedding) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m)
}

// arrayInputFanout is the generation count of a string-or-array input field:
// the array length for arrays (a token array counts as one input), 1
// otherwise.
func arrayInputFanout(input any) int {
	arr, ok := input.([]any)
	if !ok || len(arr) == 0 {
		return 1
	}
	if _, isNumber := arr[0].(float64); isNumber {
		return 1
	}
	return len(arr)
}
