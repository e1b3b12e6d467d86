package payload

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// Moderation adapts POST /v1/moderations.
type Moderation struct {
	jsonBase
	req relaymodel.ModerationRequest
}

func decodeModeration(c *gin.Context, mode int) (*Moderation, error) {
	p := &Moderation{}
	base, err := decodeJSONBody(c, mode, &p.req)
	if err != nil {
		return nil, err
	}
	p.jsonBase = base
	return p, nil
}

func (p *Moderation) ModelLabel() string { return p.req.Model }

func (p *Moderation) GenerationFanout() int {
	return arrayInputFanout(p.req.Input)
}

func (p *Moderation) EstimatedTokens(m *model.Model) int64 {
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	return int64(tokenizer.CountInput(encoder, p.req.Input))
}

func (p *Moderation) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m)
}
