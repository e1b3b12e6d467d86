package payload

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// Chat adapts POST /v1/chat/completions.
type Chat struct {
	jsonBase
	req relaymodel.ChatRequest
}

func decodeChat(c *gin.Context, mode int) (*Chat, error) {
	p := &Chat{}
	base, err := decodeJSONBody(c, mode, &p.req)
	if err != nil {
		return nil, err
	}
	p.jsonBase = base
	return p, nil
}

func (p *Chat) ModelLabel() string { return p.req.Model }

func (p *Chat) GenerationFanout() int {
	if p.req.N > 1 {
		return p.req.N
	}
	return 1
}

func (p *Chat) EstimatedTokens(m *model.Model) int64 {
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	tokens := tokenizer.CountMessages(encoder, p.req.Messages, m.TokensPerMessage, m.TokensPerName)
	fanout := p.GenerationFanout()
	return capInput(int64(tokens)*int64(fanout), m, fanout)
}

func (p *Chat) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m) + outputBudget(p.req.MaxTokens, m)*int64(p.GenerationFanout())
}
