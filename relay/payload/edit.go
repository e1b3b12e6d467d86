package payload

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// Edit adapts POST /v1/edits. The default tokenizer for edits is p50k_edit.
type Edit struct {
	jsonBase
	req relaymodel.EditRequest
}

func decodeEdit(c *gin.Context, mode int) (*Edit, error) {
	p := &Edit{}
	base, err := decodeJSONBody(c, mode, &p.req)
	if err != nil {
		return nil, err
	}
	p.jsonBase = base
	return p, nil
}

func (p *Edit) ModelLabel() string { return p.req.Model }

func (p *Edit) GenerationFanout() int {
	if p.req.N > 1 {
		return p.req.N
	}
	return 1
}

func (p *Edit) EstimatedTokens(m *model.Model) int64 {
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	tokens := tokenizer.CountText(encoder, p.req.Input) + tokenizer.CountText(encoder, p.req.Instruction)
	return int64(tokens) * int64(p.GenerationFanout())
}

func (p *Edit) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m) + int64(m.ContextLength)*int64(p.GenerationFanout())
}
