package payload

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// Image adapts POST /v1/images/generations. The token estimate is the
// prompt length; image output itself is metered by request cells.
type Image struct {
	jsonBase
	req relaymodel.ImageRequest
}

func decodeImage(c *gin.Context, mode int) (*Image, error) {
	p := &Image{}
	base, err := decodeJSONBody(c, mode, &p.req)
	if err != nil {
		return nil, err
	}
	p.jsonBase = base
	return p, nil
}

func (p *Image) ModelLabel() string { return p.req.Model }

func (p *Image) GenerationFanout() int {
	if p.req.N > 1 {
		return p.req.N
	}
	return 1
}

func (p *Image) EstimatedTokens(m *model.Model) int64 {
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	return int64(tokenizer.CountText(encoder, p.req.Prompt)) * int64(p.GenerationFanout())
}

func (p *Image) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m)
}
