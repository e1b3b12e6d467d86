package payload

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// TTS adapts POST /v1/audio/speech. Audio endpoints always have fanout 1.
type TTS struct {
	jsonBase
	req relaymodel.TTSRequest
}

func decodeTTS(c *gin.Context, mode int) (*TTS, error) {
	p := &TTS{}
	base, err := decodeJSONBody(c, mode, &p.req)
	if err != nil {
		return nil, err
	}
	p.jsonBase = base
	return p, nil
}

func (p *TTS) ModelLabel() string { return p.req.Model }

func (p *TTS) GenerationFanout() int { return 1 }

func (p *TTS) EstimatedTokens(m *model.Model) int64 {
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	return int64(tokenizer.CountText(encoder, p.req.Input))
}

func (p *TTS) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m)
}
