package payload

import (
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/tokenizer"
)

// Completion adapts POST /v1/completions. Prompt may be a string, an array
// of strings, or a pre-tokenized array.
type Completion struct {
	jsonBase
	req relaymodel.CompletionRequest
}

func decodeCompletion(c *gin.Context, mode int) (*Completion, error) {
	p := &Completion{}
	base, err := decodeJSONBody(c, mode, &p.req)
	if err != nil {
		return nil, err
	}
	p.jsonBase = base
	return p, nil
}

func (p *Completion) ModelLabel() string { return p.req.Model }

func (p *Completion) promptCount() int {
	switch prompt := p.req.Prompt.(type) {
	case []any:
		// An array of strings is multiple prompts; an array of numbers is
		// one pre-tokenized prompt.
		if len(prompt) == 0 {
			return 1
		}
		if _, isNumber := prompt[0].(float64); isNumber {
			return 1
		}
		return len(prompt)
	default:
		return 1
	}
}

// GenerationFanout is max(best_of, n) per prompt, times the prompt count.
func (p *Completion) GenerationFanout() int {
	perPrompt := p.req.N
	if p.req.BestOf > perPrompt {
		perPrompt = p.req.BestOf
	}
	if perPrompt < 1 {
		perPrompt = 1
	}
	return perPrompt * p.promptCount()
}

func (p *Completion) EstimatedTokens(m *model.Model) int64 {
	encoder := tokenizer.Get(m.Tokenizer, p.mode)
	tokens := tokenizer.CountInput(encoder, p.req.Prompt)
	fanout := p.GenerationFanout()
	return capInput(int64(tokens)*int64(fanout), m, fanout)
}

func (p *Completion) MaxTokens(m *model.Model) int64 {
	return p.EstimatedTokens(m) + outputBudget(p.req.MaxTokens, m)*int64(p.GenerationFanout())
}
