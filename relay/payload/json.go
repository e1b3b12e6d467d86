package payload

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/Laisky/errors/v2"
	"github.com/gin-gonic/gin"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
)

// jsonBase carries the raw body map shared by every JSON endpoint variant.
// Rewrites mutate the map so fields the typed DTOs never declare still reach
// the upstream unchanged.
type jsonBase struct {
	mode int
	raw  map[string]any
}

func decodeJSONBody(c *gin.Context, mode int, typed any) (jsonBase, error) {
	base := jsonBase{mode: mode}
	if err := common.UnmarshalBodyReusable(c, typed); err != nil {
		return base, errors.Wrap(err, "decode request body")
	}
	body, err := common.GetRequestBody(c)
	if err != nil {
		return base, errors.Wrap(err, "read request body")
	}
	if err := json.Unmarshal(body, &base.raw); err != nil {
		return base, errors.Wrap(err, "decode request body")
	}
	return base, nil
}

func (b *jsonBase) Mode() int { return b.mode }

func (b *jsonBase) SetModelID(id string) {
	b.raw["model"] = id
}

func (b *jsonBase) SetUser(id string) {
	if id == "" {
		delete(b.raw, "user")
		return
	}
	b.raw["user"] = id
}

func (b *jsonBase) StripStream() {
	delete(b.raw, "stream")
	delete(b.raw, "stream_options")
}

func (b *jsonBase) Body() (io.Reader, string, error) {
	data, err := json.Marshal(b.raw)
	if err != nil {
		return nil, "", errors.Wrap(err, "encode request body")
	}
	return bytes.NewReader(data), "application/json", nil
}

// capInput limits an input-side estimate to context_length x fanout on
// endpoints that support max_tokens. context_length 0 means unknown: no cap.
func capInput(tokens int64, m *model.Model, fanout int) int64 {
	if m.ContextLength <= 0 {
		return tokens
	}
	if cap := int64(m.ContextLength) * int64(fanout); tokens > cap {
		return cap
	}
	return tokens
}

// outputBudget is the per-generation output allowance: the client's
// max_tokens when supplied, the model's context length otherwise.
func outputBudget(clientMaxTokens int, m *model.Model) int64 {
	if clientMaxTokens > 0 {
		return int64(clientMaxTokens)
	}
	return int64(m.ContextLength)
}
