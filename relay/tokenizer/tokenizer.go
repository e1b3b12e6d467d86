package tokenizer

import (
	"fmt"
	"sync"

	"github.com/pkoukk/tiktoken-go"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

// The registry is a fixed catalogue of BPE variants keyed by encoding name.
// Models reference an entry by name; endpoints without a configured tokenizer
// fall back to a per-endpoint default.
const (
	EncodingCL100K   = "cl100k_base"
	EncodingO200K    = "o200k_base"
	EncodingP50K     = "p50k_base"
	EncodingP50KEdit = "p50k_edit"
	EncodingR50K     = "r50k_base"
)

var (
	encoderMu  sync.RWMutex
	encoderMap = map[string]*tiktoken.Tiktoken{}

	defaultEncoder *tiktoken.Tiktoken
)

// Init warms the encoders every request path can reach. It panics on failure:
// a proxy that cannot tokenize cannot estimate admission cost.
//
// In offline environments set TIKTOKEN_CACHE_DIR to use pre-downloaded files,
// see https://stackoverflow.com/questions/76106366 for details.
func Init() {
	for _, name := range []string{EncodingCL100K, EncodingO200K, EncodingP50K, EncodingP50KEdit, EncodingR50K} {
		encoder, err := tiktoken.GetEncoding(name)
		if err != nil {
			panic(fmt.Sprintf("failed to get %s token encoder: %s", name, err.Error()))
		}
		encoderMap[name] = encoder
	}
	defaultEncoder = encoderMap[EncodingCL100K]
}

// Get returns the encoder registered under name, or the per-endpoint default
// when name is empty or unknown. Unknown names are tried against tiktoken
// once and cached so custom encodings keep working.
func Get(name string, mode int) *tiktoken.Tiktoken {
	if name == "" {
		return defaultFor(mode)
	}

	encoderMu.RLock()
	encoder, ok := encoderMap[name]
	encoderMu.RUnlock()
	if ok {
		return encoder
	}

	encoder, err := tiktoken.GetEncoding(name)
	if err != nil {
		return defaultFor(mode)
	}
	encoderMu.Lock()
	encoderMap[name] = encoder
	encoderMu.Unlock()
	return encoder
}

func defaultFor(mode int) *tiktoken.Tiktoken {
	if mode == relaymode.Edits {
		if enc, ok := encoderMap[EncodingP50KEdit]; ok {
			return enc
		}
	}
	return defaultEncoder
}

// CountText returns the token length of text under the given encoder.
func CountText(encoder *tiktoken.Tiktoken, text string) int {
	if encoder == nil || text == "" {
		return 0
	}
	return len(encoder.Encode(text, nil, nil))
}

// CountInput counts a string, a list of strings, or a pre-tokenized input
// (array of numbers), which is how embeddings and moderations arrive.
func CountInput(encoder *tiktoken.Tiktoken, input any) int {
	switch v := input.(type) {
	case string:
		return CountText(encoder, v)
	case []string:
		num := 0
		for _, s := range v {
			num += CountText(encoder, s)
		}
		return num
	case []any:
		num := 0
		tokens := 0
		for _, item := range v {
			switch s := item.(type) {
			case string:
				num += CountText(encoder, s)
			case float64:
				// Token arrays count one per element.
				tokens++
			}
		}
		return num + tokens
	}
	return 0
}

// CountMessages counts chat messages following the OpenAI cookbook recipe:
// every message costs tokensPerMessage, a name costs tokensPerName, and the
// reply is primed with <|start|>assistant<|message|> (3 tokens).
//
// Reference:
// https://github.com/openai/openai-cookbook/blob/main/examples/How_to_count_tokens_with_tiktoken.ipynb
func CountMessages(encoder *tiktoken.Tiktoken, messages []model.Message, tokensPerMessage int, tokensPerName int) int {
	if tokensPerMessage == 0 {
		tokensPerMessage = 3
	}
	if tokensPerName == 0 {
		tokensPerName = 1
	}

	tokenNum := 0
	for _, message := range messages {
		tokenNum += tokensPerMessage
		tokenNum += CountText(encoder, message.StringContent())
		tokenNum += CountText(encoder, message.Role)
		if message.Name != nil {
			tokenNum += tokensPerName
			tokenNum += CountText(encoder, *message.Name)
		}
	}
	tokenNum += 3
	return tokenNum
}
