// Package bedrock relays chat completions to AWS Bedrock through the Converse
// API. Bedrock has no OpenAI-compatible surface, so the rewritten JSON body is
// converted to a ConverseInput and the ConverseOutput back into an OpenAI
// chat completion, including usage so settle can use actual token counts.
// Only chat is supported; other endpoint families are rejected before
// dispatch.
package bedrock

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/Laisky/errors/v2"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/transkatgirl/generative-model-proxy-server-sub000/common/helper"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/adaptor"
	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/payload"
	"github.com/transkatgirl/generative-model-proxy-server-sub000/relay/relaymode"
)

type Adaptor struct{}

var _ adaptor.Adaptor = (*Adaptor)(nil)

func newClient(ctx context.Context, backend *model.Backend) (*bedrockruntime.Client, error) {
	awsConfig, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(backend.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			backend.AccessKeyID, backend.SecretAccessKey, "")))
	if err != nil {
		return nil, errors.Wrap(err, "load aws config")
	}
	return bedrockruntime.NewFromConfig(awsConfig), nil
}

// chatBody is the slice of the rewritten request the Converse conversion
// needs; decoding from the serialised body keeps the adaptor behind the same
// payload interface as the HTTP backends.
type chatBody struct {
	Model       string               `json:"model"`
	Messages    []relaymodel.Message `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature *float64             `json:"temperature"`
	TopP        *float64             `json:"top_p"`
	Stop        any                  `json:"stop"`
}

func decodeChatBody(req payload.Request) (*chatBody, error) {
	body, _, err := req.Body()
	if err != nil {
		return nil, errors.Wrap(err, "encode request body")
	}
	chat := &chatBody{}
	if err := json.NewDecoder(body).Decode(chat); err != nil {
		return nil, errors.Wrap(err, "decode request body")
	}
	if len(chat.Messages) == 0 {
		return nil, errors.New("empty messages")
	}
	return chat, nil
}

func stopSequences(stop any) []string {
	switch v := stop.(type) {
	case string:
		return []string{v}
	case []any:
		var sequences []string
		for _, s := range v {
			if str, ok := s.(string); ok {
				sequences = append(sequences, str)
			}
		}
		return sequences
	default:
		return nil
	}
}

func convertRequest(chat *chatBody, modelID string) *bedrockruntime.ConverseInput {
	var messages []types.Message
	var system []types.SystemContentBlock

	for _, msg := range chat.Messages {
		switch msg.Role {
		case "system":
			system = append(system, &types.SystemContentBlockMemberText{
				Value: msg.StringContent(),
			})
		case "user", "assistant":
			messages = append(messages, types.Message{
				Role: types.ConversationRole(msg.Role),
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: msg.StringContent()},
				},
			})
		}
	}

	inference := &types.InferenceConfiguration{}
	if chat.MaxTokens > 0 {
		inference.MaxTokens = aws.Int32(int32(chat.MaxTokens))
	}
	if chat.Temperature != nil {
		inference.Temperature = aws.Float32(float32(*chat.Temperature))
	}
	if chat.TopP != nil {
		inference.TopP = aws.Float32(float32(*chat.TopP))
	}
	if sequences := stopSequences(chat.Stop); len(sequences) > 0 {
		inference.StopSequences = sequences
	}

	input := &bedrockruntime.ConverseInput{
		ModelId:         aws.String(modelID),
		Messages:        messages,
		InferenceConfig: inference,
	}
	if len(system) > 0 {
		input.System = system
	}
	return input
}

func convertStopReason(reason types.StopReason) string {
	switch reason {
	case types.StopReasonMaxTokens:
		return "length"
	case types.StopReasonContentFiltered, types.StopReasonGuardrailIntervened:
		return "content_filter"
	case types.StopReasonToolUse:
		return "tool_calls"
	default:
		return "stop"
	}
}

func convertResponse(output *bedrockruntime.ConverseOutput, modelID string) map[string]any {
	var content strings.Builder
	if message, ok := output.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range message.Value.Content {
			if text, ok := block.(*types.ContentBlockMemberText); ok {
				content.WriteString(text.Value)
			}
		}
	}

	usage := map[string]any{}
	if output.Usage != nil {
		usage["prompt_tokens"] = aws.ToInt32(output.Usage.InputTokens)
		usage["completion_tokens"] = aws.ToInt32(output.Usage.OutputTokens)
		usage["total_tokens"] = aws.ToInt32(output.Usage.TotalTokens)
	}

	return map[string]any{
		"id":      "chatcmpl-" + helper.GenRequestID(),
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   modelID,
		"choices": []any{
			map[string]any{
				"index": 0,
				"message": map[string]any{
					"role":    "assistant",
					"content": content.String(),
				},
				"finish_reason": convertStopReason(output.StopReason),
			},
		},
		"usage": usage,
	}
}

// SupportsMode limits Bedrock models to chat; the worker rejects other
// endpoint families before admission.
func (a *Adaptor) SupportsMode(mode int) bool {
	return mode == relaymode.ChatCompletions
}

func (a *Adaptor) Relay(ctx context.Context, m *model.Model, req payload.Request) (payload.Response, *relaymodel.ErrorWithStatusCode) {
	chat, err := decodeChatBody(req)
	if err != nil {
		return nil, relaymodel.NewInternalError("failed to convert request", err)
	}

	awsClient, err := newClient(ctx, &m.Backend)
	if err != nil {
		return nil, relaymodel.NewBackendError("upstream request failed", err)
	}

	output, err := awsClient.Converse(ctx, convertRequest(chat, m.Backend.ModelID))
	if err != nil {
		if isThrottle(err) {
			return nil, relaymodel.NewModelRateLimit("model is overloaded, please retry later", err)
		}
		return nil, relaymodel.NewBackendError("upstream request failed", errors.Wrap(err, "Converse"))
	}
	return payload.NewJSONResponse(http.StatusOK, convertResponse(output, m.Backend.ModelID)), nil
}

func isThrottle(err error) bool {
	var throttled *types.ThrottlingException
	if errors.As(err, &throttled) {
		return true
	}
	return errors.Is(err, context.DeadlineExceeded)
}
