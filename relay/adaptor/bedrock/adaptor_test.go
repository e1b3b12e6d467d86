package bedrock

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	"github.com/stretchr/testify/require"

	relaymodel "github.com/transkatgirl/generative-model-proxy-server-sub000/relay/model"
)

func TestConvertRequest(t *testing.T) {
	temperature := 0.7
	chat := &chatBody{
		Messages: []relaymodel.Message{
			{Role: "system", Content: "be brief"},
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
			{Role: "user", Content: "bye"},
		},
		MaxTokens:   256,
		Temperature: &temperature,
		Stop:        []any{"END", "STOP"},
	}

	input := convertRequest(chat, "anthropic.claude-3-haiku-20240307-v1:0")
	require.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", aws.ToString(input.ModelId))

	require.Len(t, input.System, 1)
	system := input.System[0].(*types.SystemContentBlockMemberText)
	require.Equal(t, "be brief", system.Value)

	require.Len(t, input.Messages, 3)
	require.Equal(t, types.ConversationRole("user"), input.Messages[0].Role)
	first := input.Messages[0].Content[0].(*types.ContentBlockMemberText)
	require.Equal(t, "hello", first.Value)

	require.Equal(t, int32(256), aws.ToInt32(input.InferenceConfig.MaxTokens))
	require.InDelta(t, 0.7, float64(aws.ToFloat32(input.InferenceConfig.Temperature)), 0.001)
	require.Equal(t, []string{"END", "STOP"}, input.InferenceConfig.StopSequences)
}

func TestStopSequences(t *testing.T) {
	require.Equal(t, []string{"x"}, stopSequences("x"))
	require.Equal(t, []string{"a", "b"}, stopSequences([]any{"a", "b"}))
	require.Nil(t, stopSequences(nil))
	require.Nil(t, stopSequences(42.0))
}

func TestConvertResponse(t *testing.T) {
	output := &bedrockruntime.ConverseOutput{
		Output: &types.ConverseOutputMemberMessage{
			Value: types.Message{
				Role: types.ConversationRoleAssistant,
				Content: []types.ContentBlock{
					&types.ContentBlockMemberText{Value: "hello "},
					&types.ContentBlockMemberText{Value: "there"},
				},
			},
		},
		StopReason: types.StopReasonMaxTokens,
		Usage: &types.TokenUsage{
			InputTokens:  aws.Int32(11),
			OutputTokens: aws.Int32(5),
			TotalTokens:  aws.Int32(16),
		},
	}

	resp := convertResponse(output, "anthropic.claude-3-haiku-20240307-v1:0")
	require.Equal(t, "chat.completion", resp["object"])

	choices := resp["choices"].([]any)
	require.Len(t, choices, 1)
	choice := choices[0].(map[string]any)
	require.Equal(t, "length", choice["finish_reason"])
	message := choice["message"].(map[string]any)
	require.Equal(t, "hello there", message["content"])

	usage := resp["usage"].(map[string]any)
	require.Equal(t, int32(16), usage["total_tokens"])
}

func TestConvertStopReason(t *testing.T) {
	require.Equal(t, "stop", convertStopReason(types.StopReasonEndTurn))
	require.Equal(t, "length", convertStopReason(types.StopReasonMaxTokens))
	require.Equal(t, "content_filter", convertStopReason(types.StopReasonContentFiltered))
	require.Equal(t, "tool_calls", convertStopReason(types.StopReasonToolUse))
}
