package extract

import (
	"context"

	"github.com/rcbilson/dailymenu/llm"
)

type Params struct {
	llm.Params
	Prefill     string
	MaxTokens   int
	Temperature float32
}

var NovaLite = Params{
	Params: llm.Params{
		Region:  "us-east-1",
		ModelID: "us.amazon.nova-lite-v1:0",
	},
	Prefill:     "{",
	MaxTokens:   4096,
	Temperature: 0.1,
}

// NewGenerator drives a Bedrock conversation: the prompt as the user turn,
// the prefill opening the assistant turn. The prefill is put back in front
// of the reply.
func NewGenerator(client llm.Llm, params Params) Generator {
	return GeneratorFunc(func(ctx context.Context, prompt string, stats *llm.Usage) (string, error) {
		cb := client.NewConversationBuilder().
			AddMessage(llm.RoleUser).
			AddText(prompt).
			AddMessage(llm.RoleAssistant).
			AddText(params.Prefill).
			SetInference(params.MaxTokens, params.Temperature)

		output, err := client.Converse(ctx, cb, stats)
		if err != nil {
			return "", err
		}
		return params.Prefill + output, nil
	})
}
