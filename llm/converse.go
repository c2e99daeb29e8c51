package llm

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

type ConversationRole string

const (
	RoleUser      = ConversationRole(types.ConversationRoleUser)
	RoleAssistant = ConversationRole(types.ConversationRoleAssistant)
)

type response struct {
	stopReason types.StopReason
	usage      Usage
	output     string
}

type ConversationBuilder struct {
	input bedrockruntime.ConverseInput
	err   error
}

func newConversationBuilder(modelID string) *ConversationBuilder {
	return &ConversationBuilder{
		input: bedrockruntime.ConverseInput{
			Messages: []types.Message{},
			ModelId:  &modelID,
		},
	}
}

func (cb *ConversationBuilder) AddMessage(role ConversationRole) *ConversationBuilder {
	cb.input.Messages = append(cb.input.Messages, types.Message{
		Role:    types.ConversationRole(role),
		Content: []types.ContentBlock{},
	})
	return cb
}

func (cb *ConversationBuilder) AddText(content string) *ConversationBuilder {
	if len(cb.input.Messages) == 0 {
		cb.err = errors.New("text added before any message")
		return cb
	}
	contentBlock := &cb.input.Messages[len(cb.input.Messages)-1].Content
	*contentBlock = append(*contentBlock, &types.ContentBlockMemberText{Value: content})
	return cb
}

// SetInference bounds the reply length and sampling temperature.
func (cb *ConversationBuilder) SetInference(maxTokens int, temperature float32) *ConversationBuilder {
	cb.input.InferenceConfig = &types.InferenceConfiguration{
		MaxTokens:   aws.Int32(int32(maxTokens)),
		Temperature: aws.Float32(temperature),
	}
	return cb
}

func (llm *Context) NewConversationBuilder() *ConversationBuilder {
	return newConversationBuilder(llm.ModelID)
}

func (llm *Context) Converse(ctx context.Context, cb *ConversationBuilder, stats *Usage) (string, error) {
	if cb.err != nil {
		return "", cb.err
	}

	res, err := llm.converse(ctx, cb)
	if err != nil {
		return "", err
	}

	if stats != nil {
		*stats = res.usage
	}

	if res.stopReason == types.StopReasonMaxTokens {
		log.Printf("model %s stopped at the token limit", llm.ModelID)
	}

	return res.output, nil
}

func (llm *Context) converse(ctx context.Context, cb *ConversationBuilder) (response, error) {
	var res response

	output, err := llm.client.Converse(ctx, &cb.input)
	if err != nil {
		return res, err
	}

	if output.Usage != nil {
		res.usage.InputTokens = int(aws.ToInt32(output.Usage.InputTokens))
		res.usage.OutputTokens = int(aws.ToInt32(output.Usage.OutputTokens))
	}
	res.stopReason = output.StopReason

	switch v := output.Output.(type) {
	case *types.ConverseOutputMemberMessage:
		ret := ""
		for _, block := range v.Value.Content {
			switch v := block.(type) {
			case *types.ContentBlockMemberText:
				ret += v.Value
			default:
				log.Printf("ignoring non-text content block %T", v)
			}
		}
		res.output = ret
		return res, nil

	case *types.UnknownUnionMember:
		return res, fmt.Errorf("unknown tag: %v", v.Tag)

	default:
		return res, errors.New("union is nil or unknown type")

	}
}
