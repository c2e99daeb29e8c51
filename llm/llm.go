// Package llm wraps the Bedrock Converse API.
package llm

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

type Params struct {
	Region  string
	ModelID string
}

type Usage struct {
	InputTokens  int
	OutputTokens int
}

type Llm interface {
	NewConversationBuilder() *ConversationBuilder
	Converse(ctx context.Context, cb *ConversationBuilder, stats *Usage) (string, error)
}

// converser is the part of the Bedrock client this package calls.
type converser interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

type Context struct {
	client  converser
	ModelID string
}

// New builds a client from the default AWS credential chain.
func New(ctx context.Context, params Params) (*Context, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(params.Region))
	if err != nil {
		return nil, err
	}
	return &Context{
		client:  bedrockruntime.NewFromConfig(cfg),
		ModelID: params.ModelID,
	}, nil
}
