package provider

import (
	"context"

	openai "github.com/sashabaranov/go-openai"

	aierrors "github.com/hrygo/peakstate/internal/errors"
)

// OpenAIConfig configures one OpenAI-compatible backend. The local model
// served by Ollama and the Anthropic gateway both speak this protocol,
// so flagship, mini, local and empathy are all instances of this adapter
// with different endpoints.
type OpenAIConfig struct {
	Model   string
	APIKey  string
	BaseURL string
}

// OpenAIGenerator calls any OpenAI chat-completion compatible endpoint.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

var _ Generator = (*OpenAIGenerator)(nil)

// NewOpenAIGenerator creates a generator for the configured endpoint.
func NewOpenAIGenerator(cfg OpenAIConfig) *OpenAIGenerator {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}
}

func (g *OpenAIGenerator) Name() string {
	return g.model
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req *GenerateRequest) (*GenerateResponse, error) {
	chatReq := openai.ChatCompletionRequest{
		Model:       g.model,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.SystemPrompt != "" {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.SystemPrompt,
		})
	}
	for _, m := range req.Messages {
		chatReq.Messages = append(chatReq.Messages, openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		})
	}
	for _, t := range req.Tools {
		chatReq.Tools = append(chatReq.Tools, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, aierrors.Wrap(aierrors.ErrCodeContextCanceled, "generation canceled", ctx.Err())
		}
		return nil, aierrors.GenerationFailed(g.model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, aierrors.New(aierrors.ErrCodeGenerationFailed, "backend returned no choices")
	}
	return &GenerateResponse{
		Content:    resp.Choices[0].Message.Content,
		TokensUsed: resp.Usage.TotalTokens,
	}, nil
}
