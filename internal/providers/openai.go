package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

const defaultOpenAIModel = "gpt-4o-mini"

type OpenAIOptions struct {
	APIKey  string
	Model   string
	BaseURL string
}

// OpenAIGenerator produces content through the chat completions API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("openai api key is required")
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}, nil
}

func (o *OpenAIGenerator) Name() string { return NameOpenAI }

func (o *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	model := o.model
	if strings.TrimSpace(req.Model) != "" {
		model = strings.TrimSpace(req.Model)
	}
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       model,
		Temperature: 0.7,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You are a marketing copywriter for small businesses. Respond with the content only, no preamble.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: req.Params.Prompt(),
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai returned no choices")
	}
	choice := resp.Choices[0]
	content := strings.TrimSpace(choice.Message.Content)
	if content == "" {
		return nil, errors.New("openai returned empty content")
	}
	return &Result{
		Content:      content,
		Provider:     NameOpenAI,
		Model:        model,
		TokensUsed:   resp.Usage.TotalTokens,
		Cost:         CostFor(model, resp.Usage.PromptTokens, resp.Usage.CompletionTokens),
		FinishReason: string(choice.FinishReason),
	}, nil
}

var _ Generator = (*OpenAIGenerator)(nil)
