package providers

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const defaultGeminiModel = "gemini-1.5-flash"

type GeminiOptions struct {
	APIKey string
	Model  string
}

// GeminiGenerator produces content through the Gemini API.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

func NewGeminiGenerator(ctx context.Context, opts GeminiOptions) (*GeminiGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(strings.TrimSpace(opts.APIKey)))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = defaultGeminiModel
	}
	return &GeminiGenerator{client: client, model: model}, nil
}

func (g *GeminiGenerator) Name() string { return NameGemini }

func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	name := g.model
	if strings.TrimSpace(req.Model) != "" {
		name = strings.TrimSpace(req.Model)
	}
	model := g.client.GenerativeModel(name)
	resp, err := model.GenerateContent(ctx, genai.Text(req.Params.Prompt()))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}
	content := extractGeminiText(resp)
	if content == "" {
		return nil, errors.New("gemini returned empty content")
	}
	var promptTokens, completionTokens int
	if resp.UsageMetadata != nil {
		promptTokens = int(resp.UsageMetadata.PromptTokenCount)
		completionTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	finish := ""
	if len(resp.Candidates) > 0 {
		finish = resp.Candidates[0].FinishReason.String()
	}
	return &Result{
		Content:      content,
		Provider:     NameGemini,
		Model:        name,
		TokensUsed:   promptTokens + completionTokens,
		Cost:         CostFor(name, promptTokens, completionTokens),
		FinishReason: finish,
	}, nil
}

// Close releases the underlying API client.
func (g *GeminiGenerator) Close() error {
	return g.client.Close()
}

func extractGeminiText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	return strings.TrimSpace(b.String())
}

var _ Generator = (*GeminiGenerator)(nil)
