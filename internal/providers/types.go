package providers

import (
	"context"

	"bossai/internal/domain/jsoncfg"
)

// Provider names as persisted on job rows and used in routing weights.
const (
	NameOpenAI  = "openai"
	NameGemini  = "gemini"
	NameWebhook = "webhook"
)

// Request carries one generation job to a provider. Provider and Model are
// optional pins copied from the job row; empty means the router and the
// provider defaults decide.
type Request struct {
	JobID    string
	UserID   string
	Provider string
	Model    string
	Params   jsoncfg.RequestJSON
}

// Result is the provider output persisted on the job row.
type Result struct {
	Content      string
	Provider     string
	Model        string
	TokensUsed   int
	Cost         float64
	FinishReason string
}

// Generator produces content for a request. Implementations must respect
// ctx cancellation since the worker bounds every attempt with a timeout.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req Request) (*Result, error)
}
