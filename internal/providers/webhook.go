package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"bossai/internal/domain/jsoncfg"
	"bossai/internal/infra"
	"bossai/internal/sqlinline"
)

const webhookTimeout = 120 * time.Second

// WebhookGenerator delegates generation to the external agent registered in
// webhook_agents for the job's content type.
type WebhookGenerator struct {
	sql    infra.SQLExecutor
	client *http.Client
}

func NewWebhookGenerator(sql infra.SQLExecutor, client *http.Client) *WebhookGenerator {
	if client == nil {
		client = &http.Client{Timeout: webhookTimeout}
	}
	return &WebhookGenerator{sql: sql, client: client}
}

func (w *WebhookGenerator) Name() string { return NameWebhook }

type webhookPayload struct {
	JobID       string              `json:"jobId"`
	ContentType string              `json:"contentType"`
	Params      jsoncfg.RequestJSON `json:"params"`
	Model       string              `json:"model,omitempty"`
	Temperature float64             `json:"temperature"`
	Prompt      string              `json:"prompt"`
}

type webhookResponse struct {
	Content    string  `json:"content"`
	Model      string  `json:"model"`
	TokensUsed int     `json:"tokensUsed"`
	Cost       float64 `json:"cost"`
}

func (w *WebhookGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	var (
		agentID     string
		agentName   string
		agentURL    string
		apiKey      *string
		model       *string
		temperature float64
	)
	row := w.sql.QueryRow(ctx, sqlinline.QSelectAgentForContentType, req.Params.ContentType)
	if err := row.Scan(&agentID, &agentName, &agentURL, &apiKey, &model, &temperature); err != nil {
		if infra.IsNoRows(err) {
			return nil, fmt.Errorf("no webhook agent for content type %q", req.Params.ContentType)
		}
		return nil, fmt.Errorf("resolve webhook agent: %w", err)
	}

	agentModel := ""
	if model != nil {
		agentModel = *model
	}
	if strings.TrimSpace(req.Model) != "" {
		agentModel = strings.TrimSpace(req.Model)
	}

	body, err := json.Marshal(webhookPayload{
		JobID:       req.JobID,
		ContentType: req.Params.ContentType,
		Params:      req.Params,
		Model:       agentModel,
		Temperature: temperature,
		Prompt:      req.Params.Prompt(),
	})
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, webhookTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, agentURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if apiKey != nil && *apiKey != "" {
		httpReq.Header.Set("X-API-Key", *apiKey)
	}

	resp, err := w.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("webhook agent %s: %w", agentName, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("webhook agent %s returned status %d", agentName, resp.StatusCode)
	}

	var out webhookResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode webhook response: %w", err)
	}
	content := strings.TrimSpace(out.Content)
	if content == "" {
		return nil, errors.New("webhook agent returned empty content")
	}
	resultModel := out.Model
	if resultModel == "" {
		resultModel = agentModel
	}
	if resultModel == "" {
		resultModel = agentName
	}
	return &Result{
		Content:    content,
		Provider:   NameWebhook,
		Model:      resultModel,
		TokensUsed: out.TokensUsed,
		Cost:       out.Cost,
	}, nil
}

var _ Generator = (*WebhookGenerator)(nil)
