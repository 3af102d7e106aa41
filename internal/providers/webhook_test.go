package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bossai/internal/domain/jsoncfg"
)

type stubSQL struct {
	queryRow func(query string, args ...any) pgx.Row
}

func (s stubSQL) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (s stubSQL) QueryRow(_ context.Context, query string, args ...any) pgx.Row {
	return s.queryRow(query, args...)
}

func (s stubSQL) Query(context.Context, string, ...any) (pgx.Rows, error) {
	return nil, nil
}

type scanRow struct {
	scan func(dest ...any) error
}

func (r scanRow) Scan(dest ...any) error {
	if r.scan == nil {
		return pgx.ErrNoRows
	}
	return r.scan(dest...)
}

func agentRow(url string, apiKey string, model string, temperature float64) pgx.Row {
	return scanRow{scan: func(dest ...any) error {
		*dest[0].(*string) = "agent-1"
		*dest[1].(*string) = "copy-agent"
		*dest[2].(*string) = url
		key := apiKey
		*dest[3].(**string) = &key
		m := model
		*dest[4].(**string) = &m
		*dest[5].(*float64) = temperature
		return nil
	}}
}

func TestWebhookGeneratorPostsToAgent(t *testing.T) {
	var gotKey string
	var gotPayload webhookPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-Key")
		if err := json.NewDecoder(r.Body).Decode(&gotPayload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		_ = json.NewEncoder(w).Encode(webhookResponse{Content: "generated copy", Model: "agent-v2", TokensUsed: 42, Cost: 0.002})
	}))
	defer srv.Close()

	gen := NewWebhookGenerator(stubSQL{queryRow: func(string, ...any) pgx.Row {
		return agentRow(srv.URL, "agent-secret", "agent-v1", 0.6)
	}}, srv.Client())

	req := Request{
		JobID:  "6f9619ff-8b86-4d01-b42d-00cf4fc964ff",
		UserID: "u1",
		Params: jsoncfg.RequestJSON{Topic: "tet sale", ContentType: "social", Language: "vi", MaxWords: 200},
	}
	res, err := gen.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if res.Content != "generated copy" || res.Provider != NameWebhook || res.Model != "agent-v2" || res.TokensUsed != 42 {
		t.Fatalf("result = %+v", res)
	}
	if res.Cost != 0.002 {
		t.Fatalf("cost = %v, want 0.002", res.Cost)
	}
	if gotKey != "agent-secret" {
		t.Fatalf("X-API-Key = %q, want agent-secret", gotKey)
	}
	if gotPayload.JobID != req.JobID || gotPayload.Params.Topic != "tet sale" {
		t.Fatalf("payload = %+v", gotPayload)
	}
	if gotPayload.ContentType != "social" || gotPayload.Model != "agent-v1" || gotPayload.Temperature != 0.6 {
		t.Fatalf("payload agent fields = %+v", gotPayload)
	}
	if gotPayload.Prompt == "" {
		t.Fatal("payload prompt should be rendered")
	}
}

func TestWebhookGeneratorNoAgent(t *testing.T) {
	gen := NewWebhookGenerator(stubSQL{queryRow: func(string, ...any) pgx.Row {
		return scanRow{}
	}}, nil)

	_, err := gen.Generate(context.Background(), Request{Params: jsoncfg.RequestJSON{ContentType: "video"}})
	if err == nil {
		t.Fatal("expected error when no agent matches")
	}
}

func TestWebhookGeneratorAgentError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	gen := NewWebhookGenerator(stubSQL{queryRow: func(string, ...any) pgx.Row {
		return agentRow(srv.URL, "", "", 0.6)
	}}, srv.Client())

	_, err := gen.Generate(context.Background(), Request{Params: jsoncfg.RequestJSON{Topic: "t"}})
	if err == nil {
		t.Fatal("expected error on agent 502")
	}
}

func TestWebhookGeneratorEmptyContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(webhookResponse{Content: "  "})
	}))
	defer srv.Close()

	gen := NewWebhookGenerator(stubSQL{queryRow: func(string, ...any) pgx.Row {
		return agentRow(srv.URL, "", "", 0.6)
	}}, srv.Client())

	_, err := gen.Generate(context.Background(), Request{Params: jsoncfg.RequestJSON{Topic: "t"}})
	if err == nil {
		t.Fatal("expected error on empty content")
	}
}
