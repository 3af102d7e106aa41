package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("PORT", "")
	t.Setenv("ACCESS_TOKEN_TTL_SECONDS", "")
	t.Setenv("PROVIDER_WEIGHTS", "")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port mismatch: got %q want %q", cfg.Port, "8080")
	}
	if cfg.AccessTokenTTL != time.Hour {
		t.Fatalf("AccessTokenTTL mismatch: got %v want %v", cfg.AccessTokenTTL, time.Hour)
	}
	if cfg.RefreshTokenTTL != 7*24*time.Hour {
		t.Fatalf("RefreshTokenTTL mismatch: got %v want %v", cfg.RefreshTokenTTL, 7*24*time.Hour)
	}
	if cfg.MaxLoginAttempts != 5 {
		t.Fatalf("MaxLoginAttempts mismatch: got %d want 5", cfg.MaxLoginAttempts)
	}
	if cfg.LockoutDuration != 30*time.Minute {
		t.Fatalf("LockoutDuration mismatch: got %v want %v", cfg.LockoutDuration, 30*time.Minute)
	}
	if got := cfg.ProviderWeights["openai"]; got != 50 {
		t.Fatalf("ProviderWeights[openai] = %d, want 50", got)
	}
	if got := cfg.ProviderWeights["webhook"]; got != 20 {
		t.Fatalf("ProviderWeights[webhook] = %d, want 20", got)
	}
}

func TestLoadConfigRequiresDatabaseURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "test-secret")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error when DATABASE_URL missing")
	}
}

func TestLoadConfigRequiresJWTSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("JWT_SECRET", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatalf("LoadConfig expected error when JWT_SECRET missing")
	}
}

func TestParseWeights(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want map[string]int
	}{
		{
			name: "well formed",
			raw:  "openai=50,gemini=30,webhook=20",
			want: map[string]int{"openai": 50, "gemini": 30, "webhook": 20},
		},
		{
			name: "spaces and mixed case",
			raw:  " OpenAI = 10 , gemini=5 ",
			want: map[string]int{"openai": 10, "gemini": 5},
		},
		{
			name: "invalid entries skipped",
			raw:  "openai=abc,gemini=-2,webhook=7,stray",
			want: map[string]int{"webhook": 7},
		},
		{
			name: "empty",
			raw:  "",
			want: map[string]int{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := parseWeights(tc.raw)
			if len(got) != len(tc.want) {
				t.Fatalf("parseWeights(%q) = %v, want %v", tc.raw, got, tc.want)
			}
			for name, weight := range tc.want {
				if got[name] != weight {
					t.Fatalf("parseWeights(%q)[%s] = %d, want %d", tc.raw, name, got[name], weight)
				}
			}
		})
	}
}
