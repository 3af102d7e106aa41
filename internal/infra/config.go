package infra

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv            string
	Port              string
	DatabaseURL       string
	RedisURL          string
	JWTSecret         string
	JWTIssuer         string
	JWTAudience       string
	AccessTokenTTL    time.Duration
	RefreshTokenTTL   time.Duration
	GeoIPDBPath       string
	GoogleClientID    string
	GoogleIssuer      string
	OpenAIAPIKey      string
	OpenAIModel       string
	OpenAIBaseURL     string
	GeminiAPIKey      string
	GeminiModel       string
	WebhookTimeout    time.Duration
	ProviderWeights   map[string]int
	WorkerConcurrency int
	JobTimeout        time.Duration
	JobTTL            time.Duration
	MaxLoginAttempts  int
	LockoutDuration   time.Duration
	ExportDir         string
	HTTPReadTimeout   time.Duration
	HTTPWriteTimeout  time.Duration
	HTTPIdleTimeout   time.Duration
	RateLimitPerMin   int
	CORSOrigins       []string
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:            getEnv("APP_ENV", "development"),
		Port:              getEnv("PORT", "8080"),
		DatabaseURL:       os.Getenv("DATABASE_URL"),
		RedisURL:          getEnv("REDIS_URL", "redis://localhost:6379/0"),
		JWTSecret:         os.Getenv("JWT_SECRET"),
		JWTIssuer:         getEnv("JWT_ISSUER", "boss-ai"),
		JWTAudience:       getEnv("JWT_AUDIENCE", "boss-ai-clients"),
		AccessTokenTTL:    time.Second * time.Duration(getEnvInt("ACCESS_TOKEN_TTL_SECONDS", 3600)),
		RefreshTokenTTL:   time.Second * time.Duration(getEnvInt("REFRESH_TOKEN_TTL_SECONDS", 604800)),
		GeoIPDBPath:       os.Getenv("GEOIP_DB_PATH"),
		GoogleClientID:    os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleIssuer:      getEnv("GOOGLE_ISSUER", "https://accounts.google.com"),
		OpenAIAPIKey:      os.Getenv("OPENAI_API_KEY"),
		OpenAIModel:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		OpenAIBaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		GeminiAPIKey:      os.Getenv("GEMINI_API_KEY"),
		GeminiModel:       getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
		WebhookTimeout:    time.Second * time.Duration(getEnvInt("WEBHOOK_TIMEOUT_SECONDS", 120)),
		ProviderWeights:   parseWeights(getEnv("PROVIDER_WEIGHTS", "openai=50,gemini=30,webhook=20")),
		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 10),
		JobTimeout:        time.Second * time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 120)),
		JobTTL:            time.Hour * time.Duration(getEnvInt("JOB_TTL_HOURS", 24)),
		MaxLoginAttempts:  getEnvInt("MAX_LOGIN_ATTEMPTS", 5),
		LockoutDuration:   time.Minute * time.Duration(getEnvInt("LOCKOUT_MINUTES", 30)),
		ExportDir:         getEnv("EXPORT_DIR", "./exports"),
		HTTPReadTimeout:   time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout:  time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:   time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitPerMin:   getEnvInt("RATE_LIMIT_PER_MINUTE", 60),
		CORSOrigins:       splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

// parseWeights parses "name=weight" pairs. Entries with missing or
// non-positive weights are skipped.
func parseWeights(raw string) map[string]int {
	weights := make(map[string]int)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		w, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil || w <= 0 {
			continue
		}
		weights[strings.ToLower(strings.TrimSpace(name))] = w
	}
	return weights
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
