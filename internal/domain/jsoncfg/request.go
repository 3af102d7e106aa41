package jsoncfg

import (
	"encoding/json"
	"fmt"
	"strings"
)

// RequestJSON is the generation request payload persisted on a job row
// and handed to the providers.
type RequestJSON struct {
	Version        string            `json:"version"`
	Topic          string            `json:"topic"`
	ContentType    string            `json:"content_type"`
	Industry       string            `json:"industry"`
	TargetAudience string            `json:"target_audience"`
	Tone           string            `json:"tone"`
	Language       string            `json:"language"`
	Keywords       []string          `json:"keywords"`
	MaxWords       int               `json:"max_words"`
	Extras         map[string]string `json:"extras,omitempty"`
}

const (
	// DefaultRequestVersion represents the schema version persisted for request params.
	DefaultRequestVersion = "2025-01"
	// DefaultRequestLanguage is applied when no language preference is provided.
	DefaultRequestLanguage = "vi"
	// DefaultMaxWords is used when the request omits a word budget.
	DefaultMaxWords = 500
	// MaxWordsCap bounds the word budget a single job may request.
	MaxWordsCap = 2000

	MaxTopicLen          = 500
	MaxContentTypeLen    = 20
	MaxIndustryLen       = 100
	MaxTargetAudienceLen = 200
	MaxToneLen           = 50
	MaxLanguageLen       = 10
	MaxKeywords          = 10
)

// Normalize ensures the request JSON respects server defaults and limits.
func (r *RequestJSON) Normalize(preferredLocale string) {
	if r == nil {
		return
	}
	if r.Version == "" {
		r.Version = DefaultRequestVersion
	}
	if r.MaxWords <= 0 {
		r.MaxWords = DefaultMaxWords
	}
	if r.MaxWords > MaxWordsCap {
		r.MaxWords = MaxWordsCap
	}
	if r.Language == "" {
		if preferredLocale != "" {
			r.Language = preferredLocale
		} else {
			r.Language = DefaultRequestLanguage
		}
	}
	if len(r.Keywords) > MaxKeywords {
		r.Keywords = r.Keywords[:MaxKeywords]
	}
}

// Validate ensures the request JSON satisfies the required contract before persistence.
func (r RequestJSON) Validate() error {
	if strings.TrimSpace(r.Topic) == "" {
		return fmt.Errorf("topic is required")
	}
	if len(r.Topic) > MaxTopicLen {
		return fmt.Errorf("topic must be at most %d characters", MaxTopicLen)
	}
	if len(r.ContentType) > MaxContentTypeLen {
		return fmt.Errorf("content_type must be at most %d characters", MaxContentTypeLen)
	}
	if len(r.Industry) > MaxIndustryLen {
		return fmt.Errorf("industry must be at most %d characters", MaxIndustryLen)
	}
	if len(r.TargetAudience) > MaxTargetAudienceLen {
		return fmt.Errorf("target_audience must be at most %d characters", MaxTargetAudienceLen)
	}
	if len(r.Tone) > MaxToneLen {
		return fmt.Errorf("tone must be at most %d characters", MaxToneLen)
	}
	if len(r.Language) > MaxLanguageLen {
		return fmt.Errorf("language must be at most %d characters", MaxLanguageLen)
	}
	if r.MaxWords < 1 || r.MaxWords > MaxWordsCap {
		return fmt.Errorf("max_words must be between 1 and %d", MaxWordsCap)
	}
	return nil
}

// Prompt renders the instruction text sent to a text generation provider.
func (r RequestJSON) Prompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write %s content about: %s.\n", orDefault(r.ContentType, "marketing"), strings.TrimSpace(r.Topic))
	if r.Industry != "" {
		fmt.Fprintf(&b, "Industry: %s.\n", r.Industry)
	}
	if r.TargetAudience != "" {
		fmt.Fprintf(&b, "Target audience: %s.\n", r.TargetAudience)
	}
	if r.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s.\n", r.Tone)
	}
	if len(r.Keywords) > 0 {
		fmt.Fprintf(&b, "Include the keywords: %s.\n", strings.Join(r.Keywords, ", "))
	}
	fmt.Fprintf(&b, "Respond in language %q using at most %d words.", r.Language, r.MaxWords)
	return b.String()
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// RetryMetadata is stored on the replacement row created by a retry.
type RetryMetadata struct {
	OriginalJobID    string `json:"originalJobId"`
	RetryOf          string `json:"retryOf"`
	RetryInitiatedAt string `json:"retryInitiatedAt"`
}

func MustMarshal(v any) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("json marshal: %w", err))
	}
	return b
}
