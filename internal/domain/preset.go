package domain

import (
	"encoding/json"
	"time"
)

// Preset is a saved bundle of generation settings a user can reapply.
type Preset struct {
	ID             string
	UserID         string
	Name           string
	Description    string
	ContentType    string
	Industry       string
	TargetAudience string
	Tone           string
	Language       string
	CustomParams   json.RawMessage
	IsDefault      bool
	UsageCount     int
	LastUsedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Preset field length limits, enforced at the handler boundary.
const (
	PresetNameMax           = 100
	PresetDescriptionMax    = 500
	PresetContentTypeMax    = 20
	PresetIndustryMax       = 100
	PresetTargetAudienceMax = 200
	PresetToneMax           = 50
	PresetLanguageMax       = 10
)
