package domain

import "time"

// Catalog categories curated by admins. Users pick selections from each.
const (
	CategoryTone           = "tone"
	CategoryIndustry       = "industry"
	CategoryLanguage       = "language"
	CategoryTargetAudience = "target-audience"
	CategoryContentType    = "content-type"
)

// Categories lists every known catalog category in display order.
var Categories = []string{
	CategoryTone,
	CategoryIndustry,
	CategoryLanguage,
	CategoryTargetAudience,
	CategoryContentType,
}

// ValidCategory reports whether the given category is a known catalog.
func ValidCategory(category string) bool {
	for _, c := range Categories {
		if c == category {
			return true
		}
	}
	return false
}

// ConfigPrimary is one admin-curated catalog option.
type ConfigPrimary struct {
	ID          string
	Category    string
	Value       string
	Label       string
	Description string
	Language    string
	SortOrder   int
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// UserConfig is a catalog option merged with one user's selection state,
// as served by the v_user_configs view.
type UserConfig struct {
	ID          string     `json:"id"`
	Category    string     `json:"category"`
	Value       string     `json:"value"`
	Label       string     `json:"label"`
	Description string     `json:"description,omitempty"`
	Language    string     `json:"language"`
	SortOrder   int        `json:"sortOrder"`
	IsActive    bool       `json:"isActive"`
	IsSelected  bool       `json:"isSelected"`
	SelectedAt  *time.Time `json:"selectedAt,omitempty"`
}
