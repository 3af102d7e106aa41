package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"
)

// Paging limits for job listings.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Sort directions accepted by job listings.
const (
	SortAsc  = "ASC"
	SortDesc = "DESC"
)

// jobSortColumns whitelists the sortable fields and resolves each to its
// column. The ORDER BY clause is always built from this map, never from
// request input.
var jobSortColumns = map[string]string{
	"createdAt":       "created_at",
	"completedAt":     "completed_at",
	"status":          "status",
	"contentType":     "content_type",
	"executionTimeMs": "processing_time_ms",
	"retryCount":      "retry_count",
}

// JobFilter carries the optional criteria of a job listing request. The
// zero value of each field means "not filtered". UserID scopes the query
// and is always present unless All is set by an admin.
type JobFilter struct {
	UserID          string
	All             bool
	Status          string
	ContentType     string
	Provider        string
	CreatedAfter    *time.Time
	CreatedBefore   *time.Time
	CompletedAfter  *time.Time
	CompletedBefore *time.Time
	Search          string
	MinExecutionMs  *int64
	MaxExecutionMs  *int64
	MinRetryCount   *int
	SortBy          string
	SortDirection   string
	Page            int
	Size            int
}

// Normalize clamps paging, resolves the sort direction, and falls back to
// the default sort when the requested field is not whitelisted.
func (f *JobFilter) Normalize() {
	if f.Page < 0 {
		f.Page = 0
	}
	if f.Size <= 0 {
		f.Size = DefaultPageSize
	}
	if f.Size > MaxPageSize {
		f.Size = MaxPageSize
	}
	if _, ok := jobSortColumns[f.SortBy]; !ok {
		f.SortBy = "createdAt"
	}
	if dir := strings.ToUpper(f.SortDirection); dir == SortAsc {
		f.SortDirection = SortAsc
	} else {
		f.SortDirection = SortDesc
	}
	f.Status = strings.ToUpper(strings.TrimSpace(f.Status))
	f.ContentType = strings.TrimSpace(f.ContentType)
	f.Provider = strings.ToLower(strings.TrimSpace(f.Provider))
	f.Search = strings.TrimSpace(f.Search)
}

// SortColumn resolves the whitelisted ORDER BY column for the filter.
func (f *JobFilter) SortColumn() string {
	if col, ok := jobSortColumns[f.SortBy]; ok {
		return col
	}
	return "created_at"
}

// HasSearch reports whether a full-text search term is present.
func (f *JobFilter) HasSearch() bool {
	return f.Search != ""
}

// CacheKey derives a stable digest of every criteria field, so equal
// filters share a cache entry and any difference produces a new one.
func (f *JobFilter) CacheKey() string {
	var b strings.Builder
	writeField := func(name, value string) {
		if value == "" {
			return
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(value)
		b.WriteByte('|')
	}
	writeField("user", f.UserID)
	if f.All {
		writeField("all", "1")
	}
	writeField("status", f.Status)
	writeField("contentType", f.ContentType)
	writeField("provider", f.Provider)
	writeField("createdAfter", formatTimePtr(f.CreatedAfter))
	writeField("createdBefore", formatTimePtr(f.CreatedBefore))
	writeField("completedAfter", formatTimePtr(f.CompletedAfter))
	writeField("completedBefore", formatTimePtr(f.CompletedBefore))
	writeField("search", f.Search)
	if f.MinExecutionMs != nil {
		writeField("minExecMs", fmt.Sprintf("%d", *f.MinExecutionMs))
	}
	if f.MaxExecutionMs != nil {
		writeField("maxExecMs", fmt.Sprintf("%d", *f.MaxExecutionMs))
	}
	if f.MinRetryCount != nil {
		writeField("minRetries", fmt.Sprintf("%d", *f.MinRetryCount))
	}
	writeField("sort", f.SortBy+":"+f.SortDirection)
	writeField("page", fmt.Sprintf("%d", f.Page))
	writeField("size", fmt.Sprintf("%d", f.Size))

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:8])
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}
