package handlers

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"bossai/internal/cache"
	"bossai/internal/domain"
	"bossai/internal/sqlinline"
)

type jobListResponse struct {
	Jobs          []jobSummary `json:"jobs"`
	Page          int          `json:"page"`
	Size          int          `json:"size"`
	TotalElements int64        `json:"totalElements"`
	TotalPages    int64        `json:"totalPages"`
	HasNext       bool         `json:"hasNext"`
}

// JobsList serves the filtered, paginated job listing. Identical criteria
// hit the same cache entry; a search term switches to the search cache tier.
func (a *App) JobsList(w http.ResponseWriter, r *http.Request) {
	f, errMsg := a.parseJobFilter(r)
	if errMsg != "" {
		a.error(w, http.StatusBadRequest, "invalid_query", errMsg)
		return
	}
	f.Normalize()

	kind := cache.KindUserJobs
	if f.HasSearch() {
		kind = cache.KindSearchResults
	}
	cacheUser := f.UserID
	if f.All {
		cacheUser = "all"
	}
	key := cache.Key(kind, cacheUser, f.CacheKey())

	var resp jobListResponse
	if a.Cache.GetJSON(r.Context(), kind, key, &resp) {
		a.json(w, http.StatusOK, resp)
		return
	}

	query, args := sqlinline.BuildJobListQuery(&f)
	rows, err := a.SQL.Query(r.Context(), query, args...)
	if err != nil {
		a.Logger.Error().Err(err).Msg("job list query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not list jobs")
		return
	}
	defer rows.Close()

	jobs := make([]jobSummary, 0, f.Size)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			a.Logger.Error().Err(err).Msg("job scan failed")
			a.error(w, http.StatusInternalServerError, "internal_error", "could not list jobs")
			return
		}
		jobs = append(jobs, jobToSummary(job))
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("job list query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not list jobs")
		return
	}

	countQuery, countArgs := sqlinline.BuildJobCountQuery(&f)
	var total int64
	if err := a.SQL.QueryRow(r.Context(), countQuery, countArgs...).Scan(&total); err != nil {
		a.Logger.Error().Err(err).Msg("job count query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not list jobs")
		return
	}

	size := int64(f.Size)
	resp = jobListResponse{
		Jobs:          jobs,
		Page:          f.Page,
		Size:          f.Size,
		TotalElements: total,
		TotalPages:    (total + size - 1) / size,
		HasNext:       int64(f.Page+1)*size < total,
	}
	a.Cache.SetJSON(r.Context(), kind, key, resp)
	a.json(w, http.StatusOK, resp)
}

// parseJobFilter maps query params onto a JobFilter. Admins may rescope
// with userId= or all=true; everyone else is pinned to their own jobs.
func (a *App) parseJobFilter(r *http.Request) (domain.JobFilter, string) {
	q := r.URL.Query()
	f := domain.JobFilter{
		UserID:        a.currentUserID(r),
		Status:        q.Get("status"),
		ContentType:   q.Get("contentType"),
		Provider:      q.Get("provider"),
		Search:        q.Get("search"),
		SortBy:        q.Get("sortBy"),
		SortDirection: q.Get("sortDirection"),
	}
	if a.isAdmin(r) {
		if target := strings.TrimSpace(q.Get("userId")); target != "" {
			f.UserID = target
		}
		if q.Get("all") == "true" {
			f.All = true
			f.UserID = ""
		}
	}

	var msg string
	if f.CreatedAfter, msg = parseTimeParam(q, "createdAfter"); msg != "" {
		return f, msg
	}
	if f.CreatedBefore, msg = parseTimeParam(q, "createdBefore"); msg != "" {
		return f, msg
	}
	if f.CompletedAfter, msg = parseTimeParam(q, "completedAfter"); msg != "" {
		return f, msg
	}
	if f.CompletedBefore, msg = parseTimeParam(q, "completedBefore"); msg != "" {
		return f, msg
	}
	if f.MinExecutionMs, msg = parseInt64Param(q, "minExecutionTimeMs"); msg != "" {
		return f, msg
	}
	if f.MaxExecutionMs, msg = parseInt64Param(q, "maxExecutionTimeMs"); msg != "" {
		return f, msg
	}
	minRetries, msg := parseInt64Param(q, "minRetryCount")
	if msg != "" {
		return f, msg
	}
	if minRetries != nil {
		v := int(*minRetries)
		f.MinRetryCount = &v
	}
	if f.Page, msg = parseIntParam(q, "page", 0); msg != "" {
		return f, msg
	}
	if f.Size, msg = parseIntParam(q, "size", domain.DefaultPageSize); msg != "" {
		return f, msg
	}
	return f, ""
}

func parseTimeParam(q url.Values, name string) (*time.Time, string) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, ""
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return nil, name + " must be an RFC3339 timestamp"
	}
	return &t, ""
}

func parseInt64Param(q url.Values, name string) (*int64, string) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return nil, ""
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v < 0 {
		return nil, name + " must be a non-negative integer"
	}
	return &v, ""
}

func parseIntParam(q url.Values, name string, fallback int) (int, string) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return fallback, ""
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, name + " must be an integer"
	}
	return v, ""
}
