package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"bossai/internal/cache"
	"bossai/internal/domain"
	"bossai/internal/sqlinline"
)

// JobStatistics aggregates the caller's job history. Served through the
// stats cache tier.
func (a *App) JobStatistics(w http.ResponseWriter, r *http.Request) {
	userID := a.currentUserID(r)

	key := cache.Key(cache.KindJobStats, userID)
	var stats domain.JobStatistics
	if a.Cache.GetJSON(r.Context(), cache.KindJobStats, key, &stats) {
		a.json(w, http.StatusOK, stats)
		return
	}

	err := a.SQL.QueryRow(r.Context(), sqlinline.QUserJobStats, userID).Scan(
		&stats.TotalJobs, &stats.Queued, &stats.Processing, &stats.Completed,
		&stats.Failed, &stats.Cancelled, &stats.Expired,
		&stats.TotalTokensUsed, &stats.TotalCost,
		&stats.AvgProcessingMs, &stats.TotalProcessingMs,
	)
	if err != nil {
		a.Logger.Error().Err(err).Msg("job statistics query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load statistics")
		return
	}
	stats.ComputeSuccessRate()

	a.Cache.SetJSON(r.Context(), cache.KindJobStats, key, stats)
	a.json(w, http.StatusOK, stats)
}

// QueueMetrics reports the live state of the global generation queue,
// cached briefly since every dashboard polls it.
func (a *App) QueueMetrics(w http.ResponseWriter, r *http.Request) {
	key := cache.Key(cache.KindRealtimeMetrics, "global")
	var m domain.QueueMetrics
	if a.Cache.GetJSON(r.Context(), cache.KindRealtimeMetrics, key, &m) {
		a.json(w, http.StatusOK, m)
		return
	}

	err := a.SQL.QueryRow(r.Context(), sqlinline.QQueueMetrics).Scan(
		&m.QueuedCount, &m.ProcessingCount, &m.AvgWaitMs, &m.OldestQueuedAgeMs,
		&m.AvgProcessingMs, &m.CompletedLastHour, &m.FailedLastHour,
	)
	if err != nil {
		a.Logger.Error().Err(err).Msg("queue metrics query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load queue metrics")
		return
	}

	a.Cache.SetJSON(r.Context(), cache.KindRealtimeMetrics, key, m)
	a.json(w, http.StatusOK, m)
}

// AdminHourlyStats returns the per-hour activity series, optionally scoped
// to one user with ?userId=.
func (a *App) AdminHourlyStats(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	hours := 24
	if raw := strings.TrimSpace(q.Get("hours")); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > 24*30 {
			a.error(w, http.StatusBadRequest, "invalid_query", "hours must be between 1 and 720")
			return
		}
		hours = v
	}
	var userArg any
	if target := strings.TrimSpace(q.Get("userId")); target != "" {
		userArg = target
	}

	rows, err := a.SQL.Query(r.Context(), sqlinline.QHourlyJobStats, userArg, hours)
	if err != nil {
		a.Logger.Error().Err(err).Msg("hourly stats query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load hourly statistics")
		return
	}
	defer rows.Close()

	buckets := make([]domain.HourlyStat, 0, hours)
	for rows.Next() {
		var s domain.HourlyStat
		if err := rows.Scan(&s.Hour, &s.Total, &s.Completed, &s.Failed, &s.TokensUsed); err != nil {
			a.Logger.Error().Err(err).Msg("hourly stats scan failed")
			a.error(w, http.StatusInternalServerError, "internal_error", "could not load hourly statistics")
			return
		}
		buckets = append(buckets, s)
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("hourly stats query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load hourly statistics")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"hours": hours, "buckets": buckets})
}
