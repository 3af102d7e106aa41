package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"bossai/internal/domain"
	"bossai/internal/infra"
	"bossai/internal/sqlinline"
	"bossai/pkg/zip"
)

const exportStampFormat = "20060102_150405"

// exportLimit bounds how many jobs a single admin export may pull.
const exportLimit = 1000

// JobDownload serves a completed job's content as txt, json or raw bytes.
func (a *App) JobDownload(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	format := strings.ToLower(strings.TrimSpace(r.URL.Query().Get("format")))
	if format == "" {
		format = "txt"
	}
	switch format {
	case "txt", "json", "raw":
	default:
		a.error(w, http.StatusBadRequest, "unknown_format", "format must be txt, json or raw")
		return
	}

	userID := a.currentUserID(r)
	job, err := a.loadJob(r, jobID, userID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_job", "job does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not load job")
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.error(w, http.StatusConflict, "not_completed", "only completed jobs can be downloaded")
		return
	}

	stamp := time.Now()
	if job.CompletedAt != nil {
		stamp = *job.CompletedAt
	}
	ext := "txt"
	if format == "json" {
		ext = "json"
	}
	filename := fmt.Sprintf("job_%s_content_%s.%s", job.JobID, stamp.UTC().Format(exportStampFormat), ext)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))

	switch format {
	case "raw":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(job.ResultContent))
	case "txt":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(renderJobText(job)))
	case "json":
		doc := map[string]any{
			"jobId":       job.JobID,
			"contentType": job.ContentType,
			"provider":    job.Provider,
			"model":       job.Model,
			"tokensUsed":  job.TokensUsed,
			"cost":        job.Cost,
			"createdAt":   job.CreatedAt,
			"completedAt": job.CompletedAt,
			"content":     job.ResultContent,
		}
		if job.ProcessingMs != nil {
			doc["processingTimeMs"] = *job.ProcessingMs
		}
		body, err := json.MarshalIndent(doc, "", "  ")
		if err != nil {
			a.Logger.Error().Err(err).Str("job_id", jobID).Msg("download marshal failed")
			a.error(w, http.StatusInternalServerError, "internal_error", "could not render download")
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(body)
	}
}

// AdminJobsExport streams a zip of per-job text exports matching the filter
// and archives a copy under the export directory.
func (a *App) AdminJobsExport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := domain.JobFilter{
		All:           true,
		Status:        strings.ToUpper(strings.TrimSpace(q.Get("status"))),
		SortBy:        "createdAt",
		SortDirection: domain.SortAsc,
		Size:          exportLimit,
	}
	var msg string
	if f.CreatedAfter, msg = parseTimeParam(q, "createdAfter"); msg != "" {
		a.error(w, http.StatusBadRequest, "invalid_query", msg)
		return
	}
	if f.CreatedBefore, msg = parseTimeParam(q, "createdBefore"); msg != "" {
		a.error(w, http.StatusBadRequest, "invalid_query", msg)
		return
	}

	query, args := sqlinline.BuildJobListQuery(&f)
	rows, err := a.SQL.Query(r.Context(), query, args...)
	if err != nil {
		a.Logger.Error().Err(err).Msg("export query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not export jobs")
		return
	}
	defer rows.Close()

	entries := make([]zip.Entry, 0, 64)
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			a.Logger.Error().Err(err).Msg("export scan failed")
			a.error(w, http.StatusInternalServerError, "internal_error", "could not export jobs")
			return
		}
		entries = append(entries, zip.Entry{
			Name: fmt.Sprintf("job_%s.txt", job.JobID),
			Data: []byte(renderJobText(job)),
		})
	}
	if err := rows.Err(); err != nil {
		a.Logger.Error().Err(err).Msg("export query failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not export jobs")
		return
	}

	archive, err := zip.Archive(entries)
	if err != nil {
		a.Logger.Error().Err(err).Msg("export archive failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not export jobs")
		return
	}

	exportKey := fmt.Sprintf("jobs_export_%s.zip", time.Now().UTC().Format(exportStampFormat))
	if a.Exports != nil {
		if key, werr := a.Exports.Write(r.Context(), exportKey, archive); werr != nil {
			a.Logger.Warn().Err(werr).Str("key", exportKey).Msg("export archive copy failed")
		} else {
			exportKey = key
		}
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("X-Export-Key", exportKey)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportKey))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

// renderJobText formats a job as the exported text document: a commented
// metadata header followed by the content.
func renderJobText(j domain.Job) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Job ID: %s\n", j.JobID)
	if j.ContentType != "" {
		fmt.Fprintf(&b, "# Content Type: %s\n", j.ContentType)
	}
	if j.Provider != "" {
		fmt.Fprintf(&b, "# Provider: %s\n", j.Provider)
	}
	fmt.Fprintf(&b, "# Created: %s\n", j.CreatedAt.UTC().Format(time.RFC3339))
	if j.CompletedAt != nil {
		fmt.Fprintf(&b, "# Completed: %s\n", j.CompletedAt.UTC().Format(time.RFC3339))
	}
	fmt.Fprintf(&b, "# Tokens Used: %d\n\n", j.TokensUsed)
	b.WriteString(j.ResultContent)
	return b.String()
}
