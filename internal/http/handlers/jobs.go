package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"

	"bossai/internal/domain"
	"bossai/internal/domain/jsoncfg"
	"bossai/internal/infra"
	"bossai/internal/middleware"
	"bossai/internal/providers"
	"bossai/internal/sqlinline"
	"bossai/internal/ws"
)

type generationParams struct {
	Topic          string            `json:"topic"`
	Industry       string            `json:"industry"`
	TargetAudience string            `json:"targetAudience"`
	Tone           string            `json:"tone"`
	Language       string            `json:"language"`
	Keywords       []string          `json:"keywords"`
	MaxWords       int               `json:"maxWords"`
	CustomParams   map[string]string `json:"customParams"`
}

type enqueueJobRequest struct {
	ContentType string           `json:"contentType"`
	Params      generationParams `json:"params"`
	Priority    int              `json:"priority"`
	Provider    string           `json:"provider"`
	Model       string           `json:"model"`
	MaxRetries  int              `json:"maxRetries"`
}

type jobSummary struct {
	JobID       string           `json:"jobId"`
	ContentType string           `json:"contentType,omitempty"`
	Status      domain.JobStatus `json:"status"`
	Provider    string           `json:"provider,omitempty"`
	Priority    int              `json:"priority"`
	CreatedAt   time.Time        `json:"createdAt"`
	CompletedAt *time.Time       `json:"completedAt,omitempty"`
	ExecutionMs *int64           `json:"executionTimeMs,omitempty"`
	RetryCount  int              `json:"retryCount"`
	TokensUsed  int              `json:"tokensUsed"`
	Progress    int              `json:"progress"`
}

type jobDetail struct {
	jobSummary
	Model         string          `json:"model,omitempty"`
	RequestParams json.RawMessage `json:"requestParams,omitempty"`
	ResultContent string          `json:"resultContent,omitempty"`
	Cost          float64         `json:"cost"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
	ErrorDetails  json.RawMessage `json:"errorDetails,omitempty"`
	MaxRetries    int             `json:"maxRetries"`
	NextRetryAt   *time.Time      `json:"nextRetryAt,omitempty"`
	ExpiresAt     *time.Time      `json:"expiresAt,omitempty"`
	StartedAt     *time.Time      `json:"startedAt,omitempty"`
	Metadata      json.RawMessage `json:"metadata,omitempty"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	CanRetry      bool            `json:"canRetry"`
	QueuePosition *int64          `json:"queuePosition,omitempty"`
}

// JobsEnqueue accepts a generation request, persists the QUEUED row and
// hands the job id to the task queue. The row is the source of truth, so a
// failed hand-off is only logged and left to the stuck sweep to redeliver.
func (a *App) JobsEnqueue(w http.ResponseWriter, r *http.Request) {
	var req enqueueJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	req.ContentType = strings.TrimSpace(req.ContentType)
	if req.ContentType == "" {
		a.error(w, http.StatusBadRequest, "invalid_body", "contentType is required")
		return
	}

	params := jsoncfg.RequestJSON{
		Topic:          req.Params.Topic,
		ContentType:    req.ContentType,
		Industry:       req.Params.Industry,
		TargetAudience: req.Params.TargetAudience,
		Tone:           req.Params.Tone,
		Language:       req.Params.Language,
		Keywords:       req.Params.Keywords,
		MaxWords:       req.Params.MaxWords,
		Extras:         req.Params.CustomParams,
	}
	params.Normalize(middleware.LocaleFromContext(r.Context()))
	if err := params.Validate(); err != nil {
		a.error(w, http.StatusBadRequest, "invalid_params", err.Error())
		return
	}

	priority := req.Priority
	if priority == 0 {
		priority = domain.DefaultPriority
	}
	if priority < 1 {
		priority = 1
	}
	if priority > 10 {
		priority = 10
	}
	maxRetries := req.MaxRetries
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	if maxRetries > domain.MaxRetriesCap {
		maxRetries = domain.MaxRetriesCap
	}
	provider := strings.ToLower(strings.TrimSpace(req.Provider))
	if provider != "" && !knownProvider(provider) {
		a.error(w, http.StatusBadRequest, "unknown_provider", "provider must be one of openai, gemini, webhook")
		return
	}
	model := strings.TrimSpace(req.Model)
	userID := a.currentUserID(r)

	var (
		id        int64
		jobID     string
		createdAt time.Time
	)
	err := a.SQL.QueryRow(r.Context(), sqlinline.QInsertJob,
		userID, req.ContentType, priority, nullableText(provider), nullableText(model),
		jsoncfg.MustMarshal(params), maxRetries, int(a.Config.JobTTL.Seconds()), nil,
	).Scan(&id, &jobID, &createdAt)
	if err != nil {
		a.Logger.Error().Err(err).Msg("job insert failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not enqueue job")
		return
	}

	if err := a.Enqueuer.EnqueueGeneration(r.Context(), jobID, priority, 0); err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("task enqueue failed, stuck sweep will redeliver")
	}

	ev := ws.NewJobEvent(jobID, userID, string(domain.JobStatusQueued), 0)
	if err := a.Events.PublishJobEvent(r.Context(), ev); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("event publish failed")
	}
	a.Cache.InvalidateUser(r.Context(), userID)
	a.Cache.InvalidateRealtime(r.Context())

	resp := map[string]any{
		"jobId":            jobID,
		"status":           domain.JobStatusQueued,
		"websocketChannel": domain.EventChannel(userID),
		"createdAt":        createdAt,
	}
	if pos := a.queuePosition(r, jobID); pos != nil {
		resp["queuePosition"] = *pos
	}
	a.json(w, http.StatusAccepted, resp)
}

// JobDetails returns the full job record. Admins may inspect any user's
// job; everyone else only their own.
func (a *App) JobDetails(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
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

	detail := jobToDetail(job)
	if job.Status == domain.JobStatusQueued {
		detail.QueuePosition = a.queuePosition(r, jobID)
	}
	a.json(w, http.StatusOK, detail)
}

// JobCancel cancels a QUEUED or PROCESSING job owned by the caller.
func (a *App) JobCancel(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	userID := a.currentUserID(r)

	job, err := a.loadJobForUser(r, jobID, userID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_job", "job does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not cancel job")
		return
	}
	if !job.Cancellable() {
		a.error(w, http.StatusConflict, "not_cancellable", "only queued or processing jobs can be cancelled")
		return
	}

	var (
		dbID   int64
		status domain.JobStatus
	)
	err = a.SQL.QueryRow(r.Context(), sqlinline.QCancelJob, jobID, userID).Scan(&dbID, &status)
	if infra.IsNoRows(err) {
		// Finished between the check and the update.
		a.error(w, http.StatusConflict, "not_cancellable", "only queued or processing jobs can be cancelled")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("job cancel failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not cancel job")
		return
	}

	ev := ws.NewJobEvent(jobID, userID, string(domain.JobStatusCancelled), 100)
	if err := a.Events.PublishJobEvent(r.Context(), ev); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", jobID).Msg("event publish failed")
	}
	a.Cache.InvalidateUser(r.Context(), userID)
	a.Cache.InvalidateRealtime(r.Context())

	a.json(w, http.StatusOK, map[string]any{
		"jobId":   jobID,
		"status":  status,
		"message": "job cancelled",
	})
}

// JobRetry spawns a fresh QUEUED job copying the original's request. Only
// failed or cancelled jobs with retry budget left qualify.
func (a *App) JobRetry(w http.ResponseWriter, r *http.Request) {
	jobID := chi.URLParam(r, "jobId")
	userID := a.currentUserID(r)

	job, err := a.loadJobForUser(r, jobID, userID)
	if infra.IsNoRows(err) {
		a.error(w, http.StatusNotFound, "unknown_job", "job does not exist")
		return
	}
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("job lookup failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not retry job")
		return
	}
	if !job.CanRetry() {
		a.error(w, http.StatusConflict, "not_retryable", "job is not in a retryable state or has exhausted its retries")
		return
	}

	meta := jsoncfg.MustMarshal(jsoncfg.RetryMetadata{
		OriginalJobID:    job.JobID,
		RetryOf:          job.JobID,
		RetryInitiatedAt: time.Now().UTC().Format(time.RFC3339),
	})

	var (
		newID     int64
		newJobID  string
		createdAt time.Time
	)
	err = a.SQL.QueryRow(r.Context(), sqlinline.QInsertRetryJob,
		job.JobID, int(a.Config.JobTTL.Seconds()), meta,
	).Scan(&newID, &newJobID, &createdAt)
	if err != nil {
		a.Logger.Error().Err(err).Str("job_id", jobID).Msg("retry insert failed")
		a.error(w, http.StatusInternalServerError, "internal_error", "could not retry job")
		return
	}

	if err := a.Enqueuer.EnqueueGeneration(r.Context(), newJobID, job.Priority, 0); err != nil {
		a.Logger.Error().Err(err).Str("job_id", newJobID).Msg("task enqueue failed, stuck sweep will redeliver")
	}

	ev := ws.NewJobEvent(newJobID, userID, string(domain.JobStatusQueued), 0)
	if err := a.Events.PublishJobEvent(r.Context(), ev); err != nil {
		a.Logger.Warn().Err(err).Str("job_id", newJobID).Msg("event publish failed")
	}
	a.Cache.InvalidateUser(r.Context(), userID)
	a.Cache.InvalidateRealtime(r.Context())

	resp := map[string]any{
		"jobId":            newJobID,
		"originalJobId":    job.JobID,
		"status":           domain.JobStatusQueued,
		"websocketChannel": domain.EventChannel(userID),
		"message":          "retry scheduled",
		"createdAt":        createdAt,
	}
	if pos := a.queuePosition(r, newJobID); pos != nil {
		resp["queuePosition"] = *pos
	}
	a.json(w, http.StatusAccepted, resp)
}

// loadJob resolves a job for display: owner-scoped for users, unrestricted
// for admins.
func (a *App) loadJob(r *http.Request, jobID, userID string) (domain.Job, error) {
	if a.isAdmin(r) {
		return scanJob(a.SQL.QueryRow(r.Context(), sqlinline.QSelectJobByJobID, jobID))
	}
	return a.loadJobForUser(r, jobID, userID)
}

func (a *App) loadJobForUser(r *http.Request, jobID, userID string) (domain.Job, error) {
	return scanJob(a.SQL.QueryRow(r.Context(), sqlinline.QSelectJobForUser, jobID, userID))
}

func (a *App) queuePosition(r *http.Request, jobID string) *int64 {
	var pos int64
	if err := a.SQL.QueryRow(r.Context(), sqlinline.QQueuePosition, jobID).Scan(&pos); err != nil {
		a.Logger.Debug().Err(err).Str("job_id", jobID).Msg("queue position lookup failed")
		return nil
	}
	return &pos
}

// scanJob reads one row in jobColumns order.
func scanJob(row pgx.Row) (domain.Job, error) {
	var (
		j                                                          domain.Job
		contentType, provider, model, resultContent, errorMessage *string
		requestParams, errorDetails, metadata                      []byte
	)
	err := row.Scan(
		&j.ID, &j.JobID, &j.UserID, &contentType, &j.Status, &j.Priority,
		&provider, &model, &requestParams, &resultContent, &j.TokensUsed, &j.Cost,
		&errorMessage, &errorDetails, &j.RetryCount, &j.MaxRetries,
		&j.NextRetryAt, &j.ExpiresAt, &j.StartedAt, &j.CompletedAt,
		&j.ProcessingMs, &metadata, &j.CreatedAt, &j.UpdatedAt,
	)
	if err != nil {
		return domain.Job{}, err
	}
	if contentType != nil {
		j.ContentType = *contentType
	}
	if provider != nil {
		j.Provider = *provider
	}
	if model != nil {
		j.Model = *model
	}
	if resultContent != nil {
		j.ResultContent = *resultContent
	}
	if errorMessage != nil {
		j.ErrorMessage = *errorMessage
	}
	j.RequestParams = requestParams
	j.ErrorDetails = errorDetails
	j.Metadata = metadata
	return j, nil
}

func jobToSummary(j domain.Job) jobSummary {
	return jobSummary{
		JobID:       j.JobID,
		ContentType: j.ContentType,
		Status:      j.Status,
		Provider:    j.Provider,
		Priority:    j.Priority,
		CreatedAt:   j.CreatedAt,
		CompletedAt: j.CompletedAt,
		ExecutionMs: j.ProcessingMs,
		RetryCount:  j.RetryCount,
		TokensUsed:  j.TokensUsed,
		Progress:    j.Progress(),
	}
}

func jobToDetail(j domain.Job) jobDetail {
	return jobDetail{
		jobSummary:    jobToSummary(j),
		Model:         j.Model,
		RequestParams: j.RequestParams,
		ResultContent: j.ResultContent,
		Cost:          j.Cost,
		ErrorMessage:  j.ErrorMessage,
		ErrorDetails:  j.ErrorDetails,
		MaxRetries:    j.MaxRetries,
		NextRetryAt:   j.NextRetryAt,
		ExpiresAt:     j.ExpiresAt,
		StartedAt:     j.StartedAt,
		Metadata:      j.Metadata,
		UpdatedAt:     j.UpdatedAt,
		CanRetry:      j.CanRetry(),
	}
}

func knownProvider(name string) bool {
	switch name {
	case providers.NameOpenAI, providers.NameGemini, providers.NameWebhook:
		return true
	}
	return false
}
