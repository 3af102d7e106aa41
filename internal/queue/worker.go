package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"bossai/internal/cache"
	"bossai/internal/domain"
	"bossai/internal/domain/jsoncfg"
	"bossai/internal/infra"
	"bossai/internal/providers"
	"bossai/internal/sqlinline"
	"bossai/internal/ws"
)

// TaskScheduler schedules a generation task, optionally delayed. Satisfied
// by Enqueuer; stubbed in tests.
type TaskScheduler interface {
	EnqueueGeneration(ctx context.Context, jobID string, priority int, delay time.Duration) error
}

var jobsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "bossai_jobs_processed_total",
	Help: "Generation jobs by terminal outcome.",
}, []string{"outcome"})

// Processor executes one generation job per task: claim the row, run the
// provider router, persist the outcome, push an event, drop stale cache.
type Processor struct {
	SQL        infra.SQLExecutor
	Generator  providers.Generator
	Events     ws.Publisher
	Cache      *cache.Cache
	Scheduler  TaskScheduler
	Logger     zerolog.Logger
	JobTimeout time.Duration
}

type claimedJob struct {
	ID            int64
	JobID         string
	UserID        string
	ContentType   *string
	Priority      int
	Provider      *string
	Model         *string
	RequestParams []byte
	RetryCount    int
	MaxRetries    int
	Metadata      []byte
}

func (p *Processor) HandleGenerationTask(ctx context.Context, t *asynq.Task) error {
	var payload GenerationPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal generation payload: %w", err)
	}

	job, err := p.claim(ctx, payload.JobID)
	if err != nil {
		if infra.IsNoRows(err) {
			// Cancelled, expired, or already picked up elsewhere.
			p.Logger.Info().Str("job_id", payload.JobID).Msg("job not claimable, skipping")
			return nil
		}
		return fmt.Errorf("claim job %s: %w", payload.JobID, err)
	}

	p.publish(ctx, ws.NewJobEvent(job.JobID, job.UserID, string(domain.JobStatusProcessing), 50))
	p.Cache.InvalidateUser(ctx, job.UserID)

	var params jsoncfg.RequestJSON
	if err := json.Unmarshal(job.RequestParams, &params); err != nil {
		// Malformed params never heal on retry.
		return p.fail(ctx, job, 0, fmt.Errorf("malformed request params: %w", err), false)
	}

	genCtx := ctx
	if p.JobTimeout > 0 {
		var cancel context.CancelFunc
		genCtx, cancel = context.WithTimeout(ctx, p.JobTimeout)
		defer cancel()
	}

	req := providers.Request{
		JobID:  job.JobID,
		UserID: job.UserID,
		Params: params,
	}
	if job.Provider != nil {
		req.Provider = *job.Provider
	}
	if job.Model != nil {
		req.Model = *job.Model
	}

	start := time.Now()
	res, err := p.Generator.Generate(genCtx, req)
	elapsedMs := time.Since(start).Milliseconds()

	if err != nil {
		retryable := job.RetryCount < job.MaxRetries
		return p.fail(ctx, job, elapsedMs, err, retryable)
	}
	return p.complete(ctx, job, params, res, elapsedMs)
}

func (p *Processor) claim(ctx context.Context, jobID string) (*claimedJob, error) {
	var job claimedJob
	row := p.SQL.QueryRow(ctx, sqlinline.QWorkerClaimJob, jobID)
	err := row.Scan(
		&job.ID,
		&job.JobID,
		&job.UserID,
		&job.ContentType,
		&job.Priority,
		&job.Provider,
		&job.Model,
		&job.RequestParams,
		&job.RetryCount,
		&job.MaxRetries,
		&job.Metadata,
	)
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (p *Processor) complete(ctx context.Context, job *claimedJob, params jsoncfg.RequestJSON, res *providers.Result, elapsedMs int64) error {
	meta := map[string]any{"title": contentTitle(params)}
	if res.FinishReason != "" {
		meta["finishReason"] = res.FinishReason
	}

	var jobID, userID string
	row := p.SQL.QueryRow(ctx, sqlinline.QWorkerCompleteJob,
		job.ID, res.Content, res.Provider, res.Model, res.TokensUsed, res.Cost, elapsedMs,
		jsoncfg.MustMarshal(meta))
	if err := row.Scan(&jobID, &userID); err != nil {
		if infra.IsNoRows(err) {
			// The job was cancelled while processing; the result is discarded.
			p.Logger.Info().Str("job_id", job.JobID).Msg("job no longer processing, result dropped")
			return nil
		}
		return fmt.Errorf("complete job %s: %w", job.JobID, err)
	}

	jobsProcessed.WithLabelValues("completed").Inc()
	p.Logger.Info().
		Str("job_id", jobID).
		Str("provider", res.Provider).
		Int("tokens", res.TokensUsed).
		Int64("elapsed_ms", elapsedMs).
		Msg("job completed")

	ev := ws.NewJobEvent(jobID, userID, string(domain.JobStatusCompleted), 100)
	ev.TokensUsed = res.TokensUsed
	ev.ExecutionMs = elapsedMs
	p.publish(ctx, ev)
	p.Cache.InvalidateUser(ctx, userID)
	p.Cache.InvalidateRealtime(ctx)
	return nil
}

// contentTitle derives a display title for the finished content from the
// request topic, title-cased for the request language.
func contentTitle(params jsoncfg.RequestJSON) string {
	topic := strings.TrimSpace(params.Topic)
	if topic == "" {
		return ""
	}
	tag := language.Make(params.Language)
	if tag == language.Und {
		tag = language.English
	}
	return cases.Title(tag).String(topic)
}

func (p *Processor) fail(ctx context.Context, job *claimedJob, elapsedMs int64, genErr error, retryable bool) error {
	details := jsoncfg.MustMarshal(map[string]any{
		"error":   genErr.Error(),
		"attempt": job.RetryCount + 1,
	})

	if retryable {
		delay := domain.RetryBackoff(job.RetryCount + 1)
		var jobID, userID string
		var retryCount int
		var nextRetryAt time.Time
		row := p.SQL.QueryRow(ctx, sqlinline.QWorkerRequeueJob, job.ID, genErr.Error(), details, int(delay.Seconds()))
		if err := row.Scan(&jobID, &userID, &retryCount, &nextRetryAt); err != nil {
			if infra.IsNoRows(err) {
				return nil
			}
			return fmt.Errorf("requeue job %s: %w", job.JobID, err)
		}
		if err := p.Scheduler.EnqueueGeneration(ctx, jobID, job.Priority, delay); err != nil {
			// The row stays QUEUED; the maintenance loop will re-enqueue it.
			p.Logger.Error().Err(err).Str("job_id", jobID).Msg("requeue enqueue failed")
		}

		jobsProcessed.WithLabelValues("requeued").Inc()
		p.Logger.Warn().
			Err(genErr).
			Str("job_id", jobID).
			Int("retry", retryCount).
			Dur("delay", delay).
			Msg("job requeued after failure")

		ev := ws.NewJobEvent(jobID, userID, string(domain.JobStatusQueued), 0)
		ev.Message = fmt.Sprintf("retry %d of %d scheduled", retryCount, job.MaxRetries)
		p.publish(ctx, ev)
		p.Cache.InvalidateUser(ctx, userID)
		return nil
	}

	var jobID, userID string
	var retryCount int
	row := p.SQL.QueryRow(ctx, sqlinline.QWorkerFailJob, job.ID, genErr.Error(), details, elapsedMs)
	if err := row.Scan(&jobID, &userID, &retryCount); err != nil {
		if infra.IsNoRows(err) {
			return nil
		}
		return fmt.Errorf("fail job %s: %w", job.JobID, err)
	}

	jobsProcessed.WithLabelValues("failed").Inc()
	p.Logger.Error().
		Err(genErr).
		Str("job_id", jobID).
		Int("retries", retryCount).
		Msg("job failed permanently")

	ev := ws.NewJobEvent(jobID, userID, string(domain.JobStatusFailed), 100)
	ev.ErrorMessage = genErr.Error()
	p.publish(ctx, ev)
	p.Cache.InvalidateUser(ctx, userID)
	p.Cache.InvalidateRealtime(ctx)
	return nil
}

func (p *Processor) publish(ctx context.Context, ev ws.JobEvent) {
	if err := p.Events.PublishJobEvent(ctx, ev); err != nil {
		p.Logger.Warn().Err(err).Str("job_id", ev.JobID).Msg("event publish failed")
	}
}
