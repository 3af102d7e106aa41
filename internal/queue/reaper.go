package queue

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"bossai/internal/cache"
	"bossai/internal/domain"
	"bossai/internal/infra"
	"bossai/internal/sqlinline"
	"bossai/internal/ws"
)

// Reaper runs the scheduled maintenance passes: expiring stale queued
// jobs, failing stuck processing jobs, re-enqueueing jobs whose task was
// lost, and purging old terminal rows.
type Reaper struct {
	SQL       infra.SQLExecutor
	Scheduler TaskScheduler
	Events    ws.Publisher
	Cache     *cache.Cache
	Logger    zerolog.Logger

	StuckAfter     time.Duration
	RequeueAfter   time.Duration
	PurgeAfterDays int
}

const reaperOpTimeout = 30 * time.Second

// Start registers the maintenance schedule and starts the cron runner.
// The caller owns stopping the returned cron.
func (r *Reaper) Start() (*cron.Cron, error) {
	c := cron.New()
	if _, err := c.AddFunc("*/5 * * * *", r.runExpire); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("*/2 * * * *", r.runReapStuck); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("* * * * *", r.runPromoteRetries); err != nil {
		return nil, err
	}
	if _, err := c.AddFunc("0 3 * * *", r.runPurge); err != nil {
		return nil, err
	}
	c.Start()
	r.Logger.Info().Msg("maintenance schedule started")
	return c, nil
}

func (r *Reaper) runExpire() {
	ctx, cancel := context.WithTimeout(context.Background(), reaperOpTimeout)
	defer cancel()
	n, err := r.Expire(ctx)
	if err != nil {
		r.Logger.Error().Err(err).Msg("expire pass failed")
		return
	}
	if n > 0 {
		r.Logger.Info().Int("jobs", n).Msg("expired stale queued jobs")
	}
}

// Expire marks jobs past their TTL as EXPIRED and notifies owners.
func (r *Reaper) Expire(ctx context.Context) (int, error) {
	rows, err := r.SQL.Query(ctx, sqlinline.QExpireQueuedJobs)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type affected struct{ jobID, userID string }
	var hit []affected
	for rows.Next() {
		var a affected
		if err := rows.Scan(&a.jobID, &a.userID); err != nil {
			return 0, err
		}
		hit = append(hit, a)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, a := range hit {
		ev := ws.NewJobEvent(a.jobID, a.userID, string(domain.JobStatusExpired), 100)
		ev.Message = "expired before processing"
		r.notify(ctx, ev)
	}
	if len(hit) > 0 {
		r.Cache.InvalidateRealtime(ctx)
	}
	return len(hit), nil
}

func (r *Reaper) runReapStuck() {
	ctx, cancel := context.WithTimeout(context.Background(), reaperOpTimeout)
	defer cancel()
	n, err := r.ReapStuck(ctx)
	if err != nil {
		r.Logger.Error().Err(err).Msg("stuck pass failed")
		return
	}
	if n > 0 {
		r.Logger.Warn().Int("jobs", n).Msg("swept stuck processing jobs")
	}
}

// ReapStuck recovers PROCESSING jobs whose worker disappeared. Rows with
// retries left go back to QUEUED and are re-enqueued; the rest fail.
func (r *Reaper) ReapStuck(ctx context.Context) (int, error) {
	rows, err := r.SQL.Query(ctx, sqlinline.QReapStuckJobs, int(r.StuckAfter.Seconds()))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type swept struct {
		jobID    string
		userID   string
		status   string
		priority int
	}
	var hit []swept
	for rows.Next() {
		var s swept
		if err := rows.Scan(&s.jobID, &s.userID, &s.status, &s.priority); err != nil {
			return 0, err
		}
		hit = append(hit, s)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, s := range hit {
		ev := ws.NewJobEvent(s.jobID, s.userID, s.status, 0)
		if s.status == string(domain.JobStatusQueued) {
			ev.Message = "processing timed out, retry scheduled"
			if err := r.Scheduler.EnqueueGeneration(ctx, s.jobID, s.priority, 0); err != nil {
				r.Logger.Error().Err(err).Str("job_id", s.jobID).Msg("re-enqueue failed")
			}
		} else {
			ev.Progress = 100
			ev.ErrorMessage = "processing timed out"
		}
		r.notify(ctx, ev)
	}
	if len(hit) > 0 {
		r.Cache.InvalidateRealtime(ctx)
	}
	return len(hit), nil
}

func (r *Reaper) notify(ctx context.Context, ev ws.JobEvent) {
	if err := r.Events.PublishJobEvent(ctx, ev); err != nil {
		r.Logger.Warn().Err(err).Str("job_id", ev.JobID).Msg("event publish failed")
	}
	r.Cache.InvalidateUser(ctx, ev.UserID)
}

func (r *Reaper) runPromoteRetries() {
	ctx, cancel := context.WithTimeout(context.Background(), reaperOpTimeout)
	defer cancel()
	n, err := r.PromoteRetries(ctx)
	if err != nil {
		r.Logger.Error().Err(err).Msg("retry promotion failed")
		return
	}
	if n > 0 {
		r.Logger.Info().Int("jobs", n).Msg("re-enqueued overdue jobs")
	}
}

// PromoteRetries re-enqueues QUEUED jobs that have been due longer than
// RequeueAfter, covering tasks lost between the DB write and Redis.
func (r *Reaper) PromoteRetries(ctx context.Context) (int, error) {
	rows, err := r.SQL.Query(ctx, sqlinline.QSelectRequeueableJobs, int(r.RequeueAfter.Seconds()))
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	type due struct {
		jobID    string
		priority int
	}
	var jobs []due
	for rows.Next() {
		var d due
		if err := rows.Scan(&d.jobID, &d.priority); err != nil {
			return 0, err
		}
		jobs = append(jobs, d)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	enqueued := 0
	for _, d := range jobs {
		if err := r.Scheduler.EnqueueGeneration(ctx, d.jobID, d.priority, 0); err != nil {
			r.Logger.Error().Err(err).Str("job_id", d.jobID).Msg("re-enqueue failed")
			continue
		}
		enqueued++
	}
	return enqueued, nil
}

func (r *Reaper) runPurge() {
	ctx, cancel := context.WithTimeout(context.Background(), reaperOpTimeout)
	defer cancel()
	n, err := r.Purge(ctx)
	if err != nil {
		r.Logger.Error().Err(err).Msg("purge failed")
		return
	}
	r.Logger.Info().Int64("jobs", n).Msg("purged old terminal jobs")
}

// Purge deletes terminal jobs older than the retention window.
func (r *Reaper) Purge(ctx context.Context) (int64, error) {
	tag, err := r.SQL.Exec(ctx, sqlinline.QPurgeOldJobs, r.PurgeAfterDays)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
