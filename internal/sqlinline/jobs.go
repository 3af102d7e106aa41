package sqlinline

import (
	"fmt"
	"strings"

	"bossai/internal/domain"
)

const QInsertJob = `--sql 2db990e8-5585-41f5-82cc-30fd2cec344f
with incoming as (
    select
        $1::uuid  as user_id,
        $2::text  as content_type,
        $3::int   as priority,
        $4::text  as provider,
        $5::text  as model,
        $6::jsonb as request_params,
        $7::int   as max_retries,
        $8::int   as ttl_seconds,
        coalesce($9::jsonb, '{}'::jsonb) as metadata
)
insert into generation_jobs (user_id, content_type, status, priority, provider, model, request_params, max_retries, expires_at, metadata)
select user_id, content_type, 'QUEUED', priority, provider, model, request_params, max_retries, now() + (ttl_seconds * interval '1 second'), metadata
from incoming
returning id, job_id, created_at;
`

const jobColumns = `
    id,
    job_id,
    user_id,
    content_type,
    status,
    priority,
    provider,
    model,
    request_params,
    result_content,
    tokens_used,
    cost,
    error_message,
    error_details,
    retry_count,
    max_retries,
    next_retry_at,
    expires_at,
    started_at,
    completed_at,
    processing_time_ms,
    metadata,
    created_at,
    updated_at`

const QSelectJobForUser = `--sql 9ad0d8eb-1068-4d40-9d2b-162bd6cd853c
select` + jobColumns + `
from generation_jobs
where job_id = $1::uuid
  and user_id = $2::uuid
limit 1;
`

const QSelectJobByJobID = `--sql 2025a021-b625-4276-b304-7b718ce4c287
select` + jobColumns + `
from generation_jobs
where job_id = $1::uuid
limit 1;
`

const QCancelJob = `--sql 71ed66ef-e577-46c8-91f1-3fc956536ba6
update generation_jobs
set status = 'CANCELLED',
    completed_at = now(),
    updated_at = now()
where job_id = $1::uuid
  and user_id = $2::uuid
  and status in ('QUEUED', 'PROCESSING')
returning id, status;
`

const QInsertRetryJob = `--sql 8c5113ff-a0bd-4ad7-af24-bf096a4a08b0
with original as (
    select user_id, content_type, priority, provider, model, request_params, max_retries, retry_count
    from generation_jobs
    where job_id = $1::uuid
)
insert into generation_jobs (user_id, content_type, status, priority, provider, model, request_params, max_retries, retry_count, expires_at, metadata)
select user_id, content_type, 'QUEUED', priority, provider, model, request_params, max_retries, retry_count + 1, now() + ($2::int * interval '1 second'), $3::jsonb
from original
returning id, job_id, created_at;
`

const QQueuePosition = `--sql 88a5b2b2-2f8e-415a-81ba-3300856afe9e
with target as (
    select priority, created_at
    from generation_jobs
    where job_id = $1::uuid
)
select count(*) + 1
from generation_jobs j, target t
where j.status = 'QUEUED'
  and (j.priority > t.priority or (j.priority = t.priority and j.created_at < t.created_at));
`

const QListJobsBase = `--sql 37cc2827-1a68-4fe2-9bc8-dc86512aa1ae
select` + jobColumns + `
from generation_jobs`

const QCountJobsBase = `--sql 84409ca8-e7f0-4d57-911b-5c7eb95405c5
select count(*)
from generation_jobs`

// Must stay in sync with idx_generation_jobs_search so Postgres can serve
// the predicate from the GIN index.
const jobSearchVector = "to_tsvector('english', coalesce(content_type, '') || ' ' || coalesce(result_content, '') || ' ' || coalesce(error_message, ''))"

const jobSearchPredicate = jobSearchVector + " @@ plainto_tsquery('english', $%d::text)"

const jobSearchRank = "ts_rank(" + jobSearchVector + ", plainto_tsquery('english', $%d::text)) desc"

// BuildJobListQuery renders the listing query for the filter. The ORDER BY
// column and direction come from the filter whitelist, never from raw
// request input, so user-controlled values only travel as bind parameters.
// Search results are ranked before the requested sort applies.
func BuildJobListQuery(f *domain.JobFilter) (string, []any) {
	conds, args := jobPredicates(f)
	var b strings.Builder
	b.WriteString(QListJobsBase)
	writeWhere(&b, conds)
	b.WriteString("\norder by ")
	if f.HasSearch() {
		// The search term is always the last predicate argument.
		fmt.Fprintf(&b, jobSearchRank+", ", len(args))
	}
	fmt.Fprintf(&b, "%s %s", f.SortColumn(), sortKeyword(f))
	fmt.Fprintf(&b, "\nlimit $%d offset $%d;", len(args)+1, len(args)+2)
	args = append(args, f.Size, f.Page*f.Size)
	return b.String(), args
}

// BuildJobCountQuery renders the matching total-count query for the same
// predicate set as BuildJobListQuery, without paging.
func BuildJobCountQuery(f *domain.JobFilter) (string, []any) {
	conds, args := jobPredicates(f)
	var b strings.Builder
	b.WriteString(QCountJobsBase)
	writeWhere(&b, conds)
	b.WriteString(";")
	return b.String(), args
}

func jobPredicates(f *domain.JobFilter) ([]string, []any) {
	var conds []string
	var args []any
	add := func(expr string, value any) {
		args = append(args, value)
		conds = append(conds, fmt.Sprintf(expr, len(args)))
	}
	if !f.All {
		add("user_id = $%d::uuid", f.UserID)
	}
	if f.Status != "" {
		add("status = $%d::text", f.Status)
	}
	if f.ContentType != "" {
		add("content_type = $%d::text", f.ContentType)
	}
	if f.Provider != "" {
		add("provider = $%d::text", f.Provider)
	}
	if f.CreatedAfter != nil {
		add("created_at >= $%d::timestamptz", *f.CreatedAfter)
	}
	if f.CreatedBefore != nil {
		add("created_at <= $%d::timestamptz", *f.CreatedBefore)
	}
	if f.CompletedAfter != nil {
		add("completed_at >= $%d::timestamptz", *f.CompletedAfter)
	}
	if f.CompletedBefore != nil {
		add("completed_at <= $%d::timestamptz", *f.CompletedBefore)
	}
	if f.MinExecutionMs != nil {
		add("processing_time_ms >= $%d::bigint", *f.MinExecutionMs)
	}
	if f.MaxExecutionMs != nil {
		add("processing_time_ms <= $%d::bigint", *f.MaxExecutionMs)
	}
	if f.MinRetryCount != nil {
		add("retry_count >= $%d::int", *f.MinRetryCount)
	}
	if f.HasSearch() {
		add(jobSearchPredicate, f.Search)
	}
	return conds, args
}

func writeWhere(b *strings.Builder, conds []string) {
	if len(conds) == 0 {
		return
	}
	b.WriteString("\nwhere ")
	b.WriteString(strings.Join(conds, "\n  and "))
}

func sortKeyword(f *domain.JobFilter) string {
	if f.SortDirection == domain.SortAsc {
		return "asc"
	}
	return "desc"
}
