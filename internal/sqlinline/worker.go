package sqlinline

const QWorkerClaimJob = `--sql 4bb570b6-c65e-4d39-af73-0c9770527cb7
with target as (
    select id
    from generation_jobs
    where job_id = $1::uuid
      and status = 'QUEUED'
      and (next_retry_at is null or next_retry_at <= now())
    for update skip locked
),
claimed as (
    update generation_jobs j
    set status = 'PROCESSING',
        started_at = now(),
        updated_at = now()
    where j.id in (select id from target)
    returning j.id, j.job_id, j.user_id, j.content_type, j.priority, j.provider, j.model, j.request_params, j.retry_count, j.max_retries, j.metadata
)
select * from claimed;
`

const QWorkerCompleteJob = `--sql fb178dd1-c20b-484e-9a92-2f4fa3defedd
update generation_jobs
set status = 'COMPLETED',
    result_content = $2::text,
    provider = $3::text,
    model = $4::text,
    tokens_used = $5::int,
    cost = $6::numeric,
    completed_at = now(),
    processing_time_ms = $7::bigint,
    metadata = metadata || coalesce($8::jsonb, '{}'::jsonb),
    next_retry_at = null,
    updated_at = now()
where id = $1::bigint
  and status = 'PROCESSING'
returning job_id, user_id;
`

const QWorkerFailJob = `--sql a1768495-e35e-48c5-b008-ac3588e36e8a
update generation_jobs
set status = 'FAILED',
    error_message = $2::text,
    error_details = $3::jsonb,
    completed_at = now(),
    processing_time_ms = $4::bigint,
    next_retry_at = null,
    updated_at = now()
where id = $1::bigint
  and status = 'PROCESSING'
returning job_id, user_id, retry_count;
`

const QWorkerRequeueJob = `--sql b21b7941-a9c4-4860-a5a0-c64df96f9d5c
update generation_jobs
set status = 'QUEUED',
    error_message = $2::text,
    error_details = $3::jsonb,
    retry_count = retry_count + 1,
    next_retry_at = now() + ($4::int * interval '1 second'),
    started_at = null,
    processing_time_ms = null,
    updated_at = now()
where id = $1::bigint
  and status = 'PROCESSING'
returning job_id, user_id, retry_count, next_retry_at;
`
