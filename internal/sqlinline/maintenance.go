package sqlinline

const QExpireQueuedJobs = `--sql ff8aab50-3946-4ea2-92fd-61367a4d5955
update generation_jobs
set status = 'EXPIRED',
    error_message = 'expired before processing',
    completed_at = now(),
    updated_at = now()
where status in ('QUEUED', 'PROCESSING')
  and expires_at is not null
  and expires_at < now()
returning job_id, user_id;
`

// Stuck PROCESSING rows follow the worker's failure path: requeue while
// retry budget remains, otherwise fail terminally.
const QReapStuckJobs = `--sql a2cede90-31a1-4302-bfc7-bccd948d7cd2
update generation_jobs
set status = case when retry_count < max_retries then 'QUEUED' else 'FAILED' end,
    retry_count = case when retry_count < max_retries then retry_count + 1 else retry_count end,
    next_retry_at = case when retry_count < max_retries then now() else null end,
    error_message = 'processing timed out',
    completed_at = case when retry_count < max_retries then null else now() end,
    started_at = null,
    updated_at = now()
where status = 'PROCESSING'
  and started_at < now() - ($1::int * interval '1 second')
returning job_id, user_id, status, priority;
`

const QSelectRequeueableJobs = `--sql 46a03114-6dd3-4927-b310-7ba05188be29
select job_id, priority
from generation_jobs
where status = 'QUEUED'
  and coalesce(next_retry_at, created_at) < now() - ($1::int * interval '1 second')
order by priority desc, created_at
limit 100;
`

const QPurgeOldJobs = `--sql 1507da0c-1836-40b3-a69e-433318526f4c
delete from generation_jobs
where status in ('COMPLETED', 'FAILED', 'CANCELLED', 'EXPIRED')
  and created_at < now() - ($1::int * interval '1 day');
`
