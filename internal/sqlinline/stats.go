package sqlinline

const QUserJobStats = `--sql a3336078-d156-4600-8ad7-74faedda36d0
select
    count(*)                                       as total,
    count(*) filter (where status = 'QUEUED')      as queued,
    count(*) filter (where status = 'PROCESSING')  as processing,
    count(*) filter (where status = 'COMPLETED')   as completed,
    count(*) filter (where status = 'FAILED')      as failed,
    count(*) filter (where status = 'CANCELLED')   as cancelled,
    count(*) filter (where status = 'EXPIRED')     as expired,
    coalesce(sum(tokens_used), 0)::bigint          as tokens_used,
    coalesce(sum(cost), 0)::float8                 as total_cost,
    coalesce(avg(processing_time_ms) filter (where status = 'COMPLETED'), 0)::float8 as avg_processing_ms,
    coalesce(sum(processing_time_ms) filter (where status = 'COMPLETED'), 0)::bigint as total_processing_ms
from generation_jobs
where user_id = $1::uuid;
`

const QQueueMetrics = `--sql 2eb51271-14f3-4aab-a5a9-f3a1f4cc58e2
select
    count(*) filter (where status = 'QUEUED')      as queued,
    count(*) filter (where status = 'PROCESSING')  as processing,
    coalesce(avg(extract(epoch from (now() - created_at)) * 1000) filter (where status = 'QUEUED'), 0)::float8 as avg_wait_ms,
    coalesce(extract(epoch from (now() - min(created_at) filter (where status = 'QUEUED'))) * 1000, 0)::bigint as oldest_queued_ms,
    coalesce(avg(processing_time_ms) filter (where status = 'COMPLETED' and completed_at > now() - interval '1 hour'), 0)::float8 as avg_processing_ms,
    count(*) filter (where status = 'COMPLETED' and completed_at > now() - interval '1 hour') as completed_last_hour,
    count(*) filter (where status = 'FAILED' and completed_at > now() - interval '1 hour')    as failed_last_hour
from generation_jobs;
`

const QHourlyJobStats = `--sql 73c9d8fe-dc80-4fea-9286-2b589f3578ec
select
    date_trunc('hour', created_at)                 as bucket,
    count(*)                                       as total,
    count(*) filter (where status = 'COMPLETED')   as completed,
    count(*) filter (where status = 'FAILED')      as failed,
    coalesce(sum(tokens_used), 0)::bigint          as tokens_used
from generation_jobs
where created_at > now() - ($2::int * interval '1 hour')
  and ($1::uuid is null or user_id = $1::uuid)
group by bucket
order by bucket;
`
