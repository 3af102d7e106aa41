package sqlinline

const QCreateUsersTable = `--sql 46024ad1-8bb0-44e4-b76a-37294eafa93d
create table if not exists users (
    id                        uuid primary key default gen_random_uuid(),
    username                  text not null unique,
    email                     text not null unique,
    password_hash             text not null default '',
    first_name                text,
    last_name                 text,
    role                      text not null default 'USER',
    is_active                 boolean not null default false,
    email_verified            boolean not null default false,
    verification_token        text,
    verification_expires_at   timestamptz,
    failed_login_attempts     int not null default 0,
    locked_until              timestamptz,
    last_login_at             timestamptz,
    oauth_provider            text,
    oauth_provider_id         text,
    language                  text not null default 'vi',
    timezone                  text not null default 'Asia/Ho_Chi_Minh',
    version                   bigint not null default 0,
    created_at                timestamptz not null default now(),
    updated_at                timestamptz not null default now()
);
`

const QCreateLoginAuditTable = `--sql 9786e98d-4c04-4ca7-95a5-8143c7cc8ffe
create table if not exists login_audit (
    id          bigserial primary key,
    user_id     uuid references users(id) on delete set null,
    username    text not null,
    success     boolean not null,
    ip          text,
    country     text,
    user_agent  text,
    created_at  timestamptz not null default now()
);
`

const QCreateConfigsPrimaryTable = `--sql 38d2ea66-381f-4d91-9e5c-0db5d8ec6339
create table if not exists configs_primary (
    id          uuid primary key default gen_random_uuid(),
    category    text not null,
    value       text not null,
    label       text not null,
    description text,
    language    text not null default 'vi',
    sort_order  int not null default 0,
    is_active   boolean not null default true,
    created_at  timestamptz not null default now(),
    updated_at  timestamptz not null default now(),
    unique (category, value, language)
);
`

const QCreateConfigsUserTable = `--sql d8cefabe-a36f-44c3-a099-7ef63d6ad399
create table if not exists configs_user (
    id         uuid primary key default gen_random_uuid(),
    user_id    uuid not null references users(id) on delete cascade,
    config_id  uuid not null references configs_primary(id) on delete cascade,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now(),
    unique (user_id, config_id)
);
`

const QCreateUserConfigsView = `--sql 4c222373-7974-443f-97cf-4574ed55326a
create or replace view v_user_configs as
select
    cp.id,
    cp.category,
    cp.value,
    cp.label,
    cp.description,
    cp.language,
    cp.sort_order,
    cp.is_active,
    cu.user_id,
    cu.id is not null as is_selected,
    cu.created_at as selected_at
from configs_primary cp
left join configs_user cu on cu.config_id = cp.id;
`

const QCreateUserPresetsTable = `--sql 1a465c05-9412-4c4f-86e0-b2f9eab285a3
create table if not exists user_presets (
    id              uuid primary key default gen_random_uuid(),
    user_id         uuid not null references users(id) on delete cascade,
    name            text not null,
    description     text,
    content_type    text,
    industry        text,
    target_audience text,
    tone            text,
    language        text not null default 'vi',
    custom_params   jsonb not null default '{}'::jsonb,
    is_default      boolean not null default false,
    usage_count     int not null default 0,
    last_used_at    timestamptz,
    created_at      timestamptz not null default now(),
    updated_at      timestamptz not null default now(),
    unique (user_id, name)
);
`

const QCreateGenerationJobsTable = `--sql e91fabea-f853-48e0-a132-5778e4934558
create table if not exists generation_jobs (
    id                 bigserial primary key,
    job_id             uuid not null unique default gen_random_uuid(),
    user_id            uuid not null references users(id) on delete cascade,
    content_type       text,
    status             text not null default 'QUEUED',
    priority           int not null default 5,
    provider           text,
    model              text,
    request_params     jsonb not null default '{}'::jsonb,
    result_content     text,
    tokens_used        int not null default 0,
    cost               numeric(12,6) not null default 0,
    error_message      text,
    error_details      jsonb,
    retry_count        int not null default 0,
    max_retries        int not null default 3,
    next_retry_at      timestamptz,
    expires_at         timestamptz,
    started_at         timestamptz,
    completed_at       timestamptz,
    processing_time_ms bigint,
    metadata           jsonb not null default '{}'::jsonb,
    created_at         timestamptz not null default now(),
    updated_at         timestamptz not null default now()
);
`

const QCreateGenerationJobsIndexes = `--sql 60a0a67e-5c05-41b4-ab1f-5ec3afc03429
create index if not exists idx_generation_jobs_user_created
    on generation_jobs (user_id, created_at desc);
create index if not exists idx_generation_jobs_status
    on generation_jobs (status);
create index if not exists idx_generation_jobs_queued_due
    on generation_jobs (next_retry_at) where status = 'QUEUED';
create index if not exists idx_generation_jobs_search
    on generation_jobs using gin (
        to_tsvector('english',
            coalesce(content_type, '') || ' ' || coalesce(result_content, '') || ' ' || coalesce(error_message, ''))
    );
`

const QCreateProviderCredentialsTable = `--sql b5ea947f-fe5a-4b3a-b50c-e1cfce81b309
create table if not exists provider_credentials (
    provider   text primary key,
    api_key    text not null,
    properties jsonb not null default '{}'::jsonb,
    created_at timestamptz not null default now(),
    updated_at timestamptz not null default now()
);
`

const QCreateWebhookAgentsTable = `--sql 123c28e3-c512-4801-b366-43302bb6040e
create table if not exists webhook_agents (
    id           uuid primary key default gen_random_uuid(),
    content_type text not null unique,
    agent_name   text not null,
    agent_url    text not null,
    api_key      text,
    model        text,
    temperature  numeric(3,2) not null default 0.6,
    is_active    boolean not null default true,
    created_at   timestamptz not null default now(),
    updated_at   timestamptz not null default now()
);
`

// Schema lists every DDL statement in dependency order for the
// development bootstrap.
var Schema = []string{
	QCreateUsersTable,
	QCreateLoginAuditTable,
	QCreateConfigsPrimaryTable,
	QCreateConfigsUserTable,
	QCreateUserConfigsView,
	QCreateUserPresetsTable,
	QCreateGenerationJobsTable,
	QCreateGenerationJobsIndexes,
	QCreateProviderCredentialsTable,
	QCreateWebhookAgentsTable,
}
