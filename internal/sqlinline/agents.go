package sqlinline

const QSelectAgentForContentType = `--sql 5ead6490-33fe-45e8-86d0-7c27cf7e27a6
select id, agent_name, agent_url, api_key, model, temperature::float8
from webhook_agents
where is_active
  and content_type = $1::text
limit 1;
`

const QSelectAgents = `--sql 28082180-867a-4e85-b6d3-bf8e61e29e1a
select id, content_type, agent_name, agent_url, model, temperature::float8, is_active, created_at, updated_at
from webhook_agents
order by content_type;
`

const QUpsertAgent = `--sql 5c8c38b5-f189-4166-9377-865fcc064655
with incoming as (
    select
        $1::text    as content_type,
        $2::text    as agent_name,
        $3::text    as agent_url,
        $4::text    as api_key,
        $5::text    as model,
        $6::numeric as temperature,
        $7::boolean as is_active
)
insert into webhook_agents (content_type, agent_name, agent_url, api_key, model, temperature, is_active)
select content_type, agent_name, agent_url, api_key, model, temperature, is_active
from incoming
on conflict (content_type) do update set
    agent_name = excluded.agent_name,
    agent_url = excluded.agent_url,
    api_key = excluded.api_key,
    model = excluded.model,
    temperature = excluded.temperature,
    is_active = excluded.is_active,
    updated_at = now()
returning id;
`

const QDeleteAgent = `--sql 395fdcd3-2aad-4ce7-a90d-ae546e293da8
delete from webhook_agents
where id = $1::uuid
returning id;
`
