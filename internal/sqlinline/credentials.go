package sqlinline

const QSelectProviderCredential = `--sql f9827541-297b-434c-b3b6-afd47746a6c6
select api_key, properties
from provider_credentials
where provider = $1::text
limit 1;
`

const QUpsertProviderCredential = `--sql a6711aa6-0ce8-4c90-b5fe-4c96bd3e6776
with incoming as (
    select
        $1::text as provider,
        $2::text as api_key,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into provider_credentials (provider, api_key, properties, created_at, updated_at)
values ((select provider from incoming), (select api_key from incoming), (select properties from incoming), now(), now())
on conflict (provider) do update set
    api_key = excluded.api_key,
    properties = excluded.properties,
    updated_at = now();
`
