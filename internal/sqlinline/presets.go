package sqlinline

const presetColumns = `
    id,
    user_id,
    name,
    description,
    content_type,
    industry,
    target_audience,
    tone,
    language,
    custom_params,
    is_default,
    usage_count,
    last_used_at,
    created_at,
    updated_at`

const QInsertPreset = `--sql bc269c75-386a-4b3c-b282-b8dcd1c8c58c
insert into user_presets (user_id, name, description, content_type, industry, target_audience, tone, language, custom_params, is_default)
values ($1::uuid, $2::text, $3::text, $4::text, $5::text, $6::text, $7::text, $8::text, coalesce($9::jsonb, '{}'::jsonb), $10::boolean)
on conflict (user_id, name) do nothing
returning id, created_at, updated_at;
`

const QSelectPresetsByUser = `--sql 884ab6c6-cba8-47a1-bd6d-5ac9d6060437
select` + presetColumns + `
from user_presets
where user_id = $1::uuid
order by is_default desc, last_used_at desc nulls last, name;
`

const QSelectPresetByID = `--sql 6a4f1918-b90d-4ae2-8be7-4353d32ae923
select` + presetColumns + `
from user_presets
where id = $1::uuid
  and user_id = $2::uuid
limit 1;
`

const QUpdatePreset = `--sql 0e7b2a96-196e-455c-86b0-ae4eb54c9f20
update user_presets
set name = $3::text,
    description = $4::text,
    content_type = $5::text,
    industry = $6::text,
    target_audience = $7::text,
    tone = $8::text,
    language = $9::text,
    custom_params = coalesce($10::jsonb, custom_params),
    is_default = $11::boolean,
    updated_at = now()
where id = $1::uuid
  and user_id = $2::uuid
returning id, updated_at;
`

const QDeletePreset = `--sql 6e8a34ab-6e14-440a-9511-284a29b09e53
delete from user_presets
where id = $1::uuid
  and user_id = $2::uuid
returning id;
`

const QClearDefaultPreset = `--sql 86b85bdb-25e4-46c4-8e4c-880402b40612
update user_presets
set is_default = false,
    updated_at = now()
where user_id = $1::uuid
  and is_default
  and id <> $2::uuid;
`

const QApplyPreset = `--sql 5b0ad9ad-67b4-45d0-8e57-6c2f7b3398ce
update user_presets
set usage_count = usage_count + 1,
    last_used_at = now(),
    updated_at = now()
where id = $1::uuid
  and user_id = $2::uuid
returning` + presetColumns + `;
`
